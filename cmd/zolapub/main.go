package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/stella-dust/zolapub/internal"
	pkgconfig "github.com/stella-dust/zolapub/pkg/config"
)

var version = "dev"

// loadConfig reads the config file named by --config and applies the
// --vault and --site overrides. A missing file is not an error as long as
// the vault root ends up set.
func loadConfig(cmd *cli.Command) (*internal.Config, string, error) {
	root := cmd.Root()
	configPath := root.String("config")

	cfg := internal.NewDefaultConfig()
	applyRootFlags(root, cfg)
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	// Flags win over the file.
	applyRootFlags(root, cfg)
	return cfg, configPath, nil
}

func applyRootFlags(root *cli.Command, cfg *internal.Config) {
	if v := root.String("vault"); v != "" {
		cfg.Vault.Root = v
	}
	if s := root.String("site"); s != "" {
		cfg.Site.Root = s
	}
}

// openApp wires the application for one-shot commands. Diagnostics go to
// logOut so command output on stdout stays clean.
func openApp(cmd *cli.Command, logOut io.Writer) (*internal.App, error) {
	cfg, configPath, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return internal.NewApp(
		internal.WithConfig(cfg),
		internal.WithConfigPath(configPath),
		internal.WithLogOutput(logOut),
	)
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, configPath, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithConfigPath(configPath),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "zolapub",
		Usage:   "Keep a Markdown vault and a Zola site in sync",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (also holds the activity log)",
				DefaultText: "zolapub.yaml",
				Value:       "zolapub.yaml",
				Sources:     cli.EnvVars("ZOLAPUB_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "vault",
				Usage:   "Vault root directory (overrides vault.root)",
				Sources: cli.EnvVars("ZOLAPUB_VAULT"),
			},
			&cli.StringFlag{
				Name:    "site",
				Usage:   "Site root directory (overrides site.root)",
				Sources: cli.EnvVars("ZOLAPUB_SITE"),
			},
		},
		Commands: []*cli.Command{
			pushCommand(),
			pullCommand(),
			publishCommand(),
			previewCommand(),
			newCommand(),
			articlesCommand(),
			tagsCommand(),
			searchCommand(),
			logCommand(),
			watchCommand(),
			{
				Name:   "serve",
				Usage:  "Run the HTTP control API",
				Action: serve,
			},
			mcpCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
