package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/stella-dust/zolapub/internal"
	"github.com/stella-dust/zolapub/internal/blogservice"
	"github.com/stella-dust/zolapub/internal/mcpserver"
	"github.com/stella-dust/zolapub/internal/models"
	"github.com/stella-dust/zolapub/internal/preview"
)

// withApp opens the application for the duration of fn.
func withApp(ctx context.Context, cmd *cli.Command, fn func(context.Context, *internal.App) error) error {
	app, err := openApp(cmd, os.Stderr)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}

func treeFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "site",
		Usage: "Read the site tree instead of the vault",
	}
}

func selectedTree(cmd *cli.Command) models.Tree {
	if cmd.Bool("site") {
		return models.TreeSite
	}
	return models.TreeVault
}

func pushCommand() *cli.Command {
	return &cli.Command{
		Name:  "push",
		Usage: "Copy vault articles and images to the site",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
				report, err := app.Service.Push(ctx)
				if err != nil {
					return err
				}
				renderReport(os.Stdout, report)
				return nil
			})
		},
	}
}

func pullCommand() *cli.Command {
	return &cli.Command{
		Name:  "pull",
		Usage: "Copy site articles and images back to the vault (two-way mode only)",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
				report, err := app.Service.Pull(ctx)
				if err != nil {
					return err
				}
				renderReport(os.Stdout, report)
				return nil
			})
		},
	}
}

func publishCommand() *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Commit the site and push it to the configured remote",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "message",
				Aliases: []string{"m"},
				Usage:   "Commit message (defaults to \"Publish <date>\")",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
				res, err := app.Service.Publish(ctx, cmd.String("message"))
				if err != nil {
					return err
				}
				fmt.Println(okStyle.Render(fmt.Sprintf("Published %s to %s/%s", res.Commit, res.Remote, res.Branch)))
				if url := app.Config.DashboardURL; url != "" {
					fmt.Println(dimStyle.Render("Deployments: " + url))
				}
				return nil
			})
		},
	}
}

func previewCommand() *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "Run zola serve on the site until interrupted",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
				status, err := app.Service.Preview(ctx)
				if err != nil {
					return err
				}
				if status == preview.StatusAlreadyRunning {
					fmt.Println(dimStyle.Render("Preview already running"))
				}
				fmt.Println(okStyle.Render("Preview at " + preview.DefaultURL))
				<-ctx.Done()
				return nil
			})
		},
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "new",
		Usage:     "Create a draft article in the vault",
		ArgsUsage: "<title>",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "tag",
				Aliases: []string{"t"},
				Usage:   "Tag to add (repeatable)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			title := strings.Join(cmd.Args().Slice(), " ")
			if title == "" {
				return fmt.Errorf("a title is required")
			}
			return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
				res, err := app.Service.NewArticle(ctx, title, cmd.StringSlice("tag"))
				if err != nil {
					return err
				}
				fmt.Println(okStyle.Render("Created " + res.Path))
				return nil
			})
		},
	}
}

func articlesCommand() *cli.Command {
	return &cli.Command{
		Name:  "articles",
		Usage: "List catalogued articles, newest first",
		Flags: []cli.Flag{
			treeFlag(),
			&cli.StringFlag{Name: "tag", Usage: "Only articles carrying this tag"},
			&cli.BoolFlag{Name: "drafts", Usage: "Include drafts"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
				if _, err := app.Service.RefreshCatalog(ctx); err != nil {
					return err
				}
				rows, err := app.Service.Articles(ctx, blogservice.ArticleQuery{
					Tree:   selectedTree(cmd),
					Tag:    cmd.String("tag"),
					Drafts: cmd.Bool("drafts"),
				})
				if err != nil {
					return err
				}
				renderArticles(os.Stdout, rows)
				return nil
			})
		},
	}
}

func tagsCommand() *cli.Command {
	return &cli.Command{
		Name:  "tags",
		Usage: "List tags with article counts",
		Flags: []cli.Flag{treeFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
				if _, err := app.Service.RefreshCatalog(ctx); err != nil {
					return err
				}
				tags, err := app.Service.Tags(ctx, selectedTree(cmd))
				if err != nil {
					return err
				}
				renderTags(os.Stdout, tags)
				return nil
			})
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Full-text search through articles",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			treeFlag(),
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Maximum results"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			query := strings.Join(cmd.Args().Slice(), " ")
			if query == "" {
				return fmt.Errorf("a query is required")
			}
			return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
				if _, err := app.Service.RefreshCatalog(ctx); err != nil {
					return err
				}
				results, err := app.Service.Search(ctx, selectedTree(cmd), query, int(cmd.Int("limit")))
				if err != nil {
					return err
				}
				renderSearch(os.Stdout, results)
				return nil
			})
		},
	}
}

func logCommand() *cli.Command {
	return &cli.Command{
		Name:  "log",
		Usage: "Show recent activity, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Maximum entries"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(_ context.Context, app *internal.App) error {
				renderActivity(os.Stdout, app.Service.Activity(int(cmd.Int("limit"))), time.Now())
				return nil
			})
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Push automatically whenever vault articles change",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
				fmt.Println(dimStyle.Render("Watching " + app.Service.VaultPostsDir()))
				return app.Watch(ctx)
			})
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve zolapub tools over MCP on stdin/stdout",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			// stdout carries the protocol; diagnostics must stay on stderr.
			return withApp(ctx, cmd, func(_ context.Context, app *internal.App) error {
				return mcpserver.New(app.Service, version).ServeStdio()
			})
		},
	}
}
