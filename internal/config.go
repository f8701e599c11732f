package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/stella-dust/zolapub/internal/reconcile"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
//
// The same YAML document also carries the activity log under the
// "activity_log" key; that key is owned by the activity store and is not
// decoded here.
type Config struct {
	App          ApplicationConfig `yaml:"app"`
	Vault        TreeConfig        `yaml:"vault"`
	Site         TreeConfig        `yaml:"site"`
	Sync         SyncConfig        `yaml:"sync"`
	Remote       RemoteConfig      `yaml:"remote"`
	DashboardURL string            `yaml:"dashboard_url"`
	Index        IndexConfig       `yaml:"index"`
	Auth         AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := validation.ValidateStruct(&c.Vault,
		validation.Field(&c.Vault.Root, validation.Required),
		validation.Field(&c.Vault.PostsPath, validation.Required),
	); err != nil {
		return fmt.Errorf("vault: %w", err)
	}
	if err := c.Sync.Validate(); err != nil {
		return err
	}
	if err := c.Index.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// SyncSettings returns the snapshot a reconciliation session works from.
func (c *Config) SyncSettings() reconcile.Settings {
	return reconcile.Settings{
		VaultRoot:       c.Vault.Root,
		VaultPostsPath:  c.Vault.PostsPath,
		VaultImagesPath: c.Vault.ImagesPath,
		SiteRoot:        c.Site.Root,
		SitePostsPath:   c.Site.PostsPath,
		SiteImagesPath:  c.Site.ImagesPath,
		Policy:          reconcile.Policy(c.Sync.Mode),
		Exclude:         append([]string(nil), c.Sync.Exclude...),
	}
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	// LogFile, when set, sends diagnostic output to a rotated file instead of stdout.
	LogFile string     `yaml:"log_file"`
	HTTP    HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// TreeConfig locates one content tree. PostsPath and ImagesPath may be
// absolute or relative to Root.
type TreeConfig struct {
	Root       string `yaml:"root"`
	PostsPath  string `yaml:"posts_path"`
	ImagesPath string `yaml:"images_path"`
}

// SyncConfig holds the sync policy.
type SyncConfig struct {
	Mode    string   `yaml:"mode"`
	Exclude []string `yaml:"exclude"`
	// Watch makes serve push automatically when vault articles change.
	Watch bool `yaml:"watch"`
}

// Validate validates the sync configuration.
func (c *SyncConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required,
			validation.In(string(reconcile.OneWay), string(reconcile.TwoWay))),
	)
}

// RemoteConfig names the git remote the site is published to.
type RemoteConfig struct {
	RepoURL string `yaml:"repo_url"`
	Branch  string `yaml:"branch"`
}

// IndexConfig holds the SQLite catalog configuration.
type IndexConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: TreeConfig{
			PostsPath:  "blog/posts",
			ImagesPath: "blog/post_imgs",
		},
		Site: TreeConfig{
			PostsPath:  "content/posts",
			ImagesPath: "static/post_imgs",
		},
		Sync: SyncConfig{
			Mode: string(reconcile.OneWay),
		},
		Remote: RemoteConfig{
			Branch: "main",
		},
		Index: IndexConfig{
			Path: "./zolapub.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
