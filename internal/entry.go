// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/stella-dust/zolapub/internal/activity"
	"github.com/stella-dust/zolapub/internal/api"
	"github.com/stella-dust/zolapub/internal/apperr"
	"github.com/stella-dust/zolapub/internal/blogservice"
	"github.com/stella-dust/zolapub/internal/index"
	"github.com/stella-dust/zolapub/internal/preview"
	"github.com/stella-dust/zolapub/internal/publish"
	"github.com/stella-dust/zolapub/internal/sse"
	"github.com/stella-dust/zolapub/internal/storage"
	"github.com/stella-dust/zolapub/internal/tree"
)

// App holds the components every command works with.
type App struct {
	Config  *Config
	Logger  *slog.Logger
	Service *blogservice.Service
	Preview *preview.Launcher

	db      *index.DB
	logFile io.Closer
}

// NewApp wires storage, the catalog, the activity log and the service from
// the given options. Callers must Close the returned App.
func NewApp(opts ...Option) (*App, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	a := &App{Config: cfg}
	a.Logger, a.logFile = newLogger(cfg.App, app.logOutput)

	settings := cfg.SyncSettings()
	paths := tree.Paths{VaultRoot: settings.VaultRoot, SiteRoot: settings.SiteRoot}
	roots := []string{settings.VaultRoot, settings.SiteRoot}
	if settings.SitePostsPath != "" {
		roots = append(roots, paths.SiteAbs(settings.SitePostsPath))
	}
	if settings.SiteImagesPath != "" {
		roots = append(roots, paths.SiteAbs(settings.SiteImagesPath))
	}
	fs, err := storage.NewFS(roots...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}

	var actLog blogservice.ActivityLog = activity.NewLog(activity.MaxEntries)
	// The log is persisted only into a config file that already exists.
	if app.configPath != "" && fileExists(app.configPath) {
		store, err := activity.OpenStore(app.configPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init activity log: %w", err)
		}
		actLog = store
	}

	a.db, err = index.Open(cfg.Index.Path)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init index: %w", err)
	}

	a.Preview = &preview.Launcher{Logger: a.Logger}
	a.Service = blogservice.New(settings, blogservice.Deps{
		FS:       fs,
		Catalog:  a.db,
		Activity: actLog,
		Publisher: &publish.Git{
			RepoURL: cfg.Remote.RepoURL,
			Branch:  cfg.Remote.Branch,
			Logger:  a.Logger,
		},
		Previewer: a.Preview,
		Events:    app.events,
		Logger:    a.Logger,
	})
	return a, nil
}

// Close stops the preview server and releases the catalog and log file.
func (a *App) Close() error {
	var errs []error
	if a.Preview != nil {
		errs = append(errs, a.Preview.Stop())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if a.logFile != nil {
		errs = append(errs, a.logFile.Close())
	}
	return errors.Join(errs...)
}

// newLogger builds the JSON logger. A configured log file takes precedence
// over out and is rotated.
func newLogger(cfg ApplicationConfig, out io.Writer) (*slog.Logger, io.Closer) {
	var closer io.Closer
	if cfg.LogFile != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		out, closer = lj, lj
	}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	return logger, closer
}

// Watch pushes the vault after every settled burst of article changes
// until ctx is cancelled.
func (a *App) Watch(ctx context.Context) error {
	return index.Watch(ctx, a.Service.VaultPostsDir(), index.DefaultDebounce, a.Logger, a.autoPush)
}

func (a *App) autoPush(ctx context.Context) {
	report, err := a.Service.Push(ctx)
	switch {
	case errors.Is(err, apperr.ErrBusy):
		a.Logger.Info("auto-push skipped, batch in progress")
	case err != nil:
		a.Logger.Error("auto-push failed", slog.String("error", err.Error()))
	default:
		a.Logger.Info("auto-push finished",
			slog.Int("succeeded", report.Succeeded()),
			slog.Int("failed", report.Failed))
	}
}

// Run starts the HTTP control API with the given options and blocks until
// a shutdown signal arrives or ctx is cancelled.
func Run(ctx context.Context, opts ...Option) error {
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	a, err := NewApp(append(opts, withEvents(broker))...)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.Config
	logger := a.Logger
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_posts", a.Service.VaultPostsDir()),
		slog.String("site_posts", a.Service.SitePostsDir()),
		slog.String("sync_mode", cfg.Sync.Mode),
		slog.String("index_path", cfg.Index.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if stats, err := a.Service.RefreshCatalog(ctx); err != nil {
		logger.Warn("initial catalog refresh failed", slog.String("error", err.Error()))
	} else {
		logger.Info("catalog refreshed", slog.Int("indexed", stats.Indexed), slog.Int("removed", stats.Removed))
	}

	apiRouter := api.NewRouter(a.Service, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ok, _ := dirExists(a.Service.VaultPostsDir()); !ok {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"vault posts directory missing"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the vault: push automatically when enabled, otherwise keep the
	// catalog fresh for listing clients.
	g.Go(func() error {
		fn := a.autoPush
		if !cfg.Sync.Watch {
			fn = func(ctx context.Context) {
				stats, err := a.Service.RefreshCatalog(ctx)
				if err != nil {
					logger.Warn("catalog refresh failed", slog.String("error", err.Error()))
					return
				}
				if stats.Changed() {
					broker.PublishCatalogEvent(stats)
				}
			}
		}
		if err := index.Watch(gCtx, a.Service.VaultPostsDir(), index.DefaultDebounce, logger, fn); err != nil {
			logger.Warn("watcher disabled", slog.String("error", err.Error()))
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher exits with the server.
var errShutdown = errors.New("shutdown")

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func dirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}
