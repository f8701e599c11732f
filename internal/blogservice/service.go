// Package blogservice coordinates sync sessions, the catalog and the
// publishing collaborators behind the CLI, HTTP and MCP front ends.
package blogservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/stella-dust/zolapub/internal/activity"
	"github.com/stella-dust/zolapub/internal/apperr"
	"github.com/stella-dust/zolapub/internal/index"
	"github.com/stella-dust/zolapub/internal/models"
	"github.com/stella-dust/zolapub/internal/preview"
	"github.com/stella-dust/zolapub/internal/publish"
	"github.com/stella-dust/zolapub/internal/reconcile"
	"github.com/stella-dust/zolapub/internal/sse"
	"github.com/stella-dust/zolapub/internal/storage"
	"github.com/stella-dust/zolapub/internal/tree"
)

// ActivityLog is the append-only record the service writes to.
type ActivityLog interface {
	activity.Sink
	Recent(n int) []activity.Entry
}

// Publisher commits and pushes the site tree.
type Publisher interface {
	Publish(ctx context.Context, dir, message string) (*publish.Result, error)
}

// Previewer runs the site's development server.
type Previewer interface {
	Start(ctx context.Context, root string) (preview.Status, error)
}

// EventSink receives sync notifications.
type EventSink interface {
	PublishSyncEvent(ev sse.SyncEvent)
}

// Deps are the collaborators of a Service. Publisher, Previewer and Events
// may be nil; the matching operations then fail with apperr.ErrConfig.
type Deps struct {
	FS        storage.Provider
	Catalog   *index.DB
	Activity  ActivityLog
	Publisher Publisher
	Previewer Previewer
	Events    EventSink
	Logger    *slog.Logger
}

// Service is the application facade.
type Service struct {
	settings reconcile.Settings
	paths    tree.Paths
	fs       storage.Provider
	db       *index.DB
	activity ActivityLog
	pub      Publisher
	prev     Previewer
	events   EventSink
	logger   *slog.Logger
	now      func() time.Time

	// syncMu serialises batches; a second request fails fast.
	syncMu sync.Mutex
}

// New creates a service working from settings.
func New(settings reconcile.Settings, deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	act := deps.Activity
	if act == nil {
		act = activity.NewLog(activity.MaxEntries)
	}
	return &Service{
		settings: settings,
		paths:    tree.Paths{VaultRoot: settings.VaultRoot, SiteRoot: settings.SiteRoot},
		fs:       deps.FS,
		db:       deps.Catalog,
		activity: act,
		pub:      deps.Publisher,
		prev:     deps.Previewer,
		events:   deps.Events,
		logger:   logger,
		now:      time.Now,
	}
}

// Settings returns the configuration snapshot.
func (s *Service) Settings() reconcile.Settings {
	return s.settings
}

// VaultPostsDir is the absolute vault posts directory.
func (s *Service) VaultPostsDir() string {
	return s.paths.VaultAbs(s.settings.VaultPostsPath)
}

// SitePostsDir is the absolute site posts directory.
func (s *Service) SitePostsDir() string {
	return s.paths.SiteAbs(s.settings.SitePostsPath)
}

// Push runs a vault → site batch.
func (s *Service) Push(ctx context.Context) (*reconcile.Report, error) {
	return s.sync(ctx, reconcile.Push)
}

// Pull runs a site → vault batch.
func (s *Service) Pull(ctx context.Context) (*reconcile.Report, error) {
	return s.sync(ctx, reconcile.Pull)
}

func (s *Service) sync(ctx context.Context, dir reconcile.Direction) (*reconcile.Report, error) {
	if !s.syncMu.TryLock() {
		return nil, apperr.ErrBusy
	}
	defer s.syncMu.Unlock()

	session := reconcile.NewSession(s.settings, s.fs, s.activity, s.logger)
	var (
		report *reconcile.Report
		err    error
	)
	if dir == reconcile.Push {
		report, err = session.Push(ctx)
	} else {
		report, err = session.Pull(ctx)
	}
	if err != nil {
		return nil, err
	}

	if _, err := s.RefreshCatalog(ctx); err != nil {
		s.logger.Warn("catalog refresh failed", slog.String("error", err.Error()))
	}
	if s.events != nil {
		s.events.PublishSyncEvent(sse.SyncEvent{
			Direction: string(dir),
			Succeeded: report.Succeeded(),
			Failed:    report.Failed,
		})
	}
	return report, nil
}

// RefreshCatalog re-indexes the posts directories of both trees. A tree
// whose directory cannot be listed is skipped with a warning.
func (s *Service) RefreshCatalog(_ context.Context) (index.RefreshStats, error) {
	var total index.RefreshStats
	if s.db == nil {
		return total, fmt.Errorf("%w: catalog is not configured", apperr.ErrConfig)
	}
	dirs := map[models.Tree]string{models.TreeVault: s.VaultPostsDir()}
	if s.settings.SitePostsPath != "" {
		dirs[models.TreeSite] = s.SitePostsDir()
	}
	for t, dir := range dirs {
		stats, err := index.Refresh(s.db, s.fs, t, dir, s.logger)
		if errors.Is(err, apperr.ErrEnumeration) {
			s.logger.Warn("catalog: tree skipped", slog.String("tree", string(t)), slog.String("error", err.Error()))
			continue
		}
		if err != nil {
			return total, err
		}
		total.Indexed += stats.Indexed
		total.Removed += stats.Removed
	}
	return total, nil
}

// ArticleQuery filters Articles.
type ArticleQuery struct {
	Tree   models.Tree
	Tag    string
	Drafts bool
	Limit  int
}

// Articles lists catalog entries, newest first.
func (s *Service) Articles(_ context.Context, q ArticleQuery) ([]index.ArticleRow, error) {
	if s.db == nil {
		return nil, fmt.Errorf("%w: catalog is not configured", apperr.ErrConfig)
	}
	if q.Tree == "" {
		q.Tree = models.TreeVault
	}
	rows, err := s.db.ListArticles(index.ListQuery{Tree: q.Tree, Tag: q.Tag, Drafts: q.Drafts, Limit: q.Limit})
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Tags = nonNilSlice(rows[i].Tags)
	}
	return nonNilSlice(rows), nil
}

// Tags returns tag usage counts for a tree.
func (s *Service) Tags(_ context.Context, t models.Tree) ([]index.TagCount, error) {
	if s.db == nil {
		return nil, fmt.Errorf("%w: catalog is not configured", apperr.ErrConfig)
	}
	if t == "" {
		t = models.TreeVault
	}
	tags, err := s.db.Tags(t)
	return nonNilSlice(tags), err
}

// Search delegates full-text search to the catalog.
func (s *Service) Search(_ context.Context, t models.Tree, query string, limit int) ([]index.SearchResult, error) {
	if s.db == nil {
		return nil, fmt.Errorf("%w: catalog is not configured", apperr.ErrConfig)
	}
	if t == "" {
		t = models.TreeVault
	}
	res, err := s.db.Search(t, query, limit)
	return nonNilSlice(res), err
}

// Activity returns up to n entries, newest first.
func (s *Service) Activity(n int) []activity.Entry {
	return nonNilSlice(s.activity.Recent(n))
}

// Publish commits the site tree and pushes it.
func (s *Service) Publish(ctx context.Context, message string) (*publish.Result, error) {
	if s.pub == nil {
		return nil, fmt.Errorf("%w: publisher is not configured", apperr.ErrConfig)
	}
	if s.settings.SiteRoot == "" {
		return nil, fmt.Errorf("%w: site root is not configured", apperr.ErrConfig)
	}
	if message == "" {
		message = "Publish " + s.now().UTC().Format(time.DateOnly)
	}
	res, err := s.pub.Publish(ctx, s.settings.SiteRoot, message)
	if err != nil {
		return nil, err
	}
	s.record(activity.KindPublish, fmt.Sprintf("Published %s to %s", shortHash(res.Commit), res.Branch),
		[]string{message})
	return res, nil
}

// Preview starts the site's development server.
func (s *Service) Preview(ctx context.Context) (preview.Status, error) {
	if s.prev == nil {
		return "", fmt.Errorf("%w: preview is not configured", apperr.ErrConfig)
	}
	if s.settings.SiteRoot == "" {
		return "", fmt.Errorf("%w: site root is not configured", apperr.ErrConfig)
	}
	st, err := s.prev.Start(ctx, s.settings.SiteRoot)
	if err != nil {
		return "", err
	}
	if st == preview.StatusRunning {
		s.record(activity.KindPreview, "Preview server started", nil)
	}
	return st, nil
}

func (s *Service) record(kind, summary string, details []string) {
	if err := s.activity.Append(activity.NewEntry(kind, summary, details)); err != nil {
		s.logger.Warn("activity log append failed", slog.String("error", err.Error()))
	}
}

func shortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// imagesDir is the absolute vault images directory.
func (s *Service) imagesDir() string {
	return s.paths.VaultAbs(s.settings.VaultImagesPath)
}

// imageLinkPrefix is the vault-side link path from the posts directory to
// the images directory, e.g. "../post_imgs".
func (s *Service) imageLinkPrefix() string {
	rel, err := filepath.Rel(s.VaultPostsDir(), s.imagesDir())
	if err != nil {
		return "../" + filepath.Base(s.imagesDir())
	}
	return filepath.ToSlash(rel)
}
