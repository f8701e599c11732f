// Package reconcile runs push and pull batches between the vault and site trees.
//
// A Session is built per invocation and owns its configuration snapshot.
// Candidates are processed one at a time; a failure on one file is recorded
// in the report and never stops the rest of the batch. Sessions do no
// locking of their own, so callers must not run two batches against the
// same destination at once.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/stella-dust/zolapub/internal/activity"
	"github.com/stella-dust/zolapub/internal/change"
	"github.com/stella-dust/zolapub/internal/storage"
	"github.com/stella-dust/zolapub/internal/transcode"
	"github.com/stella-dust/zolapub/internal/tree"
)

// State of a session.
type State string

const (
	StateIdle        State = "idle"
	StateValidating  State = "validating"
	StateEnumerating State = "enumerating"
	StatePerFileSync State = "per-file-sync"
	StateSummarizing State = "summarizing"
)

// Session performs sync batches for one configuration snapshot.
type Session struct {
	settings Settings
	fs       storage.Provider
	sink     activity.Sink
	logger   *slog.Logger
	paths    tree.Paths
	enum     *tree.Enumerator

	mu    sync.Mutex
	state State
}

// NewSession creates a session. sink and logger may be nil.
func NewSession(settings Settings, fs storage.Provider, sink activity.Sink, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		settings: settings,
		fs:       fs,
		sink:     sink,
		logger:   logger,
		paths:    tree.Paths{VaultRoot: settings.VaultRoot, SiteRoot: settings.SiteRoot},
		enum:     &tree.Enumerator{FS: fs, Exclude: settings.Exclude},
		state:    StateIdle,
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	s.logger.Debug("sync: state", slog.String("state", string(st)))
}

// Push copies vault articles and images to the site tree.
func (s *Session) Push(ctx context.Context) (*Report, error) {
	return s.run(ctx, Push)
}

// Pull copies site articles and images back to the vault tree.
func (s *Session) Pull(ctx context.Context) (*Report, error) {
	return s.run(ctx, Pull)
}

// plan holds the resolved directories of one batch.
type plan struct {
	srcPosts, dstPosts   string
	srcImages, dstImages string
	articles, images     []string
	transform            func(string) string
}

func (s *Session) run(ctx context.Context, dir Direction) (*Report, error) {
	// Cancellation is only honoured before the batch starts.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer s.setState(StateIdle)

	s.setState(StateValidating)
	if err := s.settings.validate(dir); err != nil {
		return nil, err
	}

	s.setState(StateEnumerating)
	p, err := s.enumerate(dir)
	if err != nil {
		return nil, err
	}

	s.setState(StatePerFileSync)
	report := &Report{Direction: dir, Started: time.Now()}
	for _, name := range p.articles {
		report.add(s.syncArticle(p, name))
	}
	for _, name := range p.images {
		if dir == Push {
			report.add(s.pushImage(p, name))
		} else {
			report.add(s.pullImage(p, name))
		}
	}
	report.Duration = time.Since(report.Started)

	s.setState(StateSummarizing)
	s.summarize(report)
	return report, nil
}

func (s *Session) enumerate(dir Direction) (*plan, error) {
	vaultPosts := s.paths.VaultAbs(s.settings.VaultPostsPath)
	sitePosts := s.paths.SiteAbs(s.settings.SitePostsPath)

	p := &plan{}
	if dir == Push {
		p.srcPosts, p.dstPosts, p.transform = vaultPosts, sitePosts, transcode.Outbound
	} else {
		p.srcPosts, p.dstPosts, p.transform = sitePosts, vaultPosts, transcode.Inbound
	}

	if err := s.enum.RequireDir(p.dstPosts); err != nil {
		return nil, err
	}
	articles, err := s.enum.Articles(p.srcPosts)
	if err != nil {
		return nil, err
	}
	p.articles = articles

	if !s.settings.imagesConfigured() {
		return p, nil
	}
	vaultImages := s.paths.VaultAbs(s.settings.VaultImagesPath)
	siteImages := s.paths.SiteAbs(s.settings.SiteImagesPath)
	if dir == Push {
		p.srcImages, p.dstImages = vaultImages, siteImages
	} else {
		p.srcImages, p.dstImages = siteImages, vaultImages
	}
	ok, err := s.fs.IsDir(p.srcImages)
	if err != nil || !ok {
		s.logger.Warn("sync: image directory unavailable, skipping images",
			slog.String("dir", p.srcImages))
		return p, nil
	}
	images, err := s.enum.Images(p.srcImages)
	if err != nil {
		return nil, err
	}
	p.images = images
	return p, nil
}

func (s *Session) syncArticle(p *plan, name string) FileResult {
	src := filepath.Join(p.srcPosts, name)
	dst := filepath.Join(p.dstPosts, name)

	text, err := s.fs.ReadText(src)
	if err != nil {
		return s.failed(name, false, err)
	}
	out := p.transform(text)

	st, err := change.DetectText(s.fs, dst, out)
	if err != nil {
		return s.failed(name, false, err)
	}
	if !st.NeedsWrite() {
		return FileResult{Name: name, Action: ActionUnchanged}
	}
	if err := s.fs.WriteText(dst, out); err != nil {
		return s.failed(name, false, err)
	}
	s.logger.Debug("sync: article written", slog.String("path", dst), slog.String("status", st.String()))
	return FileResult{Name: name, Action: writtenAction(st)}
}

// pushImage never overwrites an existing destination image.
func (s *Session) pushImage(p *plan, name string) FileResult {
	dst := filepath.Join(p.dstImages, name)
	exists, err := s.fs.Exists(dst)
	if err != nil {
		return s.failed(name, true, err)
	}
	if exists {
		return FileResult{Name: name, Image: true, Action: ActionKept}
	}
	data, err := s.fs.ReadBinary(filepath.Join(p.srcImages, name))
	if err != nil {
		return s.failed(name, true, err)
	}
	if err := s.fs.WriteBinary(dst, data); err != nil {
		return s.failed(name, true, err)
	}
	s.logger.Debug("sync: image copied", slog.String("path", dst))
	return FileResult{Name: name, Image: true, Action: ActionCopied}
}

// pullImage overwrites the vault copy whenever the bytes differ.
func (s *Session) pullImage(p *plan, name string) FileResult {
	dst := filepath.Join(p.dstImages, name)
	data, err := s.fs.ReadBinary(filepath.Join(p.srcImages, name))
	if err != nil {
		return s.failed(name, true, err)
	}
	st, err := change.Detect(s.fs, dst, data)
	if err != nil {
		return s.failed(name, true, err)
	}
	if !st.NeedsWrite() {
		return FileResult{Name: name, Image: true, Action: ActionUnchanged}
	}
	if err := s.fs.WriteBinary(dst, data); err != nil {
		return s.failed(name, true, err)
	}
	s.logger.Debug("sync: image written", slog.String("path", dst), slog.String("status", st.String()))
	return FileResult{Name: name, Image: true, Action: writtenAction(st)}
}

func (s *Session) failed(name string, image bool, err error) FileResult {
	s.logger.Warn("sync: file failed", slog.String("name", name), slog.String("error", err.Error()))
	return FileResult{Name: name, Image: image, Action: ActionFailed, Error: err.Error()}
}

func writtenAction(st change.Status) Action {
	if st == change.Absent {
		return ActionCreated
	}
	return ActionUpdated
}

func (s *Session) summarize(r *Report) {
	kind := activity.KindSyncPush
	if r.Direction == Pull {
		kind = activity.KindSyncPull
	}
	s.logger.Info("sync: batch finished",
		slog.String("direction", string(r.Direction)),
		slog.Int("succeeded", r.Succeeded()),
		slog.Int("failed", r.Failed),
		slog.Duration("duration", r.Duration))

	if s.sink == nil {
		return
	}
	if err := s.sink.Append(activity.NewEntry(kind, r.Summary(), r.Details())); err != nil {
		s.logger.Warn("sync: activity log append failed", slog.String("error", fmt.Sprint(err)))
	}
}
