package blogservice

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stella-dust/zolapub/internal/activity"
	"github.com/stella-dust/zolapub/internal/apperr"
	"github.com/stella-dust/zolapub/internal/index"
	"github.com/stella-dust/zolapub/internal/models"
	"github.com/stella-dust/zolapub/internal/parser"
	"github.com/stella-dust/zolapub/internal/preview"
	"github.com/stella-dust/zolapub/internal/publish"
	"github.com/stella-dust/zolapub/internal/reconcile"
	"github.com/stella-dust/zolapub/internal/sse"
	"github.com/stella-dust/zolapub/internal/storage"
)

type fakePublisher struct {
	dir, message string
	err          error
}

func (f *fakePublisher) Publish(_ context.Context, dir, message string) (*publish.Result, error) {
	f.dir, f.message = dir, message
	if f.err != nil {
		return nil, f.err
	}
	return &publish.Result{Commit: "0123456789abcdef", Remote: "origin", Branch: "main"}, nil
}

type fakePreviewer struct {
	calls int
}

func (f *fakePreviewer) Start(_ context.Context, _ string) (preview.Status, error) {
	f.calls++
	if f.calls > 1 {
		return preview.StatusAlreadyRunning, nil
	}
	return preview.StatusRunning, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []sse.SyncEvent
}

func (f *fakeEvents) PublishSyncEvent(ev sse.SyncEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

type env struct {
	svc    *Service
	fs     *storage.Memory
	log    *activity.Log
	pub    *fakePublisher
	prev   *fakePreviewer
	events *fakeEvents
}

func newEnv(t *testing.T) *env {
	t.Helper()
	fs := storage.NewMemory()
	fs.Mkdir("/vault/blog/posts")
	fs.Mkdir("/vault/blog/post_imgs")
	fs.Mkdir("/site/content/posts")
	fs.Mkdir("/site/static/post_imgs")

	db, err := index.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	e := &env{
		fs:     fs,
		log:    activity.NewLog(0),
		pub:    &fakePublisher{},
		prev:   &fakePreviewer{},
		events: &fakeEvents{},
	}
	e.svc = New(reconcile.Settings{
		VaultRoot:       "/vault",
		VaultPostsPath:  "blog/posts",
		VaultImagesPath: "blog/post_imgs",
		SiteRoot:        "/site",
		SitePostsPath:   "content/posts",
		SiteImagesPath:  "static/post_imgs",
		Policy:          reconcile.TwoWay,
	}, Deps{
		FS:        fs,
		Catalog:   db,
		Activity:  e.log,
		Publisher: e.pub,
		Previewer: e.prev,
		Events:    e.events,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	e.svc.now = func() time.Time { return time.Date(2024, 5, 17, 10, 0, 0, 0, time.UTC) }
	return e
}

func TestPush_RefreshesCatalogAndPublishesEvent(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.fs.WriteText("/vault/blog/posts/a.md",
		"+++\ntitle = \"A\"\ndate = \"2024-01-01\"\n[taxonomies]\ntags = [\"go\"]\n+++\n![[../post_imgs/a.png]]\n"))

	report, err := e.svc.Push(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Written)

	site, err := e.svc.Articles(context.Background(), ArticleQuery{Tree: models.TreeSite})
	require.NoError(t, err)
	require.Len(t, site, 1)
	require.Equal(t, "A", site[0].Title)

	tags, err := e.svc.Tags(context.Background(), models.TreeVault)
	require.NoError(t, err)
	require.Equal(t, []index.TagCount{{Tag: "go", Count: 1}}, tags)

	require.Equal(t, []sse.SyncEvent{{Direction: "push", Succeeded: 1}}, e.events.events)
	require.Equal(t, activity.KindSyncPush, e.svc.Activity(1)[0].Kind)
}

func TestSync_BusyWhileRunning(t *testing.T) {
	e := newEnv(t)
	e.svc.syncMu.Lock()
	_, err := e.svc.Push(context.Background())
	e.svc.syncMu.Unlock()
	require.ErrorIs(t, err, apperr.ErrBusy)

	_, err = e.svc.Push(context.Background())
	require.NoError(t, err)
}

func TestPull_PropagatesConfigError(t *testing.T) {
	e := newEnv(t)
	e.svc.settings.Policy = reconcile.OneWay
	_, err := e.svc.Pull(context.Background())
	require.ErrorIs(t, err, apperr.ErrConfig)
	require.Empty(t, e.events.events)
}

func TestNewArticle_WritesDraft(t *testing.T) {
	e := newEnv(t)
	res, err := e.svc.NewArticle(context.Background(), "Hello, Zola World!", []string{"zola", "go"})
	require.NoError(t, err)
	require.Equal(t, "hello-zola-world.md", res.Name)

	text, err := e.fs.ReadText("/vault/blog/posts/hello-zola-world.md")
	require.NoError(t, err)
	parsed, ok := parser.Parse(res.Name, text)
	require.True(t, ok)
	require.Equal(t, models.Meta{
		Title: "Hello, Zola World!",
		Date:  "2024-05-17",
		Tags:  []string{"zola", "go"},
		Draft: true,
	}, parsed.Meta)

	drafts, err := e.svc.Articles(context.Background(), ArticleQuery{Drafts: true})
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	published, err := e.svc.Articles(context.Background(), ArticleQuery{})
	require.NoError(t, err)
	require.Empty(t, published)

	_, err = e.svc.NewArticle(context.Background(), "hello zola world", nil)
	require.ErrorIs(t, err, apperr.ErrAlreadyExists)

	require.Equal(t, activity.KindNewArticle, e.svc.Activity(1)[0].Kind)
}

func TestNewArticle_Validation(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.NewArticle(context.Background(), "   ", nil)
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = e.svc.NewArticle(context.Background(), "Index", nil)
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestAddImage(t *testing.T) {
	e := newEnv(t)
	res, err := e.svc.AddImage(context.Background(), "Mapper.PNG", []byte("png"))
	require.NoError(t, err)
	require.Equal(t, "![[../post_imgs/Mapper.PNG]]", res.Embed)

	data, err := e.fs.ReadBinary("/vault/blog/post_imgs/Mapper.PNG")
	require.NoError(t, err)
	require.Equal(t, []byte("png"), data)

	_, err = e.svc.AddImage(context.Background(), "Mapper.PNG", []byte("other"))
	require.ErrorIs(t, err, apperr.ErrAlreadyExists)
	_, err = e.svc.AddImage(context.Background(), "notes.pdf", []byte("x"))
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = e.svc.AddImage(context.Background(), "../escape.png", []byte("x"))
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestPublish(t *testing.T) {
	e := newEnv(t)
	res, err := e.svc.Publish(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, "main", res.Branch)
	require.Equal(t, "/site", e.pub.dir)
	require.Equal(t, "Publish 2024-05-17", e.pub.message)

	entry := e.svc.Activity(1)[0]
	require.Equal(t, activity.KindPublish, entry.Kind)
	require.Equal(t, "Published 0123456 to main", entry.Summary)

	e.pub.err = apperr.ErrNothingToCommit
	_, err = e.svc.Publish(context.Background(), "again")
	require.ErrorIs(t, err, apperr.ErrNothingToCommit)
	require.Len(t, e.svc.Activity(10), 1)
}

func TestPreview(t *testing.T) {
	e := newEnv(t)
	st, err := e.svc.Preview(context.Background())
	require.NoError(t, err)
	require.Equal(t, preview.StatusRunning, st)

	st, err = e.svc.Preview(context.Background())
	require.NoError(t, err)
	require.Equal(t, preview.StatusAlreadyRunning, st)
	require.Len(t, e.svc.Activity(10), 1, "only the first start is logged")
}

func TestMissingCollaborators(t *testing.T) {
	svc := New(reconcile.Settings{VaultRoot: "/vault", SiteRoot: "/site"}, Deps{FS: storage.NewMemory()})
	_, err := svc.Publish(context.Background(), "x")
	require.ErrorIs(t, err, apperr.ErrConfig)
	_, err = svc.Preview(context.Background())
	require.ErrorIs(t, err, apperr.ErrConfig)
	_, err = svc.Articles(context.Background(), ArticleQuery{})
	require.ErrorIs(t, err, apperr.ErrConfig)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello World":          "hello-world",
		"  Go 1.25 -- notes  ": "go-1-25-notes",
	}
	for in, want := range cases {
		require.Equal(t, want, Slugify(in), in)
	}
	require.Empty(t, Slugify("日本語"))
}
