// Package testutil provides shared test helpers for setting up content trees and catalogs.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stella-dust/zolapub/internal/index"
	"github.com/stella-dust/zolapub/internal/reconcile"
	"github.com/stella-dust/zolapub/internal/storage"
)

// TestDB creates a temporary SQLite catalog that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "zolapub-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Trees is a vault and a site laid out like the default configuration.
type Trees struct {
	Settings reconcile.Settings
	FS       *storage.FS
}

// VaultPosts is the absolute vault posts directory.
func (tr Trees) VaultPosts() string {
	return filepath.Join(tr.Settings.VaultRoot, tr.Settings.VaultPostsPath)
}

// VaultImages is the absolute vault images directory.
func (tr Trees) VaultImages() string {
	return filepath.Join(tr.Settings.VaultRoot, tr.Settings.VaultImagesPath)
}

// SitePosts is the absolute site posts directory.
func (tr Trees) SitePosts() string {
	return filepath.Join(tr.Settings.SiteRoot, tr.Settings.SitePostsPath)
}

// SiteImages is the absolute site images directory.
func (tr Trees) SiteImages() string {
	return filepath.Join(tr.Settings.SiteRoot, tr.Settings.SiteImagesPath)
}

// TestTrees creates both trees under temporary directories. The site
// images directory is left for the first push to create.
func TestTrees(t *testing.T, policy reconcile.Policy) Trees {
	t.Helper()
	tr := Trees{Settings: reconcile.Settings{
		VaultRoot:       t.TempDir(),
		VaultPostsPath:  "blog/posts",
		VaultImagesPath: "blog/post_imgs",
		SiteRoot:        t.TempDir(),
		SitePostsPath:   "content/posts",
		SiteImagesPath:  "static/post_imgs",
		Policy:          policy,
	}}
	for _, d := range []string{tr.VaultPosts(), tr.VaultImages(), tr.SitePosts()} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	fs, err := storage.NewFS(tr.Settings.VaultRoot, tr.Settings.SiteRoot)
	if err != nil {
		t.Fatal(err)
	}
	tr.FS = fs
	return tr
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
