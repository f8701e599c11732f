package tree

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/stella-dust/zolapub/internal/apperr"
	"github.com/stella-dust/zolapub/internal/storage"
)

func TestVaultRelative(t *testing.T) {
	p := Paths{VaultRoot: "/home/me/vault"}
	cases := []struct {
		in, want string
	}{
		{"/home/me/vault/blog/posts", "blog/posts"},
		{"/home/me/vault/blog/posts/", "blog/posts"},
		{"/blog/posts", "blog/posts"},
		{"blog/posts", "blog/posts"},
		{`blog\posts`, "blog/posts"},
		{"/home/me/vault", ""},
		{"", ""},
		// A sibling directory sharing the prefix is not stripped as the base.
		{"/home/me/vault2/x", "home/me/vault2/x"},
	}
	for _, c := range cases {
		if got := p.VaultRelative(c.in); got != c.want {
			t.Errorf("VaultRelative(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestInVault(t *testing.T) {
	p := Paths{VaultRoot: "/home/me/vault"}
	for _, in := range []string{"blog/posts", "/home/me/vault/blog", "a/../b", "", "..x/posts"} {
		if !p.InVault(in) {
			t.Errorf("InVault(%q) = false, want true", in)
		}
	}
	for _, in := range []string{"..", "../x", "blog/../../x", `..\x`} {
		if p.InVault(in) {
			t.Errorf("InVault(%q) = true, want false", in)
		}
	}
}

func TestVaultRelative_WindowsBase(t *testing.T) {
	p := Paths{VaultRoot: `C:\Users\me\vault`}
	if got := p.VaultRelative(`C:\Users\me\vault\posts`); got != "posts" {
		t.Errorf("got %q, want posts", got)
	}
}

func TestVaultAbsAndSiteAbs(t *testing.T) {
	p := Paths{VaultRoot: "/v", SiteRoot: "/site"}
	if got := p.VaultAbs("/v/posts"); got != filepath.FromSlash("/v/posts") {
		t.Errorf("VaultAbs = %q", got)
	}
	if got := p.SiteAbs("content/posts"); got != filepath.FromSlash("/site/content/posts") {
		t.Errorf("SiteAbs relative = %q", got)
	}
	if got := p.SiteAbs("/elsewhere/posts/"); got != filepath.FromSlash("/elsewhere/posts") {
		t.Errorf("SiteAbs absolute = %q", got)
	}
	if got := p.SiteAbs(""); got != "" {
		t.Errorf("SiteAbs empty = %q", got)
	}
}

func TestReservedCaseInsensitive(t *testing.T) {
	for _, n := range []string{"_index.md", "Index.md", "INDEX.MD", "_Index", "index"} {
		if !IsReserved(n) {
			t.Errorf("%q should be reserved", n)
		}
	}
	for _, n := range []string{"post.md", "index-of-things.md", "my_index.md"} {
		if IsReserved(n) {
			t.Errorf("%q should not be reserved", n)
		}
	}
}

func TestIsImage(t *testing.T) {
	for _, n := range []string{"a.png", "b.JPG", "c.jpeg", "d.gif", "e.WebP", "f.svg", "favicon.ico"} {
		if !IsImage(n) {
			t.Errorf("%q should be an image", n)
		}
	}
	for _, n := range []string{"a.pdf", "png", "a.png.txt", "a.md"} {
		if IsImage(n) {
			t.Errorf("%q should not be an image", n)
		}
	}
}

func TestArticles_ExcludesReservedAndHidden(t *testing.T) {
	fs := storage.NewMemory()
	for _, n := range []string{"_index.md", "Index.md", "post.md", ".draft.md", "notes.txt"} {
		_ = fs.WriteText("/vault/posts/"+n, "x")
	}
	fs.Mkdir("/vault/posts/sub")

	e := &Enumerator{FS: fs}
	got, err := e.Articles("/vault/posts")
	if err != nil {
		t.Fatalf("Articles: %v", err)
	}
	if diff := cmp.Diff([]string{"post.md"}, got); diff != "" {
		t.Errorf("articles mismatch (-want +got):\n%s", diff)
	}
}

func TestImages_AllowListAndExclude(t *testing.T) {
	fs := storage.NewMemory()
	for _, n := range []string{"a.png", "B.JPG", "c.pdf", ".hidden.png", "wip-d.gif"} {
		_ = fs.WriteBinary("/site/static/post_imgs/"+n, []byte{1})
	}
	e := &Enumerator{FS: fs, Exclude: []string{"wip-*"}}
	got, err := e.Images("/site/static/post_imgs")
	if err != nil {
		t.Fatalf("Images: %v", err)
	}
	if diff := cmp.Diff([]string{"B.JPG", "a.png"}, got); diff != "" {
		t.Errorf("images mismatch (-want +got):\n%s", diff)
	}
}

func TestRequireDir(t *testing.T) {
	fs := storage.NewMemory()
	fs.Mkdir("/site/content")
	_ = fs.WriteText("/site/file.md", "x")
	e := &Enumerator{FS: fs}

	if err := e.RequireDir("/site/content"); err != nil {
		t.Errorf("existing dir: %v", err)
	}
	for _, p := range []string{"/site/missing", "/site/file.md"} {
		if err := e.RequireDir(p); !errors.Is(err, apperr.ErrEnumeration) {
			t.Errorf("RequireDir(%q) = %v, want ErrEnumeration", p, err)
		}
	}
}

func TestList_MissingDirIsEnumerationError(t *testing.T) {
	e := &Enumerator{FS: storage.NewMemory()}
	if _, err := e.Articles("/nope"); !errors.Is(err, apperr.ErrEnumeration) {
		t.Errorf("err = %v, want ErrEnumeration", err)
	}
}
