package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func tempTree(t *testing.T) (*FS, string) {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs, dir
}

func TestWriteAndRead(t *testing.T) {
	s, dir := tempTree(t)
	p := filepath.Join(dir, "note.md")
	content := "# Hello\nWorld\n"
	if err := s.WriteText(p, content); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	got, err := s.ReadText(p)
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	if got != content {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s, dir := tempTree(t)
	p := filepath.Join(dir, "a", "b", "c.png")
	if err := s.WriteBinary(p, []byte{0x89, 'P', 'N', 'G'}); err != nil {
		t.Fatalf("WriteBinary: %v", err)
	}
	got, err := s.ReadBinary(p)
	if err != nil {
		t.Fatalf("ReadBinary: %v", err)
	}
	if len(got) != 4 || got[1] != 'P' {
		t.Errorf("content = %v", got)
	}
}

func TestExistsAndIsDir(t *testing.T) {
	s, dir := tempTree(t)
	p := filepath.Join(dir, "x.md")
	_ = s.WriteText(p, "x")

	if ok, _ := s.Exists(p); !ok {
		t.Error("file should exist")
	}
	if ok, _ := s.IsDir(p); ok {
		t.Error("file is not a directory")
	}
	if ok, _ := s.IsDir(dir); !ok {
		t.Error("root should be a directory")
	}
	if ok, err := s.Exists(filepath.Join(dir, "nope.md")); ok || err != nil {
		t.Errorf("missing file: ok=%v err=%v", ok, err)
	}
}

func TestReadMissingWrapsNotExist(t *testing.T) {
	s, dir := tempTree(t)
	_, err := s.ReadText(filepath.Join(dir, "ghost.md"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestListDirectChildren(t *testing.T) {
	s, dir := tempTree(t)
	_ = s.WriteText(filepath.Join(dir, "b.md"), "b")
	_ = s.WriteText(filepath.Join(dir, "a.md"), "a")
	_ = s.WriteText(filepath.Join(dir, "sub", "c.md"), "c")

	items, err := s.List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("len = %d, want 3", len(items))
	}
	if items[0].Name != "a.md" || items[1].Name != "b.md" || !items[2].IsDir {
		t.Errorf("items = %+v", items)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s, dir := tempTree(t)

	cases := []string{
		filepath.Join(dir, "..", "outside.md"),
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.ReadText(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.WriteText(p, "x"); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicOverwrite(t *testing.T) {
	s, dir := tempTree(t)
	p := filepath.Join(dir, "atomic.md")
	_ = s.WriteText(p, "original content")

	if err := s.WriteText(p, "updated content"); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	got, _ := s.ReadText(p)
	if got != "updated content" {
		t.Errorf("expected updated content, got %q", got)
	}

	items, _ := s.List(dir)
	if len(items) != 1 {
		t.Errorf("leftover temp files: %+v", items)
	}
}

func TestMemory_FailWrite(t *testing.T) {
	m := NewMemory()
	m.Mkdir("/site")
	m.FailWrite("/site/bad.md", os.ErrPermission)

	if err := m.WriteText("/site/bad.md", "x"); !errors.Is(err, os.ErrPermission) {
		t.Errorf("err = %v, want permission error", err)
	}
	if err := m.WriteText("/site/good.md", "x"); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if m.Writes() != 1 {
		t.Errorf("writes = %d, want 1", m.Writes())
	}
	items, err := m.List("/site")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || items[0].Name != "good.md" {
		t.Errorf("items = %+v", items)
	}
}

func TestMemory_ListMissingDir(t *testing.T) {
	m := NewMemory()
	if _, err := m.List("/nope"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}
