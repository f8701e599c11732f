package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/natefinch/atomic"
)

// FS implements Provider backed by the local file system.
type FS struct {
	roots []string // absolute, cleaned; empty means unrestricted
}

// NewFS creates a provider. When roots are given every path must resolve
// inside one of them.
func NewFS(roots ...string) (*FS, error) {
	f := &FS{}
	for _, r := range roots {
		if r == "" {
			continue
		}
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, fmt.Errorf("storage: resolve root: %w", err)
		}
		f.roots = append(f.roots, filepath.Clean(abs))
	}
	return f, nil
}

// safePath cleans p and rejects anything outside the configured roots.
func (f *FS) safePath(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("storage: empty path")
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	abs = filepath.Clean(abs)
	if len(f.roots) == 0 {
		return abs, nil
	}
	for _, r := range f.roots {
		if abs == r || strings.HasPrefix(abs, r+string(os.PathSeparator)) {
			return abs, nil
		}
	}
	return "", fmt.Errorf("storage: path escapes configured trees: %s", p)
}

// Exists reports whether path exists.
func (f *FS) Exists(path string) (bool, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(abs)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("storage: stat %s: %w", path, err)
}

// IsDir reports whether path is an existing directory.
func (f *FS) IsDir(path string) (bool, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("storage: stat %s: %w", path, err)
	}
	return info.IsDir(), nil
}

func (f *FS) ReadText(path string) (string, error) {
	data, err := f.ReadBinary(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (f *FS) ReadBinary(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

func (f *FS) WriteText(path, content string) error {
	return f.WriteBinary(path, []byte(content))
}

// WriteBinary atomically replaces the file via a temp file and rename.
func (f *FS) WriteBinary(path string, data []byte) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}
	if err := atomic.WriteFile(abs, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("storage: write %s: %w", path, err)
	}
	return nil
}

// List returns the direct children of dir sorted by name.
func (f *FS) List(dir string) ([]Entry, error) {
	abs, err := f.safePath(dir)
	if err != nil {
		return nil, err
	}
	des, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", dir, err)
	}
	out := make([]Entry, 0, len(des))
	for _, d := range des {
		out = append(out, Entry{Name: d.Name(), IsDir: d.IsDir()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
