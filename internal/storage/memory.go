package storage

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-memory Provider for tests. Writes to paths registered
// with FailWrite return the registered error.
type Memory struct {
	mu     sync.Mutex
	files  map[string][]byte
	dirs   map[string]struct{}
	fail   map[string]error
	writes int
}

// NewMemory returns an empty in-memory tree.
func NewMemory() *Memory {
	return &Memory{
		files: make(map[string][]byte),
		dirs:  map[string]struct{}{"/": {}},
		fail:  make(map[string]error),
	}
}

func clean(p string) string {
	return path.Clean("/" + filepath.ToSlash(p))
}

// Mkdir registers dir and its parents.
func (m *Memory) Mkdir(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirLocked(clean(dir))
}

func (m *Memory) mkdirLocked(dir string) {
	for d := dir; ; d = path.Dir(d) {
		m.dirs[d] = struct{}{}
		if d == "/" {
			return
		}
	}
}

// FailWrite makes every write to p fail with err.
func (m *Memory) FailWrite(p string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[clean(p)] = err
}

// Writes returns the number of successful writes so far.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *Memory) Exists(p string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = clean(p)
	if _, ok := m.files[p]; ok {
		return true, nil
	}
	_, ok := m.dirs[p]
	return ok, nil
}

func (m *Memory) IsDir(p string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.dirs[clean(p)]
	return ok, nil
}

func (m *Memory) ReadText(p string) (string, error) {
	data, err := m.ReadBinary(p)
	return string(data), err
}

func (m *Memory) ReadBinary(p string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[clean(p)]
	if !ok {
		return nil, fmt.Errorf("storage: read %s: %w", p, os.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

func (m *Memory) WriteText(p, content string) error {
	return m.WriteBinary(p, []byte(content))
}

func (m *Memory) WriteBinary(p string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = clean(p)
	if err := m.fail[p]; err != nil {
		return fmt.Errorf("storage: write %s: %w", p, err)
	}
	if _, ok := m.dirs[p]; ok {
		return fmt.Errorf("storage: write %s: is a directory", p)
	}
	m.mkdirLocked(path.Dir(p))
	m.files[p] = append([]byte(nil), data...)
	m.writes++
	return nil
}

func (m *Memory) List(dir string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dir = clean(dir)
	if _, ok := m.dirs[dir]; !ok {
		return nil, fmt.Errorf("storage: list %s: %w", dir, os.ErrNotExist)
	}
	prefix := strings.TrimSuffix(dir, "/") + "/"
	var out []Entry
	for p := range m.files {
		if path.Dir(p) == dir {
			out = append(out, Entry{Name: strings.TrimPrefix(p, prefix)})
		}
	}
	for d := range m.dirs {
		if d != dir && path.Dir(d) == dir {
			out = append(out, Entry{Name: strings.TrimPrefix(d, prefix), IsDir: true})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

var (
	_ Provider = (*FS)(nil)
	_ Provider = (*Memory)(nil)
)
