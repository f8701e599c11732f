// Package tree lists sync candidates in the vault and site trees.
package tree

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/stella-dust/zolapub/internal/apperr"
	"github.com/stella-dust/zolapub/internal/storage"
)

// imagePattern is matched against lower-cased file names.
const imagePattern = "*.{png,jpg,jpeg,gif,webp,svg,ico}"

var reserved = map[string]struct{}{
	"_index.md": {},
	"index.md":  {},
	"_index":    {},
	"index":     {},
}

// IsReserved reports whether name is a section index file. Matching is
// case-insensitive in both trees.
func IsReserved(name string) bool {
	_, ok := reserved[strings.ToLower(name)]
	return ok
}

// IsImage reports whether name carries an allowed image extension.
func IsImage(name string) bool {
	ok, err := doublestar.Match(imagePattern, strings.ToLower(name))
	return err == nil && ok
}

// IsArticle reports whether name is a Markdown file.
func IsArticle(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".md")
}

// IsHidden reports whether name starts with the hidden-file marker.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// Enumerator lists candidates through a storage provider.
type Enumerator struct {
	FS      storage.Provider
	Exclude []string // doublestar globs matched against file names
}

// RequireDir fails with apperr.ErrEnumeration when dir is not an existing directory.
func (e *Enumerator) RequireDir(dir string) error {
	ok, err := e.FS.IsDir(dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", apperr.ErrEnumeration, dir, err)
	}
	if !ok {
		return fmt.Errorf("%w: directory does not exist: %s", apperr.ErrEnumeration, dir)
	}
	return nil
}

// Articles returns the names of Markdown files directly under dir,
// skipping reserved index files.
func (e *Enumerator) Articles(dir string) ([]string, error) {
	return e.list(dir, func(name string) bool {
		return IsArticle(name) && !IsReserved(name)
	})
}

// Images returns the names of allow-listed image files directly under dir.
func (e *Enumerator) Images(dir string) ([]string, error) {
	return e.list(dir, IsImage)
}

func (e *Enumerator) list(dir string, keep func(string) bool) ([]string, error) {
	entries, err := e.FS.List(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrEnumeration, err)
	}
	var out []string
	for _, ent := range entries {
		if ent.IsDir || IsHidden(ent.Name) || e.excluded(ent.Name) {
			continue
		}
		if keep(ent.Name) {
			out = append(out, ent.Name)
		}
	}
	return out, nil
}

func (e *Enumerator) excluded(name string) bool {
	for _, g := range e.Exclude {
		if g == "" {
			continue
		}
		if ok, err := doublestar.Match(g, name); err == nil && ok {
			return true
		}
	}
	return false
}
