package reconcile

import (
	"fmt"

	"github.com/stella-dust/zolapub/internal/apperr"
	"github.com/stella-dust/zolapub/internal/tree"
)

// Policy restricts which directions may run.
type Policy string

const (
	OneWay Policy = "one-way"
	TwoWay Policy = "two-way"
)

// Direction of a sync batch.
type Direction string

const (
	// Push copies vault → site.
	Push Direction = "push"
	// Pull copies site → vault; only allowed under TwoWay.
	Pull Direction = "pull"
)

// Settings is the configuration snapshot a session works from.
type Settings struct {
	VaultRoot       string
	VaultPostsPath  string
	VaultImagesPath string
	SiteRoot        string
	SitePostsPath   string
	SiteImagesPath  string
	Policy          Policy
	Exclude         []string
}

// validate checks what a direction needs before any file-system access.
func (s Settings) validate(dir Direction) error {
	if s.VaultRoot == "" {
		return fmt.Errorf("%w: vault root is not configured", apperr.ErrConfig)
	}
	paths := tree.Paths{VaultRoot: s.VaultRoot}
	for _, v := range []string{s.VaultPostsPath, s.VaultImagesPath} {
		if v != "" && !paths.InVault(v) {
			return fmt.Errorf("%w: vault path %q is outside the vault root", apperr.ErrConfig, v)
		}
	}
	switch dir {
	case Push:
		if s.SitePostsPath == "" {
			return fmt.Errorf("%w: site posts path is not configured", apperr.ErrConfig)
		}
	case Pull:
		if s.Policy != TwoWay {
			return fmt.Errorf("%w: pull requires %q sync mode, configured %q", apperr.ErrConfig, TwoWay, s.Policy)
		}
		if s.VaultPostsPath == "" {
			return fmt.Errorf("%w: vault posts path is not configured", apperr.ErrConfig)
		}
		if s.SitePostsPath == "" {
			return fmt.Errorf("%w: site posts path is not configured", apperr.ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown direction %q", apperr.ErrConfig, dir)
	}
	return nil
}

// imagesConfigured reports whether both image directories are set.
func (s Settings) imagesConfigured() bool {
	return s.VaultImagesPath != "" && s.SiteImagesPath != ""
}
