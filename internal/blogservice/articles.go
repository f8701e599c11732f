package blogservice

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stella-dust/zolapub/internal/activity"
	"github.com/stella-dust/zolapub/internal/apperr"
	"github.com/stella-dust/zolapub/internal/models"
	"github.com/stella-dust/zolapub/internal/parser"
	"github.com/stella-dust/zolapub/internal/tree"
)

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a title into a file-name-safe slug.
func Slugify(title string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(title), "-"), "-")
}

// NewArticleResult describes a created article.
type NewArticleResult struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// NewArticle writes a draft article with a frontmatter block into the
// vault posts directory.
func (s *Service) NewArticle(_ context.Context, title string, tags []string) (*NewArticleResult, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", apperr.ErrInvalidInput)
	}
	slug := Slugify(title)
	if slug == "" {
		slug = "post-" + uuid.NewString()[:8]
	}
	name := slug + ".md"
	if tree.IsReserved(name) {
		return nil, fmt.Errorf("%w: %q is a reserved name", apperr.ErrInvalidInput, name)
	}

	dir := s.VaultPostsDir()
	if ok, err := s.fs.IsDir(dir); err != nil || !ok {
		return nil, fmt.Errorf("%w: vault posts directory does not exist: %s", apperr.ErrConfig, dir)
	}
	path := filepath.Join(dir, name)
	if ok, _ := s.fs.Exists(path); ok {
		return nil, fmt.Errorf("%w: %s", apperr.ErrAlreadyExists, name)
	}

	front, err := parser.RenderFrontmatter(models.Meta{
		Title: title,
		Date:  s.now().Format(time.DateOnly),
		Tags:  tags,
		Draft: true,
	})
	if err != nil {
		return nil, err
	}
	if err := s.fs.WriteText(path, front+"\n"); err != nil {
		return nil, err
	}

	s.record(activity.KindNewArticle, "Created "+name, []string{title})
	if s.db != nil {
		if _, err := s.RefreshCatalog(context.Background()); err != nil {
			s.logger.Warn("catalog refresh failed", slog.String("error", err.Error()))
		}
	}
	return &NewArticleResult{Name: name, Path: path}, nil
}

// AddImageResult describes a stored image.
type AddImageResult struct {
	Name string `json:"name"`
	Path string `json:"path"`
	// Embed is the vault-syntax reference to paste into an article.
	Embed string `json:"embed"`
}

// AddImage stores data under name in the vault images directory. Existing
// images are never replaced.
func (s *Service) AddImage(_ context.Context, name string, data []byte) (*AddImageResult, error) {
	if s.settings.VaultImagesPath == "" {
		return nil, fmt.Errorf("%w: vault images path is not configured", apperr.ErrConfig)
	}
	if name != filepath.Base(name) || tree.IsHidden(name) || !tree.IsImage(name) {
		return nil, fmt.Errorf("%w: unsupported image name %q", apperr.ErrInvalidInput, name)
	}
	path := filepath.Join(s.imagesDir(), name)
	if ok, _ := s.fs.Exists(path); ok {
		return nil, fmt.Errorf("%w: %s", apperr.ErrAlreadyExists, name)
	}
	if err := s.fs.WriteBinary(path, data); err != nil {
		return nil, err
	}
	return &AddImageResult{
		Name:  name,
		Path:  path,
		Embed: fmt.Sprintf("![[%s/%s]]", s.imageLinkPrefix(), name),
	}, nil
}
