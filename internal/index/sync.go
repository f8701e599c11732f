package index

import (
	"log/slog"
	"path/filepath"

	"github.com/stella-dust/zolapub/internal/checksum"
	"github.com/stella-dust/zolapub/internal/models"
	"github.com/stella-dust/zolapub/internal/parser"
	"github.com/stella-dust/zolapub/internal/storage"
	"github.com/stella-dust/zolapub/internal/tree"
)

// RefreshStats counts catalog mutations of one Refresh.
type RefreshStats struct {
	Indexed int
	Removed int
}

// Changed reports whether the catalog was modified.
func (s RefreshStats) Changed() bool {
	return s.Indexed+s.Removed > 0
}

// Refresh brings the catalog for one tree up to date with dir:
//   - new/changed articles are parsed and upserted
//   - articles without a frontmatter block are kept out of the catalog
//   - articles removed from disk are deleted from the catalog
func Refresh(db *DB, fs storage.Provider, t models.Tree, dir string, logger *slog.Logger) (RefreshStats, error) {
	var stats RefreshStats
	enum := &tree.Enumerator{FS: fs}
	names, err := enum.Articles(dir)
	if err != nil {
		return stats, err
	}

	checksums, err := db.AllChecksums(t)
	if err != nil {
		return stats, err
	}

	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		text, err := fs.ReadText(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("index: read failed", slog.String("name", name), slog.String("error", err.Error()))
			continue
		}
		cs := checksum.Article(text)

		res, ok := parser.Parse(name, text)
		if !ok {
			continue
		}
		seen[name] = struct{}{}
		if checksums[name] == cs {
			continue
		}
		if err := indexArticle(db, t, name, cs, res); err != nil {
			logger.Warn("index: upsert failed", slog.String("name", name), slog.String("error", err.Error()))
			continue
		}
		stats.Indexed++
		logger.Debug("index: indexed", slog.String("tree", string(t)), slog.String("name", name))
	}

	for name := range checksums {
		if _, ok := seen[name]; ok {
			continue
		}
		if err := db.DeleteArticle(t, name); err != nil {
			logger.Warn("index: delete failed", slog.String("name", name), slog.String("error", err.Error()))
			continue
		}
		stats.Removed++
		logger.Debug("index: removed stale", slog.String("tree", string(t)), slog.String("name", name))
	}

	return stats, nil
}

func indexArticle(db *DB, t models.Tree, name, cs string, res *parser.Result) error {
	row := ArticleRow{
		Tree:     t,
		Name:     name,
		Title:    res.Meta.Title,
		Date:     res.Meta.Date,
		Draft:    res.Meta.Draft,
		Tags:     res.Meta.Tags,
		Checksum: cs,
	}
	return db.UpsertArticle(row, res.Body)
}
