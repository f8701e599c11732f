//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"

	"github.com/stella-dust/zolapub/internal/models"
)

func initFTS(_ *sql.DB) error {
	// Without FTS5, search falls back to LIKE on articles.body.
	return nil
}

func ftsUpsert(_ *sql.Tx, _ ArticleRow, _ string) error {
	return nil
}

func ftsDelete(_ *sql.Tx, _ models.Tree, _ string) {}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(tree models.Tree, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT name, title, substr(body, 1, 200)
		FROM articles
		WHERE tree = ? AND (title LIKE ? OR body LIKE ? OR tags LIKE ?)
		ORDER BY date DESC, name
		LIMIT ?
	`, string(tree), like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Name, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
