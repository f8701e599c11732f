//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/stella-dust/zolapub/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS articles_fts USING fts5(
			tree UNINDEXED,
			name UNINDEXED,
			title,
			body,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, a ArticleRow, body string) error {
	ftsDelete(tx, a.Tree, a.Name)
	_, err := tx.Exec(`INSERT INTO articles_fts (tree, name, title, body, tags) VALUES (?, ?, ?, ?, ?)`,
		string(a.Tree), a.Name, a.Title, body, strings.Join(a.Tags, " "))
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, tree models.Tree, name string) {
	_, _ = tx.Exec(`DELETE FROM articles_fts WHERE tree = ? AND name = ?`, string(tree), name)
}

// Search performs an FTS5 full-text search and returns matching results with snippets.
func (db *DB) Search(tree models.Tree, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT name,
		       title,
		       snippet(articles_fts, 3, '<b>', '</b>', '...', 64)
		FROM articles_fts
		WHERE tree = ? AND articles_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, string(tree), query, limit)
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
