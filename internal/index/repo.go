package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stella-dust/zolapub/internal/models"
)

// ArticleRow represents a row in the articles table.
type ArticleRow struct {
	Tree      models.Tree `json:"tree"`
	Name      string      `json:"name"`
	Title     string      `json:"title"`
	Date      string      `json:"date,omitempty"`
	Draft     bool        `json:"draft"`
	Tags      []string    `json:"tags"`
	Checksum  string      `json:"-"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// TagCount is one entry of the tag view.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// ListQuery filters ListArticles.
type ListQuery struct {
	Tree   models.Tree
	Tag    string // empty means any tag
	Drafts bool   // include drafts
	Limit  int    // 0 means no limit
}

// UpsertArticle inserts or replaces an article, its tags and FTS entry within a transaction.
func (db *DB) UpsertArticle(a ArticleRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if a.Tags == nil {
		a.Tags = []string{}
	}
	tagsJSON, _ := json.Marshal(a.Tags)
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = time.Now().UTC()
	}

	_, err = tx.Exec(`
		INSERT INTO articles (tree, name, title, date, draft, tags, checksum, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tree, name) DO UPDATE SET
			title      = excluded.title,
			date       = excluded.date,
			draft      = excluded.draft,
			tags       = excluded.tags,
			checksum   = excluded.checksum,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, string(a.Tree), a.Name, a.Title, a.Date, a.Draft, string(tagsJSON), a.Checksum, body, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert article: %w", err)
	}

	if err := ftsUpsert(tx, a, body); err != nil {
		return err
	}

	_, _ = tx.Exec(`DELETE FROM article_tags WHERE tree = ? AND name = ?`, string(a.Tree), a.Name)
	if len(a.Tags) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO article_tags (tree, name, tag) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare tag insert: %w", err)
		}
		defer stmt.Close()
		for _, tag := range a.Tags {
			if _, err := stmt.Exec(string(a.Tree), a.Name, tag); err != nil {
				return fmt.Errorf("index: insert tag: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteArticle removes an article, its tags and FTS entry.
func (db *DB) DeleteArticle(tree models.Tree, name string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, tree, name)
	_, _ = tx.Exec(`DELETE FROM article_tags WHERE tree = ? AND name = ?`, string(tree), name)
	_, _ = tx.Exec(`DELETE FROM articles WHERE tree = ? AND name = ?`, string(tree), name)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for an article, or empty string if not found.
func (db *DB) GetChecksum(tree models.Tree, name string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM articles WHERE tree = ? AND name = ?`,
		string(tree), name).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns name → checksum for every indexed article of tree.
func (db *DB) AllChecksums(tree models.Tree) (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT name, checksum FROM articles WHERE tree = ?`, string(tree))
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var n, cs string
		if err := rows.Scan(&n, &cs); err != nil {
			return nil, err
		}
		out[n] = cs
	}
	return out, rows.Err()
}

// ListArticles returns catalog rows sorted by date, newest first. Dates are
// compared as strings; articles with equal dates are ordered by name.
func (db *DB) ListArticles(q ListQuery) ([]ArticleRow, error) {
	query := `SELECT a.tree, a.name, a.title, a.date, a.draft, a.tags, a.checksum, a.updated_at FROM articles a`
	args := []any{}
	if q.Tag != "" {
		query += ` JOIN article_tags t ON t.tree = a.tree AND t.name = a.name AND t.tag = ?`
		args = append(args, q.Tag)
	}
	query += ` WHERE a.tree = ?`
	args = append(args, string(q.Tree))
	if !q.Drafts {
		query += ` AND a.draft = 0`
	}
	query += ` ORDER BY a.date DESC, a.name ASC`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: list articles: %w", err)
	}
	defer rows.Close()

	var out []ArticleRow
	for rows.Next() {
		var (
			r        ArticleRow
			tree     string
			tagsJSON string
		)
		if err := rows.Scan(&tree, &r.Name, &r.Title, &r.Date, &r.Draft, &tagsJSON, &r.Checksum, &r.UpdatedAt); err != nil {
			return nil, err
		}
		r.Tree = models.Tree(tree)
		_ = json.Unmarshal([]byte(tagsJSON), &r.Tags)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Tags returns every tag used in tree with its article count, most used first.
func (db *DB) Tags(tree models.Tree) ([]TagCount, error) {
	rows, err := db.conn.Query(`
		SELECT tag, count(*) AS n
		FROM article_tags
		WHERE tree = ?
		GROUP BY tag
		ORDER BY n DESC, tag ASC
	`, string(tree))
	if err != nil {
		return nil, fmt.Errorf("index: tags: %w", err)
	}
	defer rows.Close()

	var out []TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}
