package index

import "github.com/stella-dust/zolapub/internal/models"

// Catalog defines the article catalog operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type Catalog interface {
	UpsertArticle(a ArticleRow, body string) error
	DeleteArticle(tree models.Tree, name string) error
	GetChecksum(tree models.Tree, name string) (string, error)
	ListArticles(q ListQuery) ([]ArticleRow, error)
	Tags(tree models.Tree) ([]TagCount, error)
	Search(tree models.Tree, query string, limit int) ([]SearchResult, error)
	AllChecksums(tree models.Tree) (map[string]string, error)
	Close() error
}

// Verify *DB satisfies Catalog at compile time.
var _ Catalog = (*DB)(nil)
