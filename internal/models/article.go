// Package models defines the domain types for zolapub.
package models

// Tree identifies which of the two file trees a file lives in.
type Tree string

const (
	TreeVault Tree = "vault"
	TreeSite  Tree = "site"
)

// Meta is the typed view of an article's frontmatter block.
type Meta struct {
	Title string   `json:"title"`
	Date  string   `json:"date,omitempty"`
	Tags  []string `json:"tags"`
	Draft bool     `json:"draft"`
}

// Article is a Markdown document. Name is the join key between the trees.
type Article struct {
	Name    string `json:"name"`
	Tree    Tree   `json:"tree"`
	Content string `json:"-"`
	Meta    *Meta  `json:"meta,omitempty"`
}

// Image is a binary asset identified by its file name only.
type Image struct {
	Name string `json:"name"`
	Tree Tree   `json:"tree"`
	Data []byte `json:"-"`
}
