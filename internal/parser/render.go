package parser

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/stella-dust/zolapub/internal/models"
)

type frontmatterDoc struct {
	Title      string        `toml:"title"`
	Date       string        `toml:"date,omitempty"`
	Draft      bool          `toml:"draft"`
	Taxonomies taxonomiesDoc `toml:"taxonomies"`
}

type taxonomiesDoc struct {
	Tags []string `toml:"tags"`
}

// RenderFrontmatter encodes meta as a delimited block that Parse reads back.
func RenderFrontmatter(meta models.Meta) (string, error) {
	tags := meta.Tags
	if tags == nil {
		tags = []string{}
	}
	doc := frontmatterDoc{
		Title:      meta.Title,
		Date:       meta.Date,
		Draft:      meta.Draft,
		Taxonomies: taxonomiesDoc{Tags: tags},
	}

	var buf bytes.Buffer
	buf.WriteString(Delimiter + "\n")
	enc := toml.NewEncoder(&buf)
	enc.Indent = ""
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("parser: encode frontmatter: %w", err)
	}
	buf.WriteString(Delimiter + "\n")
	return buf.String(), nil
}
