// Package parser extracts the TOML frontmatter block from article text.
//
// The grammar is intentionally small: one level of [section] tables,
// key = value lines, booleans, quoted strings and flat arrays. Anything
// else is skipped rather than reported.
package parser

import (
	"path"
	"regexp"
	"strings"

	"github.com/stella-dust/zolapub/internal/models"
)

// Delimiter opens and closes the frontmatter block.
const Delimiter = "+++"

var sectionRe = regexp.MustCompile(`^\[([^\[\]]+)\]$`)

// Result holds the output of parsing an article.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Meta        models.Meta
}

// Parse parses the frontmatter of the article called name. ok is false when
// the text has no leading block; such articles stay out of metadata views.
func Parse(name, text string) (*Result, bool) {
	front, body, ok := Split(text)
	if !ok {
		return nil, false
	}
	fm := parseBlock(front)
	return &Result{
		Frontmatter: fm,
		Body:        body,
		Meta:        metaFrom(name, fm),
	}, true
}

// ParseFrontmatter returns the key/value mapping of the leading block.
func ParseFrontmatter(text string) (map[string]any, bool) {
	front, _, ok := Split(text)
	if !ok {
		return nil, false
	}
	return parseBlock(front), true
}

// Split separates the frontmatter lines from the body. The opening
// delimiter must be the very first line.
func Split(text string) (front, body string, ok bool) {
	lines := strings.SplitAfter(text, "\n")
	if len(lines) == 0 || trimEOL(lines[0]) != Delimiter {
		return "", text, false
	}
	for i := 1; i < len(lines); i++ {
		if trimEOL(lines[i]) == Delimiter {
			return strings.Join(lines[1:i], ""), strings.Join(lines[i+1:], ""), true
		}
	}
	return "", text, false
}

func trimEOL(s string) string {
	return strings.TrimRight(s, "\r\n")
}

func parseBlock(front string) map[string]any {
	out := make(map[string]any)
	var section map[string]any

	for _, raw := range strings.Split(front, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if m := sectionRe.FindStringSubmatch(line); m != nil {
			name := strings.TrimSpace(m[1])
			tbl, ok := out[name].(map[string]any)
			if !ok {
				tbl = make(map[string]any)
				out[name] = tbl
			}
			section = tbl
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		v := parseValue(strings.TrimSpace(value))
		if section != nil {
			section[key] = v
		} else {
			out[key] = v
		}
	}

	if tax, ok := out["taxonomies"].(map[string]any); ok {
		if tags, ok := tax["tags"]; ok {
			out["tags"] = tags
		}
	}
	return out
}

func parseValue(v string) any {
	switch {
	case v == "true":
		return true
	case v == "false":
		return false
	case len(v) >= 2 && strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`):
		return v[1 : len(v)-1]
	case strings.HasPrefix(v, "[") && strings.HasSuffix(v, "]"):
		var items []string
		for _, el := range strings.Split(v[1:len(v)-1], ",") {
			el = unquote(strings.TrimSpace(el))
			if el != "" {
				items = append(items, el)
			}
		}
		if items == nil {
			items = []string{}
		}
		return items
	default:
		return v
	}
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// metaFrom builds the typed view, falling back to the base name for the title.
func metaFrom(name string, fm map[string]any) models.Meta {
	m := models.Meta{Tags: []string{}}
	if s, ok := fm["title"].(string); ok && s != "" {
		m.Title = s
	} else {
		m.Title = strings.TrimSuffix(path.Base(name), path.Ext(name))
	}
	if s, ok := fm["date"].(string); ok {
		m.Date = s
	}
	switch v := fm["tags"].(type) {
	case []string:
		m.Tags = append(m.Tags, v...)
	case string:
		if v != "" {
			m.Tags = append(m.Tags, v)
		}
	}
	if b, ok := fm["draft"].(bool); ok {
		m.Draft = b
	}
	return m
}
