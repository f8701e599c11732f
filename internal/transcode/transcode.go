// Package transcode rewrites embedded image references between the vault's
// wiki syntax and the site's Markdown syntax. Everything outside a matched
// reference is passed through byte for byte.
package transcode

import (
	"regexp"
	"strings"
)

var (
	wikiImageRe = regexp.MustCompile(`!\[\[([^\[\]\n]+)\]\]`)

	// The destination is either <...> or a bare path with one level of
	// balanced parentheses, as in CommonMark.
	mdImageRe = regexp.MustCompile(`!\[([^\]\n]*)\]\((?:<([^<>\n]+)>|((?:[^()\s]|\([^()\s]*\))+))\)`)
)

// Outbound converts vault references to site references:
//
//	![[../post_imgs/a.png]]         → ![](/post_imgs/a.png)
//	![[../post_imgs/Pasted 1.png]]  → ![](</post_imgs/Pasted 1.png>)
//
// Only one leading "../" or "./" is dropped. Paths with spaces or
// parentheses are written as <...> destinations.
func Outbound(text string) string {
	return wikiImageRe.ReplaceAllStringFunc(text, func(m string) string {
		p := wikiImageRe.FindStringSubmatch(m)[1]
		return "![](" + destination(SitePath(p)) + ")"
	})
}

// destination wraps p in angle brackets when a bare destination would end
// early or fail to parse.
func destination(p string) string {
	if strings.ContainsAny(p, " \t()") && !strings.ContainsAny(p, "<>") {
		return "<" + p + ">"
	}
	return p
}

// Inbound converts site-rooted references back to vault references:
//
//	![alt](/post_imgs/a.png)          → ![[../post_imgs/a.png]]
//	![](</post_imgs/Pasted 1.png>)    → ![[../post_imgs/Pasted 1.png]]
//
// Relative paths and URLs are left alone. Alt text is dropped.
func Inbound(text string) string {
	return mdImageRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := mdImageRe.FindStringSubmatch(m)
		p := sub[2]
		if p == "" {
			p = sub[3]
		}
		vp, ok := VaultPath(p)
		if !ok {
			return m
		}
		return "![[" + vp + "]]"
	})
}

// SitePath turns a vault image path into a site-rooted one.
func SitePath(p string) string {
	switch {
	case strings.HasPrefix(p, "../"):
		p = p[len("../"):]
	case strings.HasPrefix(p, "./"):
		p = p[len("./"):]
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// VaultPath turns a site-rooted path into a parent-relative vault path.
// ok is false for anything not rooted at "/", including "//host/..." URLs.
func VaultPath(p string) (string, bool) {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return "", false
	}
	return "../" + p[1:], true
}
