package tree

import (
	"path"
	"path/filepath"
	"strings"
)

// Paths resolves configured directory values against the two tree roots.
// VaultRoot must be explicit; it is never guessed from path contents.
type Paths struct {
	VaultRoot string
	SiteRoot  string
}

// slash converts both separator styles to "/".
func slash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// VaultRelative turns a configured vault path into a vault-relative,
// slash-separated path. Absolute values under VaultRoot lose that prefix;
// other absolute values lose their leading separator.
func (p Paths) VaultRelative(configured string) string {
	v := slash(strings.TrimSpace(configured))
	base := strings.TrimSuffix(slash(p.VaultRoot), "/")

	switch {
	case base != "" && v == base:
		v = ""
	case base != "" && strings.HasPrefix(v, base+"/"):
		v = v[len(base)+1:]
	case strings.HasPrefix(v, "/"):
		v = v[1:]
	}
	if v == "" {
		return ""
	}
	v = path.Clean(v)
	if v == "." {
		return ""
	}
	return v
}

// InVault reports whether a configured vault path stays under VaultRoot.
func (p Paths) InVault(configured string) bool {
	rel := p.VaultRelative(configured)
	return rel != ".." && !strings.HasPrefix(rel, "../")
}

// VaultAbs returns the file-system path of a configured vault directory.
func (p Paths) VaultAbs(configured string) string {
	return filepath.Join(p.VaultRoot, filepath.FromSlash(p.VaultRelative(configured)))
}

// SiteAbs returns the file-system path of a configured site directory.
// Relative values resolve against SiteRoot.
func (p Paths) SiteAbs(configured string) string {
	v := filepath.FromSlash(slash(strings.TrimSpace(configured)))
	if v == "" {
		return ""
	}
	if filepath.IsAbs(v) || p.SiteRoot == "" {
		return filepath.Clean(v)
	}
	return filepath.Join(p.SiteRoot, v)
}
