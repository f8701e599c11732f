// Package checksum fingerprints article text for the catalog.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Article fingerprints article text with CRLF line endings folded to LF, so
// the same article checked out on different platforms is indexed once.
func Article(text string) string {
	return Sum([]byte(strings.ReplaceAll(text, "\r\n", "\n")))
}
