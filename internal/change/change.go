// Package change decides whether a destination copy needs to be written.
package change

import (
	"bytes"
	"fmt"

	"github.com/stella-dust/zolapub/internal/storage"
)

// Status is the outcome of comparing a source body with a destination file.
type Status int

const (
	Absent Status = iota
	Identical
	Changed
)

func (s Status) String() string {
	switch s {
	case Absent:
		return "absent"
	case Identical:
		return "identical"
	case Changed:
		return "changed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// NeedsWrite reports whether the destination must be overwritten.
func (s Status) NeedsWrite() bool {
	return s != Identical
}

// Detect compares body with the full content of dst. Text callers pass the
// already transcoded body.
func Detect(fs storage.Provider, dst string, body []byte) (Status, error) {
	ok, err := fs.Exists(dst)
	if err != nil {
		return Absent, fmt.Errorf("change: stat %s: %w", dst, err)
	}
	if !ok {
		return Absent, nil
	}
	existing, err := fs.ReadBinary(dst)
	if err != nil {
		return Absent, fmt.Errorf("change: read %s: %w", dst, err)
	}
	if bytes.Equal(existing, body) {
		return Identical, nil
	}
	return Changed, nil
}

// DetectText is Detect for string bodies.
func DetectText(fs storage.Provider, dst, body string) (Status, error) {
	return Detect(fs, dst, []byte(body))
}
