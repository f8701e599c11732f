// Package storage defines the file-system capability used by the sync engine.
package storage

// Entry is one item of a directory listing.
type Entry struct {
	Name  string
	IsDir bool
}

// Provider is the small set of file operations the engine relies on.
// Paths are absolute file-system paths.
type Provider interface {
	// Exists reports whether path exists (file or directory).
	Exists(path string) (bool, error)
	// IsDir reports whether path exists and is a directory.
	IsDir(path string) (bool, error)
	// ReadText returns the file content as a string.
	ReadText(path string) (string, error)
	// ReadBinary returns the raw file bytes.
	ReadBinary(path string) ([]byte, error)
	// WriteText replaces the file content, creating parent directories.
	WriteText(path, content string) error
	// WriteBinary replaces the file content, creating parent directories.
	WriteBinary(path string, data []byte) error
	// List returns the direct children of dir.
	List(dir string) ([]Entry, error)
}
