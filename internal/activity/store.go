package activity

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// Key is the reserved configuration key holding the log.
const Key = "activity_log"

// Store is a Sink that persists the log inside the configuration document,
// leaving every other key of that document untouched.
type Store struct {
	path string
	mu   sync.Mutex
	log  *Log
}

// OpenStore loads the entries already persisted in the document at path.
// A missing document starts an empty log.
func OpenStore(path string) (*Store, error) {
	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("activity: read %s: %w", path, err)
	}
	var doc struct {
		Entries []Entry `yaml:"activity_log"`
	}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("activity: parse %s: %w", path, err)
		}
	}
	s.log = NewLog(MaxEntries, doc.Entries...)
	return s, nil
}

// Append records e and rewrites the document.
func (s *Store) Append(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.log.Append(e)
	return s.persist()
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(n int) []Entry {
	return s.log.Recent(n)
}

func (s *Store) persist() error {
	data, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("activity: read %s: %w", s.path, err)
	}

	var doc yaml.Node
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("activity: parse %s: %w", s.path, err)
		}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("activity: %s: top level is not a mapping", s.path)
	}

	var value yaml.Node
	if err := value.Encode(s.log.Entries()); err != nil {
		return fmt.Errorf("activity: encode: %w", err)
	}

	replaced := false
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == Key {
			root.Content[i+1] = &value
			replaced = true
			break
		}
	}
	if !replaced {
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: Key},
			&value)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("activity: marshal: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("activity: marshal: %w", err)
	}
	if err := atomic.WriteFile(s.path, &buf); err != nil {
		return fmt.Errorf("activity: write %s: %w", s.path, err)
	}
	return nil
}

var (
	_ Sink = (*Log)(nil)
	_ Sink = (*Store)(nil)
)
