// Package activity keeps the capped, ordered record of operations performed.
package activity

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// MaxEntries is the number of entries retained; older ones are evicted first.
const MaxEntries = 100

// Action kinds.
const (
	KindSyncPush   = "sync-push"
	KindSyncPull   = "sync-pull"
	KindPublish    = "publish"
	KindPreview    = "preview"
	KindNewArticle = "new-article"
)

// Entry is one logged operation.
type Entry struct {
	ID      string    `yaml:"id" json:"id"`
	Time    time.Time `yaml:"timestamp" json:"timestamp"`
	Kind    string    `yaml:"action" json:"action"`
	Summary string    `yaml:"summary" json:"summary"`
	Details []string  `yaml:"details,omitempty" json:"details,omitempty"`
}

// NewEntry stamps an entry with a fresh id and the current UTC time.
func NewEntry(kind, summary string, details []string) Entry {
	return Entry{
		ID:      uuid.NewString(),
		Time:    time.Now().UTC().Truncate(time.Second),
		Kind:    kind,
		Summary: summary,
		Details: details,
	}
}

// Sink receives entries. Implementations only ever append.
type Sink interface {
	Append(e Entry) error
}

// Log is an in-memory capped log. It satisfies Sink.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	max     int
}

// NewLog returns a log retaining at most max entries (MaxEntries when max <= 0).
func NewLog(max int, initial ...Entry) *Log {
	if max <= 0 {
		max = MaxEntries
	}
	l := &Log{max: max}
	for _, e := range initial {
		l.appendLocked(e)
	}
	return l
}

// Append adds e, evicting the oldest entries beyond the cap.
func (l *Log) Append(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.appendLocked(e)
	return nil
}

func (l *Log) appendLocked(e Entry) {
	l.entries = append(l.entries, e)
	if over := len(l.entries) - l.max; over > 0 {
		l.entries = append([]Entry(nil), l.entries[over:]...)
	}
}

// Entries returns a copy, oldest first.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

// Recent returns up to n entries, newest first. n <= 0 returns all.
func (l *Log) Recent(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, 0, n)
	for i := len(l.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
