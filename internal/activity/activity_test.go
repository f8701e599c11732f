package activity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLog_CapEvictsOldest(t *testing.T) {
	l := NewLog(3)
	for i := 1; i <= 5; i++ {
		_ = l.Append(NewEntry(KindSyncPush, fmt.Sprintf("run %d", i), nil))
	}
	entries := l.Entries()
	require.Len(t, entries, 3)
	require.Equal(t, "run 3", entries[0].Summary)
	require.Equal(t, "run 5", entries[2].Summary)
}

func TestLog_DefaultCap(t *testing.T) {
	l := NewLog(0)
	for i := 0; i < MaxEntries+20; i++ {
		_ = l.Append(NewEntry(KindSyncPull, "x", nil))
	}
	require.Equal(t, MaxEntries, l.Len())
}

func TestLog_RecentNewestFirst(t *testing.T) {
	l := NewLog(10)
	_ = l.Append(NewEntry(KindSyncPush, "first", nil))
	_ = l.Append(NewEntry(KindPublish, "second", nil))
	_ = l.Append(NewEntry(KindSyncPull, "third", nil))

	recent := l.Recent(2)
	require.Len(t, recent, 2)
	require.Equal(t, "third", recent[0].Summary)
	require.Equal(t, "second", recent[1].Summary)
	require.Len(t, l.Recent(0), 3)
}

func TestStore_PreservesOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	original := "# user settings\nsync:\n  mode: two-way\nremote:\n  branch: main\n"
	require.NoError(t, os.WriteFile(path, []byte(original), 0o644))

	s, err := OpenStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(NewEntry(KindSyncPush, "Pushed 2 articles", []string{"a.md: created", "b.md: updated"})))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	require.True(t, strings.HasPrefix(text, "# user settings"), "comment lost:\n%s", text)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	require.Equal(t, "two-way", doc["sync"].(map[string]any)["mode"])
	require.Equal(t, "main", doc["remote"].(map[string]any)["branch"])
	require.Len(t, doc[Key], 1)
}

func TestStore_ReopenReadsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	s, err := OpenStore(path)
	require.NoError(t, err)
	e := NewEntry(KindSyncPull, "Pulled 1 article", []string{"x.md: created"})
	require.NoError(t, s.Append(e))
	require.NoError(t, s.Append(NewEntry(KindPublish, "Published", nil)))

	again, err := OpenStore(path)
	require.NoError(t, err)
	recent := again.Recent(0)
	require.Len(t, recent, 2)
	require.Equal(t, "Published", recent[0].Summary)
	require.Equal(t, e.ID, recent[1].ID)
	require.True(t, e.Time.Equal(recent[1].Time))
	require.Equal(t, []string{"x.md: created"}, recent[1].Details)
}

func TestStore_CapPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	s, err := OpenStore(path)
	require.NoError(t, err)
	for i := 0; i < MaxEntries+5; i++ {
		require.NoError(t, s.Append(NewEntry(KindSyncPush, fmt.Sprintf("run %d", i), nil)))
	}

	again, err := OpenStore(path)
	require.NoError(t, err)
	recent := again.Recent(0)
	require.Len(t, recent, MaxEntries)
	require.Equal(t, fmt.Sprintf("run %d", MaxEntries+4), recent[0].Summary)
	require.Equal(t, "run 5", recent[len(recent)-1].Summary)
}
