package shortcuts

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// fakeMirror records the live table the way the listener would hold it.
type fakeMirror struct {
	mu    sync.Mutex
	table map[string]string
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{table: make(map[string]string)}
}

func (m *fakeMirror) AddAbbreviation(trigger, expansion string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table[trigger] = expansion
}

func (m *fakeMirror) RemoveAbbreviation(trigger string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.table, trigger)
}

func (m *fakeMirror) ReplaceAbbreviations(table map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table = make(map[string]string, len(table))
	for k, v := range table {
		m.table[k] = v
	}
}

func (m *fakeMirror) lookup(trigger string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	expansion, ok := m.table[trigger]
	return expansion, ok
}

func (m *fakeMirror) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.table)
}

func newTestStore(t *testing.T) (*Store, *fakeMirror, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shortcuts.db")
	store, err := NewStore(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	mirror := newFakeMirror()
	require.NoError(t, store.Load(mirror))
	return store, mirror, path
}

func countRows(t *testing.T, store *Store) int64 {
	t.Helper()
	var count int64
	require.NoError(t, store.db.Model(&ShortcutEntry{}).Count(&count).Error)
	return count
}

func TestStore_AddAndList(t *testing.T) {
	store, mirror, _ := newTestStore(t)

	require.NoError(t, store.Add("omw", "on my way", false))
	require.NoError(t, store.Add("  brb ", " be right back ", true))

	entries, err := store.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "brb", entries[0].Trigger)
	assert.Equal(t, "be right back", entries[0].Expansion)
	assert.True(t, entries[0].Temporary)
	assert.True(t, entries[0].AddedAt.Valid)
	assert.Equal(t, "omw", entries[1].Trigger)
	assert.False(t, entries[1].Temporary)

	expansion, ok := mirror.lookup("brb")
	assert.True(t, ok)
	assert.Equal(t, "be right back", expansion)
}

func TestStore_AddDuplicate(t *testing.T) {
	store, mirror, _ := newTestStore(t)

	require.NoError(t, store.Add("sig", "Best regards", false))
	before := countRows(t, store)

	err := store.Add("sig", "Cheers", true)
	assert.ErrorIs(t, err, ErrDuplicateTrigger)
	assert.Equal(t, before, countRows(t, store))

	entries, err := store.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Best regards", entries[0].Expansion)
	assert.False(t, entries[0].Temporary)

	expansion, _ := mirror.lookup("sig")
	assert.Equal(t, "Best regards", expansion)
}

func TestStore_AddEmptyFields(t *testing.T) {
	store, mirror, _ := newTestStore(t)

	assert.ErrorIs(t, store.Add("", "text", false), ErrEmptyField)
	assert.ErrorIs(t, store.Add("tr", "   ", false), ErrEmptyField)
	assert.Equal(t, int64(0), countRows(t, store))
	assert.Equal(t, 0, mirror.len())
}

func TestStore_AddRejectsTriggersThatCannotFire(t *testing.T) {
	store, mirror, _ := newTestStore(t)

	for _, trigger := range []string{";sig", "e.g", "on my", "brb!"} {
		assert.ErrorIs(t, store.Add(trigger, "text", false), ErrInvalidTrigger, trigger)
	}
	assert.Equal(t, int64(0), countRows(t, store))
	assert.Equal(t, 0, mirror.len())

	require.NoError(t, store.Add("  sig  ", "Best regards", false))
	assert.Equal(t, 1, mirror.len())
}

func TestIsBoundary(t *testing.T) {
	for _, r := range " \t\n.,;:!?'\"()" {
		assert.True(t, IsBoundary(r), "%q", r)
	}
	for _, r := range "azAZ09éß" {
		assert.False(t, IsBoundary(r), "%q", r)
	}
}

func TestStore_Remove(t *testing.T) {
	store, mirror, _ := newTestStore(t)

	require.NoError(t, store.Add("brb", "be right back", false))
	require.NoError(t, store.Add("omw", "on my way", false))

	require.NoError(t, store.Remove("brb"))

	entries, err := store.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "omw", entries[0].Trigger)

	_, ok := mirror.lookup("brb")
	assert.False(t, ok)
}

func TestStore_RemoveMissingIsNoOp(t *testing.T) {
	store, mirror, _ := newTestStore(t)

	require.NoError(t, store.Add("omw", "on my way", false))

	err := store.Remove("nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, IgnoreNotFound(err))

	entries, err := store.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "on my way", entries[0].Expansion)
	assert.Equal(t, 1, mirror.len())
}

func TestStore_PurgeTemporary(t *testing.T) {
	store, mirror, path := newTestStore(t)

	require.NoError(t, store.Add("keep1", "permanent one", false))
	require.NoError(t, store.Add("tmp1", "temporary one", true))
	require.NoError(t, store.Add("keep2", "permanent two", false))
	require.NoError(t, store.Add("tmp2", "temporary two", true))

	purged, err := store.PurgeTemporary()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tmp1", "tmp2"}, triggers(purged))

	_, ok := mirror.lookup("tmp1")
	assert.False(t, ok)
	_, ok = mirror.lookup("keep1")
	assert.True(t, ok)

	t.Run("second call does nothing", func(t *testing.T) {
		require.NoError(t, store.Add("tmp3", "added after purge", true))
		purged, err := store.PurgeTemporary()
		require.NoError(t, err)
		assert.Empty(t, purged)
	})

	t.Run("survives restart", func(t *testing.T) {
		require.NoError(t, store.Close())

		reopened, err := NewStore(path, zaptest.NewLogger(t))
		require.NoError(t, err)
		defer reopened.Close()

		entries, err := reopened.List()
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"keep1", "keep2", "tmp3"}, triggers(entries))

		purged, err := reopened.PurgeTemporary()
		require.NoError(t, err)
		assert.Equal(t, []string{"tmp3"}, triggers(purged))

		entries, err = reopened.List()
		require.NoError(t, err)
		assert.Equal(t, []string{"keep1", "keep2"}, triggers(entries))
	})
}

func TestStore_ForwardMigratesLegacySchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	legacy, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, legacy.Exec("CREATE TABLE shortcuts (shortcut TEXT PRIMARY KEY, expansion TEXT)").Error)
	require.NoError(t, legacy.Exec("INSERT INTO shortcuts (shortcut, expansion) VALUES (?, ?)", "ty", "thank you").Error)
	sqlDB, err := legacy.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	store, err := NewStore(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer store.Close()

	assert.True(t, store.db.Migrator().HasColumn(&ShortcutEntry{}, "Temporary"))

	entries, err := store.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ty", entries[0].Trigger)
	assert.Equal(t, "thank you", entries[0].Expansion)
	assert.False(t, entries[0].Temporary)
	assert.False(t, entries[0].AddedAt.Valid)

	require.NoError(t, store.Add("tmp", "temporary", true))
	purged, err := store.PurgeTemporary()
	require.NoError(t, err)
	assert.Equal(t, []string{"tmp"}, triggers(purged))
}

func TestStore_ClosedStoreRejectsCalls(t *testing.T) {
	store, _, _ := newTestStore(t)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	assert.ErrorIs(t, store.Add("a", "b", false), ErrClosed)
	assert.ErrorIs(t, store.Remove("a"), ErrClosed)
	_, err := store.List()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = store.PurgeTemporary()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestStore_Search(t *testing.T) {
	store, _, _ := newTestStore(t)
	require.NoError(t, store.Add("brb", "be right back", false))
	require.NoError(t, store.Add("omw", "on my way", false))

	entries, err := store.Search("on")
	require.NoError(t, err)
	assert.Equal(t, []string{"omw"}, triggers(entries))

	entries, err = store.Search("")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"brb", "omw"}, triggers(entries))
}

func TestStore_Reload(t *testing.T) {
	store, mirror, path := newTestStore(t)
	require.NoError(t, store.Add("brb", "be right back", false))

	other, err := NewStore(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer other.Close()
	require.NoError(t, other.Add("omw", "on my way", false))
	require.NoError(t, other.Remove("brb"))

	require.NoError(t, store.Reload())

	_, ok := mirror.lookup("brb")
	assert.False(t, ok)
	expansion, ok := mirror.lookup("omw")
	assert.True(t, ok)
	assert.Equal(t, "on my way", expansion)
}

func triggers(entries []ShortcutEntry) []string {
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.Trigger)
	}
	return out
}
