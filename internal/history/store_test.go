package history

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pacdeck/internal/config"
	"pacdeck/pkg/pacman"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := OpenAt(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func result(id string, kind pacman.Kind, pkg string, success bool, at time.Time) pacman.Result {
	return pacman.Result{ID: id, Operation: kind, PackageName: pkg, Success: success, StartedAt: at}
}

func TestOpenUsesDataDir(t *testing.T) {
	t.Setenv(config.EnvDataDir, t.TempDir())

	store, err := Open()
	require.NoError(t, err)
	defer store.Close()

	assert.FileExists(t, config.HistoryPath())
}

func TestRecordAndCount(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.Record(FromResult(result("a", pacman.KindInstall, "vim", true, time.Now()))))

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestListNewestFirst(t *testing.T) {
	store := setupTestStore(t)

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		store.RecordResult(result(fmt.Sprintf("op%d", i), pacman.KindInstall, fmt.Sprintf("pkg%d", i), true, base.Add(time.Duration(i)*time.Minute)))
	}

	entries, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	assert.Equal(t, "op4", entries[0].ID)
	assert.Equal(t, "op0", entries[4].ID)

	limited, err := store.List(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSameTimestampDoesNotOverwrite(t *testing.T) {
	store := setupTestStore(t)

	at := time.Now()
	store.RecordResult(result("one", pacman.KindInstall, "a", true, at))
	store.RecordResult(result("two", pacman.KindInstall, "b", true, at))

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestGet(t *testing.T) {
	store := setupTestStore(t)
	store.RecordResult(result("wanted", pacman.KindRemove, "htop", true, time.Now()))

	entry, err := store.Get("wanted")
	require.NoError(t, err)
	assert.Equal(t, "htop", entry.Package)

	_, err = store.Get("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLast(t *testing.T) {
	store := setupTestStore(t)

	entry, err := store.Last()
	require.NoError(t, err)
	assert.Nil(t, entry)

	base := time.Now()
	store.RecordResult(result("old", pacman.KindInstall, "a", true, base))
	store.RecordResult(result("new", pacman.KindUpdate, "", true, base.Add(time.Second)))

	entry, err = store.Last()
	require.NoError(t, err)
	assert.Equal(t, "new", entry.ID)
}

func TestLastUndoable(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.LastUndoable()
	assert.True(t, errors.Is(err, ErrNotFound))

	base := time.Now()
	store.RecordResult(result("install", pacman.KindInstall, "vim", true, base))
	store.RecordResult(result("failed", pacman.KindRemove, "git", false, base.Add(time.Second)))
	store.RecordResult(result("update", pacman.KindUpdate, "", true, base.Add(2*time.Second)))

	entry, err := store.LastUndoable()
	require.NoError(t, err)
	assert.Equal(t, "install", entry.ID)
}

func TestClear(t *testing.T) {
	store := setupTestStore(t)
	store.RecordResult(result("a", pacman.KindInstall, "vim", true, time.Now()))

	require.NoError(t, store.Clear())

	count, err := store.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPrune(t *testing.T) {
	store := setupTestStore(t)

	store.RecordResult(result("ancient", pacman.KindInstall, "a", true, time.Now().Add(-48*time.Hour)))
	store.RecordResult(result("recent", pacman.KindInstall, "b", true, time.Now()))

	deleted, err := store.Prune(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	entries, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "recent", entries[0].ID)
}

func TestRecordResultAsOnResultHook(t *testing.T) {
	store := setupTestStore(t)

	var hook func(pacman.Result) = store.RecordResult
	hook(result("hooked", pacman.KindInstall, "vim", true, time.Now()))

	entry, err := store.Get("hooked")
	require.NoError(t, err)
	assert.True(t, entry.Success)
}
