package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packrat-dev/packrat/internal/audit"
	"github.com/packrat-dev/packrat/internal/store"
	"github.com/packrat-dev/packrat/internal/testutil"
)

func newTestManager(t *testing.T, clock *testutil.Clock) (*Manager, *audit.Logger, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "inventory.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	log := audit.New(st.DB(), nil, audit.WithNow(clock.Now))
	dir := filepath.Join(t.TempDir(), "backups")
	return New(dbPath, dir, log, WithNow(clock.Current)), log, dir
}

func TestCreate(t *testing.T) {
	clock := testutil.NewClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local), time.Second)
	mgr, log, dir := newTestManager(t, clock)

	path, err := mgr.Create(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "inventory_backup_2025-06-01_12-00-00.db"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size(), "backup must contain the database file")

	entries, err := log.Query(context.Background(), audit.Filter{Action: audit.ActionBackup})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.EntityDatabase, entries[0].EntityType)
	assert.Equal(t, "Database backed up to inventory_backup_2025-06-01_12-00-00.db", entries[0].Details)
}

func TestCreate_MissingDatabase(t *testing.T) {
	clock := testutil.NewClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local), 0)
	mgr, log, _ := newTestManager(t, clock)
	mgr.dbPath = filepath.Join(t.TempDir(), "does-not-exist.db")

	_, err := mgr.Create(context.Background())
	require.Error(t, err)

	// A failed backup leaves no audit entry.
	entries, err := log.Query(context.Background(), audit.Filter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLatestTimestamp(t *testing.T) {
	clock := testutil.NewClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local), 0)
	mgr, _, dir := newTestManager(t, clock)

	// No directory yet.
	_, found, err := mgr.LatestTimestamp()
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range []string{
		"inventory_backup_2025-05-20_09-30-00.db",
		"inventory_backup_2025-05-28_18-00-00.db",
		"notes.txt",                    // unrelated file
		"inventory_backup_garbage.db",  // malformed stamp
		"inventory_export_2025.csv",    // wrong prefix
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	latest, found, err := mgr.LatestTimestamp()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, time.Date(2025, 5, 28, 18, 0, 0, 0, time.Local), latest)
}

func TestIsStale(t *testing.T) {
	clock := testutil.NewClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local), 0)
	mgr, _, dir := newTestManager(t, clock)

	// No backups at all counts as stale.
	stale, err := mgr.IsStale(0)
	require.NoError(t, err)
	assert.True(t, stale)

	require.NoError(t, os.MkdirAll(dir, 0o755))
	fresh := "inventory_backup_2025-05-28_18-00-00.db" // 4 days old
	require.NoError(t, os.WriteFile(filepath.Join(dir, fresh), nil, 0o644))

	stale, err = mgr.IsStale(0)
	require.NoError(t, err)
	assert.False(t, stale, "4-day-old backup is within the default 7 days")

	stale, err = mgr.IsStale(48 * time.Hour)
	require.NoError(t, err)
	assert.True(t, stale, "4-day-old backup exceeds a 2-day threshold")
}

func TestCreateMakesBackupFresh(t *testing.T) {
	clock := testutil.NewClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local), time.Second)
	mgr, _, _ := newTestManager(t, clock)

	stale, err := mgr.IsStale(0)
	require.NoError(t, err)
	require.True(t, stale)

	_, err = mgr.Create(context.Background())
	require.NoError(t, err)

	latest, found, err := mgr.LatestTimestamp()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local), latest,
		"latest timestamp must equal the stamp embedded in the new filename")

	stale, err = mgr.IsStale(0)
	require.NoError(t, err)
	assert.False(t, stale)
}
