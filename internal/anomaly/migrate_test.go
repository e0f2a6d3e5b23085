package anomaly

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMigrations(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"000001_anomaly_events.up.sql": `
			CREATE TABLE IF NOT EXISTS anomaly_events (
				id                TEXT PRIMARY KEY,
				source            TEXT NOT NULL,
				severity          TEXT NOT NULL,
				confidence        DOUBLE NOT NULL,
				detail            TEXT,
				timestamp         TIMESTAMP NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_anomaly_events_timestamp
				ON anomaly_events(timestamp);`,
		"000001_anomaly_events.down.sql": `
			DROP INDEX IF EXISTS idx_anomaly_events_timestamp;
			DROP TABLE IF EXISTS anomaly_events;`,
		"000002_source_index.up.sql": `
			CREATE INDEX IF NOT EXISTS idx_anomaly_events_source
				ON anomaly_events(source);`,
		"000002_source_index.down.sql": `
			DROP INDEX IF EXISTS idx_anomaly_events_source;`,
	}
	for name, sql := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(sql), 0644))
	}
	return dir
}

func TestMigrateUpFromFresh(t *testing.T) {
	migrationsDir := writeMigrations(t)
	store, err := OpenStore(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.MigrateUp(migrationsDir))

	version, dirty, err := store.MigrateVersion(migrationsDir)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// schema still usable after migrating over the bootstrap tables
	ev := Event{
		ID:         uuid.New(),
		Source:     SourceTap,
		Severity:   SeverityMedium,
		Confidence: 0.7,
		Detail:     "hollow tile",
		Timestamp:  time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
	require.NoError(t, store.RecordEvent(ev))

	counts, err := store.CountBySource()
	require.NoError(t, err)
	assert.Equal(t, 1, counts[SourceTap])
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	migrationsDir := writeMigrations(t)
	store, err := OpenStore(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.MigrateUp(migrationsDir))
	require.NoError(t, store.MigrateUp(migrationsDir))

	version, _, err := store.MigrateVersion(migrationsDir)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
}

func TestMigrateDownStepsBack(t *testing.T) {
	migrationsDir := writeMigrations(t)
	store, err := OpenStore(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.MigrateUp(migrationsDir))
	require.NoError(t, store.MigrateDown(migrationsDir))

	version, dirty, err := store.MigrateVersion(migrationsDir)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestMigrateVersionBeforeAnyMigration(t *testing.T) {
	migrationsDir := writeMigrations(t)
	store, err := OpenStore(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	defer store.Close()

	version, dirty, err := store.MigrateVersion(migrationsDir)
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)
}
