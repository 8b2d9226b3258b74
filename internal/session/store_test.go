package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cho-y-j/able-sub001/internal/pipeline"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), nil)
	require.NoError(t, err)
	return store
}

func testRecord(sessionID, userID string, status Status) *Record {
	return &Record{
		Session: Session{
			ID:        sessionID,
			UserID:    userID,
			Status:    status,
			StartedAt: time.Now(),
		},
		Context: pipeline.NewContext(sessionID, userID, []string{"005930"}, pipeline.ExecutionConfig{DryRun: true}),
	}
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	record := testRecord("s1", "u1", StatusActive)
	record.Context.IterationCount = 7
	require.NoError(t, store.Save(record))

	loaded, err := store.Load("s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", loaded.Session.ID)
	assert.Equal(t, StatusActive, loaded.Session.Status)
	assert.Equal(t, 7, loaded.Context.IterationCount)
	assert.Equal(t, []string{"005930"}, loaded.Context.Watchlist)
	assert.True(t, loaded.Context.Execution.DryRun)
	assert.False(t, loaded.LastUpdated.IsZero())
}

func TestStoreLoadMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load("nope")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestStoreSaveKeepsBackup(t *testing.T) {
	store := newTestStore(t)

	record := testRecord("s1", "u1", StatusActive)
	require.NoError(t, store.Save(record))
	record.Session.IterationCount = 2
	require.NoError(t, store.Save(record))

	_, err := os.Stat(filepath.Join(store.stateDir, "session_s1.json.bak"))
	assert.NoError(t, err)
}

func TestStoreFindActiveByUser(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(testRecord("s1", "u1", StatusStopped)))
	require.NoError(t, store.Save(testRecord("s2", "u1", StatusPendingApproval)))
	require.NoError(t, store.Save(testRecord("s3", "u2", StatusActive)))

	record, err := store.FindActiveByUser("u1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "s2", record.Session.ID)

	record, err = store.FindActiveByUser("u3")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestStoreDelete(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(testRecord("s1", "u1", StatusActive)))
	require.NoError(t, store.Delete("s1"))

	_, err := store.Load("s1")
	assert.Error(t, err)

	// Deleting a missing record is not an error.
	assert.NoError(t, store.Delete("s1"))
}
