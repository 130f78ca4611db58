package localstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relocrm/leadstack/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "leadstack.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_MissingKey(t *testing.T) {
	store := newTestStore(t)

	var enabled bool
	found, err := store.GetJSON(context.Background(), KeyAutoSyncEnabled, &enabled)

	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, enabled)
}

func TestSQLiteStore_RoundTripSyncStatus(t *testing.T) {
	// Arrange
	store := newTestStore(t)
	ctx := context.Background()
	lastSync := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	status := models.SyncStatus{
		LastSync: &lastSync,
		Errors:   []string{"Customer 7: boom"},
		Synced:   models.SyncCounts{Customers: 3, Quotes: 2, Invoices: 1},
	}

	// Act
	require.NoError(t, store.SetJSON(ctx, KeyAutoSyncStatus, status))
	var restored models.SyncStatus
	found, err := store.GetJSON(ctx, KeyAutoSyncStatus, &restored)

	// Assert
	require.NoError(t, err)
	assert.True(t, found)
	require.NotNil(t, restored.LastSync)
	assert.True(t, lastSync.Equal(*restored.LastSync))
	assert.Equal(t, status.Synced, restored.Synced)
	assert.Equal(t, status.Errors, restored.Errors)
}

func TestSQLiteStore_OverwriteAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetJSON(ctx, KeyAutoSyncEnabled, true))
	require.NoError(t, store.SetJSON(ctx, KeyAutoSyncEnabled, false))

	var enabled bool
	found, err := store.GetJSON(ctx, KeyAutoSyncEnabled, &enabled)
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, enabled)

	require.NoError(t, store.Delete(ctx, KeyAutoSyncEnabled))
	found, err = store.GetJSON(ctx, KeyAutoSyncEnabled, &enabled)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leadstack.db")
	ctx := context.Background()

	first, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, first.SetJSON(ctx, KeyRecentSearches, []string{"Müller", "Schmidt"}))
	require.NoError(t, first.Close())

	second, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer second.Close()

	var searches []string
	found, err := second.GetJSON(ctx, KeyRecentSearches, &searches)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"Müller", "Schmidt"}, searches)
}
