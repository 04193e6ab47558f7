package database_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/mochi/internal/apperr"
	"github.com/MrJamesThe3rd/mochi/internal/database"
	"github.com/MrJamesThe3rd/mochi/internal/database/dbtest"
)

func insert(t *testing.T, store *database.Store, table, id, doc string) {
	t.Helper()

	db, err := store.Conn()
	require.NoError(t, err)

	_, err = db.ExecContext(context.Background(), "INSERT INTO "+table+" (id, data) VALUES (?, ?)", id, doc)
	require.NoError(t, err)
}

func TestStore_OpenClose(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "mochi.db")

	store := database.New(path)
	require.NoError(t, store.Open(ctx))
	require.NoError(t, store.Open(ctx), "second open is a no-op")

	insert(t, store, database.Accounts, "a1", `{"id":"a1","name":"Cash","createdAt":"2024-01-01T00:00:00Z"}`)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close(), "second close is a no-op")

	_, err := store.Conn()
	assert.ErrorIs(t, err, apperr.ErrStorageUnavailable)

	require.NoError(t, store.Open(ctx))
	defer store.Close()

	counts, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[database.Accounts])
}

func TestStore_OpenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.db")

	garbage := make([]byte, 4096)
	for i := range garbage {
		garbage[i] = byte('x')
	}

	require.NoError(t, os.WriteFile(path, garbage, 0o600))

	err := database.New(path).Open(context.Background())
	assert.ErrorIs(t, err, apperr.ErrStorageUnavailable)
}

func TestStore_InTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := dbtest.Open(t)

	boom := errors.New("boom")

	err := store.InTx(ctx, func(tx *database.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO budgets (id, data) VALUES ('b1', '{\"id\":\"b1\"}')")
		require.NoError(t, err)

		return boom
	})
	assert.ErrorIs(t, err, boom)

	counts, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts[database.Budgets])
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := dbtest.Open(t)

	insert(t, store, database.Records, "r1", `{"id":"r1"}`)
	insert(t, store, database.Categories, "c1", `{"id":"c1"}`)
	insert(t, store, database.Settings, "s1", `{"id":"s1","key":"theme"}`)

	require.NoError(t, store.Clear(ctx))

	counts, err := store.Counts(ctx)
	require.NoError(t, err)

	for _, table := range database.Collections {
		assert.Zero(t, counts[table], table)
	}
}

func TestStore_BackupRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := dbtest.Open(t)

	insert(t, store, database.Records, "r1", `{"id":"r1","type":"expense","amount":500,"isDeleted":false,"createdAt":"2024-01-10T10:00:00Z"}`)
	insert(t, store, database.Records, "r2", `{"id":"r2","type":"income","amount":900,"isDeleted":true,"createdAt":"2024-01-11T10:00:00Z"}`)
	insert(t, store, database.Categories, "c1", `{"id":"c1","name":"Food","createdAt":"2024-01-01T00:00:00Z"}`)
	insert(t, store, database.Accounts, "a1", `{"id":"a1","name":"Cash","createdAt":"2024-01-01T00:00:00Z"}`)
	insert(t, store, database.Budgets, "b1", `{"id":"b1","name":"Food","createdAt":"2024-01-01T00:00:00Z"}`)
	insert(t, store, database.Settings, "s1", `{"id":"s1","key":"currency","createdAt":"2024-01-01T00:00:00Z"}`)

	before, err := store.Backup(ctx)
	require.NoError(t, err)
	assert.Equal(t, database.SchemaVersion, before.Version)
	assert.Len(t, before.Records, 2)

	// The snapshot survives a trip through its file format.
	encoded, err := json.Marshal(before)
	require.NoError(t, err)

	var decoded database.Snapshot
	require.NoError(t, json.Unmarshal(encoded, &decoded))

	insert(t, store, database.Records, "r3", `{"id":"r3","createdAt":"2024-02-01T00:00:00Z"}`)
	require.NoError(t, store.Restore(ctx, &decoded))

	after, err := store.Backup(ctx)
	require.NoError(t, err)

	assert.Equal(t, before.Records, after.Records)
	assert.Equal(t, before.Categories, after.Categories)
	assert.Equal(t, before.Accounts, after.Accounts)
	assert.Equal(t, before.Budgets, after.Budgets)
	assert.Equal(t, before.Settings, after.Settings)
}

func TestStore_RestoreIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := dbtest.Open(t)

	insert(t, store, database.Accounts, "a1", `{"id":"a1","name":"Cash","createdAt":"2024-01-01T00:00:00Z"}`)

	snap := &database.Snapshot{
		Version: database.SchemaVersion,
		Records: []json.RawMessage{
			json.RawMessage(`{"id":"r1","createdAt":"2024-01-01T00:00:00Z"}`),
			json.RawMessage(`{"amount":1}`),
		},
	}

	err := store.Restore(ctx, snap)
	require.Error(t, err)

	counts, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[database.Accounts])
	assert.Zero(t, counts[database.Records])
}

func TestStore_RestoreRejectsNewerSnapshot(t *testing.T) {
	store := dbtest.Open(t)

	err := store.Restore(context.Background(), &database.Snapshot{Version: database.SchemaVersion + 1})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	err = store.Restore(context.Background(), nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
