// Package dbtest opens throwaway stores for tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/mochi/internal/database"
)

// Open returns an open in-memory store that is closed when the test ends.
func Open(t *testing.T) *database.Store {
	t.Helper()

	store := database.New(database.MemoryPath)
	require.NoError(t, store.Open(context.Background()))

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}
