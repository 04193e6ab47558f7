package kv_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/mochi/internal/kv"
)

type status struct {
	Version int    `json:"version"`
	Note    string `json:"note"`
}

func TestFileStore_SetGetRemove(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := kv.NewFileStore(fs, "data/state.json")

	var got status
	assert.False(t, store.Get("status", &got))

	require.NoError(t, store.Set("status", status{Version: 2, Note: "ok"}))
	require.NoError(t, store.Set("other", []int{1, 2}))

	assert.True(t, store.Get("status", &got))
	assert.Equal(t, status{Version: 2, Note: "ok"}, got)

	// A second store over the same file sees the same entries.
	reopened := kv.NewFileStore(fs, "data/state.json")

	var again status
	assert.True(t, reopened.Get("status", &again))
	assert.Equal(t, got, again)

	require.NoError(t, store.Remove("status"))
	require.NoError(t, store.Remove("status"))
	assert.False(t, store.Get("status", &got))

	var other []int
	assert.True(t, store.Get("other", &other))
	assert.Equal(t, []int{1, 2}, other)

	exists, err := afero.Exists(fs, "data/state.json.tmp")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFileStore_CorruptFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "state.json", []byte("{not json"), 0o600))

	store := kv.NewFileStore(fs, "state.json")

	var got status
	assert.False(t, store.Get("status", &got))

	require.NoError(t, store.Set("status", status{Version: 1}))
	assert.True(t, store.Get("status", &got))
	assert.Equal(t, 1, got.Version)
}

func TestFileStore_CorruptEntry(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "state.json", []byte(`{"status":"not an object"}`), 0o600))

	store := kv.NewFileStore(fs, "state.json")

	var got status
	assert.False(t, store.Get("status", &got))
}

func TestMemoryStore(t *testing.T) {
	store := kv.NewMemoryStore()

	require.NoError(t, store.Set("flag", true))

	var flag bool
	assert.True(t, store.Get("flag", &flag))
	assert.True(t, flag)
}
