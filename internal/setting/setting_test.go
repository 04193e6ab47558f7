package setting_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/mochi/internal/database/dbtest"
	"github.com/MrJamesThe3rd/mochi/internal/setting"
)

func TestRepository_SetGet(t *testing.T) {
	ctx := context.Background()
	repo := setting.NewRepository(dbtest.Open(t))

	tests := []struct {
		key      string
		value    any
		wantType setting.Type
	}{
		{key: "theme", value: "dark", wantType: setting.TypeString},
		{key: "pageSize", value: 25, wantType: setting.TypeNumber},
		{key: "compact", value: true, wantType: setting.TypeBoolean},
		{key: "window", value: map[string]int{"w": 80}, wantType: setting.TypeObject},
		{key: "pinned", value: []string{"a", "b"}, wantType: setting.TypeArray},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			stored, err := repo.Set(ctx, tt.key, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, stored.Type)
			assert.Equal(t, setting.ID(tt.key), stored.ID)
		})
	}

	var theme string

	found, err := repo.Get(ctx, "theme", &theme)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "dark", theme)

	var pinned []string

	found, err = repo.Get(ctx, "pinned", &pinned)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{"a", "b"}, pinned)

	found, err = repo.Get(ctx, "missing", &theme)
	require.NoError(t, err)
	assert.False(t, found)

	var wrong int

	_, err = repo.Get(ctx, "theme", &wrong)
	assert.Error(t, err)
}

func TestRepository_SetReplaces(t *testing.T) {
	ctx := context.Background()
	repo := setting.NewRepository(dbtest.Open(t))

	first, err := repo.Set(ctx, "theme", "dark")
	require.NoError(t, err)

	second, err := repo.Set(ctx, "theme", "light")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.JSONEq(t, `"light"`, string(all[0].Value))

	deleted, err := repo.Delete(ctx, "theme")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, "theme")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestID_Deterministic(t *testing.T) {
	assert.Equal(t, setting.ID("theme"), setting.ID("theme"))
	assert.NotEqual(t, setting.ID("theme"), setting.ID("Theme"))
}
