package app_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/mochi/internal/app"
	"github.com/MrJamesThe3rd/mochi/internal/apperr"
	"github.com/MrJamesThe3rd/mochi/internal/config"
	"github.com/MrJamesThe3rd/mochi/internal/database"
	"github.com/MrJamesThe3rd/mochi/internal/datainit"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{}
	cfg.App.DataDir = t.TempDir()
	cfg.DB.File = "mochi.db"
	cfg.DB.StateFile = "state.json"
	cfg.DB.BackupDir = "backups"

	return cfg
}

func TestNew_FirstRunAndRestart(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	logger := slog.New(slog.DiscardHandler)

	a, err := app.New(ctx, cfg, logger)
	require.NoError(t, err)

	assert.False(t, a.Migrations.NeedsMigration())
	assert.Equal(t, a.Migrations.LatestVersion(), a.Migrations.CurrentVersion())
	assert.True(t, a.Init.IsInitialized())

	counts, err := a.Store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 24, counts[database.Categories])
	assert.Equal(t, 5, counts[database.Accounts])

	require.NoError(t, a.Close())

	// A second start finds everything in place and seeds nothing new.
	a, err = app.New(ctx, cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	counts, err = a.Store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 24, counts[database.Categories])
	assert.Equal(t, datainit.Healthy, a.Init.CheckDataIntegrity(ctx).Status)
	assert.Len(t, a.Migrations.History(), a.Migrations.LatestVersion())
}

func TestNew_CorruptDatabase(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.DBPath(), []byte("this is not a database file, just some text padding it out"), 0o600))

	_, err := app.New(context.Background(), cfg, slog.New(slog.DiscardHandler))
	assert.ErrorIs(t, err, apperr.ErrStorageUnavailable)
}
