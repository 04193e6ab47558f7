// Package app wires the store, the repositories and the services together.
// Both the API server and the terminal UI start from New.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/MrJamesThe3rd/mochi/internal/account"
	"github.com/MrJamesThe3rd/mochi/internal/budget"
	"github.com/MrJamesThe3rd/mochi/internal/category"
	"github.com/MrJamesThe3rd/mochi/internal/config"
	"github.com/MrJamesThe3rd/mochi/internal/database"
	"github.com/MrJamesThe3rd/mochi/internal/datainit"
	"github.com/MrJamesThe3rd/mochi/internal/export"
	"github.com/MrJamesThe3rd/mochi/internal/importer"
	"github.com/MrJamesThe3rd/mochi/internal/kv"
	"github.com/MrJamesThe3rd/mochi/internal/migration"
	"github.com/MrJamesThe3rd/mochi/internal/record"
	"github.com/MrJamesThe3rd/mochi/internal/setting"
	"github.com/MrJamesThe3rd/mochi/internal/statistics"
)

type App struct {
	Logger *slog.Logger
	Store  *database.Store
	State  kv.Store

	Records    *record.Repository
	Categories *category.Repository
	Accounts   *account.Repository
	Budgets    *budget.Repository
	Settings   *setting.Repository

	Migrations *migration.Service
	Init       *datainit.Service
	Statistics *statistics.Service
	Importer   *importer.Service
	Exporter   *export.Service
	Backups    *export.Backups
}

// New opens the store, migrates its data and seeds defaults on first run.
// A failed migration is returned and the store is closed again.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	fs := afero.NewOsFs()

	store := database.New(cfg.DBPath())
	if err := store.Open(ctx); err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	state := kv.NewFileStore(fs, cfg.StatePath())

	a := &App{
		Logger:     logger,
		Store:      store,
		State:      state,
		Records:    record.NewRepository(store),
		Categories: category.NewRepository(store),
		Accounts:   account.NewRepository(store),
		Budgets:    budget.NewRepository(store),
		Settings:   setting.NewRepository(store),
	}

	a.Migrations = migration.NewService(store, state, logger.With("component", "migration"))
	a.Init = datainit.NewService(a.Categories, a.Accounts, state, logger.With("component", "datainit"))
	a.Statistics = statistics.NewService(a.Records, a.Categories, a.Accounts, logger.With("component", "statistics"))
	a.Importer = importer.NewService(store, a.Records, a.Categories, a.Accounts, logger.With("component", "importer"))
	a.Exporter = export.NewService(a.Records, a.Categories, a.Accounts)
	a.Backups = export.NewBackups(store, fs, cfg.BackupPath())

	if err := a.start(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	return a, nil
}

func (a *App) start(ctx context.Context) error {
	if a.Migrations.NeedsMigration() {
		a.Logger.Info("migrating data",
			"from", a.Migrations.CurrentVersion(),
			"to", a.Migrations.LatestVersion(),
		)
	}

	if err := a.Migrations.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating data: %w", err)
	}

	report := a.Migrations.ValidateIntegrity(ctx)
	for _, w := range report.Warnings {
		a.Logger.Warn("data integrity", "warning", w)
	}

	for _, e := range report.Errors {
		a.Logger.Error("data integrity", "error", e)
	}

	if err := a.Init.InitializeApp(ctx); err != nil {
		return fmt.Errorf("initialising data: %w", err)
	}

	if a.Init.CheckDataIntegrity(ctx).Status != datainit.Healthy {
		a.Init.RepairData(ctx)
	}

	return nil
}

func (a *App) Close() error {
	return a.Store.Close()
}
