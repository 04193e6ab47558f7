package budget_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/mochi/internal/apperr"
	"github.com/MrJamesThe3rd/mochi/internal/budget"
	"github.com/MrJamesThe3rd/mochi/internal/database/dbtest"
	"github.com/MrJamesThe3rd/mochi/internal/docstore"
	"github.com/MrJamesThe3rd/mochi/internal/record"
)

// midJanuary ticks forward one second per call from 2024-01-15 12:00 UTC.
func midJanuary() docstore.Option {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	return docstore.WithClock(func() time.Time {
		now = now.Add(time.Second)
		return now
	})
}

func setup(t *testing.T) (*budget.Repository, *record.Repository) {
	t.Helper()

	store := dbtest.Open(t)

	return budget.NewRepository(store, midJanuary()), record.NewRepository(store)
}

func monthly(name string, t budget.Type, target string, amount int64) budget.Budget {
	return budget.Budget{
		Name:           name,
		Type:           t,
		TargetID:       target,
		Amount:         amount,
		Period:         budget.PeriodMonthly,
		StartDate:      "2024-01-01",
		EndDate:        "2024-01-31",
		IsEnabled:      true,
		AlertThreshold: budget.DefaultAlertThreshold,
	}
}

func expense(amount int64, category, account, date string) record.Record {
	return record.Record{
		Type:       record.TypeExpense,
		Amount:     amount,
		CategoryID: category,
		AccountID:  account,
		Date:       date,
	}
}

func TestRepository_SyncSpent(t *testing.T) {
	ctx := context.Background()
	repo, records := setup(t)

	_, err := records.CreateMany(ctx, []record.Record{
		expense(100, "food", "cash", "2024-01-05"),
		expense(200, "food", "card", "2024-01-20"),
		expense(400, "rent", "card", "2024-01-01"),
		expense(800, "food", "cash", "2024-02-01"),
		{Type: record.TypeIncome, Amount: 5000, CategoryID: "salary", AccountID: "cash", Date: "2024-01-10"},
	})
	require.NoError(t, err)

	trashed, err := records.Create(ctx, expense(1000, "food", "cash", "2024-01-06"))
	require.NoError(t, err)

	_, err = records.SoftDelete(ctx, trashed.ID)
	require.NoError(t, err)

	tests := []struct {
		name   string
		budget budget.Budget
		want   int64
	}{
		{name: "Total", budget: monthly("All", budget.TypeTotal, "", 1000), want: 700},
		{name: "Category", budget: monthly("Food", budget.TypeCategory, "food", 1000), want: 300},
		{name: "Account", budget: monthly("Card", budget.TypeAccount, "card", 1000), want: 600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := repo.Create(ctx, tt.budget)
			require.NoError(t, err)

			synced, err := repo.SyncSpent(ctx, b.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, synced.Spent)
		})
	}

	_, err = repo.SyncSpent(ctx, "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRepository_ActiveAndStats(t *testing.T) {
	ctx := context.Background()
	repo, records := setup(t)

	current := monthly("January", budget.TypeTotal, "", 1000)

	past := monthly("December", budget.TypeTotal, "", 500)
	past.StartDate, past.EndDate = "2023-12-01", "2023-12-31"

	disabled := monthly("Off", budget.TypeTotal, "", 500)
	disabled.IsEnabled = false

	endsToday := monthly("Fortnight", budget.TypeCategory, "food", 200)
	endsToday.StartDate, endsToday.EndDate = "2024-01-01", "2024-01-15"

	created, err := repo.CreateMany(ctx, []budget.Budget{current, past, disabled, endsToday})
	require.NoError(t, err)

	active, err := repo.FindActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "January", active[0].Name)
	assert.Equal(t, "Fortnight", active[1].Name)

	_, err = records.Create(ctx, expense(300, "food", "cash", "2024-01-10"))
	require.NoError(t, err)

	require.NoError(t, repo.SyncAllSpent(ctx))

	december, _, err := repo.Get(ctx, created[1].ID)
	require.NoError(t, err)
	assert.Zero(t, december.Spent, "inactive budgets are not synced")

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, budget.Stats{
		TotalBudgets:           4,
		ActiveBudgets:          2,
		OverSpentBudgets:       1,
		TotalBudgetAmount:      1200,
		TotalSpentAmount:       600,
		OverallUsagePercentage: 50,
	}, stats)

	alerts, err := repo.NeedingAlert(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Fortnight", alerts[0].Name)

	statuses, err := repo.AllStatus(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, 30, statuses[0].UsagePercentage)
	assert.Equal(t, 16, statuses[0].DaysLeft)
	assert.True(t, statuses[1].IsOverSpent)
	assert.Zero(t, statuses[1].DaysLeft)

	status, err := repo.Status(ctx, created[2].ID)
	require.NoError(t, err)
	assert.Equal(t, "Off", status.BudgetName)

	_, err = repo.Status(ctx, "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRepository_SpentAdjustments(t *testing.T) {
	ctx := context.Background()
	repo, _ := setup(t)

	b, err := repo.Create(ctx, monthly("Food", budget.TypeTotal, "", 1000))
	require.NoError(t, err)

	_, err = repo.IncreaseSpent(ctx, b.ID, 300)
	require.NoError(t, err)

	got, err := repo.DecreaseSpent(ctx, b.ID, 500)
	require.NoError(t, err)
	assert.Zero(t, got.Spent, "spent never drops below zero")

	got, err = repo.SetSpent(ctx, b.ID, -10)
	require.NoError(t, err)
	assert.Zero(t, got.Spent)

	_, err = repo.SetSpent(ctx, b.ID, 250)
	require.NoError(t, err)

	got, err = repo.Reset(ctx, b.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Spent)

	_, err = repo.IncreaseSpent(ctx, "ghost", 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRepository_Finders(t *testing.T) {
	ctx := context.Background()
	repo, _ := setup(t)

	weekly := monthly("Week", budget.TypeAccount, "cash", 100)
	weekly.Period = budget.PeriodWeekly
	weekly.StartDate, weekly.EndDate = "2024-02-05", "2024-02-11"

	created, err := repo.CreateMany(ctx, []budget.Budget{
		monthly("Food", budget.TypeCategory, "food", 1000),
		monthly("Total", budget.TypeTotal, "", 5000),
		weekly,
	})
	require.NoError(t, err)

	byType, err := repo.FindByType(ctx, budget.TypeCategory)
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, created[0].ID, byType[0].ID)

	byPeriod, err := repo.FindByPeriod(ctx, budget.PeriodMonthly)
	require.NoError(t, err)
	assert.Len(t, byPeriod, 2)

	byTarget, err := repo.FindByTarget(ctx, "cash")
	require.NoError(t, err)
	assert.Len(t, byTarget, 1)

	overlapping, err := repo.FindByDateRange(ctx, record.DateRange{Start: "2024-01-31", End: "2024-02-05"})
	require.NoError(t, err)
	assert.Len(t, overlapping, 3)

	february, err := repo.FindByDateRange(ctx, record.DateRange{Start: "2024-02-01", End: "2024-02-04"})
	require.NoError(t, err)
	assert.Empty(t, february)

	_, err = repo.ToggleEnabled(ctx, created[1].ID)
	require.NoError(t, err)

	disabled, err := repo.FindByQuery(ctx, budget.Query{IsEnabled: new(false)})
	require.NoError(t, err)
	require.Len(t, disabled, 1)
	assert.Equal(t, "Total", disabled[0].Name)

	windowed, err := repo.FindByQuery(ctx, budget.Query{StartDate: "2024-02-01", EndDate: "2024-02-28"})
	require.NoError(t, err)
	require.Len(t, windowed, 1)
	assert.Equal(t, "Week", windowed[0].Name)
}

func TestRepository_CreateUpdateDelete(t *testing.T) {
	ctx := context.Background()
	repo, _ := setup(t)

	b, err := repo.Create(ctx, monthly("Food", budget.TypeCategory, "food", 1000))
	require.NoError(t, err)

	_, err = repo.Create(ctx, monthly("Food", budget.TypeTotal, "", 1000))
	assert.ErrorIs(t, err, apperr.ErrValidation, "duplicate name")

	_, err = repo.CreateMany(ctx, []budget.Budget{
		monthly("Fun", budget.TypeTotal, "", 100),
		monthly("Broken", budget.TypeCategory, "", 100),
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "a failed batch stores nothing")

	updated, found, err := repo.Update(ctx, b.ID, budget.Patch{Amount: new(int64(2000)), AlertThreshold: new(90)})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(2000), updated.Amount)
	assert.Equal(t, 90, updated.AlertThreshold)
	assert.Equal(t, b.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(b.UpdatedAt))

	_, _, err = repo.Update(ctx, b.ID, budget.Patch{EndDate: new("2023-12-31")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	require.NoError(t, repo.Delete(ctx, b.ID))
	assert.ErrorIs(t, repo.Delete(ctx, b.ID), apperr.ErrNotFound)
}
