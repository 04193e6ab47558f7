package record_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/mochi/internal/apperr"
	"github.com/MrJamesThe3rd/mochi/internal/database"
	"github.com/MrJamesThe3rd/mochi/internal/database/dbtest"
	"github.com/MrJamesThe3rd/mochi/internal/docstore"
	"github.com/MrJamesThe3rd/mochi/internal/record"
)

func stepClock() docstore.Option {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	return docstore.WithClock(func() time.Time {
		now = now.Add(time.Second)
		return now
	})
}

func expense(amount int64, date string) record.Record {
	return record.Record{
		Type:       record.TypeExpense,
		Amount:     amount,
		CategoryID: "c1",
		AccountID:  "a1",
		Date:       date,
	}
}

func income(amount int64, date string) record.Record {
	r := expense(amount, date)
	r.Type = record.TypeIncome
	r.CategoryID = "salary"

	return r
}

func newRepo(t *testing.T) (*record.Repository, *database.Store) {
	t.Helper()

	store := dbtest.Open(t)

	return record.NewRepository(store, stepClock()), store
}

func TestRepository_Create(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	tests := []struct {
		name    string
		rec     record.Record
		wantErr error
	}{
		{name: "Valid", rec: expense(500, "2024-01-10")},
		{name: "WithTimeAndTags", rec: func() record.Record {
			r := expense(1, "2024-01-10")
			r.Time = "09:30"
			r.Tags = []string{"lunch"}
			return r
		}()},
		{name: "ZeroAmount", rec: expense(0, "2024-01-10"), wantErr: apperr.ErrValidation},
		{name: "BadDate", rec: expense(10, "10/01/2024"), wantErr: apperr.ErrValidation},
		{name: "BadTime", rec: func() record.Record {
			r := expense(1, "2024-01-10")
			r.Time = "25:99"
			return r
		}(), wantErr: apperr.ErrValidation},
		{name: "BadType", rec: func() record.Record {
			r := expense(1, "2024-01-10")
			r.Type = "transfer"
			return r
		}(), wantErr: apperr.ErrValidation},
		{name: "LongRemark", rec: func() record.Record {
			r := expense(1, "2024-01-10")
			r.Remark = string(make([]rune, 101))
			return r
		}(), wantErr: apperr.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Create(ctx, tt.rec)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, got.ID)
			assert.Equal(t, record.Active, got.State)
			assert.NotNil(t, got.Tags)
		})
	}
}

func TestRepository_StatsExcludesTrashed(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	rec, err := repo.Create(ctx, expense(500, "2024-01-10"))
	require.NoError(t, err)

	rng := &record.DateRange{Start: "2024-01-01", End: "2024-01-31"}

	stats, err := repo.Stats(ctx, rng)
	require.NoError(t, err)
	assert.Equal(t, int64(500), stats.TotalExpense)
	assert.GreaterOrEqual(t, stats.Count, 1)

	_, err = repo.SoftDelete(ctx, rec.ID)
	require.NoError(t, err)

	stats, err = repo.Stats(ctx, rng)
	require.NoError(t, err)
	assert.Equal(t, record.Stats{}, stats)
}

func TestRepository_Stats(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	_, err := repo.CreateMany(ctx, []record.Record{
		expense(300, "2024-01-05"),
		expense(200, "2024-02-05"),
		income(1000, "2024-01-20"),
	})
	require.NoError(t, err)

	all, err := repo.Stats(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, record.Stats{TotalIncome: 1000, TotalExpense: 500, Balance: 500, Count: 3}, all)

	jan, err := repo.Stats(ctx, &record.DateRange{Start: "2024-01-01", End: "2024-01-31"})
	require.NoError(t, err)
	assert.Equal(t, record.Stats{TotalIncome: 1000, TotalExpense: 300, Balance: 700, Count: 2}, jan)
}

func TestRepository_RowWithoutFlagIsNeitherLiveNorTrashed(t *testing.T) {
	ctx := context.Background()
	repo, store := newRepo(t)

	db, err := store.Conn()
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO records (id, data) VALUES ('legacy',
		'{"id":"legacy","type":"expense","amount":5,"categoryId":"c1","accountId":"a1","date":"2024-01-01","createdAt":"2024-01-01T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z"}')`)
	require.NoError(t, err)

	live, err := repo.FindByType(ctx, record.TypeExpense)
	require.NoError(t, err)
	assert.Empty(t, live)

	trash, err := repo.Trash(ctx)
	require.NoError(t, err)
	assert.Empty(t, trash)
}

func TestRepository_Finders(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	created, err := repo.CreateMany(ctx, []record.Record{
		expense(100, "2024-01-03"),
		income(900, "2024-01-01"),
		expense(50, "2024-01-02"),
	})
	require.NoError(t, err)

	byType, err := repo.FindByType(ctx, record.TypeExpense)
	require.NoError(t, err)
	assert.Len(t, byType, 2)

	byCategory, err := repo.FindByCategory(ctx, "salary")
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, created[1].ID, byCategory[0].ID)

	byAccount, err := repo.FindByAccount(ctx, "a1")
	require.NoError(t, err)
	assert.Len(t, byAccount, 3)

	ranged, err := repo.FindByDateRange(ctx, record.DateRange{Start: "2024-01-01", End: "2024-01-02"})
	require.NoError(t, err)
	require.Len(t, ranged, 2)
	assert.Equal(t, "2024-01-01", ranged[0].Date)
	assert.Equal(t, "2024-01-02", ranged[1].Date)

	recent, err := repo.FindRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, created[2].ID, recent[0].ID)
	assert.Equal(t, created[1].ID, recent[1].ID)
}

func TestRepository_FindByQuery(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	withRemark := expense(10, "2024-03-01")
	withRemark.Remark = "Coffee with Ana"

	withTag := expense(20, "2024-03-02")
	withTag.Tags = []string{"work", "coffee-beans"}

	plain := expense(30, "2024-03-02")
	other := income(40, "2024-03-03")

	created, err := repo.CreateMany(ctx, []record.Record{withRemark, withTag, plain, other})
	require.NoError(t, err)

	t.Run("OrderedByDateThenCreation", func(t *testing.T) {
		page, err := repo.FindByQuery(ctx, record.Query{})
		require.NoError(t, err)
		require.Equal(t, 4, page.Total)

		ids := make([]string, len(page.Items))
		for i, r := range page.Items {
			ids[i] = r.ID
		}

		assert.Equal(t, []string{created[3].ID, created[2].ID, created[1].ID, created[0].ID}, ids)
	})

	t.Run("KeywordMatchesRemarkOrTag", func(t *testing.T) {
		page, err := repo.FindByQuery(ctx, record.Query{Keyword: "offee"})
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
	})

	t.Run("KeywordIsCaseSensitive", func(t *testing.T) {
		page, err := repo.FindByQuery(ctx, record.Query{Keyword: "COFFEE"})
		require.NoError(t, err)
		assert.Zero(t, page.Total)
	})

	t.Run("Filters", func(t *testing.T) {
		page, err := repo.FindByQuery(ctx, record.Query{
			Type:      record.TypeExpense,
			StartDate: "2024-03-02",
			EndDate:   "2024-03-02",
		})
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
	})

	t.Run("Paging", func(t *testing.T) {
		page, err := repo.FindByQuery(ctx, record.Query{Page: 2, PageSize: 3})
		require.NoError(t, err)
		assert.Equal(t, 4, page.Total)
		require.Len(t, page.Items, 1)
		assert.Equal(t, created[0].ID, page.Items[0].ID)

		past, err := repo.FindByQuery(ctx, record.Query{Page: 5, PageSize: 3})
		require.NoError(t, err)
		assert.Empty(t, past.Items)
		assert.Equal(t, 4, past.Total)
	})

	t.Run("PageFarPastEnd", func(t *testing.T) {
		past, err := repo.FindByQuery(ctx, record.Query{Page: math.MaxInt, PageSize: 2})
		require.NoError(t, err)
		assert.Empty(t, past.Items)
		assert.Equal(t, 4, past.Total)
	})
}

func TestRepository_RecordsByDate(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	_, err := repo.CreateMany(ctx, []record.Record{
		expense(100, "2024-01-01"),
		income(300, "2024-01-01"),
		expense(40, "2024-01-03"),
		expense(99, "2024-02-01"),
	})
	require.NoError(t, err)

	groups, err := repo.RecordsByDate(ctx, record.DateRange{Start: "2024-01-01", End: "2024-01-31"})
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "2024-01-03", groups[0].Date)
	assert.Equal(t, int64(-40), groups[0].Balance)

	assert.Equal(t, "2024-01-01", groups[1].Date)
	assert.Len(t, groups[1].Records, 2)
	assert.Equal(t, int64(300), groups[1].TotalIncome)
	assert.Equal(t, int64(100), groups[1].TotalExpense)
	assert.Equal(t, int64(200), groups[1].Balance)
}

func TestRepository_GroupStats(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	food := expense(100, "2024-01-01")
	food2 := expense(150, "2024-01-02")

	rent := expense(700, "2024-01-03")
	rent.CategoryID = "rent"
	rent.AccountID = "bank"

	_, err := repo.CreateMany(ctx, []record.Record{food, food2, rent})
	require.NoError(t, err)

	byCategory, err := repo.CategoryStats(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []record.GroupStat{
		{ID: "rent", TotalAmount: 700, Count: 1},
		{ID: "c1", TotalAmount: 250, Count: 2},
	}, byCategory)

	byAccount, err := repo.AccountStats(ctx, &record.DateRange{Start: "2024-01-02", End: "2024-01-31"})
	require.NoError(t, err)
	assert.Equal(t, []record.GroupStat{
		{ID: "bank", TotalAmount: 700, Count: 1},
		{ID: "a1", TotalAmount: 150, Count: 1},
	}, byAccount)
}

func TestRepository_Trash(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	created, err := repo.CreateMany(ctx, []record.Record{
		expense(1, "2024-01-01"),
		expense(2, "2024-01-02"),
		expense(3, "2024-01-03"),
	})
	require.NoError(t, err)

	err = repo.HardDelete(ctx, created[0].ID)
	require.ErrorIs(t, err, apperr.ErrIntegrity)

	first, err := repo.SoftDelete(ctx, created[0].ID)
	require.NoError(t, err)
	assert.True(t, first.IsTrashed())

	again, err := repo.SoftDelete(ctx, created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, first.UpdatedAt, again.UpdatedAt, "trashing twice changes nothing")

	_, err = repo.SoftDelete(ctx, created[1].ID)
	require.NoError(t, err)

	trash, err := repo.Trash(ctx)
	require.NoError(t, err)
	assert.Len(t, trash, 2)

	restored, err := repo.Restore(ctx, created[1].ID)
	require.NoError(t, err)
	assert.False(t, restored.IsTrashed())

	_, err = repo.Restore(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, repo.HardDelete(ctx, created[0].ID))
	assert.ErrorIs(t, repo.HardDelete(ctx, created[0].ID), apperr.ErrNotFound)

	_, err = repo.SoftDelete(ctx, created[2].ID)
	require.NoError(t, err)

	n, err := repo.EmptyTrash(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	orig, err := repo.Create(ctx, expense(100, "2024-01-01"))
	require.NoError(t, err)

	got, found, err := repo.Update(ctx, orig.ID, record.Patch{
		Amount: new(int64(250)),
		Tags:   &[]string{"fixed"},
	})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(250), got.Amount)
	assert.Equal(t, []string{"fixed"}, got.Tags)
	assert.Equal(t, record.TypeExpense, got.Type)
	assert.Equal(t, orig.CreatedAt, got.CreatedAt)
	assert.True(t, got.UpdatedAt.After(orig.UpdatedAt))

	_, _, err = repo.Update(ctx, orig.ID, record.Patch{Amount: new(int64(-1))})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	stored, _, err := repo.Get(ctx, orig.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(250), stored.Amount)

	_, found, err = repo.Update(ctx, "missing", record.Patch{})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRepository_CountReferences(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	rec, err := repo.Create(ctx, expense(1, "2024-01-01"))
	require.NoError(t, err)

	_, err = repo.SoftDelete(ctx, rec.ID)
	require.NoError(t, err)

	n, err := repo.CountByCategory(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = repo.CountByAccount(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
