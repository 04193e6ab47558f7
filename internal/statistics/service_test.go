package statistics_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/mochi/internal/account"
	"github.com/MrJamesThe3rd/mochi/internal/category"
	"github.com/MrJamesThe3rd/mochi/internal/docstore"
	"github.com/MrJamesThe3rd/mochi/internal/record"
	"github.com/MrJamesThe3rd/mochi/internal/statistics"
)

var errDB = errors.New("db error")

type mocks struct {
	records    *statistics.MockRecordReader
	categories *statistics.MockCategoryReader
	accounts   *statistics.MockAccountReader
}

// now is 2024-03-15 10:00 UTC for every test.
func newService(t *testing.T, setup func(m mocks)) *statistics.Service {
	t.Helper()

	ctrl := gomock.NewController(t)

	m := mocks{
		records:    statistics.NewMockRecordReader(ctrl),
		categories: statistics.NewMockCategoryReader(ctrl),
		accounts:   statistics.NewMockAccountReader(ctrl),
	}

	if setup != nil {
		setup(m)
	}

	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	return statistics.NewService(m.records, m.categories, m.accounts, slog.New(slog.DiscardHandler),
		statistics.WithClock(func() time.Time { return now }))
}

func rec(t record.Type, amount int64, date string) record.Record {
	return record.Record{Type: t, Amount: amount, Date: date}
}

func cat(id, name string, t record.Type, enabled bool) category.Category {
	return category.Category{Meta: docstore.Meta{ID: id}, Name: name, Type: t, IsEnabled: enabled}
}

func acct(id string, balance int64, enabled bool) account.Account {
	return account.Account{Meta: docstore.Meta{ID: id}, Name: id, Balance: balance, IsEnabled: enabled}
}

func TestService_Overview(t *testing.T) {
	march := &record.DateRange{Start: "2024-03-01", End: "2024-03-31"}

	tests := []struct {
		name      string
		setupMock func(m mocks)
		want      statistics.Overview
	}{
		{
			name: "Success",
			setupMock: func(m mocks) {
				m.records.EXPECT().Sum(gomock.Any(), record.Filter{Range: march}).
					Return(record.Stats{TotalIncome: 5000, TotalExpense: 1200, Balance: 3800, Count: 3}, nil)
				m.records.EXPECT().FindByDateRange(gomock.Any(), *march).
					Return([]record.Record{
						rec(record.TypeExpense, 700, "2024-03-02"),
						rec(record.TypeIncome, 5000, "2024-03-05"),
						rec(record.TypeExpense, 500, "2024-03-10"),
					}, nil)
				m.categories.EXPECT().FindAll(gomock.Any()).Return([]category.Category{
					cat("c1", "Food", record.TypeExpense, true),
					cat("c2", "Travel", record.TypeExpense, false),
					cat("c3", "Salary", record.TypeIncome, true),
				}, nil)
				m.accounts.EXPECT().FindAll(gomock.Any()).Return([]account.Account{
					acct("cash", 100, true),
					acct("old", 0, false),
				}, nil)
				m.accounts.EXPECT().TotalAssets(gomock.Any()).Return(int64(100), nil)
				m.accounts.EXPECT().TotalDebts(gomock.Any()).Return(int64(40), nil)
				// Ten days up to today, four records and 1500 spent.
				m.records.EXPECT().FindByDateRange(gomock.Any(), gomock.Not(*march)).
					Return([]record.Record{
						rec(record.TypeExpense, 300, "2024-03-06"),
						rec(record.TypeExpense, 700, "2024-03-08"),
						rec(record.TypeIncome, 5000, "2024-03-09"),
						rec(record.TypeExpense, 500, "2024-03-10"),
					}, nil)
			},
			want: statistics.Overview{
				TotalIncome:       5000,
				TotalExpense:      1200,
				Balance:           3800,
				ExpenseCategories: 1,
				IncomeCategories:  1,
				MaxExpense:        700,
				ActiveAccounts:    1,
				TotalAssets:       100,
				TotalDebts:        40,
				TotalRecords:      3,
				AvgDailyRecords:   0.4,
				AvgDailyExpense:   150,
			},
		},
		{
			name: "RepoError",
			setupMock: func(m mocks) {
				m.records.EXPECT().Sum(gomock.Any(), gomock.Any()).Return(record.Stats{}, errDB)
			},
			want: statistics.Overview{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(t, tt.setupMock)

			assert.Equal(t, tt.want, svc.Overview(context.Background(), march))
		})
	}
}

func TestService_Trend(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(m mocks)
		want      []statistics.TrendPoint
	}{
		{
			name: "Cumulative",
			setupMock: func(m mocks) {
				m.records.EXPECT().FindByDateRange(gomock.Any(), gomock.Any()).Return([]record.Record{
					rec(record.TypeIncome, 1000, "2024-03-01"),
					rec(record.TypeExpense, 200, "2024-03-01"),
					rec(record.TypeExpense, 300, "2024-03-03"),
				}, nil)
			},
			want: []statistics.TrendPoint{
				{Date: "2024-03-01", Income: 1000, Expense: 200, Balance: 800},
				{Date: "2024-03-03", Expense: 300, Balance: 500},
			},
		},
		{
			name: "Empty",
			setupMock: func(m mocks) {
				m.records.EXPECT().FindByDateRange(gomock.Any(), gomock.Any()).Return(nil, nil)
			},
			want: []statistics.TrendPoint{},
		},
		{
			name: "RepoError",
			setupMock: func(m mocks) {
				m.records.EXPECT().FindByDateRange(gomock.Any(), gomock.Any()).Return(nil, errDB)
			},
			want: []statistics.TrendPoint{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(t, tt.setupMock)

			assert.Equal(t, tt.want, svc.Trend(context.Background(), nil))
		})
	}
}

func TestService_CategoryBreakdown(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(m mocks)
		want      []statistics.CategoryShare
	}{
		{
			name: "Success",
			setupMock: func(m mocks) {
				m.records.EXPECT().CategoryStatsByType(gomock.Any(), nil, record.TypeExpense).Return([]record.GroupStat{
					{ID: "c1", TotalAmount: 600, Count: 2},
					{ID: "gone", TotalAmount: 200, Count: 1},
					{ID: "c2", TotalAmount: 200, Count: 4},
				}, nil)
				m.categories.EXPECT().FindAll(gomock.Any()).Return([]category.Category{
					cat("c1", "Food", record.TypeExpense, true),
					cat("c2", "Travel", record.TypeExpense, true),
				}, nil)
			},
			want: []statistics.CategoryShare{
				{CategoryID: "c1", CategoryName: "Food", Amount: 600, Count: 2, Percentage: 60},
				{CategoryID: "c2", CategoryName: "Travel", Amount: 200, Count: 4, Percentage: 20},
			},
		},
		{
			name: "CategoriesFail",
			setupMock: func(m mocks) {
				m.records.EXPECT().CategoryStatsByType(gomock.Any(), gomock.Any(), gomock.Any()).Return([]record.GroupStat{}, nil)
				m.categories.EXPECT().FindAll(gomock.Any()).Return(nil, errDB)
			},
			want: []statistics.CategoryShare{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(t, tt.setupMock)

			assert.Equal(t, tt.want, svc.CategoryBreakdown(context.Background(), nil, record.TypeExpense))
		})
	}
}

func TestService_AccountBreakdown(t *testing.T) {
	svc := newService(t, func(m mocks) {
		m.accounts.EXPECT().FindAll(gomock.Any()).Return([]account.Account{
			acct("cash", 250, true),
			acct("empty", 0, true),
			acct("card", -750, true),
		}, nil)
	})

	got := svc.AccountBreakdown(context.Background())

	assert.Equal(t, []statistics.AccountShare{
		{AccountID: "card", AccountName: "card", Balance: -750, Percentage: 75},
		{AccountID: "cash", AccountName: "cash", Balance: 250, Percentage: 25},
	}, got)
}

func TestService_MonthlyComparison(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var ranges []record.DateRange

		svc := newService(t, func(m mocks) {
			m.records.EXPECT().Sum(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, f record.Filter) (record.Stats, error) {
					ranges = append(ranges, *f.Range)
					return record.Stats{TotalIncome: 100, TotalExpense: 40, Balance: 60}, nil
				}).
				Times(3)
		})

		got := svc.MonthlyComparison(context.Background(), 3)

		assert.Equal(t, []record.DateRange{
			{Start: "2024-01-01", End: "2024-01-31"},
			{Start: "2024-02-01", End: "2024-02-29"},
			{Start: "2024-03-01", End: "2024-03-31"},
		}, ranges)
		assert.Equal(t, []statistics.MonthTotals{
			{Month: "2024-01", Income: 100, Expense: 40, Balance: 60},
			{Month: "2024-02", Income: 100, Expense: 40, Balance: 60},
			{Month: "2024-03", Income: 100, Expense: 40, Balance: 60},
		}, got)
	})

	t.Run("RepoError", func(t *testing.T) {
		svc := newService(t, func(m mocks) {
			m.records.EXPECT().Sum(gomock.Any(), gomock.Any()).Return(record.Stats{}, errDB)
		})

		assert.Equal(t, []statistics.MonthTotals{}, svc.MonthlyComparison(context.Background(), 0))
	})
}
