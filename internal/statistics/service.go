// Package statistics builds dashboard figures from the repositories. Every
// query logs its failure and returns an empty result instead of an error.
package statistics

import (
	"cmp"
	"context"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/MrJamesThe3rd/mochi/internal/account"
	"github.com/MrJamesThe3rd/mochi/internal/category"
	"github.com/MrJamesThe3rd/mochi/internal/record"
)

const dateLayout = "2006-01-02"

// allTime spans every date a record can carry.
var allTime = record.DateRange{Start: "0000-01-01", End: "9999-12-31"}

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=statistics
type RecordReader interface {
	Sum(ctx context.Context, f record.Filter) (record.Stats, error)
	FindByDateRange(ctx context.Context, rng record.DateRange) ([]record.Record, error)
	CategoryStatsByType(ctx context.Context, rng *record.DateRange, t record.Type) ([]record.GroupStat, error)
}

type CategoryReader interface {
	FindAll(ctx context.Context) ([]category.Category, error)
}

type AccountReader interface {
	FindAll(ctx context.Context) ([]account.Account, error)
	TotalAssets(ctx context.Context) (int64, error)
	TotalDebts(ctx context.Context) (int64, error)
}

type Option func(*Service)

// WithClock replaces the clock used for "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

type Service struct {
	records    RecordReader
	categories CategoryReader
	accounts   AccountReader
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(records RecordReader, categories CategoryReader, accounts AccountReader, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		records:    records,
		categories: categories,
		accounts:   accounts,
		logger:     logger,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type Overview struct {
	TotalIncome       int64   `json:"totalIncome"`
	TotalExpense      int64   `json:"totalExpense"`
	Balance           int64   `json:"balance"`
	ExpenseCategories int     `json:"expenseCategories"`
	IncomeCategories  int     `json:"incomeCategories"`
	MaxExpense        int64   `json:"maxExpense"`
	ActiveAccounts    int     `json:"activeAccounts"`
	TotalAssets       int64   `json:"totalAssets"`
	TotalDebts        int64   `json:"totalDebts"`
	TotalRecords      int     `json:"totalRecords"`
	AvgDailyRecords   float64 `json:"avgDailyRecords"`
	AvgDailyExpense   int64   `json:"avgDailyExpense"`
}

// Overview summarises live records in rng, or all of them when rng is nil.
// The daily averages always span from the first record to today.
func (s *Service) Overview(ctx context.Context, rng *record.DateRange) Overview {
	o, err := s.overview(ctx, rng)
	if err != nil {
		s.logger.Error("building statistics overview", "error", err)
		return Overview{}
	}

	return o
}

func (s *Service) overview(ctx context.Context, rng *record.DateRange) (Overview, error) {
	sum, err := s.records.Sum(ctx, record.Filter{Range: rng})
	if err != nil {
		return Overview{}, err
	}

	inRange, err := s.records.FindByDateRange(ctx, orAllTime(rng))
	if err != nil {
		return Overview{}, err
	}

	cats, err := s.categories.FindAll(ctx)
	if err != nil {
		return Overview{}, err
	}

	accounts, err := s.accounts.FindAll(ctx)
	if err != nil {
		return Overview{}, err
	}

	assets, err := s.accounts.TotalAssets(ctx)
	if err != nil {
		return Overview{}, err
	}

	debts, err := s.accounts.TotalDebts(ctx)
	if err != nil {
		return Overview{}, err
	}

	o := Overview{
		TotalIncome:  sum.TotalIncome,
		TotalExpense: sum.TotalExpense,
		Balance:      sum.Balance,
		TotalRecords: sum.Count,
		TotalAssets:  assets,
		TotalDebts:   debts,
	}

	for _, c := range cats {
		if !c.IsEnabled {
			continue
		}

		switch c.Type {
		case record.TypeExpense:
			o.ExpenseCategories++
		case record.TypeIncome:
			o.IncomeCategories++
		}
	}

	for _, a := range accounts {
		if a.IsEnabled {
			o.ActiveAccounts++
		}
	}

	for _, r := range inRange {
		if r.Type == record.TypeExpense {
			o.MaxExpense = max(o.MaxExpense, r.Amount)
		}
	}

	if err := s.dailyAverages(ctx, &o); err != nil {
		return Overview{}, err
	}

	return o, nil
}

func (s *Service) dailyAverages(ctx context.Context, o *Overview) error {
	all, err := s.records.FindByDateRange(ctx, allTime)
	if err != nil {
		return err
	}

	if len(all) == 0 {
		return nil
	}

	// all is sorted by date, oldest first.
	earliest, err := time.ParseInLocation(dateLayout, all[0].Date, s.now().Location())
	if err != nil {
		return err
	}

	days := max(1, int(math.Ceil(s.now().Sub(earliest).Hours()/24)))

	var expense int64

	for _, r := range all {
		if r.Type == record.TypeExpense {
			expense += r.Amount
		}
	}

	o.AvgDailyRecords = math.Round(float64(len(all))/float64(days)*10) / 10
	o.AvgDailyExpense = int64(math.Round(float64(expense) / float64(days)))

	return nil
}

type TrendPoint struct {
	Date    string `json:"date"`
	Income  int64  `json:"income"`
	Expense int64  `json:"expense"`
	// Balance is cumulative up to and including Date.
	Balance int64 `json:"balance"`
}

// Trend lists per-day totals in rng, oldest day first.
func (s *Service) Trend(ctx context.Context, rng *record.DateRange) []TrendPoint {
	recs, err := s.records.FindByDateRange(ctx, orAllTime(rng))
	if err != nil {
		s.logger.Error("building statistics trend", "error", err)
		return []TrendPoint{}
	}

	points := []TrendPoint{}

	var running int64

	for _, r := range recs {
		if len(points) == 0 || points[len(points)-1].Date != r.Date {
			points = append(points, TrendPoint{Date: r.Date, Balance: running})
		}

		p := &points[len(points)-1]

		switch r.Type {
		case record.TypeIncome:
			p.Income += r.Amount
		case record.TypeExpense:
			p.Expense += r.Amount
		}

		running += r.Signed()
		p.Balance = running
	}

	return points
}

type CategoryShare struct {
	CategoryID    string  `json:"categoryId"`
	CategoryName  string  `json:"categoryName"`
	CategoryIcon  string  `json:"categoryIcon"`
	CategoryColor string  `json:"categoryColor"`
	Amount        int64   `json:"amount"`
	Count         int     `json:"count"`
	Percentage    float64 `json:"percentage"`
}

// CategoryBreakdown splits records of type t in rng by category, largest first.
// Records whose category no longer exists count towards the total but get no row.
func (s *Service) CategoryBreakdown(ctx context.Context, rng *record.DateRange, t record.Type) []CategoryShare {
	shares, err := s.categoryBreakdown(ctx, rng, t)
	if err != nil {
		s.logger.Error("building category breakdown", "type", t, "error", err)
		return []CategoryShare{}
	}

	return shares
}

func (s *Service) categoryBreakdown(ctx context.Context, rng *record.DateRange, t record.Type) ([]CategoryShare, error) {
	groups, err := s.records.CategoryStatsByType(ctx, rng, t)
	if err != nil {
		return nil, err
	}

	cats, err := s.categories.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]category.Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}

	var total int64
	for _, g := range groups {
		total += g.TotalAmount
	}

	shares := []CategoryShare{}

	for _, g := range groups {
		c, ok := byID[g.ID]
		if !ok || g.TotalAmount <= 0 {
			continue
		}

		shares = append(shares, CategoryShare{
			CategoryID:    c.ID,
			CategoryName:  c.Name,
			CategoryIcon:  c.Icon,
			CategoryColor: c.Color,
			Amount:        g.TotalAmount,
			Count:         g.Count,
			Percentage:    percent(g.TotalAmount, total),
		})
	}

	slices.SortStableFunc(shares, func(a, b CategoryShare) int { return cmp.Compare(b.Amount, a.Amount) })

	return shares, nil
}

type AccountShare struct {
	AccountID    string  `json:"accountId"`
	AccountName  string  `json:"accountName"`
	AccountIcon  string  `json:"accountIcon"`
	AccountColor string  `json:"accountColor"`
	Balance      int64   `json:"balance"`
	Percentage   float64 `json:"percentage"`
}

// AccountBreakdown lists accounts with a non-zero balance by size, each as a
// share of the summed absolute balances.
func (s *Service) AccountBreakdown(ctx context.Context) []AccountShare {
	accounts, err := s.accounts.FindAll(ctx)
	if err != nil {
		s.logger.Error("building account breakdown", "error", err)
		return []AccountShare{}
	}

	var total int64
	for _, a := range accounts {
		total += abs(a.Balance)
	}

	shares := []AccountShare{}

	for _, a := range accounts {
		if a.Balance == 0 {
			continue
		}

		shares = append(shares, AccountShare{
			AccountID:    a.ID,
			AccountName:  a.Name,
			AccountIcon:  a.Icon,
			AccountColor: a.Color,
			Balance:      a.Balance,
			Percentage:   percent(abs(a.Balance), total),
		})
	}

	slices.SortStableFunc(shares, func(a, b AccountShare) int { return cmp.Compare(abs(b.Balance), abs(a.Balance)) })

	return shares
}

type MonthTotals struct {
	Month   string `json:"month"`
	Income  int64  `json:"income"`
	Expense int64  `json:"expense"`
	Balance int64  `json:"balance"`
}

const DefaultMonths = 6

// MonthlyComparison totals the last months calendar months, this one
// included, oldest first.
func (s *Service) MonthlyComparison(ctx context.Context, months int) []MonthTotals {
	if months <= 0 {
		months = DefaultMonths
	}

	now := s.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	totals := make([]MonthTotals, 0, months)

	for i := months - 1; i >= 0; i-- {
		start := first.AddDate(0, -i, 0)
		end := start.AddDate(0, 1, -1)

		sum, err := s.records.Sum(ctx, record.Filter{Range: &record.DateRange{
			Start: start.Format(dateLayout),
			End:   end.Format(dateLayout),
		}})
		if err != nil {
			s.logger.Error("building monthly comparison", "month", start.Format("2006-01"), "error", err)
			return []MonthTotals{}
		}

		totals = append(totals, MonthTotals{
			Month:   start.Format("2006-01"),
			Income:  sum.TotalIncome,
			Expense: sum.TotalExpense,
			Balance: sum.Balance,
		})
	}

	return totals
}

func orAllTime(rng *record.DateRange) record.DateRange {
	if rng == nil {
		return allTime
	}

	return *rng
}

func percent(part, total int64) float64 {
	if total == 0 {
		return 0
	}

	return float64(part) / float64(total) * 100
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}

	return n
}
