package budget

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrJamesThe3rd/mochi/internal/apperr"
	"github.com/MrJamesThe3rd/mochi/internal/database"
	"github.com/MrJamesThe3rd/mochi/internal/docstore"
	"github.com/MrJamesThe3rd/mochi/internal/record"
)

const (
	enabledClause = "is_enabled = 1"
	createdOrder  = "created_at ASC, id ASC"
)

// Repository stores budgets. "Today" comes from the collection clock, so
// WithClock pins it in tests.
type Repository struct {
	docs    *docstore.Collection[Budget, *Budget]
	records *record.Repository
}

func NewRepository(src database.Source, opts ...docstore.Option) *Repository {
	return &Repository{
		docs:    docstore.New[Budget](src, database.Budgets, opts...),
		records: record.NewRepository(src, opts...),
	}
}

func (r *Repository) In(tx *database.Tx) *Repository {
	return &Repository{docs: r.docs.In(tx), records: r.records.In(tx)}
}

func (r *Repository) inTx(ctx context.Context, fn func(repo *Repository) error) error {
	return r.docs.Source().InTx(ctx, func(tx *database.Tx) error {
		return fn(r.In(tx))
	})
}

func (r *Repository) today() string {
	return r.docs.Now().Format(DateLayout)
}

var errNameTaken = apperr.Reason{Field: "name", Rule: "unique", Message: "a budget with this name already exists"}

func (r *Repository) Create(ctx context.Context, b Budget) (Budget, error) {
	var created Budget

	err := r.inTx(ctx, func(repo *Repository) error {
		var err error

		created, err = repo.create(ctx, b)

		return err
	})
	if err != nil {
		return Budget{}, fmt.Errorf("creating budget: %w", err)
	}

	return created, nil
}

func (r *Repository) create(ctx context.Context, b Budget) (Budget, error) {
	exists, err := r.NameExists(ctx, b.Name, "")
	if err != nil {
		return Budget{}, err
	}

	if exists {
		return Budget{}, apperr.Invalid("budget", errNameTaken)
	}

	return r.docs.Create(ctx, b)
}

// CreateMany stores every budget or none of them.
func (r *Repository) CreateMany(ctx context.Context, bs []Budget) ([]Budget, error) {
	created := make([]Budget, 0, len(bs))

	err := r.inTx(ctx, func(repo *Repository) error {
		for _, b := range bs {
			stored, err := repo.create(ctx, b)
			if err != nil {
				return err
			}

			created = append(created, stored)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating budgets: %w", err)
	}

	return created, nil
}

func (r *Repository) Get(ctx context.Context, id string) (Budget, bool, error) {
	return r.docs.FindByID(ctx, id)
}

func (r *Repository) FindAll(ctx context.Context) ([]Budget, error) {
	return r.docs.Find(ctx, docstore.Query{OrderBy: createdOrder})
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	return r.docs.Count(ctx)
}

func (r *Repository) Update(ctx context.Context, id string, p Patch) (Budget, bool, error) {
	var (
		updated Budget
		found   bool
	)

	err := r.inTx(ctx, func(repo *Repository) error {
		var err error

		updated, found, err = repo.docs.Update(ctx, id, func(b Budget) (Budget, error) {
			next, err := b.Apply(p)
			if err != nil {
				return b, err
			}

			if next.Name != b.Name {
				exists, err := repo.NameExists(ctx, next.Name, b.ID)
				if err != nil {
					return b, err
				}

				if exists {
					return b, apperr.Invalid("budget", errNameTaken)
				}
			}

			return next, nil
		})

		return err
	})
	if err != nil {
		return Budget{}, found, fmt.Errorf("updating budget: %w", err)
	}

	return updated, found, nil
}

func (r *Repository) findEnabled(ctx context.Context, where string, args ...any) ([]Budget, error) {
	return r.docs.Find(ctx, docstore.Query{
		Where:   where + " AND " + enabledClause,
		Args:    args,
		OrderBy: createdOrder,
	})
}

func (r *Repository) FindByType(ctx context.Context, t Type) ([]Budget, error) {
	return r.findEnabled(ctx, "type = ?", string(t))
}

func (r *Repository) FindByPeriod(ctx context.Context, p Period) ([]Budget, error) {
	return r.findEnabled(ctx, "period = ?", string(p))
}

func (r *Repository) FindByTarget(ctx context.Context, targetID string) ([]Budget, error) {
	return r.findEnabled(ctx, "target_id = ?", targetID)
}

// FindByDateRange returns enabled budgets whose window overlaps rng.
func (r *Repository) FindByDateRange(ctx context.Context, rng record.DateRange) ([]Budget, error) {
	return r.findEnabled(ctx, "start_date <= ? AND end_date >= ?", rng.End, rng.Start)
}

// FindActive returns enabled budgets whose window contains today.
func (r *Repository) FindActive(ctx context.Context) ([]Budget, error) {
	today := r.today()

	return r.findEnabled(ctx, "start_date <= ? AND end_date >= ?", today, today)
}

type Query struct {
	Type      Type   `json:"type,omitempty"`
	Period    Period `json:"period,omitempty"`
	TargetID  string `json:"targetId,omitempty"`
	IsEnabled *bool  `json:"isEnabled,omitempty"`
	// StartDate and EndDate filter by overlap only when both are set.
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

func (r *Repository) FindByQuery(ctx context.Context, q Query) ([]Budget, error) {
	clauses := []string{"1 = 1"}

	var args []any

	if q.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, string(q.Type))
	}

	if q.Period != "" {
		clauses = append(clauses, "period = ?")
		args = append(args, string(q.Period))
	}

	if q.TargetID != "" {
		clauses = append(clauses, "target_id = ?")
		args = append(args, q.TargetID)
	}

	if q.IsEnabled != nil {
		clauses = append(clauses, "is_enabled = ?")
		args = append(args, *q.IsEnabled)
	}

	if q.StartDate != "" && q.EndDate != "" {
		clauses = append(clauses, "start_date <= ? AND end_date >= ?")
		args = append(args, q.EndDate, q.StartDate)
	}

	return r.docs.Find(ctx, docstore.Query{
		Where:   strings.Join(clauses, " AND "),
		Args:    args,
		OrderBy: createdOrder,
	})
}

func (r *Repository) NameExists(ctx context.Context, name, excludeID string) (bool, error) {
	return r.docs.Exists(ctx, "name = ? AND id != ?", name, excludeID)
}

// SetSpent overwrites spent, clamped at zero.
func (r *Repository) SetSpent(ctx context.Context, id string, spent int64) (Budget, error) {
	return r.adjust(ctx, id, func(int64) int64 { return spent })
}

func (r *Repository) IncreaseSpent(ctx context.Context, id string, amount int64) (Budget, error) {
	return r.adjust(ctx, id, func(s int64) int64 { return s + amount })
}

func (r *Repository) DecreaseSpent(ctx context.Context, id string, amount int64) (Budget, error) {
	return r.adjust(ctx, id, func(s int64) int64 { return s - amount })
}

// Reset zeroes spent.
func (r *Repository) Reset(ctx context.Context, id string) (Budget, error) {
	return r.SetSpent(ctx, id, 0)
}

func (r *Repository) adjust(ctx context.Context, id string, fn func(int64) int64) (Budget, error) {
	updated, found, err := r.docs.Update(ctx, id, func(b Budget) (Budget, error) {
		b.Spent = max(0, fn(b.Spent))
		return b, nil
	})
	if err != nil {
		return Budget{}, fmt.Errorf("updating budget spent: %w", err)
	}

	if !found {
		return Budget{}, apperr.NotFound("budget", id)
	}

	return updated, nil
}

// Status derives the standing of one budget.
func (r *Repository) Status(ctx context.Context, id string) (Status, error) {
	b, found, err := r.docs.FindByID(ctx, id)
	if err != nil {
		return Status{}, fmt.Errorf("loading budget: %w", err)
	}

	if !found {
		return Status{}, apperr.NotFound("budget", id)
	}

	return b.Status(r.docs.Now()), nil
}

// AllStatus derives the standing of every active budget.
func (r *Repository) AllStatus(ctx context.Context) ([]Status, error) {
	active, err := r.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	now := r.docs.Now()

	statuses := make([]Status, len(active))
	for i, b := range active {
		statuses[i] = b.Status(now)
	}

	return statuses, nil
}

// Stats counts every budget but sums only the active ones.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	total, err := r.docs.Count(ctx)
	if err != nil {
		return Stats{}, err
	}

	active, err := r.FindActive(ctx)
	if err != nil {
		return Stats{}, err
	}

	s := Stats{TotalBudgets: total, ActiveBudgets: len(active)}

	for _, b := range active {
		if b.IsOverSpent() {
			s.OverSpentBudgets++
		}

		s.TotalBudgetAmount += b.Amount
		s.TotalSpentAmount += b.Spent
	}

	s.OverallUsagePercentage = Budget{Amount: s.TotalBudgetAmount, Spent: s.TotalSpentAmount}.Usage()

	return s, nil
}

// NeedingAlert returns active budgets that are over spent or past their alert threshold.
func (r *Repository) NeedingAlert(ctx context.Context) ([]Budget, error) {
	active, err := r.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	var alerts []Budget

	for _, b := range active {
		if b.NeedsAlert() {
			alerts = append(alerts, b)
		}
	}

	return alerts, nil
}

// SyncSpent recomputes spent from the live expenses inside the budget window.
// Category and account budgets only count expenses booked against their target.
func (r *Repository) SyncSpent(ctx context.Context, id string) (Budget, error) {
	var synced Budget

	err := r.inTx(ctx, func(repo *Repository) error {
		b, found, err := repo.docs.FindByID(ctx, id)
		if err != nil {
			return err
		}

		if !found {
			return apperr.NotFound("budget", id)
		}

		f := record.Filter{
			Range: &record.DateRange{Start: b.StartDate, End: b.EndDate},
			Type:  record.TypeExpense,
		}

		switch b.Type {
		case TypeCategory:
			f.CategoryID = b.TargetID
		case TypeAccount:
			f.AccountID = b.TargetID
		}

		sum, err := repo.records.Sum(ctx, f)
		if err != nil {
			return err
		}

		synced, err = repo.SetSpent(ctx, id, sum.TotalExpense)

		return err
	})
	if err != nil {
		return Budget{}, fmt.Errorf("syncing budget spent: %w", err)
	}

	return synced, nil
}

// SyncAllSpent syncs every active budget.
func (r *Repository) SyncAllSpent(ctx context.Context) error {
	return r.inTx(ctx, func(repo *Repository) error {
		active, err := repo.FindActive(ctx)
		if err != nil {
			return err
		}

		for _, b := range active {
			if _, err := repo.SyncSpent(ctx, b.ID); err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	deleted, err := r.docs.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting budget: %w", err)
	}

	if !deleted {
		return apperr.NotFound("budget", id)
	}

	return nil
}

func (r *Repository) ToggleEnabled(ctx context.Context, id string) (Budget, error) {
	updated, found, err := r.docs.Update(ctx, id, func(b Budget) (Budget, error) {
		b.IsEnabled = !b.IsEnabled
		return b, nil
	})
	if err != nil {
		return Budget{}, fmt.Errorf("toggling budget: %w", err)
	}

	if !found {
		return Budget{}, apperr.NotFound("budget", id)
	}

	return updated, nil
}
