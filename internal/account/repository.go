package account

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
	sortOrder     = "sort_order ASC, created_at ASC, id ASC"
)

type Repository struct {
	docs    *docstore.Collection[Account, *Account]
	records *record.Repository
}

func NewRepository(src database.Source, opts ...docstore.Option) *Repository {
	return &Repository{
		docs:    docstore.New[Account](src, database.Accounts, opts...),
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

var errNameTaken = apperr.Reason{Field: "name", Rule: "unique", Message: "an account with this name already exists"}

// Create stores a new account. Account names are unique.
func (r *Repository) Create(ctx context.Context, a Account) (Account, error) {
	var created Account

	err := r.inTx(ctx, func(repo *Repository) error {
		exists, err := repo.NameExists(ctx, a.Name, "")
		if err != nil {
			return err
		}

		if exists {
			return apperr.Invalid("account", errNameTaken)
		}

		created, err = repo.docs.Create(ctx, a)

		return err
	})
	if err != nil {
		return Account{}, fmt.Errorf("creating account: %w", err)
	}

	return created, nil
}

// CreateMany stores every account or none of them. A zero Order takes the
// position in the batch.
func (r *Repository) CreateMany(ctx context.Context, as []Account) ([]Account, error) {
	created := make([]Account, 0, len(as))

	err := r.inTx(ctx, func(repo *Repository) error {
		for i, a := range as {
			if a.Order == 0 {
				a.Order = i
			}

			exists, err := repo.NameExists(ctx, a.Name, "")
			if err != nil {
				return err
			}

			if exists {
				return apperr.Invalid("account", errNameTaken)
			}

			stored, err := repo.docs.Create(ctx, a)
			if err != nil {
				return err
			}

			created = append(created, stored)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating accounts: %w", err)
	}

	return created, nil
}

func (r *Repository) Get(ctx context.Context, id string) (Account, bool, error) {
	return r.docs.FindByID(ctx, id)
}

func (r *Repository) FindAll(ctx context.Context) ([]Account, error) {
	return r.docs.Find(ctx, docstore.Query{OrderBy: sortOrder})
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	return r.docs.Count(ctx)
}

func (r *Repository) Update(ctx context.Context, id string, p Patch) (Account, bool, error) {
	var (
		updated Account
		found   bool
	)

	err := r.inTx(ctx, func(repo *Repository) error {
		var err error

		updated, found, err = repo.docs.Update(ctx, id, func(a Account) (Account, error) {
			next, err := a.Apply(p)
			if err != nil {
				return a, err
			}

			if next.Name != a.Name {
				exists, err := repo.NameExists(ctx, next.Name, a.ID)
				if err != nil {
					return a, err
				}

				if exists {
					return a, apperr.Invalid("account", errNameTaken)
				}
			}

			return next, nil
		})

		return err
	})
	if err != nil {
		return Account{}, found, fmt.Errorf("updating account: %w", err)
	}

	return updated, found, nil
}

// FindByType returns the enabled accounts of type t.
func (r *Repository) FindByType(ctx context.Context, t Type) ([]Account, error) {
	return r.docs.Find(ctx, docstore.Query{
		Where:   "type = ? AND " + enabledClause,
		Args:    []any{string(t)},
		OrderBy: sortOrder,
	})
}

func (r *Repository) FindEnabled(ctx context.Context) ([]Account, error) {
	return r.docs.Find(ctx, docstore.Query{Where: enabledClause, OrderBy: sortOrder})
}

type Query struct {
	Type      Type  `json:"type,omitempty"`
	IsEnabled *bool `json:"isEnabled,omitempty"`
	// Keyword matches a substring of the name or the remark.
	Keyword string `json:"keyword,omitempty"`
}

func (r *Repository) FindByQuery(ctx context.Context, q Query) ([]Account, error) {
	clauses := []string{"1 = 1"}

	var args []any

	if q.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, string(q.Type))
	}

	if q.IsEnabled != nil {
		clauses = append(clauses, "is_enabled = ?")
		args = append(args, *q.IsEnabled)
	}

	if q.Keyword != "" {
		clauses = append(clauses, "(instr(name, ?) > 0 OR instr(COALESCE(json_extract(data, '$.remark'), ''), ?) > 0)")
		args = append(args, q.Keyword, q.Keyword)
	}

	return r.docs.Find(ctx, docstore.Query{
		Where:   strings.Join(clauses, " AND "),
		Args:    args,
		OrderBy: sortOrder,
	})
}

// NameExists reports whether another account is called name.
func (r *Repository) NameExists(ctx context.Context, name, excludeID string) (bool, error) {
	return r.docs.Exists(ctx, "name = ? AND id != ?", name, excludeID)
}

// SetBalance overwrites the balance.
func (r *Repository) SetBalance(ctx context.Context, id string, balance int64) (Account, error) {
	return r.adjust(ctx, id, func(int64) int64 { return balance })
}

func (r *Repository) IncreaseBalance(ctx context.Context, id string, amount int64) (Account, error) {
	return r.adjust(ctx, id, func(b int64) int64 { return b + amount })
}

func (r *Repository) DecreaseBalance(ctx context.Context, id string, amount int64) (Account, error) {
	return r.adjust(ctx, id, func(b int64) int64 { return b - amount })
}

func (r *Repository) adjust(ctx context.Context, id string, fn func(int64) int64) (Account, error) {
	updated, found, err := r.docs.Update(ctx, id, func(a Account) (Account, error) {
		a.Balance = fn(a.Balance)
		return a, nil
	})
	if err != nil {
		return Account{}, fmt.Errorf("updating account balance: %w", err)
	}

	if !found {
		return Account{}, apperr.NotFound("account", id)
	}

	return updated, nil
}

// Transfer moves amount from one account to another. Only credit cards may be
// drawn below zero. Either both balances change or neither does.
func (r *Repository) Transfer(ctx context.Context, fromID, toID string, amount int64) error {
	var reasons []apperr.Reason

	if amount <= 0 {
		reasons = append(reasons, apperr.Reason{Field: "amount", Rule: "gt", Message: "must be greater than 0"})
	}

	if fromID == toID {
		reasons = append(reasons, apperr.Reason{Field: "toAccountId", Rule: "nefield", Message: "must differ from the source account"})
	}

	if len(reasons) > 0 {
		return apperr.Invalid("transfer", reasons...)
	}

	err := r.inTx(ctx, func(repo *Repository) error {
		from, found, err := repo.docs.FindByID(ctx, fromID)
		if err != nil {
			return err
		}

		if !found {
			return apperr.NotFound("account", fromID)
		}

		if _, found, err := repo.docs.FindByID(ctx, toID); err != nil {
			return err
		} else if !found {
			return apperr.NotFound("account", toID)
		}

		if !from.Type.IsDebt() && from.Balance < amount {
			return apperr.Integrity("transfer", "insufficient balance in source account")
		}

		if _, err := repo.DecreaseBalance(ctx, fromID, amount); err != nil {
			return err
		}

		_, err = repo.IncreaseBalance(ctx, toID, amount)

		return err
	})
	if err != nil {
		return fmt.Errorf("transferring between accounts: %w", err)
	}

	return nil
}

// SyncBalance recomputes the balance from the account's live records.
func (r *Repository) SyncBalance(ctx context.Context, id string) (Account, error) {
	var synced Account

	err := r.inTx(ctx, func(repo *Repository) error {
		sum, err := repo.records.Sum(ctx, record.Filter{AccountID: id})
		if err != nil {
			return err
		}

		synced, err = repo.SetBalance(ctx, id, sum.Balance)

		return err
	})
	if err != nil {
		return Account{}, fmt.Errorf("syncing account balance: %w", err)
	}

	return synced, nil
}

// Stats sums live records for every enabled account.
func (r *Repository) Stats(ctx context.Context) ([]Stats, error) {
	accounts, err := r.FindEnabled(ctx)
	if err != nil {
		return nil, err
	}

	stats := make([]Stats, 0, len(accounts))

	for _, a := range accounts {
		sum, err := r.records.Sum(ctx, record.Filter{AccountID: a.ID})
		if err != nil {
			return nil, fmt.Errorf("account %s stats: %w", a.ID, err)
		}

		stats = append(stats, Stats{
			AccountID:        a.ID,
			AccountName:      a.Name,
			TotalIncome:      sum.TotalIncome,
			TotalExpense:     sum.TotalExpense,
			Balance:          a.Balance,
			TransactionCount: sum.Count,
		})
	}

	return stats, nil
}

// TotalAssets sums the balances of enabled non-debt accounts.
func (r *Repository) TotalAssets(ctx context.Context) (int64, error) {
	assets, _, err := r.totals(ctx)
	return assets, err
}

// TotalDebts sums the absolute balances of enabled credit cards.
func (r *Repository) TotalDebts(ctx context.Context) (int64, error) {
	_, debts, err := r.totals(ctx)
	return debts, err
}

func (r *Repository) NetAssets(ctx context.Context) (int64, error) {
	assets, debts, err := r.totals(ctx)
	return assets - debts, err
}

func (r *Repository) totals(ctx context.Context) (assets, debts int64, err error) {
	accounts, err := r.FindEnabled(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("totalling accounts: %w", err)
	}

	for _, a := range accounts {
		if a.Type.IsDebt() {
			debts += abs(a.Balance)
			continue
		}

		assets += a.Balance
	}

	return assets, debts, nil
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}

	return n
}

func (r *Repository) UpdateOrder(ctx context.Context, updates []OrderUpdate) error {
	return r.inTx(ctx, func(repo *Repository) error {
		for _, u := range updates {
			_, found, err := repo.docs.Update(ctx, u.ID, func(a Account) (Account, error) {
				a.Order = u.Order
				return a, nil
			})
			if err != nil {
				return err
			}

			if !found {
				return apperr.NotFound("account", u.ID)
			}
		}

		return nil
	})
}

// Delete removes an account no record points at.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.inTx(ctx, func(repo *Repository) error {
		_, found, err := repo.docs.FindByID(ctx, id)
		if err != nil {
			return err
		}

		if !found {
			return apperr.NotFound("account", id)
		}

		n, err := repo.records.CountByAccount(ctx, id)
		if err != nil {
			return err
		}

		if n > 0 {
			return apperr.Integrity("delete account", fmt.Sprintf("account is used by %d records", n))
		}

		_, err = repo.docs.Delete(ctx, id)

		return err
	})
}

func (r *Repository) ToggleEnabled(ctx context.Context, id string) (Account, error) {
	updated, found, err := r.docs.Update(ctx, id, func(a Account) (Account, error) {
		a.IsEnabled = !a.IsEnabled
		return a, nil
	})
	if err != nil {
		return Account{}, fmt.Errorf("toggling account: %w", err)
	}

	if !found {
		return Account{}, apperr.NotFound("account", id)
	}

	return updated, nil
}
