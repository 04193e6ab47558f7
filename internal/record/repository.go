package record

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrJamesThe3rd/mochi/internal/apperr"
	"github.com/MrJamesThe3rd/mochi/internal/database"
	"github.com/MrJamesThe3rd/mochi/internal/docstore"
)

const (
	// Every query over live records compares the flag explicitly; a row with
	// no flag at all is matched by neither predicate.
	activeClause  = "is_deleted = 0"
	trashedClause = "is_deleted = 1"

	listOrder = "date DESC, created_at DESC, id DESC"

	DefaultRecentLimit = 10
	DefaultPageSize    = 20
)

type Repository struct {
	docs *docstore.Collection[Record, *Record]
}

func NewRepository(src database.Source, opts ...docstore.Option) *Repository {
	return &Repository{docs: docstore.New[Record](src, database.Records, opts...)}
}

// In returns the repository bound to a running transaction.
func (r *Repository) In(tx *database.Tx) *Repository {
	return &Repository{docs: r.docs.In(tx)}
}

// Create stores a new active record.
func (r *Repository) Create(ctx context.Context, rec Record) (Record, error) {
	rec.State = Active
	if rec.Tags == nil {
		rec.Tags = []string{}
	}

	created, err := r.docs.Create(ctx, rec)
	if err != nil {
		return Record{}, fmt.Errorf("creating record: %w", err)
	}

	return created, nil
}

// CreateMany stores every record or none of them.
func (r *Repository) CreateMany(ctx context.Context, recs []Record) ([]Record, error) {
	prepared := make([]Record, len(recs))
	for i, rec := range recs {
		rec.State = Active
		if rec.Tags == nil {
			rec.Tags = []string{}
		}

		prepared[i] = rec
	}

	created, err := r.docs.CreateMany(ctx, prepared)
	if err != nil {
		return nil, fmt.Errorf("creating records: %w", err)
	}

	return created, nil
}

func (r *Repository) Get(ctx context.Context, id string) (Record, bool, error) {
	return r.docs.FindByID(ctx, id)
}

// FindAll includes trashed records.
func (r *Repository) FindAll(ctx context.Context) ([]Record, error) {
	return r.docs.FindAll(ctx)
}

func (r *Repository) Update(ctx context.Context, id string, p Patch) (Record, bool, error) {
	return r.docs.Update(ctx, id, func(rec Record) (Record, error) {
		return rec.Apply(p)
	})
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	return r.docs.Count(ctx)
}

func (r *Repository) Paginate(ctx context.Context, page, pageSize int) (docstore.Page[Record], error) {
	return r.docs.Paginate(ctx, page, pageSize)
}

func (r *Repository) FindByType(ctx context.Context, t Type) ([]Record, error) {
	return r.docs.Find(ctx, docstore.Query{
		Where:   activeClause + " AND type = ?",
		Args:    []any{string(t)},
		OrderBy: listOrder,
	})
}

func (r *Repository) FindByCategory(ctx context.Context, categoryID string) ([]Record, error) {
	return r.docs.Find(ctx, docstore.Query{
		Where:   activeClause + " AND category_id = ?",
		Args:    []any{categoryID},
		OrderBy: listOrder,
	})
}

func (r *Repository) FindByAccount(ctx context.Context, accountID string) ([]Record, error) {
	return r.docs.Find(ctx, docstore.Query{
		Where:   activeClause + " AND account_id = ?",
		Args:    []any{accountID},
		OrderBy: listOrder,
	})
}

// FindByDateRange returns live records in rng, oldest date first.
func (r *Repository) FindByDateRange(ctx context.Context, rng DateRange) ([]Record, error) {
	return r.docs.Find(ctx, docstore.Query{
		Where:   activeClause + " AND date >= ? AND date <= ?",
		Args:    []any{rng.Start, rng.End},
		OrderBy: "date ASC, created_at ASC, id ASC",
	})
}

// FindRecent returns the last limit live records by creation time.
func (r *Repository) FindRecent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	return r.docs.Find(ctx, docstore.Query{
		Where:   activeClause,
		OrderBy: "created_at DESC, id DESC",
		Limit:   limit,
	})
}

// Query is the composite record search. Zero fields do not filter.
type Query struct {
	Type       Type   `json:"type,omitempty"`
	CategoryID string `json:"categoryId,omitempty"`
	AccountID  string `json:"accountId,omitempty"`
	StartDate  string `json:"startDate,omitempty"`
	EndDate    string `json:"endDate,omitempty"`
	// Keyword matches a substring of the remark or of any tag.
	Keyword  string `json:"keyword,omitempty"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"pageSize,omitempty"`
}

// FindByQuery pages through live records matching q, newest date first.
func (r *Repository) FindByQuery(ctx context.Context, q Query) (docstore.Page[Record], error) {
	page, size := q.Page, q.PageSize
	if page == 0 {
		page = 1
	}

	if size == 0 {
		size = DefaultPageSize
	}

	where, args := q.where()

	return r.docs.PaginateWhere(ctx, docstore.Query{Where: where, Args: args, OrderBy: listOrder}, page, size)
}

func (q Query) where() (string, []any) {
	clauses := []string{activeClause}

	var args []any

	if q.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, string(q.Type))
	}

	if q.CategoryID != "" {
		clauses = append(clauses, "category_id = ?")
		args = append(args, q.CategoryID)
	}

	if q.AccountID != "" {
		clauses = append(clauses, "account_id = ?")
		args = append(args, q.AccountID)
	}

	if q.StartDate != "" {
		clauses = append(clauses, "date >= ?")
		args = append(args, q.StartDate)
	}

	if q.EndDate != "" {
		clauses = append(clauses, "date <= ?")
		args = append(args, q.EndDate)
	}

	if q.Keyword != "" {
		clauses = append(clauses, `(instr(COALESCE(json_extract(data, '$.remark'), ''), ?) > 0
			OR EXISTS (SELECT 1 FROM json_each(records.data, '$.tags') AS tag WHERE instr(tag.value, ?) > 0))`)
		args = append(args, q.Keyword, q.Keyword)
	}

	return strings.Join(clauses, " AND "), args
}

// Filter narrows the aggregations to a subset of live records.
type Filter struct {
	Range      *DateRange
	Type       Type
	CategoryID string
	AccountID  string
}

func (f Filter) where() (string, []any) {
	return Query{
		Type:       f.Type,
		CategoryID: f.CategoryID,
		AccountID:  f.AccountID,
		StartDate:  rangeStart(f.Range),
		EndDate:    rangeEnd(f.Range),
	}.where()
}

func rangeStart(rng *DateRange) string {
	if rng == nil {
		return ""
	}

	return rng.Start
}

func rangeEnd(rng *DateRange) string {
	if rng == nil {
		return ""
	}

	return rng.End
}

// Sum totals live records matching f.
func (r *Repository) Sum(ctx context.Context, f Filter) (Stats, error) {
	db, err := r.docs.Conn()
	if err != nil {
		return Stats{}, err
	}

	where, args := f.where()

	query := `SELECT
			COALESCE(SUM(CASE WHEN type = 'income' THEN amount END), 0),
			COALESCE(SUM(CASE WHEN type = 'expense' THEN amount END), 0),
			COUNT(*)
		FROM records WHERE ` + where

	var s Stats
	if err := db.QueryRowContext(ctx, query, args...).Scan(&s.TotalIncome, &s.TotalExpense, &s.Count); err != nil {
		return Stats{}, apperr.Storage("summing records", err)
	}

	s.Balance = s.TotalIncome - s.TotalExpense

	return s, nil
}

// Stats totals live records, optionally within rng.
func (r *Repository) Stats(ctx context.Context, rng *DateRange) (Stats, error) {
	return r.Sum(ctx, Filter{Range: rng})
}

// RecordsByDate buckets live records in rng per day, newest day first.
func (r *Repository) RecordsByDate(ctx context.Context, rng DateRange) ([]DayGroup, error) {
	recs, err := r.FindByDateRange(ctx, rng)
	if err != nil {
		return nil, err
	}

	groups := []DayGroup{}
	index := map[string]int{}

	for _, rec := range recs {
		i, ok := index[rec.Date]
		if !ok {
			i = len(groups)
			index[rec.Date] = i
			groups = append(groups, DayGroup{Date: rec.Date})
		}

		g := &groups[i]
		g.Records = append(g.Records, rec)

		switch rec.Type {
		case TypeIncome:
			g.TotalIncome += rec.Amount
		case TypeExpense:
			g.TotalExpense += rec.Amount
		}

		g.Balance = g.TotalIncome - g.TotalExpense
	}

	// recs is ascending by date, so reversing gives newest first.
	for i, j := 0, len(groups)-1; i < j; i, j = i+1, j-1 {
		groups[i], groups[j] = groups[j], groups[i]
	}

	return groups, nil
}

// CategoryStats groups live records by category, largest total first.
func (r *Repository) CategoryStats(ctx context.Context, rng *DateRange) ([]GroupStat, error) {
	return r.groupBy(ctx, "category_id", Filter{Range: rng})
}

// CategoryStatsByType is CategoryStats restricted to one record type.
func (r *Repository) CategoryStatsByType(ctx context.Context, rng *DateRange, t Type) ([]GroupStat, error) {
	return r.groupBy(ctx, "category_id", Filter{Range: rng, Type: t})
}

// AccountStats groups live records by account, largest total first.
func (r *Repository) AccountStats(ctx context.Context, rng *DateRange) ([]GroupStat, error) {
	return r.groupBy(ctx, "account_id", Filter{Range: rng})
}

func (r *Repository) groupBy(ctx context.Context, column string, f Filter) ([]GroupStat, error) {
	db, err := r.docs.Conn()
	if err != nil {
		return nil, err
	}

	where, args := f.where()

	query := "SELECT " + column + ", SUM(amount), COUNT(*) FROM records WHERE " + where +
		" GROUP BY " + column + " ORDER BY SUM(amount) DESC, " + column + " ASC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Storage("grouping records by "+column, err)
	}
	defer rows.Close()

	stats := []GroupStat{}

	for rows.Next() {
		var s GroupStat
		if err := rows.Scan(&s.ID, &s.TotalAmount, &s.Count); err != nil {
			return nil, apperr.Storage("scanning "+column+" stats", err)
		}

		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("iterating "+column+" stats", err)
	}

	return stats, nil
}

// CountByCategory counts every record pointing at the category, trashed ones
// included: restoring them must not leave a dangling reference.
func (r *Repository) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	return r.docs.CountWhere(ctx, "category_id = ?", categoryID)
}

// CountByAccount counts every record pointing at the account, trashed ones included.
func (r *Repository) CountByAccount(ctx context.Context, accountID string) (int, error) {
	return r.docs.CountWhere(ctx, "account_id = ?", accountID)
}

// SoftDelete moves the record to the trash. Trashing a trashed record is a no-op.
func (r *Repository) SoftDelete(ctx context.Context, id string) (Record, error) {
	return r.setState(ctx, id, Trashed)
}

// Restore takes the record out of the trash. Restoring an active record is a no-op.
func (r *Repository) Restore(ctx context.Context, id string) (Record, error) {
	return r.setState(ctx, id, Active)
}

func (r *Repository) setState(ctx context.Context, id string, state State) (Record, error) {
	var result Record

	err := r.docs.Source().InTx(ctx, func(tx *database.Tx) error {
		docs := r.docs.In(tx)

		current, found, err := docs.FindByID(ctx, id)
		if err != nil {
			return err
		}

		if !found {
			return apperr.NotFound("record", id)
		}

		if current.State == state {
			result = current
			return nil
		}

		result, _, err = docs.Update(ctx, id, func(rec Record) (Record, error) {
			rec.State = state
			return rec, nil
		})

		return err
	})
	if err != nil {
		return Record{}, fmt.Errorf("moving record to %s: %w", state, err)
	}

	return result, nil
}

// Trash lists trashed records, most recently trashed first.
func (r *Repository) Trash(ctx context.Context) ([]Record, error) {
	return r.docs.Find(ctx, docstore.Query{
		Where:   trashedClause,
		OrderBy: "updated_at DESC, id DESC",
	})
}

// EmptyTrash hard-deletes every trashed record and returns how many went.
func (r *Repository) EmptyTrash(ctx context.Context) (int, error) {
	n, err := r.docs.DeleteWhere(ctx, trashedClause)
	if err != nil {
		return 0, fmt.Errorf("emptying trash: %w", err)
	}

	return n, nil
}

// HardDelete removes a trashed record for good. Active records are refused.
func (r *Repository) HardDelete(ctx context.Context, id string) error {
	return r.docs.Source().InTx(ctx, func(tx *database.Tx) error {
		docs := r.docs.In(tx)

		rec, found, err := docs.FindByID(ctx, id)
		if err != nil {
			return err
		}

		if !found {
			return apperr.NotFound("record", id)
		}

		if !rec.IsTrashed() {
			return apperr.Integrity("delete record", "record must be in the trash before it can be deleted")
		}

		if _, err := docs.Delete(ctx, id); err != nil {
			return fmt.Errorf("deleting record: %w", err)
		}

		return nil
	})
}
