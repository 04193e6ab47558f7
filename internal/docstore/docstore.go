// Package docstore maps entity structs onto the JSON document tables of the
// database package.
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/mochi/internal/apperr"
	"github.com/MrJamesThe3rd/mochi/internal/database"
)

// Meta is embedded by every stored entity.
type Meta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (m *Meta) Base() *Meta { return m }

type Document interface {
	Base() *Meta
	Validate() error
}

type document[T any] interface {
	*T
	Document
}

type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// Query filters rows with a SQL predicate over the table's generated columns.
type Query struct {
	Where   string
	Args    []any
	OrderBy string
	Limit   int
	Offset  int
}

const defaultOrder = "created_at ASC, id ASC"

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces the clock used to stamp createdAt and updatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

type Collection[T any, P document[T]] struct {
	table string
	src   database.Source
	now   func() time.Time
}

func New[T any, P document[T]](src database.Source, table string, opts ...Option) *Collection[T, P] {
	o := options{now: database.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &Collection[T, P]{table: table, src: src, now: o.now}
}

// In returns the collection bound to a running transaction.
func (c *Collection[T, P]) In(tx *database.Tx) *Collection[T, P] {
	return &Collection[T, P]{table: c.table, src: tx, now: c.now}
}

func (c *Collection[T, P]) Table() string { return c.table }

func (c *Collection[T, P]) Source() database.Source { return c.src }

func (c *Collection[T, P]) Conn() (database.DBTX, error) { return c.src.Conn() }

func (c *Collection[T, P]) Now() time.Time { return c.now() }

// Create assigns a fresh id, stamps both timestamps and stores doc.
func (c *Collection[T, P]) Create(ctx context.Context, doc T) (T, error) {
	var zero T

	db, err := c.src.Conn()
	if err != nil {
		return zero, err
	}

	now := c.now()

	meta := P(&doc).Base()
	meta.ID = NewID(now)
	meta.CreatedAt = now
	meta.UpdatedAt = now

	if err := P(&doc).Validate(); err != nil {
		return zero, err
	}

	data, err := json.Marshal(&doc)
	if err != nil {
		return zero, fmt.Errorf("encoding %s: %w", c.table, err)
	}

	query := "INSERT INTO " + c.table + " (id, data) VALUES (?, ?)"
	if _, err := db.ExecContext(ctx, query, meta.ID, string(data)); err != nil {
		return zero, apperr.Storage("inserting into "+c.table, err)
	}

	return doc, nil
}

// CreateMany stores every doc inside one transaction.
func (c *Collection[T, P]) CreateMany(ctx context.Context, docs []T) ([]T, error) {
	created := make([]T, 0, len(docs))

	err := c.src.InTx(ctx, func(tx *database.Tx) error {
		col := c.In(tx)

		for _, doc := range docs {
			stored, err := col.Create(ctx, doc)
			if err != nil {
				return err
			}

			created = append(created, stored)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Put stores doc under the id it already carries, replacing any existing row.
// The original createdAt of a replaced row is kept.
func (c *Collection[T, P]) Put(ctx context.Context, doc T) (T, error) {
	var zero T

	id := P(&doc).Base().ID
	if id == "" {
		return zero, apperr.Invalid(c.table, apperr.Reason{Field: "id", Rule: "required", Message: "is required"})
	}

	err := c.src.InTx(ctx, func(tx *database.Tx) error {
		col := c.In(tx)

		prev, found, err := col.FindByID(ctx, id)
		if err != nil {
			return err
		}

		now := c.now()
		meta := P(&doc).Base()

		if found {
			prevMeta := P(&prev).Base()
			meta.CreatedAt = prevMeta.CreatedAt
			meta.UpdatedAt = advance(prevMeta.UpdatedAt, now)
		} else {
			meta.CreatedAt = now
			meta.UpdatedAt = now
		}

		if err := P(&doc).Validate(); err != nil {
			return err
		}

		data, err := json.Marshal(&doc)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", c.table, err)
		}

		query := "INSERT INTO " + c.table + " (id, data) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET data = excluded.data"
		if _, err := tx.ExecContext(ctx, query, id, string(data)); err != nil {
			return apperr.Storage("upserting into "+c.table, err)
		}

		return nil
	})
	if err != nil {
		return zero, err
	}

	return doc, nil
}

// FindByID reports found=false when no row has id. That is not an error.
func (c *Collection[T, P]) FindByID(ctx context.Context, id string) (T, bool, error) {
	var zero T

	db, err := c.src.Conn()
	if err != nil {
		return zero, false, err
	}

	var data string

	err = db.QueryRowContext(ctx, "SELECT data FROM "+c.table+" WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, false, nil
	}

	if err != nil {
		return zero, false, apperr.Storage(fmt.Sprintf("getting %s %q", c.table, id), err)
	}

	doc, err := c.decode(data)
	if err != nil {
		return zero, false, err
	}

	return doc, true, nil
}

// FindAll returns every row in creation order.
func (c *Collection[T, P]) FindAll(ctx context.Context) ([]T, error) {
	return c.Find(ctx, Query{})
}

func (c *Collection[T, P]) Find(ctx context.Context, q Query) ([]T, error) {
	db, err := c.src.Conn()
	if err != nil {
		return nil, err
	}

	query, args := c.selectQuery(q)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Storage("querying "+c.table, err)
	}
	defer rows.Close()

	docs := []T{}

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, apperr.Storage("scanning "+c.table, err)
		}

		doc, err := c.decode(data)
		if err != nil {
			return nil, err
		}

		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("iterating "+c.table, err)
	}

	return docs, nil
}

func (c *Collection[T, P]) selectQuery(q Query) (string, []any) {
	var b strings.Builder

	b.WriteString("SELECT data FROM ")
	b.WriteString(c.table)

	if q.Where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(q.Where)
	}

	order := q.OrderBy
	if order == "" {
		order = defaultOrder
	}

	b.WriteString(" ORDER BY ")
	b.WriteString(order)

	args := append([]any(nil), q.Args...)

	if q.Limit > 0 {
		b.WriteString(" LIMIT ? OFFSET ?")

		args = append(args, q.Limit, q.Offset)
	}

	return b.String(), args
}

// FindOne returns the first row matching q.
func (c *Collection[T, P]) FindOne(ctx context.Context, q Query) (T, bool, error) {
	var zero T

	q.Limit = 1

	docs, err := c.Find(ctx, q)
	if err != nil || len(docs) == 0 {
		return zero, false, err
	}

	return docs[0], true, nil
}

// Update loads the row, lets fn derive the next value and stores it. The id and
// createdAt of the stored row are kept and updatedAt strictly advances. When
// validation fails nothing is written.
func (c *Collection[T, P]) Update(ctx context.Context, id string, fn func(T) (T, error)) (T, bool, error) {
	var (
		next  T
		found bool
	)

	err := c.src.InTx(ctx, func(tx *database.Tx) error {
		col := c.In(tx)

		prev, ok, err := col.FindByID(ctx, id)
		if err != nil || !ok {
			return err
		}

		found = true

		next, err = fn(prev)
		if err != nil {
			return err
		}

		prevMeta := P(&prev).Base()
		meta := P(&next).Base()
		meta.ID = prevMeta.ID
		meta.CreatedAt = prevMeta.CreatedAt
		meta.UpdatedAt = advance(prevMeta.UpdatedAt, c.now())

		if err := P(&next).Validate(); err != nil {
			return err
		}

		data, err := json.Marshal(&next)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", c.table, err)
		}

		if _, err := tx.ExecContext(ctx, "UPDATE "+c.table+" SET data = ? WHERE id = ?", string(data), id); err != nil {
			return apperr.Storage(fmt.Sprintf("updating %s %q", c.table, id), err)
		}

		return nil
	})

	var zero T
	if err != nil {
		return zero, found, err
	}

	if !found {
		return zero, false, nil
	}

	return next, true, nil
}

func advance(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}

	return prev.Add(time.Millisecond)
}

// Delete removes the row physically. It reports whether a row was removed.
func (c *Collection[T, P]) Delete(ctx context.Context, id string) (bool, error) {
	n, err := c.DeleteWhere(ctx, "id = ?", id)
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (c *Collection[T, P]) DeleteMany(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	where, args := InClause("id", ids)

	return c.DeleteWhere(ctx, where, args...)
}

func (c *Collection[T, P]) DeleteWhere(ctx context.Context, where string, args ...any) (int, error) {
	db, err := c.src.Conn()
	if err != nil {
		return 0, err
	}

	query := "DELETE FROM " + c.table
	if where != "" {
		query += " WHERE " + where
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperr.Storage("deleting from "+c.table, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.Storage("deleting from "+c.table, err)
	}

	return int(n), nil
}

func (c *Collection[T, P]) Count(ctx context.Context) (int, error) {
	return c.CountWhere(ctx, "")
}

func (c *Collection[T, P]) CountWhere(ctx context.Context, where string, args ...any) (int, error) {
	db, err := c.src.Conn()
	if err != nil {
		return 0, err
	}

	query := "SELECT COUNT(*) FROM " + c.table
	if where != "" {
		query += " WHERE " + where
	}

	var n int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, apperr.Storage("counting "+c.table, err)
	}

	return n, nil
}

func (c *Collection[T, P]) Exists(ctx context.Context, where string, args ...any) (bool, error) {
	n, err := c.CountWhere(ctx, where, args...)

	return n > 0, err
}

// Paginate pages through every row, newest first. Pages are 1-indexed; a page
// past the end has no items but still carries the total.
func (c *Collection[T, P]) Paginate(ctx context.Context, page, pageSize int) (Page[T], error) {
	return c.PaginateWhere(ctx, Query{OrderBy: "created_at DESC, id DESC"}, page, pageSize)
}

// PaginateWhere pages through the rows matching q using q's order.
func (c *Collection[T, P]) PaginateWhere(ctx context.Context, q Query, page, pageSize int) (Page[T], error) {
	if err := checkPage(page, pageSize); err != nil {
		return Page[T]{}, err
	}

	total, err := c.CountWhere(ctx, q.Where, q.Args...)
	if err != nil {
		return Page[T]{}, err
	}

	// Past the last page. Checked before computing the offset, which could
	// overflow for huge page numbers.
	if total == 0 || page-1 > (total-1)/pageSize {
		return Page[T]{Items: []T{}, Total: total}, nil
	}

	q.Limit = pageSize
	q.Offset = (page - 1) * pageSize

	items, err := c.Find(ctx, q)
	if err != nil {
		return Page[T]{}, err
	}

	return Page[T]{Items: items, Total: total}, nil
}

func checkPage(page, pageSize int) error {
	var reasons []apperr.Reason

	if page < 1 {
		reasons = append(reasons, apperr.Reason{Field: "page", Rule: "min", Message: "must be at least 1"})
	}

	if pageSize < 1 {
		reasons = append(reasons, apperr.Reason{Field: "pageSize", Rule: "min", Message: "must be at least 1"})
	}

	if len(reasons) > 0 {
		return apperr.Invalid("page", reasons...)
	}

	return nil
}

func (c *Collection[T, P]) decode(data string) (T, error) {
	var doc T
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return doc, fmt.Errorf("decoding %s: %w", c.table, err)
	}

	return doc, nil
}

// InClause builds "column IN (?, ?, ...)" for values.
func InClause[V any](column string, values []V) (string, []any) {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}

	return column + " IN (" + strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ") + ")", args
}
