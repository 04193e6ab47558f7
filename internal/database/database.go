package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/MrJamesThe3rd/mochi/internal/apperr"
)

// MemoryPath opens a private in-memory database. Used by tests.
const MemoryPath = ":memory:"

// Collection names. Each one is a table of JSON documents.
const (
	Records    = "records"
	Categories = "categories"
	Accounts   = "accounts"
	Budgets    = "budgets"
	Settings   = "settings"
)

var Collections = []string{Records, Categories, Accounts, Budgets, Settings}

var errClosed = errors.New("store is not open")

// DBTX is satisfied by *sql.DB, *sql.Tx and *Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Source hands out a handle to run statements on. Both Store and Tx are sources;
// InTx on a Tx joins the running transaction.
type Source interface {
	Conn() (DBTX, error)
	InTx(ctx context.Context, fn func(tx *Tx) error) error
}

type Store struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Open connects to the database file and applies the schema. Calling Open on an
// open store is a no-op.
func (s *Store) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	if s.path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return apperr.Storage("creating data directory", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", s.path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return apperr.Storage("opening database", err)
	}

	// sqlite serialises writers; a single connection also keeps an in-memory
	// database alive for the lifetime of the store.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return apperr.Storage("pinging database", err)
	}

	if err := migrateSchema(db); err != nil {
		db.Close()
		return apperr.Storage("applying schema", err)
	}

	s.db = db

	return nil
}

// Close releases the database. Calling Close on a closed store is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil

	if err != nil {
		return apperr.Storage("closing database", err)
	}

	return nil
}

func (s *Store) handle() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, apperr.Storage("connecting", errClosed)
	}

	return s.db, nil
}

func (s *Store) Conn() (DBTX, error) {
	return s.handle()
}

// InTx runs fn inside one transaction. It commits when fn returns nil and rolls
// back otherwise. Only handles derived from tx may be used inside fn: the store
// has one connection and it belongs to the transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	db, err := s.handle()
	if err != nil {
		return err
	}

	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Storage("beginning transaction", err)
	}

	if err := fn(&Tx{tx: sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return apperr.Storage("committing transaction", err)
	}

	return nil
}

// Clear removes every document from every collection.
func (s *Store) Clear(ctx context.Context) error {
	return s.InTx(ctx, func(tx *Tx) error {
		return clearAll(ctx, tx)
	})
}

func clearAll(ctx context.Context, tx *Tx) error {
	for _, table := range Collections {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return apperr.Storage("clearing "+table, err)
		}
	}

	return nil
}

// Counts returns the number of documents per collection.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(Collections))

	for _, table := range Collections {
		var n int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, apperr.Storage("counting "+table, err)
		}

		counts[table] = n
	}

	return counts, nil
}

// Tx is a running transaction. It satisfies both DBTX and Source.
type Tx struct {
	tx *sql.Tx
}

func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, query, args...)
}

func (t *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, query, args...)
}

func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, query, args...)
}

func (t *Tx) Conn() (DBTX, error) { return t, nil }

func (t *Tx) InTx(_ context.Context, fn func(tx *Tx) error) error {
	return fn(t)
}

// Now is the timestamp stamped on documents: UTC, millisecond precision, which
// is what the julianday index columns can order by.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
