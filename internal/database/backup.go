package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrJamesThe3rd/mochi/internal/apperr"
)

// Snapshot is a full copy of every collection. Documents are kept as the raw
// JSON stored in the database so a restore writes back exactly what was read.
type Snapshot struct {
	Version    int               `json:"version"`
	Timestamp  time.Time         `json:"timestamp"`
	Records    []json.RawMessage `json:"records"`
	Categories []json.RawMessage `json:"categories"`
	Accounts   []json.RawMessage `json:"accounts"`
	Budgets    []json.RawMessage `json:"budgets"`
	Settings   []json.RawMessage `json:"settings"`
}

func (s *Snapshot) collection(table string) *[]json.RawMessage {
	switch table {
	case Records:
		return &s.Records
	case Categories:
		return &s.Categories
	case Accounts:
		return &s.Accounts
	case Budgets:
		return &s.Budgets
	case Settings:
		return &s.Settings
	}

	return nil
}

// Backup reads every collection inside one transaction.
func (s *Store) Backup(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{
		Version:   SchemaVersion,
		Timestamp: Now(),
	}

	err := s.InTx(ctx, func(tx *Tx) error {
		for _, table := range Collections {
			docs, err := readAll(ctx, tx, table)
			if err != nil {
				return err
			}

			*snap.collection(table) = docs
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("backing up: %w", err)
	}

	return snap, nil
}

func readAll(ctx context.Context, db DBTX, table string) ([]json.RawMessage, error) {
	rows, err := db.QueryContext(ctx, "SELECT data FROM "+table+" ORDER BY created_at, id")
	if err != nil {
		return nil, apperr.Storage("reading "+table, err)
	}
	defer rows.Close()

	docs := []json.RawMessage{}

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, apperr.Storage("scanning "+table, err)
		}

		docs = append(docs, json.RawMessage(data))
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("iterating "+table, err)
	}

	return docs, nil
}

// Restore replaces the content of every collection with the snapshot. Either
// every document is written or nothing changes.
func (s *Store) Restore(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return apperr.Invalid("snapshot", apperr.Reason{Field: "snapshot", Rule: "required", Message: "is required"})
	}

	if snap.Version > SchemaVersion {
		return apperr.Invalid("snapshot", apperr.Reason{
			Field:   "version",
			Rule:    "max",
			Message: fmt.Sprintf("schema version %d is newer than supported version %d", snap.Version, SchemaVersion),
		})
	}

	err := s.InTx(ctx, func(tx *Tx) error {
		if err := clearAll(ctx, tx); err != nil {
			return err
		}

		for _, table := range Collections {
			query := "INSERT INTO " + table + " (id, data) VALUES (json_extract(?, '$.id'), ?)"

			for i, doc := range *snap.collection(table) {
				if !json.Valid(doc) {
					return fmt.Errorf("restoring %s[%d]: %w", table, i, errors.New("document is not valid JSON"))
				}

				if _, err := tx.ExecContext(ctx, query, string(doc), string(doc)); err != nil {
					return fmt.Errorf("restoring %s[%d]: %w", table, i, err)
				}
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("restoring backup: %w", err)
	}

	return nil
}
