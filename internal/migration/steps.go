package migration

import (
	"context"
	"fmt"
	"time"

	"github.com/MrJamesThe3rd/mochi/internal/database"
)

// DefaultSteps are the data migrations shipped with the application.
func DefaultSteps() []Step {
	return []Step{
		New(1, "initialise collections", checkCollections, clearCollections),
		New(2, "store account isEnabled as a boolean", accountFlagsToBool, nil),
		New(3, "backfill record isDeleted and tags", backfillRecordFields, nil),
	}
}

func checkCollections(ctx context.Context, db database.DBTX) error {
	for _, name := range database.Collections {
		var n int

		err := db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&n)
		if err != nil {
			return fmt.Errorf("checking collection %s: %w", name, err)
		}

		if n == 0 {
			return fmt.Errorf("collection %s is missing", name)
		}
	}

	return nil
}

func clearCollections(ctx context.Context, db database.DBTX) error {
	for _, name := range database.Collections {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+name); err != nil {
			return fmt.Errorf("clearing %s: %w", name, err)
		}
	}

	return nil
}

func stamp() string {
	return database.Now().Format(time.RFC3339Nano)
}

func accountFlagsToBool(ctx context.Context, db database.DBTX) error {
	_, err := db.ExecContext(ctx, `UPDATE accounts
		SET data = json_set(data,
			'$.isEnabled', json(CASE WHEN json_extract(data, '$.isEnabled') = 1 THEN 'true' ELSE 'false' END),
			'$.updatedAt', ?)
		WHERE json_type(data, '$.isEnabled') = 'integer'`, stamp())
	if err != nil {
		return fmt.Errorf("converting account flags: %w", err)
	}

	return nil
}

func backfillRecordFields(ctx context.Context, db database.DBTX) error {
	now := stamp()

	stmts := []string{
		`UPDATE records SET data = json_set(data, '$.isDeleted', json('false'), '$.updatedAt', ?)
			WHERE json_type(data, '$.isDeleted') IS NULL`,
		`UPDATE records SET data = json_set(data,
				'$.isDeleted', json(CASE WHEN json_extract(data, '$.isDeleted') = 1 THEN 'true' ELSE 'false' END),
				'$.updatedAt', ?)
			WHERE json_type(data, '$.isDeleted') = 'integer'`,
		`UPDATE records SET data = json_set(data, '$.tags', json('[]'), '$.updatedAt', ?)
			WHERE json_type(data, '$.tags') IS NULL OR json_type(data, '$.tags') = 'null'`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt, now); err != nil {
			return fmt.Errorf("backfilling records: %w", err)
		}
	}

	return nil
}
