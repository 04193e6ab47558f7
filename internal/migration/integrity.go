package migration

import (
	"context"
	"fmt"

	"github.com/MrJamesThe3rd/mochi/internal/database"
)

type Report struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ValidateIntegrity checks that every collection is readable and that records
// point at existing categories and accounts. Dangling references are warnings;
// records with no categories or accounts at all are errors.
func (s *Service) ValidateIntegrity(ctx context.Context) Report {
	report := Report{Errors: []string{}, Warnings: []string{}}

	db, err := s.src.Conn()
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("integrity check failed: %v", err))
		return report
	}

	counts := map[string]int{}

	for _, table := range database.Collections {
		var n int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("collection %s is not readable: %v", table, err))
			continue
		}

		counts[table] = n
	}

	if counts[database.Records] > 0 && counts[database.Categories] == 0 {
		report.Errors = append(report.Errors, "records exist but there are no categories")
	}

	if counts[database.Records] > 0 && counts[database.Accounts] == 0 {
		report.Errors = append(report.Errors, "records exist but there are no accounts")
	}

	dangling := []struct {
		column, table, label string
	}{
		{"category_id", "categories", "category"},
		{"account_id", "accounts", "account"},
	}

	for _, d := range dangling {
		var n int

		query := "SELECT COUNT(*) FROM records WHERE " + d.column + " IS NULL OR " +
			d.column + " NOT IN (SELECT id FROM " + d.table + ")"
		if err := db.QueryRowContext(ctx, query).Scan(&n); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("checking record %s references: %v", d.label, err))
			continue
		}

		if n > 0 {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%d records reference a missing %s", n, d.label))
		}
	}

	report.Valid = len(report.Errors) == 0

	return report
}
