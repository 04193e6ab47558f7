// Package export writes records out as CSV or XLSX and moves backup snapshots
// to and from files.
package export

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/mochi/internal/account"
	"github.com/MrJamesThe3rd/mochi/internal/category"
	"github.com/MrJamesThe3rd/mochi/internal/importer"
	"github.com/MrJamesThe3rd/mochi/internal/record"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

func (f Format) Valid() bool { return f == FormatCSV || f == FormatXLSX }

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}

	return "text/csv; charset=utf-8"
}

// allTime spans every date a record can carry.
var allTime = record.DateRange{Start: "0000-01-01", End: "9999-12-31"}

type RecordSource interface {
	FindByDateRange(ctx context.Context, rng record.DateRange) ([]record.Record, error)
}

type CategorySource interface {
	FindAll(ctx context.Context) ([]category.Category, error)
}

type AccountSource interface {
	FindAll(ctx context.Context) ([]account.Account, error)
}

// Row is one exported record with its category and account by name.
type Row struct {
	Record   record.Record
	Category string
	Account  string
}

type Service struct {
	records    RecordSource
	categories CategorySource
	accounts   AccountSource
}

func NewService(records RecordSource, categories CategorySource, accounts AccountSource) *Service {
	return &Service{records: records, categories: categories, accounts: accounts}
}

// Rows lists the live records in rng, oldest first. A nil rng means every record.
func (s *Service) Rows(ctx context.Context, rng *record.DateRange) ([]Row, error) {
	span := allTime
	if rng != nil {
		span = *rng
	}

	recs, err := s.records.FindByDateRange(ctx, span)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	cats, err := s.categories.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}

	accts, err := s.accounts.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}

	catNames := make(map[string]string, len(cats))
	for _, c := range cats {
		catNames[c.ID] = c.Name
	}

	acctNames := make(map[string]string, len(accts))
	for _, a := range accts {
		acctNames[a.ID] = a.Name
	}

	rows := make([]Row, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, Row{Record: r, Category: catNames[r.CategoryID], Account: acctNames[r.AccountID]})
	}

	return rows, nil
}

// Export writes the records in rng to w and returns how many it wrote.
func (s *Service) Export(ctx context.Context, rng *record.DateRange, format Format, w io.Writer) (int, error) {
	rows, err := s.Rows(ctx, rng)
	if err != nil {
		return 0, err
	}

	switch format {
	case FormatCSV:
		err = WriteCSV(w, rows)
	case FormatXLSX:
		err = WriteXLSX(w, rows)
	default:
		return 0, fmt.Errorf("unknown export format %q", format)
	}

	if err != nil {
		return 0, err
	}

	return len(rows), nil
}

// Filename names an export of rng written at now.
func Filename(format Format, rng *record.DateRange, now time.Time) string {
	span := "all"
	if rng != nil {
		span = strings.ReplaceAll(rng.Start, "-", "") + "-" + strings.ReplaceAll(rng.End, "-", "")
	}

	return fmt.Sprintf("mochi_records_%s_%s.%s", span, now.Format("20060102"), format)
}

var header = []string{"date", "time", "type", "amount", "category", "account", "remark", "tags"}

func (r Row) cells() []string {
	return []string{
		r.Record.Date,
		r.Record.Time,
		string(r.Record.Type),
		Amount(r.Record.Amount),
		r.Category,
		r.Account,
		r.Record.Remark,
		strings.Join(r.Record.Tags, importer.TagSeparator),
	}
}
