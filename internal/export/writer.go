package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/MrJamesThe3rd/mochi/internal/record"
)

const (
	recordsSheet = "Records"
	summarySheet = "Summary"
)

// Amount formats minor units as a major-unit decimal with two places.
func Amount(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes rows with a header line. The file starts with a UTF-8 byte
// order mark so spreadsheet apps pick the right encoding.
func WriteCSV(w io.Writer, rows []Row) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, r := range rows {
		if err := cw.Write(r.cells()); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}

	return nil
}

// WriteXLSX writes a workbook with the rows on one sheet and their totals on another.
func WriteXLSX(w io.Writer, rows []Row) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing workbook: %w", cerr)
		}
	}()

	if err := f.SetSheetName("Sheet1", recordsSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	if err := fillRecords(f, rows); err != nil {
		return err
	}

	if err := fillSummary(f, rows); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}

	return nil
}

func fillRecords(f *excelize.File, rows []Row) error {
	if err := setRow(f, recordsSheet, 1, toAny(header)); err != nil {
		return err
	}

	for i, r := range rows {
		cells := toAny(r.cells())
		// Amounts go in as numbers so the sheet can sum them.
		cells[3] = decimal.New(r.Record.Amount, -2).InexactFloat64()

		if err := setRow(f, recordsSheet, i+2, cells); err != nil {
			return err
		}
	}

	style, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("creating amount style: %w", err)
	}

	if len(rows) > 0 {
		if err := f.SetCellStyle(recordsSheet, "D2", fmt.Sprintf("D%d", len(rows)+1), style); err != nil {
			return fmt.Errorf("styling amounts: %w", err)
		}
	}

	return f.SetPanes(recordsSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func fillSummary(f *excelize.File, rows []Row) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}

	var income, expense int64

	for _, r := range rows {
		switch r.Record.Type {
		case record.TypeIncome:
			income += r.Record.Amount
		case record.TypeExpense:
			expense += r.Record.Amount
		}
	}

	summary := [][]any{
		{"records", len(rows)},
		{"income", Amount(income)},
		{"expense", Amount(expense)},
		{"balance", Amount(income - expense)},
	}

	for i, line := range summary {
		if err := setRow(f, summarySheet, i+1, line); err != nil {
			return err
		}
	}

	return nil
}

func setRow(f *excelize.File, sheet string, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("locating row %d: %w", row, err)
	}

	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}

	return nil
}

func toAny(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}

	return out
}
