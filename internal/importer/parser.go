package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/mochi/internal/apperr"
	enc "github.com/MrJamesThe3rd/mochi/internal/encoding"
	"github.com/MrJamesThe3rd/mochi/internal/record"
)

const (
	colDate     = "date"
	colTime     = "time"
	colType     = "type"
	colAmount   = "amount"
	colCategory = "category"
	colAccount  = "account"
	colRemark   = "remark"
	colTags     = "tags"

	// TagSeparator joins tags inside one cell. Export writes the same.
	TagSeparator = "|"
)

var required = []string{colDate, colAmount, colCategory, colAccount}

// aliases maps header cells, lowercased, to column names. The Chinese
// headers are what the mobile app writes.
var aliases = map[string]string{
	"date": colDate, "日期": colDate,
	"time": colTime, "时间": colTime,
	"type": colType, "类型": colType, "收支类型": colType,
	"amount": colAmount, "金额": colAmount,
	"category": colCategory, "分类": colCategory,
	"account": colAccount, "账户": colAccount,
	"remark": colRemark, "note": colRemark, "备注": colRemark,
	"tags": colTags, "标签": colTags,
}

var types = map[string]record.Type{
	"income": record.TypeIncome, "收入": record.TypeIncome,
	"expense": record.TypeExpense, "支出": record.TypeExpense,
}

const dateLayout = "2006-01-02"

var dateLayouts = []string{dateLayout, "2006/1/2", "2006.1.2", "2006-1-2"}

// Draft is a parsed row whose category and account are still names.
type Draft struct {
	Line     int         `json:"line"`
	Date     string      `json:"date"`
	Time     string      `json:"time,omitempty"`
	Type     record.Type `json:"type"`
	Amount   int64       `json:"amount"`
	Category string      `json:"category"`
	Account  string      `json:"account"`
	Remark   string      `json:"remark,omitempty"`
	Tags     []string    `json:"tags"`
}

// Parser reads record CSV files. The separator is ',' or ';', picked from the
// header line.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse returns every data row as a draft. Rows that fail to parse are
// reported together in one ValidationError; blank rows are skipped.
func (p *Parser) Parse(r io.Reader) ([]Draft, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detecting encoding: %w", err)
	}

	content, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = separator(content)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperr.Invalid("import", apperr.Reason{Field: "file", Rule: "csv", Message: err.Error()})
	}

	if len(rows) == 0 {
		return nil, apperr.Invalid("import", apperr.Reason{Field: "file", Rule: "required", Message: "is empty"})
	}

	cols, missing := header(rows[0])
	if len(missing) > 0 {
		return nil, apperr.Invalid("import", apperr.Reason{
			Field:   "header",
			Rule:    "required",
			Message: "missing columns " + strings.Join(missing, ", "),
		})
	}

	var (
		drafts  []Draft
		reasons []apperr.Reason
	)

	for i, row := range rows[1:] {
		line := i + 2
		if blank(row) {
			continue
		}

		d, err := parseRow(cols, row)
		if err != nil {
			reasons = append(reasons, apperr.Reason{
				Field:   fmt.Sprintf("line %d", line),
				Rule:    "format",
				Message: err.Error(),
			})

			continue
		}

		d.Line = line
		drafts = append(drafts, d)
	}

	if len(reasons) > 0 {
		return nil, apperr.Invalid("import", reasons...)
	}

	return drafts, nil
}

func separator(content []byte) rune {
	first, _, _ := bytes.Cut(content, []byte("\n"))
	if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		return ';'
	}

	return ','
}

// colIndex maps column names to their position in a row.
type colIndex map[string]int

func header(row []string) (colIndex, []string) {
	cols := make(colIndex)

	for i, cell := range row {
		name, ok := aliases[strings.ToLower(strings.TrimSpace(cell))]
		if !ok {
			continue
		}

		if _, seen := cols[name]; !seen {
			cols[name] = i
		}
	}

	var missing []string

	for _, name := range required {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}

	return cols, missing
}

func (c colIndex) value(row []string, name string) string {
	idx, ok := c[name]
	if !ok || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

func parseRow(cols colIndex, row []string) (Draft, error) {
	date, err := parseDate(cols.value(row, colDate))
	if err != nil {
		return Draft{}, err
	}

	amount, negative, err := ParseAmount(cols.value(row, colAmount))
	if err != nil {
		return Draft{}, err
	}

	t, err := parseType(cols.value(row, colType), negative)
	if err != nil {
		return Draft{}, err
	}

	d := Draft{
		Date:     date,
		Time:     cols.value(row, colTime),
		Type:     t,
		Amount:   amount,
		Category: cols.value(row, colCategory),
		Account:  cols.value(row, colAccount),
		Remark:   cols.value(row, colRemark),
		Tags:     splitTags(cols.value(row, colTags)),
	}

	if d.Category == "" {
		return Draft{}, errors.New("category is required")
	}

	if d.Account == "" {
		return Draft{}, errors.New("account is required")
	}

	return d, nil
}

func parseDate(s string) (string, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(dateLayout), nil
		}
	}

	return "", fmt.Errorf("unrecognised date %q", s)
}

// parseType reads the type cell. An empty cell takes the type from the sign
// of the amount.
func parseType(s string, negative bool) (record.Type, error) {
	if s == "" {
		if negative {
			return record.TypeExpense, nil
		}

		return record.TypeIncome, nil
	}

	t, ok := types[strings.ToLower(s)]
	if !ok {
		return "", fmt.Errorf("unknown type %q", s)
	}

	return t, nil
}

// ParseAmount converts a decimal amount in major units to minor units.
// Either '.' or ',' may be the decimal mark; when both appear the last one is
// the decimal mark and the other groups thousands. The result is never
// negative; negative reports the sign that was written.
func ParseAmount(s string) (amount int64, negative bool, err error) {
	clean := strings.NewReplacer(" ", "", "\u00a0", "", "¥", "", "￥", "", "€", "", "$", "").Replace(s)

	dot, comma := strings.LastIndex(clean, "."), strings.LastIndex(clean, ",")

	switch {
	case dot >= 0 && comma > dot:
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.Replace(clean, ",", ".", 1)
	case comma >= 0 && dot > comma:
		clean = strings.ReplaceAll(clean, ",", "")
	case comma >= 0:
		clean = strings.Replace(clean, ",", ".", 1)
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, false, fmt.Errorf("unrecognised amount %q", s)
	}

	cents := d.Shift(2).Round(0).IntPart()
	if cents == 0 {
		return 0, false, fmt.Errorf("amount %q is zero", s)
	}

	if cents < 0 {
		return -cents, true, nil
	}

	return cents, false, nil
}

func splitTags(s string) []string {
	tags := []string{}

	for tag := range strings.SplitSeq(s, TagSeparator) {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	return tags
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}
