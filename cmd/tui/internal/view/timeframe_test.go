package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/mochi/internal/budget"
	"github.com/MrJamesThe3rd/mochi/internal/record"
)

func TestTimeframeToDateRange(t *testing.T) {
	// A Wednesday.
	now := time.Date(2024, time.March, 13, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		tf   Timeframe
		want *record.DateRange
	}{
		{name: "ThisWeek", tf: TimeframeThisWeek, want: &record.DateRange{Start: "2024-03-11", End: "2024-03-13"}},
		{name: "LastWeek", tf: TimeframeLastWeek, want: &record.DateRange{Start: "2024-03-04", End: "2024-03-10"}},
		{name: "ThisMonth", tf: TimeframeThisMonth, want: &record.DateRange{Start: "2024-03-01", End: "2024-03-13"}},
		{name: "LastMonth", tf: TimeframeLastMonth, want: &record.DateRange{Start: "2024-02-01", End: "2024-02-29"}},
		{name: "ThisYear", tf: TimeframeThisYear, want: &record.DateRange{Start: "2024-01-01", End: "2024-03-13"}},
		{name: "All", tf: TimeframeAll, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, timeframeToDateRange(tt.tf, now))
		})
	}
}

func TestTimeframeToDateRange_Sunday(t *testing.T) {
	sunday := time.Date(2024, time.March, 17, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, &record.DateRange{Start: "2024-03-11", End: "2024-03-17"}, timeframeToDateRange(TimeframeThisWeek, sunday))
}

func TestCustomRange(t *testing.T) {
	rng, err := customRange("2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, &record.DateRange{Start: "2024-01-01", End: "2024-01-31"}, rng)

	_, err = customRange("2024-02-01", "2024-01-31")
	assert.Error(t, err)

	_, err = customRange("Jan 1", "2024-01-31")
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	n, err := ParseAmount("12.5")
	require.NoError(t, err)
	assert.Equal(t, int64(1250), n)

	_, err = ParseAmount("0")
	assert.Error(t, err)

	_, err = ParseAmount("abc")
	assert.Error(t, err)

	assert.Equal(t, "12.50", FormatAmount(1250))
}

func TestPeriodWindow(t *testing.T) {
	now := time.Date(2024, time.February, 14, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		period budget.Period
		want   record.DateRange
	}{
		{period: budget.PeriodWeekly, want: record.DateRange{Start: "2024-02-12", End: "2024-02-18"}},
		{period: budget.PeriodMonthly, want: record.DateRange{Start: "2024-02-01", End: "2024-02-29"}},
		{period: budget.PeriodYearly, want: record.DateRange{Start: "2024-01-01", End: "2024-12-31"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			assert.Equal(t, tt.want, periodWindow(tt.period, now))
		})
	}
}

func TestNextTypeFilter(t *testing.T) {
	assert.Equal(t, record.TypeExpense, nextTypeFilter(""))
	assert.Equal(t, record.TypeIncome, nextTypeFilter(record.TypeExpense))
	assert.Equal(t, record.Type(""), nextTypeFilter(record.TypeIncome))
}
