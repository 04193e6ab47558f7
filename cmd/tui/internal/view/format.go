package view

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/mochi/internal/export"
)

const (
	dbTimeout  = 5 * time.Second
	dateLayout = "2006-01-02"
)

// FormatAmount formats an amount stored in minor units, e.g. 1250 as "12.50".
func FormatAmount(minor int64) string {
	return export.Amount(minor)
}

// ParseAmount reads a positive decimal amount typed by the user into minor units.
func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}

	if !d.IsPositive() {
		return 0, fmt.Errorf("must be greater than 0")
	}

	return d.Shift(2).Round(0).IntPart(), nil
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}

func validDate(s string) error {
	if _, err := time.Parse(dateLayout, s); err != nil {
		return fmt.Errorf("use YYYY-MM-DD")
	}

	return nil
}
