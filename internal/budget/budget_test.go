package budget_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/mochi/internal/apperr"
	"github.com/MrJamesThe3rd/mochi/internal/budget"
)

func TestBudget_Status(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		budget budget.Budget
		want   budget.Status
	}{
		{
			name:   "ZeroAmount",
			budget: budget.Budget{Amount: 0, Spent: 50, AlertThreshold: 80, EndDate: "2024-01-31"},
			want:   budget.Status{Amount: 0, Spent: 50, Remaining: 0, UsagePercentage: 0, IsOverSpent: true, DaysLeft: 21},
		},
		{
			name:   "OverSpent",
			budget: budget.Budget{Amount: 1000, Spent: 1500, AlertThreshold: 80, EndDate: "2024-01-31"},
			want:   budget.Status{Amount: 1000, Spent: 1500, Remaining: 0, UsagePercentage: 150, IsOverSpent: true, IsNearLimit: true, DaysLeft: 21},
		},
		{
			name:   "NearLimit",
			budget: budget.Budget{Amount: 1000, Spent: 805, AlertThreshold: 80, EndDate: "2024-01-11"},
			want:   budget.Status{Amount: 1000, Spent: 805, Remaining: 195, UsagePercentage: 81, IsNearLimit: true, DaysLeft: 1},
		},
		{
			name:   "Ended",
			budget: budget.Budget{Amount: 1000, Spent: 100, AlertThreshold: 80, EndDate: "2024-01-01"},
			want:   budget.Status{Amount: 1000, Spent: 100, Remaining: 900, UsagePercentage: 10, DaysLeft: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.budget.Status(now))
		})
	}
}

func TestBudget_Validate(t *testing.T) {
	valid := budget.Budget{
		Name:           "Food",
		Type:           budget.TypeCategory,
		TargetID:       "c1",
		Amount:         1000,
		Period:         budget.PeriodMonthly,
		StartDate:      "2024-01-01",
		EndDate:        "2024-01-31",
		AlertThreshold: budget.DefaultAlertThreshold,
	}

	assert.NoError(t, valid.Validate())

	noTarget := valid
	noTarget.TargetID = ""
	assert.ErrorIs(t, noTarget.Validate(), apperr.ErrValidation)

	total := noTarget
	total.Type = budget.TypeTotal
	assert.NoError(t, total.Validate())

	backwards := valid
	backwards.StartDate, backwards.EndDate = backwards.EndDate, backwards.StartDate
	assert.ErrorIs(t, backwards.Validate(), apperr.ErrValidation)

	threshold := valid
	threshold.AlertThreshold = 120
	assert.ErrorIs(t, threshold.Validate(), apperr.ErrValidation)
}

func TestBudget_Active(t *testing.T) {
	b := budget.Budget{StartDate: "2024-01-01", EndDate: "2024-01-31", IsEnabled: true}

	assert.True(t, b.Active("2024-01-01"))
	assert.True(t, b.Active("2024-01-31"))
	assert.False(t, b.Active("2024-02-01"))

	b.IsEnabled = false
	assert.False(t, b.Active("2024-01-15"))
}
