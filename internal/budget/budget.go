package budget

import (
	"math"
	"time"

	"github.com/MrJamesThe3rd/mochi/internal/apperr"
	"github.com/MrJamesThe3rd/mochi/internal/docstore"
	"github.com/MrJamesThe3rd/mochi/internal/validate"
)

const (
	DateLayout            = "2006-01-02"
	DefaultAlertThreshold = 80
)

// Type selects which expenses count against a budget.
type Type string

const (
	TypeTotal    Type = "total"
	TypeCategory Type = "category"
	TypeAccount  Type = "account"
)

type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

type Budget struct {
	docstore.Meta
	Name string `json:"name" validate:"required,max=20"`
	Type Type   `json:"type" validate:"oneof=total category account"`
	// TargetID is the category or account id; total budgets have none.
	TargetID       string `json:"targetId,omitempty"`
	Amount         int64  `json:"amount" validate:"gt=0"`
	Period         Period `json:"period" validate:"oneof=weekly monthly yearly"`
	StartDate      string `json:"startDate" validate:"datetime=2006-01-02"`
	EndDate        string `json:"endDate" validate:"datetime=2006-01-02"`
	Spent          int64  `json:"spent" validate:"gte=0"`
	IsEnabled      bool   `json:"isEnabled"`
	AlertThreshold int    `json:"alertThreshold" validate:"gte=0,lte=100"`
}

func (b Budget) Validate() error {
	var extra []apperr.Reason

	if b.Type != TypeTotal && b.TargetID == "" {
		extra = append(extra, apperr.Reason{Field: "targetId", Rule: "required", Message: "is required for " + string(b.Type) + " budgets"})
	}

	if b.StartDate != "" && b.EndDate != "" && b.StartDate >= b.EndDate {
		extra = append(extra, apperr.Reason{Field: "endDate", Rule: "gtfield", Message: "must be after startDate"})
	}

	return validate.Struct("budget", b, extra...)
}

// Active reports whether b is enabled and today falls inside its window.
func (b Budget) Active(today string) bool {
	return b.IsEnabled && b.StartDate <= today && today <= b.EndDate
}

// Usage is spent as a rounded percentage of amount, or 0 for a zero amount.
func (b Budget) Usage() int {
	if b.Amount <= 0 {
		return 0
	}

	return int(math.Round(float64(b.Spent) / float64(b.Amount) * 100))
}

func (b Budget) IsOverSpent() bool { return b.Spent > b.Amount }

func (b Budget) NeedsAlert() bool {
	return b.IsOverSpent() || b.Usage() >= b.AlertThreshold
}

// Status derives the budget's standing at now.
func (b Budget) Status(now time.Time) Status {
	usage := b.Usage()

	return Status{
		BudgetID:        b.ID,
		BudgetName:      b.Name,
		Amount:          b.Amount,
		Spent:           b.Spent,
		Remaining:       max(0, b.Amount-b.Spent),
		UsagePercentage: usage,
		IsOverSpent:     b.IsOverSpent(),
		IsNearLimit:     usage >= b.AlertThreshold,
		DaysLeft:        daysLeft(b.EndDate, now),
	}
}

func daysLeft(endDate string, now time.Time) int {
	end, err := time.Parse(DateLayout, endDate)
	if err != nil {
		return 0
	}

	days := math.Ceil(end.Sub(now).Hours() / 24)

	return max(0, int(days))
}

type Patch struct {
	Name           *string `json:"name,omitempty"`
	Amount         *int64  `json:"amount,omitempty"`
	Period         *Period `json:"period,omitempty"`
	StartDate      *string `json:"startDate,omitempty"`
	EndDate        *string `json:"endDate,omitempty"`
	IsEnabled      *bool   `json:"isEnabled,omitempty"`
	AlertThreshold *int    `json:"alertThreshold,omitempty"`
}

func (b Budget) Apply(p Patch) (Budget, error) {
	next := b

	if p.Name != nil {
		next.Name = *p.Name
	}

	if p.Amount != nil {
		next.Amount = *p.Amount
	}

	if p.Period != nil {
		next.Period = *p.Period
	}

	if p.StartDate != nil {
		next.StartDate = *p.StartDate
	}

	if p.EndDate != nil {
		next.EndDate = *p.EndDate
	}

	if p.IsEnabled != nil {
		next.IsEnabled = *p.IsEnabled
	}

	if p.AlertThreshold != nil {
		next.AlertThreshold = *p.AlertThreshold
	}

	if err := next.Validate(); err != nil {
		return b, err
	}

	return next, nil
}

type Status struct {
	BudgetID        string `json:"budgetId"`
	BudgetName      string `json:"budgetName"`
	Amount          int64  `json:"amount"`
	Spent           int64  `json:"spent"`
	Remaining       int64  `json:"remaining"`
	UsagePercentage int    `json:"usagePercentage"`
	IsOverSpent     bool   `json:"isOverSpent"`
	IsNearLimit     bool   `json:"isNearLimit"`
	DaysLeft        int    `json:"daysLeft"`
}

type Stats struct {
	TotalBudgets           int   `json:"totalBudgets"`
	ActiveBudgets          int   `json:"activeBudgets"`
	OverSpentBudgets       int   `json:"overSpentBudgets"`
	TotalBudgetAmount      int64 `json:"totalBudgetAmount"`
	TotalSpentAmount       int64 `json:"totalSpentAmount"`
	OverallUsagePercentage int   `json:"overallUsagePercentage"`
}
