package record

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/MrJamesThe3rd/mochi/internal/docstore"
	"github.com/MrJamesThe3rd/mochi/internal/validate"
)

// Type is the direction of money for a record. Categories share it.
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

func (t Type) Valid() bool { return t == TypeIncome || t == TypeExpense }

// State is the lifecycle of a record. It is stored as the isDeleted flag.
type State uint8

const (
	Active State = iota
	Trashed
)

func (s State) String() string {
	if s == Trashed {
		return "trashed"
	}

	return "active"
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s == Trashed)
}

func (s *State) UnmarshalJSON(b []byte) error {
	var deleted bool
	if err := json.Unmarshal(b, &deleted); err != nil {
		return fmt.Errorf("decoding record state: %w", err)
	}

	*s = Active
	if deleted {
		*s = Trashed
	}

	return nil
}

// Record is a single income or expense entry. Amount is in minor units.
type Record struct {
	docstore.Meta
	Type       Type     `json:"type" validate:"oneof=income expense"`
	Amount     int64    `json:"amount" validate:"gt=0"`
	CategoryID string   `json:"categoryId" validate:"required"`
	AccountID  string   `json:"accountId" validate:"required"`
	Date       string   `json:"date" validate:"datetime=2006-01-02"`
	Time       string   `json:"time,omitempty" validate:"omitempty,datetime=15:04"`
	Remark     string   `json:"remark,omitempty" validate:"max=100"`
	Tags       []string `json:"tags"`
	State      State    `json:"isDeleted"`
}

func (r Record) Validate() error {
	return validate.Struct("record", r)
}

func (r Record) IsTrashed() bool { return r.State == Trashed }

// Signed is the amount as it affects a balance: negative for expenses.
func (r Record) Signed() int64 {
	if r.Type == TypeExpense {
		return -r.Amount
	}

	return r.Amount
}

// Patch lists the fields a record update may change. Type is absent: a record
// keeps its type for life.
type Patch struct {
	Amount     *int64    `json:"amount,omitempty"`
	CategoryID *string   `json:"categoryId,omitempty"`
	AccountID  *string   `json:"accountId,omitempty"`
	Date       *string   `json:"date,omitempty"`
	Time       *string   `json:"time,omitempty"`
	Remark     *string   `json:"remark,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
}

// Apply returns a copy of r with p applied, or the reasons it is invalid.
func (r Record) Apply(p Patch) (Record, error) {
	next := r
	next.Tags = slices.Clone(r.Tags)

	if p.Amount != nil {
		next.Amount = *p.Amount
	}

	if p.CategoryID != nil {
		next.CategoryID = *p.CategoryID
	}

	if p.AccountID != nil {
		next.AccountID = *p.AccountID
	}

	if p.Date != nil {
		next.Date = *p.Date
	}

	if p.Time != nil {
		next.Time = *p.Time
	}

	if p.Remark != nil {
		next.Remark = *p.Remark
	}

	if p.Tags != nil {
		next.Tags = slices.Clone(*p.Tags)
	}

	if next.Tags == nil {
		next.Tags = []string{}
	}

	if err := next.Validate(); err != nil {
		return r, err
	}

	return next, nil
}

// DateRange is inclusive on both ends. Dates are YYYY-MM-DD strings, which
// order correctly as strings.
type DateRange struct {
	Start string `json:"startDate"`
	End   string `json:"endDate"`
}

func (d DateRange) Contains(date string) bool {
	return date >= d.Start && date <= d.End
}

type Stats struct {
	TotalIncome  int64 `json:"totalIncome"`
	TotalExpense int64 `json:"totalExpense"`
	Balance      int64 `json:"balance"`
	Count        int   `json:"count"`
}

// DayGroup is the records of one day with their totals.
type DayGroup struct {
	Date         string   `json:"date"`
	Records      []Record `json:"records"`
	TotalIncome  int64    `json:"totalIncome"`
	TotalExpense int64    `json:"totalExpense"`
	Balance      int64    `json:"balance"`
}

// GroupStat sums the records sharing one category or account.
type GroupStat struct {
	ID          string `json:"id"`
	TotalAmount int64  `json:"totalAmount"`
	Count       int    `json:"count"`
}
