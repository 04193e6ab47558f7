package account

import (
	"github.com/MrJamesThe3rd/mochi/internal/docstore"
	"github.com/MrJamesThe3rd/mochi/internal/validate"
)

type Type string

const (
	TypeCash       Type = "cash"
	TypeBankCard   Type = "bank_card"
	TypeCreditCard Type = "credit_card"
	TypeAlipay     Type = "alipay"
	TypeWechat     Type = "wechat"
	TypeInvestment Type = "investment"
	TypeOther      Type = "other"
)

var Types = []Type{TypeCash, TypeBankCard, TypeCreditCard, TypeAlipay, TypeWechat, TypeInvestment, TypeOther}

// IsDebt reports whether balances of this type count as liabilities.
func (t Type) IsDebt() bool { return t == TypeCreditCard }

// Account holds money in minor units. Credit card balances may go negative.
type Account struct {
	docstore.Meta
	Name      string `json:"name" validate:"required,max=20"`
	Type      Type   `json:"type" validate:"oneof=cash bank_card credit_card alipay wechat investment other"`
	Icon      string `json:"icon"`
	Color     string `json:"color" validate:"len=7,hexcolor"`
	Balance   int64  `json:"balance"`
	IsEnabled bool   `json:"isEnabled"`
	Order     int    `json:"order" validate:"gte=0"`
	Remark    string `json:"remark,omitempty" validate:"max=100"`
}

func (a Account) Validate() error {
	return validate.Struct("account", a)
}

type Patch struct {
	Name      *string `json:"name,omitempty"`
	Type      *Type   `json:"type,omitempty"`
	Icon      *string `json:"icon,omitempty"`
	Color     *string `json:"color,omitempty"`
	Balance   *int64  `json:"balance,omitempty"`
	IsEnabled *bool   `json:"isEnabled,omitempty"`
	Order     *int    `json:"order,omitempty"`
	Remark    *string `json:"remark,omitempty"`
}

func (a Account) Apply(p Patch) (Account, error) {
	next := a

	if p.Name != nil {
		next.Name = *p.Name
	}

	if p.Type != nil {
		next.Type = *p.Type
	}

	if p.Icon != nil {
		next.Icon = *p.Icon
	}

	if p.Color != nil {
		next.Color = *p.Color
	}

	if p.Balance != nil {
		next.Balance = *p.Balance
	}

	if p.IsEnabled != nil {
		next.IsEnabled = *p.IsEnabled
	}

	if p.Order != nil {
		next.Order = *p.Order
	}

	if p.Remark != nil {
		next.Remark = *p.Remark
	}

	if err := next.Validate(); err != nil {
		return a, err
	}

	return next, nil
}

type OrderUpdate struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

// Stats sums the live records booked against one account.
type Stats struct {
	AccountID        string `json:"accountId"`
	AccountName      string `json:"accountName"`
	TotalIncome      int64  `json:"totalIncome"`
	TotalExpense     int64  `json:"totalExpense"`
	Balance          int64  `json:"balance"`
	TransactionCount int    `json:"transactionCount"`
}
