package datainit

import (
	"github.com/MrJamesThe3rd/mochi/internal/account"
	"github.com/MrJamesThe3rd/mochi/internal/category"
	"github.com/MrJamesThe3rd/mochi/internal/record"
)

type seed struct {
	name, icon, color string
}

var expenseSeeds = []seed{
	{"Dining", "food", "#FF6B6B"},
	{"Transport", "transport", "#4ECDC4"},
	{"Shopping", "shopping", "#45B7D1"},
	{"Entertainment", "entertainment", "#96CEB4"},
	{"Medical", "medical", "#FFEAA7"},
	{"Education", "education", "#DDA0DD"},
	{"Housing", "housing", "#98D8C8"},
	{"Communication", "communication", "#F8BBD0"},
	{"Clothing", "clothing", "#C5E1A5"},
	{"Beauty", "beauty", "#FFCDD2"},
	{"Sports", "sports", "#B3E5FC"},
	{"Travel", "travel", "#D1C4E9"},
	{"Pets", "pet", "#FFE0B2"},
	{"Gifts", "gift", "#F8C4B4"},
	{"Other", "other", "#E0E0E0"},
}

var incomeSeeds = []seed{
	{"Salary", "salary", "#58D68D"},
	{"Bonus", "bonus", "#82E0AA"},
	{"Investment", "investment", "#A9DFBF"},
	{"Part-time", "parttime", "#D5F4E6"},
	{"Gift Money", "gift-money", "#85C1E9"},
	{"Dividends", "dividend", "#A9D3AB"},
	{"Rent", "rent", "#C7E9B4"},
	{"Refunds", "refund", "#B8E6B8"},
	{"Other", "other", "#E8F5E8"},
}

// DefaultCategories are the system categories seeded on first run, expenses first.
func DefaultCategories() []category.Category {
	cats := make([]category.Category, 0, len(expenseSeeds)+len(incomeSeeds))

	add := func(seeds []seed, t record.Type) {
		for _, s := range seeds {
			cats = append(cats, category.Category{
				Name:      s.name,
				Type:      t,
				Icon:      s.icon,
				Color:     s.color,
				Order:     len(cats),
				IsSystem:  true,
				IsEnabled: true,
			})
		}
	}

	add(expenseSeeds, record.TypeExpense)
	add(incomeSeeds, record.TypeIncome)

	return cats
}

// DefaultAccounts are the accounts seeded on first run, all with a zero balance.
func DefaultAccounts() []account.Account {
	seeds := []struct {
		seed
		t account.Type
	}{
		{seed{"Cash", "paid", "#2ECC71"}, account.TypeCash},
		{seed{"Bank Card", "card", "#3498DB"}, account.TypeBankCard},
		{seed{"Alipay", "alipay", "#1890FF"}, account.TypeAlipay},
		{seed{"WeChat", "wechat", "#52C41A"}, account.TypeWechat},
		{seed{"Credit Card", "credit-card", "#F39C12"}, account.TypeCreditCard},
	}

	accounts := make([]account.Account, len(seeds))
	for i, s := range seeds {
		accounts[i] = account.Account{
			Name:      s.name,
			Type:      s.t,
			Icon:      s.icon,
			Color:     s.color,
			Order:     i,
			IsEnabled: true,
		}
	}

	return accounts
}
