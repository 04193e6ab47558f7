package account_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/mochi/internal/account"
	"github.com/MrJamesThe3rd/mochi/internal/apperr"
	"github.com/MrJamesThe3rd/mochi/internal/database/dbtest"
	"github.com/MrJamesThe3rd/mochi/internal/record"
)

func acct(name string, t account.Type, balance int64) account.Account {
	return account.Account{
		Name:      name,
		Type:      t,
		Icon:      "card",
		Color:     "#3498DB",
		Balance:   balance,
		IsEnabled: true,
	}
}

func setup(t *testing.T) (*account.Repository, *record.Repository) {
	t.Helper()

	store := dbtest.Open(t)

	return account.NewRepository(store), record.NewRepository(store)
}

func balance(t *testing.T, repo *account.Repository, id string) int64 {
	t.Helper()

	a, found, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	require.True(t, found)

	return a.Balance
}

func TestRepository_Transfer(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		fromType account.Type
		fromBal  int64
		amount   int64
		sameID   bool
		wantErr  error
		wantFrom int64
		wantTo   int64
	}{
		{name: "Success", fromType: account.TypeCash, fromBal: 1000, amount: 400, wantFrom: 600, wantTo: 400},
		{name: "ExactBalance", fromType: account.TypeBankCard, fromBal: 400, amount: 400, wantFrom: 0, wantTo: 400},
		{name: "Insufficient", fromType: account.TypeCash, fromBal: 100, amount: 400, wantErr: apperr.ErrIntegrity, wantFrom: 100},
		{name: "CreditCardGoesNegative", fromType: account.TypeCreditCard, fromBal: 0, amount: 400, wantFrom: -400, wantTo: 400},
		{name: "ZeroAmount", fromType: account.TypeCash, fromBal: 1000, amount: 0, wantErr: apperr.ErrValidation, wantFrom: 1000},
		{name: "SameAccount", fromType: account.TypeCash, fromBal: 1000, amount: 10, sameID: true, wantErr: apperr.ErrValidation, wantFrom: 1000, wantTo: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, _ := setup(t)

			from, err := repo.Create(ctx, acct("From", tt.fromType, tt.fromBal))
			require.NoError(t, err)

			to, err := repo.Create(ctx, acct("To", account.TypeCash, 0))
			require.NoError(t, err)

			toID := to.ID
			if tt.sameID {
				toID = from.ID
			}

			err = repo.Transfer(ctx, from.ID, toID, tt.amount)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.wantFrom, balance(t, repo, from.ID))

			if !tt.sameID {
				assert.Equal(t, tt.wantTo, balance(t, repo, to.ID))
			}
		})
	}
}

func TestRepository_TransferMissingAccount(t *testing.T) {
	ctx := context.Background()
	repo, _ := setup(t)

	from, err := repo.Create(ctx, acct("Cash", account.TypeCash, 500))
	require.NoError(t, err)

	err = repo.Transfer(ctx, from.ID, "ghost", 100)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, int64(500), balance(t, repo, from.ID))
}

func TestRepository_Totals(t *testing.T) {
	ctx := context.Background()
	repo, _ := setup(t)

	_, err := repo.CreateMany(ctx, []account.Account{
		acct("Cash", account.TypeCash, 1000),
		acct("Bank", account.TypeBankCard, 5000),
		acct("Card", account.TypeCreditCard, -1500),
	})
	require.NoError(t, err)

	disabled := acct("Old", account.TypeCash, 9999)
	disabled.IsEnabled = false

	_, err = repo.Create(ctx, disabled)
	require.NoError(t, err)

	assets, err := repo.TotalAssets(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6000), assets)

	debts, err := repo.TotalDebts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), debts)

	net, err := repo.NetAssets(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4500), net)
}

func TestRepository_SyncBalanceAndStats(t *testing.T) {
	ctx := context.Background()
	repo, records := setup(t)

	a, err := repo.Create(ctx, acct("Cash", account.TypeCash, 0))
	require.NoError(t, err)

	_, err = records.CreateMany(ctx, []record.Record{
		{Type: record.TypeIncome, Amount: 1000, CategoryID: "c1", AccountID: a.ID, Date: "2024-01-01"},
		{Type: record.TypeExpense, Amount: 300, CategoryID: "c2", AccountID: a.ID, Date: "2024-01-02"},
		{Type: record.TypeExpense, Amount: 50, CategoryID: "c2", AccountID: "other", Date: "2024-01-02"},
	})
	require.NoError(t, err)

	trashed, err := records.Create(ctx, record.Record{
		Type: record.TypeExpense, Amount: 200, CategoryID: "c2", AccountID: a.ID, Date: "2024-01-03",
	})
	require.NoError(t, err)

	_, err = records.SoftDelete(ctx, trashed.ID)
	require.NoError(t, err)

	synced, err := repo.SyncBalance(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(700), synced.Balance)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, account.Stats{
		AccountID:        a.ID,
		AccountName:      "Cash",
		TotalIncome:      1000,
		TotalExpense:     300,
		Balance:          700,
		TransactionCount: 2,
	}, stats[0])

	_, err = repo.SyncBalance(ctx, "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo, records := setup(t)

	used, err := repo.Create(ctx, acct("Used", account.TypeCash, 0))
	require.NoError(t, err)

	rec, err := records.Create(ctx, record.Record{
		Type: record.TypeExpense, Amount: 10, CategoryID: "c1", AccountID: used.ID, Date: "2024-01-01",
	})
	require.NoError(t, err)

	_, err = records.SoftDelete(ctx, rec.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, repo.Delete(ctx, used.ID), apperr.ErrIntegrity, "trashed records still hold the reference")
	assert.ErrorIs(t, repo.Delete(ctx, "ghost"), apperr.ErrNotFound)

	free, err := repo.Create(ctx, acct("Free", account.TypeCash, 0))
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, free.ID))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRepository_NamesAndUpdate(t *testing.T) {
	ctx := context.Background()
	repo, _ := setup(t)

	cash, err := repo.Create(ctx, acct("Cash", account.TypeCash, 0))
	require.NoError(t, err)

	_, err = repo.Create(ctx, acct("Cash", account.TypeBankCard, 0))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = repo.Create(ctx, acct("Bank", account.TypeBankCard, 0))
	require.NoError(t, err)

	_, _, err = repo.Update(ctx, cash.ID, account.Patch{Name: new("Bank")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	updated, found, err := repo.Update(ctx, cash.ID, account.Patch{
		Type:   new(account.TypeInvestment),
		Remark: new("brokerage"),
	})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, account.TypeInvestment, updated.Type)
	assert.Equal(t, "Cash", updated.Name)

	_, _, err = repo.Update(ctx, cash.ID, account.Patch{Type: new(account.Type("piggy"))})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, found, err = repo.Update(ctx, "ghost", account.Patch{Name: new("x")})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRepository_Finders(t *testing.T) {
	ctx := context.Background()
	repo, _ := setup(t)

	created, err := repo.CreateMany(ctx, []account.Account{
		acct("Cash", account.TypeCash, 0),
		acct("Wallet", account.TypeCash, 0),
		acct("Visa", account.TypeCreditCard, 0),
	})
	require.NoError(t, err)

	require.NoError(t, repo.UpdateOrder(ctx, []account.OrderUpdate{
		{ID: created[0].ID, Order: 3},
		{ID: created[1].ID, Order: 1},
	}))

	cash, err := repo.FindByType(ctx, account.TypeCash)
	require.NoError(t, err)
	require.Len(t, cash, 2)
	assert.Equal(t, "Wallet", cash[0].Name)

	toggled, err := repo.ToggleEnabled(ctx, created[2].ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsEnabled)

	enabled, err := repo.FindEnabled(ctx)
	require.NoError(t, err)
	assert.Len(t, enabled, 2)

	disabled, err := repo.FindByQuery(ctx, account.Query{IsEnabled: new(false)})
	require.NoError(t, err)
	require.Len(t, disabled, 1)
	assert.Equal(t, "Visa", disabled[0].Name)

	byKeyword, err := repo.FindByQuery(ctx, account.Query{Keyword: "all", Type: account.TypeCash})
	require.NoError(t, err)
	require.Len(t, byKeyword, 1)
	assert.Equal(t, "Wallet", byKeyword[0].Name)

	_, err = repo.ToggleEnabled(ctx, "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRepository_BalanceAdjustments(t *testing.T) {
	ctx := context.Background()
	repo, _ := setup(t)

	a, err := repo.Create(ctx, acct("Cash", account.TypeCash, 100))
	require.NoError(t, err)

	_, err = repo.IncreaseBalance(ctx, a.ID, 50)
	require.NoError(t, err)

	got, err := repo.DecreaseBalance(ctx, a.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(120), got.Balance)

	got, err = repo.SetBalance(ctx, a.ID, -5)
	require.NoError(t, err)
	assert.Equal(t, int64(-5), got.Balance)

	_, err = repo.IncreaseBalance(ctx, "ghost", 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
