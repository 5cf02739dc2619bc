package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/inventory-orders/internal/model"
)

func receivedOrder(number int64) model.Order {
	o := placedOrder(number)
	o.Status = model.OrderStatusReceived
	for i := range o.Lines {
		o.Lines[i].QuantityReceived = o.Lines[i].QuantityOrdered
	}
	return o
}

func newTestCashier(t *testing.T, store *memStore) *Cashier {
	t.Helper()

	c := NewCashier(store, time.Second, nil, nil)
	c.now = func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestPaySupplier_Scenario(t *testing.T) {
	store := newMemStore()
	store.put(receivedOrder(3))
	c := newTestCashier(t, store)
	ctx := context.Background()

	poor, err := c.CreateBankAccount(ctx, model.BankAccount{
		Owner: "s1", BankName: "SBI Bank", AccountNumber: "1234567890", BackupAmount: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)
	rich, err := c.CreateBankAccount(ctx, model.BankAccount{
		Owner: "s1", BankName: "SBI Bank", AccountNumber: "1234567891", BackupAmount: decimal.NewFromInt(5000),
	})
	require.NoError(t, err)

	_, err = c.PaySupplier(ctx, "s1", 3, poor.ID)
	require.ErrorIs(t, err, model.ErrInsufficientFunds)

	p, err := c.PaySupplier(ctx, "s1", 3, rich.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), p.OrderNumber)
	assert.Equal(t, int64(7), p.SupplierID)
	assert.Equal(t, rich.ID, p.AccountID)
	assert.True(t, p.Amount.Equal(decimal.NewFromInt(1200)), "amount = %s", p.Amount)
	assert.True(t, p.Balance.Equal(decimal.NewFromInt(3800)), "balance = %s", p.Balance)
	assert.Equal(t, time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC), p.PaidAt)

	_, err = c.PaySupplier(ctx, "s1", 3, rich.ID)
	require.ErrorIs(t, err, model.ErrAlreadyPaid)

	accounts, err := c.ListBankAccounts(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.True(t, accounts[0].BackupAmount.Equal(decimal.NewFromInt(1000)))
	assert.True(t, accounts[1].BackupAmount.Equal(decimal.NewFromInt(3800)))

	payments, err := c.ListPayments(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestPaySupplier_RequiresReceivedOrder(t *testing.T) {
	store := newMemStore()
	store.put(placedOrder(3))
	c := newTestCashier(t, store)
	ctx := context.Background()

	a, err := c.CreateBankAccount(ctx, model.BankAccount{
		Owner: "s1", BankName: "SBI Bank", AccountNumber: "1", BackupAmount: decimal.NewFromInt(5000),
	})
	require.NoError(t, err)

	_, err = c.PaySupplier(ctx, "s1", 3, a.ID)
	assert.ErrorIs(t, err, model.ErrOrderNotReceived)

	_, err = c.PaySupplier(ctx, "s1", 404, a.ID)
	assert.ErrorIs(t, err, model.ErrOrderNotFound)

	accounts, err := c.ListBankAccounts(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, accounts[0].BackupAmount.Equal(decimal.NewFromInt(5000)))
}

func TestPaySupplier_DefaultAccount(t *testing.T) {
	store := newMemStore()
	store.put(receivedOrder(3))
	c := newTestCashier(t, store)
	ctx := context.Background()

	_, err := c.PaySupplier(ctx, "s1", 3, 0)
	require.ErrorIs(t, err, model.ErrBankAccountNotFound)

	first, err := c.CreateBankAccount(ctx, model.BankAccount{
		Owner: "s1", BankName: "SBI Bank", AccountNumber: "1", BackupAmount: decimal.NewFromInt(2000),
	})
	require.NoError(t, err)
	_, err = c.CreateBankAccount(ctx, model.BankAccount{
		Owner: "s1", BankName: "HDFC", AccountNumber: "2", BackupAmount: decimal.NewFromInt(9000),
	})
	require.NoError(t, err)

	p, err := c.PaySupplier(ctx, "s1", 3, 0)
	require.NoError(t, err)
	assert.Equal(t, first.ID, p.AccountID)
}

func TestPaySupplier_ForeignAccount(t *testing.T) {
	store := newMemStore()
	store.put(receivedOrder(3))
	c := newTestCashier(t, store)
	ctx := context.Background()

	theirs, err := c.CreateBankAccount(ctx, model.BankAccount{
		Owner: "s2", BankName: "SBI Bank", AccountNumber: "1", BackupAmount: decimal.NewFromInt(5000),
	})
	require.NoError(t, err)

	_, err = c.PaySupplier(ctx, "s1", 3, theirs.ID)
	assert.ErrorIs(t, err, model.ErrBankAccountNotFound)

	assert.ErrorIs(t, c.DeleteBankAccount(ctx, "s1", theirs.ID), model.ErrBankAccountNotFound)
	theirs.Owner = "s1"
	assert.ErrorIs(t, c.UpdateBankAccount(ctx, theirs), model.ErrBankAccountNotFound)
}

func TestPaySupplier_StoreFailureIsSubmissionError(t *testing.T) {
	store := newMemStore()
	store.put(receivedOrder(3))
	store.payErr = errors.New("connection reset")
	c := newTestCashier(t, store)

	_, err := c.PaySupplier(context.Background(), "s1", 3, 1)
	assert.ErrorIs(t, err, model.ErrSubmission)
}

func TestBankAccount_Validation(t *testing.T) {
	tests := []struct {
		name    string
		account model.BankAccount
	}{
		{
			name:    "blank bank name",
			account: model.BankAccount{Owner: "s1", BankName: "  ", AccountNumber: "1"},
		},
		{
			name:    "empty account number",
			account: model.BankAccount{Owner: "s1", BankName: "SBI Bank"},
		},
		{
			name:    "negative backup amount",
			account: model.BankAccount{Owner: "s1", BankName: "SBI Bank", AccountNumber: "1", BackupAmount: decimal.NewFromInt(-1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			c := newTestCashier(t, store)

			_, err := c.CreateBankAccount(context.Background(), tt.account)
			assert.ErrorIs(t, err, model.ErrInvalidBankAccount)

			tt.account.ID = 1
			assert.ErrorIs(t, c.UpdateBankAccount(context.Background(), tt.account), model.ErrInvalidBankAccount)
			assert.Zero(t, store.nextAccount)
		})
	}
}

func TestBankAccount_UpdateAndDelete(t *testing.T) {
	store := newMemStore()
	c := newTestCashier(t, store)
	ctx := context.Background()

	a, err := c.CreateBankAccount(ctx, model.BankAccount{
		Owner: "s1", BankName: " SBI Bank ", AccountNumber: "1", BackupAmount: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.Equal(t, "SBI Bank", a.BankName)

	a.BackupAmount = decimal.NewFromInt(20)
	require.NoError(t, c.UpdateBankAccount(ctx, a))

	accounts, err := c.ListBankAccounts(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.True(t, accounts[0].BackupAmount.Equal(decimal.NewFromInt(20)))

	require.NoError(t, c.DeleteBankAccount(ctx, "s1", a.ID))
	accounts, err = c.ListBankAccounts(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, accounts)
}
