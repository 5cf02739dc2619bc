package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/inventory-orders/internal/metrics"
	"github.com/mmeshcher/inventory-orders/internal/model"
)

// PaymentStore описывает хранилище счетов заказчиков и оплат.
type PaymentStore interface {
	ListBankAccounts(ctx context.Context, owner string) ([]model.BankAccount, error)
	CreateBankAccount(ctx context.Context, a model.BankAccount) (model.BankAccount, error)
	UpdateBankAccount(ctx context.Context, a model.BankAccount) error
	DeleteBankAccount(ctx context.Context, owner string, id int64) error
	// PaySupplier в одной транзакции проверяет, что заказ принят и ещё не оплачен,
	// списывает его сумму со счёта p.AccountID владельца p.Owner и сохраняет оплату.
	// Возвращает оплату с заполненными SupplierID, Amount и Balance.
	PaySupplier(ctx context.Context, p model.Payment) (model.Payment, error)
	ListPayments(ctx context.Context, owner string) ([]model.Payment, error)
}

// Cashier ведёт счета заказчиков и оплачивает поставщикам принятые заказы.
type Cashier struct {
	store   PaymentStore
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewCashier создаёт Cashier. timeout ограничивает каждое обращение к хранилищу.
func NewCashier(store PaymentStore, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) *Cashier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cashier{
		store:   store,
		timeout: timeout,
		now:     time.Now,
		logger:  logger,
		metrics: m,
	}
}

// ListBankAccounts возвращает счета владельца.
func (c *Cashier) ListBankAccounts(ctx context.Context, owner string) ([]model.BankAccount, error) {
	storeCtx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	accounts, err := c.store.ListBankAccounts(storeCtx, owner)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrFetch, err)
	}
	return accounts, nil
}

// CreateBankAccount добавляет счёт владельцу a.Owner.
func (c *Cashier) CreateBankAccount(ctx context.Context, a model.BankAccount) (model.BankAccount, error) {
	a.BankName = strings.TrimSpace(a.BankName)
	if err := checkAccount(a); err != nil {
		return model.BankAccount{}, err
	}

	storeCtx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	created, err := c.store.CreateBankAccount(storeCtx, a)
	if err != nil {
		return model.BankAccount{}, fmt.Errorf("%w: %w", model.ErrSubmission, err)
	}
	return created, nil
}

// UpdateBankAccount изменяет счёт владельца a.Owner.
func (c *Cashier) UpdateBankAccount(ctx context.Context, a model.BankAccount) error {
	a.BankName = strings.TrimSpace(a.BankName)
	if err := checkAccount(a); err != nil {
		return err
	}

	storeCtx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	return storeError(c.store.UpdateBankAccount(storeCtx, a))
}

// DeleteBankAccount удаляет счёт владельца. Проведённые оплаты сохраняются.
func (c *Cashier) DeleteBankAccount(ctx context.Context, owner string, id int64) error {
	storeCtx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	return storeError(c.store.DeleteBankAccount(storeCtx, owner, id))
}

// PaySupplier оплачивает поставщику принятый заказ со счёта владельца.
// Нулевой accountID выбирает первый счёт владельца.
func (c *Cashier) PaySupplier(ctx context.Context, owner string, orderNo, accountID int64) (model.Payment, error) {
	p, err := c.paySupplier(ctx, owner, orderNo, accountID)
	if err != nil {
		c.metrics.OrderFailed("pay", reason(err))
		return model.Payment{}, err
	}

	c.metrics.PaymentMade()
	c.logger.Info("supplier paid",
		zap.Int64("order", p.OrderNumber),
		zap.Int64("supplier", p.SupplierID),
		zap.Int64("account", p.AccountID),
		zap.String("amount", p.Amount.StringFixed(2)),
	)
	return p, nil
}

func (c *Cashier) paySupplier(ctx context.Context, owner string, orderNo, accountID int64) (model.Payment, error) {
	if accountID == 0 {
		accounts, err := c.ListBankAccounts(ctx, owner)
		if err != nil {
			return model.Payment{}, err
		}
		if len(accounts) == 0 {
			return model.Payment{}, fmt.Errorf("%w: owner has no accounts", model.ErrBankAccountNotFound)
		}
		accountID = accounts[0].ID
	}

	storeCtx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	p, err := c.store.PaySupplier(storeCtx, model.Payment{
		OrderNumber: orderNo,
		AccountID:   accountID,
		Owner:       owner,
		PaidAt:      c.now().UTC(),
	})
	if err != nil {
		return model.Payment{}, storeError(err)
	}
	return p, nil
}

// ListPayments возвращает оплаты владельца.
func (c *Cashier) ListPayments(ctx context.Context, owner string) ([]model.Payment, error) {
	storeCtx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	payments, err := c.store.ListPayments(storeCtx, owner)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrFetch, err)
	}
	return payments, nil
}

func checkAccount(a model.BankAccount) error {
	if a.BankName == "" {
		return fmt.Errorf("%w: bank name is empty", model.ErrInvalidBankAccount)
	}
	if a.AccountNumber == "" {
		return fmt.Errorf("%w: account number is empty", model.ErrInvalidBankAccount)
	}
	if a.BackupAmount.IsNegative() {
		return fmt.Errorf("%w: backup amount %s is negative", model.ErrInvalidBankAccount, a.BackupAmount)
	}
	return nil
}

// storeError сохраняет доменные ошибки хранилища и помечает остальные как сбой записи.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{
		model.ErrBankAccountNotFound,
		model.ErrOrderNotFound,
		model.ErrOrderNotReceived,
		model.ErrAlreadyPaid,
		model.ErrInsufficientFunds,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", model.ErrSubmission, err)
}
