package legacyapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/inventory-orders/internal/model"
)

// bankRecord разбирает позиционную запись счёта [id, bankName, accountNumber, backupAmount].
type bankRecord model.BankAccount

func (a *bankRecord) UnmarshalJSON(b []byte) error {
	var fields []json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return fmt.Errorf("bank record: %w", err)
	}
	if len(fields) < 4 {
		return fmt.Errorf("bank record: want 4 fields, got %d", len(fields))
	}

	var (
		id      flexInt
		name    flexString
		account flexString
		amount  decimal.Decimal
	)
	if err := json.Unmarshal(fields[0], &id); err != nil {
		return fmt.Errorf("bank id: %w", err)
	}
	if err := json.Unmarshal(fields[1], &name); err != nil {
		return fmt.Errorf("bank name: %w", err)
	}
	if err := json.Unmarshal(fields[2], &account); err != nil {
		return fmt.Errorf("bank account number: %w", err)
	}
	if err := json.Unmarshal(fields[3], &amount); err != nil {
		return fmt.Errorf("bank backup amount: %w", err)
	}

	*a = bankRecord{ID: int64(id), BankName: string(name), AccountNumber: string(account), BackupAmount: amount}
	return nil
}

// ListBankAccounts возвращает счета бэкенда. Бэкенд не хранит владельца,
// поэтому все счета приписываются owner. Записи с пустым названием банка удалены.
func (c *Client) ListBankAccounts(ctx context.Context, owner string) ([]model.BankAccount, error) {
	var records []bankRecord
	err := c.do(ctx, http.MethodGet, "/api/bankDetails", nil, &records)
	if err != nil && !errors.Is(err, errNoData) {
		return nil, fmt.Errorf("get bank details: %w", err)
	}

	res := make([]model.BankAccount, 0, len(records))
	for _, r := range records {
		if r.BankName == "" {
			continue
		}
		a := model.BankAccount(r)
		a.Owner = owner
		res = append(res, a)
	}
	return res, nil
}

type bankRequest struct {
	BankName      string          `json:"bankName"`
	AccountNumber string          `json:"accountNumber"`
	BackupAmount  decimal.Decimal `json:"backupAmount"`
}

func newBankRequest(a model.BankAccount) bankRequest {
	return bankRequest{BankName: a.BankName, AccountNumber: a.AccountNumber, BackupAmount: a.BackupAmount}
}

// CreateBankAccount добавляет счёт.
func (c *Client) CreateBankAccount(ctx context.Context, a model.BankAccount) (model.BankAccount, error) {
	var res createdID
	if err := c.do(ctx, http.MethodPost, "/api/addBank", newBankRequest(a), &res); err != nil {
		return model.BankAccount{}, fmt.Errorf("add bank: %w", err)
	}
	a.ID = int64(res.ID)
	return a, nil
}

// UpdateBankAccount изменяет счёт.
func (c *Client) UpdateBankAccount(ctx context.Context, a model.BankAccount) error {
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/updateBank/%d", a.ID), newBankRequest(a), nil)
	if errors.Is(err, errNotFound) {
		return fmt.Errorf("%w: %d", model.ErrBankAccountNotFound, a.ID)
	}
	if err != nil {
		return fmt.Errorf("update bank: %w", err)
	}
	return nil
}

// DeleteBankAccount удаляет счёт.
func (c *Client) DeleteBankAccount(ctx context.Context, owner string, id int64) error {
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/deleteBank/%d", id), nil, nil)
	if errors.Is(err, errNotFound) {
		return fmt.Errorf("%w: %d", model.ErrBankAccountNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("delete bank: %w", err)
	}
	return nil
}

type payRequest struct {
	OrderNo int64 `json:"orderNo"`
	BankID  int64 `json:"bankId"`
	PaidAt  int64 `json:"paidAt"`
}

type paymentRecord struct {
	OrderNo    flexInt         `json:"orderNo"`
	SupplierID flexInt         `json:"supplierId"`
	BankID     flexInt         `json:"bankId"`
	Amount     decimal.Decimal `json:"amount"`
	Balance    decimal.Decimal `json:"balance"`
	PaidAt     flexInt         `json:"paidAt"`
}

func (r paymentRecord) toModel(owner string) model.Payment {
	p := model.Payment{
		OrderNumber: int64(r.OrderNo),
		SupplierID:  int64(r.SupplierID),
		AccountID:   int64(r.BankID),
		Owner:       owner,
		Amount:      r.Amount,
		Balance:     r.Balance,
	}
	if r.PaidAt > 0 {
		p.PaidAt = time.Unix(int64(r.PaidAt), 0).UTC()
	}
	return p
}

// PaySupplier просит бэкенд оплатить принятый заказ со счёта. Бэкенд отвечает
// 404 для неизвестного заказа, 403 для неизвестного счёта, 422 для непринятого заказа,
// 409 для оплаченного заказа и 402 при недостатке средств.
func (c *Client) PaySupplier(ctx context.Context, p model.Payment) (model.Payment, error) {
	req := payRequest{OrderNo: p.OrderNumber, BankID: p.AccountID, PaidAt: p.PaidAt.Unix()}

	var rec paymentRecord
	err := c.do(ctx, http.MethodPost, "/api/order/pay", req, &rec)
	switch {
	case errors.Is(err, errNotFound):
		return model.Payment{}, fmt.Errorf("%w: %d", model.ErrOrderNotFound, p.OrderNumber)
	case errors.Is(err, errDenied):
		return model.Payment{}, fmt.Errorf("%w: %d", model.ErrBankAccountNotFound, p.AccountID)
	case errors.Is(err, errRejected):
		return model.Payment{}, fmt.Errorf("%w: %d", model.ErrOrderNotReceived, p.OrderNumber)
	case errors.Is(err, errConflict):
		return model.Payment{}, fmt.Errorf("%w: %d", model.ErrAlreadyPaid, p.OrderNumber)
	case errors.Is(err, errDeclined):
		return model.Payment{}, fmt.Errorf("%w: account %d", model.ErrInsufficientFunds, p.AccountID)
	case err != nil:
		return model.Payment{}, fmt.Errorf("pay supplier: %w", err)
	}

	paid := rec.toModel(p.Owner)
	if paid.PaidAt.IsZero() {
		paid.PaidAt = p.PaidAt
	}
	return paid, nil
}

// ListPayments возвращает оплаты бэкенда; owner не сужает выборку.
func (c *Client) ListPayments(ctx context.Context, owner string) ([]model.Payment, error) {
	var records []paymentRecord
	err := c.do(ctx, http.MethodGet, "/api/payments", nil, &records)
	if err != nil && !errors.Is(err, errNoData) {
		return nil, fmt.Errorf("get payments: %w", err)
	}

	res := make([]model.Payment, 0, len(records))
	for _, r := range records {
		res = append(res, r.toModel(owner))
	}
	return res, nil
}
