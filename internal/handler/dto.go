package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/inventory-orders/internal/model"
	"github.com/mmeshcher/inventory-orders/internal/service"
)

type orderItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int64 `json:"quantity"`
}

type placeOrderRequest struct {
	SupplierID int64       `json:"supplierId"`
	Items      []orderItem `json:"items"`
}

func (req placeOrderRequest) selections() (service.Selections, error) {
	sel := make(service.Selections, len(req.Items))
	for _, it := range req.Items {
		if _, dup := sel[it.ProductID]; dup {
			return nil, fmt.Errorf("product %d listed twice", it.ProductID)
		}
		sel[it.ProductID] = it.Quantity
	}
	return sel, nil
}

type orderLineResponse struct {
	ProductID        int64  `json:"productId"`
	QuantityOrdered  int64  `json:"quantityOrdered"`
	QuantityReceived int64  `json:"quantityReceived"`
	UnitPrice        string `json:"unitPrice"`
}

type orderResponse struct {
	Number      int64               `json:"number"`
	SupplierID  int64               `json:"supplierId"`
	Status      string              `json:"status"`
	TotalAmount string              `json:"totalAmount"`
	OrderedAt   string              `json:"orderedAt,omitempty"`
	Lines       []orderLineResponse `json:"lines"`
}

func newOrderResponse(o model.Order) orderResponse {
	resp := orderResponse{
		Number:      o.Number,
		SupplierID:  o.SupplierID,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount.StringFixed(2),
		Lines:       make([]orderLineResponse, 0, len(o.Lines)),
	}
	if !o.OrderedAt.IsZero() {
		resp.OrderedAt = o.OrderedAt.Format(time.RFC3339)
	}

	for _, l := range o.Lines {
		resp.Lines = append(resp.Lines, orderLineResponse{
			ProductID:        l.ProductID,
			QuantityOrdered:  l.QuantityOrdered,
			QuantityReceived: l.QuantityReceived,
			UnitPrice:        l.UnitPrice.StringFixed(2),
		})
	}

	return resp
}

type productRequest struct {
	Name     string          `json:"name" validate:"notblank"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity" validate:"gte=0"`
}

func (req productRequest) toModel() model.Product {
	return model.Product{
		Name:     strings.TrimSpace(req.Name),
		Price:    req.Price,
		Quantity: req.Quantity,
	}
}

type bankRequest struct {
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber" validate:"omitempty,digits"`
	SortCode      string `json:"sortCode" validate:"omitempty,sortcode"`
}

type supplierRequest struct {
	Name          string      `json:"name" validate:"notblank"`
	ContactNumber string      `json:"contactNumber" validate:"contact10"`
	Bank          bankRequest `json:"bank"`
}

func (req supplierRequest) toModel() model.Supplier {
	return model.Supplier{
		Name:          strings.TrimSpace(req.Name),
		ContactNumber: req.ContactNumber,
		Bank: model.BankDetails{
			BankName:      strings.TrimSpace(req.Bank.BankName),
			AccountNumber: req.Bank.AccountNumber,
			SortCode:      req.Bank.SortCode,
		},
	}
}

type bankAccountRequest struct {
	BankName      string          `json:"bankName" validate:"notblank"`
	AccountNumber string          `json:"accountNumber" validate:"digits"`
	BackupAmount  decimal.Decimal `json:"backupAmount"`
}

type bankAccountResponse struct {
	ID            int64  `json:"id"`
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber"`
	BackupAmount  string `json:"backupAmount"`
}

func newBankAccountResponse(a model.BankAccount) bankAccountResponse {
	return bankAccountResponse{
		ID:            a.ID,
		BankName:      a.BankName,
		AccountNumber: a.AccountNumber,
		BackupAmount:  a.BackupAmount.StringFixed(2),
	}
}

type paymentRequest struct {
	AccountID int64 `json:"accountId" validate:"gte=0"`
}

type paymentResponse struct {
	OrderNumber int64  `json:"orderNumber"`
	SupplierID  int64  `json:"supplierId"`
	AccountID   int64  `json:"accountId"`
	Amount      string `json:"amount"`
	Balance     string `json:"balance"`
	PaidAt      string `json:"paidAt,omitempty"`
}

func newPaymentResponse(p model.Payment) paymentResponse {
	resp := paymentResponse{
		OrderNumber: p.OrderNumber,
		SupplierID:  p.SupplierID,
		AccountID:   p.AccountID,
		Amount:      p.Amount.StringFixed(2),
		Balance:     p.Balance.StringFixed(2),
	}
	if !p.PaidAt.IsZero() {
		resp.PaidAt = p.PaidAt.Format(time.RFC3339)
	}
	return resp
}
