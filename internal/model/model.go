// Package model содержит доменные сущности сервиса заказов поставщикам.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product описывает товар каталога.
type Product struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
}

// BankDetails содержит банковские реквизиты поставщика.
type BankDetails struct {
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber"`
	SortCode      string `json:"sortCode"`
}

// Supplier описывает поставщика товаров.
type Supplier struct {
	ID            int64       `json:"id"`
	Name          string      `json:"name"`
	ContactNumber string      `json:"contactNumber"`
	Bank          BankDetails `json:"bank"`
}

// OrderStatus описывает статус заказа поставщику.
type OrderStatus string

const (
	OrderStatusPlaced   OrderStatus = "PLACED"
	OrderStatusReceived OrderStatus = "RECEIVED"
)

// OrderLine описывает одну позицию заказа.
type OrderLine struct {
	ProductID        int64           `json:"productId"`
	QuantityOrdered  int64           `json:"quantityOrdered"`
	QuantityReceived int64           `json:"quantityReceived"`
	UnitPrice        decimal.Decimal `json:"unitPrice"`
}

// Order описывает заказ поставщику вместе с позициями.
type Order struct {
	Number      int64
	SupplierID  int64
	Requester   string
	OrderedAt   time.Time
	TotalAmount decimal.Decimal
	Status      OrderStatus
	Lines       []OrderLine
}

// Line возвращает позицию заказа по идентификатору товара.
func (o *Order) Line(productID int64) (*OrderLine, bool) {
	for i := range o.Lines {
		if o.Lines[i].ProductID == productID {
			return &o.Lines[i], true
		}
	}
	return nil, false
}

// Receipt описывает данные о фактически полученном заказе.
type Receipt struct {
	OrderNumber int64
	Lines       []ReceivedLine
}

// ReceivedLine описывает полученное количество по одной позиции заказа.
type ReceivedLine struct {
	ProductID        int64
	QuantityOrdered  int64
	QuantityReceived int64
	UnitPrice        decimal.Decimal
}

// BankAccount описывает счёт заказчика, с которого оплачиваются полученные заказы.
type BankAccount struct {
	ID            int64           `json:"id"`
	Owner         string          `json:"-"`
	BankName      string          `json:"bankName"`
	AccountNumber string          `json:"accountNumber"`
	BackupAmount  decimal.Decimal `json:"backupAmount"`
}

// Payment описывает оплату полученного заказа поставщику.
type Payment struct {
	OrderNumber int64           `json:"orderNumber"`
	SupplierID  int64           `json:"supplierId"`
	AccountID   int64           `json:"accountId"`
	Owner       string          `json:"-"`
	Amount      decimal.Decimal `json:"amount"`
	// Balance содержит остаток на счёте после списания.
	Balance decimal.Decimal `json:"balance"`
	PaidAt  time.Time       `json:"paidAt"`
}
