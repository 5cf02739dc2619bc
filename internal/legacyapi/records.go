package legacyapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/inventory-orders/internal/model"
)

// flexInt принимает целое как число JSON или как строку.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("integer %s: %w", b, err)
	}
	*f = flexInt(v)
	return nil
}

// flexString принимает строку или число JSON.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(b)
	return nil
}

// productRecord разбирает позиционную запись товара [id, name, price, quantity].
type productRecord model.Product

func (p *productRecord) UnmarshalJSON(b []byte) error {
	var fields []json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return fmt.Errorf("product record: %w", err)
	}
	if len(fields) < 4 {
		return fmt.Errorf("product record: want 4 fields, got %d", len(fields))
	}

	var (
		id, qty flexInt
		name    flexString
		price   decimal.Decimal
	)
	if err := json.Unmarshal(fields[0], &id); err != nil {
		return fmt.Errorf("product id: %w", err)
	}
	if err := json.Unmarshal(fields[1], &name); err != nil {
		return fmt.Errorf("product name: %w", err)
	}
	if err := json.Unmarshal(fields[2], &price); err != nil {
		return fmt.Errorf("product price: %w", err)
	}
	if err := json.Unmarshal(fields[3], &qty); err != nil {
		return fmt.Errorf("product quantity: %w", err)
	}

	*p = productRecord{ID: int64(id), Name: string(name), Price: price, Quantity: int64(qty)}
	return nil
}

// supplierRecord разбирает позиционную запись поставщика [id, name, number, [bank, account, sortCode]].
type supplierRecord model.Supplier

func (s *supplierRecord) UnmarshalJSON(b []byte) error {
	var fields []json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return fmt.Errorf("supplier record: %w", err)
	}
	if len(fields) < 3 {
		return fmt.Errorf("supplier record: want at least 3 fields, got %d", len(fields))
	}

	var (
		id     flexInt
		name   flexString
		number flexString
	)
	if err := json.Unmarshal(fields[0], &id); err != nil {
		return fmt.Errorf("supplier id: %w", err)
	}
	if err := json.Unmarshal(fields[1], &name); err != nil {
		return fmt.Errorf("supplier name: %w", err)
	}
	if err := json.Unmarshal(fields[2], &number); err != nil {
		return fmt.Errorf("supplier number: %w", err)
	}

	res := supplierRecord{ID: int64(id), Name: string(name), ContactNumber: string(number)}

	if len(fields) > 3 && !bytes.Equal(fields[3], []byte("null")) {
		var bank []flexString
		if err := json.Unmarshal(fields[3], &bank); err != nil {
			return fmt.Errorf("supplier bank details: %w", err)
		}
		if len(bank) > 0 {
			res.Bank.BankName = string(bank[0])
		}
		if len(bank) > 1 {
			res.Bank.AccountNumber = string(bank[1])
		}
		if len(bank) > 2 {
			res.Bank.SortCode = string(bank[2])
		}
	}

	*s = res
	return nil
}

// orderStatus принимает строковый статус или булев признак приёмки.
type orderStatus model.OrderStatus

func (o *orderStatus) UnmarshalJSON(b []byte) error {
	var received bool
	if err := json.Unmarshal(b, &received); err == nil {
		*o = orderStatus(model.OrderStatusPlaced)
		if received {
			*o = orderStatus(model.OrderStatusReceived)
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("order status %s: %w", b, err)
	}
	switch strings.ToLower(s) {
	case "placed", "pending", "":
		*o = orderStatus(model.OrderStatusPlaced)
	case "received":
		*o = orderStatus(model.OrderStatusReceived)
	default:
		return fmt.Errorf("order status %q: unknown", s)
	}
	return nil
}

type lineDetails struct {
	ProductQtyOrder    flexInt         `json:"productQtyOrder"`
	ProductQtyReceived flexInt         `json:"productQtyReceived"`
	ProductPrice       decimal.Decimal `json:"productPrice"`
}

type orderRecord struct {
	OrderNo          flexInt                `json:"orderNo"`
	OrderDate        flexInt                `json:"orderDate"`
	OrderTotalAmount decimal.Decimal        `json:"orderTotalAmount"`
	OrderStatus      orderStatus            `json:"orderStatus"`
	SupplierID       flexInt                `json:"supplierId"`
	ProductIDs       []flexInt              `json:"productIds"`
	ProductQtys      []flexInt              `json:"productQtys"`
	OrderDetails     map[string]lineDetails `json:"orderDetails"`
}

func (r orderRecord) toModel() (model.Order, error) {
	if len(r.ProductIDs) != len(r.ProductQtys) {
		return model.Order{}, fmt.Errorf("order %d: %d product ids for %d quantities", r.OrderNo, len(r.ProductIDs), len(r.ProductQtys))
	}

	o := model.Order{
		Number:      int64(r.OrderNo),
		SupplierID:  int64(r.SupplierID),
		TotalAmount: r.OrderTotalAmount,
		Status:      model.OrderStatus(r.OrderStatus),
		Lines:       make([]model.OrderLine, 0, len(r.ProductIDs)),
	}
	if o.Status == "" {
		o.Status = model.OrderStatusPlaced
	}
	if r.OrderDate > 0 {
		o.OrderedAt = time.Unix(int64(r.OrderDate), 0).UTC()
	}

	for i, id := range r.ProductIDs {
		line := model.OrderLine{
			ProductID:       int64(id),
			QuantityOrdered: int64(r.ProductQtys[i]),
		}
		if d, ok := r.OrderDetails[strconv.FormatInt(int64(id), 10)]; ok {
			line.QuantityReceived = int64(d.ProductQtyReceived)
			line.UnitPrice = d.ProductPrice
			if d.ProductQtyOrder > 0 {
				line.QuantityOrdered = int64(d.ProductQtyOrder)
			}
		}
		o.Lines = append(o.Lines, line)
	}

	return o, nil
}

// orderList принимает список заказов массивом или объектом с ключами-номерами.
type orderList []orderRecord

func (l *orderList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var byKey map[string]orderRecord
		if err := json.Unmarshal(b, &byKey); err != nil {
			return err
		}
		res := make(orderList, 0, len(byKey))
		for key, rec := range byKey {
			if rec.OrderNo == 0 {
				n, err := strconv.ParseInt(key, 10, 64)
				if err != nil {
					return fmt.Errorf("order key %q: %w", key, err)
				}
				rec.OrderNo = flexInt(n)
			}
			res = append(res, rec)
		}
		*l = res
		return nil
	}

	var res []orderRecord
	if err := json.Unmarshal(b, &res); err != nil {
		return err
	}
	*l = res
	return nil
}
