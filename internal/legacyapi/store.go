package legacyapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/inventory-orders/internal/model"
)

// FetchProducts запрашивает список товаров.
func (c *Client) FetchProducts(ctx context.Context) ([]model.Product, error) {
	var records []productRecord
	if err := c.do(ctx, http.MethodGet, "/api/getProducts", nil, &records); err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}

	res := make([]model.Product, 0, len(records))
	for _, r := range records {
		res = append(res, model.Product(r))
	}
	return res, nil
}

// FetchSuppliers запрашивает список поставщиков.
func (c *Client) FetchSuppliers(ctx context.Context) ([]model.Supplier, error) {
	var records []supplierRecord
	if err := c.do(ctx, http.MethodGet, "/api/getSupplierDetails", nil, &records); err != nil {
		return nil, fmt.Errorf("get suppliers: %w", err)
	}

	res := make([]model.Supplier, 0, len(records))
	for _, r := range records {
		res = append(res, model.Supplier(r))
	}
	return res, nil
}

type placeOrderRequest struct {
	SelectedProducts []int64           `json:"selectedProducts"`
	ProductQty       []int64           `json:"productQty"`
	ProductPrices    []decimal.Decimal `json:"productPrices"`
	SupplierID       int64             `json:"supplierId"`
	OrderTotalAmount decimal.Decimal   `json:"orderTotalAmount"`
}

// CreateOrder отправляет заказ бэкенду. Номер заказа присваивает бэкенд.
func (c *Client) CreateOrder(ctx context.Context, order model.Order) (model.Order, error) {
	req := placeOrderRequest{
		SelectedProducts: make([]int64, 0, len(order.Lines)),
		ProductQty:       make([]int64, 0, len(order.Lines)),
		ProductPrices:    make([]decimal.Decimal, 0, len(order.Lines)),
		SupplierID:       order.SupplierID,
		OrderTotalAmount: order.TotalAmount,
	}
	for _, l := range order.Lines {
		req.SelectedProducts = append(req.SelectedProducts, l.ProductID)
		req.ProductQty = append(req.ProductQty, l.QuantityOrdered)
		req.ProductPrices = append(req.ProductPrices, l.UnitPrice)
	}

	var rec orderRecord
	if err := c.do(ctx, http.MethodPost, "/api/place/order", req, &rec); err != nil {
		return model.Order{}, fmt.Errorf("place order: %w", err)
	}
	if rec.OrderNo <= 0 {
		return model.Order{}, fmt.Errorf("place order: backend returned no order number")
	}

	created := order
	created.Number = int64(rec.OrderNo)
	return created, nil
}

// GetOrder возвращает заказ по номеру.
func (c *Client) GetOrder(ctx context.Context, number int64) (model.Order, error) {
	orders, err := c.listOrders(ctx)
	if err != nil {
		return model.Order{}, err
	}
	for _, o := range orders {
		if o.Number == number {
			return o, nil
		}
	}
	return model.Order{}, fmt.Errorf("%w: %d", model.ErrOrderNotFound, number)
}

// ListOrders возвращает все заказы бэкенда. Бэкенд не хранит сессию автора,
// поэтому requester не сужает выборку.
func (c *Client) ListOrders(ctx context.Context, requester string) ([]model.Order, error) {
	return c.listOrders(ctx)
}

func (c *Client) listOrders(ctx context.Context) ([]model.Order, error) {
	var records orderList
	if err := c.do(ctx, http.MethodGet, "/api/order/details", nil, &records); err != nil {
		return nil, fmt.Errorf("get order details: %w", err)
	}

	res := make([]model.Order, 0, len(records))
	for _, r := range records {
		o, err := r.toModel()
		if err != nil {
			return nil, fmt.Errorf("get order details: %w", err)
		}
		res = append(res, o)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Number > res[j].Number })
	return res, nil
}

type receivedProduct struct {
	ProductID          int64 `json:"productId"`
	ProductQtyReceived int64 `json:"productQtyReceived"`
}

type receiveOrderRequest struct {
	OrderNo          int64             `json:"orderNo"`
	ReceivedProducts []receivedProduct `json:"receivedProducts"`
}

// ApplyReceipt передаёт полученные количества бэкенду, который применяет их атомарно.
func (c *Client) ApplyReceipt(ctx context.Context, number int64, lines []model.ReceivedLine) (model.Order, error) {
	req := receiveOrderRequest{
		OrderNo:          number,
		ReceivedProducts: make([]receivedProduct, 0, len(lines)),
	}
	for _, l := range lines {
		req.ReceivedProducts = append(req.ReceivedProducts, receivedProduct{
			ProductID:          l.ProductID,
			ProductQtyReceived: l.QuantityReceived,
		})
	}

	var rec orderRecord
	err := c.do(ctx, http.MethodPost, "/api/order/receive", req, &rec)
	switch {
	case errors.Is(err, errNoData):
		// Бэкенд подтвердил приёмку, но не вернул заказ: перечитываем его.
		c.logger.Debug("receive order returned no data, reloading", zap.Int64("order", number))
		return c.GetOrder(ctx, number)
	case errors.Is(err, errNotFound):
		return model.Order{}, fmt.Errorf("%w: %d", model.ErrOrderNotFound, number)
	case errors.Is(err, errConflict):
		return model.Order{}, fmt.Errorf("%w: %d", model.ErrAlreadyReceived, number)
	case errors.Is(err, errRejected):
		return model.Order{}, fmt.Errorf("%w: order %d", model.ErrLineMismatch, number)
	case err != nil:
		return model.Order{}, fmt.Errorf("receive order: %w", err)
	}

	return rec.toModel()
}

type productRequest struct {
	ProductName  string          `json:"productName"`
	ProductPrice decimal.Decimal `json:"productPrice"`
	ProductQty   int64           `json:"productQty"`
}

type createdID struct {
	ID flexInt `json:"id"`
}

// CreateProduct добавляет товар.
func (c *Client) CreateProduct(ctx context.Context, p model.Product) (model.Product, error) {
	req := productRequest{ProductName: p.Name, ProductPrice: p.Price, ProductQty: p.Quantity}

	var res createdID
	if err := c.do(ctx, http.MethodPost, "/api/add/product", req, &res); err != nil {
		return model.Product{}, fmt.Errorf("add product: %w", err)
	}
	p.ID = int64(res.ID)
	return p, nil
}

// UpdateProduct изменяет товар.
func (c *Client) UpdateProduct(ctx context.Context, p model.Product) error {
	req := productRequest{ProductName: p.Name, ProductPrice: p.Price, ProductQty: p.Quantity}

	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/update/product/%d", p.ID), req, nil)
	if errors.Is(err, errNotFound) {
		return fmt.Errorf("%w: %d", model.ErrProductNotFound, p.ID)
	}
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// DeleteProduct удаляет товар.
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/product/%d", id), nil, nil)
	if errors.Is(err, errNotFound) {
		return fmt.Errorf("%w: %d", model.ErrProductNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

type supplierRequest struct {
	SupplierName          string `json:"supplierName"`
	SupplierNumber        string `json:"supplierNumber"`
	SupplierBankName      string `json:"supplierBankName"`
	SupplierAccountNumber string `json:"supplierAccountNumber"`
	SupplierSortCode      string `json:"supplierSortCode"`
}

func newSupplierRequest(s model.Supplier) supplierRequest {
	return supplierRequest{
		SupplierName:          s.Name,
		SupplierNumber:        s.ContactNumber,
		SupplierBankName:      s.Bank.BankName,
		SupplierAccountNumber: s.Bank.AccountNumber,
		SupplierSortCode:      s.Bank.SortCode,
	}
}

// CreateSupplier добавляет поставщика.
func (c *Client) CreateSupplier(ctx context.Context, s model.Supplier) (model.Supplier, error) {
	var res createdID
	if err := c.do(ctx, http.MethodPost, "/api/addSupplier", newSupplierRequest(s), &res); err != nil {
		return model.Supplier{}, fmt.Errorf("add supplier: %w", err)
	}
	s.ID = int64(res.ID)
	return s, nil
}

// UpdateSupplier изменяет поставщика.
func (c *Client) UpdateSupplier(ctx context.Context, s model.Supplier) error {
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/updateSupplier/%d", s.ID), newSupplierRequest(s), nil)
	if errors.Is(err, errNotFound) {
		return fmt.Errorf("%w: %d", model.ErrSupplierNotFound, s.ID)
	}
	if err != nil {
		return fmt.Errorf("update supplier: %w", err)
	}
	return nil
}

// DeleteSupplier удаляет поставщика.
func (c *Client) DeleteSupplier(ctx context.Context, id int64) error {
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/deleteSupplier/%d", id), nil, nil)
	if errors.Is(err, errNotFound) {
		return fmt.Errorf("%w: %d", model.ErrSupplierNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("delete supplier: %w", err)
	}
	return nil
}
