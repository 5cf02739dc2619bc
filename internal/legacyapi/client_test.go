package legacyapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/inventory-orders/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	return NewClient(ts.URL, time.Second, nil)
}

func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestFetchProducts_PositionalRecords(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/api/getProducts" {
			t.Fatalf("path = %s, want /api/getProducts", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": [[1, "Widget", 10, 100], ["2", "", "2.50", "7"]]}`))
	})

	products, err := client.FetchProducts(testContext(t))
	if err != nil {
		t.Fatalf("FetchProducts error: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("len = %d, want 2", len(products))
	}

	p := products[0]
	if p.ID != 1 || p.Name != "Widget" || !p.Price.Equal(decimal.NewFromInt(10)) || p.Quantity != 100 {
		t.Fatalf("unexpected product: %+v", p)
	}

	p = products[1]
	if p.ID != 2 || p.Name != "" || !p.Price.Equal(decimal.RequireFromString("2.50")) || p.Quantity != 7 {
		t.Fatalf("unexpected product: %+v", p)
	}
}

func TestFetchProducts_ShortRecord(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [[1, "Widget"]]}`))
	})

	if _, err := client.FetchProducts(testContext(t)); err == nil {
		t.Fatal("expected error for short record")
	}
}

func TestFetchSuppliers_PositionalRecords(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/getSupplierDetails" {
			t.Fatalf("path = %s, want /api/getSupplierDetails", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"data": [
			[7, "Acme", 9876543210, ["Lloyds", "12345678", "112233"]],
			[8, "Bare", "0123456789"]
		]}`))
	})

	suppliers, err := client.FetchSuppliers(testContext(t))
	if err != nil {
		t.Fatalf("FetchSuppliers error: %v", err)
	}
	if len(suppliers) != 2 {
		t.Fatalf("len = %d, want 2", len(suppliers))
	}

	want := model.Supplier{
		ID:            7,
		Name:          "Acme",
		ContactNumber: "9876543210",
		Bank:          model.BankDetails{BankName: "Lloyds", AccountNumber: "12345678", SortCode: "112233"},
	}
	if suppliers[0] != want {
		t.Fatalf("supplier = %+v, want %+v", suppliers[0], want)
	}
	if suppliers[1].ContactNumber != "0123456789" || suppliers[1].Bank != (model.BankDetails{}) {
		t.Fatalf("unexpected supplier: %+v", suppliers[1])
	}
}

func TestFetchProducts_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := client.FetchProducts(testContext(t)); err == nil {
		t.Fatal("expected error for 500")
	}
}

func TestGetOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/order/details" {
			t.Fatalf("path = %s, want /api/order/details", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"data": [
			{"orderNo": 2, "orderDate": 1700000000, "orderTotalAmount": 50, "orderStatus": false,
			 "supplierId": 7, "productIds": [1], "productQtys": [5]},
			{"orderNo": 3, "orderDate": 1700000100, "orderTotalAmount": "1200", "orderStatus": "received",
			 "supplierId": "7", "productIds": [1, 2], "productQtys": [60, 60],
			 "orderDetails": {"1": {"productQtyOrder": 60, "productQtyReceived": 60, "productPrice": 10}}}
		]}`))
	})

	o, err := client.GetOrder(testContext(t), 3)
	if err != nil {
		t.Fatalf("GetOrder error: %v", err)
	}
	if o.Number != 3 || o.SupplierID != 7 || o.Status != model.OrderStatusReceived {
		t.Fatalf("unexpected order: %+v", o)
	}
	if !o.TotalAmount.Equal(decimal.NewFromInt(1200)) {
		t.Fatalf("total = %s, want 1200", o.TotalAmount)
	}
	if !o.OrderedAt.Equal(time.Unix(1700000100, 0)) {
		t.Fatalf("orderedAt = %v", o.OrderedAt)
	}
	if len(o.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(o.Lines))
	}
	if o.Lines[0].QuantityReceived != 60 || !o.Lines[0].UnitPrice.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected first line: %+v", o.Lines[0])
	}
	if o.Lines[1].ProductID != 2 || o.Lines[1].QuantityOrdered != 60 || o.Lines[1].QuantityReceived != 0 {
		t.Fatalf("unexpected second line: %+v", o.Lines[1])
	}

	_, err = client.GetOrder(testContext(t), 99)
	if !errors.Is(err, model.ErrOrderNotFound) {
		t.Fatalf("err = %v, want ErrOrderNotFound", err)
	}
}

func TestListOrders_KeyedObject(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {
			"4": {"orderStatus": "placed", "supplierId": 7, "productIds": [1], "productQtys": [1]},
			"5": {"orderStatus": true, "supplierId": 7, "productIds": [2], "productQtys": [3]}
		}}`))
	})

	orders, err := client.ListOrders(testContext(t), "session")
	if err != nil {
		t.Fatalf("ListOrders error: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("len = %d, want 2", len(orders))
	}
	if orders[0].Number != 5 || orders[0].Status != model.OrderStatusReceived {
		t.Fatalf("unexpected first order: %+v", orders[0])
	}
	if orders[1].Number != 4 || orders[1].Status != model.OrderStatusPlaced {
		t.Fatalf("unexpected second order: %+v", orders[1])
	}
}

func TestCreateOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/place/order" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}

		var req struct {
			SelectedProducts []int64 `json:"selectedProducts"`
			ProductQty       []int64 `json:"productQty"`
			SupplierID       int64   `json:"supplierId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.SupplierID != 7 || len(req.SelectedProducts) != 1 || req.SelectedProducts[0] != 1 || req.ProductQty[0] != 5 {
			t.Fatalf("unexpected request body: %+v", req)
		}

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data": {"orderNo": 12}}`))
	})

	in := model.Order{
		SupplierID:  7,
		Requester:   "s1",
		TotalAmount: decimal.NewFromInt(50),
		Status:      model.OrderStatusPlaced,
		Lines:       []model.OrderLine{{ProductID: 1, QuantityOrdered: 5, UnitPrice: decimal.NewFromInt(10)}},
	}

	out, err := client.CreateOrder(testContext(t), in)
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if out.Number != 12 || out.Requester != "s1" || !out.TotalAmount.Equal(in.TotalAmount) {
		t.Fatalf("unexpected order: %+v", out)
	}
}

func TestApplyReceipt_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "not found", status: http.StatusNotFound, wantErr: model.ErrOrderNotFound},
		{name: "already received", status: http.StatusConflict, wantErr: model.ErrAlreadyReceived},
		{name: "line mismatch", status: http.StatusUnprocessableEntity, wantErr: model.ErrLineMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := client.ApplyReceipt(testContext(t), 3, []model.ReceivedLine{{ProductID: 1, QuantityReceived: 1}})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyReceipt_OK(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/order/receive" {
			t.Fatalf("path = %s, want /api/order/receive", r.URL.Path)
		}

		var req receiveOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.OrderNo != 3 || len(req.ReceivedProducts) != 1 {
			t.Fatalf("unexpected request: %+v", req)
		}

		_, _ = w.Write([]byte(`{"data": {"orderNo": 3, "orderStatus": "received", "supplierId": 7,
			"productIds": [1], "productQtys": [60],
			"orderDetails": {"1": {"productQtyReceived": 60}}}}`))
	})

	o, err := client.ApplyReceipt(testContext(t), 3, []model.ReceivedLine{{ProductID: 1, QuantityReceived: 60}})
	if err != nil {
		t.Fatalf("ApplyReceipt error: %v", err)
	}
	if o.Status != model.OrderStatusReceived || o.Lines[0].QuantityReceived != 60 {
		t.Fatalf("unexpected order: %+v", o)
	}
}

func TestApplyReceipt_EmptyResponseReloadsOrder(t *testing.T) {
	for _, body := range []string{"", `{}`, `{"data": null}`} {
		t.Run("body "+body, func(t *testing.T) {
			var receiveCalls int
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/api/order/receive":
					receiveCalls++
					_, _ = w.Write([]byte(body))
				case "/api/order/details":
					_, _ = w.Write([]byte(`{"data": [{"orderNo": 3, "orderStatus": "received", "supplierId": 7,
						"productIds": [1], "productQtys": [60],
						"orderDetails": {"1": {"productQtyReceived": 60}}}]}`))
				default:
					t.Fatalf("unexpected path %s", r.URL.Path)
				}
			})

			o, err := client.ApplyReceipt(testContext(t), 3, []model.ReceivedLine{{ProductID: 1, QuantityReceived: 60}})
			if err != nil {
				t.Fatalf("ApplyReceipt error: %v", err)
			}
			if receiveCalls != 1 {
				t.Fatalf("receive calls = %d, want 1", receiveCalls)
			}
			if o.Number != 3 || o.Status != model.OrderStatusReceived || o.Lines[0].QuantityReceived != 60 {
				t.Fatalf("unexpected order: %+v", o)
			}
		})
	}
}

func TestCatalogWrites(t *testing.T) {
	var calls []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case "/api/add/product", "/api/addSupplier":
			_, _ = w.Write([]byte(`{"data": {"id": 42}}`))
		case "/api/product/9", "/api/updateSupplier/9":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusOK)
		}
	})
	ctx := testContext(t)

	p, err := client.CreateProduct(ctx, model.Product{Name: "Widget", Price: decimal.NewFromInt(10)})
	if err != nil || p.ID != 42 {
		t.Fatalf("CreateProduct = %+v, %v", p, err)
	}
	if err := client.UpdateProduct(ctx, model.Product{ID: 1, Name: "Widget"}); err != nil {
		t.Fatalf("UpdateProduct error: %v", err)
	}
	if err := client.DeleteProduct(ctx, 9); !errors.Is(err, model.ErrProductNotFound) {
		t.Fatalf("DeleteProduct err = %v, want ErrProductNotFound", err)
	}

	s, err := client.CreateSupplier(ctx, model.Supplier{Name: "Acme", ContactNumber: "9876543210"})
	if err != nil || s.ID != 42 {
		t.Fatalf("CreateSupplier = %+v, %v", s, err)
	}
	if err := client.UpdateSupplier(ctx, model.Supplier{ID: 9}); !errors.Is(err, model.ErrSupplierNotFound) {
		t.Fatalf("UpdateSupplier err = %v, want ErrSupplierNotFound", err)
	}
	if err := client.DeleteSupplier(ctx, 1); err != nil {
		t.Fatalf("DeleteSupplier error: %v", err)
	}

	want := []string{
		"POST /api/add/product",
		"PUT /api/update/product/1",
		"DELETE /api/product/9",
		"POST /api/addSupplier",
		"PUT /api/updateSupplier/9",
		"DELETE /api/deleteSupplier/1",
	}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call %d = %s, want %s", i, calls[i], want[i])
		}
	}
}
