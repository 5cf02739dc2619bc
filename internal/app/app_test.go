package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/inventory-orders/internal/config"
	"github.com/mmeshcher/inventory-orders/internal/model"
	"github.com/mmeshcher/inventory-orders/internal/service"
)

func TestNew_LegacyBackend(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/getProducts":
			_, _ = w.Write([]byte(`{"data": [[1, "Widget", 10, 100], [2, "", 5, 1]]}`))
		case "/api/getSupplierDetails":
			_, _ = w.Write([]byte(`{"data": [[7, "Acme", "9876543210", ["Bank", "1234", "112233"]]]}`))
		case "/api/place/order":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"data": {"orderNo": 1}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	cfg := &config.Config{
		StoreBackend:     config.BackendLegacy,
		LegacyAPIAddress: ts.URL,
		CallTimeout:      time.Second,
	}

	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	products, err := a.Service.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Widget", products[0].Name)

	order, err := a.Service.PlaceOrder(context.Background(), "s1", 7, service.Selections{1: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), order.Number)
	assert.Equal(t, model.OrderStatusPlaced, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(50)))
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(context.Background(), &config.Config{StoreBackend: "mongo", CallTimeout: time.Second}, zap.NewNop())
	assert.Error(t, err)
}
