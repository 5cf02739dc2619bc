package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/inventory-orders/internal/model"
	"github.com/mmeshcher/inventory-orders/internal/receipt"
	"github.com/mmeshcher/inventory-orders/internal/service"
)

type stubService struct {
	placeRequester  string
	placeSupplier   int64
	placeSelections service.Selections
	placeErr        error

	receiveRaw []byte

	receiptSize int

	createdAccount model.BankAccount
	accountOwner   string

	payOrder   int64
	payAccount int64
	payErr     error
}

func (s *stubService) ListProducts(ctx context.Context) ([]model.Product, error) {
	return []model.Product{{ID: 1, Name: "Widget", Price: decimal.NewFromInt(10)}}, nil
}

func (s *stubService) ListSuppliers(ctx context.Context) ([]model.Supplier, error) {
	return []model.Supplier{{ID: 7, Name: "Acme"}}, nil
}

func (s *stubService) ListOrders(ctx context.Context, requester string) ([]model.Order, error) {
	return nil, nil
}

func (s *stubService) PlaceOrder(ctx context.Context, requester string, supplierID int64, selections service.Selections) (model.Order, error) {
	s.placeRequester = requester
	s.placeSupplier = supplierID
	s.placeSelections = selections
	return model.Order{Number: 1, SupplierID: supplierID, Status: model.OrderStatusPlaced}, s.placeErr
}

func (s *stubService) ReceivePayload(ctx context.Context, raw []byte) (model.Order, error) {
	s.receiveRaw = raw
	return model.Order{Number: 3, Status: model.OrderStatusReceived}, nil
}

func (s *stubService) OrderReceipt(ctx context.Context, number int64, pngSize int) ([]byte, error) {
	s.receiptSize = pngSize
	if pngSize > 0 {
		return []byte("\x89PNG"), nil
	}
	return []byte(`{"orderNo":3,"receivedProducts":[]}`), nil
}

func (s *stubService) ListBankAccounts(ctx context.Context, owner string) ([]model.BankAccount, error) {
	s.accountOwner = owner
	return []model.BankAccount{{ID: 2, BankName: "SBI Bank", AccountNumber: "1", BackupAmount: decimal.NewFromInt(5000)}}, nil
}

func (s *stubService) CreateBankAccount(ctx context.Context, a model.BankAccount) (model.BankAccount, error) {
	s.createdAccount = a
	a.ID = 2
	return a, nil
}

func (s *stubService) PaySupplier(ctx context.Context, owner string, orderNo, accountID int64) (model.Payment, error) {
	s.accountOwner = owner
	s.payOrder = orderNo
	s.payAccount = accountID
	return model.Payment{OrderNumber: orderNo, AccountID: accountID, Amount: decimal.NewFromInt(1200)}, s.payErr
}

func (s *stubService) ListPayments(ctx context.Context, owner string) ([]model.Payment, error) {
	s.accountOwner = owner
	return []model.Payment{{OrderNumber: 3}}, nil
}

func execute(t *testing.T, svc *stubService, stdin string, args ...string) (string, error) {
	t.Helper()

	closed := false
	root := newRootCmd(func(ctx context.Context) (orderService, func() error, error) {
		return svc, func() error { closed = true; return nil }, nil
	})

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	if err == nil {
		assert.True(t, closed, "service was not closed")
	}
	return out.String(), err
}

func TestParseItems(t *testing.T) {
	sel, err := parseItems([]string{"1=5", " 2 = 3 "})
	require.NoError(t, err)
	assert.Equal(t, service.Selections{1: 5, 2: 3}, sel)

	for _, bad := range [][]string{{"1"}, {"x=1"}, {"1=y"}, {"1=1", "1=2"}} {
		_, err := parseItems(bad)
		assert.Error(t, err, "%v", bad)
	}
}

func TestPlaceCommand(t *testing.T) {
	svc := &stubService{}

	out, err := execute(t, svc, "", "place", "--supplier", "7", "--item", "1=5", "--item", "2=3")
	require.NoError(t, err)

	assert.Equal(t, cliRequester, svc.placeRequester)
	assert.Equal(t, int64(7), svc.placeSupplier)
	assert.Equal(t, service.Selections{1: 5, 2: 3}, svc.placeSelections)

	var order model.Order
	require.NoError(t, json.Unmarshal([]byte(out), &order))
	assert.Equal(t, int64(1), order.Number)
}

func TestPlaceCommand_RequiresSupplier(t *testing.T) {
	_, err := execute(t, &stubService{}, "", "place", "--item", "1=5")
	assert.Error(t, err)
}

func TestPlaceCommand_ServiceError(t *testing.T) {
	_, err := execute(t, &stubService{placeErr: model.ErrEmptySelection}, "", "place", "--supplier", "7")
	assert.ErrorIs(t, err, model.ErrEmptySelection)
}

func TestReceiveCommand_Stdin(t *testing.T) {
	svc := &stubService{}
	payload := `{"orderNo": 3, "receivedProducts": [{"productId": 1, "productQtyReceived": 60}]}`

	_, err := execute(t, svc, payload, "receive", "-")
	require.NoError(t, err)
	assert.Equal(t, payload, string(svc.receiveRaw))
}

func TestProductsCommand(t *testing.T) {
	out, err := execute(t, &stubService{}, "", "products")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Widget"`)
}

func TestReceiptCommand(t *testing.T) {
	svc := &stubService{}

	out, err := execute(t, svc, "", "receipt", "3")
	require.NoError(t, err)
	assert.Zero(t, svc.receiptSize)
	assert.Contains(t, out, `"orderNo": 3`)

	_, err = execute(t, &stubService{}, "", "receipt", "abc")
	assert.Error(t, err)
}

func TestReceiptCommand_QRFile(t *testing.T) {
	svc := &stubService{}
	path := filepath.Join(t.TempDir(), "order-3.png")

	out, err := execute(t, svc, "", "receipt", "3", "--qr", path)
	require.NoError(t, err)
	assert.Equal(t, receipt.DefaultQRSize, svc.receiptSize)
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(data))
}

func TestAccountsCommands(t *testing.T) {
	svc := &stubService{}

	out, err := execute(t, svc, "", "accounts", "add", "--bank", "SBI Bank", "--number", "1234567890", "--amount", "5000.50")
	require.NoError(t, err)
	assert.Equal(t, cliRequester, svc.createdAccount.Owner)
	assert.Equal(t, "SBI Bank", svc.createdAccount.BankName)
	assert.True(t, svc.createdAccount.BackupAmount.Equal(decimal.RequireFromString("5000.50")))
	assert.Contains(t, out, `"id": 2`)

	_, err = execute(t, &stubService{}, "", "accounts", "add", "--bank", "SBI Bank", "--number", "1", "--amount", "lots")
	assert.Error(t, err)

	out, err = execute(t, svc, "", "accounts")
	require.NoError(t, err)
	assert.Equal(t, cliRequester, svc.accountOwner)
	assert.Contains(t, out, `"bankName": "SBI Bank"`)
}

func TestPayCommand(t *testing.T) {
	svc := &stubService{}

	_, err := execute(t, svc, "", "pay", "3", "--account", "2")
	require.NoError(t, err)
	assert.Equal(t, cliRequester, svc.accountOwner)
	assert.Equal(t, int64(3), svc.payOrder)
	assert.Equal(t, int64(2), svc.payAccount)

	_, err = execute(t, &stubService{payErr: model.ErrOrderNotReceived}, "", "pay", "3")
	assert.ErrorIs(t, err, model.ErrOrderNotReceived)

	_, err = execute(t, svc, "", "payments")
	require.NoError(t, err)
}
