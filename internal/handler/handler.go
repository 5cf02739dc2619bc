// Package handler содержит HTTP-обработчики API сервиса заказов поставщикам.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mmeshcher/inventory-orders/internal/metrics"
	"github.com/mmeshcher/inventory-orders/internal/middleware"
	"github.com/mmeshcher/inventory-orders/internal/model"
	"github.com/mmeshcher/inventory-orders/internal/service"
	"github.com/mmeshcher/inventory-orders/internal/validation"
)

const maxReceiptSize = 1 << 20

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	ListSuppliers(ctx context.Context) ([]model.Supplier, error)
	RefreshCatalog(ctx context.Context) error

	CreateProduct(ctx context.Context, p model.Product) (model.Product, error)
	UpdateProduct(ctx context.Context, p model.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	CreateSupplier(ctx context.Context, s model.Supplier) (model.Supplier, error)
	UpdateSupplier(ctx context.Context, s model.Supplier) error
	DeleteSupplier(ctx context.Context, id int64) error

	PlaceOrder(ctx context.Context, requester string, supplierID int64, selections service.Selections) (model.Order, error)
	ReceivePayload(ctx context.Context, raw []byte) (model.Order, error)
	GetOrder(ctx context.Context, number int64) (model.Order, error)
	ListOrders(ctx context.Context, requester string) ([]model.Order, error)
	OrderReceipt(ctx context.Context, number int64, pngSize int) ([]byte, error)

	ListBankAccounts(ctx context.Context, owner string) ([]model.BankAccount, error)
	CreateBankAccount(ctx context.Context, a model.BankAccount) (model.BankAccount, error)
	UpdateBankAccount(ctx context.Context, a model.BankAccount) error
	DeleteBankAccount(ctx context.Context, owner string, id int64) error
	PaySupplier(ctx context.Context, owner string, orderNo, accountID int64) (model.Payment, error)
	ListPayments(ctx context.Context, owner string) ([]model.Payment, error)
}

// Handler реализует HTTP-обработчики API сервиса заказов.
type Handler struct {
	service  Service
	logger   *zap.Logger
	session  *middleware.Session
	metrics  *metrics.Metrics
	validate *validator.Validate
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, session *middleware.Session, m *metrics.Metrics) *Handler {
	return &Handler{
		service:  s,
		logger:   logger,
		session:  session,
		metrics:  m,
		validate: validation.New(),
	}
}

// ListProducts возвращает товары каталога.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if products == nil {
		products = []model.Product{}
	}

	h.writeJSON(w, http.StatusOK, products)
}

// ListSuppliers возвращает поставщиков.
func (h *Handler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.service.ListSuppliers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if suppliers == nil {
		suppliers = []model.Supplier{}
	}

	h.writeJSON(w, http.StatusOK, suppliers)
}

// RefreshCatalog перезагружает каталог из внешнего источника.
func (h *Handler) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RefreshCatalog(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PlaceOrder размещает заказ от имени текущей сессии.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	requester, _ := middleware.GetRequesterFromContext(r.Context())

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	selections, err := req.selections()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	order, err := h.service.PlaceOrder(r.Context(), requester, req.SupplierID, selections)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, newOrderResponse(order))
}

// ListOrders возвращает заказы текущей сессии.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	requester, _ := middleware.GetRequesterFromContext(r.Context())

	orders, err := h.service.ListOrders(r.Context(), requester)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, newOrderResponse(o))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// GetOrder возвращает заказ по номеру.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	number, ok := pathID(w, r, "number")
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), number)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newOrderResponse(order))
}

// ReceiveReceipt применяет квитанцию о приёмке: текст QR-кода или вручную введённые данные.
func (h *Handler) ReceiveReceipt(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxReceiptSize))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	order, err := h.service.ReceivePayload(r.Context(), body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newOrderResponse(order))
}

// Healthz сообщает, что процесс обслуживает запросы.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

// writeError переводит ошибку бизнес-логики в HTTP-статус.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		)
		http.Error(w, http.StatusText(status), status)
		return
	}

	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrDecode),
		errors.Is(err, model.ErrMalformedPayload):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrEmptySelection),
		errors.Is(err, model.ErrInvalidSupplier),
		errors.Is(err, model.ErrInvalidSelection),
		errors.Is(err, model.ErrInvalidQuantity),
		errors.Is(err, model.ErrLineMismatch),
		errors.Is(err, model.ErrInvalidBankAccount),
		errors.Is(err, model.ErrOrderNotReceived):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, model.ErrOrderNotFound),
		errors.Is(err, model.ErrProductNotFound),
		errors.Is(err, model.ErrSupplierNotFound),
		errors.Is(err, model.ErrBankAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrAlreadyReceived),
		errors.Is(err, model.ErrSubmissionInFlight),
		errors.Is(err, model.ErrAlreadyPaid):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, model.ErrFetch),
		errors.Is(err, model.ErrSubmission):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
