// Package service реализует бизнес-логику размещения и приёмки заказов поставщикам.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mmeshcher/inventory-orders/internal/catalog"
	"github.com/mmeshcher/inventory-orders/internal/metrics"
	"github.com/mmeshcher/inventory-orders/internal/model"
	"github.com/mmeshcher/inventory-orders/internal/receipt"
)

// OrderStore описывает внешнее хранилище заказов.
type OrderStore interface {
	CreateOrder(ctx context.Context, order model.Order) (model.Order, error)
	GetOrder(ctx context.Context, number int64) (model.Order, error)
	ListOrders(ctx context.Context, requester string) ([]model.Order, error)
	// ApplyReceipt атомарно записывает полученные количества и переводит заказ в RECEIVED.
	ApplyReceipt(ctx context.Context, number int64, lines []model.ReceivedLine) (model.Order, error)
}

// CatalogStore описывает изменение каталога во внешнем хранилище.
type CatalogStore interface {
	CreateProduct(ctx context.Context, p model.Product) (model.Product, error)
	UpdateProduct(ctx context.Context, p model.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	CreateSupplier(ctx context.Context, s model.Supplier) (model.Supplier, error)
	UpdateSupplier(ctx context.Context, s model.Supplier) error
	DeleteSupplier(ctx context.Context, id int64) error
}

// Service объединяет кэш каталога, построитель заказов, сверку квитанций и оплату.
type Service struct {
	catalog    *catalog.Cache
	catalogDB  CatalogStore
	orders     OrderStore
	builder    *Builder
	reconciler *Reconciler
	cashier    *Cashier
	timeout    time.Duration
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewService создаёт сервис поверх общего кэша каталога и хранилищ.
func NewService(c *catalog.Cache, catalogDB CatalogStore, orders OrderStore, builder *Builder, reconciler *Reconciler, cashier *Cashier, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog:    c,
		catalogDB:  catalogDB,
		orders:     orders,
		builder:    builder,
		reconciler: reconciler,
		cashier:    cashier,
		timeout:    timeout,
		logger:     logger,
		metrics:    m,
	}
}

// ListProducts возвращает товары каталога.
func (s *Service) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.catalog.ListProducts(ctx)
}

// ListSuppliers возвращает поставщиков каталога.
func (s *Service) ListSuppliers(ctx context.Context) ([]model.Supplier, error) {
	return s.catalog.ListSuppliers(ctx)
}

// RefreshCatalog перезагружает каталог из внешнего источника.
func (s *Service) RefreshCatalog(ctx context.Context) error {
	err := s.catalog.Refresh(ctx)
	s.metrics.CatalogRefreshed(err)
	return err
}

// CreateProduct добавляет товар и обновляет кэш каталога.
func (s *Service) CreateProduct(ctx context.Context, p model.Product) (model.Product, error) {
	storeCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	created, err := s.catalogDB.CreateProduct(storeCtx, p)
	if err != nil {
		return model.Product{}, err
	}
	s.refreshProducts(ctx)
	return created, nil
}

// UpdateProduct изменяет товар и обновляет кэш каталога.
func (s *Service) UpdateProduct(ctx context.Context, p model.Product) error {
	storeCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.catalogDB.UpdateProduct(storeCtx, p); err != nil {
		return err
	}
	s.refreshProducts(ctx)
	return nil
}

// DeleteProduct удаляет товар и обновляет кэш каталога.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	storeCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.catalogDB.DeleteProduct(storeCtx, id); err != nil {
		return err
	}
	s.refreshProducts(ctx)
	return nil
}

// CreateSupplier добавляет поставщика и обновляет кэш каталога.
func (s *Service) CreateSupplier(ctx context.Context, sp model.Supplier) (model.Supplier, error) {
	storeCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	created, err := s.catalogDB.CreateSupplier(storeCtx, sp)
	if err != nil {
		return model.Supplier{}, err
	}
	s.refreshSuppliers(ctx)
	return created, nil
}

// UpdateSupplier изменяет поставщика и обновляет кэш каталога.
func (s *Service) UpdateSupplier(ctx context.Context, sp model.Supplier) error {
	storeCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.catalogDB.UpdateSupplier(storeCtx, sp); err != nil {
		return err
	}
	s.refreshSuppliers(ctx)
	return nil
}

// DeleteSupplier удаляет поставщика и обновляет кэш каталога.
func (s *Service) DeleteSupplier(ctx context.Context, id int64) error {
	storeCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.catalogDB.DeleteSupplier(storeCtx, id); err != nil {
		return err
	}
	s.refreshSuppliers(ctx)
	return nil
}

// PlaceOrder размещает заказ от имени сессии requester.
func (s *Service) PlaceOrder(ctx context.Context, requester string, supplierID int64, selections Selections) (model.Order, error) {
	return s.builder.BuildOrder(ctx, requester, supplierID, selections)
}

// ReceiveOrder применяет полученные количества к заказу.
func (s *Service) ReceiveOrder(ctx context.Context, orderNo int64, lines []model.ReceivedLine) (model.Order, error) {
	return s.reconciler.ReceiveOrder(ctx, orderNo, lines)
}

// ReceivePayload разбирает и применяет квитанцию.
func (s *Service) ReceivePayload(ctx context.Context, raw []byte) (model.Order, error) {
	return s.reconciler.ReceivePayload(ctx, raw)
}

// GetOrder возвращает заказ по номеру.
func (s *Service) GetOrder(ctx context.Context, number int64) (model.Order, error) {
	storeCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	order, err := s.orders.GetOrder(storeCtx, number)
	if err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			return model.Order{}, err
		}
		return model.Order{}, fmt.Errorf("%w: %w", model.ErrFetch, err)
	}
	return order, nil
}

// ListOrders возвращает заказы сессии requester; пустой requester означает все заказы.
func (s *Service) ListOrders(ctx context.Context, requester string) ([]model.Order, error) {
	storeCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	orders, err := s.orders.ListOrders(storeCtx, requester)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrFetch, err)
	}
	return orders, nil
}

// OrderReceipt возвращает квитанцию о полной поставке размещённого заказа.
// С pngSize > 0 квитанция кодируется в PNG-изображение QR-кода.
func (s *Service) OrderReceipt(ctx context.Context, number int64, pngSize int) ([]byte, error) {
	order, err := s.GetOrder(ctx, number)
	if err != nil {
		return nil, err
	}
	if order.Status == model.OrderStatusReceived {
		return nil, fmt.Errorf("%w: %d", model.ErrAlreadyReceived, number)
	}

	if pngSize > 0 {
		return receipt.QRCode(order, pngSize)
	}
	return receipt.Encode(order)
}

// ListBankAccounts возвращает счета владельца.
func (s *Service) ListBankAccounts(ctx context.Context, owner string) ([]model.BankAccount, error) {
	return s.cashier.ListBankAccounts(ctx, owner)
}

// CreateBankAccount добавляет счёт владельцу a.Owner.
func (s *Service) CreateBankAccount(ctx context.Context, a model.BankAccount) (model.BankAccount, error) {
	return s.cashier.CreateBankAccount(ctx, a)
}

// UpdateBankAccount изменяет счёт владельца a.Owner.
func (s *Service) UpdateBankAccount(ctx context.Context, a model.BankAccount) error {
	return s.cashier.UpdateBankAccount(ctx, a)
}

// DeleteBankAccount удаляет счёт владельца.
func (s *Service) DeleteBankAccount(ctx context.Context, owner string, id int64) error {
	return s.cashier.DeleteBankAccount(ctx, owner, id)
}

// PaySupplier оплачивает поставщику принятый заказ со счёта владельца.
func (s *Service) PaySupplier(ctx context.Context, owner string, orderNo, accountID int64) (model.Payment, error) {
	return s.cashier.PaySupplier(ctx, owner, orderNo, accountID)
}

// ListPayments возвращает оплаты владельца.
func (s *Service) ListPayments(ctx context.Context, owner string) ([]model.Payment, error) {
	return s.cashier.ListPayments(ctx, owner)
}

// StartCatalogRefresh запускает периодическое обновление каталога по расписанию cron.
// Пустое расписание отключает обновление. Планировщик останавливается при отмене ctx.
func (s *Service) StartCatalogRefresh(ctx context.Context, schedule string) error {
	if schedule == "" {
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := s.RefreshCatalog(ctx); err != nil {
			s.logger.Warn("scheduled catalog refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule catalog refresh %q: %w", schedule, err)
	}

	c.Start()
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()

	return nil
}

func (s *Service) refreshProducts(ctx context.Context) {
	err := s.catalog.RefreshProducts(ctx)
	s.metrics.CatalogRefreshed(err)
	if err != nil {
		s.logger.Warn("refresh products after write failed", zap.Error(err))
	}
}

func (s *Service) refreshSuppliers(ctx context.Context) {
	err := s.catalog.RefreshSuppliers(ctx)
	s.metrics.CatalogRefreshed(err)
	if err != nil {
		s.logger.Warn("refresh suppliers after write failed", zap.Error(err))
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// reason возвращает метку причины ошибки для метрик.
func reason(err error) string {
	switch {
	case errors.Is(err, model.ErrEmptySelection):
		return "empty_selection"
	case errors.Is(err, model.ErrInvalidSupplier):
		return "invalid_supplier"
	case errors.Is(err, model.ErrInvalidSelection):
		return "invalid_selection"
	case errors.Is(err, model.ErrSubmissionInFlight):
		return "in_flight"
	case errors.Is(err, model.ErrOrderNotFound):
		return "order_not_found"
	case errors.Is(err, model.ErrAlreadyReceived):
		return "already_received"
	case errors.Is(err, model.ErrLineMismatch):
		return "line_mismatch"
	case errors.Is(err, model.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, model.ErrMalformedPayload):
		return "malformed_payload"
	case errors.Is(err, model.ErrDecode):
		return "decode"
	case errors.Is(err, model.ErrBankAccountNotFound):
		return "account_not_found"
	case errors.Is(err, model.ErrInvalidBankAccount):
		return "invalid_account"
	case errors.Is(err, model.ErrOrderNotReceived):
		return "not_received"
	case errors.Is(err, model.ErrAlreadyPaid):
		return "already_paid"
	case errors.Is(err, model.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, model.ErrFetch):
		return "fetch"
	case errors.Is(err, model.ErrSubmission):
		return "submission"
	default:
		return "other"
	}
}
