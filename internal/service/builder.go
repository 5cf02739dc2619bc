package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/inventory-orders/internal/catalog"
	"github.com/mmeshcher/inventory-orders/internal/inflight"
	"github.com/mmeshcher/inventory-orders/internal/metrics"
	"github.com/mmeshcher/inventory-orders/internal/model"
)

// moneyPlaces задаёт точность денежных сумм, совпадающую с NUMERIC(14, 2) в хранилище.
const moneyPlaces = 2

// Selections сопоставляет идентификатор товара и запрошенное количество.
type Selections map[int64]int64

// Builder проверяет выбор пользователя и отправляет новый заказ в хранилище.
// Между вызовами состояние не хранит.
type Builder struct {
	catalog *catalog.Cache
	store   OrderStore
	guard   inflight.Guard
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewBuilder создаёт Builder. timeout ограничивает обращение к хранилищу заказов.
func NewBuilder(c *catalog.Cache, store OrderStore, guard inflight.Guard, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) *Builder {
	if guard == nil {
		guard = inflight.NewMemoryGuard()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		catalog: c,
		store:   store,
		guard:   guard,
		timeout: timeout,
		now:     time.Now,
		logger:  logger,
		metrics: m,
	}
}

// BuildOrder проверяет выбор, фиксирует цены из текущего снимка каталога и отправляет заказ.
// Заказ считается размещённым только после подтверждения хранилищем.
func (b *Builder) BuildOrder(ctx context.Context, requester string, supplierID int64, selections Selections) (model.Order, error) {
	order, err := b.buildOrder(ctx, requester, supplierID, selections)
	if err != nil {
		b.metrics.OrderFailed("build", reason(err))
		return model.Order{}, err
	}

	b.metrics.OrderPlaced()
	b.logger.Info("order placed",
		zap.Int64("order", order.Number),
		zap.Int64("supplier", order.SupplierID),
		zap.Int("lines", len(order.Lines)),
		zap.String("total", order.TotalAmount.StringFixed(2)),
	)
	return order, nil
}

func (b *Builder) buildOrder(ctx context.Context, requester string, supplierID int64, selections Selections) (model.Order, error) {
	if len(selections) == 0 {
		return model.Order{}, model.ErrEmptySelection
	}

	release, err := b.guard.Acquire(ctx, guardKey(requester))
	if err != nil {
		if errors.Is(err, model.ErrSubmissionInFlight) {
			return model.Order{}, err
		}
		return model.Order{}, fmt.Errorf("%w: %w", model.ErrSubmission, err)
	}
	defer release()

	snap, err := b.catalog.Snapshot(ctx)
	if err != nil {
		return model.Order{}, err
	}

	// Проверка и фиксация цен выполняются по одному снимку без обращений к внешним системам.
	order, err := draftOrder(snap, supplierID, selections)
	if err != nil {
		return model.Order{}, err
	}
	order.Requester = requester
	order.OrderedAt = b.now().UTC()

	storeCtx, cancel := withTimeout(ctx, b.timeout)
	defer cancel()

	created, err := b.store.CreateOrder(storeCtx, order)
	if err != nil {
		return model.Order{}, fmt.Errorf("%w: %w", model.ErrSubmission, err)
	}

	return created, nil
}

func draftOrder(snap *catalog.Snapshot, supplierID int64, selections Selections) (model.Order, error) {
	if _, ok := snap.Supplier(supplierID); !ok {
		return model.Order{}, fmt.Errorf("%w: %d", model.ErrInvalidSupplier, supplierID)
	}

	ids := make([]int64, 0, len(selections))
	for id := range selections {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	lines := make([]model.OrderLine, 0, len(ids))
	total := decimal.Zero

	for _, id := range ids {
		qty := selections[id]

		p, ok := snap.Product(id)
		if !ok {
			return model.Order{}, &model.SelectionError{ProductID: id, Reason: "not in catalog"}
		}
		if qty <= 0 {
			return model.Order{}, &model.SelectionError{ProductID: id, Reason: fmt.Sprintf("quantity %d must be positive", qty)}
		}

		price := p.Price.Round(moneyPlaces)
		lines = append(lines, model.OrderLine{
			ProductID:       id,
			QuantityOrdered: qty,
			UnitPrice:       price,
		})
		total = total.Add(price.Mul(decimal.NewFromInt(qty)))
	}

	return model.Order{
		SupplierID:  supplierID,
		TotalAmount: total,
		Status:      model.OrderStatusPlaced,
		Lines:       lines,
	}, nil
}

func guardKey(requester string) string {
	if requester == "" {
		return "anonymous"
	}
	return requester
}
