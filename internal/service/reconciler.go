package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/inventory-orders/internal/metrics"
	"github.com/mmeshcher/inventory-orders/internal/model"
	"github.com/mmeshcher/inventory-orders/internal/receipt"
)

// Reconciler применяет квитанцию о приёмке к размещённому заказу.
type Reconciler struct {
	store   OrderStore
	timeout time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewReconciler создаёт Reconciler. timeout ограничивает каждое обращение к хранилищу.
func NewReconciler(store OrderStore, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		store:   store,
		timeout: timeout,
		logger:  logger,
		metrics: m,
	}
}

// ReceivePayload разбирает квитанцию (текст QR-кода или ручной ввод) и применяет её к заказу.
func (r *Reconciler) ReceivePayload(ctx context.Context, raw []byte) (model.Order, error) {
	rc, err := receipt.Decode(raw)
	if err != nil {
		r.metrics.OrderFailed("receive", reason(err))
		return model.Order{}, err
	}
	return r.ReceiveOrder(ctx, rc.OrderNumber, rc.Lines)
}

// ReceiveOrder записывает полученные количества по позициям заказа.
// Квитанция применяется целиком или не применяется совсем; повторная приёмка отклоняется.
func (r *Reconciler) ReceiveOrder(ctx context.Context, orderNo int64, lines []model.ReceivedLine) (model.Order, error) {
	order, err := r.receiveOrder(ctx, orderNo, lines)
	if err != nil {
		r.metrics.OrderFailed("receive", reason(err))
		return model.Order{}, err
	}

	r.metrics.ReceiptApplied(string(order.Status))
	r.logger.Info("receipt applied",
		zap.Int64("order", order.Number),
		zap.String("status", string(order.Status)),
		zap.Int("lines", len(lines)),
	)
	return order, nil
}

func (r *Reconciler) receiveOrder(ctx context.Context, orderNo int64, lines []model.ReceivedLine) (model.Order, error) {
	if err := checkReceipt(orderNo, lines); err != nil {
		return model.Order{}, err
	}

	getCtx, cancel := withTimeout(ctx, r.timeout)
	order, err := r.store.GetOrder(getCtx, orderNo)
	cancel()
	if err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			return model.Order{}, fmt.Errorf("%w: %d", model.ErrOrderNotFound, orderNo)
		}
		return model.Order{}, fmt.Errorf("%w: load order %d: %w", model.ErrFetch, orderNo, err)
	}

	if order.Status == model.OrderStatusReceived {
		return model.Order{}, fmt.Errorf("%w: %d", model.ErrAlreadyReceived, orderNo)
	}

	// Все позиции сопоставляются до записи, чтобы ошибка не оставила заказ частично принятым.
	for _, l := range lines {
		ol, ok := order.Line(l.ProductID)
		if !ok {
			return model.Order{}, fmt.Errorf("%w: product %d is not in order %d", model.ErrLineMismatch, l.ProductID, orderNo)
		}
		if l.QuantityReceived > ol.QuantityOrdered {
			r.metrics.OverReceipt()
			r.logger.Warn("received more than ordered",
				zap.Int64("order", orderNo),
				zap.Int64("product", l.ProductID),
				zap.Int64("ordered", ol.QuantityOrdered),
				zap.Int64("received", l.QuantityReceived),
			)
		}
		if !l.UnitPrice.IsZero() && !l.UnitPrice.Equal(ol.UnitPrice) {
			r.logger.Warn("receipt price differs from order",
				zap.Int64("order", orderNo),
				zap.Int64("product", l.ProductID),
				zap.String("ordered", ol.UnitPrice.String()),
				zap.String("receipt", l.UnitPrice.String()),
			)
		}
	}

	// Квитанция описывает поставку целиком: позиции без количества не допускаются.
	if len(lines) != len(order.Lines) {
		return model.Order{}, fmt.Errorf("%w: receipt covers %d of %d lines of order %d",
			model.ErrLineMismatch, len(lines), len(order.Lines), orderNo)
	}

	applyCtx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	updated, err := r.store.ApplyReceipt(applyCtx, orderNo, lines)
	if err != nil {
		if errors.Is(err, model.ErrAlreadyReceived) ||
			errors.Is(err, model.ErrOrderNotFound) ||
			errors.Is(err, model.ErrLineMismatch) {
			return model.Order{}, err
		}
		return model.Order{}, fmt.Errorf("%w: %w", model.ErrSubmission, err)
	}

	return updated, nil
}

func checkReceipt(orderNo int64, lines []model.ReceivedLine) error {
	if orderNo <= 0 {
		return fmt.Errorf("%w: order number must be positive", model.ErrMalformedPayload)
	}
	if len(lines) == 0 {
		return fmt.Errorf("%w: no received products", model.ErrMalformedPayload)
	}

	seen := make(map[int64]struct{}, len(lines))
	for _, l := range lines {
		if l.ProductID <= 0 {
			return fmt.Errorf("%w: product id must be positive", model.ErrMalformedPayload)
		}
		if _, dup := seen[l.ProductID]; dup {
			return fmt.Errorf("%w: product %d listed twice", model.ErrMalformedPayload, l.ProductID)
		}
		seen[l.ProductID] = struct{}{}

		if l.QuantityReceived < 0 {
			return fmt.Errorf("%w: product %d received %d", model.ErrInvalidQuantity, l.ProductID, l.QuantityReceived)
		}
	}

	return nil
}
