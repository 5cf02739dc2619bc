// Package app собирает зависимости сервиса заказов по конфигурации.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mmeshcher/inventory-orders/internal/catalog"
	"github.com/mmeshcher/inventory-orders/internal/config"
	"github.com/mmeshcher/inventory-orders/internal/inflight"
	"github.com/mmeshcher/inventory-orders/internal/legacyapi"
	"github.com/mmeshcher/inventory-orders/internal/metrics"
	"github.com/mmeshcher/inventory-orders/internal/repository"
	"github.com/mmeshcher/inventory-orders/internal/service"
)

// backend обслуживает каталог, заказы и оплаты.
type backend interface {
	catalog.Source
	service.OrderStore
	service.CatalogStore
	service.PaymentStore
}

// App содержит собранный сервис и ресурсы, которые нужно закрыть при остановке.
type App struct {
	Service *service.Service
	Metrics *metrics.Metrics

	closers []func() error
}

// New подключается к хранилищу, выбранному в cfg, и собирает сервис.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Metrics: metrics.New()}

	store, err := a.openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	guard, err := a.openGuard(ctx, cfg, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	cache := catalog.NewCache(store, cfg.CallTimeout, logger)
	builder := service.NewBuilder(cache, store, guard, cfg.CallTimeout, logger, a.Metrics)
	reconciler := service.NewReconciler(store, cfg.CallTimeout, logger, a.Metrics)
	cashier := service.NewCashier(store, cfg.CallTimeout, logger, a.Metrics)

	a.Service = service.NewService(cache, store, store, builder, reconciler, cashier, cfg.CallTimeout, logger, a.Metrics)

	return a, nil
}

func (a *App) openBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (backend, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		repo, err := repository.NewPostgresRepository(ctx, cfg.DatabaseURI)
		if err != nil {
			return nil, fmt.Errorf("database initialization: %w", err)
		}
		a.closers = append(a.closers, repo.Close)
		return repo, nil
	case config.BackendLegacy:
		return legacyapi.NewClient(cfg.LegacyAPIAddress, cfg.CallTimeout, logger), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func (a *App) openGuard(ctx context.Context, cfg *config.Config, logger *zap.Logger) (inflight.Guard, error) {
	if cfg.RedisAddr == "" {
		return inflight.NewMemoryGuard(), nil
	}

	client, err := inflight.Connect(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, fmt.Errorf("submission guard: %w", err)
	}
	a.closers = append(a.closers, client.Close)

	// Захват живёт не дольше чтения каталога и записи заказа с запасом.
	return inflight.NewRedisGuard(client, 3*cfg.CallTimeout, logger), nil
}

// Close освобождает соединения с хранилищами.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}
