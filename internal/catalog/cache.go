// Package catalog содержит кэш каталога товаров и поставщиков.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/inventory-orders/internal/model"
)

// Source описывает внешний источник каталога (БД или внешний REST API).
type Source interface {
	FetchProducts(ctx context.Context) ([]model.Product, error)
	FetchSuppliers(ctx context.Context) ([]model.Supplier, error)
}

// Snapshot хранит неизменяемый срез каталога на момент последней загрузки.
type Snapshot struct {
	products  []model.Product
	suppliers []model.Supplier

	productByID  map[int64]model.Product
	supplierByID map[int64]model.Supplier
}

// Product возвращает товар по идентификатору.
func (s *Snapshot) Product(id int64) (model.Product, bool) {
	p, ok := s.productByID[id]
	return p, ok
}

// Supplier возвращает поставщика по идентификатору.
func (s *Snapshot) Supplier(id int64) (model.Supplier, bool) {
	sp, ok := s.supplierByID[id]
	return sp, ok
}

// Products возвращает копию списка товаров.
func (s *Snapshot) Products() []model.Product {
	return append([]model.Product(nil), s.products...)
}

// Suppliers возвращает копию списка поставщиков.
func (s *Snapshot) Suppliers() []model.Supplier {
	return append([]model.Supplier(nil), s.suppliers...)
}

// Cache хранит последний успешно загруженный каталог. Обновление заменяет списки целиком.
type Cache struct {
	source  Source
	timeout time.Duration
	logger  *zap.Logger

	mu              sync.Mutex
	snapshot        *Snapshot
	productsLoaded  bool
	suppliersLoaded bool
}

// NewCache создаёт кэш каталога. timeout ограничивает каждое обращение к источнику.
func NewCache(source Source, timeout time.Duration, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		source:   source,
		timeout:  timeout,
		logger:   logger,
		snapshot: newSnapshot(nil, nil),
	}
}

// ListProducts возвращает товары каталога, при первом обращении загружая их из источника.
func (c *Cache) ListProducts(ctx context.Context) ([]model.Product, error) {
	c.mu.Lock()
	loaded := c.productsLoaded
	c.mu.Unlock()

	if !loaded {
		if err := c.RefreshProducts(ctx); err != nil {
			return nil, err
		}
	}

	return c.current().Products(), nil
}

// ListSuppliers возвращает поставщиков каталога, при первом обращении загружая их из источника.
func (c *Cache) ListSuppliers(ctx context.Context) ([]model.Supplier, error) {
	c.mu.Lock()
	loaded := c.suppliersLoaded
	c.mu.Unlock()

	if !loaded {
		if err := c.RefreshSuppliers(ctx); err != nil {
			return nil, err
		}
	}

	return c.current().Suppliers(), nil
}

// Snapshot возвращает согласованный срез каталога, догружая ещё не загруженные списки.
func (c *Cache) Snapshot(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	productsLoaded, suppliersLoaded := c.productsLoaded, c.suppliersLoaded
	c.mu.Unlock()

	if !productsLoaded {
		if err := c.RefreshProducts(ctx); err != nil {
			return nil, err
		}
	}
	if !suppliersLoaded {
		if err := c.RefreshSuppliers(ctx); err != nil {
			return nil, err
		}
	}

	return c.current(), nil
}

// Refresh перезагружает товары и поставщиков. Список, который не удалось загрузить,
// остаётся прежним.
func (c *Cache) Refresh(ctx context.Context) error {
	return errors.Join(c.RefreshProducts(ctx), c.RefreshSuppliers(ctx))
}

// RefreshProducts перезагружает список товаров из источника.
func (c *Cache) RefreshProducts(ctx context.Context) error {
	fetchCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	products, err := c.source.FetchProducts(fetchCtx)
	if err != nil {
		c.logger.Warn("fetch products failed", zap.Error(err))
		return fmt.Errorf("%w: products: %w", model.ErrFetch, err)
	}

	products, err = filterProducts(products)
	if err != nil {
		c.logger.Warn("malformed products", zap.Error(err))
		return fmt.Errorf("%w: products: %w", model.ErrFetch, err)
	}

	c.mu.Lock()
	c.snapshot = newSnapshot(products, c.snapshot.suppliers)
	c.productsLoaded = true
	c.mu.Unlock()

	c.logger.Debug("products refreshed", zap.Int("count", len(products)))
	return nil
}

// RefreshSuppliers перезагружает список поставщиков из источника.
func (c *Cache) RefreshSuppliers(ctx context.Context) error {
	fetchCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	suppliers, err := c.source.FetchSuppliers(fetchCtx)
	if err != nil {
		c.logger.Warn("fetch suppliers failed", zap.Error(err))
		return fmt.Errorf("%w: suppliers: %w", model.ErrFetch, err)
	}

	suppliers, err = filterSuppliers(suppliers)
	if err != nil {
		c.logger.Warn("malformed suppliers", zap.Error(err))
		return fmt.Errorf("%w: suppliers: %w", model.ErrFetch, err)
	}

	c.mu.Lock()
	c.snapshot = newSnapshot(c.snapshot.products, suppliers)
	c.suppliersLoaded = true
	c.mu.Unlock()

	c.logger.Debug("suppliers refreshed", zap.Int("count", len(suppliers)))
	return nil
}

func (c *Cache) current() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

func (c *Cache) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func newSnapshot(products []model.Product, suppliers []model.Supplier) *Snapshot {
	s := &Snapshot{
		products:     products,
		suppliers:    suppliers,
		productByID:  make(map[int64]model.Product, len(products)),
		supplierByID: make(map[int64]model.Supplier, len(suppliers)),
	}
	for _, p := range products {
		s.productByID[p.ID] = p
	}
	for _, sp := range suppliers {
		s.supplierByID[sp.ID] = sp
	}
	return s
}

// Записи с пустым именем внешнее хранилище оставляет на месте удалённых.
func filterProducts(in []model.Product) ([]model.Product, error) {
	out := make([]model.Product, 0, len(in))
	seen := make(map[int64]struct{}, len(in))

	for _, p := range in {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		if p.ID <= 0 {
			return nil, fmt.Errorf("product %q has non-positive id %d", p.Name, p.ID)
		}
		if p.Price.IsNegative() {
			return nil, fmt.Errorf("product %d has negative price", p.ID)
		}
		if p.Quantity < 0 {
			return nil, fmt.Errorf("product %d has negative quantity", p.ID)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %d", p.ID)
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}

	return out, nil
}

func filterSuppliers(in []model.Supplier) ([]model.Supplier, error) {
	out := make([]model.Supplier, 0, len(in))
	seen := make(map[int64]struct{}, len(in))

	for _, s := range in {
		if strings.TrimSpace(s.Name) == "" {
			continue
		}
		if s.ID <= 0 {
			return nil, fmt.Errorf("supplier %q has non-positive id %d", s.Name, s.ID)
		}
		if _, dup := seen[s.ID]; dup {
			return nil, fmt.Errorf("duplicate supplier id %d", s.ID)
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}

	return out, nil
}
