// Package inflight ограничивает параллельные отправки заказов в рамках одной сессии.
package inflight

import (
	"context"
	"sync"

	"github.com/mmeshcher/inventory-orders/internal/model"
)

// Release снимает захват ключа.
type Release func()

// Guard разрешает не более одной операции на ключ одновременно.
type Guard interface {
	Acquire(ctx context.Context, key string) (Release, error)
}

// MemoryGuard хранит захваченные ключи в памяти процесса.
type MemoryGuard struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

// NewMemoryGuard создаёт guard, работающий в пределах одного процесса.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{busy: make(map[string]struct{})}
}

// Acquire захватывает ключ или возвращает model.ErrSubmissionInFlight, если он уже занят.
func (g *MemoryGuard) Acquire(_ context.Context, key string) (Release, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.busy[key]; ok {
		return nil, model.ErrSubmissionInFlight
	}
	g.busy[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.busy, key)
			g.mu.Unlock()
		})
	}, nil
}
