package inflight

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/inventory-orders/internal/model"
)

func TestMemoryGuard_RejectsSecondAcquire(t *testing.T) {
	g := NewMemoryGuard()

	release, err := g.Acquire(context.Background(), "session-1")
	require.NoError(t, err)

	_, err = g.Acquire(context.Background(), "session-1")
	assert.ErrorIs(t, err, model.ErrSubmissionInFlight)

	other, err := g.Acquire(context.Background(), "session-2")
	require.NoError(t, err)
	other()

	release()

	again, err := g.Acquire(context.Background(), "session-1")
	require.NoError(t, err)
	again()
}

func TestMemoryGuard_ReleaseIsIdempotent(t *testing.T) {
	g := NewMemoryGuard()

	release, err := g.Acquire(context.Background(), "k")
	require.NoError(t, err)
	release()

	second, err := g.Acquire(context.Background(), "k")
	require.NoError(t, err)

	// повторный вызов первого release не должен снять чужой захват
	release()

	_, err = g.Acquire(context.Background(), "k")
	assert.ErrorIs(t, err, model.ErrSubmissionInFlight)
	second()
}

func TestMemoryGuard_Concurrent(t *testing.T) {
	g := NewMemoryGuard()

	var (
		wg       sync.WaitGroup
		active   atomic.Int32
		overlaps atomic.Int32
		start    = make(chan struct{})
	)

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < 100; j++ {
				release, err := g.Acquire(context.Background(), "same")
				if err != nil {
					continue
				}
				if active.Add(1) > 1 {
					overlaps.Add(1)
				}
				active.Add(-1)
				release()
			}
		}()
	}

	close(start)
	wg.Wait()

	assert.Zero(t, overlaps.Load())
}
