package in_memory

import (
	"context"
	"sync"

	"github.com/Talha-100/hft-matching-engine/internal/domain"
)

// MemoryCache is the default snapshot cache: the engine runs with no
// external infrastructure unless Redis is enabled in configuration.
type MemoryCache struct {
	mu        sync.RWMutex
	snapshots map[string]*domain.OrderbookSnapshot
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{snapshots: make(map[string]*domain.OrderbookSnapshot)}
}

func (c *MemoryCache) SetOrderbook(_ context.Context, symbol string, ob *domain.OrderbookSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[symbol] = ob.DeepCopy()
	return nil
}

func (c *MemoryCache) GetOrderbook(_ context.Context, symbol string) (*domain.OrderbookSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ob, ok := c.snapshots[symbol]
	if !ok {
		return nil, nil
	}
	return ob.DeepCopy(), nil
}

func (c *MemoryCache) Invalidate(_ context.Context, symbol string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.snapshots, symbol)
	return nil
}
