package port

import (
	"context"

	"github.com/Talha-100/hft-matching-engine/internal/domain"
)

// Cache holds the latest order-book snapshot for external readers (the
// HTTP API). The matching path never reads it.
type Cache interface {
	SetOrderbook(ctx context.Context, symbol string, ob *domain.OrderbookSnapshot) error
	GetOrderbook(ctx context.Context, symbol string) (*domain.OrderbookSnapshot, error)
	Invalidate(ctx context.Context, symbol string) error
}
