package core

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Talha-100/hft-matching-engine/internal/domain"
	"github.com/Talha-100/hft-matching-engine/internal/port"
)

// Engine is the mutex-serialized facade over the single shared order book.
// Every session drives the same Engine, so price-time priority holds
// globally across all connections regardless of how many goroutines are
// handling them.
type Engine struct {
	mu     sync.Mutex
	book   *OrderBook
	symbol string

	cache port.Cache
	log   *zap.Logger
}

func NewEngine(symbol string, cache port.Cache, log *zap.Logger) *Engine {
	return &Engine{
		book:   NewOrderBook(),
		symbol: symbol,
		cache:  cache,
		log:    log,
	}
}

// Submit adds the order, runs a matching pass, and returns the new order's
// id along with the trades the pass produced.
func (e *Engine) Submit(side domain.Side, price decimal.Decimal, quantity int64) (int64, []domain.Trade) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.book.AddOrder(side, price, quantity)
	trades := e.book.Match()

	e.log.Info("order accepted",
		zap.Int64("order_id", id),
		zap.String("side", string(side)),
		zap.String("price", price.String()),
		zap.Int64("quantity", quantity),
		zap.Int("trades", len(trades)))
	if ce := e.log.Check(zap.DebugLevel, "book state"); ce != nil {
		ce.Write(zap.String("book", e.book.Dump()))
	}

	e.updateCacheLocked()
	return id, trades
}

// Cancel removes a resting order; false means the id was not resting
// (never existed, already filled, or already cancelled).
func (e *Engine) Cancel(orderID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	ok := e.book.CancelOrder(orderID)
	if ok {
		e.log.Info("order cancelled", zap.Int64("order_id", orderID))
		e.updateCacheLocked()
	}
	return ok
}

// Snapshot returns both sides in price-time priority order.
func (e *Engine) Snapshot() *domain.OrderbookSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Trades returns the full trade log.
func (e *Engine) Trades() []domain.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.TradeHistory()
}

func (e *Engine) Symbol() string { return e.symbol }

func (e *Engine) snapshotLocked() *domain.OrderbookSnapshot {
	e.book.sortOrders()
	return &domain.OrderbookSnapshot{
		Symbol:    e.symbol,
		Bids:      e.book.Bids(),
		Asks:      e.book.Asks(),
		Timestamp: time.Now(),
	}
}

// updateCacheLocked pushes a fresh snapshot for external readers. Cache
// failures are non-fatal: the book in memory is the source of truth.
func (e *Engine) updateCacheLocked() {
	if e.cache == nil {
		return
	}
	if err := e.cache.SetOrderbook(context.Background(), e.symbol, e.snapshotLocked()); err != nil {
		e.log.Warn("orderbook cache update failed", zap.Error(err))
	}
}
