package market

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Talha-100/hft-matching-engine/internal/domain"
)

// Subscriber is a session as seen by the publisher. Deliver must not
// block; it returns false once the subscriber is gone, which lets the
// publisher purge it on the next pass.
type Subscriber interface {
	ID() uuid.UUID
	Deliver(msg string) bool
}

// Publisher fans trade notifications out to every registered session
// except the one that produced the trade. It is constructed once by the
// server and passed to each session; registration never extends a
// session's lifetime, the registry only holds it by handle.
type Publisher struct {
	mu   sync.Mutex
	subs map[uuid.UUID]Subscriber
	log  *zap.Logger
}

func NewPublisher(log *zap.Logger) *Publisher {
	return &Publisher{
		subs: make(map[uuid.UUID]Subscriber),
		log:  log,
	}
}

func (p *Publisher) Register(s Subscriber) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs[s.ID()] = s
}

func (p *Publisher) Unregister(id uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.subs, id)
}

func (p *Publisher) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// BroadcastTrade delivers the market-data line for a trade to every live
// subscriber except excludeID. Targets are collected and the message
// formatted under the lock; delivery happens outside it so a slow session
// cannot stall registration or other broadcasts.
func (p *Publisher) BroadcastTrade(t domain.Trade, excludeID uuid.UUID) {
	msg := FormatMarketTrade(t)

	p.mu.Lock()
	targets := make([]Subscriber, 0, len(p.subs))
	for id, s := range p.subs {
		if id == excludeID {
			continue
		}
		targets = append(targets, s)
	}
	p.mu.Unlock()

	var dead []uuid.UUID
	for _, s := range targets {
		if !s.Deliver(msg) {
			dead = append(dead, s.ID())
		}
	}
	if len(dead) == 0 {
		return
	}

	p.mu.Lock()
	for _, id := range dead {
		delete(p.subs, id)
	}
	p.mu.Unlock()
	p.log.Debug("purged dead market-data subscribers", zap.Int("count", len(dead)))
}

// FormatMarketTrade renders the third-party view of a trade: price and
// quantity only, never the participating order ids.
func FormatMarketTrade(t domain.Trade) string {
	return fmt.Sprintf("MARKET TRADE Price: %s, Quantity: %d\n\n", t.Price.String(), t.Quantity)
}
