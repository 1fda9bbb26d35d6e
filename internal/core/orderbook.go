package core

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Talha-100/hft-matching-engine/internal/domain"
)

// OrderBook holds the two resting-order sides and the trade log for the
// single instrument. It is not safe for concurrent use; Engine serializes
// all access to it.
type OrderBook struct {
	bids   []domain.Order
	asks   []domain.Order
	nextID int64
	trades []domain.Trade
}

func NewOrderBook() *OrderBook {
	return &OrderBook{nextID: 1}
}

// AddOrder appends an order to the given side and returns its id. Numeric
// validation happens at the protocol layer; the book trusts its inputs.
func (b *OrderBook) AddOrder(side domain.Side, price decimal.Decimal, quantity int64) int64 {
	o := domain.Order{
		ID:       b.nextID,
		Side:     side,
		Price:    price,
		Quantity: quantity,
	}
	b.nextID++
	if side == domain.Buy {
		b.bids = append(b.bids, o)
	} else {
		b.asks = append(b.asks, o)
	}
	return o.ID
}

// CancelOrder removes the resting order with the given id from whichever
// side holds it. An id rests on at most one side at most once.
func (b *OrderBook) CancelOrder(orderID int64) bool {
	if removed := removeByID(&b.bids, orderID); removed {
		return true
	}
	return removeByID(&b.asks, orderID)
}

// Match re-sorts both sides into price-time priority and fills crossing
// orders until the best bid no longer meets the best ask. Each fill trades
// at the resting ask's price for the minimum of the two quantities; orders
// filled to zero are removed from the front of their side. Returns the
// trades produced by this pass, which are also appended to the trade log.
func (b *OrderBook) Match() []domain.Trade {
	b.sortOrders()

	var executed []domain.Trade
	for len(b.bids) > 0 && len(b.asks) > 0 {
		bestBid := &b.bids[0]
		bestAsk := &b.asks[0]
		if bestBid.Price.LessThan(bestAsk.Price) {
			break
		}

		qty := min(bestBid.Quantity, bestAsk.Quantity)
		tr := domain.Trade{
			BuyOrderID:  bestBid.ID,
			SellOrderID: bestAsk.ID,
			Price:       bestAsk.Price,
			Quantity:    qty,
		}
		executed = append(executed, tr)

		bestBid.Quantity -= qty
		bestAsk.Quantity -= qty
		if bestBid.Quantity == 0 {
			b.bids = b.bids[1:]
		}
		if bestAsk.Quantity == 0 {
			b.asks = b.asks[1:]
		}
	}

	b.trades = append(b.trades, executed...)
	return executed
}

// sortOrders ranks bids by price descending and asks by price ascending,
// ties broken by ascending id (earlier submission wins).
func (b *OrderBook) sortOrders() {
	sort.Slice(b.bids, func(i, j int) bool {
		if !b.bids[i].Price.Equal(b.bids[j].Price) {
			return b.bids[i].Price.GreaterThan(b.bids[j].Price)
		}
		return b.bids[i].ID < b.bids[j].ID
	})
	sort.Slice(b.asks, func(i, j int) bool {
		if !b.asks[i].Price.Equal(b.asks[j].Price) {
			return b.asks[i].Price.LessThan(b.asks[j].Price)
		}
		return b.asks[i].ID < b.asks[j].ID
	})
}

// TradeHistory returns a copy of the full append-only trade log.
func (b *OrderBook) TradeHistory() []domain.Trade {
	out := make([]domain.Trade, len(b.trades))
	copy(out, b.trades)
	return out
}

func (b *OrderBook) Bids() []domain.Order {
	out := make([]domain.Order, len(b.bids))
	copy(out, b.bids)
	return out
}

func (b *OrderBook) Asks() []domain.Order {
	out := make([]domain.Order, len(b.asks))
	copy(out, b.asks)
	return out
}

// Dump renders both sides in their current slice order for diagnostics.
func (b *OrderBook) Dump() string {
	var sb strings.Builder
	sb.WriteString("Buy Orders:\n")
	for _, o := range b.bids {
		sb.WriteString(o.String())
		sb.WriteByte('\n')
	}
	sb.WriteString("Sell Orders:\n")
	for _, o := range b.asks {
		sb.WriteString(o.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func removeByID(orders *[]domain.Order, orderID int64) bool {
	for i, o := range *orders {
		if o.ID == orderID {
			*orders = append((*orders)[:i], (*orders)[i+1:]...)
			return true
		}
	}
	return false
}
