package domain

import "time"

type OrderbookSnapshot struct {
	Symbol    string
	Bids      []Order
	Asks      []Order
	Timestamp time.Time
}

func (s *OrderbookSnapshot) DeepCopy() *OrderbookSnapshot {
	cp := &OrderbookSnapshot{
		Symbol:    s.Symbol,
		Timestamp: s.Timestamp,
		Bids:      make([]Order, len(s.Bids)),
		Asks:      make([]Order, len(s.Asks)),
	}
	copy(cp.Bids, s.Bids)
	copy(cp.Asks, s.Asks)
	return cp
}
