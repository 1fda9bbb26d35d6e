package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Order is a resting limit order. The book assigns IDs; Quantity is
// decremented only by matching, and an order never rests with Quantity 0.
type Order struct {
	ID       int64
	Side     Side
	Price    decimal.Decimal
	Quantity int64
}

func (o Order) String() string {
	return fmt.Sprintf("ORDER[ID=%d, Side=%s, Price=%s, Quantity=%d]",
		o.ID, o.Side, o.Price.String(), o.Quantity)
}
