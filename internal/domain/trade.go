package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Trade records a completed fill. Price is the price of the order that was
// already resting in the book when the incoming order crossed it.
type Trade struct {
	BuyOrderID  int64
	SellOrderID int64
	Price       decimal.Decimal
	Quantity    int64
}

func (t Trade) String() string {
	return fmt.Sprintf("TRADE BuyID: %d, SellID: %d, Price: %s, Quantity: %d",
		t.BuyOrderID, t.SellOrderID, t.Price.String(), t.Quantity)
}
