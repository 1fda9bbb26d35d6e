package tcp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Talha-100/hft-matching-engine/internal/domain"
)

type cmdKind int

const (
	cmdInvalid cmdKind = iota
	cmdOrder
	cmdCancel
	cmdDisconnect
)

type command struct {
	kind     cmdKind
	side     domain.Side
	price    decimal.Decimal
	quantity int64
	orderID  int64
}

// parseCommand turns one input line into a command. Keywords are
// case-sensitive; a malformed or non-positive numeric field makes the
// whole line invalid. Tokens beyond the required ones are ignored.
func parseCommand(line string) command {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{kind: cmdInvalid}
	}

	switch fields[0] {
	case "BUY", "SELL":
		if len(fields) < 3 {
			return command{kind: cmdInvalid}
		}
		price, err := decimal.NewFromString(fields[1])
		if err != nil || !price.IsPositive() {
			return command{kind: cmdInvalid}
		}
		qty, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil || qty <= 0 {
			return command{kind: cmdInvalid}
		}
		side := domain.Buy
		if fields[0] == "SELL" {
			side = domain.Sell
		}
		return command{kind: cmdOrder, side: side, price: price, quantity: qty}

	case "CANCEL":
		if len(fields) < 2 {
			return command{kind: cmdInvalid}
		}
		id, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || id <= 0 {
			return command{kind: cmdInvalid}
		}
		return command{kind: cmdCancel, orderID: id}

	case "DC", "DISCONNECT":
		return command{kind: cmdDisconnect}

	default:
		return command{kind: cmdInvalid}
	}
}

// Every response is terminated by a blank line; clients treat the empty
// line as the message delimiter.
const (
	respInvalidInput  = "INVALID INPUT\n\n"
	respDisconnecting = "Disconnecting...\n\n"
	respShuttingDown  = "Server shutting down. Goodbye.\n\n"
)

func formatConfirmed(orderID int64) string {
	return fmt.Sprintf("CONFIRMED OrderID: %d\n\n", orderID)
}

func formatTrade(t domain.Trade) string {
	return t.String() + "\n\n"
}

func formatCancelled(orderID int64) string {
	return fmt.Sprintf("CANCELLED OrderID: %d\n\n", orderID)
}

func formatNotFound(orderID int64) string {
	return fmt.Sprintf("ORDER NOT FOUND: %d\n\n", orderID)
}

func welcomeBanner() string {
	var sb strings.Builder
	sb.WriteString("====================================\n")
	sb.WriteString("  HFT Matching Engine - Welcome!\n")
	sb.WriteString("------------------------------------\n")
	sb.WriteString("Available Commands:\n")
	sb.WriteString("  BUY <price> <quantity>   - Place a buy order\n")
	sb.WriteString("  SELL <price> <quantity>  - Place a sell order\n")
	sb.WriteString("  CANCEL <orderId>         - Cancel an existing order\n")
	sb.WriteString("  DC                       - Disconnect from server\n")
	sb.WriteString("\n")
	sb.WriteString("Example: BUY 100.50 25\n")
	sb.WriteString("         SELL 101.00 10\n")
	sb.WriteString("         CANCEL 5\n")
	sb.WriteString("====================================\n\n")
	return sb.String()
}
