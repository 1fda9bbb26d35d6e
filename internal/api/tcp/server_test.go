package tcp

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Talha-100/hft-matching-engine/internal/adapter/in_memory"
	"github.com/Talha-100/hft-matching-engine/internal/core"
	"github.com/Talha-100/hft-matching-engine/internal/market"
)

func startTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	logger := zap.NewNop()
	engine := core.NewEngine("SIM", in_memory.NewMemoryCache(), logger)
	pub := market.NewPublisher(logger)

	srv := NewServer(engine, pub, logger, WithFlushDelay(10*time.Millisecond))
	if err := srv.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	go func() { _ = srv.Serve() }()
	t.Cleanup(srv.Shutdown)
	return srv, srv.Addr().String()
}

type testClient struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func dialClient(t *testing.T, addr string) *testClient {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	c := &testClient{t: t, conn: conn, r: bufio.NewReader(conn)}
	c.skipBanner()
	return c
}

// readMessage collects lines up to the blank-line delimiter.
func (c *testClient) readMessage() string {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var sb strings.Builder
	for {
		line, err := c.r.ReadString('\n')
		if err != nil {
			c.t.Fatalf("read failed: %v (got so far: %q)", err, sb.String())
		}
		if line == "\n" {
			return sb.String()
		}
		sb.WriteString(line)
	}
}

// The welcome banner contains one interior blank line, so it arrives as
// two delimited chunks.
func (c *testClient) skipBanner() {
	c.t.Helper()
	c.readMessage()
	c.readMessage()
}

func (c *testClient) sendLine(line string) {
	c.t.Helper()
	if _, err := fmt.Fprintf(c.conn, "%s\n", line); err != nil {
		c.t.Fatalf("write failed: %v", err)
	}
}

func TestWelcomeBanner(t *testing.T) {
	_, addr := startTestServer(t)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	banner := string(buf[:n])
	for _, want := range []string{"Welcome", "BUY <price> <quantity>", "CANCEL <orderId>"} {
		if !strings.Contains(banner, want) {
			t.Errorf("banner missing %q:\n%s", want, banner)
		}
	}
}

func TestOrderConfirmationAndTradeDetail(t *testing.T) {
	_, addr := startTestServer(t)
	c := dialClient(t, addr)

	c.sendLine("SELL 100 5")
	if got := c.readMessage(); got != "CONFIRMED OrderID: 1\n" {
		t.Fatalf("sell response = %q", got)
	}

	c.sendLine("BUY 101 10")
	if got := c.readMessage(); got != "CONFIRMED OrderID: 2\n" {
		t.Fatalf("buy response = %q", got)
	}
	if got := c.readMessage(); got != "TRADE BuyID: 2, SellID: 1, Price: 100, Quantity: 5\n" {
		t.Fatalf("trade detail = %q", got)
	}
}

func TestMarketDataBroadcastToOtherSessions(t *testing.T) {
	_, addr := startTestServer(t)
	maker := dialClient(t, addr)
	watcher := dialClient(t, addr)

	maker.sendLine("SELL 100 5")
	maker.readMessage() // CONFIRMED

	maker.sendLine("BUY 100 5")
	maker.readMessage() // CONFIRMED
	maker.readMessage() // TRADE detail

	if got := watcher.readMessage(); got != "MARKET TRADE Price: 100, Quantity: 5\n" {
		t.Fatalf("watcher received %q", got)
	}
}

func TestCancelFlow(t *testing.T) {
	_, addr := startTestServer(t)
	c := dialClient(t, addr)

	c.sendLine("BUY 99 5")
	c.readMessage()

	c.sendLine("CANCEL 1")
	if got := c.readMessage(); got != "CANCELLED OrderID: 1\n" {
		t.Fatalf("cancel response = %q", got)
	}
	c.sendLine("CANCEL 1")
	if got := c.readMessage(); got != "ORDER NOT FOUND: 1\n" {
		t.Fatalf("repeat cancel response = %q", got)
	}
}

func TestInvalidInputKeepsSessionAlive(t *testing.T) {
	_, addr := startTestServer(t)
	c := dialClient(t, addr)

	for _, line := range []string{"HELLO", "BUY abc 5", "BUY 100 0", "CANCEL", ""} {
		c.sendLine(line)
		if got := c.readMessage(); got != "INVALID INPUT\n" {
			t.Fatalf("response to %q = %q", line, got)
		}
	}

	// The session is still functional after bad input.
	c.sendLine("BUY 100 5")
	if got := c.readMessage(); got != "CONFIRMED OrderID: 1\n" {
		t.Fatalf("post-error response = %q", got)
	}
}

func TestDisconnectCommandClosesConnection(t *testing.T) {
	srv, addr := startTestServer(t)
	c := dialClient(t, addr)

	c.sendLine("DC")
	if got := c.readMessage(); got != "Disconnecting...\n" {
		t.Fatalf("dc response = %q", got)
	}

	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := c.r.ReadString('\n'); err != io.EOF {
		t.Fatalf("expected EOF after disconnect, got %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for srv.SessionCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("session never removed from server set")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAbruptDisconnectRemovesSession(t *testing.T) {
	srv, addr := startTestServer(t)
	c := dialClient(t, addr)

	deadline := time.Now().Add(2 * time.Second)
	for srv.SessionCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("session never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	_ = c.conn.Close()
	for srv.SessionCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("session never removed after abrupt close")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
