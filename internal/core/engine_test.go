package core

import (
	"context"
	"sort"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/Talha-100/hft-matching-engine/internal/adapter/in_memory"
	"github.com/Talha-100/hft-matching-engine/internal/domain"
)

func newTestEngine() *Engine {
	return NewEngine("SIM", in_memory.NewMemoryCache(), zap.NewNop())
}

func TestSubmitReturnsTradesForCaller(t *testing.T) {
	e := newTestEngine()
	sellID, trades := e.Submit(domain.Sell, dec(t, "100"), 5)
	if len(trades) != 0 {
		t.Fatalf("first order produced %d trades, want 0", len(trades))
	}
	buyID, trades := e.Submit(domain.Buy, dec(t, "100"), 5)
	if len(trades) != 1 {
		t.Fatalf("crossing order produced %d trades, want 1", len(trades))
	}
	if trades[0].BuyOrderID != buyID || trades[0].SellOrderID != sellID {
		t.Errorf("trade = %+v, want buy %d / sell %d", trades[0], buyID, sellID)
	}
}

func TestSubmitSerializesConcurrentOrders(t *testing.T) {
	e := newTestEngine()
	const n = 50

	// Same-side orders at one price never cross, so every order rests.
	price := dec(t, "1")
	ids := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, _ := e.Submit(domain.Buy, price, 1)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		if id != int64(i+1) {
			t.Fatalf("ids not a dense sequence from 1: %v", ids)
		}
	}
	if got := len(e.Snapshot().Bids); got != n {
		t.Fatalf("book holds %d bids, want %d", got, n)
	}
}

func TestEngineUpdatesCache(t *testing.T) {
	c := in_memory.NewMemoryCache()
	e := NewEngine("SIM", c, zap.NewNop())

	e.Submit(domain.Buy, dec(t, "100"), 10)

	snap, err := c.GetOrderbook(context.Background(), "SIM")
	if err != nil {
		t.Fatalf("cache read failed: %v", err)
	}
	if snap == nil || len(snap.Bids) != 1 {
		t.Fatalf("cached snapshot = %+v, want 1 bid", snap)
	}
}

func TestCancelThroughEngine(t *testing.T) {
	e := newTestEngine()
	id, _ := e.Submit(domain.Sell, dec(t, "100"), 5)

	if !e.Cancel(id) {
		t.Fatal("cancel of resting order should succeed")
	}
	if e.Cancel(id) {
		t.Fatal("repeated cancel should fail")
	}
	if got := len(e.Snapshot().Asks); got != 0 {
		t.Fatalf("book holds %d asks after cancel, want 0", got)
	}
}

func TestSnapshotOrderedByPriority(t *testing.T) {
	e := newTestEngine()
	e.Submit(domain.Buy, dec(t, "99"), 1)
	e.Submit(domain.Buy, dec(t, "101"), 1)
	e.Submit(domain.Buy, dec(t, "100"), 1)

	snap := e.Snapshot()
	for i := 1; i < len(snap.Bids); i++ {
		if snap.Bids[i-1].Price.LessThan(snap.Bids[i].Price) {
			t.Fatalf("bids not in descending price order: %+v", snap.Bids)
		}
	}
}
