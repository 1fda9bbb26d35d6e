package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Talha-100/hft-matching-engine/internal/api/dto"
	"github.com/Talha-100/hft-matching-engine/internal/core"
	"github.com/Talha-100/hft-matching-engine/internal/domain"
	"github.com/Talha-100/hft-matching-engine/internal/middleware"
	"github.com/Talha-100/hft-matching-engine/internal/port"
)

// HTTPServer exposes a read-only view of the book and the tape for
// operators and tooling. Trading happens over the TCP protocol only.
type HTTPServer struct {
	Eng       *core.Engine
	Cache     port.Cache
	rateLimit time.Duration
}

func NewHTTPServer(eng *core.Engine, cache port.Cache, rateLimit time.Duration) *HTTPServer {
	return &HTTPServer{Eng: eng, Cache: cache, rateLimit: rateLimit}
}

func (s *HTTPServer) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if s.rateLimit > 0 {
		rl := middleware.NewRateLimiter(s.rateLimit)
		r.Use(rl.Middleware())
	}

	r.GET("/healthz", s.healthz)
	r.GET("/orderbook", s.getOrderbook)
	r.GET("/trades", s.getTrades)
	return r
}

func (s *HTTPServer) Run(addr string) error {
	return s.Router().Run(addr)
}

func (s *HTTPServer) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "symbol": s.Eng.Symbol()})
}

// getOrderbook serves the cached snapshot when one is present and falls
// back to the engine otherwise.
func (s *HTTPServer) getOrderbook(c *gin.Context) {
	var snap *domain.OrderbookSnapshot
	if s.Cache != nil {
		if ob, err := s.Cache.GetOrderbook(c.Request.Context(), s.Eng.Symbol()); err == nil && ob != nil {
			snap = ob
		}
	}
	if snap == nil {
		snap = s.Eng.Snapshot()
	}
	c.JSON(http.StatusOK, dto.GetOrderbookResponse{
		Symbol:    snap.Symbol,
		Bids:      convertOrders(snap.Bids),
		Asks:      convertOrders(snap.Asks),
		Timestamp: snap.Timestamp,
	})
}

func (s *HTTPServer) getTrades(c *gin.Context) {
	c.JSON(http.StatusOK, dto.GetTradesResponse{Trades: convertTrades(s.Eng.Trades())})
}

func convertOrders(orders []domain.Order) []dto.Order {
	res := make([]dto.Order, len(orders))
	for i, o := range orders {
		res[i] = dto.Order{
			ID:       o.ID,
			Side:     string(o.Side),
			Price:    o.Price,
			Quantity: o.Quantity,
		}
	}
	return res
}

func convertTrades(trades []domain.Trade) []dto.Trade {
	res := make([]dto.Trade, len(trades))
	for i, t := range trades {
		res[i] = dto.Trade{
			BuyOrderID:  t.BuyOrderID,
			SellOrderID: t.SellOrderID,
			Price:       t.Price,
			Quantity:    t.Quantity,
		}
	}
	return res
}
