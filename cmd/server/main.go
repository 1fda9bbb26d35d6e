package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Talha-100/hft-matching-engine/internal/adapter/cache"
	"github.com/Talha-100/hft-matching-engine/internal/adapter/in_memory"
	httpapi "github.com/Talha-100/hft-matching-engine/internal/api/http"
	"github.com/Talha-100/hft-matching-engine/internal/api/tcp"
	"github.com/Talha-100/hft-matching-engine/internal/config"
	"github.com/Talha-100/hft-matching-engine/internal/core"
	"github.com/Talha-100/hft-matching-engine/internal/logging"
	"github.com/Talha-100/hft-matching-engine/internal/market"
	"github.com/Talha-100/hft-matching-engine/internal/port"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults apply when empty)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}

	logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	var snapCache port.Cache = in_memory.NewMemoryCache()
	if cfg.Redis.Enabled {
		snapCache = cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.RedisTTL())
		logger.Info("using redis snapshot cache", zap.String("addr", cfg.Redis.Addr))
	}

	engine := core.NewEngine(cfg.Book.Symbol, snapCache, logger)
	publisher := market.NewPublisher(logger)

	server := tcp.NewServer(engine, publisher, logger,
		tcp.WithQueueSize(cfg.Server.WriteQueueSize),
		tcp.WithFlushDelay(cfg.DisconnectDelay()))
	if err := server.Listen(cfg.Server.TCPAddr); err != nil {
		logger.Fatal("tcp listen failed", zap.Error(err))
	}

	if cfg.Server.HTTPAddr != "" {
		api := httpapi.NewHTTPServer(engine, snapCache, cfg.RateLimit())
		go func() {
			logger.Info("http api listening", zap.String("addr", cfg.Server.HTTPAddr))
			if err := api.Run(cfg.Server.HTTPAddr); err != nil {
				logger.Error("http api stopped", zap.Error(err))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")
		server.Shutdown()
	}()

	if err := server.Serve(); err != nil {
		logger.Fatal("serve failed", zap.Error(err))
	}
}
