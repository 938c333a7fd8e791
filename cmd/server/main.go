package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sealrush/sealrush-go/internal/api"
	"github.com/sealrush/sealrush-go/internal/core"
	"github.com/sealrush/sealrush-go/internal/reward"
	"github.com/sealrush/sealrush-go/internal/seal"
	"github.com/sealrush/sealrush-go/internal/store"
)

func main() {
	var (
		addr        = flag.String("addr", envOr("SEALRUSH_ADDR", ":8080"), "listen address")
		dbPath      = flag.String("db", envOr("SEALRUSH_DB", ""), "sqlite database path (empty disables persistence)")
		adminKey    = flag.String("admin-key", envOr("SEALRUSH_ADMIN_KEY", ""), "capability for seal emergency reveals (empty disables)")
		poolTokens  = flag.Int64("pool", envOrInt("SEALRUSH_POOL_TOKENS", 1000), "payout pool funding in whole tokens")
		chainHeight = flag.Uint64("chain-height", 0, "starting height of the manual chain clock")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[ENGINE] ", log.LstdFlags|log.LUTC)

	cfg := core.Config{
		AdminKey:    seal.Capability(*adminKey),
		PoolBalance: reward.Amount(*poolTokens) * reward.Scale,
		ChainStart:  *chainHeight,
		Logger:      logger,
	}

	if *dbPath != "" {
		db, err := store.NewSQLiteDB(*dbPath)
		if err != nil {
			logger.Fatalf("open database: %v", err)
		}
		defer db.Close()
		cfg.DB = db
	}

	engine, err := core.New(cfg)
	if err != nil {
		logger.Fatalf("assemble engine: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Queued oracle deliveries are processed off the request path.
	go engine.Dispatcher().Run(ctx)

	server := api.NewServer(engine)
	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Printf("server_listening addr=%s db=%q pool_tokens=%d", *addr, *dbPath, *poolTokens)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Printf("shutdown_started reason=signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("shutdown_error error=%v", err)
	}
	logger.Printf("shutdown_complete")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
