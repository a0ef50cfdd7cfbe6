package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"iap-entitlement-service/internal/client"
	"iap-entitlement-service/internal/config"
	"iap-entitlement-service/internal/repository"
	"iap-entitlement-service/internal/server"
	"iap-entitlement-service/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)

	db := client.InitSqliteClient(cfg.DatabaseURL)
	balanceStore := repository.NewBalanceStore(db)
	ledger := service.NewLedger(balanceStore)

	storeClient := client.NewSandboxClient()
	storeService := service.NewStoreService(storeClient, ledger, logger)

	ctx, cancel := context.WithCancel(context.Background())

	// listener first, so no update event is missed while loading
	listenerDone := storeService.StartListener(ctx)

	if err := storeService.LoadProducts(ctx, cfg.Store.ProductIDs); err != nil {
		logger.Error("load products", "error", err)
	}
	if err := storeService.Reconcile(ctx); err != nil {
		logger.Error("reconcile entitlements", "error", err)
	}
	if err := ledger.Load(ctx, cfg.Store.ProductIDs); err != nil {
		logger.Error("load consumable balances", "error", err)
	}

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	srv := server.NewServer(storeService)

	log.Println("Starting HTTP server on", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Println("Signal received, starting graceful shutdown...")

	cancel()

	select {
	case <-listenerDone:
	case <-time.After(5 * time.Second):
		log.Println("Update listener did not stop in time")
	}

	if err := srv.Shutdown(); err != nil {
		log.Fatal("HTTP server shutdown error")
	}
}

func newLogger(cfg config.Log) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(h)
}
