package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Andorta/payments-reliability-milestone/config"
	httpHandler "github.com/Andorta/payments-reliability-milestone/internal/adapter/http/handler"
	"github.com/Andorta/payments-reliability-milestone/internal/adapter/provider"
	pgStorage "github.com/Andorta/payments-reliability-milestone/internal/adapter/storage/postgres"
	redisStorage "github.com/Andorta/payments-reliability-milestone/internal/adapter/storage/redis"
	"github.com/Andorta/payments-reliability-milestone/internal/core/ports"
	"github.com/Andorta/payments-reliability-milestone/internal/service"
	"github.com/Andorta/payments-reliability-milestone/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Payments Reliability Milestone")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Bootstrap schema
	if err := pgStorage.Bootstrap(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap schema")
	}

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	orderRepo := pgStorage.NewOrderRepo(pool)
	idempotencyRepo := pgStorage.NewIdempotencyRepo(pool)
	webhookRepo := pgStorage.NewWebhookEventRepo(pool)
	ledgerRepo := pgStorage.NewLedgerRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	responseCache := redisStorage.NewResponseCache(rdb)

	// Initialize provider client and in-process simulator
	providerClient := provider.NewClient(cfg.Provider, log)
	simulator := provider.NewSimulator(cfg.Provider, rand.Float64, log)

	// Initialize business services
	decisionEngine := service.NewDecisionEngine(providerClient, cfg.Outage.PendingCapCents, log)
	ledgerPoster := service.NewLedgerPoster(ledgerRepo, log)
	checkoutSvc := service.NewCheckoutService(
		orderRepo,
		idempotencyRepo,
		responseCache,
		decisionEngine,
		ledgerPoster,
		transactor,
		log,
	)
	webhookSvc := service.NewWebhookService(orderRepo, webhookRepo, ledgerPoster, transactor, log)
	orderSvc := service.NewOrderQueryService(orderRepo, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		CheckoutSvc:    checkoutSvc,
		WebhookSvc:     webhookSvc,
		OrderSvc:       orderSvc,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		ProviderCharge: simulator.Charge,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
