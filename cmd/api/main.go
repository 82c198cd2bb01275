package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/carbon/internal/api"
	"example.com/carbon/internal/auth"
	"example.com/carbon/internal/config"
	"example.com/carbon/internal/domain"
	"example.com/carbon/internal/events"
	"example.com/carbon/internal/logger"
	"example.com/carbon/internal/outbox"
	"example.com/carbon/internal/persistence/memory"
	"example.com/carbon/internal/persistence/postgres"
	"example.com/carbon/internal/persistence/rediscache"
	httptransport "example.com/carbon/internal/transport/http"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	table, err := config.LoadFactorTable(cfg.FactorsFile)
	if err != nil {
		log.Fatal("failed to load emission factors", "file", cfg.FactorsFile, "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		store      domain.RecordStore
		dispatcher *outbox.Dispatcher
	)
	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		store = memory.NewStore()
		log.Warn("using in-memory record store; records are lost on restart")
	case config.StoreBackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Fatal("failed to connect to postgres", "error", err)
		}
		defer pool.Close()

		store = postgres.NewRepository(pool)

		producer := outbox.NewKafkaPublisher(cfg.KafkaBrokers, events.TopicRecords, events.TopicAlerts)
		defer producer.Close()

		registry := outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL)
		dispatcher = outbox.NewDispatcher(pool, producer, registry, cfg.OutboxPollInterval, cfg.OutboxBatchSize, log)
		go dispatcher.Start(ctx)
	default:
		log.Fatal("unknown store backend", "backend", cfg.StoreBackend)
	}

	if cfg.RedisAddr != "" {
		client, err := rediscache.Dial(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
		}
		defer client.Close()
		store = rediscache.New(store, client, cfg.RedisHistoryTTL, log)
	}

	service := domain.NewService(store, table, domain.WithDailyLimit(cfg.DailyLimitKg))

	handler := api.NewHandler(service, log.With("component", "api"))
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, httptransport.Chain(authMiddleware.Wrap(mux), log, cfg.CORSOrigins))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("carbon-service listening", "address", cfg.HTTPAddress, "store", cfg.StoreBackend, "factors", table.Len())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", "error", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}

	if dispatcher != nil {
		dispatcher.Wait()
	}
}
