package main

import (
	"context"
	"errors"
	netHttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"enrollment-portal/backend"
	"enrollment-portal/config"
	"enrollment-portal/db"
	"enrollment-portal/http"
	"enrollment-portal/http/handlers"
	"enrollment-portal/logger"
	"enrollment-portal/models"
	"enrollment-portal/services"
	"enrollment-portal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()
	logger.Default().SetLevel(logger.ParseLevel(config.AppConfig.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := backend.New(config.AppConfig.BackendURL, config.AppConfig.RequestTimeout)

	// Postgres backs the pending-order store and the event DLQ
	kafkaEnabled := len(config.KafkaBrokerList()) > 0
	if config.AppConfig.StoreBackend == config.StorePostgres || kafkaEnabled {
		if err := db.InitDB(); err != nil {
			if config.AppConfig.StoreBackend == config.StorePostgres {
				logger.Fatal("Error initializing database: %v", err)
			}
			logger.Warn("[DB] unavailable, DLQ messages will only be logged: %v", err)
		}
	}
	defer db.Close()

	stores, closeStore := buildStore(ctx)
	defer closeStore()

	// Initialize Kafka (non-fatal; no brokers means no events)
	services.InitProducer()
	events := services.NewPaymentEvents()
	if kafkaEnabled {
		receipts := services.NewReceiptNotifier(api)
		services.RegisterHandler(models.EventCaptured, receipts.HandleCaptured)
		if err := services.InitConsumer(); err != nil {
			logger.Error("[KAFKA] consumer init failed: %v", err)
		} else {
			services.StartConsumer()
		}
		services.StartDLQAutoRetry(ctx, 5*time.Minute)
	}

	server := &netHttp.Server{
		Addr:              ":" + config.AppConfig.Port,
		Handler:           http.NewRouter(handlers.New(api, stores, events)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting on %s (backend %s, store %s)",
			server.Addr, config.AppConfig.BackendURL, config.AppConfig.StoreBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, netHttp.ErrServerClosed) {
			logger.Fatal("Server failed: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("Shutdown signal received, draining requests...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down server: %v", err)
	}

	events.Wait()
	if err := services.StopConsumer(); err != nil {
		logger.Error("Error stopping Kafka consumer: %v", err)
	}
	if err := services.Close(); err != nil {
		logger.Error("Error closing Kafka producer: %v", err)
	}

	logger.Info("Server shutdown complete")
}

// buildStore picks where the pending order id lives between the redirect out
// to the provider and the return trip.
func buildStore(ctx context.Context) (store.Factory, func()) {
	ttl := config.AppConfig.StoreTTL

	switch config.AppConfig.StoreBackend {
	case config.StoreMemory:
		logger.Warn("[STORE] in-memory store: pending orders are lost on restart")
		return store.SharedFactory(store.NewMemoryStore()), func() {}

	case config.StorePostgres:
		pg := store.NewPostgresStore(db.DB, ttl)
		go purgeExpired(ctx, pg)
		return store.SharedFactory(pg), func() {}

	case config.StoreRedis:
		rdb, err := db.NewRedis(ctx)
		if err != nil {
			logger.Fatal("Error initializing redis: %v", err)
		}
		return store.SharedFactory(store.NewRedisStore(rdb, ttl)), func() {
			if err := rdb.Close(); err != nil {
				logger.Error("[STORE] closing redis: %v", err)
			}
		}

	case config.StoreCookie:
		return store.CookieFactory(ttl), func() {}

	default:
		logger.Warn("[STORE] unknown STORE_BACKEND %q, using cookies", config.AppConfig.StoreBackend)
		return store.CookieFactory(ttl), func() {}
	}
}

func purgeExpired(ctx context.Context, pg *store.PostgresStore) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := pg.PurgeExpired(ctx); err != nil {
				logger.Warn("[STORE] purging expired orders: %v", err)
			} else if n > 0 {
				logger.Info("[STORE] purged %d expired pending orders", n)
			}
		}
	}
}
