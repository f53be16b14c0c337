package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/config"
	"storefront/internal/api"
	"storefront/internal/broker"
	"storefront/internal/pricing"
	"storefront/internal/redisclient"
	"storefront/internal/service"
	"storefront/internal/store"
	"storefront/internal/util"
	"storefront/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer util.SyncLogger()
	logger := util.GetLogger()

	logger.Info("Starting storefront",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("store", cfg.Store.Driver))

	// Initialize tracing
	tp, err := util.InitTracer(cfg.Observ.ServiceName, cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Warn("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// Redis backs the store, the change bus and the idempotency guard when selected
	var redisClient *redisclient.Client
	if cfg.Store.Driver == "redis" || cfg.Sync.Driver == "redis" {
		redisClient, err = redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		logger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// Initialize store
	var kv store.KV
	switch cfg.Store.Driver {
	case "memory":
		kv = store.NewMemory()
	case "sqlite", "postgres":
		dsn := cfg.Store.DatabaseURL
		if cfg.Store.Driver == "sqlite" {
			dsn = cfg.Store.SQLitePath
		}
		sqlStore, err := store.NewSQLStore(cfg.Store.Driver, dsn)
		if err != nil {
			logger.Fatal("Failed to open store", zap.Error(err))
		}
		defer sqlStore.Close()
		kv = sqlStore
	case "redis":
		kv = redisClient
	default:
		logger.Fatal("Unknown store driver", zap.String("driver", cfg.Store.Driver))
	}

	var bus store.Bus = store.NewMemoryBus()
	if cfg.Sync.Driver == "redis" {
		bus = redisClient
	}
	origin := cfg.Sync.Origin
	if origin == "" {
		origin = uuid.New().String()
	}
	notifying := store.NewNotifyingKV(kv, bus, origin)

	// Initialize state and pricing
	loc, err := time.LoadLocation(cfg.Business.TimeZone)
	if err != nil {
		logger.Warn("Unknown time zone, using UTC", zap.String("tz", cfg.Business.TimeZone), zap.Error(err))
		loc = time.UTC
	}
	engine := pricing.NewEngine(pricing.DefaultRules(), pricing.WithClock(func() time.Time {
		return time.Now().In(loc)
	}))

	state := service.NewState(notifying)
	state.Load(context.Background())

	// Initialize event publishing
	var events service.OrderEvents = broker.NewNopPublisher()
	var orderWorker *worker.OrderWorker
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
		defer producer.Close()
		events = broker.NewEventPublisher(producer)
	} else {
		logger.Info("Kafka disabled, order events are not published")
	}

	// Initialize idempotency guard
	var guard service.IdempotencyGuard = service.NewMemoryGuard()
	if redisClient != nil {
		guard = redisClient
	}

	// Initialize services
	catalogService := service.NewCatalogService(state)
	cartService := service.NewCartService(state)
	accountService := service.NewAccountService(state, engine, cfg.Business.AdminPasswordCheck)
	orderService := service.NewOrderService(state, events)
	commentService := service.NewCommentService(state)
	checkout := service.NewCheckoutOrchestrator(
		state,
		engine,
		service.NewLogReceiptPresenter(),
		events,
		guard,
		time.Duration(cfg.Business.IdempotencyTTLSeconds)*time.Second,
	)

	// Start background workers
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	syncer := service.NewSyncer(state, bus, origin)
	if err := syncer.Start(workerCtx); err != nil {
		logger.Fatal("Failed to start syncer", zap.Error(err))
	}

	if len(cfg.Kafka.Brokers) > 0 {
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
		orderWorker = worker.NewOrderWorker(consumer, catalogService)
		go func() {
			if err := orderWorker.Start(workerCtx); err != nil && err != context.Canceled {
				logger.Error("Order worker error", zap.Error(err))
			}
		}()
	}

	// Setup HTTP server
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(catalogService, cartService, accountService, orderService, commentService, checkout)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	cancelWorkers()
	syncer.Stop()
	if orderWorker != nil {
		if err := orderWorker.Stop(); err != nil {
			logger.Warn("Error stopping order worker", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
