package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ruralpay/accounts/internal/audit"
	"github.com/ruralpay/accounts/internal/config"
	"github.com/ruralpay/accounts/internal/database"
	"github.com/ruralpay/accounts/internal/handlers"
	"github.com/ruralpay/accounts/internal/lock"
	"github.com/ruralpay/accounts/internal/logging"
	"github.com/ruralpay/accounts/internal/metrics"
	mW "github.com/ruralpay/accounts/internal/middleware"
	"github.com/ruralpay/accounts/internal/repository"
	"github.com/ruralpay/accounts/internal/services"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewLogger(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	logging.SetGlobal(logger)

	ctx := context.Background()

	// Initialize storage
	db, err := database.InitDB(ctx, database.GetConfig())
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.Migrate {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	var redisClient *redis.Client
	needsRedis := cfg.Lock.Backend == config.LockBackendRedis || cfg.Ledger.CacheTTL > 0
	if needsRedis {
		redisClient, err = database.InitRedis(ctx)
		if err != nil {
			if cfg.Lock.Backend == config.LockBackendRedis {
				return err
			}
			logger.Warn("continuing without ledger cache", zap.Error(err))
		}
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewPrometheusCollector("accounts")
	if err := collector.Register(registry); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	locker, err := newLocker(cfg.Lock, redisClient)
	if err != nil {
		return err
	}
	locker = lock.Instrument(locker, collector)

	// Initialize services
	store := repository.NewStore(db)
	auditLogger := audit.NewLogger(logger)

	var cache *services.LedgerCache
	if redisClient != nil && cfg.Ledger.CacheTTL > 0 {
		cache = services.NewLedgerCache(redisClient, cfg.Ledger.CacheTTL)
	}

	recorder := services.NewTransactionRecorder(store, store)
	window := services.ReversalWindow{Years: cfg.Ledger.ReversalWindowYears}
	balanceService := services.NewBalanceService(store, recorder, cache, window)
	transactionService := services.NewTransactionService(locker, balanceService, recorder,
		services.WithDebitDelay(cfg.Ledger.DebitDelay),
		services.WithMetrics(collector),
		services.WithAuditLogger(auditLogger),
	)
	accountService := services.NewAccountService(store, locker, auditLogger, cfg.Accounts.MaxPerUser)

	transactionHandler := handlers.NewTransactionHandler(transactionService)
	accountHandler := handlers.NewAccountHandler(accountService)

	var redisPing redis.Cmdable
	if redisClient != nil {
		redisPing = redisClient
	}
	healthChecker := database.NewHealthChecker(db, redisPing, 2*time.Second)

	// Setup router
	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", handlers.Health(healthChecker))
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(mW.AuthMiddleware([]byte(cfg.Auth.JWTSecret)))
		}
		transactionHandler.Routes(r)
		accountHandler.Routes(r)
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", server.Addr),
			zap.String("lock_backend", cfg.Lock.Backend),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func newLocker(cfg config.LockConfig, client *redis.Client) (lock.Locker, error) {
	if cfg.Backend == config.LockBackendMemory {
		logging.L().Warn("in-process lock backend selected; run a single instance only")
		return lock.NewMemoryLocker(cfg.AcquireTimeout), nil
	}

	opts := lock.DefaultOptions()
	opts.Expiry = cfg.Expiry
	opts.RetryDelay = cfg.RetryDelay
	opts.AcquireTimeout = cfg.AcquireTimeout
	opts.DriftFactor = cfg.DriftFactor
	opts.BreakerFailures = cfg.BreakerFailures
	opts.BreakerTimeout = cfg.BreakerTimeout

	locker, err := lock.NewRedisLocker(client, opts)
	if err != nil {
		return nil, fmt.Errorf("init redis locker: %w", err)
	}
	return locker, nil
}
