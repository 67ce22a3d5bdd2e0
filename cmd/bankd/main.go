package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/pepinilloalsofrito-cell/gemini-financial/internal/config"
	"github.com/pepinilloalsofrito-cell/gemini-financial/internal/events"
	"github.com/pepinilloalsofrito-cell/gemini-financial/internal/handlers"
	"github.com/pepinilloalsofrito-cell/gemini-financial/internal/health"
	"github.com/pepinilloalsofrito-cell/gemini-financial/internal/httpmiddleware"
	"github.com/pepinilloalsofrito-cell/gemini-financial/internal/journal"
	"github.com/pepinilloalsofrito-cell/gemini-financial/internal/logging"
	"github.com/pepinilloalsofrito-cell/gemini-financial/internal/metrics"
	"github.com/pepinilloalsofrito-cell/gemini-financial/internal/pricing"
	"github.com/pepinilloalsofrito-cell/gemini-financial/internal/rate"
	"github.com/pepinilloalsofrito-cell/gemini-financial/internal/service"
	"github.com/pepinilloalsofrito-cell/gemini-financial/internal/session"
	"github.com/pepinilloalsofrito-cell/gemini-financial/internal/trace"
)

func main() {
	cfg, err := config.Load(os.Getenv("BANK_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.App.LogLevel, cfg.App.ServiceName, cfg.App.Env)
	shutdownTracer, err := trace.InitTracer(cfg.App.ServiceName, cfg.App.Env)
	if err != nil {
		logger.Error("tracer init failed", "error", err)
	} else {
		defer func() {
			_ = shutdownTracer(context.Background())
		}()
	}

	if cfg.App.Env == "dev" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(registry)

	ready := health.NewManager("sessions", "journal", "events")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions, sessionsClose, err := buildSessionStore(cfg, logger)
	if err != nil {
		logger.Error("session store init failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = sessionsClose()
	}()
	ready.SetReady("sessions", true)

	txJournal, journalClose, err := buildJournal(ctx, cfg, logger)
	if err != nil {
		logger.Error("journal init failed", "error", err)
		os.Exit(1)
	}
	defer journalClose()
	ready.SetReady("journal", true)

	publisher, err := buildPublisher(cfg, logger, registry)
	if err != nil {
		logger.Error("event publisher init failed", "error", err)
		os.Exit(1)
	}
	ready.SetReady("events", true)
	defer func() {
		_ = publisher.Close()
	}()

	feed := pricing.NewSimulator(cfg.Feed.UpdateInterval, cfg.Feed.Volatility, logger)
	go feed.Run(ctx)

	bank := service.NewBankService(sessions, txJournal, feed, publisher, logger, service.NewMetrics(registry))

	limiter := rate.New(cfg.RateLimit.LoginLimit, cfg.RateLimit.Window)
	handler := handlers.New(bank, logger, []byte(cfg.Auth.JWTSecret), cfg.Auth.JWTIssuer, cfg.Auth.SessionTTL, limiter)

	router := gin.New()
	router.Use(httpmiddleware.RequestID())
	router.Use(httpmiddleware.Logger(logger))
	router.Use(httpmiddleware.Recovery(logger))
	router.Use(trace.Middleware(cfg.App.ServiceName))

	router.GET("/healthz", health.LivenessHandler)
	router.GET("/readyz", health.ReadinessHandler(ready))
	router.GET(cfg.App.MetricsPath, gin.WrapH(metrics.Handler(registry)))

	handler.Register(router)

	addr := fmt.Sprintf("%s:%d", cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.App.HTTP.ReadTimeout,
		WriteTimeout: cfg.App.HTTP.WriteTimeout,
		IdleTimeout:  cfg.App.HTTP.IdleTimeout,
	}

	go func() {
		logger.Info("bank api starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(server, logger, cancel, func() {
		ready.SetReady("sessions", false)
		ready.SetReady("journal", false)
		ready.SetReady("events", false)
	})
}

// buildSessionStore connects to redis when configured; dev and test fall back
// to the in-memory store if redis is missing or unreachable.
func buildSessionStore(cfg *config.Config, logger *slog.Logger) (session.Store, func() error, error) {
	redisCfg := cfg.SessionStore.Redis
	if redisCfg.Addr == "" {
		if cfg.App.Env == "dev" || cfg.App.Env == "test" {
			return session.NewMemoryStore(), func() error { return nil }, nil
		}
		return nil, nil, fmt.Errorf("session store redis not configured")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if cfg.App.Env == "dev" || cfg.App.Env == "test" {
			logger.Warn("redis session store unavailable, falling back to memory", "error", err)
			return session.NewMemoryStore(), func() error { return nil }, nil
		}
		return nil, nil, err
	}

	return session.NewRedisStore(client, redisCfg.Prefix, cfg.Auth.SessionTTL), client.Close, nil
}

// buildJournal uses postgres when configured, otherwise keeps history in
// memory. A missing journal never blocks ledger operations, so memory is an
// acceptable default everywhere.
func buildJournal(ctx context.Context, cfg *config.Config, logger *slog.Logger) (journal.Journal, func(), error) {
	pgCfg := cfg.Journal.Postgres
	if pgCfg.Host == "" {
		logger.Info("journal running in memory")
		return journal.NewMemoryJournal(), func() {}, nil
	}

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		pgCfg.User,
		pgCfg.Password,
		pgCfg.Host,
		pgCfg.Port,
		pgCfg.Name,
		pgCfg.SSLMode,
	)

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(connectCtx, connStr)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	pg := journal.NewPostgresJournal(pool)
	if err := pg.EnsureSchema(connectCtx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return pg, pool.Close, nil
}

// buildPublisher wires the kafka transaction event stream when brokers are
// configured; without brokers the publisher is a no-op.
func buildPublisher(cfg *config.Config, logger *slog.Logger, registry *prometheus.Registry) (*events.TransactionPublisher, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info("kafka brokers not configured, transaction events disabled")
		return events.NewTransactionPublisher(nil, cfg.Kafka.Topic, logger), nil
	}

	producer, err := events.NewSyncProducer(cfg.Kafka.Brokers, logger, events.NewProducerMetrics(registry))
	if err != nil {
		return nil, err
	}
	return events.NewTransactionPublisher(producer, cfg.Kafka.Topic, logger), nil
}

func waitForShutdown(server *http.Server, logger *slog.Logger, cancel context.CancelFunc, drain func()) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	drain()
	cancel()

	ctx, cancelTimeout := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelTimeout()

	logger.Info("shutdown started")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		return
	}
	logger.Info("shutdown complete")
}
