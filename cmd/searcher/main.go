package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/loader"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/service"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-server/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if err := run(cfg); err != nil {
		slog.Error("search server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("search server stopped")
}

func run(cfg *config.Config) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Deferred cleanups run in reverse order and their errors are collected.
	var cleanups []func() error
	defer func() {
		var errs error
		for i := len(cleanups) - 1; i >= 0; i-- {
			if cerr := cleanups[i](); cerr != nil {
				errs = multierror.Append(errs, cerr)
			}
		}
		if errs != nil {
			err = multierror.Append(err, errs)
		}
	}()

	engine, err := indexer.NewEngineWithStopWords(cfg.Search.StopWords)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	m := metrics.New(prometheus.DefaultRegisterer)
	checker := health.NewChecker()
	var opts service.Options

	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			cleanups = append(cleanups, redisClient.Close)
			store := cache.Guard(redisClient, resilience.BreakerConfig{
				FailureThreshold: 5,
				OpenTimeout:      30 * time.Second,
				OnStateChange: func(_, to resilience.State) {
					if to == resilience.StateClosed {
						m.CacheCircuitOpen.Set(0)
					} else {
						m.CacheCircuitOpen.Set(1)
					}
				},
			})
			opts.Cache = cache.New(store, cfg.Redis.CacheTTL)
			checker.Register("redis", health.PingCheck(redisClient.Ping, false))
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		cleanups = append(cleanups, producer.Close)
		collector := analytics.NewCollector(producer, 10000, 100, 5*time.Second)
		collector.Start()
		cleanups = append(cleanups, func() error { collector.Close(); return nil })
		opts.Tracker = collector
	}

	svc := service.New(engine, m, opts)

	if cfg.Postgres.Enabled {
		pg, err := resilience.Retry(ctx, "postgres connect", resilience.DefaultBackoff, func(context.Context) (*postgres.Client, error) {
			return postgres.New(cfg.Postgres)
		})
		if err != nil {
			return fmt.Errorf("connecting to corpus database: %w", err)
		}
		cleanups = append(cleanups, pg.Close)
		checker.Register("postgres", health.PingCheck(pg.Ping, true))
		stats, err := loader.New(pg.DB).Load(ctx, svc)
		if err != nil {
			return fmt.Errorf("loading corpus: %w", err)
		}
		slog.Info("corpus ready", "documents", stats.Loaded, "skipped", stats.Skipped)
	}

	if cfg.Kafka.Enabled {
		// The index lives only in memory, so every process start replays the
		// ingest topic under a fresh consumer group.
		groupID := fmt.Sprintf("%s-%s", cfg.Kafka.ConsumerGroup, uuid.NewString())
		ic := consumer.New(kafka.NewConsumer(cfg.Kafka, groupID, cfg.Kafka.Topics.DocumentIngest, consumer.HandleMessage(svc, m)))
		consumerCtx, cancelConsumer := context.WithCancel(ctx)
		consumerDone := make(chan struct{})
		go func() {
			defer close(consumerDone)
			if err := ic.Start(consumerCtx); err != nil {
				slog.Error("index consumer stopped", "error", err)
			}
		}()
		cleanups = append(cleanups, func() error {
			cancelConsumer()
			<-consumerDone
			return ic.Close()
		})
	}

	checker.Register("index", func(context.Context) health.ComponentHealth {
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents", svc.DocumentCount()),
		}
	})

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, prometheus.DefaultGatherer)
		cleanups = append(cleanups, func() error {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return shutdownMetrics(shutdownCtx)
		})
	}

	mux := http.NewServeMux()
	handler.New(svc, cfg.Search.DefaultPageSize).Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	mws := []func(http.Handler) http.Handler{middleware.RequestID, middleware.Metrics(m)}
	if cfg.RateLimit.Enabled {
		limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
		mws = append(mws, middleware.RateLimit(limiter, m))
	}
	mws = append(mws, middleware.Timeout(cfg.Server.RequestTimeout))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      middleware.Chain(mux, mws...),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("search server listening", "addr", server.Addr, "documents", svc.DocumentCount())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serving http: %w", err)
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
