package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	claimallocationengine "codedrop/contexts/distribution/claim-allocation-engine"
	metricsadapter "codedrop/contexts/distribution/claim-allocation-engine/adapters/metrics"
	postgresadapter "codedrop/contexts/distribution/claim-allocation-engine/adapters/postgres"
	"codedrop/contexts/distribution/claim-allocation-engine/ports"
	"codedrop/internal/platform/config"
	"codedrop/internal/platform/db"
	"codedrop/internal/platform/httpserver"
	"codedrop/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const (
	metricsNamespace = "claim_engine"
	shutdownTimeout  = 10 * time.Second
)

var logOutput io.Writer = os.Stdout

type APIApp struct {
	server   *httpserver.Server
	database *db.Database
	logger   *slog.Logger
}

type WorkerApp struct {
	database  *db.Database
	bus       *messaging.Kafka
	engine    claimallocationengine.Module
	scheduler gocron.Scheduler
	metrics   *http.Server
	cfg       config.Config
	logger    *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := NewLogger(cfg).With("service", cfg.ServiceName, "process", "api")

	database, err := openDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}

	registry := newRegistry()
	observer, err := metricsadapter.NewPrometheusObserver(metricsNamespace, registry)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	engine := buildEngine(cfg, database, nil, nil, observer, logger)
	metrics := promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	server := httpserver.New(engine, metrics, logger, normalizeAddr(cfg.HTTPPort), cfg.InternalAPIToken)
	return &APIApp{
		server:   server,
		database: database,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := NewLogger(cfg).With("service", cfg.ServiceName, "process", "worker")

	database, err := openDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}

	bus, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	registry := newRegistry()
	observer, err := metricsadapter.NewPrometheusObserver(metricsNamespace, registry)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	return &WorkerApp{
		database:  database,
		bus:       bus,
		engine:    buildEngine(cfg, database, bus, bus, observer, logger),
		scheduler: scheduler,
		metrics:   newMetricsServer(registry, normalizeAddr(cfg.WorkerMetricsPort)),
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(a.server.Start)
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func (a *APIApp) Close() error {
	if a.database != nil {
		return a.database.Close()
	}
	return nil
}

// Run registers the scheduled jobs, starts the profile consumer, serves
// /metrics and blocks until ctx is cancelled or the metrics listener fails.
func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.registerJobs(ctx); err != nil {
		return err
	}
	if w.cfg.EnableProfileConsumer {
		if err := w.engine.Workers.ProfileConsumer.Start(ctx); err != nil {
			return err
		}
	}

	w.scheduler.Start()
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"sweep_interval", w.cfg.SweepInterval.String(),
		"relay_interval", w.cfg.RelayInterval.String(),
		"metrics_addr", w.metrics.Addr,
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := w.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve worker metrics: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return errors.Join(w.metrics.Shutdown(shutdownCtx), w.stop())
	})
	return group.Wait()
}

func (w *WorkerApp) Close() error {
	if w.database != nil {
		return w.database.Close()
	}
	return nil
}

func (w *WorkerApp) registerJobs(ctx context.Context) error {
	if w.cfg.EnableSweeper {
		if err := w.addJob(ctx, "reservation-sweeper", w.cfg.SweepInterval, w.engine.Workers.Sweeper.RunOnce); err != nil {
			return err
		}
	}
	if w.cfg.EnableOutboxRelay {
		if err := w.addJob(ctx, "outbox-relay", w.cfg.RelayInterval, w.engine.Workers.OutboxRelay.RunOnce); err != nil {
			return err
		}
	}
	return nil
}

func (w *WorkerApp) addJob(
	ctx context.Context,
	name string,
	interval time.Duration,
	run func(context.Context) (int, error),
) error {
	_, err := w.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			processed, err := run(ctx)
			if err != nil {
				w.logger.Error("scheduled job failed",
					"event", "bootstrap_job_failed",
					"module", "internal/app/bootstrap",
					"layer", "worker",
					"job", name,
					"error", err.Error(),
				)
				return
			}
			if processed > 0 {
				w.logger.Debug("scheduled job completed",
					"event", "bootstrap_job_completed",
					"module", "internal/app/bootstrap",
					"layer", "worker",
					"job", name,
					"processed", processed,
				)
			}
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("register job %s: %w", name, err)
	}
	return nil
}

func (w *WorkerApp) stop() error {
	var errs []error
	if err := w.scheduler.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("shutdown scheduler: %w", err))
	}
	if err := w.bus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close bus: %w", err))
	}
	w.logger.Info("worker app stopped",
		"event", "bootstrap_worker_stopped",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	return errors.Join(errs...)
}

func buildEngine(
	cfg config.Config,
	database *db.Database,
	publisher ports.EventPublisher,
	subscriber ports.EventSubscriber,
	observer ports.Observer,
	logger *slog.Logger,
) claimallocationengine.Module {
	repo := postgresadapter.NewRepository(database.DB, logger)
	return claimallocationengine.NewModule(claimallocationengine.Dependencies{
		Pools:             repo,
		Ledger:            repo,
		Codes:             repo,
		SharedCodes:       repo,
		Applications:      repo,
		Claims:            repo,
		Claimants:         repo,
		Outbox:            repo,
		EventDedup:        repo,
		Publisher:         publisher,
		Subscriber:        subscriber,
		Clock:             postgresadapter.SystemClock{},
		IDGenerator:       postgresadapter.UUIDGenerator{},
		Observer:          observer,
		PasswordCacheSize: cfg.PasswordCacheSize,
		ReservationTTL:    cfg.ReservationTTL,
		DefaultRiskScore:  cfg.DefaultRiskScore,
		SweepBatchSize:    cfg.SweepBatchSize,
		RelayBatchSize:    cfg.OutboxBatchSize,
		EventDedupTTL:     cfg.EventDedupTTL,
		Logger:            logger,
	})
}

func openDatabase(cfg config.Config, logger *slog.Logger) (*db.Database, error) {
	dsn := cfg.PostgresDSN
	if strings.EqualFold(cfg.DatabaseDriver, config.DriverSQLite) {
		dsn = cfg.SQLitePath
	}
	database, err := db.Connect(db.Options{
		Driver: cfg.DatabaseDriver,
		DSN:    dsn,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	if err := postgresadapter.AutoMigrate(database.DB); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("migrate claim engine schema: %w", err)
	}
	return database, nil
}

func newMetricsServer(registry *prometheus.Registry, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func newRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func NewLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "text") {
		handler = slog.NewTextHandler(logOutput, opts)
	} else {
		handler = slog.NewJSONHandler(logOutput, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
