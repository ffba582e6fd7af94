package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"candlepin/internal/compliance/adapters"
	compliancehandler "candlepin/internal/compliance/handler"
	compliancemetrics "candlepin/internal/compliance/metrics"
	"candlepin/internal/compliance/ports"
	"candlepin/internal/compliance/service"
	compliancememory "candlepin/internal/compliance/store/memory"
	compliancepostgres "candlepin/internal/compliance/store/postgres"
	"candlepin/internal/platform/config"
	"candlepin/internal/platform/httpserver"
	"candlepin/internal/platform/logger"
	"candlepin/internal/platform/metrics"
	platformredis "candlepin/internal/platform/redis"
	"candlepin/internal/rules"
	ruleshandler "candlepin/internal/rules/handler"
	rulesmetrics "candlepin/internal/rules/metrics"
	rulesmemory "candlepin/internal/rules/store/memory"
	rulespostgres "candlepin/internal/rules/store/postgres"
	rulesredis "candlepin/internal/rules/store/redis"
	audit "candlepin/pkg/platform/audit"
	compliancepublisher "candlepin/pkg/platform/audit/publishers/compliance"
	opspublisher "candlepin/pkg/platform/audit/publishers/ops"
	auditmemory "candlepin/pkg/platform/audit/store/memory"
	auditpostgres "candlepin/pkg/platform/audit/store/postgres"
	"candlepin/pkg/platform/httputil"
	"candlepin/pkg/platform/middleware/requestid"
	"candlepin/pkg/platform/middleware/requesttime"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	deps, cleanup, err := buildDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := httpserver.New(cfg.Addr, deps.router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting candlepin compliance", "addr", cfg.Addr, "storage", deps.storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("server stopped cleanly")
	return nil
}

type dependencies struct {
	router  http.Handler
	storage string
}

// stores groups the backends selected by configuration.
type stores struct {
	consumers ports.ConsumerStore
	inventory ports.Inventory
	rules     rules.Store
	audit     audit.Store
	tx        ports.TxRunner
}

func buildDependencies(ctx context.Context, cfg config.Server, log *slog.Logger) (_ *dependencies, _ func(), err error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	defer func() {
		if err != nil {
			cleanup()
		}
	}()

	var db *sql.DB
	st := memoryStores()
	storage := "memory"
	if cfg.DatabaseURL != "" {
		db, err = openPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = db.Close() })
		st = postgresStores(db, cfg.Compliance.TxTimeout)
		storage = "postgres"
	}

	rulesMetrics := rulesmetrics.New()
	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if redisClient != nil {
		closers = append(closers, func() { _ = redisClient.Close() })
		st.rules = rulesredis.NewCachedStore(st.rules, redisClient.Client,
			rulesredis.WithTTL(cfg.Rules.CacheTTL),
			rulesredis.WithLogger(log),
			rulesredis.WithMetrics(rulesMetrics),
		)
	}

	ops := opspublisher.New(st.audit,
		opspublisher.WithLogger(log),
		opspublisher.WithMetrics(opspublisher.NewMetrics()),
	)

	curator, err := rules.NewCurator(st.rules, rules.WithCuratorLogger(log))
	if err != nil {
		return nil, nil, err
	}
	host, err := rules.New(curator,
		rules.WithLogger(log),
		rules.WithMetrics(rulesMetrics),
		rules.WithOpsTracker(ops),
		rules.WithFallback(service.RuleConsumerCapacity, rules.Fallback(service.FactCapacity)),
	)
	if err != nil {
		return nil, nil, err
	}
	if err := host.Refresh(ctx); err != nil {
		log.Warn("initial rules compile failed", "error", err)
	}

	publisher := compliancepublisher.New(st.audit,
		compliancepublisher.WithLogger(log),
		compliancepublisher.WithMetrics(compliancepublisher.NewMetrics()),
	)
	complianceService, err := service.New(st.consumers, st.inventory, adapters.NewAuditSink(publisher),
		service.WithLogger(log),
		service.WithMetrics(compliancemetrics.New()),
		service.WithRuleInvoker(host),
		service.WithTxRunner(st.tx),
		service.WithOpsTracker(ops),
		service.WithRefreshConcurrency(cfg.Compliance.RefreshConcurrency),
	)
	if err != nil {
		return nil, nil, err
	}

	httpMetrics := metrics.New()
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(httpMetrics.Middleware)

	r.Get("/health", healthHandler(db, redisClient))
	r.Handle("/metrics", metrics.Handler())
	ruleshandler.New(host, log).Register(r)
	compliancehandler.New(complianceService, log).Register(r)

	return &dependencies{router: r, storage: storage}, cleanup, nil
}

func memoryStores() stores {
	inventory := compliancememory.NewInMemory()
	return stores{
		consumers: inventory,
		inventory: inventory,
		rules:     rulesmemory.NewInMemory(),
		audit:     auditmemory.NewInMemoryStore(),
	}
}

func postgresStores(db *sql.DB, txTimeout time.Duration) stores {
	inventory := compliancepostgres.New(db)
	return stores{
		consumers: inventory,
		inventory: inventory,
		rules:     rulespostgres.New(db),
		audit:     auditpostgres.New(db),
		tx:        newCompliancePostgresTx(db, txTimeout),
	}
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func healthHandler(db *sql.DB, redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{}
		healthy := true
		if db != nil {
			checks["postgres"] = "ok"
			if err := db.PingContext(r.Context()); err != nil {
				checks["postgres"] = err.Error()
				healthy = false
			}
		}
		if redisClient != nil {
			checks["redis"] = "ok"
			if err := redisClient.Health(r.Context()); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			}
		}
		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, map[string]any{"healthy": healthy, "checks": checks})
	}
}
