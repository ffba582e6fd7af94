// Package service orchestrates compliance evaluation: it loads a consumer's
// view of the world, runs the pure evaluators, and applies the resulting
// status with hash-based change detection.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"candlepin/internal/compliance/metrics"
	"candlepin/internal/compliance/ports"
	"candlepin/pkg/platform/audit"
)

// Type aliases for shared interfaces.
type (
	ConsumerStore = ports.ConsumerStore
	Inventory     = ports.Inventory
	EventSink     = ports.EventSink
	RuleInvoker   = ports.RuleInvoker
	TxRunner      = ports.TxRunner
)

const defaultRefreshConcurrency = 8

// OpsTracker records owner refreshes. Tracking never fails the refresh.
type OpsTracker interface {
	Track(ctx context.Context, event audit.OpsEvent)
}

// Service evaluates and applies consumer compliance.
type Service struct {
	consumers ConsumerStore
	inventory Inventory
	events    EventSink
	rules     RuleInvoker
	tx        TxRunner
	ops       OpsTracker

	logger             *slog.Logger
	metrics            *metrics.Metrics
	tracer             trace.Tracer
	refreshConcurrency int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithRuleInvoker lets rule scripts override fact-derived decisions.
func WithRuleInvoker(rules RuleInvoker) Option {
	return func(s *Service) {
		s.rules = rules
	}
}

// WithTxRunner runs each status application in a transaction.
func WithTxRunner(tx TxRunner) Option {
	return func(s *Service) {
		if tx != nil {
			s.tx = tx
		}
	}
}

func WithOpsTracker(t OpsTracker) Option {
	return func(s *Service) {
		s.ops = t
	}
}

// WithRefreshConcurrency bounds parallel evaluations during an owner refresh.
func WithRefreshConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.refreshConcurrency = n
		}
	}
}

func New(consumers ConsumerStore, inventory Inventory, events EventSink, opts ...Option) (*Service, error) {
	if consumers == nil {
		return nil, fmt.Errorf("consumer store is required")
	}
	if inventory == nil {
		return nil, fmt.Errorf("inventory is required")
	}
	if events == nil {
		return nil, fmt.Errorf("event sink is required")
	}

	svc := &Service{
		consumers:          consumers,
		inventory:          inventory,
		events:             events,
		tx:                 directTx{},
		logger:             slog.New(slog.DiscardHandler),
		tracer:             otel.Tracer("candlepin/compliance"),
		refreshConcurrency: defaultRefreshConcurrency,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// directTx runs fn without a transaction, for in-memory stores.
type directTx struct{}

func (directTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
