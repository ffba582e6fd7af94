// Package ops provides a best-effort audit publisher for operational events.
// Failures are logged and counted, never returned.
package ops

import (
	"context"
	"log/slog"
	"time"

	audit "candlepin/pkg/platform/audit"
	"candlepin/pkg/platform/circuit"
)

// Publisher persists ops events through a circuit breaker.
type Publisher struct {
	store   audit.Store
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *Metrics
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithCircuitBreaker replaces the default breaker, which opens after five
// failures and retries after a minute.
func WithCircuitBreaker(cb *circuit.Breaker) Option {
	return func(p *Publisher) {
		if cb != nil {
			p.breaker = cb
		}
	}
}

// New creates an ops publisher.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:   store,
		breaker: NewBreaker(5, time.Minute),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewBreaker returns a breaker suited to best-effort persistence: it opens
// after threshold consecutive failures, lets one attempt through per
// cooldown, and closes on the first success.
func NewBreaker(threshold int, cooldown time.Duration) *circuit.Breaker {
	return circuit.New("ops-audit",
		circuit.WithFailureThreshold(threshold),
		circuit.WithSuccessThreshold(1),
		circuit.WithCooldown(cooldown),
	)
}

// Track persists the event unless the breaker is open.
func (p *Publisher) Track(ctx context.Context, event audit.OpsEvent) {
	if p == nil || event.Action == "" {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if !p.breaker.Allow() {
		p.metrics.IncCircuitBreakerDropped()
		return
	}
	if err := p.store.Append(ctx, event.ToEvent()); err != nil {
		_, change := p.breaker.RecordFailure()
		p.metrics.IncPersistFailures()
		p.metrics.SetCircuitOpen(p.breaker.IsOpen())
		if change.Opened {
			p.logger.WarnContext(ctx, "ops audit circuit opened", "breaker", p.breaker.Name())
		}
		p.logger.WarnContext(ctx, "ops audit event dropped",
			"action", event.Action,
			"error", err,
		)
		return
	}
	if _, change := p.breaker.RecordSuccess(); change.Closed {
		p.logger.InfoContext(ctx, "ops audit circuit closed", "breaker", p.breaker.Name())
	}
	p.metrics.SetCircuitOpen(false)
	p.metrics.IncTracked()
}
