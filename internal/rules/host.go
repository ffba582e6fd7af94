// Package rules hosts the externally stored rule script.
//
// The Host compiles the current rules into a generation and serves
// invocations from it. Generations are swapped under a RWMutex; compiles are
// serialized by a second mutex so readers keep using the previous generation
// while a new one compiles. Each generation keeps a bounded free list of
// Lua states that already ran the rules' top level; an invocation borrows
// one and returns it only if the call succeeded.
package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	lua "github.com/Shopify/go-lua"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"candlepin/internal/rules/metrics"
	"candlepin/internal/rules/models"
	"candlepin/internal/rules/sandbox"
	dErrors "candlepin/pkg/domain-errors"
	audit "candlepin/pkg/platform/audit"
	"candlepin/pkg/requestcontext"
)

// Source supplies the current rules and the timestamp that versions them.
type Source interface {
	Rules(ctx context.Context) (*models.Rules, error)
	UpdatedAt(ctx context.Context) (time.Time, error)
}

// OpsTracker records rules lifecycle events.
type OpsTracker interface {
	Track(ctx context.Context, event audit.OpsEvent)
}

type generation struct {
	rules     models.Rules
	functions map[string]struct{}
	updatedAt time.Time
	states    chan *lua.State
}

func newGeneration(r models.Rules, functions []string, updatedAt time.Time, poolSize int) *generation {
	gen := &generation{
		rules:     r,
		functions: make(map[string]struct{}, len(functions)),
		updatedAt: updatedAt,
		states:    make(chan *lua.State, poolSize),
	}
	for _, name := range functions {
		gen.functions[name] = struct{}{}
	}
	return gen
}

// acquire returns an idle state or loads the rules into a new one.
func (g *generation) acquire() (*lua.State, error) {
	select {
	case l := <-g.states:
		return l, nil
	default:
	}
	l := sandbox.NewState()
	if _, err := sandbox.Load(l, g.rules.Body, chunkName(g.rules)); err != nil {
		return nil, err
	}
	return l, nil
}

// release keeps l for the next invocation unless the free list is full.
func (g *generation) release(l *lua.State) {
	select {
	case g.states <- l:
	default:
	}
}

// Host compiles and invokes rule functions.
type Host struct {
	source Source

	mu       sync.RWMutex
	current  *generation
	failedAt time.Time
	lastErr  error

	compileMu sync.Mutex
	poolSize  int

	fallbacks map[string]FallbackFunc
	ops       OpsTracker
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

type Option func(*Host)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		h.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Host) {
		h.metrics = m
	}
}

// WithOpsTracker records compile outcomes as ops audit events.
func WithOpsTracker(t OpsTracker) Option {
	return func(h *Host) {
		h.ops = t
	}
}

// WithStatePoolSize bounds how many idle Lua states a generation keeps.
// Zero disables reuse.
func WithStatePoolSize(n int) Option {
	return func(h *Host) {
		if n >= 0 {
			h.poolSize = n
		}
	}
}

// WithFallback serves name with fn when the rules do not define it.
func WithFallback(name string, fn FallbackFunc) Option {
	return func(h *Host) {
		h.fallbacks[name] = fn
	}
}

// New creates a rule host. Rules are compiled lazily on first use.
func New(source Source, opts ...Option) (*Host, error) {
	if source == nil {
		return nil, fmt.Errorf("rules source is required")
	}
	h := &Host{
		source:    source,
		fallbacks: make(map[string]FallbackFunc),
		poolSize:  runtime.GOMAXPROCS(0),
		logger:    slog.New(slog.DiscardHandler),
		tracer:    otel.Tracer("candlepin/rules"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Invoke calls the rule function name with a JSON context and returns its
// JSON result. A function the rules do not define and no fallback covers
// yields nil, nil.
func (h *Host) Invoke(ctx context.Context, name string, input json.RawMessage) (json.RawMessage, error) {
	start := time.Now()
	ctx, span := h.tracer.Start(ctx, "rules.Invoke", trace.WithAttributes(attribute.String("function", name)))
	defer span.End()

	gen, err := h.ensure(ctx)
	if err != nil {
		return nil, recordError(span, err)
	}
	span.SetAttributes(attribute.String("rules_version", gen.rules.Version))

	if _, ok := gen.functions[name]; !ok {
		if fb, ok := h.fallbacks[name]; ok {
			h.metrics.IncrementFallback(name)
			out, err := fb(ctx, input)
			if err != nil {
				return nil, recordError(span, dErrors.Wrap(err, dErrors.CodeRuleExecution, "fallback "+name+" failed"))
			}
			return out, nil
		}
		return nil, nil
	}

	out, err := h.run(ctx, gen, name, input)
	h.metrics.ObserveInvoke(name, time.Since(start), err)
	if err != nil {
		h.logger.WarnContext(ctx, "rule invocation failed",
			"request_id", requestcontext.RequestID(ctx),
			"function", name,
			"rules_version", gen.rules.Version,
			"error", err,
		)
		return nil, recordError(span, err)
	}
	return out, nil
}

func (h *Host) run(ctx context.Context, gen *generation, name string, input json.RawMessage) (out json.RawMessage, err error) {
	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "rule invocation cancelled")
	}

	var decoded any
	if len(input) > 0 {
		if err := json.Unmarshal(input, &decoded); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid rule context")
		}
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = dErrors.New(dErrors.CodeRuleExecution, fmt.Sprintf("rule %s panicked: %v", name, r))
		}
	}()

	l, err := gen.acquire()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeRuleParse, "rules failed to load")
	}
	result, err := sandbox.Call(l, name, decoded)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeRuleExecution, "rule "+name+" failed")
	}
	gen.release(l)
	if result == nil {
		return nil, nil
	}
	b, err := json.Marshal(result)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeRuleExecution, "rule "+name+" returned an unencodable value")
	}
	return b, nil
}

// Refresh checks the source and recompiles when the rules changed. A failed
// compile is returned even though the previous generation stays active.
func (h *Host) Refresh(ctx context.Context) error {
	if _, err := h.ensure(ctx); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastErr
}

// Current returns the rules of the active generation.
func (h *Host) Current() (models.Rules, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.current == nil {
		return models.Rules{}, false
	}
	return h.current.rules, true
}

// Functions lists the functions the active generation defines.
func (h *Host) Functions() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.current == nil {
		return nil
	}
	names := make([]string, 0, len(h.current.functions))
	for name := range h.current.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ensure returns the generation for the source's current timestamp,
// compiling when it changed.
func (h *Host) ensure(ctx context.Context) (*generation, error) {
	updatedAt, err := h.source.UpdatedAt(ctx)
	if err != nil {
		h.mu.RLock()
		cur := h.current
		h.mu.RUnlock()
		if cur != nil {
			h.logger.WarnContext(ctx, "rules timestamp unavailable, using active rules",
				"rules_version", cur.rules.Version,
				"error", err,
			)
			return cur, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "rules unavailable")
	}

	if gen, ok, err := h.lookup(updatedAt); ok {
		return gen, err
	}
	return h.compile(ctx, updatedAt)
}

// lookup resolves updatedAt without compiling. A timestamp that already
// failed resolves to the previous generation, or to the failure when there
// is none.
func (h *Host) lookup(updatedAt time.Time) (*generation, bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.current != nil && h.current.updatedAt.Equal(updatedAt) {
		return h.current, true, nil
	}
	if !h.failedAt.IsZero() && h.failedAt.Equal(updatedAt) {
		if h.current != nil {
			return h.current, true, nil
		}
		return nil, true, h.lastErr
	}
	return nil, false, nil
}

func (h *Host) compile(ctx context.Context, updatedAt time.Time) (*generation, error) {
	h.compileMu.Lock()
	defer h.compileMu.Unlock()

	if gen, ok, err := h.lookup(updatedAt); ok {
		return gen, err
	}

	r, err := h.source.Rules(ctx)
	if err != nil {
		h.mu.RLock()
		cur := h.current
		h.mu.RUnlock()
		if cur != nil {
			h.logger.WarnContext(ctx, "rules fetch failed, using active rules", "error", err)
			return cur, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "rules unavailable")
	}

	functions, err := Validate(r.Body)
	if err != nil {
		return h.fail(ctx, updatedAt, r, err)
	}

	gen := newGeneration(*r, functions, updatedAt, h.poolSize)

	h.mu.Lock()
	h.current = gen
	h.failedAt = time.Time{}
	h.lastErr = nil
	h.mu.Unlock()

	h.metrics.IncrementCompilation(true)
	h.logger.InfoContext(ctx, "rules compiled",
		"rules_version", r.Version,
		"rules_source", r.Source,
		"functions", len(functions),
	)
	h.track(ctx, audit.EventRulesCompiled, r.Version, "ok")
	return gen, nil
}

// fail remembers the failed timestamp so the same rules are not recompiled
// on every call, and keeps the previous generation when there is one.
func (h *Host) fail(ctx context.Context, updatedAt time.Time, r *models.Rules, err error) (*generation, error) {
	h.mu.Lock()
	h.failedAt = updatedAt
	h.lastErr = err
	cur := h.current
	h.mu.Unlock()

	version := r.Version
	h.metrics.IncrementCompilation(false)
	h.logger.ErrorContext(ctx, "rules compile failed",
		"rules_version", version,
		"error", err,
	)
	h.track(ctx, audit.EventRulesRejected, version, string(dErrors.CodeOf(err)))

	if cur != nil {
		return cur, nil
	}
	return nil, err
}

func (h *Host) track(ctx context.Context, action audit.AuditEvent, version, status string) {
	if h.ops == nil {
		return
	}
	h.ops.Track(ctx, audit.OpsEvent{
		Action:    string(action),
		Subject:   version,
		Status:    status,
		RequestID: requestcontext.RequestID(ctx),
	})
}

// Validate compiles body in a throwaway state and returns the functions it
// defines.
func Validate(body string) ([]string, error) {
	l := sandbox.NewState()
	functions, err := sandbox.Load(l, body, "rules")
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeRuleParse, "rules do not compile")
	}
	return functions, nil
}

func chunkName(r models.Rules) string {
	return "rules-" + r.Version
}

func recordError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
