package rules

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"candlepin/internal/rules/models"
	dErrors "candlepin/pkg/domain-errors"
	"candlepin/pkg/platform/sentinel"
)

//go:embed default_rules.lua
var defaultRulesBody string

// DefaultRules returns the rules compiled into the binary.
func DefaultRules() *models.Rules {
	version, err := VersionFromBody(defaultRulesBody)
	if err != nil {
		panic(fmt.Sprintf("embedded rules: %v", err))
	}
	return &models.Rules{
		Version: version,
		Source:  models.SourceDefault,
		Body:    defaultRulesBody,
	}
}

// Store persists published rules.
type Store interface {
	// Get returns the latest published rules or sentinel.ErrNotFound.
	Get(ctx context.Context) (*models.Rules, error)
	// UpdatedAt returns the publish time of the latest rules or sentinel.ErrNotFound.
	UpdatedAt(ctx context.Context) (time.Time, error)
	Put(ctx context.Context, rules *models.Rules) error
}

// Curator chooses between the stored rules and the embedded defaults. The
// stored rules win unless the defaults carry a newer version.
type Curator struct {
	store    Store
	defaults *models.Rules
	logger   *slog.Logger
	now      func() time.Time
}

type CuratorOption func(*Curator)

func WithCuratorLogger(logger *slog.Logger) CuratorOption {
	return func(c *Curator) {
		c.logger = logger
	}
}

// WithDefaults replaces the embedded default rules.
func WithDefaults(r *models.Rules) CuratorOption {
	return func(c *Curator) {
		c.defaults = r
	}
}

func NewCurator(store Store, opts ...CuratorOption) (*Curator, error) {
	if store == nil {
		return nil, fmt.Errorf("rules store is required")
	}
	c := &Curator{
		store:    store,
		defaults: DefaultRules(),
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Rules returns the active rules.
func (c *Curator) Rules(ctx context.Context) (*models.Rules, error) {
	stored, err := c.store.Get(ctx)
	if errors.Is(err, sentinel.ErrNotFound) {
		return c.defaultsCopy(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load stored rules: %w", err)
	}
	if CompareVersions(c.defaults.Version, stored.Version) > 0 {
		c.logger.InfoContext(ctx, "embedded rules are newer than stored rules",
			"default_version", c.defaults.Version,
			"stored_version", stored.Version,
		)
		return c.defaultsCopy(), nil
	}
	stored.Source = models.SourceDatabase
	return stored, nil
}

// UpdatedAt returns the timestamp that versions the active rules. Without
// stored rules the defaults are versioned by the zero time.
func (c *Curator) UpdatedAt(ctx context.Context) (time.Time, error) {
	ts, err := c.store.UpdatedAt(ctx)
	if errors.Is(err, sentinel.ErrNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("load rules timestamp: %w", err)
	}
	return ts, nil
}

// Publish validates body and stores it as the latest rules. Versions older
// than the stored rules are rejected.
func (c *Curator) Publish(ctx context.Context, body string) (*models.Rules, error) {
	version, err := VersionFromBody(body)
	if err != nil {
		return nil, err
	}
	if _, err := Validate(body); err != nil {
		return nil, err
	}

	stored, err := c.store.Get(ctx)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("load stored rules: %w", err)
	case CompareVersions(version, stored.Version) < 0:
		return nil, dErrors.New(dErrors.CodeConflict,
			fmt.Sprintf("rules version %s is older than stored version %s", version, stored.Version))
	}

	r := &models.Rules{
		Version:   version,
		Source:    models.SourceDatabase,
		Body:      body,
		UpdatedAt: c.now().UTC(),
	}
	if err := c.store.Put(ctx, r); err != nil {
		return nil, fmt.Errorf("store rules: %w", err)
	}
	c.logger.InfoContext(ctx, "rules published", "rules_version", version)
	return r, nil
}

func (c *Curator) defaultsCopy() *models.Rules {
	r := *c.defaults
	r.Source = models.SourceDefault
	return &r
}
