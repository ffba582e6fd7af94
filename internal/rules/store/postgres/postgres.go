// Package postgres persists published rules in the rules table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"candlepin/internal/rules/models"
	"candlepin/pkg/platform/sentinel"
)

// Store reads and writes the rules table. The row with the latest
// updated_at is the active one.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context) (*models.Rules, error) {
	var r models.Rules
	err := s.db.QueryRowContext(ctx, `
		SELECT version, body, updated_at FROM rules
		ORDER BY updated_at DESC LIMIT 1`,
	).Scan(&r.Version, &r.Body, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find latest rules: %w", err)
	}
	r.Source = models.SourceDatabase
	return &r, nil
}

func (s *Store) UpdatedAt(ctx context.Context) (time.Time, error) {
	var ts sql.NullTime
	err := s.db.QueryRowContext(ctx, `SELECT MAX(updated_at) FROM rules`).Scan(&ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("find rules timestamp: %w", err)
	}
	if !ts.Valid {
		return time.Time{}, sentinel.ErrNotFound
	}
	return ts.Time, nil
}

// Put stores the rules, replacing an earlier publish of the same version.
func (s *Store) Put(ctx context.Context, r *models.Rules) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rules (version, body, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (version) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
		r.Version, r.Body, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store rules: %w", err)
	}
	return nil
}
