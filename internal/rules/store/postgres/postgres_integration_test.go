//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"candlepin/internal/rules/models"
	"candlepin/internal/rules/store/postgres"
	"candlepin/pkg/platform/sentinel"
	"candlepin/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T(), "../../../../migrations")
	s.store = postgres.New(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "rules"))
}

func (s *PostgresStoreSuite) TestLatestWins() {
	ctx := context.Background()

	_, err := s.store.Get(ctx)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.UpdatedAt(ctx)
	s.ErrorIs(err, sentinel.ErrNotFound)

	base := time.Now().UTC().Truncate(time.Millisecond)
	s.Require().NoError(s.store.Put(ctx, &models.Rules{Version: "5.1", Body: "-- version: 5.1\n", UpdatedAt: base}))
	s.Require().NoError(s.store.Put(ctx, &models.Rules{Version: "5.2", Body: "-- version: 5.2\n", UpdatedAt: base.Add(time.Second)}))

	r, err := s.store.Get(ctx)
	s.Require().NoError(err)
	s.Equal("5.2", r.Version)
	s.Equal(models.SourceDatabase, r.Source)

	ts, err := s.store.UpdatedAt(ctx)
	s.Require().NoError(err)
	s.True(base.Add(time.Second).Equal(ts))

	s.Require().NoError(s.store.Put(ctx, &models.Rules{Version: "5.1", Body: "-- version: 5.1\n-- again\n", UpdatedAt: base.Add(2 * time.Second)}))
	r, err = s.store.Get(ctx)
	s.Require().NoError(err)
	s.Equal("5.1", r.Version)
}
