package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candlepin/internal/compliance/models"
	id "candlepin/pkg/domain"
	audit "candlepin/pkg/platform/audit"
	"candlepin/pkg/platform/audit/publishers/compliance"
	auditmemory "candlepin/pkg/platform/audit/store/memory"
	"candlepin/pkg/requestcontext"
)

type failingPublisher struct{}

func (failingPublisher) Emit(context.Context, audit.ComplianceEvent) error {
	return errors.New("outbox unavailable")
}

func TestAuditSinkEmit(t *testing.T) {
	consumerID := id.ConsumerID(uuid.New())
	ownerID := id.OwnerID(uuid.New())
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("maps system purpose changes onto the audit store", func(t *testing.T) {
		store := auditmemory.NewInMemoryStore()
		sink := NewAuditSink(compliance.New(store))
		ctx := requestcontext.WithRequestID(context.Background(), "req-1")

		err := sink.Emit(ctx, models.StatusChange{
			Kind:           models.KindSystemPurpose,
			ConsumerID:     consumerID,
			OwnerID:        ownerID,
			Status:         "mismatched",
			PreviousStatus: "matched",
			Hash:           "abc",
			ReasonKeys:     []string{"unsatisfied_sla"},
			OccurredAt:     at,
		})
		require.NoError(t, err)

		events, err := store.ListByConsumer(context.Background(), consumerID)
		require.NoError(t, err)
		require.Len(t, events, 1)
		ev := events[0]
		assert.Equal(t, string(audit.EventSystemPurposeChanged), ev.Action)
		assert.Equal(t, audit.CategoryCompliance, ev.Category)
		assert.Equal(t, ownerID, ev.OwnerID)
		assert.Equal(t, "mismatched", ev.Status)
		assert.Equal(t, "matched", ev.PreviousStatus)
		assert.Equal(t, []string{"unsatisfied_sla"}, ev.Reasons)
		assert.Equal(t, "req-1", ev.RequestID)
		assert.True(t, at.Equal(ev.Timestamp))
	})

	t.Run("compliance kind maps to compliance action", func(t *testing.T) {
		store := auditmemory.NewInMemoryStore()
		sink := NewAuditSink(compliance.New(store))

		require.NoError(t, sink.Emit(context.Background(), models.StatusChange{
			Kind:       models.KindCompliance,
			ConsumerID: consumerID,
			Status:     "valid",
		}))

		events, err := store.ListByConsumer(context.Background(), consumerID)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, string(audit.EventComplianceChanged), events[0].Action)
	})

	t.Run("publisher failure is returned", func(t *testing.T) {
		sink := NewAuditSink(failingPublisher{})
		err := sink.Emit(context.Background(), models.StatusChange{Kind: models.KindCompliance, ConsumerID: consumerID})
		assert.Error(t, err)
	})
}
