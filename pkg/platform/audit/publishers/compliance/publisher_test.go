package compliance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "candlepin/pkg/domain"
	audit "candlepin/pkg/platform/audit"
	"candlepin/pkg/platform/audit/store/memory"
)

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error {
	return errors.New("disk full")
}

func (failingStore) ListByConsumer(context.Context, id.ConsumerID) ([]audit.Event, error) {
	return nil, nil
}

func TestPublisher_Emit(t *testing.T) {
	ctx := context.Background()

	t.Run("persists event and sets timestamp", func(t *testing.T) {
		store := memory.NewInMemoryStore()
		pub := New(store)
		consumerID := id.ConsumerID(uuid.New())

		err := pub.Emit(ctx, audit.ComplianceEvent{
			ConsumerID: consumerID,
			Action:     string(audit.EventComplianceChanged),
			Status:     "valid",
			Hash:       "abc",
		})
		require.NoError(t, err)

		events, err := store.ListByConsumer(ctx, consumerID)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, audit.CategoryCompliance, events[0].Category)
		assert.Equal(t, "valid", events[0].Status)
		assert.WithinDuration(t, time.Now(), events[0].Timestamp, time.Minute)
	})

	t.Run("rejects missing consumer", func(t *testing.T) {
		pub := New(memory.NewInMemoryStore())
		err := pub.Emit(ctx, audit.ComplianceEvent{Action: string(audit.EventComplianceChanged)})
		assert.ErrorContains(t, err, "ConsumerID")
	})

	t.Run("rejects missing action", func(t *testing.T) {
		pub := New(memory.NewInMemoryStore())
		err := pub.Emit(ctx, audit.ComplianceEvent{ConsumerID: id.ConsumerID(uuid.New())})
		assert.ErrorContains(t, err, "Action")
	})

	t.Run("fails closed when store fails", func(t *testing.T) {
		pub := New(failingStore{})
		err := pub.Emit(ctx, audit.ComplianceEvent{
			ConsumerID: id.ConsumerID(uuid.New()),
			Action:     string(audit.EventSystemPurposeChanged),
		})
		assert.ErrorContains(t, err, "compliance audit persistence failed")
	})
}
