package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	id "candlepin/pkg/domain"
)

func TestNow(t *testing.T) {
	t.Run("falls back to wall clock", func(t *testing.T) {
		before := time.Now()
		assert.False(t, Now(context.Background()).Before(before))
	})

	t.Run("returns injected time", func(t *testing.T) {
		fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		assert.Equal(t, fixed, Now(WithTime(context.Background(), fixed)))
	})
}

func TestRequestAndOwnerScope(t *testing.T) {
	ownerID := id.OwnerID(uuid.New())
	ctx := WithOwnerID(WithRequestID(context.Background(), "req-42"), ownerID)

	assert.Equal(t, "req-42", RequestID(ctx))
	assert.Equal(t, ownerID, OwnerID(ctx))
	assert.True(t, OwnerID(context.Background()).IsNil())
}
