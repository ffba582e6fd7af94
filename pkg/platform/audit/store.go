package audit

import (
	"context"

	id "candlepin/pkg/domain"
)

// Store persists audit events. Implementations must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByConsumer(ctx context.Context, consumerID id.ConsumerID) ([]Event, error)
}
