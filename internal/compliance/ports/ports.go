// Package ports defines the boundaries of the compliance module.
// Stores, the event sink and the rule invoker are implemented by adapters
// so the service depends only on these interfaces.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"encoding/json"

	"candlepin/internal/compliance/models"
	id "candlepin/pkg/domain"
)

// ConsumerStore reads consumers and persists their status fields.
type ConsumerStore interface {
	// GetConsumer returns sentinel.ErrNotFound for unknown consumers.
	GetConsumer(ctx context.Context, consumerID id.ConsumerID) (*models.Consumer, error)

	// ListConsumerIDs returns every consumer belonging to the owner.
	ListConsumerIDs(ctx context.Context, ownerID id.OwnerID) ([]id.ConsumerID, error)

	// UpdateComplianceState writes the four status fields of the consumer.
	UpdateComplianceState(ctx context.Context, consumer *models.Consumer) error
}

// Inventory reads owners, entitlements, pools and products.
type Inventory interface {
	// GetOwner returns sentinel.ErrNotFound for unknown owners.
	GetOwner(ctx context.Context, ownerID id.OwnerID) (*models.Owner, error)

	// ListEntitlements returns every entitlement held by the consumer.
	ListEntitlements(ctx context.Context, consumerID id.ConsumerID) ([]models.Entitlement, error)

	// GetEntitlements returns the requested entitlements; unknown IDs are skipped.
	GetEntitlements(ctx context.Context, ids []id.EntitlementID) ([]models.Entitlement, error)

	// LoadSnapshot indexes the pools and products the entitlements reference.
	LoadSnapshot(ctx context.Context, entitlements []models.Entitlement) (*models.Snapshot, error)
}

// EventSink receives status change events. Emission is fail-closed: an
// error aborts the status update.
type EventSink interface {
	Emit(ctx context.Context, change models.StatusChange) error
}

// RuleInvoker calls a named rule function with a JSON context. A nil
// result with a nil error means the function is not defined.
type RuleInvoker interface {
	Invoke(ctx context.Context, name string, input json.RawMessage) (json.RawMessage, error)
}

// TxRunner runs fn inside one unit of work. Stores taking part read the
// transaction from ctx.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
