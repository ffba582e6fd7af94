// Package domain holds typed identifiers shared across modules.
//
// Typed IDs make it a compile error to pass a pool ID where a consumer ID is
// expected. Parsing happens once at trust boundaries (HTTP, CLI, stores);
// everything behind them works with the typed values.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "candlepin/pkg/domain-errors"
)

type (
	ConsumerID    uuid.UUID
	OwnerID       uuid.UUID
	PoolID        uuid.UUID
	EntitlementID uuid.UUID
)

// ProductID is the upstream SKU or engineering product identifier, e.g.
// "RH00003" or "69". It is not a UUID.
type ProductID string

const maxProductIDLength = 255

func parseUUID(kind, raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be nil")
	}
	return parsed, nil
}

func ParseConsumerID(raw string) (ConsumerID, error) {
	parsed, err := parseUUID("consumer_id", raw)
	return ConsumerID(parsed), err
}

func ParseOwnerID(raw string) (OwnerID, error) {
	parsed, err := parseUUID("owner_id", raw)
	return OwnerID(parsed), err
}

func ParsePoolID(raw string) (PoolID, error) {
	parsed, err := parseUUID("pool_id", raw)
	return PoolID(parsed), err
}

func ParseEntitlementID(raw string) (EntitlementID, error) {
	parsed, err := parseUUID("entitlement_id", raw)
	return EntitlementID(parsed), err
}

// ParseProductID trims raw and rejects empty or oversized identifiers.
func ParseProductID(raw string) (ProductID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "product_id is required")
	}
	if len(raw) > maxProductIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "product_id is too long")
	}
	return ProductID(raw), nil
}

func (id ConsumerID) String() string    { return uuid.UUID(id).String() }
func (id OwnerID) String() string       { return uuid.UUID(id).String() }
func (id PoolID) String() string        { return uuid.UUID(id).String() }
func (id EntitlementID) String() string { return uuid.UUID(id).String() }
func (id ProductID) String() string     { return string(id) }

func (id ConsumerID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id OwnerID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id PoolID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id EntitlementID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ProductID) IsNil() bool     { return id == "" }

// Text marshaling keeps the canonical UUID form in JSON payloads and rule
// contexts instead of a 16-element byte array.

func (id ConsumerID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id OwnerID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id PoolID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id EntitlementID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *ConsumerID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *OwnerID) UnmarshalText(b []byte) error       { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *PoolID) UnmarshalText(b []byte) error        { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *EntitlementID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
