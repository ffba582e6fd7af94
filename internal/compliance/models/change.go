package models

import (
	"time"

	id "candlepin/pkg/domain"
)

// StatusKind distinguishes the two statuses a consumer carries.
type StatusKind string

const (
	KindCompliance    StatusKind = "compliance"
	KindSystemPurpose StatusKind = "system_purpose"
)

// StatusChange is emitted when a consumer's status hash changes.
type StatusChange struct {
	Kind           StatusKind
	ConsumerID     id.ConsumerID
	OwnerID        id.OwnerID
	Status         string
	PreviousStatus string
	Hash           string
	ReasonKeys     []string
	OccurredAt     time.Time
}
