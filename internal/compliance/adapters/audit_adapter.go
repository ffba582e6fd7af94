package adapters

import (
	"context"

	"candlepin/internal/compliance/models"
	"candlepin/internal/compliance/ports"
	audit "candlepin/pkg/platform/audit"
	"candlepin/pkg/requestcontext"
)

// CompliancePublisher is the subset of the audit compliance publisher the
// sink needs.
type CompliancePublisher interface {
	Emit(ctx context.Context, event audit.ComplianceEvent) error
}

// AuditSink implements ports.EventSink by publishing status changes as
// compliance audit events.
type AuditSink struct {
	publisher CompliancePublisher
}

// NewAuditSink creates a new event sink backed by the audit publisher.
func NewAuditSink(publisher CompliancePublisher) ports.EventSink {
	return &AuditSink{publisher: publisher}
}

// Emit maps the change onto the audit event for its kind. Publisher errors
// are returned unchanged so the caller's transaction rolls back.
func (a *AuditSink) Emit(ctx context.Context, change models.StatusChange) error {
	return a.publisher.Emit(ctx, audit.ComplianceEvent{
		Timestamp:      change.OccurredAt,
		ConsumerID:     change.ConsumerID,
		OwnerID:        change.OwnerID,
		Action:         string(actionFor(change.Kind)),
		Status:         change.Status,
		PreviousStatus: change.PreviousStatus,
		Hash:           change.Hash,
		Reasons:        change.ReasonKeys,
		RequestID:      requestcontext.RequestID(ctx),
	})
}

func actionFor(kind models.StatusKind) audit.AuditEvent {
	if kind == models.KindSystemPurpose {
		return audit.EventSystemPurposeChanged
	}
	return audit.EventComplianceChanged
}
