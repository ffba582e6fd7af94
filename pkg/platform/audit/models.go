package audit

import (
	"time"

	id "candlepin/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers consumer status changes. Downstream consumers
	// (UI refresh, reporting) rely on every change arriving exactly once per
	// hash transition, so these are written fail-closed.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers rules lifecycle and batch job events.
	CategoryOperations EventCategory = "operations"
)

// Event is the transport-agnostic record written to stores and the outbox.
type Event struct {
	Category       EventCategory
	Timestamp      time.Time
	ConsumerID     id.ConsumerID
	OwnerID        id.OwnerID
	Subject        string
	Action         string
	Status         string
	PreviousStatus string
	Hash           string
	Reasons        []string
	RequestID      string
}

type AuditEvent string

const (
	EventComplianceChanged    AuditEvent = "compliance_status_changed"
	EventSystemPurposeChanged AuditEvent = "system_purpose_status_changed"

	EventRulesCompiled  AuditEvent = "rules_compiled"
	EventRulesRejected  AuditEvent = "rules_rejected"
	EventOwnerRefreshed AuditEvent = "owner_compliance_refreshed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventComplianceChanged:    CategoryCompliance,
	EventSystemPurposeChanged: CategoryCompliance,

	EventRulesCompiled:  CategoryOperations,
	EventRulesRejected:  CategoryOperations,
	EventOwnerRefreshed: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// ComplianceEvent announces that a consumer's status hash changed.
type ComplianceEvent struct {
	Timestamp      time.Time     // set automatically if zero
	ConsumerID     id.ConsumerID // required
	OwnerID        id.OwnerID
	Action         string // compliance_status_changed or system_purpose_status_changed
	Status         string // new status string, e.g. "valid" or "mismatched"
	PreviousStatus string
	Hash           string // new status hash
	Reasons        []string
	RequestID      string
}

// Category returns CategoryCompliance (always).
func (e ComplianceEvent) Category() EventCategory { return CategoryCompliance }

// ToEvent converts to the store record.
func (e ComplianceEvent) ToEvent() Event {
	return Event{
		Category:       CategoryCompliance,
		Timestamp:      e.Timestamp,
		ConsumerID:     e.ConsumerID,
		OwnerID:        e.OwnerID,
		Subject:        e.ConsumerID.String(),
		Action:         e.Action,
		Status:         e.Status,
		PreviousStatus: e.PreviousStatus,
		Hash:           e.Hash,
		Reasons:        append([]string(nil), e.Reasons...),
		RequestID:      e.RequestID,
	}
}

// OpsEvent records an operational event such as a rules compile or an owner
// refresh. Ops events are best-effort.
type OpsEvent struct {
	Timestamp time.Time
	OwnerID   id.OwnerID
	Action    string
	Subject   string // rules version or owner key
	Status    string
	RequestID string
}

// ToEvent converts to the store record.
func (e OpsEvent) ToEvent() Event {
	return Event{
		Category:  CategoryOperations,
		Timestamp: e.Timestamp,
		OwnerID:   e.OwnerID,
		Subject:   e.Subject,
		Action:    e.Action,
		Status:    e.Status,
		RequestID: e.RequestID,
	}
}
