package handler

import (
	id "candlepin/pkg/domain"
	dErrors "candlepin/pkg/domain-errors"
)

const maxAddedEntitlements = 500

// ComplianceRequest is the optional body of POST /consumers/{consumerID}/compliance.
type ComplianceRequest struct {
	Apply *bool `json:"apply,omitempty"`
}

// Validate implements httputil.Validatable.
func (r *ComplianceRequest) Validate() error {
	return nil
}

// ShouldApply defaults to true when apply is omitted.
func (r *ComplianceRequest) ShouldApply() bool {
	return r.Apply == nil || *r.Apply
}

// PurposeComplianceRequest is the body of POST /consumers/{consumerID}/purpose_compliance.
type PurposeComplianceRequest struct {
	EntitlementIDs []string `json:"entitlement_ids,omitempty"`
	Apply          *bool    `json:"apply,omitempty"`

	parsedEntitlementIDs []id.EntitlementID
}

// Validate parses the entitlement IDs.
func (r *PurposeComplianceRequest) Validate() error {
	if len(r.EntitlementIDs) > maxAddedEntitlements {
		return dErrors.New(dErrors.CodeValidation, "too many entitlement_ids")
	}
	r.parsedEntitlementIDs = make([]id.EntitlementID, 0, len(r.EntitlementIDs))
	for _, raw := range r.EntitlementIDs {
		entID, err := id.ParseEntitlementID(raw)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "invalid entitlement id: "+raw)
		}
		r.parsedEntitlementIDs = append(r.parsedEntitlementIDs, entID)
	}
	return nil
}

// ParsedEntitlementIDs returns the validated entitlement IDs.
func (r *PurposeComplianceRequest) ParsedEntitlementIDs() []id.EntitlementID {
	return r.parsedEntitlementIDs
}

// ShouldApply defaults to true when apply is omitted.
func (r *PurposeComplianceRequest) ShouldApply() bool {
	return r.Apply == nil || *r.Apply
}
