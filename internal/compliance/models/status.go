package models

import (
	"sort"
	"time"

	id "candlepin/pkg/domain"
)

// Color is the tri-state summary of a status.
type Color string

const (
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorRed    Color = "red"

	// ColorDisabled marks a status whose evaluation was skipped.
	ColorDisabled Color = "disabled"
)

// Status strings persisted on the consumer.
const (
	StatusDisabled = "disabled"

	// Installed product compliance.
	StatusValid   = "valid"
	StatusPartial = "partial"
	StatusInvalid = "invalid"

	// System purpose.
	StatusMatched      = "matched"
	StatusMismatched   = "mismatched"
	StatusNotSpecified = "not specified"
)

// Reason keys.
const (
	ReasonUnsatisfiedRole  = "unsatisfied_role"
	ReasonUnsatisfiedAddOn = "unsatisfied_addon"
	ReasonUnsatisfiedSLA   = "unsatisfied_sla"
	ReasonUnsatisfiedUsage = "unsatisfied_usage"

	ReasonNotCovered = "NOTCOVERED"
	ReasonSockets    = "SOCKETS"
	ReasonCores      = "CORES"
	ReasonRAM        = "RAM"
	ReasonArch       = "ARCH"
)

// Reason explains one unmet requirement.
type Reason struct {
	Key        string            `json:"key"`
	Message    string            `json:"message"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// SystemPurposeStatus is the result of comparing a consumer's role, usage,
// service level and add-ons against its entitlements at one point in time.
// Maps are keyed by the requested preference value.
type SystemPurposeStatus struct {
	Date     time.Time
	Disabled bool

	Role         string
	Usage        string
	ServiceLevel string
	AddOns       []string

	CompliantRole   map[string][]Entitlement
	CompliantUsage  map[string][]Entitlement
	CompliantSLA    map[string][]Entitlement
	CompliantAddOns map[string][]Entitlement

	NonCompliantRole   string
	NonCompliantUsage  string
	NonCompliantSLA    string
	NonCompliantAddOns []string

	Reasons []Reason
}

// NewSystemPurposeStatus returns an empty status for the given date.
func NewSystemPurposeStatus(at time.Time) *SystemPurposeStatus {
	return &SystemPurposeStatus{
		Date:            at,
		CompliantRole:   map[string][]Entitlement{},
		CompliantUsage:  map[string][]Entitlement{},
		CompliantSLA:    map[string][]Entitlement{},
		CompliantAddOns: map[string][]Entitlement{},
	}
}

// IsCompliant reports whether every requested preference is satisfied.
// A disabled status is never compliant.
func (s *SystemPurposeStatus) IsCompliant() bool {
	if s.Disabled {
		return false
	}
	return s.NonCompliantRole == "" &&
		s.NonCompliantUsage == "" &&
		s.NonCompliantSLA == "" &&
		len(s.NonCompliantAddOns) == 0
}

// Color derives the tri-state color. Role, usage and SLA are all-or-nothing;
// add-ons are yellow while at least one is satisfied.
func (s *SystemPurposeStatus) Color() Color {
	if s.Disabled {
		return ColorDisabled
	}
	if s.IsCompliant() {
		return ColorGreen
	}
	if s.NonCompliantRole != "" || s.NonCompliantUsage != "" || s.NonCompliantSLA != "" {
		return ColorRed
	}
	if len(s.AddOns) > 0 && len(s.CompliantAddOns) == 0 {
		return ColorRed
	}
	return ColorYellow
}

// Status is the string persisted on the consumer.
func (s *SystemPurposeStatus) Status() string {
	switch {
	case s.Disabled:
		return StatusDisabled
	case !s.IsCompliant():
		return StatusMismatched
	case s.Role == "" && s.Usage == "" && s.ServiceLevel == "" && len(s.AddOns) == 0:
		return StatusNotSpecified
	default:
		return StatusMatched
	}
}

// ComplianceStatus is the result of checking a consumer's installed products
// against its entitlements at one point in time.
type ComplianceStatus struct {
	Date           time.Time
	Disabled       bool
	CompliantUntil *time.Time

	CompliantProducts          map[id.ProductID][]Entitlement
	PartiallyCompliantProducts map[id.ProductID][]Entitlement
	NonCompliantProducts       []id.ProductID
	PartialStacks              map[string][]Entitlement

	Reasons []Reason
}

// NewComplianceStatus returns an empty status for the given date.
func NewComplianceStatus(at time.Time) *ComplianceStatus {
	return &ComplianceStatus{
		Date:                       at,
		CompliantProducts:          map[id.ProductID][]Entitlement{},
		PartiallyCompliantProducts: map[id.ProductID][]Entitlement{},
		PartialStacks:              map[string][]Entitlement{},
	}
}

// IsCompliant reports whether nothing is uncovered or partially covered.
func (s *ComplianceStatus) IsCompliant() bool {
	if s.Disabled {
		return false
	}
	return len(s.NonCompliantProducts) == 0 &&
		len(s.PartiallyCompliantProducts) == 0 &&
		len(s.PartialStacks) == 0
}

// Color derives the tri-state color.
func (s *ComplianceStatus) Color() Color {
	switch {
	case s.Disabled:
		return ColorDisabled
	case s.IsCompliant():
		return ColorGreen
	case len(s.NonCompliantProducts) == 0:
		return ColorYellow
	default:
		return ColorRed
	}
}

// Status is the string persisted on the consumer.
func (s *ComplianceStatus) Status() string {
	switch {
	case s.Disabled:
		return StatusDisabled
	case s.IsCompliant():
		return StatusValid
	case len(s.NonCompliantProducts) == 0:
		return StatusPartial
	default:
		return StatusInvalid
	}
}

// ReasonKeys returns the distinct reason keys in sorted order.
func ReasonKeys(reasons []Reason) []string {
	seen := make(map[string]struct{}, len(reasons))
	keys := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if _, ok := seen[r.Key]; ok {
			continue
		}
		seen[r.Key] = struct{}{}
		keys = append(keys, r.Key)
	}
	sort.Strings(keys)
	return keys
}
