package handler

import (
	"sort"
	"time"

	"candlepin/internal/compliance/models"
	"candlepin/internal/compliance/service"
	id "candlepin/pkg/domain"
)

// ComplianceResponse is the HTTP view of a ComplianceStatus. Entitlements are
// listed by ID.
type ComplianceResponse struct {
	Status                     string              `json:"status"`
	Color                      string              `json:"color"`
	Compliant                  bool                `json:"compliant"`
	Date                       time.Time           `json:"date"`
	CompliantUntil             *time.Time          `json:"compliant_until,omitempty"`
	CompliantProducts          map[string][]string `json:"compliant_products"`
	PartiallyCompliantProducts map[string][]string `json:"partially_compliant_products"`
	NonCompliantProducts       []string            `json:"non_compliant_products"`
	PartialStacks              map[string][]string `json:"partial_stacks"`
	Reasons                    []models.Reason     `json:"reasons"`
}

// FromComplianceStatus converts a domain status to its HTTP response.
func FromComplianceStatus(s *models.ComplianceStatus) *ComplianceResponse {
	resp := &ComplianceResponse{
		Status:                     s.Status(),
		Color:                      string(s.Color()),
		Compliant:                  s.IsCompliant(),
		Date:                       s.Date,
		CompliantUntil:             s.CompliantUntil,
		CompliantProducts:          productEntitlementIDs(s.CompliantProducts),
		PartiallyCompliantProducts: productEntitlementIDs(s.PartiallyCompliantProducts),
		NonCompliantProducts:       make([]string, 0, len(s.NonCompliantProducts)),
		PartialStacks:              entitlementIDs(s.PartialStacks),
		Reasons:                    reasonsOrEmpty(s.Reasons),
	}
	for _, pid := range s.NonCompliantProducts {
		resp.NonCompliantProducts = append(resp.NonCompliantProducts, string(pid))
	}
	sort.Strings(resp.NonCompliantProducts)
	return resp
}

// PurposeComplianceResponse is the HTTP view of a SystemPurposeStatus.
type PurposeComplianceResponse struct {
	Status    string    `json:"status"`
	Color     string    `json:"color"`
	Compliant bool      `json:"compliant"`
	Date      time.Time `json:"date"`

	Role         string   `json:"role,omitempty"`
	Usage        string   `json:"usage,omitempty"`
	ServiceLevel string   `json:"service_level,omitempty"`
	AddOns       []string `json:"addons,omitempty"`

	CompliantRole   map[string][]string `json:"compliant_role"`
	CompliantUsage  map[string][]string `json:"compliant_usage"`
	CompliantSLA    map[string][]string `json:"compliant_sla"`
	CompliantAddOns map[string][]string `json:"compliant_addons"`

	NonCompliantRole   string   `json:"non_compliant_role,omitempty"`
	NonCompliantUsage  string   `json:"non_compliant_usage,omitempty"`
	NonCompliantSLA    string   `json:"non_compliant_sla,omitempty"`
	NonCompliantAddOns []string `json:"non_compliant_addons,omitempty"`

	Reasons []models.Reason `json:"reasons"`
}

// FromSystemPurposeStatus converts a domain status to its HTTP response.
func FromSystemPurposeStatus(s *models.SystemPurposeStatus) *PurposeComplianceResponse {
	return &PurposeComplianceResponse{
		Status:             s.Status(),
		Color:              string(s.Color()),
		Compliant:          s.IsCompliant(),
		Date:               s.Date,
		Role:               s.Role,
		Usage:              s.Usage,
		ServiceLevel:       s.ServiceLevel,
		AddOns:             s.AddOns,
		CompliantRole:      entitlementIDs(s.CompliantRole),
		CompliantUsage:     entitlementIDs(s.CompliantUsage),
		CompliantSLA:       entitlementIDs(s.CompliantSLA),
		CompliantAddOns:    entitlementIDs(s.CompliantAddOns),
		NonCompliantRole:   s.NonCompliantRole,
		NonCompliantUsage:  s.NonCompliantUsage,
		NonCompliantSLA:    s.NonCompliantSLA,
		NonCompliantAddOns: s.NonCompliantAddOns,
		Reasons:            reasonsOrEmpty(s.Reasons),
	}
}

// RefreshResponse is the HTTP response for POST /owners/{ownerID}/compliance/refresh.
type RefreshResponse struct {
	OwnerID              string `json:"owner_id"`
	Consumers            int    `json:"consumers"`
	ComplianceChanged    int    `json:"compliance_changed"`
	SystemPurposeChanged int    `json:"system_purpose_changed"`
	DurationMS           int64  `json:"duration_ms"`
}

func FromRefreshResult(r *service.RefreshResult) *RefreshResponse {
	return &RefreshResponse{
		OwnerID:              r.OwnerID.String(),
		Consumers:            r.Consumers,
		ComplianceChanged:    r.ComplianceChanged,
		SystemPurposeChanged: r.SystemPurposeChanged,
		DurationMS:           r.Duration.Milliseconds(),
	}
}

func entitlementIDs(in map[string][]models.Entitlement) map[string][]string {
	out := make(map[string][]string, len(in))
	for k, ents := range in {
		out[k] = idsOf(ents)
	}
	return out
}

func productEntitlementIDs(in map[id.ProductID][]models.Entitlement) map[string][]string {
	out := make(map[string][]string, len(in))
	for k, ents := range in {
		out[string(k)] = idsOf(ents)
	}
	return out
}

func idsOf(ents []models.Entitlement) []string {
	ids := make([]string, len(ents))
	for i, e := range ents {
		ids[i] = e.ID.String()
	}
	sort.Strings(ids)
	return ids
}

func reasonsOrEmpty(r []models.Reason) []models.Reason {
	if r == nil {
		return []models.Reason{}
	}
	return r
}
