// Package models holds the read-only entity views the evaluators consume and
// the status value objects they produce.
//
// Entities reference each other by ID only. A Snapshot indexes the pools and
// products an evaluation needs so evaluators never walk live object graphs.
package models

import (
	"time"

	id "candlepin/pkg/domain"
	dErrors "candlepin/pkg/domain-errors"
)

// ContentAccessMode is the owner-level content access setting.
type ContentAccessMode string

const (
	ContentAccessEntitlement ContentAccessMode = "entitlement"
	// ContentAccessOrgEnvironment is simple content access; compliance is
	// not evaluated for owners in this mode.
	ContentAccessOrgEnvironment ContentAccessMode = "org_environment"
)

// IsValid checks if the mode is one of the supported values.
func (m ContentAccessMode) IsValid() bool {
	return m == ContentAccessEntitlement || m == ContentAccessOrgEnvironment
}

// ParseContentAccessMode validates a stored or requested mode. Empty input
// maps to the entitlement mode.
func ParseContentAccessMode(s string) (ContentAccessMode, error) {
	if s == "" {
		return ContentAccessEntitlement, nil
	}
	m := ContentAccessMode(s)
	if !m.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid content access mode: "+s)
	}
	return m, nil
}

// Product attribute names read by the evaluators.
const (
	AttrRoles        = "roles"
	AttrAddOns       = "addons"
	AttrSupportLevel = "support_level"
	AttrUsage        = "usage"
	AttrSockets      = "sockets"
	AttrCores        = "cores"
	AttrRAM          = "ram"
	AttrStackingID   = "stacking_id"
	AttrArch         = "arch"
)

// Owner is the organization a consumer belongs to.
type Owner struct {
	ID                id.OwnerID        `json:"id"`
	Key               string            `json:"key"`
	ContentAccessMode ContentAccessMode `json:"content_access_mode"`
}

// ComplianceDisabled reports whether compliance is not evaluated for this owner.
func (o *Owner) ComplianceDisabled() bool {
	return o != nil && o.ContentAccessMode == ContentAccessOrgEnvironment
}

// InstalledProduct is a product the consumer reports as installed.
type InstalledProduct struct {
	ProductID id.ProductID `json:"product_id"`
	Name      string       `json:"name"`
	Version   string       `json:"version,omitempty"`
	Arch      string       `json:"arch,omitempty"`
}

// Consumer is a registered system. The four status fields are opaque values
// persisted by the status applier.
type Consumer struct {
	ID                id.ConsumerID      `json:"id"`
	OwnerID           id.OwnerID         `json:"owner_id"`
	Name              string             `json:"name"`
	Facts             map[string]string  `json:"facts"`
	InstalledProducts []InstalledProduct `json:"installed_products"`

	Role         string   `json:"role,omitempty"`
	Usage        string   `json:"usage,omitempty"`
	ServiceLevel string   `json:"service_level,omitempty"`
	AddOns       []string `json:"addons,omitempty"`

	ComplianceStatusHash    string    `json:"-"`
	EntitlementStatus       string    `json:"entitlement_status,omitempty"`
	SystemPurposeStatusHash string    `json:"-"`
	SystemPurposeStatus     string    `json:"system_purpose_status,omitempty"`
	UpdatedAt               time.Time `json:"-"`
}

// HasSystemPurpose reports whether any system purpose preference is set.
func (c *Consumer) HasSystemPurpose() bool {
	return c.Role != "" || c.Usage != "" || c.ServiceLevel != "" || len(c.AddOns) > 0
}

// Clone returns a copy whose maps and slices can be modified independently.
func (c *Consumer) Clone() *Consumer {
	if c == nil {
		return nil
	}
	out := *c
	if c.Facts != nil {
		out.Facts = make(map[string]string, len(c.Facts))
		for k, v := range c.Facts {
			out.Facts[k] = v
		}
	}
	out.InstalledProducts = append([]InstalledProduct(nil), c.InstalledProducts...)
	out.AddOns = append([]string(nil), c.AddOns...)
	return &out
}

// Entitlement is a grant of coverage from a pool to a consumer.
// Zero start or end dates are unbounded.
type Entitlement struct {
	ID         id.EntitlementID `json:"id"`
	ConsumerID id.ConsumerID    `json:"consumer_id"`
	PoolID     id.PoolID        `json:"pool_id"`
	Quantity   int              `json:"quantity"`
	StartDate  time.Time        `json:"start_date"`
	EndDate    time.Time        `json:"end_date"`
}

// ActiveAt reports whether at falls inside the entitlement's date range.
func (e Entitlement) ActiveAt(at time.Time) bool {
	return activeAt(e.StartDate, e.EndDate, at)
}

// Pool is a quantity of consumable coverage tied to a product.
type Pool struct {
	ID                        id.PoolID      `json:"id"`
	OwnerID                   id.OwnerID     `json:"owner_id"`
	ProductID                 id.ProductID   `json:"product_id"`
	ProvidedProductIDs        []id.ProductID `json:"provided_product_ids,omitempty"`
	DerivedProductID          id.ProductID   `json:"derived_product_id,omitempty"`
	DerivedProvidedProductIDs []id.ProductID `json:"derived_provided_product_ids,omitempty"`
	Quantity                  int            `json:"quantity"`
	StartDate                 time.Time      `json:"start_date"`
	EndDate                   time.Time      `json:"end_date"`
}

// ActiveAt reports whether at falls inside the pool's date range.
func (p *Pool) ActiveAt(at time.Time) bool {
	return activeAt(p.StartDate, p.EndDate, at)
}

// Product is a marketing or engineering product with string attributes.
type Product struct {
	ID         id.ProductID      `json:"id"`
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Attribute returns the named attribute or "".
func (p *Product) Attribute(name string) string {
	if p == nil {
		return ""
	}
	return p.Attributes[name]
}

func activeAt(start, end, at time.Time) bool {
	if !start.IsZero() && at.Before(start) {
		return false
	}
	if !end.IsZero() && at.After(end) {
		return false
	}
	return true
}
