// Package hasher computes order-independent digests of compliance statuses.
//
// A digest covers what a status means, not how it was built: maps and sets
// are sorted, entitlements reduce to (id, pool id, quantity), and only the
// consumer facts that feed evaluation are included. The evaluation date is
// excluded so re-evaluating an unchanged consumer yields the same hash.
//
// The encoding is a stream of length-prefixed tokens fed to SHA-256, so no
// token boundary is ambiguous. The hex digest is persisted on the consumer
// and compared on the next evaluation.
package hasher

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"sort"
	"strconv"

	"candlepin/internal/compliance/models"
	id "candlepin/pkg/domain"
)

// Compliance returns the digest of an installed-product status.
func Compliance(consumer *models.Consumer, status *models.ComplianceStatus) string {
	d := newDigest("compliance")
	d.consumer(consumer)
	if status == nil {
		d.str("status:nil")
		return d.sum()
	}

	d.str(status.Status())
	d.bool(status.Disabled)

	nonCompliant := make([]string, 0, len(status.NonCompliantProducts))
	for _, pid := range status.NonCompliantProducts {
		nonCompliant = append(nonCompliant, string(pid))
	}
	d.strings("non_compliant", nonCompliant)
	d.productMap("compliant", status.CompliantProducts)
	d.productMap("partial", status.PartiallyCompliantProducts)
	d.entitlementMap("partial_stacks", status.PartialStacks)
	d.reasons(status.Reasons)
	return d.sum()
}

// SystemPurpose returns the digest of a system purpose status.
func SystemPurpose(consumer *models.Consumer, status *models.SystemPurposeStatus) string {
	d := newDigest("system_purpose")
	d.consumer(consumer)
	if status == nil {
		d.str("status:nil")
		return d.sum()
	}

	d.str(status.Status())
	d.bool(status.Disabled)

	d.str(status.Role)
	d.str(status.Usage)
	d.str(status.ServiceLevel)
	d.strings("addons", status.AddOns)

	d.entitlementMap("compliant_role", status.CompliantRole)
	d.entitlementMap("compliant_usage", status.CompliantUsage)
	d.entitlementMap("compliant_sla", status.CompliantSLA)
	d.entitlementMap("compliant_addons", status.CompliantAddOns)

	d.str(status.NonCompliantRole)
	d.str(status.NonCompliantUsage)
	d.str(status.NonCompliantSLA)
	d.strings("non_compliant_addons", status.NonCompliantAddOns)
	d.reasons(status.Reasons)
	return d.sum()
}

type digest struct {
	h   hash.Hash
	buf [binary.MaxVarintLen64]byte
}

func newDigest(kind string) *digest {
	d := &digest{h: sha256.New()}
	d.str(kind)
	return d
}

func (d *digest) sum() string {
	return hex.EncodeToString(d.h.Sum(nil))
}

func (d *digest) uint(v uint64) {
	n := binary.PutUvarint(d.buf[:], v)
	_, _ = d.h.Write(d.buf[:n])
}

func (d *digest) str(s string) {
	d.uint(uint64(len(s)))
	_, _ = d.h.Write([]byte(s))
}

func (d *digest) bool(b bool) {
	d.str(strconv.FormatBool(b))
}

// strings writes a labelled, sorted copy of values.
func (d *digest) strings(label string, values []string) {
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	d.str(label)
	d.uint(uint64(len(sorted)))
	for _, v := range sorted {
		d.str(v)
	}
}

// consumer writes the consumer identity and its relevant facts. Nil facts
// write a sentinel distinct from any fact map, including an empty one.
func (d *digest) consumer(c *models.Consumer) {
	if c == nil {
		d.str("consumer:nil")
		return
	}
	d.str(c.ID.String())
	if c.Facts == nil {
		d.str("facts:nil")
		return
	}
	d.str("facts")
	for _, name := range models.RelevantFacts {
		v, ok := c.Facts[name]
		if !ok {
			continue
		}
		d.str(name)
		d.str(v)
	}
	d.str("end_facts")
}

func (d *digest) productMap(label string, m map[id.ProductID][]models.Entitlement) {
	converted := make(map[string][]models.Entitlement, len(m))
	for k, v := range m {
		converted[string(k)] = v
	}
	d.entitlementMap(label, converted)
}

func (d *digest) entitlementMap(label string, m map[string][]models.Entitlement) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	d.str(label)
	d.uint(uint64(len(keys)))
	for _, k := range keys {
		d.str(k)
		d.entitlements(m[k])
	}
}

func (d *digest) entitlements(ents []models.Entitlement) {
	sorted := append([]models.Entitlement(nil), ents...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID.String() < sorted[j].ID.String()
	})
	d.uint(uint64(len(sorted)))
	for _, e := range sorted {
		d.str(e.ID.String())
		d.str(e.PoolID.String())
		d.uint(uint64(max(e.Quantity, 0)))
	}
}

func (d *digest) reasons(reasons []models.Reason) {
	encoded := make([]string, 0, len(reasons))
	for _, r := range reasons {
		sub := &digest{h: sha256.New()}
		sub.str(r.Key)
		sub.str(r.Message)
		keys := make([]string, 0, len(r.Attributes))
		for k := range r.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sub.uint(uint64(len(keys)))
		for _, k := range keys {
			sub.str(k)
			sub.str(r.Attributes[k])
		}
		encoded = append(encoded, sub.sum())
	}
	d.strings("reasons", encoded)
}
