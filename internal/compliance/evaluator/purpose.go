// Package evaluator holds the pure compliance evaluators. Evaluators read a
// Snapshot and never perform I/O; the service loads data and applies results.
package evaluator

import (
	"fmt"
	"strings"
	"time"

	"candlepin/internal/compliance/models"
	id "candlepin/pkg/domain"
	pstrings "candlepin/pkg/platform/strings"
)

// EvaluateSystemPurpose compares the consumer's role, usage, service level
// and add-ons with the attributes of every product reachable from the
// consumer's active entitlements. existing and added are unioned by
// entitlement ID; either may be nil.
func EvaluateSystemPurpose(
	owner *models.Owner,
	consumer *models.Consumer,
	snap *models.Snapshot,
	existing, added []models.Entitlement,
	at time.Time,
) *models.SystemPurposeStatus {
	status := models.NewSystemPurposeStatus(at)
	if owner.ComplianceDisabled() {
		status.Disabled = true
		return status
	}
	if !consumer.HasSystemPurpose() {
		return status
	}

	status.Role = strings.TrimSpace(consumer.Role)
	status.Usage = strings.TrimSpace(consumer.Usage)
	status.ServiceLevel = strings.TrimSpace(consumer.ServiceLevel)
	status.AddOns = pstrings.DedupeAndTrimFold(consumer.AddOns)

	// Outstanding add-ons keyed by their lowercase form.
	outstanding := make(map[string]string, len(status.AddOns))
	for _, a := range status.AddOns {
		outstanding[strings.ToLower(a)] = a
	}

	for _, ent := range unionEntitlements(existing, added) {
		if !snap.ActiveAt(ent, at) {
			continue
		}
		for _, product := range snap.PurposeProducts(ent) {
			if status.Role != "" && listContains(product.Attribute(models.AttrRoles), status.Role) {
				status.CompliantRole[status.Role] = appendUnique(status.CompliantRole[status.Role], ent)
			}
			if status.ServiceLevel != "" && pstrings.EqualFoldTrim(product.Attribute(models.AttrSupportLevel), status.ServiceLevel) {
				status.CompliantSLA[status.ServiceLevel] = appendUnique(status.CompliantSLA[status.ServiceLevel], ent)
			}
			if status.Usage != "" && pstrings.EqualFoldTrim(product.Attribute(models.AttrUsage), status.Usage) {
				status.CompliantUsage[status.Usage] = appendUnique(status.CompliantUsage[status.Usage], ent)
			}
			for _, offered := range pstrings.SplitCSV(product.Attribute(models.AttrAddOns)) {
				key := strings.ToLower(offered)
				requested, ok := outstanding[key]
				if !ok {
					requested, ok = matchedAddOn(status, key)
				}
				if ok {
					status.CompliantAddOns[requested] = appendUnique(status.CompliantAddOns[requested], ent)
					delete(outstanding, key)
				}
			}
		}
	}

	if status.Role != "" && len(status.CompliantRole) == 0 {
		status.NonCompliantRole = status.Role
		status.Reasons = append(status.Reasons, purposeReason(models.ReasonUnsatisfiedRole, "role", status.Role))
	}
	for _, a := range status.AddOns {
		if _, open := outstanding[strings.ToLower(a)]; open {
			status.NonCompliantAddOns = append(status.NonCompliantAddOns, a)
			status.Reasons = append(status.Reasons, purposeReason(models.ReasonUnsatisfiedAddOn, "add-on", a))
		}
	}
	if status.ServiceLevel != "" && len(status.CompliantSLA) == 0 {
		status.NonCompliantSLA = status.ServiceLevel
		status.Reasons = append(status.Reasons, purposeReason(models.ReasonUnsatisfiedSLA, "service level", status.ServiceLevel))
	}
	if status.Usage != "" && len(status.CompliantUsage) == 0 {
		status.NonCompliantUsage = status.Usage
		status.Reasons = append(status.Reasons, purposeReason(models.ReasonUnsatisfiedUsage, "usage preference", status.Usage))
	}

	return status
}

// matchedAddOn finds an already satisfied add-on so later entitlements
// providing it are still recorded against it.
func matchedAddOn(status *models.SystemPurposeStatus, lowered string) (string, bool) {
	for requested := range status.CompliantAddOns {
		if strings.ToLower(requested) == lowered {
			return requested, true
		}
	}
	return "", false
}

func purposeReason(key, label, value string) models.Reason {
	return models.Reason{
		Key:     key,
		Message: fmt.Sprintf("The requested %s %q is not provided by a currently consumed subscription.", label, value),
		Attributes: map[string]string{
			"type":  strings.TrimPrefix(key, "unsatisfied_"),
			"value": value,
		},
	}
}

// listContains reports whether the comma-separated list contains want,
// comparing trimmed values case-insensitively.
func listContains(list, want string) bool {
	for _, v := range pstrings.SplitCSV(list) {
		if pstrings.EqualFoldTrim(v, want) {
			return true
		}
	}
	return false
}

func unionEntitlements(existing, added []models.Entitlement) []models.Entitlement {
	seen := make(map[id.EntitlementID]struct{}, len(existing)+len(added))
	out := make([]models.Entitlement, 0, len(existing)+len(added))
	for _, list := range [][]models.Entitlement{existing, added} {
		for _, ent := range list {
			if _, dup := seen[ent.ID]; dup {
				continue
			}
			seen[ent.ID] = struct{}{}
			out = append(out, ent)
		}
	}
	return out
}

func appendUnique(list []models.Entitlement, ent models.Entitlement) []models.Entitlement {
	for _, e := range list {
		if e.ID == ent.ID {
			return list
		}
	}
	return append(list, ent)
}
