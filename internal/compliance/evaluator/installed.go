package evaluator

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"candlepin/internal/compliance/models"
	id "candlepin/pkg/domain"
	pstrings "candlepin/pkg/platform/strings"
)

// EvaluateInstalled checks every installed product against the consumer's
// active entitlements. Entitlements sharing a stacking_id pool their
// socket, core and RAM coverage; every other entitlement stands alone.
func EvaluateInstalled(
	owner *models.Owner,
	consumer *models.Consumer,
	snap *models.Snapshot,
	entitlements []models.Entitlement,
	capacity Capacity,
	at time.Time,
) *models.ComplianceStatus {
	status := models.NewComplianceStatus(at)
	if owner.ComplianceDisabled() {
		status.Disabled = true
		return status
	}

	var active []models.Entitlement
	for _, ent := range unionEntitlements(entitlements, nil) {
		if snap.ActiveAt(ent, at) {
			active = append(active, ent)
		}
	}

	groups := groupByStack(snap, active)
	for _, g := range groups {
		g.reasons = g.coverageReasons(snap, capacity)
		if g.stackID != "" && len(g.reasons) > 0 {
			status.PartialStacks[g.stackID] = g.entitlements
			status.Reasons = append(status.Reasons, g.reasons...)
			g.reported = true
		}
	}

	var compliantEnts []models.Entitlement
	seenProducts := make(map[id.ProductID]struct{}, len(consumer.InstalledProducts))
	for _, installed := range consumer.InstalledProducts {
		pid := installed.ProductID
		if _, dup := seenProducts[pid]; dup || pid == "" {
			continue
		}
		seenProducts[pid] = struct{}{}

		var full, partial []models.Entitlement
		for _, g := range groups {
			providing := g.providing(snap, pid)
			if len(providing) == 0 {
				continue
			}
			if len(g.reasons) == 0 {
				full = append(full, providing...)
				continue
			}
			partial = append(partial, providing...)
			if !g.reported {
				status.Reasons = append(status.Reasons, g.reasons...)
				g.reported = true
			}
		}

		switch {
		case len(full) > 0:
			status.CompliantProducts[pid] = full
			compliantEnts = append(compliantEnts, full...)
		case len(partial) > 0:
			status.PartiallyCompliantProducts[pid] = partial
		default:
			status.NonCompliantProducts = append(status.NonCompliantProducts, pid)
			status.Reasons = append(status.Reasons, models.Reason{
				Key:     models.ReasonNotCovered,
				Message: "Not supported by a valid subscription.",
				Attributes: map[string]string{
					"product_id": string(pid),
					"name":       installed.Name,
				},
			})
		}
	}

	status.CompliantUntil = earliestEnd(snap, compliantEnts)
	return status
}

// stackGroup is one stack, or one un-stacked entitlement.
type stackGroup struct {
	stackID      string
	entitlements []models.Entitlement
	reasons      []models.Reason
	reported     bool
}

func groupByStack(snap *models.Snapshot, ents []models.Entitlement) []*stackGroup {
	var groups []*stackGroup
	byStack := make(map[string]*stackGroup)
	for _, ent := range ents {
		stackID := strings.TrimSpace(snap.PoolProduct(ent).Attribute(models.AttrStackingID))
		if stackID == "" {
			groups = append(groups, &stackGroup{entitlements: []models.Entitlement{ent}})
			continue
		}
		g, ok := byStack[stackID]
		if !ok {
			g = &stackGroup{stackID: stackID}
			byStack[stackID] = g
			groups = append(groups, g)
		}
		g.entitlements = append(g.entitlements, ent)
	}
	return groups
}

func (g *stackGroup) providing(snap *models.Snapshot, pid id.ProductID) []models.Entitlement {
	var out []models.Entitlement
	for _, ent := range g.entitlements {
		if snap.ProvidesProduct(ent, pid) {
			out = append(out, ent)
		}
	}
	return out
}

// coverageReasons sums quantity times attribute per dimension. A dimension
// no entitlement in the group declares is unconstrained. Guests are not
// limited by sockets.
func (g *stackGroup) coverageReasons(snap *models.Snapshot, capacity Capacity) []models.Reason {
	var (
		sockets, cores, ram          int
		hasSockets, hasCores, hasRAM bool
		arches                       []string
	)
	for _, ent := range g.entitlements {
		product := snap.PoolProduct(ent)
		qty := clamp(ent.Quantity, 1, maxUnits)
		if v, ok := intAttribute(product, models.AttrSockets); ok {
			sockets = covered(sockets, qty, v)
			hasSockets = true
		}
		if v, ok := intAttribute(product, models.AttrCores); ok {
			cores = covered(cores, qty, v)
			hasCores = true
		}
		if v, ok := intAttribute(product, models.AttrRAM); ok {
			ram = covered(ram, qty, v)
			hasRAM = true
		}
		if a := product.Attribute(models.AttrArch); a != "" {
			arches = append(arches, a)
		}
	}

	var reasons []models.Reason
	if hasSockets && !capacity.Guest && sockets < capacity.Sockets {
		reasons = append(reasons, g.reason(models.ReasonSockets,
			fmt.Sprintf("Only supports %d of %d sockets.", sockets, capacity.Sockets),
			strconv.Itoa(sockets), strconv.Itoa(capacity.Sockets)))
	}
	if hasCores && cores < capacity.Cores {
		reasons = append(reasons, g.reason(models.ReasonCores,
			fmt.Sprintf("Only supports %d of %d cores.", cores, capacity.Cores),
			strconv.Itoa(cores), strconv.Itoa(capacity.Cores)))
	}
	if hasRAM && ram < capacity.RAMGB {
		reasons = append(reasons, g.reason(models.ReasonRAM,
			fmt.Sprintf("Only supports %dGB of %dGB of RAM.", ram, capacity.RAMGB),
			strconv.Itoa(ram), strconv.Itoa(capacity.RAMGB)))
	}
	if capacity.Arch != "" {
		for _, supported := range arches {
			if !archMatches(supported, capacity.Arch) {
				reasons = append(reasons, g.reason(models.ReasonArch,
					fmt.Sprintf("Supports architecture %s but the system is %s.", supported, capacity.Arch),
					supported, capacity.Arch))
				break
			}
		}
	}
	return reasons
}

func (g *stackGroup) reason(key, message, covered, has string) models.Reason {
	attrs := map[string]string{"covered": covered, "has": has}
	if g.stackID != "" {
		attrs["stack_id"] = g.stackID
	} else if len(g.entitlements) > 0 {
		attrs["entitlement_id"] = g.entitlements[0].ID.String()
	}
	return models.Reason{Key: key, Message: message, Attributes: attrs}
}

var x86Family = map[string]struct{}{"i386": {}, "i486": {}, "i586": {}, "i686": {}}

// archMatches checks a product's comma-separated arch list against the
// consumer's machine type. "ALL" matches anything and "x86" matches the
// 32-bit Intel family.
func archMatches(supported, machine string) bool {
	for _, a := range pstrings.SplitCSV(supported) {
		switch {
		case strings.EqualFold(a, "ALL"), strings.EqualFold(a, machine):
			return true
		case strings.EqualFold(a, "x86"):
			if _, ok := x86Family[strings.ToLower(machine)]; ok {
				return true
			}
		}
	}
	return false
}

func intAttribute(p *models.Product, name string) (int, bool) {
	raw := strings.TrimSpace(p.Attribute(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, false
	}
	return min(v, maxUnits), true
}

// covered adds qty*per to total, saturating at maxUnits. Both factors are
// already capped at maxUnits.
func covered(total, qty, per int) int {
	return min(total+qty*per, maxUnits)
}

// earliestEnd is the first date any covering entitlement or its pool ends.
// Nil when nothing is compliant or nothing expires.
func earliestEnd(snap *models.Snapshot, ents []models.Entitlement) *time.Time {
	var earliest time.Time
	consider := func(t time.Time) {
		if !t.IsZero() && (earliest.IsZero() || t.Before(earliest)) {
			earliest = t
		}
	}
	for _, ent := range ents {
		consider(ent.EndDate)
		if pool := snap.Pool(ent.PoolID); pool != nil {
			consider(pool.EndDate)
		}
	}
	if earliest.IsZero() {
		return nil
	}
	return &earliest
}
