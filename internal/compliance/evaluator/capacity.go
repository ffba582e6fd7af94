package evaluator

import (
	"math"
	"strconv"
	"strings"

	"candlepin/internal/compliance/models"
)

// Capacity is what a consumer needs covered. Rule scripts may return a
// Capacity from consumer_capacity to override the fact-derived values.
type Capacity struct {
	Sockets int    `json:"sockets"`
	Cores   int    `json:"cores"`
	RAMGB   int    `json:"ram_gb"`
	Guest   bool   `json:"guest"`
	Arch    string `json:"arch,omitempty"`
}

const kbPerGB = 1024 * 1024

// maxUnits caps sockets, cores and GB read from facts, attributes and rule
// results so coverage sums cannot overflow.
const maxUnits = 1 << 20

// CapacityFromFacts derives capacity from consumer facts. Missing or
// malformed socket and core facts count as one; memory is reported in kB
// and rounded to whole GB.
func CapacityFromFacts(facts map[string]string) Capacity {
	sockets := positiveIntFact(facts, models.FactSockets, 1)
	coresPerSocket := positiveIntFact(facts, models.FactCoresPerSocket, 1)

	c := Capacity{
		Sockets: sockets,
		Cores:   min(sockets*coresPerSocket, maxUnits),
		Guest:   strings.EqualFold(strings.TrimSpace(facts[models.FactIsGuest]), "true"),
		Arch:    strings.TrimSpace(facts[models.FactArch]),
	}
	if kb, err := strconv.ParseFloat(strings.TrimSpace(facts[models.FactMemTotal]), 64); err == nil && kb > 0 {
		c.RAMGB = int(math.Min(math.Round(kb/kbPerGB), maxUnits))
	}
	return c
}

// Normalize clamps a rule-provided capacity to sane values.
func (c Capacity) Normalize() Capacity {
	c.Sockets = clamp(c.Sockets, 1, maxUnits)
	c.Cores = clamp(c.Cores, 0, maxUnits)
	c.RAMGB = clamp(c.RAMGB, 0, maxUnits)
	c.Arch = strings.TrimSpace(c.Arch)
	return c
}

func positiveIntFact(facts map[string]string, name string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(facts[name]))
	if err != nil || v < 1 {
		return fallback
	}
	return min(v, maxUnits)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
