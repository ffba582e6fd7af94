package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candlepin/internal/compliance/models"
	id "candlepin/pkg/domain"
	"candlepin/pkg/testutil"
)

func consumerWithInstalled(facts map[string]string, products ...id.ProductID) *models.Consumer {
	c := newConsumer()
	c.Facts = facts
	for _, p := range products {
		c.InstalledProducts = append(c.InstalledProducts, models.InstalledProduct{ProductID: p, Name: "Installed " + string(p)})
	}
	return c
}

func TestEvaluateInstalled(t *testing.T) {
	fourSockets := map[string]string{models.FactSockets: "4", models.FactCoresPerSocket: "2"}

	testutil.Given(t, "a stack whose entitlements together cover every socket", func(t *testing.T) {
		f := &fixture{}
		f.product("RH001", map[string]string{models.AttrSockets: "2", models.AttrStackingID: "rhel"})
		first := f.entitle("RH001", 1, "69")
		second := f.entitle("RH001", 1, "69")
		consumer := consumerWithInstalled(fourSockets, "69")

		status := EvaluateInstalled(entitlementOwner(), consumer, f.snapshot(),
			[]models.Entitlement{first, second}, CapacityFromFacts(consumer.Facts), evalTime)

		testutil.Then(t, "the product is compliant and the status green", func(t *testing.T) {
			assert.Equal(t, models.ColorGreen, status.Color())
			assert.Equal(t, models.StatusValid, status.Status())
			assert.Len(t, status.CompliantProducts["69"], 2)
			assert.Empty(t, status.PartialStacks)
		})
	})

	testutil.Given(t, "a stack that covers too few sockets", func(t *testing.T) {
		f := &fixture{}
		f.product("RH001", map[string]string{models.AttrSockets: "2", models.AttrStackingID: "rhel"})
		ent := f.entitle("RH001", 1, "69")
		consumer := consumerWithInstalled(fourSockets, "69")

		status := EvaluateInstalled(entitlementOwner(), consumer, f.snapshot(),
			[]models.Entitlement{ent}, CapacityFromFacts(consumer.Facts), evalTime)

		testutil.Then(t, "the status is yellow with a partial stack and a sockets reason", func(t *testing.T) {
			assert.Equal(t, models.ColorYellow, status.Color())
			assert.Equal(t, models.StatusPartial, status.Status())
			assert.Contains(t, status.PartialStacks, "rhel")
			assert.Contains(t, status.PartiallyCompliantProducts, id.ProductID("69"))
			require.Len(t, status.Reasons, 1)
			assert.Equal(t, models.ReasonSockets, status.Reasons[0].Key)
			assert.Equal(t, "2", status.Reasons[0].Attributes["covered"])
			assert.Equal(t, "4", status.Reasons[0].Attributes["has"])
			assert.Equal(t, "rhel", status.Reasons[0].Attributes["stack_id"])
		})
	})

	testutil.Given(t, "entitlements with absurd quantities and attributes", func(t *testing.T) {
		f := &fixture{}
		f.product("RH001", map[string]string{
			models.AttrSockets:    "9223372036854775807",
			models.AttrCores:      "4611686018427387904",
			models.AttrStackingID: "rhel",
		})
		first := f.entitle("RH001", 1<<62, "69")
		second := f.entitle("RH001", 1<<62, "69")
		consumer := consumerWithInstalled(fourSockets, "69")

		status := EvaluateInstalled(entitlementOwner(), consumer, f.snapshot(),
			[]models.Entitlement{first, second}, CapacityFromFacts(consumer.Facts), evalTime)

		testutil.Then(t, "coverage saturates instead of wrapping negative", func(t *testing.T) {
			assert.Equal(t, models.ColorGreen, status.Color())
			assert.Empty(t, status.Reasons)
		})
	})

	testutil.Given(t, "a guest with too few sockets covered", func(t *testing.T) {
		f := &fixture{}
		f.product("RH001", map[string]string{models.AttrSockets: "1"})
		ent := f.entitle("RH001", 1, "69")
		facts := map[string]string{models.FactSockets: "8", models.FactIsGuest: "true"}
		consumer := consumerWithInstalled(facts, "69")

		status := EvaluateInstalled(entitlementOwner(), consumer, f.snapshot(),
			[]models.Entitlement{ent}, CapacityFromFacts(facts), evalTime)

		testutil.Then(t, "sockets do not constrain guests", func(t *testing.T) {
			assert.Equal(t, models.ColorGreen, status.Color())
		})
	})

	testutil.Given(t, "an installed product no entitlement provides", func(t *testing.T) {
		f := &fixture{}
		f.product("RH001", nil)
		ent := f.entitle("RH001", 1, "69")
		consumer := consumerWithInstalled(nil, "69", "72")

		status := EvaluateInstalled(entitlementOwner(), consumer, f.snapshot(),
			[]models.Entitlement{ent}, CapacityFromFacts(nil), evalTime)

		testutil.Then(t, "the status is red with a not covered reason", func(t *testing.T) {
			assert.Equal(t, models.ColorRed, status.Color())
			assert.Equal(t, []id.ProductID{"72"}, status.NonCompliantProducts)
			require.Len(t, status.Reasons, 1)
			assert.Equal(t, models.ReasonNotCovered, status.Reasons[0].Key)
			assert.Equal(t, "72", status.Reasons[0].Attributes["product_id"])
		})
	})

	testutil.Given(t, "an entitlement for another architecture", func(t *testing.T) {
		f := &fixture{}
		f.product("RH001", map[string]string{models.AttrArch: "ppc64,s390x"})
		ent := f.entitle("RH001", 1, "69")
		facts := map[string]string{models.FactArch: "x86_64"}
		consumer := consumerWithInstalled(facts, "69")

		status := EvaluateInstalled(entitlementOwner(), consumer, f.snapshot(),
			[]models.Entitlement{ent}, CapacityFromFacts(facts), evalTime)

		testutil.Then(t, "the product is partial with an arch reason", func(t *testing.T) {
			assert.Equal(t, models.ColorYellow, status.Color())
			require.Len(t, status.Reasons, 1)
			assert.Equal(t, models.ReasonArch, status.Reasons[0].Key)
			assert.Equal(t, ent.ID.String(), status.Reasons[0].Attributes["entitlement_id"])
		})
	})

	testutil.Given(t, "entitlements with end dates covering a product", func(t *testing.T) {
		f := &fixture{}
		f.product("RH001", map[string]string{models.AttrArch: "ALL"})
		soon := f.entitle("RH001", 1, "69")
		soon.EndDate = evalTime.AddDate(0, 1, 0)
		later := f.entitle("RH001", 1, "69")
		later.EndDate = evalTime.AddDate(1, 0, 0)
		consumer := consumerWithInstalled(map[string]string{models.FactArch: "aarch64"}, "69")

		status := EvaluateInstalled(entitlementOwner(), consumer, f.snapshot(),
			[]models.Entitlement{later, soon}, CapacityFromFacts(consumer.Facts), evalTime)

		testutil.Then(t, "compliant until the earliest end date", func(t *testing.T) {
			require.NotNil(t, status.CompliantUntil)
			assert.Equal(t, soon.EndDate, *status.CompliantUntil)
		})
	})

	testutil.Given(t, "an owner in simple content access mode", func(t *testing.T) {
		consumer := consumerWithInstalled(nil, "69")
		status := EvaluateInstalled(scaOwner(), consumer, (&fixture{}).snapshot(), nil, Capacity{}, evalTime)

		testutil.Then(t, "the status is disabled", func(t *testing.T) {
			assert.Equal(t, models.StatusDisabled, status.Status())
			assert.Empty(t, status.NonCompliantProducts)
		})
	})
}

func TestArchMatches(t *testing.T) {
	assert.True(t, archMatches("ALL", "s390x"))
	assert.True(t, archMatches("x86", "i686"))
	assert.True(t, archMatches("ppc64, X86_64", "x86_64"))
	assert.False(t, archMatches("x86", "x86_64"))
}
