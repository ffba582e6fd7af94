package hasher

import (
	"maps"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"candlepin/internal/compliance/models"
	id "candlepin/pkg/domain"
)

type HasherSuite struct {
	suite.Suite
	consumer *models.Consumer
	ent      models.Entitlement
}

func TestHasherSuite(t *testing.T) {
	suite.Run(t, new(HasherSuite))
}

func (s *HasherSuite) SetupTest() {
	s.consumer = &models.Consumer{
		ID: id.ConsumerID(uuid.New()),
		Facts: map[string]string{
			models.FactSockets:        "2",
			models.FactCoresPerSocket: "4",
			models.FactMemTotal:       "8000000",
			"network.hostname":        "host.example.com",
		},
	}
	s.ent = models.Entitlement{
		ID:       id.EntitlementID(uuid.New()),
		PoolID:   id.PoolID(uuid.New()),
		Quantity: 2,
	}
}

func (s *HasherSuite) complianceStatus() *models.ComplianceStatus {
	status := models.NewComplianceStatus(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	status.CompliantProducts["69"] = []models.Entitlement{s.ent}
	status.NonCompliantProducts = []id.ProductID{"72", "71"}
	status.Reasons = []models.Reason{
		{Key: models.ReasonNotCovered, Message: "Not supported by a valid subscription.", Attributes: map[string]string{"product_id": "72", "name": "A"}},
		{Key: models.ReasonNotCovered, Message: "Not supported by a valid subscription.", Attributes: map[string]string{"product_id": "71", "name": "B"}},
	}
	return status
}

// =============================================================================
// Order independence
// =============================================================================

func (s *HasherSuite) TestEqualForEquivalentContainers() {
	original := s.complianceStatus()

	rebuilt := models.NewComplianceStatus(original.Date.Add(time.Hour))
	rebuilt.CompliantProducts = maps.Clone(original.CompliantProducts)
	rebuilt.NonCompliantProducts = []id.ProductID{"71", "72"}
	rebuilt.Reasons = []models.Reason{original.Reasons[1], original.Reasons[0]}

	consumerCopy := s.consumer.Clone()

	s.Equal(Compliance(s.consumer, original), Compliance(consumerCopy, rebuilt))
}

func (s *HasherSuite) TestEntitlementOrderDoesNotMatter() {
	other := models.Entitlement{ID: id.EntitlementID(uuid.New()), PoolID: id.PoolID(uuid.New()), Quantity: 1}

	a := models.NewSystemPurposeStatus(time.Now())
	a.Role = "server"
	a.CompliantRole["server"] = []models.Entitlement{s.ent, other}

	b := models.NewSystemPurposeStatus(time.Now())
	b.Role = "server"
	b.CompliantRole["server"] = []models.Entitlement{other, s.ent}

	s.Equal(SystemPurpose(s.consumer, a), SystemPurpose(s.consumer, b))
}

// =============================================================================
// Tracked fields
// =============================================================================

func (s *HasherSuite) TestTrackedFieldsChangeHash() {
	base := Compliance(s.consumer, s.complianceStatus())

	mutations := map[string]func(st *models.ComplianceStatus){
		"reason key": func(st *models.ComplianceStatus) { st.Reasons[0].Key = models.ReasonSockets },
		"reason message": func(st *models.ComplianceStatus) {
			st.Reasons[0].Message = "Only supports 1 of 2 sockets."
		},
		"reason attribute value": func(st *models.ComplianceStatus) { st.Reasons[0].Attributes["name"] = "C" },
		"reason attribute count": func(st *models.ComplianceStatus) { st.Reasons[0].Attributes["extra"] = "1" },
		"non-compliant membership": func(st *models.ComplianceStatus) {
			st.NonCompliantProducts = st.NonCompliantProducts[:1]
		},
		"compliant membership": func(st *models.ComplianceStatus) {
			st.CompliantProducts["70"] = []models.Entitlement{s.ent}
		},
		"entitlement id": func(st *models.ComplianceStatus) {
			e := s.ent
			e.ID = id.EntitlementID(uuid.New())
			st.CompliantProducts["69"] = []models.Entitlement{e}
		},
		"entitlement quantity": func(st *models.ComplianceStatus) {
			e := s.ent
			e.Quantity = 3
			st.CompliantProducts["69"] = []models.Entitlement{e}
		},
		"pool id": func(st *models.ComplianceStatus) {
			e := s.ent
			e.PoolID = id.PoolID(uuid.New())
			st.CompliantProducts["69"] = []models.Entitlement{e}
		},
		"partial stack": func(st *models.ComplianceStatus) {
			st.PartialStacks["rhel"] = []models.Entitlement{s.ent}
		},
	}

	for name, mutate := range mutations {
		s.Run(name, func() {
			st := s.complianceStatus()
			mutate(st)
			s.NotEqual(base, Compliance(s.consumer, st))
		})
	}
}

func (s *HasherSuite) TestSystemPurposeFieldsChangeHash() {
	status := func() *models.SystemPurposeStatus {
		st := models.NewSystemPurposeStatus(time.Now())
		st.AddOns = []string{"a", "b"}
		st.CompliantAddOns["a"] = []models.Entitlement{s.ent}
		st.NonCompliantAddOns = []string{"b"}
		return st
	}
	base := SystemPurpose(s.consumer, status())

	s.Run("non-compliant add-on", func() {
		st := status()
		st.NonCompliantAddOns = nil
		s.NotEqual(base, SystemPurpose(s.consumer, st))
	})
	s.Run("requested role", func() {
		st := status()
		st.Role = "server"
		s.NotEqual(base, SystemPurpose(s.consumer, st))
	})
	s.Run("compliant and non-compliant sets are not interchangeable", func() {
		st := status()
		st.CompliantAddOns = map[string][]models.Entitlement{}
		st.NonCompliantAddOns = []string{"a", "b"}
		s.NotEqual(base, SystemPurpose(s.consumer, st))
	})
}

// =============================================================================
// Facts
// =============================================================================

func (s *HasherSuite) TestUnrelatedFactDoesNotChangeHash() {
	status := s.complianceStatus()
	base := Compliance(s.consumer, status)

	s.consumer.Facts["network.hostname"] = "renamed.example.com"
	s.consumer.Facts["uptime_seconds"] = "12345"

	s.Equal(base, Compliance(s.consumer, status))
}

func (s *HasherSuite) TestRelevantFactChangesHash() {
	status := s.complianceStatus()
	base := Compliance(s.consumer, status)

	s.consumer.Facts[models.FactSockets] = "4"

	s.NotEqual(base, Compliance(s.consumer, status))
}

func (s *HasherSuite) TestClearedFactsChangeHashWithoutPanicking() {
	status := s.complianceStatus()
	base := Compliance(s.consumer, status)

	s.consumer.Facts = nil

	var cleared string
	s.NotPanics(func() { cleared = Compliance(s.consumer, status) })
	s.NotEqual(base, cleared)
	s.NotEqual(cleared, Compliance(&models.Consumer{ID: s.consumer.ID, Facts: map[string]string{}}, status))
}

func (s *HasherSuite) TestNilInputsDoNotPanic() {
	s.NotPanics(func() {
		_ = Compliance(nil, nil)
		_ = SystemPurpose(nil, nil)
		_ = SystemPurpose(&models.Consumer{}, &models.SystemPurposeStatus{})
	})
}

func TestKindsAreDistinct(t *testing.T) {
	consumer := &models.Consumer{ID: id.ConsumerID(uuid.New())}
	assert.NotEqual(t,
		Compliance(consumer, models.NewComplianceStatus(time.Now())),
		SystemPurpose(consumer, models.NewSystemPurposeStatus(time.Now())),
	)
}

func TestDigestIsHexSHA256(t *testing.T) {
	h := Compliance(&models.Consumer{}, models.NewComplianceStatus(time.Now()))
	assert.Len(t, h, 64)
}
