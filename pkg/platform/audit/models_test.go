package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuditEventCategory(t *testing.T) {
	assert.Equal(t, CategoryCompliance, EventComplianceChanged.Category())
	assert.Equal(t, CategoryCompliance, EventSystemPurposeChanged.Category())
	assert.Equal(t, CategoryOperations, EventRulesRejected.Category())
	assert.Equal(t, CategoryOperations, AuditEvent("something_new").Category())
}

func TestComplianceEvent_ToEventCopiesReasons(t *testing.T) {
	reasons := []string{"unsatisfied_sla"}
	event := ComplianceEvent{Action: string(EventSystemPurposeChanged), Reasons: reasons}.ToEvent()
	reasons[0] = "mutated"

	assert.Equal(t, []string{"unsatisfied_sla"}, event.Reasons)
	assert.Equal(t, CategoryCompliance, event.Category)
}
