package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "candlepin/pkg/domain"
)

func TestSystemPurposeStatus_Color(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(s *SystemPurposeStatus)
		color  Color
		status string
	}{
		{
			name:   "nothing requested",
			mutate: func(*SystemPurposeStatus) {},
			color:  ColorGreen,
			status: StatusNotSpecified,
		},
		{
			name: "all matched",
			mutate: func(s *SystemPurposeStatus) {
				s.Role = "server"
				s.CompliantRole["server"] = []Entitlement{{}}
			},
			color:  ColorGreen,
			status: StatusMatched,
		},
		{
			name: "role unsatisfied",
			mutate: func(s *SystemPurposeStatus) {
				s.Role = "server"
				s.NonCompliantRole = "server"
			},
			color:  ColorRed,
			status: StatusMismatched,
		},
		{
			name: "every add-on unsatisfied",
			mutate: func(s *SystemPurposeStatus) {
				s.AddOns = []string{"a", "b"}
				s.NonCompliantAddOns = []string{"a", "b"}
			},
			color:  ColorRed,
			status: StatusMismatched,
		},
		{
			name: "some add-ons unsatisfied",
			mutate: func(s *SystemPurposeStatus) {
				s.AddOns = []string{"a", "b"}
				s.CompliantAddOns["a"] = []Entitlement{{}}
				s.NonCompliantAddOns = []string{"b"}
			},
			color:  ColorYellow,
			status: StatusMismatched,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSystemPurposeStatus(at)
			tt.mutate(s)
			assert.Equal(t, tt.color, s.Color())
			assert.Equal(t, tt.status, s.Status())
		})
	}
}

func TestSystemPurposeStatus_Disabled(t *testing.T) {
	s := NewSystemPurposeStatus(time.Now())
	s.Disabled = true
	assert.False(t, s.IsCompliant())
	assert.Equal(t, StatusDisabled, s.Status())
	assert.Equal(t, ColorDisabled, s.Color())
}

func TestComplianceStatus_Status(t *testing.T) {
	s := NewComplianceStatus(time.Now())
	assert.Equal(t, StatusValid, s.Status())
	assert.Equal(t, ColorGreen, s.Color())

	s.PartialStacks["stack-1"] = []Entitlement{{}}
	assert.Equal(t, StatusPartial, s.Status())
	assert.Equal(t, ColorYellow, s.Color())

	s.NonCompliantProducts = []id.ProductID{"69"}
	assert.Equal(t, StatusInvalid, s.Status())
	assert.Equal(t, ColorRed, s.Color())

	s.Disabled = true
	assert.Equal(t, StatusDisabled, s.Status())
	assert.Equal(t, ColorDisabled, s.Color())
}

func TestReasonKeys(t *testing.T) {
	keys := ReasonKeys([]Reason{{Key: "SOCKETS"}, {Key: "NOTCOVERED"}, {Key: "SOCKETS"}})
	assert.Equal(t, []string{"NOTCOVERED", "SOCKETS"}, keys)
}
