package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "candlepin/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseConsumerID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParsePoolID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseEntitlementID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID with surrounding space", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseOwnerID("  " + valid.String() + " ")
		require.NoError(t, err)
		assert.Equal(t, OwnerID(valid), id)
		assert.Equal(t, valid.String(), id.String())
	})
}

func TestParseProductID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ProductID
		wantErr bool
	}{
		{name: "sku", input: "RH00003", want: "RH00003"},
		{name: "engineering id trimmed", input: " 69 ", want: "69"},
		{name: "empty", input: "   ", wantErr: true},
		{name: "too long", input: strings.Repeat("x", maxProductIDLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProductID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsNil(t *testing.T) {
	assert.True(t, ConsumerID{}.IsNil())
	assert.False(t, ConsumerID(uuid.New()).IsNil())
	assert.True(t, ProductID("").IsNil())
}

func TestIDsEncodeAsUUIDStrings(t *testing.T) {
	raw := "6f1f2c3e-9a4b-4d5e-8f70-1a2b3c4d5e6f"
	consumerID, err := ParseConsumerID(raw)
	require.NoError(t, err)

	body, err := json.Marshal(map[string]ConsumerID{"consumer_id": consumerID})
	require.NoError(t, err)
	assert.JSONEq(t, `{"consumer_id":"`+raw+`"}`, string(body))

	var decoded struct {
		PoolID PoolID `json:"pool_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"pool_id":"`+raw+`"}`), &decoded))
	assert.Equal(t, raw, decoded.PoolID.String())
}
