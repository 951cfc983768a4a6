package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "caredex/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseProviderID("")
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseProviderID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseProviderID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseProviderID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, ProviderID(validUUID), id)
	})

	t.Run("plan and acceptance parsers share the same rules", func(t *testing.T) {
		_, err := ParsePlanID("")
		require.Error(t, err)
		_, err = ParseAcceptanceID(uuid.Nil.String())
		require.Error(t, err)
		_, err = ParseSubmissionID("banana")
		require.Error(t, err)
	})
}

// TestTypeDistinction verifies the compiler enforces type safety.
// This is a compile-time check - if this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	providerID := ProviderID(uuid.New())
	planID := PlanID(uuid.New())

	// These would fail to compile if types were interchangeable:
	// var _ ProviderID = planID   // compile error
	// var _ PlanID = providerID   // compile error

	// Verify they're distinct at runtime too
	assert.NotEqual(t, uuid.UUID(providerID), uuid.UUID(planID))
}

func TestIDHelpers(t *testing.T) {
	t.Run("IsNil on zero values", func(t *testing.T) {
		assert.True(t, ProviderID{}.IsNil())
		assert.True(t, PlanID{}.IsNil())
		assert.False(t, NewProviderID().IsNil())
	})

	t.Run("String round-trips through Parse", func(t *testing.T) {
		id := NewPlanID()
		parsed, err := ParsePlanID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	})

	t.Run("JSON encodes as the canonical UUID string", func(t *testing.T) {
		id := NewProviderID()
		data, err := json.Marshal(id)
		require.NoError(t, err)
		assert.Equal(t, `"`+id.String()+`"`, string(data))

		var decoded ProviderID
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, id, decoded)
	})

	t.Run("JSON rejects the nil UUID", func(t *testing.T) {
		var decoded PlanID
		err := json.Unmarshal([]byte(`"00000000-0000-0000-0000-000000000000"`), &decoded)
		assert.Error(t, err)
	})
}
