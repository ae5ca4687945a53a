package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
)

func TestDefaultConfidenceGate(t *testing.T) {
	gate := DefaultConfidenceGate()

	assert.Equal(t, 0.80, gate.MinConfidence, "MinConfidence should be 0.80")
	assert.Equal(t, 0.30, gate.Floor, "Floor should be 0.30")
	assert.Equal(t, "v1", gate.ConfigVersion, "ConfigVersion should be initialized")
	assert.NotEmpty(t, gate.UpdatedAt)
	require.NoError(t, gate.Validate())
}

func TestConfidenceGate_Validate(t *testing.T) {
	tests := []struct {
		name          string
		min           float64
		floor         float64
		expectError   bool
		errorContains string
	}{
		{
			name:        "valid gate",
			min:         0.8,
			floor:       0.3,
			expectError: false,
		},
		{
			name:          "min too high",
			min:           1.5,
			floor:         0.3,
			expectError:   true,
			errorContains: "MinConfidence must be between 0.0 and 1.0",
		},
		{
			name:          "floor negative",
			min:           0.8,
			floor:         -0.1,
			expectError:   true,
			errorContains: "Floor must be between 0.0 and 1.0",
		},
		{
			name:          "min below floor",
			min:           0.3,
			floor:         0.5,
			expectError:   true,
			errorContains: "MinConfidence must be greater than Floor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := ConfidenceGate{MinConfidence: tt.min, Floor: tt.floor}

			err := gate.Validate()
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfidenceGate_Assess(t *testing.T) {
	gate := DefaultConfidenceGate()

	tests := []struct {
		name       string
		confidence float64
		complete   bool
		want       GateOutcome
	}{
		{"high confidence", 0.92, false, GatePass},
		{"exactly at threshold", 0.80, false, GatePass},
		{"low confidence with fields missing", 0.55, false, GateClarify},
		{"low confidence bypassed by complete fields", 0.55, true, GatePass},
		{"below floor even when complete", 0.10, true, GateUnclear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := entity.NewIntentResult(entity.IntentLeave, nil, tt.confidence, nil)

			decision := gate.Assess(result, tt.complete)
			assert.Equal(t, tt.want, decision.Outcome)
			assert.NotEmpty(t, decision.Rationale)
		})
	}
}
