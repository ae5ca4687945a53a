package ai

import (
	"fmt"
	"time"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
)

// ConfidenceGate decides how far an extraction can be trusted
type ConfidenceGate struct {
	MinConfidence float64   // Default: 0.80 - below this the request needs confirming fields
	Floor         float64   // Default: 0.30 - below this the intent is treated as unclear
	ConfigVersion string    // Version identifier for audit trail
	UpdatedAt     time.Time // When this config was created
}

// GateOutcome is the routing decision of the gate
type GateOutcome string

const (
	// GatePass lets the extraction drive the request as is
	GatePass GateOutcome = "PASS"
	// GateClarify keeps the request but collects missing fields first
	GateClarify GateOutcome = "CLARIFY"
	// GateUnclear discards the intent and asks the resident to rephrase
	GateUnclear GateOutcome = "UNCLEAR"
)

// GateDecision is the outcome for one extraction
type GateDecision struct {
	Outcome   GateOutcome
	Rationale string
}

// DefaultConfidenceGate returns the default gate configuration
func DefaultConfidenceGate() ConfidenceGate {
	return ConfidenceGate{
		MinConfidence: 0.80,
		Floor:         0.30,
		ConfigVersion: "v1",
		UpdatedAt:     time.Now(),
	}
}

// Validate ensures gate values are within range and ordered
func (g ConfidenceGate) Validate() error {
	if g.MinConfidence < 0.0 || g.MinConfidence > 1.0 {
		return fmt.Errorf("MinConfidence must be between 0.0 and 1.0, got %.2f", g.MinConfidence)
	}

	if g.Floor < 0.0 || g.Floor > 1.0 {
		return fmt.Errorf("Floor must be between 0.0 and 1.0, got %.2f", g.Floor)
	}

	if g.MinConfidence <= g.Floor {
		return fmt.Errorf("MinConfidence must be greater than Floor (min: %.2f, floor: %.2f)", g.MinConfidence, g.Floor)
	}

	return nil
}

// Assess routes an extraction. complete reports whether every required field
// of the request is already known, which bypasses the minimum confidence.
func (g ConfidenceGate) Assess(result entity.IntentResult, complete bool) GateDecision {
	switch {
	case result.Confidence < g.Floor:
		return GateDecision{
			Outcome:   GateUnclear,
			Rationale: fmt.Sprintf("confidence %.2f below floor %.2f", result.Confidence, g.Floor),
		}

	case complete:
		return GateDecision{
			Outcome:   GatePass,
			Rationale: fmt.Sprintf("all required fields present (confidence %.2f)", result.Confidence),
		}

	case result.Confidence >= g.MinConfidence:
		return GateDecision{
			Outcome:   GatePass,
			Rationale: fmt.Sprintf("confidence %.2f >= threshold %.2f", result.Confidence, g.MinConfidence),
		}

	default:
		return GateDecision{
			Outcome:   GateClarify,
			Rationale: fmt.Sprintf("confidence %.2f below threshold %.2f with fields missing", result.Confidence, g.MinConfidence),
		}
	}
}
