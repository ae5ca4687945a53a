package entity

// IntentResult is the extractor's reading of one message.
// Entity values are raw strings; an empty string stands for null.
type IntentResult struct {
	Intent                Intent            `json:"intent"`
	Entities              map[string]string `json:"entities"`
	Confidence            float64           `json:"confidence"`
	RequiresClarification bool              `json:"requires_clarification"`
	MissingFields         []string          `json:"missing_fields"`
}

// NewIntentResult builds an IntentResult, copying the entity map and
// clamping the confidence into [0,1]. Empty values are dropped.
func NewIntentResult(intent Intent, entities map[string]string, confidence float64, missing []string) IntentResult {
	copied := make(map[string]string, len(entities))
	for k, v := range entities {
		if v != "" {
			copied[k] = v
		}
	}

	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return IntentResult{
		Intent:                intent,
		Entities:              copied,
		Confidence:            confidence,
		RequiresClarification: len(missing) > 0,
		MissingFields:         append([]string(nil), missing...),
	}
}

// Entity returns the value for name or "" when absent
func (r IntentResult) Entity(name string) string {
	return r.Entities[name]
}

// EntitiesCopy returns a copy of the entity map safe for mutation
func (r IntentResult) EntitiesCopy() map[string]string {
	out := make(map[string]string, len(r.Entities))
	for k, v := range r.Entities {
		out[k] = v
	}
	return out
}

// IsActionable reports whether the intent maps to a request type
func (r IntentResult) IsActionable() bool {
	_, ok := r.Intent.RequestType()
	return ok
}
