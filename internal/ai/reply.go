package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
)

// ErrNoJSON is returned when a model reply holds no JSON object
var ErrNoJSON = errors.New("no JSON object in reply")

// intentReply is the JSON shape the extraction prompt asks for
type intentReply struct {
	Intent                string                 `json:"intent"`
	Entities              map[string]interface{} `json:"entities"`
	Confidence            float64                `json:"confidence"`
	RequiresClarification bool                   `json:"requires_clarification"`
	MissingFields         []string               `json:"missing_fields"`
}

// ParseIntentJSON decodes a model reply into an IntentResult. Replies that
// wrap the object in prose or markdown fences are tolerated.
func ParseIntentJSON(content string) (entity.IntentResult, error) {
	var reply intentReply
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		start := findJSONStart(content)
		if start < 0 {
			return entity.IntentResult{}, ErrNoJSON
		}
		end := findJSONEnd(content, start)
		if end <= start {
			return entity.IntentResult{}, fmt.Errorf("%w: unbalanced braces", ErrNoJSON)
		}
		if err := json.Unmarshal([]byte(content[start:end]), &reply); err != nil {
			return entity.IntentResult{}, fmt.Errorf("failed to parse reply: %w", err)
		}
	}

	entities := make(map[string]string, len(reply.Entities))
	for k, v := range reply.Entities {
		if s := entityString(v); s != "" {
			entities[AliasField(k)] = s
		}
	}

	missing := reply.MissingFields
	if reply.RequiresClarification && len(missing) == 0 {
		if t, ok := entity.ParseIntent(reply.Intent).RequestType(); ok {
			missing = entity.MissingFields(t, entities)
		}
	}

	return entity.NewIntentResult(entity.ParseIntent(strings.TrimSpace(reply.Intent)), entities, reply.Confidence, missing), nil
}

// entityString flattens a JSON entity value; null and empty become ""
func entityString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		s := strings.TrimSpace(val)
		if strings.EqualFold(s, "null") || strings.EqualFold(s, "none") {
			return ""
		}
		return s
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case bool:
		return fmt.Sprintf("%t", val)
	default:
		return ""
	}
}

// fieldAliases maps names models commonly use onto canonical fields
var fieldAliases = map[string]string{
	"visit_date":        entity.FieldStartDate,
	"visit_start":       entity.FieldStartDate,
	"leave_from":        entity.FieldStartDate,
	"from_date":         entity.FieldStartDate,
	"visit_end":         entity.FieldEndDate,
	"leave_to":          entity.FieldEndDate,
	"to_date":           entity.FieldEndDate,
	"return_date":       entity.FieldEndDate,
	"issue_description": entity.FieldProblemDescription,
	"issue":             entity.FieldProblemDescription,
	"description":       entity.FieldProblemDescription,
	"duration_days":     entity.FieldDuration,
	"stay_duration":     entity.FieldDuration,
	"room":              entity.FieldRoomNumber,
	"name":              entity.FieldGuestName,
}

// AliasField returns the canonical name of a field
func AliasField(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := fieldAliases[name]; ok {
		return canonical
	}
	return name
}

// findJSONStart finds the first '{' in content
func findJSONStart(content string) int {
	return strings.IndexByte(content, '{')
}

// findJSONEnd finds the end of the JSON object starting at start.
// Counts braces outside string literals to find the matching close.
func findJSONEnd(content string, start int) int {
	if start < 0 || start >= len(content) || content[start] != '{' {
		return -1
	}

	depth := 0
	inString := false
	escapeNext := false

	for i := start; i < len(content); i++ {
		char := content[i]

		if escapeNext {
			escapeNext = false
			continue
		}

		if char == '\\' && inString {
			escapeNext = true
			continue
		}

		if char == '"' {
			inString = !inString
			continue
		}

		if inString {
			continue
		}

		switch char {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}

	return -1
}
