package entity

import "time"

// ResidentProfile is what the engine knows about a requester
type ResidentProfile struct {
	UserID     string `json:"user_id" db:"user_id"`
	Name       string `json:"name" db:"name"`
	RoomNumber string `json:"room_number" db:"room_number"`
	Block      string `json:"block" db:"block"`
	Timezone   string `json:"timezone" db:"timezone"`
}

// Location resolves the profile timezone, falling back when unset or unknown
func (p ResidentProfile) Location(fallback *time.Location) *time.Location {
	if p.Timezone != "" {
		if loc, err := time.LoadLocation(p.Timezone); err == nil {
			return loc
		}
	}
	if fallback == nil {
		return time.UTC
	}
	return fallback
}

// RequesterHistory is the requester's record used by policy rules and the extractor
type RequesterHistory struct {
	Violations     []time.Time      `json:"violations"`
	RecentRequests []*RequestRecord `json:"recent_requests"`
}

// UserContext is the bundle handed to the entity extractor
type UserContext struct {
	Profile        ResidentProfile   `json:"profile"`
	Today          string            `json:"today"`
	Weekday        string            `json:"weekday"`
	RecentRequests []*RequestRecord  `json:"recent_requests,omitempty"`
	RecentTurns    []IntentRecord    `json:"recent_turns,omitempty"`
	ActiveType     RequestType       `json:"active_type,omitempty"`
	AwaitingField  string            `json:"awaiting_field,omitempty"`
	KnownFields    map[string]string `json:"known_fields,omitempty"`
}
