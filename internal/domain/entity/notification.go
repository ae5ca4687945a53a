package entity

import "time"

// NotificationDelivery is one delivery attempt of a notification on one channel
type NotificationDelivery struct {
	ID            int64     `json:"id" db:"id"`
	EventID       string    `json:"event_id" db:"event_id"`
	Kind          string    `json:"kind" db:"kind"`
	Channel       string    `json:"channel" db:"channel"`
	Recipient     string    `json:"recipient" db:"recipient"`
	Status        string    `json:"status" db:"status"`
	ErrorMessage  string    `json:"error_message,omitempty" db:"error_message"`
	CorrelationID string    `json:"correlation_id" db:"correlation_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
