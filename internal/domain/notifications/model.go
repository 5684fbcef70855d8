package notifications

import "time"

type Type string

const (
	TypeEventCreated  Type = "event_created"
	TypeEventResolved Type = "event_resolved"
)

func (t Type) Valid() bool {
	switch t {
	case TypeEventCreated, TypeEventResolved:
		return true
	default:
		return false
	}
}

// Payload se guarda como JSON (jsonb en Postgres).
type Payload struct {
	CircleID string `json:"circleId"`
	EventID  string `json:"eventId"`
	Title    string `json:"title"`
	Message  string `json:"message"`
}

type Notification struct {
	ID      string
	UserID  string
	Type    Type
	Payload Payload
	IsRead  bool

	CreatedAt time.Time
}

// FanOut describe una notificación para todos los miembros de un círculo salvo ExcludeUserID.
type FanOut struct {
	CircleID      string `json:"circle_id"`
	ExcludeUserID string `json:"exclude_user_id"`
	Type          Type   `json:"type"`
	EventID       string `json:"event_id"`
	Title         string `json:"title"`
	Message       string `json:"message"`
}
