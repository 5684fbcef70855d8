package notes

import "time"

type Type string

const (
	TypeComment Type = "comment"
	TypeSystem  Type = "system"
)

// Note es un comentario en la conversación de un evento.
type Note struct {
	ID       string
	EventID  string
	CircleID string
	UserID   string
	Body     string
	Type     Type

	CreatedAt time.Time
	UpdatedAt time.Time
}

// View agrega el autor para mostrar en la conversación.
type View struct {
	ID         string    `json:"id"`
	EventID    string    `json:"eventId"`
	CircleID   string    `json:"circleId"`
	UserID     string    `json:"userId"`
	AuthorName string    `json:"authorName"`
	Body       string    `json:"body"`
	Type       Type      `json:"type"`
	IsMine     bool      `json:"isMine"`
	CreatedAt  time.Time `json:"createdAt"`
}
