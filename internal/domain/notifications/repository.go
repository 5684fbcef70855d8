package notifications

import (
	"context"
	"time"
)

type Repository interface {
	// CreateBatch inserta todas las filas en una sola operación. Batch vacío => no-op.
	CreateBatch(ctx context.Context, items []Notification) error
	ListForUser(ctx context.Context, userID string, filter ListFilter) ([]Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	// MarkRead devuelve ErrNotFound si no hay fila (id, userID).
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

type ListFilter struct {
	UnreadOnly bool
	Type       Type
	Cursor     *time.Time
	Limit      *int
}
