package notes

import "context"

type Repository interface {
	Create(ctx context.Context, n Note) error
	// ListByEvent: orden cronológico (created_at asc).
	ListByEvent(ctx context.Context, eventID string) ([]Note, error)
}
