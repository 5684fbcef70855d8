package events

import (
	"context"
	"errors"
	"time"
)

// ErrResolvedLocked: Save sobre una fila que ya está resolved.
var ErrResolvedLocked = errors.New("event is resolved")

type Repository interface {
	Create(ctx context.Context, e Event) error
	GetByID(ctx context.Context, id string) (Event, error)
	// ListByCircle: más recientes primero (created_at desc).
	ListByCircle(ctx context.Context, circleID string, filter ListFilter) ([]Event, error)
	// ListOpen: eventos no resueltos de los círculos dados; since opcional sobre created_at.
	ListOpen(ctx context.Context, circleIDs []string, since *time.Time) ([]Event, error)
	ListByIDs(ctx context.Context, ids []string) ([]Event, error)

	// Save persiste status, resolution, resolution_note y updated_at en un único
	// update condicionado a status <> resolved. Fila resolved => ErrResolvedLocked.
	Save(ctx context.Context, e Event) error
}

type ListFilter struct {
	Status Status
	Cursor *time.Time
	// Limit nil => DefaultListLimit.
	Limit *int
}
