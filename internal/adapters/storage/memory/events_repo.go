package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"neighborguard/internal/domain/events"
	"neighborguard/internal/platform/pagination"
)

type eventRepo struct {
	mu   sync.RWMutex
	byID map[string]events.Event
}

func NewEventRepo() events.Repository {
	return &eventRepo{
		byID: make(map[string]events.Event),
	}
}

func (r *eventRepo) Create(ctx context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" {
		return errors.New("event id required")
	}
	if _, exists := r.byID[e.ID]; exists {
		return errors.New("event already exists")
	}

	r.byID[e.ID] = e
	return nil
}

func (r *eventRepo) GetByID(ctx context.Context, id string) (events.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return events.Event{}, ErrNotFound
	}
	return e, nil
}

func (r *eventRepo) ListByCircle(ctx context.Context, circleID string, filter events.ListFilter) ([]events.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := pagination.ResolveLimit(filter.Limit, events.DefaultListLimit)

	out := make([]events.Event, 0)
	for _, e := range r.byID {
		if e.CircleID != circleID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		// Cursor exclusivo: solo lo estrictamente anterior
		if filter.Cursor != nil && !e.CreatedAt.Before(*filter.Cursor) {
			continue
		}
		out = append(out, e)
	}

	sortNewestFirst(out)

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *eventRepo) ListOpen(ctx context.Context, circleIDs []string, since *time.Time) ([]events.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]struct{}, len(circleIDs))
	for _, id := range circleIDs {
		wanted[id] = struct{}{}
	}

	out := make([]events.Event, 0)
	for _, e := range r.byID {
		if _, ok := wanted[e.CircleID]; !ok {
			continue
		}
		if !e.Status.IsOpen() {
			continue
		}
		if since != nil && e.CreatedAt.Before(*since) {
			continue
		}
		out = append(out, e)
	}

	sortNewestFirst(out)
	return out, nil
}

func (r *eventRepo) ListByIDs(ctx context.Context, ids []string) ([]events.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]events.Event, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if e, ok := r.byID[id]; ok {
			out = append(out, e)
		}
	}

	sortNewestFirst(out)
	return out, nil
}

// Save reproduce el UPDATE ... WHERE status <> 'resolved' de Postgres bajo el lock.
func (r *eventRepo) Save(ctx context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[e.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Status == events.StatusResolved {
		return events.ErrResolvedLocked
	}

	cur.Status = e.Status
	cur.Resolution = e.Resolution
	cur.ResolutionNote = e.ResolutionNote
	cur.UpdatedAt = e.UpdatedAt
	r.byID[e.ID] = cur
	return nil
}

func sortNewestFirst(list []events.Event) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}
