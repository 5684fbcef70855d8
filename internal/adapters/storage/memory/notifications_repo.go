package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"neighborguard/internal/domain/notifications"
	"neighborguard/internal/platform/pagination"
)

type notificationRepo struct {
	mu   sync.RWMutex
	byID map[string]notifications.Notification
}

func NewNotificationRepo() notifications.Repository {
	return &notificationRepo{
		byID: make(map[string]notifications.Notification),
	}
}

// CreateBatch es todo o nada: valida antes de escribir.
func (r *notificationRepo) CreateBatch(ctx context.Context, items []notifications.Notification) error {
	if len(items) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range items {
		if n.ID == "" {
			return errors.New("notification id required")
		}
		if _, exists := r.byID[n.ID]; exists {
			return errors.New("notification already exists")
		}
	}
	for _, n := range items {
		r.byID[n.ID] = n
	}
	return nil
}

func (r *notificationRepo) ListForUser(ctx context.Context, userID string, filter notifications.ListFilter) ([]notifications.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := pagination.ResolveLimit(filter.Limit, notifications.DefaultListLimit)

	out := make([]notifications.Notification, 0)
	for _, n := range r.byID {
		if n.UserID != userID {
			continue
		}
		if filter.UnreadOnly && n.IsRead {
			continue
		}
		if filter.Type != "" && n.Type != filter.Type {
			continue
		}
		if filter.Cursor != nil && !n.CreatedAt.Before(*filter.Cursor) {
			continue
		}
		out = append(out, n)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *notificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, item := range r.byID {
		if item.UserID == userID && !item.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.byID[id]
	if !ok || n.UserID != userID {
		return ErrNotFound
	}
	n.IsRead = true
	r.byID[id] = n
	return nil
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	updated := 0
	for id, n := range r.byID {
		if n.UserID != userID || n.IsRead {
			continue
		}
		n.IsRead = true
		r.byID[id] = n
		updated++
	}
	return updated, nil
}
