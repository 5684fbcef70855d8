package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"neighborguard/internal/metrics"
	"neighborguard/internal/platform/apperr"
	"neighborguard/internal/platform/pagination"

	"github.com/google/uuid"
)

const DefaultListLimit = 20

// Notifier es el hook post-commit que usa el motor de eventos.
// Implementaciones: *Service (directo) y jobs.QueueNotifier (river).
type Notifier interface {
	NotifyCircle(ctx context.Context, f FanOut) error
}

// MemberLister devuelve los user ids de un círculo (circles.Directory).
type MemberLister interface {
	MemberUserIDs(ctx context.Context, circleID string) ([]string, error)
}

type Service struct {
	repo    Repository
	members MemberLister
	now     func() time.Time
}

func NewService(repo Repository, members MemberLister) *Service {
	return &Service{
		repo:    repo,
		members: members,
		now:     time.Now,
	}
}

// NotifyCircle crea una notificación por miembro (excepto ExcludeUserID) en un único batch.
func (s *Service) NotifyCircle(ctx context.Context, f FanOut) error {
	if strings.TrimSpace(f.CircleID) == "" || !f.Type.Valid() {
		return apperr.BadRequest("fan-out requires circle id and a known type")
	}

	userIDs, err := s.members.MemberUserIDs(ctx, f.CircleID)
	if err != nil {
		return err
	}

	now := s.now()
	seen := make(map[string]struct{}, len(userIDs))
	batch := make([]Notification, 0, len(userIDs))
	for _, uid := range userIDs {
		if uid == "" || uid == f.ExcludeUserID {
			continue
		}
		if _, dup := seen[uid]; dup {
			continue
		}
		seen[uid] = struct{}{}

		batch = append(batch, Notification{
			ID:     uuid.NewString(),
			UserID: uid,
			Type:   f.Type,
			Payload: Payload{
				CircleID: f.CircleID,
				EventID:  f.EventID,
				Title:    f.Title,
				Message:  f.Message,
			},
			CreatedAt: now,
		})
	}

	if len(batch) == 0 {
		return nil
	}
	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return fmt.Errorf("create notifications: %w", err)
	}
	metrics.NotificationsCreated.WithLabelValues(string(f.Type)).Add(float64(len(batch)))
	return nil
}

// ListForUser: más recientes primero; limit por defecto 20, máx 100.
func (s *Service) ListForUser(ctx context.Context, userID string, filter ListFilter) ([]Notification, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, apperr.BadRequest("unknown notification type")
	}
	filter.Limit = pagination.Limit(pagination.ResolveLimit(filter.Limit, DefaultListLimit))

	items, err := s.repo.ListForUser(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperr.NotFound("notification not found")
	}
	if err := s.repo.MarkRead(ctx, userID, id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.NotFound("notification not found")
		}
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return n, nil
}
