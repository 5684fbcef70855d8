package home

import (
	"context"
	"time"

	"neighborguard/internal/domain/circles"
	"neighborguard/internal/domain/events"
	"neighborguard/internal/domain/notifications"
	"neighborguard/internal/domain/users"
	"neighborguard/internal/platform/pagination"
)

const (
	inboxLimit     = 50
	recentFallback = 24 * time.Hour
)

type Users interface {
	GetByID(ctx context.Context, id string) (users.User, error)
}

type Circles interface {
	ListForUser(ctx context.Context, userID string) ([]circles.Summary, error)
}

type Events interface {
	ListOpenForUser(ctx context.Context, callerID string) ([]events.View, error)
	ListRecentOpenForUser(ctx context.Context, callerID string, since time.Time) ([]events.View, error)
	GetByIDs(ctx context.Context, callerID string, ids []string) ([]events.View, error)
}

type Notifications interface {
	ListForUser(ctx context.Context, userID string, filter notifications.ListFilter) ([]notifications.Notification, error)
}

type Options struct {
	// RecentFallback: si no hay notificaciones event_created sin leer, usar los
	// eventos abiertos de las últimas 24h como "nuevos". Modo degradado.
	RecentFallback bool
}

type Service struct {
	users   Users
	circles Circles
	events  Events
	notifs  Notifications
	opts    Options
	now     func() time.Time
}

func NewService(u Users, c Circles, e Events, n Notifications, opts Options) *Service {
	return &Service{
		users:   u,
		circles: c,
		events:  e,
		notifs:  n,
		opts:    opts,
		now:     time.Now,
	}
}

type Me struct {
	User    users.User
	Circles []circles.Summary
}

// Me: usuario + círculos (propios y como miembro), por fecha de creación.
func (s *Service) Me(ctx context.Context, userID string) (Me, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return Me{}, err
	}
	list, err := s.circles.ListForUser(ctx, userID)
	if err != nil {
		return Me{}, err
	}
	return Me{User: u, Circles: list}, nil
}

type Tasks struct {
	MyCircles          []circles.Summary
	PendingEvents      []events.View
	InboxNotifications []notifications.Notification
	InboxNewEvents     []events.View
	// NewEventsFromFallback indica que InboxNewEvents salió del modo degradado.
	NewEventsFromFallback bool
}

func (s *Service) Tasks(ctx context.Context, userID string) (Tasks, error) {
	myCircles, err := s.circles.ListForUser(ctx, userID)
	if err != nil {
		return Tasks{}, err
	}

	pending, err := s.events.ListOpenForUser(ctx, userID)
	if err != nil {
		return Tasks{}, err
	}

	unread, err := s.notifs.ListForUser(ctx, userID, notifications.ListFilter{
		UnreadOnly: true,
		Limit:      pagination.Limit(inboxLimit),
	})
	if err != nil {
		return Tasks{}, err
	}

	// Eventos nuevos = los referenciados por notificaciones event_created sin leer.
	var ids []string
	for _, n := range unread {
		if n.Type == notifications.TypeEventCreated && n.Payload.EventID != "" {
			ids = append(ids, n.Payload.EventID)
		}
	}

	t := Tasks{
		MyCircles:          myCircles,
		PendingEvents:      pending,
		InboxNotifications: unread,
		InboxNewEvents:     []events.View{},
	}

	if len(ids) > 0 {
		t.InboxNewEvents, err = s.events.GetByIDs(ctx, userID, ids)
		if err != nil {
			return Tasks{}, err
		}
	}

	if len(t.InboxNewEvents) == 0 && s.opts.RecentFallback {
		recent, err := s.events.ListRecentOpenForUser(ctx, userID, s.now().Add(-recentFallback))
		if err != nil {
			return Tasks{}, err
		}
		t.InboxNewEvents = recent
		t.NewEventsFromFallback = len(recent) > 0
	}

	return t, nil
}
