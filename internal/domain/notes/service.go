package notes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"neighborguard/internal/domain/events"
	"neighborguard/internal/domain/users"
	"neighborguard/internal/platform/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// EventAccess resuelve el evento validando membresía (events.Service.Get).
type EventAccess interface {
	Get(ctx context.Context, callerID, eventID string) (events.View, error)
}

type Users interface {
	ListByIDs(ctx context.Context, ids []string) (map[string]users.User, error)
}

type Service struct {
	repo     Repository
	events   EventAccess
	users    Users
	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo Repository, ev EventAccess, u Users) *Service {
	return &Service{
		repo:     repo,
		events:   ev,
		users:    u,
		validate: validator.New(),
		now:      time.Now,
	}
}

type CreateInput struct {
	Body string `validate:"required,max=4000"`
	Type string `validate:"omitempty,oneof=comment system"`
}

func (s *Service) ListForEvent(ctx context.Context, callerID, eventID string) ([]View, error) {
	ev, err := s.events.Get(ctx, callerID, eventID)
	if err != nil {
		return nil, err
	}

	list, err := s.repo.ListByEvent(ctx, ev.ID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	ids := make([]string, 0, len(list))
	for _, n := range list {
		ids = append(ids, n.UserID)
	}
	authors, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]View, 0, len(list))
	for _, n := range list {
		out = append(out, toView(n, authors[n.UserID], callerID))
	}
	return out, nil
}

// Create: cualquier miembro del círculo (observers incluidos) puede comentar.
func (s *Service) Create(ctx context.Context, callerID, eventID string, in CreateInput) (View, error) {
	in.Body = strings.TrimSpace(in.Body)
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	if err := s.validate.Struct(in); err != nil {
		return View{}, apperr.BadRequest("body is required (max 4000 chars); type must be comment or system")
	}

	ev, err := s.events.Get(ctx, callerID, eventID)
	if err != nil {
		return View{}, err
	}

	typ := TypeComment
	if in.Type != "" {
		typ = Type(in.Type)
	}

	now := s.now()
	n := Note{
		ID:        uuid.NewString(),
		EventID:   ev.ID,
		CircleID:  ev.CircleID,
		UserID:    callerID,
		Body:      in.Body,
		Type:      typ,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return View{}, fmt.Errorf("create note: %w", err)
	}

	authors, err := s.users.ListByIDs(ctx, []string{callerID})
	if err != nil {
		return View{}, err
	}
	return toView(n, authors[callerID], callerID), nil
}

func toView(n Note, author users.User, callerID string) View {
	return View{
		ID:         n.ID,
		EventID:    n.EventID,
		CircleID:   n.CircleID,
		UserID:     n.UserID,
		AuthorName: author.DisplayName(),
		Body:       n.Body,
		Type:       n.Type,
		IsMine:     n.UserID == callerID,
		CreatedAt:  n.CreatedAt,
	}
}
