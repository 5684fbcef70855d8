package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"neighborguard/internal/platform/apperr"
	"neighborguard/internal/ports/auth"

	"github.com/google/uuid"
)

// DefaultCircleProvisioner crea el círculo inicial del owner por defecto.
// Lo implementa circles.Service; la interfaz evita importar circles (rompe ciclos).
type DefaultCircleProvisioner interface {
	EnsureDefaultCircle(ctx context.Context, ownerID string) error
}

type Options struct {
	// DefaultUser: sin id de caller se usa (y crea si falta) el owner por defecto.
	DefaultUser       bool
	DefaultOwnerEmail string
	DefaultOwnerName  string
}

type Service struct {
	repo        Repository
	opts        Options
	provisioner DefaultCircleProvisioner
	now         func() time.Time
}

func NewService(repo Repository, opts Options) *Service {
	if strings.TrimSpace(opts.DefaultOwnerEmail) == "" {
		opts.DefaultOwnerEmail = "owner@neighborguard.local"
	}
	if strings.TrimSpace(opts.DefaultOwnerName) == "" {
		opts.DefaultOwnerName = "Default Owner"
	}
	return &Service{
		repo: repo,
		opts: opts,
		now:  time.Now,
	}
}

func (s *Service) SetProvisioner(p DefaultCircleProvisioner) {
	s.provisioner = p
}

// ResolveCurrentUser:
// - id no vacío => el usuario debe existir (NotFound si no).
// - id vacío => owner por defecto (si está habilitado) con su círculo "My Home".
func (s *Service) ResolveCurrentUser(ctx context.Context, userID string) (User, error) {
	userID = strings.TrimSpace(userID)
	if userID != "" {
		return s.GetByID(ctx, userID)
	}

	if !s.opts.DefaultUser {
		return User{}, apperr.Unauthorized("missing user identity")
	}

	u, err := s.GetOrCreateByEmail(ctx, s.opts.DefaultOwnerEmail, s.opts.DefaultOwnerName)
	if err != nil {
		return User{}, err
	}
	if s.provisioner != nil {
		if err := s.provisioner.EnsureDefaultCircle(ctx, u.ID); err != nil {
			return User{}, fmt.Errorf("ensure default circle: %w", err)
		}
	}
	return u, nil
}

// ResolveIdentity implementa auth.IdentityResolver.
func (s *Service) ResolveIdentity(ctx context.Context, userID string) (auth.Identity, error) {
	u, err := s.ResolveCurrentUser(ctx, userID)
	if err != nil {
		return auth.Identity{}, err
	}
	return auth.Identity{UserID: u.ID, Name: u.Name, Email: u.Email}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, apperr.BadRequest("user id is required")
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return User{}, apperr.NotFound("user not found")
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetOrCreateByEmail busca por email (normalizado); si no existe lo crea.
// name vacío => parte local del email.
func (s *Service) GetOrCreateByEmail(ctx context.Context, email, name string) (User, error) {
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return User{}, apperr.BadRequest("a valid email is required")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	now := s.now()
	u, err := s.repo.GetOrCreate(ctx, User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return User{}, fmt.Errorf("get or create user: %w", err)
	}
	return u, nil
}

// ListByIDs devuelve un mapa id => usuario; ids desconocidos se omiten.
func (s *Service) ListByIDs(ctx context.Context, ids []string) (map[string]User, error) {
	out := make(map[string]User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	list, err := s.repo.ListByIDs(ctx, dedupe(ids))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	for _, u := range list {
		out[u.ID] = u
	}
	return out, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
