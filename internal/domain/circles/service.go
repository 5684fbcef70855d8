package circles

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"neighborguard/internal/domain/users"
	"neighborguard/internal/platform/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	DefaultCircleName    = "My Home"
	DefaultCircleAddress = "Unknown address"
)

// UserDirectory es lo que circles necesita de users.
type UserDirectory interface {
	GetOrCreateByEmail(ctx context.Context, email, name string) (users.User, error)
	ListByIDs(ctx context.Context, ids []string) (map[string]users.User, error)
}

type Service struct {
	repo     Repository
	dir      *Directory
	users    UserDirectory
	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo Repository, dir *Directory, userDir UserDirectory) *Service {
	return &Service{
		repo:     repo,
		dir:      dir,
		users:    userDir,
		validate: validator.New(),
		now:      time.Now,
	}
}

type CreateInput struct {
	Name    string `validate:"required,max=120"`
	Address string `validate:"max=255"`
}

// Create crea el círculo y materializa la membresía owner del creador.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (Circle, error) {
	ownerID = strings.TrimSpace(ownerID)
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	if ownerID == "" {
		return Circle{}, apperr.BadRequest("owner id is required")
	}
	if err := s.validate.Struct(in); err != nil {
		return Circle{}, apperr.BadRequest("name is required (max 120 chars), address max 255 chars")
	}

	now := s.now()
	c := Circle{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      in.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Address != "" {
		addr := in.Address
		c.Address = &addr
	}

	owner := Member{
		ID:        uuid.NewString(),
		CircleID:  c.ID,
		UserID:    ownerID,
		Role:      RoleOwner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateCircle(ctx, c, owner); err != nil {
		return Circle{}, fmt.Errorf("create circle: %w", err)
	}
	return c, nil
}

// EnsureDefaultCircle implementa users.DefaultCircleProvisioner.
func (s *Service) EnsureDefaultCircle(ctx context.Context, ownerID string) error {
	owned, err := s.repo.ListOwnedBy(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("list owned circles: %w", err)
	}
	if len(owned) > 0 {
		return nil
	}
	_, err = s.Create(ctx, ownerID, CreateInput{Name: DefaultCircleName, Address: DefaultCircleAddress})
	return err
}

// ListForUser: círculos donde el usuario es miembro (owner incluido), por fecha de creación.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Summary, error) {
	roles, err := s.dir.Roles(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return []Summary{}, nil
	}

	ids := make([]string, 0, len(roles))
	for id := range roles {
		ids = append(ids, id)
	}
	list, err := s.repo.ListCirclesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list circles: %w", err)
	}

	out := make([]Summary, 0, len(list))
	for _, c := range list {
		out = append(out, Summary{Circle: c, Role: roles[c.ID]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Circle.CreatedAt.Before(out[j].Circle.CreatedAt)
	})
	return out, nil
}

// ListMembers: solo miembros del círculo pueden ver la lista.
func (s *Service) ListMembers(ctx context.Context, circleID, callerID string) ([]MemberView, error) {
	if _, err := s.dir.GetCircle(ctx, circleID); err != nil {
		return nil, err
	}
	if _, err := s.dir.AssertMember(ctx, circleID, callerID); err != nil {
		return nil, err
	}

	ms, err := s.repo.ListMembers(ctx, circleID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	ids := make([]string, 0, len(ms))
	for _, m := range ms {
		ids = append(ids, m.UserID)
	}
	byID, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]MemberView, 0, len(ms))
	for _, m := range ms {
		u := byID[m.UserID]
		out = append(out, MemberView{Member: m, Name: u.Name, Email: u.Email})
	}
	return out, nil
}

type AddMemberInput struct {
	Email string `validate:"required,email"`
	Name  string `validate:"max=120"`
	Role  string
}

// AddMember (solo owner): busca o crea el usuario por email y lo agrega.
// Si ya era miembro se actualiza el rol. Rol por defecto: neighbor.
func (s *Service) AddMember(ctx context.Context, circleID, callerID string, in AddMemberInput) (MemberView, error) {
	if err := s.assertOwner(ctx, circleID, callerID); err != nil {
		return MemberView{}, err
	}

	in.Email = users.NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return MemberView{}, apperr.BadRequest("a valid email is required")
	}

	role := RoleNeighbor
	if strings.TrimSpace(in.Role) != "" {
		r, ok := ParseRole(in.Role)
		if !ok {
			return MemberView{}, apperr.BadRequest("role must be one of owner, resident, neighbor, observer")
		}
		role = r
	}

	u, err := s.users.GetOrCreateByEmail(ctx, in.Email, in.Name)
	if err != nil {
		return MemberView{}, err
	}

	existing, err := s.repo.GetMember(ctx, circleID, u.ID)
	switch {
	case err == nil:
		if existing.Role == RoleOwner && role != RoleOwner {
			return MemberView{}, apperr.BadRequest("the owner role cannot be removed")
		}
	case errors.Is(err, apperr.ErrNotFound):
	default:
		return MemberView{}, fmt.Errorf("get member: %w", err)
	}

	now := s.now()
	m, err := s.repo.UpsertMember(ctx, Member{
		ID:        uuid.NewString(),
		CircleID:  circleID,
		UserID:    u.ID,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return MemberView{}, fmt.Errorf("upsert member: %w", err)
	}
	return MemberView{Member: m, Name: u.Name, Email: u.Email}, nil
}

// UpdateMemberRole (solo owner). La fila owner no se puede degradar.
func (s *Service) UpdateMemberRole(ctx context.Context, circleID, callerID, memberID, roleStr string) (Member, error) {
	if err := s.assertOwner(ctx, circleID, callerID); err != nil {
		return Member{}, err
	}

	role, ok := ParseRole(roleStr)
	if !ok {
		return Member{}, apperr.BadRequest("role must be one of owner, resident, neighbor, observer")
	}

	m, err := s.getMember(ctx, circleID, memberID)
	if err != nil {
		return Member{}, err
	}
	if m.Role == RoleOwner && role != RoleOwner {
		return Member{}, apperr.BadRequest("the owner role cannot be removed")
	}
	if m.Role == role {
		return m, nil
	}

	now := s.now()
	if err := s.repo.UpdateMemberRole(ctx, m.ID, role, now); err != nil {
		return Member{}, fmt.Errorf("update member role: %w", err)
	}
	m.Role = role
	m.UpdatedAt = now
	return m, nil
}

// RemoveMember (solo owner). La fila owner no se puede borrar.
func (s *Service) RemoveMember(ctx context.Context, circleID, callerID, memberID string) error {
	if err := s.assertOwner(ctx, circleID, callerID); err != nil {
		return err
	}

	m, err := s.getMember(ctx, circleID, memberID)
	if err != nil {
		return err
	}
	if m.Role == RoleOwner {
		return apperr.BadRequest("cannot remove the circle owner")
	}

	if err := s.repo.DeleteMember(ctx, m.ID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.NotFound("member not found")
		}
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

func (s *Service) assertOwner(ctx context.Context, circleID, callerID string) error {
	if _, err := s.dir.GetCircle(ctx, circleID); err != nil {
		return err
	}
	role, err := s.dir.GetRole(ctx, circleID, callerID)
	if err != nil {
		return err
	}
	if role != RoleOwner {
		return apperr.Forbidden("only the circle owner can manage members")
	}
	return nil
}

func (s *Service) getMember(ctx context.Context, circleID, memberID string) (Member, error) {
	m, err := s.repo.GetMemberByID(ctx, circleID, strings.TrimSpace(memberID))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Member{}, apperr.NotFound("member not found")
		}
		return Member{}, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}
