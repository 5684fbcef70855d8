package circles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"neighborguard/internal/platform/apperr"
)

// Directory responde "¿qué rol tiene este usuario en este círculo?".
// Única fuente: filas de membresía (el owner siempre tiene la suya, ver Service.Create).
type Directory struct {
	repo Repository
}

func NewDirectory(repo Repository) *Directory {
	return &Directory{repo: repo}
}

// GetRole devuelve RoleNone si no hay membresía.
func (d *Directory) GetRole(ctx context.Context, circleID, userID string) (Role, error) {
	circleID = strings.TrimSpace(circleID)
	userID = strings.TrimSpace(userID)
	if circleID == "" || userID == "" {
		return RoleNone, nil
	}

	m, err := d.repo.GetMember(ctx, circleID, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return RoleNone, nil
		}
		return RoleNone, fmt.Errorf("get membership: %w", err)
	}
	return m.Role, nil
}

// AssertMember falla con Forbidden si no hay membresía.
func (d *Directory) AssertMember(ctx context.Context, circleID, userID string) (Role, error) {
	role, err := d.GetRole(ctx, circleID, userID)
	if err != nil {
		return RoleNone, err
	}
	if role == RoleNone {
		return RoleNone, apperr.Forbidden("you are not a member of this circle")
	}
	return role, nil
}

// Roles devuelve circleID => rol para todas las membresías del usuario.
func (d *Directory) Roles(ctx context.Context, userID string) (map[string]Role, error) {
	ms, err := d.repo.ListMembershipsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	out := make(map[string]Role, len(ms))
	for _, m := range ms {
		out[m.CircleID] = m.Role
	}
	return out, nil
}

func (d *Directory) CircleIDsForUser(ctx context.Context, userID string) ([]string, error) {
	ms, err := d.repo.ListMembershipsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.CircleID)
	}
	return out, nil
}

func (d *Directory) MemberUserIDs(ctx context.Context, circleID string) ([]string, error) {
	ms, err := d.repo.ListMembers(ctx, circleID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.UserID)
	}
	return out, nil
}

// GetCircle traduce not found a un error de negocio.
func (d *Directory) GetCircle(ctx context.Context, circleID string) (Circle, error) {
	c, err := d.repo.GetCircle(ctx, strings.TrimSpace(circleID))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Circle{}, apperr.NotFound("circle not found")
		}
		return Circle{}, fmt.Errorf("get circle: %w", err)
	}
	return c, nil
}
