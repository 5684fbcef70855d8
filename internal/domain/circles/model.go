package circles

import (
	"strings"
	"time"
)

type Role string

const (
	RoleOwner    Role = "owner"
	RoleResident Role = "resident"
	RoleNeighbor Role = "neighbor"
	RoleObserver Role = "observer"

	// RoleNone: el usuario no tiene membresía en el círculo.
	RoleNone Role = ""
)

func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleOwner, RoleResident, RoleNeighbor, RoleObserver:
		return r, true
	default:
		return RoleNone, false
	}
}

// CanCreateEvents: cualquier miembro salvo observer.
func (r Role) CanCreateEvents() bool {
	return r != RoleNone && r != RoleObserver
}

type Circle struct {
	ID      string
	OwnerID string
	Name    string
	Address *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

const fallbackCircleName = "your circle"

// DisplayName se usa en textos de notificación.
func (c Circle) DisplayName() string {
	if strings.TrimSpace(c.Name) == "" {
		return fallbackCircleName
	}
	return c.Name
}

// Member es la fila de membresía; única por (CircleID, UserID).
type Member struct {
	ID       string
	CircleID string
	UserID   string
	Role     Role

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary: círculo + rol del usuario que consulta.
type Summary struct {
	Circle Circle
	Role   Role
}

// MemberView: membresía + datos de usuario para listados.
type MemberView struct {
	Member
	Name  string
	Email string
}
