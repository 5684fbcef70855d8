package circles

import (
	"context"
	"time"
)

type Repository interface {
	// CreateCircle persiste el círculo y la fila de membresía del owner en una sola operación.
	CreateCircle(ctx context.Context, c Circle, owner Member) error
	GetCircle(ctx context.Context, id string) (Circle, error)
	ListCirclesByIDs(ctx context.Context, ids []string) ([]Circle, error)
	ListOwnedBy(ctx context.Context, ownerID string) ([]Circle, error)

	GetMember(ctx context.Context, circleID, userID string) (Member, error)
	GetMemberByID(ctx context.Context, circleID, memberID string) (Member, error)
	ListMembers(ctx context.Context, circleID string) ([]Member, error)
	ListMembershipsForUser(ctx context.Context, userID string) ([]Member, error)

	// UpsertMember inserta o, si ya existe (circle,user), actualiza el rol. Devuelve la fila final.
	UpsertMember(ctx context.Context, m Member) (Member, error)
	UpdateMemberRole(ctx context.Context, memberID string, role Role, updatedAt time.Time) error
	DeleteMember(ctx context.Context, memberID string) error
}
