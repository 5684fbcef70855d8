package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"neighborguard/internal/domain/circles"
)

type circleRepo struct {
	mu      sync.RWMutex
	byID    map[string]circles.Circle
	members map[string]circles.Member // memberID => member
}

func NewCircleRepo() circles.Repository {
	return &circleRepo{
		byID:    make(map[string]circles.Circle),
		members: make(map[string]circles.Member),
	}
}

func (r *circleRepo) CreateCircle(ctx context.Context, c circles.Circle, owner circles.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.ID == "" || owner.ID == "" {
		return errors.New("circle and member id required")
	}
	if _, exists := r.byID[c.ID]; exists {
		return errors.New("circle already exists")
	}

	r.byID[c.ID] = c
	r.members[owner.ID] = owner
	return nil
}

func (r *circleRepo) GetCircle(ctx context.Context, id string) (circles.Circle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id]
	if !ok {
		return circles.Circle{}, ErrNotFound
	}
	return c, nil
}

func (r *circleRepo) ListCirclesByIDs(ctx context.Context, ids []string) ([]circles.Circle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]circles.Circle, 0, len(ids))
	for _, id := range ids {
		if c, ok := r.byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *circleRepo) ListOwnedBy(ctx context.Context, ownerID string) ([]circles.Circle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]circles.Circle, 0)
	for _, c := range r.byID {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *circleRepo) GetMember(ctx context.Context, circleID, userID string) (circles.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if m, ok := r.findMember(circleID, userID); ok {
		return m, nil
	}
	return circles.Member{}, ErrNotFound
}

func (r *circleRepo) GetMemberByID(ctx context.Context, circleID, memberID string) (circles.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.members[memberID]
	if !ok || m.CircleID != circleID {
		return circles.Member{}, ErrNotFound
	}
	return m, nil
}

func (r *circleRepo) ListMembers(ctx context.Context, circleID string) ([]circles.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]circles.Member, 0)
	for _, m := range r.members {
		if m.CircleID == circleID {
			out = append(out, m)
		}
	}
	sortMembers(out)
	return out, nil
}

func (r *circleRepo) ListMembershipsForUser(ctx context.Context, userID string) ([]circles.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]circles.Member, 0)
	for _, m := range r.members {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	sortMembers(out)
	return out, nil
}

func (r *circleRepo) UpsertMember(ctx context.Context, m circles.Member) (circles.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[m.CircleID]; !ok {
		return circles.Member{}, ErrNotFound
	}
	if existing, ok := r.findMember(m.CircleID, m.UserID); ok {
		existing.Role = m.Role
		existing.UpdatedAt = m.UpdatedAt
		r.members[existing.ID] = existing
		return existing, nil
	}

	r.members[m.ID] = m
	return m, nil
}

func (r *circleRepo) UpdateMemberRole(ctx context.Context, memberID string, role circles.Role, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[memberID]
	if !ok {
		return ErrNotFound
	}
	m.Role = role
	m.UpdatedAt = updatedAt
	r.members[memberID] = m
	return nil
}

func (r *circleRepo) DeleteMember(ctx context.Context, memberID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[memberID]; !ok {
		return ErrNotFound
	}
	delete(r.members, memberID)
	return nil
}

func (r *circleRepo) findMember(circleID, userID string) (circles.Member, bool) {
	for _, m := range r.members {
		if m.CircleID == circleID && m.UserID == userID {
			return m, true
		}
	}
	return circles.Member{}, false
}

func sortMembers(list []circles.Member) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}
