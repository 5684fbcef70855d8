package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"neighborguard/internal/domain/circles"
)

type CirclesRepo struct {
	db *sql.DB
}

func NewCirclesRepo(db *sql.DB) *CirclesRepo {
	return &CirclesRepo{db: db}
}

const (
	circleColumns = `id, owner_id, name, address, created_at, updated_at`
	memberColumns = `id, circle_id, user_id, role, created_at, updated_at`
)

// CreateCircle inserta círculo + membresía owner en una transacción.
func (r *CirclesRepo) CreateCircle(ctx context.Context, c circles.Circle, owner circles.Member) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO circles (id, owner_id, name, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.OwnerID, c.Name, nullString(c.Address), c.CreatedAt, c.UpdatedAt); err != nil {
		return fmt.Errorf("insert circle: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO circle_members (id, circle_id, user_id, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (circle_id, user_id) DO UPDATE SET role = EXCLUDED.role, updated_at = EXCLUDED.updated_at
	`, owner.ID, owner.CircleID, owner.UserID, string(owner.Role), owner.CreatedAt, owner.UpdatedAt); err != nil {
		return fmt.Errorf("insert owner membership: %w", err)
	}

	return tx.Commit()
}

func (r *CirclesRepo) GetCircle(ctx context.Context, id string) (circles.Circle, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+circleColumns+` FROM circles WHERE id = $1`, id)
	return scanCircle(row)
}

func (r *CirclesRepo) ListCirclesByIDs(ctx context.Context, ids []string) ([]circles.Circle, error) {
	if len(ids) == 0 {
		return []circles.Circle{}, nil
	}
	return r.queryCircles(ctx, `SELECT `+circleColumns+` FROM circles WHERE id = ANY($1::text[]) ORDER BY created_at`, ids)
}

func (r *CirclesRepo) ListOwnedBy(ctx context.Context, ownerID string) ([]circles.Circle, error) {
	return r.queryCircles(ctx, `SELECT `+circleColumns+` FROM circles WHERE owner_id = $1 ORDER BY created_at`, ownerID)
}

func (r *CirclesRepo) GetMember(ctx context.Context, circleID, userID string) (circles.Member, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+memberColumns+` FROM circle_members WHERE circle_id = $1 AND user_id = $2
	`, circleID, userID)
	return scanMember(row)
}

func (r *CirclesRepo) GetMemberByID(ctx context.Context, circleID, memberID string) (circles.Member, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+memberColumns+` FROM circle_members WHERE circle_id = $1 AND id = $2
	`, circleID, memberID)
	return scanMember(row)
}

func (r *CirclesRepo) ListMembers(ctx context.Context, circleID string) ([]circles.Member, error) {
	return r.queryMembers(ctx, `
		SELECT `+memberColumns+` FROM circle_members WHERE circle_id = $1 ORDER BY created_at, id
	`, circleID)
}

func (r *CirclesRepo) ListMembershipsForUser(ctx context.Context, userID string) ([]circles.Member, error) {
	return r.queryMembers(ctx, `
		SELECT `+memberColumns+` FROM circle_members WHERE user_id = $1 ORDER BY created_at, id
	`, userID)
}

func (r *CirclesRepo) UpsertMember(ctx context.Context, m circles.Member) (circles.Member, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO circle_members (id, circle_id, user_id, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (circle_id, user_id) DO UPDATE SET role = EXCLUDED.role, updated_at = EXCLUDED.updated_at
		RETURNING `+memberColumns,
		m.ID, m.CircleID, m.UserID, string(m.Role), m.CreatedAt, m.UpdatedAt,
	)
	return scanMember(row)
}

func (r *CirclesRepo) UpdateMemberRole(ctx context.Context, memberID string, role circles.Role, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE circle_members SET role = $2, updated_at = $3 WHERE id = $1
	`, memberID, string(role), updatedAt)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *CirclesRepo) DeleteMember(ctx context.Context, memberID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM circle_members WHERE id = $1`, memberID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *CirclesRepo) queryCircles(ctx context.Context, query string, args ...any) ([]circles.Circle, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]circles.Circle, 0)
	for rows.Next() {
		c, err := scanCircle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CirclesRepo) queryMembers(ctx context.Context, query string, args ...any) ([]circles.Member, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]circles.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanCircle(row rowScanner) (circles.Circle, error) {
	var c circles.Circle
	var addr sql.NullString
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &addr, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return circles.Circle{}, ErrNotFound
		}
		return circles.Circle{}, err
	}
	c.Address = ptrString(addr)
	return c, nil
}

func scanMember(row rowScanner) (circles.Member, error) {
	var m circles.Member
	var role string
	if err := row.Scan(&m.ID, &m.CircleID, &m.UserID, &role, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return circles.Member{}, ErrNotFound
		}
		return circles.Member{}, err
	}
	m.Role = circles.Role(role)
	return m, nil
}
