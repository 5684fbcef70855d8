package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"neighborguard/internal/domain/users"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

const userColumns = `id, name, email, avatar_url, created_at, updated_at`

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, strings.TrimSpace(id))
	return scanUser(row)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, users.NormalizeEmail(email))
	return scanUser(row)
}

func (r *UsersRepo) ListByIDs(ctx context.Context, ids []string) ([]users.User, error) {
	if len(ids) == 0 {
		return []users.User{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1::text[])`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]users.User, 0, len(ids))
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetOrCreate: INSERT ... ON CONFLICT (email) DO NOTHING y luego lee por email,
// así dos requests concurrentes terminan con el mismo usuario.
func (r *UsersRepo) GetOrCreate(ctx context.Context, u users.User) (users.User, error) {
	email := users.NormalizeEmail(u.Email)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO NOTHING
	`,
		u.ID,
		u.Name,
		email,
		nullString(u.AvatarURL),
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		return users.User{}, err
	}
	return r.GetByEmail(ctx, email)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (users.User, error) {
	var u users.User
	var avatar sql.NullString
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &avatar, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.User{}, ErrNotFound
		}
		return users.User{}, err
	}
	u.AvatarURL = ptrString(avatar)
	return u, nil
}
