package users

import "context"

type Repository interface {
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	ListByIDs(ctx context.Context, ids []string) ([]User, error)

	// GetOrCreate inserta u si no existe un usuario con el mismo email y
	// devuelve el registro persistido (el existente o el nuevo).
	GetOrCreate(ctx context.Context, u User) (User, error)
}
