package media

import "context"

type Repository interface {
	Create(ctx context.Context, v VideoAsset) error
	GetByID(ctx context.Context, id string) (VideoAsset, error)
	ListByIDs(ctx context.Context, ids []string) ([]VideoAsset, error)
}
