package memory

import (
	"context"
	"errors"
	"sync"

	"neighborguard/internal/domain/media"
)

type videoRepo struct {
	mu   sync.RWMutex
	byID map[string]media.VideoAsset
}

func NewVideoRepo() media.Repository {
	return &videoRepo{
		byID: make(map[string]media.VideoAsset),
	}
}

func (r *videoRepo) Create(ctx context.Context, v media.VideoAsset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v.ID == "" {
		return errors.New("video id required")
	}
	if _, exists := r.byID[v.ID]; exists {
		return errors.New("video already exists")
	}
	r.byID[v.ID] = v
	return nil
}

func (r *videoRepo) GetByID(ctx context.Context, id string) (media.VideoAsset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.byID[id]
	if !ok {
		return media.VideoAsset{}, ErrNotFound
	}
	return v, nil
}

func (r *videoRepo) ListByIDs(ctx context.Context, ids []string) ([]media.VideoAsset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]media.VideoAsset, 0, len(ids))
	for _, id := range ids {
		if v, ok := r.byID[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}
