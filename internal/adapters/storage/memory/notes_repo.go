package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"neighborguard/internal/domain/notes"
)

type noteRepo struct {
	mu   sync.RWMutex
	byID map[string]notes.Note
}

func NewNoteRepo() notes.Repository {
	return &noteRepo{
		byID: make(map[string]notes.Note),
	}
}

func (r *noteRepo) Create(ctx context.Context, n notes.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n.ID == "" {
		return errors.New("note id required")
	}
	if _, exists := r.byID[n.ID]; exists {
		return errors.New("note already exists")
	}
	r.byID[n.ID] = n
	return nil
}

func (r *noteRepo) ListByEvent(ctx context.Context, eventID string) ([]notes.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]notes.Note, 0)
	for _, n := range r.byID {
		if n.EventID == eventID {
			out = append(out, n)
		}
	}

	// Orden cronológico (conversación)
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
