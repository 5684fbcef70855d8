package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"neighborguard/internal/platform/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Service struct {
	repo     Repository
	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		validate: validator.New(),
		now:      time.Now,
	}
}

type RegisterInput struct {
	URL         string `validate:"required,url"`
	StoragePath string `validate:"required,max=1024"`
	DurationSec *int   `validate:"omitempty,gte=0"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (VideoAsset, error) {
	in.URL = strings.TrimSpace(in.URL)
	in.StoragePath = strings.TrimSpace(in.StoragePath)
	if err := s.validate.Struct(in); err != nil {
		return VideoAsset{}, apperr.BadRequest("url (absolute) and storagePath are required; durationSec must be >= 0")
	}

	now := s.now()
	v := VideoAsset{
		ID:          uuid.NewString(),
		URL:         in.URL,
		StoragePath: in.StoragePath,
		DurationSec: in.DurationSec,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return VideoAsset{}, fmt.Errorf("create video asset: %w", err)
	}
	return v, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (VideoAsset, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return VideoAsset{}, apperr.NotFound("video asset not found")
	}
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return VideoAsset{}, apperr.NotFound("video asset not found")
		}
		return VideoAsset{}, fmt.Errorf("get video asset: %w", err)
	}
	return v, nil
}

// URLsByID: id => url, ids desconocidos se omiten.
func (s *Service) URLsByID(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	list, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list video assets: %w", err)
	}
	for _, v := range list {
		out[v.ID] = v.URL
	}
	return out, nil
}
