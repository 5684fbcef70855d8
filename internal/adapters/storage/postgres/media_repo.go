package postgres

import (
	"context"
	"database/sql"
	"errors"

	"neighborguard/internal/domain/media"
)

type MediaRepo struct {
	db *sql.DB
}

func NewMediaRepo(db *sql.DB) *MediaRepo {
	return &MediaRepo{db: db}
}

const videoColumns = `id, url, storage_path, duration_sec, created_at, updated_at`

func (r *MediaRepo) Create(ctx context.Context, v media.VideoAsset) error {
	var dur sql.NullInt64
	if v.DurationSec != nil {
		dur = sql.NullInt64{Int64: int64(*v.DurationSec), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO video_assets (id, url, storage_path, duration_sec, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, v.ID, v.URL, v.StoragePath, dur, v.CreatedAt, v.UpdatedAt)
	return err
}

func (r *MediaRepo) GetByID(ctx context.Context, id string) (media.VideoAsset, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM video_assets WHERE id = $1`, id)
	return scanVideo(row)
}

func (r *MediaRepo) ListByIDs(ctx context.Context, ids []string) ([]media.VideoAsset, error) {
	if len(ids) == 0 {
		return []media.VideoAsset{}, nil
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+videoColumns+` FROM video_assets WHERE id = ANY($1::text[])`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]media.VideoAsset, 0, len(ids))
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanVideo(row rowScanner) (media.VideoAsset, error) {
	var v media.VideoAsset
	var dur sql.NullInt64
	if err := row.Scan(&v.ID, &v.URL, &v.StoragePath, &dur, &v.CreatedAt, &v.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return media.VideoAsset{}, ErrNotFound
		}
		return media.VideoAsset{}, err
	}
	if dur.Valid {
		d := int(dur.Int64)
		v.DurationSec = &d
	}
	return v, nil
}
