package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"neighborguard/internal/domain/events"
	"neighborguard/internal/platform/pagination"
)

type EventsRepo struct {
	db *sql.DB
}

func NewEventsRepo(db *sql.DB) *EventsRepo {
	return &EventsRepo{db: db}
}

const eventColumns = `
	id, circle_id,
	title, description, request_text, event_type, camera_zone,
	severity, status,
	resolution, resolution_note,
	occurred_at, video_asset_id, created_by_id,
	created_at, updated_at`

func (r *EventsRepo) Create(ctx context.Context, e events.Event) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (
			id, circle_id,
			title, description, request_text, event_type, camera_zone,
			severity, status,
			resolution, resolution_note,
			occurred_at, video_asset_id, created_by_id,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`,
		e.ID,
		e.CircleID,
		nullString(e.Title),
		nullString(e.Description),
		e.RequestText,
		e.EventType,
		e.CameraZone,
		string(e.Severity),
		string(e.Status),
		e.Resolution,
		nullString(e.ResolutionNote),
		nullTime(e.OccurredAt),
		nullString(e.VideoAssetID),
		nullString(e.CreatedByID),
		e.CreatedAt,
		e.UpdatedAt,
	)
	return err
}

func (r *EventsRepo) GetByID(ctx context.Context, id string) (events.Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return events.Event{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	return scanEvent(row)
}

func (r *EventsRepo) ListByCircle(ctx context.Context, circleID string, filter events.ListFilter) ([]events.Event, error) {
	circleID = strings.TrimSpace(circleID)
	if circleID == "" {
		return []events.Event{}, nil
	}

	query, args := buildListByCircleQuery(circleID, filter)
	return r.queryEvents(ctx, query, args...)
}

// buildListByCircleQuery arma el SELECT paginado; el cursor es exclusivo sobre created_at.
func buildListByCircleQuery(circleID string, filter events.ListFilter) (string, []any) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT ` + eventColumns + ` FROM events WHERE circle_id = $1`)

	args := []any{circleID}
	argN := 2

	if filter.Status != "" {
		sb.WriteString(fmt.Sprintf(" AND status = $%d", argN))
		args = append(args, string(filter.Status))
		argN++
	}

	if filter.Cursor != nil {
		sb.WriteString(fmt.Sprintf(" AND created_at < $%d", argN))
		args = append(args, *filter.Cursor)
		argN++
	}

	limit := pagination.ResolveLimit(filter.Limit, events.DefaultListLimit)

	sb.WriteString(" ORDER BY created_at DESC, id DESC")
	sb.WriteString(fmt.Sprintf(" LIMIT $%d", argN))
	args = append(args, limit)

	return sb.String(), args
}

func (r *EventsRepo) ListOpen(ctx context.Context, circleIDs []string, since *time.Time) ([]events.Event, error) {
	if len(circleIDs) == 0 {
		return []events.Event{}, nil
	}

	query := `SELECT ` + eventColumns + ` FROM events
		WHERE circle_id = ANY($1::text[]) AND status <> 'resolved'`
	args := []any{circleIDs}
	if since != nil {
		query += ` AND created_at >= $2`
		args = append(args, *since)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	return r.queryEvents(ctx, query, args...)
}

func (r *EventsRepo) ListByIDs(ctx context.Context, ids []string) ([]events.Event, error) {
	if len(ids) == 0 {
		return []events.Event{}, nil
	}
	return r.queryEvents(ctx, `SELECT `+eventColumns+` FROM events
		WHERE id = ANY($1::text[])
		ORDER BY created_at DESC, id DESC`, ids)
}

// Save: un solo UPDATE condicionado. Si no afecta filas distinguimos
// inexistente vs ya resuelto; dos resoluciones concurrentes => gana una.
func (r *EventsRepo) Save(ctx context.Context, e events.Event) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE events
		SET status = $2, resolution = $3, resolution_note = $4, updated_at = $5
		WHERE id = $1 AND status <> 'resolved'
	`,
		e.ID,
		string(e.Status),
		e.Resolution,
		nullString(e.ResolutionNote),
		e.UpdatedAt,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	var status string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM events WHERE id = $1`, e.ID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return events.ErrResolvedLocked
}

func (r *EventsRepo) queryEvents(ctx context.Context, query string, args ...any) ([]events.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]events.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEvent(row rowScanner) (events.Event, error) {
	var e events.Event
	var (
		title, description, note, videoID, createdBy sql.NullString
		occurredAt                                   sql.NullTime
		severity, status                             string
	)

	if err := row.Scan(
		&e.ID,
		&e.CircleID,
		&title,
		&description,
		&e.RequestText,
		&e.EventType,
		&e.CameraZone,
		&severity,
		&status,
		&e.Resolution,
		&note,
		&occurredAt,
		&videoID,
		&createdBy,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return events.Event{}, ErrNotFound
		}
		return events.Event{}, err
	}

	e.Title = ptrString(title)
	e.Description = ptrString(description)
	e.ResolutionNote = ptrString(note)
	e.OccurredAt = ptrTime(occurredAt)
	e.VideoAssetID = ptrString(videoID)
	e.CreatedByID = ptrString(createdBy)
	e.Severity = events.Severity(severity)
	e.Status = events.Status(status)

	return e, nil
}
