package postgres

import (
	"context"
	"database/sql"

	"neighborguard/internal/domain/notes"
)

type NotesRepo struct {
	db *sql.DB
}

func NewNotesRepo(db *sql.DB) *NotesRepo {
	return &NotesRepo{db: db}
}

func (r *NotesRepo) Create(ctx context.Context, n notes.Note) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO event_notes (id, event_id, circle_id, user_id, body, type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, n.ID, n.EventID, n.CircleID, n.UserID, n.Body, string(n.Type), n.CreatedAt, n.UpdatedAt)
	return err
}

func (r *NotesRepo) ListByEvent(ctx context.Context, eventID string) ([]notes.Note, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_id, circle_id, user_id, body, type, created_at, updated_at
		FROM event_notes
		WHERE event_id = $1
		ORDER BY created_at ASC, id ASC
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]notes.Note, 0)
	for rows.Next() {
		var n notes.Note
		var typ string
		if err := rows.Scan(&n.ID, &n.EventID, &n.CircleID, &n.UserID, &n.Body, &typ, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		n.Type = notes.Type(typ)
		out = append(out, n)
	}
	return out, rows.Err()
}
