package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"neighborguard/internal/domain/notifications"
	"neighborguard/internal/platform/pagination"
)

type NotificationsRepo struct {
	db *sql.DB
}

func NewNotificationsRepo(db *sql.DB) *NotificationsRepo {
	return &NotificationsRepo{db: db}
}

// CreateBatch inserta todo el lote en un único INSERT ... SELECT FROM unnest:
// o entran todas o ninguna, con 6 parámetros sin importar el tamaño del lote.
func (r *NotificationsRepo) CreateBatch(ctx context.Context, items []notifications.Notification) error {
	if len(items) == 0 {
		return nil
	}

	args, err := createBatchArgs(items)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, createBatchQuery, args...)
	return err
}

const createBatchQuery = `INSERT INTO notifications (id, user_id, type, payload, is_read, created_at)
SELECT u.id, u.user_id, u.type, u.payload::jsonb, u.is_read, u.created_at
FROM unnest($1::text[], $2::text[], $3::text[], $4::text[], $5::bool[], $6::timestamptz[])
	AS u(id, user_id, type, payload, is_read, created_at)`

// createBatchArgs arma un array por columna.
func createBatchArgs(items []notifications.Notification) ([]any, error) {
	var (
		ids      = make([]string, len(items))
		userIDs  = make([]string, len(items))
		types    = make([]string, len(items))
		payloads = make([]string, len(items))
		isRead   = make([]bool, len(items))
		created  = make([]time.Time, len(items))
	)
	for i, n := range items {
		payload, err := json.Marshal(n.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		ids[i] = n.ID
		userIDs[i] = n.UserID
		types[i] = string(n.Type)
		payloads[i] = string(payload)
		isRead[i] = n.IsRead
		created[i] = n.CreatedAt
	}
	return []any{ids, userIDs, types, payloads, isRead, created}, nil
}

func (r *NotificationsRepo) ListForUser(ctx context.Context, userID string, filter notifications.ListFilter) ([]notifications.Notification, error) {
	query, args := buildListNotificationsQuery(userID, filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]notifications.Notification, 0)
	for rows.Next() {
		var n notifications.Notification
		var typ string
		var payload []byte
		if err := rows.Scan(&n.ID, &n.UserID, &typ, &payload, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Type = notifications.Type(typ)
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &n.Payload); err != nil {
				return nil, fmt.Errorf("decode payload %s: %w", n.ID, err)
			}
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func buildListNotificationsQuery(userID string, filter notifications.ListFilter) (string, []any) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT id, user_id, type, payload, is_read, created_at FROM notifications WHERE user_id = $1`)

	args := []any{userID}
	argN := 2

	if filter.UnreadOnly {
		sb.WriteString(" AND is_read = false")
	}
	if filter.Type != "" {
		sb.WriteString(fmt.Sprintf(" AND type = $%d", argN))
		args = append(args, string(filter.Type))
		argN++
	}
	if filter.Cursor != nil {
		sb.WriteString(fmt.Sprintf(" AND created_at < $%d", argN))
		args = append(args, *filter.Cursor)
		argN++
	}

	limit := pagination.ResolveLimit(filter.Limit, notifications.DefaultListLimit)
	sb.WriteString(" ORDER BY created_at DESC, id DESC")
	sb.WriteString(fmt.Sprintf(" LIMIT $%d", argN))
	args = append(args, limit)

	return sb.String(), args
}

func (r *NotificationsRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT count(*) FROM notifications WHERE user_id = $1 AND is_read = false
	`, userID).Scan(&n)
	return n, err
}

func (r *NotificationsRepo) MarkRead(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *NotificationsRepo) MarkAllRead(ctx context.Context, userID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = true WHERE user_id = $1 AND is_read = false
	`, userID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
