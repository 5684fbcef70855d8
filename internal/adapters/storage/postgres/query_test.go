package postgres

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"neighborguard/internal/domain/events"
	"neighborguard/internal/domain/notifications"
	"neighborguard/internal/platform/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildListByCircleQuery_Defaults(t *testing.T) {
	q, args := buildListByCircleQuery("c1", events.ListFilter{})

	assert.Contains(t, q, "WHERE circle_id = $1")
	assert.NotContains(t, q, "status =")
	assert.NotContains(t, q, "created_at <")
	assert.True(t, strings.HasSuffix(q, "ORDER BY created_at DESC, id DESC LIMIT $2"))
	assert.Equal(t, []any{"c1", events.DefaultListLimit}, args)
}

func TestBuildListByCircleQuery_StatusAndCursor(t *testing.T) {
	cursor := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	q, args := buildListByCircleQuery("c1", events.ListFilter{
		Status: events.StatusResolved,
		Cursor: &cursor,
		Limit:  pagination.Limit(500),
	})

	assert.Contains(t, q, "AND status = $2")
	assert.Contains(t, q, "AND created_at < $3")
	assert.Contains(t, q, "LIMIT $4")
	assert.Equal(t, []any{"c1", "resolved", cursor, 100}, args)
}

func TestBuildListNotificationsQuery(t *testing.T) {
	cursor := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	q, args := buildListNotificationsQuery("u1", notifications.ListFilter{
		UnreadOnly: true,
		Type:       notifications.TypeEventCreated,
		Cursor:     &cursor,
		Limit:      pagination.Limit(5),
	})

	assert.Contains(t, q, "is_read = false")
	assert.Contains(t, q, "AND type = $2")
	assert.Contains(t, q, "AND created_at < $3")
	assert.Contains(t, q, "LIMIT $4")
	assert.Equal(t, []any{"u1", "event_created", cursor, 5}, args)
}

func TestCreateBatchArgs_ArrayPerColumn(t *testing.T) {
	// Bastante más que 65535/6 filas: los parámetros no crecen con el lote.
	const n = 12000
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	items := make([]notifications.Notification, n)
	for i := range items {
		items[i] = notifications.Notification{
			ID:        fmt.Sprintf("n%d", i),
			UserID:    fmt.Sprintf("u%d", i),
			Type:      notifications.TypeEventCreated,
			Payload:   notifications.Payload{CircleID: "c1", EventID: "e1", Title: "New event in Maple"},
			CreatedAt: now,
		}
	}

	args, err := createBatchArgs(items)
	require.NoError(t, err)
	require.Len(t, args, 6)

	ids := args[0].([]string)
	payloads := args[3].([]string)
	require.Len(t, ids, n)
	assert.Equal(t, "n11999", ids[n-1])
	assert.Equal(t, `{"circleId":"c1","eventId":"e1","title":"New event in Maple","message":""}`, payloads[0])
	assert.Len(t, args[4].([]bool), n)
	assert.Equal(t, now, args[5].([]time.Time)[n-1])

	assert.Contains(t, createBatchQuery, "unnest($1::text[]")
	assert.NotContains(t, createBatchQuery, "$7")
}

type stubResult struct {
	n   int64
	err error
}

func (r stubResult) LastInsertId() (int64, error) { return 0, nil }
func (r stubResult) RowsAffected() (int64, error) { return r.n, r.err }

func TestRequireAffected(t *testing.T) {
	assert.NoError(t, requireAffected(stubResult{n: 1}))
	assert.ErrorIs(t, requireAffected(stubResult{}), ErrNotFound)

	boom := errors.New("driver lost count")
	err := requireAffected(stubResult{err: boom})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
}
