package notes_test

import (
	"context"
	"testing"
	"time"

	"neighborguard/internal/adapters/storage/memory"
	"neighborguard/internal/domain/circles"
	"neighborguard/internal/domain/events"
	"neighborguard/internal/domain/media"
	"neighborguard/internal/domain/notes"
	"neighborguard/internal/domain/users"
	"neighborguard/internal/platform/apperr"
	"neighborguard/internal/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	notes    *notes.Service
	eventID  string
	owner    string
	observer string
	outsider string
}

func newEnv(t *testing.T) env {
	t.Helper()
	ctx := context.Background()

	usersSvc := users.NewService(memory.NewUserRepo(), users.Options{})
	circleRepo := memory.NewCircleRepo()
	dir := circles.NewDirectory(circleRepo)
	circlesSvc := circles.NewService(circleRepo, dir, usersSvc)
	evSvc := events.NewService(memory.NewEventRepo(), events.Deps{
		Members: dir,
		Videos:  media.NewService(memory.NewVideoRepo()),
		Users:   usersSvc,
		Logger:  logger.Nop(),
	})

	owner, err := usersSvc.GetOrCreateByEmail(ctx, "owner@example.com", "Olivia")
	require.NoError(t, err)
	c, err := circlesSvc.Create(ctx, owner.ID, circles.CreateInput{Name: "Birch Lane"})
	require.NoError(t, err)
	obs, err := circlesSvc.AddMember(ctx, c.ID, owner.ID, circles.AddMemberInput{Email: "obs@example.com", Role: "observer"})
	require.NoError(t, err)

	other, err := circlesSvc.Create(ctx, owner.ID, circles.CreateInput{Name: "Elsewhere"})
	require.NoError(t, err)
	out, err := circlesSvc.AddMember(ctx, other.ID, owner.ID, circles.AddMemberInput{Email: "out@example.com"})
	require.NoError(t, err)

	ev, err := evSvc.Create(ctx, owner.ID, events.CreateInput{
		CircleID: c.ID, RequestText: "Gate left open", EventType: "property", CameraZone: "gate",
	})
	require.NoError(t, err)

	return env{
		notes:    notes.NewService(memory.NewNoteRepo(), evSvc, usersSvc),
		eventID:  ev.ID,
		owner:    owner.ID,
		observer: obs.UserID,
		outsider: out.UserID,
	}
}

func TestCreateAndList(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first, err := e.notes.Create(ctx, e.observer, e.eventID, notes.CreateInput{Body: "  I closed it  "})
	require.NoError(t, err)
	assert.Equal(t, "I closed it", first.Body)
	assert.Equal(t, notes.TypeComment, first.Type)
	assert.Equal(t, "obs", first.AuthorName)
	assert.True(t, first.IsMine)

	time.Sleep(time.Millisecond)
	_, err = e.notes.Create(ctx, e.owner, e.eventID, notes.CreateInput{Body: "Thanks!", Type: "SYSTEM"})
	require.NoError(t, err)

	list, err := e.notes.ListForEvent(ctx, e.owner, e.eventID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "I closed it", list[0].Body, "oldest first")
	assert.False(t, list[0].IsMine)
	assert.Equal(t, "Olivia", list[1].AuthorName)
	assert.Equal(t, notes.TypeSystem, list[1].Type)
}

func TestCreate_Errors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.notes.Create(ctx, e.owner, e.eventID, notes.CreateInput{Body: "   "})
	assert.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = e.notes.Create(ctx, e.owner, e.eventID, notes.CreateInput{Body: "x", Type: "rant"})
	assert.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = e.notes.Create(ctx, e.outsider, e.eventID, notes.CreateInput{Body: "hi"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = e.notes.Create(ctx, e.owner, "missing", notes.CreateInput{Body: "hi"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = e.notes.ListForEvent(ctx, e.outsider, e.eventID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}
