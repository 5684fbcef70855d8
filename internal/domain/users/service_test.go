package users_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"neighborguard/internal/adapters/storage/memory"
	"neighborguard/internal/domain/users"
	"neighborguard/internal/platform/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProvisioner struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (p *recordingProvisioner) EnsureDefaultCircle(ctx context.Context, ownerID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, ownerID)
	return p.err
}

func TestResolveCurrentUser_DefaultOwner(t *testing.T) {
	svc := users.NewService(memory.NewUserRepo(), users.Options{DefaultUser: true})
	prov := &recordingProvisioner{}
	svc.SetProvisioner(prov)
	ctx := context.Background()

	u1, err := svc.ResolveCurrentUser(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "owner@neighborguard.local", u1.Email)

	u2, err := svc.ResolveCurrentUser(ctx, "  ")
	require.NoError(t, err)
	assert.Equal(t, u1.ID, u2.ID, "same default owner every time")
	assert.Equal(t, []string{u1.ID, u1.ID}, prov.calls)

	id, err := svc.ResolveIdentity(ctx, u1.ID)
	require.NoError(t, err)
	assert.Equal(t, u1.ID, id.UserID)
	assert.Equal(t, u1.Email, id.Email)
}

func TestResolveCurrentUser_ProvisionerError(t *testing.T) {
	svc := users.NewService(memory.NewUserRepo(), users.Options{DefaultUser: true})
	svc.SetProvisioner(&recordingProvisioner{err: errors.New("boom")})

	_, err := svc.ResolveCurrentUser(context.Background(), "")
	assert.Error(t, err)
}

func TestResolveCurrentUser_NoDefault(t *testing.T) {
	svc := users.NewService(memory.NewUserRepo(), users.Options{})

	_, err := svc.ResolveCurrentUser(context.Background(), "")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = svc.ResolveIdentity(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetOrCreateByEmail(t *testing.T) {
	svc := users.NewService(memory.NewUserRepo(), users.Options{})
	ctx := context.Background()

	a, err := svc.GetOrCreateByEmail(ctx, " Maria@Example.COM ", "")
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", a.Email)
	assert.Equal(t, "maria", a.Name)

	b, err := svc.GetOrCreateByEmail(ctx, "maria@example.com", "Maria Lopez")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, "maria", b.Name, "existing user is not renamed")

	_, err = svc.GetOrCreateByEmail(ctx, "nope", "")
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestGetOrCreateByEmail_Concurrent(t *testing.T) {
	svc := users.NewService(memory.NewUserRepo(), users.Options{})

	const n = 10
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := svc.GetOrCreateByEmail(context.Background(), "race@example.com", "")
			if assert.NoError(t, err) {
				ids[i] = u.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestListByIDs(t *testing.T) {
	svc := users.NewService(memory.NewUserRepo(), users.Options{})
	ctx := context.Background()

	a, err := svc.GetOrCreateByEmail(ctx, "a@example.com", "A")
	require.NoError(t, err)

	byID, err := svc.ListByIDs(ctx, []string{a.ID, a.ID, "missing", ""})
	require.NoError(t, err)
	assert.Len(t, byID, 1)
	assert.Equal(t, "A", byID[a.ID].Name)

	empty, err := svc.ListByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ana", users.User{Name: "Ana", Email: "a@example.com"}.DisplayName())
	assert.Equal(t, "a@example.com", users.User{Email: "a@example.com"}.DisplayName())
	assert.Equal(t, "Someone in your circle", users.User{}.DisplayName())
}
