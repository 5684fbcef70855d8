package media_test

import (
	"context"
	"testing"

	"neighborguard/internal/adapters/storage/memory"
	"neighborguard/internal/domain/media"
	"neighborguard/internal/platform/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLookup(t *testing.T) {
	svc := media.NewService(memory.NewVideoRepo())
	ctx := context.Background()
	dur := 42

	v, err := svc.Register(ctx, media.RegisterInput{
		URL:         " https://cdn.example.com/clips/a.mp4 ",
		StoragePath: "clips/a.mp4",
		DurationSec: &dur,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/clips/a.mp4", v.URL)

	got, err := svc.GetByID(ctx, v.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DurationSec)
	assert.Equal(t, 42, *got.DurationSec)

	urls, err := svc.URLsByID(ctx, []string{v.ID, "missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{v.ID: v.URL}, urls)

	_, err = svc.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRegister_Validation(t *testing.T) {
	svc := media.NewService(memory.NewVideoRepo())
	neg := -1

	cases := []media.RegisterInput{
		{URL: "", StoragePath: "x"},
		{URL: "not a url", StoragePath: "x"},
		{URL: "https://cdn.example.com/a.mp4"},
		{URL: "https://cdn.example.com/a.mp4", StoragePath: "x", DurationSec: &neg},
	}
	for _, in := range cases {
		_, err := svc.Register(context.Background(), in)
		assert.ErrorIs(t, err, apperr.ErrBadRequest, "%+v", in)
	}
}
