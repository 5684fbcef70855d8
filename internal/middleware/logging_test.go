package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"neighborguard/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoggedRouter(buf *bytes.Buffer) http.Handler {
	resolver := stubResolver{
		"default": {UserID: "owner-0"},
		"u-1":     {UserID: "u-1"},
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(RequestLogging(zerolog.New(buf).Level(zerolog.DebugLevel)))
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Group(func(ar chi.Router) {
		ar.Use(AuthContext(nil))
		ar.Use(Identity(resolver))
		ar.Get("/events/{eventID}", func(w http.ResponseWriter, r *http.Request) {
			zerolog.Ctx(r.Context()).Info().Msg("handler")
			w.WriteHeader(http.StatusNoContent)
		})
	})
	return r
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestRequestLogging_TagsUserAndRoute(t *testing.T) {
	var buf bytes.Buffer
	h := newLoggedRouter(&buf)

	req := httptest.NewRequest(http.MethodGet, "/events/e-42", nil)
	req.Header.Set(HeaderUserID, "u-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	entry := lastEntry(t, &buf)
	assert.Equal(t, "request", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "u-1", entry["user_id"])
	assert.Equal(t, "/events/{eventID}", entry["route"])
	assert.Equal(t, "/events/e-42", entry["path"])
	assert.EqualValues(t, http.StatusNoContent, entry["status"])
	assert.NotEmpty(t, entry["request_id"])

	// El log del handler también lleva el usuario.
	assert.Contains(t, buf.String(), `"user_id":"u-1","message":"handler"`)
}

func TestRequestLogging_Levels(t *testing.T) {
	var buf bytes.Buffer
	h := newLoggedRouter(&buf)

	req := httptest.NewRequest(http.MethodGet, "/events/e-42", nil)
	req.Header.Set(HeaderUserID, "ghost")
	h.ServeHTTP(httptest.NewRecorder(), req)
	entry := lastEntry(t, &buf)
	assert.Equal(t, "warn", entry["level"])
	assert.EqualValues(t, http.StatusNotFound, entry["status"])
	assert.NotContains(t, entry, "user_id")

	buf.Reset()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "debug", lastEntry(t, &buf)["level"])

	buf.Reset()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	entry = lastEntry(t, &buf)
	assert.Equal(t, "unmatched", entry["route"])
}

var _ auth.IdentityResolver = stubResolver{}
