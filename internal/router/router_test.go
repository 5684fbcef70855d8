package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"neighborguard/internal/ports/auth"
	"neighborguard/internal/router"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(router.NewRouter(router.Options{
		Logger:         zerolog.Nop(),
		DevDefaultUser: true,
	}))
	t.Cleanup(ts.Close)
	return ts
}

type circleJSON struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	IsOwner bool   `json:"isOwner"`
}

type meJSON struct {
	ID      string       `json:"id"`
	Email   string       `json:"email"`
	Circles []circleJSON `json:"circles"`
}

type memberJSON struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

type eventJSON struct {
	ID                  string  `json:"id"`
	CircleID            string  `json:"circleId"`
	CircleName          string  `json:"circleName"`
	Status              string  `json:"status"`
	Severity            string  `json:"severity"`
	ResolutionNote      *string `json:"resolutionNote"`
	CreatedByID         *string `json:"createdById"`
	CreatedByRole       string  `json:"createdByRole"`
	IsMine              bool    `json:"isMine"`
	MyRoleInCircle      string  `json:"myRoleInCircle"`
	CanEditEvent        bool    `json:"canEditEvent"`
	CanChangeResolution bool    `json:"canChangeResolution"`
}

type eventList struct {
	Items      []eventJSON `json:"items"`
	NextCursor string      `json:"nextCursor"`
}

type notificationJSON struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	IsRead  bool   `json:"isRead"`
	Payload struct {
		CircleID string `json:"circleId"`
		EventID  string `json:"eventId"`
		Title    string `json:"title"`
		Message  string `json:"message"`
	} `json:"payload"`
}

type notificationList struct {
	Items []notificationJSON `json:"items"`
}

type problemJSON struct {
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

// circleFixture: owner por defecto + su círculo + un resident, un neighbor y un observer.
type circleFixture struct {
	ownerID, circleID                string
	residentID, neighborID, observer string
}

func setupCircle(t *testing.T, baseURL string) circleFixture {
	t.Helper()

	var me meJSON
	st, body := doReq(t, baseURL, http.MethodGet, "/me", "", nil)
	require.Equal(t, http.StatusOK, st, string(body))
	require.NoError(t, json.Unmarshal(body, &me))
	require.Len(t, me.Circles, 1)
	assert.Equal(t, "owner", me.Circles[0].Role)
	assert.True(t, me.Circles[0].IsOwner)

	f := circleFixture{ownerID: me.ID, circleID: me.Circles[0].ID}
	f.residentID = addMember(t, baseURL, f.ownerID, f.circleID, "rita@example.com", "resident")
	f.neighborID = addMember(t, baseURL, f.ownerID, f.circleID, "ned@example.com", "neighbor")
	f.observer = addMember(t, baseURL, f.ownerID, f.circleID, "otto@example.com", "observer")
	return f
}

func addMember(t *testing.T, baseURL, ownerID, circleID, email, role string) string {
	t.Helper()
	st, body := doReq(t, baseURL, http.MethodPost, "/circles/"+circleID+"/members", ownerID, map[string]any{
		"email": email,
		"role":  role,
	})
	require.Equal(t, http.StatusCreated, st, string(body))

	var m memberJSON
	require.NoError(t, json.Unmarshal(body, &m))
	require.NotEmpty(t, m.UserID)
	assert.Equal(t, role, m.Role)
	return m.UserID
}

func createEvent(t *testing.T, baseURL, userID, circleID string, extra map[string]any) eventJSON {
	t.Helper()
	payload := map[string]any{
		"circleId":    circleID,
		"requestText": "Someone is trying car doors on the street",
		"eventType":   "suspicious_activity",
		"cameraZone":  "front_door",
	}
	for k, v := range extra {
		payload[k] = v
	}
	st, body := doReq(t, baseURL, http.MethodPost, "/events", userID, payload)
	require.Equal(t, http.StatusCreated, st, string(body))

	var e eventJSON
	require.NoError(t, json.Unmarshal(body, &e))
	return e
}

func listNotifications(t *testing.T, baseURL, userID string) []notificationJSON {
	t.Helper()
	st, body := doReq(t, baseURL, http.MethodGet, "/notifications", userID, nil)
	require.Equal(t, http.StatusOK, st, string(body))

	var out notificationList
	require.NoError(t, json.Unmarshal(body, &out))
	return out.Items
}

func TestHTTP_HealthAndMetrics(t *testing.T) {
	ts := newServer(t)

	st, body := doReq(t, ts.URL, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, st)
	assert.Equal(t, "ok", string(body))

	st, body = doReq(t, ts.URL, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, st)
	assert.Contains(t, string(body), "neighborguard_http_requests_total")
}

type rejectingVerifier struct{}

func (rejectingVerifier) Verify(context.Context, string) (auth.Claims, error) {
	return auth.Claims{}, errors.New("token rejected")
}

func TestHTTP_VerifierDisablesDefaultOwner(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{
		Logger:         zerolog.Nop(),
		AuthVerifier:   rejectingVerifier{},
		DevDefaultUser: true,
	}))
	t.Cleanup(ts.Close)

	get := func(authz string) int {
		t.Helper()
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/me", nil)
		require.NoError(t, err)
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer res.Body.Close()
		return res.StatusCode
	}

	// token rechazado => 401, nunca el owner por defecto
	assert.Equal(t, http.StatusUnauthorized, get("Bearer forged"))
	// sin token y con verifier => no hay owner por defecto
	assert.Equal(t, http.StatusUnauthorized, get(""))
}

func TestHTTP_UnknownUser(t *testing.T) {
	ts := newServer(t)

	st, body := doReq(t, ts.URL, http.MethodGet, "/me", "ghost", nil)
	assert.Equal(t, http.StatusNotFound, st, string(body))
}

func TestHTTP_EndToEnd_EventLifecycle(t *testing.T) {
	ts := newServer(t)
	f := setupCircle(t, ts.URL)

	// 1) Resident crea evento => notificación para todos menos él
	ev := createEvent(t, ts.URL, f.residentID, f.circleID, map[string]any{"title": "Car prowler", "severity": "high"})
	assert.Equal(t, "open", ev.Status)
	assert.Equal(t, "high", ev.Severity)
	assert.True(t, ev.IsMine)
	assert.Equal(t, "resident", ev.CreatedByRole)
	assert.True(t, ev.CanChangeResolution)

	for _, uid := range []string{f.ownerID, f.neighborID, f.observer} {
		items := listNotifications(t, ts.URL, uid)
		require.Len(t, items, 1, "user %s", uid)
		assert.Equal(t, "event_created", items[0].Type)
		assert.Equal(t, ev.ID, items[0].Payload.EventID)
		assert.Equal(t, "New event in My Home", items[0].Payload.Title)
	}
	assert.Empty(t, listNotifications(t, ts.URL, f.residentID))

	// 2) Vista del neighbor: sin permisos de cambio
	{
		st, body := doReq(t, ts.URL, http.MethodGet, "/events/"+ev.ID, f.neighborID, nil)
		require.Equal(t, http.StatusOK, st, string(body))
		var v eventJSON
		require.NoError(t, json.Unmarshal(body, &v))
		assert.False(t, v.IsMine)
		assert.Equal(t, "neighbor", v.MyRoleInCircle)
		assert.False(t, v.CanChangeResolution)
	}

	// 3) Neighbor no puede cambiar estado
	{
		st, _ := doReq(t, ts.URL, http.MethodPatch, "/events/"+ev.ID+"/status", f.neighborID, map[string]any{"status": "in_progress"})
		assert.Equal(t, http.StatusForbidden, st)
	}

	// 4) Resolver sin nota => 400
	{
		st, body := doReq(t, ts.URL, http.MethodPatch, "/events/"+ev.ID+"/status", f.ownerID, map[string]any{"status": "resolved"})
		require.Equal(t, http.StatusBadRequest, st)
		var p problemJSON
		require.NoError(t, json.Unmarshal(body, &p))
		assert.Equal(t, http.StatusBadRequest, p.Status)
	}

	// 5) Owner resuelve con nota => event_resolved para los demás (incluido el creador)
	{
		st, body := doReq(t, ts.URL, http.MethodPatch, "/events/"+ev.ID+"/status", f.ownerID, map[string]any{
			"status":     "resolved",
			"resolution": "  Police came by, all good  ",
		})
		require.Equal(t, http.StatusOK, st, string(body))
		var v eventJSON
		require.NoError(t, json.Unmarshal(body, &v))
		assert.Equal(t, "resolved", v.Status)
		require.NotNil(t, v.ResolutionNote)
		assert.Equal(t, "Police came by, all good", *v.ResolutionNote)
		assert.False(t, v.CanEditEvent)
	}

	items := listNotifications(t, ts.URL, f.residentID)
	require.Len(t, items, 1)
	assert.Equal(t, "event_resolved", items[0].Type)
	assert.Contains(t, items[0].Payload.Message, "Police came by, all good")
	assert.Len(t, listNotifications(t, ts.URL, f.ownerID), 1, "owner does not notify themself")

	// 6) Resuelto es terminal
	{
		st, _ := doReq(t, ts.URL, http.MethodPatch, "/events/"+ev.ID+"/status", f.ownerID, map[string]any{"status": "open"})
		assert.Equal(t, http.StatusBadRequest, st)
	}
}

func TestHTTP_ObserverCannotCreate(t *testing.T) {
	ts := newServer(t)
	f := setupCircle(t, ts.URL)

	st, body := doReq(t, ts.URL, http.MethodPost, "/events", f.observer, map[string]any{
		"circleId":    f.circleID,
		"requestText": "x",
		"eventType":   "noise",
		"cameraZone":  "yard",
	})
	assert.Equal(t, http.StatusForbidden, st, string(body))
}

func TestHTTP_NonMemberAccess(t *testing.T) {
	ts := newServer(t)
	f := setupCircle(t, ts.URL)
	ev := createEvent(t, ts.URL, f.ownerID, f.circleID, nil)

	// Un usuario de otro círculo
	var strangerID string
	{
		st, body := doReq(t, ts.URL, http.MethodPost, "/circles", f.ownerID, map[string]any{"name": "Cabin"})
		require.Equal(t, http.StatusCreated, st, string(body))
		var c circleJSON
		require.NoError(t, json.Unmarshal(body, &c))
		strangerID = addMember(t, ts.URL, f.ownerID, c.ID, "stranger@example.com", "neighbor")
	}

	st, _ := doReq(t, ts.URL, http.MethodGet, "/events/"+ev.ID, strangerID, nil)
	assert.Equal(t, http.StatusForbidden, st)

	st, _ = doReq(t, ts.URL, http.MethodGet, "/events?circleId="+f.circleID, strangerID, nil)
	assert.Equal(t, http.StatusForbidden, st)

	st, _ = doReq(t, ts.URL, http.MethodPatch, "/events/"+ev.ID+"/status", strangerID, map[string]any{"status": "in_progress"})
	assert.Equal(t, http.StatusForbidden, st)

	// getByIds omite lo ajeno en vez de fallar
	st, body := doReq(t, ts.URL, http.MethodGet, "/events?ids="+ev.ID+",missing", strangerID, nil)
	require.Equal(t, http.StatusOK, st, string(body))
	var list eventList
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Empty(t, list.Items)

	st, body = doReq(t, ts.URL, http.MethodGet, "/events?ids="+ev.ID+",missing", f.neighborID, nil)
	require.Equal(t, http.StatusOK, st, string(body))
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, ev.ID, list.Items[0].ID)
}

func TestHTTP_EventNotFound(t *testing.T) {
	ts := newServer(t)
	f := setupCircle(t, ts.URL)

	st, _ := doReq(t, ts.URL, http.MethodGet, "/events/nope", f.ownerID, nil)
	assert.Equal(t, http.StatusNotFound, st)

	st, _ = doReq(t, ts.URL, http.MethodPatch, "/events/nope/status", f.ownerID, map[string]any{"status": "in_progress"})
	assert.Equal(t, http.StatusNotFound, st)
}

func TestHTTP_ListByCirclePagination(t *testing.T) {
	ts := newServer(t)
	f := setupCircle(t, ts.URL)

	for i := 0; i < 3; i++ {
		createEvent(t, ts.URL, f.ownerID, f.circleID, nil)
	}

	st, body := doReq(t, ts.URL, http.MethodGet, "/circles/"+f.circleID+"/events?limit=2", f.neighborID, nil)
	require.Equal(t, http.StatusOK, st, string(body))
	var page eventList
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Len(t, page.Items, 2)
	assert.NotEmpty(t, page.NextCursor)

	st, _ = doReq(t, ts.URL, http.MethodGet, "/events?circleId="+f.circleID+"&status=bogus", f.neighborID, nil)
	assert.Equal(t, http.StatusBadRequest, st)

	st, _ = doReq(t, ts.URL, http.MethodGet, "/events?circleId="+f.circleID+"&cursor=yesterday", f.neighborID, nil)
	assert.Equal(t, http.StatusBadRequest, st)
}

func TestHTTP_ListByCircleLimitClamp(t *testing.T) {
	ts := newServer(t)
	f := setupCircle(t, ts.URL)

	for i := 0; i < 101; i++ {
		createEvent(t, ts.URL, f.ownerID, f.circleID, nil)
	}

	list := func(query string) eventList {
		t.Helper()
		st, body := doReq(t, ts.URL, http.MethodGet, "/circles/"+f.circleID+"/events"+query, f.neighborID, nil)
		require.Equal(t, http.StatusOK, st, string(body))
		var page eventList
		require.NoError(t, json.Unmarshal(body, &page))
		return page
	}

	// limit presente pero fuera de rango => se acota, no se usa el default
	assert.Len(t, list("?limit=0").Items, 1)
	assert.Len(t, list("?limit=-5").Items, 1)
	assert.Len(t, list("?limit=200").Items, 100)

	// ausente o no numérico => default 50
	assert.Len(t, list("").Items, 50)
	assert.Len(t, list("?limit=abc").Items, 50)
}

func TestHTTP_NotificationsReadFlow(t *testing.T) {
	ts := newServer(t)
	f := setupCircle(t, ts.URL)
	createEvent(t, ts.URL, f.ownerID, f.circleID, nil)
	createEvent(t, ts.URL, f.ownerID, f.circleID, nil)

	items := listNotifications(t, ts.URL, f.neighborID)
	require.Len(t, items, 2)

	count := func() int {
		st, body := doReq(t, ts.URL, http.MethodGet, "/notifications/unread-count", f.neighborID, nil)
		require.Equal(t, http.StatusOK, st, string(body))
		var out struct {
			Count int `json:"count"`
		}
		require.NoError(t, json.Unmarshal(body, &out))
		return out.Count
	}
	assert.Equal(t, 2, count())

	// Otro usuario no puede marcar mi notificación
	st, _ := doReq(t, ts.URL, http.MethodPatch, "/notifications/"+items[0].ID+"/read", f.residentID, nil)
	assert.Equal(t, http.StatusNotFound, st)

	st, _ = doReq(t, ts.URL, http.MethodPatch, "/notifications/"+items[0].ID+"/read", f.neighborID, nil)
	assert.Equal(t, http.StatusOK, st)
	assert.Equal(t, 1, count())

	st, body := doReq(t, ts.URL, http.MethodPost, "/notifications/mark-all-read", f.neighborID, nil)
	require.Equal(t, http.StatusOK, st)
	assert.JSONEq(t, `{"updated":1}`, string(body))
	assert.Equal(t, 0, count())
}

func TestHTTP_NotesConversation(t *testing.T) {
	ts := newServer(t)
	f := setupCircle(t, ts.URL)
	ev := createEvent(t, ts.URL, f.residentID, f.circleID, nil)

	st, body := doReq(t, ts.URL, http.MethodPost, "/events/"+ev.ID+"/notes", f.observer, map[string]any{"body": "I saw it too"})
	require.Equal(t, http.StatusCreated, st, string(body))

	st, _ = doReq(t, ts.URL, http.MethodPost, "/events/"+ev.ID+"/notes", f.observer, map[string]any{"body": "  "})
	assert.Equal(t, http.StatusBadRequest, st)

	st, body = doReq(t, ts.URL, http.MethodGet, "/events/"+ev.ID+"/notes", f.residentID, nil)
	require.Equal(t, http.StatusOK, st, string(body))
	var out []struct {
		Body       string `json:"body"`
		AuthorName string `json:"authorName"`
		IsMine     bool   `json:"isMine"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out, 1)
	assert.Equal(t, "I saw it too", out[0].Body)
	assert.Equal(t, "otto", out[0].AuthorName)
	assert.False(t, out[0].IsMine)
}

func TestHTTP_CommentsAliasSharesNotes(t *testing.T) {
	ts := newServer(t)
	f := setupCircle(t, ts.URL)
	ev := createEvent(t, ts.URL, f.residentID, f.circleID, nil)

	st, body := doReq(t, ts.URL, http.MethodPost, "/events/"+ev.ID+"/comments", f.neighborID, map[string]any{"body": "Porch light is out"})
	require.Equal(t, http.StatusCreated, st, string(body))
	st, body = doReq(t, ts.URL, http.MethodPost, "/events/"+ev.ID+"/notes", f.residentID, map[string]any{"body": "Replaced it"})
	require.Equal(t, http.StatusCreated, st, string(body))

	for _, path := range []string{"/notes", "/comments"} {
		st, body = doReq(t, ts.URL, http.MethodGet, "/events/"+ev.ID+path, f.ownerID, nil)
		require.Equal(t, http.StatusOK, st, string(body))
		var out []struct {
			Body string `json:"body"`
		}
		require.NoError(t, json.Unmarshal(body, &out))
		require.Len(t, out, 2, path)
		assert.ElementsMatch(t, []string{"Porch light is out", "Replaced it"}, []string{out[0].Body, out[1].Body})
	}

	// Misma verificación de membresía en el alias.
	st, _ = doReq(t, ts.URL, http.MethodGet, "/events/nope/comments", f.ownerID, nil)
	assert.Equal(t, http.StatusNotFound, st)
}

func TestHTTP_HomeTasks(t *testing.T) {
	ts := newServer(t)
	f := setupCircle(t, ts.URL)
	ev := createEvent(t, ts.URL, f.residentID, f.circleID, nil)

	st, body := doReq(t, ts.URL, http.MethodGet, "/home/tasks", f.neighborID, nil)
	require.Equal(t, http.StatusOK, st, string(body))

	var out struct {
		MyCircles             []circleJSON       `json:"myCircles"`
		PendingEvents         []eventJSON        `json:"pendingEvents"`
		InboxNotifications    []notificationJSON `json:"inboxNotifications"`
		InboxNewEvents        []eventJSON        `json:"inboxNewEvents"`
		NewEventsFromFallback bool               `json:"newEventsFromFallback"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Len(t, out.MyCircles, 1)
	require.Len(t, out.PendingEvents, 1)
	assert.Equal(t, ev.ID, out.PendingEvents[0].ID)
	assert.Len(t, out.InboxNotifications, 1)
	require.Len(t, out.InboxNewEvents, 1)
	assert.Equal(t, ev.ID, out.InboxNewEvents[0].ID)
	assert.False(t, out.NewEventsFromFallback)
}

func TestHTTP_ConcurrentResolveOneWins(t *testing.T) {
	ts := newServer(t)
	f := setupCircle(t, ts.URL)
	ev := createEvent(t, ts.URL, f.residentID, f.circleID, nil)

	const n = 8
	statuses := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			statuses[i], _ = doReq(t, ts.URL, http.MethodPatch, "/events/"+ev.ID+"/status", f.ownerID, map[string]any{
				"status":     "resolved",
				"resolution": "done",
			})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, st := range statuses {
		if st == http.StatusOK {
			ok++
			continue
		}
		assert.Equal(t, http.StatusBadRequest, st)
	}
	assert.Equal(t, 1, ok)
	assert.Len(t, listNotifications(t, ts.URL, f.neighborID), 2)
}

func doReq(t *testing.T, baseURL, method, path, userID string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Errorf("do request: %v", err)
		return 0, nil
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
