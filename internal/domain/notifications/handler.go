package notifications

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"neighborguard/internal/middleware"
	"neighborguard/internal/platform/apperr"
	"neighborguard/internal/platform/pagination"
	"neighborguard/internal/platform/problem"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/notifications", func(nr chi.Router) {
		nr.Get("/", listNotificationsHandler(svc))
		nr.Get("/unread-count", unreadCountHandler(svc))
		nr.Post("/mark-all-read", markAllReadHandler(svc))
		nr.Patch("/{notificationID}/read", markReadHandler(svc))
	})
}

type Response struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Type      Type      `json:"type"`
	Payload   Payload   `json:"payload"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

type listResponse struct {
	Items      []Response `json:"items"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// listNotificationsHandler godoc
// @Summary Listar notificaciones
// @Description Notificaciones del usuario, más recientes primero. cursor = createdAt (RFC3339) del último ítem recibido.
// @Tags notifications
// @Produce json
// @Param unreadOnly query bool false "Solo no leídas"
// @Param type query string false "event_created | event_resolved"
// @Param cursor query string false "RFC3339"
// @Param limit query int false "1-100, por defecto 20"
// @Success 200 {object} listResponse
// @Failure 400 {object} problem.ProblemDetails
// @Router /notifications [get]
func listNotificationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.GetIdentity(r.Context())
		if !ok {
			problem.Error(w, r, apperr.Unauthorized(""))
			return
		}

		q := r.URL.Query()
		cursor, err := pagination.ParseCursor(q.Get("cursor"))
		if err != nil {
			problem.Error(w, r, apperr.BadRequest("cursor must be RFC3339"))
			return
		}
		filter := ListFilter{
			UnreadOnly: parseBool(q.Get("unreadOnly")),
			Type:       Type(strings.TrimSpace(q.Get("type"))),
			Cursor:     cursor,
			Limit:      pagination.ParseLimit(q.Get("limit")),
		}

		items, err := svc.ListForUser(r.Context(), id.UserID, filter)
		if err != nil {
			problem.Error(w, r, err)
			return
		}

		out := listResponse{Items: make([]Response, 0, len(items))}
		for _, n := range items {
			out.Items = append(out.Items, ToResponse(n))
		}
		if len(items) > 0 && len(items) == pagination.ResolveLimit(filter.Limit, DefaultListLimit) {
			out.NextCursor = pagination.EncodeCursor(items[len(items)-1].CreatedAt)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func unreadCountHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.GetIdentity(r.Context())
		if !ok {
			problem.Error(w, r, apperr.Unauthorized(""))
			return
		}

		n, err := svc.UnreadCount(r.Context(), id.UserID)
		if err != nil {
			problem.Error(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"count": n})
	}
}

func markReadHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.GetIdentity(r.Context())
		if !ok {
			problem.Error(w, r, apperr.Unauthorized(""))
			return
		}

		if err := svc.MarkRead(r.Context(), id.UserID, chi.URLParam(r, "notificationID")); err != nil {
			problem.Error(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func markAllReadHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.GetIdentity(r.Context())
		if !ok {
			problem.Error(w, r, apperr.Unauthorized(""))
			return
		}

		n, err := svc.MarkAllRead(r.Context(), id.UserID)
		if err != nil {
			problem.Error(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"updated": n})
	}
}

// ToResponse también lo usa home para no duplicar el formato.
func ToResponse(n Notification) Response {
	return Response{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Payload:   n.Payload,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
