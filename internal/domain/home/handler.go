package home

import (
	"encoding/json"
	"net/http"
	"time"

	"neighborguard/internal/domain/circles"
	"neighborguard/internal/domain/events"
	"neighborguard/internal/domain/notifications"
	"neighborguard/internal/middleware"
	"neighborguard/internal/platform/apperr"
	"neighborguard/internal/platform/problem"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/me", meHandler(svc))
	r.Get("/home/tasks", tasksHandler(svc))
}

type circleSummary struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Address   *string      `json:"address"`
	Role      circles.Role `json:"role"`
	IsOwner   bool         `json:"isOwner"`
	CreatedAt time.Time    `json:"createdAt"`
}

type meResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	AvatarURL *string         `json:"avatarUrl"`
	Circles   []circleSummary `json:"circles"`
}

type tasksResponse struct {
	MyCircles             []circleSummary          `json:"myCircles"`
	PendingEvents         []events.View            `json:"pendingEvents"`
	InboxNotifications    []notifications.Response `json:"inboxNotifications"`
	InboxNewEvents        []events.View            `json:"inboxNewEvents"`
	NewEventsFromFallback bool                     `json:"newEventsFromFallback"`
}

// meHandler godoc
// @Summary Perfil del usuario actual
// @Description Usuario resuelto (X-User-ID o owner por defecto en dev) y sus círculos.
// @Tags home
// @Produce json
// @Success 200 {object} meResponse
// @Failure 404 {object} problem.ProblemDetails
// @Router /me [get]
func meHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.GetIdentity(r.Context())
		if !ok {
			problem.Error(w, r, apperr.Unauthorized(""))
			return
		}

		me, err := svc.Me(r.Context(), id.UserID)
		if err != nil {
			problem.Error(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, meResponse{
			ID:        me.User.ID,
			Name:      me.User.Name,
			Email:     me.User.Email,
			AvatarURL: me.User.AvatarURL,
			Circles:   toSummaries(me.Circles),
		})
	}
}

// tasksHandler godoc
// @Summary Tareas del home
// @Description Círculos, eventos pendientes, notificaciones sin leer y eventos nuevos del inbox.
// @Tags home
// @Produce json
// @Success 200 {object} tasksResponse
// @Router /home/tasks [get]
func tasksHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.GetIdentity(r.Context())
		if !ok {
			problem.Error(w, r, apperr.Unauthorized(""))
			return
		}

		t, err := svc.Tasks(r.Context(), id.UserID)
		if err != nil {
			problem.Error(w, r, err)
			return
		}

		inbox := make([]notifications.Response, 0, len(t.InboxNotifications))
		for _, n := range t.InboxNotifications {
			inbox = append(inbox, notifications.ToResponse(n))
		}

		writeJSON(w, http.StatusOK, tasksResponse{
			MyCircles:             toSummaries(t.MyCircles),
			PendingEvents:         t.PendingEvents,
			InboxNotifications:    inbox,
			InboxNewEvents:        t.InboxNewEvents,
			NewEventsFromFallback: t.NewEventsFromFallback,
		})
	}
}

func toSummaries(list []circles.Summary) []circleSummary {
	out := make([]circleSummary, 0, len(list))
	for _, s := range list {
		out = append(out, circleSummary{
			ID:        s.Circle.ID,
			Name:      s.Circle.Name,
			Address:   s.Circle.Address,
			Role:      s.Role,
			IsOwner:   s.Role == circles.RoleOwner,
			CreatedAt: s.Circle.CreatedAt,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
