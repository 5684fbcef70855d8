package events

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
	r.Route("/events", func(er chi.Router) {
		er.Get("/", listEventsHandler(svc))
		er.Post("/", createEventHandler(svc))
		er.Get("/{eventID}", getEventHandler(svc))

		// Cambio de estado / nota de resolución (owner del círculo o creador)
		er.Patch("/{eventID}/status", updateStatusHandler(svc))
	})

	r.Route("/circles/{circleID}/events", func(cr chi.Router) {
		cr.Get("/", listCircleEventsHandler(svc))
	})
}

// createEventRequest es el cuerpo para reportar un evento en un círculo.
type createEventRequest struct {
	CircleID     string `json:"circleId"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	RequestText  string `json:"requestText"`
	EventType    string `json:"eventType"`
	CameraZone   string `json:"cameraZone"`
	Severity     string `json:"severity" enums:"low,medium,high,critical"`
	OccurredAt   string `json:"occurredAt"` // RFC3339, opcional
	VideoAssetID string `json:"videoAssetId"`
}

type updateStatusRequest struct {
	Status     *string `json:"status" enums:"open,in_progress,resolved"`
	Resolution *string `json:"resolution"`
}

type listEventsResponse struct {
	Items      []View `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// createEventHandler godoc
// @Summary Crear evento
// @Description Reporta un evento en un círculo. Requiere membresía; los observers no pueden crear. Notifica al resto de los miembros. Autenticación: `X-User-ID` (dev) o `Authorization: Bearer <token>`.
// @Tags events
// @Accept json
// @Produce json
// @Param X-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body createEventRequest true "Datos del evento; occurredAt en RFC3339"
// @Success 201 {object} View
// @Failure 400 {object} problem.ProblemDetails
// @Failure 403 {object} problem.ProblemDetails "no miembro / observer"
// @Failure 404 {object} problem.ProblemDetails "circle o video no encontrado"
// @Router /events [post]
func createEventHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.GetIdentity(r.Context())
		if !ok {
			problem.Error(w, r, apperr.Unauthorized(""))
			return
		}

		var req createEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			problem.Error(w, r, apperr.BadRequest("invalid json"))
			return
		}

		var occurredAt *time.Time
		if v := strings.TrimSpace(req.OccurredAt); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				problem.Error(w, r, apperr.BadRequest("occurredAt must be RFC3339"))
				return
			}
			occurredAt = &t
		}

		v, err := svc.Create(r.Context(), id.UserID, CreateInput{
			CircleID:     req.CircleID,
			Title:        req.Title,
			Description:  req.Description,
			RequestText:  req.RequestText,
			EventType:    req.EventType,
			CameraZone:   req.CameraZone,
			Severity:     req.Severity,
			OccurredAt:   occurredAt,
			VideoAssetID: req.VideoAssetID,
		})
		if err != nil {
			problem.Error(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, v)
	}
}

// listEventsHandler godoc
// @Summary Listar eventos
// @Description Con `circleId`: eventos del círculo (paginados). Con `ids` (CSV): esos eventos, omitiendo los de círculos ajenos. Sin ninguno: eventos abiertos de todos mis círculos.
// @Tags events
// @Produce json
// @Param circleId query string false "ID del círculo"
// @Param ids query string false "Lista CSV de IDs de evento"
// @Param status query string false "open | in_progress | resolved (solo con circleId)"
// @Param cursor query string false "createdAt RFC3339 del último ítem (solo con circleId)"
// @Param limit query int false "1-100, por defecto 50 (solo con circleId)"
// @Success 200 {object} listEventsResponse
// @Failure 400 {object} problem.ProblemDetails
// @Failure 403 {object} problem.ProblemDetails
// @Failure 404 {object} problem.ProblemDetails
// @Router /events [get]
func listEventsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.GetIdentity(r.Context())
		if !ok {
			problem.Error(w, r, apperr.Unauthorized(""))
			return
		}

		q := r.URL.Query()
		if circleID := strings.TrimSpace(q.Get("circleId")); circleID != "" {
			listByCircle(w, r, svc, id.UserID, circleID)
			return
		}

		var (
			items []View
			err   error
		)
		if raw := strings.TrimSpace(q.Get("ids")); raw != "" {
			items, err = svc.GetByIDs(r.Context(), id.UserID, strings.Split(raw, ","))
		} else {
			items, err = svc.ListOpenForUser(r.Context(), id.UserID)
		}
		if err != nil {
			problem.Error(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, listEventsResponse{Items: items})
	}
}

func listCircleEventsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.GetIdentity(r.Context())
		if !ok {
			problem.Error(w, r, apperr.Unauthorized(""))
			return
		}
		listByCircle(w, r, svc, id.UserID, chi.URLParam(r, "circleID"))
	}
}

func listByCircle(w http.ResponseWriter, r *http.Request, svc *Service, userID, circleID string) {
	filter, err := parseListFilter(r)
	if err != nil {
		problem.Error(w, r, err)
		return
	}

	items, err := svc.ListByCircle(r.Context(), userID, circleID, filter)
	if err != nil {
		problem.Error(w, r, err)
		return
	}

	out := listEventsResponse{Items: items}
	if len(items) > 0 && len(items) == pagination.ResolveLimit(filter.Limit, DefaultListLimit) {
		out.NextCursor = pagination.EncodeCursor(items[len(items)-1].CreatedAt)
	}
	writeJSON(w, http.StatusOK, out)
}

func getEventHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.GetIdentity(r.Context())
		if !ok {
			problem.Error(w, r, apperr.Unauthorized(""))
			return
		}

		v, err := svc.Get(r.Context(), id.UserID, chi.URLParam(r, "eventID"))
		if err != nil {
			problem.Error(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// updateStatusHandler godoc
// @Summary Cambiar estado de un evento
// @Description Solo el owner del círculo o el creador. Un evento resolved no se puede modificar. Para resolver hace falta `resolution` no vacía.
// @Tags events
// @Accept json
// @Produce json
// @Param eventID path string true "ID del evento"
// @Param payload body updateStatusRequest true "Nuevo estado y/o nota de resolución"
// @Success 200 {object} View
// @Failure 400 {object} problem.ProblemDetails "resolved / estado inválido / falta nota"
// @Failure 403 {object} problem.ProblemDetails
// @Failure 404 {object} problem.ProblemDetails
// @Router /events/{eventID}/status [patch]
func updateStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.GetIdentity(r.Context())
		if !ok {
			problem.Error(w, r, apperr.Unauthorized(""))
			return
		}

		var req updateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			problem.Error(w, r, apperr.BadRequest("invalid json"))
			return
		}

		v, err := svc.UpdateStatus(r.Context(), id.UserID, chi.URLParam(r, "eventID"), UpdateStatusInput{
			Status:     req.Status,
			Resolution: req.Resolution,
		})
		if err != nil {
			problem.Error(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()

	filter := ListFilter{
		Limit: pagination.ParseLimit(q.Get("limit")),
	}

	if v := strings.TrimSpace(q.Get("status")); v != "" {
		st, ok := ParseStatus(v)
		if !ok {
			return ListFilter{}, apperr.BadRequest("status must be one of open, in_progress, resolved")
		}
		filter.Status = st
	}

	cursor, err := pagination.ParseCursor(q.Get("cursor"))
	if err != nil {
		return ListFilter{}, apperr.BadRequest("cursor must be RFC3339")
	}
	filter.Cursor = cursor

	return filter, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
