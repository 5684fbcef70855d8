package notes

import (
	"encoding/json"
	"net/http"

	"neighborguard/internal/middleware"
	"neighborguard/internal/platform/apperr"
	"neighborguard/internal/platform/problem"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes: /comments es alias de /notes sobre las mismas filas.
func RegisterRoutes(r chi.Router, svc *Service) {
	for _, path := range []string{"/events/{eventID}/notes", "/events/{eventID}/comments"} {
		r.Route(path, func(nr chi.Router) {
			nr.Get("/", listNotesHandler(svc))
			nr.Post("/", createNoteHandler(svc))
		})
	}
}

type createNoteRequest struct {
	Body string `json:"body"`
	Type string `json:"type" enums:"comment,system"`
}

func listNotesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.GetIdentity(r.Context())
		if !ok {
			problem.Error(w, r, apperr.Unauthorized(""))
			return
		}

		list, err := svc.ListForEvent(r.Context(), id.UserID, chi.URLParam(r, "eventID"))
		if err != nil {
			problem.Error(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// createNoteHandler godoc
// @Summary Comentar un evento
// @Description Agrega una nota a la conversación del evento. Requiere membresía en el círculo.
// @Tags notes
// @Accept json
// @Produce json
// @Param eventID path string true "ID del evento"
// @Param payload body createNoteRequest true "Texto de la nota"
// @Success 201 {object} View
// @Failure 400 {object} problem.ProblemDetails
// @Failure 403 {object} problem.ProblemDetails
// @Failure 404 {object} problem.ProblemDetails
// @Router /events/{eventID}/notes [post]
func createNoteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.GetIdentity(r.Context())
		if !ok {
			problem.Error(w, r, apperr.Unauthorized(""))
			return
		}

		var req createNoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			problem.Error(w, r, apperr.BadRequest("invalid json"))
			return
		}

		v, err := svc.Create(r.Context(), id.UserID, chi.URLParam(r, "eventID"), CreateInput{
			Body: req.Body,
			Type: req.Type,
		})
		if err != nil {
			problem.Error(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, v)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
