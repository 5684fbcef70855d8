package media

import (
	"encoding/json"
	"net/http"
	"time"

	"neighborguard/internal/middleware"
	"neighborguard/internal/platform/apperr"
	"neighborguard/internal/platform/problem"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/media/videos", func(mr chi.Router) {
		mr.Post("/", registerVideoHandler(svc))
		mr.Get("/{videoID}", getVideoHandler(svc))
	})
}

type registerVideoRequest struct {
	URL         string `json:"url"`
	StoragePath string `json:"storagePath"`
	DurationSec *int   `json:"durationSec"`
}

type videoResponse struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	StoragePath string    `json:"storagePath"`
	DurationSec *int      `json:"durationSec"`
	CreatedAt   time.Time `json:"createdAt"`
}

// registerVideoHandler godoc
// @Summary Registrar video
// @Description Registra la metadata de un video ya subido al storage (la subida no pasa por esta API).
// @Tags media
// @Accept json
// @Produce json
// @Param payload body registerVideoRequest true "URL pública y path en storage"
// @Success 201 {object} videoResponse
// @Failure 400 {object} problem.ProblemDetails
// @Router /media/videos [post]
func registerVideoHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetIdentity(r.Context()); !ok {
			problem.Error(w, r, apperr.Unauthorized(""))
			return
		}

		var req registerVideoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			problem.Error(w, r, apperr.BadRequest("invalid json"))
			return
		}

		v, err := svc.Register(r.Context(), RegisterInput{
			URL:         req.URL,
			StoragePath: req.StoragePath,
			DurationSec: req.DurationSec,
		})
		if err != nil {
			problem.Error(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toVideoResponse(v))
	}
}

func getVideoHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetIdentity(r.Context()); !ok {
			problem.Error(w, r, apperr.Unauthorized(""))
			return
		}

		v, err := svc.GetByID(r.Context(), chi.URLParam(r, "videoID"))
		if err != nil {
			problem.Error(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toVideoResponse(v))
	}
}

func toVideoResponse(v VideoAsset) videoResponse {
	return videoResponse{
		ID:          v.ID,
		URL:         v.URL,
		StoragePath: v.StoragePath,
		DurationSec: v.DurationSec,
		CreatedAt:   v.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
