package circles

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
	r.Route("/circles", func(cr chi.Router) {
		cr.Get("/", listCirclesHandler(svc))
		cr.Post("/", createCircleHandler(svc))

		// Miembros: listar (cualquier miembro), alta/cambio de rol/baja (solo owner)
		cr.Get("/{circleID}/members", listMembersHandler(svc))
		cr.Post("/{circleID}/members", addMemberHandler(svc))
		cr.Patch("/{circleID}/members/{memberID}", updateMemberRoleHandler(svc))
		cr.Delete("/{circleID}/members/{memberID}", removeMemberHandler(svc))
	})
}

type createCircleRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type addMemberRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type updateMemberRoleRequest struct {
	Role string `json:"role"`
}

type circleResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Name      string    `json:"name"`
	Address   *string   `json:"address"`
	Role      Role      `json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type memberResponse struct {
	ID        string    `json:"id"`
	CircleID  string    `json:"circleId"`
	UserID    string    `json:"userId"`
	Role      Role      `json:"role"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// listCirclesHandler godoc
// @Summary Listar mis círculos
// @Description Devuelve los círculos donde el usuario es miembro, con su rol en cada uno.
// @Tags circles
// @Produce json
// @Param X-User-ID header string false "Solo en modo dev, ID de usuario"
// @Success 200 {array} circleResponse
// @Router /circles [get]
func listCirclesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.GetIdentity(r.Context())
		if !ok {
			problem.Error(w, r, apperr.Unauthorized(""))
			return
		}

		list, err := svc.ListForUser(r.Context(), id.UserID)
		if err != nil {
			problem.Error(w, r, err)
			return
		}

		out := make([]circleResponse, 0, len(list))
		for _, s := range list {
			out = append(out, toCircleResponse(s.Circle, s.Role))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// createCircleHandler godoc
// @Summary Crear círculo
// @Description Crea un círculo; el creador queda como owner (con su fila de membresía).
// @Tags circles
// @Accept json
// @Produce json
// @Param payload body createCircleRequest true "Nombre y dirección"
// @Success 201 {object} circleResponse
// @Failure 400 {object} problem.ProblemDetails
// @Router /circles [post]
func createCircleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.GetIdentity(r.Context())
		if !ok {
			problem.Error(w, r, apperr.Unauthorized(""))
			return
		}

		var req createCircleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			problem.Error(w, r, apperr.BadRequest("invalid json"))
			return
		}

		c, err := svc.Create(r.Context(), id.UserID, CreateInput{Name: req.Name, Address: req.Address})
		if err != nil {
			problem.Error(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toCircleResponse(c, RoleOwner))
	}
}

func listMembersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.GetIdentity(r.Context())
		if !ok {
			problem.Error(w, r, apperr.Unauthorized(""))
			return
		}

		list, err := svc.ListMembers(r.Context(), chi.URLParam(r, "circleID"), id.UserID)
		if err != nil {
			problem.Error(w, r, err)
			return
		}

		out := make([]memberResponse, 0, len(list))
		for _, m := range list {
			out = append(out, toMemberResponse(m))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// addMemberHandler godoc
// @Summary Agregar miembro
// @Description Solo el owner. Busca o crea el usuario por email; si ya era miembro actualiza el rol. Rol por defecto neighbor.
// @Tags circles
// @Accept json
// @Produce json
// @Param circleID path string true "ID del círculo"
// @Param payload body addMemberRequest true "Email, nombre opcional y rol"
// @Success 201 {object} memberResponse
// @Failure 400 {object} problem.ProblemDetails
// @Failure 403 {object} problem.ProblemDetails
// @Failure 404 {object} problem.ProblemDetails
// @Router /circles/{circleID}/members [post]
func addMemberHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.GetIdentity(r.Context())
		if !ok {
			problem.Error(w, r, apperr.Unauthorized(""))
			return
		}

		var req addMemberRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			problem.Error(w, r, apperr.BadRequest("invalid json"))
			return
		}

		m, err := svc.AddMember(r.Context(), chi.URLParam(r, "circleID"), id.UserID, AddMemberInput{
			Email: req.Email,
			Name:  req.Name,
			Role:  req.Role,
		})
		if err != nil {
			problem.Error(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toMemberResponse(m))
	}
}

func updateMemberRoleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.GetIdentity(r.Context())
		if !ok {
			problem.Error(w, r, apperr.Unauthorized(""))
			return
		}

		var req updateMemberRoleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			problem.Error(w, r, apperr.BadRequest("invalid json"))
			return
		}

		m, err := svc.UpdateMemberRole(r.Context(), chi.URLParam(r, "circleID"), id.UserID, chi.URLParam(r, "memberID"), req.Role)
		if err != nil {
			problem.Error(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toMemberResponse(MemberView{Member: m}))
	}
}

func removeMemberHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.GetIdentity(r.Context())
		if !ok {
			problem.Error(w, r, apperr.Unauthorized(""))
			return
		}

		if err := svc.RemoveMember(r.Context(), chi.URLParam(r, "circleID"), id.UserID, chi.URLParam(r, "memberID")); err != nil {
			problem.Error(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toCircleResponse(c Circle, role Role) circleResponse {
	return circleResponse{
		ID:        c.ID,
		OwnerID:   c.OwnerID,
		Name:      c.Name,
		Address:   c.Address,
		Role:      role,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toMemberResponse(m MemberView) memberResponse {
	return memberResponse{
		ID:        m.ID,
		CircleID:  m.CircleID,
		UserID:    m.UserID,
		Role:      m.Role,
		Name:      m.Name,
		Email:     m.Email,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
