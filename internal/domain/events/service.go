package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"neighborguard/internal/domain/circles"
	"neighborguard/internal/domain/media"
	"neighborguard/internal/domain/notifications"
	"neighborguard/internal/domain/users"
	"neighborguard/internal/metrics"
	"neighborguard/internal/platform/apperr"
	"neighborguard/internal/platform/logger"
	"neighborguard/internal/platform/pagination"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	DefaultListLimit = 50

	snippetLen           = 120
	resolvedFallbackText = "An event was resolved"
)

// Memberships es lo que el motor necesita del directorio de membresías (circles.Directory).
type Memberships interface {
	GetCircle(ctx context.Context, circleID string) (circles.Circle, error)
	GetRole(ctx context.Context, circleID, userID string) (circles.Role, error)
	AssertMember(ctx context.Context, circleID, userID string) (circles.Role, error)
	Roles(ctx context.Context, userID string) (map[string]circles.Role, error)
}

type Videos interface {
	GetByID(ctx context.Context, id string) (media.VideoAsset, error)
	URLsByID(ctx context.Context, ids []string) (map[string]string, error)
}

type Users interface {
	ListByIDs(ctx context.Context, ids []string) (map[string]users.User, error)
}

type Service struct {
	repo     Repository
	members  Memberships
	videos   Videos
	users    Users
	notifier notifications.Notifier
	log      logger.Logger
	validate *validator.Validate
	now      func() time.Time
}

type Deps struct {
	Members  Memberships
	Videos   Videos
	Users    Users
	Notifier notifications.Notifier
	Logger   logger.Logger
}

func NewService(repo Repository, deps Deps) *Service {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:     repo,
		members:  deps.Members,
		videos:   deps.Videos,
		users:    deps.Users,
		notifier: deps.Notifier,
		log:      log.With(map[string]any{"component": "events"}),
		validate: validator.New(),
		now:      time.Now,
	}
}

// CanModify: el owner del círculo o el creador del evento. Es la única regla para
// autorizar cambios de estado/nota y para calcular canChangeResolution.
func CanModify(role circles.Role, callerID string, e Event) bool {
	return role == circles.RoleOwner || e.IsCreatedBy(callerID)
}

type CreateInput struct {
	CircleID     string `validate:"required"`
	Title        string `validate:"max=200"`
	Description  string `validate:"max=4000"`
	RequestText  string `validate:"required,max=4000"`
	EventType    string `validate:"required,max=64"`
	CameraZone   string `validate:"required,max=64"`
	Severity     string
	OccurredAt   *time.Time
	VideoAssetID string
}

func (s *Service) Create(ctx context.Context, callerID string, in CreateInput) (View, error) {
	in.CircleID = strings.TrimSpace(in.CircleID)
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.RequestText = strings.TrimSpace(in.RequestText)
	in.EventType = strings.TrimSpace(in.EventType)
	in.CameraZone = strings.TrimSpace(in.CameraZone)
	in.VideoAssetID = strings.TrimSpace(in.VideoAssetID)

	if err := s.validate.Struct(in); err != nil {
		return View{}, apperr.BadRequest("circleId, requestText, eventType and cameraZone are required")
	}
	severity, ok := ParseSeverity(in.Severity)
	if !ok {
		return View{}, apperr.BadRequest("severity must be one of low, medium, high, critical")
	}

	circle, err := s.members.GetCircle(ctx, in.CircleID)
	if err != nil {
		return View{}, err
	}

	// Permisos:
	// - No miembro: 403
	// - Observer: solo lectura
	role, err := s.members.AssertMember(ctx, circle.ID, callerID)
	if err != nil {
		return View{}, err
	}
	if !role.CanCreateEvents() {
		return View{}, apperr.Forbidden("observers cannot create events")
	}

	var videoID *string
	if in.VideoAssetID != "" {
		v, err := s.videos.GetByID(ctx, in.VideoAssetID)
		if err != nil {
			return View{}, err
		}
		videoID = &v.ID
	}

	now := s.now()
	occurredAt := now
	if in.OccurredAt != nil && !in.OccurredAt.IsZero() {
		occurredAt = *in.OccurredAt
	}
	creator := callerID

	e := Event{
		ID:           uuid.NewString(),
		CircleID:     circle.ID,
		Title:        optional(in.Title),
		Description:  optional(in.Description),
		RequestText:  in.RequestText,
		EventType:    in.EventType,
		CameraZone:   in.CameraZone,
		Severity:     severity,
		Status:       StatusOpen,
		OccurredAt:   &occurredAt,
		VideoAssetID: videoID,
		CreatedByID:  &creator,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return View{}, fmt.Errorf("create event: %w", err)
	}
	metrics.EventsCreated.WithLabelValues(string(severity)).Inc()

	saved, err := s.load(ctx, e.ID)
	if err != nil {
		return View{}, err
	}

	views, err := s.hydrate(ctx, callerID, []Event{saved}, map[string]circles.Role{circle.ID: role})
	if err != nil {
		return View{}, err
	}
	v := views[0]

	s.afterCommit(ctx, notifications.FanOut{
		CircleID:      circle.ID,
		ExcludeUserID: callerID,
		Type:          notifications.TypeEventCreated,
		EventID:       saved.ID,
		Title:         "New event in " + circle.DisplayName(),
		Message:       s.displayName(ctx, callerID) + ": " + firstNonEmpty(deref(saved.Title), snippet(saved.RequestText)),
	})

	return v, nil
}

// Get requiere membresía en el círculo del evento.
func (s *Service) Get(ctx context.Context, callerID, eventID string) (View, error) {
	e, err := s.load(ctx, eventID)
	if err != nil {
		return View{}, err
	}
	role, err := s.members.AssertMember(ctx, e.CircleID, callerID)
	if err != nil {
		return View{}, err
	}

	views, err := s.hydrate(ctx, callerID, []Event{e}, map[string]circles.Role{e.CircleID: role})
	if err != nil {
		return View{}, err
	}
	return views[0], nil
}

// ListByCircle: más recientes primero, limit por defecto 50 (1..100), cursor = createdAt exclusivo.
func (s *Service) ListByCircle(ctx context.Context, callerID, circleID string, filter ListFilter) ([]View, error) {
	circle, err := s.members.GetCircle(ctx, circleID)
	if err != nil {
		return nil, err
	}
	role, err := s.members.AssertMember(ctx, circle.ID, callerID)
	if err != nil {
		return nil, err
	}
	if filter.Status != "" {
		if _, ok := ParseStatus(string(filter.Status)); !ok {
			return nil, apperr.BadRequest("status must be one of open, in_progress, resolved")
		}
	}
	filter.Limit = pagination.Limit(pagination.ResolveLimit(filter.Limit, DefaultListLimit))

	list, err := s.repo.ListByCircle(ctx, circle.ID, filter)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return s.hydrate(ctx, callerID, list, map[string]circles.Role{circle.ID: role})
}

// ListOpenForUser: eventos abiertos de todos los círculos del usuario. Sin membresías => vacío.
func (s *Service) ListOpenForUser(ctx context.Context, callerID string) ([]View, error) {
	return s.listOpen(ctx, callerID, nil)
}

// ListRecentOpenForUser es como ListOpenForUser pero solo con createdAt >= since.
func (s *Service) ListRecentOpenForUser(ctx context.Context, callerID string, since time.Time) ([]View, error) {
	return s.listOpen(ctx, callerID, &since)
}

func (s *Service) listOpen(ctx context.Context, callerID string, since *time.Time) ([]View, error) {
	roles, err := s.members.Roles(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return []View{}, nil
	}

	ids := make([]string, 0, len(roles))
	for id := range roles {
		ids = append(ids, id)
	}
	list, err := s.repo.ListOpen(ctx, ids, since)
	if err != nil {
		return nil, fmt.Errorf("list open events: %w", err)
	}
	return s.hydrate(ctx, callerID, list, roles)
}

// GetByIDs omite en silencio los eventos de círculos donde el caller no es miembro.
func (s *Service) GetByIDs(ctx context.Context, callerID string, ids []string) ([]View, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return []View{}, nil
	}

	roles, err := s.members.Roles(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return []View{}, nil
	}

	list, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list events by ids: %w", err)
	}

	visible := make([]Event, 0, len(list))
	for _, e := range list {
		if roles[e.CircleID] == circles.RoleNone {
			continue
		}
		visible = append(visible, e)
	}
	return s.hydrate(ctx, callerID, visible, roles)
}

type UpdateStatusInput struct {
	Status     *string
	Resolution *string
}

// UpdateStatus cambia estado y/o nota de resolución. Orden de chequeos:
// existe => no resuelto => miembro => owner o creador => validación => guardar.
func (s *Service) UpdateStatus(ctx context.Context, callerID, eventID string, in UpdateStatusInput) (View, error) {
	e, err := s.load(ctx, eventID)
	if err != nil {
		return View{}, err
	}

	// Resuelto es terminal; se chequea antes que permisos.
	if e.Status == StatusResolved {
		return View{}, apperr.BadRequest("resolved events cannot be modified")
	}

	role, err := s.members.GetRole(ctx, e.CircleID, callerID)
	if err != nil {
		return View{}, err
	}
	if role == circles.RoleNone {
		return View{}, apperr.Forbidden("you are not a member of this circle")
	}
	if !CanModify(role, callerID, e) {
		return View{}, apperr.Forbidden("only the event creator or the circle owner can change its status")
	}

	var resolution string
	if in.Resolution != nil {
		resolution = strings.TrimSpace(*in.Resolution)
	}

	if in.Status != nil {
		st, ok := ParseStatus(*in.Status)
		if !ok {
			return View{}, apperr.BadRequest("status must be one of open, in_progress, resolved")
		}
		if st == StatusResolved && resolution == "" {
			return View{}, apperr.BadRequest("a resolution note is required to resolve an event")
		}
		e.Status = st
	}
	if in.Resolution != nil {
		e.ResolutionNote = optional(resolution)
	}
	e.UpdatedAt = s.now()

	if err := s.repo.Save(ctx, e); err != nil {
		switch {
		case errors.Is(err, ErrResolvedLocked):
			return View{}, apperr.BadRequest("resolved events cannot be modified")
		case errors.Is(err, apperr.ErrNotFound):
			return View{}, apperr.NotFound("event not found")
		default:
			return View{}, fmt.Errorf("save event: %w", err)
		}
	}
	metrics.EventStatusChanges.WithLabelValues(string(e.Status)).Inc()

	saved, err := s.load(ctx, e.ID)
	if err != nil {
		return View{}, err
	}

	if saved.Status == StatusResolved {
		circleName := circles.Circle{}.DisplayName()
		if c, err := s.members.GetCircle(ctx, saved.CircleID); err == nil {
			circleName = c.DisplayName()
		}
		s.afterCommit(ctx, notifications.FanOut{
			CircleID:      saved.CircleID,
			ExcludeUserID: callerID,
			Type:          notifications.TypeEventResolved,
			EventID:       saved.ID,
			Title:         "Event resolved in " + circleName,
			Message: s.displayName(ctx, callerID) + ": " + firstNonEmpty(
				deref(saved.ResolutionNote),
				deref(saved.Title),
				snippet(saved.RequestText),
				resolvedFallbackText,
			),
		})
	}

	views, err := s.hydrate(ctx, callerID, []Event{saved}, map[string]circles.Role{saved.CircleID: role})
	if err != nil {
		return View{}, err
	}
	return views[0], nil
}

// afterCommit dispara el fan-out. Best-effort: un fallo se loguea y se cuenta, nunca se propaga.
func (s *Service) afterCommit(ctx context.Context, f notifications.FanOut) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyCircle(context.WithoutCancel(ctx), f); err != nil {
		metrics.FanOutFailures.WithLabelValues(string(f.Type), "dispatch").Inc()
		logger.FromContext(ctx, s.log).Warn("notification fan-out failed", map[string]any{
			"circle_id": f.CircleID,
			"event_id":  f.EventID,
			"type":      string(f.Type),
			"error":     err,
		})
	}
}

func (s *Service) load(ctx context.Context, id string) (Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Event{}, apperr.NotFound("event not found")
	}
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Event{}, apperr.NotFound("event not found")
		}
		return Event{}, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

func (s *Service) displayName(ctx context.Context, userID string) string {
	byID, err := s.users.ListByIDs(ctx, []string{userID})
	if err != nil {
		return users.User{}.DisplayName()
	}
	return byID[userID].DisplayName()
}

// hydrate arma las vistas: círculo, video, creador y permisos del caller.
// callerRoles: circleID => rol del caller (los que falten se consultan).
func (s *Service) hydrate(ctx context.Context, callerID string, list []Event, callerRoles map[string]circles.Role) ([]View, error) {
	out := make([]View, 0, len(list))
	if len(list) == 0 {
		return out, nil
	}

	var creatorIDs, videoIDs []string
	circlesByID := make(map[string]circles.Circle)
	for _, e := range list {
		if e.CreatedByID != nil {
			creatorIDs = append(creatorIDs, *e.CreatedByID)
		}
		if e.VideoAssetID != nil {
			videoIDs = append(videoIDs, *e.VideoAssetID)
		}
		if _, ok := circlesByID[e.CircleID]; ok {
			continue
		}
		c, err := s.members.GetCircle(ctx, e.CircleID)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		circlesByID[e.CircleID] = c
	}

	creators, err := s.users.ListByIDs(ctx, creatorIDs)
	if err != nil {
		return nil, err
	}
	videoURLs, err := s.videos.URLsByID(ctx, dedupe(videoIDs))
	if err != nil {
		return nil, err
	}

	type roleKey struct{ circleID, userID string }
	roleCache := make(map[roleKey]circles.Role)
	roleOf := func(circleID, userID string) (circles.Role, error) {
		if userID == callerID {
			if r, ok := callerRoles[circleID]; ok {
				return r, nil
			}
		}
		k := roleKey{circleID, userID}
		if r, ok := roleCache[k]; ok {
			return r, nil
		}
		r, err := s.members.GetRole(ctx, circleID, userID)
		if err != nil {
			return circles.RoleNone, err
		}
		roleCache[k] = r
		return r, nil
	}

	for _, e := range list {
		c := circlesByID[e.CircleID]
		myRole, err := roleOf(e.CircleID, callerID)
		if err != nil {
			return nil, err
		}

		v := View{
			ID:             e.ID,
			CircleID:       e.CircleID,
			CircleName:     c.Name,
			CircleAddress:  c.Address,
			Title:          e.Title,
			Description:    e.Description,
			RequestText:    e.RequestText,
			EventType:      e.EventType,
			CameraZone:     e.CameraZone,
			Severity:       e.Severity,
			Status:         e.Status,
			Resolution:     e.Resolution,
			ResolutionNote: e.ResolutionNote,
			OccurredAt:     e.OccurredAt,
			CreatedAt:      e.CreatedAt,
			UpdatedAt:      e.UpdatedAt,
			VideoAssetID:   e.VideoAssetID,
			CreatedByID:    e.CreatedByID,
			CreatedByRole:  CreatorRoleUnknown,
			MyRoleInCircle: string(myRole),
		}

		if e.VideoAssetID != nil {
			if u, ok := videoURLs[*e.VideoAssetID]; ok {
				v.VideoURL = &u
			}
		}

		if e.CreatedByID != nil {
			if u, ok := creators[*e.CreatedByID]; ok {
				v.CreatedByName = optional(u.Name)
				v.CreatedByEmail = optional(u.Email)
			}
			cr, err := roleOf(e.CircleID, *e.CreatedByID)
			if err != nil {
				return nil, err
			}
			if cr != circles.RoleNone {
				v.CreatedByRole = string(cr)
			}
		}

		v.IsMine = e.IsCreatedBy(callerID)
		v.CanEditEvent = v.IsMine
		v.CanChangeResolution = myRole != circles.RoleNone && CanModify(myRole, callerID, e)

		out = append(out, v)
	}
	return out, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// snippet: primeros 120 caracteres (runas, no bytes).
func snippet(s string) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= snippetLen {
		return string(r)
	}
	return string(r[:snippetLen])
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
