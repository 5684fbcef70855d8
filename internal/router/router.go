package router

import (
	"database/sql"
	"net/http"

	mem "neighborguard/internal/adapters/storage/memory"
	pg "neighborguard/internal/adapters/storage/postgres"
	"neighborguard/internal/domain/circles"
	"neighborguard/internal/domain/events"
	"neighborguard/internal/domain/home"
	"neighborguard/internal/domain/media"
	"neighborguard/internal/domain/notes"
	"neighborguard/internal/domain/notifications"
	"neighborguard/internal/domain/users"
	"neighborguard/internal/metrics"
	"neighborguard/internal/middleware"
	"neighborguard/internal/platform/logger"
	"neighborguard/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // nil => modo dev (header X-User-ID)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Logger zerolog.Logger

	// WrapNotifier recibe el notifier directo y devuelve el que usará el motor
	// de eventos (p.ej. jobs.QueueNotifier). nil => fan-out directo.
	WrapNotifier func(direct notifications.Notifier) notifications.Notifier

	DevDefaultUser     bool
	DefaultOwnerEmail  string
	DefaultOwnerName   string
	HomeRecentFallback bool
}

type repos struct {
	users   users.Repository
	circles circles.Repository
	videos  media.Repository
	events  events.Repository
	notifs  notifications.Repository
	notes   notes.Repository
}

func newRepos(db *sql.DB) repos {
	if db != nil {
		return repos{
			users:   pg.NewUsersRepo(db),
			circles: pg.NewCirclesRepo(db),
			videos:  pg.NewMediaRepo(db),
			events:  pg.NewEventsRepo(db),
			notifs:  pg.NewNotificationsRepo(db),
			notes:   pg.NewNotesRepo(db),
		}
	}
	return repos{
		users:   mem.NewUserRepo(),
		circles: mem.NewCircleRepo(),
		videos:  mem.NewVideoRepo(),
		events:  mem.NewEventRepo(),
		notifs:  mem.NewNotificationRepo(),
		notes:   mem.NewNoteRepo(),
	}
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogging(opts.Logger))
	r.Use(metrics.HTTPMiddleware)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	rp := newRepos(opts.DB)

	// Services por módulo
	usersSvc := users.NewService(rp.users, users.Options{
		// El owner por defecto solo existe en modo dev (sin verifier).
		DefaultUser:       opts.DevDefaultUser && opts.AuthVerifier == nil,
		DefaultOwnerEmail: opts.DefaultOwnerEmail,
		DefaultOwnerName:  opts.DefaultOwnerName,
	})
	directory := circles.NewDirectory(rp.circles)
	circlesSvc := circles.NewService(rp.circles, directory, usersSvc)
	usersSvc.SetProvisioner(circlesSvc)

	mediaSvc := media.NewService(rp.videos)
	notifsSvc := notifications.NewService(rp.notifs, directory)

	var notifier notifications.Notifier = notifsSvc
	if opts.WrapNotifier != nil {
		notifier = opts.WrapNotifier(notifsSvc)
	}

	eventsSvc := events.NewService(rp.events, events.Deps{
		Members:  directory,
		Videos:   mediaSvc,
		Users:    usersSvc,
		Notifier: notifier,
		Logger:   logger.New(opts.Logger),
	})
	notesSvc := notes.NewService(rp.notes, eventsSvc, usersSvc)
	homeSvc := home.NewService(usersSvc, circlesSvc, eventsSvc, notifsSvc, home.Options{
		RecentFallback: opts.HomeRecentFallback,
	})

	// Rutas autenticadas: claims -> identidad resuelta
	r.Group(func(ar chi.Router) {
		ar.Use(middleware.AuthContext(opts.AuthVerifier))
		ar.Use(middleware.Identity(usersSvc))

		home.RegisterRoutes(ar, homeSvc)
		circles.RegisterRoutes(ar, circlesSvc)
		events.RegisterRoutes(ar, eventsSvc)
		notes.RegisterRoutes(ar, notesSvc)
		notifications.RegisterRoutes(ar, notifsSvc)
		media.RegisterRoutes(ar, mediaSvc)
	})

	return r
}
