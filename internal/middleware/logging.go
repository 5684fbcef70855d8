package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

// RequestLogging deja en el contexto un logger con request_id (zerolog.Ctx) y al
// final registra una línea por request. Identity le agrega user_id, así que la
// línea final sale con el usuario resuelto. Va después de chimw.RequestID y RealIP.
// /health y /metrics se registran en debug.
func RequestLogging(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLogger := base.With().
				Str("request_id", chimw.GetReqID(r.Context())).
				Str("remote_ip", r.RemoteAddr).
				Logger()
			ctx := reqLogger.WithContext(r.Context())
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r.WithContext(ctx))

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			lg := zerolog.Ctx(ctx)
			lg.WithLevel(requestLevel(r.URL.Path, rec.status)).
				Str("method", r.Method).
				Str("route", routeOf(r)).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Int("bytes", rec.bytes).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

func requestLevel(path string, status int) zerolog.Level {
	switch {
	case status >= 500:
		return zerolog.ErrorLevel
	case status >= 400:
		return zerolog.WarnLevel
	case path == "/health" || path == "/metrics":
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

func routeOf(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// tagUser agrega user_id al logger del request (si lo hay).
func tagUser(r *http.Request, userID string) {
	lg := zerolog.Ctx(r.Context())
	if lg.GetLevel() == zerolog.Disabled {
		return
	}
	lg.UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("user_id", userID)
	})
}
