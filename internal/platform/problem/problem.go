// Package problem escribe errores HTTP como application/problem+json (RFC 7807).
package problem

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"neighborguard/internal/platform/apperr"

	"github.com/rs/zerolog"
)

const contentType = "application/problem+json"

type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// Error mapea err con apperr.Status y lo escribe. Para 5xx no se expone el mensaje interno.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)

	detail := http.StatusText(status)
	var ae *apperr.Error
	if status < http.StatusInternalServerError {
		if errors.As(err, &ae) {
			detail = ae.Error()
		} else if err != nil {
			detail = err.Error()
		}
	}
	Write(w, r, status, detail, err)
}

func Write(w http.ResponseWriter, r *http.Request, status int, detail string, err error) {
	p := ProblemDetails{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
	if r != nil {
		p.Instance = r.URL.Path
	}

	if err != nil && r != nil {
		logger := zerolog.Ctx(r.Context())
		var ev *zerolog.Event
		if status >= 500 {
			ev = logger.Error()
		} else {
			ev = logger.Warn()
		}
		ev.Err(err).
			Int("status", status).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg(p.Title)
	}

	WriteProblem(w, p)
}

func WriteProblem(w http.ResponseWriter, p ProblemDetails) {
	payload, err := json.Marshal(p)
	if err != nil {
		fallback := fmt.Sprintf("{\"type\":\"about:blank\",\"title\":\"%s\",\"status\":500}", http.StatusText(http.StatusInternalServerError))
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(fallback))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(p.Status)
	_, _ = w.Write(payload)
}
