package logger

import (
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// Logger es la interfaz que reciben los services. Mantiene a los dominios sin
// depender de zerolog directamente.
type Logger interface {
	With(fields map[string]any) Logger

	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

type zeroLogger struct {
	zl zerolog.Logger
}

// New envuelve un zerolog.Logger ya configurado (ver config.NewLogger).
func New(zl zerolog.Logger) Logger {
	return &zeroLogger{zl: zl}
}

// Nop descarta todo; útil en tests y como default de los services.
func Nop() Logger {
	return &zeroLogger{zl: zerolog.Nop()}
}

// NewWriter escribe JSON en w con el nivel indicado (tests).
func NewWriter(w io.Writer, level string) Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return &zeroLogger{zl: zerolog.New(w).Level(lvl)}
}

// FromContext usa el logger del request (zerolog.Ctx) si existe; si no, fallback.
func FromContext(ctx context.Context, fallback Logger) Logger {
	if ctx != nil {
		if zl := zerolog.Ctx(ctx); zl != nil && zl.GetLevel() != zerolog.Disabled {
			return &zeroLogger{zl: *zl}
		}
	}
	if fallback == nil {
		return Nop()
	}
	return fallback
}

func (l *zeroLogger) With(fields map[string]any) Logger {
	if len(fields) == 0 {
		return l
	}
	ctx := l.zl.With()
	for k, v := range fields {
		if strings.TrimSpace(k) == "" {
			continue
		}
		ctx = ctx.Interface(k, v)
	}
	return &zeroLogger{zl: ctx.Logger()}
}

func (l *zeroLogger) Debug(msg string, fields map[string]any) { l.log(l.zl.Debug(), msg, fields) }
func (l *zeroLogger) Info(msg string, fields map[string]any)  { l.log(l.zl.Info(), msg, fields) }
func (l *zeroLogger) Warn(msg string, fields map[string]any)  { l.log(l.zl.Warn(), msg, fields) }
func (l *zeroLogger) Error(msg string, fields map[string]any) { l.log(l.zl.Error(), msg, fields) }

func (l *zeroLogger) log(ev *zerolog.Event, msg string, fields map[string]any) {
	if ev == nil {
		return
	}
	for k, v := range fields {
		if strings.TrimSpace(k) == "" {
			continue
		}
		if err, ok := v.(error); ok {
			ev = ev.AnErr(k, err)
			continue
		}
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}
