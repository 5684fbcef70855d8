package config

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewLogger construye el logger raíz con los campos app y env.
// LOG_FORMAT=console|text => salida legible; en debug se agrega el caller.
func NewLogger(cfg *Config, app string) zerolog.Logger {
	return newLogger(os.Stdout, cfg.LoggingConfig, app, cfg.Env)
}

func newLogger(out io.Writer, cfg LoggingConfig, app, env string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level := parseLevel(cfg.Level)

	if isConsoleFormat(cfg.Format) {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if app = strings.TrimSpace(app); app != "" {
		ctx = ctx.Str("app", app)
	}
	if env = strings.TrimSpace(env); env != "" {
		ctx = ctx.Str("env", env)
	}
	if level <= zerolog.DebugLevel {
		ctx = ctx.Caller()
	}

	logger := ctx.Logger()
	log.Logger = logger
	return logger
}

// parseLevel: vacío o desconocido => info.
func parseLevel(raw string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func isConsoleFormat(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "console", "text":
		return true
	}
	return false
}
