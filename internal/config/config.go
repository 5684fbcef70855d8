// Package config carga la configuración desde variables de entorno y un .env opcional usando Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	NotifyModeDirect = "direct"
	NotifyModeQueue  = "queue"
)

type Config struct {
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	Port     string `mapstructure:"PORT"`

	AppName string `mapstructure:"APP_NAME"`
	Env     string `mapstructure:"APP_ENV"`

	// DatabaseURL vacío => repos in-memory.
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	LegacyDSN      string `mapstructure:"DB_DSN"`
	MigrateOnStart bool   `mapstructure:"MIGRATE_ON_START"`

	LoggingConfig `mapstructure:",squash"`

	// NotifyMode: direct (fan-out en el request) o queue (job de river; requiere DATABASE_URL).
	NotifyMode string `mapstructure:"NOTIFY_MODE"`

	// HomeRecentFallback activa el modo degradado de /home/tasks (eventos abiertos de las últimas 24h).
	HomeRecentFallback bool `mapstructure:"HOME_RECENT_FALLBACK"`

	// DevDefaultUser: sin X-User-ID se usa el owner por defecto (solo sin verifier).
	DevDefaultUser    bool   `mapstructure:"DEV_DEFAULT_USER"`
	DefaultOwnerEmail string `mapstructure:"DEFAULT_OWNER_EMAIL"`
	DefaultOwnerName  string `mapstructure:"DEFAULT_OWNER_NAME"`

	IAMBaseURL string `mapstructure:"IAM_BASE_URL"`
	IAMAPIKey  string `mapstructure:"IAM_API_KEY"`
	IAMTimeout string `mapstructure:"IAM_TIMEOUT"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

// Load lee .env (si existe) y luego el entorno. Las env vars pisan el .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("PORT", "")
	v.SetDefault("APP_NAME", "neighborguard")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_DSN", "")
	v.SetDefault("MIGRATE_ON_START", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("NOTIFY_MODE", NotifyModeDirect)
	v.SetDefault("HOME_RECENT_FALLBACK", false)
	v.SetDefault("DEFAULT_OWNER_EMAIL", "owner@neighborguard.local")
	v.SetDefault("DEFAULT_OWNER_NAME", "Default Owner")
	v.SetDefault("IAM_BASE_URL", "")
	v.SetDefault("IAM_API_KEY", "")
	v.SetDefault("IAM_TIMEOUT", "5s")
	// Owner por defecto solo en dev: fuera de production y sin IAM.
	v.SetDefault("DEV_DEFAULT_USER", !isProduction(v.GetString("APP_ENV")) && strings.TrimSpace(v.GetString("IAM_BASE_URL")) == "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	// PORT (estilo PaaS) tiene prioridad sobre HTTP_ADDR.
	if p := strings.TrimSpace(c.Port); p != "" {
		c.HTTPAddr = ":" + strings.TrimPrefix(p, ":")
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}

	if c.DatabaseURL == "" {
		c.DatabaseURL = strings.TrimSpace(c.LegacyDSN)
	}

	c.NotifyMode = strings.ToLower(strings.TrimSpace(c.NotifyMode))
	switch c.NotifyMode {
	case "":
		c.NotifyMode = NotifyModeDirect
	case NotifyModeDirect, NotifyModeQueue:
	default:
		return errors.New("config: NOTIFY_MODE must be direct or queue")
	}
	if c.NotifyMode == NotifyModeQueue && c.DatabaseURL == "" {
		return errors.New("config: NOTIFY_MODE=queue requires DATABASE_URL")
	}

	if c.DevDefaultUser && c.IsProduction() {
		return errors.New("config: DEV_DEFAULT_USER must not be true when APP_ENV=production")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return isProduction(c.Env)
}

func isProduction(env string) bool {
	return strings.EqualFold(strings.TrimSpace(env), "production")
}

// IAMTimeoutDuration devuelve 5s si IAM_TIMEOUT no es válido.
func (c *Config) IAMTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.IAMTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}
