package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_DSN", "")
	t.Setenv("PORT", "")
	t.Setenv("NOTIFY_MODE", "")
	t.Setenv("IAM_BASE_URL", "")
	t.Setenv("DEV_DEFAULT_USER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, NotifyModeDirect, cfg.NotifyMode)
	assert.Equal(t, "owner@neighborguard.local", cfg.DefaultOwnerEmail)
	assert.True(t, cfg.DevDefaultUser)
	assert.False(t, cfg.HomeRecentFallback)
	assert.Equal(t, 5*time.Second, cfg.IAMTimeoutDuration())
}

func TestLoad_DevDefaultUserDerived(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"development without iam", map[string]string{"APP_ENV": "development", "IAM_BASE_URL": ""}, true},
		{"production", map[string]string{"APP_ENV": "production", "IAM_BASE_URL": ""}, false},
		{"iam configured", map[string]string{"APP_ENV": "development", "IAM_BASE_URL": "https://iam.local"}, false},
		{"explicit override", map[string]string{"APP_ENV": "development", "IAM_BASE_URL": "https://iam.local", "DEV_DEFAULT_USER": "true"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NOTIFY_MODE", "")
			t.Setenv("DEV_DEFAULT_USER", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.DevDefaultUser)
		})
	}
}

func TestLoad_PortOverridesAddr(t *testing.T) {
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
}

func TestLoad_LegacyDSN(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_DSN", "postgres://u:p@localhost/ng")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@localhost/ng", cfg.DatabaseURL)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown notify mode", map[string]string{"NOTIFY_MODE": "carrier-pigeon"}},
		{"queue without database", map[string]string{"NOTIFY_MODE": "queue", "DATABASE_URL": "", "DB_DSN": ""}},
		{"dev user in production", map[string]string{"APP_ENV": "production", "DEV_DEFAULT_USER": "true"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestIAMTimeoutDuration_Invalid(t *testing.T) {
	c := &Config{IAMTimeout: "soon"}
	assert.Equal(t, 5*time.Second, c.IAMTimeoutDuration())

	c.IAMTimeout = "250ms"
	assert.Equal(t, 250*time.Millisecond, c.IAMTimeoutDuration())
}
