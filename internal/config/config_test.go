package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("ENV", "")
	t.Setenv("DATABASE_URL", "file:test.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, NotifyModeRealtime, cfg.NotifyMode)
	assert.Equal(t, MailDriverLog, cfg.MailDriver)
	assert.False(t, cfg.SameDayHandover)
	assert.Equal(t, 1024, cfg.CacheMaxEntries)
	assert.Equal(t, int64(10<<20), cfg.UploadMaxBytes)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/equiprent")
	t.Setenv("SAME_DAY_HANDOVER", "yes")
	t.Setenv("NOTIFY_MODE", "Polling")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("TYPING_TTL", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.SameDayHandover)
	assert.Equal(t, NotifyModePolling, cfg.NotifyMode)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.TypingTTL)
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]map[string]string{
		"missing database":   {"DATABASE_URL": ""},
		"bad duration":       {"JWT_TTL": "soon"},
		"bad notify mode":    {"NOTIFY_MODE": "carrier-pigeon"},
		"smtp without host":  {"MAIL_DRIVER": "smtp", "SMTP_HOST": ""},
		"zero cache entries": {"CACHE_MAX_ENTRIES": "0"},
		"prod default secret": {
			"APP_ENV":           "production",
			"JWT_SECRET":        "",
			"STRIPE_SECRET_KEY": "sk_test",
		},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "file:test.db")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
