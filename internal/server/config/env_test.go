package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseEnv(t *testing.T) {
	t.Setenv("GOPHAUTH_DATABASE_DSN", "postgres://env")
	t.Setenv("GOPHAUTH_SESSION_LIFESPAN_DAYS", "21")
	t.Setenv("GOPHAUTH_VERIFICATION_CODE_VALIDITY", "30m")
	t.Setenv("GOPHAUTH_SMTP_PORT", "2525")
	t.Setenv("GOPHAUTH_SENTRY_DSN", "https://key@sentry.example.com/7")

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NoError(t, parseEnv(cfg))

	assert.Equal(t, "postgres://env", cfg.DatabaseDSN)
	assert.Equal(t, 21, cfg.SessionLifespanDays)
	assert.Equal(t, 30*time.Minute, cfg.VerificationCodeValidity)
	assert.Equal(t, 2525, cfg.SMTPPort)
	assert.Equal(t, "https://key@sentry.example.com/7", cfg.SentryDSN)
	assert.Equal(t, ":50051", cfg.EndpointAddrGRPC, "unset variables keep their value")
}

func Test_parseEnv_BadValue(t *testing.T) {
	t.Setenv("GOPHAUTH_SMTP_PORT", "not-a-number")

	cfg := &Config{}
	require.Error(t, parseEnv(cfg))
}

func TestLoadConfig_FlagsBeatEnv(t *testing.T) {
	t.Setenv("GOPHAUTH_GRPC_ADDR", ":7000")

	cfg, err := LoadConfig([]string{"-a", ":8000"})
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.EndpointAddrGRPC)
}
