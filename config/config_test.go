package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateNewConfigDefaults(t *testing.T) {
	for _, k := range []string{"SERVICE_PORT", "SECRET_KEY", "JWT_SECRET", "SMTP_HOST", "SMTP_PORT", "SMTP_STARTTLS", "EMAIL_USER", "EMAIL_PASS", "ACCESS_TOKEN_EXPIRE_MINUTES", "NOTIFY_MAX_RETRIES"} {
		t.Setenv(k, "")
	}

	c := CreateNewConfig()

	assert.Equal(t, "8000", c.ServicePort)
	assert.Equal(t, "smtp.gmail.com", c.SMTPConfig.Host)
	assert.Equal(t, 587, c.SMTPConfig.Port)
	assert.True(t, c.SMTPConfig.StartTLS)
	assert.False(t, c.SMTPConfig.Enabled())
	assert.Equal(t, 30, c.JWTConfig.TokenTTLMinutes)
	assert.Equal(t, 1, c.NotifierConfig.MaxRetries)
	assert.Equal(t, 10, c.NotifierConfig.TimeoutSeconds)
}

func TestCreateNewConfigFromEnv(t *testing.T) {
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("SMTP_STARTTLS", "False")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("EMAIL_USER", "noreply@school.tn")
	t.Setenv("EMAIL_PASS", "pw")
	t.Setenv("EMAIL_FROM", "")

	c := CreateNewConfig()

	assert.Equal(t, "s3cret", c.JWTConfig.JWTSecret)
	assert.False(t, c.SMTPConfig.StartTLS)
	assert.Equal(t, 2525, c.SMTPConfig.Port)
	assert.True(t, c.SMTPConfig.Enabled())
	assert.Equal(t, "noreply@school.tn", c.SMTPConfig.From)
}

func TestCreateNewConfigClampsAuditInterval(t *testing.T) {
	for _, v := range []string{"0", "-5"} {
		t.Setenv("LEGACY_AUDIT_INTERVAL_MINUTES", v)
		assert.Equal(t, 60, CreateNewConfig().AuditConfig.LegacyHashAuditIntervalMinutes, v)
	}

	t.Setenv("LEGACY_AUDIT_INTERVAL_MINUTES", "15")
	assert.Equal(t, 15, CreateNewConfig().AuditConfig.LegacyHashAuditIntervalMinutes)
}

func TestValidate(t *testing.T) {
	c := &Config{Environment: "production"}
	require.Error(t, c.Validate())

	c = &Config{Environment: "development"}
	require.NoError(t, c.Validate())
	assert.Equal(t, devSigningSecret, c.JWTConfig.JWTSecret)

	c = &Config{Environment: "production", JWTConfig: JWTConfig{JWTSecret: "real"}}
	require.NoError(t, c.Validate())
	assert.Equal(t, "real", c.JWTConfig.JWTSecret)
}
