package Config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 15*time.Minute, cfg.GraceWindow())
	assert.False(t, cfg.SlackEnabled())
	assert.False(t, cfg.SMTPEnabled())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("TASK_GRACE_MINUTES", "5")
	t.Setenv("TIMEZONE", "Africa/Cairo")
	t.Setenv("SMTP_SERVER", "smtp.example.com")
	t.Setenv("SMTP_DIGEST_TO", "a@example.com,b@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.GraceWindow())
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.SMTP.DigestTo)
	assert.True(t, cfg.SMTPEnabled())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Africa/Cairo", loc.String())
}

func TestLoad_BadTimezone(t *testing.T) {
	t.Setenv("TIMEZONE", "Mars/Olympus")
	_, err := Load()
	assert.Error(t, err)
}
