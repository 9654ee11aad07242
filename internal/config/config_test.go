package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 7, cfg.ProgressWindowDays)
	assert.InDelta(t, 0.5, cfg.ProgressTaskWeight, 1e-9)
	assert.InDelta(t, 0.8, cfg.NarrationRate, 1e-9)
	assert.Equal(t, 300*time.Millisecond, cfg.NarrationPause)
	assert.Empty(t, cfg.TTSCommand)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, 1000, cfg.SessionMax)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PROGRESS_WINDOW_DAYS", "14")
	t.Setenv("PROGRESS_TASK_WEIGHT", "0.7")
	t.Setenv("NARRATION_PAUSE", "1s")
	t.Setenv("AMBIENT_REDUCED_MOTION", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 14, cfg.ProgressWindowDays)
	assert.InDelta(t, 0.7, cfg.ProgressTaskWeight, 1e-9)
	assert.Equal(t, time.Second, cfg.NarrationPause)
	assert.True(t, cfg.AmbientReducedMotion)
	assert.False(t, cfg.AmbientHighContrast)
}

func TestLoad_RejectsBadPolicy(t *testing.T) {
	t.Run("window", func(t *testing.T) {
		t.Setenv("PROGRESS_WINDOW_DAYS", "0")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("weight", func(t *testing.T) {
		t.Setenv("PROGRESS_TASK_WEIGHT", "1.5")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("sessions", func(t *testing.T) {
		t.Setenv("SESSION_MAX", "0")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: "5432", DBSSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5432 sslmode=disable TimeZone=UTC", cfg.DSN())
}
