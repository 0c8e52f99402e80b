package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/alert-ticket-service/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "alert-ticket-service", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "ticket-events", cfg.Notification.RedisChannel)
	assert.Equal(t, 15, cfg.SLA.CriticalMinutes)
	assert.Equal(t, time.Minute, cfg.SLA.SweepInterval())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9999")
	t.Setenv("SLA_CRITICAL_MINUTES", "5")
	t.Setenv("SLA_SWEEP_INTERVAL_SECONDS", "10")
	t.Setenv("NOTIFY_REDIS_CHANNEL", "alerts")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.App.Port)
	assert.Equal(t, 5, cfg.SLA.CriticalMinutes)
	assert.Equal(t, 10*time.Second, cfg.SLA.SweepInterval())
	assert.Equal(t, "alerts", cfg.Notification.RedisChannel)
}

func TestLoad_BadIntKeepsDefault(t *testing.T) {
	t.Setenv("SLA_HIGH_MINUTES", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.SLA.HighMinutes)
}

func TestSLAConfigThresholds(t *testing.T) {
	cfg := SLAConfig{
		CriticalMinutes: 15,
		HighMinutes:     60,
		MediumMinutes:   240,
		LowMinutes:      1440,
		InfoMinutes:     0,
	}
	thresholds := cfg.Thresholds()

	assert.Equal(t, 15*time.Minute, thresholds[domain.SeverityCritical])
	assert.Equal(t, time.Hour, thresholds[domain.SeverityHigh])
	assert.Equal(t, 4*time.Hour, thresholds[domain.SeverityMedium])
	assert.Equal(t, 24*time.Hour, thresholds[domain.SeverityLow])

	_, configured := thresholds[domain.SeverityInfo]
	assert.False(t, configured, "zero minutes disables the severity")
}

func TestSweepInterval_FloorsBadValues(t *testing.T) {
	assert.Equal(t, time.Minute, SLAConfig{SweepIntervalSeconds: 0}.SweepInterval())
	assert.Equal(t, time.Minute, SLAConfig{SweepIntervalSeconds: -5}.SweepInterval())
	assert.Equal(t, 30*time.Second, SLAConfig{SweepIntervalSeconds: 30}.SweepInterval())
}
