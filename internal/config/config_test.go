package config

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filing-service/internal/money"
)

func validConfig() *Config {
	return &Config{
		FilingTimezone:     "Europe/Prague",
		RoundingMode:       "half_up",
		SnapshotTTLMinutes: 60,
		LogLevel:           "debug",
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	badZone := validConfig()
	badZone.FilingTimezone = "Mars/Olympus"
	assert.Error(t, badZone.Validate())

	badRounding := validConfig()
	badRounding.RoundingMode = "ceiling"
	assert.Error(t, badRounding.Validate())

	badTTL := validConfig()
	badTTL.SnapshotTTLMinutes = 0
	assert.Error(t, badTTL.Validate())
}

func TestDerivedValues(t *testing.T) {
	cfg := validConfig()
	cfg.RoundingMode = "HALF_EVEN"

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Prague", loc.String())

	mode, err := cfg.Rounding()
	require.NoError(t, err)
	assert.Equal(t, money.HalfEven, mode)

	assert.Equal(t, time.Hour, cfg.SnapshotTTL())
	assert.Equal(t, logrus.DebugLevel, cfg.NewLogger().GetLevel())

	cfg.LogLevel = "loud"
	assert.Equal(t, logrus.InfoLevel, cfg.NewLogger().GetLevel())
}

func TestInitRedisDisabled(t *testing.T) {
	client, err := InitRedis(context.Background(), validConfig())
	assert.NoError(t, err)
	assert.Nil(t, client)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("FILING_TEST_VALUE", "set")
	assert.Equal(t, "set", getEnv("FILING_TEST_VALUE", "default"))
	assert.Equal(t, "default", getEnv("FILING_TEST_MISSING", "default"))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STAFF_SERVICE_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("DB_PASSWORD_SECRET_NAME", "")

	cfg := Load()
	assert.Equal(t, "http://staff-service:8080", cfg.StaffServiceURL)
	assert.Equal(t, "8093", cfg.Port)
}
