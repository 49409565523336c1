package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0.6, cfg.Generation.OptionalSegmentProbability)
	assert.Equal(t, 0.3, cfg.Generation.OptionalFieldProbability)
	assert.Equal(t, 256, cfg.Cache.MaxEntries)
	assert.False(t, cfg.Cache.UseRedis)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, m.Validate())
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("HL7FORGE_SERVER_PORT", "9999")
	t.Setenv("HL7FORGE_GENERATION_OPTIONAL_SEGMENT_PROBABILITY", "0.9")

	m, err := NewManager()
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 0.9, cfg.Generation.OptionalSegmentProbability)
}

func TestValidateRejectsBadValues(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	m.config.Server.Port = -1
	assert.Error(t, m.Validate())

	m.config.Server.Port = 8080
	m.config.Generation.OptionalFieldProbability = 1.5
	assert.Error(t, m.Validate())

	m.config.Generation.OptionalFieldProbability = 0.3
	m.config.Logging.Level = "chatty"
	assert.Error(t, m.Validate())

	m.config.Logging.Level = "debug"
	m.config.Cache.UseRedis = true
	m.config.Cache.RedisURL = ""
	assert.Error(t, m.Validate())
}

func TestIsProduction(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	assert.False(t, m.IsProduction())
	m.config.Environment = "Production"
	assert.True(t, m.IsProduction())
}
