package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefault(t *testing.T) {
	cfg := NewDefault()
	require.NotNil(t, cfg)

	assert.Equal(t, "pgsql", cfg.Database.Type)
	assert.Equal(t, ":3443", cfg.Service.Address)
	assert.Equal(t, "info", cfg.Service.LogLevel)

	assert.Equal(t, 5*time.Minute, cfg.Recovery.GracePeriod)
	assert.Equal(t, 10*time.Second, cfg.Recovery.SettleDelay)

	assert.InDelta(t, 0.2, cfg.Translation.MinLengthRatio, 0.0001)
	assert.Equal(t, 50, cfg.Translation.LongUnitThreshold)
	assert.Equal(t, 2, cfg.Translation.DocumentRetries)
}
