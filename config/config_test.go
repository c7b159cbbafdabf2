package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "https://public.api.bsky.app", cfg.SocialFeedHost)
	assert.Equal(t, 3, cfg.AutoVerifyThreshold)
	assert.InDelta(t, 5.0, cfg.RadarCorroborationMM, 1e-9)
	assert.Equal(t, 0, cfg.SyntheticIntervalSec, "synthetic generator defaults to off")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("AUTO_VERIFY_THRESHOLD", "5")
	t.Setenv("RADAR_CORROBORATION_MM", "2.5")
	t.Setenv("SOCIAL_FEED_URI", "  at://did:plc:example/app.bsky.feed.generator/floods  ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.HTTPPort)
	assert.Equal(t, 5, cfg.AutoVerifyThreshold)
	assert.InDelta(t, 2.5, cfg.RadarCorroborationMM, 1e-9)
	assert.Equal(t, "at://did:plc:example/app.bsky.feed.generator/floods", cfg.SocialFeedURI)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("AUTO_VERIFY_THRESHOLD", "three")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.AutoVerifyThreshold)
}
