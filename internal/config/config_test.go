package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)

	cfg, err := Load()
	req.NoError(err)

	req.Equal("http://localhost:3000", cfg.BaseURL)
	req.Equal(DefaultEndpoint, cfg.Endpoint)
	req.True(cfg.NoiseFilter)
	req.Equal("info", cfg.LogLevel)

	u, err := cfg.EndpointURL()
	req.NoError(err)
	req.Equal("http://localhost:3000/api/connection-details", u)
}

func TestLoad_EnvOverrides(t *testing.T) {
	req := require.New(t)

	t.Setenv("VOICELINE_BASE_URL", "https://assistant.example.com")
	t.Setenv("VOICELINE_ENDPOINT", "/token")
	t.Setenv("VOICELINE_NOISE_FILTER", "false")

	cfg, err := Load()
	req.NoError(err)

	req.False(cfg.NoiseFilter)
	u, err := cfg.EndpointURL()
	req.NoError(err)
	req.Equal("https://assistant.example.com/token", u)
}

func TestEndpointURL_AbsoluteEndpointWins(t *testing.T) {
	req := require.New(t)

	cfg := &Config{BaseURL: "http://localhost:3000", Endpoint: "https://issuer.example.com/api/connection-details"}
	u, err := cfg.EndpointURL()
	req.NoError(err)
	req.Equal("https://issuer.example.com/api/connection-details", u)
}
