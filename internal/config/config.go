package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// DefaultEndpoint is the well-known relative path of the credential issuer.
const DefaultEndpoint = "/api/connection-details"

type Config struct {
	BaseURL         string `mapstructure:"base_url"`
	Endpoint        string `mapstructure:"endpoint"`
	ParticipantName string `mapstructure:"participant_name"`
	CaptureDevice   string `mapstructure:"capture_device"`
	NoiseFilter     bool   `mapstructure:"noise_filter"`
	LogLevel        string `mapstructure:"log_level"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile("config/config.yaml")

	v.SetEnvPrefix("VOICELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("base_url", "http://localhost:3000")
	v.SetDefault("endpoint", DefaultEndpoint)
	v.SetDefault("participant_name", "")
	v.SetDefault("capture_device", "")
	v.SetDefault("noise_filter", true)
	v.SetDefault("log_level", "info")

	// The config file is optional; env vars and defaults are enough.
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// EndpointURL resolves the credential endpoint. An absolute endpoint wins;
// a relative one is joined onto the base URL.
func (c *Config) EndpointURL() (string, error) {
	ep, err := url.Parse(c.Endpoint)
	if err != nil {
		return "", fmt.Errorf("bad endpoint %q: %w", c.Endpoint, err)
	}
	if ep.IsAbs() {
		return ep.String(), nil
	}
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("bad base url %q: %w", c.BaseURL, err)
	}
	return base.ResolveReference(ep).String(), nil
}
