package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultEnv, cfg.Env)
	assert.Equal(t, DefaultTrustBaseline, cfg.TrustBaseline)
	assert.Equal(t, DefaultTrustHistoryLimit, cfg.TrustHistoryLimit)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("TRUST_BASELINE", "60.5")
	t.Setenv("CORS_ORIGINS", "https://demo.example.com, https://other.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 60.5, cfg.TrustBaseline)
	assert.Equal(t, []string{"https://demo.example.com", "https://other.example.com"}, cfg.CORSOrigins)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults ok", func(c *Config) {}, false},
		{"baseline too high", func(c *Config) { c.TrustBaseline = 150 }, true},
		{"baseline negative", func(c *Config) { c.TrustBaseline = -1 }, true},
		{"history zero", func(c *Config) { c.TrustHistoryLimit = 0 }, true},
		{"rate limit zero", func(c *Config) { c.RateLimitRPM = 0 }, true},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{
				Port:              DefaultPort,
				Env:               DefaultEnv,
				LogLevel:          DefaultLogLevel,
				LogFormat:         DefaultLogFormat,
				RateLimitRPM:      DefaultRateLimitRPM,
				TrustBaseline:     DefaultTrustBaseline,
				TrustHistoryLimit: DefaultTrustHistoryLimit,
			}
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBadEnvValuesFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPM", "not-a-number")
	t.Setenv("TRUST_BASELINE", "also-not")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultRateLimitRPM, cfg.RateLimitRPM)
	assert.Equal(t, DefaultTrustBaseline, cfg.TrustBaseline)
}
