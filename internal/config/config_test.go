package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultLocalID, cfg.LocalID)
	assert.Equal(t, 10, cfg.SearchPageSize)
	assert.Equal(t, 20*time.Second, cfg.Timeout)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		mut  func(c *Config)
	}{
		{"empty base url", func(c *Config) { c.APIBaseURL = "" }},
		{"base url not a url", func(c *Config) { c.APIBaseURL = "not a url" }},
		{"empty local", func(c *Config) { c.LocalID = "" }},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }},
		{"search page too large", func(c *Config) { c.SearchPageSize = 500 }},
		{"metrics addr without port", func(c *Config) { c.MetricsAddr = "localhost" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mut(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
