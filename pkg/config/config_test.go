package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimal = `
environment: test
models:
  specs:
    - name: xgboost
      variant: flat
      lookback: 11
      artifact: xgboost.json
      rmse: 1.74
    - name: lstm
      variant: sequenced
      lookback: 30
      remote_url: http://inference:9000
forecast:
  default_horizon: 20
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_AppliesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)

	assert.Equal(t, "test", c.Environment)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, "EIA366_PBRENT366", c.Ipea.SeriesCode)
	assert.Equal(t, 1999, c.Ipea.YearGreaterThan)
	assert.Equal(t, 20, c.Forecast.DefaultHorizon)
	assert.True(t, c.Forecast.FailOnNonFinite)
	assert.Equal(t, 6*time.Hour, c.Cache.SeriesTTL)
	assert.True(t, c.Server.CORS.Enabled)
	assert.Equal(t, []string{"*"}, c.Server.CORS.AllowOrigins)
	assert.Equal(t, 10*time.Minute, c.Server.CORS.MaxAge)

	m, ok := c.Model("lstm")
	require.True(t, ok)
	assert.Equal(t, "sequenced", m.Variant)
	assert.Equal(t, 30, m.Lookback)
	_, ok = c.Model("prophet")
	assert.False(t, ok)
}

func TestLoadWithEnv_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://brent.example,https://ops.example")

	c, err := LoadWithEnv(writeConfig(t, minimal))
	require.NoError(t, err)
	assert.Equal(t, 9999, c.Server.Port)
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.Kafka.Brokers)
	assert.Equal(t, "debug", c.Logging.Level)
	assert.Equal(t, []string{"https://brent.example", "https://ops.example"}, c.Server.CORS.AllowOrigins)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"no models":        func(c *Config) { c.Models.Specs = nil },
		"bad variant":      func(c *Config) { c.Models.Specs[0].Variant = "stacked" },
		"zero lookback":    func(c *Config) { c.Models.Specs[0].Lookback = 0 },
		"no artifact":      func(c *Config) { c.Models.Specs[0].Artifact = "" },
		"duplicate":        func(c *Config) { c.Models.Specs[1].Name = "xgboost" },
		"horizon > budget": func(c *Config) { c.Forecast.DefaultHorizon = 400 },
		"kafka no brokers": func(c *Config) { c.Kafka.Enabled = true; c.Kafka.Brokers = nil },
		"clickhouse host":  func(c *Config) { c.ClickHouse.Enabled = true; c.ClickHouse.Host = "" },
		"cors no origins":  func(c *Config) { c.Server.CORS.AllowOrigins = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c, err := Load(writeConfig(t, minimal))
			require.NoError(t, err)
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoad_RepositoryConfig(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)
	assert.Len(t, c.Models.Specs, 2)
}
