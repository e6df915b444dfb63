package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	applogger "BrentCast/pkg/logger"
	"BrentCast/pkg/util"

	"gopkg.in/yaml.v3"
)

// ModelSpec registers one forecasting model.
type ModelSpec struct {
	Name      string  `yaml:"name"`
	Variant   string  `yaml:"variant"`
	Lookback  int     `yaml:"lookback"`
	Artifact  string  `yaml:"artifact"`
	Scaler    string  `yaml:"scaler"`
	RMSE      float64 `yaml:"rmse"`
	RemoteURL string  `yaml:"remote_url"`
}

// CORSConfig is the cross-origin policy of the public API.
type CORSConfig struct {
	Enabled      bool          `yaml:"enabled"`
	AllowOrigins []string      `yaml:"allow_origins"`
	AllowMethods []string      `yaml:"allow_methods"`
	MaxAge       time.Duration `yaml:"max_age"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		SlowThreshold   time.Duration `yaml:"slow_threshold"`
		CORS            CORSConfig    `yaml:"cors"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
	Logging applogger.Config `yaml:"logging"`
	Ipea    struct {
		BaseURL         string        `yaml:"base_url"`
		SeriesCode      string        `yaml:"series_code"`
		YearGreaterThan int           `yaml:"year_greater_than"`
		Timeout         time.Duration `yaml:"timeout"`
	} `yaml:"ipeadata"`
	Models struct {
		Dir            string        `yaml:"dir"`
		CacheSize      int           `yaml:"cache_size"`
		RemoteTimeout  time.Duration `yaml:"remote_timeout"`
		RemoteAttempts int           `yaml:"remote_attempts"`
		Specs          []ModelSpec   `yaml:"specs"`
	} `yaml:"models"`
	Forecast struct {
		DefaultHorizon  int           `yaml:"default_horizon"`
		StepBudget      int           `yaml:"step_budget"`
		FailOnNonFinite bool          `yaml:"fail_on_non_finite"`
		Timeout         time.Duration `yaml:"timeout"`
		HistoryDays     int           `yaml:"history_days"`
	} `yaml:"forecast"`
	Cache struct {
		SeriesTTL  time.Duration `yaml:"series_ttl"`
		MemorySize int           `yaml:"memory_size"`
	} `yaml:"cache"`
	Redis struct {
		Enabled   bool   `yaml:"enabled"`
		Host      string `yaml:"host"`
		Port      int    `yaml:"port"`
		Password  string `yaml:"password"`
		DB        int    `yaml:"db"`
		Prefix    string `yaml:"prefix"`
		LockOwner string `yaml:"lock_owner"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Encoding     string   `yaml:"encoding"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Scheduler struct {
		Enabled      bool   `yaml:"enabled"`
		RefreshCron  string `yaml:"refresh_cron"`
		ForecastCron string `yaml:"forecast_cron"`
		RunOnStart   bool   `yaml:"run_on_start"`
	} `yaml:"scheduler"`
	RateLimit struct {
		Capacity     float64 `yaml:"capacity"`
		RefillPerSec float64 `yaml:"refill_per_sec"`
	} `yaml:"rate_limit"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func read(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML, overrides it with environment variables
// and validates the result.
func LoadWithEnv(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := os.Getenv("CORS_ALLOW_ORIGINS"); v != "" {
		c.Server.CORS.AllowOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("IPEA_BASE_URL"); v != "" {
		c.Ipea.BaseURL = v
	}
	if v := os.Getenv("MODEL_DIR"); v != "" {
		c.Models.Dir = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Default returns a configuration with the production defaults filled in;
// the YAML file overrides any field it sets.
func Default() *Config {
	c := &Config{Environment: "development"}
	c.Server.Port = 8080
	c.Server.ReadTimeout = 10 * time.Second
	c.Server.WriteTimeout = 30 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Server.SlowThreshold = time.Second
	c.Server.CORS = CORSConfig{
		Enabled:      true,
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		MaxAge:       10 * time.Minute,
	}
	c.Metrics.Enabled = true
	c.Logging = applogger.Config{Level: "info", Format: "console", Output: "stdout"}
	c.Ipea.BaseURL = "http://www.ipeadata.gov.br/api/odata4"
	c.Ipea.SeriesCode = "EIA366_PBRENT366"
	c.Ipea.YearGreaterThan = 1999
	c.Ipea.Timeout = 30 * time.Second
	c.Models.Dir = "models"
	c.Models.CacheSize = 16
	c.Models.RemoteTimeout = 3 * time.Second
	c.Models.RemoteAttempts = 3
	c.Forecast.DefaultHorizon = 15
	c.Forecast.StepBudget = 365
	c.Forecast.FailOnNonFinite = true
	c.Forecast.Timeout = 10 * time.Second
	c.Forecast.HistoryDays = 365
	c.Cache.SeriesTTL = 6 * time.Hour
	c.Cache.MemorySize = 64
	c.Redis.Host = "localhost"
	c.Redis.Port = 6379
	c.Redis.Prefix = "brentcast"
	c.Kafka.Topic = "brentcast.forecasts"
	c.Kafka.RequiredAcks = -1
	c.Kafka.Compression = "gzip"
	c.Kafka.Encoding = "json"
	c.ClickHouse.Port = 9000
	c.ClickHouse.Database = "brentcast"
	c.ClickHouse.User = "default"
	c.Scheduler.RefreshCron = "0 0 6 * * *"
	c.Scheduler.ForecastCron = "0 30 6 * * *"
	c.RateLimit.Capacity = 30
	c.RateLimit.RefillPerSec = 1
	return c
}

// Model returns the model settings registered under name.
func (c *Config) Model(name string) (ModelSpec, bool) {
	for _, m := range c.Models.Specs {
		if m.Name == name {
			return m, true
		}
	}
	return ModelSpec{}, false
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.CORS.Enabled && len(c.Server.CORS.AllowOrigins) == 0 {
		return fmt.Errorf("server.cors.allow_origins cannot be empty when cors is enabled")
	}
	if c.Ipea.SeriesCode == "" {
		return fmt.Errorf("ipeadata.series_code is required")
	}
	if len(c.Models.Specs) == 0 {
		return fmt.Errorf("models.specs cannot be empty")
	}
	seen := map[string]bool{}
	for i, m := range c.Models.Specs {
		if m.Name == "" {
			return fmt.Errorf("models.specs[%d].name is required", i)
		}
		if seen[m.Name] {
			return fmt.Errorf("models.specs[%d]: duplicate model %q", i, m.Name)
		}
		seen[m.Name] = true
		if m.Variant != "flat" && m.Variant != "sequenced" {
			return fmt.Errorf("models.specs[%d].variant must be 'flat' or 'sequenced', got '%s'", i, m.Variant)
		}
		if m.Lookback <= 0 {
			return fmt.Errorf("models.specs[%d].lookback must be positive", i)
		}
		if m.Artifact == "" && m.RemoteURL == "" {
			return fmt.Errorf("models.specs[%d]: artifact or remote_url is required", i)
		}
	}
	if c.Forecast.DefaultHorizon < 0 {
		return fmt.Errorf("forecast.default_horizon cannot be negative")
	}
	if c.Forecast.StepBudget > 0 && c.Forecast.DefaultHorizon > c.Forecast.StepBudget {
		return fmt.Errorf("forecast.default_horizon %d exceeds step_budget %d", c.Forecast.DefaultHorizon, c.Forecast.StepBudget)
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required when kafka is enabled")
		}
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("redis.host is required when redis is enabled")
	}
	return nil
}
