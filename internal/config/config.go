package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
	BackendS3       = "s3"
	BackendFile     = "file"
)

type Config struct {
	Server struct {
		Address             string   `yaml:"address"`
		APIKey              string   `yaml:"api_key"`
		AllowedOrigins      []string `yaml:"allowed_origins"`
		ReadTimeoutSeconds  int      `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int      `yaml:"write_timeout_seconds"`
		RateLimitPerSecond  float64  `yaml:"rate_limit_per_second"`
		RateLimitBurst      int      `yaml:"rate_limit_burst"`
	} `yaml:"server"`

	Scheduler struct {
		MaxSchedules int `yaml:"max_schedules"`
	} `yaml:"scheduler"`

	Catalog struct {
		Backend string `yaml:"backend"`
		// SQLitePath is the table store file for the sqlite backend and the importer.
		SQLitePath string `yaml:"sqlite_path"`
		// Table is the DynamoDB table name.
		Table string `yaml:"table"`
		// Bucket and Key locate the snapshot object for the s3 backend.
		Bucket string `yaml:"bucket"`
		Key    string `yaml:"key"`
		// SnapshotPath is the local snapshot for the file backend.
		SnapshotPath         string `yaml:"snapshot_path"`
		WatchIntervalSeconds int    `yaml:"watch_interval_seconds"`
	} `yaml:"catalog"`

	AWS struct {
		Region          string `yaml:"region"`
		Endpoint        string `yaml:"endpoint"`
		AccessKeyID     string `yaml:"access_key_id"`
		SecretAccessKey string `yaml:"secret_access_key"`
	} `yaml:"aws"`

	Redis struct {
		Address         string `yaml:"address"`
		Password        string `yaml:"password"`
		DB              int    `yaml:"db"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"redis"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if cfg.Catalog.Backend == BackendSQLite {
		if err = os.MkdirAll(filepath.Dir(cfg.Catalog.SQLitePath), 0o755); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Server.RateLimitBurst <= 0 {
		c.Server.RateLimitBurst = 20
	}
	c.Catalog.Backend = strings.ToLower(strings.TrimSpace(c.Catalog.Backend))
	if c.Catalog.Backend == "" {
		c.Catalog.Backend = BackendSQLite
	}
	if c.Catalog.SQLitePath == "" {
		c.Catalog.SQLitePath = "data/catalog.db"
	}
	if c.Catalog.Key == "" {
		c.Catalog.Key = "web-scraping-stepfunction/classes.json"
	}
	if c.AWS.Region == "" {
		c.AWS.Region = "us-east-1"
	}
	if c.Monitoring.HealthCheckPort == 0 {
		c.Monitoring.HealthCheckPort = 8081
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *Config) ReadTimeout() time.Duration {
	if c.Server.ReadTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Server.ReadTimeoutSeconds) * time.Second
}

func (c *Config) WriteTimeout() time.Duration {
	if c.Server.WriteTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Server.WriteTimeoutSeconds) * time.Second
}

// CacheTTL is zero when caching is off.
func (c *Config) CacheTTL() time.Duration {
	if c.Redis.Address == "" || c.Redis.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Redis.CacheTTLSeconds) * time.Second
}

func (c *Config) WatchInterval() time.Duration {
	if c.Catalog.WatchIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Catalog.WatchIntervalSeconds) * time.Second
}
