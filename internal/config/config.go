package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Store        StoreConfig     `yaml:"store"`
	Telemetry    TelemetryConfig `yaml:"telemetry"`
	Scan         ScanConfig      `yaml:"scan"`
	Server       ServerConfig    `yaml:"server"`
	Logger       LoggerConfig    `yaml:"logger"`
	OutputFormat string          `yaml:"output_format"`
	MinRisk      string          `yaml:"min_risk"`
	Slack        SlackConfig     `yaml:"slack"`
}

type StoreConfig struct {
	Backend   string         `yaml:"backend"` // memory, file, redis, minio, postgres
	KeyPrefix string         `yaml:"key_prefix"`
	File      FileConfig     `yaml:"file"`
	Redis     RedisConfig    `yaml:"redis"`
	MinIO     MinIOConfig    `yaml:"minio"`
	Postgres  PostgresConfig `yaml:"postgres"`
}

type FileConfig struct {
	Dir string `yaml:"dir"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type PostgresConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

type TelemetryConfig struct {
	Provider      string        `yaml:"provider"` // inventory, simulated, ssm
	InventoryFile string        `yaml:"inventory_file"`
	Seed          int64         `yaml:"seed"`
	Timeout       time.Duration `yaml:"timeout"`
	SSM           SSMConfig     `yaml:"ssm"`
}

type SSMConfig struct {
	Region   string `yaml:"region"`
	Instance string `yaml:"instance"` // instance id or Name tag
}

type ScanConfig struct {
	Workers     int    `yaml:"workers"`
	MetricsFile string `yaml:"metrics_file"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	Channel    string `yaml:"channel"`
}

// Default is the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: "file",
			File:    FileConfig{Dir: ".minewatch"},
			Redis:   RedisConfig{Addr: "localhost:6379"},
			MinIO:   MinIOConfig{Bucket: "minewatch"},
			Postgres: PostgresConfig{
				Table: "kv_store",
			},
		},
		Telemetry: TelemetryConfig{
			Provider: "simulated",
			Seed:     1,
			Timeout:  10 * time.Second,
			SSM:      SSMConfig{Region: "us-east-1"},
		},
		Scan:   ScanConfig{Workers: 4},
		Server: ServerConfig{Addr: ":8080", ReadTimeout: 10 * time.Second, WriteTimeout: 30 * time.Second},
		Logger: LoggerConfig{Level: "info", Format: "console"},
	}
}

// LoadConfig reads the YAML file at path over the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.OutputFormat != "" && c.OutputFormat != "table" && c.OutputFormat != "json" {
		return fmt.Errorf("invalid output_format: %s", c.OutputFormat)
	}

	validRisks := map[string]bool{"LOW": true, "MEDIUM": true, "HIGH": true}
	if c.MinRisk != "" && !validRisks[c.MinRisk] {
		return fmt.Errorf("invalid min_risk: %s", c.MinRisk)
	}

	switch c.Store.Backend {
	case "memory":
	case "file":
		if c.Store.File.Dir == "" {
			return fmt.Errorf("store.file.dir is required for the file backend")
		}
	case "redis":
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required for the redis backend")
		}
	case "minio":
		if c.Store.MinIO.Endpoint == "" || c.Store.MinIO.Bucket == "" {
			return fmt.Errorf("store.minio.endpoint and store.minio.bucket are required for the minio backend")
		}
	case "postgres":
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("store.postgres.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("invalid store.backend: %s", c.Store.Backend)
	}

	switch c.Telemetry.Provider {
	case "simulated":
	case "inventory":
		if c.Telemetry.InventoryFile == "" {
			return fmt.Errorf("telemetry.inventory_file is required for the inventory provider")
		}
	case "ssm":
		if c.Telemetry.SSM.Instance == "" {
			return fmt.Errorf("telemetry.ssm.instance is required for the ssm provider")
		}
	default:
		return fmt.Errorf("invalid telemetry.provider: %s", c.Telemetry.Provider)
	}

	if c.Telemetry.Timeout <= 0 {
		return fmt.Errorf("telemetry.timeout must be positive")
	}
	if c.Scan.Workers < 1 {
		return fmt.Errorf("scan.workers must be at least 1")
	}

	return nil
}
