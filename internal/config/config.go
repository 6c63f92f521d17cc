package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     AuthConfig     `yaml:"auth"`
	Mirror   MirrorConfig   `yaml:"mirror"`
	Listings ListingsConfig `yaml:"listings"`
	Workers  WorkersConfig  `yaml:"workers"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Env     string `yaml:"env"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
}

type DatabaseConfig struct {
	// Driver is "mysql" or "sqlite".
	Driver             string        `yaml:"driver"`
	Path               string        `yaml:"path"` // sqlite only
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	Charset            string        `yaml:"charset"`
	ParseTime          bool          `yaml:"parse_time"`
	Loc                string        `yaml:"loc"`
	MaxConnections     int           `yaml:"max_connections"`
	MaxIdleConnections int           `yaml:"max_idle_connections"`
	ConnectionLifetime time.Duration `yaml:"connection_lifetime"`
	MigrateOnStart     bool          `yaml:"migrate_on_start"`
}

type RedisConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	Password      string `yaml:"password"`
	DB            int    `yaml:"db"`
	PoolSize      int    `yaml:"pool_size"`
	MirrorQueue   string `yaml:"mirror_queue"`
	ImportQueue   string `yaml:"import_queue"`
	DLQSuffix     string `yaml:"dlq_suffix"`
	SessionPrefix string `yaml:"session_prefix"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
	// PublicBaseURL is the prefix used to build durable asset URLs.
	// Defaults to the path-style endpoint/bucket URL.
	PublicBaseURL string `yaml:"public_base_url"`
}

type AuthConfig struct {
	SessionTTL time.Duration `yaml:"session_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

type MirrorConfig struct {
	WebhookURL        string        `yaml:"webhook_url"`
	Timeout           time.Duration `yaml:"timeout"`
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryDelay        time.Duration `yaml:"retry_delay"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	BackfillWorkers   int           `yaml:"backfill_workers"`
}

type ListingsConfig struct {
	Collection string `yaml:"collection"`
}

type WorkersConfig struct {
	Mirror MirrorWorkerConfig `yaml:"mirror"`
	Import ImportWorkerConfig `yaml:"import"`
	Export ExportWorkerConfig `yaml:"export"`
}

type MirrorWorkerConfig struct {
	Count int `yaml:"count"`
}

type ImportWorkerConfig struct {
	Count int `yaml:"count"`
}

type ExportWorkerConfig struct {
	RunOnStart bool   `yaml:"run_on_start"`
	Prefix     string `yaml:"prefix"`
	Timezone   string `yaml:"timezone"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse unmarshals YAML config data and fills in defaults for unset fields.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "placement-portal"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = 10 << 20
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.Charset == "" {
		c.Database.Charset = "utf8mb4"
	}
	if c.Database.Loc == "" {
		c.Database.Loc = "UTC"
	}
	if c.Redis.MirrorQueue == "" {
		c.Redis.MirrorQueue = "placement:mirror"
	}
	if c.Redis.ImportQueue == "" {
		c.Redis.ImportQueue = "placement:import"
	}
	if c.Redis.DLQSuffix == "" {
		c.Redis.DLQSuffix = ":dlq"
	}
	if c.Redis.SessionPrefix == "" {
		c.Redis.SessionPrefix = "placement:session:"
	}
	if c.Auth.SessionTTL == 0 {
		c.Auth.SessionTTL = 24 * time.Hour
	}
	if c.Mirror.Timeout == 0 {
		c.Mirror.Timeout = 30 * time.Second
	}
	if c.Mirror.RetryAttempts == 0 {
		c.Mirror.RetryAttempts = 3
	}
	if c.Mirror.RetryDelay == 0 {
		c.Mirror.RetryDelay = time.Second
	}
	if c.Mirror.RequestsPerSecond == 0 {
		c.Mirror.RequestsPerSecond = 2
	}
	if c.Mirror.Burst == 0 {
		c.Mirror.Burst = 1
	}
	if c.Mirror.BackfillWorkers == 0 {
		c.Mirror.BackfillWorkers = 4
	}
	if c.Listings.Collection == "" {
		c.Listings.Collection = "company_data"
	}
	if c.Workers.Mirror.Count == 0 {
		c.Workers.Mirror.Count = 2
	}
	if c.Workers.Import.Count == 0 {
		c.Workers.Import.Count = 1
	}
	if c.Workers.Export.Prefix == "" {
		c.Workers.Export.Prefix = "exports/"
	}
	if c.Workers.Export.Timezone == "" {
		c.Workers.Export.Timezone = "UTC"
	}
}

// MySQL DSN format: [username[:password]@][protocol[(address)]]/dbname[?param1=value1&...&paramN=valueN]
func (c *Config) DatabaseDSN() string {
	if c.Database.Driver == "sqlite" {
		// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
		return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", c.Database.Path)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=%s",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port,
		c.Database.Name, c.Database.Charset, c.Database.ParseTime, url.QueryEscape(c.Database.Loc))
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// AssetBaseURL returns the prefix for public object URLs, without a trailing slash.
func (c *Config) AssetBaseURL() string {
	s3cfg := c.Storage.S3
	if s3cfg.PublicBaseURL != "" {
		return strings.TrimRight(s3cfg.PublicBaseURL, "/")
	}
	endpoint := strings.TrimRight(s3cfg.Endpoint, "/")
	if !strings.Contains(endpoint, "://") {
		scheme := "http"
		if s3cfg.UseSSL {
			scheme = "https"
		}
		endpoint = scheme + "://" + endpoint
	}
	return endpoint + "/" + s3cfg.Bucket
}
