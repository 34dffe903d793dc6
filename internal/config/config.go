package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Inventory    InventoryConfig    `yaml:"inventory"`
	Catalog      CatalogConfig      `yaml:"catalog"`
	Notification NotificationConfig `yaml:"notification"`
	JWT          JWTConfig          `yaml:"jwt"`
	Log          LogConfig          `yaml:"log"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
}

// ServerConfig contains gRPC and HTTP listener settings
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	HTTPPort       int      `yaml:"http_port"`
	AllowedOrigins []string `yaml:"allowed_origins"` // status API CORS, default any
}

// DatabaseConfig contains store settings. Driver is "postgres" or "memory".
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	Migrate  bool   `yaml:"migrate"`
}

// InventoryConfig contains reservation engine settings
type InventoryConfig struct {
	PenaltyPerDayCents  int64 `yaml:"penalty_per_day_cents"`
	LockTimeoutMillis   int   `yaml:"lock_timeout_ms"`
	BusyRetries         int   `yaml:"busy_retries"`
	DefaultMinimumStock int64 `yaml:"default_minimum_stock"`
}

// CatalogConfig contains equipment catalog cache settings
type CatalogConfig struct {
	CacheSize       int            `yaml:"cache_size"`
	CacheTTLSeconds int            `yaml:"cache_ttl_seconds"`
	Seed            []CatalogEntry `yaml:"seed"` // memory driver only
}

// CatalogEntry describes one equipment item for the memory driver
type CatalogEntry struct {
	EquipmentID  string `yaml:"equipment_id"`
	Name         string `yaml:"name"`
	BaseQuantity int64  `yaml:"base_quantity"`
	SizeCategory string `yaml:"size_category"`
	Condition    string `yaml:"condition"`
	MinimumStock int64  `yaml:"minimum_stock"`
}

// NotificationConfig selects and configures event sinks
type NotificationConfig struct {
	Sinks    []string       `yaml:"sinks"` // any of "log", "email", "amqp"
	SendGrid SendGridConfig `yaml:"sendgrid"`
	AMQP     AMQPConfig     `yaml:"amqp"`
}

// SendGridConfig contains e-mail sink settings
type SendGridConfig struct {
	APIKey     string `yaml:"api_key"`
	FromEmail  string `yaml:"from_email"`
	FromName   string `yaml:"from_name"`
	StaffEmail string `yaml:"staff_email"`
}

// AMQPConfig contains message broker sink settings
type AMQPConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

// JWTConfig contains actor token settings
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	CheckOverdueTransactions string `yaml:"check_overdue_transactions"`
	ReconcileStock           string `yaml:"reconcile_stock"`
}

// Load reads configuration from a YAML file. A .env file next to the
// working directory is loaded first when present.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_DRIVER"); val != "" {
		c.Database.Driver = val
	}
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}
	if val := os.Getenv("SERVER_HTTP_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.HTTPPort)
	}
	if val := os.Getenv("SERVER_ALLOWED_ORIGINS"); val != "" {
		c.Server.AllowedOrigins = strings.Split(val, ",")
	}

	// Inventory
	if val := os.Getenv("PENALTY_PER_DAY_CENTS"); val != "" {
		fmt.Sscanf(val, "%d", &c.Inventory.PenaltyPerDayCents)
	}
	if val := os.Getenv("LOCK_TIMEOUT_MS"); val != "" {
		fmt.Sscanf(val, "%d", &c.Inventory.LockTimeoutMillis)
	}

	// Notification
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Notification.SendGrid.APIKey = val
	}
	if val := os.Getenv("AMQP_URL"); val != "" {
		c.Notification.AMQP.URL = val
	}
	if val := os.Getenv("NOTIFICATION_SINKS"); val != "" {
		c.Notification.Sinks = strings.Split(val, ",")
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = c.Server.Port + 1
	}
	if c.Server.HTTPPort < 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid http port: %d", c.Server.HTTPPort)
	}

	// Database validation
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}

	// Inventory defaults
	if c.Inventory.PenaltyPerDayCents < 0 {
		return fmt.Errorf("penalty per day cannot be negative: %d", c.Inventory.PenaltyPerDayCents)
	}
	if c.Inventory.PenaltyPerDayCents == 0 {
		c.Inventory.PenaltyPerDayCents = 1000 // 10.00 per day
	}
	if c.Inventory.LockTimeoutMillis <= 0 {
		c.Inventory.LockTimeoutMillis = 3000
	}
	if c.Inventory.BusyRetries <= 0 {
		c.Inventory.BusyRetries = 3
	}
	if c.Inventory.DefaultMinimumStock <= 0 {
		c.Inventory.DefaultMinimumStock = 1
	}

	// Catalog defaults
	if c.Catalog.CacheSize <= 0 {
		c.Catalog.CacheSize = 512
	}
	if c.Catalog.CacheTTLSeconds <= 0 {
		c.Catalog.CacheTTLSeconds = 60
	}

	// Notification validation
	if len(c.Notification.Sinks) == 0 {
		c.Notification.Sinks = []string{"log"}
	}
	for i, sink := range c.Notification.Sinks {
		sink = strings.ToLower(strings.TrimSpace(sink))
		c.Notification.Sinks[i] = sink
		switch sink {
		case "log":
		case "email":
			if c.Notification.SendGrid.APIKey == "" {
				return fmt.Errorf("sendgrid api key is required for the email sink")
			}
			if c.Notification.SendGrid.StaffEmail == "" {
				return fmt.Errorf("staff email is required for the email sink")
			}
		case "amqp":
			if c.Notification.AMQP.URL == "" {
				return fmt.Errorf("amqp url is required for the amqp sink")
			}
			if c.Notification.AMQP.Exchange == "" {
				c.Notification.AMQP.Exchange = "inventory.events"
			}
		default:
			return fmt.Errorf("unsupported notification sink: %s", sink)
		}
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	// Scheduler defaults
	if c.Scheduler.CheckOverdueTransactions == "" {
		c.Scheduler.CheckOverdueTransactions = "0 0 9 * * *" // Daily at 9 AM UTC
	}
	if c.Scheduler.ReconcileStock == "" {
		c.Scheduler.ReconcileStock = "0 0 2 * * *" // Daily at 2 AM UTC
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the gRPC server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetHTTPAddress returns the status API address
func (c *Config) GetHTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}

// LockTimeout returns the bounded wait for a per-equipment lock
func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.Inventory.LockTimeoutMillis) * time.Millisecond
}

// CatalogCacheTTL returns how long catalog entries stay cached
func (c *Config) CatalogCacheTTL() time.Duration {
	return time.Duration(c.Catalog.CacheTTLSeconds) * time.Second
}

// HasSink reports whether the named notification sink is enabled
func (c *Config) HasSink(name string) bool {
	for _, s := range c.Notification.Sinks {
		if s == name {
			return true
		}
	}
	return false
}
