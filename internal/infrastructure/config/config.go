package config

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Vault     VaultConfig
	Policy    PolicyConfig
	Sync      SyncConfig
	Scheduler SchedulerConfig
	Market    MarketConfig
	Log       LogConfig
	HTTP      HTTPConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// VaultConfig holds credential encryption settings
type VaultConfig struct {
	// MasterKey is the hex-encoded 256-bit key the credential vault
	// encrypts and decrypts seller API keys with.
	MasterKey string
}

// PolicyConfig holds outbound delivery policy settings. Raw values are
// clamped by the retry executor; only defaults are applied here.
type PolicyConfig struct {
	// MaxRetries is the per-request re-attempt count (0-5).
	MaxRetries int
	// RetryBaseDelayMs is the backoff unit in milliseconds (100-10000).
	RetryBaseDelayMs int
	// PushEnabled globally gates outbound pushes. When false every push is
	// recorded as skipped instead of delivered.
	PushEnabled bool
	// MockEnabled routes all marketplace traffic to deterministic mock
	// gateways. Development and staging only.
	MockEnabled bool
	// DefaultCourier is the internal courier code forwarded when a row's
	// courier cannot be resolved.
	DefaultCourier string
}

// SyncConfig holds inbound sync settings
type SyncConfig struct {
	// LookbackMinutes is the default sync window length.
	LookbackMinutes int
	// PageCap bounds the number of pages fetched per credential per sync.
	PageCap int
}

// SchedulerConfig holds background sync scheduler settings. The scheduler
// is opt-in; manual sync endpoints work regardless.
type SchedulerConfig struct {
	// Enabled turns the background sync worker pool on.
	Enabled bool
	// Workers is the number of concurrent sync jobs.
	Workers int
	// JobTimeoutMinutes is the per-job execution deadline.
	JobTimeoutMinutes int
	// OrderIntervalMinutes is the gap between order pulls per owner.
	OrderIntervalMinutes int
	// InquiryIntervalMinutes is the gap between inquiry pulls per owner.
	InquiryIntervalMinutes int
}

// MarketConfig holds per-marketplace endpoint settings
type MarketConfig struct {
	CoupangBaseURL    string
	SmartStoreBaseURL string
	TimeoutSeconds    int
	PageSize          int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	TrustedProxies []string
	// CORSAllowOrigins lists allowed browser origins; empty denies all
	// cross-origin requests.
	CORSAllowOrigins []string
}

const (
	// maxLookbackMinutes caps the sync window at 30 days.
	maxLookbackMinutes = 43200
	// masterKeyHexLen is the length of a hex-encoded 256-bit key.
	masterKeyHexLen = 64
)

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with SELLEROPS_ prefix (e.g., SELLEROPS_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("SELLEROPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Build config struct
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Vault: VaultConfig{
			MasterKey: v.GetString("vault.master_key"),
		},
		Policy: PolicyConfig{
			MaxRetries:       v.GetInt("policy.max_retries"),
			RetryBaseDelayMs: v.GetInt("policy.retry_base_delay_ms"),
			PushEnabled:      v.GetBool("policy.push_enabled"),
			MockEnabled:      v.GetBool("policy.mock_enabled"),
			DefaultCourier:   v.GetString("policy.default_courier"),
		},
		Sync: SyncConfig{
			LookbackMinutes: v.GetInt("sync.lookback_minutes"),
			PageCap:         v.GetInt("sync.page_cap"),
		},
		Scheduler: SchedulerConfig{
			Enabled:                v.GetBool("scheduler.enabled"),
			Workers:                v.GetInt("scheduler.workers"),
			JobTimeoutMinutes:      v.GetInt("scheduler.job_timeout_minutes"),
			OrderIntervalMinutes:   v.GetInt("scheduler.order_interval_minutes"),
			InquiryIntervalMinutes: v.GetInt("scheduler.inquiry_interval_minutes"),
		},
		Market: MarketConfig{
			CoupangBaseURL:    v.GetString("market.coupang_base_url"),
			SmartStoreBaseURL: v.GetString("market.smartstore_base_url"),
			TimeoutSeconds:    v.GetInt("market.timeout_seconds"),
			PageSize:          v.GetInt("market.page_size"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
		},
	}

	// push_enabled defaults to true; viper cannot distinguish "unset" from
	// "false" for bools, so the default lives behind IsSet.
	if !v.IsSet("policy.push_enabled") {
		cfg.Policy.PushEnabled = true
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "sellerops-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "sellerops"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Policy.MaxRetries == 0 {
		cfg.Policy.MaxRetries = 1
	}
	if cfg.Policy.RetryBaseDelayMs == 0 {
		cfg.Policy.RetryBaseDelayMs = 400
	}
	if cfg.Policy.DefaultCourier == "" {
		cfg.Policy.DefaultCourier = "cj"
	}
	if cfg.Sync.LookbackMinutes == 0 {
		cfg.Sync.LookbackMinutes = 1440
	}
	if cfg.Sync.LookbackMinutes > maxLookbackMinutes {
		cfg.Sync.LookbackMinutes = maxLookbackMinutes
	}
	if cfg.Sync.PageCap == 0 {
		cfg.Sync.PageCap = 20
	}
	if cfg.Scheduler.Workers == 0 {
		cfg.Scheduler.Workers = 3
	}
	if cfg.Scheduler.JobTimeoutMinutes == 0 {
		cfg.Scheduler.JobTimeoutMinutes = 10
	}
	if cfg.Scheduler.OrderIntervalMinutes == 0 {
		cfg.Scheduler.OrderIntervalMinutes = 15
	}
	if cfg.Scheduler.InquiryIntervalMinutes == 0 {
		cfg.Scheduler.InquiryIntervalMinutes = 30
	}
	if cfg.Market.TimeoutSeconds == 0 {
		cfg.Market.TimeoutSeconds = 15
	}
	if cfg.Market.PageSize == 0 {
		cfg.Market.PageSize = 50
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	// Validate connection pool settings
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	// The vault master key must be a decodable 256-bit key whenever set.
	if c.Vault.MasterKey != "" {
		if len(c.Vault.MasterKey) != masterKeyHexLen {
			return fmt.Errorf("vault.master_key must be %d hex characters, got %d", masterKeyHexLen, len(c.Vault.MasterKey))
		}
		if _, err := hex.DecodeString(c.Vault.MasterKey); err != nil {
			return fmt.Errorf("vault.master_key must be valid hex: %w", err)
		}
	}

	if c.Sync.LookbackMinutes < 0 {
		return fmt.Errorf("sync.lookback_minutes cannot be negative")
	}
	if c.Sync.PageCap <= 0 {
		return fmt.Errorf("sync.page_cap must be positive")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Vault.MasterKey == "" {
			return fmt.Errorf("vault.master_key is required in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Policy.MockEnabled {
			return fmt.Errorf("policy.mock_enabled must be false in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
