package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App            AppConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	Log            LogConfig
	HTTP           HTTPConfig
	Gateway        GatewayConfig
	Sync           SyncConfig
	Webhook        WebhookConfig
	Reconciliation ReconciliationConfig
	Telemetry      TelemetryConfig
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
	ConnMaxLifetime int    // in minutes
	ConnMaxIdleTime int    // in minutes
	LogLevel        string // silent, error, warn, info
	SlowThreshold   time.Duration
	LogQueryParams  bool // interpolate bound values into logged SQL
}

// RedisConfig holds Redis connection settings.
// When disabled, webhook deliveries are tracked in memory.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	TrustedProxies []string
}

// GatewayConfig holds payment gateway settings shared by all tenants
type GatewayConfig struct {
	Provider       string
	LiveBaseURL    string
	SandboxBaseURL string
	TimeoutSeconds int
	PageSize       int
	// TimeZone is used for gateway timestamps that carry no zone
	TimeZone string
}

// SyncConfig holds periodic sync settings
type SyncConfig struct {
	TenantTimeout        time.Duration // Bound on one tenant's fetch and processing
	MaxConcurrentTenants int           // 1 processes tenants sequentially
	RunTimeout           time.Duration // Bound on a whole run, 0 means none
}

// WebhookConfig holds webhook ingestion settings
type WebhookConfig struct {
	MaxPayloadBytes int64
	TrackDeliveries bool
	DeliveryTTL     time.Duration
}

// ReconciliationConfig holds reconciliation engine settings
type ReconciliationConfig struct {
	AutoCreateContacts bool
	MaxConflictRetries int
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsEnabled    bool    // Export metrics over OTLP
	MetricsInterval   time.Duration
	LogsEnabled       bool    // Export logs over OTLP through the zap bridge
	// Database tracing options
	DBTraceEnabled    bool          // Enable database query tracing (otelgorm)
	DBLogFullSQL      bool          // Record query variables in spans
	DBSlowQueryThresh time.Duration // Slow query threshold for warnings
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with BILLSYNC_ prefix (e.g., BILLSYNC_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("BILLSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans that default to true cannot be told apart from an explicit false
	// once read, so they are defaulted in viper itself.
	v.SetDefault("webhook.track_deliveries", true)
	v.SetDefault("reconciliation.auto_create_contacts", true)

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
			LogLevel:        v.GetString("database.log_level"),
			SlowThreshold:   v.GetDuration("database.slow_threshold"),
			LogQueryParams:  v.GetBool("database.log_query_params"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
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
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Gateway: GatewayConfig{
			Provider:       v.GetString("gateway.provider"),
			LiveBaseURL:    v.GetString("gateway.live_base_url"),
			SandboxBaseURL: v.GetString("gateway.sandbox_base_url"),
			TimeoutSeconds: v.GetInt("gateway.timeout_seconds"),
			PageSize:       v.GetInt("gateway.page_size"),
			TimeZone:       v.GetString("gateway.time_zone"),
		},
		Sync: SyncConfig{
			TenantTimeout:        v.GetDuration("sync.tenant_timeout"),
			MaxConcurrentTenants: v.GetInt("sync.max_concurrent_tenants"),
			RunTimeout:           v.GetDuration("sync.run_timeout"),
		},
		Webhook: WebhookConfig{
			MaxPayloadBytes: v.GetInt64("webhook.max_payload_bytes"),
			TrackDeliveries: v.GetBool("webhook.track_deliveries"),
			DeliveryTTL:     v.GetDuration("webhook.delivery_ttl"),
		},
		Reconciliation: ReconciliationConfig{
			AutoCreateContacts: v.GetBool("reconciliation.auto_create_contacts"),
			MaxConflictRetries: v.GetInt("reconciliation.max_conflict_retries"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "billsync"
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
		cfg.Database.DBName = "billsync"
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
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}
	if cfg.Database.SlowThreshold == 0 {
		cfg.Database.SlowThreshold = 200 * time.Millisecond
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
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
		// A sync run over many tenants is answered synchronously
		cfg.HTTP.WriteTimeout = 5 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if cfg.Gateway.Provider == "" {
		cfg.Gateway.Provider = "asaas"
	}
	if cfg.Gateway.LiveBaseURL == "" {
		cfg.Gateway.LiveBaseURL = "https://api.asaas.com/v3"
	}
	if cfg.Gateway.SandboxBaseURL == "" {
		cfg.Gateway.SandboxBaseURL = "https://api-sandbox.asaas.com/v3"
	}
	if cfg.Gateway.TimeoutSeconds == 0 {
		cfg.Gateway.TimeoutSeconds = 30
	}
	if cfg.Gateway.PageSize == 0 {
		cfg.Gateway.PageSize = 100
	}
	if cfg.Gateway.TimeZone == "" {
		cfg.Gateway.TimeZone = "UTC"
	}
	if cfg.Sync.TenantTimeout == 0 {
		cfg.Sync.TenantTimeout = 30 * time.Second
	}
	if cfg.Sync.MaxConcurrentTenants == 0 {
		cfg.Sync.MaxConcurrentTenants = 1
	}
	if cfg.Webhook.MaxPayloadBytes == 0 {
		cfg.Webhook.MaxPayloadBytes = 64 * 1024 // 64KB
	}
	if cfg.Webhook.DeliveryTTL == 0 {
		cfg.Webhook.DeliveryTTL = 24 * time.Hour
	}
	if cfg.Reconciliation.MaxConflictRetries == 0 {
		cfg.Reconciliation.MaxConflictRetries = 5
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
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

	if c.Gateway.PageSize < 1 || c.Gateway.PageSize > 100 {
		return fmt.Errorf("gateway.page_size must be between 1 and 100, got %d", c.Gateway.PageSize)
	}
	if _, err := time.LoadLocation(c.Gateway.TimeZone); err != nil {
		return fmt.Errorf("gateway.time_zone is invalid: %w", err)
	}
	if c.Sync.MaxConcurrentTenants < 1 {
		return fmt.Errorf("sync.max_concurrent_tenants must be at least 1")
	}
	if c.Sync.TenantTimeout < 0 {
		return fmt.Errorf("sync.tenant_timeout cannot be negative")
	}
	if c.Reconciliation.MaxConflictRetries < 1 {
		return fmt.Errorf("reconciliation.max_conflict_retries must be at least 1")
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
		if c.Database.LogQueryParams {
			return fmt.Errorf("database.log_query_params must be false in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
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

// Addr returns the host:port address of the Redis server
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Location returns the configured gateway time zone, falling back to UTC
func (g *GatewayConfig) Location() *time.Location {
	loc, err := time.LoadLocation(g.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
