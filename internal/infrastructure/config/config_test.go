package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearBillsyncEnv unsets every BILLSYNC_ variable for the duration of the test
func clearBillsyncEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "BILLSYNC_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearBillsyncEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "billsync", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "billsync", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 200*time.Millisecond, cfg.Database.SlowThreshold)
		assert.False(t, cfg.Redis.Enabled)
		assert.Equal(t, "asaas", cfg.Gateway.Provider)
		assert.Equal(t, 100, cfg.Gateway.PageSize)
		assert.Equal(t, 30, cfg.Gateway.TimeoutSeconds)
		assert.Equal(t, 30*time.Second, cfg.Sync.TenantTimeout)
		assert.Equal(t, 1, cfg.Sync.MaxConcurrentTenants)
		assert.True(t, cfg.Webhook.TrackDeliveries)
		assert.Equal(t, 24*time.Hour, cfg.Webhook.DeliveryTTL)
		assert.True(t, cfg.Reconciliation.AutoCreateContacts)
		assert.Equal(t, 5, cfg.Reconciliation.MaxConflictRetries)
		assert.Equal(t, "billsync", cfg.Telemetry.ServiceName)
	})

	t.Run("loads values from environment variables with BILLSYNC prefix", func(t *testing.T) {
		clearBillsyncEnv(t)
		t.Setenv("BILLSYNC_APP_PORT", "9000")
		t.Setenv("BILLSYNC_DATABASE_HOST", "db.local")
		t.Setenv("BILLSYNC_DATABASE_PORT", "5433")
		t.Setenv("BILLSYNC_REDIS_ENABLED", "true")
		t.Setenv("BILLSYNC_GATEWAY_PAGE_SIZE", "25")
		t.Setenv("BILLSYNC_SYNC_TENANT_TIMEOUT", "5s")
		t.Setenv("BILLSYNC_SYNC_MAX_CONCURRENT_TENANTS", "4")
		t.Setenv("BILLSYNC_RECONCILIATION_AUTO_CREATE_CONTACTS", "false")
		t.Setenv("BILLSYNC_WEBHOOK_TRACK_DELIVERIES", "false")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "db.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, 25, cfg.Gateway.PageSize)
		assert.Equal(t, 5*time.Second, cfg.Sync.TenantTimeout)
		assert.Equal(t, 4, cfg.Sync.MaxConcurrentTenants)
		assert.False(t, cfg.Reconciliation.AutoCreateContacts)
		assert.False(t, cfg.Webhook.TrackDeliveries)
	})

	t.Run("rejects page size above gateway limit", func(t *testing.T) {
		clearBillsyncEnv(t)
		t.Setenv("BILLSYNC_GATEWAY_PAGE_SIZE", "500")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "gateway.page_size")
	})

	t.Run("rejects unknown time zone", func(t *testing.T) {
		clearBillsyncEnv(t)
		t.Setenv("BILLSYNC_GATEWAY_TIME_ZONE", "Mars/Olympus")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "gateway.time_zone")
	})

	t.Run("production requires database password", func(t *testing.T) {
		clearBillsyncEnv(t)
		t.Setenv("BILLSYNC_APP_ENV", "production")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password")
	})
}

func TestConfig_validate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"idle exceeds open", func(c *Config) { c.Database.MaxIdleConns = 100 }, "max_idle_conns"},
		{"negative concurrency", func(c *Config) { c.Sync.MaxConcurrentTenants = -1 }, "max_concurrent_tenants"},
		{"negative tenant timeout", func(c *Config) { c.Sync.TenantTimeout = -time.Second }, "tenant_timeout"},
		{"no conflict retries", func(c *Config) { c.Reconciliation.MaxConflictRetries = -1 }, "max_conflict_retries"},
		{"sampling above one", func(c *Config) { c.Telemetry.SamplingRatio = 1.5 }, "sampling_ratio"},
		{
			"full sql in production",
			func(c *Config) {
				c.App.Env = "production"
				c.Database.Password = "secret"
				c.Database.SSLMode = "require"
				c.Telemetry.DBLogFullSQL = true
			},
			"db_log_full_sql",
		},
		{
			"query params in production",
			func(c *Config) {
				c.App.Env = "production"
				c.Database.Password = "secret"
				c.Database.SSLMode = "require"
				c.Database.LogQueryParams = true
			},
			"log_query_params",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss/word", DBName: "billsync", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/billsync?sslmode=disable", d.DSN())
}

func TestRedisConfig_Addr(t *testing.T) {
	r := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", r.Addr())
}

func TestGatewayConfig_Location(t *testing.T) {
	g := GatewayConfig{TimeZone: "America/Sao_Paulo"}
	assert.Equal(t, "America/Sao_Paulo", g.Location().String())

	g.TimeZone = "nowhere"
	assert.Equal(t, time.UTC, g.Location())
}
