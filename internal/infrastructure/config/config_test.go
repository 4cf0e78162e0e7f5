package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTOML(t *testing.T, body string) (*Config, error) {
	t.Helper()
	v := viper.New()
	v.SetConfigType("toml")
	require.NoError(t, v.ReadConfig(strings.NewReader(body)))
	return FromViper(v)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := loadTOML(t, "")
	require.NoError(t, err)

	assert.Equal(t, "society-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "society", cfg.Database.DBName)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, "", cfg.Redis.Host, "redis stays disabled unless configured")
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenExpiration)
	assert.Equal(t, 5, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, "isUser", cfg.Permission.ResidentMarker)
	assert.Equal(t, "isStaff", cfg.Permission.StaffMarker)
	assert.Equal(t, "unauthorized", cfg.Permission.DeniedTarget)
	assert.Equal(t, "INR", cfg.Billing.Currency)
	assert.False(t, cfg.Billing.RejectUnmatchedTypes)
	assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
	assert.Equal(t, "society-backend", cfg.Telemetry.ServiceName)
}

func TestLoad_FromTOML(t *testing.T) {
	cfg, err := loadTOML(t, `
[app]
name = "greenwood"
port = "9090"

[database]
host = "db.internal"
max_open_conns = 10
max_idle_conns = 2

[permission]
staff_marker = "isCompany"
cache_ttl = "30s"

[billing]
currency = "USD"
reject_unmatched_types = true

[telemetry]
sampling_ratio = 0.0
`)
	require.NoError(t, err)

	assert.Equal(t, "greenwood", cfg.App.Name)
	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, "isCompany", cfg.Permission.StaffMarker)
	assert.Equal(t, 30*time.Second, cfg.Permission.CacheTTL)
	assert.Equal(t, "USD", cfg.Billing.Currency)
	assert.True(t, cfg.Billing.RejectUnmatchedTypes)
	assert.Equal(t, 0.0, cfg.Telemetry.SamplingRatio, "explicit zero sampling is kept")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SOCIETY_APP_NAME", "env-app")
	t.Setenv("SOCIETY_DATABASE_PASSWORD", "s3cret")
	t.Setenv("SOCIETY_REDIS_HOST", "cache.local")

	cfg, err := loadTOML(t, `
[app]
name = "file-app"
`)
	require.NoError(t, err)
	assert.Equal(t, "env-app", cfg.App.Name)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "cache.local:6379", cfg.Redis.Addr())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "idle exceeds open",
			body:    "[database]\nmax_open_conns = 2\nmax_idle_conns = 5",
			wantErr: "cannot exceed",
		},
		{
			name:    "bad currency",
			body:    "[billing]\ncurrency = \"RUPEE\"",
			wantErr: "billing.currency",
		},
		{
			name:    "sampling out of range",
			body:    "[telemetry]\nsampling_ratio = 1.5",
			wantErr: "sampling_ratio",
		},
		{
			name:    "statements need a bucket",
			body:    "[statement]\nenabled = true",
			wantErr: "storage.bucket",
		},
		{
			name:    "bucket needs credentials",
			body:    "[storage]\nbucket = \"statements\"",
			wantErr: "storage.access_key",
		},
		{
			name:    "profiling needs an address",
			body:    "[telemetry]\nprofiling_enabled = true",
			wantErr: "pyroscope_address",
		},
		{
			name:    "production requires long jwt secret",
			body:    "[app]\nenv = \"production\"\n[jwt]\nsecret = \"short\"",
			wantErr: "jwt.secret",
		},
		{
			name: "production requires ssl",
			body: "[app]\nenv = \"production\"\n[jwt]\nsecret = \"" + strings.Repeat("x", 32) +
				"\"\n[database]\npassword = \"pw\"",
			wantErr: "sslmode",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadTOML(t, tt.body)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss word", DBName: "society", SSLMode: "require"}
	assert.Equal(t, "postgres://app:p%40ss%20word@db:5432/society?sslmode=require", d.DSN())
}
