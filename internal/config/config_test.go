package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test")
	t.Setenv("RAZORPAY_KEY_SECRET", "shh")
}

func TestLoadAppliesDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load("testdata/missing.env")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, "Maharashtra", cfg.Electricity.DefaultRegion)
	assert.Equal(t, "0 6 1 * *", cfg.Rent.CronSchedule)
	assert.Equal(t, 10, cfg.Rent.DueDay)
	assert.Equal(t, "Asia/Kolkata", cfg.Rent.Timezone)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Firebase.Enabled())
	assert.False(t, cfg.WhatsApp.Enabled())
	assert.False(t, cfg.Sheets.Enabled())
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("STORAGE_DRIVER", "cassandra")

	_, err := Load("testdata/missing.env")
	assert.ErrorContains(t, err, "cassandra")
}

func TestLoadRejectsBadInteger(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("RENT_DUE_DAY", "tenth")

	_, err := Load("testdata/missing.env")
	assert.ErrorContains(t, err, "RENT_DUE_DAY")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:      ServerConfig{Port: "8080"},
			Storage:     StorageConfig{Driver: StoragePostgres},
			Postgres:    PostgresConfig{DSN: "postgres://localhost/rental"},
			Auth:        AuthConfig{JWTSecret: "s"},
			Electricity: ElectricityConfig{DefaultRegion: "Maharashtra"},
			Razorpay:    RazorpayConfig{KeyID: "k", KeySecret: "s"},
			Rent:        RentConfig{CronSchedule: "0 6 1 * *", DueDay: 10, Timezone: "UTC"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid"},
		{name: "missing dsn", mutate: func(c *Config) { c.Postgres.DSN = "" }, wantErr: "POSTGRES_DSN"},
		{name: "no secret without bypass", mutate: func(c *Config) { c.Auth.JWTSecret = "" }, wantErr: "JWT_SECRET"},
		{name: "bypass without secret", mutate: func(c *Config) { c.Auth.JWTSecret = ""; c.Auth.DevBypass = true }},
		{name: "due day out of range", mutate: func(c *Config) { c.Rent.DueDay = 31 }, wantErr: "RENT_DUE_DAY"},
		{name: "unknown timezone", mutate: func(c *Config) { c.Rent.Timezone = "Mars/Olympus" }, wantErr: "TIMEZONE"},
		{name: "missing razorpay", mutate: func(c *Config) { c.Razorpay.KeySecret = "" }, wantErr: "RAZORPAY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
