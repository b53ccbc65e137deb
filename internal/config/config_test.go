package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "marketplace-fees", cfg.Marketplace.FeeAccount)
	assert.Equal(t, int32(2), cfg.Marketplace.CurrencyExponent)
	assert.Equal(t, uint64(100), cfg.Payment.MinimumDeposit)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("PAYMENT_MINIMUM_DEPOSIT", "2500")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("METRICS_ENABLED", "FALSE")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, uint64(2500), cfg.Payment.MinimumDeposit)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowOrigins)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Environment: "production",
		Store:       StoreConfig{Driver: "memory"},
		JWT:         JWTConfig{SecretKey: "your-secret-key-change-in-production"},
		Marketplace: MarketplaceConfig{FeeAccount: "fees"},
	}
	assert.Error(t, cfg.Validate())

	cfg.JWT.SecretKey = "rotated"
	assert.NoError(t, cfg.Validate())

	cfg.Store.Driver = "postgres"
	assert.Error(t, cfg.Validate())

	cfg.Store.Driver = "sqlite"
	assert.Error(t, cfg.Validate())
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Database: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable TimeZone=UTC", d.DSN())
}
