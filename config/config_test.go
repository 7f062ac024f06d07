package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30, cfg.Server.ReadTimeout)
	assert.Equal(t, "dynamo", cfg.Store.Driver)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "us-east-1", cfg.AWS.Region)
	assert.Equal(t, 30, cfg.Registration.MaxDays)
	assert.Equal(t, 300, cfg.Registration.SweepIntervalSec)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("MAX_DAYS", "45")
	t.Setenv("DATABASE_URL", "postgres://db:5432/reg?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 45, cfg.Registration.MaxDays)
	assert.Equal(t, "postgres://db:5432/reg?sslmode=disable", cfg.Database.DSN())
}

func TestDSNFromComponents(t *testing.T) {
	db := DatabaseConfig{
		Host:     "dbhost",
		Port:     "5433",
		User:     "svc",
		Password: "pw",
		DBName:   "registrations",
		SSLMode:  "require",
	}
	assert.Equal(t, "postgres://svc:pw@dbhost:5433/registrations?sslmode=require", db.DSN())
}
