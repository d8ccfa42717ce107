package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MemoryDriverSkipsDSN(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("FEED_RATE_PER_SEC", "2.5")

	cfg := Load()
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 10080, cfg.JWTExpiresMin)
	assert.Equal(t, 2.5, cfg.FeedRatePerSec)
	assert.Equal(t, "changes:", cfg.RedisChannelPrefix)
	assert.False(t, cfg.GoogleEnabled())
	assert.False(t, cfg.SupabaseEnabled())
}

func TestLoad_PostgresRequiresDSN(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_SECRET", "s3cret")

	require.PanicsWithValue(t, "missing env: DB_DSN", func() { Load() })
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "")

	require.Panics(t, func() { Load() })
}

func TestLoad_AdminEmails(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ADMIN_EMAILS", " Ops@FundiConnect.co.ke, ,amina@example.com")

	cfg := Load()
	assert.Equal(t, []string{"ops@fundiconnect.co.ke", "amina@example.com"}, cfg.AdminEmails)
}
