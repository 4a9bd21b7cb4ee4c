package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("REFERRAL_THRESHOLD", "")
	t.Setenv("PREMIUM_DURATION", "")
	t.Setenv("ADMIN_IDS", "")

	cfg := New()
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, cfg.DB.SQLitePath, cfg.DB.DSN)
	assert.Equal(t, 5, cfg.Match.ReferralThreshold)
	assert.Equal(t, 24*time.Hour, cfg.Match.PremiumDuration)
	assert.Equal(t, 30*time.Minute, cfg.Match.InactivityTimeout)
	assert.Empty(t, cfg.Match.AdminIDs)
}

func TestNew_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("MYSQL_DSN", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "")
	t.Setenv("REFERRAL_THRESHOLD", "3")
	t.Setenv("PREMIUM_DURATION", "2h")
	t.Setenv("FLOOD_WINDOW", "not-a-duration")
	t.Setenv("ADMIN_IDS", "1, 2,x,3")
	t.Setenv("BOT_USERNAME", "@anon_bot")
	t.Setenv("APP_ENV", "production")

	cfg := New()
	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Contains(t, cfg.DB.DSN, "@tcp(db:3306)/")
	assert.Equal(t, 3, cfg.Match.ReferralThreshold)
	assert.Equal(t, 2*time.Hour, cfg.Match.PremiumDuration)
	assert.Equal(t, 10*time.Second, cfg.Match.FloodWindow)
	assert.Equal(t, []int64{1, 2, 3}, cfg.Match.AdminIDs)
	assert.Equal(t, "anon_bot", cfg.Telegram.Username)
	assert.True(t, cfg.IsProduction())
}

func TestNew_PostgresAlias(t *testing.T) {
	t.Setenv("DB_DRIVER", "PostgreSQL")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "pg")
	t.Setenv("DB_PORT", "")

	cfg := New()
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Contains(t, cfg.DB.DSN, "host=pg port=5432")
	assert.NotEqual(t, cfg.DB.SQLitePath, cfg.DB.DSN)
}

func TestNormalizeDriver(t *testing.T) {
	assert.Equal(t, "postgres", normalizeDriver("pgx"))
	assert.Equal(t, "sqlite", normalizeDriver(" SQLite3 "))
	assert.Equal(t, "mysql", normalizeDriver("MySQL"))
	assert.Equal(t, "oracle", normalizeDriver("oracle"))
}

func TestIsTruthy(t *testing.T) {
	for _, v := range []string{"1", "true", " YES ", "on"} {
		assert.True(t, isTruthy(v), v)
	}
	for _, v := range []string{"", "0", "off", "nope"} {
		assert.False(t, isTruthy(v), v)
	}
}
