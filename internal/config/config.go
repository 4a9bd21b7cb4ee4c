package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App struct {
		Env      string
		SeedDemo bool
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		Driver     string
		DSN        string
		Host       string
		Port       string
		User       string
		Password   string
		Name       string
		SQLitePath string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	GRPC struct {
		Host string
		Port string
	}

	HTTP struct {
		Addr string
	}

	Telegram struct {
		Token    string
		Username string
		Debug    bool
	}

	Match struct {
		ReferralThreshold int
		PremiumDuration   time.Duration
		InactivityTimeout time.Duration
		SweepInterval     time.Duration
		AdminIDs          []int64
		FloodLimit        int
		FloodWindow       time.Duration
	}

	Auth struct {
		JWTSecret      string
		ReferralSecret string
	}
}

// New reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real env vars win over it.
func New() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.App.Env = getEnvDefault("APP_ENV", "development")
	cfg.App.SeedDemo = isTruthy(os.Getenv("SEED_DEMO"))

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "anonchat")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.Driver = normalizeDriver(getEnvDefault("DB_DRIVER", "sqlite"))
	cfg.DB.SQLitePath = getEnvDefault("SQLITE_PATH", "anonchat.db")
	cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
	cfg.DB.User = getEnvDefault("DB_USER", "root")
	cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
	cfg.DB.Name = getEnvDefault("DB_NAME", "anonchat")

	switch cfg.DB.Driver {
	case "mysql":
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.DSN = os.Getenv("MYSQL_DSN")
		if cfg.DB.DSN == "" {
			cfg.DB.DSN = fmt.Sprintf(
				"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
				cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
			)
		}
	case "postgres":
		cfg.DB.Port = getEnvDefault("DB_PORT", "5432")
		cfg.DB.DSN = os.Getenv("DATABASE_URL")
		if cfg.DB.DSN == "" {
			cfg.DB.DSN = fmt.Sprintf(
				"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
				cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name,
			)
		}
	default:
		cfg.DB.DSN = cfg.DB.SQLitePath
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getIntDefault("REDIS_DB", 0)

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	cfg.HTTP.Addr = getEnvDefault("HTTP_ADDR", ":8080")

	// Telegram
	cfg.Telegram.Token = os.Getenv("BOT_TOKEN")
	cfg.Telegram.Username = strings.TrimPrefix(getEnvDefault("BOT_USERNAME", ""), "@")
	cfg.Telegram.Debug = isTruthy(os.Getenv("BOT_DEBUG"))

	// Matching
	cfg.Match.ReferralThreshold = getIntDefault("REFERRAL_THRESHOLD", 5)
	cfg.Match.PremiumDuration = getDurationDefault("PREMIUM_DURATION", 24*time.Hour)
	cfg.Match.InactivityTimeout = getDurationDefault("INACTIVITY_TIMEOUT", 30*time.Minute)
	cfg.Match.SweepInterval = getDurationDefault("SWEEP_INTERVAL", time.Minute)
	cfg.Match.AdminIDs = ParseIDs(os.Getenv("ADMIN_IDS"))
	cfg.Match.FloodLimit = getIntDefault("FLOOD_LIMIT", 20)
	cfg.Match.FloodWindow = getDurationDefault("FLOOD_WINDOW", 10*time.Second)

	// Auth
	cfg.Auth.JWTSecret = os.Getenv("AUTH_JWT_SECRET")
	cfg.Auth.ReferralSecret = getEnvDefault("REFERRAL_SECRET", cfg.Telegram.Token)

	return cfg
}

// IsProduction reports whether APP_ENV is set to production.
func (c *Config) IsProduction() bool { return strings.EqualFold(c.App.Env, "production") }

// ParseIDs parses a comma separated list of numeric user ids, skipping
// anything that is not a number.
func ParseIDs(s string) []int64 {
	var out []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			out = append(out, id)
		}
	}
	return out
}

// normalizeDriver maps common aliases onto the names db.NewDB understands.
// Unknown names pass through so NewDB can reject them.
func normalizeDriver(s string) string {
	switch d := strings.ToLower(strings.TrimSpace(s)); d {
	case "postgresql", "pg", "pgx":
		return "postgres"
	case "sqlite3":
		return "sqlite"
	default:
		return d
	}
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getIntDefault(k string, def int) int {
	if n, err := strconv.Atoi(getEnvDefault(k, "")); err == nil {
		return n
	}
	return def
}

func getDurationDefault(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnvDefault(k, "")); err == nil && d > 0 {
		return d
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
