package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	AppPort         string
	AppEnv          string
	LogLevel        string
	StorageDriver   string
	DBDSN           string
	JWTSecret       string
	JWTExpiresMin   int
	GoogleClientID  string
	GoogleSecret    string
	GoogleRedirect  string
	FrontendBaseURL string
	CORSOrigins     string

	RedisAddr          string
	RedisPassword      string
	RedisChannelPrefix string

	SentryDSN   string
	SupabaseURL string
	SupabaseKey string

	FeedRatePerSec float64
	FeedBurst      int

	// AdminEmails are granted the admin role at startup once registered.
	AdminEmails []string
}

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

func Load() Config {
	expires, _ := strconv.Atoi(get("JWT_EXPIRES_MIN", "10080"))
	rate, _ := strconv.ParseFloat(get("FEED_RATE_PER_SEC", "5"), 64)
	burst, _ := strconv.Atoi(get("FEED_BURST", "20"))

	driver := strings.ToLower(get("STORAGE_DRIVER", StoragePostgres))
	dsn := get("DB_DSN", "")
	if driver == StoragePostgres {
		dsn = must("DB_DSN")
	}

	return Config{
		AppPort:         get("APP_PORT", "8080"),
		AppEnv:          get("APP_ENV", "development"),
		LogLevel:        get("LOG_LEVEL", "info"),
		StorageDriver:   driver,
		DBDSN:           dsn,
		JWTSecret:       must("JWT_SECRET"),
		JWTExpiresMin:   expires,
		GoogleClientID:  get("GOOGLE_CLIENT_ID", ""),
		GoogleSecret:    get("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirect:  get("GOOGLE_REDIRECT_URL", ""),
		FrontendBaseURL: get("FRONTEND_BASE_URL", "http://localhost:3000"),
		CORSOrigins:     get("CORS_ORIGINS", "http://127.0.0.1:3000, http://localhost:3000"),

		RedisAddr:          get("REDIS_ADDR", ""),
		RedisPassword:      get("REDIS_PASSWORD", ""),
		RedisChannelPrefix: get("REDIS_CHANNEL_PREFIX", "changes:"),

		SentryDSN:   get("SENTRY_DSN", ""),
		SupabaseURL: get("SUPABASE_URL", ""),
		SupabaseKey: get("SUPABASE_KEY", ""),

		FeedRatePerSec: rate,
		FeedBurst:      burst,

		AdminEmails: splitList(get("ADMIN_EMAILS", "")),
	}
}

func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleSecret != "" && c.GoogleRedirect != ""
}

func (c Config) SupabaseEnabled() bool {
	return c.SupabaseURL != "" && c.SupabaseKey != ""
}

func get(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
