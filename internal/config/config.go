package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string

	DBDriver string
	DBDSN    string

	BlobBasePath string // question image uploads

	AuthSecret string
	TokenTTL   time.Duration

	// PreserveStartOnResume keeps the original started_at when a student
	// resumes an attempt; when off, every resume resets the clock.
	PreserveStartOnResume bool

	// SweepInterval is how often stale started attempts of ended exams are
	// finalized. Zero disables the sweeper.
	SweepInterval time.Duration

	CORSOrigins []string

	LogLevel string
}

// FromEnv reads configuration from the environment, loading a .env file first
// when one is present.
func FromEnv() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:              envOr("HTTP_ADDR", ":8080"),
		DBDriver:              envOr("DB_DRIVER", "sqlite"),
		DBDSN:                 envOr("DB_DSN", ""),
		BlobBasePath:          envOr("BLOB_BASE_PATH", "./data"),
		AuthSecret:            envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		TokenTTL:              envDuration("TOKEN_TTL", 8*time.Hour),
		PreserveStartOnResume: envBool("PRESERVE_START_ON_RESUME", false),
		SweepInterval:         envDuration("SWEEP_INTERVAL", time.Minute),
		CORSOrigins:           csvOr("CORS_ORIGINS", "http://localhost:3000"),
		LogLevel:              envOr("LOG_LEVEL", "info"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
