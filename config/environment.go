package config

import (
	"os"
	"strings"
	"time"
)

type Environment struct {
	IsDevelopment  bool
	Port           string
	DBDriver       string
	DBURL          string
	RedisAddr      string
	CountCacheTTL  time.Duration
	AllowedOrigins []string
	LogLevel       string
	LogFormat      string
}

var Env Environment

// LoadEnvironment reads the process environment into Env. Call it after any
// .env file has been loaded.
func LoadEnvironment() Environment {
	isDev := os.Getenv("APP_ENV") != "production"

	driver := strings.ToLower(getenv("DB_DRIVER", "sqlite"))
	dbURL := os.Getenv("DB_URL")
	if dbURL == "" && driver == "sqlite" {
		dbURL = "problems.db"
	}

	ttl, err := time.ParseDuration(getenv("COUNT_CACHE_TTL", "30s"))
	if err != nil || ttl <= 0 {
		ttl = 30 * time.Second
	}

	logFormat := "console"
	if !isDev {
		logFormat = "json"
	}

	Env = Environment{
		IsDevelopment:  isDev,
		Port:           getenv("PORT", "8080"),
		DBDriver:       driver,
		DBURL:          dbURL,
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		CountCacheTTL:  ttl,
		AllowedOrigins: splitList(getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogFormat:      getenv("LOG_FORMAT", logFormat),
	}
	return Env
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
