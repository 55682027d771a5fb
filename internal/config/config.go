package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Session  SessionConfig
	Redis    RedisConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	// TrustedProxies lists CIDR ranges whose forwarding headers are honored
	// when resolving client IPs. Empty means trust the socket address only.
	TrustedProxies []string
}

type UpstreamConfig struct {
	// BaseURL of the backend service, e.g. "http://localhost:5000"
	BaseURL string
	Timeout time.Duration
}

type SessionConfig struct {
	// TTL is the fallback session lifetime when the upstream token carries
	// no parseable expiry claim.
	TTL           time.Duration
	SweepInterval time.Duration
	CookieDomain  string
	CookieSecure  bool
	SameSite      string
	PageSize      int
}

type RedisConfig struct {
	// Addr empty means sessions live in process memory.
	Addr     string
	Password string
	DB       int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	upstreamURL := getEnv("UPSTREAM_BASE_URL", "")
	if upstreamURL == "" {
		return nil, fmt.Errorf("UPSTREAM_BASE_URL is required")
	}
	if _, err := url.ParseRequestURI(upstreamURL); err != nil {
		return nil, fmt.Errorf("UPSTREAM_BASE_URL is not a valid URL: %w", err)
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: getEnvAsList("TRUSTED_PROXIES"),
		},
		Upstream: UpstreamConfig{
			BaseURL: strings.TrimRight(upstreamURL, "/"),
			Timeout: getEnvAsDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		},
		Session: SessionConfig{
			TTL:           getEnvAsDuration("SESSION_TTL", 12*time.Hour),
			SweepInterval: getEnvAsDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
			CookieDomain:  getEnv("SESSION_COOKIE_DOMAIN", ""),
			CookieSecure:  env == "production",
			SameSite:      getEnv("SESSION_SAMESITE", "lax"),
			PageSize:      getEnvAsInt("DIRECTORY_PAGE_SIZE", 10),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
	}

	if cfg.Session.TTL < time.Minute {
		return nil, fmt.Errorf("SESSION_TTL must be at least 1 minute (got %s)", cfg.Session.TTL)
	}
	if cfg.Session.PageSize < 1 || cfg.Session.PageSize > 100 {
		return nil, fmt.Errorf("DIRECTORY_PAGE_SIZE must be between 1 and 100 (got %d)", cfg.Session.PageSize)
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		originsStr := getEnv("ALLOWED_ORIGINS", "")
		if originsStr == "" {
			return []string{} // Default to no origins in production
		}
		origins := strings.Split(originsStr, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		return origins
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost:5173", // Vite default
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
	}
}
