package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	SourcePrismic = "prismic"
	SourceMirror  = "mirror"
)

type Config struct {
	Port               string
	PublicURL          string
	PrismicAPIURL      string
	PrismicAccessToken string
	ContentSource      string
	DatabaseURL        string
	RedisURL           string
	AllowedOrigins     []string
	AppendMode         string
	ListingPageSize    int
	PrerenderLimit     int
	Revalidate         time.Duration
	ViewTTL            time.Duration
}

// Load reads the configuration from the environment. Call godotenv.Load first
// so a local .env file is honoured.
func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		PublicURL:          strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:8080"), "/"),
		PrismicAPIURL:      os.Getenv("PRISMIC_API_URL"),
		PrismicAccessToken: os.Getenv("PRISMIC_ACCESS_TOKEN"),
		ContentSource:      getEnv("CONTENT_SOURCE", SourcePrismic),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		AllowedOrigins:     []string{"http://localhost:3000"},
		AppendMode:         getEnv("LISTING_APPEND_MODE", "all"),
		ListingPageSize:    getEnvInt("LISTING_PAGE_SIZE", 1),
		PrerenderLimit:     getEnvInt("PRERENDER_LIMIT", 20),
		Revalidate:         time.Duration(getEnvInt("REVALIDATE_MINUTES", 30)) * time.Minute,
		ViewTTL:            time.Duration(getEnvInt("VIEW_TTL_MINUTES", 30)) * time.Minute,
	}

	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		cfg.AllowedOrigins = append(cfg.AllowedOrigins, frontendURL)
	}

	return cfg
}

func (c *Config) MirrorSearchURL() string {
	return c.PublicURL + "/api/v2/documents/search"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		slog.Warn("invalid environment variable, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return value
}
