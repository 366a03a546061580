// Package config provides configuration for the gateway.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the gateway configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Upstream completion API
	UpstreamURL    string
	UpstreamAPIKey string
	DefaultModel   string
	AllowedModels  []string
	Temperature    float64

	// Timeouts
	BufferedTimeout time.Duration // non-streaming upstream calls
	StreamTimeout   time.Duration // streaming upstream calls

	// Session bounds
	MaxSessionTurns int
	SessionTTL      time.Duration

	// Input bounds
	MaxMessageChars int

	// Rate limiting
	RateLimitWindow time.Duration
	RateLimitMax    int

	// Tool resolution
	MaxToolIterations int

	// Upstream request throttle (requests per second, 0 disables)
	UpstreamRPS float64

	// Audit store
	AuditDSN string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:          getEnvInt("PORT", 8080),
		UpstreamURL:       getEnv("UPSTREAM_URL", "https://api.openai.com"),
		UpstreamAPIKey:    getEnv("UPSTREAM_API_KEY", ""),
		DefaultModel:      getEnv("DEFAULT_MODEL", "gpt-4o-mini"),
		AllowedModels:     getEnvList("ALLOWED_MODELS", []string{"gpt-4o-mini", "gpt-4o"}),
		Temperature:       getEnvFloat("TEMPERATURE", 0.7),
		BufferedTimeout:   time.Duration(getEnvInt("BUFFERED_TIMEOUT_MS", 30000)) * time.Millisecond,
		StreamTimeout:     time.Duration(getEnvInt("STREAM_TIMEOUT_MS", 120000)) * time.Millisecond,
		MaxSessionTurns:   getEnvInt("MAX_SESSION_TURNS", 30),
		SessionTTL:        time.Duration(getEnvInt("SESSION_TTL_MS", 1800000)) * time.Millisecond,
		MaxMessageChars:   getEnvInt("MAX_MESSAGE_CHARS", 4000),
		RateLimitWindow:   time.Duration(getEnvInt("RATE_LIMIT_WINDOW_MS", 60000)) * time.Millisecond,
		RateLimitMax:      getEnvInt("RATE_LIMIT_MAX", 30),
		MaxToolIterations: getEnvInt("MAX_TOOL_ITERATIONS", 3),
		UpstreamRPS:       getEnvFloat("UPSTREAM_RPS", 0),
		AuditDSN:          getEnv("AUDIT_DSN", "file:chatgate_audit.db?cache=shared&mode=rwc"),
	}
	return cfg
}

// ModelAllowed reports whether model is on the allow-list.
func (c *Config) ModelAllowed(model string) bool {
	for _, m := range c.AllowedModels {
		if m == model {
			return true
		}
	}
	return false
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
