package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Site      SiteConfig
	Mail      MailConfig
	Captcha   CaptchaConfig
	RateLimit RateLimitConfig
	SpamGuard SpamGuardConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           string
	AllowedOrigins []string
}

// SiteConfig identifies the site the contact form belongs to.
// The name appears in outbound mail subjects.
type SiteConfig struct {
	Name string
	URL  string
}

// MailConfig holds SMTP transport configuration.
// An empty Host means no transport is configured and the dispatcher
// runs in dry-run mode.
type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       string
	Timeout  time.Duration
}

// Configured reports whether an SMTP transport should be used.
func (m *MailConfig) Configured() bool {
	return m.Host != ""
}

// CaptchaConfig holds CAPTCHA verification configuration.
// An empty Secret disables verification entirely.
type CaptchaConfig struct {
	Secret    string
	VerifyURL string
	Threshold float64
	Timeout   time.Duration
}

// RateLimitConfig holds the sliding-window rate limit parameters
// applied per client key.
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
}

// SpamGuardConfig holds spam heuristics configuration.
type SpamGuardConfig struct {
	MinElapsed time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnv("SERVER_PORT", "8080"),
			AllowedOrigins: []string{getEnv("CORS_ORIGIN", "http://localhost:3000")},
		},
		Site: SiteConfig{
			Name: getEnv("SITE_NAME", "架空クリニック"),
			URL:  getEnv("SITE_URL", "http://localhost:3000"),
		},
		Mail: MailConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getIntEnv("SMTP_PORT", 587),
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASS", ""),
			From:     getEnv("CONTACT_FROM", ""),
			To:       getEnv("CONTACT_TO", ""),
			Timeout:  getDurationEnv("SMTP_TIMEOUT", 10*time.Second),
		},
		Captcha: CaptchaConfig{
			Secret:    getEnv("CAPTCHA_SECRET", ""),
			VerifyURL: getEnv("CAPTCHA_VERIFY_URL", "https://www.google.com/recaptcha/api/siteverify"),
			Threshold: getFloatEnv("CAPTCHA_THRESHOLD", 0.3),
			Timeout:   getDurationEnv("CAPTCHA_TIMEOUT", 5*time.Second),
		},
		RateLimit: RateLimitConfig{
			MaxRequests: getIntEnv("RATE_LIMIT_MAX", 5),
			Window:      getDurationEnv("RATE_LIMIT_WINDOW", 60*time.Second),
		},
		SpamGuard: SpamGuardConfig{
			MinElapsed: getDurationEnv("SPAM_MIN_ELAPSED", 2*time.Second),
		},
	}
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv returns an integer from environment variable or default
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getFloatEnv returns a float from environment variable or default
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getDurationEnv returns a duration from environment variable or default.
// Values are parsed as Go durations ("30s", "2m").
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
