package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Browser   BrowserConfig   `yaml:"browser"`
	Scraper   ScraperConfig   `yaml:"scraper"`
	Sites     SitesConfig     `yaml:"sites"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
	Webhook   WebhookConfig   `yaml:"webhook"`
}

// ServerConfig controls the HTTP server and the session store.
type ServerConfig struct {
	Host string `yaml:"host"` // default: "0.0.0.0"
	Port int    `yaml:"port"` // default: 8080
	Mode string `yaml:"mode"` // "debug", "release", "test"; default: "release"

	// MaxSessions caps concurrently running scrape sessions.
	MaxSessions int `yaml:"max_sessions"` // default: 2

	// SessionTTL is how long a finished session stays queryable.
	SessionTTL time.Duration `yaml:"session_ttl"` // default: 1h
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool `yaml:"headless"` // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool `yaml:"no_sandbox"` // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string `yaml:"browser_bin"`

	// DefaultProxy is the proxy URL for the browser and the HTTP fetcher.
	DefaultProxy string `yaml:"proxy"`

	// Stealth injects go-rod/stealth into every page.
	Stealth bool `yaml:"stealth"` // default: true

	// UserAgent overrides the browser user agent when set.
	UserAgent string `yaml:"user_agent"`

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string `yaml:"blocked_resources"`

	// BlockTrackers fails requests to known analytics and ad hosts.
	BlockTrackers bool `yaml:"block_trackers"` // default: true
}

// ScraperConfig controls the extraction pipeline.
type ScraperConfig struct {
	// ImplicitWait is how long element lookups retry before giving up.
	ImplicitWait time.Duration `yaml:"implicit_wait"` // default: 10s

	// NavigationTimeout bounds a single navigation.
	NavigationTimeout time.Duration `yaml:"navigation_timeout"` // default: 30s

	// SessionTimeout bounds a whole API scrape session.
	SessionTimeout time.Duration `yaml:"session_timeout"` // default: 2h

	// DescriptionFormat is "text" or "markdown".
	DescriptionFormat string `yaml:"description_format"` // default: "text"

	// Jitter is the maximum random delay added to every governor wait.
	Jitter time.Duration `yaml:"jitter"` // default: 0

	// MaxPages caps result pages walked per search.
	MaxPages int `yaml:"max_pages"` // default: 1
}

// SitesConfig holds per-site defaults.
type SitesConfig struct {
	// Default is the adapter used when a request names none.
	Default string `yaml:"default"` // default: "linkedin"

	// IndeedCountry picks the Indeed root domain.
	IndeedCountry string `yaml:"indeed_country"` // default: "ie"

	// LinkedInCookie is the li_at value used when a request carries none.
	LinkedInCookie string `yaml:"linkedin_cookie"`

	// IndeedCookie is the PPID value used when a request carries none.
	IndeedCookie string `yaml:"indeed_cookie"`
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool `yaml:"enabled"` // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string `yaml:"api_keys"`
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 `yaml:"rps"` // default: 5

	// Burst is the maximum burst size per API key.
	Burst int `yaml:"burst"` // default: 10
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // default: "info"
	Format string `yaml:"format"` // "json" or "text"; default: "json"
}

// WebhookConfig controls session callbacks.
type WebhookConfig struct {
	// Secret signs payloads when a request does not bring its own.
	Secret string `yaml:"secret"`

	// Timeout bounds a single delivery attempt.
	Timeout time.Duration `yaml:"timeout"` // default: 10s

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int `yaml:"max_retries"` // default: 3
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Mode:        "release",
			MaxSessions: 2,
			SessionTTL:  time.Hour,
		},
		Browser: BrowserConfig{
			Headless:             true,
			Stealth:              true,
			BlockedResourceTypes: []string{"Image", "Font", "Media"},
			BlockTrackers:        true,
		},
		Scraper: ScraperConfig{
			ImplicitWait:      10 * time.Second,
			NavigationTimeout: 30 * time.Second,
			SessionTimeout:    2 * time.Hour,
			DescriptionFormat: "text",
			MaxPages:          1,
		},
		Sites: SitesConfig{
			Default:       "linkedin",
			IndeedCountry: "ie",
		},
		Auth:      AuthConfig{Enabled: true},
		RateLimit: RateLimitConfig{RequestsPerSecond: 5, Burst: 10},
		Log:       LogConfig{Level: "info", Format: "json"},
		Webhook:   WebhookConfig{Timeout: 10 * time.Second, MaxRetries: 3},
	}
}

// Load builds the configuration in three layers: built-in defaults, then
// the YAML file named by JOBSCOUT_CONFIG (if any), then JOBSCOUT_*
// environment variables. A .env file in the working directory is loaded
// into the environment first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("JOBSCOUT_CONFIG"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	s := &cfg.Server
	s.Host = envOr("JOBSCOUT_HOST", s.Host)
	s.Port = envIntOr("JOBSCOUT_PORT", s.Port)
	s.Mode = envOr("JOBSCOUT_MODE", s.Mode)
	s.MaxSessions = envIntOr("JOBSCOUT_MAX_SESSIONS", s.MaxSessions)
	s.SessionTTL = envDurationOr("JOBSCOUT_SESSION_TTL", s.SessionTTL)

	b := &cfg.Browser
	b.Headless = envBoolOr("JOBSCOUT_HEADLESS", b.Headless)
	b.NoSandbox = envBoolOr("JOBSCOUT_NO_SANDBOX", b.NoSandbox)
	b.BrowserBin = envOr("JOBSCOUT_BROWSER_BIN", b.BrowserBin)
	b.DefaultProxy = envOr("JOBSCOUT_PROXY", b.DefaultProxy)
	b.Stealth = envBoolOr("JOBSCOUT_STEALTH", b.Stealth)
	b.UserAgent = envOr("JOBSCOUT_USER_AGENT", b.UserAgent)
	b.BlockedResourceTypes = envSliceOr("JOBSCOUT_BLOCKED_RESOURCES", b.BlockedResourceTypes)
	b.BlockTrackers = envBoolOr("JOBSCOUT_BLOCK_TRACKERS", b.BlockTrackers)

	sc := &cfg.Scraper
	sc.ImplicitWait = envDurationOr("JOBSCOUT_IMPLICIT_WAIT", sc.ImplicitWait)
	sc.NavigationTimeout = envDurationOr("JOBSCOUT_NAV_TIMEOUT", sc.NavigationTimeout)
	sc.SessionTimeout = envDurationOr("JOBSCOUT_SESSION_TIMEOUT", sc.SessionTimeout)
	sc.DescriptionFormat = envOr("JOBSCOUT_DESCRIPTION_FORMAT", sc.DescriptionFormat)
	sc.Jitter = envDurationOr("JOBSCOUT_JITTER", sc.Jitter)
	sc.MaxPages = envIntOr("JOBSCOUT_MAX_PAGES", sc.MaxPages)

	st := &cfg.Sites
	st.Default = envOr("JOBSCOUT_DEFAULT_SITE", st.Default)
	st.IndeedCountry = envOr("JOBSCOUT_INDEED_COUNTRY", st.IndeedCountry)
	st.LinkedInCookie = envOr("JOBSCOUT_LINKEDIN_COOKIE", st.LinkedInCookie)
	st.IndeedCookie = envOr("JOBSCOUT_INDEED_COOKIE", st.IndeedCookie)

	cfg.Auth.Enabled = envBoolOr("JOBSCOUT_AUTH_ENABLED", cfg.Auth.Enabled)
	cfg.Auth.APIKeys = envSliceOr("JOBSCOUT_API_KEYS", cfg.Auth.APIKeys)

	cfg.RateLimit.RequestsPerSecond = envFloatOr("JOBSCOUT_RATE_RPS", cfg.RateLimit.RequestsPerSecond)
	cfg.RateLimit.Burst = envIntOr("JOBSCOUT_RATE_BURST", cfg.RateLimit.Burst)

	cfg.Log.Level = envOr("JOBSCOUT_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envOr("JOBSCOUT_LOG_FORMAT", cfg.Log.Format)

	cfg.Webhook.Secret = envOr("JOBSCOUT_WEBHOOK_SECRET", cfg.Webhook.Secret)
	cfg.Webhook.Timeout = envDurationOr("JOBSCOUT_WEBHOOK_TIMEOUT", cfg.Webhook.Timeout)
	cfg.Webhook.MaxRetries = envIntOr("JOBSCOUT_WEBHOOK_RETRIES", cfg.Webhook.MaxRetries)
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
