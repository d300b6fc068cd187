package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Extract   ExtractConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 3000
	Mode string // "debug", "release", "test"; default: "release"

	// AllowedOrigins is the CORS allow list; default: ["*"].
	AllowedOrigins []string
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxConcurrent is the number of simultaneous browser sessions.
	MaxConcurrent int // default: 5, at least 1

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: true

	// BrowserBin overrides the Chromium binary path. When empty the first
	// existing system Chromium is used, else rod downloads one.
	BrowserBin string

	// UserAgent is sent with every page request.
	UserAgent string

	ViewportWidth  int // default: 1280
	ViewportHeight int // default: 800
}

// ScraperConfig controls page loading.
type ScraperConfig struct {
	// DefaultTimeout is the per-request timeout.
	DefaultTimeout time.Duration // default: 90s

	// MaxTimeout is the maximum allowed timeout from the client.
	MaxTimeout time.Duration // default: 180s

	// NavigationTimeout is the max time for page.Navigate alone.
	NavigationTimeout time.Duration // default: 90s

	// BodyTimeout bounds the wait for <body> after navigation.
	BodyTimeout time.Duration // default: 10s

	// SettleDelay is slept after load so client-side rendering can finish.
	SettleDelay time.Duration // default: 2s

	// DefaultFetchMode is used when a request names none: "browser" or "http".
	DefaultFetchMode string // default: "browser"

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Stylesheet", "Font"]
	BlockedResourceTypes []string
}

// ExtractConfig controls the extraction pipeline's bounded waits.
type ExtractConfig struct {
	PopupSettleDelay    time.Duration // default: 1s
	PopupClickDelay     time.Duration // default: 500ms
	StateElementTimeout time.Duration // default: 3s
}

// RateLimitConfig controls per-client rate limiting of /scrape/product-info.
type RateLimitConfig struct {
	// Window and MaxRequests describe the allowed rate: MaxRequests per Window.
	Window      time.Duration // default: 60s
	MaxRequests int           // default: 100
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
// MLSCRAPE_* variables win over the unprefixed names older deployments set.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           envOr("MLSCRAPE_HOST", "0.0.0.0"),
			Port:           envIntOr("MLSCRAPE_PORT", envIntOr("PORT", 3000)),
			Mode:           envOr("MLSCRAPE_MODE", "release"),
			AllowedOrigins: envSliceOr("MLSCRAPE_ALLOWED_ORIGINS", []string{"*"}),
		},
		Browser: BrowserConfig{
			Headless:       envBoolOr("MLSCRAPE_HEADLESS", true),
			MaxConcurrent:  max(1, envIntOr("MLSCRAPE_MAX_CONCURRENT", envIntOr("MAX_CONCURRENT_SCRAPES", 5))),
			NoSandbox:      envBoolOr("MLSCRAPE_NO_SANDBOX", true),
			BrowserBin:     envOr("MLSCRAPE_BROWSER_BIN", os.Getenv("PUPPETEER_EXECUTABLE_PATH")),
			UserAgent:      envOr("MLSCRAPE_USER_AGENT", defaultUserAgent),
			ViewportWidth:  envIntOr("MLSCRAPE_VIEWPORT_WIDTH", 1280),
			ViewportHeight: envIntOr("MLSCRAPE_VIEWPORT_HEIGHT", 800),
		},
		Scraper: ScraperConfig{
			DefaultTimeout:    envDurationOr("MLSCRAPE_DEFAULT_TIMEOUT", 90*time.Second),
			MaxTimeout:        envDurationOr("MLSCRAPE_MAX_TIMEOUT", 180*time.Second),
			NavigationTimeout: envDurationOr("MLSCRAPE_NAV_TIMEOUT", 90*time.Second),
			BodyTimeout:       envDurationOr("MLSCRAPE_BODY_TIMEOUT", 10*time.Second),
			SettleDelay:       envDurationOr("MLSCRAPE_SETTLE_DELAY", 2*time.Second),
			DefaultFetchMode:  envOr("MLSCRAPE_FETCH_MODE", "browser"),
			BlockedResourceTypes: envSliceOr("MLSCRAPE_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font",
			}),
		},
		Extract: ExtractConfig{
			PopupSettleDelay:    envDurationOr("MLSCRAPE_POPUP_SETTLE_DELAY", time.Second),
			PopupClickDelay:     envDurationOr("MLSCRAPE_POPUP_CLICK_DELAY", 500*time.Millisecond),
			StateElementTimeout: envDurationOr("MLSCRAPE_STATE_TIMEOUT", 3*time.Second),
		},
		RateLimit: RateLimitConfig{
			Window:      envMillisOr("RATE_LIMIT_WINDOW", envDurationOr("MLSCRAPE_RATE_WINDOW", time.Minute)),
			MaxRequests: max(1, envIntOr("MLSCRAPE_RATE_MAX", envIntOr("RATE_LIMIT_MAX_REQUESTS", 100))),
		},
		Log: LogConfig{
			Level:  envOr("MLSCRAPE_LOG_LEVEL", "info"),
			Format: envOr("MLSCRAPE_LOG_FORMAT", "json"),
		},
	}
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

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

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envMillisOr reads a bare millisecond count, the unit RATE_LIMIT_WINDOW
// has always used.
func envMillisOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
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
