package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Logging     LoggingConfig   `toml:"logging"`
	Storage     StorageConfig   `toml:"storage"`
	Browser     BrowserConfig   `toml:"browser"`
	Extractor   ExtractorConfig `toml:"extractor"`
	Login       LoginConfig     `toml:"login"`
	Cookies     CookiesConfig   `toml:"cookies"`
	Cache       CacheConfig     `toml:"cache"`
	RateLimit   RateLimitConfig `toml:"rate_limit"`
	WebSocket   WebSocketConfig `toml:"websocket"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"min=1,max=65535"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=trace debug info warn error"` // "debug", "info", "warn", "error"
	Output []string `toml:"output"`                                             // "stdout", "file"
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path string `toml:"path" validate:"required"` // Database directory path
}

// BrowserConfig controls the headless Chrome processes the service launches.
// Anti-automation flags that must always be present (no-sandbox, disable-gpu,
// disable-dev-shm-usage, AutomationControlled) are hardcoded in the browser
// service for production stability; only user-tunable settings live here.
type BrowserConfig struct {
	Headless     bool          `toml:"headless"`      // Run Chrome headless (default: true; disable for debugging)
	UserAgent    string        `toml:"user_agent"`    // Spoofed UA string
	WindowWidth  int           `toml:"window_width"`  // Viewport width
	WindowHeight int           `toml:"window_height"` // Viewport height
	Lang         string        `toml:"lang"`          // Browser UI language (default: "zh-CN")
	UserDataDir  string        `toml:"user_data_dir"` // Optional persistent Chrome profile directory
	Profile      string        `toml:"profile"`       // Profile name inside user_data_dir (default: "Default")
	NavTimeout   time.Duration `toml:"nav_timeout"`   // Per-navigation timeout
	SettleWait   time.Duration `toml:"settle_wait"`   // Post-navigation JS settle wait for scrapes
}

// ExtractorConfig bounds the state extraction cascade.
type ExtractorConfig struct {
	RuntimeBudget time.Duration `toml:"runtime_budget"` // Runtime probe total budget (default: 8s)
	RuntimeStep   time.Duration `toml:"runtime_step"`   // Runtime probe polling step (default: 500ms)
	VerifyBudget  time.Duration `toml:"verify_budget"`  // Short budget for login verification rechecks (default: 3s)
}

// LoginConfig controls the QR login session lifecycle.
type LoginConfig struct {
	DefaultURL      string        `toml:"default_url"`      // Page opened for the QR prompt
	CookieThreshold int           `toml:"cookie_threshold" validate:"min=1"` // Cookie count that triggers the verified recheck path
	RecheckInterval time.Duration `toml:"recheck_interval"` // Min spacing between refresh+renavigate rechecks (default: 5s)
	PollStep        time.Duration `toml:"poll_step"`        // Sleep between poll iterations (default: 1s)
	ModalWait       time.Duration `toml:"modal_wait"`       // Budget for the login modal to appear after clicking (default: 8s)
	SettleWait      time.Duration `toml:"settle_wait"`      // Post-navigation wait in the login flow (default: 2s)
	MaxSessionAge   time.Duration `toml:"max_session_age"`  // Reaper closes sessions older than this (default: 30m)
	SelectorProfile string        `toml:"selector_profile"` // Optional YAML file overriding click selector candidates
}

// CookiesConfig controls credential persistence. The JSON and cookie-string
// environment variables (REDNOTE_COOKIES_JSON, REDNOTE_COOKIES) are read by
// the cookie store at load time and are not configurable.
type CookiesConfig struct {
	File string `toml:"file"` // Persistence path; empty resolves against browser.user_data_dir
}

type CacheConfig struct {
	TTL time.Duration `toml:"ttl"` // Cached note lifetime; 0 disables expiry
}

// RateLimitConfig throttles outbound scrapes against the target site.
type RateLimitConfig struct {
	RequestsPerMinute int `toml:"requests_per_minute" validate:"min=1"`
	Burst             int `toml:"burst" validate:"min=1"`
}

// WebSocketConfig contains configuration for WebSocket status/log streaming
type WebSocketConfig struct {
	MinLevel        string   `toml:"min_level"`        // Minimum log level to broadcast ("debug", "info", "warn", "error")
	ExcludePatterns []string `toml:"exclude_patterns"` // Log message patterns to exclude from broadcasting
	StatusThrottle  string   `toml:"status_throttle"`  // Min interval between login_status pushes (e.g. "500ms")
}

// SchedulerConfig controls background maintenance jobs.
type SchedulerConfig struct {
	Enabled               bool          `toml:"enabled"`
	CacheGCSchedule       string        `toml:"cache_gc_schedule"`       // Cron spec for note cache cleanup
	SessionReaperSchedule string        `toml:"session_reaper_schedule"` // Cron spec for stale login session reaping
	EventRetention        time.Duration `toml:"event_retention"`         // Login audit events older than this are purged
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for summarization (default: "gemini-3-flash-preview")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.3)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`    // Anthropic API key
	Model       string  `toml:"model"`      // Model for summarization (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"` // Maximum tokens in response (default: 1024)
	Timeout     string  `toml:"timeout"`    // Operation timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"`
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini" or "claude" (default: "gemini")
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in rednote.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/badger",
			},
		},
		Browser: BrowserConfig{
			Headless:     true,
			UserAgent:    "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
			WindowWidth:  1280,
			WindowHeight: 720,
			Lang:         "zh-CN",
			Profile:      "Default",
			NavTimeout:   30 * time.Second,
			SettleWait:   3 * time.Second,
		},
		Extractor: ExtractorConfig{
			RuntimeBudget: 8 * time.Second,
			RuntimeStep:   500 * time.Millisecond,
			VerifyBudget:  3 * time.Second,
		},
		Login: LoginConfig{
			DefaultURL:      "https://www.xiaohongshu.com/explore",
			CookieThreshold: 8,
			RecheckInterval: 5 * time.Second,
			PollStep:        1 * time.Second,
			ModalWait:       8 * time.Second,
			SettleWait:      2 * time.Second,
			MaxSessionAge:   30 * time.Minute,
		},
		Cookies: CookiesConfig{
			File: "./data/cookies.json",
		},
		Cache: CacheConfig{
			TTL: 1 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 12, // One scrape every 5s keeps risk-control pressure low
			Burst:             2,
		},
		WebSocket: WebSocketConfig{
			MinLevel: "info",
			ExcludePatterns: []string{
				"WebSocket client connected",
				"WebSocket client disconnected",
				"HTTP request",
				"HTTP response",
				"Publishing event",
			},
			StatusThrottle: "500ms",
		},
		Scheduler: SchedulerConfig{
			Enabled:               true,
			CacheGCSchedule:       "0 * * * *",   // Hourly
			SessionReaperSchedule: "*/5 * * * *", // Every 5 minutes
			EventRetention:        7 * 24 * time.Hour,
		},
		Gemini: GeminiConfig{
			APIKey:      "",
			Model:       "gemini-3-flash-preview",
			Timeout:     "2m",
			Temperature: 0.3,
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   1024,
			Timeout:     "2m",
			Temperature: 0.3,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
// CLI flag overrides are applied by the caller after loading.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files, later files
// overriding earlier ones, then applies environment variable overrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: REDNOTE_ENV, fallback: GO_ENV)
	if env := os.Getenv("REDNOTE_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("REDNOTE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("REDNOTE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Logging configuration
	if level := os.Getenv("REDNOTE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("REDNOTE_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Storage configuration
	if badgerPath := os.Getenv("REDNOTE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Browser configuration
	if headless := os.Getenv("REDNOTE_BROWSER_HEADLESS"); headless != "" {
		if h, err := strconv.ParseBool(headless); err == nil {
			config.Browser.Headless = h
		}
	}
	if userAgent := os.Getenv("REDNOTE_BROWSER_USER_AGENT"); userAgent != "" {
		config.Browser.UserAgent = userAgent
	}
	if userDataDir := os.Getenv("REDNOTE_BROWSER_USER_DATA_DIR"); userDataDir != "" {
		config.Browser.UserDataDir = userDataDir
	}
	if profile := os.Getenv("REDNOTE_BROWSER_PROFILE"); profile != "" {
		config.Browser.Profile = profile
	}
	if navTimeout := os.Getenv("REDNOTE_BROWSER_NAV_TIMEOUT"); navTimeout != "" {
		if d, err := time.ParseDuration(navTimeout); err == nil {
			config.Browser.NavTimeout = d
		}
	}
	if settleWait := os.Getenv("REDNOTE_BROWSER_SETTLE_WAIT"); settleWait != "" {
		if d, err := time.ParseDuration(settleWait); err == nil {
			config.Browser.SettleWait = d
		}
	}

	// Extractor configuration
	if budget := os.Getenv("REDNOTE_EXTRACTOR_RUNTIME_BUDGET"); budget != "" {
		if d, err := time.ParseDuration(budget); err == nil {
			config.Extractor.RuntimeBudget = d
		}
	}
	if step := os.Getenv("REDNOTE_EXTRACTOR_RUNTIME_STEP"); step != "" {
		if d, err := time.ParseDuration(step); err == nil {
			config.Extractor.RuntimeStep = d
		}
	}

	// Login configuration
	if url := os.Getenv("REDNOTE_LOGIN_DEFAULT_URL"); url != "" {
		config.Login.DefaultURL = url
	}
	if threshold := os.Getenv("REDNOTE_LOGIN_COOKIE_THRESHOLD"); threshold != "" {
		if t, err := strconv.Atoi(threshold); err == nil {
			config.Login.CookieThreshold = t
		}
	}
	if maxAge := os.Getenv("REDNOTE_LOGIN_MAX_SESSION_AGE"); maxAge != "" {
		if d, err := time.ParseDuration(maxAge); err == nil {
			config.Login.MaxSessionAge = d
		}
	}
	if profile := os.Getenv("REDNOTE_LOGIN_SELECTOR_PROFILE"); profile != "" {
		config.Login.SelectorProfile = profile
	}

	// Cookies configuration
	if file := os.Getenv("REDNOTE_COOKIES_FILE"); file != "" {
		config.Cookies.File = file
	}

	// Cache configuration
	if ttl := os.Getenv("REDNOTE_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			config.Cache.TTL = d
		}
	}

	// Rate limit configuration
	if rpm := os.Getenv("REDNOTE_RATE_LIMIT_RPM"); rpm != "" {
		if r, err := strconv.Atoi(rpm); err == nil {
			config.RateLimit.RequestsPerMinute = r
		}
	}

	// WebSocket configuration
	if minLevel := os.Getenv("REDNOTE_WEBSOCKET_MIN_LEVEL"); minLevel != "" {
		config.WebSocket.MinLevel = minLevel
	}
	if throttle := os.Getenv("REDNOTE_WEBSOCKET_STATUS_THROTTLE"); throttle != "" {
		if _, err := time.ParseDuration(throttle); err == nil {
			config.WebSocket.StatusThrottle = throttle
		}
	}

	// Scheduler configuration
	if enabled := os.Getenv("REDNOTE_SCHEDULER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = e
		}
	}

	// Gemini configuration
	if apiKey := os.Getenv("REDNOTE_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("REDNOTE_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}

	// Claude configuration
	if apiKey := os.Getenv("REDNOTE_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	} else if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if model := os.Getenv("REDNOTE_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}

	// LLM configuration
	if provider := os.Getenv("REDNOTE_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(strings.ToLower(provider))
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
