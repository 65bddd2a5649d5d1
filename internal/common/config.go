package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Logging     LoggingConfig `toml:"logging"`
	Gemini      GeminiConfig  `toml:"gemini"`
	Cache       CacheConfig   `toml:"cache"`
	Refresh     RefreshConfig `toml:"refresh"`
	Market      MarketConfig  `toml:"market"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"min=1,max=65535"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=debug info warn error"` // Log level
	Format string   `toml:"format"`                                      // "json" or "text"
	Output []string `toml:"output"`                                      // "stdout", "file"
}

// GeminiConfig contains Google Gemini API configuration.
// API keys resolve env-first (GEMINI_API_KEYS, GEMINI_API_KEY), then
// api_keys, then api_key.
type GeminiConfig struct {
	APIKey            string   `toml:"api_key"`                              // Single API key fallback
	APIKeys           []string `toml:"api_keys"`                             // Rotation pool, round-robin across requests
	FlashModel        string   `toml:"flash_model"`                          // Fast model (default: "gemini-3-flash-preview")
	ProModel          string   `toml:"pro_model"`                            // Deep model (default: "gemini-3-pro-preview")
	ProThinkingBudget int32    `toml:"pro_thinking_budget"`                  // Thinking token budget for pro mode (default: 5120)
	Timeout           string   `toml:"timeout"`                              // Per-request timeout as duration string (default: "3m")
	RateLimit         string   `toml:"rate_limit"`                           // Minimum spacing between upstream calls (default: "4s")
	MaxAttempts       int      `toml:"max_attempts" validate:"min=1,max=10"` // Call attempts per request (default: 5)
	Temperature       float32  `toml:"temperature"`                          // Generation temperature (default: 0.7)
}

// CacheConfig controls result cache freshness.
type CacheConfig struct {
	// AnalysisTTL is the rolling freshness window for analyses (default: "30m")
	AnalysisTTL string `toml:"analysis_ttl"`
	// DashboardTTL is the rolling freshness window for the dashboard (default: "15m")
	DashboardTTL string `toml:"dashboard_ttl"`
	// DashboardPolicy selects "rolling" or "daily_cutover" dashboard freshness
	DashboardPolicy string `toml:"dashboard_policy" validate:"oneof=rolling daily_cutover"`
}

// RefreshConfig controls background silent refresh.
type RefreshConfig struct {
	Enabled               bool   `toml:"enabled"`                 // Enable background refresh (default: true)
	AnalysisInterval      string `toml:"analysis_interval"`       // Tracked-analysis re-fetch interval (default: "30m")
	DashboardSchedule     string `toml:"dashboard_schedule"`      // Cron schedule for dashboard refresh (default: "*/15 * * * *")
	BackgroundWritesCache bool   `toml:"background_writes_cache"` // Whether silent refreshes update the cache (default: true)
}

// MarketConfig describes the trading session used in prompts.
type MarketConfig struct {
	Timezone  string `toml:"timezone"`   // IANA timezone (default: "Asia/Taipei")
	OpenTime  string `toml:"open_time"`  // Session open, HH:MM (default: "09:00")
	CloseTime string `toml:"close_time"` // Session close, HH:MM (default: "13:30")
}

// NewDefaultConfig creates a configuration with default values.
// Only user-facing settings are exposed in stockwinner.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Gemini: GeminiConfig{
			APIKey:            "",
			APIKeys:           nil,
			FlashModel:        "gemini-3-flash-preview",
			ProModel:          "gemini-3-pro-preview",
			ProThinkingBudget: 5120,
			Timeout:           "3m",
			RateLimit:         "4s", // 15 RPM free tier
			MaxAttempts:       5,
			Temperature:       0.7,
		},
		Cache: CacheConfig{
			AnalysisTTL:     "30m",
			DashboardTTL:    "15m",
			DashboardPolicy: "rolling",
		},
		Refresh: RefreshConfig{
			Enabled:               true,
			AnalysisInterval:      "30m",
			DashboardSchedule:     "*/15 * * * *",
			BackgroundWritesCache: true,
		},
		Market: MarketConfig{
			Timezone:  "Asia/Taipei",
			OpenTime:  "09:00",
			CloseTime: "13:30",
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files. Later files
// override earlier files; environment variables override all files.
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

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks struct tags and the fields toml/validator cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	for name, v := range map[string]string{
		"gemini.timeout":            c.Gemini.Timeout,
		"gemini.rate_limit":         c.Gemini.RateLimit,
		"cache.analysis_ttl":        c.Cache.AnalysisTTL,
		"cache.dashboard_ttl":       c.Cache.DashboardTTL,
		"refresh.analysis_interval": c.Refresh.AnalysisInterval,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", name, err)
		}
	}

	if _, err := cron.ParseStandard(c.Refresh.DashboardSchedule); err != nil {
		return fmt.Errorf("invalid refresh.dashboard_schedule: %w", err)
	}

	if _, err := time.LoadLocation(c.Market.Timezone); err != nil {
		return fmt.Errorf("invalid market.timezone: %w", err)
	}
	for name, v := range map[string]string{
		"market.open_time":  c.Market.OpenTime,
		"market.close_time": c.Market.CloseTime,
	} {
		if _, _, err := parseClock(v); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("STOCKWINNER_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("STOCKWINNER_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("STOCKWINNER_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("STOCKWINNER_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("STOCKWINNER_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("STOCKWINNER_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("STOCKWINNER_LOG_OUTPUT"); output != "" {
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

	// Gemini configuration
	if model := os.Getenv("STOCKWINNER_GEMINI_FLASH_MODEL"); model != "" {
		config.Gemini.FlashModel = model
	}
	if model := os.Getenv("STOCKWINNER_GEMINI_PRO_MODEL"); model != "" {
		config.Gemini.ProModel = model
	}
	if attempts := os.Getenv("STOCKWINNER_GEMINI_MAX_ATTEMPTS"); attempts != "" {
		if a, err := strconv.Atoi(attempts); err == nil {
			config.Gemini.MaxAttempts = a
		}
	}
	if rateLimit := os.Getenv("STOCKWINNER_GEMINI_RATE_LIMIT"); rateLimit != "" {
		config.Gemini.RateLimit = rateLimit
	}

	// Cache configuration
	if ttl := os.Getenv("STOCKWINNER_CACHE_ANALYSIS_TTL"); ttl != "" {
		config.Cache.AnalysisTTL = ttl
	}
	if ttl := os.Getenv("STOCKWINNER_CACHE_DASHBOARD_TTL"); ttl != "" {
		config.Cache.DashboardTTL = ttl
	}
	if policy := os.Getenv("STOCKWINNER_CACHE_DASHBOARD_POLICY"); policy != "" {
		config.Cache.DashboardPolicy = policy
	}

	// Refresh configuration
	if enabled := os.Getenv("STOCKWINNER_REFRESH_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Refresh.Enabled = e
		}
	}
	if schedule := os.Getenv("STOCKWINNER_REFRESH_DASHBOARD_SCHEDULE"); schedule != "" {
		config.Refresh.DashboardSchedule = schedule
	}
	if writes := os.Getenv("STOCKWINNER_REFRESH_BACKGROUND_WRITES_CACHE"); writes != "" {
		if w, err := strconv.ParseBool(writes); err == nil {
			config.Refresh.BackgroundWritesCache = w
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ResolveGeminiKeys returns the credential rotation pool with priority:
// GEMINI_API_KEYS (comma-separated) > GEMINI_API_KEY > config api_keys >
// config api_key. Returns an error when no credential is available.
func ResolveGeminiKeys(config *GeminiConfig) ([]string, error) {
	if raw := os.Getenv("GEMINI_API_KEYS"); raw != "" {
		var keys []string
		for _, k := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(k); trimmed != "" {
				keys = append(keys, trimmed)
			}
		}
		if len(keys) > 0 {
			return keys, nil
		}
	}

	if key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); key != "" {
		return []string{key}, nil
	}

	var keys []string
	for _, k := range config.APIKeys {
		if trimmed := strings.TrimSpace(k); trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	if len(keys) > 0 {
		return keys, nil
	}

	if key := strings.TrimSpace(config.APIKey); key != "" {
		return []string{key}, nil
	}

	return nil, fmt.Errorf("no Gemini API key configured: set GEMINI_API_KEY, GEMINI_API_KEYS or gemini.api_key")
}

// DurationOrDefault parses a duration string, falling back when empty or invalid.
func DurationOrDefault(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
