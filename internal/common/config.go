package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"

	"github.com/ternarybob/jobpilot/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
	Autopilot   AutopilotConfig `toml:"autopilot"`
	Sources     SourcesConfig   `toml:"sources"`
	Discovery   DiscoveryConfig `toml:"discovery"`
	WebSocket   WebSocketConfig `toml:"websocket"`
	Keys        KeysDirConfig   `toml:"keys"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Type   string       `toml:"type"` // only "badger" is supported
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
	Dir        string   `toml:"dir"`         // file output directory (default: logs next to the executable)
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`       // default: "gemini-2.5-flash"
	Timeout     string  `toml:"timeout"`     // per-call timeout as duration string (0 = none)
	Temperature float32 `toml:"temperature"` // default: 0.7
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	LLMProviderGemini LLMProvider = "gemini"
	LLMProviderClaude LLMProvider = "claude"
)

// LLMMode controls how the AI facade reacts to missing credentials and failures.
type LLMMode string

const (
	// LLMModePermissive routes to local heuristics when the API is missing or rate-limited
	LLMModePermissive LLMMode = "permissive"
	// LLMModeStrict requires credentials at startup and surfaces every error
	LLMModeStrict LLMMode = "strict"
)

// LLMConfig contains provider selection and retry behaviour shared by all providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini" or "claude"
	Mode            LLMMode     `toml:"mode"`             // "permissive" or "strict"
	MaxAttempts     int         `toml:"max_attempts"`     // total attempts per call (default: 2)
	BaseBackoff     string      `toml:"base_backoff"`     // first retry delay, doubled per attempt (default: "1s")
}

// AutopilotConfig controls pacing of the automation queue
type AutopilotConfig struct {
	ProcessDelay       string `toml:"process_delay"`       // wait before each AI call (default: "2s")
	RescheduleInterval string `toml:"reschedule_interval"` // wait between iterations (default: "1500ms")
	MatchThreshold     int    `toml:"match_threshold"`     // minimum score to apply (default: 60)
}

// SourcesConfig controls the public job-board adapters
type SourcesConfig struct {
	Remotive         bool   `toml:"remotive"`
	Jobicy           bool   `toml:"jobicy"`
	RemoteOK         bool   `toml:"remoteok"`
	AISearch         bool   `toml:"ai_search"`         // include LLM-backed search results
	PerSourceCount   int    `toml:"per_source_count"`  // listings requested per source query
	MaxResults       int    `toml:"max_results"`       // cap on the combined discovery result
	DescriptionLimit int    `toml:"description_limit"` // runes kept per description
	ShuffleSeed      int64  `toml:"shuffle_seed"`      // 0 = seeded from the clock
	RequestTimeout   string `toml:"request_timeout"`
	RateLimit        string `toml:"rate_limit"` // minimum spacing between requests to one source
	UserAgent        string `toml:"user_agent"`
}

// DiscoveryConfig controls scheduled discovery runs
type DiscoveryConfig struct {
	Enabled   bool   `toml:"enabled"`
	Schedule  string `toml:"schedule"`   // cron expression
	AutoStart bool   `toml:"auto_start"` // start the AutoPilot after a scheduled run adds jobs
}

// WebSocketConfig controls the live event stream
type WebSocketConfig struct {
	AllowedEvents []string `toml:"allowed_events"` // empty = broadcast every event type
	WriteTimeout  string   `toml:"write_timeout"`  // per-message write deadline (default: "5s")
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Type: "badger",
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.5-flash",
			Timeout:     "0s", // no hard timeout on the external call
			Temperature: 0.7,
		},
		Claude: ClaudeConfig{
			Model:       "claude-3-5-haiku-latest",
			MaxTokens:   4096,
			Timeout:     "0s",
			Temperature: 0.7,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
			Mode:            LLMModePermissive,
			MaxAttempts:     2,
			BaseBackoff:     "1s",
		},
		Autopilot: AutopilotConfig{
			ProcessDelay:       "2s",
			RescheduleInterval: "1500ms",
			MatchThreshold:     60,
		},
		Sources: SourcesConfig{
			Remotive:         true,
			Jobicy:           true,
			RemoteOK:         true,
			AISearch:         true,
			PerSourceCount:   20,
			MaxResults:       30,
			DescriptionLimit: 2000,
			ShuffleSeed:      0,
			RequestTimeout:   "15s",
			RateLimit:        "1s",
			UserAgent:        "jobpilot/1.0 (+https://github.com/ternarybob/jobpilot)",
		},
		Discovery: DiscoveryConfig{
			Enabled:   false,
			Schedule:  "0 */6 * * *", // every 6 hours
			AutoStart: false,
		},
		WebSocket: WebSocketConfig{
			AllowedEvents: []string{},
			WriteTimeout:  "5s",
		},
		Keys: KeysDirConfig{
			Dir: "./keys",
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
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
	if env := os.Getenv("JOBPILOT_ENV"); env != "" {
		config.Environment = env
	}

	// Server
	if port := os.Getenv("JOBPILOT_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("JOBPILOT_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage
	if badgerPath := os.Getenv("JOBPILOT_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging
	if level := os.Getenv("JOBPILOT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("JOBPILOT_LOG_OUTPUT"); output != "" {
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

	// LLM
	if provider := os.Getenv("JOBPILOT_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(strings.ToLower(provider))
	}
	if mode := os.Getenv("JOBPILOT_LLM_MODE"); mode != "" {
		config.LLM.Mode = LLMMode(strings.ToLower(mode))
	}
	if model := os.Getenv("JOBPILOT_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if model := os.Getenv("JOBPILOT_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}

	// Autopilot
	if delay := os.Getenv("JOBPILOT_AUTOPILOT_PROCESS_DELAY"); delay != "" {
		if _, err := time.ParseDuration(delay); err == nil {
			config.Autopilot.ProcessDelay = delay
		}
	}
	if threshold := os.Getenv("JOBPILOT_AUTOPILOT_MATCH_THRESHOLD"); threshold != "" {
		if t, err := strconv.Atoi(threshold); err == nil {
			config.Autopilot.MatchThreshold = t
		}
	}

	// Discovery
	if enabled := os.Getenv("JOBPILOT_DISCOVERY_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Discovery.Enabled = e
		}
	}
	if schedule := os.Getenv("JOBPILOT_DISCOVERY_SCHEDULE"); schedule != "" {
		config.Discovery.Schedule = schedule
	}

	if dir := os.Getenv("JOBPILOT_KEYS_DIR"); dir != "" {
		config.Keys.Dir = dir
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks settings that would otherwise fail at first use.
// In strict LLM mode a missing API key for the default provider blocks startup.
func (c *Config) Validate(ctx context.Context, kvStorage interfaces.KeyValueStorage) error {
	switch c.LLM.Mode {
	case LLMModePermissive, LLMModeStrict:
	default:
		return fmt.Errorf("invalid llm.mode %q (expected permissive or strict)", c.LLM.Mode)
	}

	switch c.LLM.DefaultProvider {
	case LLMProviderGemini, LLMProviderClaude:
	default:
		return fmt.Errorf("invalid llm.default_provider %q (expected gemini or claude)", c.LLM.DefaultProvider)
	}

	if c.Autopilot.MatchThreshold < 0 || c.Autopilot.MatchThreshold > 100 {
		return fmt.Errorf("autopilot.match_threshold must be within 0-100, got %d", c.Autopilot.MatchThreshold)
	}

	if c.Discovery.Enabled {
		if _, err := cron.ParseStandard(c.Discovery.Schedule); err != nil {
			return fmt.Errorf("invalid discovery.schedule %q: %w", c.Discovery.Schedule, err)
		}
	}

	if c.LLM.Mode == LLMModeStrict {
		name, fallback := c.ProviderKey()
		if _, err := ResolveAPIKey(ctx, kvStorage, name, fallback); err != nil {
			return fmt.Errorf("llm.mode is strict but no API key is configured: %w", err)
		}
	}

	return nil
}

// ProviderKey returns the KV key name and config fallback for the default provider's API key
func (c *Config) ProviderKey() (string, string) {
	if c.LLM.DefaultProvider == LLMProviderClaude {
		return "anthropic_api_key", c.Claude.APIKey
	}
	return "gemini_api_key", c.Gemini.APIKey
}

// ResolveAPIKey resolves an API key by name.
// Resolution order: environment variables → KV store → config fallback → error
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key":    {"JOBPILOT_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"anthropic_api_key": {"JOBPILOT_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
	}

	for _, envVarName := range keyToEnvMapping[name] {
		if envValue := os.Getenv(envVarName); envValue != "" {
			return envValue, nil
		}
	}

	if kvStorage != nil {
		apiKey, err := kvStorage.Get(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment, KV store, or config", name)
}

// ParseDurationOr parses a duration string, returning def when the value is empty or invalid
func ParseDurationOr(value string, def time.Duration) time.Duration {
	if strings.TrimSpace(value) == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return def
	}
	return d
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
