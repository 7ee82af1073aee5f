package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	// Embedded zone database for hosts without /usr/share/zoneinfo.
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

const (
	BackendNone   = "none"
	BackendOpenAI = "openai"
)

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	// URL is the ICS subscription endpoint or a local file path.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for logging and as the event source.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the widget API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// WidgetConfig is what the chat widget shows before the first message.
type WidgetConfig struct {
	Title       string   `yaml:"title" json:"title"`
	Greeting    string   `yaml:"greeting" json:"greeting"`
	Suggestions []string `yaml:"suggestions" json:"suggestions"`
}

type ResultsConfig struct {
	// Limit caps how many matches a search reply carries.
	Limit int `yaml:"limit" json:"limit"`
	// DelayMS is the simulated latency before a search reply.
	DelayMS int `yaml:"delay_ms" json:"delay_ms"`
}

func (r ResultsConfig) Delay() time.Duration {
	return time.Duration(r.DelayMS) * time.Millisecond
}

// ChatConfig selects the backend non-event messages are delegated to.
type ChatConfig struct {
	// Backend is "none" (canned replies only) or "openai".
	Backend string `yaml:"backend" json:"backend"`
	Model   string `yaml:"model" json:"model"`
	BaseURL string `yaml:"base_url" json:"base_url"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv    string `yaml:"api_key_env" json:"api_key_env"`
	SystemPrompt string `yaml:"system_prompt" json:"system_prompt"`
}

// APIKey resolves the key from the environment.
func (c ChatConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(c.APIKeyEnv))
}

type SessionsConfig struct {
	Max        int `yaml:"max" json:"max"`
	TTLMinutes int `yaml:"ttl_minutes" json:"ttl_minutes"`
}

func (s SessionsConfig) TTL() time.Duration {
	return time.Duration(s.TTLMinutes) * time.Minute
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the widget API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone relative dates are resolved in.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is a 5-field cron schedule for reloading event sources.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays / BackfillDays bound recurring ICS expansion around now.
	HorizonDays  int `yaml:"horizon_days" json:"horizon_days"`
	BackfillDays int `yaml:"backfill_days" json:"backfill_days"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// DataPath is the portal's events JSON file. Relative paths resolve
	// against the config file's directory.
	DataPath string `yaml:"data_path" json:"data_path"`

	// ICS is the list of subscribed ICS sources.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	Widget   WidgetConfig   `yaml:"widget" json:"widget"`
	Results  ResultsConfig  `yaml:"results" json:"results"`
	Chat     ChatConfig     `yaml:"chat" json:"chat"`
	Sessions SessionsConfig `yaml:"sessions" json:"sessions"`
}

func defaultSuggestions() []string {
	return []string{
		"Events today",
		"Technical events this week",
		"Upcoming events tag:ai",
		"Events in Hall B",
	}
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       "127.0.0.1:8080",
		Timezone:     "Asia/Ho_Chi_Minh",
		RefreshCron:  "*/15 * * * *",
		HorizonDays:  60,
		BackfillDays: 7,
		LogLevel:     "info",
		DataPath:     "events.json",
		ICS:          []ICSConfig{},
		BasicAuth:    nil,
		Widget: WidgetConfig{
			Title:       "Campus Events Assistant",
			Greeting:    "Hi! Ask me about campus events, e.g. \"events today\" or \"technical events this week\".",
			Suggestions: defaultSuggestions(),
		},
		Results: ResultsConfig{Limit: 6, DelayMS: 500},
		Chat: ChatConfig{
			Backend:   BackendNone,
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Sessions: SessionsConfig{Max: 1000, TTLMinutes: 30},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = def.HorizonDays
	}
	if c.BackfillDays < 0 {
		c.BackfillDays = 0
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = def.LogLevel
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	for i := range c.ICS {
		if c.ICS[i].ID == "" {
			c.ICS[i].ID = fmt.Sprintf("ics-%d", i+1)
		}
	}

	if c.Widget.Title == "" {
		c.Widget.Title = def.Widget.Title
	}
	if c.Widget.Greeting == "" {
		c.Widget.Greeting = def.Widget.Greeting
	}
	if c.Widget.Suggestions == nil {
		c.Widget.Suggestions = defaultSuggestions()
	}

	if c.Results.Limit <= 0 {
		c.Results.Limit = def.Results.Limit
	}
	if c.Results.DelayMS < 0 {
		c.Results.DelayMS = 0
	}

	switch strings.ToLower(c.Chat.Backend) {
	case BackendOpenAI:
		c.Chat.Backend = BackendOpenAI
	default:
		// Unknown backends fall back to canned replies.
		c.Chat.Backend = BackendNone
	}
	if c.Chat.Model == "" {
		c.Chat.Model = def.Chat.Model
	}
	if c.Chat.APIKeyEnv == "" {
		c.Chat.APIKeyEnv = def.Chat.APIKeyEnv
	}

	if c.Sessions.Max <= 0 {
		c.Sessions.Max = def.Sessions.Max
	}
	if c.Sessions.TTLMinutes <= 0 {
		c.Sessions.TTLMinutes = def.Sessions.TTLMinutes
	}
}

// Location loads the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ResolveDataPath returns DataPath made absolute relative to the config
// file at configPath. Empty stays empty.
func (c *Config) ResolveDataPath(configPath string) string {
	if c.DataPath == "" || filepath.IsAbs(c.DataPath) {
		return c.DataPath
	}
	return filepath.Join(filepath.Dir(configPath), c.DataPath)
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path atomically
// (temp file + rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".campusbot-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method that delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
