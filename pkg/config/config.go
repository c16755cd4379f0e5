package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Export delivery modes.
const (
	ModeLocal  = "local"
	ModeRemote = "remote"
)

// Config holds all configuration options for an engagement collection run
type Config struct {
	// Browser connection and navigation
	Browser BrowserConfig `yaml:"browser" toml:"browser" json:"browser"`

	// Progressive reveal tuning per category
	Collection CollectionConfig `yaml:"collection" toml:"collection" json:"collection"`

	// Overlay force-close behaviour between stages
	Overlay OverlayConfig `yaml:"overlay" toml:"overlay" json:"overlay"`

	// Load-more pacing
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit" json:"rate_limit"`

	// Export delivery
	Export ExportConfig `yaml:"export" toml:"export" json:"export"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" toml:"logging" json:"logging"`
}

// BrowserConfig holds the browser connection settings
type BrowserConfig struct {
	DebuggerURL       string   `yaml:"debugger_url" toml:"debugger_url" json:"debugger_url"`
	Headless          bool     `yaml:"headless" toml:"headless" json:"headless"`
	Binary            string   `yaml:"binary" toml:"binary" json:"binary"`
	NavigationTimeout Duration `yaml:"navigation_timeout" toml:"navigation_timeout" json:"navigation_timeout"`
	SettleDelay       Duration `yaml:"settle_delay" toml:"settle_delay" json:"settle_delay"`
}

// RevealConfig tunes the reveal controller for one category
type RevealConfig struct {
	MaxTicks           int      `yaml:"max_ticks" toml:"max_ticks" json:"max_ticks"`
	StableThreshold    int      `yaml:"stable_threshold" toml:"stable_threshold" json:"stable_threshold"`
	UnchangedThreshold int      `yaml:"unchanged_threshold" toml:"unchanged_threshold" json:"unchanged_threshold"`
	PanelAttempts      int      `yaml:"panel_attempts" toml:"panel_attempts" json:"panel_attempts"`
	PanelInterval      Duration `yaml:"panel_interval" toml:"panel_interval" json:"panel_interval"`
}

// DelayConfig describes a jittered delay: Base plus a random share of Spread
type DelayConfig struct {
	Base   Duration `yaml:"base" toml:"base" json:"base"`
	Spread Duration `yaml:"spread" toml:"spread" json:"spread"`
}

// CollectionConfig holds collection limits and pacing
type CollectionConfig struct {
	GlobalCap  int          `yaml:"global_cap" toml:"global_cap" json:"global_cap"`
	Reactions  RevealConfig `yaml:"reactions" toml:"reactions" json:"reactions"`
	Comments   RevealConfig `yaml:"comments" toml:"comments" json:"comments"`
	Reposts    RevealConfig `yaml:"reposts" toml:"reposts" json:"reposts"`
	SmallTotal int          `yaml:"small_total" toml:"small_total" json:"small_total"`
	SmallDelay DelayConfig  `yaml:"small_delay" toml:"small_delay" json:"small_delay"`
	LargeDelay DelayConfig  `yaml:"large_delay" toml:"large_delay" json:"large_delay"`
	StagePause Duration     `yaml:"stage_pause" toml:"stage_pause" json:"stage_pause"`
}

// OverlayConfig holds the force-close settings
type OverlayConfig struct {
	CancelPresses int      `yaml:"cancel_presses" toml:"cancel_presses" json:"cancel_presses"`
	CancelPause   Duration `yaml:"cancel_pause" toml:"cancel_pause" json:"cancel_pause"`
	DismissPause  Duration `yaml:"dismiss_pause" toml:"dismiss_pause" json:"dismiss_pause"`
}

// RateLimitConfig holds load-more pacing configuration
type RateLimitConfig struct {
	ActionsPerMinute int `yaml:"actions_per_minute" toml:"actions_per_minute" json:"actions_per_minute"`
	BurstSize        int `yaml:"burst_size" toml:"burst_size" json:"burst_size"`
}

// ExportConfig holds export delivery configuration
type ExportConfig struct {
	Mode            string   `yaml:"mode" toml:"mode" json:"mode"`
	Endpoint        string   `yaml:"endpoint" toml:"endpoint" json:"endpoint"`
	OutputDir       string   `yaml:"output_dir" toml:"output_dir" json:"output_dir"`
	FileNamePattern string   `yaml:"file_name_pattern" toml:"file_name_pattern" json:"file_name_pattern"`
	RemoteTimeout   Duration `yaml:"remote_timeout" toml:"remote_timeout" json:"remote_timeout"`
	RemoteAttempts  int      `yaml:"remote_attempts" toml:"remote_attempts" json:"remote_attempts"`
	Filter          string   `yaml:"filter" toml:"filter" json:"filter"`
	Credential      string   `yaml:"credential" toml:"credential" json:"credential"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" toml:"level" json:"level"`
	File  string `yaml:"file" toml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:          false,
			NavigationTimeout: Duration(45 * time.Second),
			SettleDelay:       Duration(3 * time.Second),
		},
		Collection: CollectionConfig{
			GlobalCap: 2000,
			Reactions: RevealConfig{
				MaxTicks:           250,
				StableThreshold:    8,
				UnchangedThreshold: 5,
				PanelAttempts:      20,
				PanelInterval:      Duration(150 * time.Millisecond),
			},
			Comments: RevealConfig{
				MaxTicks:           100,
				StableThreshold:    3,
				UnchangedThreshold: 3,
			},
			Reposts: RevealConfig{
				MaxTicks:           100,
				StableThreshold:    6,
				UnchangedThreshold: 6,
				PanelAttempts:      15,
				PanelInterval:      Duration(250 * time.Millisecond),
			},
			SmallTotal: 50,
			SmallDelay: DelayConfig{Base: Duration(600 * time.Millisecond), Spread: Duration(300 * time.Millisecond)},
			LargeDelay: DelayConfig{Base: Duration(900 * time.Millisecond), Spread: Duration(600 * time.Millisecond)},
			StagePause: Duration(1500 * time.Millisecond),
		},
		Overlay: OverlayConfig{
			CancelPresses: 5,
			CancelPause:   Duration(200 * time.Millisecond),
			DismissPause:  Duration(300 * time.Millisecond),
		},
		RateLimit: RateLimitConfig{
			ActionsPerMinute: 60,
			BurstSize:        5,
		},
		Export: ExportConfig{
			Mode:            ModeLocal,
			OutputDir:       ".",
			FileNamePattern: "contacts_export_{timestamp}.csv",
			RemoteTimeout:   Duration(30 * time.Second),
			RemoteAttempts:  2,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from ENGAGE_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv("ENGAGE_DEBUGGER_URL"); v != "" {
		c.Browser.DebuggerURL = v
	}
	if v := os.Getenv("ENGAGE_HEADLESS"); v != "" {
		c.Browser.Headless = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("ENGAGE_BROWSER_BIN"); v != "" {
		c.Browser.Binary = v
	}
	if v := os.Getenv("ENGAGE_GLOBAL_CAP"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("ENGAGE_GLOBAL_CAP: %w", err))
		} else if n > 0 {
			c.Collection.GlobalCap = n
		}
	}
	if v := os.Getenv("ENGAGE_ACTIONS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("ENGAGE_ACTIONS_PER_MINUTE: %w", err))
		} else if n > 0 {
			c.RateLimit.ActionsPerMinute = n
		}
	}
	if v := os.Getenv("ENGAGE_EXPORT_MODE"); v != "" {
		c.Export.Mode = strings.ToLower(v)
	}
	if v := os.Getenv("ENGAGE_WEBHOOK_URL"); v != "" {
		c.Export.Endpoint = v
	}
	if v := os.Getenv("ENGAGE_OUTPUT_DIR"); v != "" {
		c.Export.OutputDir = v
	}
	if v := os.Getenv("ENGAGE_FILTER"); v != "" {
		c.Export.Filter = v
	}
	if v := os.Getenv("ENGAGE_CREDENTIAL"); v != "" {
		c.Export.Credential = v
	}
	if v := os.Getenv("ENGAGE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ENGAGE_LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML or TOML file, chosen by extension
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if isTOML(path) {
		err = toml.Unmarshal(data, c)
	} else {
		err = yaml.Unmarshal(data, c)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// findConfigFile searches for a config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".engage.yaml",
		".engage.yml",
		".engage.toml",
		filepath.Join(home, ".config", "engage", "config.yaml"),
		filepath.Join(home, ".config", "engage", "config.yml"),
		filepath.Join(home, ".config", "engage", "config.toml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Collection.GlobalCap <= 0 {
		errs = append(errs, errors.New("global cap must be positive"))
	}
	for name, r := range map[string]RevealConfig{
		"reactions": c.Collection.Reactions,
		"comments":  c.Collection.Comments,
		"reposts":   c.Collection.Reposts,
	} {
		if r.MaxTicks <= 0 {
			errs = append(errs, fmt.Errorf("%s: max ticks must be positive", name))
		}
		if r.StableThreshold <= 0 || r.UnchangedThreshold <= 0 {
			errs = append(errs, fmt.Errorf("%s: stability thresholds must be positive", name))
		}
		if r.PanelAttempts < 0 || r.PanelInterval < 0 {
			errs = append(errs, fmt.Errorf("%s: panel wait cannot be negative", name))
		}
	}
	if c.Collection.SmallTotal < 0 {
		errs = append(errs, errors.New("small total threshold cannot be negative"))
	}
	for _, d := range []DelayConfig{c.Collection.SmallDelay, c.Collection.LargeDelay} {
		if d.Base < 0 || d.Spread < 0 {
			errs = append(errs, errors.New("tick delays cannot be negative"))
			break
		}
	}
	if c.Overlay.CancelPresses < 0 {
		errs = append(errs, errors.New("cancel presses cannot be negative"))
	}

	if c.RateLimit.ActionsPerMinute <= 0 {
		errs = append(errs, errors.New("actions per minute must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	switch c.Export.Mode {
	case ModeLocal:
	case ModeRemote:
		if c.Export.Endpoint == "" {
			errs = append(errs, errors.New("remote export requires an endpoint"))
		} else if u, err := url.Parse(c.Export.Endpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("invalid endpoint %q", c.Export.Endpoint))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid export mode %q", c.Export.Mode))
	}
	if c.Export.OutputDir == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Export.FileNamePattern == "" {
		errs = append(errs, errors.New("file name pattern is required"))
	}
	if c.Export.RemoteTimeout <= 0 {
		errs = append(errs, errors.New("remote timeout must be positive"))
	}
	if c.Export.RemoteAttempts <= 0 {
		errs = append(errs, errors.New("remote attempts must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save writes the configuration as YAML, or TOML for a .toml path
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(c)
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["debugger-url"].(string); ok && v != "" {
		c.Browser.DebuggerURL = v
	}
	if v, ok := flags["headless"].(bool); ok && v {
		c.Browser.Headless = true
	}
	if v, ok := flags["mode"].(string); ok && v != "" {
		c.Export.Mode = strings.ToLower(v)
	}
	if v, ok := flags["webhook"].(string); ok && v != "" {
		c.Export.Endpoint = v
		if _, set := flags["mode"]; !set {
			c.Export.Mode = ModeRemote
		}
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Export.OutputDir = v
	}
	if v, ok := flags["filter"].(string); ok && v != "" {
		c.Export.Filter = v
	}
	if v, ok := flags["credential"].(string); ok && v != "" {
		c.Export.Credential = v
	}
	if v, ok := flags["max"].(int); ok && v > 0 {
		c.Collection.GlobalCap = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".engage.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
