package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"xscraper/pkg/models"
)

// Config holds all configuration options for the X.com scraper.
type Config struct {
	// Target site endpoints and session persistence
	X XConfig `yaml:"x" json:"x"`

	// Browser launch and page settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Extraction loop settings
	Scrape ScrapeConfig `yaml:"scrape" json:"scrape"`

	// Settle delays after render-triggering actions
	Pacing PacingConfig `yaml:"pacing" json:"pacing"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// XConfig holds the target site's entry points and cookie persistence path.
type XConfig struct {
	LoginURL    string `yaml:"login_url" json:"login_url"`
	HomeURL     string `yaml:"home_url" json:"home_url"`
	SearchURL   string `yaml:"search_url" json:"search_url"`
	CookiesFile string `yaml:"cookies_file" json:"cookies_file"`
}

// BrowserConfig holds browser launch and page context settings.
type BrowserConfig struct {
	Headless      bool          `yaml:"headless" json:"headless"`
	ChromePath    string        `yaml:"chrome_path" json:"chrome_path"`
	UserAgent     string        `yaml:"user_agent" json:"user_agent"`
	Locale        string        `yaml:"locale" json:"locale"`
	WindowWidth   int           `yaml:"window_width" json:"window_width"`
	WindowHeight  int           `yaml:"window_height" json:"window_height"`
	SlowMotion    time.Duration `yaml:"slow_motion" json:"slow_motion"`
	NavAttempts   int           `yaml:"nav_attempts" json:"nav_attempts"`
	NavCooldown   time.Duration `yaml:"nav_cooldown" json:"nav_cooldown"`
	ElementWait   time.Duration `yaml:"element_wait" json:"element_wait"`
	SignalWait    time.Duration `yaml:"signal_wait" json:"signal_wait"`
	ChallengeWait time.Duration `yaml:"challenge_wait" json:"challenge_wait"`
}

// ScrapeConfig holds extraction loop settings.
type ScrapeConfig struct {
	MaxCycles      int     `yaml:"max_cycles" json:"max_cycles"`
	ScrollPixels   float64 `yaml:"scroll_pixels" json:"scroll_pixels"`
	MinTextLength  int     `yaml:"min_text_length" json:"min_text_length"`
	EmptyCycleMax  int     `yaml:"empty_cycle_max" json:"empty_cycle_max"`
	NoNewCycleMax  int     `yaml:"no_new_cycle_max" json:"no_new_cycle_max"`
	CheckpointEach int     `yaml:"checkpoint_each" json:"checkpoint_each"`
}

// PacingConfig holds the settle delays applied after each action kind.
type PacingConfig struct {
	Navigate     time.Duration `yaml:"navigate" json:"navigate"`
	Scroll       time.Duration `yaml:"scroll" json:"scroll"`
	FieldFilled  time.Duration `yaml:"field_filled" json:"field_filled"`
	Submit       time.Duration `yaml:"submit" json:"submit"`
	Login        time.Duration `yaml:"login" json:"login"`
	Verify       time.Duration `yaml:"verify" json:"verify"`
	Search       time.Duration `yaml:"search" json:"search"`
	JitterFactor float64       `yaml:"jitter_factor" json:"jitter_factor"`
}

// OutputConfig holds output file settings.
type OutputConfig struct {
	Directory string `yaml:"directory" json:"directory"`
	File      string `yaml:"file" json:"file"`
}

// NotificationConfig holds desktop notification preferences.
type NotificationConfig struct {
	Enabled    bool `yaml:"enabled" json:"enabled"`
	OnComplete bool `yaml:"on_complete" json:"on_complete"`
	OnError    bool `yaml:"on_error" json:"on_error"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// browserConfigYAML mirrors BrowserConfig with string durations so config
// files can say "15s" instead of nanosecond integers.
type browserConfigYAML struct {
	Headless      bool   `yaml:"headless"`
	ChromePath    string `yaml:"chrome_path"`
	UserAgent     string `yaml:"user_agent"`
	Locale        string `yaml:"locale"`
	WindowWidth   int    `yaml:"window_width"`
	WindowHeight  int    `yaml:"window_height"`
	SlowMotion    string `yaml:"slow_motion"`
	NavAttempts   int    `yaml:"nav_attempts"`
	NavCooldown   string `yaml:"nav_cooldown"`
	ElementWait   string `yaml:"element_wait"`
	SignalWait    string `yaml:"signal_wait"`
	ChallengeWait string `yaml:"challenge_wait"`
}

// UnmarshalYAML decodes the section, keeping current values for absent keys.
func (b *BrowserConfig) UnmarshalYAML(value *yaml.Node) error {
	raw := browserConfigYAML{
		Headless:      b.Headless,
		ChromePath:    b.ChromePath,
		UserAgent:     b.UserAgent,
		Locale:        b.Locale,
		WindowWidth:   b.WindowWidth,
		WindowHeight:  b.WindowHeight,
		SlowMotion:    b.SlowMotion.String(),
		NavAttempts:   b.NavAttempts,
		NavCooldown:   b.NavCooldown.String(),
		ElementWait:   b.ElementWait.String(),
		SignalWait:    b.SignalWait.String(),
		ChallengeWait: b.ChallengeWait.String(),
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	b.Headless = raw.Headless
	b.ChromePath = raw.ChromePath
	b.UserAgent = raw.UserAgent
	b.Locale = raw.Locale
	b.WindowWidth = raw.WindowWidth
	b.WindowHeight = raw.WindowHeight
	b.NavAttempts = raw.NavAttempts

	for _, d := range []struct {
		raw  string
		dest *time.Duration
	}{
		{raw.SlowMotion, &b.SlowMotion},
		{raw.NavCooldown, &b.NavCooldown},
		{raw.ElementWait, &b.ElementWait},
		{raw.SignalWait, &b.SignalWait},
		{raw.ChallengeWait, &b.ChallengeWait},
	} {
		if err := parseDuration(d.raw, d.dest); err != nil {
			return err
		}
	}
	return nil
}

// MarshalYAML renders durations as human-readable strings.
func (b BrowserConfig) MarshalYAML() (interface{}, error) {
	return browserConfigYAML{
		Headless:      b.Headless,
		ChromePath:    b.ChromePath,
		UserAgent:     b.UserAgent,
		Locale:        b.Locale,
		WindowWidth:   b.WindowWidth,
		WindowHeight:  b.WindowHeight,
		SlowMotion:    b.SlowMotion.String(),
		NavAttempts:   b.NavAttempts,
		NavCooldown:   b.NavCooldown.String(),
		ElementWait:   b.ElementWait.String(),
		SignalWait:    b.SignalWait.String(),
		ChallengeWait: b.ChallengeWait.String(),
	}, nil
}

// pacingConfigYAML mirrors PacingConfig with string durations.
type pacingConfigYAML struct {
	Navigate     string  `yaml:"navigate"`
	Scroll       string  `yaml:"scroll"`
	FieldFilled  string  `yaml:"field_filled"`
	Submit       string  `yaml:"submit"`
	Login        string  `yaml:"login"`
	Verify       string  `yaml:"verify"`
	Search       string  `yaml:"search"`
	JitterFactor float64 `yaml:"jitter_factor"`
}

// UnmarshalYAML decodes the section, keeping current values for absent keys.
func (p *PacingConfig) UnmarshalYAML(value *yaml.Node) error {
	raw := pacingConfigYAML{
		Navigate:     p.Navigate.String(),
		Scroll:       p.Scroll.String(),
		FieldFilled:  p.FieldFilled.String(),
		Submit:       p.Submit.String(),
		Login:        p.Login.String(),
		Verify:       p.Verify.String(),
		Search:       p.Search.String(),
		JitterFactor: p.JitterFactor,
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	p.JitterFactor = raw.JitterFactor

	for _, d := range []struct {
		raw  string
		dest *time.Duration
	}{
		{raw.Navigate, &p.Navigate},
		{raw.Scroll, &p.Scroll},
		{raw.FieldFilled, &p.FieldFilled},
		{raw.Submit, &p.Submit},
		{raw.Login, &p.Login},
		{raw.Verify, &p.Verify},
		{raw.Search, &p.Search},
	} {
		if err := parseDuration(d.raw, d.dest); err != nil {
			return err
		}
	}
	return nil
}

// MarshalYAML renders durations as human-readable strings.
func (p PacingConfig) MarshalYAML() (interface{}, error) {
	return pacingConfigYAML{
		Navigate:     p.Navigate.String(),
		Scroll:       p.Scroll.String(),
		FieldFilled:  p.FieldFilled.String(),
		Submit:       p.Submit.String(),
		Login:        p.Login.String(),
		Verify:       p.Verify.String(),
		Search:       p.Search.String(),
		JitterFactor: p.JitterFactor,
	}, nil
}

// parseDuration accepts "15s" style strings and bare nanosecond integers.
func parseDuration(raw string, dest *time.Duration) error {
	if raw == "" {
		*dest = 0
		return nil
	}
	if d, err := time.ParseDuration(raw); err == nil {
		*dest = d
		return nil
	}
	if ns, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*dest = time.Duration(ns)
		return nil
	}
	return fmt.Errorf("invalid duration: %q", raw)
}

// DefaultConfig returns a Config instance with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		X: XConfig{
			LoginURL:    "https://x.com/i/flow/login",
			HomeURL:     "https://x.com/home",
			SearchURL:   "https://x.com/search?q=%s&src=typed_query&f=live",
			CookiesFile: "x_cookies.json",
		},
		Browser: BrowserConfig{
			Headless:      false,
			UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Locale:        "en-US",
			WindowWidth:   1200,
			WindowHeight:  800,
			SlowMotion:    100 * time.Millisecond,
			NavAttempts:   3,
			NavCooldown:   5 * time.Second,
			ElementWait:   15 * time.Second,
			SignalWait:    2 * time.Second,
			ChallengeWait: 8 * time.Second,
		},
		Scrape: ScrapeConfig{
			MaxCycles:      15,
			ScrollPixels:   3000,
			MinTextLength:  models.MinBodyLength,
			EmptyCycleMax:  2,
			NoNewCycleMax:  3,
			CheckpointEach: 1,
		},
		Pacing: PacingConfig{
			Navigate:    3 * time.Second,
			Scroll:      4 * time.Second,
			FieldFilled: 1 * time.Second,
			Submit:      4 * time.Second,
			Login:       8 * time.Second,
			Verify:      5 * time.Second,
			Search:      5 * time.Second,
		},
		Output: OutputConfig{
			Directory: ".",
		},
		Notifications: NotificationConfig{
			Enabled:    true,
			OnComplete: true,
			OnError:    true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   false,
		},
	}
}

// LoadFromEnv loads configuration overrides from environment variables.
func (c *Config) LoadFromEnv() error {
	if cookies := os.Getenv("XSCRAPER_COOKIES_FILE"); cookies != "" {
		c.X.CookiesFile = cookies
	}
	if ua := os.Getenv("XSCRAPER_USER_AGENT"); ua != "" {
		c.Browser.UserAgent = ua
	}
	if chrome := os.Getenv("XSCRAPER_CHROME_PATH"); chrome != "" {
		c.Browser.ChromePath = chrome
	}
	if headless := os.Getenv("XSCRAPER_HEADLESS"); headless != "" {
		c.Browser.Headless = strings.ToLower(headless) == "true"
	}
	if cycles := os.Getenv("XSCRAPER_MAX_CYCLES"); cycles != "" {
		if val, err := strconv.Atoi(cycles); err == nil && val > 0 {
			c.Scrape.MaxCycles = val
		}
	}
	if outputDir := os.Getenv("XSCRAPER_OUTPUT_DIR"); outputDir != "" {
		c.Output.Directory = outputDir
	}
	if notifEnabled := os.Getenv("XSCRAPER_NOTIFICATIONS_ENABLED"); notifEnabled != "" {
		c.Notifications.Enabled = strings.ToLower(notifEnabled) == "true"
	}
	if logLevel := os.Getenv("XSCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file. An empty path searches
// the default locations; finding nothing is not an error.
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

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// findConfigFile checks the default config file locations.
func (c *Config) findConfigFile() string {
	candidates := []string{
		"xscraper.yaml",
		"xscraper.yml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".config", "xscraper", "config.yaml"),
			filepath.Join(home, ".xscraper.yaml"),
		)
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// ApplyFlags applies command-line flag overrides. Flags take precedence over
// both the config file and environment variables.
func (c *Config) ApplyFlags(flags map[string]interface{}) {
	for key, value := range flags {
		switch key {
		case "output":
			if v, ok := value.(string); ok {
				c.Output.File = v
			}
		case "output-dir":
			if v, ok := value.(string); ok {
				c.Output.Directory = v
			}
		case "max-cycles":
			if v, ok := value.(int); ok {
				c.Scrape.MaxCycles = v
			}
		case "headless":
			if v, ok := value.(bool); ok {
				c.Browser.Headless = v
			}
		case "cookies":
			if v, ok := value.(string); ok {
				c.X.CookiesFile = v
			}
		case "log-level":
			if v, ok := value.(string); ok {
				c.Logging.Level = v
			}
		case "notifications":
			if v, ok := value.(bool); ok {
				c.Notifications.Enabled = v
			}
		}
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Scrape.MaxCycles <= 0 {
		return errors.New("scrape.max_cycles must be positive")
	}
	if c.Scrape.ScrollPixels <= 0 {
		return errors.New("scrape.scroll_pixels must be positive")
	}
	if c.Scrape.MinTextLength < 0 {
		return errors.New("scrape.min_text_length must not be negative")
	}
	if c.Scrape.EmptyCycleMax <= 0 || c.Scrape.NoNewCycleMax <= 0 {
		return errors.New("stall thresholds must be positive")
	}
	if c.Browser.NavAttempts <= 0 {
		return errors.New("browser.nav_attempts must be positive")
	}
	if c.Browser.WindowWidth <= 0 || c.Browser.WindowHeight <= 0 {
		return errors.New("browser window dimensions must be positive")
	}
	if c.X.LoginURL == "" || c.X.HomeURL == "" || c.X.SearchURL == "" {
		return errors.New("x.com endpoint URLs must not be empty")
	}
	if !strings.Contains(c.X.SearchURL, "%s") {
		return errors.New("x.search_url must contain a %s query placeholder")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	return nil
}

// Load builds the effective configuration: defaults, then .env file, then the
// YAML config file, then environment variables, then flag overrides.
func Load(path string, flags map[string]interface{}) (*Config, error) {
	// A .env file in the working directory is optional.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(path); err != nil {
		return nil, err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	cfg.ApplyFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
