// Package config loads and validates the webpilot configuration from
// defaults, an optional YAML file, and environment overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Browser    BrowserConfig    `mapstructure:"browser" yaml:"browser"`
	Network    NetworkConfig    `mapstructure:"network" yaml:"network"`
	Screenshot ScreenshotConfig `mapstructure:"screenshot" yaml:"screenshot"`
	Demo       DemoConfig       `mapstructure:"demo" yaml:"demo"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// ServerConfig tunes the HTTP interface.
type ServerConfig struct {
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
	// RequestTimeout bounds a single /interact call end to end, including
	// any blocking waits inside composite actions.
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	// RateLimit is the sustained request rate (requests/second) allowed
	// across all endpoints. RateBurst is the burst allowance.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst" yaml:"rate_burst"`
}

// BrowserConfig holds settings for the Chrome instance.
type BrowserConfig struct {
	Headless        bool     `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors bool     `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	UserAgent       string   `mapstructure:"user_agent" yaml:"user_agent"`
	WindowWidth     int      `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight    int      `mapstructure:"window_height" yaml:"window_height"`
	Args            []string `mapstructure:"args" yaml:"args"`
	// TypingDelay is the pause between keystrokes when filling fields.
	TypingDelay time.Duration `mapstructure:"typing_delay" yaml:"typing_delay"`
}

// NetworkConfig tunes navigation and element-wait behavior.
type NetworkConfig struct {
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	// ElementTimeout bounds the whole selector-strategy ladder for one
	// target description.
	ElementTimeout time.Duration `mapstructure:"element_timeout" yaml:"element_timeout"`
	// CandidateTimeout bounds a single selector candidate within the ladder.
	CandidateTimeout time.Duration `mapstructure:"candidate_timeout" yaml:"candidate_timeout"`
	// PostLoadWait is the settle period applied after navigation and form
	// submission before the page is considered stable.
	PostLoadWait time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
	// ChallengeWait is how long the login flow polls for a detected
	// challenge to be cleared manually before giving up.
	ChallengeWait time.Duration `mapstructure:"challenge_wait" yaml:"challenge_wait"`
}

// ScreenshotConfig controls where failure and challenge screenshots land.
type ScreenshotConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// DemoConfig carries credentials for the scripted demo flows. Values come
// from the environment, never from the config file.
type DemoConfig struct {
	GitHubUsername string `mapstructure:"github_username" yaml:"-"`
	GitHubPassword string `mapstructure:"github_password" yaml:"-"`
	RedditUsername string `mapstructure:"reddit_username" yaml:"-"`
	RedditPassword string `mapstructure:"reddit_password" yaml:"-"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "webpilot")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Server --
	v.SetDefault("server.listen_addr", ":8000")
	v.SetDefault("server.request_timeout", "120s")
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("server.rate_burst", 20)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36")
	v.SetDefault("browser.window_width", 1280)
	v.SetDefault("browser.window_height", 800)
	v.SetDefault("browser.typing_delay", "50ms")

	// -- Network --
	v.SetDefault("network.navigation_timeout", "90s")
	v.SetDefault("network.element_timeout", "10s")
	v.SetDefault("network.candidate_timeout", "1s")
	v.SetDefault("network.post_load_wait", "1500ms")
	v.SetDefault("network.challenge_wait", "30s")

	// -- Screenshot --
	v.SetDefault("screenshot.dir", "screenshots")
}

// New returns a configuration populated with defaults only.
func New() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := NewFromViper(v)
	if err != nil {
		// Defaults are static; a failure here is a programming error.
		panic(fmt.Sprintf("default config invalid: %v", err))
	}
	return cfg
}

// NewFromViper builds and validates a configuration from a viper instance
// that already has defaults set and any config file merged in.
func NewFromViper(v *viper.Viper) (*Config, error) {
	// WEBPILOT_SERVER_LISTEN_ADDR style overrides for any key.
	v.SetEnvPrefix("WEBPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Demo credentials bind to their historical variable names.
	v.BindEnv("demo.github_username", "GITHUBS_USERNAME")
	v.BindEnv("demo.github_password", "GITHUBS_PASSWORD")
	v.BindEnv("demo.reddit_username", "REDDIT_USERNAME")
	v.BindEnv("demo.reddit_password", "REDDIT_PASSWORD")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr must not be empty")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be a positive duration")
	}
	if c.Server.RateLimit <= 0 {
		return fmt.Errorf("server.rate_limit must be positive")
	}
	if c.Network.NavigationTimeout <= 0 {
		return fmt.Errorf("network.navigation_timeout must be a positive duration")
	}
	if c.Network.ElementTimeout <= 0 {
		return fmt.Errorf("network.element_timeout must be a positive duration")
	}
	if c.Network.CandidateTimeout > c.Network.ElementTimeout {
		return fmt.Errorf("network.candidate_timeout must not exceed network.element_timeout")
	}
	if c.Browser.WindowWidth <= 0 || c.Browser.WindowHeight <= 0 {
		return fmt.Errorf("browser.window_width and browser.window_height must be positive")
	}
	if c.Screenshot.Dir == "" {
		return fmt.Errorf("screenshot.dir must not be empty")
	}
	return nil
}
