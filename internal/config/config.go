// Package config loads daemon and CLI configuration from a YAML file with
// optional named profiles, overridden by SCDASH_* environment variables.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// defaultDeveloperEmail is the single identity granted the maintenance
// toggle and the maintenance-screen bypass.
const defaultDeveloperEmail = "developer@scdash.app"

// webAppURLPlaceholder is the unset marker for the sheet endpoint.
const webAppURLPlaceholder = "PASTE_YOUR_URL_HERE"

// Config is the merged configuration sourced from file, profile, and
// environment.
type Config struct {
	Profile    string `mapstructure:"-"`
	ConfigFile string `mapstructure:"-"`

	WebAppURL      string `mapstructure:"webapp_url" yaml:"webapp_url"`
	AssistURL      string `mapstructure:"assist_url" yaml:"assist_url"`
	HomeDir        string `mapstructure:"home" yaml:"home"`
	SocketPath     string `mapstructure:"socket" yaml:"socket"`
	DeveloperEmail string `mapstructure:"developer_email" yaml:"developer_email"`
	SpeakCommand   string `mapstructure:"speak_command" yaml:"speak_command"`
	ListenCommand  string `mapstructure:"listen_command" yaml:"listen_command"`
	LogLevel       string `mapstructure:"log_level" yaml:"log_level"`
	SentryDSN      string `mapstructure:"sentry_dsn" yaml:"sentry_dsn"`

	RefreshInterval    time.Duration `mapstructure:"refresh_interval" yaml:"refresh_interval"`
	ScreensaverTimeout time.Duration `mapstructure:"screensaver_timeout" yaml:"screensaver_timeout"`
}

type fileConfig struct {
	Config   Config            `mapstructure:",squash"`
	Profiles map[string]Config `mapstructure:"profiles"`
}

// DefaultHomeDir returns the default state directory.
func DefaultHomeDir() (string, error) {
	base, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(base, ".scdash"), nil
}

// Load reads configuration from the file at path, applies the named profile
// if any, and then environment overrides.
func Load(path, profile string) (*Config, error) {
	cfg := defaultConfig()
	cfg.ConfigFile = path

	fc, err := readFileConfig(path)
	if err != nil {
		return nil, err
	}

	cfg.merge(fc.Config)

	if profile == "" {
		profile = cfg.Profile
	}
	if profile == "" {
		profile = "default"
	}
	if profile != "default" {
		if fc.Profiles == nil {
			return nil, fmt.Errorf("profile %q not defined in %s", profile, path)
		}
		profileCfg, ok := fc.Profiles[profile]
		if !ok {
			return nil, fmt.Errorf("profile %q not defined in %s", profile, path)
		}
		cfg.merge(profileCfg)
	}

	applyEnvOverrides(&cfg)

	cfg.Profile = profile

	return &cfg, nil
}

func defaultConfig() Config {
	home, _ := DefaultHomeDir()
	return Config{
		WebAppURL:          webAppURLPlaceholder,
		HomeDir:            home,
		DeveloperEmail:     defaultDeveloperEmail,
		LogLevel:           "info",
		RefreshInterval:    60 * time.Second,
		ScreensaverTimeout: 120 * time.Second,
	}
}

// Default returns a default configuration with standard values.
func Default() *Config {
	cfg := defaultConfig()
	return &cfg
}

// Socket resolves the control socket path, defaulting under the home dir.
func (c *Config) Socket() string {
	if c.SocketPath != "" {
		return c.SocketPath
	}
	return filepath.Join(c.HomeDir, "scdash.sock")
}

// SessionFile is where the cached identity lives.
func (c *Config) SessionFile() string {
	return filepath.Join(c.HomeDir, "session.json")
}

// PrefsFile is where the maintenance start and column widths live.
func (c *Config) PrefsFile() string {
	return filepath.Join(c.HomeDir, "prefs.json")
}

func readFileConfig(path string) (*fileConfig, error) {
	if path == "" {
		return &fileConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &fileConfig{}, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}

	return &fc, nil
}

func (c *Config) merge(other Config) {
	if other.WebAppURL != "" {
		c.WebAppURL = strings.TrimRight(other.WebAppURL, "/")
	}
	if other.AssistURL != "" {
		c.AssistURL = strings.TrimRight(other.AssistURL, "/")
	}
	if other.HomeDir != "" {
		c.HomeDir = other.HomeDir
	}
	if other.SocketPath != "" {
		c.SocketPath = other.SocketPath
	}
	if other.DeveloperEmail != "" {
		c.DeveloperEmail = other.DeveloperEmail
	}
	if other.SpeakCommand != "" {
		c.SpeakCommand = other.SpeakCommand
	}
	if other.ListenCommand != "" {
		c.ListenCommand = other.ListenCommand
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.SentryDSN != "" {
		c.SentryDSN = other.SentryDSN
	}
	if other.RefreshInterval != 0 {
		c.RefreshInterval = other.RefreshInterval
	}
	if other.ScreensaverTimeout != 0 {
		c.ScreensaverTimeout = other.ScreensaverTimeout
	}
}

func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("SCDASH_WEBAPP_URL"); val != "" {
		cfg.WebAppURL = strings.TrimRight(val, "/")
	}
	if val := os.Getenv("SCDASH_ASSIST_URL"); val != "" {
		cfg.AssistURL = strings.TrimRight(val, "/")
	}
	if val := os.Getenv("SCDASH_HOME"); val != "" {
		cfg.HomeDir = val
	}
	if val := os.Getenv("SCDASH_SOCKET"); val != "" {
		cfg.SocketPath = val
	}
	if val := os.Getenv("SCDASH_DEVELOPER_EMAIL"); val != "" {
		cfg.DeveloperEmail = val
	}
	if val := os.Getenv("SCDASH_SENTRY_DSN"); val != "" {
		cfg.SentryDSN = val
	}
	if val := os.Getenv("SCDASH_LOG_LEVEL"); val != "" {
		cfg.LogLevel = val
	}
	if val := os.Getenv("SCDASH_REFRESH_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.RefreshInterval = d
		}
	}
	if val := os.Getenv("SCDASH_SCREENSAVER_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.ScreensaverTimeout = d
		}
	}
}
