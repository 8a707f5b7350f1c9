// Package config loads the tool's settings from, in rising precedence,
// built-in defaults, a YAML config file, .env, and COINCLAW_* environment
// variables. Command line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix  = "COINCLAW"
	configName = "coinclaw"
)

// Config is the resolved runtime configuration.
type Config struct {
	// CookieName is the session jar path. Kept as a bare file name by
	// default so the jar lands next to wherever the tool runs.
	CookieName string `mapstructure:"cookie_name"`

	// TextUsername and TextPassword are accepted for config file
	// compatibility with older releases but are never used: credential
	// entry happens in the browser window, not here.
	TextUsername string `mapstructure:"text_username"`
	TextPassword string `mapstructure:"text_password"`

	// WaitTimeout bounds each element lookup.
	WaitTimeout time.Duration `mapstructure:"wait_timeout"`

	// LoginTimeout bounds the logged-in probe after a manual login.
	LoginTimeout time.Duration `mapstructure:"login_timeout"`

	Headless    bool   `mapstructure:"headless"`
	ChromePath  string `mapstructure:"chrome_path"`
	CDPURL      string `mapstructure:"cdp_url"`
	UserDataDir string `mapstructure:"user_data_dir"`

	// LogDir receives the monthly log file and failure screenshots.
	LogDir string `mapstructure:"log_dir"`

	// ProfilePath points at a YAML selector profile override. Empty
	// means built-in defaults.
	ProfilePath string `mapstructure:"profile_path"`

	// MaxCoupons caps how many coupons one sweep may claim. Zero or
	// negative removes the cap.
	MaxCoupons int `mapstructure:"max_coupons"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("cookie_name", "cookie.pkl")
	v.SetDefault("text_username", "")
	v.SetDefault("text_password", "")
	v.SetDefault("wait_timeout", 5*time.Second)
	v.SetDefault("login_timeout", 15*time.Second)
	v.SetDefault("headless", false)
	v.SetDefault("chrome_path", "")
	v.SetDefault("cdp_url", "")
	v.SetDefault("user_data_dir", "")
	v.SetDefault("log_dir", "log")
	v.SetDefault("profile_path", "")
	v.SetDefault("max_coupons", 5)
}

// Load resolves the configuration. file pins an explicit config file and
// must exist; when empty, coinclaw.yaml is searched for in the working
// directory and the user config dir, and absence is fine.
func Load(file string) (*Config, error) {
	// .env values become plain env vars, so the COINCLAW_* pass below
	// picks them up. A missing .env is the normal case.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, configName))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.CookieName == "" {
		return errors.New("cookie_name must not be empty")
	}
	if c.WaitTimeout <= 0 {
		return fmt.Errorf("wait_timeout must be positive, got %v", c.WaitTimeout)
	}
	if c.LoginTimeout <= 0 {
		return fmt.Errorf("login_timeout must be positive, got %v", c.LoginTimeout)
	}
	return nil
}
