package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config captures everything shooter needs to reach the generation backend.
type Config struct {
	BaseURL        string        `mapstructure:"base_url" validate:"required"`
	LoginPath      string        `mapstructure:"login_path" validate:"required,startswith=/"`
	PollInterval   time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	MaxAttempts    int           `mapstructure:"max_attempts" validate:"gt=0"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	Tiers          []int         `mapstructure:"tiers" validate:"required,min=1,dive,gt=0"`
	Modes          []string      `mapstructure:"modes" validate:"required,min=1,dive,required"`
	DefaultCount   int           `mapstructure:"default_count" validate:"gt=0"`
	DefaultMode    string        `mapstructure:"default_mode" validate:"required"`
	DownloadDir    string        `mapstructure:"download_dir" validate:"required"`
	LogPath        string        `mapstructure:"log_path" validate:"required"`
	LogLevel       string        `mapstructure:"log_level" validate:"required,oneof=trace debug info warn error"`
	SessionCookie  string        `mapstructure:"session_cookie"`
	CSRFToken      string        `mapstructure:"csrf_token"`
}

const (
	envPrefix          = "SHOOTER"
	defaultConfigPath  = "~/.config/shooter/config.toml"
	defaultBaseURL     = "http://127.0.0.1:8000"
	defaultLoginPath   = "/accounts/login/"
	defaultDownloadDir = "~/Pictures/shooter"
	defaultLogPath     = "~/.local/state/shooter/shooter.log"
)

// Load reads the optional .env file, the optional TOML config at path (or the
// default location) and SHOOTER_* environment overrides, then validates the result.
func Load(path string) (Config, error) {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(resolved)
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	if !slices.Contains(cfg.Tiers, cfg.DefaultCount) {
		return Config{}, fmt.Errorf("validate config: default_count %d is not one of tiers %v", cfg.DefaultCount, cfg.Tiers)
	}
	if !slices.Contains(cfg.Modes, cfg.DefaultMode) {
		return Config{}, fmt.Errorf("validate config: default_mode %q is not one of modes %v", cfg.DefaultMode, cfg.Modes)
	}
	return cfg, nil
}

// DefaultPath returns the config file location used when none is given.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", defaultBaseURL)
	v.SetDefault("login_path", defaultLoginPath)
	v.SetDefault("poll_interval", 3*time.Second)
	v.SetDefault("max_attempts", 60)
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("tiers", []int{1, 2, 4})
	v.SetDefault("modes", []string{"creative", "model", "background"})
	v.SetDefault("default_count", 4)
	v.SetDefault("default_mode", "creative")
	v.SetDefault("download_dir", defaultDownloadDir)
	v.SetDefault("log_path", defaultLogPath)
	v.SetDefault("log_level", "info")
	v.SetDefault("session_cookie", "")
	v.SetDefault("csrf_token", "")
}

func (c *Config) normalize() {
	c.BaseURL = orDefault(c.BaseURL, defaultBaseURL)
	c.LoginPath = orDefault(c.LoginPath, defaultLoginPath)
	c.DefaultMode = strings.ToLower(strings.TrimSpace(c.DefaultMode))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.SessionCookie = strings.TrimSpace(c.SessionCookie)
	c.CSRFToken = strings.TrimSpace(c.CSRFToken)
	for i, m := range c.Modes {
		c.Modes[i] = strings.ToLower(strings.TrimSpace(m))
	}
	c.DownloadDir = mustExpand(orDefault(c.DownloadDir, defaultDownloadDir))
	c.LogPath = mustExpand(orDefault(c.LogPath, defaultLogPath))
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	if strings.TrimSpace(path) == "" {
		return path
	}
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
