package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	appName   = "fwatch"
	envPrefix = "FWATCH"

	DefaultAPIBaseURL     = "http://127.0.0.1:8000"
	DefaultTimeoutSeconds = 20
	DefaultRedisKey       = "fwatch:token"

	TokenStoreFile  = "file"
	TokenStoreRedis = "redis"
)

// Config is read from config.json and then overridden by FWATCH_* variables
// (for example FWATCH_API_BASE_URL, FWATCH_TOKEN_STORE).
type Config struct {
	APIBaseURL            string `json:"api_base_url" split_words:"true"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds,omitempty" split_words:"true"`
	TokenStore            string `json:"token_store,omitempty" split_words:"true"`
	RedisAddr             string `json:"redis_addr,omitempty" split_words:"true"`
	RedisPassword         string `json:"redis_password,omitempty" split_words:"true"`
	RedisDB               int    `json:"redis_db,omitempty" split_words:"true"`
	RedisKey              string `json:"redis_key,omitempty" split_words:"true"`
	LogLevel              string `json:"log_level,omitempty" split_words:"true"`
	LogFormat             string `json:"log_format,omitempty" split_words:"true"`
	MetricsTextfile       string `json:"metrics_textfile,omitempty" split_words:"true"`
}

func Defaults() Config {
	return Config{
		APIBaseURL:            DefaultAPIBaseURL,
		RequestTimeoutSeconds: DefaultTimeoutSeconds,
		TokenStore:            TokenStoreFile,
		RedisKey:              DefaultRedisKey,
		LogLevel:              "info",
		LogFormat:             "text",
	}
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks values that would otherwise fail late, at the first
// remote call.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: api_base_url must be an http(s) URL, got %q", ErrInvalidConfig, c.APIBaseURL)
	}
	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("%w: request_timeout_seconds must be positive", ErrInvalidConfig)
	}
	switch c.TokenStore {
	case TokenStoreFile:
	case TokenStoreRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return fmt.Errorf("%w: token_store=redis requires redis_addr", ErrInvalidConfig)
		}
		if c.RedisDB < 0 {
			return fmt.Errorf("%w: redis_db must not be negative", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: token_store must be file or redis, got %q", ErrInvalidConfig, c.TokenStore)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log_level must be debug, info, warn or error, got %q", ErrInvalidConfig, c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

func ConfigDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

func StateDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if env := os.Getenv("FWATCH_STATE_DIR"); env != "" {
		return env, nil
	}
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", appName), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load layers defaults, the config file and the environment. It does not
// validate; callers decide when bad values are fatal.
func Load() (Config, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	cfg, err = readFile(path, cfg)
	if err != nil {
		return cfg, err
	}
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("read %s_* environment: %w", envPrefix, err)
	}
	fillBlanks(&cfg)
	return cfg, nil
}

// LoadFile reads only the config file, without environment overrides. Used
// when the file is about to be rewritten.
func LoadFile() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Defaults(), err
	}
	cfg, err := readFile(path, Defaults())
	fillBlanks(&cfg)
	return cfg, err
}

func readFile(path string, cfg Config) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func fillBlanks(cfg *Config) {
	d := Defaults()
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		cfg.APIBaseURL = d.APIBaseURL
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if cfg.RequestTimeoutSeconds == 0 {
		cfg.RequestTimeoutSeconds = d.RequestTimeoutSeconds
	}
	if cfg.TokenStore == "" {
		cfg.TokenStore = d.TokenStore
	}
	cfg.TokenStore = strings.ToLower(cfg.TokenStore)
	if cfg.RedisKey == "" {
		cfg.RedisKey = d.RedisKey
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = d.LogLevel
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = d.LogFormat
	}
}

func Save(cfg Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, "config.json")
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o600)
}
