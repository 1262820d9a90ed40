// Package config loads the service configuration file.
package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when no --config flag is given.
const DefaultPath = "config/config.yaml"

// Config is the whole configuration file. YAML is a superset of JSON, so a
// config.json with the same keys loads too.
type Config struct {
	ServerAddr string `yaml:"server_addr,omitempty"`
	// RequestTimeout bounds one HTTP build or expand request.
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`

	LLM   *LLMConfig  `yaml:"llm,omitempty"`
	Tree  TreeConfig  `yaml:"tree"`
	Store StoreConfig `yaml:"store"`
	Log   LogConfig   `yaml:"log"`
}

// LLMConfig 生成模块的模型配置。
type LLMConfig struct {
	Provider  string        `yaml:"provider,omitempty"`
	Model     string        `yaml:"model,omitempty"`
	APIKey    string        `yaml:"api_key,omitempty"`
	APIKeyEnv string        `yaml:"api_key_env,omitempty"`
	BaseURL   string        `yaml:"base_url,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
}

// TreeConfig bounds the branch counts callers may ask for.
type TreeConfig struct {
	DefaultBranches int `yaml:"default_branches"`
	MaxBranches     int `yaml:"max_branches"`
}

type StoreConfig struct {
	Driver        string        `yaml:"driver"`
	RedisAddr     string        `yaml:"redis_addr,omitempty"`
	RedisPassword string        `yaml:"redis_password,omitempty"`
	RedisDB       int           `yaml:"redis_db,omitempty"`
	RedisPrefix   string        `yaml:"redis_prefix,omitempty"`
	RedisTTL      time.Duration `yaml:"redis_ttl,omitempty"`
	BadgerDir     string        `yaml:"badger_dir,omitempty"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration that runs fully offline with the mock model
// and the in-memory store.
func Default() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads path, fills defaults and validates the result.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ServerAddr == "" {
		c.ServerAddr = ":8080"
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 5 * time.Minute
	}
	if c.LLM == nil {
		c.LLM = &LLMConfig{Provider: "mock"}
	}
	if c.LLM.APIKey == "" && c.LLM.APIKeyEnv != "" {
		c.LLM.APIKey = os.Getenv(c.LLM.APIKeyEnv)
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 60 * time.Second
	}
	if c.Tree.DefaultBranches == 0 {
		c.Tree.DefaultBranches = 3
	}
	if c.Tree.MaxBranches == 0 {
		c.Tree.MaxBranches = 10
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "memory"
	}
	if c.Store.RedisPrefix == "" {
		c.Store.RedisPrefix = "deepmap:map:"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate rejects settings the rest of the program cannot run with.
func (c Config) Validate() error {
	if c.LLM == nil || c.LLM.Provider == "" {
		return errors.New("llm.provider is required")
	}
	switch c.LLM.Provider {
	case "openai", "openrouter", "deepseek", "gemini", "mock":
	default:
		return errors.Newf("llm provider %s not supported", c.LLM.Provider)
	}
	if c.LLM.Provider != "mock" && c.LLM.Model == "" {
		return errors.New("llm.model is required")
	}
	if c.Tree.DefaultBranches < 1 || c.Tree.MaxBranches < 1 {
		return errors.New("tree branch counts must be positive")
	}
	if c.Tree.DefaultBranches > c.Tree.MaxBranches {
		return errors.Newf("tree.default_branches (%d) exceeds tree.max_branches (%d)",
			c.Tree.DefaultBranches, c.Tree.MaxBranches)
	}
	switch c.Store.Driver {
	case "memory":
	case "redis":
		if c.Store.RedisAddr == "" {
			return errors.New("store.redis_addr is required for the redis driver")
		}
	case "badger":
		if c.Store.BadgerDir == "" {
			return errors.New("store.badger_dir is required for the badger driver")
		}
	default:
		return errors.Newf("store driver %s not supported", c.Store.Driver)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps the configured level name to a slog.Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return 0, errors.Wrapf(err, "log.level %q", l.Level)
	}
	return level, nil
}

// NewLogger builds the process logger from the log section.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := l.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
