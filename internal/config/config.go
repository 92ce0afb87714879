// Package config loads codecoach settings from an optional codecoach.yaml,
// CODECOACH_* environment variables and built-in defaults, in that order of
// precedence from lowest to highest: defaults, file, environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "CODECOACH"

const (
	BackendGoja   = "goja"
	BackendDocker = "docker"
)

type ServerConfig struct {
	Port          int  `mapstructure:"port"`
	SecureCookies bool `mapstructure:"secure_cookies"`
}

type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

type DockerConfig struct {
	Image       string  `mapstructure:"image"`
	MemoryLimit int64   `mapstructure:"memory_limit"` // bytes
	CPULimit    float64 `mapstructure:"cpu_limit"`
}

type ExecutorConfig struct {
	Backend        string        `mapstructure:"backend"`
	Timeout        time.Duration `mapstructure:"timeout"`
	PoolSize       int           `mapstructure:"pool_size"`
	MaxConcurrent  int64         `mapstructure:"max_concurrent"`
	MaxCallStack   int           `mapstructure:"max_call_stack"`
	MaxOutputBytes int           `mapstructure:"max_output_bytes"`
	RateLimit      float64       `mapstructure:"rate_limit"` // requests per second per client
	RateBurst      int           `mapstructure:"rate_burst"`
	Docker         DockerConfig  `mapstructure:"docker"`
}

type GitHubConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	CallbackURL  string `mapstructure:"callback_url"`
}

type AuthConfig struct {
	JWTSecret string       `mapstructure:"jwt_secret"`
	GitHub    GitHubConfig `mapstructure:"github"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Executor ExecutorConfig `mapstructure:"executor"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.secure_cookies", false)
	v.SetDefault("storage.db_path", "data/codecoach.db")

	v.SetDefault("executor.backend", BackendGoja)
	v.SetDefault("executor.timeout", 5*time.Second)
	v.SetDefault("executor.pool_size", 4)
	v.SetDefault("executor.max_concurrent", 8)
	v.SetDefault("executor.max_call_stack", 1024)
	v.SetDefault("executor.max_output_bytes", 1<<20)
	v.SetDefault("executor.rate_limit", 5.0)
	v.SetDefault("executor.rate_burst", 10)
	v.SetDefault("executor.docker.image", "node:22-alpine")
	v.SetDefault("executor.docker.memory_limit", 128*1024*1024)
	v.SetDefault("executor.docker.cpu_limit", 0.5)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.github.client_id", "")
	v.SetDefault("auth.github.client_secret", "")
	v.SetDefault("auth.github.callback_url", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration. When path is empty it looks for codecoach.yaml
// in the working directory and $HOME/.codecoach; a missing file is not an
// error. An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("codecoach")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.codecoach")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Auth.GitHub.CallbackURL == "" {
		cfg.Auth.GitHub.CallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Server.Port)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	switch c.Executor.Backend {
	case BackendGoja, BackendDocker:
	default:
		return fmt.Errorf("config: executor.backend must be %q or %q, got %q", BackendGoja, BackendDocker, c.Executor.Backend)
	}
	if c.Executor.Timeout <= 0 {
		return fmt.Errorf("config: executor.timeout must be positive")
	}
	if c.Executor.RateLimit <= 0 || c.Executor.RateBurst <= 0 {
		return fmt.Errorf("config: executor.rate_limit and executor.rate_burst must be positive")
	}
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("config: auth.jwt_secret must be at least 16 characters")
	}
	return nil
}

// GitHubEnabled reports whether GitHub login is configured.
func (c *Config) GitHubEnabled() bool {
	return c.Auth.GitHub.ClientID != "" && c.Auth.GitHub.ClientSecret != ""
}
