// Package config provides client and development-backend configuration loading.
package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultDevSecret is the development signing secret of the devapi backend.
const DefaultDevSecret = "smilegift-dev-secret-change-in-production"

// Config holds configuration values loaded from file or environment variables.
type Config struct {
	APIURL                  string  `mapstructure:"API_URL"`
	Env                     string  `mapstructure:"APP_ENV"`
	LogLevel                string  `mapstructure:"LOG_LEVEL"`
	LogFormat               string  `mapstructure:"LOG_FORMAT"`
	TokenStore              string  `mapstructure:"TOKEN_STORE"`
	TokenFile               string  `mapstructure:"TOKEN_FILE"`
	RedisURL                string  `mapstructure:"REDIS_URL"`
	QueryCache              string  `mapstructure:"QUERY_CACHE"`
	UserAgent               string  `mapstructure:"USER_AGENT"`
	RequestTimeoutSeconds   int     `mapstructure:"REQUEST_TIMEOUT_SECONDS"`
	FeedPageSize            int     `mapstructure:"FEED_PAGE_SIZE"`
	FeedStaleMinutes        int     `mapstructure:"FEED_STALE_MINUTES"`
	LeaderboardStaleMinutes int     `mapstructure:"LEADERBOARD_STALE_MINUTES"`
	TracingEnabled          bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter         string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint            string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSamplerRatio     float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
	DevAPIPort              string  `mapstructure:"DEVAPI_PORT"`
	DevAPIJWTSecret         string  `mapstructure:"DEVAPI_JWT_SECRET"`
	DevAPISeedUsers         int     `mapstructure:"DEVAPI_SEED_USERS"`
}

// LoadConfig loads configuration from .env, config files and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".smilegift"))
	}
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config.%s.yml: %w", env, err)
			}
		} else {
			log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
		}
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("API_URL", "https://smile-backend-qxgc.onrender.com/api")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("TOKEN_STORE", "file")
	viper.SetDefault("TOKEN_FILE", defaultTokenFile())
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("QUERY_CACHE", "memory")
	viper.SetDefault("USER_AGENT", "")
	viper.SetDefault("REQUEST_TIMEOUT_SECONDS", 0)
	viper.SetDefault("FEED_PAGE_SIZE", 10)
	viper.SetDefault("FEED_STALE_MINUTES", 1)
	viper.SetDefault("LEADERBOARD_STALE_MINUTES", 5)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)
	viper.SetDefault("DEVAPI_PORT", "8375")
	viper.SetDefault("DEVAPI_JWT_SECRET", DefaultDevSecret)
	viper.SetDefault("DEVAPI_SEED_USERS", 8)
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".smilegift-token.json"
	}
	return filepath.Join(home, ".smilegift", "token.json")
}

func (c *Config) normalize() {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	c.TokenStore = strings.ToLower(strings.TrimSpace(c.TokenStore))
	c.QueryCache = strings.ToLower(strings.TrimSpace(c.QueryCache))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
}

// Validate ensures that required configuration values are present and consistent.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("API_URL is required")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("API_URL must be an absolute URL, got %q", c.APIURL)
	}

	switch c.TokenStore {
	case "file":
		if c.TokenFile == "" {
			return errors.New("TOKEN_FILE is required when TOKEN_STORE is 'file'")
		}
	case "redis":
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required when TOKEN_STORE is 'redis'")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown TOKEN_STORE %q (expected file, redis or memory)", c.TokenStore)
	}

	switch c.QueryCache {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required when QUERY_CACHE is 'redis'")
		}
	default:
		return fmt.Errorf("unknown QUERY_CACHE %q (expected memory or redis)", c.QueryCache)
	}

	if c.RequestTimeoutSeconds < 0 {
		return errors.New("REQUEST_TIMEOUT_SECONDS cannot be negative")
	}
	if c.FeedPageSize <= 0 {
		return errors.New("FEED_PAGE_SIZE must be positive")
	}

	if c.IsProduction() && c.DevAPIJWTSecret == DefaultDevSecret {
		return errors.New("DEVAPI_JWT_SECRET must be changed from the default value in production")
	}

	return nil
}

// IsProduction reports whether the config targets a production profile.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// RequestTimeout returns the configured HTTP timeout; zero keeps transport defaults.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// FeedStale is the staleness window of feed pages.
func (c *Config) FeedStale() time.Duration {
	return time.Duration(c.FeedStaleMinutes) * time.Minute
}

// LeaderboardStale is the staleness window of leaderboard widgets.
func (c *Config) LeaderboardStale() time.Duration {
	return time.Duration(c.LeaderboardStaleMinutes) * time.Minute
}
