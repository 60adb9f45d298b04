// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port          int           `yaml:"port"`
	SessionSecret string        `yaml:"session_secret"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	SecureCookie  bool          `yaml:"secure_cookie"`
	CookieDomain  string        `yaml:"cookie_domain"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type KlingConfig struct {
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	BaseURL   string `yaml:"base_url"`
}

type RunwayConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Version string `yaml:"version"` // X-Runway-Version header
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type VendorsConfig struct {
	Kling  KlingConfig  `yaml:"kling"`
	Runway RunwayConfig `yaml:"runway"`
	OpenAI OpenAIConfig `yaml:"openai"` // shared by the Sora video and image adapters
}

type GenerationConfig struct {
	PollInterval       time.Duration `yaml:"poll_interval"`
	ImageAttempts      int           `yaml:"image_attempts"` // ~5 minutes at 5s
	VideoAttempts      int           `yaml:"video_attempts"` // ~10 minutes at 5s
	ConcurrentLimit    int           `yaml:"concurrent_limit"`
	RateLimitPerMin    int           `yaml:"rate_limit_per_min"`
	ModerationKeywords []string      `yaml:"moderation_keywords"`
	BrandTokens        []string      `yaml:"brand_tokens"`
}

type Config struct {
	Log        LogConfig        `yaml:"log"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Vendors    VendorsConfig    `yaml:"vendors"`
	Generation GenerationConfig `yaml:"generation"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.SessionTTL <= 0 {
		cfg.Server.SessionTTL = 30 * time.Minute
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Vendors.Kling.BaseURL == "" {
		cfg.Vendors.Kling.BaseURL = "https://api-singapore.klingai.com"
	}
	if cfg.Vendors.Runway.BaseURL == "" {
		cfg.Vendors.Runway.BaseURL = "https://api.dev.runwayml.com"
	}
	if cfg.Vendors.Runway.Version == "" {
		cfg.Vendors.Runway.Version = "2024-11-06"
	}
	if cfg.Vendors.OpenAI.BaseURL == "" {
		cfg.Vendors.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Generation.PollInterval <= 0 {
		cfg.Generation.PollInterval = 5 * time.Second
	}
	if cfg.Generation.ImageAttempts <= 0 {
		cfg.Generation.ImageAttempts = 60
	}
	if cfg.Generation.VideoAttempts <= 0 {
		cfg.Generation.VideoAttempts = 120
	}
	if cfg.Generation.ConcurrentLimit <= 0 {
		cfg.Generation.ConcurrentLimit = 16
	}
	if cfg.Generation.RateLimitPerMin <= 0 {
		cfg.Generation.RateLimitPerMin = 10
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Server.SessionSecret == "" {
		return nil, errors.New("server.session_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
