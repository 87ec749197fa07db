package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `envconfig:"SERVER"`
	Database   DatabaseConfig   `envconfig:"DB"`
	Logger     LoggerConfig     `envconfig:"LOG"`
	Auth       AuthConfig       `envconfig:"AUTH"`
	ProductAPI ProductAPIConfig `envconfig:"PRODUCT_API"`
	Promo      PromoConfig      `envconfig:"PROMO"`
	S3         S3Config         `envconfig:"S3"`
	Cart       CartConfig       `envconfig:"CART"`
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string `default:"0.0.0.0"`
	Port int    `default:"8080"`
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string `default:"localhost"`
	Port            int    `default:"5432"`
	User            string `default:"postgres"`
	Password        string
	Name            string `default:"storefront"`
	MaxConnections  int    `split_words:"true" default:"25"`
	MinConnections  int    `split_words:"true" default:"5"`
	MaxConnLifetime int    `split_words:"true" default:"300"` // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string `default:"info"`
	Format string `default:"json"` // "json" or "console"
}

// AuthConfig holds the admin key and the session settings.
type AuthConfig struct {
	AdminKey           string        `split_words:"true"`
	SessionCookie      string        `split_words:"true" default:"storefront_session"`
	SessionIdleTimeout time.Duration `split_words:"true" default:"720h"`
}

// ProductAPIConfig points at the remote product service.
type ProductAPIConfig struct {
	BaseURL string        `split_words:"true" default:"http://localhost:8081/api"`
	Timeout time.Duration `default:"10s"`
}

// PromoConfig lists the gzipped promo-code files checked at checkout.
type PromoConfig struct {
	Dir      string `default:"data/promos"`
	Files    []string
	MinMatch int `split_words:"true" default:"2"`
}

// S3Config holds AWS S3 configuration for promo files.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string `default:"us-east-1"`
	Prefix  string `default:"promos/"` // Path prefix within bucket
}

// CartConfig controls cart durability across restarts.
type CartConfig struct {
	Persist bool
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Auth.AdminKey == "" {
		return fmt.Errorf("admin key is required")
	}

	if c.Auth.SessionCookie == "" {
		return fmt.Errorf("session cookie name is required")
	}

	if c.Auth.SessionIdleTimeout <= 0 {
		return fmt.Errorf("session idle timeout must be positive")
	}

	u, err := url.Parse(c.ProductAPI.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid product API base URL: %q", c.ProductAPI.BaseURL)
	}

	if c.ProductAPI.Timeout <= 0 {
		return fmt.Errorf("product API timeout must be positive")
	}

	if c.Promo.MinMatch < 1 {
		return fmt.Errorf("promo min match must be at least 1")
	}

	if len(c.Promo.Files) > 0 && c.Promo.MinMatch > len(c.Promo.Files) {
		return fmt.Errorf("promo min match (%d) exceeds number of promo files (%d)", c.Promo.MinMatch, len(c.Promo.Files))
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
