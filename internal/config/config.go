// Package config holds all driveline configuration.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage" json:"storage"`
	Quota   QuotaConfig   `mapstructure:"quota" json:"quota"`
	HTTP    HTTPConfig    `mapstructure:"http" json:"http"`
	Auth    AuthConfig    `mapstructure:"auth" json:"auth"`
	Log     LogConfig     `mapstructure:"log" json:"log"`
}

// StorageConfig for the blob root and the metadata index.
type StorageConfig struct {
	// DataDir is the single storage root every blob lives under.
	DataDir string `mapstructure:"data_dir" json:"data_dir"`

	// IndexPath is the SQLite database holding nodes, users and the quota row.
	IndexPath string `mapstructure:"index_path" json:"index_path"`
}

// QuotaConfig fixes the global capacity at provisioning time.
type QuotaConfig struct {
	TotalBytes int64 `mapstructure:"total_bytes" json:"total_bytes"`
}

// HTTPConfig for the transport layer.
type HTTPConfig struct {
	Addr         string        `mapstructure:"addr" json:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" json:"write_timeout"`

	// MaxUploadBytes bounds a single multipart upload.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" json:"max_upload_bytes"`
}

// AuthConfig for token issuance.
type AuthConfig struct {
	// JWTSecret is either a base64-encoded key of at least 32 bytes or an
	// arbitrary seed string hashed into one.
	JWTSecret string        `mapstructure:"jwt_secret" json:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl" json:"token_ttl"`
}

// LogConfig for logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" json:"format"` // json, console
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() *Config {
	dataDir := ".driveline"

	return &Config{
		Storage: StorageConfig{
			DataDir:   filepath.Join(dataDir, "blobs"),
			IndexPath: filepath.Join(dataDir, "index.db"),
		},
		Quota: QuotaConfig{
			TotalBytes: 10 * 1024 * 1024 * 1024, // 10GB
		},
		HTTP: HTTPConfig{
			Addr:           ":8080",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   60 * time.Second,
			MaxUploadBytes: 1024 * 1024 * 1024, // 1GB
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Storage.DataDir == "" {
		return errors.New("storage data_dir is required")
	}
	if c.Storage.IndexPath == "" {
		return errors.New("storage index_path is required")
	}
	if c.Quota.TotalBytes <= 0 {
		return fmt.Errorf("quota total_bytes must be positive, got %d", c.Quota.TotalBytes)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth jwt_secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth token_ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}
