// Package config loads vitae settings from a YAML file with environment
// variable overrides. Every field is optional.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // text | json
	} `yaml:"log"`
	Store struct {
		Driver string        `yaml:"driver"` // memory | file | redis
		Path   string        `yaml:"path"`
		TTL    time.Duration `yaml:"ttl"`
	} `yaml:"store"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Content struct {
		Dir           string `yaml:"dir"`
		DefaultLocale string `yaml:"default_locale"`
	} `yaml:"content"`
	// Rewriters is the YAML file listing external rewrite commands.
	Rewriters string `yaml:"rewriters"`
	Security  struct {
		// EncryptionKey is a base64 AES-256 key. Empty disables encryption at rest.
		EncryptionKey string `yaml:"encryption_key"`
		// FallbackKeys still decrypt sessions sealed before a key rotation.
		FallbackKeys []string `yaml:"fallback_keys"`
		// Redact lists icon-name patterns whose bullet points are masked in the store.
		Redact []string `yaml:"redact"`
	} `yaml:"security"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	var cfg Config
	cfg.Server.Port = 8080
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Store.Driver = DriverMemory
	cfg.Redis.Addr = "localhost:6379"
	cfg.Content.Dir = "."
	cfg.Content.DefaultLocale = "en"
	cfg.Rewriters = "rewriters.yaml"
	return &cfg
}

// Load reads path over the defaults, then applies a .env file (if present)
// and VITAE_* environment variables. A missing file is not an error; an empty
// path skips the file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("VITAE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid VITAE_PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("VITAE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("VITAE_STORE"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("VITAE_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("VITAE_CONTENT_DIR"); v != "" {
		c.Content.Dir = v
	}
	if v := os.Getenv("VITAE_REWRITERS"); v != "" {
		c.Rewriters = v
	}
	if v := os.Getenv("VITAE_ENCRYPTION_KEY"); v != "" {
		c.Security.EncryptionKey = v
	}
	return nil
}

// Validate rejects settings no component can honour.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverFile, DriverRedis:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if _, _, err := c.EncryptionKeys(); err != nil {
		return err
	}
	return nil
}

// EncryptionKeys decodes the active and fallback keys. The active key is nil
// when encryption is disabled.
func (c *Config) EncryptionKeys() (active []byte, fallback [][]byte, err error) {
	if c.Security.EncryptionKey == "" {
		return nil, nil, nil
	}
	if active, err = decodeKey(c.Security.EncryptionKey); err != nil {
		return nil, nil, fmt.Errorf("encryption_key: %w", err)
	}
	for i, k := range c.Security.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}
