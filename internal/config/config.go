package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Upload limits
	MaxUploadBytes int64

	// Parses in flight across all requests
	MaxConcurrentParses int

	// Peek
	DefaultPeekLimit int

	// Rate limiting
	RateLimitRPS   float64
	RateLimitBurst int

	RequestTimeout time.Duration

	// Chunking defaults
	DefaultChunkSize    int
	DefaultChunkOverlap int
}

// fileConfig mirrors Config for the optional TOML file. Durations are strings
// such as "90s".
type fileConfig struct {
	Port                string  `toml:"port"`
	APIKey              string  `toml:"api_key"`
	MaxUploadBytes      int64   `toml:"max_upload_bytes"`
	MaxConcurrentParses int     `toml:"max_concurrent_parses"`
	DefaultPeekLimit    int     `toml:"default_peek_limit"`
	RateLimitRPS        float64 `toml:"rate_limit_rps"`
	RateLimitBurst      int     `toml:"rate_limit_burst"`
	RequestTimeout      string  `toml:"request_timeout"`
	DefaultChunkSize    int     `toml:"default_chunk_size"`
	DefaultChunkOverlap int     `toml:"default_chunk_overlap"`
}

func Default() Config {
	return Config{
		Port:                "8091",
		MaxUploadBytes:      52428800, // 50MB
		MaxConcurrentParses: 4,
		DefaultPeekLimit:    500,
		RateLimitRPS:        10,
		RateLimitBurst:      20,
		RequestTimeout:      60 * time.Second,
		DefaultChunkSize:    1500,
		DefaultChunkOverlap: 200,
	}
}

// Load starts from the defaults, applies the TOML file named by PDFNAV_CONFIG
// when set, then applies environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("PDFNAV_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("PDFNAV_API_KEY", cfg.APIKey)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.MaxConcurrentParses = envInt("MAX_CONCURRENT_PARSES", cfg.MaxConcurrentParses)
	cfg.DefaultPeekLimit = envInt("DEFAULT_PEEK_LIMIT", cfg.DefaultPeekLimit)
	cfg.RateLimitRPS = envFloat("RATE_LIMIT_RPS", cfg.RateLimitRPS)
	cfg.RateLimitBurst = envInt("RATE_LIMIT_BURST", cfg.RateLimitBurst)
	cfg.RequestTimeout = envDuration("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.DefaultChunkSize = envInt("DEFAULT_CHUNK_SIZE", cfg.DefaultChunkSize)
	cfg.DefaultChunkOverlap = envInt("DEFAULT_CHUNK_OVERLAP", cfg.DefaultChunkOverlap)

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var f fileConfig
	if err := toml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if f.Port != "" {
		c.Port = f.Port
	}
	if f.APIKey != "" {
		c.APIKey = f.APIKey
	}
	if f.MaxUploadBytes != 0 {
		c.MaxUploadBytes = f.MaxUploadBytes
	}
	if f.MaxConcurrentParses != 0 {
		c.MaxConcurrentParses = f.MaxConcurrentParses
	}
	if f.DefaultPeekLimit != 0 {
		c.DefaultPeekLimit = f.DefaultPeekLimit
	}
	if f.RateLimitRPS != 0 {
		c.RateLimitRPS = f.RateLimitRPS
	}
	if f.RateLimitBurst != 0 {
		c.RateLimitBurst = f.RateLimitBurst
	}
	if f.RequestTimeout != "" {
		d, err := time.ParseDuration(f.RequestTimeout)
		if err != nil {
			return fmt.Errorf("parse config file %s: request_timeout: %w", path, err)
		}
		c.RequestTimeout = d
	}
	if f.DefaultChunkSize != 0 {
		c.DefaultChunkSize = f.DefaultChunkSize
	}
	if f.DefaultChunkOverlap != 0 {
		c.DefaultChunkOverlap = f.DefaultChunkOverlap
	}
	return nil
}

func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	if c.MaxConcurrentParses <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_PARSES must be positive, got %d", c.MaxConcurrentParses)
	}
	if c.DefaultPeekLimit <= 0 {
		return fmt.Errorf("DEFAULT_PEEK_LIMIT must be positive, got %d", c.DefaultPeekLimit)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %g", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be positive when rate limiting, got %d", c.RateLimitBurst)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.DefaultChunkSize <= 0 {
		return fmt.Errorf("DEFAULT_CHUNK_SIZE must be positive, got %d", c.DefaultChunkSize)
	}
	if c.DefaultChunkOverlap < 0 || c.DefaultChunkOverlap >= c.DefaultChunkSize {
		return fmt.Errorf("DEFAULT_CHUNK_OVERLAP must be in [0, %d), got %d", c.DefaultChunkSize, c.DefaultChunkOverlap)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
