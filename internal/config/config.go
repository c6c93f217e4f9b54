package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultBaseAPI = "http://localhost:8080"

type Config struct {
	Server  ServerConfig
	IAM     IAMConfig
	Tester  TesterConfig
	Session SessionConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	TLSCertFile  string
	TLSKeyFile   string
}

// TLSEnabled reports whether both certificate files are configured
func (s ServerConfig) TLSEnabled() bool {
	return s.TLSCertFile != "" && s.TLSKeyFile != ""
}

type IAMConfig struct {
	BaseURL string
	// Timeout of zero bounds backend calls by the request context only
	Timeout time.Duration
}

type TesterConfig struct {
	// Origin is sent as the Origin header of emulated browser preflights
	Origin   string
	CORSMode bool
}

type SessionConfig struct {
	CookieSecure bool
	WorkspaceTTL time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnvWithDefault("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvWithDefault("SERVER_PORT", "3000"),
			ReadTimeout:  getDurationFromEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationFromEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			TLSCertFile:  getEnvWithDefault("TLS_CERT_FILE", ""),
			TLSKeyFile:   getEnvWithDefault("TLS_KEY_FILE", ""),
		},
		IAM: IAMConfig{
			BaseURL: strings.TrimRight(getEnvWithDefault("IAM_BASE_API", DefaultBaseAPI), "/"),
			Timeout: getDurationFromEnv("IAM_TIMEOUT", 0),
		},
		Tester: TesterConfig{
			Origin:   getEnvWithDefault("DASHBOARD_ORIGIN", "http://localhost:3000"),
			CORSMode: getBoolFromEnv("TESTER_CORS_MODE", true),
		},
		Session: SessionConfig{
			CookieSecure: getBoolFromEnv("COOKIE_SECURE", false),
			WorkspaceTTL: getDurationFromEnv("WORKSPACE_TTL", 24*time.Hour),
		},
		Logging: LoggingConfig{
			Level:  getEnvWithDefault("LOG_LEVEL", "info"),
			Format: getEnvWithDefault("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail on first use
func (c *Config) Validate() error {
	u, err := url.Parse(c.IAM.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("IAM_BASE_API must be an absolute URL, got %q", c.IAM.BaseURL)
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		return fmt.Errorf("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	if c.Session.WorkspaceTTL <= 0 {
		return fmt.Errorf("WORKSPACE_TTL must be positive")
	}
	return nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolFromEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationFromEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
