package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Environment string            `yaml:"environment"`
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Typesense   TypesenseConfig   `yaml:"typesense"`
	Geolocation GeolocationConfig `yaml:"geolocation"`
	Discovery   DiscoveryConfig   `yaml:"discovery"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	OTEL        OTELConfig        `yaml:"otel"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// TypesenseConfig holds Typesense configuration. An empty URL disables the index.
type TypesenseConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// GeolocationConfig holds geocoder configuration
type GeolocationConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
}

// DiscoveryConfig holds the proximity discovery policy
type DiscoveryConfig struct {
	RadiusKm           float64       `yaml:"radius_km"`
	LocationTimeout    time.Duration `yaml:"location_timeout"`
	DefaultLanguage    string        `yaml:"default_language"`
	SupportedLanguages []string      `yaml:"supported_languages"`
	RequiredLanguages  []string      `yaml:"required_languages"`
	CurrencyLabel      string        `yaml:"currency_label"`
	MessagingBaseURL   string        `yaml:"messaging_base_url"`
	ResultLimit        int           `yaml:"result_limit"`
	SupportPhone       string        `yaml:"support_phone"`
	InstitutionsTTL    time.Duration `yaml:"institutions_ttl"`
}

// RateLimitConfig holds per-client limits for write-like endpoints
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version"`
	Endpoint       string `yaml:"endpoint"`
	Enabled        bool   `yaml:"enabled"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Environment: "development",
		Server:      ServerConfig{Host: "0.0.0.0", Port: 8080, AllowedOrigins: []string{"*"}},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Database: "lingatchoss",
			SSLMode:  "disable",
		},
		Redis:       RedisConfig{Host: "localhost", Port: 6379},
		Geolocation: GeolocationConfig{Provider: "mock"},
		Discovery: DiscoveryConfig{
			RadiusKm:           70,
			LocationTimeout:    10 * time.Second,
			DefaultLanguage:    "pt",
			SupportedLanguages: []string{"pt", "en", "fr", "umb"},
			RequiredLanguages:  []string{"pt", "en", "fr"},
			CurrencyLabel:      "kz",
			MessagingBaseURL:   "https://wa.me",
			SupportPhone:       "+244935150370",
			InstitutionsTTL:    time.Minute,
		},
		RateLimit: RateLimitConfig{RequestsPerMinute: 60, Burst: 10},
		OTEL: OTELConfig{
			ServiceName:    "lingatchoss-marketplace",
			ServiceVersion: "1.0.0",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables, in that order of precedence.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Environment = getEnv("APP_ENV", cfg.Environment)

	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvAsInt("SERVER_PORT", cfg.Server.Port)
	cfg.Server.AllowedOrigins = getEnvAsList("ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)

	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvAsInt("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Database = getEnv("DB_NAME", cfg.Database.Database)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)

	cfg.Redis.Host = getEnv("REDIS_HOST", cfg.Redis.Host)
	cfg.Redis.Port = getEnvAsInt("REDIS_PORT", cfg.Redis.Port)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)

	cfg.Typesense.URL = getEnv("TYPESENSE_URL", cfg.Typesense.URL)
	cfg.Typesense.APIKey = getEnv("TYPESENSE_API_KEY", cfg.Typesense.APIKey)

	cfg.Geolocation.Provider = getEnv("GEOLOCATION_PROVIDER", cfg.Geolocation.Provider)
	cfg.Geolocation.APIKey = getEnv("GEOLOCATION_API_KEY", cfg.Geolocation.APIKey)

	cfg.Discovery.RadiusKm = getEnvAsFloat("DISCOVERY_RADIUS_KM", cfg.Discovery.RadiusKm)
	cfg.Discovery.LocationTimeout = getEnvAsDuration("DISCOVERY_LOCATION_TIMEOUT", cfg.Discovery.LocationTimeout)
	cfg.Discovery.DefaultLanguage = getEnv("DISCOVERY_DEFAULT_LANGUAGE", cfg.Discovery.DefaultLanguage)
	cfg.Discovery.SupportedLanguages = getEnvAsList("DISCOVERY_LANGUAGES", cfg.Discovery.SupportedLanguages)
	cfg.Discovery.RequiredLanguages = getEnvAsList("DISCOVERY_REQUIRED_LANGUAGES", cfg.Discovery.RequiredLanguages)
	cfg.Discovery.CurrencyLabel = getEnv("DISCOVERY_CURRENCY_LABEL", cfg.Discovery.CurrencyLabel)
	cfg.Discovery.MessagingBaseURL = getEnv("DISCOVERY_MESSAGING_BASE_URL", cfg.Discovery.MessagingBaseURL)
	cfg.Discovery.ResultLimit = getEnvAsInt("DISCOVERY_RESULT_LIMIT", cfg.Discovery.ResultLimit)
	cfg.Discovery.SupportPhone = getEnv("DISCOVERY_SUPPORT_PHONE", cfg.Discovery.SupportPhone)
	cfg.Discovery.InstitutionsTTL = getEnvAsDuration("DISCOVERY_INSTITUTIONS_TTL", cfg.Discovery.InstitutionsTTL)

	cfg.RateLimit.RequestsPerMinute = getEnvAsInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimit.RequestsPerMinute)
	cfg.RateLimit.Burst = getEnvAsInt("RATE_LIMIT_BURST", cfg.RateLimit.Burst)

	cfg.OTEL.ServiceName = getEnv("OTEL_SERVICE_NAME", cfg.OTEL.ServiceName)
	cfg.OTEL.ServiceVersion = getEnv("OTEL_SERVICE_VERSION", cfg.OTEL.ServiceVersion)
	cfg.OTEL.Endpoint = getEnv("OTEL_ENDPOINT", cfg.OTEL.Endpoint)
	cfg.OTEL.Enabled = getEnvAsBool("OTEL_ENABLED", cfg.OTEL.Enabled)
}

// Validate rejects settings the discovery pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Discovery.RadiusKm <= 0 {
		return fmt.Errorf("discovery radius must be positive, got %v", c.Discovery.RadiusKm)
	}
	if c.Discovery.LocationTimeout <= 0 {
		return fmt.Errorf("discovery location timeout must be positive, got %v", c.Discovery.LocationTimeout)
	}
	if len(c.Discovery.SupportedLanguages) == 0 {
		return fmt.Errorf("at least one supported language is required")
	}
	if !c.Discovery.Supports(c.Discovery.DefaultLanguage) {
		return fmt.Errorf("default language %q is not in the supported set %v",
			c.Discovery.DefaultLanguage, c.Discovery.SupportedLanguages)
	}
	for _, l := range c.Discovery.RequiredLanguages {
		if !c.Discovery.Supports(l) {
			return fmt.Errorf("required language %q is not in the supported set %v", l, c.Discovery.SupportedLanguages)
		}
	}
	return nil
}

// Supports reports whether lang is one of the supported language codes.
func (d DiscoveryConfig) Supports(lang string) bool {
	for _, l := range d.SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
