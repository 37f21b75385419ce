package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

const (
	DefaultAIGatewayURL  = "https://ai.gateway.lovable.dev/v1/chat/completions"
	DefaultAIModel       = "google/gemini-2.5-flash"
	DefaultAITemperature = 0.7
)

// Config is read from an optional YAML file and then overridden by the
// environment.
type Config struct {
	Port        string `yaml:"port"`
	FrontendURL string `yaml:"frontend_url"`
	Environment string `yaml:"environment"`

	// Storage
	DataBackend  string `yaml:"data_backend"`
	DatabaseURL  string `yaml:"database_url"`
	SQLiteDBPath string `yaml:"sqlite_db_path"`

	// Tokens issued by the managed auth service
	AuthJWTSecret string `yaml:"auth_jwt_secret"`
	AuthAudience  string `yaml:"auth_audience"`

	// Text-generation gateway
	AIGatewayURL    string        `yaml:"ai_gateway_url"`
	AIGatewayAPIKey string        `yaml:"ai_gateway_api_key"`
	AIModel         string        `yaml:"ai_model"`
	AITemperature   float64       `yaml:"ai_temperature"`
	AITimeout       time.Duration `yaml:"ai_timeout"`

	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		Port:               "8080",
		FrontendURL:        "http://localhost:3000",
		Environment:        "development",
		DataBackend:        BackendPostgres,
		SQLiteDBPath:       "./data/expensedecoder.db",
		AuthAudience:       "authenticated",
		AIGatewayURL:       DefaultAIGatewayURL,
		AIModel:            DefaultAIModel,
		AITemperature:      DefaultAITemperature,
		AITimeout:          60 * time.Second,
		RateLimitPerMinute: 100,
	}
}

// Load builds the configuration. path may be empty; a missing file is an
// error only when a path was given.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.FrontendURL = getEnv("FRONTEND_URL", c.FrontendURL)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)

	c.DataBackend = getEnv("DATA_BACKEND", c.DataBackend)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.SQLiteDBPath = getEnv("SQLITE_DB_PATH", c.SQLiteDBPath)

	c.AuthJWTSecret = getEnv("AUTH_JWT_SECRET", c.AuthJWTSecret)
	c.AuthAudience = getEnv("AUTH_AUDIENCE", c.AuthAudience)

	c.AIGatewayURL = getEnv("AI_GATEWAY_URL", c.AIGatewayURL)
	c.AIGatewayAPIKey = getEnv("AI_GATEWAY_API_KEY", c.AIGatewayAPIKey)
	c.AIModel = getEnv("AI_MODEL", c.AIModel)
	c.AITemperature = getEnvFloat("AI_TEMPERATURE", c.AITemperature)
	c.AITimeout = getEnvDuration("AI_TIMEOUT", c.AITimeout)

	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
}

// AllowedOrigins returns the CORS origin list.
func (c *Config) AllowedOrigins() []string {
	origins := []string{}
	for _, o := range strings.Split(c.FrontendURL, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// IsProduction reports whether sensitive values must be masked in logs.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Validate returns every problem at once.
func (c *Config) Validate() error {
	return c.validate(true)
}

// ValidateCore checks only the storage and gateway settings, for commands
// that do not serve HTTP.
func (c *Config) ValidateCore() error {
	return c.validate(false)
}

func (c *Config) validate(server bool) error {
	var errors []string

	if server {
		if port, err := strconv.Atoi(c.Port); err != nil {
			errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
		}
	}

	switch c.DataBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	case BackendMemory:
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [postgres sqlite memory]", c.DataBackend))
	}

	if server && c.AuthJWTSecret == "" {
		errors = append(errors, "AUTH_JWT_SECRET is required")
	}

	if parsed, err := url.Parse(c.AIGatewayURL); err != nil || parsed.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid AI gateway URL '%s'", c.AIGatewayURL))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid AI gateway URL scheme '%s': must be 'http' or 'https'", parsed.Scheme))
	}

	if c.AIModel == "" {
		errors = append(errors, "AI model cannot be empty")
	}
	if c.AITemperature < 0 || c.AITemperature > 2 {
		errors = append(errors, fmt.Sprintf("invalid AI temperature %v: must be between 0 and 2", c.AITemperature))
	}
	if c.AITimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid AI timeout %v: must not be negative", c.AITimeout))
	}

	if server && c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
