package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string
	LogLevel      string

	// Supabase (remote tier + auth)
	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseJWTSecret  string
	JWTIssuer          string

	// Model provider
	AIEndpoint string
	AIAPIKey   string
	AITimeout  time.Duration

	// Local tier
	LocalDBPath string

	// Card content catalog
	CardContentPath string

	// Limits
	TurnsPerMinute int

	// Feature flags
	EnableCORS bool
}

// LoadConfig loads configuration from the environment, reading a .env
// file first when one is present.
func LoadConfig() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabaseJWTSecret:  getEnv("SUPABASE_JWT_SECRET", ""),
		JWTIssuer:          getEnv("JWT_ISSUER", "supabase"),

		AIEndpoint: getEnv("AI_ENDPOINT", ""),
		AIAPIKey:   getEnv("AI_API_KEY", ""),
		AITimeout:  time.Duration(getEnvInt("AI_TIMEOUT_SECONDS", 30)) * time.Second,

		LocalDBPath:     getEnv("LOCAL_DB_PATH", "clarityos-local.db"),
		CardContentPath: getEnv("CARD_CONTENT_PATH", "content/cards.yaml"),

		TurnsPerMinute: getEnvInt("TURNS_PER_MINUTE", 10),

		EnableCORS: getEnvBool("ENABLE_CORS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.Environment == "production" {
		if c.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_URL is required in production")
		}
		if c.SupabaseServiceKey == "" {
			return fmt.Errorf("SUPABASE_SERVICE_ROLE_KEY is required in production")
		}
		if c.SupabaseJWTSecret == "" {
			return fmt.Errorf("SUPABASE_JWT_SECRET is required in production")
		}
		if c.AIEndpoint == "" {
			return fmt.Errorf("AI_ENDPOINT is required in production")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
