package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Development bool
	LogLevel    string
	// API configuration
	APIPort int

	// Postgres configuration, used only when DatabaseEnabled is set
	DatabaseEnabled  bool
	PostgresUser     string
	PostgresPassword string
	PostgresHost     string
	PostgresPort     int
	PostgresDB       string

	// Knowledge service configuration
	KnowledgeServiceURL  string
	KnowledgeAPIKey      string
	KnowledgeModel       string
	KnowledgeTimeout     time.Duration
	KnowledgeTemperature float64
	KnowledgeMaxTokens   int

	// Portfolio feed; empty selects the built-in demo portfolio
	FeedURL string

	RescanInterval time.Duration
	SessionIdleTTL time.Duration

	// Notification configuration
	TelegramBotToken string
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Development:      getEnvAsBool("DEVELOPMENT", false),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		APIPort:          getEnvAsInt("API_PORT", 6532),
		DatabaseEnabled:  getEnvAsBool("DATABASE_ENABLED", false),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "password"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnvAsInt("POSTGRES_PORT", 5432),
		PostgresDB:       getEnv("POSTGRES_DB", "blocksage"),

		KnowledgeServiceURL:  getEnv("KNOWLEDGE_SERVICE_URL", "https://api.openai.com/v1/chat/completions"),
		KnowledgeAPIKey:      getEnv("KNOWLEDGE_API_KEY", ""),
		KnowledgeModel:       getEnv("KNOWLEDGE_MODEL", "gpt-4o-mini"),
		KnowledgeTimeout:     getEnvAsDuration("KNOWLEDGE_TIMEOUT", 15*time.Second),
		KnowledgeTemperature: getEnvAsFloat("KNOWLEDGE_TEMPERATURE", 0.7),
		KnowledgeMaxTokens:   getEnvAsInt("KNOWLEDGE_MAX_TOKENS", 500),

		FeedURL: getEnv("FEED_URL", ""),

		RescanInterval: getEnvAsDuration("RESCAN_INTERVAL", 10*time.Minute),
		SessionIdleTTL: getEnvAsDuration("SESSION_IDLE_TTL", 30*time.Minute),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are properly set
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("API_PORT must be between 1 and 65535, got %d", c.APIPort)
	}

	if c.KnowledgeServiceURL == "" {
		return fmt.Errorf("KNOWLEDGE_SERVICE_URL is required")
	}
	if _, err := url.ParseRequestURI(c.KnowledgeServiceURL); err != nil {
		return fmt.Errorf("invalid KNOWLEDGE_SERVICE_URL format: %w", err)
	}

	if c.KnowledgeTimeout <= 0 {
		return fmt.Errorf("KNOWLEDGE_TIMEOUT must be positive")
	}

	if c.KnowledgeTemperature < 0 || c.KnowledgeTemperature > 2 {
		return fmt.Errorf("KNOWLEDGE_TEMPERATURE must be between 0 and 2, got %v", c.KnowledgeTemperature)
	}

	if c.KnowledgeMaxTokens <= 0 {
		return fmt.Errorf("KNOWLEDGE_MAX_TOKENS must be positive")
	}

	if c.FeedURL != "" {
		if _, err := url.ParseRequestURI(c.FeedURL); err != nil {
			return fmt.Errorf("invalid FEED_URL format: %w", err)
		}
	}

	if c.RescanInterval < 0 {
		return fmt.Errorf("RESCAN_INTERVAL must not be negative")
	}

	if c.SessionIdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must be positive")
	}

	if c.DatabaseEnabled {
		if c.PostgresDB == "" {
			return fmt.Errorf("POSTGRES_DB is required")
		}

		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required")
		}
	}

	return nil
}

// PostgresDSN returns the connection string for the scan history database
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort)
}

// Helper functions to read environment variables
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBool(name string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsFloat(name string, defaultValue float64) float64 {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsDuration(name string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}
