package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Persistence
	DBPath string

	// Sweep schedule (cron expression with seconds field); cadence gating
	// per subscription happens inside the monitor, not here.
	SweepSchedule string

	// Classifier configuration
	OpenAIAPIKey      string
	OpenAIModel       string
	ClassifierTimeout time.Duration

	// Azure Blob summary archive (optional)
	StorageAccount   string
	StorageContainer string

	// Notification configuration
	WebhookURL   string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailTo      string

	// Source configuration
	MastodonInstance string
	SampleData       bool

	// Analysis limits
	MaxSnippetsPerSource int
	MaxSubjectLength     int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),

		DBPath:        getEnv("DB_PATH", "brandpulse.db"),
		SweepSchedule: getEnv("SWEEP_SCHEDULE", "0 0 * * * *"),

		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		ClassifierTimeout: getDurationEnv("CLASSIFIER_TIMEOUT", 60*time.Second),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "summaries"),

		WebhookURL:   getEnv("WEBHOOK_URL", ""),
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getIntEnv("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		EmailTo:      getEnv("NOTIFICATION_EMAIL", ""),

		MastodonInstance: getEnv("MASTODON_INSTANCE", "mastodon.social"),
		SampleData:       getBoolEnv("SAMPLE_DATA", false),

		MaxSnippetsPerSource: getIntEnv("MAX_SNIPPETS_PER_SOURCE", 50),
		MaxSubjectLength:     getIntEnv("MAX_SUBJECT_LENGTH", 200),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}

	if c.ClassifierTimeout <= 0 {
		return fmt.Errorf("CLASSIFIER_TIMEOUT must be positive")
	}

	if c.EmailTo != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	if c.MaxSubjectLength <= 0 {
		return fmt.Errorf("MAX_SUBJECT_LENGTH must be positive")
	}

	return nil
}

// EmailConfigured reports whether the email delivery channel can be used.
func (c *Config) EmailConfigured() bool {
	return c.EmailTo != "" && c.SMTPHost != ""
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
