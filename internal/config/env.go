package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

func init() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()
}

type Config struct {
	// Required
	APIKey          string
	AnthropicAPIKey string

	// Google Calendar
	GoogleCredentialsFile string
	GoogleTokenFile       string
	CalendarID            string

	// Optional with defaults
	DBPath            string
	HTTPPort          int
	Timezone          string
	ClaudeModel       string
	ClaudeTemperature float64
	DevMode           bool

	// Negotiation tuning
	DefaultDurationMin   int
	SlotIncrementMin     int
	MaxAlternatives      int
	MaxDateSpanDays      int
	MaxCandidateDays     int
	MaxTurns             int
	MaxExtractFailures   int
	BookingRetries       int
	ConversationTTLHours int

	// Notifications
	ResendAPIKey string
	NotifyFrom   string
}

func LoadFromEnv() *Config {
	cfg := &Config{
		// Required
		APIKey:          os.Getenv("BOOKWISE_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),

		// Google Calendar
		GoogleCredentialsFile: getEnvOrDefault("GOOGLE_CREDENTIALS_FILE", "./credentials.json"),
		GoogleTokenFile:       getEnvOrDefault("GOOGLE_TOKEN_FILE", "./token.json"),
		CalendarID:            getEnvOrDefault("BOOKWISE_CALENDAR_ID", "primary"),

		// Optional with defaults
		DBPath:            getEnvOrDefault("BOOKWISE_DB_PATH", "./bookwise.db"),
		HTTPPort:          getEnvAsIntOrDefault("BOOKWISE_HTTP_PORT", 8080),
		Timezone:          getEnvOrDefault("BOOKWISE_TIMEZONE", "UTC"),
		ClaudeModel:       getEnvOrDefault("BOOKWISE_CLAUDE_MODEL", "claude-sonnet-4-20250514"),
		ClaudeTemperature: getEnvAsFloatOrDefault("BOOKWISE_CLAUDE_TEMPERATURE", 0.1),
		DevMode:           getEnvAsBoolOrDefault("BOOKWISE_DEV_MODE", false),

		// Negotiation tuning
		DefaultDurationMin:   getEnvAsIntOrDefault("BOOKWISE_DEFAULT_DURATION_MIN", 30),
		SlotIncrementMin:     getEnvAsIntOrDefault("BOOKWISE_SLOT_INCREMENT_MIN", 15),
		MaxAlternatives:      getEnvAsIntOrDefault("BOOKWISE_MAX_ALTERNATIVES", 3),
		MaxDateSpanDays:      getEnvAsIntOrDefault("BOOKWISE_MAX_DATE_SPAN_DAYS", 14),
		MaxCandidateDays:     getEnvAsIntOrDefault("BOOKWISE_MAX_CANDIDATE_DAYS", 3),
		MaxTurns:             getEnvAsIntOrDefault("BOOKWISE_MAX_TURNS", 12),
		MaxExtractFailures:   getEnvAsIntOrDefault("BOOKWISE_MAX_EXTRACT_FAILURES", 3),
		BookingRetries:       getEnvAsIntOrDefault("BOOKWISE_BOOKING_RETRIES", 3),
		ConversationTTLHours: getEnvAsIntOrDefault("BOOKWISE_CONVERSATION_TTL_HOURS", 72),

		// Notifications
		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		NotifyFrom:   getEnvOrDefault("BOOKWISE_NOTIFY_FROM", "Bookwise <bookings@bookwise.local>"),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
