package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPath     string

	RedisHost     string
	RedisPort     string
	SessionSecret string
	SessionStore  string
	GinMode       string
	ListenAddr    string

	AppName string
	AppURL  string

	TokenExpirationDays            int
	MagicLinkExpirationMinutes     int
	PasswordResetExpirationMinutes int
	AuthTokenRateLimit             int
	DietaryPrivacyThreshold        int

	SendGridAPIKey     string
	EmailSenderAddress string
	EmailSenderName    string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	EnableSMS        bool

	OpenAIAPIKey string
	OpenAIModel  string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using process environment")
	}

	return &Config{
		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "partyuser"),
		DBPassword: getEnv("DB_PASSWORD", "partypassword"),
		DBName:     getEnv("DB_NAME", "party_planner"),
		DBPath:     getEnv("DB_PATH", "party_planner.db"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		SessionSecret: getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		GinMode:       getEnv("GIN_MODE", "debug"),
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		SessionStore:  getEnv("SESSION_STORE", "redis"),

		AppName: getEnv("APP_NAME", "Party Planner"),
		AppURL:  strings.TrimRight(getEnv("APP_URL", "http://localhost:8080"), "/"),

		TokenExpirationDays:            getEnvInt("TOKEN_EXPIRATION_DAYS", 90),
		MagicLinkExpirationMinutes:     getEnvInt("MAGIC_LINK_EXPIRATION_MINUTES", 30),
		PasswordResetExpirationMinutes: getEnvInt("PASSWORD_RESET_EXPIRATION_MINUTES", 60),
		AuthTokenRateLimit:             getEnvInt("AUTH_TOKEN_RATE_LIMIT", 5),
		DietaryPrivacyThreshold:        getEnvInt("DIETARY_PRIVACY_THRESHOLD", 2),

		SendGridAPIKey:     getEnv("SENDGRID_API_KEY", ""),
		EmailSenderAddress: getEnv("EMAIL_SENDER_ADDRESS", "noreply@example.com"),
		EmailSenderName:    getEnv("EMAIL_SENDER_NAME", "Party Planner"),

		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
		EnableSMS:        getEnvBool("ENABLE_SMS", false),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

// SMSConfigured reports whether outbound SMS can actually be sent.
func (c *Config) SMSConfigured() bool {
	return c.EnableSMS && c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msg("invalid integer in environment, using default")
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue
	}
	return value
}
