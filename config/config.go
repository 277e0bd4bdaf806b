package config

import (
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Session  SessionConfig
	JWT      JWTConfig
	Kafka    KafkaConfig
	SMS      SMSConfig
	Admin    AdminConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Path string
}

type SessionConfig struct {
	CookieName string
	MaxAge     int // seconds (default: 86400 = 1 day)
}

type JWTConfig struct {
	SigningKey string // Secret key for JWT signing
	Issuer     string // JWT issuer claim
	TTLMinutes int    // token lifetime
}

type KafkaConfig struct {
	Brokers     string // comma-separated broker list
	NotifyTopic string
	DLQTopic    string
	GroupID     string
}

type SMSConfig struct {
	GatewayURL string
	APIKey     string
	From       string
	MaxRetries int
}

type AdminConfig struct {
	// Seed account created on first boot when no admin exists.
	Email    string
	Password string
}

// Load returns application configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "coordination.db"),
		},
		Session: SessionConfig{
			CookieName: getEnv("SESSION_COOKIE_NAME", "session_id"),
			MaxAge:     getEnvInt("SESSION_MAX_AGE", 86400), // 1 day
		},
		JWT: JWTConfig{
			SigningKey: getEnv("JWT_SIGNING_KEY", ""),
			Issuer:     getEnv("JWT_ISSUER", "taller-integro"),
			TTLMinutes: getEnvInt("JWT_TTL_MINUTES", 60),
		},
		Kafka: KafkaConfig{
			// Empty means no broker; the server then drops notifications
			// instead of writing to Kafka.
			Brokers:     getEnv("KAFKA_BROKERS", ""),
			NotifyTopic: getEnv("KAFKA_NOTIFY_TOPIC", "notify-outbox"),
			DLQTopic:    getEnv("KAFKA_DLQ_TOPIC", "notify-dlq"),
			GroupID:     getEnv("KAFKA_GROUP_ID", "notify-sender"),
		},
		SMS: SMSConfig{
			GatewayURL: getEnv("SMS_GATEWAY_URL", ""),
			APIKey:     getEnv("SMS_API_KEY", ""),
			From:       getEnv("SMS_FROM", ""),
			MaxRetries: getEnvInt("SMS_MAX_RETRIES", 3),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
