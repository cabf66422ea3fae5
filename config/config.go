package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// MongoDB configuration.
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	// Redis configuration (push subscription store).
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// Auth tokens. The stream token secret falls back to JWT_SECRET
	// so a single-key deployment still works.
	JWTSecret                string `mapstructure:"JWT_SECRET"`
	StreamTokenSecret        string `mapstructure:"STREAM_TOKEN_SECRET"`
	StreamTokenExpiryMinutes int    `mapstructure:"STREAM_TOKEN_EXPIRY_MINUTES"`

	// Kafka ingestion.
	KafkaBrokers     string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopics      string `mapstructure:"KAFKA_TOPICS"`
	KafkaGroupID     string `mapstructure:"KAFKA_GROUP_ID"`
	KafkaOffsetReset string `mapstructure:"KAFKA_OFFSET_RESET"`

	// Web Push (VAPID).
	VapidPublicKey  string `mapstructure:"VAPID_PUBLIC_KEY"`
	VapidPrivateKey string `mapstructure:"VAPID_PRIVATE_KEY"`
	VapidSubject    string `mapstructure:"VAPID_SUBJECT"`

	// Feature flags.
	AllowInternalCreation bool `mapstructure:"ALLOW_INTERNAL_CREATION"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "bellnotifications")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("STREAM_TOKEN_EXPIRY_MINUTES", 60)
	viper.SetDefault("KAFKA_BROKERS", "localhost:9092")
	viper.SetDefault("KAFKA_TOPICS", "bell-notifications")
	viper.SetDefault("KAFKA_GROUP_ID", "bell-notification-service")
	viper.SetDefault("KAFKA_OFFSET_RESET", "earliest")
	viper.SetDefault("VAPID_SUBJECT", "mailto:admin@example.com")
	viper.SetDefault("ALLOW_INTERNAL_CREATION", false)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// StreamTokenKey returns the signing key for short-lived stream tokens.
func StreamTokenKey() string {
	if AppConfig.StreamTokenSecret != "" {
		return AppConfig.StreamTokenSecret
	}
	return AppConfig.JWTSecret
}

// KafkaBrokerList splits the configured broker string into addresses.
func KafkaBrokerList() []string {
	return splitAndTrim(AppConfig.KafkaBrokers)
}

// KafkaTopicList splits the configured topic string into topic names.
func KafkaTopicList() []string {
	return splitAndTrim(AppConfig.KafkaTopics)
}

func splitAndTrim(raw string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' }) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
