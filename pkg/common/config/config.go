package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers    []string
	KafkaGroupID    string
	MergeEventTopic string
	SyncEventTopic  string

	// Merge
	MergeAPIToken     string
	MergeRulesPath    string
	FacilityBatchSize int

	// Remerge worker
	RemergeInterval time.Duration
	RemergeJitter   time.Duration
	RemergeLockTTL  time.Duration
	RemergeLockKey  string
}

func Load() *Config {
	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 30*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 1024*1024)),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "tidewell"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "tidewell123"),
		PostgresDB:       getEnv("POSTGRES_DB", "tidewell"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers:    getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:    getEnv("KAFKA_GROUP_ID", "tidewell-platform"),
		MergeEventTopic: getEnv("MERGE_EVENT_TOPIC", "patient.merges"),
		SyncEventTopic:  getEnv("SYNC_EVENT_TOPIC", "facility.sync"),

		MergeAPIToken:     getEnv("MERGE_API_TOKEN", ""),
		MergeRulesPath:    getEnv("MERGE_RULES_PATH", ""),
		FacilityBatchSize: getIntEnv("FACILITY_BATCH_SIZE", 100),

		RemergeInterval: getDuration("REMERGE_INTERVAL", 15*time.Minute),
		RemergeJitter:   getDuration("REMERGE_JITTER", 2*time.Minute),
		RemergeLockTTL:  getDuration("REMERGE_LOCK_TTL", 10*time.Minute),
		RemergeLockKey:  getEnv("REMERGE_LOCK_KEY", "tidewell:remerge:lock"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
