// Package configs provides application configuration loaded from environment variables.
// All configuration is externalized via environment variables for 12-factor app compliance.
package configs

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds all application configuration.
// Load it once at startup using AppLoad().
type AppConfig struct {
	// Mongo contains the document store connection settings.
	Mongo MongoConfig

	// KafkaUpload contains Kafka consumer settings for sales upload events.
	KafkaUpload KafkaConfig

	// KafkaReport contains Kafka producer settings for daily reports.
	KafkaReport KafkaConfig

	// LLM contains the insight provider settings.
	LLM LLMConfig

	// ClickHouseDSN is the analytics warehouse connection string.
	ClickHouseDSN string

	// ExpectedStores is the roster of store IDs that must report each day.
	ExpectedStores []string

	// HistoricalDays is the size of the lookback window for comparisons.
	HistoricalDays int

	// ExportDays is the date range size for warehouse exports.
	ExportDays int

	// ServerPort is the HTTP API listen port.
	ServerPort string
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	// URI is the MongoDB connection string (e.g., "mongodb://localhost:27017").
	URI string

	// Database is the database name.
	Database string

	// Collection is the single-table collection name.
	Collection string
}

// KafkaConfig holds Kafka connection settings.
type KafkaConfig struct {
	// Broker is the Kafka broker address (e.g., "localhost:9092").
	Broker string

	// Topic is the Kafka topic name.
	Topic string

	// GroupID is the consumer group ID. Unused for producers.
	GroupID string
}

// LLMConfig holds settings for the chat completions provider.
type LLMConfig struct {
	// Endpoint is the provider base URL.
	Endpoint string

	// Model is the model identifier to request.
	Model string

	// APIKey authenticates requests to the provider.
	APIKey string

	// TimeoutSeconds bounds a single completion call.
	TimeoutSeconds int

	// RequestsPerMinute throttles outgoing calls. Zero disables throttling.
	RequestsPerMinute int
}

// getExpectedStores loads the store roster from environment.
func getExpectedStores() []string {
	raw := getEnv("EXPECTED_STORES", "")
	if raw == "" {
		return nil
	}
	var stores []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			stores = append(stores, id)
		}
	}
	return stores
}

// AppLoad loads all application configuration from environment variables.
// It attempts to load a .env file first (for local development).
// Call this once at application startup.
func AppLoad() *AppConfig {
	_ = godotenv.Load() // Ignore error - .env is optional

	return &AppConfig{
		Mongo: MongoConfig{
			URI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:   getEnv("MONGO_DB", "storepulse"),
			Collection: getEnv("MONGO_COLLECTION", "sales_data"),
		},
		KafkaUpload: KafkaConfig{
			Broker:  getEnv("KAFKA_BROKER", "localhost:9092"),
			Topic:   getEnv("KAFKA_UPLOAD_TOPIC", "storepulse_uploads"),
			GroupID: getEnv("KAFKA_UPLOAD_GROUP_ID", "storepulse-upload-worker"),
		},
		KafkaReport: KafkaConfig{
			Broker: getEnv("KAFKA_BROKER", "localhost:9092"),
			Topic:  getEnv("KAFKA_REPORT_TOPIC", "storepulse_reports"),
		},
		LLM: LLMConfig{
			Endpoint:          getEnv("LLM_ENDPOINT", "https://api.openai.com/v1"),
			Model:             getEnv("LLM_MODEL", "gpt-4o-mini"),
			APIKey:            getEnv("LLM_API_KEY", ""),
			TimeoutSeconds:    getEnvInt("LLM_TIMEOUT_SECONDS", 60),
			RequestsPerMinute: getEnvInt("LLM_REQUESTS_PER_MINUTE", 20),
		},
		ClickHouseDSN:  getDatabaseDSN(),
		ExpectedStores: getExpectedStores(),
		HistoricalDays: getEnvInt("HISTORICAL_DAYS", 7),
		ExportDays:     getEnvInt("EXPORT_DAYS", 30),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
	}
}

// getDatabaseDSN constructs the ClickHouse DSN from environment variables.
func getDatabaseDSN() string {
	dbUser := getEnv("CLICKHOUSE_USER", "user")
	dbPassword := getEnv("CLICKHOUSE_PASSWORD", "password")
	dbHost := getEnv("CLICKHOUSE_HOST", "localhost")
	dbPort := getEnv("CLICKHOUSE_TCP_PORT", "9000")
	dbName := getEnv("CLICKHOUSE_DB", "storepulse")

	return "clickhouse://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName +
		"?dial_timeout=10s&read_timeout=20s"
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
