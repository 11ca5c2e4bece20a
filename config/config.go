package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends for the cross-navigation order id.
const (
	StoreCookie   = "cookie"
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Config struct {
	Port      string
	PortalURL string
	LogLevel  string

	// Comma-separated browser origins allowed to call the API; "*" allows any
	CORSOrigins string

	// Institute REST backend
	BackendURL     string
	RequestTimeout time.Duration

	DefaultCurrency string

	// Durable store for the pending order id
	StoreBackend string
	StoreTTL     time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SMTPHost  string
	SMTPPort  string
	SMTPUser  string
	SMTPPass  string
	EmailFrom string

	// Kafka
	KafkaBrokers string
	KafkaTopic   string
	KafkaGroupID string
	ReceiptDir   string
}

var AppConfig Config

func init() {
	AppConfig = defaults()
}

func LoadConfig() {
	// Try loading .env from different locations
	envLocations := []string{
		".env",
		"config/.env",
		"../config/.env",
		"../../config/.env",
	}

	envLoaded := false
	for _, location := range envLocations {
		if err := godotenv.Load(location); err == nil {
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		log.Println("No .env file found, using environment variables")
	}

	AppConfig = defaults()
}

func defaults() Config {
	return Config{
		Port:      getEnvWithDefault("PORT", "8080"),
		PortalURL: strings.TrimRight(getEnvWithDefault("PORTAL_URL", "http://localhost:8080"), "/"),
		LogLevel:  getEnvWithDefault("LOG_LEVEL", "INFO"),

		CORSOrigins: getEnvWithDefault("CORS_ORIGINS", "*"),

		BackendURL:     strings.TrimRight(getEnvWithDefault("BACKEND_URL", "http://localhost:8081"), "/"),
		RequestTimeout: getDurationWithDefault("REQUEST_TIMEOUT", 10*time.Second),

		DefaultCurrency: strings.ToUpper(getEnvWithDefault("DEFAULT_CURRENCY", "USD")),

		StoreBackend: strings.ToLower(getEnvWithDefault("STORE_BACKEND", StoreCookie)),
		StoreTTL:     getDurationWithDefault("STORE_TTL", 24*time.Hour),

		DBHost:     getEnvWithDefault("DB_HOST", "localhost"),
		DBPort:     getEnvWithDefault("DB_PORT", "5432"),
		DBUser:     getEnvWithDefault("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnvWithDefault("DB_NAME", "postgres"),

		RedisAddr:     getEnvWithDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getIntWithDefault("REDIS_DB", 0),

		SMTPHost:  getEnvWithDefault("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:  getEnvWithDefault("SMTP_PORT", "587"),
		SMTPUser:  os.Getenv("SMTP_USER"),
		SMTPPass:  os.Getenv("SMTP_PASS"),
		EmailFrom: os.Getenv("EMAIL_FROM"),

		// Kafka settings (comma-separated brokers, empty disables events)
		KafkaBrokers: os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:   getEnvWithDefault("KAFKA_TOPIC", "portal.payments"),
		KafkaGroupID: getEnvWithDefault("KAFKA_GROUP", "enrollment-portal-receipts"),
		ReceiptDir:   getEnvWithDefault("RECEIPT_DIR", os.TempDir()),
	}
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationWithDefault accepts Go durations ("15s") or plain seconds ("15").
func getDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	log.Printf("Invalid duration for %s=%q, using %v", key, value, defaultValue)
	return defaultValue
}

func getIntWithDefault(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func GetDBConnString() string {
	return "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=disable"
}

// AllowedOrigin reports whether a browser origin may call the API.
func AllowedOrigin(origin string) bool {
	for _, o := range strings.Split(AppConfig.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// KafkaBrokerList splits KafkaBrokers and drops blanks.
func KafkaBrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(AppConfig.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
