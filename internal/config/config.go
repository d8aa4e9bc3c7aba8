package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Port           string
	MongoURI       string
	DBName         string
	Store          string
	JWTSecret      string
	LogLevel       string
	ServiceName    string
	RequestTimeout time.Duration

	PaymeSecret            string
	ClickSecret            string
	PaymentRedirectBase    string
	PaymentReconcileAmount bool

	AuditQueueSize  int
	NotifyQueueSize int

	TelegramBotToken string
	TelegramChatID   string
	KafkaBrokers     []string
	KafkaTopic       string

	OTLPEndpoint string
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = FromEnv()
}

// FromEnv reads the configuration from the process environment without
// touching .env files.
func FromEnv() Config {
	return Config{
		Port:           getEnvOrDefault("PORT", "8080"),
		MongoURI:       getEnvOrDefault("MONGO_URI", ""),
		DBName:         getEnvOrDefault("DB_NAME", "storefront"),
		Store:          strings.ToLower(getEnvOrDefault("STORE", StoreMongo)),
		JWTSecret:      getEnvOrDefault("JWT_SECRET", ""),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		ServiceName:    getEnvOrDefault("SERVICE_NAME", "storefront"),
		RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", 5, time.Second),

		PaymeSecret:            getEnvOrDefault("PAYME_SECRET", ""),
		ClickSecret:            getEnvOrDefault("CLICK_SECRET", ""),
		PaymentRedirectBase:    getEnvOrDefault("PAYMENT_REDIRECT_BASE", "https://pay.example.com"),
		PaymentReconcileAmount: getBoolEnv("PAYMENT_RECONCILE_AMOUNT", false),

		AuditQueueSize:  getIntEnv("AUDIT_QUEUE_SIZE", 1024),
		NotifyQueueSize: getIntEnv("NOTIFY_QUEUE_SIZE", 256),

		TelegramBotToken: getEnvOrDefault("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnvOrDefault("TELEGRAM_CHAT_ID", ""),
		KafkaBrokers:     splitCSV(getEnvOrDefault("KAFKA_BROKERS", "")),
		KafkaTopic:       getEnvOrDefault("KAFKA_TOPIC", "storefront.orders"),

		OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.Store {
	case StoreMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required when STORE=mongo"))
		}
	case StoreMemory:
	default:
		errs = append(errs, errors.New("STORE must be mongo or memory"))
	}
	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	return time.Duration(getIntEnv(key, defaultValue)) * unit
}

func getIntEnv(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitCSV(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
