package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"

	BrokerNone     = "none"
	BrokerKafka    = "kafka"
	BrokerRabbitMQ = "rabbitmq"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                string
	HTTPAddr           string
	CORSOrigins        []string
	StoreBackend       string
	MongoURI           string
	MongoDB            string
	Broker             string
	KafkaBrokers       []string
	KafkaTopicPrefix   string
	KafkaPaymentsTopic string
	KafkaGroupID       string
	RabbitMQURL        string
	RabbitMQExchange   string
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration
	ScheduleInterval   time.Duration
	SchedulerEnabled   bool
	IdempotencyTTL     time.Duration
	ServiceFeeRate     float64
	TaxRate            float64
	PricingURL         string
	PricingTimeout     time.Duration
	DefaultPageSize    int
	ListingsFixtures   string
}

// Load reads .env when present and then parses the environment. Variables
// already set in the environment win over .env entries.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv parses configuration from the current environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		Env:                getEnv("APP_ENV", "dev"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		CORSOrigins:        splitList(getEnv("CORS_ORIGINS", "*")),
		StoreBackend:       strings.ToLower(getEnv("STORE_BACKEND", StoreMemory)),
		MongoURI:           os.Getenv("MONGO_URI"),
		MongoDB:            getEnv("MONGO_DB", "stayengine"),
		Broker:             strings.ToLower(getEnv("BROKER", BrokerNone)),
		KafkaBrokers:       splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopicPrefix:   getEnv("KAFKA_TOPIC_PREFIX", ""),
		KafkaPaymentsTopic: getEnv("KAFKA_PAYMENTS_TOPIC", "payments.events.v1"),
		KafkaGroupID:       getEnv("KAFKA_GROUP_ID", "stayengine-payments"),
		RabbitMQURL:        os.Getenv("RABBITMQ_URL"),
		RabbitMQExchange:   getEnv("RABBITMQ_EXCHANGE", "stayengine.events"),
		PricingURL:         os.Getenv("PRICING_URL"),
		ListingsFixtures:   os.Getenv("LISTINGS_FIXTURES"),
	}

	var err error
	if cfg.IdempotencyTTL, err = parseDurationEnv("IDEMP_TTL", 168*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.ScheduleInterval, err = parseDurationEnv("SCHEDULE_INTERVAL", time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.SchedulerEnabled, err = parseBoolEnv("SCHEDULER_ENABLED", true); err != nil {
		return Config{}, err
	}
	if cfg.PricingTimeout, err = parseDurationEnv("PRICING_TIMEOUT", 2*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ServiceFeeRate, err = parseFloatEnv("SERVICE_FEE_RATE", 0.14); err != nil {
		return Config{}, err
	}
	if cfg.TaxRate, err = parseFloatEnv("TAX_RATE", 0.18); err != nil {
		return Config{}, err
	}
	if cfg.DefaultPageSize, err = parseIntEnv("DEFAULT_PAGE_SIZE", 10); err != nil {
		return Config{}, err
	}

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (c Config) Validate() error {
	var errs []error
	switch c.StoreBackend {
	case StoreMemory:
	case StoreMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for STORE_BACKEND=mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	switch c.Broker {
	case BrokerNone:
	case BrokerKafka:
		if len(c.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required for BROKER=kafka"))
		}
	case BrokerRabbitMQ:
		if c.RabbitMQURL == "" {
			errs = append(errs, errors.New("RABBITMQ_URL is required for BROKER=rabbitmq"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown BROKER %q", c.Broker))
	}
	if c.ServiceFeeRate < 0 || c.ServiceFeeRate > 1 {
		errs = append(errs, fmt.Errorf("SERVICE_FEE_RATE must be within [0,1], got %v", c.ServiceFeeRate))
	}
	if c.TaxRate < 0 || c.TaxRate > 1 {
		errs = append(errs, fmt.Errorf("TAX_RATE must be within [0,1], got %v", c.TaxRate))
	}
	if c.DefaultPageSize < 1 {
		errs = append(errs, fmt.Errorf("DEFAULT_PAGE_SIZE must be positive, got %d", c.DefaultPageSize))
	}
	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}

func parseFloatEnv(key string, def float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s number: %w", key, err)
	}
	return v, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return v, nil
}
