// Package config loads runtime settings from the environment (optionally
// seeded from a .env file) and builds the database and logger from them.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "food_delivery_super_secret_2024"

type Config struct {
	Port    string
	GinMode string

	DBDriver    string
	DBPath      string
	DatabaseURL string

	JWTSecret []byte
	TokenTTL  time.Duration

	LogLevel  string
	LogFormat string

	NearbyRadiusKm   float64
	SubscriberBuffer int

	EventSink    string
	KafkaBrokers []string
	KafkaTopic   string
	AMQPURL      string
	AMQPExchange string

	// EnvFile is the .env file that was loaded, empty if none was found.
	EnvFile string
}

// Load reads the configuration. Values from files (default ".env") never
// override variables already set in the environment.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var loaded string
	if err := godotenv.Load(files...); err == nil {
		loaded = strings.Join(files, ",")
	}

	cfg := Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBPath:      getEnv("DB_PATH", "food_delivery.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret: []byte(getEnv("JWT_SECRET", devJWTSecret)),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		EventSink:    strings.ToLower(getEnv("EVENT_SINK", "none")),
		KafkaBrokers: csv(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "order-events"),
		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "order_events"),

		EnvFile: loaded,
	}

	var err error
	if cfg.TokenTTL, err = getEnvDuration("TOKEN_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.NearbyRadiusKm, err = getEnvFloat("NEARBY_RADIUS_KM", 10); err != nil {
		return Config{}, err
	}
	if cfg.SubscriberBuffer, err = getEnvInt("SUBSCRIBER_BUFFER", 32); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case "sqlite":
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for the sqlite driver"))
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q (sqlite or postgres)", c.DBDriver))
	}

	switch c.EventSink {
	case "none", "":
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required when EVENT_SINK=kafka"))
		}
	case "amqp":
		if c.AMQPURL == "" {
			errs = append(errs, errors.New("AMQP_URL is required when EVENT_SINK=amqp"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown EVENT_SINK %q (none, kafka or amqp)", c.EventSink))
	}

	if len(c.JWTSecret) == 0 {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.NearbyRadiusKm <= 0 {
		errs = append(errs, errors.New("NEARBY_RADIUS_KM must be positive"))
	}
	if c.SubscriberBuffer <= 0 {
		errs = append(errs, errors.New("SUBSCRIBER_BUFFER must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// UsingDevSecret reports whether tokens are signed with the built-in secret.
func (c Config) UsingDevSecret() bool {
	return string(c.JWTSecret) == devJWTSecret
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func csv(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
