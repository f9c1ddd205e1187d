package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	RuleStoreFile     = "file"
	RuleStoreSQLite   = "sqlite"
	RuleStorePostgres = "postgres"

	DefaultContamination = 0.2
)

type Config struct {
	Port string

	// Rule store
	RuleStore    string
	RulesPath    string
	SQLiteDBPath string
	DatabaseURL  string

	// Classifier
	SkipML               bool
	AnomalyContamination float64
	SampleDataPath       string
	PredictionCacheSize  int

	// Events
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Plaid
	PlaidClientID    string
	PlaidSecret      string
	PlaidEnv         string
	PlaidAccessToken string

	// HTTP
	CORSAllowedOrigins []string
	ReadOnly           bool

	// Logging
	LogLevel  string
	LogFormat string

	// Warnings lists settings that were ignored in favour of defaults.
	Warnings []string
}

func Load() Config {
	// Load .env file if present
	_ = godotenv.Load()

	cfg := Config{
		Port: getEnv("PORT", "8080"),

		RuleStore:    strings.ToLower(getEnv("RULE_STORE", RuleStoreFile)),
		RulesPath:    getEnv("RULES_PATH", "rules.json"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/rules.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		SkipML:              getEnvBool("SKIP_ML", false),
		SampleDataPath:      getEnv("SAMPLE_DATA_PATH", ""),
		PredictionCacheSize: getEnvInt("PREDICTION_CACHE_SIZE", 10000),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "categorizer"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "transactions.categorized"),

		PlaidClientID:    getEnv("PLAID_CLIENT_ID", ""),
		PlaidSecret:      getEnv("PLAID_SECRET", ""),
		PlaidEnv:         getEnv("PLAID_ENV", "sandbox"),
		PlaidAccessToken: getEnv("PLAID_ACCESS_TOKEN", ""),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		ReadOnly:           getEnvBool("READ_ONLY", false),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	var warning string
	cfg.AnomalyContamination, warning = parseContamination(os.Getenv("ANOMALY_CONTAMINATION"))
	if warning != "" {
		cfg.Warnings = append(cfg.Warnings, warning)
	}

	return cfg
}

// PlaidEnabled reports whether Plaid credentials are configured.
func (c Config) PlaidEnabled() bool {
	return c.PlaidClientID != "" && c.PlaidSecret != ""
}

// Validate returns every configuration problem in a single error.
func (c Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.RuleStore {
	case RuleStoreFile:
		if c.RulesPath == "" {
			errors = append(errors, "RULES_PATH cannot be empty when using the file rule store")
		}
	case RuleStoreSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLITE_DB_PATH cannot be empty when using the sqlite rule store")
		}
	case RuleStorePostgres:
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using the postgres rule store")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid rule store '%s': must be one of %v",
			c.RuleStore, []string{RuleStoreFile, RuleStoreSQLite, RuleStorePostgres}))
	}

	if c.PredictionCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid prediction cache size %d: must be at least 1", c.PredictionCacheSize))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if c.PlaidEnabled() && c.PlaidEnv != "sandbox" && c.PlaidEnv != "production" {
		errors = append(errors, fmt.Sprintf("invalid Plaid environment '%s': must be 'sandbox' or 'production'", c.PlaidEnv))
	}

	if format := strings.ToLower(c.LogFormat); format != "text" && format != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// parseContamination accepts values in the open interval (0, 0.5). Anything
// else yields the default and a warning.
func parseContamination(raw string) (float64, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultContamination, ""
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return DefaultContamination, fmt.Sprintf("ANOMALY_CONTAMINATION %q is not a number, using %v", raw, DefaultContamination)
	}
	if v <= 0 || v >= 0.5 {
		return DefaultContamination, fmt.Sprintf("ANOMALY_CONTAMINATION %v is outside (0, 0.5), using %v", v, DefaultContamination)
	}
	return v, ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
