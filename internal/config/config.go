package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/estensen/chain-dashboard/internal/parser"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all configuration for the dashboard.
type Config struct {
	LogLevel    string
	LogEncoding string
	HTTP        HTTPConfig
	API         APIConfig
	Warehouse   WarehouseConfig
	Secrets     SecretsConfig
	DisplayFile string
}

// HTTPConfig holds the web UI listener configuration.
type HTTPConfig struct {
	Addr         string
	WriteTimeout time.Duration
}

// APIConfig holds the query results API configuration.
type APIConfig struct {
	BaseURL string
	QueryID int
	Timeout time.Duration
	Fields  parser.Fields
}

// WarehouseConfig holds the warehouse query configuration.
type WarehouseConfig struct {
	Driver       string
	Chain        string
	Table        string
	LookbackDays int
	QueryTimeout time.Duration
	DialTimeout  time.Duration
}

// SecretsConfig selects where secrets are read from: a local file, or an
// object in a bucket when Bucket is set.
type SecretsConfig struct {
	File      string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Object    string
	UseSSL    bool
}

// Warehouse drivers.
const (
	DriverSnowflake  = "snowflake"
	DriverClickHouse = "clickhouse"
)

// Load loads configuration from environment variables, reading a .env file first if present.
func Load() (*Config, error) {
	// A missing .env is fine, the variables may be set externally.
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogEncoding: getEnv("LOG_ENCODING", "console"),
		HTTP: HTTPConfig{
			Addr:         getEnv("HTTP_ADDR", ":8080"),
			WriteTimeout: time.Duration(getEnvAsInt("HTTP_WRITE_TIMEOUT", 120)) * time.Second,
		},
		API: APIConfig{
			BaseURL: getEnv("DUNE_BASE_URL", "https://api.dune.com"),
			QueryID: getEnvAsInt("DUNE_QUERY_ID", 5804139),
			Timeout: time.Duration(getEnvAsInt("DUNE_TIMEOUT", 30)) * time.Second,
			Fields: parser.Fields{
				Date:  getEnv("DUNE_DATE_FIELD", "Date"),
				Count: getEnv("DUNE_COUNT_FIELD", "Txns Count"),
				Chain: getEnv("DUNE_CHAIN_FIELD", "Chain"),
			},
		},
		Warehouse: WarehouseConfig{
			Driver:       strings.ToLower(getEnv("WAREHOUSE_DRIVER", DriverSnowflake)),
			Chain:        getEnv("WAREHOUSE_CHAIN", "Axelar"),
			Table:        getEnv("WAREHOUSE_TABLE", "AXELAR.CORE.FACT_TRANSACTIONS"),
			LookbackDays: getEnvAsInt("WAREHOUSE_LOOKBACK_DAYS", 30),
			QueryTimeout: time.Duration(getEnvAsInt("WAREHOUSE_QUERY_TIMEOUT", 60)) * time.Second,
			DialTimeout:  time.Duration(getEnvAsInt("WAREHOUSE_DIAL_TIMEOUT", 10)) * time.Second,
		},
		Secrets: SecretsConfig{
			File:      getEnv("SECRETS_FILE", ".secrets/secrets.toml"),
			Endpoint:  getEnv("SECRETS_S3_ENDPOINT", "localhost:9000"),
			AccessKey: os.Getenv("SECRETS_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("SECRETS_S3_SECRET_KEY"),
			Bucket:    os.Getenv("SECRETS_S3_BUCKET"),
			Object:    getEnv("SECRETS_S3_OBJECT", "secrets.toml"),
			UseSSL:    getEnvAsBool("SECRETS_S3_SSL", false),
		},
		DisplayFile: os.Getenv("DISPLAY_FILE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have no safe default.
func (c *Config) Validate() error {
	switch c.Warehouse.Driver {
	case DriverSnowflake, DriverClickHouse:
	default:
		return fmt.Errorf("%w: unknown warehouse driver %q", ErrInvalidConfig, c.Warehouse.Driver)
	}
	if c.Warehouse.LookbackDays <= 0 {
		return fmt.Errorf("%w: lookback must be positive", ErrInvalidConfig)
	}
	if c.API.QueryID <= 0 {
		return fmt.Errorf("%w: query id must be positive", ErrInvalidConfig)
	}
	if c.API.Fields.Date == "" || c.API.Fields.Count == "" || c.API.Fields.Chain == "" {
		return fmt.Errorf("%w: API field names must not be empty", ErrInvalidConfig)
	}
	if !validIdentifier(c.Warehouse.Table) {
		return fmt.Errorf("%w: warehouse table %q", ErrInvalidConfig, c.Warehouse.Table)
	}
	if c.Warehouse.Chain == "" || strings.ContainsAny(c.Warehouse.Chain, `'\`) {
		return fmt.Errorf("%w: warehouse chain label %q", ErrInvalidConfig, c.Warehouse.Chain)
	}
	return nil
}

// validIdentifier accepts dotted table names made of letters, digits and underscores.
func validIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return false
		}
		for _, r := range part {
			if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
				return false
			}
		}
	}
	return true
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
