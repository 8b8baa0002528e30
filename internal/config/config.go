package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultSeedURL is the product transaction feed the dashboard was built around.
const DefaultSeedURL = "https://s3.amazonaws.com/roxiler.com/product_transaction.json"

const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

type Config struct {
	// HTTP server
	Port        string
	CORSOrigins []string

	// Record store
	StorageBackend    string
	MongoURI          string
	MongoDatabase     string
	MongoCollection   string
	MongoConnectLimit time.Duration

	// Seed feed
	SeedURL      string
	FetchTimeout time.Duration

	LogLevel string
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "5000"),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"*"}),

		StorageBackend:    strings.ToLower(getEnv("STORAGE_BACKEND", BackendMongo)),
		MongoURI:          getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:     getEnv("MONGODB_DATABASE", "roxiler"),
		MongoCollection:   getEnv("MONGODB_COLLECTION", "products"),
		MongoConnectLimit: getEnvDuration("MONGODB_CONNECT_TIMEOUT", 10*time.Second),

		SeedURL:      getEnv("SEED_URL", DefaultSeedURL),
		FetchTimeout: getEnvDuration("FETCH_TIMEOUT", 30*time.Second),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}
}

// Validate validates the configuration and returns an error listing every problem found
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.StorageBackend {
	case BackendMemory:
	case BackendMongo:
		if c.MongoURI == "" {
			errors = append(errors, "MongoDB URI cannot be empty when using mongo backend")
		} else if u, err := url.Parse(c.MongoURI); err != nil {
			errors = append(errors, fmt.Sprintf("invalid MongoDB URI: %v", err))
		} else if u.Scheme != "mongodb" && u.Scheme != "mongodb+srv" {
			errors = append(errors, fmt.Sprintf("invalid MongoDB URI scheme '%s': must be 'mongodb' or 'mongodb+srv'", u.Scheme))
		}
		if c.MongoDatabase == "" {
			errors = append(errors, "MongoDB database name cannot be empty")
		}
		if c.MongoCollection == "" {
			errors = append(errors, "MongoDB collection name cannot be empty")
		}
		if c.MongoConnectLimit <= 0 {
			errors = append(errors, "MongoDB connect timeout must be positive")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid storage backend '%s': must be one of [%s %s]", c.StorageBackend, BackendMongo, BackendMemory))
	}

	if u, err := url.Parse(c.SeedURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		errors = append(errors, fmt.Sprintf("invalid seed URL '%s': must be an http or https URL", c.SeedURL))
	}

	if c.FetchTimeout <= 0 {
		errors = append(errors, "fetch timeout must be positive")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
