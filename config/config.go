package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Diagram store backends selectable through DIAGRAM_STORE.
const (
	StoreMemory   = "memory"
	StoreDynamoDB = "dynamodb"
)

type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Catalog CatalogConfig
}

type ServerConfig struct {
	Port string
}

type StoreConfig struct {
	Backend  string
	Region   string
	Table    string
	Endpoint string // optional local DynamoDB override
}

type CatalogConfig struct {
	Dirs []string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Store: StoreConfig{
			Backend:  getEnv("DIAGRAM_STORE", StoreMemory),
			Region:   getEnv("AWS_REGION", "us-east-1"),
			Table:    getEnv("DYNAMODB_TABLE", "archviz-diagrams"),
			Endpoint: getEnv("DYNAMODB_ENDPOINT", ""),
		},
		Catalog: CatalogConfig{
			Dirs: splitList(getEnv("CATALOG_DIRS", "static/json")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Store.Backend {
	case StoreMemory, StoreDynamoDB:
	default:
		return fmt.Errorf("DIAGRAM_STORE must be %q or %q, got %q", StoreMemory, StoreDynamoDB, c.Store.Backend)
	}

	if c.Store.Backend == StoreDynamoDB && c.Store.Table == "" {
		return fmt.Errorf("DYNAMODB_TABLE is required")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
