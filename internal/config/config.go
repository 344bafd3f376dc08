// Package config handles loading and validation of gateway configuration.
// Supports both development (env vars) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// Config holds all gateway configuration.
// Environment determines whether store secrets load from env vars
// (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string
	StoreID    string // secret name holding the store config

	// Local persistence directory for session records
	DataDir string

	// Client gating: minimum DeliWer-Client version, empty disables
	MinClientVersion string

	// SyncDebounce coalesces cart mutations before a push
	SyncDebounce time.Duration

	// Store-specific configuration (loaded from secrets in production)
	Store StoreConfig
}

// StoreConfig contains store-specific settings.
// In production, this is loaded from Secret Manager as JSON.
// In development, loaded from individual env vars or CONFIG_FILE.
type StoreConfig struct {
	StoreURL        string `json:"store_url"`
	StorefrontToken string `json:"storefront_token"`

	// FallbackProductURL is the always-available destination used when
	// checkout-session creation fails. Required: checkout must never
	// strand the shopper.
	FallbackProductURL string `json:"fallback_product_url"`

	// TradeInSourceTag is attached to every checkout session so orders
	// can be attributed to the trade-in storefront.
	TradeInSourceTag string `json:"trade_in_source_tag,omitempty"`

	// CheckoutAttributes are extra key/values forwarded to checkout
	// creation as-is.
	CheckoutAttributes map[string]string `json:"checkout_attributes,omitempty"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → ENV vars / Secret Manager.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	// If CONFIG_FILE is set, load everything from the JSON file
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{
		Port:             envOrDefault("PORT", "8080"),
		Environment:      envOrDefault("ENVIRONMENT", "development"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		GCPProject:       os.Getenv("GCP_PROJECT"),
		StoreID:          os.Getenv("STORE_ID"),
		DataDir:          envOrDefault("DATA_DIR", "data"),
		MinClientVersion: os.Getenv("MIN_CLIENT_VERSION"),
		SyncDebounce:     debounceFromEnv(),
	}

	// Load store config based on environment
	var err error
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if cfg.StoreID == "" {
			return nil, fmt.Errorf("STORE_ID required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		err = cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading store config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig struct {
		Port             string      `json:"port"`
		Environment      string      `json:"environment"`
		LogLevel         string      `json:"log_level"`
		DataDir          string      `json:"data_dir"`
		MinClientVersion string      `json:"min_client_version"`
		SyncDebounceMS   int         `json:"sync_debounce_ms"`
		Store            StoreConfig `json:"store"`
	}

	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:             withDefault(fileConfig.Port, "8080"),
		Environment:      withDefault(fileConfig.Environment, "development"),
		LogLevel:         withDefault(fileConfig.LogLevel, "info"),
		DataDir:          withDefault(fileConfig.DataDir, "data"),
		MinClientVersion: fileConfig.MinClientVersion,
		SyncDebounce:     time.Duration(fileConfig.SyncDebounceMS) * time.Millisecond,
		Store:            fileConfig.Store,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// loadFromSecretManager fetches store config from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{store_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.StoreID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Store); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}
	return nil
}

// loadFromEnv reads store config from individual environment variables.
// Used in development mode for local testing.
func (c *Config) loadFromEnv() error {
	c.Store = StoreConfig{
		StoreURL:           os.Getenv("STORE_URL"),
		StorefrontToken:    os.Getenv("STOREFRONT_TOKEN"),
		FallbackProductURL: os.Getenv("FALLBACK_PRODUCT_URL"),
		TradeInSourceTag:   envOrDefault("TRADE_IN_SOURCE_TAG", "deliwer-tradein"),
	}

	// Parse checkout attributes JSON if provided
	if attrsJSON := os.Getenv("CHECKOUT_ATTRIBUTES"); attrsJSON != "" {
		if err := json.Unmarshal([]byte(attrsJSON), &c.Store.CheckoutAttributes); err != nil {
			return fmt.Errorf("parsing CHECKOUT_ATTRIBUTES JSON: %w", err)
		}
	}
	return nil
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.Store.StoreURL == "" {
		return fmt.Errorf("store_url is required")
	}
	if c.Store.StorefrontToken == "" {
		return fmt.Errorf("storefront_token is required")
	}
	if c.Store.FallbackProductURL == "" {
		return fmt.Errorf("fallback_product_url is required")
	}

	for name, raw := range map[string]string{
		"store_url":            c.Store.StoreURL,
		"fallback_product_url": c.Store.FallbackProductURL,
	} {
		if _, err := url.Parse(raw); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}

// debounceFromEnv parses SYNC_DEBOUNCE_MS, zero meaning "use default".
func debounceFromEnv() time.Duration {
	raw := os.Getenv("SYNC_DEBOUNCE_MS")
	if raw == "" {
		return 0
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms < 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
