package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv unsets every variable Load reads, restoring them on cleanup.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "PORT", "ENVIRONMENT", "LOG_LEVEL", "GCP_PROJECT",
		"STORE_ID", "DATA_DIR", "MIN_CLIENT_VERSION", "SYNC_DEBOUNCE_MS",
		"STORE_URL", "STOREFRONT_TOKEN", "FALLBACK_PRODUCT_URL",
		"TRADE_IN_SOURCE_TAG", "CHECKOUT_ATTRIBUTES",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_URL", "https://shop.example")
	t.Setenv("STOREFRONT_TOKEN", "sf-token")
	t.Setenv("FALLBACK_PRODUCT_URL", "https://shop.example/products/trade-in")
	t.Setenv("SYNC_DEBOUNCE_MS", "250")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want default 8080", cfg.Port)
	}
	if cfg.Environment != "development" {
		t.Errorf("Environment = %q, want development", cfg.Environment)
	}
	if cfg.Store.StoreURL != "https://shop.example" {
		t.Errorf("StoreURL = %q", cfg.Store.StoreURL)
	}
	if cfg.Store.TradeInSourceTag != "deliwer-tradein" {
		t.Errorf("TradeInSourceTag = %q, want default deliwer-tradein", cfg.Store.TradeInSourceTag)
	}
	if cfg.SyncDebounce != 250*time.Millisecond {
		t.Errorf("SyncDebounce = %v, want 250ms", cfg.SyncDebounce)
	}
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"no store url", map[string]string{
			"STOREFRONT_TOKEN":     "t",
			"FALLBACK_PRODUCT_URL": "https://x",
		}},
		{"no token", map[string]string{
			"STORE_URL":            "https://x",
			"FALLBACK_PRODUCT_URL": "https://x",
		}},
		{"no fallback url", map[string]string{
			"STORE_URL":        "https://x",
			"STOREFRONT_TOKEN": "t",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(context.Background()); err == nil {
				t.Error("Load() error = nil, want error")
			}
		})
	}
}

func TestLoad_ProductionRequiresGCP(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")

	if _, err := Load(context.Background()); err == nil {
		t.Error("Load() error = nil in production without GCP_PROJECT, want error")
	}
}

func TestLoad_FromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"port": "9999",
		"min_client_version": "1.4.0",
		"sync_debounce_ms": 500,
		"store": {
			"store_url": "https://shop.example",
			"storefront_token": "sf-token",
			"fallback_product_url": "https://shop.example/products/trade-in",
			"trade_in_source_tag": "deliwer-tradein",
			"checkout_attributes": {"campaign": "summer"}
		}
	}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "9999" {
		t.Errorf("Port = %q, want 9999", cfg.Port)
	}
	if cfg.MinClientVersion != "1.4.0" {
		t.Errorf("MinClientVersion = %q, want 1.4.0", cfg.MinClientVersion)
	}
	if cfg.SyncDebounce != 500*time.Millisecond {
		t.Errorf("SyncDebounce = %v, want 500ms", cfg.SyncDebounce)
	}
	if cfg.Store.CheckoutAttributes["campaign"] != "summer" {
		t.Errorf("CheckoutAttributes = %v, want campaign=summer", cfg.Store.CheckoutAttributes)
	}
}

func TestLoad_FileMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.json"))

	if _, err := Load(context.Background()); err == nil {
		t.Error("Load() error = nil for missing config file, want error")
	}
}

func TestDebounceFromEnv_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_URL", "https://shop.example")
	t.Setenv("STOREFRONT_TOKEN", "t")
	t.Setenv("FALLBACK_PRODUCT_URL", "https://shop.example/p")
	t.Setenv("SYNC_DEBOUNCE_MS", "not-a-number")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SyncDebounce != 0 {
		t.Errorf("SyncDebounce = %v for invalid input, want 0 (use default)", cfg.SyncDebounce)
	}
}
