package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("PORT")
	os.Unsetenv("ENV")
	os.Unsetenv("DATA_DIR")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("Expected Port to be 8000, got %s", cfg.Port)
	}

	if cfg.Env != "development" {
		t.Errorf("Expected Env to be development, got %s", cfg.Env)
	}

	if cfg.Data.Dir != "data" {
		t.Errorf("Expected Data.Dir to be data, got %s", cfg.Data.Dir)
	}

	if cfg.Quotes.RateLimit != 10 {
		t.Errorf("Expected Quotes.RateLimit to be 10, got %f", cfg.Quotes.RateLimit)
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	os.Setenv("PORT", "9000")
	os.Setenv("ENV", "production")
	os.Setenv("QUOTES_BASE_URL", "http://gateway:9999")
	os.Setenv("QUOTES_RATE_LIMIT", "2.5")
	os.Setenv("LOG_LEVEL", "warn")

	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("ENV")
		os.Unsetenv("QUOTES_BASE_URL")
		os.Unsetenv("QUOTES_RATE_LIMIT")
		os.Unsetenv("LOG_LEVEL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Expected Port to be 9000, got %s", cfg.Port)
	}

	if cfg.Quotes.BaseURL != "http://gateway:9999" {
		t.Errorf("Expected Quotes.BaseURL override, got %s", cfg.Quotes.BaseURL)
	}

	if cfg.Quotes.RateLimit != 2.5 {
		t.Errorf("Expected Quotes.RateLimit to be 2.5, got %f", cfg.Quotes.RateLimit)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("Expected LogLevel to be warn, got %s", cfg.LogLevel)
	}
}

func TestValidateInvalidEnv(t *testing.T) {
	os.Setenv("ENV", "sandbox")
	defer os.Unsetenv("ENV")

	_, err := Load()
	if err == nil {
		t.Error("Expected error for invalid ENV, got nil")
	}
}

func TestValidateDatabaseEnabledWithoutURL(t *testing.T) {
	os.Setenv("DATABASE_ENABLED", "true")
	os.Unsetenv("DATABASE_URL")
	defer os.Unsetenv("DATABASE_ENABLED")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when DATABASE_ENABLED without DATABASE_URL, got nil")
	}
}
