package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	// Test default version
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}

	// Test that version is at least "dev" or "unknown"
	version := GetVersion()
	if version != "dev" && version != "unknown" {
		// This is fine, version could be set at build time
		t.Logf("Version: %s", version)
	}
}

func TestConfigFields(t *testing.T) {
	// Create a config instance to test field access
	cfg := &Cfg{
		DataDir:        "./data",
		Port:           "8080",
		APIAccessKey:   "test-key",
		RemoteURL:      "https://sync.example.com",
		SyncInterval:   60,
		SyncMaxRetries: 5,
		UserAgent:      "Test Agent",
		Timezone:       "UTC",
		Debug:          true,
		Version:        "test-version",
	}

	// Test direct field access
	if cfg.DataDir != "./data" {
		t.Errorf("Expected data dir './data', got '%s'", cfg.DataDir)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.APIAccessKey != "test-key" {
		t.Errorf("Expected API key 'test-key', got '%s'", cfg.APIAccessKey)
	}
	if cfg.RemoteURL != "https://sync.example.com" {
		t.Errorf("Expected remote URL 'https://sync.example.com', got '%s'", cfg.RemoteURL)
	}
	if cfg.SyncInterval != 60 {
		t.Errorf("Expected sync interval 60, got %d", cfg.SyncInterval)
	}
	if cfg.SyncMaxRetries != 5 {
		t.Errorf("Expected sync max retries 5, got %d", cfg.SyncMaxRetries)
	}
	if cfg.UserAgent != "Test Agent" {
		t.Errorf("Expected user agent 'Test Agent', got '%s'", cfg.UserAgent)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Expected timezone 'UTC', got '%s'", cfg.Timezone)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
	if cfg.Version != "test-version" {
		t.Errorf("Expected version 'test-version', got '%s'", cfg.Version)
	}
}

func TestApplyTimezone(t *testing.T) {
	if err := applyTimezone("UTC"); err != nil {
		t.Errorf("Expected UTC to be a valid timezone, got %v", err)
	}
	if err := applyTimezone(""); err != nil {
		t.Errorf("Expected empty timezone to be a no-op, got %v", err)
	}
	if err := applyTimezone("Not/AZone"); err == nil {
		t.Error("Expected error for invalid timezone")
	}
}
