package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadProfile_MissingFileIsLocalOnly(t *testing.T) {
	path := ProfilePath(t.TempDir())

	profile, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("Failed to load missing profile: %v", err)
	}
	if profile != nil {
		t.Errorf("Expected nil profile for missing file, got %+v", profile)
	}
}

func TestSaveProfile_RoundTrip(t *testing.T) {
	path := ProfilePath(t.TempDir())

	saved := &Profile{
		RemoteURL:     "https://sync.example.com",
		HouseholdID:   "hh-1",
		HouseholdName: "Test Kitchen",
		InviteCode:    "ABC123",
		AccessToken:   "secret",
	}
	if err := SaveProfile(path, saved); err != nil {
		t.Fatalf("Failed to save profile: %v", err)
	}
	if saved.DeviceID == "" {
		t.Error("Expected device id assigned on first save")
	}

	loaded, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("Failed to load profile: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected profile, got nil")
	}
	if *loaded != *saved {
		t.Errorf("Expected %+v, got %+v", saved, loaded)
	}
}

func TestSaveProfile_CreatesDataDirectory(t *testing.T) {
	path := ProfilePath(filepath.Join(t.TempDir(), "nested", "data"))

	profile := &Profile{RemoteURL: "https://sync.example.com", HouseholdID: "hh-1"}
	if err := SaveProfile(path, profile); err != nil {
		t.Fatalf("Failed to save profile into missing directory: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected profile file created, got %v", err)
	}
}

func TestLoadProfile_AssignsDeviceID(t *testing.T) {
	path := ProfilePath(t.TempDir())

	// Profile written by an older build without a device id.
	data := []byte("remote_url: https://sync.example.com\nhousehold_id: hh-1\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("Failed to write profile: %v", err)
	}

	loaded, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("Failed to load profile: %v", err)
	}
	if loaded.DeviceID == "" {
		t.Error("Expected device id assigned on load")
	}

	again, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("Failed to reload profile: %v", err)
	}
	if again.DeviceID != loaded.DeviceID {
		t.Errorf("Expected device id persisted, got %q then %q", loaded.DeviceID, again.DeviceID)
	}
}

func TestLoadProfile_RejectsIncompleteProfile(t *testing.T) {
	path := ProfilePath(t.TempDir())

	data := []byte("remote_url: https://sync.example.com\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("Failed to write profile: %v", err)
	}

	if _, err := LoadProfile(path); err == nil {
		t.Error("Expected error for profile without household id")
	}
}

func TestRemoveProfile_Idempotent(t *testing.T) {
	path := ProfilePath(t.TempDir())

	profile := &Profile{RemoteURL: "https://sync.example.com", HouseholdID: "hh-1"}
	if err := SaveProfile(path, profile); err != nil {
		t.Fatalf("Failed to save profile: %v", err)
	}

	if err := RemoveProfile(path); err != nil {
		t.Fatalf("Failed to remove profile: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected profile file removed")
	}

	if err := RemoveProfile(path); err != nil {
		t.Errorf("Expected removing absent profile to succeed, got %v", err)
	}
}
