package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const profileFileName = "profile.yaml"

// ProfilePath returns the location of the sync profile inside the data directory.
func ProfilePath(dataDir string) string {
	return filepath.Join(dataDir, profileFileName)
}

// LoadProfile reads the sync profile. A missing file is not an error: it
// returns (nil, nil) and the application runs in local-only mode.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sync profile: %w", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse sync profile %s: %w", path, err)
	}

	if profile.RemoteURL == "" || profile.HouseholdID == "" {
		return nil, fmt.Errorf("sync profile %s is missing remote_url or household_id", path)
	}

	if profile.DeviceID == "" {
		profile.DeviceID = uuid.NewString()
		if err := SaveProfile(path, &profile); err != nil {
			return nil, err
		}
	}

	return &profile, nil
}

// SaveProfile writes the sync profile atomically, assigning a device id on
// first save.
func SaveProfile(path string, profile *Profile) error {
	if profile.DeviceID == "" {
		profile.DeviceID = uuid.NewString()
	}

	data, err := yaml.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal sync profile: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write sync profile: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace sync profile: %w", err)
	}

	return nil
}

// RemoveProfile deletes the sync profile, returning the device to local-only
// mode. Removing an absent profile is a no-op.
func RemoveProfile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove sync profile: %w", err)
	}
	return nil
}
