package config

// Profile holds the cloud sync settings for this device. It is written when
// a household is created or joined and absent in local-only mode.
type Profile struct {
	RemoteURL     string `yaml:"remote_url"`
	HouseholdID   string `yaml:"household_id"`
	HouseholdName string `yaml:"household_name"`
	InviteCode    string `yaml:"invite_code"`
	AccessToken   string `yaml:"access_token"`
	DeviceID      string `yaml:"device_id"`
}
