package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DataDir string `long:"data-dir" env:"DATA_DIR" default:"./data" description:"Directory for the local database and sync profile"`

	// Application configuration
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Sync configuration
	RemoteURL      string `long:"remote-url" env:"REMOTE_URL" description:"Default remote store URL used when creating or joining a household"`
	SyncInterval   int    `long:"sync-interval" env:"SYNC_INTERVAL" default:"60" description:"Background sync interval in seconds"`
	SyncMaxRetries int    `long:"sync-max-retries" env:"SYNC_MAX_RETRIES" default:"5" description:"Retry budget per queued mutation before the engine reports an error"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Ladle/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DataDir:        raw.DataDir,
		Port:           raw.Port,
		APIAccessKey:   raw.APIAccessKey,
		RemoteURL:      raw.RemoteURL,
		SyncInterval:   raw.SyncInterval,
		SyncMaxRetries: raw.SyncMaxRetries,
		UserAgent:      raw.UserAgent,
		Timezone:       raw.Timezone,
		Debug:          raw.Debug,
		Version:        GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
