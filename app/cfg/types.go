package cfg

type Cfg struct {
	// Storage configuration
	DataDir string

	// Application configuration
	Port         string
	APIAccessKey string

	// Sync configuration
	RemoteURL      string
	SyncInterval   int
	SyncMaxRetries int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
