package sync

import "time"

// State is the engine's connectivity and progress indicator.
type State string

const (
	// StateSynced means the queue is drained and the last cycle succeeded.
	StateSynced State = "synced"
	// StateSyncing means a cycle is in flight or retries are pending.
	StateSyncing State = "syncing"
	// StateOffline means the remote store is unreachable. Mutations keep
	// queueing; nothing is lost.
	StateOffline State = "offline"
	// StateError means a mutation exhausted its retry budget or was
	// rejected outright.
	StateError State = "error"
)

// Status is a point-in-time snapshot of the engine.
type Status struct {
	State       State      `json:"state"`
	LocalOnly   bool       `json:"localOnly"`
	QueueLength int        `json:"queueLength"`
	LastError   string     `json:"lastError,omitempty"`
	LastSyncAt  *time.Time `json:"lastSyncAt,omitempty"`
}
