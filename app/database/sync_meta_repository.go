package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Keys stored in sync_meta.
const metaWatermarkKey = "last_synced_at"

// SyncMetaRepository persists sync engine bookkeeping, currently the
// inbound pull watermark.
type SyncMetaRepository struct {
	db *DB
}

// NewSyncMetaRepository creates a new sync meta repository
func NewSyncMetaRepository(db *DB) *SyncMetaRepository {
	return &SyncMetaRepository{db: db}
}

// GetWatermark returns the timestamp of the last successful inbound pull,
// or (nil, nil) before the first sync.
func (r *SyncMetaRepository) GetWatermark() (*time.Time, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM sync_meta WHERE key = ?`, metaWatermarkKey).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync watermark: %w", err)
	}

	t, err := decodeTime(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SetWatermark stores the inbound pull watermark.
func (r *SyncMetaRepository) SetWatermark(t time.Time) error {
	_, err := r.db.Exec(`
		INSERT INTO sync_meta (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, metaWatermarkKey, encodeTime(t))
	if err != nil {
		return fmt.Errorf("failed to set sync watermark: %w", err)
	}
	return nil
}
