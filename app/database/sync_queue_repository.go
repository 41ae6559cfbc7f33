package database

import (
	"database/sql"
	"fmt"
	"time"
)

// SyncQueueRepository handles the durable outbound mutation queue
type SyncQueueRepository struct {
	db *DB
}

// NewSyncQueueRepository creates a new sync queue repository
func NewSyncQueueRepository(db *DB) *SyncQueueRepository {
	return &SyncQueueRepository{db: db}
}

// Enqueue records a pending mutation, coalescing with items already queued
// for the same (entity type, entity id) lane:
//
//	update after update  -> latest payload only
//	update after create  -> create with the latest payload
//	delete after create  -> both removed, net no-op
//	delete after update  -> single delete
func (r *SyncQueueRepository) Enqueue(entityType, entityID, operation string, payload []byte, now time.Time) error {
	return r.db.withTx(func(tx *sql.Tx) error {
		var hadCreate bool
		err := tx.QueryRow(`
			SELECT EXISTS (
				SELECT 1 FROM sync_queue
				WHERE entity_type = ? AND entity_id = ? AND operation = ?
			)
		`, entityType, entityID, OpCreate).Scan(&hadCreate)
		if err != nil {
			return fmt.Errorf("failed to inspect sync queue lane: %w", err)
		}

		if _, err := tx.Exec(`DELETE FROM sync_queue WHERE entity_type = ? AND entity_id = ?`, entityType, entityID); err != nil {
			return fmt.Errorf("failed to coalesce sync queue lane: %w", err)
		}

		effective := operation
		switch operation {
		case OpUpdate:
			if hadCreate {
				effective = OpCreate
			}
		case OpDelete:
			if hadCreate {
				// The remote never saw this entity; deleting the queued
				// create is the whole mutation.
				return nil
			}
		}

		_, err = tx.Exec(`
			INSERT INTO sync_queue (entity_type, entity_id, operation, payload, enqueued_at)
			VALUES (?, ?, ?, ?, ?)
		`, entityType, entityID, effective, string(payload), encodeTime(now))
		if err != nil {
			return fmt.Errorf("failed to enqueue sync item: %w", err)
		}

		return nil
	})
}

// Pending returns queued items in FIFO order, up to limit.
func (r *SyncQueueRepository) Pending(limit int) ([]SyncQueueItem, error) {
	rows, err := r.db.Query(`
		SELECT id, entity_type, entity_id, operation, payload, enqueued_at, retry_count, last_error
		FROM sync_queue
		ORDER BY id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending sync items: %w", err)
	}
	defer rows.Close()

	var items []SyncQueueItem
	for rows.Next() {
		var item SyncQueueItem
		var payload, enqueuedAt string
		err := rows.Scan(&item.ID, &item.EntityType, &item.EntityID, &item.Operation,
			&payload, &enqueuedAt, &item.RetryCount, &item.LastError)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync queue row: %w", err)
		}
		item.Payload = []byte(payload)
		if item.EnqueuedAt, err = decodeTime(enqueuedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync queue rows: %w", err)
	}

	return items, nil
}

// HasPendingDelete reports whether a delete is queued for the given entity.
func (r *SyncQueueRepository) HasPendingDelete(entityType, entityID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM sync_queue
			WHERE entity_type = ? AND entity_id = ? AND operation = ?
		)
	`, entityType, entityID, OpDelete).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending delete: %w", err)
	}
	return exists, nil
}

// Delete removes a queue item after its confirmed remote application (or
// after it lost a conflict, or proved permanently unappliable).
func (r *SyncQueueRepository) Delete(id int64) error {
	_, err := r.db.Exec(`DELETE FROM sync_queue WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sync queue item: %w", err)
	}
	return nil
}

// BumpRetry increments an item's retry counter and records the failure.
// The item stays queued; it is never silently dropped.
func (r *SyncQueueRepository) BumpRetry(id int64, lastError string) error {
	_, err := r.db.Exec(`
		UPDATE sync_queue
		SET retry_count = retry_count + 1, last_error = ?
		WHERE id = ?
	`, lastError, id)
	if err != nil {
		return fmt.Errorf("failed to bump sync retry count: %w", err)
	}
	return nil
}

// ResetRetries zeroes every retry counter. Used by force-sync.
func (r *SyncQueueRepository) ResetRetries() error {
	_, err := r.db.Exec(`UPDATE sync_queue SET retry_count = 0, last_error = ''`)
	if err != nil {
		return fmt.Errorf("failed to reset sync retries: %w", err)
	}
	return nil
}

// Count returns the number of queued items.
func (r *SyncQueueRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM sync_queue`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get sync queue count: %w", err)
	}
	return count, nil
}
