package database

import (
	"database/sql"
	"fmt"
)

// ScheduleRepository handles database operations for schedule entries
type ScheduleRepository struct {
	db *DB
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db *DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleColumns = `id, date, meal_type, recipe_id, created_at, updated_at`

func scanScheduleEntry(scan func(dest ...any) error) (*ScheduleEntry, error) {
	var entry ScheduleEntry
	var createdAt, updatedAt string

	if err := scan(&entry.ID, &entry.Date, &entry.MealType, &entry.RecipeID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if entry.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if entry.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, err
	}

	return &entry, nil
}

// GetEntry retrieves a schedule entry by id, returning (nil, nil) when absent.
func (r *ScheduleRepository) GetEntry(id string) (*ScheduleEntry, error) {
	row := r.db.QueryRow(`SELECT `+scheduleColumns+` FROM schedule_entries WHERE id = ?`, id)

	entry, err := scanScheduleEntry(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule entry: %w", err)
	}

	return entry, nil
}

// GetSlot retrieves the entry occupying a (date, meal type) slot, if any.
func (r *ScheduleRepository) GetSlot(date, mealType string) (*ScheduleEntry, error) {
	row := r.db.QueryRow(`SELECT `+scheduleColumns+` FROM schedule_entries WHERE date = ? AND meal_type = ?`, date, mealType)

	entry, err := scanScheduleEntry(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule slot: %w", err)
	}

	return entry, nil
}

// UpsertSlot assigns a recipe to a slot, replacing any previous occupant.
// At most one entry exists per (date, meal type).
func (r *ScheduleRepository) UpsertSlot(entry ScheduleEntry) (*ScheduleEntry, error) {
	replaced, err := r.GetSlot(entry.Date, entry.MealType)
	if err != nil {
		return nil, err
	}

	err = r.db.withTx(func(tx *sql.Tx) error {
		if replaced != nil {
			if _, err := tx.Exec(`DELETE FROM schedule_entries WHERE id = ?`, replaced.ID); err != nil {
				return fmt.Errorf("failed to clear occupied slot: %w", err)
			}
		}

		_, err := tx.Exec(`
			INSERT INTO schedule_entries (id, date, meal_type, recipe_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, entry.ID, entry.Date, entry.MealType, entry.RecipeID,
			encodeTime(entry.CreatedAt), encodeTime(entry.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert schedule entry: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return replaced, nil
}

// UpsertEntryIfNewer applies an inbound entry only when newer than the
// stored row. The slot uniqueness constraint is enforced by evicting any
// different entry occupying the same slot first.
func (r *ScheduleRepository) UpsertEntryIfNewer(entry ScheduleEntry) (bool, error) {
	existing, err := r.GetEntry(entry.ID)
	if err != nil {
		return false, err
	}
	if existing != nil && !entry.UpdatedAt.After(existing.UpdatedAt) {
		return false, nil
	}

	err = r.db.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM schedule_entries WHERE date = ? AND meal_type = ? AND id != ?`,
			entry.Date, entry.MealType, entry.ID); err != nil {
			return fmt.Errorf("failed to clear occupied slot: %w", err)
		}

		_, err := tx.Exec(`
			INSERT INTO schedule_entries (id, date, meal_type, recipe_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				date = excluded.date,
				meal_type = excluded.meal_type,
				recipe_id = excluded.recipe_id,
				updated_at = excluded.updated_at
		`, entry.ID, entry.Date, entry.MealType, entry.RecipeID,
			encodeTime(entry.CreatedAt), encodeTime(entry.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to upsert schedule entry: %w", err)
		}

		return nil
	})
	if err != nil {
		return false, err
	}

	return true, nil
}

// DeleteEntry removes a schedule entry by id.
func (r *ScheduleRepository) DeleteEntry(id string) error {
	_, err := r.db.Exec(`DELETE FROM schedule_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule entry: %w", err)
	}
	return nil
}

// GetRange returns entries with from <= date <= to, ordered by date then meal.
func (r *ScheduleRepository) GetRange(from, to string) ([]ScheduleEntry, error) {
	rows, err := r.db.Query(`
		SELECT `+scheduleColumns+`
		FROM schedule_entries
		WHERE date >= ? AND date <= ?
		ORDER BY date, meal_type
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule range: %w", err)
	}
	defer rows.Close()

	var entries []ScheduleEntry
	for rows.Next() {
		entry, err := scanScheduleEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule entry row: %w", err)
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedule entry rows: %w", err)
	}

	return entries, nil
}

// GetAll returns every schedule entry. Used by export.
func (r *ScheduleRepository) GetAll() ([]ScheduleEntry, error) {
	rows, err := r.db.Query(`SELECT ` + scheduleColumns + ` FROM schedule_entries ORDER BY date, meal_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all schedule entries: %w", err)
	}
	defer rows.Close()

	var entries []ScheduleEntry
	for rows.Next() {
		entry, err := scanScheduleEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule entry row: %w", err)
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedule entry rows: %w", err)
	}

	return entries, nil
}

// LatestCookedDate returns the most recent entry date for a recipe strictly
// before the given day, or "" when the recipe was never cooked. Entries for
// today or the future never count as cook history.
func (r *ScheduleRepository) LatestCookedDate(recipeID, today string) (string, error) {
	var date string
	err := r.db.QueryRow(`
		SELECT date FROM schedule_entries
		WHERE recipe_id = ? AND date < ?
		ORDER BY date DESC
		LIMIT 1
	`, recipeID, today).Scan(&date)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get latest cooked date: %w", err)
	}

	return date, nil
}

// CountCookedSince counts entries for a recipe with since <= date < today.
// Pass since = "" for an all-time count.
func (r *ScheduleRepository) CountCookedSince(recipeID, since, today string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM schedule_entries
		WHERE recipe_id = ? AND date < ? AND date >= ?
	`, recipeID, today, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cooked entries: %w", err)
	}
	return count, nil
}

// GetEntryCount returns the total number of schedule entries
func (r *ScheduleRepository) GetEntryCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM schedule_entries").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get schedule entry count: %w", err)
	}
	return count, nil
}
