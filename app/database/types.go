package database

import (
	"time"
)

// Meal types accepted for schedule slots.
const (
	MealLunch  = "lunch"
	MealDinner = "dinner"
)

// Entity type names shared with the sync queue and the remote store.
const (
	EntityRecipe        = "recipe"
	EntityScheduleEntry = "schedule_entry"
)

// Sync queue operations.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

type Recipe struct {
	ID           string     // Client-generated UUID, stable across sync
	Title        string
	Ingredients  []string // Raw ingredient lines, ordered
	Instructions []string // Raw instruction lines, ordered
	ImageURL     string
	SourceURL    string
	Tags         []string
	LastCookedAt *time.Time // Legacy; cook history derives from schedule entries
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RecipeIngredient is the structured decomposition of one ingredient line,
// keyed by (recipe id, line index). Quantity is nil for unparseable lines.
type RecipeIngredient struct {
	RecipeID    string
	LineIndex   int
	Quantity    *float64
	QuantityMax *float64
	Unit        string
	Name        string
	RawText     string
}

// ScheduleEntry assigns one recipe to one (date, meal type) slot.
// Date is a calendar day in "2006-01-02" form, no time component.
type ScheduleEntry struct {
	ID        string
	Date      string
	MealType  string
	RecipeID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SyncQueueItem is one pending local mutation not yet confirmed by the
// remote store.
type SyncQueueItem struct {
	ID         int64
	EntityType string
	EntityID   string
	Operation  string
	Payload    []byte
	EnqueuedAt time.Time
	RetryCount int
	LastError  string
}
