package importer

import (
	"errors"
	"time"
)

// exportVersion is the current envelope version. Imports with a higher
// version come from a newer app and are rejected rather than half-read.
const exportVersion = 1

const appName = "Ladle"

// Import modes.
const (
	// ModeReplace wipes the local store and loads the archive as-is.
	ModeReplace = "replace"
	// ModeMerge upserts archive records by id; existing local records win
	// unless overwrite is set.
	ModeMerge = "merge"
)

var (
	ErrUnsupportedVersion = errors.New("export was created by a newer app version")
	ErrUnrecognizedFormat = errors.New("unrecognized import format")
	ErrInvalidMode        = errors.New("import mode must be replace or merge")
)

// Envelope is the native export file shape.
type Envelope struct {
	Version    int        `json:"version"`
	AppName    string     `json:"appName"`
	ExportedAt time.Time  `json:"exportedAt"`
	Data       ExportData `json:"data"`
}

// ExportData carries the full local store contents.
type ExportData struct {
	Recipes           []RecipeRecord     `json:"recipes"`
	ScheduleEntries   []ScheduleRecord   `json:"scheduleEntries"`
	RecipeIngredients []IngredientRecord `json:"recipeIngredients"`
}

// RecipeRecord is a recipe as serialized in the export file.
type RecipeRecord struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Ingredients  []string   `json:"ingredients"`
	Instructions []string   `json:"instructions"`
	ImageURL     string     `json:"imageUrl,omitempty"`
	SourceURL    string     `json:"sourceUrl,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	LastCookedAt *time.Time `json:"lastCookedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// ScheduleRecord is a schedule entry as serialized in the export file.
type ScheduleRecord struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	MealType  string    `json:"mealType"`
	RecipeID  string    `json:"recipeId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IngredientRecord is a structured ingredient row as serialized in the
// export file.
type IngredientRecord struct {
	RecipeID    string   `json:"recipeId"`
	LineIndex   int      `json:"lineIndex"`
	Quantity    *float64 `json:"quantity,omitempty"`
	QuantityMax *float64 `json:"quantityMax,omitempty"`
	Unit        string   `json:"unit,omitempty"`
	Name        string   `json:"name"`
	RawText     string   `json:"rawText"`
}

// Summary reports what an import changed.
type Summary struct {
	Format          string `json:"format"`
	Mode            string `json:"mode"`
	Recipes         int    `json:"recipes"`
	ScheduleEntries int    `json:"scheduleEntries"`
	Skipped         int    `json:"skipped"`
}

// Recognized import file formats.
const (
	FormatNative       = "native"
	FormatLegacyFlat   = "legacy_flat"
	FormatLegacyNested = "legacy_nested"
)
