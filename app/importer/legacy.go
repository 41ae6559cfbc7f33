package importer

import (
	"cmp"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// legacyRecipe tolerates the field spellings seen across old exports.
// Earlier app generations disagreed on nearly every key name.
type legacyRecipe struct {
	Name            string   `json:"name"`
	RecipeName      string   `json:"recipe_name"`
	Title           string   `json:"title"`
	Ingredients     []string `json:"ingredients"`
	IngredientLines []string `json:"ingredient_lines"`
	Directions      []string `json:"directions"`
	Steps           []string `json:"steps"`
	Instructions    []string `json:"instructions"`
	ImageURL        string   `json:"image_url"`
	SourceURL       string   `json:"source_url"`
	URL             string   `json:"url"`
	Tags            []string `json:"tags"`
}

// parseLegacyFlat reads a bare JSON array of recipe objects.
func parseLegacyFlat(data []byte) (*Envelope, error) {
	var records []legacyRecipe
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedFormat, err)
	}
	return normalizeLegacy(records), nil
}

// parseLegacyNested reads a {"recipes": [...]} wrapper.
func parseLegacyNested(data []byte) (*Envelope, error) {
	var wrapper struct {
		Recipes []legacyRecipe `json:"recipes"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedFormat, err)
	}
	return normalizeLegacy(wrapper.Recipes), nil
}

// normalizeLegacy lifts legacy records into the native envelope. Legacy
// exports carry no ids or timestamps, so fresh ones are assigned; the
// records look locally created at import time.
func normalizeLegacy(records []legacyRecipe) *Envelope {
	now := time.Now().UTC()

	envelope := &Envelope{
		Version:    exportVersion,
		AppName:    appName,
		ExportedAt: now,
		Data: ExportData{
			Recipes: make([]RecipeRecord, 0, len(records)),
		},
	}

	for _, record := range records {
		title := strings.TrimSpace(cmp.Or(record.Title, record.Name, record.RecipeName))
		if title == "" {
			continue
		}

		ingredients := record.Ingredients
		if len(ingredients) == 0 {
			ingredients = record.IngredientLines
		}

		instructions := record.Instructions
		if len(instructions) == 0 {
			instructions = record.Directions
		}
		if len(instructions) == 0 {
			instructions = record.Steps
		}

		envelope.Data.Recipes = append(envelope.Data.Recipes, RecipeRecord{
			ID:           uuid.NewString(),
			Title:        title,
			Ingredients:  ingredients,
			Instructions: instructions,
			ImageURL:     record.ImageURL,
			SourceURL:    cmp.Or(record.SourceURL, record.URL),
			Tags:         record.Tags,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	return envelope
}
