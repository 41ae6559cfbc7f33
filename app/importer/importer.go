package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ladlehq/ladle/app/database"
	"github.com/ladlehq/ladle/app/quantity"
)

// Import loads an archive into the local store. The format is sniffed
// from the document structure; legacy formats are normalized into native
// records first.
func (s *Service) Import(data []byte, mode string, overwrite bool) (*Summary, error) {
	if mode != ModeReplace && mode != ModeMerge {
		return nil, ErrInvalidMode
	}

	format, envelope, err := sniff(data)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Format: format, Mode: mode}

	switch mode {
	case ModeReplace:
		err = s.importReplace(envelope, summary)
	case ModeMerge:
		err = s.importMerge(envelope, overwrite, summary)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("Import completed", "format", format, "mode", mode,
		"recipes", summary.Recipes, "schedule_entries", summary.ScheduleEntries, "skipped", summary.Skipped)

	return summary, nil
}

// sniff detects the archive format and normalizes it into the native
// envelope.
func sniff(data []byte) (string, *Envelope, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return "", nil, ErrUnrecognizedFormat
	}

	if trimmed[0] == '[' {
		envelope, err := parseLegacyFlat(trimmed)
		return FormatLegacyFlat, envelope, err
	}

	var probe struct {
		Version *int            `json:"version"`
		Data    json.RawMessage `json:"data"`
		Recipes json.RawMessage `json:"recipes"`
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUnrecognizedFormat, err)
	}

	switch {
	case probe.Version != nil && probe.Data != nil:
		envelope, err := parseNative(trimmed)
		return FormatNative, envelope, err
	case probe.Recipes != nil:
		envelope, err := parseLegacyNested(trimmed)
		return FormatLegacyNested, envelope, err
	default:
		return "", nil, ErrUnrecognizedFormat
	}
}

func parseNative(data []byte) (*Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedFormat, err)
	}
	if envelope.Version > exportVersion {
		return nil, fmt.Errorf("%w (version %d)", ErrUnsupportedVersion, envelope.Version)
	}
	return &envelope, nil
}

// importReplace wipes the store and loads the archive in one transaction.
func (s *Service) importReplace(envelope *Envelope, summary *Summary) error {
	recipes := make([]database.Recipe, 0, len(envelope.Data.Recipes))
	for _, record := range envelope.Data.Recipes {
		recipes = append(recipes, database.Recipe(record))
	}

	entries := make([]database.ScheduleEntry, 0, len(envelope.Data.ScheduleEntries))
	for _, record := range envelope.Data.ScheduleEntries {
		entries = append(entries, database.ScheduleEntry(record))
	}

	ingredients := ingredientRows(envelope)

	if err := s.recipeRepo.ReplaceAll(recipes, entries, ingredients); err != nil {
		return err
	}

	summary.Recipes = len(recipes)
	summary.ScheduleEntries = len(entries)
	return nil
}

// importMerge upserts archive records by id. Existing local records win
// unless overwrite is set.
func (s *Service) importMerge(envelope *Envelope, overwrite bool, summary *Summary) error {
	rowsByRecipe := make(map[string][]database.RecipeIngredient)
	for _, row := range ingredientRows(envelope) {
		rowsByRecipe[row.RecipeID] = append(rowsByRecipe[row.RecipeID], row)
	}

	for _, record := range envelope.Data.Recipes {
		recipe := database.Recipe(record)

		existing, err := s.recipeRepo.GetRecipe(recipe.ID)
		if err != nil {
			return err
		}
		if existing != nil && !overwrite {
			summary.Skipped++
			continue
		}

		if err := s.recipeRepo.UpsertRecipe(recipe); err != nil {
			return err
		}
		if err := s.ingredientRepo.ReplaceForRecipe(recipe.ID, rowsByRecipe[recipe.ID]); err != nil {
			return err
		}
		summary.Recipes++
	}

	for _, record := range envelope.Data.ScheduleEntries {
		entry := database.ScheduleEntry(record)

		existing, err := s.scheduleRepo.GetEntry(entry.ID)
		if err != nil {
			return err
		}
		if existing != nil && !overwrite {
			summary.Skipped++
			continue
		}

		// Entries referencing recipes absent after the merge would violate
		// the recipe foreign key.
		recipe, err := s.recipeRepo.GetRecipe(entry.RecipeID)
		if err != nil {
			return err
		}
		if recipe == nil {
			summary.Skipped++
			continue
		}

		if existing != nil {
			if err := s.scheduleRepo.DeleteEntry(entry.ID); err != nil {
				return err
			}
		}
		if _, err := s.scheduleRepo.UpsertSlot(entry); err != nil {
			return err
		}
		summary.ScheduleEntries++
	}

	return nil
}

// ingredientRows returns the archive's structured ingredient rows,
// regenerating them from raw lines for recipes the archive has no rows
// for (legacy formats, older exports).
func ingredientRows(envelope *Envelope) []database.RecipeIngredient {
	covered := make(map[string]bool)
	rows := make([]database.RecipeIngredient, 0, len(envelope.Data.RecipeIngredients))

	for _, record := range envelope.Data.RecipeIngredients {
		covered[record.RecipeID] = true
		rows = append(rows, database.RecipeIngredient(record))
	}

	for _, recipe := range envelope.Data.Recipes {
		if covered[recipe.ID] {
			continue
		}
		for i, line := range recipe.Ingredients {
			parsed := quantity.Parse(line)
			rows = append(rows, database.RecipeIngredient{
				RecipeID:    recipe.ID,
				LineIndex:   i,
				Quantity:    parsed.Quantity,
				QuantityMax: parsed.QuantityMax,
				Unit:        parsed.Unit,
				Name:        parsed.Name,
				RawText:     parsed.RawText,
			})
		}
	}

	return rows
}
