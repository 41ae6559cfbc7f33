package database

import (
	"database/sql"
	"fmt"
)

// RecipeRepository handles database operations for recipes
type RecipeRepository struct {
	db *DB
}

// NewRecipeRepository creates a new recipe repository
func NewRecipeRepository(db *DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

const recipeColumns = `id, title, ingredients, instructions, image_url, source_url, tags, last_cooked_at, created_at, updated_at`

func scanRecipe(scan func(dest ...any) error) (*Recipe, error) {
	var recipe Recipe
	var ingredients, instructions, tags, createdAt, updatedAt string
	var lastCookedAt sql.NullString

	err := scan(&recipe.ID, &recipe.Title, &ingredients, &instructions,
		&recipe.ImageURL, &recipe.SourceURL, &tags, &lastCookedAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if recipe.Ingredients, err = decodeStrings(ingredients); err != nil {
		return nil, err
	}
	if recipe.Instructions, err = decodeStrings(instructions); err != nil {
		return nil, err
	}
	if recipe.Tags, err = decodeStrings(tags); err != nil {
		return nil, err
	}
	if recipe.LastCookedAt, err = decodeNullTime(lastCookedAt); err != nil {
		return nil, err
	}
	if recipe.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if recipe.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, err
	}

	return &recipe, nil
}

// GetRecipe retrieves a recipe by id, returning (nil, nil) when absent.
func (r *RecipeRepository) GetRecipe(id string) (*Recipe, error) {
	row := r.db.QueryRow(`SELECT `+recipeColumns+` FROM recipes WHERE id = ?`, id)

	recipe, err := scanRecipe(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	return recipe, nil
}

// ListRecipes returns all recipes ordered by most recently updated.
func (r *RecipeRepository) ListRecipes() ([]Recipe, error) {
	rows, err := r.db.Query(`SELECT ` + recipeColumns + ` FROM recipes ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []Recipe
	for rows.Next() {
		recipe, err := scanRecipe(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe row: %w", err)
		}
		recipes = append(recipes, *recipe)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipe rows: %w", err)
	}

	return recipes, nil
}

// UpsertRecipe inserts or fully replaces a recipe row.
func (r *RecipeRepository) UpsertRecipe(recipe Recipe) error {
	_, err := r.db.Exec(`
		INSERT INTO recipes (id, title, ingredients, instructions, image_url, source_url, tags, last_cooked_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			ingredients = excluded.ingredients,
			instructions = excluded.instructions,
			image_url = excluded.image_url,
			source_url = excluded.source_url,
			tags = excluded.tags,
			last_cooked_at = excluded.last_cooked_at,
			updated_at = excluded.updated_at
	`, recipe.ID, recipe.Title, encodeStrings(recipe.Ingredients), encodeStrings(recipe.Instructions),
		recipe.ImageURL, recipe.SourceURL, encodeStrings(recipe.Tags),
		encodeNullTime(recipe.LastCookedAt), encodeTime(recipe.CreatedAt), encodeTime(recipe.UpdatedAt))

	if err != nil {
		return fmt.Errorf("failed to upsert recipe: %w", err)
	}

	return nil
}

// UpsertRecipeIfNewer applies a recipe only when its updated_at is newer than
// the stored row, preserving local edits still waiting in the outbound queue.
// Returns true when the row was inserted or updated.
func (r *RecipeRepository) UpsertRecipeIfNewer(recipe Recipe) (bool, error) {
	result, err := r.db.Exec(`
		INSERT INTO recipes (id, title, ingredients, instructions, image_url, source_url, tags, last_cooked_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			ingredients = excluded.ingredients,
			instructions = excluded.instructions,
			image_url = excluded.image_url,
			source_url = excluded.source_url,
			tags = excluded.tags,
			last_cooked_at = excluded.last_cooked_at,
			updated_at = excluded.updated_at
		WHERE excluded.updated_at > recipes.updated_at
	`, recipe.ID, recipe.Title, encodeStrings(recipe.Ingredients), encodeStrings(recipe.Instructions),
		recipe.ImageURL, recipe.SourceURL, encodeStrings(recipe.Tags),
		encodeNullTime(recipe.LastCookedAt), encodeTime(recipe.CreatedAt), encodeTime(recipe.UpdatedAt))

	if err != nil {
		return false, fmt.Errorf("failed to upsert recipe: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected > 0, nil
}

// DeleteRecipe removes a recipe and cascades to its structured ingredients
// and schedule entries in a single transaction. It returns the ids of the
// removed schedule entries so their deletions can be queued for sync.
func (r *RecipeRepository) DeleteRecipe(id string) ([]string, error) {
	var entryIDs []string

	err := r.db.withTx(func(tx *sql.Tx) error {
		rows, err := tx.Query(`SELECT id FROM schedule_entries WHERE recipe_id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to get schedule entries for recipe: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var entryID string
			if err := rows.Scan(&entryID); err != nil {
				return fmt.Errorf("failed to scan schedule entry id: %w", err)
			}
			entryIDs = append(entryIDs, entryID)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating schedule entry ids: %w", err)
		}

		if _, err := tx.Exec(`DELETE FROM schedule_entries WHERE recipe_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete schedule entries: %w", err)
		}

		// recipe_ingredients cascade via foreign key
		if _, err := tx.Exec(`DELETE FROM recipes WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete recipe: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return entryIDs, nil
}

// GetRecipeCount returns the total number of recipes
func (r *RecipeRepository) GetRecipeCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM recipes").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get recipe count: %w", err)
	}
	return count, nil
}

// ReplaceAll wipes every collection and loads the provided records in one
// transaction. Used by import in replace mode.
func (r *RecipeRepository) ReplaceAll(recipes []Recipe, entries []ScheduleEntry, ingredients []RecipeIngredient) error {
	return r.db.withTx(func(tx *sql.Tx) error {
		for _, table := range []string{"recipe_ingredients", "schedule_entries", "recipes"} {
			if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}

		for _, recipe := range recipes {
			_, err := tx.Exec(`
				INSERT INTO recipes (id, title, ingredients, instructions, image_url, source_url, tags, last_cooked_at, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, recipe.ID, recipe.Title, encodeStrings(recipe.Ingredients), encodeStrings(recipe.Instructions),
				recipe.ImageURL, recipe.SourceURL, encodeStrings(recipe.Tags),
				encodeNullTime(recipe.LastCookedAt), encodeTime(recipe.CreatedAt), encodeTime(recipe.UpdatedAt))
			if err != nil {
				return fmt.Errorf("failed to insert recipe %s: %w", recipe.ID, err)
			}
		}

		for _, entry := range entries {
			_, err := tx.Exec(`
				INSERT INTO schedule_entries (id, date, meal_type, recipe_id, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?)
			`, entry.ID, entry.Date, entry.MealType, entry.RecipeID,
				encodeTime(entry.CreatedAt), encodeTime(entry.UpdatedAt))
			if err != nil {
				return fmt.Errorf("failed to insert schedule entry %s: %w", entry.ID, err)
			}
		}

		for _, ing := range ingredients {
			_, err := tx.Exec(`
				INSERT INTO recipe_ingredients (recipe_id, line_index, quantity, quantity_max, unit, name, raw_text)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, ing.RecipeID, ing.LineIndex, encodeNullFloat(ing.Quantity), encodeNullFloat(ing.QuantityMax),
				ing.Unit, ing.Name, ing.RawText)
			if err != nil {
				return fmt.Errorf("failed to insert ingredient row for %s: %w", ing.RecipeID, err)
			}
		}

		return nil
	})
}
