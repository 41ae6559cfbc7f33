package database

import (
	"database/sql"
	"fmt"
)

// IngredientRepository handles database operations for structured
// recipe ingredients
type IngredientRepository struct {
	db *DB
}

// NewIngredientRepository creates a new ingredient repository
func NewIngredientRepository(db *DB) *IngredientRepository {
	return &IngredientRepository{db: db}
}

// GetForRecipe returns the structured ingredient rows for a recipe in line
// order. An empty result means the rows have not been generated yet.
func (r *IngredientRepository) GetForRecipe(recipeID string) ([]RecipeIngredient, error) {
	rows, err := r.db.Query(`
		SELECT recipe_id, line_index, quantity, quantity_max, unit, name, raw_text
		FROM recipe_ingredients
		WHERE recipe_id = ?
		ORDER BY line_index
	`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe ingredients: %w", err)
	}
	defer rows.Close()

	var ingredients []RecipeIngredient
	for rows.Next() {
		var ing RecipeIngredient
		var quantity, quantityMax sql.NullFloat64
		err := rows.Scan(&ing.RecipeID, &ing.LineIndex, &quantity, &quantityMax,
			&ing.Unit, &ing.Name, &ing.RawText)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ingredient row: %w", err)
		}
		ing.Quantity = decodeNullFloat(quantity)
		ing.QuantityMax = decodeNullFloat(quantityMax)
		ingredients = append(ingredients, ing)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ingredient rows: %w", err)
	}

	return ingredients, nil
}

// ReplaceForRecipe atomically swaps all structured ingredient rows for a
// recipe. Editing a recipe's ingredient list invalidates every row, so the
// whole set is regenerated rather than patched.
func (r *IngredientRepository) ReplaceForRecipe(recipeID string, ingredients []RecipeIngredient) error {
	return r.db.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM recipe_ingredients WHERE recipe_id = ?`, recipeID); err != nil {
			return fmt.Errorf("failed to clear recipe ingredients: %w", err)
		}

		for _, ing := range ingredients {
			_, err := tx.Exec(`
				INSERT INTO recipe_ingredients (recipe_id, line_index, quantity, quantity_max, unit, name, raw_text)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, recipeID, ing.LineIndex, encodeNullFloat(ing.Quantity), encodeNullFloat(ing.QuantityMax),
				ing.Unit, ing.Name, ing.RawText)
			if err != nil {
				return fmt.Errorf("failed to insert ingredient row: %w", err)
			}
		}

		return nil
	})
}

// GetAll returns every structured ingredient row. Used by export.
func (r *IngredientRepository) GetAll() ([]RecipeIngredient, error) {
	rows, err := r.db.Query(`
		SELECT recipe_id, line_index, quantity, quantity_max, unit, name, raw_text
		FROM recipe_ingredients
		ORDER BY recipe_id, line_index
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all ingredients: %w", err)
	}
	defer rows.Close()

	var ingredients []RecipeIngredient
	for rows.Next() {
		var ing RecipeIngredient
		var quantity, quantityMax sql.NullFloat64
		err := rows.Scan(&ing.RecipeID, &ing.LineIndex, &quantity, &quantityMax,
			&ing.Unit, &ing.Name, &ing.RawText)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ingredient row: %w", err)
		}
		ing.Quantity = decodeNullFloat(quantity)
		ing.QuantityMax = decodeNullFloat(quantityMax)
		ingredients = append(ingredients, ing)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ingredient rows: %w", err)
	}

	return ingredients, nil
}
