package recipes

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ladlehq/ladle/app/database"
	"github.com/ladlehq/ladle/app/quantity"
	"github.com/ladlehq/ladle/app/sync"
)

// Notifier receives committed local mutations for outbound sync.
// Satisfied by *sync.Engine.
type Notifier interface {
	Notify(entityType, entityID, operation string, payload any)
}

// RecipeInput carries the user-editable fields of a recipe.
type RecipeInput struct {
	Title        string
	Ingredients  []string
	Instructions []string
	ImageURL     string
	SourceURL    string
	Tags         []string
}

// ScaledIngredient is one ingredient line adjusted to a serving factor.
type ScaledIngredient struct {
	Display  string
	Quantity *float64
	Unit     string
	Name     string
}

// Service owns recipe and schedule mutations. Every write goes to the
// local store first and is then handed to the notifier; sync never sits
// between the user and their data.
type Service struct {
	recipeRepo     *database.RecipeRepository
	ingredientRepo *database.IngredientRepository
	scheduleRepo   *database.ScheduleRepository
	notifier       Notifier
	now            func() time.Time
}

// NewService creates the recipe service.
func NewService(recipeRepo *database.RecipeRepository, ingredientRepo *database.IngredientRepository,
	scheduleRepo *database.ScheduleRepository, notifier Notifier) *Service {
	return &Service{
		recipeRepo:     recipeRepo,
		ingredientRepo: ingredientRepo,
		scheduleRepo:   scheduleRepo,
		notifier:       notifier,
		now:            time.Now,
	}
}

// GetRecipe returns one recipe, or ErrRecipeNotFound.
func (s *Service) GetRecipe(id string) (*database.Recipe, error) {
	recipe, err := s.recipeRepo.GetRecipe(id)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, ErrRecipeNotFound
	}
	return recipe, nil
}

// ListRecipes returns all recipes, most recently updated first.
func (s *Service) ListRecipes() ([]database.Recipe, error) {
	return s.recipeRepo.ListRecipes()
}

// CreateRecipe stores a new recipe with a client-generated id.
func (s *Service) CreateRecipe(input RecipeInput) (*database.Recipe, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	now := s.now().UTC()
	recipe := database.Recipe{
		ID:           uuid.NewString(),
		Title:        title,
		Ingredients:  input.Ingredients,
		Instructions: input.Instructions,
		ImageURL:     input.ImageURL,
		SourceURL:    input.SourceURL,
		Tags:         input.Tags,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.recipeRepo.UpsertRecipe(recipe); err != nil {
		return nil, err
	}
	if err := s.ingredientRepo.ReplaceForRecipe(recipe.ID, buildIngredients(recipe.ID, recipe.Ingredients)); err != nil {
		return nil, err
	}

	s.notifier.Notify(database.EntityRecipe, recipe.ID, database.OpCreate, sync.RecipeToPayload(recipe))
	slog.Debug("Recipe created", "recipe_id", recipe.ID, "title", recipe.Title)

	return &recipe, nil
}

// UpdateRecipe replaces a recipe's editable fields. The stored updated
// timestamp is strictly increasing even against a stalled clock, so
// last-write-wins ordering stays well defined.
func (s *Service) UpdateRecipe(id string, input RecipeInput) (*database.Recipe, error) {
	existing, err := s.GetRecipe(id)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	recipe := *existing
	recipe.Title = title
	recipe.Ingredients = input.Ingredients
	recipe.Instructions = input.Instructions
	recipe.ImageURL = input.ImageURL
	recipe.SourceURL = input.SourceURL
	recipe.Tags = input.Tags
	recipe.UpdatedAt = s.nextTimestamp(existing.UpdatedAt)

	if err := s.recipeRepo.UpsertRecipe(recipe); err != nil {
		return nil, err
	}
	if err := s.ingredientRepo.ReplaceForRecipe(recipe.ID, buildIngredients(recipe.ID, recipe.Ingredients)); err != nil {
		return nil, err
	}

	s.notifier.Notify(database.EntityRecipe, recipe.ID, database.OpUpdate, sync.RecipeToPayload(recipe))

	return &recipe, nil
}

// DeleteRecipe removes a recipe and its schedule entries, locally and
// remotely.
func (s *Service) DeleteRecipe(id string) error {
	if _, err := s.GetRecipe(id); err != nil {
		return err
	}

	entryIDs, err := s.recipeRepo.DeleteRecipe(id)
	if err != nil {
		return err
	}

	for _, entryID := range entryIDs {
		s.notifier.Notify(database.EntityScheduleEntry, entryID, database.OpDelete, nil)
	}
	s.notifier.Notify(database.EntityRecipe, id, database.OpDelete, nil)
	slog.Debug("Recipe deleted", "recipe_id", id, "cascaded_entries", len(entryIDs))

	return nil
}

// DeleteRecipes removes several recipes. Missing ids are skipped; the
// bulk operation deletes what it can.
func (s *Service) DeleteRecipes(ids []string) (int, error) {
	deleted := 0
	for _, id := range ids {
		err := s.DeleteRecipe(id)
		if err == ErrRecipeNotFound {
			continue
		}
		if err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// Ingredients returns the structured decomposition of a recipe's
// ingredient lines, generating and caching it when absent. Recipes that
// arrived through sync or import have no rows yet.
func (s *Service) Ingredients(recipeID string) ([]database.RecipeIngredient, error) {
	recipe, err := s.GetRecipe(recipeID)
	if err != nil {
		return nil, err
	}

	rows, err := s.ingredientRepo.GetForRecipe(recipeID)
	if err != nil {
		return nil, err
	}
	if len(rows) == len(recipe.Ingredients) {
		return rows, nil
	}

	rows = buildIngredients(recipeID, recipe.Ingredients)
	if err := s.ingredientRepo.ReplaceForRecipe(recipeID, rows); err != nil {
		return nil, err
	}

	return rows, nil
}

// ScaledIngredients returns the recipe's ingredient lines adjusted by a
// positive serving factor. Unparseable lines pass through untouched.
func (s *Service) ScaledIngredients(recipeID string, factor float64) ([]ScaledIngredient, error) {
	if factor <= 0 {
		return nil, ErrInvalidScale
	}

	rows, err := s.Ingredients(recipeID)
	if err != nil {
		return nil, err
	}

	scaled := make([]ScaledIngredient, 0, len(rows))
	for _, row := range rows {
		parsed := quantity.Parsed{
			Quantity:    row.Quantity,
			QuantityMax: row.QuantityMax,
			Unit:        row.Unit,
			Name:        row.Name,
			RawText:     row.RawText,
		}
		result := quantity.Scale(parsed, factor)
		scaled = append(scaled, ScaledIngredient{
			Display:  quantity.Format(result),
			Quantity: result.Quantity,
			Unit:     result.Unit,
			Name:     result.Name,
		})
	}

	return scaled, nil
}

// nextTimestamp returns the current time, nudged forward when the clock
// has not advanced past prev.
func (s *Service) nextTimestamp(prev time.Time) time.Time {
	now := s.now().UTC()
	if !now.After(prev) {
		return prev.Add(time.Millisecond)
	}
	return now
}

func buildIngredients(recipeID string, lines []string) []database.RecipeIngredient {
	rows := make([]database.RecipeIngredient, 0, len(lines))
	for i, line := range lines {
		parsed := quantity.Parse(line)
		rows = append(rows, database.RecipeIngredient{
			RecipeID:    recipeID,
			LineIndex:   i,
			Quantity:    parsed.Quantity,
			QuantityMax: parsed.QuantityMax,
			Unit:        parsed.Unit,
			Name:        parsed.Name,
			RawText:     parsed.RawText,
		})
	}
	return rows
}
