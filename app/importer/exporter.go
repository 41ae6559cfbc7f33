package importer

import (
	"time"

	"github.com/ladlehq/ladle/app/database"
)

// Service reads and writes full-store archives. Archives are a local
// backup and transfer mechanism; they never touch the sync queue.
type Service struct {
	recipeRepo     *database.RecipeRepository
	ingredientRepo *database.IngredientRepository
	scheduleRepo   *database.ScheduleRepository
	now            func() time.Time
}

// NewService creates the import/export service.
func NewService(recipeRepo *database.RecipeRepository, ingredientRepo *database.IngredientRepository,
	scheduleRepo *database.ScheduleRepository) *Service {
	return &Service{
		recipeRepo:     recipeRepo,
		ingredientRepo: ingredientRepo,
		scheduleRepo:   scheduleRepo,
		now:            time.Now,
	}
}

// Export snapshots the whole local store into a versioned envelope.
func (s *Service) Export() (*Envelope, error) {
	recipes, err := s.recipeRepo.ListRecipes()
	if err != nil {
		return nil, err
	}
	entries, err := s.scheduleRepo.GetAll()
	if err != nil {
		return nil, err
	}
	ingredients, err := s.ingredientRepo.GetAll()
	if err != nil {
		return nil, err
	}

	data := ExportData{
		Recipes:           make([]RecipeRecord, 0, len(recipes)),
		ScheduleEntries:   make([]ScheduleRecord, 0, len(entries)),
		RecipeIngredients: make([]IngredientRecord, 0, len(ingredients)),
	}

	for _, recipe := range recipes {
		data.Recipes = append(data.Recipes, RecipeRecord(recipe))
	}
	for _, entry := range entries {
		data.ScheduleEntries = append(data.ScheduleEntries, ScheduleRecord(entry))
	}
	for _, ingredient := range ingredients {
		data.RecipeIngredients = append(data.RecipeIngredients, IngredientRecord(ingredient))
	}

	return &Envelope{
		Version:    exportVersion,
		AppName:    appName,
		ExportedAt: s.now().UTC(),
		Data:       data,
	}, nil
}
