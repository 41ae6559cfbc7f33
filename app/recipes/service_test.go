package recipes

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ladlehq/ladle/app/database"
)

type recordedMutation struct {
	entityType string
	entityID   string
	operation  string
}

type recordingNotifier struct {
	mutations []recordedMutation
}

func (n *recordingNotifier) Notify(entityType, entityID, operation string, payload any) {
	n.mutations = append(n.mutations, recordedMutation{entityType, entityID, operation})
}

func newTestService(t *testing.T) (*Service, *recordingNotifier) {
	t.Helper()

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	notifier := &recordingNotifier{}
	service := NewService(
		database.NewRecipeRepository(db),
		database.NewIngredientRepository(db),
		database.NewScheduleRepository(db),
		notifier,
	)

	return service, notifier
}

func TestService_CreateRecipe(t *testing.T) {
	service, notifier := newTestService(t)

	recipe, err := service.CreateRecipe(RecipeInput{
		Title:        "  Pancakes  ",
		Ingredients:  []string{"2 cups flour", "1 egg"},
		Instructions: []string{"Mix", "Fry"},
	})
	if err != nil {
		t.Fatalf("Failed to create recipe: %v", err)
	}

	if recipe.ID == "" {
		t.Error("Expected generated id")
	}
	if recipe.Title != "Pancakes" {
		t.Errorf("Expected trimmed title, got %q", recipe.Title)
	}
	if !recipe.UpdatedAt.Equal(recipe.CreatedAt) {
		t.Errorf("Expected created and updated timestamps equal, got %v / %v", recipe.CreatedAt, recipe.UpdatedAt)
	}

	if len(notifier.mutations) != 1 {
		t.Fatalf("Expected 1 sync notification, got %d", len(notifier.mutations))
	}
	if notifier.mutations[0].operation != database.OpCreate || notifier.mutations[0].entityID != recipe.ID {
		t.Errorf("Expected create notification for %s, got %+v", recipe.ID, notifier.mutations[0])
	}

	// Structured ingredients were generated alongside
	rows, err := service.Ingredients(recipe.ID)
	if err != nil {
		t.Fatalf("Failed to get ingredients: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 ingredient rows, got %d", len(rows))
	}
	if rows[0].Quantity == nil || *rows[0].Quantity != 2 || rows[0].Unit != "cups" {
		t.Errorf("Expected parsed '2 cups flour', got %+v", rows[0])
	}
}

func TestService_CreateRecipe_EmptyTitle(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.CreateRecipe(RecipeInput{Title: "   "})
	if !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("Expected ErrEmptyTitle, got %v", err)
	}
}

func TestService_UpdateRecipe_TimestampStrictlyIncreases(t *testing.T) {
	service, _ := newTestService(t)

	// Freeze the clock so wall time never advances between writes.
	frozen := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return frozen }

	recipe, err := service.CreateRecipe(RecipeInput{Title: "Soup"})
	if err != nil {
		t.Fatalf("Failed to create recipe: %v", err)
	}

	updated, err := service.UpdateRecipe(recipe.ID, RecipeInput{Title: "Better Soup"})
	if err != nil {
		t.Fatalf("Failed to update recipe: %v", err)
	}
	if !updated.UpdatedAt.After(recipe.UpdatedAt) {
		t.Errorf("Expected updated_at to strictly increase, got %v after %v", updated.UpdatedAt, recipe.UpdatedAt)
	}

	again, err := service.UpdateRecipe(recipe.ID, RecipeInput{Title: "Best Soup"})
	if err != nil {
		t.Fatalf("Failed to update recipe: %v", err)
	}
	if !again.UpdatedAt.After(updated.UpdatedAt) {
		t.Errorf("Expected updated_at to strictly increase again, got %v after %v", again.UpdatedAt, updated.UpdatedAt)
	}
	if again.ID != recipe.ID {
		t.Errorf("Expected id immutable across updates, got %s", again.ID)
	}
}

func TestService_UpdateRecipe_RefreshesIngredients(t *testing.T) {
	service, _ := newTestService(t)

	recipe, err := service.CreateRecipe(RecipeInput{
		Title:       "Dough",
		Ingredients: []string{"2 cups flour"},
	})
	if err != nil {
		t.Fatalf("Failed to create recipe: %v", err)
	}

	if _, err := service.UpdateRecipe(recipe.ID, RecipeInput{
		Title:       "Dough",
		Ingredients: []string{"3 cups flour", "1 tsp salt"},
	}); err != nil {
		t.Fatalf("Failed to update recipe: %v", err)
	}

	rows, err := service.Ingredients(recipe.ID)
	if err != nil {
		t.Fatalf("Failed to get ingredients: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected decomposition refreshed to 2 rows, got %d", len(rows))
	}
	if rows[0].Quantity == nil || *rows[0].Quantity != 3 {
		t.Errorf("Expected updated quantity 3, got %v", rows[0].Quantity)
	}
}

func TestService_DeleteRecipe_NotifiesCascade(t *testing.T) {
	service, notifier := newTestService(t)

	recipe, err := service.CreateRecipe(RecipeInput{Title: "Curry"})
	if err != nil {
		t.Fatalf("Failed to create recipe: %v", err)
	}
	if _, _, err := service.AssignSlot("2026-09-01", database.MealDinner, recipe.ID); err != nil {
		t.Fatalf("Failed to assign slot: %v", err)
	}

	notifier.mutations = nil
	if err := service.DeleteRecipe(recipe.ID); err != nil {
		t.Fatalf("Failed to delete recipe: %v", err)
	}

	if len(notifier.mutations) != 2 {
		t.Fatalf("Expected 2 delete notifications (entry + recipe), got %+v", notifier.mutations)
	}
	if notifier.mutations[0].entityType != database.EntityScheduleEntry || notifier.mutations[0].operation != database.OpDelete {
		t.Errorf("Expected schedule entry delete first, got %+v", notifier.mutations[0])
	}
	if notifier.mutations[1].entityType != database.EntityRecipe || notifier.mutations[1].entityID != recipe.ID {
		t.Errorf("Expected recipe delete second, got %+v", notifier.mutations[1])
	}

	if err := service.DeleteRecipe(recipe.ID); !errors.Is(err, ErrRecipeNotFound) {
		t.Errorf("Expected ErrRecipeNotFound for second delete, got %v", err)
	}
}

func TestService_ScaledIngredients(t *testing.T) {
	service, _ := newTestService(t)

	recipe, err := service.CreateRecipe(RecipeInput{
		Title:       "Cake",
		Ingredients: []string{"1 1/2 cups flour", "Salt to taste"},
	})
	if err != nil {
		t.Fatalf("Failed to create recipe: %v", err)
	}

	scaled, err := service.ScaledIngredients(recipe.ID, 3)
	if err != nil {
		t.Fatalf("Failed to scale ingredients: %v", err)
	}
	if len(scaled) != 2 {
		t.Fatalf("Expected 2 scaled lines, got %d", len(scaled))
	}
	if scaled[0].Display != "4½ cups flour" {
		t.Errorf("Expected '4½ cups flour', got %q", scaled[0].Display)
	}
	if scaled[1].Display != "Salt to taste" {
		t.Errorf("Expected unparseable line passed through, got %q", scaled[1].Display)
	}

	if _, err := service.ScaledIngredients(recipe.ID, 0); !errors.Is(err, ErrInvalidScale) {
		t.Errorf("Expected ErrInvalidScale for factor 0, got %v", err)
	}
	if _, err := service.ScaledIngredients(recipe.ID, -1); !errors.Is(err, ErrInvalidScale) {
		t.Errorf("Expected ErrInvalidScale for negative factor, got %v", err)
	}
}

func TestService_AssignSlot_ReplacesOccupant(t *testing.T) {
	service, notifier := newTestService(t)

	first, _ := service.CreateRecipe(RecipeInput{Title: "First"})
	second, _ := service.CreateRecipe(RecipeInput{Title: "Second"})

	if _, _, err := service.AssignSlot("2026-09-01", database.MealDinner, first.ID); err != nil {
		t.Fatalf("Failed to assign slot: %v", err)
	}

	notifier.mutations = nil
	entry, replaced, err := service.AssignSlot("2026-09-01", database.MealDinner, second.ID)
	if err != nil {
		t.Fatalf("Failed to reassign slot: %v", err)
	}
	if replaced == nil || replaced.RecipeID != first.ID {
		t.Fatalf("Expected first occupant replaced, got %+v", replaced)
	}
	if entry.RecipeID != second.ID {
		t.Errorf("Expected slot now held by second recipe, got %s", entry.RecipeID)
	}

	// Replacement is a delete of the old entry plus a create of the new one
	if len(notifier.mutations) != 2 {
		t.Fatalf("Expected 2 notifications, got %+v", notifier.mutations)
	}
	if notifier.mutations[0].operation != database.OpDelete || notifier.mutations[0].entityID != replaced.ID {
		t.Errorf("Expected delete of replaced entry first, got %+v", notifier.mutations[0])
	}
	if notifier.mutations[1].operation != database.OpCreate || notifier.mutations[1].entityID != entry.ID {
		t.Errorf("Expected create of new entry second, got %+v", notifier.mutations[1])
	}
}

func TestService_AssignSlot_Validation(t *testing.T) {
	service, _ := newTestService(t)
	recipe, _ := service.CreateRecipe(RecipeInput{Title: "Stew"})

	if _, _, err := service.AssignSlot("01.09.2026", database.MealDinner, recipe.ID); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("Expected ErrInvalidDate, got %v", err)
	}
	if _, _, err := service.AssignSlot("2026-09-01", "brunch", recipe.ID); !errors.Is(err, ErrInvalidMealType) {
		t.Errorf("Expected ErrInvalidMealType, got %v", err)
	}
	if _, _, err := service.AssignSlot("2026-09-01", database.MealLunch, "missing"); !errors.Is(err, ErrRecipeNotFound) {
		t.Errorf("Expected ErrRecipeNotFound, got %v", err)
	}
}

func TestService_ClearSlot_EmptyIsNoOp(t *testing.T) {
	service, notifier := newTestService(t)

	if err := service.ClearSlot("2026-09-01", database.MealLunch); err != nil {
		t.Errorf("Expected clearing an empty slot to succeed, got %v", err)
	}
	if len(notifier.mutations) != 0 {
		t.Errorf("Expected no notifications for empty clear, got %+v", notifier.mutations)
	}
}

func TestService_History(t *testing.T) {
	service, _ := newTestService(t)

	// Fixed "today" for deterministic recency math.
	today := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return today }

	recipe, _ := service.CreateRecipe(RecipeInput{Title: "Chili"})

	// Cooked 5 days ago, 40 days ago, and planned for today.
	for _, date := range []string{"2026-08-25", "2026-07-21", "2026-08-30"} {
		if _, _, err := service.AssignSlot(date, database.MealDinner, recipe.ID); err != nil {
			t.Fatalf("Failed to assign slot for %s: %v", date, err)
		}
	}

	history, err := service.History(recipe.ID)
	if err != nil {
		t.Fatalf("Failed to get history: %v", err)
	}

	if history.LastCookedDate != "2026-08-25" {
		t.Errorf("Expected last cooked 2026-08-25 (today excluded), got %q", history.LastCookedDate)
	}
	if history.DaysSince == nil || *history.DaysSince != 5 {
		t.Errorf("Expected 5 days since, got %v", history.DaysSince)
	}
	if history.Recency != RecencyFresh {
		t.Errorf("Expected fresh recency, got %q", history.Recency)
	}
	if history.CookedLastMonth != 1 {
		t.Errorf("Expected 1 cook in the last month, got %d", history.CookedLastMonth)
	}
	if history.CookedLastYear != 2 {
		t.Errorf("Expected 2 cooks in the last year, got %d", history.CookedLastYear)
	}
	if history.CookedAllTime != 2 {
		t.Errorf("Expected 2 cooks all time, got %d", history.CookedAllTime)
	}
}

func TestService_History_NeverCooked(t *testing.T) {
	service, _ := newTestService(t)
	recipe, _ := service.CreateRecipe(RecipeInput{Title: "New"})

	history, err := service.History(recipe.ID)
	if err != nil {
		t.Fatalf("Failed to get history: %v", err)
	}
	if history.Recency != RecencyNever {
		t.Errorf("Expected never recency, got %q", history.Recency)
	}
	if history.DaysSince != nil {
		t.Errorf("Expected nil days since, got %v", *history.DaysSince)
	}
}

func TestClassifyRecency(t *testing.T) {
	cases := []struct {
		days int
		want string
	}{
		{0, RecencyFresh},
		{7, RecencyFresh},
		{8, RecencyAging},
		{21, RecencyAging},
		{22, RecencyOverdue},
		{300, RecencyOverdue},
	}

	for _, tc := range cases {
		got := classifyRecency(tc.days)
		if got != tc.want {
			t.Errorf("classifyRecency(%d): expected %q, got %q", tc.days, tc.want, got)
		}
	}
}

func TestService_Schedule_RangeValidation(t *testing.T) {
	service, _ := newTestService(t)

	if _, err := service.Schedule("2026-09-10", "2026-09-01"); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("Expected ErrInvalidRange, got %v", err)
	}
	if _, err := service.Schedule("bad", "2026-09-01"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("Expected ErrInvalidDate, got %v", err)
	}
}
