package recipes

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ladlehq/ladle/app/database"
	"github.com/ladlehq/ladle/app/sync"
)

const dateLayout = "2006-01-02"

// AssignSlot plans a recipe for a (date, meal type) slot, replacing any
// previous occupant. Returns the replaced entry, if there was one.
func (s *Service) AssignSlot(date, mealType, recipeID string) (*database.ScheduleEntry, *database.ScheduleEntry, error) {
	if err := validateSlot(date, mealType); err != nil {
		return nil, nil, err
	}
	if _, err := s.GetRecipe(recipeID); err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()
	entry := database.ScheduleEntry{
		ID:        uuid.NewString(),
		Date:      date,
		MealType:  mealType,
		RecipeID:  recipeID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	replaced, err := s.scheduleRepo.UpsertSlot(entry)
	if err != nil {
		return nil, nil, err
	}

	if replaced != nil {
		s.notifier.Notify(database.EntityScheduleEntry, replaced.ID, database.OpDelete, nil)
	}
	s.notifier.Notify(database.EntityScheduleEntry, entry.ID, database.OpCreate, sync.EntryToPayload(entry))
	slog.Debug("Schedule slot assigned", "date", date, "meal_type", mealType, "recipe_id", recipeID)

	return &entry, replaced, nil
}

// ClearSlot removes whatever occupies a slot. Clearing an empty slot is
// a success: the intended end state already holds.
func (s *Service) ClearSlot(date, mealType string) error {
	if err := validateSlot(date, mealType); err != nil {
		return err
	}

	entry, err := s.scheduleRepo.GetSlot(date, mealType)
	if err != nil {
		return err
	}
	if entry == nil {
		return nil
	}

	if err := s.scheduleRepo.DeleteEntry(entry.ID); err != nil {
		return err
	}

	s.notifier.Notify(database.EntityScheduleEntry, entry.ID, database.OpDelete, nil)
	return nil
}

// Schedule returns the entries planned between from and to, inclusive.
func (s *Service) Schedule(from, to string) ([]database.ScheduleEntry, error) {
	if !validDate(from) || !validDate(to) {
		return nil, ErrInvalidDate
	}
	if from > to {
		return nil, ErrInvalidRange
	}

	return s.scheduleRepo.GetRange(from, to)
}

func validateSlot(date, mealType string) error {
	if !validDate(date) {
		return ErrInvalidDate
	}
	if mealType != database.MealLunch && mealType != database.MealDinner {
		return ErrInvalidMealType
	}
	return nil
}

// validDate accepts only the canonical YYYY-MM-DD form so string
// comparison on stored dates stays chronological.
func validDate(date string) bool {
	t, err := time.Parse(dateLayout, date)
	return err == nil && t.Format(dateLayout) == date
}
