package sync

import (
	"github.com/ladlehq/ladle/app/database"
	"github.com/ladlehq/ladle/app/remote"
)

// RecipeToPayload converts a local recipe to its wire shape.
func RecipeToPayload(r database.Recipe) remote.RecipePayload {
	return remote.RecipePayload{
		ID:           r.ID,
		Title:        r.Title,
		Ingredients:  r.Ingredients,
		Instructions: r.Instructions,
		ImageURL:     r.ImageURL,
		SourceURL:    r.SourceURL,
		Tags:         r.Tags,
		LastCookedAt: r.LastCookedAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func payloadToRecipe(p remote.RecipePayload) database.Recipe {
	return database.Recipe{
		ID:           p.ID,
		Title:        p.Title,
		Ingredients:  p.Ingredients,
		Instructions: p.Instructions,
		ImageURL:     p.ImageURL,
		SourceURL:    p.SourceURL,
		Tags:         p.Tags,
		LastCookedAt: p.LastCookedAt,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// EntryToPayload converts a local schedule entry to its wire shape.
func EntryToPayload(e database.ScheduleEntry) remote.ScheduleEntryPayload {
	return remote.ScheduleEntryPayload{
		ID:        e.ID,
		Date:      e.Date,
		MealType:  e.MealType,
		RecipeID:  e.RecipeID,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func payloadToEntry(p remote.ScheduleEntryPayload) database.ScheduleEntry {
	return database.ScheduleEntry{
		ID:        p.ID,
		Date:      p.Date,
		MealType:  p.MealType,
		RecipeID:  p.RecipeID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
