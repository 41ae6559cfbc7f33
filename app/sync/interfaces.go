package sync

import (
	"context"
	"time"

	"github.com/ladlehq/ladle/app/remote"
)

// RemoteClient is the slice of the remote store the engine drives.
// Satisfied by *remote.Client; tests substitute a fake.
type RemoteClient interface {
	Ping(ctx context.Context) error

	ListRecipes(ctx context.Context, since *time.Time) ([]remote.RecipePayload, error)
	PushRecipe(ctx context.Context, payload remote.RecipePayload) (*remote.RecipePayload, error)
	DeleteRecipe(ctx context.Context, id string) error

	ListScheduleEntries(ctx context.Context, since *time.Time) ([]remote.ScheduleEntryPayload, error)
	PushScheduleEntry(ctx context.Context, payload remote.ScheduleEntryPayload) (*remote.ScheduleEntryPayload, error)
	DeleteScheduleEntry(ctx context.Context, id string) error
}
