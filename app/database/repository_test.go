package database

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func testRecipe(id string, updatedAt time.Time) Recipe {
	return Recipe{
		ID:           id,
		Title:        "Test Recipe " + id,
		Ingredients:  []string{"2 cups flour", "1 egg"},
		Instructions: []string{"Mix", "Bake"},
		Tags:         []string{"test"},
		CreatedAt:    updatedAt,
		UpdatedAt:    updatedAt,
	}
}

func TestRecipeRepository_UpsertAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewRecipeRepository(db)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	recipe := testRecipe("r1", now)

	if err := repo.UpsertRecipe(recipe); err != nil {
		t.Fatalf("Failed to upsert recipe: %v", err)
	}

	got, err := repo.GetRecipe("r1")
	if err != nil {
		t.Fatalf("Failed to get recipe: %v", err)
	}
	if got == nil {
		t.Fatal("Expected recipe, got nil")
	}
	if got.Title != recipe.Title {
		t.Errorf("Expected title %q, got %q", recipe.Title, got.Title)
	}
	if len(got.Ingredients) != 2 || got.Ingredients[0] != "2 cups flour" {
		t.Errorf("Expected ingredients preserved in order, got %v", got.Ingredients)
	}
	if !got.UpdatedAt.Equal(now) {
		t.Errorf("Expected updated_at %v, got %v", now, got.UpdatedAt)
	}

	missing, err := repo.GetRecipe("nope")
	if err != nil {
		t.Fatalf("Unexpected error for missing recipe: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for missing recipe, got %+v", missing)
	}
}

func TestRecipeRepository_ListOrderedByUpdatedAt(t *testing.T) {
	db := newTestDB(t)
	repo := NewRecipeRepository(db)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "newest", "middle"} {
		offsets := []time.Duration{0, 2 * time.Hour, time.Hour}
		if err := repo.UpsertRecipe(testRecipe(id, base.Add(offsets[i]))); err != nil {
			t.Fatalf("Failed to upsert %s: %v", id, err)
		}
	}

	list, err := repo.ListRecipes()
	if err != nil {
		t.Fatalf("Failed to list recipes: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected 3 recipes, got %d", len(list))
	}
	if list[0].ID != "newest" || list[1].ID != "middle" || list[2].ID != "old" {
		t.Errorf("Expected newest-first order, got %s, %s, %s", list[0].ID, list[1].ID, list[2].ID)
	}
}

func TestRecipeRepository_UpsertIfNewer(t *testing.T) {
	db := newTestDB(t)
	repo := NewRecipeRepository(db)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	local := testRecipe("r1", now)
	if err := repo.UpsertRecipe(local); err != nil {
		t.Fatalf("Failed to upsert recipe: %v", err)
	}

	stale := testRecipe("r1", now.Add(-time.Minute))
	stale.Title = "Stale remote version"
	applied, err := repo.UpsertRecipeIfNewer(stale)
	if err != nil {
		t.Fatalf("Failed conditional upsert: %v", err)
	}
	if applied {
		t.Error("Expected stale record to be rejected")
	}

	newer := testRecipe("r1", now.Add(time.Minute))
	newer.Title = "Newer remote version"
	applied, err = repo.UpsertRecipeIfNewer(newer)
	if err != nil {
		t.Fatalf("Failed conditional upsert: %v", err)
	}
	if !applied {
		t.Error("Expected newer record to be applied")
	}

	got, _ := repo.GetRecipe("r1")
	if got.Title != "Newer remote version" {
		t.Errorf("Expected newer title, got %q", got.Title)
	}

	// Unknown id inserts
	applied, err = repo.UpsertRecipeIfNewer(testRecipe("r2", now))
	if err != nil {
		t.Fatalf("Failed conditional insert: %v", err)
	}
	if !applied {
		t.Error("Expected insert of unknown recipe to be applied")
	}
}

func TestRecipeRepository_DeleteCascadesSchedule(t *testing.T) {
	db := newTestDB(t)
	repo := NewRecipeRepository(db)
	scheduleRepo := NewScheduleRepository(db)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if err := repo.UpsertRecipe(testRecipe("r1", now)); err != nil {
		t.Fatalf("Failed to upsert recipe: %v", err)
	}

	entry := ScheduleEntry{ID: "e1", Date: "2026-08-10", MealType: MealDinner, RecipeID: "r1", CreatedAt: now, UpdatedAt: now}
	if _, err := scheduleRepo.UpsertSlot(entry); err != nil {
		t.Fatalf("Failed to upsert slot: %v", err)
	}

	entryIDs, err := repo.DeleteRecipe("r1")
	if err != nil {
		t.Fatalf("Failed to delete recipe: %v", err)
	}
	if len(entryIDs) != 1 || entryIDs[0] != "e1" {
		t.Errorf("Expected cascaded entry ids [e1], got %v", entryIDs)
	}

	got, _ := scheduleRepo.GetEntry("e1")
	if got != nil {
		t.Errorf("Expected schedule entry removed with its recipe, got %+v", got)
	}
}

func TestIngredientRepository_ReplaceForRecipe(t *testing.T) {
	db := newTestDB(t)
	recipeRepo := NewRecipeRepository(db)
	repo := NewIngredientRepository(db)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if err := recipeRepo.UpsertRecipe(testRecipe("r1", now)); err != nil {
		t.Fatalf("Failed to upsert recipe: %v", err)
	}

	two := 2.0
	rows := []RecipeIngredient{
		{RecipeID: "r1", LineIndex: 0, Quantity: &two, Unit: "cups", Name: "flour", RawText: "2 cups flour"},
		{RecipeID: "r1", LineIndex: 1, Name: "1 egg", RawText: "1 egg"},
	}
	if err := repo.ReplaceForRecipe("r1", rows); err != nil {
		t.Fatalf("Failed to replace ingredients: %v", err)
	}

	got, err := repo.GetForRecipe("r1")
	if err != nil {
		t.Fatalf("Failed to get ingredients: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(got))
	}
	if got[0].Quantity == nil || *got[0].Quantity != 2 {
		t.Errorf("Expected quantity 2, got %v", got[0].Quantity)
	}
	if got[1].Quantity != nil {
		t.Errorf("Expected nil quantity, got %v", *got[1].Quantity)
	}

	// Replacement drops the old decomposition entirely
	if err := repo.ReplaceForRecipe("r1", rows[:1]); err != nil {
		t.Fatalf("Failed to replace ingredients: %v", err)
	}
	got, _ = repo.GetForRecipe("r1")
	if len(got) != 1 {
		t.Errorf("Expected 1 row after replacement, got %d", len(got))
	}
}

func TestScheduleRepository_SlotUniqueness(t *testing.T) {
	db := newTestDB(t)
	recipeRepo := NewRecipeRepository(db)
	repo := NewScheduleRepository(db)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	recipeRepo.UpsertRecipe(testRecipe("r1", now))
	recipeRepo.UpsertRecipe(testRecipe("r2", now))

	first := ScheduleEntry{ID: "e1", Date: "2026-08-10", MealType: MealDinner, RecipeID: "r1", CreatedAt: now, UpdatedAt: now}
	replaced, err := repo.UpsertSlot(first)
	if err != nil {
		t.Fatalf("Failed to upsert slot: %v", err)
	}
	if replaced != nil {
		t.Errorf("Expected no replaced entry for empty slot, got %+v", replaced)
	}

	second := ScheduleEntry{ID: "e2", Date: "2026-08-10", MealType: MealDinner, RecipeID: "r2", CreatedAt: now, UpdatedAt: now}
	replaced, err = repo.UpsertSlot(second)
	if err != nil {
		t.Fatalf("Failed to upsert occupied slot: %v", err)
	}
	if replaced == nil || replaced.ID != "e1" {
		t.Fatalf("Expected e1 replaced, got %+v", replaced)
	}

	slot, err := repo.GetSlot("2026-08-10", MealDinner)
	if err != nil {
		t.Fatalf("Failed to get slot: %v", err)
	}
	if slot == nil || slot.RecipeID != "r2" {
		t.Errorf("Expected slot occupied by r2, got %+v", slot)
	}

	// Same recipe on lunch the same day is a different slot
	lunch := ScheduleEntry{ID: "e3", Date: "2026-08-10", MealType: MealLunch, RecipeID: "r1", CreatedAt: now, UpdatedAt: now}
	if _, err := repo.UpsertSlot(lunch); err != nil {
		t.Fatalf("Failed to upsert lunch slot: %v", err)
	}

	entries, err := repo.GetRange("2026-08-10", "2026-08-10")
	if err != nil {
		t.Fatalf("Failed to get range: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 entries on the day, got %d", len(entries))
	}
}

func TestScheduleRepository_CookHistoryExcludesToday(t *testing.T) {
	db := newTestDB(t)
	recipeRepo := NewRecipeRepository(db)
	repo := NewScheduleRepository(db)

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	recipeRepo.UpsertRecipe(testRecipe("r1", now))

	for i, date := range []string{"2026-08-10", "2026-08-25", "2026-08-30"} {
		entry := ScheduleEntry{ID: "e" + string(rune('1'+i)), Date: date, MealType: MealDinner, RecipeID: "r1", CreatedAt: now, UpdatedAt: now}
		if _, err := repo.UpsertSlot(entry); err != nil {
			t.Fatalf("Failed to upsert slot for %s: %v", date, err)
		}
	}

	last, err := repo.LatestCookedDate("r1", "2026-08-30")
	if err != nil {
		t.Fatalf("Failed to get latest cooked date: %v", err)
	}
	if last != "2026-08-25" {
		t.Errorf("Expected 2026-08-25 (today excluded), got %q", last)
	}

	count, err := repo.CountCookedSince("r1", "2026-08-01", "2026-08-30")
	if err != nil {
		t.Fatalf("Failed to count cooked entries: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 cooked entries (today excluded), got %d", count)
	}
}

func TestScheduleRepository_UpsertEntryIfNewerEvictsSlot(t *testing.T) {
	db := newTestDB(t)
	recipeRepo := NewRecipeRepository(db)
	repo := NewScheduleRepository(db)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	recipeRepo.UpsertRecipe(testRecipe("r1", now))
	recipeRepo.UpsertRecipe(testRecipe("r2", now))

	local := ScheduleEntry{ID: "e1", Date: "2026-08-10", MealType: MealDinner, RecipeID: "r1", CreatedAt: now, UpdatedAt: now}
	if _, err := repo.UpsertSlot(local); err != nil {
		t.Fatalf("Failed to upsert slot: %v", err)
	}

	// An inbound entry for the same slot with a different id evicts the
	// local occupant.
	inbound := ScheduleEntry{ID: "e2", Date: "2026-08-10", MealType: MealDinner, RecipeID: "r2", CreatedAt: now, UpdatedAt: now.Add(time.Minute)}
	applied, err := repo.UpsertEntryIfNewer(inbound)
	if err != nil {
		t.Fatalf("Failed conditional upsert: %v", err)
	}
	if !applied {
		t.Fatal("Expected inbound entry to be applied")
	}

	if got, _ := repo.GetEntry("e1"); got != nil {
		t.Errorf("Expected local occupant evicted, got %+v", got)
	}

	// Stale updates to an existing entry are ignored
	stale := inbound
	stale.RecipeID = "r1"
	stale.UpdatedAt = now
	applied, err = repo.UpsertEntryIfNewer(stale)
	if err != nil {
		t.Fatalf("Failed conditional upsert: %v", err)
	}
	if applied {
		t.Error("Expected stale entry to be rejected")
	}
}

func TestSyncQueueRepository_Coalescing(t *testing.T) {
	db := newTestDB(t)
	repo := NewSyncQueueRepository(db)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// update + update -> single item with the latest payload
	if err := repo.Enqueue(EntityRecipe, "r1", OpUpdate, []byte(`{"v":1}`), now); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}
	if err := repo.Enqueue(EntityRecipe, "r1", OpUpdate, []byte(`{"v":2}`), now.Add(time.Second)); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}

	items, err := repo.Pending(10)
	if err != nil {
		t.Fatalf("Failed to get pending items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 coalesced item, got %d", len(items))
	}
	if string(items[0].Payload) != `{"v":2}` {
		t.Errorf("Expected latest payload, got %s", items[0].Payload)
	}
	if items[0].Operation != OpUpdate {
		t.Errorf("Expected update operation, got %s", items[0].Operation)
	}

	// create + update -> create with the latest payload
	if err := repo.Enqueue(EntityRecipe, "r2", OpCreate, []byte(`{"v":1}`), now); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}
	if err := repo.Enqueue(EntityRecipe, "r2", OpUpdate, []byte(`{"v":2}`), now.Add(time.Second)); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}

	items, _ = repo.Pending(10)
	var r2 *SyncQueueItem
	for i := range items {
		if items[i].EntityID == "r2" {
			r2 = &items[i]
		}
	}
	if r2 == nil {
		t.Fatal("Expected queued item for r2")
	}
	if r2.Operation != OpCreate {
		t.Errorf("Expected create operation preserved, got %s", r2.Operation)
	}
	if string(r2.Payload) != `{"v":2}` {
		t.Errorf("Expected latest payload, got %s", r2.Payload)
	}

	// create + delete -> nothing queued at all
	if err := repo.Enqueue(EntityRecipe, "r3", OpCreate, []byte(`{}`), now); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}
	if err := repo.Enqueue(EntityRecipe, "r3", OpDelete, nil, now.Add(time.Second)); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}

	items, _ = repo.Pending(10)
	for _, item := range items {
		if item.EntityID == "r3" {
			t.Errorf("Expected create+delete to vanish, found %+v", item)
		}
	}

	// update + delete -> single delete
	if err := repo.Enqueue(EntityRecipe, "r4", OpUpdate, []byte(`{}`), now); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}
	if err := repo.Enqueue(EntityRecipe, "r4", OpDelete, nil, now.Add(time.Second)); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}

	pendingDelete, err := repo.HasPendingDelete(EntityRecipe, "r4")
	if err != nil {
		t.Fatalf("Failed to check pending delete: %v", err)
	}
	if !pendingDelete {
		t.Error("Expected pending delete for r4")
	}
}

func TestSyncQueueRepository_FifoAndRetries(t *testing.T) {
	db := newTestDB(t)
	repo := NewSyncQueueRepository(db)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"a", "b", "c"} {
		if err := repo.Enqueue(EntityRecipe, id, OpCreate, []byte(`{}`), now); err != nil {
			t.Fatalf("Failed to enqueue %s: %v", id, err)
		}
	}

	items, err := repo.Pending(10)
	if err != nil {
		t.Fatalf("Failed to get pending items: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(items))
	}
	if items[0].EntityID != "a" || items[1].EntityID != "b" || items[2].EntityID != "c" {
		t.Errorf("Expected FIFO order a,b,c, got %s,%s,%s", items[0].EntityID, items[1].EntityID, items[2].EntityID)
	}

	if err := repo.BumpRetry(items[0].ID, "connection refused"); err != nil {
		t.Fatalf("Failed to bump retry: %v", err)
	}

	items, _ = repo.Pending(10)
	if items[0].RetryCount != 1 {
		t.Errorf("Expected retry count 1, got %d", items[0].RetryCount)
	}
	if items[0].LastError != "connection refused" {
		t.Errorf("Expected last error recorded, got %q", items[0].LastError)
	}

	if err := repo.ResetRetries(); err != nil {
		t.Fatalf("Failed to reset retries: %v", err)
	}
	items, _ = repo.Pending(10)
	if items[0].RetryCount != 0 {
		t.Errorf("Expected retry count reset to 0, got %d", items[0].RetryCount)
	}

	if err := repo.Delete(items[0].ID); err != nil {
		t.Fatalf("Failed to delete item: %v", err)
	}
	count, err := repo.Count()
	if err != nil {
		t.Fatalf("Failed to count queue: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 items after delete, got %d", count)
	}
}

func TestSyncMetaRepository_Watermark(t *testing.T) {
	db := newTestDB(t)
	repo := NewSyncMetaRepository(db)

	mark, err := repo.GetWatermark()
	if err != nil {
		t.Fatalf("Failed to get watermark: %v", err)
	}
	if mark != nil {
		t.Errorf("Expected nil watermark before first sync, got %v", mark)
	}

	want := time.Date(2026, 8, 1, 12, 0, 0, 123456789, time.UTC)
	if err := repo.SetWatermark(want); err != nil {
		t.Fatalf("Failed to set watermark: %v", err)
	}

	mark, err = repo.GetWatermark()
	if err != nil {
		t.Fatalf("Failed to get watermark: %v", err)
	}
	if mark == nil || !mark.Equal(want) {
		t.Errorf("Expected watermark %v, got %v", want, mark)
	}
}
