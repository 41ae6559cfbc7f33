package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/ladlehq/ladle/app/database"
	"github.com/ladlehq/ladle/app/remote"
)

const (
	pushBatchSize = 50
	cycleTimeout  = 2 * time.Minute
	maxRetryDelay = 30 * time.Second
)

// errRetryScheduled ends a push pass early without entering the error
// state: a transient failure was recorded and a backoff window is set.
var errRetryScheduled = errors.New("retry scheduled")

// Engine drives bidirectional sync between the local store and the remote
// store. Local mutations arrive via Notify, survive restarts in the
// durable queue, and are pushed in FIFO order; remote changes are pulled
// behind a watermark. With a nil client the engine is inert: the app runs
// local-only and every operation short-circuits.
type Engine struct {
	client       RemoteClient
	recipeRepo   *database.RecipeRepository
	scheduleRepo *database.ScheduleRepository
	queueRepo    *database.SyncQueueRepository
	metaRepo     *database.SyncMetaRepository

	interval   time.Duration
	maxRetries int
	now        func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     gosync.WaitGroup
	wake   chan struct{}

	mu           gosync.Mutex
	state        State
	lastError    string
	lastSyncAt   *time.Time
	backoffUntil time.Time
}

// NewEngine creates a sync engine. A nil client puts it in local-only
// mode permanently.
func NewEngine(client RemoteClient, recipeRepo *database.RecipeRepository,
	scheduleRepo *database.ScheduleRepository, queueRepo *database.SyncQueueRepository,
	metaRepo *database.SyncMetaRepository, interval time.Duration, maxRetries int) *Engine {
	ctx, cancel := context.WithCancel(context.Background())

	return &Engine{
		client:       client,
		recipeRepo:   recipeRepo,
		scheduleRepo: scheduleRepo,
		queueRepo:    queueRepo,
		metaRepo:     metaRepo,
		interval:     interval,
		maxRetries:   maxRetries,
		now:          time.Now,
		ctx:          ctx,
		cancel:       cancel,
		wake:         make(chan struct{}, 1),
		state:        StateOffline,
	}
}

// Start launches the background sync loop. No-op in local-only mode.
func (e *Engine) Start() {
	if e.client == nil {
		slog.Info("Sync disabled, running in local-only mode")
		return
	}

	e.wg.Add(1)
	go e.run()
}

// Stop cancels the loop and waits for the in-flight cycle to finish.
func (e *Engine) Stop() {
	e.cancel()
	e.wg.Wait()
}

// Notify records a committed local mutation for outbound sync and wakes
// the loop. The local write has already succeeded; a queueing failure is
// logged, never propagated back into the mutation path.
func (e *Engine) Notify(entityType, entityID, operation string, payload any) {
	if e.client == nil {
		return
	}

	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			slog.Error("Failed to marshal sync payload", "entity_type", entityType, "entity_id", entityID, "error", err)
			return
		}
	}

	if err := e.queueRepo.Enqueue(entityType, entityID, operation, data, e.now().UTC()); err != nil {
		slog.Error("Failed to enqueue sync mutation", "entity_type", entityType, "entity_id", entityID, "error", err)
		return
	}

	e.wakeUp()
}

// ForceSync clears retry counters and backoff and triggers an immediate
// cycle.
func (e *Engine) ForceSync() {
	if e.client == nil {
		return
	}

	if err := e.queueRepo.ResetRetries(); err != nil {
		slog.Error("Failed to reset sync retries", "error", err)
	}

	e.mu.Lock()
	e.backoffUntil = time.Time{}
	e.mu.Unlock()

	e.wakeUp()
}

// Status returns a snapshot of the engine's state and queue depth.
func (e *Engine) Status() Status {
	queueLength := 0
	if e.queueRepo != nil {
		count, err := e.queueRepo.Count()
		if err != nil {
			slog.Error("Failed to get sync queue count", "error", err)
		} else {
			queueLength = count
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return Status{
		State:       e.state,
		LocalOnly:   e.client == nil,
		QueueLength: queueLength,
		LastError:   e.lastError,
		LastSyncAt:  e.lastSyncAt,
	}
}

func (e *Engine) run() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.runCycle()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			e.runCycle()
		case <-e.wake:
			e.runCycle()
		}
	}
}

// runCycle performs one ping, push and pull round.
func (e *Engine) runCycle() {
	e.mu.Lock()
	waiting := e.now().Before(e.backoffUntil)
	e.mu.Unlock()
	if waiting {
		return
	}

	e.setState(StateSyncing, "")

	ctx, cancel := context.WithTimeout(e.ctx, cycleTimeout)
	defer cancel()

	if err := e.client.Ping(ctx); err != nil {
		slog.Debug("Remote store unreachable", "error", err)
		e.setState(StateOffline, "")
		return
	}

	if err := e.pushPending(ctx); err != nil {
		if errors.Is(err, errRetryScheduled) {
			return
		}
		slog.Error("Sync push failed", "error", err)
		e.setState(StateError, err.Error())
		return
	}

	if err := e.pullRemote(ctx); err != nil {
		if remote.IsTransient(err) {
			slog.Warn("Sync pull failed, will retry", "error", err)
			e.setState(StateOffline, "")
		} else {
			slog.Error("Sync pull failed", "error", err)
			e.setState(StateError, err.Error())
		}
		return
	}

	syncedAt := e.now().UTC()
	e.mu.Lock()
	e.state = StateSynced
	e.lastError = ""
	e.lastSyncAt = &syncedAt
	e.backoffUntil = time.Time{}
	e.mu.Unlock()
}

// pushPending drains the outbound queue in FIFO order. Permanent
// rejections drop the item and surface as an error after the pass;
// a transient failure schedules a backoff and ends the pass.
func (e *Engine) pushPending(ctx context.Context) error {
	var rejected error

	for {
		items, err := e.queueRepo.Pending(pushBatchSize)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return rejected
		}

		for _, item := range items {
			err := e.pushItem(ctx, item)
			if err == nil {
				if err := e.queueRepo.Delete(item.ID); err != nil {
					return err
				}
				continue
			}

			if remote.IsPermanent(err) {
				// The remote will never accept this mutation. Keeping it
				// queued would poison everything behind it.
				slog.Error("Sync mutation rejected by remote store, dropping",
					"entity_type", item.EntityType, "entity_id", item.EntityID,
					"operation", item.Operation, "error", err)
				if err := e.queueRepo.Delete(item.ID); err != nil {
					return err
				}
				rejected = fmt.Errorf("remote rejected %s %s of %s: %w",
					item.Operation, item.EntityType, item.EntityID, err)
				continue
			}

			retries := item.RetryCount + 1
			if bumpErr := e.queueRepo.BumpRetry(item.ID, err.Error()); bumpErr != nil {
				return bumpErr
			}

			delay := retryDelay(retries)
			e.mu.Lock()
			e.backoffUntil = e.now().Add(delay)
			e.mu.Unlock()

			if retries >= e.maxRetries {
				// The item stays queued behind the backoff window; only
				// force-sync retries it before the window expires.
				return fmt.Errorf("sync of %s %s failed after %d attempts: %w",
					item.EntityType, item.EntityID, retries, err)
			}

			slog.Warn("Sync push failed, retry scheduled",
				"entity_type", item.EntityType, "entity_id", item.EntityID,
				"retry_count", retries, "max_retries", e.maxRetries,
				"delay", delay.String(), "error", err)
			return errRetryScheduled
		}
	}
}

func (e *Engine) pushItem(ctx context.Context, item database.SyncQueueItem) error {
	switch item.EntityType {
	case database.EntityRecipe:
		if item.Operation == database.OpDelete {
			return e.client.DeleteRecipe(ctx, item.EntityID)
		}

		var payload remote.RecipePayload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			return &remote.Error{Kind: remote.KindPermanent,
				Message: fmt.Sprintf("unreadable queued recipe payload: %v", err), Err: err}
		}

		winner, err := e.client.PushRecipe(ctx, payload)
		if err != nil {
			return err
		}
		if winner != nil {
			return e.applyRecipeConflict(*winner)
		}
		return nil

	case database.EntityScheduleEntry:
		if item.Operation == database.OpDelete {
			return e.client.DeleteScheduleEntry(ctx, item.EntityID)
		}

		var payload remote.ScheduleEntryPayload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			return &remote.Error{Kind: remote.KindPermanent,
				Message: fmt.Sprintf("unreadable queued schedule entry payload: %v", err), Err: err}
		}

		winner, err := e.client.PushScheduleEntry(ctx, payload)
		if err != nil {
			return err
		}
		if winner != nil {
			return e.applyEntryConflict(*winner)
		}
		return nil
	}

	return &remote.Error{Kind: remote.KindPermanent,
		Message: fmt.Sprintf("unknown sync entity type %q", item.EntityType)}
}

// applyRecipeConflict overwrites the local record with the remote winner
// of a lost last-write-wins race.
func (e *Engine) applyRecipeConflict(winner remote.RecipePayload) error {
	applied, err := e.recipeRepo.UpsertRecipeIfNewer(payloadToRecipe(winner))
	if err != nil {
		return err
	}
	if applied {
		slog.Info("Local recipe change lost sync conflict, remote version kept", "recipe_id", winner.ID)
	}
	return nil
}

func (e *Engine) applyEntryConflict(winner remote.ScheduleEntryPayload) error {
	applied, err := e.scheduleRepo.UpsertEntryIfNewer(payloadToEntry(winner))
	if err != nil {
		return err
	}
	if applied {
		slog.Info("Local schedule change lost sync conflict, remote version kept", "entry_id", winner.ID)
	}
	return nil
}

// pullRemote fetches records updated since the watermark and merges them
// with last-write-wins. Entities with a queued local delete are skipped
// so a pull cannot resurrect them.
func (e *Engine) pullRemote(ctx context.Context) error {
	since, err := e.metaRepo.GetWatermark()
	if err != nil {
		return err
	}

	var latest time.Time
	if since != nil {
		latest = *since
	}

	recipes, err := e.client.ListRecipes(ctx, since)
	if err != nil {
		return err
	}

	for _, payload := range recipes {
		if payload.UpdatedAt.After(latest) {
			latest = payload.UpdatedAt
		}

		pendingDelete, err := e.queueRepo.HasPendingDelete(database.EntityRecipe, payload.ID)
		if err != nil {
			return err
		}
		if pendingDelete {
			continue
		}

		if _, err := e.recipeRepo.UpsertRecipeIfNewer(payloadToRecipe(payload)); err != nil {
			return err
		}
	}

	entries, err := e.client.ListScheduleEntries(ctx, since)
	if err != nil {
		return err
	}

	for _, payload := range entries {
		if payload.UpdatedAt.After(latest) {
			latest = payload.UpdatedAt
		}

		pendingDelete, err := e.queueRepo.HasPendingDelete(database.EntityScheduleEntry, payload.ID)
		if err != nil {
			return err
		}
		if pendingDelete {
			continue
		}

		if _, err := e.scheduleRepo.UpsertEntryIfNewer(payloadToEntry(payload)); err != nil {
			return err
		}
	}

	if !latest.IsZero() && (since == nil || latest.After(*since)) {
		if err := e.metaRepo.SetWatermark(latest); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) setState(state State, lastError string) {
	e.mu.Lock()
	e.state = state
	e.lastError = lastError
	e.mu.Unlock()
}

func (e *Engine) wakeUp() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// retryDelay grows exponentially with the retry count, capped.
func retryDelay(retries int) time.Duration {
	delay := time.Duration(1<<uint(retries-1)) * time.Second
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}
