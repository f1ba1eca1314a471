package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stayhub/internal/database"
	"stayhub/internal/events"
	"stayhub/internal/metrics"
	"stayhub/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// CartMutator применяет мутации корзины. Реализуется
// repository.CartRepository; обе операции идемпотентны, поэтому
// повторная обработка задачи безопасна.
type CartMutator interface {
	RemoveItems(ctx context.Context, userID string, itemIDs []string) error
	Clear(ctx context.Context, userID string) error
}

// CartSyncWorker разгребает очередь сверки корзин: задачи, оставшиеся
// после того, как мутация корзины не прошла вслед за коммитом
// оформления. Очередь лежит в транзакционном хранилище и коммитится
// вместе с бронированиями, поэтому сбой процесса задачу не теряет.
type CartSyncWorker struct {
	db            *database.DB
	carts         CartMutator
	redis         *redis.Client
	retryPolicy   RetryPolicy
	bus           *events.EventBus
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	log           zerolog.Logger
}

func NewCartSyncWorker(db *database.DB, carts CartMutator, redisClient *redis.Client, retry RetryPolicy, bus *events.EventBus, logger *zerolog.Logger) *CartSyncWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &CartSyncWorker{
		db:            db,
		carts:         carts,
		redis:         redisClient,
		retryPolicy:   retry,
		bus:           bus,
		deadLetterKey: "cart_sync:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		log:           logger.With().Str("component", "cart_sync_worker").Logger(),
	}
}

// SetPollInterval переопределяет период опроса очереди; действует до
// вызова Start.
func (w *CartSyncWorker) SetPollInterval(interval time.Duration) {
	if interval > 0 {
		w.pollInterval = interval
	}
}

// Start запускает основной цикл; останавливается по ctx.
func (w *CartSyncWorker) Start(ctx context.Context) {
	w.log.Info().Msg("cart sync worker started")
	defer w.log.Info().Msg("cart sync worker stopped")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.DrainOnce(ctx)
		}
	}
}

// DrainOnce обрабатывает одну партию задач. Вынесено отдельно для
// тестов и для ручного прогона при остановке.
func (w *CartSyncWorker) DrainOnce(ctx context.Context) int {
	tasks, err := w.db.GetPendingCartSyncTasks(ctx, w.batchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("failed to fetch pending cart sync tasks")
		return 0
	}
	for i := range tasks {
		w.processTask(ctx, &tasks[i])
	}
	return len(tasks)
}

func (w *CartSyncWorker) processTask(ctx context.Context, task *models.CartSyncTask) {
	if err := w.applyTask(ctx, task); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.db.UpdateCartSyncTaskStatus(ctx, task.ID, "completed", "", nil); err != nil {
		w.log.Error().Err(err).Int64("task_id", task.ID).Msg("failed to mark task completed")
		return
	}
	metrics.IncCartSync("completed")
	w.bus.PublishJSON(events.EventCartReconciled, map[string]any{
		"task_id":   task.ID,
		"user_id":   task.UserID,
		"task_type": task.TaskType,
	})
	w.log.Info().Int64("task_id", task.ID).Str("user_id", task.UserID).
		Str("task_type", task.TaskType).Msg("cart sync task applied")
}

func (w *CartSyncWorker) applyTask(ctx context.Context, task *models.CartSyncTask) error {
	switch task.TaskType {
	case models.CartTaskClear:
		return w.carts.Clear(ctx, task.UserID)
	case models.CartTaskRemoveItems:
		var itemIDs []string
		if err := json.Unmarshal([]byte(task.Payload), &itemIDs); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		// Уже удаленные позиции пропускаются.
		return w.carts.RemoveItems(ctx, task.UserID, itemIDs)
	default:
		return fmt.Errorf("unknown task type: %s", task.TaskType)
	}
}

func (w *CartSyncWorker) retryOrFail(ctx context.Context, task *models.CartSyncTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		if err := w.db.UpdateCartSyncTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
			w.log.Error().Err(err).Int64("task_id", task.ID).Msg("failed to mark task failed")
		}
		metrics.IncCartSync("failed")
		w.pushDeadLetter(ctx, task)
		return
	}

	nextTime := time.Now().Add(w.retryPolicy.NextDelay(attempt))
	if err := w.db.UpdateCartSyncTaskStatus(ctx, task.ID, "retry", cause.Error(), &nextTime); err != nil {
		w.log.Error().Err(err).Int64("task_id", task.ID).Msg("failed to schedule retry")
	}
	metrics.IncCartSync("retry")
	w.log.Warn().Err(cause).Int64("task_id", task.ID).Int("attempt", attempt).
		Time("next_retry_at", nextTime).Msg("cart sync task will be retried")
}

func (w *CartSyncWorker) pushDeadLetter(ctx context.Context, task *models.CartSyncTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.log.Error().Err(err).Int64("task_id", task.ID).Msg("failed to encode dead letter")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.log.Error().Err(err).Int64("task_id", task.ID).Msg("failed to push dead letter")
	}
}
