package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"stayhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartSyncQueue(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	task := &models.CartSyncTask{
		TaskType: models.CartTaskRemoveItems,
		UserID:   "user-1",
		Payload:  `["item-1","item-2"]`,
		Status:   "pending",
	}
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		return db.CreateCartSyncTaskTx(ctx, tx, task)
	})
	require.NoError(t, err)
	require.NotZero(t, task.ID)

	t.Run("PendingTasksVisible", func(t *testing.T) {
		tasks, err := db.GetPendingCartSyncTasks(ctx, 10)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, models.CartTaskRemoveItems, tasks[0].TaskType)
		assert.Equal(t, "user-1", tasks[0].UserID)
	})

	t.Run("RetryScheduledInFuture", func(t *testing.T) {
		next := time.Now().Add(time.Hour)
		err := db.UpdateCartSyncTaskStatus(ctx, task.ID, "retry", "redis unavailable", &next)
		require.NoError(t, err)

		tasks, err := db.GetPendingCartSyncTasks(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, tasks, "future retries must not be picked up yet")
	})

	t.Run("Completed", func(t *testing.T) {
		err := db.UpdateCartSyncTaskStatus(ctx, task.ID, "completed", "", nil)
		require.NoError(t, err)

		tasks, err := db.GetPendingCartSyncTasks(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})
}

func TestDB_ErrorPaths(t *testing.T) {
	db := setupTestDB(t)
	db.Close() // closed handle forces errors

	ctx := context.Background()

	t.Run("GetBooking", func(t *testing.T) {
		_, err := db.GetBooking(ctx, "id")
		assert.Error(t, err)
	})

	t.Run("CreateBooking", func(t *testing.T) {
		err := db.CreateBooking(ctx, testBooking("u", 1))
		assert.Error(t, err)
	})

	t.Run("GetPaymentsByOrderID", func(t *testing.T) {
		_, err := db.GetPaymentsByOrderID(ctx, "order", "u")
		assert.Error(t, err)
	})

	t.Run("GetPendingCartSyncTasks", func(t *testing.T) {
		_, err := db.GetPendingCartSyncTasks(ctx, 10)
		assert.Error(t, err)
	})

	t.Run("GetStats", func(t *testing.T) {
		_, err := db.GetStats(ctx)
		assert.Error(t, err)
	})
}
