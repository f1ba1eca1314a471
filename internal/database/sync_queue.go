package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stayhub/internal/models"
)

// CreateCartSyncTaskTx enqueues a cart follow-up inside the checkout
// transaction, so the task commits atomically with the bookings it covers.
func (db *DB) CreateCartSyncTaskTx(ctx context.Context, tx *sql.Tx, task *models.CartSyncTask) error {
	query := `INSERT INTO cart_sync_queue (task_type, user_id, payload, status, retry_count, last_error, created_at, next_retry_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := tx.ExecContext(ctx, query,
		task.TaskType,
		task.UserID,
		task.Payload,
		task.Status,
		task.RetryCount,
		task.LastError,
		now,
		task.NextRetryAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create cart sync task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt = now
	return nil
}

func (db *DB) GetPendingCartSyncTasks(ctx context.Context, limit int) ([]models.CartSyncTask, error) {
	query := `SELECT id, task_type, user_id, payload, status, retry_count, last_error, created_at, processed_at, next_retry_at
              FROM cart_sync_queue
              WHERE status IN ('pending', 'retry') AND (next_retry_at IS NULL OR next_retry_at <= ?)
              ORDER BY created_at ASC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending cart sync tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.CartSyncTask
	for rows.Next() {
		var t models.CartSyncTask
		err := rows.Scan(
			&t.ID, &t.TaskType, &t.UserID, &t.Payload, &t.Status, &t.RetryCount, &t.LastError, &t.CreatedAt, &t.ProcessedAt, &t.NextRetryAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart sync task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (db *DB) UpdateCartSyncTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error {
	var query string
	var args []any
	now := time.Now()

	switch status {
	case "retry":
		query = `UPDATE cart_sync_queue SET status = ?, last_error = ?, next_retry_at = ?, retry_count = retry_count + 1 WHERE id = ?`
		args = []any{status, errMsg, nextRetryAt, id}
	case "completed", "failed":
		query = `UPDATE cart_sync_queue SET status = ?, last_error = ?, next_retry_at = ?, processed_at = ? WHERE id = ?`
		args = []any{status, errMsg, nextRetryAt, &now, id}
	default:
		query = `UPDATE cart_sync_queue SET status = ?, last_error = ?, next_retry_at = ? WHERE id = ?`
		args = []any{status, errMsg, nextRetryAt, id}
	}

	_, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update cart sync task status: %w", err)
	}
	return nil
}
