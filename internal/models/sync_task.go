package models

import "time"

// Cart sync task types.
const (
	CartTaskRemoveItems = "remove_items"
	CartTaskClear       = "clear"
)

// CartSyncTask is a queued follow-up for a cart mutation that could not be
// applied after the checkout transaction committed. The worker re-applies it;
// removals are idempotent so a retry never corrupts the cart.
type CartSyncTask struct {
	ID          int64      `json:"id"`
	TaskType    string     `json:"task_type"`
	UserID      string     `json:"user_id"`
	Payload     string     `json:"payload"` // JSON-encoded item ids for remove_items
	Status      string     `json:"status"`
	RetryCount  int        `json:"retry_count"`
	LastError   *string    `json:"last_error"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at"`
	NextRetryAt *time.Time `json:"next_retry_at"`
}
