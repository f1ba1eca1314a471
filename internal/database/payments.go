package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"stayhub/internal/models"

	"github.com/google/uuid"
)

const paymentColumns = `id, booking_id, user_id, amount, currency, payment_method,
                 transaction_id, razorpay_order_id, razorpay_payment_id, razorpay_signature,
                 status, metadata, created_at, updated_at`

// CreatePaymentTx inserts a payment record inside the caller's transaction.
func (db *DB) CreatePaymentTx(ctx context.Context, tx *sql.Tx, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.Currency == "" {
		payment.Currency = models.DefaultCurrency
	}
	if payment.Status == "" {
		payment.Status = models.PaymentPending
	}
	if payment.Metadata == nil {
		payment.Metadata = map[string]any{}
	}

	metadata, err := json.Marshal(payment.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal payment metadata: %w", err)
	}

	query := `INSERT INTO payments (
				id, booking_id, user_id, amount, currency, payment_method,
				transaction_id, razorpay_order_id, razorpay_payment_id, razorpay_signature,
				status, metadata, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	_, err = tx.ExecContext(ctx, query,
		payment.ID,
		payment.BookingID,
		payment.UserID,
		payment.Amount,
		payment.Currency,
		payment.PaymentMethod,
		payment.TransactionID,
		payment.RazorpayOrderID,
		payment.RazorpayPaymentID,
		payment.RazorpaySignature,
		payment.Status,
		string(metadata),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	payment.CreatedAt = now
	payment.UpdatedAt = now
	return nil
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	var p models.Payment
	var transactionID, orderID, paymentID, signature sql.NullString
	var metadata string
	err := row.Scan(
		&p.ID, &p.BookingID, &p.UserID, &p.Amount, &p.Currency, &p.PaymentMethod,
		&transactionID, &orderID, &paymentID, &signature,
		&p.Status, &metadata, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.TransactionID = transactionID.String
	p.RazorpayOrderID = orderID.String
	p.RazorpayPaymentID = paymentID.String
	p.RazorpaySignature = signature.String

	if err := json.Unmarshal([]byte(metadata), &p.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payment metadata: %w", err)
	}
	return &p, nil
}

func (db *DB) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = ?`
	payment, err := scanPayment(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

// GetPaymentForUser returns the payment only when it belongs to userID.
func (db *DB) GetPaymentForUser(ctx context.Context, id, userID string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = ? AND user_id = ?`
	payment, err := scanPayment(db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

// GetPaymentsByOrderID returns every payment created under one gateway order
// for the given user. Checkout fans one order out into a payment per booking,
// so settlement must always operate on the full set.
func (db *DB) GetPaymentsByOrderID(ctx context.Context, orderID, userID string) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE razorpay_order_id = ? AND user_id = ? ORDER BY created_at, id`
	rows, err := db.QueryContext(ctx, query, orderID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments by order id: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// MarkPaymentCompletedTx records the gateway handshake result and flips the
// payment to completed within the settlement transaction.
func (db *DB) MarkPaymentCompletedTx(ctx context.Context, tx *sql.Tx, id, gatewayPaymentID, signature string) error {
	query := `UPDATE payments
              SET razorpay_payment_id = ?, razorpay_signature = ?, transaction_id = ?, status = ?, updated_at = ?
              WHERE id = ?`
	result, err := tx.ExecContext(ctx, query, gatewayPaymentID, signature, gatewayPaymentID, models.PaymentCompleted, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark payment completed: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkPaymentRefundedTx flips the payment to refunded and merges refund
// bookkeeping into the metadata bag, within the refund transaction.
func (db *DB) MarkPaymentRefundedTx(ctx context.Context, tx *sql.Tx, payment *models.Payment, refundID, reason string) error {
	if payment.Metadata == nil {
		payment.Metadata = map[string]any{}
	}
	payment.Metadata["refund_id"] = refundID
	payment.Metadata["refund_reason"] = reason
	payment.Metadata["refunded_at"] = time.Now().Format(time.RFC3339)

	metadata, err := json.Marshal(payment.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal refund metadata: %w", err)
	}

	query := `UPDATE payments SET status = ?, metadata = ?, updated_at = ? WHERE id = ?`
	result, err := tx.ExecContext(ctx, query, models.PaymentRefunded, string(metadata), time.Now(), payment.ID)
	if err != nil {
		return fmt.Errorf("failed to mark payment refunded: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	payment.Status = models.PaymentRefunded
	return nil
}
