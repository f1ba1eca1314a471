package models

import "time"

type Payment struct {
	ID                string         `json:"id"`
	BookingID         string         `json:"booking_id"`
	UserID            string         `json:"user_id"`
	Amount            float64        `json:"amount"`
	Currency          string         `json:"currency"`
	PaymentMethod     string         `json:"payment_method"`
	TransactionID     string         `json:"transaction_id"`
	RazorpayOrderID   string         `json:"razorpay_order_id"`
	RazorpayPaymentID string         `json:"razorpay_payment_id"`
	RazorpaySignature string         `json:"razorpay_signature"`
	Status            string         `json:"status"` // pending, processing, completed, failed, refunded
	Metadata          map[string]any `json:"metadata"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}
