package gateway

import (
	"context"
	"errors"
	"time"
)

// ErrGateway оборачивает любую ошибку внешнего платежного провайдера.
var ErrGateway = errors.New("payment gateway error")

// Order — заказ, созданный на стороне провайдера. Amount всегда в минорных
// единицах валюты (пайсы для INR).
type Order struct {
	ID        string            `json:"id"`
	Amount    int64             `json:"amount"`
	Currency  string            `json:"currency"`
	Receipt   string            `json:"receipt"`
	Status    string            `json:"status"`
	Notes     map[string]string `json:"notes,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Refund — возврат, выполненный провайдером.
type Refund struct {
	ID        string            `json:"id"`
	PaymentID string            `json:"payment_id"`
	Amount    int64             `json:"amount"`
	Currency  string            `json:"currency"`
	Status    string            `json:"status"`
	Notes     map[string]string `json:"notes,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// PaymentGateway абстрагирует платежного провайдера. Реализация для
// Razorpay живет в razorpay.go; тесты используют фейк.
type PaymentGateway interface {
	// CreateOrder создает заказ на сумму amount в минорных единицах.
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*Order, error)

	// Refund возвращает amount минорных единиц по платежу провайдера.
	Refund(ctx context.Context, paymentID string, amount int64, notes map[string]string) (*Refund, error)

	// VerifySignature проверяет подпись провайдера над парой
	// (orderID, paymentID).
	VerifySignature(orderID, paymentID, signature string) bool
}
