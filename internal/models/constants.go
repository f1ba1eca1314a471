package models

import "time"

// Booking lifecycle statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Payment statuses.
const (
	PaymentPending    = "pending"
	PaymentProcessing = "processing"
	PaymentCompleted  = "completed"
	PaymentFailed     = "failed"
	PaymentRefunded   = "refunded"
)

// Booking payment statuses (a booking's view of its payment).
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

const (
	// CartTTL время жизни документа корзины в Redis
	CartTTL = 24 * time.Hour

	// CartItemTTL время жизни отдельной позиции в корзине
	CartItemTTL = 30 * time.Minute

	// DefaultRoomType тип номера по умолчанию, если позиция его не задала
	DefaultRoomType = "Standard"

	// DefaultGuests количество гостей по умолчанию
	DefaultGuests = 2

	// DefaultRooms количество номеров по умолчанию
	DefaultRooms = 1

	// DefaultCurrency валюта по умолчанию
	DefaultCurrency = "INR"

	// GSTRate ставка налога, применяемая при расчете итоговой суммы
	GSTRate = 0.18

	// WorkerQueueSize размер очереди воркера сверки корзин
	WorkerQueueSize = 1000
)
