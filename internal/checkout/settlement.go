package checkout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"stayhub/internal/database"
	"stayhub/internal/events"
	"stayhub/internal/models"
)

// VerifyInput — коллбэк шлюза после оплаты. PaymentID — необязательный
// запасной идентификатор для старых одиночных платежей.
type VerifyInput struct {
	OrderID          string
	GatewayPaymentID string
	Signature        string
	PaymentID        string
}

// SettledBooking — бронирование, подтвержденное при расчете.
type SettledBooking struct {
	BookingID string  `json:"booking_id"`
	Amount    float64 `json:"amount"`
}

// SettlementResult — итог подтверждения платежа.
type SettlementResult struct {
	BookingCount int              `json:"booking_count"`
	Bookings     []SettledBooking `json:"bookings"`
}

// VerifyAndSettle проверяет подпись коллбэка и переводит все платежи
// заказа вместе с их бронированиями в оплаченное состояние одной
// транзакцией. Повторный вызов с тем же корректным payload заново
// применяет то же терминальное состояние и завершается успехом;
// платежи, уже возвращенные или проваленные, повтор не трогает.
func (s *Service) VerifyAndSettle(ctx context.Context, userID string, in VerifyInput) (*SettlementResult, error) {
	if !s.gateway.VerifySignature(in.OrderID, in.GatewayPaymentID, in.Signature) {
		s.log.Warn().Str("order_id", in.OrderID).Str("user_id", userID).
			Msg("payment callback signature mismatch")
		return nil, ErrSignatureInvalid
	}

	// Один заказ шлюза покрывает несколько платежей (по одному на
	// бронирование); расчет всегда идет по полному набору.
	payments, err := s.db.GetPaymentsByOrderID(ctx, in.OrderID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments for order: %w", err)
	}
	if len(payments) == 0 && in.PaymentID != "" {
		payment, err := s.db.GetPaymentForUser(ctx, in.PaymentID, userID)
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	if len(payments) == 0 {
		return nil, ErrPaymentNotFound
	}

	settled := make([]SettledBooking, 0, len(payments))
	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, payment := range payments {
			// Возврат и провал терминальны: запоздавший повтор коллбэка
			// не воскрешает возвращенный платеж.
			if payment.Status == models.PaymentRefunded || payment.Status == models.PaymentFailed {
				continue
			}
			if err := s.db.MarkPaymentCompletedTx(ctx, tx, payment.ID, in.GatewayPaymentID, in.Signature); err != nil {
				return err
			}
			if err := s.db.MarkBookingPaidTx(ctx, tx, payment.BookingID); err != nil {
				return err
			}
			settled = append(settled, SettledBooking{BookingID: payment.BookingID, Amount: payment.Amount})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(settled) > 0 {
		s.bus.PublishJSON(events.EventPaymentSettled, events.PaymentEventPayload{
			PaymentID: payments[0].ID,
			OrderID:   in.OrderID,
			UserID:    userID,
			Status:    models.PaymentCompleted,
			Bookings:  len(settled),
		})
	}

	s.log.Info().
		Str("order_id", in.OrderID).
		Str("user_id", userID).
		Int("payments", len(settled)).
		Msg("payment settled")

	return &SettlementResult{BookingCount: len(settled), Bookings: settled}, nil
}

// RefundResult — итог возврата платежа.
type RefundResult struct {
	RefundID string `json:"refund_id"`
}

// Refund возвращает завершенный платеж: сначала возврат на стороне
// шлюза, затем перевод платежа и бронирования в возвращенное состояние
// одной транзакцией. Сбой шлюза не оставляет частичного состояния.
func (s *Service) Refund(ctx context.Context, userID, paymentID, reason string) (*RefundResult, error) {
	payment, err := s.db.GetPaymentForUser(ctx, paymentID, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentCompleted {
		return nil, ErrNotRefundable
	}

	refund, err := s.gateway.Refund(ctx, payment.RazorpayPaymentID, ToMinorUnits(payment.Amount), map[string]string{
		"reason":     reason,
		"payment_id": payment.ID,
	})
	if err != nil {
		return nil, err
	}

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.db.MarkPaymentRefundedTx(ctx, tx, payment, refund.ID, reason); err != nil {
			return err
		}
		return s.db.MarkBookingRefundedTx(ctx, tx, payment.BookingID)
	})
	if err != nil {
		return nil, err
	}

	s.bus.PublishJSON(events.EventPaymentRefunded, events.PaymentEventPayload{
		PaymentID: payment.ID,
		OrderID:   payment.RazorpayOrderID,
		UserID:    userID,
		Amount:    payment.Amount,
		Status:    models.PaymentRefunded,
	})

	s.log.Info().
		Str("payment_id", payment.ID).
		Str("refund_id", refund.ID).
		Str("user_id", userID).
		Msg("payment refunded")

	return &RefundResult{RefundID: refund.ID}, nil
}

// PaymentDetails возвращает платеж пользователя для страницы статуса.
func (s *Service) PaymentDetails(ctx context.Context, userID, paymentID string) (*models.Payment, error) {
	payment, err := s.db.GetPaymentForUser(ctx, paymentID, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return payment, nil
}
