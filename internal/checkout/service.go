package checkout

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stayhub/internal/database"
	"stayhub/internal/events"
	"stayhub/internal/gateway"
	"stayhub/internal/models"
	"stayhub/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CartStore — операции с корзиной, нужные оформлению. Реализуется
// repository.CartRepository.
type CartStore interface {
	Get(ctx context.Context, userID string) (*models.Cart, error)
	RemoveItems(ctx context.Context, userID string, itemIDs []string) error
	Clear(ctx context.Context, userID string) error
}

// Service оформляет заказы: превращает выбранные позиции корзины в
// бронирования и один заказ платежного шлюза, а затем проводит
// подтверждение и возврат платежей (settlement.go).
type Service struct {
	db      *database.DB
	carts   CartStore
	gateway gateway.PaymentGateway
	keyID   string
	bus     *events.EventBus
	log     zerolog.Logger
}

func NewService(db *database.DB, carts CartStore, gw gateway.PaymentGateway, keyID string, bus *events.EventBus, logger *zerolog.Logger) *Service {
	return &Service{
		db:      db,
		carts:   carts,
		gateway: gw,
		keyID:   keyID,
		bus:     bus,
		log:     logger.With().Str("component", "checkout").Logger(),
	}
}

// CheckoutInput — запрос на оформление. Пустой CartItemIDs означает
// оформление всей корзины.
type CheckoutInput struct {
	CartItemIDs     []string
	CustomerName    string
	CustomerEmail   string
	SpecialRequests string
	PromoCode       string
	Totals          DeclaredTotals
}

// BookingSummary — краткая сводка созданного бронирования для ответа.
type BookingSummary struct {
	ID        string  `json:"id"`
	Reference string  `json:"reference"`
	Amount    float64 `json:"amount"`
}

// CheckoutResult — данные рукопожатия со шлюзом, возвращаемые клиенту.
type CheckoutResult struct {
	OrderID        string           `json:"order_id"`
	Amount         int64            `json:"amount"`
	AmountInRupees float64          `json:"amount_in_rupees"`
	Currency       string           `json:"currency"`
	Key            string           `json:"key"`
	Bookings       []BookingSummary `json:"bookings"`
	PaymentID      string           `json:"payment_id"`
	TotalWithGST   float64          `json:"total_with_gst"`
}

// cartSnapshot читает корзину пользователя и возвращает эффективное
// подмножество позиций. Чтение не мутирует сохраненную корзину.
func (s *Service) cartSnapshot(ctx context.Context, userID string, selectedIDs []string) (*models.Cart, []models.CartItem, error) {
	cart, err := s.carts.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrCartNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, nil, ErrCartEmpty
	}

	if len(selectedIDs) == 0 {
		return cart, cart.Items, nil
	}

	want := make(map[string]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		want[id] = true
	}
	var selected []models.CartItem
	for _, item := range cart.Items {
		if want[item.ID] {
			selected = append(selected, item)
		}
	}
	if len(selected) == 0 {
		return nil, nil, ErrInvalidSelection
	}
	return cart, selected, nil
}

// Checkout выполняет полный цикл оформления: снимок корзины, расчет
// сумм, создание бронирований, заказ шлюза и записи платежей в одной
// транзакции. Мутация корзины происходит после коммита; страховкой от
// сбоя между коммитом и мутацией служит задача сверки, записанная тем
// же коммитом.
func (s *Service) Checkout(ctx context.Context, userID string, in CheckoutInput) (*CheckoutResult, error) {
	_, selected, err := s.cartSnapshot(ctx, userID, in.CartItemIDs)
	if err != nil {
		return nil, err
	}

	amounts := CalculateAmounts(selected, in.Totals)
	amountMinor := ToMinorUnits(amounts.FinalTotal)

	var (
		bookings []*models.Booking
		payments []*models.Payment
		order    *gateway.Order
		task     models.CartSyncTask
	)

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		// Одно бронирование на позицию, порядок позиций сохраняется:
		// по нему суммы выравниваются с платежами ниже.
		for _, item := range selected {
			item := withItemDefaults(item)
			booking := &models.Booking{
				UserID:          userID,
				HotelID:         item.HotelID,
				RoomType:        item.RoomType,
				CheckInDate:     item.CheckInDate,
				CheckOutDate:    item.CheckOutDate,
				NumberOfRooms:   item.Rooms,
				NumberOfGuests:  item.Guests,
				TotalAmount:     amounts.ItemShare(item),
				SpecialRequests: in.SpecialRequests,
			}
			if err := s.db.CreateBookingTx(ctx, tx, booking); err != nil {
				return err
			}
			bookings = append(bookings, booking)
		}

		// Заказ шлюза создается на совокупный итог: дрейф округления
		// по позициям не меняет списываемую сумму.
		var err error
		order, err = s.gateway.CreateOrder(ctx, amountMinor, models.DefaultCurrency, newReceipt(), map[string]string{
			"user_id":    userID,
			"name":       in.CustomerName,
			"email":      in.CustomerEmail,
			"promo_code": in.PromoCode,
			"bookings":   fmt.Sprintf("%d", len(bookings)),
		})
		if err != nil {
			return err
		}

		for _, booking := range bookings {
			payment := &models.Payment{
				BookingID:       booking.ID,
				UserID:          userID,
				Amount:          booking.TotalAmount,
				PaymentMethod:   "razorpay",
				RazorpayOrderID: order.ID,
			}
			if err := s.db.CreatePaymentTx(ctx, tx, payment); err != nil {
				return err
			}
			payments = append(payments, payment)
		}

		// Задача сверки коммитится вместе с бронированиями: сбой между
		// коммитом и мутацией корзины не оставит позиции навсегда.
		task = models.CartSyncTask{
			UserID: userID,
			Status: "pending",
		}
		if len(in.CartItemIDs) == 0 {
			task.TaskType = models.CartTaskClear
			task.Payload = "[]"
		} else {
			payload, err := json.Marshal(in.CartItemIDs)
			if err != nil {
				return fmt.Errorf("failed to marshal cart item ids: %w", err)
			}
			task.TaskType = models.CartTaskRemoveItems
			task.Payload = string(payload)
		}
		return s.db.CreateCartSyncTaskTx(ctx, tx, &task)
	})
	if err != nil {
		return nil, err
	}

	s.finishCartMutation(ctx, userID, in.CartItemIDs, task.ID)

	summaries := make([]BookingSummary, 0, len(bookings))
	for _, b := range bookings {
		summaries = append(summaries, BookingSummary{ID: b.ID, Reference: b.BookingReference, Amount: b.TotalAmount})
		s.bus.PublishJSON(events.EventBookingCreated, events.BookingEventPayload{
			BookingID: b.ID,
			UserID:    b.UserID,
			HotelID:   b.HotelID,
			Reference: b.BookingReference,
			Status:    b.Status,
			Amount:    b.TotalAmount,
			CheckIn:   b.CheckInDate,
			CheckOut:  b.CheckOutDate,
		})
	}
	s.bus.PublishJSON(events.EventCheckoutCreated, events.PaymentEventPayload{
		PaymentID: payments[0].ID,
		OrderID:   order.ID,
		UserID:    userID,
		Amount:    amounts.FinalTotal,
		Status:    models.PaymentPending,
		Bookings:  len(bookings),
	})

	s.log.Info().
		Str("user_id", userID).
		Str("order_id", order.ID).
		Int("bookings", len(bookings)).
		Int64("amount_minor", amountMinor).
		Msg("checkout completed")

	return &CheckoutResult{
		OrderID:        order.ID,
		Amount:         amountMinor,
		AmountInRupees: amounts.FinalTotal,
		Currency:       order.Currency,
		Key:            s.keyID,
		Bookings:       summaries,
		PaymentID:      payments[0].ID,
		TotalWithGST:   amounts.FinalTotal,
	}, nil
}

// finishCartMutation применяет мутацию корзины после коммита и закрывает
// задачу сверки. При неудаче задача остается в очереди для воркера.
func (s *Service) finishCartMutation(ctx context.Context, userID string, selectedIDs []string, taskID int64) {
	var err error
	if len(selectedIDs) == 0 {
		err = s.carts.Clear(ctx, userID)
	} else {
		err = s.carts.RemoveItems(ctx, userID, selectedIDs)
	}
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Int64("task_id", taskID).
			Msg("cart mutation failed after commit, reconciliation task left pending")
		return
	}
	if err := s.db.UpdateCartSyncTaskStatus(ctx, taskID, "completed", "", nil); err != nil {
		// Воркер повторит удаление; оно идемпотентно.
		s.log.Warn().Err(err).Int64("task_id", taskID).Msg("failed to close cart sync task")
	}
}

// CreateOrder — вариант для одного существующего бронирования: создает
// заказ шлюза и одну запись платежа в транзакции.
func (s *Service) CreateOrder(ctx context.Context, userID, bookingID string, amount float64) (*CheckoutResult, error) {
	booking, err := s.db.GetPendingBookingForUser(ctx, bookingID, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}

	if amount <= 0 {
		amount = booking.TotalAmount
	}
	amountMinor := ToMinorUnits(amount)

	var (
		order   *gateway.Order
		payment *models.Payment
	)
	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		order, err = s.gateway.CreateOrder(ctx, amountMinor, models.DefaultCurrency, newReceipt(), map[string]string{
			"user_id":    userID,
			"booking_id": booking.ID,
		})
		if err != nil {
			return err
		}

		payment = &models.Payment{
			BookingID:       booking.ID,
			UserID:          userID,
			Amount:          amount,
			PaymentMethod:   "razorpay",
			RazorpayOrderID: order.ID,
		}
		return s.db.CreatePaymentTx(ctx, tx, payment)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", userID).
		Str("booking_id", booking.ID).
		Str("order_id", order.ID).
		Msg("payment order created")

	return &CheckoutResult{
		OrderID:        order.ID,
		Amount:         amountMinor,
		AmountInRupees: amount,
		Currency:       order.Currency,
		Key:            s.keyID,
		Bookings:       []BookingSummary{{ID: booking.ID, Reference: booking.BookingReference, Amount: amount}},
		PaymentID:      payment.ID,
		TotalWithGST:   amount,
	}, nil
}

// withItemDefaults подставляет значения по умолчанию для позиций из
// старых корзин без типа номера или количества. В бронировании номера
// и гости всегда не меньше одного.
func withItemDefaults(item models.CartItem) models.CartItem {
	if item.RoomType == "" {
		item.RoomType = models.DefaultRoomType
	}
	if item.Guests <= 0 {
		item.Guests = models.DefaultGuests
	}
	if item.Rooms <= 0 {
		item.Rooms = models.DefaultRooms
	}
	return item
}

// newReceipt генерирует идентификатор квитанции для заказа шлюза.
func newReceipt() string {
	return fmt.Sprintf("rcpt_%d_%s", time.Now().Unix(), uuid.NewString()[:8])
}
