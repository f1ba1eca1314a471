package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stayhub/internal/database"
	"stayhub/internal/events"
	"stayhub/internal/models"
	"stayhub/internal/repository"

	"github.com/rs/zerolog"
)

// BookingService — жизненный цикл бронирований вне оформления корзины:
// прямое создание со списанием доступности, просмотр и отмена с ее
// восстановлением. Оформление через корзину инвентарь не трогает.
type BookingService struct {
	db     *database.DB
	hotels *repository.HotelRepository
	bus    *events.EventBus
	log    zerolog.Logger
}

func NewBookingService(db *database.DB, hotels *repository.HotelRepository, bus *events.EventBus, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		db:     db,
		hotels: hotels,
		bus:    bus,
		log:    logger.With().Str("component", "booking_service").Logger(),
	}
}

// CreateBookingInput — запрос на прямое создание бронирования.
type CreateBookingInput struct {
	HotelID         string
	RoomID          string
	CheckInDate     time.Time
	CheckOutDate    time.Time
	Guests          int
	Rooms           int
	SpecialRequests string
}

// CreateBooking резервирует номера и создает бронирование. Списание
// доступности идет первым; при сбое записи оно компенсируется.
func (s *BookingService) CreateBooking(ctx context.Context, userID string, in CreateBookingInput) (*models.Booking, error) {
	nights, err := validateStayDates(in.CheckInDate, in.CheckOutDate)
	if err != nil {
		return nil, err
	}
	if in.Guests <= 0 {
		in.Guests = models.DefaultGuests
	}
	if in.Rooms <= 0 {
		in.Rooms = models.DefaultRooms
	}

	hotel, err := s.hotels.Get(ctx, in.HotelID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrHotelNotFound
	}
	if err != nil {
		return nil, err
	}
	room := hotel.RoomByID(in.RoomID)
	if room == nil {
		return nil, ErrRoomNotFound
	}
	if in.Guests > room.Capacity*in.Rooms {
		return nil, ErrOverCapacity
	}
	if room.Availability < in.Rooms {
		return nil, ErrNoAvailability
	}

	if err := s.hotels.AdjustRoomAvailability(ctx, hotel.ID, room.Type, -in.Rooms); err != nil {
		return nil, fmt.Errorf("failed to reserve rooms: %w", err)
	}

	booking := &models.Booking{
		UserID:          userID,
		HotelID:         hotel.ID,
		RoomType:        room.Type,
		CheckInDate:     in.CheckInDate,
		CheckOutDate:    in.CheckOutDate,
		NumberOfRooms:   in.Rooms,
		NumberOfGuests:  in.Guests,
		TotalAmount:     room.Price * float64(in.Rooms) * float64(nights),
		SpecialRequests: in.SpecialRequests,
	}
	if err := s.db.CreateBooking(ctx, booking); err != nil {
		// Компенсация резерва; при неудаче доступность разойдется до
		// ручной сверки.
		if restoreErr := s.hotels.AdjustRoomAvailability(ctx, hotel.ID, room.Type, in.Rooms); restoreErr != nil {
			s.log.Error().Err(restoreErr).Str("hotel_id", hotel.ID).
				Str("room_type", room.Type).Msg("failed to restore availability after create failure")
		}
		return nil, err
	}

	s.publishBookingEvent(events.EventBookingCreated, booking)
	s.log.Info().Str("booking_id", booking.ID).Str("user_id", userID).
		Str("hotel_id", hotel.ID).Msg("booking created")
	return booking, nil
}

// ListBookings возвращает страницу бронирований пользователя и общее
// число записей под фильтром.
func (s *BookingService) ListBookings(ctx context.Context, userID, status string, page, pageSize int) ([]*models.Booking, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	bookings, err := s.db.GetUserBookings(ctx, userID, status, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.db.CountUserBookings(ctx, userID, status)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// GetBooking возвращает бронирование пользователя.
func (s *BookingService) GetBooking(ctx context.Context, userID, id string) (*models.Booking, error) {
	booking, err := s.db.GetBookingForUser(ctx, id, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// CancelBooking отменяет бронирование и возвращает номера в пул.
// Переход защищен версией: параллельная отмена не пройдет дважды.
func (s *BookingService) CancelBooking(ctx context.Context, userID, id string) (*models.Booking, error) {
	booking, err := s.GetBooking(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !booking.CanTransition() {
		return nil, ErrNotCancellable
	}

	if err := s.db.UpdateBookingStatusWithVersion(ctx, id, booking.Version, models.StatusCancelled); err != nil {
		return nil, err
	}
	booking.Status = models.StatusCancelled
	booking.Version++

	if err := s.hotels.AdjustRoomAvailability(ctx, booking.HotelID, booking.RoomType, booking.NumberOfRooms); err != nil {
		s.log.Error().Err(err).Str("booking_id", id).Str("hotel_id", booking.HotelID).
			Msg("failed to restore availability after cancellation")
	}

	s.publishBookingEvent(events.EventBookingCancelled, booking)
	s.log.Info().Str("booking_id", id).Str("user_id", userID).Msg("booking cancelled")
	return booking, nil
}

func (s *BookingService) publishBookingEvent(eventType string, booking *models.Booking) {
	if s.bus == nil {
		return
	}
	err := s.bus.PublishJSON(eventType, events.BookingEventPayload{
		BookingID: booking.ID,
		UserID:    booking.UserID,
		HotelID:   booking.HotelID,
		Reference: booking.BookingReference,
		Status:    booking.Status,
		Amount:    booking.TotalAmount,
		CheckIn:   booking.CheckInDate,
		CheckOut:  booking.CheckOutDate,
	})
	if err != nil {
		s.log.Error().Err(err).Str("event_type", eventType).
			Str("booking_id", booking.ID).Msg("publish event error")
	}
}
