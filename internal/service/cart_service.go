package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stayhub/internal/models"
	"stayhub/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CartService обслуживает CRUD корзины: позиции проверяются против
// каталога, стоимость строки всегда пересчитывается на сервере.
type CartService struct {
	carts  *repository.CartRepository
	hotels *repository.HotelRepository
	log    zerolog.Logger
}

func NewCartService(carts *repository.CartRepository, hotels *repository.HotelRepository, logger *zerolog.Logger) *CartService {
	return &CartService{
		carts:  carts,
		hotels: hotels,
		log:    logger.With().Str("component", "cart_service").Logger(),
	}
}

// AddItemInput — запрос на добавление позиции в корзину.
type AddItemInput struct {
	HotelID      string
	RoomID       string
	CheckInDate  time.Time
	CheckOutDate time.Time
	Guests       int
	Rooms        int
}

// GetCart возвращает корзину пользователя; отсутствующая корзина
// отдается пустой.
func (s *CartService) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	return s.carts.GetOrCreate(ctx, userID)
}

// AddItem проверяет даты, вместимость и доступность, пересчитывает
// стоимость строки и добавляет позицию в корзину.
func (s *CartService) AddItem(ctx context.Context, userID string, in AddItemInput) (*models.Cart, error) {
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

	item := models.CartItem{
		ID:           uuid.NewString(),
		HotelID:      hotel.ID,
		HotelName:    hotel.Name,
		RoomID:       room.RoomID,
		RoomName:     room.Name,
		RoomType:     room.Type,
		CheckInDate:  in.CheckInDate,
		CheckOutDate: in.CheckOutDate,
		Guests:       in.Guests,
		Rooms:        in.Rooms,
		Price:        room.Price,
		Nights:       nights,
		TotalPrice:   room.Price * float64(in.Rooms) * float64(nights),
		AddedAt:      time.Now(),
	}

	cart, err := s.carts.Update(ctx, userID, func(cart *models.Cart) error {
		cart.Items = append(cart.Items, item)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	s.log.Info().Str("user_id", userID).Str("hotel_id", hotel.ID).
		Str("room_id", room.RoomID).Int("nights", nights).Msg("cart item added")
	return cart, nil
}

// UpdateItem меняет число гостей и номеров позиции и пересчитывает
// стоимость строки.
func (s *CartService) UpdateItem(ctx context.Context, userID, itemID string, guests, rooms int) (*models.Cart, error) {
	cart, err := s.carts.Update(ctx, userID, func(cart *models.Cart) error {
		item := cart.ItemByID(itemID)
		if item == nil {
			return ErrItemNotFound
		}
		if guests > 0 {
			item.Guests = guests
		}
		if rooms > 0 {
			item.Rooms = rooms
		}
		item.TotalPrice = item.Price * float64(item.Rooms) * float64(item.Nights)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem удаляет позицию из корзины.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID string) (*models.Cart, error) {
	cart, err := s.carts.Update(ctx, userID, func(cart *models.Cart) error {
		if cart.ItemByID(itemID) == nil {
			return ErrItemNotFound
		}
		cart.RemoveItems([]string{itemID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// Clear опустошает корзину пользователя.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	return s.carts.Clear(ctx, userID)
}

// validateStayDates возвращает число ночей или ошибку валидации.
func validateStayDates(checkIn, checkOut time.Time) (int, error) {
	if checkIn.IsZero() || checkOut.IsZero() {
		return 0, ErrInvalidDates
	}
	if !checkOut.After(checkIn) {
		return 0, ErrInvalidDates
	}
	today := time.Now().Truncate(24 * time.Hour)
	if checkIn.Before(today) {
		return 0, ErrInvalidDates
	}
	nights := int(checkOut.Sub(checkIn).Hours() / 24)
	if nights < 1 {
		nights = 1
	}
	return nights, nil
}
