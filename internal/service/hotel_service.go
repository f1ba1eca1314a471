package service

import (
	"context"
	"errors"
	"strings"

	"stayhub/internal/models"
	"stayhub/internal/repository"

	"github.com/rs/zerolog"
)

// HotelService — витрина каталога: список с фильтром по направлению и
// постраничной выдачей, карточка отеля. Каталог read-only.
type HotelService struct {
	hotels *repository.HotelRepository
	log    zerolog.Logger
}

func NewHotelService(hotels *repository.HotelRepository, logger *zerolog.Logger) *HotelService {
	return &HotelService{
		hotels: hotels,
		log:    logger.With().Str("component", "hotel_service").Logger(),
	}
}

// ListHotels возвращает страницу активных отелей и общее число
// совпадений. destination фильтрует по направлению/городу/названию.
func (s *HotelService) ListHotels(ctx context.Context, destination string, page, pageSize int) ([]models.Hotel, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	matched, err := s.hotels.Search(ctx, strings.TrimSpace(destination))
	if err != nil {
		return nil, 0, err
	}

	active := matched[:0]
	for _, hotel := range matched {
		if hotel.Active {
			active = append(active, hotel)
		}
	}

	total := len(active)
	start := (page - 1) * pageSize
	if start >= total {
		return []models.Hotel{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return active[start:end], total, nil
}

// GetHotel возвращает карточку отеля.
func (s *HotelService) GetHotel(ctx context.Context, id string) (*models.Hotel, error) {
	hotel, err := s.hotels.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrHotelNotFound
	}
	if err != nil {
		return nil, err
	}
	return hotel, nil
}
