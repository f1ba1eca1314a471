package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"stayhub/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const hotelIndexKey = "hotels:index"

type HotelRepository struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewHotelRepository(client *redis.Client, logger *zerolog.Logger) *HotelRepository {
	return &HotelRepository{
		client: client,
		log:    logger.With().Str("component", "hotel_repository").Logger(),
	}
}

func hotelKey(hotelID string) string {
	return fmt.Sprintf("hotel:%s", hotelID)
}

// Get возвращает отель по id или ErrNotFound.
func (r *HotelRepository) Get(ctx context.Context, hotelID string) (*models.Hotel, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, hotelKey(hotelID)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hotel from redis: %w", err)
	}

	var hotel models.Hotel
	if err := json.Unmarshal([]byte(val), &hotel); err != nil {
		return nil, fmt.Errorf("failed to unmarshal hotel: %w", err)
	}
	return &hotel, nil
}

// List возвращает все отели из индекса, отсортированные по id.
// Отели, удаленные между SMembers и Get, пропускаются.
func (r *HotelRepository) List(ctx context.Context) ([]models.Hotel, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	ids, err := r.client.SMembers(ctx, hotelIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list hotel index: %w", err)
	}
	sort.Strings(ids)

	hotels := make([]models.Hotel, 0, len(ids))
	for _, id := range ids {
		hotel, err := r.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		hotels = append(hotels, *hotel)
	}
	return hotels, nil
}

// Search возвращает отели, у которых город или название содержит query
// (без учета регистра). Пустой query возвращает все отели.
func (r *HotelRepository) Search(ctx context.Context, query string) ([]models.Hotel, error) {
	hotels, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return hotels, nil
	}
	matched := hotels[:0]
	for _, hotel := range hotels {
		if strings.Contains(strings.ToLower(hotel.Name), query) ||
			strings.Contains(strings.ToLower(hotel.Destination), query) ||
			strings.Contains(strings.ToLower(hotel.Address.City), query) {
			matched = append(matched, hotel)
		}
	}
	return matched, nil
}

// Save записывает отель и добавляет его в индекс. Документы отелей не имеют
// TTL: каталог живет до явного удаления.
func (r *HotelRepository) Save(ctx context.Context, hotel *models.Hotel) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	hotel.UpdatedAt = time.Now()
	data, err := json.Marshal(hotel)
	if err != nil {
		return fmt.Errorf("failed to marshal hotel: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, hotelKey(hotel.ID), data, 0)
	pipe.SAdd(ctx, hotelIndexKey, hotel.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save hotel: %w", err)
	}
	return nil
}

// Delete удаляет отель и его запись в индексе.
func (r *HotelRepository) Delete(ctx context.Context, hotelID string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, hotelKey(hotelID))
	pipe.SRem(ctx, hotelIndexKey, hotelID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete hotel: %w", err)
	}
	return nil
}

// AdjustRoomAvailability изменяет количество доступных номеров данного типа
// на delta. Отрицательный delta резервирует номера, положительный возвращает
// их в пул. Запись защищена WATCH: параллельное изменение повторяется.
func (r *HotelRepository) AdjustRoomAvailability(ctx context.Context, hotelID, roomType string, delta int) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	key := hotelKey(hotelID)

	var lastErr error
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			val, err := tx.Get(ctx, key).Result()
			if err == redis.Nil {
				return ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("failed to get hotel from redis: %w", err)
			}

			var hotel models.Hotel
			if err := json.Unmarshal([]byte(val), &hotel); err != nil {
				return fmt.Errorf("failed to unmarshal hotel: %w", err)
			}

			room := hotel.RoomByType(roomType)
			if room == nil {
				return fmt.Errorf("hotel %s has no rooms of type %q", hotelID, roomType)
			}
			next := room.Availability + delta
			if next < 0 {
				return fmt.Errorf("not enough %q rooms available in hotel %s", roomType, hotelID)
			}
			room.Availability = next
			hotel.UpdatedAt = time.Now()

			data, err := json.Marshal(&hotel)
			if err != nil {
				return fmt.Errorf("failed to marshal hotel: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, 0)
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			lastErr = ErrVersionConflict
			continue
		}
		return err
	}
	return lastErr
}
