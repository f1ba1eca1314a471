package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stayhub/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// maxSaveAttempts ограничивает количество повторов при конфликте версий.
const maxSaveAttempts = 5

type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewCartRepository(client *redis.Client, ttl time.Duration, logger *zerolog.Logger) *CartRepository {
	return &CartRepository{
		client: client,
		ttl:    ttl,
		log:    logger.With().Str("component", "cart_repository").Logger(),
	}
}

func cartKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}

// Get возвращает корзину пользователя или ErrNotFound.
// Просроченные позиции отбрасываются при чтении; если после этого корзина
// изменилась, результат сохраняется обратно (best effort).
func (r *CartRepository) Get(ctx context.Context, userID string) (*models.Cart, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, cartKey(userID)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart from redis: %w", err)
	}

	var cart models.Cart
	if err := json.Unmarshal([]byte(val), &cart); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart: %w", err)
	}

	if dropped := cart.DropExpiredItems(time.Now()); dropped > 0 {
		if err := r.Save(ctx, &cart); err != nil {
			// Просрочка будет отброшена снова при следующем чтении.
			r.log.Warn().Err(err).Str("user_id", userID).
				Int("dropped", dropped).Msg("failed to persist expired item cleanup")
		}
	}

	return &cart, nil
}

// GetOrCreate возвращает корзину пользователя, создавая пустую при отсутствии.
// Пустая корзина не записывается в Redis до первого Save.
func (r *CartRepository) GetOrCreate(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := r.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		now := time.Now()
		return &models.Cart{
			UserID:    userID,
			Items:     []models.CartItem{},
			CreatedAt: now,
			UpdatedAt: now,
			ExpiresAt: now.Add(r.ttl),
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// Save записывает корзину с оптимистичной проверкой версии через WATCH.
// Версия в Redis должна совпадать с cart.Version, иначе ErrVersionConflict.
func (r *CartRepository) Save(ctx context.Context, cart *models.Cart) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	key := cartKey(cart.UserID)
	expected := cart.Version

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		if err != nil && err != redis.Nil {
			return fmt.Errorf("failed to get cart from redis: %w", err)
		}
		if err == redis.Nil {
			// Новая корзина может быть записана только с нулевой версией.
			if expected != 0 {
				return ErrVersionConflict
			}
		} else {
			var stored models.Cart
			if err := json.Unmarshal([]byte(val), &stored); err != nil {
				return fmt.Errorf("failed to unmarshal cart: %w", err)
			}
			if stored.Version != expected {
				return ErrVersionConflict
			}
		}

		cart.Version = expected + 1
		cart.UpdatedAt = time.Now()
		cart.ExpiresAt = cart.UpdatedAt.Add(r.ttl)
		cart.CalculateTotal()

		data, err := json.Marshal(cart)
		if err != nil {
			return fmt.Errorf("failed to marshal cart: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		return err
	}, key)

	if err != nil {
		cart.Version = expected
		if errors.Is(err, redis.TxFailedErr) {
			return ErrVersionConflict
		}
		return err
	}
	return nil
}

// Update выполняет read-modify-write с повторами при конфликте версий.
// fn получает актуальную корзину и мутирует ее на месте.
func (r *CartRepository) Update(ctx context.Context, userID string, fn func(cart *models.Cart) error) (*models.Cart, error) {
	var lastErr error
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		cart, err := r.GetOrCreate(ctx, userID)
		if err != nil {
			return nil, err
		}
		if err := fn(cart); err != nil {
			return nil, err
		}
		err = r.Save(ctx, cart)
		if errors.Is(err, ErrVersionConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}
		return cart, nil
	}
	return nil, lastErr
}

// RemoveItems удаляет позиции по id. Уже отсутствующие позиции игнорируются,
// поэтому повторное применение безопасно.
func (r *CartRepository) RemoveItems(ctx context.Context, userID string, itemIDs []string) error {
	_, err := r.Update(ctx, userID, func(cart *models.Cart) error {
		cart.RemoveItems(itemIDs)
		return nil
	})
	return err
}

// Clear удаляет корзину пользователя целиком.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cart from redis: %w", err)
	}
	return nil
}
