package repository

import (
	"context"
	"errors"
	"fmt"

	"stayhub/internal/config"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound возвращается, когда документа нет в Redis.
var ErrNotFound = errors.New("document not found")

// ErrVersionConflict возвращается, когда документ был изменен параллельно
// между чтением и записью.
var ErrVersionConflict = errors.New("document was modified concurrently")

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	client := redis.NewClient(options)

	return client
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
