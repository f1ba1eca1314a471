package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"stayhub/internal/config"
	"stayhub/internal/repository"

	"github.com/rs/zerolog"
)

// Одноразовая загрузка каталога отелей из config.yaml в Redis. Сервис
// делает то же самое при старте; скрипт нужен для обновления каталога
// без перезапуска.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		configPath = flag.String("config", "configs/config.yaml", "path to config.yaml")
		replace    = flag.Bool("replace", false, "delete hotels missing from config")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if len(cfg.Hotels) == 0 {
		return fmt.Errorf("no hotels in config")
	}

	client := repository.NewRedisClient(cfg.Redis)
	defer repository.Close(client)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := repository.Ping(ctx, client); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	repo := repository.NewHotelRepository(client, &logger)

	known := make(map[string]bool, len(cfg.Hotels))
	for i := range cfg.Hotels {
		hotel := cfg.Hotels[i]
		known[hotel.ID] = true
		if err := repo.Save(ctx, &hotel); err != nil {
			return fmt.Errorf("save hotel %s: %w", hotel.ID, err)
		}
		logger.Info().Str("hotel_id", hotel.ID).Str("name", hotel.Name).Msg("hotel saved")
	}

	if *replace {
		if err := removeStale(ctx, repo, known, &logger); err != nil {
			return err
		}
	}

	logger.Info().Int("count", len(cfg.Hotels)).Msg("catalog seeded")
	return nil
}

func removeStale(ctx context.Context, repo *repository.HotelRepository, known map[string]bool, logger *zerolog.Logger) error {
	existing, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list hotels: %w", err)
	}
	for _, hotel := range existing {
		if known[hotel.ID] {
			continue
		}
		if err := repo.Delete(ctx, hotel.ID); err != nil {
			return fmt.Errorf("delete hotel %s: %w", hotel.ID, err)
		}
		logger.Info().Str("hotel_id", hotel.ID).Msg("stale hotel removed")
	}
	return nil
}
