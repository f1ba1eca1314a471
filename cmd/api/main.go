package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"stayhub/internal/api"
	"stayhub/internal/checkout"
	"stayhub/internal/config"
	"stayhub/internal/database"
	"stayhub/internal/events"
	"stayhub/internal/gateway"
	"stayhub/internal/logging"
	"stayhub/internal/metrics"
	"stayhub/internal/models"
	"stayhub/internal/reports"
	"stayhub/internal/repository"
	"stayhub/internal/service"
	"stayhub/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := repository.NewRedisClient(cfg.Redis)
	defer repository.Close(redisClient)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Error().Err(err).Str("addr", cfg.Redis.Address).Msg("redis unavailable")
		return err
	}

	cartRepo := repository.NewCartRepository(redisClient, models.CartTTL, &logger)
	hotelRepo := repository.NewHotelRepository(redisClient, &logger)
	if err := seedHotels(ctx, hotelRepo, cfg.Hotels, &logger); err != nil {
		return err
	}

	eventBus := events.NewEventBus()
	subscribeEventLogger(eventBus, &logger)

	razorpay := gateway.NewRazorpayGateway(cfg.Razorpay, &logger)
	checkoutSvc := checkout.NewService(db, cartRepo, razorpay, cfg.Razorpay.KeyID, eventBus, &logger)
	cartSvc := service.NewCartService(cartRepo, hotelRepo, &logger)
	bookingSvc := service.NewBookingService(db, hotelRepo, eventBus, &logger)
	hotelSvc := service.NewHotelService(hotelRepo, &logger)
	exporter := reports.NewExporter(db, cfg.Exports, &logger)

	if cfg.Worker.Enabled {
		retry := worker.CartSyncRetryPolicy(cfg.Worker.MaxRetries)
		cartWorker := worker.NewCartSyncWorker(db, cartRepo, redisClient, retry, eventBus, &logger)
		cartWorker.SetPollInterval(time.Duration(cfg.Worker.PollIntervalSeconds) * time.Second)
		go cartWorker.Start(ctx)
	}

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	startMetrics(ctx, cfg, &logger)

	httpServer := api.NewHTTPServer(cfg.API, checkoutSvc, cartSvc, bookingSvc, hotelSvc, db, exporter, &logger)
	return startServer(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для базы данных")
		return err
	}
	if cfg.Exports.Path != "" {
		if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
			logger.Error().Err(err).Msg("Ошибка создания директории для экспорта")
			return err
		}
	}
	return nil
}

// seedHotels загружает каталог из конфигурации в Redis при старте.
// Существующие отели перезаписываются, остатки берутся из конфига.
func seedHotels(ctx context.Context, repo *repository.HotelRepository, hotels []models.Hotel, logger *zerolog.Logger) error {
	for i := range hotels {
		hotel := hotels[i]
		if err := repo.Save(ctx, &hotel); err != nil {
			logger.Error().Err(err).Str("hotel_id", hotel.ID).Msg("Ошибка загрузки отеля в каталог")
			return err
		}
	}
	logger.Info().Int("count", len(hotels)).Msg("Каталог отелей загружен")
	return nil
}

func subscribeEventLogger(bus *events.EventBus, logger *zerolog.Logger) {
	eventLog := logger.With().Str("component", "events").Logger()
	for _, eventType := range []string{
		events.EventBookingCreated,
		events.EventBookingCancelled,
		events.EventCheckoutCreated,
		events.EventPaymentSettled,
		events.EventPaymentRefunded,
		events.EventCartReconciled,
	} {
		bus.Subscribe(eventType, func(event *events.Event) error {
			eventLog.Info().Str("type", event.Type).RawJSON("payload", event.Payload).Msg("event")
			return nil
		})
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}
