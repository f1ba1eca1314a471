package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"stayhub/internal/checkout"
	"stayhub/internal/config"
	"stayhub/internal/database"
	"stayhub/internal/gateway"
	"stayhub/internal/metrics"
	"stayhub/internal/reports"
	"stayhub/internal/repository"
	"stayhub/internal/service"

	"github.com/rs/zerolog"
)

// HTTPServer — публичный HTTP API: корзина, каталог, бронирования и
// платежный цикл оформления.
type HTTPServer struct {
	cfg      config.APIConfig
	checkout *checkout.Service
	carts    *service.CartService
	bookings *service.BookingService
	hotels   *service.HotelService
	db       *database.DB
	exporter *reports.Exporter
	auth     *HTTPAuth
	server   *http.Server
	log      zerolog.Logger
}

func NewHTTPServer(
	cfg config.APIConfig,
	checkoutSvc *checkout.Service,
	carts *service.CartService,
	bookings *service.BookingService,
	hotels *service.HotelService,
	db *database.DB,
	exporter *reports.Exporter,
	logger *zerolog.Logger,
) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{
		cfg:      cfg,
		checkout: checkoutSvc,
		carts:    carts,
		bookings: bookings,
		hotels:   hotels,
		db:       db,
		exporter: exporter,
		log:      logger.With().Str("component", "http_api").Logger(),
	}
	srv.auth = NewHTTPAuth(cfg)

	mux.HandleFunc("/api/v1/payment/checkout", srv.handleCheckout)
	mux.HandleFunc("/api/v1/payment/create-order", srv.handleCreateOrder)
	mux.HandleFunc("/api/v1/payment/verify", srv.handleVerify)
	mux.HandleFunc("/api/v1/payment/refund", srv.handleRefund)
	mux.HandleFunc("/api/v1/payment/", srv.handlePaymentDetails)

	mux.HandleFunc("/api/v1/cart", srv.handleCart)
	mux.HandleFunc("/api/v1/cart/items", srv.handleCartItems)
	mux.HandleFunc("/api/v1/cart/items/", srv.handleCartItem)

	mux.HandleFunc("/api/v1/hotels", srv.handleHotels)
	mux.HandleFunc("/api/v1/hotels/", srv.handleHotel)

	mux.HandleFunc("/api/v1/bookings", srv.handleBookings)
	mux.HandleFunc("/api/v1/bookings/", srv.handleBooking)

	mux.HandleFunc("/api/v1/stats", srv.handleStats)
	mux.HandleFunc("/api/v1/stats/export", srv.handleStatsExport)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

// Handler возвращает корневой обработчик; используется в тестах.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(metricsEndpoint(r.URL.Path))
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// metricsEndpoint сводит путь к разделу API, чтобы не раздувать
// кардинальность метрик идентификаторами из пути.
func metricsEndpoint(path string) string {
	parts := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 4)
	if len(parts) >= 3 {
		return "/" + strings.Join(parts[:3], "/")
	}
	return path
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

// writeServiceError транслирует доменные ошибки в HTTP статусы. Ошибки
// шлюза и хранилища наружу не раскрываются.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, checkout.ErrCartNotFound),
		errors.Is(err, checkout.ErrPaymentNotFound),
		errors.Is(err, checkout.ErrBookingNotFound),
		errors.Is(err, service.ErrHotelNotFound),
		errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, checkout.ErrCartEmpty),
		errors.Is(err, checkout.ErrInvalidSelection),
		errors.Is(err, checkout.ErrNotRefundable),
		errors.Is(err, service.ErrInvalidDates),
		errors.Is(err, service.ErrNoAvailability),
		errors.Is(err, service.ErrOverCapacity),
		errors.Is(err, service.ErrNotCancellable):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, checkout.ErrSignatureInvalid):
		writeError(w, http.StatusBadRequest, "Payment verification failed")
	case errors.Is(err, repository.ErrVersionConflict):
		writeError(w, http.StatusConflict, "cart was modified concurrently, retry")
	case errors.Is(err, gateway.ErrGateway):
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("gateway call failed")
		writeError(w, http.StatusInternalServerError, "Payment processing failed")
	default:
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
