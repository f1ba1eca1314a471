package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stayhub/internal/checkout"
	"stayhub/internal/config"
	"stayhub/internal/database"
	"stayhub/internal/events"
	"stayhub/internal/gateway"
	"stayhub/internal/models"
	"stayhub/internal/reports"
	"stayhub/internal/repository"
	"stayhub/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "test_secret"
	keyUserOne   = "key-user-1"
	keyUserTwo   = "key-user-2"
	keyReadOnly  = "key-read-only"
	testCheckIn  = 30
	testNights   = 2
	testRoomRate = 3000.0
)

// fakeGateway подписывает заказы реальным HMAC, чтобы verify проходил
// полный путь.
type fakeGateway struct {
	secret     string
	orders     int
	refunds    int
	failCreate bool
	failRefund bool
}

func (g *fakeGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string, _ map[string]string) (*gateway.Order, error) {
	if g.failCreate {
		return nil, fmt.Errorf("%w: boom", gateway.ErrGateway)
	}
	g.orders++
	return &gateway.Order{
		ID:       fmt.Sprintf("order_%d", g.orders),
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}, nil
}

func (g *fakeGateway) Refund(_ context.Context, paymentID string, _ int64, _ map[string]string) (*gateway.Refund, error) {
	if g.failRefund {
		return nil, fmt.Errorf("%w: boom", gateway.ErrGateway)
	}
	g.refunds++
	return &gateway.Refund{ID: fmt.Sprintf("rfnd_%d", g.refunds), PaymentID: paymentID}, nil
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return signature == g.sign(orderID, paymentID)
}

func (g *fakeGateway) sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

type apiFixture struct {
	handler http.Handler
	db      *database.DB
	gw      *fakeGateway
}

func testAPIConfig() config.APIConfig {
	return config.APIConfig{
		Enabled: true,
		HTTP:    config.APIHTTPConfig{Enabled: true, Port: 0},
		Auth: config.APIAuthConfig{
			Enabled:      true,
			HeaderAPIKey: "x-api-key",
			APIKeys: []config.APIClientKey{
				{Key: keyUserOne, Name: "first", UserID: "user-1"},
				{Key: keyUserTwo, Name: "second", UserID: "user-2"},
				{Key: keyReadOnly, Name: "reader", UserID: "user-3", Permissions: []string{"read:hotels"}},
			},
		},
	}
}

func newAPIFixture(t *testing.T, cfg config.APIConfig) *apiFixture {
	t.Helper()
	logger := zerolog.New(io.Discard)

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })

	carts := repository.NewCartRepository(client, models.CartTTL, &logger)
	hotels := repository.NewHotelRepository(client, &logger)
	require.NoError(t, hotels.Save(context.Background(), testHotel()))

	bus := events.NewEventBus()
	gw := &fakeGateway{secret: testSecret}

	checkoutSvc := checkout.NewService(db, carts, gw, "rzp_test_key", bus, &logger)
	cartSvc := service.NewCartService(carts, hotels, &logger)
	bookingSvc := service.NewBookingService(db, hotels, bus, &logger)
	hotelSvc := service.NewHotelService(hotels, &logger)
	exporter := reports.NewExporter(db, config.ExportConfig{Path: t.TempDir()}, &logger)

	srv := NewHTTPServer(cfg, checkoutSvc, cartSvc, bookingSvc, hotelSvc, db, exporter, &logger)
	return &apiFixture{handler: srv.Handler(), db: db, gw: gw}
}

func testHotel() *models.Hotel {
	return &models.Hotel{
		ID:          "hotel-1",
		Name:        "Grand Palace",
		Destination: "Mumbai",
		Active:      true,
		Rooms: []models.Room{
			{RoomID: "room-std", Name: "Standard Room", Type: "Standard", Price: testRoomRate, Capacity: 2, Availability: 5},
			{RoomID: "room-dlx", Name: "Deluxe Suite", Type: "deluxe", Price: 5500, Capacity: 3, Availability: 2},
		},
	}
}

func doRequest(t *testing.T, handler http.Handler, method, path, apiKey string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func stayDates(nights int) (string, string) {
	checkIn := time.Now().AddDate(0, 0, testCheckIn)
	checkOut := checkIn.AddDate(0, 0, nights)
	return checkIn.Format(dateLayout), checkOut.Format(dateLayout)
}

func addCartItem(t *testing.T, f *apiFixture, apiKey, roomID string) {
	t.Helper()
	checkIn, checkOut := stayDates(testNights)
	rec := doRequest(t, f.handler, http.MethodPost, "/api/v1/cart/items", apiKey, map[string]any{
		"hotelId":      "hotel-1",
		"roomId":       roomID,
		"checkInDate":  checkIn,
		"checkOutDate": checkOut,
		"guests":       2,
		"rooms":        1,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestAuth(t *testing.T) {
	f := newAPIFixture(t, testAPIConfig())

	t.Run("MissingKey", func(t *testing.T) {
		rec := doRequest(t, f.handler, http.MethodGet, "/api/v1/hotels", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("InvalidKey", func(t *testing.T) {
		rec := doRequest(t, f.handler, http.MethodGet, "/api/v1/hotels", "bogus", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("PermissionDenied", func(t *testing.T) {
		rec := doRequest(t, f.handler, http.MethodGet, "/api/v1/cart", keyReadOnly, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("PermittedScope", func(t *testing.T) {
		rec := doRequest(t, f.handler, http.MethodGet, "/api/v1/hotels", keyReadOnly, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("FullAccessKey", func(t *testing.T) {
		rec := doRequest(t, f.handler, http.MethodGet, "/api/v1/cart", keyUserOne, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRateLimit(t *testing.T) {
	cfg := testAPIConfig()
	cfg.RateLimit = config.APIRateLimitConfig{RPS: 0.001, Burst: 1}
	f := newAPIFixture(t, cfg)

	rec := doRequest(t, f.handler, http.MethodGet, "/api/v1/hotels", keyUserOne, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, f.handler, http.MethodGet, "/api/v1/hotels", keyUserOne, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Лимит считается на ключ, второй клиент не задет
	rec = doRequest(t, f.handler, http.MethodGet, "/api/v1/hotels", keyUserTwo, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHotelEndpoints(t *testing.T) {
	f := newAPIFixture(t, testAPIConfig())

	t.Run("List", func(t *testing.T) {
		rec := doRequest(t, f.handler, http.MethodGet, "/api/v1/hotels", keyUserOne, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, float64(1), body["total"])
	})

	t.Run("DestinationFilterMiss", func(t *testing.T) {
		rec := doRequest(t, f.handler, http.MethodGet, "/api/v1/hotels?destination=antarctica", keyUserOne, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, float64(0), body["total"])
	})

	t.Run("GetByID", func(t *testing.T) {
		rec := doRequest(t, f.handler, http.MethodGet, "/api/v1/hotels/hotel-1", keyUserOne, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Grand Palace", body["name"])
	})

	t.Run("Unknown", func(t *testing.T) {
		rec := doRequest(t, f.handler, http.MethodGet, "/api/v1/hotels/nope", keyUserOne, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCartEndpoints(t *testing.T) {
	f := newAPIFixture(t, testAPIConfig())

	addCartItem(t, f, keyUserOne, "room-std")

	rec := doRequest(t, f.handler, http.MethodGet, "/api/v1/cart", keyUserOne, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cart models.Cart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, testRoomRate*testNights, cart.TotalAmount)
	itemID := cart.Items[0].ID

	// Чужая корзина пуста
	rec = doRequest(t, f.handler, http.MethodGet, "/api/v1/cart", keyUserTwo, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var other models.Cart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &other))
	assert.Empty(t, other.Items)

	rec = doRequest(t, f.handler, http.MethodPut, "/api/v1/cart/items/"+itemID, keyUserOne, map[string]any{
		"guests": 2,
		"rooms":  2,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	assert.Equal(t, testRoomRate*testNights*2, cart.TotalAmount)

	rec = doRequest(t, f.handler, http.MethodDelete, "/api/v1/cart/items/"+itemID, keyUserOne, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	assert.Empty(t, cart.Items)

	addCartItem(t, f, keyUserOne, "room-std")
	rec = doRequest(t, f.handler, http.MethodDelete, "/api/v1/cart", keyUserOne, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCartValidation(t *testing.T) {
	f := newAPIFixture(t, testAPIConfig())

	t.Run("BadDate", func(t *testing.T) {
		rec := doRequest(t, f.handler, http.MethodPost, "/api/v1/cart/items", keyUserOne, map[string]any{
			"hotelId":      "hotel-1",
			"roomId":       "room-std",
			"checkInDate":  "not-a-date",
			"checkOutDate": "2026-10-03",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("UnknownHotel", func(t *testing.T) {
		checkIn, checkOut := stayDates(testNights)
		rec := doRequest(t, f.handler, http.MethodPost, "/api/v1/cart/items", keyUserOne, map[string]any{
			"hotelId":      "nope",
			"roomId":       "room-std",
			"checkInDate":  checkIn,
			"checkOutDate": checkOut,
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("OverCapacity", func(t *testing.T) {
		checkIn, checkOut := stayDates(testNights)
		rec := doRequest(t, f.handler, http.MethodPost, "/api/v1/cart/items", keyUserOne, map[string]any{
			"hotelId":      "hotel-1",
			"roomId":       "room-std",
			"checkInDate":  checkIn,
			"checkOutDate": checkOut,
			"guests":       9,
			"rooms":        1,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPaymentFlow(t *testing.T) {
	f := newAPIFixture(t, testAPIConfig())

	addCartItem(t, f, keyUserOne, "room-std")
	addCartItem(t, f, keyUserOne, "room-dlx")

	rec := doRequest(t, f.handler, http.MethodPost, "/api/v1/payment/checkout", keyUserOne, map[string]any{
		"customerInfo": map[string]string{"firstName": "Asha", "lastName": "Rao", "email": "asha@example.com"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)

	orderID := body["orderId"].(string)
	paymentID := body["paymentId"].(string)
	require.NotEmpty(t, orderID)
	require.NotEmpty(t, paymentID)
	assert.Equal(t, "INR", body["currency"])
	assert.Equal(t, "rzp_test_key", body["key"])
	assert.Len(t, body["bookings"], 2)

	// subtotal 6000 + 11000, GST 18%
	assert.Equal(t, 20060.0, body["totalWithGST"])
	assert.Equal(t, 2006000.0, body["amount"])

	// Корзина очищена после оформления
	rec = doRequest(t, f.handler, http.MethodGet, "/api/v1/cart", keyUserOne, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cart models.Cart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	assert.Empty(t, cart.Items)

	t.Run("VerifyBadSignature", func(t *testing.T) {
		rec := doRequest(t, f.handler, http.MethodPost, "/api/v1/payment/verify", keyUserOne, map[string]any{
			"razorpay_order_id":   orderID,
			"razorpay_payment_id": "pay_ext",
			"razorpay_signature":  "bad",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Payment verification failed", body["error"])
	})

	t.Run("Verify", func(t *testing.T) {
		rec := doRequest(t, f.handler, http.MethodPost, "/api/v1/payment/verify", keyUserOne, map[string]any{
			"razorpay_order_id":   orderID,
			"razorpay_payment_id": "pay_ext",
			"razorpay_signature":  f.gw.sign(orderID, "pay_ext"),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, float64(2), body["bookingCount"])
	})

	t.Run("PaymentDetails", func(t *testing.T) {
		rec := doRequest(t, f.handler, http.MethodGet, "/api/v1/payment/"+paymentID, keyUserOne, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, models.PaymentCompleted, body["status"])
	})

	t.Run("DetailsScopedToOwner", func(t *testing.T) {
		rec := doRequest(t, f.handler, http.MethodGet, "/api/v1/payment/"+paymentID, keyUserTwo, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Refund", func(t *testing.T) {
		rec := doRequest(t, f.handler, http.MethodPost, "/api/v1/payment/refund", keyUserOne, map[string]any{
			"paymentId": paymentID,
			"reason":    "plans changed",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "rfnd_1", body["refundId"])
	})

	t.Run("RefundTwiceRejected", func(t *testing.T) {
		rec := doRequest(t, f.handler, http.MethodPost, "/api/v1/payment/refund", keyUserOne, map[string]any{
			"paymentId": paymentID,
			"reason":    "again",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCheckoutErrors(t *testing.T) {
	f := newAPIFixture(t, testAPIConfig())

	t.Run("EmptyCart", func(t *testing.T) {
		rec := doRequest(t, f.handler, http.MethodPost, "/api/v1/payment/checkout", keyUserOne, map[string]any{
			"customerInfo": map[string]string{"firstName": "Asha", "email": "asha@example.com"},
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("GatewayFailureIsGeneric", func(t *testing.T) {
		addCartItem(t, f, keyUserOne, "room-std")
		f.gw.failCreate = true
		defer func() { f.gw.failCreate = false }()

		rec := doRequest(t, f.handler, http.MethodPost, "/api/v1/payment/checkout", keyUserOne, map[string]any{
			"customerInfo": map[string]string{"firstName": "Asha", "email": "asha@example.com"},
		})
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Payment processing failed", body["error"])
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		rec := doRequest(t, f.handler, http.MethodGet, "/api/v1/payment/checkout", keyUserOne, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestBookingEndpoints(t *testing.T) {
	f := newAPIFixture(t, testAPIConfig())
	checkIn, checkOut := stayDates(testNights)

	rec := doRequest(t, f.handler, http.MethodPost, "/api/v1/bookings", keyUserOne, map[string]any{
		"hotelId":      "hotel-1",
		"roomId":       "room-dlx",
		"checkInDate":  checkIn,
		"checkOutDate": checkOut,
		"guests":       2,
		"rooms":        1,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var booking models.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &booking))
	assert.Equal(t, models.StatusPending, booking.Status)
	assert.Equal(t, 11000.0, booking.TotalAmount)

	t.Run("List", func(t *testing.T) {
		rec := doRequest(t, f.handler, http.MethodGet, "/api/v1/bookings", keyUserOne, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, float64(1), body["total"])
	})

	t.Run("GetScopedToOwner", func(t *testing.T) {
		rec := doRequest(t, f.handler, http.MethodGet, "/api/v1/bookings/"+booking.ID, keyUserTwo, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Cancel", func(t *testing.T) {
		rec := doRequest(t, f.handler, http.MethodPost, "/api/v1/bookings/"+booking.ID+"/cancel", keyUserOne, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var cancelled models.Booking
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cancelled))
		assert.Equal(t, models.StatusCancelled, cancelled.Status)
	})

	t.Run("CancelTwiceRejected", func(t *testing.T) {
		rec := doRequest(t, f.handler, http.MethodPost, "/api/v1/bookings/"+booking.ID+"/cancel", keyUserOne, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStatsEndpoints(t *testing.T) {
	f := newAPIFixture(t, testAPIConfig())

	addCartItem(t, f, keyUserOne, "room-std")
	rec := doRequest(t, f.handler, http.MethodPost, "/api/v1/payment/checkout", keyUserOne, map[string]any{
		"customerInfo": map[string]string{"firstName": "Asha", "email": "asha@example.com"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, f.handler, http.MethodGet, "/api/v1/stats", keyUserOne, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["total_bookings"])
	assert.Equal(t, float64(1), body["total_payments"])

	rec = doRequest(t, f.handler, http.MethodPost, "/api/v1/stats/export", keyUserOne, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	exportBody := decodeBody(t, rec)
	assert.Equal(t, true, exportBody["success"])
	assert.NotEmpty(t, exportBody["file"])
}
