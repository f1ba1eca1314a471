package gateway

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
	"time"

	"stayhub/internal/config"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

// RazorpayGateway — клиент REST API Razorpay. Аутентификация basic auth
// парой key_id/key_secret, суммы в пайсах.
type RazorpayGateway struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
	log        zerolog.Logger
}

func NewRazorpayGateway(cfg config.RazorpayConfig, logger *zerolog.Logger) *RazorpayGateway {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RazorpayGateway{
		baseURL:    baseURL,
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With().Str("component", "razorpay").Logger(),
	}
}

type orderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID        string            `json:"id"`
	Amount    int64             `json:"amount"`
	Currency  string            `json:"currency"`
	Receipt   string            `json:"receipt"`
	Status    string            `json:"status"`
	Notes     map[string]string `json:"notes"`
	CreatedAt int64             `json:"created_at"`
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*Order, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("order amount must be positive, got %d", amount)
	}

	var resp orderResponse
	err := g.post(ctx, "/orders", orderRequest{
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Notes:    notes,
	}, &resp)
	if err != nil {
		return nil, err
	}

	g.log.Info().
		Str("order_id", resp.ID).
		Int64("amount", resp.Amount).
		Str("currency", resp.Currency).
		Msg("gateway order created")

	return &Order{
		ID:        resp.ID,
		Amount:    resp.Amount,
		Currency:  resp.Currency,
		Receipt:   resp.Receipt,
		Status:    resp.Status,
		Notes:     resp.Notes,
		CreatedAt: time.Unix(resp.CreatedAt, 0),
	}, nil
}

type refundRequest struct {
	Amount int64             `json:"amount,omitempty"`
	Notes  map[string]string `json:"notes,omitempty"`
}

type refundResponse struct {
	ID        string            `json:"id"`
	PaymentID string            `json:"payment_id"`
	Amount    int64             `json:"amount"`
	Currency  string            `json:"currency"`
	Status    string            `json:"status"`
	Notes     map[string]string `json:"notes"`
	CreatedAt int64             `json:"created_at"`
}

func (g *RazorpayGateway) Refund(ctx context.Context, paymentID string, amount int64, notes map[string]string) (*Refund, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("payment id is required")
	}

	var resp refundResponse
	path := fmt.Sprintf("/payments/%s/refund", paymentID)
	err := g.post(ctx, path, refundRequest{Amount: amount, Notes: notes}, &resp)
	if err != nil {
		return nil, err
	}

	g.log.Info().
		Str("refund_id", resp.ID).
		Str("payment_id", resp.PaymentID).
		Int64("amount", resp.Amount).
		Msg("gateway refund created")

	return &Refund{
		ID:        resp.ID,
		PaymentID: resp.PaymentID,
		Amount:    resp.Amount,
		Currency:  resp.Currency,
		Status:    resp.Status,
		Notes:     resp.Notes,
		CreatedAt: time.Unix(resp.CreatedAt, 0),
	}, nil
}

// VerifySignature проверяет HMAC-SHA256 подпись над "orderID|paymentID",
// вычисленную ключом key_secret. Сравнение за постоянное время.
func (g *RazorpayGateway) VerifySignature(orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(g.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

type apiError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (g *RazorpayGateway) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", ErrGateway, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Description != "" {
			return fmt.Errorf("%w: %s (%s)", ErrGateway, apiErr.Error.Description, apiErr.Error.Code)
		}
		return fmt.Errorf("%w: unexpected status %d", ErrGateway, resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrGateway, err)
	}
	return nil
}
