package api

import (
	"net/http"
	"strings"

	"stayhub/internal/checkout"
	"stayhub/internal/metrics"
)

type customerInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type checkoutRequest struct {
	CartItemIDs     []string     `json:"cartItemIds"`
	CustomerInfo    customerInfo `json:"customerInfo"`
	SpecialRequests string       `json:"specialRequests"`
	TotalAmount     float64      `json:"totalAmount"`
	AmountInPaise   int64        `json:"amountInPaise"`
	Subtotal        float64      `json:"subtotal"`
	Taxes           float64      `json:"taxes"`
	Discount        float64      `json:"discount"`
	PromoCode       string       `json:"promoCode"`
}

func (s *HTTPServer) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body checkoutRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	totals := checkout.DeclaredTotals{
		TotalAmount: body.TotalAmount,
		Subtotal:    body.Subtotal,
		Taxes:       body.Taxes,
		Discount:    body.Discount,
	}
	// Старые клиенты передают сумму только в минорных единицах
	if totals.TotalAmount == 0 && body.AmountInPaise > 0 {
		totals.TotalAmount = checkout.FromMinorUnits(body.AmountInPaise)
	}

	name := strings.TrimSpace(body.CustomerInfo.FirstName + " " + body.CustomerInfo.LastName)
	result, err := s.checkout.Checkout(r.Context(), callerID(r), checkout.CheckoutInput{
		CartItemIDs:     body.CartItemIDs,
		CustomerName:    name,
		CustomerEmail:   body.CustomerInfo.Email,
		SpecialRequests: body.SpecialRequests,
		PromoCode:       body.PromoCode,
		Totals:          totals,
	})
	if err != nil {
		metrics.IncCheckout("failure")
		s.writeServiceError(w, r, err)
		return
	}

	metrics.IncCheckout("success")
	writeJSON(w, http.StatusOK, map[string]any{
		"orderId":        result.OrderID,
		"amount":         result.Amount,
		"amountInRupees": result.AmountInRupees,
		"currency":       result.Currency,
		"key":            result.Key,
		"bookings":       result.Bookings,
		"paymentId":      result.PaymentID,
		"totalWithGST":   result.TotalWithGST,
	})
}

func (s *HTTPServer) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		BookingID string  `json:"bookingId"`
		Amount    float64 `json:"amount"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.BookingID) == "" {
		writeError(w, http.StatusBadRequest, "bookingId is required")
		return
	}

	result, err := s.checkout.CreateOrder(r.Context(), callerID(r), body.BookingID, body.Amount)
	if err != nil {
		metrics.IncCheckout("failure")
		s.writeServiceError(w, r, err)
		return
	}

	metrics.IncCheckout("success")
	writeJSON(w, http.StatusOK, map[string]any{
		"orderId":   result.OrderID,
		"amount":    result.Amount,
		"currency":  result.Currency,
		"key":       result.Key,
		"paymentId": result.PaymentID,
	})
}

func (s *HTTPServer) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// Имена полей повторяют callback шлюза
	var body struct {
		RazorpayOrderID   string `json:"razorpay_order_id"`
		RazorpayPaymentID string `json:"razorpay_payment_id"`
		RazorpaySignature string `json:"razorpay_signature"`
		PaymentID         string `json:"paymentId"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.checkout.VerifyAndSettle(r.Context(), callerID(r), checkout.VerifyInput{
		OrderID:          body.RazorpayOrderID,
		GatewayPaymentID: body.RazorpayPaymentID,
		Signature:        body.RazorpaySignature,
		PaymentID:        body.PaymentID,
	})
	if err != nil {
		metrics.IncSettlement("failure")
		s.writeServiceError(w, r, err)
		return
	}

	metrics.IncSettlement("success")
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"message":      "Payment verified successfully",
		"bookingCount": result.BookingCount,
		"bookings":     result.Bookings,
	})
}

func (s *HTTPServer) handleRefund(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		PaymentID string `json:"paymentId"`
		Reason    string `json:"reason"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.PaymentID) == "" {
		writeError(w, http.StatusBadRequest, "paymentId is required")
		return
	}

	result, err := s.checkout.Refund(r.Context(), callerID(r), body.PaymentID, body.Reason)
	if err != nil {
		metrics.IncRefund("failure")
		s.writeServiceError(w, r, err)
		return
	}

	metrics.IncRefund("success")
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "Refund processed successfully",
		"refundId": result.RefundID,
	})
}

func (s *HTTPServer) handlePaymentDetails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	const prefix = "/api/v1/payment/"
	paymentID := strings.TrimPrefix(r.URL.Path, prefix)
	if paymentID == "" || strings.Contains(paymentID, "/") {
		writeError(w, http.StatusBadRequest, "payment id is required")
		return
	}

	payment, err := s.checkout.PaymentDetails(r.Context(), callerID(r), paymentID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}
