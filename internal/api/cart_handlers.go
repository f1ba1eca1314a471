package api

import (
	"net/http"
	"strings"
	"time"

	"stayhub/internal/service"
)

const dateLayout = "2006-01-02"

func parseDate(raw string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	return t, err == nil
}

func (s *HTTPServer) handleCart(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cart, err := s.carts.GetCart(r.Context(), callerID(r))
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, cart)
	case http.MethodDelete:
		if err := s.carts.Clear(r.Context(), callerID(r)); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleCartItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		HotelID      string `json:"hotelId"`
		RoomID       string `json:"roomId"`
		CheckInDate  string `json:"checkInDate"`
		CheckOutDate string `json:"checkOutDate"`
		Guests       int    `json:"guests"`
		Rooms        int    `json:"rooms"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	checkIn, ok := parseDate(body.CheckInDate)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid checkInDate; expected YYYY-MM-DD")
		return
	}
	checkOut, ok := parseDate(body.CheckOutDate)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid checkOutDate; expected YYYY-MM-DD")
		return
	}

	cart, err := s.carts.AddItem(r.Context(), callerID(r), service.AddItemInput{
		HotelID:      body.HotelID,
		RoomID:       body.RoomID,
		CheckInDate:  checkIn,
		CheckOutDate: checkOut,
		Guests:       body.Guests,
		Rooms:        body.Rooms,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cart)
}

func (s *HTTPServer) handleCartItem(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/cart/items/"
	itemID := strings.TrimPrefix(r.URL.Path, prefix)
	if itemID == "" || strings.Contains(itemID, "/") {
		writeError(w, http.StatusBadRequest, "item id is required")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var body struct {
			Guests int `json:"guests"`
			Rooms  int `json:"rooms"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		cart, err := s.carts.UpdateItem(r.Context(), callerID(r), itemID, body.Guests, body.Rooms)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, cart)
	case http.MethodDelete:
		cart, err := s.carts.RemoveItem(r.Context(), callerID(r), itemID)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, cart)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
