package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"stayhub/internal/service"
)

func queryInt(r *http.Request, name string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func (s *HTTPServer) handleHotels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	destination := r.URL.Query().Get("destination")
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 20)

	hotels, total, err := s.hotels.ListHotels(r.Context(), destination, page, pageSize)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"hotels": hotels,
		"total":  total,
		"page":   page,
	})
}

func (s *HTTPServer) handleHotel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	const prefix = "/api/v1/hotels/"
	hotelID := strings.TrimPrefix(r.URL.Path, prefix)
	if hotelID == "" || strings.Contains(hotelID, "/") {
		writeError(w, http.StatusBadRequest, "hotel id is required")
		return
	}

	hotel, err := s.hotels.GetHotel(r.Context(), hotelID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hotel)
}

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		status := r.URL.Query().Get("status")
		page := queryInt(r, "page", 1)
		pageSize := queryInt(r, "page_size", 10)

		bookings, total, err := s.bookings.ListBookings(r.Context(), callerID(r), status, page, pageSize)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"bookings": bookings,
			"total":    total,
			"page":     page,
		})
	case http.MethodPost:
		s.handleCreateBooking(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var body struct {
		HotelID         string `json:"hotelId"`
		RoomID          string `json:"roomId"`
		CheckInDate     string `json:"checkInDate"`
		CheckOutDate    string `json:"checkOutDate"`
		Guests          int    `json:"guests"`
		Rooms           int    `json:"rooms"`
		SpecialRequests string `json:"specialRequests"`
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

	booking, err := s.bookings.CreateBooking(r.Context(), callerID(r), service.CreateBookingInput{
		HotelID:         body.HotelID,
		RoomID:          body.RoomID,
		CheckInDate:     checkIn,
		CheckOutDate:    checkOut,
		Guests:          body.Guests,
		Rooms:           body.Rooms,
		SpecialRequests: body.SpecialRequests,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleBooking(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/bookings/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)

	if bookingID, ok := strings.CutSuffix(rest, "/cancel"); ok {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		booking, err := s.bookings.CancelBooking(r.Context(), callerID(r), bookingID)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)
		return
	}

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if rest == "" || strings.Contains(rest, "/") {
		writeError(w, http.StatusBadRequest, "booking id is required")
		return
	}

	booking, err := s.bookings.GetBooking(r.Context(), callerID(r), rest)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats, err := s.db.GetStats(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *HTTPServer) handleStatsExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// Тело опционально; без него отчет строится за последние 30 дней
	var body struct {
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	}
	if err := decodeJSON(r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	end := time.Now()
	start := end.AddDate(0, 0, -30)
	if body.StartDate != "" {
		parsed, ok := parseDate(body.StartDate)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid startDate; expected YYYY-MM-DD")
			return
		}
		start = parsed
	}
	if body.EndDate != "" {
		parsed, ok := parseDate(body.EndDate)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid endDate; expected YYYY-MM-DD")
			return
		}
		end = parsed
	}

	path, err := s.exporter.ExportRevenue(r.Context(), start, end)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"file":    path,
	})
}
