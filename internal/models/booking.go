package models

import (
	"fmt"
	"math/rand/v2"
	"time"
)

type Booking struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	HotelID          string    `json:"hotel_id"`
	RoomType         string    `json:"room_type"`
	CheckInDate      time.Time `json:"check_in_date"`
	CheckOutDate     time.Time `json:"check_out_date"`
	NumberOfRooms    int       `json:"number_of_rooms"`
	NumberOfGuests   int       `json:"number_of_guests"`
	TotalAmount      float64   `json:"total_amount"`
	Status           string    `json:"status"` // pending, confirmed, cancelled, completed
	PaymentStatus    string    `json:"payment_status"`
	SpecialRequests  string    `json:"special_requests"`
	BookingReference string    `json:"booking_reference"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	Version          int64     `json:"version"`
}

// CanTransition reports whether a booking may leave its current status.
// Completed and cancelled bookings are terminal.
func (b *Booking) CanTransition() bool {
	return b.Status != StatusCompleted && b.Status != StatusCancelled
}

const referenceCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewBookingReference generates a human-readable reference: prefix, unix
// millis and a random suffix. Uniqueness is enforced by the bookings table.
func NewBookingReference() string {
	suffix := make([]byte, 5)
	for i := range suffix {
		suffix[i] = referenceCharset[rand.IntN(len(referenceCharset))]
	}
	return fmt.Sprintf("BKG%d%s", time.Now().UnixMilli(), suffix)
}
