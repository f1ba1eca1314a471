package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stayhub/internal/models"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

const bookingColumns = `id, user_id, hotel_id, room_type, check_in_date, check_out_date,
                 number_of_rooms, number_of_guests, total_amount, status, payment_status,
                 special_requests, booking_reference, created_at, updated_at, version`

// CreateBookingTx inserts a booking inside the caller's transaction. The
// coordinator owns the transaction boundary so a failing item aborts the
// whole checkout batch.
func (db *DB) CreateBookingTx(ctx context.Context, tx *sql.Tx, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	if booking.BookingReference == "" {
		booking.BookingReference = models.NewBookingReference()
	}
	if booking.Status == "" {
		booking.Status = models.StatusPending
	}
	if booking.PaymentStatus == "" {
		booking.PaymentStatus = models.PaymentStatusPending
	}

	query := `INSERT INTO bookings (
				id, user_id, hotel_id, room_type, check_in_date, check_out_date,
				number_of_rooms, number_of_guests, total_amount, status, payment_status,
				special_requests, booking_reference, created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	_, err := tx.ExecContext(ctx, query,
		booking.ID,
		booking.UserID,
		booking.HotelID,
		booking.RoomType,
		booking.CheckInDate.Format(dateLayout),
		booking.CheckOutDate.Format(dateLayout),
		booking.NumberOfRooms,
		booking.NumberOfGuests,
		booking.TotalAmount,
		booking.Status,
		booking.PaymentStatus,
		booking.SpecialRequests,
		booking.BookingReference,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

// CreateBooking inserts a booking in its own transaction.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	return db.WithTx(ctx, func(tx *sql.Tx) error {
		return db.CreateBookingTx(ctx, tx, booking)
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var checkIn, checkOut string
	var specialRequests sql.NullString
	err := row.Scan(
		&b.ID, &b.UserID, &b.HotelID, &b.RoomType, &checkIn, &checkOut,
		&b.NumberOfRooms, &b.NumberOfGuests, &b.TotalAmount, &b.Status, &b.PaymentStatus,
		&specialRequests, &b.BookingReference, &b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}
	b.SpecialRequests = specialRequests.String

	if b.CheckInDate, err = time.Parse(dateLayout, checkIn); err != nil {
		return nil, fmt.Errorf("failed to parse check-in date %s: %w", checkIn, err)
	}
	if b.CheckOutDate, err = time.Parse(dateLayout, checkOut); err != nil {
		return nil, fmt.Errorf("failed to parse check-out date %s: %w", checkOut, err)
	}
	return &b, nil
}

func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// GetBookingForUser returns the booking only when it belongs to userID.
func (db *DB) GetBookingForUser(ctx context.Context, id, userID string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ? AND user_id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// GetPendingBookingForUser is the create-order lookup: the booking must be
// owned by the caller and still awaiting payment.
func (db *DB) GetPendingBookingForUser(ctx context.Context, id, userID string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ? AND user_id = ? AND status = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id, userID, models.StatusPending))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending booking: %w", err)
	}
	return booking, nil
}

// GetUserBookings returns the caller's bookings, newest first, optionally
// filtered by status.
func (db *DB) GetUserBookings(ctx context.Context, userID, status string, limit, offset int) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get user bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (db *DB) CountUserBookings(ctx context.Context, userID, status string) (int, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	var count int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count user bookings: %w", err)
	}
	return count, nil
}

// MarkBookingPaidTx flips a booking to confirmed/paid within the settlement
// transaction.
func (db *DB) MarkBookingPaidTx(ctx context.Context, tx *sql.Tx, id string) error {
	query := `UPDATE bookings SET status = ?, payment_status = ?, version = version + 1, updated_at = ? WHERE id = ?`
	result, err := tx.ExecContext(ctx, query, models.StatusConfirmed, models.PaymentStatusPaid, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark booking paid: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkBookingRefundedTx flips a booking to cancelled/refunded within the
// refund transaction.
func (db *DB) MarkBookingRefundedTx(ctx context.Context, tx *sql.Tx, id string) error {
	query := `UPDATE bookings SET status = ?, payment_status = ?, version = version + 1, updated_at = ? WHERE id = ?`
	result, err := tx.ExecContext(ctx, query, models.StatusCancelled, models.PaymentStatusRefunded, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark booking refunded: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateBookingStatusWithVersion updates the lifecycle status guarded by the
// optimistic version column.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id string, fromVersion int64, status string) error {
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}
