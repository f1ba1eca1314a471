package database

import (
	"context"
	"fmt"
	"time"

	"stayhub/internal/models"
)

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type PaymentStatusSum struct {
	Status      string  `json:"status"`
	Count       int     `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

// Stats aggregates the transactional store's view for the public stats
// endpoint and the xlsx export.
type Stats struct {
	TotalBookings    int                `json:"total_bookings"`
	TotalPayments    int                `json:"total_payments"`
	BookingsByStatus []StatusCount      `json:"bookings_by_status"`
	PaymentsByStatus []PaymentStatusSum `json:"payments_by_status"`
}

func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&stats.TotalBookings); err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payments`).Scan(&stats.TotalPayments); err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}

	rows, err := db.QueryContext(ctx, `SELECT status, COUNT(*) FROM bookings GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to group bookings by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan booking status count: %w", err)
		}
		stats.BookingsByStatus = append(stats.BookingsByStatus, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	payRows, err := db.QueryContext(ctx, `SELECT status, COUNT(*), COALESCE(SUM(amount), 0) FROM payments GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to group payments by status: %w", err)
	}
	defer payRows.Close()
	for payRows.Next() {
		var ps PaymentStatusSum
		if err := payRows.Scan(&ps.Status, &ps.Count, &ps.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan payment status sum: %w", err)
		}
		stats.PaymentsByStatus = append(stats.PaymentsByStatus, ps)
	}
	return stats, payRows.Err()
}

type DailyRevenue struct {
	Date     string  `json:"date"`
	Payments int     `json:"payments"`
	Revenue  float64 `json:"revenue"`
}

// GetDailyRevenue возвращает выручку по завершенным платежам за каждый день
// периода. Дни без платежей не возвращаются.
func (db *DB) GetDailyRevenue(ctx context.Context, start, end time.Time) ([]DailyRevenue, error) {
	rows, err := db.QueryContext(ctx, `
        SELECT date(created_at), COUNT(*), COALESCE(SUM(amount), 0)
        FROM payments
        WHERE status = ? AND date(created_at) BETWEEN date(?) AND date(?)
        GROUP BY date(created_at)
        ORDER BY date(created_at)`,
		models.PaymentCompleted, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily revenue: %w", err)
	}
	defer rows.Close()

	var result []DailyRevenue
	for rows.Next() {
		var dr DailyRevenue
		if err := rows.Scan(&dr.Date, &dr.Payments, &dr.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan daily revenue: %w", err)
		}
		result = append(result, dr)
	}
	return result, rows.Err()
}
