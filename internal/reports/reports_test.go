package reports

import (
	"context"
	"database/sql"
	"io"
	"os"
	"testing"
	"time"

	"stayhub/internal/config"
	"stayhub/internal/database"
	"stayhub/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestExporter(t *testing.T) (*Exporter, *database.DB) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	exporter := NewExporter(db, config.ExportConfig{Path: t.TempDir()}, &logger)
	return exporter, db
}

func seedCompletedPayment(t *testing.T, db *database.DB, amount float64) {
	t.Helper()
	ctx := context.Background()

	booking := &models.Booking{
		UserID:         "user-1",
		HotelID:        "hotel-1",
		RoomType:       "deluxe",
		CheckInDate:    time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		CheckOutDate:   time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC),
		NumberOfRooms:  1,
		NumberOfGuests: 2,
		TotalAmount:    amount,
	}

	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := db.CreateBookingTx(ctx, tx, booking); err != nil {
			return err
		}
		payment := &models.Payment{
			BookingID:       booking.ID,
			UserID:          booking.UserID,
			Amount:          amount,
			Currency:        models.DefaultCurrency,
			PaymentMethod:   "razorpay",
			RazorpayOrderID: "order_rep",
		}
		if err := db.CreatePaymentTx(ctx, tx, payment); err != nil {
			return err
		}
		return db.MarkPaymentCompletedTx(ctx, tx, payment.ID, "pay_rep", "sig")
	})
	require.NoError(t, err)
}

func TestExportRevenue(t *testing.T) {
	exporter, db := newTestExporter(t)
	seedCompletedPayment(t, db, 1180)
	seedCompletedPayment(t, db, 2360)

	// created_at в SQLite хранится в UTC
	now := time.Now().UTC()
	path, err := exporter.ExportRevenue(context.Background(), now.AddDate(0, 0, -7), now)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	totalBookings, err := f.GetCellValue(summarySheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "2", totalBookings)

	rows, err := f.GetRows(revenueSheet)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 3)
	assert.Equal(t, []string{"Date", "Payments", "Revenue (INR)"}, rows[0])

	// Обе оплаты попадают в сегодняшний день
	assert.Equal(t, now.Format("2006-01-02"), rows[1][0])
	assert.Equal(t, "2", rows[1][1])
	assert.Equal(t, "3540", rows[1][2])
}

func TestExportRevenueEmptyPeriod(t *testing.T) {
	exporter, _ := newTestExporter(t)

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC)
	path, err := exporter.ExportRevenue(context.Background(), start, end)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(revenueSheet)
	require.NoError(t, err)
	// Только заголовок и итоговая строка
	require.Len(t, rows, 2)
	assert.Equal(t, "Total", rows[1][0])
}
