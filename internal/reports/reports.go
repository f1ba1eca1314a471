package reports

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stayhub/internal/config"
	"stayhub/internal/database"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	revenueSheet = "Revenue"
)

// Exporter строит Excel отчеты по бронированиям и платежам
type Exporter struct {
	db     *database.DB
	path   string
	logger zerolog.Logger
}

func NewExporter(db *database.DB, cfg config.ExportConfig, logger *zerolog.Logger) *Exporter {
	path := cfg.Path
	if path == "" {
		path = "exports"
	}
	return &Exporter{
		db:     db,
		path:   path,
		logger: logger.With().Str("component", "reports").Logger(),
	}
}

// ExportRevenue создает Excel файл со сводкой и дневной выручкой за период
func (e *Exporter) ExportRevenue(ctx context.Context, startDate, endDate time.Time) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	stats, err := e.db.GetStats(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting stats: %v", err)
	}

	daily, err := e.db.GetDailyRevenue(ctx, startDate, endDate)
	if err != nil {
		return "", fmt.Errorf("error getting daily revenue: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := e.writeSummarySheet(f, stats, startDate, endDate); err != nil {
		return "", err
	}
	if err := e.writeRevenueSheet(f, daily); err != nil {
		return "", err
	}

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("revenue_%s_to_%s.xlsx",
		startDate.Format("2006-01-02"),
		endDate.Format("2006-01-02"))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("Excel report created")
	return filePath, nil
}

func (e *Exporter) writeSummarySheet(f *excelize.File, stats *database.Stats, startDate, endDate time.Time) error {
	index, err := f.NewSheet(summarySheet)
	if err != nil {
		return fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(summarySheet, "A1", fmt.Sprintf("Period: %s - %s",
		startDate.Format("02.01.2006"), endDate.Format("02.01.2006")))
	_ = f.MergeCell(summarySheet, "A1", "C1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(summarySheet, "A1", "A1", titleStyle)

	_ = f.SetCellValue(summarySheet, "A3", "Total bookings")
	_ = f.SetCellValue(summarySheet, "B3", stats.TotalBookings)
	_ = f.SetCellValue(summarySheet, "A4", "Total payments")
	_ = f.SetCellValue(summarySheet, "B4", stats.TotalPayments)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})

	row := 6
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), "Bookings by status")
	_ = f.SetCellStyle(summarySheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), headerStyle)
	row++
	for _, sc := range stats.BookingsByStatus {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), sc.Status)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), sc.Count)
		row++
	}

	row++
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), "Payments by status")
	_ = f.SetCellStyle(summarySheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), headerStyle)
	row++
	for _, ps := range stats.PaymentsByStatus {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), ps.Status)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), ps.Count)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), ps.TotalAmount)
		row++
	}

	_ = f.SetColWidth(summarySheet, "A", "A", 25)
	_ = f.SetColWidth(summarySheet, "B", "C", 15)
	return nil
}

func (e *Exporter) writeRevenueSheet(f *excelize.File, daily []database.DailyRevenue) error {
	if _, err := f.NewSheet(revenueSheet); err != nil {
		return fmt.Errorf("error creating sheet: %v", err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	headers := []string{"Date", "Payments", "Revenue (INR)"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(revenueSheet, cell, header)
		_ = f.SetCellStyle(revenueSheet, cell, cell, headerStyle)
	}

	var total float64
	for i, dr := range daily {
		row := i + 2
		_ = f.SetCellValue(revenueSheet, fmt.Sprintf("A%d", row), dr.Date)
		_ = f.SetCellValue(revenueSheet, fmt.Sprintf("B%d", row), dr.Payments)
		_ = f.SetCellValue(revenueSheet, fmt.Sprintf("C%d", row), dr.Revenue)
		total += dr.Revenue
	}

	totalRow := len(daily) + 2
	_ = f.SetCellValue(revenueSheet, fmt.Sprintf("A%d", totalRow), "Total")
	_ = f.SetCellValue(revenueSheet, fmt.Sprintf("C%d", totalRow), total)

	boldStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	_ = f.SetCellStyle(revenueSheet, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("C%d", totalRow), boldStyle)

	_ = f.SetColWidth(revenueSheet, "A", "A", 15)
	_ = f.SetColWidth(revenueSheet, "B", "C", 15)
	return nil
}
