// Package export writes dashboard data to an Excel workbook for offline
// review or sharing.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sniperdash/internal/models"

	"github.com/xuri/excelize/v2"
)

// Backend is the read surface the exporter needs.
type Backend interface {
	ListReservations(ctx context.Context, status string) ([]models.Reservation, error)
	ListBookings(ctx context.Context) ([]models.Booking, error)
	Activity(ctx context.Context, limit int) ([]models.ActivityLogEntry, error)
}

// Exporter builds xlsx snapshots of the sniper's state.
type Exporter struct {
	backend Backend
	dir     string
}

// New constructs an exporter writing into dir.
func New(backend Backend, dir string) *Exporter {
	return &Exporter{backend: backend, dir: dir}
}

const activityExportLimit = 500

// Export fetches reservations, bookings and activity and writes them to a
// timestamped workbook. Returns the file path.
func (e *Exporter) Export(ctx context.Context) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	reservations, err := e.backend.ListReservations(ctx, "")
	if err != nil {
		return "", fmt.Errorf("fetch reservations: %w", err)
	}
	bookings, err := e.backend.ListBookings(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch bookings: %w", err)
	}
	activity, err := e.backend.Activity(ctx, activityExportLimit)
	if err != nil {
		return "", fmt.Errorf("fetch activity: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := e.writeReservations(f, reservations); err != nil {
		return "", err
	}
	if err := e.writeBookings(f, bookings); err != nil {
		return "", err
	}
	if err := e.writeActivity(f, activity); err != nil {
		return "", err
	}

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("sniper_export_%s.xlsx", time.Now().Format("2006-01-02_150405"))
	path := filepath.Join(e.dir, fileName)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}

func (e *Exporter) writeReservations(f *excelize.File, list []models.Reservation) error {
	const sheet = "Reservations"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"ID", "Restaurant", "Date", "Time", "Party", "Platform", "Status", "Booking opens", "Attempts", "Created"}
	writeHeaderRow(f, sheet, headers)

	for i, r := range list {
		row := i + 2
		opens := ""
		if r.BookingOpenTime != nil {
			opens = r.BookingOpenTime.Format(time.RFC3339)
		}
		values := []interface{}{
			r.ID, r.RestaurantName, r.Date, r.Time, r.PartySize,
			r.PlatformName(), r.Status, opens, r.PollAttempts,
			r.CreatedAt.Format(time.RFC3339),
		}
		writeRow(f, sheet, row, values)
	}

	_ = f.SetColWidth(sheet, "B", "B", 25)
	_ = f.SetColWidth(sheet, "H", "J", 22)
	return nil
}

func (e *Exporter) writeBookings(f *excelize.File, list []models.Booking) error {
	const sheet = "Bookings"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	headers := []string{"ID", "Request", "Restaurant", "Platform", "Date", "Time", "Party", "Confirmation", "Status"}
	writeHeaderRow(f, sheet, headers)

	for i, b := range list {
		row := i + 2
		confirmation := ""
		if b.ConfirmationID != nil {
			confirmation = *b.ConfirmationID
		}
		values := []interface{}{
			b.ID, b.RequestID, b.RestaurantName, b.Platform,
			b.Date, b.Time, b.PartySize, confirmation, b.Status,
		}
		writeRow(f, sheet, row, values)
	}
	return nil
}

func (e *Exporter) writeActivity(f *excelize.File, entries []models.ActivityLogEntry) error {
	const sheet = "Activity"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	headers := []string{"Timestamp", "Action", "Platform", "Details"}
	writeHeaderRow(f, sheet, headers)

	for i, entry := range entries {
		row := i + 2
		platform, details := "", ""
		if entry.Platform != nil {
			platform = *entry.Platform
		}
		if entry.Details != nil {
			details = *entry.Details
		}
		values := []interface{}{
			entry.Timestamp.Format(time.RFC3339), entry.Action, platform, details,
		}
		writeRow(f, sheet, row, values)
	}

	_ = f.SetColWidth(sheet, "A", "A", 22)
	_ = f.SetColWidth(sheet, "D", "D", 50)
	return nil
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(sheet, "A1", last, style)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}
