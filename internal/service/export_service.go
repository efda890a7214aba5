package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
	"github.com/njprem/Tour_Market_BackEnd/internal/repository/ports"
)

const (
	bookingsSheet   = "Bookings"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var ErrExportStorageDisabled = errors.New("export storage not configured")

var bookingExportHeaders = []string{
	"Booking ID",
	"Tour",
	"Customer ID",
	"Date",
	"Party size",
	"Total",
	"Currency",
	"Status",
	"Payment",
	"Created at",
}

type ExportService struct {
	bookings ports.BookingRepository
	storage  ports.ObjectStorage
	bucket   string
	now      func() time.Time
}

func NewExportService(bookings ports.BookingRepository, storage ports.ObjectStorage, bucket string) *ExportService {
	return &ExportService{
		bookings: bookings,
		storage:  storage,
		bucket:   strings.TrimSpace(bucket),
		now:      time.Now,
	}
}

// ExportProviderBookings writes every booking of the provider's tours to an
// xlsx workbook, uploads it and returns its URL.
func (s *ExportService) ExportProviderBookings(ctx context.Context, providerID uuid.UUID) (string, error) {
	if s.storage == nil || s.bucket == "" {
		return "", ErrExportStorageDisabled
	}

	bookings, err := s.bookings.ListByProvider(ctx, providerID)
	if err != nil {
		return "", classifyStorageError(err)
	}

	buf, err := buildBookingWorkbook(bookings)
	if err != nil {
		return "", fmt.Errorf("build workbook: %w", err)
	}

	if err := s.storage.EnsureBucket(ctx, s.bucket); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}
	objectName := fmt.Sprintf("exports/%s/bookings_%s.xlsx", providerID, s.now().UTC().Format("20060102T150405"))
	url, err := s.storage.Upload(ctx, s.bucket, objectName, xlsxContentType, bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		return "", fmt.Errorf("upload export: %w", err)
	}
	return url, nil
}

func buildBookingWorkbook(bookings []domain.Booking) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(bookingsSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	for col, header := range bookingExportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(bookingsSheet, cell, header); err != nil {
			return nil, err
		}
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		lastHeader, _ := excelize.CoordinatesToCellName(len(bookingExportHeaders), 1)
		_ = f.SetCellStyle(bookingsSheet, "A1", lastHeader, headerStyle)
	}

	for i, b := range bookings {
		row := i + 2
		title := ""
		if b.TourTitle != nil {
			title = *b.TourTitle
		}
		values := []any{
			b.ID.String(),
			title,
			b.UserID.String(),
			b.BookingDate.Format(time.DateOnly),
			b.PartySize,
			float64(b.TotalPriceCents) / 100,
			b.Currency,
			string(b.Status),
			string(b.PaymentStatus),
			b.CreatedAt.UTC().Format(time.RFC3339),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(bookingsSheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	_ = f.SetColWidth(bookingsSheet, "A", "C", 38)
	_ = f.SetColWidth(bookingsSheet, "D", "J", 16)

	return f.WriteToBuffer()
}
