package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"
	"go.uber.org/zap"

	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
	"shuttle/internal/utils"
)

// TicketService renders booking e-tickets as PDF.
type TicketService struct {
	Users    UserStore
	Bookings BookingStore
	Loader   func(ctx context.Context, userID, bookingID int64) (ticketData, error)
}

type ticketData struct {
	Booking   models.Booking
	FullName  string
	StudentID string
}

func (s TicketService) load(ctx context.Context, userID, bookingID int64) (ticketData, error) {
	if s.Loader != nil {
		return s.Loader(ctx, userID, bookingID)
	}
	b, err := s.Bookings.GetUserBooking(ctx, userID, bookingID)
	if err != nil {
		return ticketData{}, lookupErr("booking", err)
	}
	u, err := s.Users.GetActiveUser(ctx, userID)
	if err != nil {
		return ticketData{}, lookupErr("user", err)
	}
	return ticketData{Booking: b, FullName: u.FullName, StudentID: u.StudentID}, nil
}

// Generate returns the PDF bytes and a download filename.
func (s TicketService) Generate(ctx context.Context, userID, bookingID int64) ([]byte, string, error) {
	d, err := s.load(ctx, userID, bookingID)
	if err != nil {
		return nil, "", err
	}
	switch d.Booking.Status {
	case models.BookingConfirmed, models.BookingCompleted:
	default:
		return nil, "", domain.ValidationError{
			Field: "status",
			Msg:   fmt.Sprintf("no ticket for %s bookings", d.Booking.Status),
		}
	}
	pdf, name, err := buildTicketPDF(d)
	if err != nil {
		return nil, "", domain.InternalError{Msg: "failed to render ticket", Err: err}
	}
	utils.LogEvent(ctx, "ticket", "generate", "e-ticket generated",
		zap.Int64("booking_id", d.Booking.ID), zap.String("booking_code", d.Booking.BookingCode))
	return pdf, name, nil
}

func buildTicketPDF(d ticketData) ([]byte, string, error) {
	b := d.Booking
	routeName := "-"
	if b.Route != nil {
		routeName = b.Route.RouteName
	}

	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetTitle("Shuttle E-Ticket "+b.BookingCode, false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "CAMPUS SHUTTLE E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	lines := []string{
		fmt.Sprintf("Booking Code : %s", b.BookingCode),
		fmt.Sprintf("Passenger    : %s", safe(d.FullName, "-")),
		fmt.Sprintf("Student ID   : %s", safe(d.StudentID, "-")),
		fmt.Sprintf("Route        : %s", safe(routeName, "-")),
		fmt.Sprintf("Pickup       : %s", safe(b.PickupLocation, "-")),
		fmt.Sprintf("Dropoff      : %s", safe(b.DropoffLocation, "-")),
		fmt.Sprintf("Departure    : %s", utils.FormatDateTime(b.DepartureTime)),
		fmt.Sprintf("Seats        : %d", b.NumberOfSeats),
		fmt.Sprintf("Total Paid   : NGN %s", utils.FormatMoney(b.TotalPrice)),
		fmt.Sprintf("Status       : %s", strings.ToUpper(string(b.Status))),
	}
	for _, l := range lines {
		pdf.Cell(0, 7, l)
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "Present this ticket when boarding. Refunds are only possible before the cancellation cutoff.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), fmt.Sprintf("ETICKET_%s.pdf", safeFilenamePart(b.BookingCode)), nil
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
