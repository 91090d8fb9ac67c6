package service

import (
	"context"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/iliyamo/storage-booking/internal/model"
	"github.com/iliyamo/storage-booking/internal/money"
)

// InvoiceLine is one priced row of an invoice.
type InvoiceLine struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// Invoice is the printable summary of a booking.
type Invoice struct {
	Number        string              `json:"invoice_number"`
	BookingID     string              `json:"booking_id"`
	IssuedAt      time.Time           `json:"issued_at"`
	Status        model.BookingStatus `json:"status"`
	Customer      model.User          `json:"customer"`
	Plan          model.StoragePlan   `json:"storage_plan"`
	StartDate     string              `json:"start_date"`
	Lines         []InvoiceLine       `json:"lines"`
	Notes         *string             `json:"notes"`
	Currency      string              `json:"currency"`
	Total         float64             `json:"total"`
	TotalDisplay  string              `json:"total_display"`
	Paid          bool                `json:"paid"`
	PaidAt        *time.Time          `json:"paid_at"`
	TransactionID string              `json:"transaction_id,omitempty"`
}

// InvoiceNumber derives the customer-facing reference of a booking: the
// first eight characters of its id, upper-cased.
func InvoiceNumber(bookingID string) string {
	if len(bookingID) > 8 {
		bookingID = bookingID[:8]
	}
	return strings.ToUpper(bookingID)
}

// Invoice builds the invoice of booking id: one line for the plan's base
// monthly price and one for add-ons when the booking total exceeds it.
func (s *Bookings) Invoice(ctx context.Context, id string) (Invoice, error) {
	d, err := s.GetBooking(ctx, id)
	if err != nil {
		return Invoice{}, err
	}

	lines := []InvoiceLine{{Description: d.Plan.Name + " - " + d.Plan.Size + " (monthly)", Amount: d.Plan.Price}}
	if extra := money.Sum(d.TotalAmount, -d.Plan.Price); extra > 0 && !money.Match(extra, 0) {
		lines = append(lines, InvoiceLine{Description: "Add-on services (monthly)", Amount: extra})
	}

	inv := Invoice{
		Number:    InvoiceNumber(d.ID),
		BookingID: d.ID,
		IssuedAt:  d.CreatedAt,
		Status:    d.Status,
		Customer:  d.User,
		Plan:      d.Plan,
		StartDate: d.StartDate.Format("2006-01-02"),
		Lines:     lines,
		Notes:     d.Notes,
		Currency:  s.currency,
		Total:     d.TotalAmount,
	}
	if paid, ok := lo.Find(d.Payments, func(p model.Payment) bool { return p.Status == model.PaymentCompleted }); ok {
		inv.Paid = true
		inv.PaidAt = &paid.PaymentDate
		inv.Currency = paid.Currency
		inv.TransactionID = paid.Transaction()
	}
	inv.TotalDisplay = money.Format(inv.Currency, inv.Total)
	return inv, nil
}
