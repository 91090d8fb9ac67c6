package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/storage-booking/internal/model"
	"github.com/iliyamo/storage-booking/internal/processor"
	"github.com/iliyamo/storage-booking/internal/queue"
	"github.com/iliyamo/storage-booking/internal/repository"
	"github.com/iliyamo/storage-booking/internal/repository/memory"
)

var (
	_ Store          = (*repository.Store)(nil)
	_ Store          = (*memory.Store)(nil)
	_ EventPublisher = (*queue.Publisher)(nil)
)

type fakeEvents struct {
	mu     sync.Mutex
	events []queue.BookingConfirmedEvent
	err    error
}

func (f *fakeEvents) PublishBookingConfirmed(_ context.Context, ev queue.BookingConfirmedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

func (f *fakeEvents) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type fixture struct {
	store    *memory.Store
	proc     *processor.Memory
	events   *fakeEvents
	bookings *Bookings
}

func newFixture() *fixture {
	f := &fixture{store: memory.New(), proc: processor.NewMemory(), events: &fakeEvents{}}
	f.bookings = NewBookings(f.store, f.proc, f.events, "AED")
	return f
}

func bookingRequest(email string) CreateBookingRequest {
	return CreateBookingRequest{
		Customer: CustomerInput{Name: "Jane Doe", Email: email, Phone: "+971500000000"},
		Booking: BookingInput{
			Size:       "500 SQ FT",
			MoveInDate: "2026-11-01",
			TotalPrice: 4500,
			BasePrice:  4500,
		},
	}
}

// book creates a pending booking for email.
func (f *fixture) book(t *testing.T, email string) model.Booking {
	t.Helper()
	res, err := f.bookings.CreateBooking(context.Background(), bookingRequest(email))
	require.NoError(t, err)
	return res.Booking
}

func intentRequest(bookingID string, amount float64) IntentRequest {
	return IntentRequest{
		BookingID: bookingID,
		Amount:    amount,
		Customer:  IntentCustomer{Email: "jane@example.com", Name: "Jane Doe"},
	}
}

// pay creates an intent for b and returns it with its payment id.
func (f *fixture) pay(t *testing.T, b model.Booking) (IntentResult, model.Payment) {
	t.Helper()
	res, err := f.bookings.CreatePaymentIntent(context.Background(), intentRequest(b.ID, b.TotalAmount))
	require.NoError(t, err)
	p, err := f.store.GetPayment(context.Background(), res.PaymentID)
	require.NoError(t, err)
	return res, p
}
