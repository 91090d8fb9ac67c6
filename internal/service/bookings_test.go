package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/storage-booking/internal/model"
	"github.com/iliyamo/storage-booking/internal/pricing"
	"github.com/iliyamo/storage-booking/internal/processor"
	"github.com/iliyamo/storage-booking/internal/repository"
	"github.com/iliyamo/storage-booking/internal/repository/memory"
)

func TestCreateBooking_ValidationHasNoSideEffects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateBookingRequest)
	}{
		{"missing phone", func(r *CreateBookingRequest) { r.Customer.Phone = "" }},
		{"missing name", func(r *CreateBookingRequest) { r.Customer.Name = " " }},
		{"missing size", func(r *CreateBookingRequest) { r.Booking.Size = "" }},
		{"missing move-in", func(r *CreateBookingRequest) { r.Booking.MoveInDate = "" }},
		{"zero total", func(r *CreateBookingRequest) { r.Booking.TotalPrice = 0 }},
		{"bad date", func(r *CreateBookingRequest) { r.Booking.MoveInDate = "next week" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			req := bookingRequest("jane@example.com")
			tt.mutate(&req)

			_, err := f.bookings.CreateBooking(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, 0, f.store.UserCount())
			plans, _ := f.store.ListPlans(context.Background())
			assert.Empty(t, plans)
		})
	}
}

func TestCreateBooking_ReusesExistingUser(t *testing.T) {
	f := newFixture()
	first := f.book(t, "jane@example.com")
	require.Equal(t, 1, f.store.UserCount())

	second := f.book(t, "jane@example.com")
	assert.Equal(t, first.UserID, second.UserID)
	assert.Equal(t, 1, f.store.UserCount())
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCreateBooking_EmailIsCaseSensitive(t *testing.T) {
	f := newFixture()
	f.book(t, "jane@example.com")
	f.book(t, "Jane@example.com")
	assert.Equal(t, 2, f.store.UserCount())
}

func TestCreateBooking_ResolvesPlanBySizeAndPrice(t *testing.T) {
	f := newFixture()
	a := f.book(t, "a@example.com")
	b := f.book(t, "b@example.com")
	assert.Equal(t, a.PlanID, b.PlanID)

	p, err := f.store.GetPlan(context.Background(), a.PlanID)
	require.NoError(t, err)
	assert.Equal(t, "Warehouse 500 SQ FT", p.Name)
	assert.Equal(t, 500, p.SizeValue)
	assert.Equal(t, 4500.0, p.Price)
	assert.Equal(t, model.DefaultPlanFeatures, p.Features)
	assert.True(t, p.IsActive)

	req := bookingRequest("c@example.com")
	req.Booking.BasePrice = 4800
	req.Booking.TotalPrice = 4800
	res, err := f.bookings.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, a.PlanID, res.Booking.PlanID)
}

func TestCreateBooking_UnknownPlanID(t *testing.T) {
	f := newFixture()
	req := bookingRequest("jane@example.com")
	req.Booking.PlanID = "missing"

	_, err := f.bookings.CreateBooking(context.Background(), req)
	assert.ErrorIs(t, err, repository.ErrPlanNotFound)
}

func TestCreateBooking_Notes(t *testing.T) {
	f := newFixture()
	req := bookingRequest("jane@example.com")
	req.Customer.CompanyName = "Acme"
	req.Booking.Dimensions = "20 x 25 ft"
	req.Booking.AddOns = &pricing.AddOns{
		Forklift:   pricing.Forklift{Selected: true, Hours: 3},
		CCTVRemote: pricing.Toggle{Selected: true},
	}
	req.Booking.TotalPrice = 5000

	res, err := f.bookings.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res.Booking.Notes)
	assert.Equal(t,
		"Company: Acme | Dimensions: 20 x 25 ft | Add-ons: Forklift: 3 hours @ AED 150/hr, CCTV Remote View: AED 50/month",
		*res.Booking.Notes)
	require.NotNil(t, res.Customer.CompanyName)
	assert.Equal(t, model.BookingPending, res.Booking.Status)
}

func TestCreateBooking_NoNotes(t *testing.T) {
	f := newFixture()
	b := f.book(t, "jane@example.com")
	assert.Nil(t, b.Notes)
}

// lookupFailStore fails every user lookup.
type lookupFailStore struct {
	*memory.Store
}

func (s lookupFailStore) GetUserByEmail(context.Context, string) (model.User, error) {
	return model.User{}, errors.New("connection reset")
}

func TestCreateBooking_LookupErrorIsSurfaced(t *testing.T) {
	mem := memory.New()
	b := NewBookings(lookupFailStore{mem}, processor.NewMemory(), nil, "AED")

	_, err := b.CreateBooking(context.Background(), bookingRequest("jane@example.com"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 0, mem.UserCount())
}

// racingStore reports the first lookup as a miss although the row exists,
// as if another request inserted it in between.
type racingStore struct {
	*memory.Store
	missed bool
}

func (s *racingStore) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	if !s.missed {
		s.missed = true
		return model.User{}, repository.ErrUserNotFound
	}
	return s.Store.GetUserByEmail(ctx, email)
}

func TestCreateBooking_DuplicateInsertRefetches(t *testing.T) {
	mem := memory.New()
	existing := model.User{Name: "Jane", Email: "jane@example.com", Phone: "1"}
	require.NoError(t, mem.CreateUser(context.Background(), &existing))

	b := NewBookings(&racingStore{Store: mem}, processor.NewMemory(), nil, "AED")
	res, err := b.CreateBooking(context.Background(), bookingRequest("jane@example.com"))
	require.NoError(t, err)
	assert.Equal(t, existing.ID, res.Booking.UserID)
	assert.Equal(t, 1, mem.UserCount())
}

func TestCreatePaymentIntent_ReusesUsableIntent(t *testing.T) {
	f := newFixture()
	b := f.book(t, "jane@example.com")

	first, err := f.bookings.CreatePaymentIntent(context.Background(), intentRequest(b.ID, 4500))
	require.NoError(t, err)
	second, err := f.bookings.CreatePaymentIntent(context.Background(), intentRequest(b.ID, 4500))
	require.NoError(t, err)

	assert.Equal(t, first.PaymentID, second.PaymentID)
	assert.Equal(t, first.ClientSecret, second.ClientSecret)
	assert.False(t, first.Reused)
	assert.True(t, second.Reused)
	assert.Equal(t, 1, f.proc.Creates())

	p, err := f.store.GetPayment(context.Background(), first.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, p.Status)
	assert.NotEmpty(t, p.Transaction())
	assert.Equal(t, "AED", p.Currency)
}

func TestCreatePaymentIntent_FreshIntentWhenPriorCanceled(t *testing.T) {
	f := newFixture()
	b := f.book(t, "jane@example.com")
	first, firstPay := f.pay(t, b)
	require.NoError(t, f.proc.SetStatus(firstPay.Transaction(), processor.StatusCanceled))

	second, err := f.bookings.CreatePaymentIntent(context.Background(), intentRequest(b.ID, 4500))
	require.NoError(t, err)
	assert.NotEqual(t, first.PaymentID, second.PaymentID)
	assert.NotEqual(t, first.ClientSecret, second.ClientSecret)

	old, err := f.store.GetPayment(context.Background(), first.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentFailed, old.Status)
}

func TestCreatePaymentIntent_AmountTolerance(t *testing.T) {
	f := newFixture()
	b := f.book(t, "jane@example.com")

	_, err := f.bookings.CreatePaymentIntent(context.Background(), intentRequest(b.ID, 4500.02))
	assert.ErrorIs(t, err, ErrAmountMismatch)
	assert.Equal(t, 0, f.proc.Creates())

	res, err := f.bookings.CreatePaymentIntent(context.Background(), intentRequest(b.ID, 4500.009))
	require.NoError(t, err)
	in, err := f.proc.GetIntent(context.Background(), mustTransaction(t, f, res.PaymentID))
	require.NoError(t, err)
	assert.Equal(t, int64(450000), in.Amount)
	assert.Equal(t, b.ID, in.Metadata["bookingId"])
	assert.Equal(t, res.PaymentID, in.Metadata["paymentId"])

	pay, err := f.store.GetPayment(context.Background(), res.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, 4500.0, pay.Amount)
}

func mustTransaction(t *testing.T, f *fixture, paymentID string) string {
	t.Helper()
	p, err := f.store.GetPayment(context.Background(), paymentID)
	require.NoError(t, err)
	return p.Transaction()
}

func TestCreatePaymentIntent_AlreadyPaid(t *testing.T) {
	f := newFixture()
	b := f.book(t, "jane@example.com")
	_, p := f.pay(t, b)
	require.NoError(t, f.proc.SetStatus(p.Transaction(), processor.StatusSucceeded))

	_, err := f.bookings.CreatePaymentIntent(context.Background(), intentRequest(b.ID, 4500))
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	got, err := f.store.GetBooking(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, got.Status)
	assert.Equal(t, 1, f.events.count())
}

func TestCreatePaymentIntent_ProcessorFailure(t *testing.T) {
	f := newFixture()
	b := f.book(t, "jane@example.com")
	f.proc.FailCreates(errors.New("card network down"))

	_, err := f.bookings.CreatePaymentIntent(context.Background(), intentRequest(b.ID, 4500))
	assert.ErrorIs(t, err, ErrUpstream)

	d, err := f.store.GetBookingDetail(context.Background(), b.ID)
	require.NoError(t, err)
	require.Len(t, d.Payments, 1)
	assert.Equal(t, model.PaymentFailed, d.Payments[0].Status)

	f.proc.FailCreates(nil)
	res, err := f.bookings.CreatePaymentIntent(context.Background(), intentRequest(b.ID, 4500))
	require.NoError(t, err)
	assert.NotEqual(t, d.Payments[0].ID, res.PaymentID)
}

func TestCreatePaymentIntent_BookingState(t *testing.T) {
	f := newFixture()
	_, err := f.bookings.CreatePaymentIntent(context.Background(), intentRequest("missing", 10))
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)

	b := f.book(t, "jane@example.com")
	require.NoError(t, f.store.UpdateBookingStatus(context.Background(), b.ID, model.BookingPending, model.BookingCancelled))
	_, err = f.bookings.CreatePaymentIntent(context.Background(), intentRequest(b.ID, 4500))
	assert.ErrorIs(t, err, ErrBookingNotPending)

	_, err = f.bookings.CreatePaymentIntent(context.Background(), IntentRequest{BookingID: b.ID, Amount: 4500})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestConfirmPayment_Succeeded(t *testing.T) {
	f := newFixture()
	b := f.book(t, "jane@example.com")
	_, p := f.pay(t, b)
	require.NoError(t, f.proc.SetStatus(p.Transaction(), processor.StatusSucceeded))

	res, err := f.bookings.ConfirmPayment(context.Background(), p.Transaction(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, res.Status)
	assert.Equal(t, model.PaymentCompleted, res.Payment.Status)
	require.NotNil(t, res.Booking)
	assert.Equal(t, model.BookingConfirmed, res.Booking.Status)

	// a completed payment always has a confirmed booking
	d, err := f.store.GetBookingDetail(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, d.Status)
	for _, pay := range d.Payments {
		if pay.Status == model.PaymentCompleted {
			assert.Equal(t, model.BookingConfirmed, d.Status)
		}
	}

	require.Equal(t, 1, f.events.count())
	ev := f.events.events[0]
	assert.Equal(t, b.ID, ev.BookingID)
	assert.Equal(t, "jane@example.com", ev.CustomerEmail)
	assert.Equal(t, "2026-11-01", ev.StartDate)

	again, err := f.bookings.ConfirmPayment(context.Background(), p.Transaction(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, again.Status)
	assert.Equal(t, 1, f.events.count())
}

func TestConfirmPayment_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.events.err = errors.New("broker down")
	b := f.book(t, "jane@example.com")
	_, p := f.pay(t, b)
	require.NoError(t, f.proc.SetStatus(p.Transaction(), processor.StatusSucceeded))

	res, err := f.bookings.ConfirmPayment(context.Background(), p.Transaction(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, res.Status)
}

func TestConfirmPayment_NoMutationUnlessSucceeded(t *testing.T) {
	tests := []struct {
		status processor.Status
		want   string
	}{
		{processor.StatusProcessing, OutcomeProcessing},
		{processor.StatusRequiresPaymentMethod, OutcomeFailed},
		{processor.StatusCanceled, OutcomeFailed},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			f := newFixture()
			b := f.book(t, "jane@example.com")
			_, p := f.pay(t, b)
			require.NoError(t, f.proc.SetStatus(p.Transaction(), tt.status))

			res, err := f.bookings.ConfirmPayment(context.Background(), p.Transaction(), p.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Status)
			assert.Equal(t, tt.status, res.ProcessorStatus)

			gotPay, _ := f.store.GetPayment(context.Background(), p.ID)
			gotBooking, _ := f.store.GetBooking(context.Background(), b.ID)
			assert.Equal(t, model.PaymentPending, gotPay.Status)
			assert.Equal(t, model.BookingPending, gotBooking.Status)
			assert.Equal(t, 0, f.events.count())
		})
	}
}

func TestConfirmPayment_Errors(t *testing.T) {
	f := newFixture()
	b := f.book(t, "jane@example.com")
	_, p := f.pay(t, b)

	_, err := f.bookings.ConfirmPayment(context.Background(), "", p.ID)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.bookings.ConfirmPayment(context.Background(), "pi_other", p.ID)
	assert.ErrorIs(t, err, ErrIntentMismatch)

	_, err = f.bookings.ConfirmPayment(context.Background(), p.Transaction(), "missing")
	assert.ErrorIs(t, err, repository.ErrPaymentNotFound)
}

func TestConfirmPayment_CancelledBookingConflicts(t *testing.T) {
	f := newFixture()
	b := f.book(t, "jane@example.com")
	_, p := f.pay(t, b)
	require.NoError(t, f.store.UpdateBookingStatus(context.Background(), b.ID, model.BookingPending, model.BookingCancelled))
	require.NoError(t, f.proc.SetStatus(p.Transaction(), processor.StatusSucceeded))

	_, err := f.bookings.ConfirmPayment(context.Background(), p.Transaction(), p.ID)
	assert.ErrorIs(t, err, ErrPaidAfterCancel)
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.Equal(t, 0, f.events.count())

	got, err := f.store.GetPayment(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCompleted, got.Status)
}

func TestPaymentStatus(t *testing.T) {
	f := newFixture()
	b := f.book(t, "jane@example.com")
	_, p := f.pay(t, b)

	v, err := f.bookings.PaymentStatus(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, v.Status)
	assert.Equal(t, model.BookingPending, v.BookingStatus)

	_, err = f.bookings.PaymentStatus(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrPaymentNotFound)
}

func TestInvoice(t *testing.T) {
	f := newFixture()
	req := bookingRequest("jane@example.com")
	req.Booking.TotalPrice = 5700
	req.Booking.AddOns = &pricing.AddOns{
		Forklift:      pricing.Forklift{Selected: true, Hours: 3},
		CCTVRemote:    pricing.Toggle{Selected: true},
		DedicatedDock: pricing.Toggle{Selected: true},
		Racking:       pricing.Racking{Selected: true, Bays: 2},
	}
	res, err := f.bookings.CreateBooking(context.Background(), req)
	require.NoError(t, err)

	inv, err := f.bookings.Invoice(context.Background(), res.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, InvoiceNumber(res.Booking.ID), inv.Number)
	assert.Len(t, inv.Number, 8)
	require.Len(t, inv.Lines, 2)
	assert.Equal(t, 4500.0, inv.Lines[0].Amount)
	assert.Equal(t, 1200.0, inv.Lines[1].Amount)
	assert.Equal(t, "AED 5,700.00", inv.TotalDisplay)
	assert.False(t, inv.Paid)
}

func TestInvoiceNumber(t *testing.T) {
	assert.Equal(t, "3F2A9C1B", InvoiceNumber("3f2a9c1b-0000-4000-8000-000000000000"))
	assert.Equal(t, "AB", InvoiceNumber("ab"))
}
