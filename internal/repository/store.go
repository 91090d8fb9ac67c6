package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/storage-booking/internal/model"
)

// Store bundles the table repositories over one database and adds the
// operations that span several tables.
type Store struct {
	*UserRepo
	*PlanRepo
	*BookingRepo
	*PaymentRepo
	db *sql.DB
}

// NewStore returns a Store bound to the given database.
func NewStore(db *sql.DB) *Store {
	return &Store{
		UserRepo:    NewUserRepo(db),
		PlanRepo:    NewPlanRepo(db),
		BookingRepo: NewBookingRepo(db),
		PaymentRepo: NewPaymentRepo(db),
		db:          db,
	}
}

// Confirmation is the outcome of ConfirmPayment.  Confirmed is true only
// when this call moved the booking from pending to confirmed.
type Confirmation struct {
	Payment   model.Payment
	Booking   model.Booking
	Confirmed bool
}

// ConfirmPayment marks a payment completed and its booking confirmed in a
// single transaction.  It is idempotent: a completed payment whose
// booking is already past pending changes nothing.  Failed or refunded
// payments yield ErrConflict.  If the booking was cancelled the payment
// is still recorded as completed and ErrConflict is returned alongside
// the result so the caller can flag it.
func (s *Store) ConfirmPayment(ctx context.Context, paymentID string) (Confirmation, error) {
	var out Confirmation

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return out, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	p, err := getPayment(ctx, tx, paymentID, true)
	if err != nil {
		return out, err
	}
	now := time.Now().UTC()
	switch p.Status {
	case model.PaymentCompleted:
	case model.PaymentPending, model.PaymentProcessing:
		if _, err := tx.ExecContext(ctx,
			"UPDATE payments SET status=?, payment_date=?, updated_at=? WHERE id=?",
			model.PaymentCompleted, now, now, p.ID); err != nil {
			return out, err
		}
		p.Status, p.PaymentDate, p.UpdatedAt = model.PaymentCompleted, now, now
	default:
		return out, fmt.Errorf("payment %s is %s: %w", p.ID, p.Status, ErrConflict)
	}

	b, err := getBooking(ctx, tx, p.BookingID, true)
	if err != nil {
		return out, err
	}
	if b.Status == model.BookingPending {
		if _, err := tx.ExecContext(ctx,
			"UPDATE bookings SET status=?, updated_at=? WHERE id=?",
			model.BookingConfirmed, now, b.ID); err != nil {
			return out, err
		}
		b.Status, b.UpdatedAt = model.BookingConfirmed, now
		out.Confirmed = true
	}

	if err := tx.Commit(); err != nil {
		return Confirmation{}, err
	}
	committed = true

	out.Payment, out.Booking = p, b
	if b.Status == model.BookingCancelled {
		return out, fmt.Errorf("booking %s was cancelled before payment %s completed: %w", b.ID, p.ID, ErrConflict)
	}
	return out, nil
}

// Stats aggregates the admin dashboard numbers.  Revenue counts completed
// payments only.
func (s *Store) Stats(ctx context.Context) (model.Stats, error) {
	var st model.Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT
		    (SELECT COUNT(*) FROM bookings),
		    (SELECT COUNT(*) FROM users),
		    (SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status=?),
		    (SELECT COUNT(*) FROM bookings WHERE status=?)`,
		model.PaymentCompleted, model.BookingPending,
	).Scan(&st.TotalBookings, &st.TotalUsers, &st.TotalRevenue, &st.PendingBookings)
	return st, err
}
