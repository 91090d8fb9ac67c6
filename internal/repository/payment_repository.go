package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/storage-booking/internal/model"
)

// PaymentRepo persists payment attempts.  A payment row is written
// before the processor intent is created so that the intent can carry
// the row id as its idempotency key.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// CreatePayment inserts p, assigning its ID and timestamps.  PaymentDate
// defaults to the insert time.
func (r *PaymentRepo) CreatePayment(ctx context.Context, p *model.Payment) error {
	now := time.Now().UTC()
	id := uuid.NewString()
	if p.PaymentDate.IsZero() {
		p.PaymentDate = now
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (`+paymentCols+`) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		id, p.BookingID, p.Amount, p.Currency, p.PaymentMethod, p.Status,
		nullString(p.TransactionID), p.PaymentDate, now, now)
	if err != nil {
		return err
	}
	p.ID, p.CreatedAt, p.UpdatedAt = id, now, now
	return nil
}

// GetPayment fetches a payment by id.
func (r *PaymentRepo) GetPayment(ctx context.Context, id string) (model.Payment, error) {
	return getPayment(ctx, r.db, id, false)
}

// LatestPendingPayment returns the newest pending payment of a booking,
// or ErrPaymentNotFound when there is none.
func (r *PaymentRepo) LatestPendingPayment(ctx context.Context, bookingID string) (model.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx,
		"SELECT "+paymentCols+" FROM payments WHERE booking_id=? AND status=? ORDER BY created_at DESC LIMIT 1",
		bookingID, model.PaymentPending))
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrPaymentNotFound
	}
	return p, err
}

// SetPaymentTransaction stores the processor reference of a payment.
func (r *PaymentRepo) SetPaymentTransaction(ctx context.Context, id, transactionID string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE payments SET transaction_id=?, updated_at=? WHERE id=?",
		transactionID, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

// SetPaymentStatus moves payment id from status from to status to.  If
// the payment exists but is no longer in from, ErrConflict is returned.
func (r *PaymentRepo) SetPaymentStatus(ctx context.Context, id string, from, to model.PaymentStatus) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE payments SET status=?, updated_at=? WHERE id=? AND status=?",
		to, time.Now().UTC(), id, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err := r.GetPayment(ctx, id); err != nil {
		return err
	}
	return ErrConflict
}

// ListPayments returns every payment with its booking's customer and
// plan, newest first.
func (r *PaymentRepo) ListPayments(ctx context.Context) ([]model.PaymentDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+prefixed("pay", paymentCols)+`, b.status, u.name, u.email, sp.name, sp.size
		   FROM payments pay
		   JOIN bookings b ON b.id = pay.booking_id
		   JOIN users u ON u.id = b.user_id
		   JOIN storage_plans sp ON sp.id = b.plan_id
		  ORDER BY pay.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.PaymentDetail{}
	for rows.Next() {
		var d model.PaymentDetail
		dest, finish := paymentDest(&d.Payment)
		dest = append(dest, &d.BookingStatus, &d.CustomerName, &d.CustomerEmail, &d.PlanName, &d.PlanSize)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		finish()
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListStalePayments returns pending payments that carry a processor
// reference and were created before the given time.
func (r *PaymentRepo) ListStalePayments(ctx context.Context, before time.Time) ([]model.Payment, error) {
	return r.list(ctx,
		"SELECT "+paymentCols+" FROM payments WHERE status=? AND transaction_id IS NOT NULL AND created_at < ? ORDER BY created_at ASC",
		model.PaymentPending, before)
}

// ListUnconfirmedPaid returns completed payments whose booking is still
// pending.  A non-empty result means a confirmation was interrupted.
func (r *PaymentRepo) ListUnconfirmedPaid(ctx context.Context) ([]model.Payment, error) {
	return r.list(ctx,
		`SELECT `+prefixed("pay", paymentCols)+`
		   FROM payments pay
		   JOIN bookings b ON b.id = pay.booking_id
		  WHERE pay.status=? AND b.status=?
		  ORDER BY pay.created_at ASC`,
		model.PaymentCompleted, model.BookingPending)
}

func (r *PaymentRepo) list(ctx context.Context, q string, args ...any) ([]model.Payment, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func getPayment(ctx context.Context, q queryer, id string, forUpdate bool) (model.Payment, error) {
	query := "SELECT " + paymentCols + " FROM payments WHERE id=? LIMIT 1"
	if forUpdate {
		query += " FOR UPDATE"
	}
	p, err := scanPayment(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrPaymentNotFound
	}
	return p, err
}
