package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/storage-booking/internal/model"
)

// BookingRepo persists bookings.  After creation only a booking's status
// changes, and every status change is conditional on the status the
// caller last observed.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// CreateBooking inserts b, assigning its ID and timestamps.
func (r *BookingRepo) CreateBooking(ctx context.Context, b *model.Booking) error {
	now := time.Now().UTC()
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bookings (`+bookingCols+`) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		id, b.UserID, b.PlanID, b.StartDate, nullTime(b.EndDate), b.Status, b.TotalAmount,
		nullString(b.Notes), now, now)
	if err != nil {
		return err
	}
	b.ID, b.CreatedAt, b.UpdatedAt = id, now, now
	return nil
}

// GetBooking fetches a booking by id.
func (r *BookingRepo) GetBooking(ctx context.Context, id string) (model.Booking, error) {
	return getBooking(ctx, r.db, id, false)
}

// GetBookingDetail returns the booking with its customer, plan and
// payments (oldest payment first).
func (r *BookingRepo) GetBookingDetail(ctx context.Context, id string) (model.BookingDetail, error) {
	d, err := scanBookingDetail(r.db.QueryRowContext(ctx, bookingDetailQuery+" WHERE b.id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return d, ErrBookingNotFound
	}
	if err != nil {
		return d, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+paymentCols+" FROM payments WHERE booking_id=? ORDER BY created_at ASC", id)
	if err != nil {
		return d, err
	}
	defer rows.Close()
	d.Payments = []model.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return d, err
		}
		d.Payments = append(d.Payments, p)
	}
	return d, rows.Err()
}

// ListBookings returns every booking with customer and plan, newest
// first.  Payments are not loaded.
func (r *BookingRepo) ListBookings(ctx context.Context) ([]model.BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx, bookingDetailQuery+" ORDER BY b.created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.BookingDetail{}
	for rows.Next() {
		d, err := scanBookingDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpdateBookingStatus moves booking id from status from to status to.
// If the booking exists but is no longer in from, ErrConflict is
// returned and nothing changes.
func (r *BookingRepo) UpdateBookingStatus(ctx context.Context, id string, from, to model.BookingStatus) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE bookings SET status=?, updated_at=? WHERE id=? AND status=?",
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
	if _, err := r.GetBooking(ctx, id); err != nil {
		return err
	}
	return ErrConflict
}

// queryer is the subset of *sql.DB and *sql.Tx used by shared helpers.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getBooking(ctx context.Context, q queryer, id string, forUpdate bool) (model.Booking, error) {
	query := "SELECT " + bookingCols + " FROM bookings WHERE id=? LIMIT 1"
	if forUpdate {
		query += " FOR UPDATE"
	}
	b, err := scanBooking(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrBookingNotFound
	}
	return b, err
}

var bookingDetailQuery = `SELECT ` + prefixed("b", bookingCols) + `, ` + prefixed("u", userCols) + `, ` + prefixed("p", planCols) + `
	  FROM bookings b
	  JOIN users u ON u.id = b.user_id
	  JOIN storage_plans p ON p.id = b.plan_id`

func scanBookingDetail(s rowScanner) (model.BookingDetail, error) {
	var d model.BookingDetail
	bDest, bFinish := bookingDest(&d.Booking)
	uDest, uFinish := userDest(&d.User)
	pDest, pFinish := planDest(&d.Plan)

	dest := make([]any, 0, len(bDest)+len(uDest)+len(pDest))
	dest = append(dest, bDest...)
	dest = append(dest, uDest...)
	dest = append(dest, pDest...)
	if err := s.Scan(dest...); err != nil {
		return d, err
	}
	bFinish()
	uFinish()
	return d, pFinish()
}
