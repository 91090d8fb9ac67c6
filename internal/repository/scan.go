package repository

import (
	"database/sql"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/samber/lo"

	"github.com/iliyamo/storage-booking/internal/model"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const (
	userCols    = "id, name, email, phone, company_name, created_at, updated_at"
	planCols    = "id, name, size, size_value, price_per_month, premium_price, dimensions, description, features, use_case, is_popular, is_active, created_at, updated_at"
	bookingCols = "id, user_id, plan_id, start_date, end_date, status, total_amount, notes, created_at, updated_at"
	paymentCols = "id, booking_id, amount, currency, payment_method, status, transaction_id, payment_date, created_at, updated_at"
)

// prefixed qualifies every column of a list with a table alias, e.g.
// prefixed("u", "id, name") -> "u.id, u.name".
func prefixed(alias, cols string) string {
	parts := lo.Map(strings.Split(cols, ","), func(c string, _ int) string {
		return alias + "." + strings.TrimSpace(c)
	})
	return strings.Join(parts, ", ")
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *p, Valid: true}
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// userDest returns scan targets for userCols.  The returned func must be
// called after Scan to copy nullable columns into u.
func userDest(u *model.User) ([]any, func()) {
	var company sql.NullString
	dest := []any{&u.ID, &u.Name, &u.Email, &u.Phone, &company, &u.CreatedAt, &u.UpdatedAt}
	return dest, func() { u.CompanyName = strPtr(company) }
}

func planDest(p *model.StoragePlan) ([]any, func() error) {
	var (
		premium     sql.NullFloat64
		description sql.NullString
		useCase     sql.NullString
		features    []byte
	)
	dest := []any{&p.ID, &p.Name, &p.Size, &p.SizeValue, &p.Price, &premium, &p.Dimensions,
		&description, &features, &useCase, &p.IsPopular, &p.IsActive, &p.CreatedAt, &p.UpdatedAt}
	return dest, func() error {
		p.PremiumPrice = floatPtr(premium)
		p.Description = strPtr(description)
		p.UseCase = strPtr(useCase)
		p.Features = []string{}
		if len(features) > 0 {
			if err := sonic.Unmarshal(features, &p.Features); err != nil {
				return err
			}
		}
		return nil
	}
}

func bookingDest(b *model.Booking) ([]any, func()) {
	var (
		end   sql.NullTime
		notes sql.NullString
	)
	dest := []any{&b.ID, &b.UserID, &b.PlanID, &b.StartDate, &end, &b.Status, &b.TotalAmount, &notes, &b.CreatedAt, &b.UpdatedAt}
	return dest, func() {
		b.EndDate = timePtr(end)
		b.Notes = strPtr(notes)
	}
}

func paymentDest(p *model.Payment) ([]any, func()) {
	var tx sql.NullString
	dest := []any{&p.ID, &p.BookingID, &p.Amount, &p.Currency, &p.PaymentMethod, &p.Status, &tx, &p.PaymentDate, &p.CreatedAt, &p.UpdatedAt}
	return dest, func() { p.TransactionID = strPtr(tx) }
}

func scanUser(s rowScanner) (model.User, error) {
	var u model.User
	dest, finish := userDest(&u)
	if err := s.Scan(dest...); err != nil {
		return u, err
	}
	finish()
	return u, nil
}

func scanPlan(s rowScanner) (model.StoragePlan, error) {
	var p model.StoragePlan
	dest, finish := planDest(&p)
	if err := s.Scan(dest...); err != nil {
		return p, err
	}
	return p, finish()
}

func scanBooking(s rowScanner) (model.Booking, error) {
	var b model.Booking
	dest, finish := bookingDest(&b)
	if err := s.Scan(dest...); err != nil {
		return b, err
	}
	finish()
	return b, nil
}

func scanPayment(s rowScanner) (model.Payment, error) {
	var p model.Payment
	dest, finish := paymentDest(&p)
	if err := s.Scan(dest...); err != nil {
		return p, err
	}
	finish()
	return p, nil
}

func encodeFeatures(features []string) ([]byte, error) {
	if features == nil {
		features = []string{}
	}
	return sonic.Marshal(features)
}
