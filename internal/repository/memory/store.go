// Package memory is an in-process implementation of the booking store.
// It enforces the same uniqueness, reference and transition rules as the
// MySQL store and is used for local runs without a database and in tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/iliyamo/storage-booking/internal/model"
	"github.com/iliyamo/storage-booking/internal/repository"
)

type planKey struct {
	size  string
	price int64
}

// Store keeps every table in maps guarded by one mutex.
type Store struct {
	mu       sync.RWMutex
	users    map[string]model.User
	plans    map[string]model.StoragePlan
	bookings map[string]model.Booking
	payments map[string]model.Payment

	emails   map[string]string  // email -> user id
	planKeys map[planKey]string // (size, price) -> plan id
	seq      int64
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:    map[string]model.User{},
		plans:    map[string]model.StoragePlan{},
		bookings: map[string]model.Booking{},
		payments: map[string]model.Payment{},
		emails:   map[string]string{},
		planKeys: map[planKey]string{},
	}
}

// now returns a strictly increasing timestamp so that "newest first"
// orderings are deterministic even within one clock tick.
func (s *Store) now() time.Time {
	s.seq++
	return time.Now().UTC().Add(time.Duration(s.seq) * time.Microsecond)
}

func keyOf(p model.StoragePlan) planKey {
	return planKey{size: p.Size, price: int64(p.Price*100 + 0.5)}
}

// GetUserByEmail matches the email exactly, as the MySQL lookup does.
func (s *Store) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[email]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return s.users[id], nil
}

// CreateUser assigns an id and timestamps; a taken email yields
// repository.ErrEmailExists.
func (s *Store) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emails[u.Email]; ok {
		return repository.ErrEmailExists
	}
	now := s.now()
	u.ID, u.CreatedAt, u.UpdatedAt = uuid.NewString(), now, now
	s.users[u.ID] = *u
	s.emails[u.Email] = u.ID
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]model.UserSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := map[string]int{}
	for _, b := range s.bookings {
		counts[b.UserID]++
	}
	out := lo.Map(lo.Values(s.users), func(u model.User, _ int) model.UserSummary {
		return model.UserSummary{User: u, BookingCount: counts[u.ID]}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UserCount reports how many users are stored.
func (s *Store) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// ListActivePlans returns active plans ordered by size.
func (s *Store) ListActivePlans(_ context.Context) ([]model.StoragePlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedPlans(func(p model.StoragePlan) bool { return p.IsActive }), nil
}

func (s *Store) ListPlans(_ context.Context) ([]model.StoragePlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedPlans(func(model.StoragePlan) bool { return true }), nil
}

func (s *Store) sortedPlans(keep func(model.StoragePlan) bool) []model.StoragePlan {
	out := lo.Filter(lo.Values(s.plans), func(p model.StoragePlan, _ int) bool { return keep(p) })
	sort.Slice(out, func(i, j int) bool {
		if out[i].SizeValue != out[j].SizeValue {
			return out[i].SizeValue < out[j].SizeValue
		}
		return out[i].Price < out[j].Price
	})
	return lo.Map(out, func(p model.StoragePlan, _ int) model.StoragePlan { return clonePlan(p) })
}

func (s *Store) GetPlan(_ context.Context, id string) (model.StoragePlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[id]
	if !ok {
		return model.StoragePlan{}, repository.ErrPlanNotFound
	}
	return clonePlan(p), nil
}

func (s *Store) FindPlan(_ context.Context, size string, price float64) (model.StoragePlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.planKeys[keyOf(model.StoragePlan{Size: size, Price: price})]
	if !ok {
		return model.StoragePlan{}, repository.ErrPlanNotFound
	}
	return clonePlan(s.plans[id]), nil
}

// CreatePlan refuses a second plan with the same size and monthly price
// with repository.ErrPlanExists.
func (s *Store) CreatePlan(_ context.Context, p *model.StoragePlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := keyOf(*p)
	if _, ok := s.planKeys[k]; ok {
		return repository.ErrPlanExists
	}
	now := s.now()
	p.ID, p.CreatedAt, p.UpdatedAt = uuid.NewString(), now, now
	if p.Features == nil {
		p.Features = []string{}
	}
	s.plans[p.ID] = clonePlan(*p)
	s.planKeys[k] = p.ID
	return nil
}

func (s *Store) UpdatePlan(_ context.Context, p *model.StoragePlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.plans[p.ID]
	if !ok {
		return repository.ErrPlanNotFound
	}
	k := keyOf(*p)
	if id, taken := s.planKeys[k]; taken && id != p.ID {
		return repository.ErrPlanExists
	}
	delete(s.planKeys, keyOf(old))
	p.CreatedAt, p.UpdatedAt = old.CreatedAt, s.now()
	if p.Features == nil {
		p.Features = []string{}
	}
	s.plans[p.ID] = clonePlan(*p)
	s.planKeys[k] = p.ID
	return nil
}

// DeletePlan refuses plans that any booking references with
// repository.ErrPlanInUse.
func (s *Store) DeletePlan(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok {
		return repository.ErrPlanNotFound
	}
	if lo.SomeBy(lo.Values(s.bookings), func(b model.Booking) bool { return b.PlanID == id }) {
		return repository.ErrPlanInUse
	}
	delete(s.plans, id)
	delete(s.planKeys, keyOf(p))
	return nil
}

func clonePlan(p model.StoragePlan) model.StoragePlan {
	p.Features = append([]string{}, p.Features...)
	return p
}

func (s *Store) CreateBooking(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[b.UserID]; !ok {
		return fmt.Errorf("booking user %s: %w", b.UserID, repository.ErrUserNotFound)
	}
	if _, ok := s.plans[b.PlanID]; !ok {
		return fmt.Errorf("booking plan %s: %w", b.PlanID, repository.ErrPlanNotFound)
	}
	now := s.now()
	b.ID, b.CreatedAt, b.UpdatedAt = uuid.NewString(), now, now
	s.bookings[b.ID] = *b
	return nil
}

func (s *Store) GetBooking(_ context.Context, id string) (model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, repository.ErrBookingNotFound
	}
	return b, nil
}

func (s *Store) GetBookingDetail(_ context.Context, id string) (model.BookingDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return model.BookingDetail{}, repository.ErrBookingNotFound
	}
	d := s.detail(b)
	d.Payments = lo.Filter(lo.Values(s.payments), func(p model.Payment, _ int) bool { return p.BookingID == id })
	sort.Slice(d.Payments, func(i, j int) bool { return d.Payments[i].CreatedAt.Before(d.Payments[j].CreatedAt) })
	return d, nil
}

func (s *Store) ListBookings(_ context.Context) ([]model.BookingDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := lo.Map(lo.Values(s.bookings), func(b model.Booking, _ int) model.BookingDetail { return s.detail(b) })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) detail(b model.Booking) model.BookingDetail {
	return model.BookingDetail{Booking: b, User: s.users[b.UserID], Plan: clonePlan(s.plans[b.PlanID])}
}

// UpdateBookingStatus moves a booking from one status to another and
// returns repository.ErrConflict when it is no longer in from.
func (s *Store) UpdateBookingStatus(_ context.Context, id string, from, to model.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return repository.ErrBookingNotFound
	}
	if b.Status != from {
		return repository.ErrConflict
	}
	b.Status, b.UpdatedAt = to, s.now()
	s.bookings[id] = b
	return nil
}

func (s *Store) CreatePayment(_ context.Context, p *model.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[p.BookingID]; !ok {
		return fmt.Errorf("payment booking %s: %w", p.BookingID, repository.ErrBookingNotFound)
	}
	now := s.now()
	p.ID, p.CreatedAt, p.UpdatedAt = uuid.NewString(), now, now
	if p.PaymentDate.IsZero() {
		p.PaymentDate = now
	}
	s.payments[p.ID] = *p
	return nil
}

func (s *Store) GetPayment(_ context.Context, id string) (model.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[id]
	if !ok {
		return model.Payment{}, repository.ErrPaymentNotFound
	}
	return p, nil
}

// LatestPendingPayment returns the newest pending payment of a booking.
func (s *Store) LatestPendingPayment(_ context.Context, bookingID string) (model.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pending := lo.Filter(lo.Values(s.payments), func(p model.Payment, _ int) bool {
		return p.BookingID == bookingID && p.Status == model.PaymentPending
	})
	if len(pending) == 0 {
		return model.Payment{}, repository.ErrPaymentNotFound
	}
	return lo.MaxBy(pending, func(a, b model.Payment) bool { return a.CreatedAt.After(b.CreatedAt) }), nil
}

func (s *Store) SetPaymentTransaction(_ context.Context, id, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return repository.ErrPaymentNotFound
	}
	p.TransactionID, p.UpdatedAt = &transactionID, s.now()
	s.payments[id] = p
	return nil
}

// SetPaymentStatus is the conditional counterpart of
// UpdateBookingStatus for payments.
func (s *Store) SetPaymentStatus(_ context.Context, id string, from, to model.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return repository.ErrPaymentNotFound
	}
	if p.Status != from {
		return repository.ErrConflict
	}
	p.Status, p.UpdatedAt = to, s.now()
	s.payments[id] = p
	return nil
}

func (s *Store) ListPayments(_ context.Context) ([]model.PaymentDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := lo.Map(lo.Values(s.payments), func(p model.Payment, _ int) model.PaymentDetail {
		b := s.bookings[p.BookingID]
		u := s.users[b.UserID]
		pl := s.plans[b.PlanID]
		return model.PaymentDetail{
			Payment:       p,
			BookingStatus: b.Status,
			CustomerName:  u.Name,
			CustomerEmail: u.Email,
			PlanName:      pl.Name,
			PlanSize:      pl.Size,
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ListStalePayments returns pending payments with a processor reference
// created before the given time, oldest first.
func (s *Store) ListStalePayments(_ context.Context, before time.Time) ([]model.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedPayments(func(p model.Payment) bool {
		return p.Status == model.PaymentPending && p.TransactionID != nil && p.CreatedAt.Before(before)
	}), nil
}

func (s *Store) ListUnconfirmedPaid(_ context.Context) ([]model.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedPayments(func(p model.Payment) bool {
		return p.Status == model.PaymentCompleted && s.bookings[p.BookingID].Status == model.BookingPending
	}), nil
}

func (s *Store) sortedPayments(keep func(model.Payment) bool) []model.Payment {
	out := lo.Filter(lo.Values(s.payments), func(p model.Payment, _ int) bool { return keep(p) })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// ConfirmPayment applies the payment and booking transition under one
// lock, with the same outcomes as the MySQL store.
func (s *Store) ConfirmPayment(_ context.Context, paymentID string) (repository.Confirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out repository.Confirmation
	p, ok := s.payments[paymentID]
	if !ok {
		return out, repository.ErrPaymentNotFound
	}
	b, ok := s.bookings[p.BookingID]
	if !ok {
		return out, repository.ErrBookingNotFound
	}
	switch p.Status {
	case model.PaymentCompleted:
	case model.PaymentPending, model.PaymentProcessing:
		now := s.now()
		p.Status, p.PaymentDate, p.UpdatedAt = model.PaymentCompleted, now, now
	default:
		return out, fmt.Errorf("payment %s is %s: %w", p.ID, p.Status, repository.ErrConflict)
	}
	if b.Status == model.BookingPending {
		b.Status, b.UpdatedAt = model.BookingConfirmed, s.now()
		out.Confirmed = true
	}
	s.payments[p.ID] = p
	s.bookings[b.ID] = b

	out.Payment, out.Booking = p, b
	if b.Status == model.BookingCancelled {
		return out, fmt.Errorf("booking %s was cancelled before payment %s completed: %w", b.ID, p.ID, repository.ErrConflict)
	}
	return out, nil
}

// Stats counts revenue from completed payments only.
func (s *Store) Stats(_ context.Context) (model.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bookings := lo.Values(s.bookings)
	completed := lo.Filter(lo.Values(s.payments), func(p model.Payment, _ int) bool { return p.Status == model.PaymentCompleted })
	return model.Stats{
		TotalBookings:   len(bookings),
		TotalUsers:      len(s.users),
		TotalRevenue:    lo.SumBy(completed, func(p model.Payment) float64 { return p.Amount }),
		PendingBookings: lo.CountBy(bookings, func(b model.Booking) bool { return b.Status == model.BookingPending }),
	}, nil
}
