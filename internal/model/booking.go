package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingActive    BookingStatus = "active"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// bookingNext lists the forward transitions of every status.  Cancellation
// is allowed from any status that is not terminal.
var bookingNext = map[BookingStatus]BookingStatus{
	BookingPending:   BookingConfirmed,
	BookingConfirmed: BookingActive,
	BookingActive:    BookingCompleted,
}

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingActive, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

// CanTransitionTo reports whether a booking in status s may move to next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if s.Terminal() || !next.Valid() {
		return false
	}
	if next == BookingCancelled {
		return true
	}
	return bookingNext[s] == next
}

// Booking records a customer's reservation of a storage plan.  It is
// created once per checkout attempt in status pending; afterwards only
// its status changes.
//
// Fields:
//  ID          – primary key identifier (UUID).
//  UserID      – owning customer.
//  PlanID      – reserved storage plan.
//  StartDate   – move-in date.
//  EndDate     – optional end date.
//  Status      – lifecycle status.
//  TotalAmount – monthly total including add-ons.
//  Notes       – company, address, dimensions and add-on summary.
type Booking struct {
	ID          string        `json:"id"`           // bookings.id
	UserID      string        `json:"user_id"`      // bookings.user_id
	PlanID      string        `json:"plan_id"`      // bookings.plan_id
	StartDate   time.Time     `json:"start_date"`   // bookings.start_date
	EndDate     *time.Time    `json:"end_date"`     // bookings.end_date (nullable)
	Status      BookingStatus `json:"status"`       // bookings.status
	TotalAmount float64       `json:"total_amount"` // bookings.total_amount
	Notes       *string       `json:"notes"`        // bookings.notes (nullable)
	CreatedAt   time.Time     `json:"created_at"`   // bookings.created_at
	UpdatedAt   time.Time     `json:"updated_at"`   // bookings.updated_at
}

// BookingDetail is a booking joined with its customer, plan and payments.
// It is returned by the confirmation endpoint and the admin listing.
type BookingDetail struct {
	Booking
	User     User        `json:"user"`
	Plan     StoragePlan `json:"storage_plan"`
	Payments []Payment   `json:"payments"`
}
