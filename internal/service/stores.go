package service

import (
	"context"
	"time"

	"github.com/iliyamo/storage-booking/internal/model"
	"github.com/iliyamo/storage-booking/internal/queue"
	"github.com/iliyamo/storage-booking/internal/repository"
)

// PlanStore is the storage of the plan catalog.
type PlanStore interface {
	ListActivePlans(ctx context.Context) ([]model.StoragePlan, error)
	ListPlans(ctx context.Context) ([]model.StoragePlan, error)
	GetPlan(ctx context.Context, id string) (model.StoragePlan, error)
	FindPlan(ctx context.Context, size string, price float64) (model.StoragePlan, error)
	CreatePlan(ctx context.Context, p *model.StoragePlan) error
	UpdatePlan(ctx context.Context, p *model.StoragePlan) error
	DeletePlan(ctx context.Context, id string) error
}

// Store is everything the booking workflow and the admin console need.
// repository.Store and memory.Store both satisfy it.
type Store interface {
	PlanStore

	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	CreateUser(ctx context.Context, u *model.User) error
	ListUsers(ctx context.Context) ([]model.UserSummary, error)

	CreateBooking(ctx context.Context, b *model.Booking) error
	GetBooking(ctx context.Context, id string) (model.Booking, error)
	GetBookingDetail(ctx context.Context, id string) (model.BookingDetail, error)
	ListBookings(ctx context.Context) ([]model.BookingDetail, error)
	UpdateBookingStatus(ctx context.Context, id string, from, to model.BookingStatus) error

	CreatePayment(ctx context.Context, p *model.Payment) error
	GetPayment(ctx context.Context, id string) (model.Payment, error)
	LatestPendingPayment(ctx context.Context, bookingID string) (model.Payment, error)
	SetPaymentTransaction(ctx context.Context, id, transactionID string) error
	SetPaymentStatus(ctx context.Context, id string, from, to model.PaymentStatus) error
	ListPayments(ctx context.Context) ([]model.PaymentDetail, error)
	ListStalePayments(ctx context.Context, before time.Time) ([]model.Payment, error)
	ListUnconfirmedPaid(ctx context.Context) ([]model.Payment, error)

	ConfirmPayment(ctx context.Context, paymentID string) (repository.Confirmation, error)
	Stats(ctx context.Context) (model.Stats, error)
}

// EventPublisher delivers booking events to the broker.
type EventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
}
