package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/iliyamo/storage-booking/internal/logger"
	"github.com/iliyamo/storage-booking/internal/model"
	"github.com/iliyamo/storage-booking/internal/utils"
)

// AdminAuth holds the single staff account and the session signing key.
type AdminAuth struct {
	Email        string
	PasswordHash string // bcrypt
	JWTSecret    string
	TokenTTLMin  int
}

// Admin implements the admin console: staff login, read-only listings and
// booking status changes.  Plan CRUD lives on Catalog.
type Admin struct {
	store Store
	auth  AdminAuth
}

// NewAdmin returns an Admin over store.
func NewAdmin(store Store, auth AdminAuth) *Admin {
	if auth.TokenTTLMin <= 0 {
		auth.TokenTTLMin = 480
	}
	return &Admin{store: store, auth: auth}
}

// Login checks the staff credentials and issues a signed session token
// carrying the ADMIN role.
func (a *Admin) Login(ctx context.Context, email, password string) (utils.AccessToken, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return utils.AccessToken{}, invalid("email and password are required")
	}
	emailOK := subtle.ConstantTimeCompare([]byte(strings.ToLower(strings.TrimSpace(email))), []byte(strings.ToLower(a.auth.Email))) == 1
	// bcrypt runs on every attempt, whether or not the email matched.
	passOK := utils.VerifyPassword(a.auth.PasswordHash, password)
	if !emailOK || !passOK {
		logger.GetLogger(ctx).Warn("admin login rejected")
		return utils.AccessToken{}, ErrUnauthorized
	}
	return utils.NewAccessToken(a.auth.JWTSecret, a.auth.Email, utils.RoleAdmin, a.auth.TokenTTLMin)
}

func (a *Admin) ListBookings(ctx context.Context) ([]model.BookingDetail, error) {
	return a.store.ListBookings(ctx)
}

func (a *Admin) ListUsers(ctx context.Context) ([]model.UserSummary, error) {
	return a.store.ListUsers(ctx)
}

func (a *Admin) ListPayments(ctx context.Context) ([]model.PaymentDetail, error) {
	return a.store.ListPayments(ctx)
}

func (a *Admin) Stats(ctx context.Context) (model.Stats, error) {
	return a.store.Stats(ctx)
}

// UpdateBookingStatus moves a booking along its lifecycle.  Moves the
// lifecycle does not allow return ErrInvalidTransition; a concurrent
// change surfaces as repository.ErrConflict.
func (a *Admin) UpdateBookingStatus(ctx context.Context, id, status string) (model.Booking, error) {
	next := model.BookingStatus(strings.ToLower(strings.TrimSpace(status)))
	if !next.Valid() {
		return model.Booking{}, invalid("unknown booking status %q", status)
	}
	b, err := a.store.GetBooking(ctx, id)
	if err != nil {
		return model.Booking{}, err
	}
	if !b.Status.CanTransitionTo(next) {
		return model.Booking{}, fmt.Errorf("%s -> %s: %w", b.Status, next, ErrInvalidTransition)
	}
	if err := a.store.UpdateBookingStatus(ctx, id, b.Status, next); err != nil {
		return model.Booking{}, err
	}
	logger.GetLogger(ctx).WithField("booking_id", id).Infof("booking status %s -> %s", b.Status, next)
	return a.store.GetBooking(ctx, id)
}
