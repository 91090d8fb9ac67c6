// Package service implements the storage booking workflow, the plan
// catalog, the admin console operations and the payment reconciler on top
// of a Store and a payment processor.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks requests that fail validation before any
	// record is touched.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAmountMismatch is returned when the amount to charge differs from
	// the booking total by more than 0.01.
	ErrAmountMismatch = errors.New("amount does not match booking total")
	// ErrBookingNotPending is returned when a payment is requested for a
	// booking that is no longer awaiting payment.
	ErrBookingNotPending = errors.New("booking is not awaiting payment")
	// ErrAlreadyPaid is returned when the processor reports that the
	// booking's pending intent has already succeeded.
	ErrAlreadyPaid = errors.New("booking is already paid")
	// ErrIntentMismatch is returned when a confirmation names an intent
	// that does not belong to the payment.
	ErrIntentMismatch = errors.New("payment intent does not belong to this payment")
	// ErrInvalidTransition is returned for booking status changes the
	// lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid booking status transition")
	// ErrPaidAfterCancel is returned when the processor took a payment for
	// a booking that was cancelled in the meantime.  The payment is
	// recorded as completed and has to be refunded.
	ErrPaidAfterCancel = errors.New("payment received for a cancelled booking")
	// ErrUpstream wraps failures of the payment processor.
	ErrUpstream = errors.New("payment processor error")
	// ErrUnauthorized is returned for bad admin credentials.
	ErrUnauthorized = errors.New("invalid credentials")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstream, op, err)
}
