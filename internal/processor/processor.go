// Package processor talks to the card processor that holds customers'
// payment intents.  Stripe is the production implementation; Memory is
// an in-process stand-in for local runs and tests.
package processor

import (
	"context"
	"errors"
)

// Status mirrors the processor's payment-intent lifecycle.
type Status string

const (
	StatusRequiresPaymentMethod Status = "requires_payment_method"
	StatusRequiresConfirmation  Status = "requires_confirmation"
	StatusRequiresAction        Status = "requires_action"
	StatusProcessing            Status = "processing"
	StatusRequiresCapture       Status = "requires_capture"
	StatusCanceled              Status = "canceled"
	StatusSucceeded             Status = "succeeded"
)

// ErrIntentNotFound is returned when the processor has no intent with
// the requested id.
var ErrIntentNotFound = errors.New("payment intent not found")

// ErrNotCancelable is returned when cancelling an intent that has
// already settled or is being processed.
var ErrNotCancelable = errors.New("payment intent cannot be cancelled")

// Intent is the processor-side record of one payment attempt.
type Intent struct {
	ID           string
	ClientSecret string
	Status       Status
	Amount       int64 // minor units
	Currency     string
	Metadata     map[string]string
}

// Usable reports whether the client can still pay against the intent.
func (i Intent) Usable() bool {
	return i.Status != StatusSucceeded && i.Status != StatusCanceled
}

// CreateParams describes a new intent.  IdempotencyKey makes retried
// creations for the same payment row return the same intent.
type CreateParams struct {
	Amount         int64 // minor units
	Currency       string
	Description    string
	ReceiptEmail   string
	Metadata       map[string]string
	IdempotencyKey string
}

// Cancelable reports whether the processor still accepts a cancellation
// for the intent.  Processing and settled intents cannot be cancelled.
func (i Intent) Cancelable() bool {
	switch i.Status {
	case StatusRequiresPaymentMethod, StatusRequiresConfirmation, StatusRequiresAction, StatusRequiresCapture:
		return true
	}
	return false
}

// Processor creates, reads and cancels payment intents.
type Processor interface {
	CreateIntent(ctx context.Context, p CreateParams) (Intent, error)
	GetIntent(ctx context.Context, id string) (Intent, error)
	// CancelIntent cancels an abandoned intent so it can no longer be paid.
	CancelIntent(ctx context.Context, id string) (Intent, error)
}
