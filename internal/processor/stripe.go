package processor

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// intentAPI is the part of the Stripe payment-intent client used here.
type intentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Cancel(id string, params *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error)
}

// Stripe creates card payment intents with automatic payment methods.
type Stripe struct {
	intents intentAPI
}

// NewStripe returns a Stripe processor authenticated with secretKey.
func NewStripe(secretKey string) *Stripe {
	sc := client.New(secretKey, nil)
	return &Stripe{intents: sc.PaymentIntents}
}

func (s *Stripe) CreateIntent(ctx context.Context, p CreateParams) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(p.Amount),
		Currency: stripe.String(strings.ToLower(p.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if p.Description != "" {
		params.Description = stripe.String(p.Description)
	}
	if p.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(p.ReceiptEmail)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	if p.IdempotencyKey != "" {
		params.SetIdempotencyKey(p.IdempotencyKey)
	}

	pi, err := s.intents.New(params)
	if err != nil {
		return Intent{}, err
	}
	return fromStripe(pi), nil
}

func (s *Stripe) GetIntent(ctx context.Context, id string) (Intent, error) {
	pi, err := s.intents.Get(id, &stripe.PaymentIntentParams{Params: stripe.Params{Context: ctx}})
	if err != nil {
		return Intent{}, mapStripeErr(err)
	}
	return fromStripe(pi), nil
}

// CancelIntent cancels the intent with reason "abandoned".
func (s *Stripe) CancelIntent(ctx context.Context, id string) (Intent, error) {
	pi, err := s.intents.Cancel(id, &stripe.PaymentIntentCancelParams{
		Params:             stripe.Params{Context: ctx},
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonAbandoned)),
	})
	if err != nil {
		return Intent{}, mapStripeErr(err)
	}
	return fromStripe(pi), nil
}

func mapStripeErr(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		switch se.Code {
		case stripe.ErrorCodeResourceMissing:
			return ErrIntentNotFound
		case stripe.ErrorCodePaymentIntentUnexpectedState:
			return ErrNotCancelable
		}
	}
	return err
}

func fromStripe(pi *stripe.PaymentIntent) Intent {
	return Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       Status(pi.Status),
		Amount:       pi.Amount,
		Currency:     strings.ToUpper(string(pi.Currency)),
		Metadata:     pi.Metadata,
	}
}
