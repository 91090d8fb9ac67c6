package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/storage-booking/internal/logger"
	"github.com/iliyamo/storage-booking/internal/model"
	"github.com/iliyamo/storage-booking/internal/money"
	"github.com/iliyamo/storage-booking/internal/pricing"
	"github.com/iliyamo/storage-booking/internal/processor"
	"github.com/iliyamo/storage-booking/internal/queue"
	"github.com/iliyamo/storage-booking/internal/repository"
)

// DefaultStepTimeout bounds each store or processor round-trip of the
// booking workflow.
const DefaultStepTimeout = 10 * time.Second

// CustomerInput is the customer half of a booking request.
type CustomerInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	CompanyName string `json:"companyName"`
	Address     string `json:"address"`
}

// BookingInput is the booking half of a booking request.  PlanID selects
// a catalogued plan; without it the plan is resolved by (Size, BasePrice).
type BookingInput struct {
	Size       string          `json:"size"`
	MoveInDate string          `json:"moveInDate"`
	TotalPrice float64         `json:"totalPrice"`
	Dimensions string          `json:"dimensions"`
	PlanID     string          `json:"plan_id"`
	BasePrice  float64         `json:"basePrice"`
	AddOns     *pricing.AddOns `json:"addOns"`
}

// CreateBookingRequest is the body of a booking creation.
type CreateBookingRequest struct {
	Customer CustomerInput `json:"customer"`
	Booking  BookingInput  `json:"booking"`
}

// CreateBookingResult is the outcome of CreateBooking.
type CreateBookingResult struct {
	Booking  model.Booking
	Plan     model.StoragePlan
	Customer model.User
}

// IntentCustomer identifies the payer of an intent.
type IntentCustomer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// IntentRequest is the body of a payment-intent creation.
type IntentRequest struct {
	BookingID string            `json:"bookingId"`
	Amount    float64           `json:"amount"`
	Currency  string            `json:"currency"`
	Customer  IntentCustomer    `json:"customer"`
	Metadata  map[string]string `json:"metadata"`
}

// IntentResult carries what the client needs to collect the card payment.
type IntentResult struct {
	ClientSecret string
	PaymentID    string
	BookingID    string
	Reused       bool
}

// Confirmation outcomes reported to the client.
const (
	OutcomeSucceeded  = "succeeded"
	OutcomeProcessing = "processing"
	OutcomeFailed     = "failed"
)

// ConfirmResult is the outcome of ConfirmPayment.  Booking is set when the
// payment succeeded.
type ConfirmResult struct {
	Status          string
	ProcessorStatus processor.Status
	Payment         model.Payment
	Booking         *model.Booking
	Message         string
}

// PaymentView is a payment with the status of its booking.
type PaymentView struct {
	model.Payment
	BookingStatus model.BookingStatus `json:"booking_status"`
}

// Bookings runs the checkout workflow: booking creation, payment-intent
// creation and payment confirmation.
type Bookings struct {
	store       Store
	proc        processor.Processor
	events      EventPublisher // nil disables events
	currency    string
	stepTimeout time.Duration
}

// NewBookings returns a Bookings workflow.  events may be nil.
func NewBookings(store Store, proc processor.Processor, events EventPublisher, currency string) *Bookings {
	if currency == "" {
		currency = "AED"
	}
	return &Bookings{
		store:       store,
		proc:        proc,
		events:      events,
		currency:    strings.ToUpper(currency),
		stepTimeout: DefaultStepTimeout,
	}
}

func (s *Bookings) step(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.stepTimeout)
}

// parseMoveIn accepts a calendar date or an RFC 3339 timestamp.
func parseMoveIn(v string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

func validateBooking(req CreateBookingRequest) (time.Time, error) {
	c, b := req.Customer, req.Booking
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Email) == "" || strings.TrimSpace(c.Phone) == "" {
		return time.Time{}, invalid("missing required customer fields: name, email, phone")
	}
	if strings.TrimSpace(b.Size) == "" || strings.TrimSpace(b.MoveInDate) == "" || b.TotalPrice == 0 {
		return time.Time{}, invalid("missing required booking fields: size, moveInDate, totalPrice")
	}
	if b.TotalPrice < 0 || b.BasePrice < 0 {
		return time.Time{}, invalid("prices must not be negative")
	}
	start, err := parseMoveIn(strings.TrimSpace(b.MoveInDate))
	if err != nil {
		return time.Time{}, invalid("moveInDate must be a date (YYYY-MM-DD)")
	}
	return start, nil
}

// bookingNotes joins the optional extras of a booking with " | ",
// leaving out empty parts.
func bookingNotes(c CustomerInput, b BookingInput) string {
	var addOns string
	if b.AddOns != nil {
		if lines := pricing.Summary(*b.AddOns); len(lines) > 0 {
			addOns = "Add-ons: " + strings.Join(lines, ", ")
		}
	}
	parts := []string{
		labelled("Company", c.CompanyName),
		labelled("Address", c.Address),
		labelled("Dimensions", b.Dimensions),
		addOns,
	}
	return strings.Join(lo.Filter(parts, func(p string, _ int) bool { return p != "" }), " | ")
}

func labelled(label, v string) string {
	if v = strings.TrimSpace(v); v == "" {
		return ""
	}
	return label + ": " + v
}

// CreateBooking validates req, resolves or creates the customer and the
// plan, and stores a pending booking.  Validation failures touch no
// records.
func (s *Bookings) CreateBooking(ctx context.Context, req CreateBookingRequest) (CreateBookingResult, error) {
	log := logger.GetLogger(ctx)
	start, err := validateBooking(req)
	if err != nil {
		return CreateBookingResult{}, err
	}
	req.Customer.Email = strings.TrimSpace(req.Customer.Email)
	req.Booking.Size = strings.TrimSpace(req.Booking.Size)

	user, err := s.resolveUser(ctx, req.Customer)
	if err != nil {
		return CreateBookingResult{}, err
	}
	plan, err := s.resolvePlan(ctx, req.Booking)
	if err != nil {
		return CreateBookingResult{}, err
	}

	if a := req.Booking.AddOns; a != nil {
		sqFt := pricing.ParseSquareFeet(plan.Size)
		if want := pricing.ComputeTotal(plan.Price, sqFt, *a); !money.Match(want, req.Booking.TotalPrice) {
			log.WithFields(logrus.Fields{"submitted": req.Booking.TotalPrice, "computed": want}).
				Warn("booking total differs from calculator total")
		}
	}

	b := model.Booking{
		UserID:      user.ID,
		PlanID:      plan.ID,
		StartDate:   start,
		Status:      model.BookingPending,
		TotalAmount: req.Booking.TotalPrice,
	}
	if notes := bookingNotes(req.Customer, req.Booking); notes != "" {
		b.Notes = &notes
	}
	sctx, cancel := s.step(ctx)
	defer cancel()
	if err := s.store.CreateBooking(sctx, &b); err != nil {
		return CreateBookingResult{}, fmt.Errorf("create booking: %w", err)
	}
	log.WithFields(logrus.Fields{"booking_id": b.ID, "user_id": user.ID, "plan_id": plan.ID}).Info("booking created")
	return CreateBookingResult{Booking: b, Plan: plan, Customer: user}, nil
}

// resolveUser returns the user with the customer's email, creating it
// when absent.  A concurrent insert of the same email surfaces as
// ErrEmailExists and is answered by re-reading the winner's row.
func (s *Bookings) resolveUser(ctx context.Context, c CustomerInput) (model.User, error) {
	sctx, cancel := s.step(ctx)
	defer cancel()

	u, err := s.store.GetUserByEmail(sctx, c.Email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return model.User{}, fmt.Errorf("look up user: %w", err)
	}

	u = model.User{Name: strings.TrimSpace(c.Name), Email: c.Email, Phone: strings.TrimSpace(c.Phone)}
	if company := strings.TrimSpace(c.CompanyName); company != "" {
		u.CompanyName = &company
	}
	err = s.store.CreateUser(sctx, &u)
	if errors.Is(err, repository.ErrEmailExists) {
		u, err = s.store.GetUserByEmail(sctx, c.Email)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// resolvePlan returns the plan named by PlanID, or the plan with the
// booking's size and base price, creating that one on demand.
func (s *Bookings) resolvePlan(ctx context.Context, b BookingInput) (model.StoragePlan, error) {
	sctx, cancel := s.step(ctx)
	defer cancel()

	if id := strings.TrimSpace(b.PlanID); id != "" {
		return s.store.GetPlan(sctx, id)
	}

	base := b.BasePrice
	if base <= 0 {
		// Without a base price the add-ons are backed out of the total.
		base = b.TotalPrice
		if b.AddOns != nil {
			if extra := pricing.Price(pricing.ParseSquareFeet(b.Size), *b.AddOns).Sum(); extra < base {
				base = money.Sum(base, -extra)
			}
		}
	}

	p, err := s.store.FindPlan(sctx, b.Size, base)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, repository.ErrPlanNotFound) {
		return model.StoragePlan{}, fmt.Errorf("look up plan: %w", err)
	}

	desc := "Custom warehouse space - " + lo.Ternary(strings.TrimSpace(b.Dimensions) != "", strings.TrimSpace(b.Dimensions), b.Size)
	p = model.StoragePlan{
		Name:        "Warehouse " + b.Size,
		Size:        b.Size,
		SizeValue:   pricing.SizeValue(b.Size),
		Price:       base,
		Dimensions:  strings.TrimSpace(b.Dimensions),
		Description: &desc,
		Features:    append([]string{}, model.DefaultPlanFeatures...),
		IsActive:    true,
	}
	err = s.store.CreatePlan(sctx, &p)
	if errors.Is(err, repository.ErrPlanExists) {
		p, err = s.store.FindPlan(sctx, b.Size, base)
	}
	if err != nil {
		return model.StoragePlan{}, fmt.Errorf("create plan: %w", err)
	}
	return p, nil
}

// CreatePaymentIntent prepares a card payment for a pending booking.  A
// still-usable intent of the booking's latest pending payment is reused
// so that reloading the checkout never creates a second charge.
func (s *Bookings) CreatePaymentIntent(ctx context.Context, req IntentRequest) (IntentResult, error) {
	if strings.TrimSpace(req.BookingID) == "" || req.Amount <= 0 {
		return IntentResult{}, invalid("missing required fields: bookingId, amount")
	}
	if strings.TrimSpace(req.Customer.Email) == "" || strings.TrimSpace(req.Customer.Name) == "" {
		return IntentResult{}, invalid("missing customer info: email, name")
	}
	currency := strings.ToUpper(lo.Ternary(req.Currency != "", req.Currency, s.currency))
	log := logger.GetLogger(ctx).WithField("booking_id", req.BookingID)

	sctx, cancel := s.step(ctx)
	detail, err := s.store.GetBookingDetail(sctx, req.BookingID)
	cancel()
	if err != nil {
		return IntentResult{}, err
	}
	if detail.Status != model.BookingPending {
		return IntentResult{}, fmt.Errorf("booking %s is %s: %w", detail.ID, detail.Status, ErrBookingNotPending)
	}
	// the submitted amount only has to agree; the stored total is charged
	if !money.Match(detail.TotalAmount, req.Amount) {
		return IntentResult{}, fmt.Errorf("booking total %.2f, submitted %.2f: %w", detail.TotalAmount, req.Amount, ErrAmountMismatch)
	}

	pay, reuse, err := s.reusablePayment(ctx, detail.ID)
	if err != nil {
		return IntentResult{}, err
	}
	if reuse != nil {
		log.WithField("payment_id", pay.ID).Info("reusing pending payment intent")
		return IntentResult{ClientSecret: reuse.ClientSecret, PaymentID: pay.ID, BookingID: detail.ID, Reused: true}, nil
	}

	if pay.ID == "" {
		pay = model.Payment{
			BookingID:     detail.ID,
			Amount:        detail.TotalAmount,
			Currency:      currency,
			PaymentMethod: "card",
			Status:        model.PaymentPending,
		}
		sctx, cancel := s.step(ctx)
		err := s.store.CreatePayment(sctx, &pay)
		cancel()
		if err != nil {
			return IntentResult{}, fmt.Errorf("create payment: %w", err)
		}
	}

	metadata := map[string]string{}
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	metadata["bookingId"] = detail.ID
	metadata["paymentId"] = pay.ID
	metadata["customerName"] = req.Customer.Name

	pctx, cancel := s.step(ctx)
	intent, err := s.proc.CreateIntent(pctx, processor.CreateParams{
		Amount:         money.ToMinorUnits(detail.TotalAmount),
		Currency:       currency,
		Description:    fmt.Sprintf("%s - %s", detail.Plan.Name, detail.Plan.Size),
		ReceiptEmail:   req.Customer.Email,
		Metadata:       metadata,
		IdempotencyKey: pay.ID,
	})
	cancel()
	if err != nil {
		if ferr := s.store.SetPaymentStatus(ctx, pay.ID, model.PaymentPending, model.PaymentFailed); ferr != nil {
			log.WithError(ferr).WithField("payment_id", pay.ID).Warn("could not mark payment failed")
		}
		return IntentResult{}, upstream("create payment intent", err)
	}

	sctx, cancel = s.step(ctx)
	err = s.store.SetPaymentTransaction(sctx, pay.ID, intent.ID)
	cancel()
	if err != nil {
		return IntentResult{}, fmt.Errorf("store transaction reference: %w", err)
	}
	log.WithFields(logrus.Fields{"payment_id": pay.ID, "intent_id": intent.ID}).Info("payment intent created")
	return IntentResult{ClientSecret: intent.ClientSecret, PaymentID: pay.ID, BookingID: detail.ID}, nil
}

// reusablePayment inspects the booking's latest pending payment.  It
// returns the intent to hand back when that payment can be reused as is,
// or the payment row alone when it never got an intent (its id is then
// reused as the idempotency key).  A zero payment means a new row is
// needed.
func (s *Bookings) reusablePayment(ctx context.Context, bookingID string) (model.Payment, *processor.Intent, error) {
	log := logger.GetLogger(ctx).WithField("booking_id", bookingID)

	sctx, cancel := s.step(ctx)
	pay, err := s.store.LatestPendingPayment(sctx, bookingID)
	cancel()
	if errors.Is(err, repository.ErrPaymentNotFound) {
		return model.Payment{}, nil, nil
	}
	if err != nil {
		return model.Payment{}, nil, fmt.Errorf("look up pending payment: %w", err)
	}
	if pay.Transaction() == "" {
		return pay, nil, nil
	}

	pctx, cancel := s.step(ctx)
	intent, err := s.proc.GetIntent(pctx, pay.Transaction())
	cancel()
	switch {
	case errors.Is(err, processor.ErrIntentNotFound):
		log.WithField("payment_id", pay.ID).Warn("pending payment references an unknown intent")
	case err != nil:
		return model.Payment{}, nil, upstream("retrieve payment intent", err)
	case intent.Usable() && intent.ClientSecret != "":
		return pay, &intent, nil
	case intent.Status == processor.StatusSucceeded:
		if _, err := s.finalize(ctx, pay); err != nil {
			return model.Payment{}, nil, err
		}
		return model.Payment{}, nil, ErrAlreadyPaid
	}

	if err := s.store.SetPaymentStatus(ctx, pay.ID, model.PaymentPending, model.PaymentFailed); err != nil &&
		!errors.Is(err, repository.ErrConflict) {
		return model.Payment{}, nil, fmt.Errorf("retire payment: %w", err)
	}
	return model.Payment{}, nil, nil
}

// ConfirmPayment verifies intentID with the processor and, once it has
// succeeded, completes the payment and confirms its booking in one
// transaction.  Processing intents change nothing; any other status is
// reported as failed without touching the records.
func (s *Bookings) ConfirmPayment(ctx context.Context, intentID, paymentID string) (ConfirmResult, error) {
	if strings.TrimSpace(intentID) == "" || strings.TrimSpace(paymentID) == "" {
		return ConfirmResult{}, invalid("missing required fields: paymentIntentId, paymentId")
	}
	sctx, cancel := s.step(ctx)
	pay, err := s.store.GetPayment(sctx, paymentID)
	cancel()
	if err != nil {
		return ConfirmResult{}, err
	}
	if pay.Transaction() != intentID {
		return ConfirmResult{}, ErrIntentMismatch
	}
	if pay.Status == model.PaymentCompleted {
		return s.finalize(ctx, pay)
	}

	pctx, cancel := s.step(ctx)
	intent, err := s.proc.GetIntent(pctx, intentID)
	cancel()
	if err != nil {
		return ConfirmResult{}, upstream("retrieve payment intent", err)
	}

	switch intent.Status {
	case processor.StatusSucceeded:
		res, err := s.finalize(ctx, pay)
		res.ProcessorStatus = intent.Status
		return res, err
	case processor.StatusProcessing:
		return ConfirmResult{
			Status:          OutcomeProcessing,
			ProcessorStatus: intent.Status,
			Payment:         pay,
			Message:         "Your payment is being processed.",
		}, nil
	default:
		return ConfirmResult{
			Status:          OutcomeFailed,
			ProcessorStatus: intent.Status,
			Payment:         pay,
			Message:         "Payment failed or was cancelled.",
		}, nil
	}
}

// finalize commits the payment and booking transition and publishes the
// confirmation event when this call confirmed the booking.
func (s *Bookings) finalize(ctx context.Context, pay model.Payment) (ConfirmResult, error) {
	log := logger.GetLogger(ctx).WithFields(logrus.Fields{"payment_id": pay.ID, "booking_id": pay.BookingID})

	sctx, cancel := s.step(ctx)
	c, err := s.store.ConfirmPayment(sctx, pay.ID)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrConflict) && c.Booking.Status == model.BookingCancelled {
			log.WithError(err).Warn("payment succeeded for a cancelled booking; refund required")
			return ConfirmResult{}, fmt.Errorf("%w: %w", ErrPaidAfterCancel, err)
		}
		return ConfirmResult{}, err
	}
	if c.Confirmed {
		log.Info("booking confirmed")
		s.publishConfirmed(ctx, c)
	}
	return ConfirmResult{
		Status:          OutcomeSucceeded,
		ProcessorStatus: processor.StatusSucceeded,
		Payment:         c.Payment,
		Booking:         &c.Booking,
		Message:         "Payment successful! Your booking is confirmed.",
	}, nil
}

// publishConfirmed emits booking.confirmed.  Failures are logged only;
// the booking is already confirmed in the store.
func (s *Bookings) publishConfirmed(ctx context.Context, c repository.Confirmation) {
	if s.events == nil {
		return
	}
	log := logger.GetLogger(ctx).WithField("booking_id", c.Booking.ID)

	sctx, cancel := s.step(ctx)
	defer cancel()
	d, err := s.store.GetBookingDetail(sctx, c.Booking.ID)
	if err != nil {
		log.WithError(err).Warn("booking.confirmed not published: load booking")
		return
	}
	ev := queue.BookingConfirmedEvent{
		BookingID:     d.ID,
		PaymentID:     c.Payment.ID,
		TransactionID: c.Payment.Transaction(),
		UserID:        d.UserID,
		CustomerName:  d.User.Name,
		CustomerEmail: d.User.Email,
		PlanID:        d.PlanID,
		PlanName:      d.Plan.Name,
		PlanSize:      d.Plan.Size,
		StartDate:     d.StartDate.Format("2006-01-02"),
		TotalAmount:   d.TotalAmount,
		Currency:      c.Payment.Currency,
		ConfirmedAt:   c.Booking.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if err := s.events.PublishBookingConfirmed(sctx, ev); err != nil {
		log.WithError(err).Warn("booking.confirmed not published")
	}
}

// PaymentStatus returns a payment and the status of its booking.
func (s *Bookings) PaymentStatus(ctx context.Context, paymentID string) (PaymentView, error) {
	if strings.TrimSpace(paymentID) == "" {
		return PaymentView{}, invalid("missing paymentId")
	}
	sctx, cancel := s.step(ctx)
	defer cancel()
	pay, err := s.store.GetPayment(sctx, paymentID)
	if err != nil {
		return PaymentView{}, err
	}
	b, err := s.store.GetBooking(sctx, pay.BookingID)
	if err != nil {
		return PaymentView{}, err
	}
	return PaymentView{Payment: pay, BookingStatus: b.Status}, nil
}

// GetBooking returns the booking with its customer, plan and payments.
func (s *Bookings) GetBooking(ctx context.Context, id string) (model.BookingDetail, error) {
	sctx, cancel := s.step(ctx)
	defer cancel()
	return s.store.GetBookingDetail(sctx, id)
}
