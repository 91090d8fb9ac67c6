package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/storage-booking/internal/model"
	"github.com/iliyamo/storage-booking/internal/processor"
	"github.com/iliyamo/storage-booking/internal/repository"
)

// ReconcileReport counts what one reconciliation pass changed.
type ReconcileReport struct {
	Confirmed int // bookings confirmed
	Failed    int // payments retired as failed
	Errors    int
}

// Reconciler repairs checkouts whose confirmation never reached the
// store: completed payments with pending bookings, and pending payments
// whose intent has since settled at the processor.  Checkouts left unpaid
// longer than abandonAfter have their intent cancelled and the payment
// retired, so they stop being re-checked.
type Reconciler struct {
	bookings     *Bookings
	staleAfter   time.Duration
	abandonAfter time.Duration // zero keeps unpaid checkouts open
	now          func() time.Time
}

// NewReconciler returns a Reconciler that re-checks pending payments older
// than staleAfter and gives up on those older than abandonAfter.
func NewReconciler(b *Bookings, staleAfter, abandonAfter time.Duration) *Reconciler {
	return &Reconciler{bookings: b, staleAfter: staleAfter, abandonAfter: abandonAfter, now: time.Now}
}

// Run calls RunOnce every interval until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	log := logrus.WithField("component", "reconciler")
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			rep := r.RunOnce(ctx)
			if rep.Confirmed+rep.Failed+rep.Errors > 0 {
				log.WithFields(logrus.Fields{"confirmed": rep.Confirmed, "failed": rep.Failed, "errors": rep.Errors}).
					Info("reconciliation pass")
			}
		}
	}
}

// RunOnce performs a single reconciliation pass.
func (r *Reconciler) RunOnce(ctx context.Context) ReconcileReport {
	var rep ReconcileReport
	s := r.bookings
	log := logrus.WithField("component", "reconciler")

	paid, err := s.store.ListUnconfirmedPaid(ctx)
	if err != nil {
		log.WithError(err).Error("list unconfirmed payments")
		rep.Errors++
	}
	for _, p := range paid {
		res, err := s.finalize(ctx, p)
		switch {
		case err != nil:
			log.WithError(err).WithField("payment_id", p.ID).Warn("confirm paid booking")
			rep.Errors++
		case res.Booking != nil && res.Booking.Status == model.BookingConfirmed:
			rep.Confirmed++
		}
	}

	now := r.now().UTC()
	stale, err := s.store.ListStalePayments(ctx, now.Add(-r.staleAfter))
	if err != nil {
		log.WithError(err).Error("list stale payments")
		rep.Errors++
		return rep
	}
	for _, p := range stale {
		pl := log.WithField("payment_id", p.ID)
		pctx, cancel := s.step(ctx)
		intent, err := s.proc.GetIntent(pctx, p.Transaction())
		cancel()
		if err != nil && !errors.Is(err, processor.ErrIntentNotFound) {
			pl.WithError(err).Warn("retrieve payment intent")
			rep.Errors++
			continue
		}
		abandoned := r.abandonAfter > 0 && p.CreatedAt.Before(now.Add(-r.abandonAfter))

		switch {
		case err == nil && intent.Status == processor.StatusSucceeded:
			if _, err := s.finalize(ctx, p); err != nil {
				pl.WithError(err).Warn("confirm settled payment")
				rep.Errors++
				continue
			}
			rep.Confirmed++
		case err != nil || intent.Status == processor.StatusCanceled:
			r.retire(ctx, pl, p, &rep)
		case abandoned && intent.Cancelable():
			cctx, cancel := s.step(ctx)
			_, err := s.proc.CancelIntent(cctx, intent.ID)
			cancel()
			if err != nil && !errors.Is(err, processor.ErrIntentNotFound) {
				// a customer paying at the last moment makes the cancel
				// fail; the next pass confirms it instead
				pl.WithError(err).Warn("cancel abandoned payment intent")
				rep.Errors++
				continue
			}
			pl.Info("abandoned checkout cancelled")
			r.retire(ctx, pl, p, &rep)
		}
	}
	return rep
}

func (r *Reconciler) retire(ctx context.Context, pl *logrus.Entry, p model.Payment, rep *ReconcileReport) {
	err := r.bookings.store.SetPaymentStatus(ctx, p.ID, model.PaymentPending, model.PaymentFailed)
	if err != nil && !errors.Is(err, repository.ErrConflict) {
		pl.WithError(err).Warn("retire payment")
		rep.Errors++
		return
	}
	rep.Failed++
}
