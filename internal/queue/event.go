// Package queue defines message payloads exchanged over the message broker
// together with the publisher and consumer of booking events.
package queue

// BookingConfirmedQueue is the durable queue booking confirmations are
// published to.
const BookingConfirmedQueue = "booking.confirmed"

// BookingConfirmedEvent is published when a payment succeeds and its booking
// moves to confirmed.  It contains enough information for downstream
// consumers to log, notify, or trigger analytics without querying the
// primary database.
type BookingConfirmedEvent struct {
	BookingID     string  `json:"booking_id"`
	PaymentID     string  `json:"payment_id"`
	TransactionID string  `json:"transaction_id"`
	UserID        string  `json:"user_id"`
	CustomerName  string  `json:"customer_name"`
	CustomerEmail string  `json:"customer_email"`
	PlanID        string  `json:"plan_id"`
	PlanName      string  `json:"plan_name"`
	PlanSize      string  `json:"plan_size"`
	StartDate     string  `json:"start_date"`
	TotalAmount   float64 `json:"total_amount"`
	Currency      string  `json:"currency"`
	ConfirmedAt   string  `json:"confirmed_at"`
}
