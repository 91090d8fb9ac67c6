package model

import "time"

// PaymentStatus is the state of a single payment attempt.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

// Payment is one attempt to pay for a booking through the card
// processor.  TransactionID holds the processor's payment-intent id once
// the intent has been created.
type Payment struct {
	ID            string        `json:"id"`             // payments.id
	BookingID     string        `json:"booking_id"`     // payments.booking_id
	Amount        float64       `json:"amount"`         // payments.amount
	Currency      string        `json:"currency"`       // payments.currency
	PaymentMethod string        `json:"payment_method"` // payments.payment_method
	Status        PaymentStatus `json:"status"`         // payments.status
	TransactionID *string       `json:"transaction_id"` // payments.transaction_id (nullable)
	PaymentDate   time.Time     `json:"payment_date"`   // payments.payment_date
	CreatedAt     time.Time     `json:"created_at"`     // payments.created_at
	UpdatedAt     time.Time     `json:"updated_at"`     // payments.updated_at
}

// Transaction returns the processor reference or "" when none is stored.
func (p Payment) Transaction() string {
	if p.TransactionID == nil {
		return ""
	}
	return *p.TransactionID
}

// PaymentDetail is a payment joined with the booking's customer and plan,
// as shown in the admin payment listing.
type PaymentDetail struct {
	Payment
	BookingStatus BookingStatus `json:"booking_status"`
	CustomerName  string        `json:"customer_name"`
	CustomerEmail string        `json:"customer_email"`
	PlanName      string        `json:"plan_name"`
	PlanSize      string        `json:"plan_size"`
}

// Stats aggregates the numbers shown on the admin dashboard.
type Stats struct {
	TotalBookings   int     `json:"total_bookings"`
	TotalUsers      int     `json:"total_users"`
	TotalRevenue    float64 `json:"total_revenue"`
	PendingBookings int     `json:"pending_bookings"`
}
