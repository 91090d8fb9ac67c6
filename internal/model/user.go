package model

import "time"

// User represents a customer record as stored in the `users` table.
// Users are created lazily by the booking flow the first time an email
// is seen and are reused for every later booking with the same email.
//
// Fields:
//  ID          – primary key identifier (UUID).
//  Name        – customer's full name.
//  Email       – unique email address; the lookup key.
//  Phone       – contact phone number.
//  CompanyName – optional company the customer books for.
//  CreatedAt   – timestamp of creation.
//  UpdatedAt   – timestamp of last update.
type User struct {
	ID          string    `json:"id"`           // users.id
	Name        string    `json:"name"`         // users.name
	Email       string    `json:"email"`        // users.email
	Phone       string    `json:"phone"`        // users.phone
	CompanyName *string   `json:"company_name"` // users.company_name (nullable)
	CreatedAt   time.Time `json:"created_at"`   // users.created_at
	UpdatedAt   time.Time `json:"updated_at"`   // users.updated_at
}

// UserSummary is a user row together with the number of bookings it owns.
// It backs the admin user listing.
type UserSummary struct {
	User
	BookingCount int `json:"booking_count"`
}
