// Package repository defines the MySQL persistence of users, storage
// plans, bookings and payments, and the error values that are reused
// across all of them.  These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios.  For
// example, ErrPlanInUse indicates that a plan still has bookings and
// cannot be removed, while ErrConflict signals that a state change lost
// a race with another writer.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrPlanNotFound    = errors.New("storage plan not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrPaymentNotFound = errors.New("payment not found")
)

// ErrEmailExists is returned when a user insert hits the unique email
// index.  The booking flow reacts by re-reading the existing row.
var ErrEmailExists = errors.New("email already exists")

// ErrPlanExists is returned when a plan with the same size and monthly
// price is already stored.
var ErrPlanExists = errors.New("storage plan with this size and price already exists")

// ErrPlanInUse is returned when deleting a plan that bookings still
// reference.  Handlers should translate this into an HTTP 409 response.
var ErrPlanInUse = errors.New("storage plan is referenced by bookings")

// ErrConflict is returned when an update cannot be performed because of
// conflicting state, such as confirming a payment for a booking that was
// cancelled meanwhile.  Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")

const (
	mysqlDuplicateKey    = 1062
	mysqlRowIsReferenced = 1451
)

func mysqlErrno(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicate(err error) bool { return mysqlErrno(err) == mysqlDuplicateKey }

func isReferenced(err error) bool { return mysqlErrno(err) == mysqlRowIsReferenced }
