package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/storage-booking/internal/model"
)

type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// GetUserByEmail fetches a user by exact email.  A missing row is
// reported as ErrUserNotFound; any other error is returned as is.
func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// CreateUser inserts u, assigning its ID and timestamps.  A duplicate
// email yields ErrEmailExists.
func (r *UserRepo) CreateUser(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users (id, name, email, phone, company_name, created_at, updated_at) VALUES (?,?,?,?,?,?,?)",
		id, u.Name, u.Email, u.Phone, nullString(u.CompanyName), now, now)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	u.ID, u.CreatedAt, u.UpdatedAt = id, now, now
	return nil
}

// ListUsers returns every user, newest first, with its booking count.
func (r *UserRepo) ListUsers(ctx context.Context) ([]model.UserSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+prefixed("u", userCols)+`, COUNT(b.id)
		   FROM users u
		   LEFT JOIN bookings b ON b.user_id = u.id
		  GROUP BY u.id
		  ORDER BY u.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.UserSummary{}
	for rows.Next() {
		var s model.UserSummary
		dest, finish := userDest(&s.User)
		if err := rows.Scan(append(dest, &s.BookingCount)...); err != nil {
			return nil, err
		}
		finish()
		out = append(out, s)
	}
	return out, rows.Err()
}
