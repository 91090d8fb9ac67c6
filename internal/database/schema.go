package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the four tables of the booking flow.  Uniqueness on
// users.email and storage_plans(size, price_per_month) is what makes the
// get-or-create paths safe under concurrent checkouts; the RESTRICT
// foreign key keeps plans that are referenced by bookings from being
// deleted.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id           CHAR(36)     NOT NULL PRIMARY KEY,
		name         VARCHAR(255) NOT NULL,
		email        VARCHAR(255) NOT NULL,
		phone        VARCHAR(64)  NOT NULL,
		company_name VARCHAR(255) NULL,
		created_at   DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at   DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`,

	`CREATE TABLE IF NOT EXISTS storage_plans (
		id              CHAR(36)      NOT NULL PRIMARY KEY,
		name            VARCHAR(255)  NOT NULL,
		size            VARCHAR(64)   NOT NULL,
		size_value      INT           NOT NULL DEFAULT 0,
		price_per_month DECIMAL(10,2) NOT NULL,
		premium_price   DECIMAL(10,2) NULL,
		dimensions      VARCHAR(255)  NOT NULL DEFAULT '',
		description     TEXT          NULL,
		features        JSON          NULL,
		use_case        TEXT          NULL,
		is_popular      BOOLEAN       NOT NULL DEFAULT FALSE,
		is_active       BOOLEAN       NOT NULL DEFAULT TRUE,
		created_at      DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at      DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_plans_size_price (size, price_per_month),
		KEY idx_plans_active_size (is_active, size_value)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id           CHAR(36)      NOT NULL PRIMARY KEY,
		user_id      CHAR(36)      NOT NULL,
		plan_id      CHAR(36)      NOT NULL,
		start_date   DATE          NOT NULL,
		end_date     DATE          NULL,
		status       ENUM('pending','confirmed','active','completed','cancelled') NOT NULL DEFAULT 'pending',
		total_amount DECIMAL(10,2) NOT NULL,
		notes        TEXT          NULL,
		created_at   DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at   DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_bookings_status (status),
		CONSTRAINT fk_bookings_user FOREIGN KEY (user_id) REFERENCES users (id),
		CONSTRAINT fk_bookings_plan FOREIGN KEY (plan_id) REFERENCES storage_plans (id) ON DELETE RESTRICT
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS payments (
		id             CHAR(36)      NOT NULL PRIMARY KEY,
		booking_id     CHAR(36)      NOT NULL,
		amount         DECIMAL(10,2) NOT NULL,
		currency       CHAR(3)       NOT NULL DEFAULT 'AED',
		payment_method VARCHAR(32)   NOT NULL DEFAULT 'card',
		status         ENUM('pending','processing','completed','failed','refunded') NOT NULL DEFAULT 'pending',
		transaction_id VARCHAR(255)  NULL,
		payment_date   DATETIME      NOT NULL,
		created_at     DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at     DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_payments_booking_status (booking_id, status),
		KEY idx_payments_status_created (status, created_at),
		CONSTRAINT fk_payments_booking FOREIGN KEY (booking_id) REFERENCES bookings (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.  It is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, err)
		}
	}
	return nil
}
