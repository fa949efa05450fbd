package db

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	full_name VARCHAR(100) NOT NULL,
	email VARCHAR(255) NOT NULL,
	student_id VARCHAR(20) NOT NULL,
	password_hash VARCHAR(255) NOT NULL,
	phone_number VARCHAR(20) NOT NULL DEFAULT '',
	department VARCHAR(100) NOT NULL DEFAULT '',
	level VARCHAR(20) NOT NULL DEFAULT '',
	balance DECIMAL(12,2) NOT NULL DEFAULT 0.00,
	total_rides INT NOT NULL DEFAULT 0,
	total_spent DECIMAL(12,2) NOT NULL DEFAULT 0.00,
	is_active TINYINT(1) NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_users_email (email),
	UNIQUE KEY uniq_users_student (student_id),
	CONSTRAINT chk_users_balance CHECK (balance >= 0)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS routes (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	route_name VARCHAR(150) NOT NULL,
	departure_location VARCHAR(150) NOT NULL,
	arrival_location VARCHAR(150) NOT NULL,
	price DECIMAL(12,2) NOT NULL,
	estimated_time VARCHAR(50) NOT NULL DEFAULT '',
	available_seats INT NOT NULL DEFAULT 0,
	is_active TINYINT(1) NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	CONSTRAINT chk_routes_seats CHECK (available_seats >= 0),
	CONSTRAINT chk_routes_price CHECK (price > 0)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS bookings (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	user_id BIGINT NOT NULL,
	route_id BIGINT NOT NULL,
	pickup_location VARCHAR(255) NOT NULL,
	dropoff_location VARCHAR(255) NOT NULL,
	departure_time DATETIME NOT NULL,
	number_of_seats INT NOT NULL,
	total_price DECIMAL(12,2) NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'confirmed',
	booking_code VARCHAR(32) NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_bookings_code (booking_code),
	KEY idx_bookings_user (user_id, created_at),
	KEY idx_bookings_status_departure (status, departure_time)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS transactions (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	user_id BIGINT NOT NULL,
	booking_id BIGINT NULL,
	amount DECIMAL(12,2) NOT NULL,
	type VARCHAR(20) NOT NULL,
	payment_method VARCHAR(20) NOT NULL DEFAULT 'wallet',
	status VARCHAR(20) NOT NULL DEFAULT 'completed',
	reference VARCHAR(64) NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_transactions_reference (reference),
	KEY idx_transactions_user (user_id, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS ledger_discrepancies (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	kind VARCHAR(32) NOT NULL,
	user_id BIGINT NOT NULL,
	booking_id BIGINT NULL,
	route_id BIGINT NULL,
	amount DECIMAL(12,2) NOT NULL DEFAULT 0.00,
	reference VARCHAR(64) NOT NULL DEFAULT '',
	tx_type VARCHAR(20) NOT NULL DEFAULT '',
	payment_method VARCHAR(20) NOT NULL DEFAULT '',
	seats INT NOT NULL DEFAULT 0,
	detail VARCHAR(500) NOT NULL DEFAULT '',
	status VARCHAR(20) NOT NULL DEFAULT 'open',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	resolved_at DATETIME NULL,
	KEY idx_discrepancies_status (status, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
}

// EnsureSchema creates the ledger tables when they do not exist yet.
func EnsureSchema(ctx context.Context, q Execer) error {
	for i, ddl := range schema {
		if _, err := q.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
