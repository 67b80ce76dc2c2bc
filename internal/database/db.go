package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates the three tables on startup when they do not exist yet.
// The UNIQUE keys on users.username, users.email and applications.user_id
// are the schema-level backstop for the uniqueness rules the services also
// check; concurrent duplicate writes fail here instead of racing through.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(16) NOT NULL,
			email VARCHAR(255) NOT NULL,
			password VARCHAR(100) NOT NULL,
			name VARCHAR(100) NOT NULL DEFAULT '',
			surname VARCHAR(100) NOT NULL DEFAULT '',
			photo VARCHAR(512) NOT NULL DEFAULT '',
			banned TINYINT(1) NOT NULL DEFAULT 0,
			is_admin TINYINT(1) NOT NULL DEFAULT 0,
			passport_valid TINYINT(1) NULL,
			is_online TINYINT(1) NOT NULL DEFAULT 0,
			last_online DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_users_username (username),
			UNIQUE KEY uq_users_email (email)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT UNSIGNED NOT NULL,
			access_token VARCHAR(512) NOT NULL,
			refresh_token VARCHAR(512) NOT NULL,
			access_token_valid_until DATETIME NOT NULL,
			refresh_token_valid_until DATETIME NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			KEY idx_sessions_user (user_id),
			KEY idx_sessions_access (access_token(191)),
			KEY idx_sessions_refresh (refresh_token(191)),
			CONSTRAINT fk_sessions_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS applications (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT UNSIGNED NOT NULL,
			first_name VARCHAR(100) NOT NULL,
			last_name VARCHAR(100) NOT NULL,
			patronymic VARCHAR(100) NOT NULL,
			birth_date DATE NOT NULL,
			passport_series VARCHAR(10) NOT NULL,
			passport_number VARCHAR(9) NOT NULL,
			issuing_authority VARCHAR(255) NOT NULL,
			place_of_residence VARCHAR(255) NOT NULL,
			passport_photo_url VARCHAR(512) NOT NULL DEFAULT '',
			user_photo_url VARCHAR(512) NOT NULL DEFAULT '',
			digital_signature_url VARCHAR(512) NULL,
			status ENUM('pending','approved','rejected') NOT NULL DEFAULT 'pending',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			processed_at DATETIME NULL,
			processed_by BIGINT UNSIGNED NULL,
			rejection_reason TEXT NULL,
			UNIQUE KEY uq_applications_user (user_id),
			KEY idx_applications_status (status),
			CONSTRAINT fk_applications_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
			CONSTRAINT fk_applications_processor FOREIGN KEY (processed_by) REFERENCES users(id) ON DELETE SET NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
