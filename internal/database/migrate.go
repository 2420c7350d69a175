package database

import (
	"context"
	"database/sql"
)

// Migrate creates the application tables when they do not exist yet.  The
// schema is small enough that idempotent CREATE TABLE statements at startup
// beat carrying a migration tool.  The (user_id, email) unique index on
// contacts backs the per-owner duplicate check done at creation.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id                 BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			email              VARCHAR(255) NOT NULL,
			username           VARCHAR(100) NOT NULL,
			password_hash      VARCHAR(255) NOT NULL,
			role               ENUM('admin','moderator','user') NOT NULL DEFAULT 'user',
			confirmed          TINYINT(1) NOT NULL DEFAULT 0,
			refresh_token_hash CHAR(64) NULL,
			avatar             VARCHAR(512) NOT NULL DEFAULT '',
			created_at         TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at         TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_users_email (email)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS contacts (
			id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			user_id    BIGINT UNSIGNED NOT NULL,
			firstname  VARCHAR(50) NOT NULL,
			lastname   VARCHAR(50) NOT NULL,
			email      VARCHAR(255) NOT NULL,
			phone      VARCHAR(20) NOT NULL,
			birthday   DATE NULL,
			note       TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_contacts_owner_email (user_id, email),
			KEY idx_contacts_user (user_id),
			CONSTRAINT fk_contacts_user FOREIGN KEY (user_id) REFERENCES users (id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
