package store

import (
	"context"
	"fmt"
)

// migrations are applied in order at startup; every statement is idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		role TEXT NOT NULL CHECK (role IN ('Student','Supervisor','Admin')),
		full_name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		phone_number TEXT NOT NULL DEFAULT '',
		matric_number TEXT,
		employee_id TEXT,
		year_course TEXT,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS attendance_sessions (
		id TEXT PRIMARY KEY,
		session_name TEXT NOT NULL,
		supervisor_id TEXT NOT NULL REFERENCES users(id),
		passcode TEXT NOT NULL,
		issued_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_passcode ON attendance_sessions (passcode, expires_at)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_issued_at ON attendance_sessions (issued_at)`,
	`CREATE TABLE IF NOT EXISTS session_roster (
		session_id TEXT NOT NULL REFERENCES attendance_sessions(id) ON DELETE CASCADE,
		student_id TEXT NOT NULL REFERENCES users(id),
		PRIMARY KEY (session_id, student_id)
	)`,
	`CREATE TABLE IF NOT EXISTS attendance_redemptions (
		session_id TEXT NOT NULL REFERENCES attendance_sessions(id) ON DELETE CASCADE,
		student_id TEXT NOT NULL REFERENCES users(id),
		status TEXT NOT NULL CHECK (status IN ('Present','Late')),
		submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (session_id, student_id)
	)`,
	`CREATE TABLE IF NOT EXISTS absence_requests (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL REFERENCES users(id),
		supervisor_id TEXT NOT NULL REFERENCES users(id),
		absence_date DATE NOT NULL,
		reason TEXT NOT NULL,
		file_url TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'Pending' CHECK (status IN ('Pending','Approved','Rejected')),
		notes TEXT NOT NULL DEFAULT '',
		decided_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_absence_supervisor ON absence_requests (supervisor_id, status)`,
	`CREATE TABLE IF NOT EXISTS announcements (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT 'Update',
		content TEXT NOT NULL,
		posted_by TEXT NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS resources (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT 'General',
		url TEXT NOT NULL,
		added_by TEXT NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id BIGSERIAL PRIMARY KEY,
		kind TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the schema if it does not exist yet.
func (d *DB) Migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := d.Client.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
