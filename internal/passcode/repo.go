package passcode

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists attendance sessions and redemptions in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

var _ Store = (*Repository)(nil)

// InsertSession writes a session and its roster in one transaction.
func (r *Repository) InsertSession(ctx context.Context, s Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO attendance_sessions (id, session_name, supervisor_id, passcode, issued_at, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, s.ID, s.SessionName, s.SupervisorID, s.Passcode, s.IssuedAt, s.ExpiresAt)
	if err != nil {
		return err
	}
	for _, studentID := range s.StudentIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO session_roster (session_id, student_id) VALUES ($1, $2)
		`, s.ID, studentID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ActiveCodeExists reports whether an unexpired session already uses code.
func (r *Repository) ActiveCodeExists(ctx context.Context, code string, now time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM attendance_sessions WHERE passcode = $1 AND expires_at > $2
		)
	`, code, now).Scan(&exists)
	return exists, err
}

// SessionByCode returns the most recently issued session with this
// passcode, roster included, or nil when none exists.
func (r *Repository) SessionByCode(ctx context.Context, code string) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, session_name, supervisor_id, passcode, issued_at, expires_at
		FROM attendance_sessions
		WHERE passcode = $1
		ORDER BY issued_at DESC
		LIMIT 1
	`, code)
	var s Session
	if err := row.Scan(&s.ID, &s.SessionName, &s.SupervisorID, &s.Passcode, &s.IssuedAt, &s.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `SELECT student_id FROM session_roster WHERE session_id = $1`, s.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		s.StudentIDs = append(s.StudentIDs, id)
	}
	return &s, rows.Err()
}

// InsertRedemption records a redemption; a duplicate (session, student)
// pair surfaces as ErrAlreadySubmitted via the primary key.
func (r *Repository) InsertRedemption(ctx context.Context, red Redemption) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_redemptions (session_id, student_id, status, submitted_at)
		VALUES ($1,$2,$3,$4)
	`, red.SessionID, red.StudentID, red.Status, red.SubmittedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadySubmitted
	}
	return err
}

// SessionsOnDate returns the sessions issued on the given calendar day, rosters included.
func (r *Repository) SessionsOnDate(ctx context.Context, day time.Time) ([]Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_name, supervisor_id, passcode, issued_at, expires_at
		FROM attendance_sessions
		WHERE issued_at >= $1 AND issued_at < $1 + interval '1 day'
		ORDER BY issued_at
	`, day.UTC().Truncate(24*time.Hour))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sessions, err := scanSessions(rows)
	if err != nil {
		return nil, err
	}
	return r.attachRosters(ctx, sessions)
}

// SessionsBySupervisor returns a supervisor's sessions, newest first, rosters included.
func (r *Repository) SessionsBySupervisor(ctx context.Context, supervisorID string) ([]Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_name, supervisor_id, passcode, issued_at, expires_at
		FROM attendance_sessions
		WHERE supervisor_id = $1
		ORDER BY issued_at DESC
	`, supervisorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sessions, err := scanSessions(rows)
	if err != nil {
		return nil, err
	}
	return r.attachRosters(ctx, sessions)
}

func scanSessions(rows *sql.Rows) ([]Session, error) {
	var out []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.SessionName, &s.SupervisorID, &s.Passcode, &s.IssuedAt, &s.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) attachRosters(ctx context.Context, sessions []Session) ([]Session, error) {
	for i := range sessions {
		rows, err := r.db.QueryContext(ctx, `SELECT student_id FROM session_roster WHERE session_id = $1`, sessions[i].ID)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, err
			}
			sessions[i].StudentIDs = append(sessions[i].StudentIDs, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return sessions, nil
}

// Redemptions returns all redemptions for the given sessions.
func (r *Repository) Redemptions(ctx context.Context, sessionIDs []string) ([]Redemption, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT session_id, student_id, status, submitted_at
		FROM attendance_redemptions
		WHERE session_id = ANY($1)
	`, sessionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Redemption
	for rows.Next() {
		var red Redemption
		if err := rows.Scan(&red.SessionID, &red.StudentID, &red.Status, &red.SubmittedAt); err != nil {
			return nil, err
		}
		out = append(out, red)
	}
	return out, rows.Err()
}

// RosterEntries resolves student ids to display rows, ordered by name.
func (r *Repository) RosterEntries(ctx context.Context, studentIDs []string) ([]RosterStudent, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, full_name, COALESCE(matric_number, '')
		FROM users
		WHERE id = ANY($1)
		ORDER BY full_name
	`, studentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RosterStudent
	for rows.Next() {
		var stu RosterStudent
		if err := rows.Scan(&stu.ID, &stu.Name, &stu.MatricNumber); err != nil {
			return nil, err
		}
		out = append(out, stu)
	}
	return out, rows.Err()
}

// StudentRedemptions returns a student's redeemed sessions, newest first.
func (r *Repository) StudentRedemptions(ctx context.Context, studentID string) ([]StudentHistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.session_name, red.submitted_at, u.full_name
		FROM attendance_redemptions red
		JOIN attendance_sessions s ON s.id = red.session_id
		JOIN users u ON u.id = s.supervisor_id
		WHERE red.student_id = $1
		ORDER BY red.submitted_at DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StudentHistoryEntry
	for rows.Next() {
		var e StudentHistoryEntry
		if err := rows.Scan(&e.SessionName, &e.Timestamp, &e.IssuedBy); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
