package absence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository persists absence requests in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

var _ Store = (*Repository)(nil)

// Insert writes a new request.
func (r *Repository) Insert(ctx context.Context, req Request) (Request, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO absence_requests (id, student_id, supervisor_id, absence_date, reason, file_url, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, req.RequestID, req.StudentID, req.SupervisorID, req.AbsenceDate, req.Reason, req.FileURL, req.Status, req.CreatedAt)
	if err != nil {
		return Request{}, err
	}
	return req, nil
}

// ByID returns one request.
func (r *Repository) ByID(ctx context.Context, id string) (Request, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT a.id, a.student_id, u.full_name, a.supervisor_id,
			to_char(a.absence_date, 'YYYY-MM-DD'), a.reason, a.file_url, a.status, a.notes, a.decided_at, a.created_at
		FROM absence_requests a
		JOIN users u ON u.id = a.student_id
		WHERE a.id = $1
	`, id)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	return req, err
}

// ListForSupervisor returns a supervisor's requests, newest first.
// status filters when non-empty.
func (r *Repository) ListForSupervisor(ctx context.Context, supervisorID, status string) ([]Request, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.student_id, u.full_name, a.supervisor_id,
			to_char(a.absence_date, 'YYYY-MM-DD'), a.reason, a.file_url, a.status, a.notes, a.decided_at, a.created_at
		FROM absence_requests a
		JOIN users u ON u.id = a.student_id
		WHERE a.supervisor_id = $1 AND ($2 = '' OR a.status = $2)
		ORDER BY a.created_at DESC
	`, supervisorID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// SetDecision updates status, notes, and the decision timestamp.
func (r *Repository) SetDecision(ctx context.Context, id, status, notes string, decidedAt *time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE absence_requests SET status = $2, notes = $3, decided_at = $4 WHERE id = $1
	`, id, status, notes, decidedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRequest(row interface{ Scan(...any) error }) (Request, error) {
	var req Request
	err := row.Scan(&req.RequestID, &req.StudentID, &req.StudentName, &req.SupervisorID,
		&req.AbsenceDate, &req.Reason, &req.FileURL, &req.Status, &req.Notes, &req.DecidedAt, &req.CreatedAt)
	return req, err
}
