package people

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no user matches the lookup.
var ErrNotFound = errors.New("user not found")

// Repository persists users in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, role, full_name, email, phone_number,
	COALESCE(matric_number, ''), COALESCE(employee_id, ''), COALESCE(year_course, ''),
	password_hash, created_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Role, &u.FullName, &u.Email, &u.PhoneNumber,
		&u.MatricNumber, &u.EmployeeID, &u.YearCourse, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, u User) (User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, role, full_name, email, phone_number, matric_number, employee_id, year_course, password_hash, created_at)
		VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),NULLIF($7,''),NULLIF($8,''),$9,$10)
	`, u.ID, u.Role, u.FullName, u.Email, u.PhoneNumber, u.MatricNumber, u.EmployeeID, u.YearCourse, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// ByEmail returns the user with the given email.
func (r *Repository) ByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// ByID returns the user with the given id.
func (r *Repository) ByID(ctx context.Context, id string) (User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// ListByRole returns directory summaries for one role, ordered by name.
func (r *Repository) ListByRole(ctx context.Context, role string) ([]Summary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, full_name, email, COALESCE(matric_number, employee_id, '')
		FROM users WHERE role = $1
		ORDER BY full_name
	`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.SpecificID); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// NamesByIDs returns fullName keyed by user id for the given set.
func (r *Repository) NamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, full_name FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = name
	}
	return out, rows.Err()
}

// UpdateAccount changes email and, when non-empty, the password hash.
func (r *Repository) UpdateAccount(ctx context.Context, id, email, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email = $2,
			password_hash = COALESCE(NULLIF($3, ''), password_hash),
			updated_at = NOW()
		WHERE id = $1
	`, id, email, passwordHash)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user permanently.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
