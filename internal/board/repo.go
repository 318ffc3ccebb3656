package board

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository persists board content in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

var _ Store = (*Repository)(nil)

// InsertAnnouncement writes a new announcement.
func (r *Repository) InsertAnnouncement(ctx context.Context, a Announcement) (Announcement, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Date.IsZero() {
		a.Date = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO announcements (id, title, category, content, posted_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, a.ID, a.Title, a.Category, a.Content, a.PostedBy, a.Date)
	if err != nil {
		return Announcement{}, err
	}
	return a, nil
}

// UpdateAnnouncement rewrites title, category and content.
func (r *Repository) UpdateAnnouncement(ctx context.Context, a Announcement) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE announcements
		SET title = $2, category = COALESCE(NULLIF($3, ''), category), content = $4, updated_at = NOW()
		WHERE id = $1
	`, a.ID, a.Title, a.Category, a.Content)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAnnouncement removes an announcement.
func (r *Repository) DeleteAnnouncement(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AnnouncementByID returns one announcement.
func (r *Repository) AnnouncementByID(ctx context.Context, id string) (Announcement, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, category, content, posted_by, created_at, updated_at
		FROM announcements WHERE id = $1
	`, id)
	var a Announcement
	err := row.Scan(&a.ID, &a.Title, &a.Category, &a.Content, &a.PostedBy, &a.Date, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Announcement{}, ErrNotFound
	}
	return a, err
}

// ListAnnouncements returns announcements newest first; limit 0 means all.
func (r *Repository) ListAnnouncements(ctx context.Context, limit int) ([]Announcement, error) {
	query := `SELECT id, title, category, content, posted_by, created_at, updated_at
		FROM announcements ORDER BY created_at DESC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, query+` LIMIT $1`, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Announcement
	for rows.Next() {
		var a Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Category, &a.Content, &a.PostedBy, &a.Date, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// InsertResource writes a new resource.
func (r *Repository) InsertResource(ctx context.Context, res Resource, addedBy string) (Resource, error) {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO resources (id, title, category, url, added_by)
		VALUES ($1,$2,$3,$4,$5)
	`, res.ID, res.Title, res.Category, res.URL, addedBy)
	if err != nil {
		return Resource{}, err
	}
	return res, nil
}

// DeleteResource removes a resource.
func (r *Repository) DeleteResource(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM resources WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListResources returns all resources ordered by title.
func (r *Repository) ListResources(ctx context.Context) ([]Resource, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, title, category, url FROM resources ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Resource
	for rows.Next() {
		var res Resource
		if err := rows.Scan(&res.ID, &res.Title, &res.Category, &res.URL); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
