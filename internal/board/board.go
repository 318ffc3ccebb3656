// Package board holds announcements and shared resources.
package board

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrNotFound = errors.New("not found")

// Announcement is a portal-wide post.
type Announcement struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Content   string    `json:"content"`
	PostedBy  string    `json:"-"`
	Date      time.Time `json:"date"`
	UpdatedAt time.Time `json:"-"`
}

// Resource is a shared link students can reach from their dashboard.
type Resource struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	URL      string `json:"url"`
}

// Store is the persistence surface the service needs.
type Store interface {
	InsertAnnouncement(ctx context.Context, a Announcement) (Announcement, error)
	UpdateAnnouncement(ctx context.Context, a Announcement) error
	DeleteAnnouncement(ctx context.Context, id string) error
	AnnouncementByID(ctx context.Context, id string) (Announcement, error)
	ListAnnouncements(ctx context.Context, limit int) ([]Announcement, error)
	InsertResource(ctx context.Context, res Resource, addedBy string) (Resource, error)
	DeleteResource(ctx context.Context, id string) error
	ListResources(ctx context.Context) ([]Resource, error)
}

// Service validates and serves board content.
type Service struct {
	store Store
}

// NewService creates the service.
func NewService(store Store) *Service { return &Service{store: store} }

// latestLimit caps the landing-page announcement slider.
const latestLimit = 6

// PostAnnouncement creates an announcement.
func (s *Service) PostAnnouncement(ctx context.Context, title, category, content, postedBy string) (Announcement, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return Announcement{}, errors.New("title and content are required")
	}
	if category == "" {
		category = "Update"
	}
	return s.store.InsertAnnouncement(ctx, Announcement{
		Title:    title,
		Category: category,
		Content:  content,
		PostedBy: postedBy,
		Date:     time.Now().UTC(),
	})
}

// EditAnnouncement updates an existing announcement.
func (s *Service) EditAnnouncement(ctx context.Context, id, title, category, content string) error {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if id == "" || title == "" || content == "" {
		return errors.New("id, title and content are required")
	}
	return s.store.UpdateAnnouncement(ctx, Announcement{ID: id, Title: title, Category: category, Content: content})
}

// RemoveAnnouncement deletes an announcement.
func (s *Service) RemoveAnnouncement(ctx context.Context, id string) error {
	return s.store.DeleteAnnouncement(ctx, id)
}

// Announcement returns one announcement.
func (s *Service) Announcement(ctx context.Context, id string) (Announcement, error) {
	return s.store.AnnouncementByID(ctx, id)
}

// Latest returns the newest announcements for the landing page.
func (s *Service) Latest(ctx context.Context) ([]Announcement, error) {
	return s.store.ListAnnouncements(ctx, latestLimit)
}

// All returns every announcement, newest first.
func (s *Service) All(ctx context.Context) ([]Announcement, error) {
	return s.store.ListAnnouncements(ctx, 0)
}

// AddResource creates a shared resource.
func (s *Service) AddResource(ctx context.Context, title, category, url, addedBy string) (Resource, error) {
	title = strings.TrimSpace(title)
	url = strings.TrimSpace(url)
	if title == "" || url == "" {
		return Resource{}, errors.New("title and url are required")
	}
	if category == "" {
		category = "General"
	}
	return s.store.InsertResource(ctx, Resource{Title: title, Category: category, URL: url}, addedBy)
}

// RemoveResource deletes a resource.
func (s *Service) RemoveResource(ctx context.Context, id string) error {
	return s.store.DeleteResource(ctx, id)
}

// Resources lists all shared resources.
func (s *Service) Resources(ctx context.Context) ([]Resource, error) {
	return s.store.ListResources(ctx)
}
