package board

import (
	"context"
	"errors"
	"sort"
	"testing"
)

// memStore is an in-memory Store.
type memStore struct {
	announcements map[string]Announcement
	resources     map[string]Resource
	nextID        int
}

func newMemStore() *memStore {
	return &memStore{
		announcements: make(map[string]Announcement),
		resources:     make(map[string]Resource),
	}
}

func (m *memStore) id() string {
	m.nextID++
	return string(rune('a' + m.nextID))
}

func (m *memStore) InsertAnnouncement(_ context.Context, a Announcement) (Announcement, error) {
	a.ID = m.id()
	m.announcements[a.ID] = a
	return a, nil
}

func (m *memStore) UpdateAnnouncement(_ context.Context, a Announcement) error {
	existing, ok := m.announcements[a.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Title, existing.Category, existing.Content = a.Title, a.Category, a.Content
	m.announcements[a.ID] = existing
	return nil
}

func (m *memStore) DeleteAnnouncement(_ context.Context, id string) error {
	if _, ok := m.announcements[id]; !ok {
		return ErrNotFound
	}
	delete(m.announcements, id)
	return nil
}

func (m *memStore) AnnouncementByID(_ context.Context, id string) (Announcement, error) {
	a, ok := m.announcements[id]
	if !ok {
		return Announcement{}, ErrNotFound
	}
	return a, nil
}

func (m *memStore) ListAnnouncements(_ context.Context, limit int) ([]Announcement, error) {
	var out []Announcement
	for _, a := range m.announcements {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) InsertResource(_ context.Context, res Resource, _ string) (Resource, error) {
	res.ID = m.id()
	m.resources[res.ID] = res
	return res, nil
}

func (m *memStore) DeleteResource(_ context.Context, id string) error {
	if _, ok := m.resources[id]; !ok {
		return ErrNotFound
	}
	delete(m.resources, id)
	return nil
}

func (m *memStore) ListResources(_ context.Context) ([]Resource, error) {
	var out []Resource
	for _, res := range m.resources {
		out = append(out, res)
	}
	return out, nil
}

func TestPostAnnouncement(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()

	t.Run("defaults category", func(t *testing.T) {
		a, err := svc.PostAnnouncement(ctx, "  Clinic moved  ", "", "New wing from Monday.", "admin-1")
		if err != nil {
			t.Fatalf("PostAnnouncement() error = %v", err)
		}
		if a.Title != "Clinic moved" {
			t.Errorf("title = %q, want trimmed", a.Title)
		}
		if a.Category != "Update" {
			t.Errorf("category = %q, want the default", a.Category)
		}
	})
	t.Run("rejects blanks", func(t *testing.T) {
		if _, err := svc.PostAnnouncement(ctx, "  ", "", "body", "admin-1"); err == nil {
			t.Error("accepted a blank title")
		}
		if _, err := svc.PostAnnouncement(ctx, "title", "", "  ", "admin-1"); err == nil {
			t.Error("accepted blank content")
		}
	})
}

func TestEditAnnouncement(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	a, err := svc.PostAnnouncement(ctx, "Original", "Update", "old text", "admin-1")
	if err != nil {
		t.Fatalf("PostAnnouncement() error = %v", err)
	}
	if err := svc.EditAnnouncement(ctx, a.ID, "Revised", "Urgent", "new text"); err != nil {
		t.Fatalf("EditAnnouncement() error = %v", err)
	}
	got, err := svc.Announcement(ctx, a.ID)
	if err != nil {
		t.Fatalf("Announcement() error = %v", err)
	}
	if got.Title != "Revised" || got.Category != "Urgent" || got.Content != "new text" {
		t.Errorf("announcement = %+v", got)
	}

	if err := svc.EditAnnouncement(ctx, "ghost", "x", "", "y"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("EditAnnouncement(ghost) error = %v, want ErrNotFound", err)
	}
}

func TestLatestCapsToSlider(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	for i := 0; i < latestLimit+3; i++ {
		if _, err := svc.PostAnnouncement(ctx, "Post", "", "body", "admin-1"); err != nil {
			t.Fatalf("PostAnnouncement() error = %v", err)
		}
	}
	latest, err := svc.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if len(latest) != latestLimit {
		t.Errorf("Latest() returned %d, want %d", len(latest), latestLimit)
	}
	all, err := svc.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != latestLimit+3 {
		t.Errorf("All() returned %d, want %d", len(all), latestLimit+3)
	}
}

func TestResources(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()

	res, err := svc.AddResource(ctx, "Clinic handbook", "", "https://example.edu/handbook.pdf", "admin-1")
	if err != nil {
		t.Fatalf("AddResource() error = %v", err)
	}
	if res.Category != "General" {
		t.Errorf("category = %q, want the default", res.Category)
	}

	if _, err := svc.AddResource(ctx, "", "", "https://example.edu", "admin-1"); err == nil {
		t.Error("accepted a resource without a title")
	}
	if _, err := svc.AddResource(ctx, "title", "", "  ", "admin-1"); err == nil {
		t.Error("accepted a resource without a url")
	}

	list, err := svc.Resources(ctx)
	if err != nil {
		t.Fatalf("Resources() error = %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d resources, want 1", len(list))
	}
	if err := svc.RemoveResource(ctx, res.ID); err != nil {
		t.Fatalf("RemoveResource() error = %v", err)
	}
	if err := svc.RemoveResource(ctx, res.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second RemoveResource() error = %v, want ErrNotFound", err)
	}
}
