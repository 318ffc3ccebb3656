// Package absence handles student absence requests and the supervisor
// decision workflow.
package absence

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Request statuses. A request leaves Pending exactly once; later edits
// are administrative overrides, not new decisions.
const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

var (
	ErrNotFound  = errors.New("absence request not found")
	ErrBadStatus = errors.New("status must be Approved or Rejected")
)

// Request is one absence request.
type Request struct {
	RequestID    string     `json:"requestId"`
	StudentID    string     `json:"studentId"`
	StudentName  string     `json:"studentName,omitempty"`
	SupervisorID string     `json:"supervisorId"`
	AbsenceDate  string     `json:"absenceDate"`
	Reason       string     `json:"reason"`
	FileURL      string     `json:"fileUrl,omitempty"`
	Status       string     `json:"status"`
	Notes        string     `json:"notes,omitempty"`
	DecidedAt    *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"-"`
}

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, req Request) (Request, error)
	ByID(ctx context.Context, id string) (Request, error)
	ListForSupervisor(ctx context.Context, supervisorID, status string) ([]Request, error)
	SetDecision(ctx context.Context, id, status, notes string, decidedAt *time.Time) error
}

// Notifier publishes workflow events for asynchronous delivery.
type Notifier interface {
	Notify(ctx context.Context, kind string, payload any) error
}

// Service owns the absence request workflow.
type Service struct {
	store    Store
	notifier Notifier
	now      func() time.Time
}

// NewService creates the service. notifier may be nil.
func NewService(store Store, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier, now: time.Now}
}

// Submit files a new request on behalf of a student.
func (s *Service) Submit(ctx context.Context, studentID, supervisorID, absenceDate, reason, fileURL string) (Request, error) {
	reason = strings.TrimSpace(reason)
	switch {
	case studentID == "":
		return Request{}, errors.New("student id is required")
	case supervisorID == "":
		return Request{}, errors.New("select a supervisor")
	case absenceDate == "":
		return Request{}, errors.New("absence date is required")
	case reason == "":
		return Request{}, errors.New("a reason is required")
	}
	if _, err := time.Parse("2006-01-02", absenceDate); err != nil {
		return Request{}, errors.New("absence date must be YYYY-MM-DD")
	}
	return s.store.Insert(ctx, Request{
		StudentID:    studentID,
		SupervisorID: supervisorID,
		AbsenceDate:  absenceDate,
		Reason:       reason,
		FileURL:      fileURL,
		Status:       StatusPending,
		CreatedAt:    s.now().UTC(),
	})
}

// Pending lists a supervisor's undecided requests.
func (s *Service) Pending(ctx context.Context, supervisorID string) ([]Request, error) {
	return s.store.ListForSupervisor(ctx, supervisorID, StatusPending)
}

// History lists a supervisor's decided requests.
func (s *Service) History(ctx context.Context, supervisorID string) ([]Request, error) {
	return s.store.ListForSupervisor(ctx, supervisorID, "")
}

// Get returns a single request.
func (s *Service) Get(ctx context.Context, id string) (Request, error) {
	return s.store.ByID(ctx, id)
}

// Decide moves a request out of Pending, or records an administrative
// override on an already-decided request. Overrides re-notify the
// student rather than silently rewriting history.
func (s *Service) Decide(ctx context.Context, requestID, newStatus, notes string) error {
	if newStatus != StatusApproved && newStatus != StatusRejected {
		return ErrBadStatus
	}
	req, err := s.store.ByID(ctx, requestID)
	if err != nil {
		return err
	}

	kind := "absence_decided"
	decidedAt := req.DecidedAt
	if req.Status == StatusPending {
		t := s.now().UTC()
		decidedAt = &t
	} else {
		kind = "absence_decision_edited"
	}
	if err := s.store.SetDecision(ctx, requestID, newStatus, strings.TrimSpace(notes), decidedAt); err != nil {
		return err
	}
	if s.notifier != nil {
		_ = s.notifier.Notify(ctx, kind, map[string]string{
			"requestId": requestID,
			"studentId": req.StudentID,
			"status":    newStatus,
		})
	}
	return nil
}
