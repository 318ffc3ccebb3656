package passcode

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
)

// Business outcomes. Each maps to a distinct user-visible message.
var (
	ErrEmptySessionName = errors.New("session name is required")
	ErrEmptyRoster      = errors.New("select at least one student")
	ErrBadFormat        = errors.New("enter a valid 6-digit numeric passcode")
	ErrUnknownCode      = errors.New("passcode not recognised")
	ErrExpired          = errors.New("this passcode has expired")
	ErrNotEligible      = errors.New("you are not on the roster for this session")
	ErrAlreadySubmitted = errors.New("attendance already submitted for this session")
	ErrNoSession        = errors.New("no attendance session was scheduled for this day")
	ErrCodeSpace        = errors.New("could not issue a unique passcode, try again")
)

// PasscodeRe matches exactly 6 ASCII digits.
var PasscodeRe = regexp.MustCompile(`^[0-9]{6}$`)

// Store is the persistence surface the service needs.
type Store interface {
	InsertSession(ctx context.Context, s Session) error
	ActiveCodeExists(ctx context.Context, code string, now time.Time) (bool, error)
	SessionByCode(ctx context.Context, code string) (*Session, error)
	InsertRedemption(ctx context.Context, r Redemption) error
	SessionsOnDate(ctx context.Context, day time.Time) ([]Session, error)
	Redemptions(ctx context.Context, sessionIDs []string) ([]Redemption, error)
	RosterEntries(ctx context.Context, studentIDs []string) ([]RosterStudent, error)
	SessionsBySupervisor(ctx context.Context, supervisorID string) ([]Session, error)
	StudentRedemptions(ctx context.Context, studentID string) ([]StudentHistoryEntry, error)
}

// CodeReserver claims a passcode for the lifetime of its session so two
// unexpired sessions can never share a code.
type CodeReserver interface {
	Reserve(ctx context.Context, code string, ttl time.Duration) (bool, error)
}

// Service owns the attendance passcode lifecycle.
type Service struct {
	store     Store
	codes     CodeReserver
	ttl       time.Duration
	lateAfter time.Duration
	now       func() time.Time
	newCode   func() (string, error)
}

// NewService creates the passcode service. codes may be nil, in which
// case collision checks fall back to the store.
func NewService(store Store, codes CodeReserver, ttl, lateAfter time.Duration) *Service {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if lateAfter <= 0 {
		lateAfter = 5 * time.Minute
	}
	return &Service{
		store:     store,
		codes:     codes,
		ttl:       ttl,
		lateAfter: lateAfter,
		now:       time.Now,
		newCode:   randomPasscode,
	}
}

const maxCodeAttempts = 8

// Generate issues a new attendance session for the given roster and
// returns the passcode with its expiry.
func (s *Service) Generate(ctx context.Context, sessionName, supervisorID string, studentIDs []string) (Issued, error) {
	sessionName = strings.TrimSpace(sessionName)
	if sessionName == "" {
		return Issued{}, ErrEmptySessionName
	}
	roster := dedupe(studentIDs)
	if len(roster) == 0 {
		return Issued{}, ErrEmptyRoster
	}
	if supervisorID == "" {
		return Issued{}, errors.New("supervisor id is required")
	}

	now := s.now().UTC()
	code, err := s.claimCode(ctx, now)
	if err != nil {
		return Issued{}, err
	}

	sess := Session{
		SessionName:  sessionName,
		SupervisorID: supervisorID,
		Passcode:     code,
		IssuedAt:     now,
		ExpiresAt:    now.Add(s.ttl),
		StudentIDs:   roster,
	}
	if err := s.store.InsertSession(ctx, sess); err != nil {
		return Issued{}, err
	}
	return Issued{Passcode: code, Expires: sess.ExpiresAt}, nil
}

// claimCode draws random codes until one is free of unexpired collisions.
func (s *Service) claimCode(ctx context.Context, now time.Time) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := s.newCode()
		if err != nil {
			return "", err
		}
		if s.codes != nil {
			ok, err := s.codes.Reserve(ctx, code, s.ttl)
			if err == nil {
				if ok {
					return code, nil
				}
				continue
			}
			// reserver unavailable, fall through to the store check
		}
		inUse, err := s.store.ActiveCodeExists(ctx, code, now)
		if err != nil {
			return "", err
		}
		if !inUse {
			return code, nil
		}
	}
	return "", ErrCodeSpace
}

// Redeem validates and records a student's passcode submission.
func (s *Service) Redeem(ctx context.Context, code, studentID string) (Redemption, error) {
	code = strings.TrimSpace(code)
	if !PasscodeRe.MatchString(code) {
		return Redemption{}, ErrBadFormat
	}
	if studentID == "" {
		return Redemption{}, errors.New("student id is required")
	}

	sess, err := s.store.SessionByCode(ctx, code)
	if err != nil {
		return Redemption{}, err
	}
	if sess == nil {
		return Redemption{}, ErrUnknownCode
	}
	now := s.now().UTC()
	if !now.Before(sess.ExpiresAt) {
		return Redemption{}, ErrExpired
	}
	if !contains(sess.StudentIDs, studentID) {
		return Redemption{}, ErrNotEligible
	}

	status := StatusPresent
	if now.Sub(sess.IssuedAt) > s.lateAfter {
		status = StatusLate
	}
	red := Redemption{
		SessionID:   sess.ID,
		StudentID:   studentID,
		Status:      status,
		SubmittedAt: now,
	}
	if err := s.store.InsertRedemption(ctx, red); err != nil {
		return Redemption{}, err
	}
	return red, nil
}

// Report returns one row per eligible student for the sessions issued on
// the given day. ErrNoSession when no session was issued that day.
func (s *Service) Report(ctx context.Context, day time.Time) ([]ReportRow, error) {
	sessions, err := s.store.SessionsOnDate(ctx, day)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, ErrNoSession
	}

	ids := make([]string, 0, len(sessions))
	var studentIDs []string
	for _, sess := range sessions {
		ids = append(ids, sess.ID)
		studentIDs = append(studentIDs, sess.StudentIDs...)
	}
	roster, err := s.store.RosterEntries(ctx, dedupe(studentIDs))
	if err != nil {
		return nil, err
	}
	redemptions, err := s.store.Redemptions(ctx, ids)
	if err != nil {
		return nil, err
	}
	return AssembleReport(roster, redemptions), nil
}

// SupervisorHistory lists the sessions a supervisor issued, newest first,
// with per-student outcomes.
func (s *Service) SupervisorHistory(ctx context.Context, supervisorID string) ([]HistoryEntry, error) {
	if supervisorID == "" {
		return nil, errors.New("supervisor id is required")
	}
	sessions, err := s.store.SessionsBySupervisor(ctx, supervisorID)
	if err != nil {
		return nil, err
	}
	entries := make([]HistoryEntry, 0, len(sessions))
	for _, sess := range sessions {
		roster, err := s.store.RosterEntries(ctx, sess.StudentIDs)
		if err != nil {
			return nil, err
		}
		redemptions, err := s.store.Redemptions(ctx, []string{sess.ID})
		if err != nil {
			return nil, err
		}
		byStudent := make(map[string]Redemption, len(redemptions))
		for _, r := range redemptions {
			byStudent[r.StudentID] = r
		}
		responses := make([]StudentResponse, 0, len(roster))
		for _, stu := range roster {
			resp := StudentResponse{StudentName: stu.Name, Status: StatusAbsent}
			if r, ok := byStudent[stu.ID]; ok {
				t := r.SubmittedAt
				resp.Status = r.Status
				resp.Timestamp = &t
			}
			responses = append(responses, resp)
		}
		entries = append(entries, HistoryEntry{
			SessionName:      sess.SessionName,
			IssuedDate:       sess.IssuedAt.Format("2006-01-02"),
			Passcode:         sess.Passcode,
			SubmittedCount:   len(redemptions),
			TotalAssigned:    len(sess.StudentIDs),
			StudentResponses: responses,
		})
	}
	return entries, nil
}

// StudentHistory lists the sessions a student has redeemed, newest first.
func (s *Service) StudentHistory(ctx context.Context, studentID string) ([]StudentHistoryEntry, error) {
	if studentID == "" {
		return nil, errors.New("student id is required")
	}
	return s.store.StudentRedemptions(ctx, studentID)
}

func randomPasscode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
