package client

import (
	"context"
	"strings"
	"time"

	"slpportal/internal/countdown"
	"slpportal/internal/passcode"
)

// GeneratorView drives the supervisor's code-generation screen: local
// validation, the generation round-trip, the session-scoped cache, and
// the expiry countdown.
type GeneratorView struct {
	api          *Client
	cache        *CodeCache
	Countdown    *countdown.Countdown
	supervisorID string
}

// NewGeneratorView wires the view for one supervisor. onTick receives
// the rendered remaining time each second; onExpire fires once when the
// code dies. The cache entry is purged automatically at expiry.
func NewGeneratorView(api *Client, cache *CodeCache, supervisorID string, onTick func(string), onExpire func()) *GeneratorView {
	v := &GeneratorView{api: api, cache: cache, supervisorID: supervisorID}
	v.Countdown = countdown.New(countdown.Options{
		OnTick: func(rem time.Duration) {
			if onTick != nil {
				onTick(countdown.FormatRemaining(rem))
			}
		},
		OnExpire: func() {
			cache.Purge()
			if onExpire != nil {
				onExpire()
			}
		},
	})
	return v
}

// Load restores a cached unexpired code on view entry, resuming the
// countdown where it left off. Returns false when nothing is live.
func (v *GeneratorView) Load() (passcode.Issued, bool) {
	return v.cache.Restore(v.Countdown)
}

// Generate validates locally, requests a new code, caches it, and starts
// the countdown. Requests failing local validation never reach the
// network.
func (v *GeneratorView) Generate(ctx context.Context, sessionName string, studentIDs []string) (passcode.Issued, error) {
	if strings.TrimSpace(sessionName) == "" {
		return passcode.Issued{}, passcode.ErrEmptySessionName
	}
	if len(studentIDs) == 0 {
		return passcode.Issued{}, passcode.ErrEmptyRoster
	}

	var issued passcode.Issued
	_, err := v.api.Do(ctx, "generateAttendanceCode", map[string]any{
		"sessionName":  strings.TrimSpace(sessionName),
		"supervisorId": v.supervisorID,
		"studentIds":   studentIDs,
	}, &issued)
	if err != nil {
		return passcode.Issued{}, err
	}
	if err := v.cache.Save(issued); err != nil {
		return passcode.Issued{}, err
	}
	v.Countdown.Start(issued.Expires)
	return issued, nil
}

// Teardown stops the countdown when the view goes away. No background
// ticking survives navigation or logout.
func (v *GeneratorView) Teardown() { v.Countdown.Stop() }

// RedeemFlow is the student-side passcode submission.
type RedeemFlow struct {
	api       *Client
	studentID string
}

// NewRedeemFlow creates the flow for one student.
func NewRedeemFlow(api *Client, studentID string) *RedeemFlow {
	return &RedeemFlow{api: api, studentID: studentID}
}

// Submit sends a candidate code. Anything that is not exactly 6 digits
// after trimming is rejected locally with ErrBadFormat and zero network
// calls; backend rejections come back as *APIError with the server's
// message.
func (f *RedeemFlow) Submit(ctx context.Context, raw string) (string, error) {
	code := strings.TrimSpace(raw)
	if !passcode.PasscodeRe.MatchString(code) {
		return "", passcode.ErrBadFormat
	}
	return f.api.Do(ctx, "submitAttendance", map[string]any{
		"passcode":  code,
		"studentId": f.studentID,
	}, nil)
}

// Report fetches the per-student attendance report for a date (YYYY-MM-DD).
func (c *Client) Report(ctx context.Context, date string) ([]passcode.ReportRow, error) {
	var rows []passcode.ReportRow
	if _, err := c.Do(ctx, "getAttendanceReport", map[string]any{"date": date}, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// SupervisorHistory fetches the sessions a supervisor issued.
func (c *Client) SupervisorHistory(ctx context.Context, supervisorID string) ([]passcode.HistoryEntry, error) {
	var entries []passcode.HistoryEntry
	if _, err := c.Do(ctx, "getSupervisorAttendanceHistory", map[string]any{"supervisorId": supervisorID}, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// StudentHistory fetches the sessions a student has redeemed.
func (c *Client) StudentHistory(ctx context.Context, studentID string) ([]passcode.StudentHistoryEntry, error) {
	var entries []passcode.StudentHistoryEntry
	if _, err := c.Do(ctx, "getStudentAttendanceHistory", map[string]any{"studentId": studentID}, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
