package passcode

import "time"

// Redemption statuses. Absent is never stored; it is derived at report
// time for roster members without a redemption row.
const (
	StatusPresent = "Present"
	StatusLate    = "Late"
	StatusAbsent  = "Absent"
)

// Session is an issued attendance session. The roster is fixed at
// creation; expiry is derived from ExpiresAt, never stored as a mutation.
type Session struct {
	ID           string
	SessionName  string
	SupervisorID string
	Passcode     string
	IssuedAt     time.Time
	ExpiresAt    time.Time
	StudentIDs   []string
}

// Redemption records one student submitting a valid passcode.
// At most one exists per (session, student).
type Redemption struct {
	SessionID   string
	StudentID   string
	Status      string
	SubmittedAt time.Time
}

// Issued is the generation response handed to the supervisor view.
type Issued struct {
	Passcode string    `json:"passcode"`
	Expires  time.Time `json:"expires"`
}

// RosterStudent is a roster member with the display fields reports need.
type RosterStudent struct {
	ID           string
	Name         string
	MatricNumber string
}

// ReportRow is one line of the per-date attendance report.
type ReportRow struct {
	StudentName    string     `json:"studentName"`
	MatricNumber   string     `json:"matricNumber"`
	Status         string     `json:"status"`
	SubmissionTime *time.Time `json:"submissionTime,omitempty"`
}

// StudentResponse is one student's outcome inside a supervisor history entry.
type StudentResponse struct {
	StudentName string     `json:"studentName"`
	Status      string     `json:"status"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
}

// HistoryEntry summarises one issued session for the supervisor view.
type HistoryEntry struct {
	SessionName      string            `json:"sessionName"`
	IssuedDate       string            `json:"issuedDate"`
	Passcode         string            `json:"passcode"`
	SubmittedCount   int               `json:"submittedCount"`
	TotalAssigned    int               `json:"totalAssigned"`
	StudentResponses []StudentResponse `json:"studentResponses"`
}

// StudentHistoryEntry is one redeemed session in a student's own history.
type StudentHistoryEntry struct {
	SessionName string    `json:"sessionName"`
	Timestamp   time.Time `json:"timestamp"`
	IssuedBy    string    `json:"issuedBy"`
}
