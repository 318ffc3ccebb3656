package passcode

import (
	"testing"
	"time"
)

func TestAssembleReport(t *testing.T) {
	at := func(min int) time.Time {
		return time.Date(2026, 4, 10, 9, min, 0, 0, time.UTC)
	}
	roster := []RosterStudent{
		{ID: "s1", Name: "Ade Bello", MatricNumber: "SLP/21/001"},
		{ID: "s2", Name: "Chioma Eze", MatricNumber: "SLP/21/002"},
		{ID: "s3", Name: "Bola Ahmed", MatricNumber: "SLP/21/003"},
	}

	t.Run("absent derived for missing redemptions", func(t *testing.T) {
		rows := AssembleReport(roster, []Redemption{
			{SessionID: "a", StudentID: "s1", Status: StatusPresent, SubmittedAt: at(2)},
		})
		if len(rows) != 3 {
			t.Fatalf("got %d rows, want 3", len(rows))
		}
		var absent int
		for _, row := range rows {
			if row.Status == StatusAbsent {
				absent++
				if row.SubmissionTime != nil {
					t.Errorf("absent row %s has a submission time", row.StudentName)
				}
			}
		}
		if absent != 2 {
			t.Errorf("got %d absent rows, want 2", absent)
		}
	})

	t.Run("rows sorted by student name", func(t *testing.T) {
		rows := AssembleReport(roster, nil)
		want := []string{"Ade Bello", "Bola Ahmed", "Chioma Eze"}
		for i, name := range want {
			if rows[i].StudentName != name {
				t.Fatalf("row %d = %q, want %q", i, rows[i].StudentName, name)
			}
		}
	})

	t.Run("earliest redemption wins", func(t *testing.T) {
		rows := AssembleReport(roster, []Redemption{
			{SessionID: "b", StudentID: "s1", Status: StatusLate, SubmittedAt: at(20)},
			{SessionID: "a", StudentID: "s1", Status: StatusPresent, SubmittedAt: at(2)},
		})
		for _, row := range rows {
			if row.StudentName != "Ade Bello" {
				continue
			}
			if row.Status != StatusPresent {
				t.Errorf("status = %q, want the earlier Present", row.Status)
			}
			if row.SubmissionTime == nil || !row.SubmissionTime.Equal(at(2)) {
				t.Errorf("submission time = %v, want %v", row.SubmissionTime, at(2))
			}
		}
	})

	t.Run("empty roster yields no rows", func(t *testing.T) {
		rows := AssembleReport(nil, []Redemption{
			{SessionID: "a", StudentID: "ghost", Status: StatusPresent, SubmittedAt: at(1)},
		})
		if len(rows) != 0 {
			t.Fatalf("got %d rows, want 0", len(rows))
		}
	})
}
