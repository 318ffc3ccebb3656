package passcode

import "sort"

// AssembleReport merges a roster with the redemption set into one row per
// student, sorted by name. Absence is derived here, never stored: a roster
// member without a redemption row is Absent with no submission time. When
// a student redeemed more than one session that day the earliest
// submission wins.
func AssembleReport(roster []RosterStudent, redemptions []Redemption) []ReportRow {
	earliest := make(map[string]Redemption, len(redemptions))
	for _, r := range redemptions {
		prev, ok := earliest[r.StudentID]
		if !ok || r.SubmittedAt.Before(prev.SubmittedAt) {
			earliest[r.StudentID] = r
		}
	}

	rows := make([]ReportRow, 0, len(roster))
	for _, stu := range roster {
		row := ReportRow{
			StudentName:  stu.Name,
			MatricNumber: stu.MatricNumber,
			Status:       StatusAbsent,
		}
		if r, ok := earliest[stu.ID]; ok {
			t := r.SubmittedAt
			row.Status = r.Status
			row.SubmissionTime = &t
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].StudentName < rows[j].StudentName })
	return rows
}
