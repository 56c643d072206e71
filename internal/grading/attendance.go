package grading

import "github.com/Spok95/gestion-scolaire/internal/models"

// PresenceRate is the share of present records in percent, one decimal.
// No records at all counts as full presence.
func PresenceRate(statuses []models.AttendanceStatus) float64 {
	if len(statuses) == 0 {
		return 100
	}
	present := 0
	for _, s := range statuses {
		if s == models.Present {
			present++
		}
	}
	return Round(100*float64(present)/float64(len(statuses)), 1)
}

type AttendanceSummary struct {
	Total   int     `json:"total"`
	Present int     `json:"present"`
	Absent  int     `json:"absent"`
	Late    int     `json:"late"`
	Excused int     `json:"excused"`
	Rate    float64 `json:"rate"`
}

func SummarizeAttendance(records []models.Attendance) AttendanceSummary {
	statuses := make([]models.AttendanceStatus, 0, len(records))
	var s AttendanceSummary
	for _, r := range records {
		switch r.Status {
		case models.Present:
			s.Present++
		case models.Absent:
			s.Absent++
		case models.Late:
			s.Late++
		case models.Excused:
			s.Excused++
		}
		statuses = append(statuses, r.Status)
	}
	s.Total = len(records)
	s.Rate = PresenceRate(statuses)
	return s
}
