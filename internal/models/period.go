package models

import "time"

// Standard grading periods. Grades accept any non-empty period key;
// these are the ones offered by default.
const (
	Period1 = "1ère Période"
	Period2 = "2e Période"
	Period3 = "3e Période"
)

var StandardPeriods = []string{Period1, Period2, Period3}

type AcademicYear struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	IsCurrent bool      `json:"is_current"`
}
