package db

import (
	"fmt"
	"time"
)

// SchoolYearStart returns the start of the school year containing t
// (1 September, midnight, in t's location).
func SchoolYearStart(t time.Time) time.Time {
	return time.Date(SchoolYearStartYear(t), time.September, 1, 0, 0, 0, 0, t.Location())
}

// SchoolYearEnd returns the last day of the school year containing t (31 July).
func SchoolYearEnd(t time.Time) time.Time {
	return time.Date(SchoolYearStartYear(t)+1, time.July, 31, 0, 0, 0, 0, t.Location())
}

// SchoolYearStartYear: 2025-03-01 → 2024.
func SchoolYearStartYear(t time.Time) int {
	if t.Month() < time.September {
		return t.Year() - 1
	}
	return t.Year()
}

// SchoolYearLabel formats the academic year name: "2024-2025".
func SchoolYearLabel(startYear int) string {
	return fmt.Sprintf("%d-%d", startYear, startYear+1)
}
