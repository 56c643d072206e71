package models

import (
	"fmt"
	"time"
)

type AttendanceStatus string

const (
	Present AttendanceStatus = "present"
	Absent  AttendanceStatus = "absent"
	Late    AttendanceStatus = "late"
	Excused AttendanceStatus = "excused"
)

var AttendanceStatuses = []AttendanceStatus{Present, Absent, Late, Excused}

func ParseAttendanceStatus(s string) (AttendanceStatus, error) {
	switch st := AttendanceStatus(s); st {
	case Present, Absent, Late, Excused:
		return st, nil
	}
	return "", fmt.Errorf("unknown attendance status %q", s)
}

type Attendance struct {
	ID         int64            `json:"id"`
	StudentID  int64            `json:"student_id"`
	ClassID    int64            `json:"class_id"`
	Date       time.Time        `json:"date"`
	Slot       string           `json:"slot,omitempty"`
	Status     AttendanceStatus `json:"status"`
	Reason     string           `json:"reason,omitempty"`
	RecordedBy *int64           `json:"recorded_by,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}
