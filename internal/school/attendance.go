package school

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Spok95/gestion-scolaire/internal/access"
	"github.com/Spok95/gestion-scolaire/internal/db"
	"github.com/Spok95/gestion-scolaire/internal/grading"
	"github.com/Spok95/gestion-scolaire/internal/models"
)

type AttendanceMarkInput struct {
	StudentID int64  `json:"student_id" validate:"required,gt=0"`
	Status    string `json:"status" validate:"attendance_status"`
	Reason    string `json:"reason" validate:"max=255"`
}

type AttendanceSheetInput struct {
	Date  string                `json:"date" validate:"required,datetime=2006-01-02"`
	Slot  string                `json:"slot" validate:"max=50"`
	Marks []AttendanceMarkInput `json:"marks" validate:"required,min=1,dive"`
}

// SaveAttendance records a class sheet for one date (and optional slot).
// A mark without a status counts as present. Saving the same sheet again
// updates it in place.
func (s *Service) SaveAttendance(ctx context.Context, a access.Actor, classID int64, in AttendanceSheetInput, ip string) (int, error) {
	if err := s.check(ctx, a, access.RecordAttendance, access.Target{}); err != nil {
		return 0, err
	}
	if err := s.valid.Struct(in); err != nil {
		return 0, err
	}
	day, _ := time.ParseInLocation(time.DateOnly, in.Date, s.loc)
	if _, err := s.class(ctx, classID); err != nil {
		return 0, err
	}

	roster, err := db.ListStudentsByClass(ctx, s.db, classID)
	if err != nil {
		return 0, err
	}
	inClass := make(map[int64]bool, len(roster))
	for _, st := range roster {
		inClass[st.ID] = true
	}

	marks := make([]db.AttendanceMark, 0, len(in.Marks))
	for i, m := range in.Marks {
		if !inClass[m.StudentID] {
			return 0, invalid(fmt.Sprintf("marks[%d].student_id", i), "not_in_class", "cet élève n'appartient pas à la classe")
		}
		status := models.Present
		if m.Status != "" {
			status, _ = models.ParseAttendanceStatus(m.Status)
		}
		marks = append(marks, db.AttendanceMark{StudentID: m.StudentID, Status: status, Reason: strings.TrimSpace(m.Reason)})
	}

	n, err := db.SaveAttendanceSheet(ctx, s.db, classID, day, strings.TrimSpace(in.Slot), marks, a.ID)
	if err != nil {
		return 0, err
	}
	s.audit(ctx, a, "attendance_save", "class", classID, fmt.Sprintf("%s %s: %d", in.Date, in.Slot, n), ip)
	return n, nil
}

func (s *Service) ClassAttendance(ctx context.Context, a access.Actor, classID int64, date, slot string) ([]models.Attendance, error) {
	if err := s.check(ctx, a, access.ViewClassRecords, access.Target{}); err != nil {
		return nil, err
	}
	day, err := time.ParseInLocation(time.DateOnly, date, s.loc)
	if err != nil {
		return nil, invalid("date", "datetime", "date attendue au format AAAA-MM-JJ")
	}
	return db.ListClassAttendance(ctx, s.db, classID, day, slot)
}

type AttendanceQuery struct {
	Month  string `json:"month" validate:"omitempty,datetime=2006-01"`
	Status string `json:"status" validate:"attendance_status"`
}

type StudentAttendance struct {
	Records []models.Attendance       `json:"records"`
	Summary grading.AttendanceSummary `json:"summary"`
}

// StudentAttendance lists a student's records, optionally for one month
// and one status. The summary covers the listed records.
func (s *Service) StudentAttendance(ctx context.Context, a access.Actor, studentID int64, q AttendanceQuery) (*StudentAttendance, error) {
	if err := s.check(ctx, a, access.ViewStudentRecords, access.Target{StudentID: studentID}); err != nil {
		return nil, err
	}
	if err := s.valid.Struct(q); err != nil {
		return nil, err
	}
	if _, err := s.student(ctx, studentID); err != nil {
		return nil, err
	}

	var f db.AttendanceFilter
	if q.Month != "" {
		from, _ := time.ParseInLocation("2006-01", q.Month, s.loc)
		to := from.AddDate(0, 1, 0)
		f.From, f.To = &from, &to
	}
	if q.Status != "" {
		st, _ := models.ParseAttendanceStatus(q.Status)
		f.Status = &st
	}
	records, err := db.ListStudentAttendance(ctx, s.db, studentID, f)
	if err != nil {
		return nil, err
	}
	return &StudentAttendance{Records: records, Summary: grading.SummarizeAttendance(records)}, nil
}
