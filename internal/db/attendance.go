package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Spok95/gestion-scolaire/internal/ctxutil"
	"github.com/Spok95/gestion-scolaire/internal/models"
)

const attendanceColumns = `a.id, a.student_id, a.class_id, a.date, a.slot, a.status, a.reason, a.recorded_by, a.created_at`

func scanAttendance(rows *sql.Rows) ([]models.Attendance, error) {
	var out []models.Attendance
	for rows.Next() {
		var (
			a          models.Attendance
			status     string
			recordedBy sql.NullInt64
		)
		if err := rows.Scan(&a.ID, &a.StudentID, &a.ClassID, &a.Date, &a.Slot, &status, &a.Reason, &recordedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		st, err := models.ParseAttendanceStatus(status)
		if err != nil {
			return nil, err
		}
		a.Status = st
		a.RecordedBy = nullInt(recordedBy)
		out = append(out, a)
	}
	return out, rows.Err()
}

// AttendanceMark is one line of a class sheet.
type AttendanceMark struct {
	StudentID int64
	Status    models.AttendanceStatus
	Reason    string
}

// SaveAttendanceSheet upserts one record per student for (class, date, slot)
// in a single transaction.
func SaveAttendanceSheet(ctx context.Context, database *sql.DB, classID int64, date time.Time, slot string, marks []AttendanceMark, recordedBy int64) (int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	tx, err := database.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO attendance (student_id, class_id, date, slot, status, reason, recorded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (student_id, class_id, date, slot) DO UPDATE
		SET status = EXCLUDED.status, reason = EXCLUDED.reason, recorded_by = EXCLUDED.recorded_by
	`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	day := date.Format(time.DateOnly)
	saved := 0
	for _, m := range marks {
		if _, err := stmt.ExecContext(ctx, m.StudentID, classID, day, slot, string(m.Status), m.Reason, recordedBy); err != nil {
			return 0, fmt.Errorf("student %d: %w", m.StudentID, err)
		}
		saved++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return saved, nil
}

func ListClassAttendance(ctx context.Context, database *sql.DB, classID int64, date time.Time, slot string) ([]models.Attendance, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
		SELECT `+attendanceColumns+`
		FROM attendance a
		WHERE a.class_id = $1 AND a.date = $2 AND a.slot = $3
		ORDER BY a.student_id
	`, classID, date.Format(time.DateOnly), slot)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanAttendance(rows)
}

type AttendanceFilter struct {
	From   *time.Time // inclusive
	To     *time.Time // exclusive
	Status *models.AttendanceStatus
}

func ListStudentAttendance(ctx context.Context, database *sql.DB, studentID int64, f AttendanceFilter) ([]models.Attendance, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	q := `SELECT ` + attendanceColumns + ` FROM attendance a WHERE a.student_id = $1`
	args := []any{studentID}
	idx := 2
	if f.From != nil {
		q += fmt.Sprintf(" AND a.date >= $%d", idx)
		args = append(args, f.From.Format(time.DateOnly))
		idx++
	}
	if f.To != nil {
		q += fmt.Sprintf(" AND a.date < $%d", idx)
		args = append(args, f.To.Format(time.DateOnly))
		idx++
	}
	if f.Status != nil {
		q += fmt.Sprintf(" AND a.status = $%d", idx)
		args = append(args, string(*f.Status))
		idx++
	}
	q += " ORDER BY a.date DESC, a.slot"

	rows, err := database.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanAttendance(rows)
}
