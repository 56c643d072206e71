package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Spok95/gestion-scolaire/internal/ctxutil"
	"github.com/Spok95/gestion-scolaire/internal/grading"
	"github.com/Spok95/gestion-scolaire/internal/models"
)

const gradeColumns = `
	g.id, g.student_id, g.subject_name, g.period, g.moy_cl, g.n_compo, g.coef,
	g.average, g.weighted_average, g.appreciation, g.teacher_id, g.created_at, g.updated_at`

func scanGrade(s rowScanner, extra ...any) (*models.Grade, error) {
	var g models.Grade
	var teacher sql.NullInt64
	dest := []any{&g.ID, &g.StudentID, &g.SubjectName, &g.Period, &g.MoyCl, &g.NCompo, &g.Coef,
		&g.Average, &g.WeightedAverage, &g.Appreciation, &teacher, &g.CreatedAt, &g.UpdatedAt}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	g.TeacherID = nullInt(teacher)
	return &g, nil
}

// derive refreshes the cached columns from the raw marks.
func derive(g *models.Grade) {
	g.Average = grading.SubjectAverage(g.MoyCl, g.NCompo)
	g.WeightedAverage = grading.Weighted(g.Average, g.Coef)
	g.Appreciation = grading.Appreciation(g.Average)
}

// UpsertGrade inserts the grade or overwrites the existing row for the same
// (student, subject, period). Concurrent writers: the last one wins.
func UpsertGrade(ctx context.Context, database *sql.DB, g *models.Grade) (*models.Grade, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	derive(g)
	return scanGrade(database.QueryRowContext(ctx, `
		INSERT INTO grades AS g (student_id, subject_name, period, moy_cl, n_compo, coef,
		                         average, weighted_average, appreciation, teacher_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (student_id, subject_name, period) DO UPDATE
		SET moy_cl = EXCLUDED.moy_cl,
		    n_compo = EXCLUDED.n_compo,
		    coef = EXCLUDED.coef,
		    average = EXCLUDED.average,
		    weighted_average = EXCLUDED.weighted_average,
		    appreciation = EXCLUDED.appreciation,
		    teacher_id = EXCLUDED.teacher_id,
		    updated_at = now()
		RETURNING `+gradeColumns,
		g.StudentID, g.SubjectName, g.Period, g.MoyCl, g.NCompo, g.Coef,
		g.Average, g.WeightedAverage, g.Appreciation, g.TeacherID))
}

// GetGradeByID returns nil, nil when the grade does not exist.
func GetGradeByID(ctx context.Context, database *sql.DB, id int64) (*models.Grade, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	g, err := scanGrade(database.QueryRowContext(ctx, `SELECT `+gradeColumns+` FROM grades g WHERE g.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return g, err
}

// UpdateGrade rewrites an existing row by id. Moving it onto a
// (subject, period) the student already has fails with a unique violation.
func UpdateGrade(ctx context.Context, database *sql.DB, g *models.Grade) (*models.Grade, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	derive(g)
	out, err := scanGrade(database.QueryRowContext(ctx, `
		UPDATE grades AS g
		SET subject_name = $2, period = $3, moy_cl = $4, n_compo = $5, coef = $6,
		    average = $7, weighted_average = $8, appreciation = $9, teacher_id = $10,
		    updated_at = now()
		WHERE g.id = $1
		RETURNING `+gradeColumns,
		g.ID, g.SubjectName, g.Period, g.MoyCl, g.NCompo, g.Coef,
		g.Average, g.WeightedAverage, g.Appreciation, g.TeacherID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRowsAffected
	}
	return out, err
}

func DeleteGrade(ctx context.Context, database *sql.DB, id int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := database.ExecContext(ctx, `DELETE FROM grades WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

type GradeFilter struct {
	StudentID *int64
	ClassID   *int64
	Period    string
	Subject   string
}

func ListGrades(ctx context.Context, database *sql.DB, f GradeFilter) ([]models.GradeWithStudent, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	q := `
		SELECT ` + gradeColumns + `, trim(u.first_name || ' ' || u.last_name), u.username, u.class_id
		FROM grades g
		JOIN users u ON u.id = g.student_id
		WHERE TRUE`
	args := []any{}
	idx := 1
	if f.StudentID != nil {
		q += fmt.Sprintf(" AND g.student_id = $%d", idx)
		args = append(args, *f.StudentID)
		idx++
	}
	if f.ClassID != nil {
		q += fmt.Sprintf(" AND u.class_id = $%d", idx)
		args = append(args, *f.ClassID)
		idx++
	}
	if f.Period != "" {
		q += fmt.Sprintf(" AND g.period = $%d", idx)
		args = append(args, f.Period)
		idx++
	}
	if f.Subject != "" {
		q += fmt.Sprintf(" AND g.subject_name = $%d", idx)
		args = append(args, f.Subject)
		idx++
	}
	q += " ORDER BY g.subject_name, g.period, g.id"

	rows, err := database.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.GradeWithStudent
	for rows.Next() {
		var (
			name, username string
			classID        sql.NullInt64
		)
		g, err := scanGrade(rows, &name, &username, &classID)
		if err != nil {
			return nil, err
		}
		if name == "" {
			name = username
		}
		out = append(out, models.GradeWithStudent{Grade: *g, StudentName: name, ClassID: nullInt(classID)})
	}
	return out, rows.Err()
}

// ListStudentGrades returns one student's grades, optionally for one period.
func ListStudentGrades(ctx context.Context, database *sql.DB, studentID int64, period string) ([]models.Grade, error) {
	rows, err := ListGrades(ctx, database, GradeFilter{StudentID: &studentID, Period: period})
	if err != nil {
		return nil, err
	}
	out := make([]models.Grade, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Grade)
	}
	return out, nil
}

// ListClassGrades returns the period's grades of every student currently in
// the class, keyed by student.
func ListClassGrades(ctx context.Context, database *sql.DB, classID int64, period string) (map[int64][]models.Grade, error) {
	rows, err := ListGrades(ctx, database, GradeFilter{ClassID: &classID, Period: period})
	if err != nil {
		return nil, err
	}
	out := make(map[int64][]models.Grade)
	for _, r := range rows {
		out[r.StudentID] = append(out[r.StudentID], r.Grade)
	}
	return out, nil
}

func CountGrades(ctx context.Context, database *sql.DB) (int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var n int
	err := database.QueryRowContext(ctx, `SELECT COUNT(*) FROM grades`).Scan(&n)
	return n, err
}

func CountGradesFor(ctx context.Context, database *sql.DB, studentID int64, subject, period string) (int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var n int
	err := database.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM grades WHERE student_id = $1 AND subject_name = $2 AND period = $3
	`, studentID, subject, period).Scan(&n)
	return n, err
}
