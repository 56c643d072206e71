package db

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/Spok95/gestion-scolaire/internal/ctxutil"
	"github.com/Spok95/gestion-scolaire/internal/models"
)

// SetTeacherSubjects replaces the teacher's subject list in one transaction.
func SetTeacherSubjects(ctx context.Context, database *sql.DB, teacherID int64, subjectIDs []int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	tx, err := database.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM teacher_subjects WHERE teacher_id = $1`, teacherID); err != nil {
		return err
	}
	if len(subjectIDs) > 0 {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO teacher_subjects (teacher_id, subject_id)
			SELECT $1, unnest($2::bigint[])
			ON CONFLICT DO NOTHING
		`, teacherID, pq.Array(subjectIDs)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func ListTeacherSubjects(ctx context.Context, database *sql.DB, teacherID int64) ([]models.Subject, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
		SELECT `+subjectColumns+`
		FROM subjects s
		JOIN teacher_subjects ts ON ts.subject_id = s.id
		WHERE ts.teacher_id = $1
		ORDER BY s.name
	`, teacherID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanSubjects(rows)
}
