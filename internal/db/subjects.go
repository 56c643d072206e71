package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Spok95/gestion-scolaire/internal/ctxutil"
	"github.com/Spok95/gestion-scolaire/internal/models"
)

const subjectColumns = `s.id, s.name, s.code, s.category, s.description, s.default_coef, s.is_active`

func scanSubjects(rows *sql.Rows) ([]models.Subject, error) {
	var out []models.Subject
	for rows.Next() {
		var s models.Subject
		if err := rows.Scan(&s.ID, &s.Name, &s.Code, &s.Category, &s.Description, &s.DefaultCoef, &s.IsActive); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func CreateSubject(ctx context.Context, database *sql.DB, s *models.Subject) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO subjects (name, code, category, description, default_coef, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, s.Name, s.Code, s.Category, s.Description, s.DefaultCoef, s.IsActive).Scan(&id)
	return id, err
}

func GetSubjectByID(ctx context.Context, database *sql.DB, id int64) (*models.Subject, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var s models.Subject
	err := database.QueryRowContext(ctx, `SELECT `+subjectColumns+` FROM subjects s WHERE s.id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Code, &s.Category, &s.Description, &s.DefaultCoef, &s.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func ListSubjects(ctx context.Context, database *sql.DB, activeOnly bool) ([]models.Subject, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	q := `SELECT ` + subjectColumns + ` FROM subjects s`
	if activeOnly {
		q += ` WHERE s.is_active = TRUE`
	}
	q += ` ORDER BY s.category, s.name`

	rows, err := database.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanSubjects(rows)
}

func UpdateSubject(ctx context.Context, database *sql.DB, s *models.Subject) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := database.ExecContext(ctx, `
		UPDATE subjects
		SET name = $2, code = $3, category = $4, description = $5, default_coef = $6, is_active = $7
		WHERE id = $1
	`, s.ID, s.Name, s.Code, s.Category, s.Description, s.DefaultCoef, s.IsActive)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func DeleteSubject(ctx context.Context, database *sql.DB, id int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := database.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}
