package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Spok95/gestion-scolaire/internal/ctxutil"
	"github.com/Spok95/gestion-scolaire/internal/models"
)

const academicYearColumns = `y.id, y.name, y.start_date, y.end_date, y.is_current`

func CreateAcademicYear(ctx context.Context, database *sql.DB, y *models.AcademicYear) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO academic_years (name, start_date, end_date, is_current)
		VALUES ($1, $2, $3, FALSE)
		RETURNING id
	`, y.Name, y.StartDate.Format(time.DateOnly), y.EndDate.Format(time.DateOnly)).Scan(&id)
	return id, err
}

func ListAcademicYears(ctx context.Context, database *sql.DB) ([]models.AcademicYear, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `SELECT `+academicYearColumns+` FROM academic_years y ORDER BY y.start_date DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.AcademicYear
	for rows.Next() {
		var y models.AcademicYear
		if err := rows.Scan(&y.ID, &y.Name, &y.StartDate, &y.EndDate, &y.IsCurrent); err != nil {
			return nil, err
		}
		out = append(out, y)
	}
	return out, rows.Err()
}

// CurrentAcademicYear returns nil, nil when none is marked current.
func CurrentAcademicYear(ctx context.Context, database *sql.DB) (*models.AcademicYear, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var y models.AcademicYear
	err := database.QueryRowContext(ctx, `SELECT `+academicYearColumns+` FROM academic_years y WHERE y.is_current`).
		Scan(&y.ID, &y.Name, &y.StartDate, &y.EndDate, &y.IsCurrent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &y, nil
}

// SetCurrentAcademicYear makes id the only current year.
func SetCurrentAcademicYear(ctx context.Context, database *sql.DB, id int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	tx, err := database.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE academic_years SET is_current = FALSE WHERE is_current AND id <> $1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE academic_years SET is_current = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if err := expectOne(res); err != nil {
		return err
	}
	return tx.Commit()
}
