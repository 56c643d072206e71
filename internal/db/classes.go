package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Spok95/gestion-scolaire/internal/ctxutil"
	"github.com/Spok95/gestion-scolaire/internal/models"
)

const classColumns = `
	c.id, c.name, c.level, c.section, c.description, c.capacity, c.main_teacher_id,
	(SELECT COUNT(*) FROM users s WHERE s.class_id = c.id AND s.role = 'student' AND s.is_active) AS student_count,
	c.created_at, c.updated_at`

func scanClass(s rowScanner) (*models.SchoolClass, error) {
	var c models.SchoolClass
	var mainTeacher sql.NullInt64
	if err := s.Scan(&c.ID, &c.Name, &c.Level, &c.Section, &c.Description, &c.Capacity, &mainTeacher,
		&c.StudentCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.MainTeacherID = nullInt(mainTeacher)
	return &c, nil
}

func CreateClass(ctx context.Context, database *sql.DB, c *models.SchoolClass) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	if c.Capacity <= 0 {
		c.Capacity = models.DefaultClassCapacity
	}
	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO classes (name, level, section, description, capacity, main_teacher_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, c.Name, c.Level, c.Section, c.Description, c.Capacity, c.MainTeacherID).Scan(&id)
	return id, err
}

// GetClassByID returns nil, nil when the class does not exist.
func GetClassByID(ctx context.Context, database *sql.DB, id int64) (*models.SchoolClass, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	c, err := scanClass(database.QueryRowContext(ctx, `SELECT `+classColumns+` FROM classes c WHERE c.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func GetClassByName(ctx context.Context, database *sql.DB, name string) (*models.SchoolClass, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	c, err := scanClass(database.QueryRowContext(ctx, `SELECT `+classColumns+` FROM classes c WHERE c.name = $1`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func ListClasses(ctx context.Context, database *sql.DB) ([]models.SchoolClass, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `SELECT `+classColumns+` FROM classes c ORDER BY c.name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.SchoolClass
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func UpdateClass(ctx context.Context, database *sql.DB, c *models.SchoolClass) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := database.ExecContext(ctx, `
		UPDATE classes
		SET name = $2, level = $3, section = $4, description = $5, capacity = $6,
		    main_teacher_id = $7, updated_at = now()
		WHERE id = $1
	`, c.ID, c.Name, c.Level, c.Section, c.Description, c.Capacity, c.MainTeacherID)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func DeleteClass(ctx context.Context, database *sql.DB, id int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := database.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// CountStudentsInClass counts assigned students, active or not.
func CountStudentsInClass(ctx context.Context, database *sql.DB, classID int64) (int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var n int
	err := database.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE class_id = $1`, classID).Scan(&n)
	return n, err
}
