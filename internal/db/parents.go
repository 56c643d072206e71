package db

import (
	"context"
	"database/sql"

	"github.com/Spok95/gestion-scolaire/internal/ctxutil"
	"github.com/Spok95/gestion-scolaire/internal/models"
)

// LinkParentChild is idempotent.
func LinkParentChild(ctx context.Context, database *sql.DB, parentID, studentID int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `
		INSERT INTO parents_students (parent_id, student_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, parentID, studentID)
	return err
}

func UnlinkParentChild(ctx context.Context, database *sql.DB, parentID, studentID int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `DELETE FROM parents_students WHERE parent_id = $1 AND student_id = $2`, parentID, studentID)
	return err
}

// IsParentOf reads the link as currently stored.
func IsParentOf(ctx context.Context, database *sql.DB, parentID, studentID int64) (bool, error) {
	return exists(ctx, database, `SELECT EXISTS(SELECT 1 FROM parents_students WHERE parent_id = $1 AND student_id = $2)`, parentID, studentID)
}

// ListChildrenForParent Children of a parent through parents_students.
func ListChildrenForParent(ctx context.Context, database *sql.DB, parentID int64) ([]models.User, error) {
	return listLinked(ctx, database, `
		SELECT `+userColumns+`
		FROM users u
		JOIN parents_students ps ON ps.student_id = u.id
		WHERE ps.parent_id = $1 AND u.is_active = TRUE
		ORDER BY lower(u.last_name), lower(u.first_name)
	`, parentID)
}

func ListParentsForStudent(ctx context.Context, database *sql.DB, studentID int64) ([]models.User, error) {
	return listLinked(ctx, database, `
		SELECT `+userColumns+`
		FROM users u
		JOIN parents_students ps ON ps.parent_id = u.id
		WHERE ps.student_id = $1
		ORDER BY lower(u.last_name), lower(u.first_name)
	`, studentID)
}

// ChildClassIDs returns the distinct classes the parent's children are in.
func ChildClassIDs(ctx context.Context, database *sql.DB, parentID int64) ([]int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
		SELECT DISTINCT u.class_id
		FROM users u
		JOIN parents_students ps ON ps.student_id = u.id
		WHERE ps.parent_id = $1 AND u.class_id IS NOT NULL
		ORDER BY u.class_id
	`, parentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func listLinked(ctx context.Context, database *sql.DB, q string, id int64) ([]models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// Relations adapts the store to the access gate.
type Relations struct {
	DB *sql.DB
}

func (r Relations) IsParentOf(ctx context.Context, parentID, studentID int64) (bool, error) {
	return IsParentOf(ctx, r.DB, parentID, studentID)
}
