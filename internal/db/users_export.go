package db

import (
	"context"
	"database/sql"

	"github.com/Spok95/gestion-scolaire/internal/ctxutil"
	"github.com/Spok95/gestion-scolaire/internal/models"
)

// UserExportRow is one line of the users workbook.
type UserExportRow struct {
	Username  string
	FullName  string
	Role      models.Role
	Email     string
	Phone     string
	ClassName string
	// Related lists the children of a parent or the parents of a student: «Nom1, Nom2».
	Related  string
	IsActive bool
}

func ListUsersForExport(ctx context.Context, database *sql.DB, includeInactive bool) ([]UserExportRow, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	q := `
		SELECT u.username,
		       trim(u.first_name || ' ' || u.last_name),
		       u.role,
		       COALESCE(u.email, ''),
		       u.phone,
		       COALESCE(c.name, ''),
		       COALESCE(string_agg(trim(o.first_name || ' ' || o.last_name), ', '
		                ORDER BY lower(o.last_name), lower(o.first_name))
		                FILTER (WHERE o.id IS NOT NULL), ''),
		       u.is_active
		FROM users u
		LEFT JOIN classes c ON c.id = u.class_id
		LEFT JOIN parents_students ps ON (u.role = 'parent' AND ps.parent_id = u.id)
		                              OR (u.role = 'student' AND ps.student_id = u.id)
		LEFT JOIN users o ON o.id = CASE WHEN u.role = 'parent' THEN ps.student_id ELSE ps.parent_id END`
	if !includeInactive {
		q += `
		WHERE u.is_active = TRUE`
	}
	q += `
		GROUP BY u.id, c.name
		ORDER BY lower(u.last_name), lower(u.first_name), u.username`

	rows, err := database.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []UserExportRow
	for rows.Next() {
		var (
			r    UserExportRow
			role string
		)
		if err := rows.Scan(&r.Username, &r.FullName, &role, &r.Email, &r.Phone, &r.ClassName, &r.Related, &r.IsActive); err != nil {
			return nil, err
		}
		if r.Role, err = models.ParseRole(role); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
