package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Spok95/gestion-scolaire/internal/ctxutil"
	"github.com/Spok95/gestion-scolaire/internal/models"
)

const userColumns = `
	u.id, u.username, u.email, u.password_hash, u.first_name, u.last_name, u.role,
	u.phone, u.address, u.matricule, u.class_id, u.is_active, u.last_login,
	u.created_at, u.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*models.User, error) {
	var (
		u         models.User
		email     sql.NullString
		matricule sql.NullString
		classID   sql.NullInt64
		lastLogin sql.NullTime
		role      string
	)
	if err := s.Scan(&u.ID, &u.Username, &email, &u.PasswordHash, &u.FirstName, &u.LastName, &role,
		&u.Phone, &u.Address, &matricule, &classID, &u.IsActive, &lastLogin,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	r, err := models.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", u.ID, err)
	}
	u.Role = r
	u.Email = nullString(email)
	u.Matricule = nullString(matricule)
	u.ClassID = nullInt(classID)
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return &u, nil
}

func CreateUser(ctx context.Context, database *sql.DB, u *models.User) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, first_name, last_name, role,
		                   phone, address, matricule, class_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, string(u.Role),
		u.Phone, u.Address, u.Matricule, u.ClassID, u.IsActive).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetUserByID returns nil, nil when the user does not exist.
func GetUserByID(ctx context.Context, database *sql.DB, id int64) (*models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	u, err := scanUser(database.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func GetUserByUsername(ctx context.Context, database *sql.DB, username string) (*models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	u, err := scanUser(database.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.username = $1`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// UsernameTaken / EmailTaken ignore the user with id exceptID.
func UsernameTaken(ctx context.Context, database *sql.DB, username string, exceptID int64) (bool, error) {
	return exists(ctx, database, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 AND id <> $2)`, username, exceptID)
}

func EmailTaken(ctx context.Context, database *sql.DB, email string, exceptID int64) (bool, error) {
	return exists(ctx, database, `SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1) AND id <> $2)`, email, exceptID)
}

func exists(ctx context.Context, database *sql.DB, q string, args ...any) (bool, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	var ok bool
	err := database.QueryRowContext(ctx, q, args...).Scan(&ok)
	return ok, err
}

// UpdateUser writes every editable column in one statement. A non-student
// never keeps a class. An empty PasswordHash keeps the stored one.
func UpdateUser(ctx context.Context, database *sql.DB, u *models.User) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	classID := u.ClassID
	if u.Role != models.Student {
		classID = nil
	}
	res, err := database.ExecContext(ctx, `
		UPDATE users
		SET username = $2, email = $3, first_name = $4, last_name = $5, role = $6,
		    phone = $7, address = $8, matricule = $9, class_id = $10, is_active = $11,
		    password_hash = COALESCE(NULLIF($12, ''), password_hash),
		    updated_at = now()
		WHERE id = $1
	`, u.ID, u.Username, u.Email, u.FirstName, u.LastName, string(u.Role),
		u.Phone, u.Address, u.Matricule, classID, u.IsActive, u.PasswordHash)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func UpdatePassword(ctx context.Context, database *sql.DB, userID int64, hash string) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := database.ExecContext(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, userID, hash)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func TouchLastLogin(ctx context.Context, database *sql.DB, userID int64, at time.Time) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, userID, at.UTC())
	return err
}

func DeleteUser(ctx context.Context, database *sql.DB, id int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := database.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

type UserFilter struct {
	Role            *models.Role
	ClassID         *int64
	Search          string
	IncludeInactive bool
}

func ListUsers(ctx context.Context, database *sql.DB, f UserFilter) ([]models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	q := `SELECT ` + userColumns + ` FROM users u WHERE TRUE`
	args := []any{}
	idx := 1
	if f.Role != nil {
		q += fmt.Sprintf(" AND u.role = $%d", idx)
		args = append(args, string(*f.Role))
		idx++
	}
	if f.ClassID != nil {
		q += fmt.Sprintf(" AND u.class_id = $%d", idx)
		args = append(args, *f.ClassID)
		idx++
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q += fmt.Sprintf(" AND (u.username ILIKE $%d OR u.first_name ILIKE $%d OR u.last_name ILIKE $%d OR u.email ILIKE $%d)", idx, idx, idx, idx)
		args = append(args, "%"+s+"%")
		idx++
	}
	if !f.IncludeInactive {
		q += " AND u.is_active = TRUE"
	}
	q += " ORDER BY lower(u.last_name), lower(u.first_name), u.id"

	rows, err := database.QueryContext(ctx, q, args...)
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

// ListStudentsByClass returns the class's active students in roster order.
// Rankings depend on this order for ties.
func ListStudentsByClass(ctx context.Context, database *sql.DB, classID int64) ([]models.User, error) {
	role := models.Student
	return ListUsers(ctx, database, UserFilter{Role: &role, ClassID: &classID})
}

func CountUsersByRole(ctx context.Context, database *sql.DB) (map[models.Role]int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `SELECT role, COUNT(*) FROM users WHERE is_active = TRUE GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make(map[models.Role]int, len(models.Roles))
	for _, r := range models.Roles {
		out[r] = 0
	}
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		r, err := models.ParseRole(role)
		if err != nil {
			continue
		}
		out[r] = n
	}
	return out, rows.Err()
}

var ErrNoRowsAffected = errors.New("no rows affected")

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullInt(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}
