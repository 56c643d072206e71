package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/Spok95/gestion-scolaire/internal/ctxutil"
	"github.com/Spok95/gestion-scolaire/internal/models"
)

const structureColumns = `b.id, b.class_id, b.school_name, b.subjects_part1, b.subjects_part2, b.created_at, b.updated_at`

// Subject lists are Postgres text[] so their order is kept as declared.
func scanStructure(s rowScanner) (*models.BulletinStructure, error) {
	var b models.BulletinStructure
	var part1, part2 pq.StringArray
	if err := s.Scan(&b.ID, &b.ClassID, &b.SchoolName, &part1, &part2, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.SubjectsPart1 = []string(part1)
	b.SubjectsPart2 = []string(part2)
	return &b, nil
}

func CreateStructure(ctx context.Context, database *sql.DB, b *models.BulletinStructure) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO bulletin_structures (class_id, school_name, subjects_part1, subjects_part2)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, b.ClassID, b.SchoolName, pq.Array(b.SubjectsPart1), pq.Array(b.SubjectsPart2)).Scan(&id)
	return id, err
}

// GetStructureByClass returns nil, nil when the class has no structure.
func GetStructureByClass(ctx context.Context, database *sql.DB, classID int64) (*models.BulletinStructure, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	b, err := scanStructure(database.QueryRowContext(ctx,
		`SELECT `+structureColumns+` FROM bulletin_structures b WHERE b.class_id = $1`, classID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

func GetStructureByID(ctx context.Context, database *sql.DB, id int64) (*models.BulletinStructure, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	b, err := scanStructure(database.QueryRowContext(ctx,
		`SELECT `+structureColumns+` FROM bulletin_structures b WHERE b.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

type StructureWithClass struct {
	models.BulletinStructure
	ClassName string `json:"class_name"`
}

func ListStructures(ctx context.Context, database *sql.DB) ([]StructureWithClass, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
		SELECT `+structureColumns+`, c.name
		FROM bulletin_structures b
		JOIN classes c ON c.id = b.class_id
		ORDER BY c.name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []StructureWithClass
	for rows.Next() {
		var (
			s            StructureWithClass
			part1, part2 pq.StringArray
		)
		if err := rows.Scan(&s.ID, &s.ClassID, &s.SchoolName, &part1, &part2, &s.CreatedAt, &s.UpdatedAt, &s.ClassName); err != nil {
			return nil, err
		}
		s.SubjectsPart1 = []string(part1)
		s.SubjectsPart2 = []string(part2)
		out = append(out, s)
	}
	return out, rows.Err()
}

func UpdateStructure(ctx context.Context, database *sql.DB, b *models.BulletinStructure) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := database.ExecContext(ctx, `
		UPDATE bulletin_structures
		SET school_name = $2, subjects_part1 = $3, subjects_part2 = $4, updated_at = now()
		WHERE id = $1
	`, b.ID, b.SchoolName, pq.Array(b.SubjectsPart1), pq.Array(b.SubjectsPart2))
	if err != nil {
		return err
	}
	return expectOne(res)
}

func DeleteStructure(ctx context.Context, database *sql.DB, id int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := database.ExecContext(ctx, `DELETE FROM bulletin_structures WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}
