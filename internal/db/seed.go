package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/gestion-scolaire/internal/auth"
	"github.com/Spok95/gestion-scolaire/internal/models"
)

type SeedOptions struct {
	AdminPassword string
	Now           time.Time
}

type seedSubject struct {
	name, code, category string
	coef                 float64
}

var (
	seedClasses = []models.SchoolClass{
		{Name: "10e", Level: "10e"},
		{Name: "11e Sc", Level: "11e", Section: "Sciences"},
		{Name: "11e L", Level: "11e", Section: "Lettres"},
		{Name: "11e SES", Level: "11e", Section: "Sciences Économiques et Sociales"},
		{Name: "11e SS", Level: "11e", Section: "Sciences Sociales"},
		{Name: "12e SE", Level: "12e", Section: "Sciences Exactes"},
		{Name: "12e EXP", Level: "12e", Section: "Sciences Expérimentales"},
		{Name: "12e SEco", Level: "12e", Section: "Sciences Économiques"},
		{Name: "12e SS", Level: "12e", Section: "Sciences Sociales"},
	}

	seedSubjects = []seedSubject{
		{"MATHS", "MATH", "Sciences", 4},
		{"PHYSIQUE", "PHYS", "Sciences", 3},
		{"CHIMIE", "CHIM", "Sciences", 2},
		{"PHYSIQUE-CHIMIE", "PC", "Sciences", 3},
		{"SVT", "SVT", "Sciences", 3},
		{"FRANCAIS", "FR", "Lettres", 3},
		{"PHILOSOPHIE", "PHILO", "Lettres", 2},
		{"ANGLAIS", "ANG", "Langues", 2},
		{"LV2", "LV2", "Langues", 1},
		{"HIST-GEO", "HG", "Sciences Humaines", 2},
		{"E.C.M", "ECM", "Sciences Humaines", 1},
		{"EPS", "EPS", "Autres", 1},
		{"INFORMATIQUE", "INFO", "Autres", 1},
		{"ART PLASTIQUE", "ART", "Autres", 1},
		{"CONDUITE", "COND", "Autres", 1},
	}

	seedStructures = map[string][2][]string{
		"12e EXP": {
			{"MATHS", "PHYSIQUE", "CHIMIE", "PHILOSOPHIE", "ANGLAIS", "SVT"},
			{"E.C.M", "EPS", "INFORMATIQUE", "CONDUITE"},
		},
		"10e": {
			{"MATHS", "FRANCAIS", "ANGLAIS", "HIST-GEO", "PHYSIQUE-CHIMIE", "SVT"},
			{"E.C.M", "EPS", "LV2", "ART PLASTIQUE"},
		},
	}
)

// Seed creates the reference data the application needs on a fresh database.
// Every record is keyed on its name, so running it again changes nothing.
func Seed(ctx context.Context, database *sql.DB, opts SeedOptions, log *zap.Logger) error {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.AdminPassword == "" {
		opts.AdminPassword = "admin123"
	}

	classIDs := make(map[string]int64, len(seedClasses))
	for _, c := range seedClasses {
		id, err := seedClass(ctx, database, c)
		if err != nil {
			return fmt.Errorf("seed class %s: %w", c.Name, err)
		}
		classIDs[c.Name] = id
	}

	subjectIDs := make([]int64, 0, len(seedSubjects))
	for _, s := range seedSubjects {
		id, err := seedSubjectRow(ctx, database, s)
		if err != nil {
			return fmt.Errorf("seed subject %s: %w", s.code, err)
		}
		subjectIDs = append(subjectIDs, id)
	}

	if _, err := seedUser(ctx, database, models.User{
		Username: "admin", FirstName: "Administrateur", LastName: "Système", Role: models.Admin,
	}, opts.AdminPassword); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	teacherID, err := seedUser(ctx, database, models.User{
		Username: "teacher", FirstName: "Professeur", LastName: "Démo", Role: models.Teacher,
	}, "password123")
	if err != nil {
		return fmt.Errorf("seed teacher: %w", err)
	}
	if subs, err := ListTeacherSubjects(ctx, database, teacherID); err != nil {
		return err
	} else if len(subs) == 0 {
		if err := SetTeacherSubjects(ctx, database, teacherID, subjectIDs[:3]); err != nil {
			return fmt.Errorf("seed teacher subjects: %w", err)
		}
	}

	for className, parts := range seedStructures {
		if err := seedStructure(ctx, database, classIDs[className], parts); err != nil {
			return fmt.Errorf("seed structure %s: %w", className, err)
		}
	}

	if err := seedAcademicYear(ctx, database, opts.Now); err != nil {
		return fmt.Errorf("seed academic year: %w", err)
	}

	if log != nil {
		log.Info("seed complete",
			zap.Int("classes", len(classIDs)),
			zap.Int("subjects", len(subjectIDs)),
			zap.Int("structures", len(seedStructures)))
	}
	return nil
}

func seedClass(ctx context.Context, database *sql.DB, c models.SchoolClass) (int64, error) {
	existing, err := GetClassByName(ctx, database, c.Name)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}
	c.Capacity = models.DefaultClassCapacity
	return CreateClass(ctx, database, &c)
}

func seedSubjectRow(ctx context.Context, database *sql.DB, s seedSubject) (int64, error) {
	var id int64
	err := database.QueryRowContext(ctx, `SELECT id FROM subjects WHERE code = $1`, s.code).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	return CreateSubject(ctx, database, &models.Subject{
		Name: s.name, Code: s.code, Category: s.category, DefaultCoef: s.coef, IsActive: true,
	})
}

func seedUser(ctx context.Context, database *sql.DB, u models.User, password string) (int64, error) {
	existing, err := GetUserByUsername(ctx, database, u.Username)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return 0, err
	}
	u.PasswordHash = hash
	u.IsActive = true
	return CreateUser(ctx, database, &u)
}

func seedStructure(ctx context.Context, database *sql.DB, classID int64, parts [2][]string) error {
	existing, err := GetStructureByClass(ctx, database, classID)
	if err != nil || existing != nil {
		return err
	}
	_, err = CreateStructure(ctx, database, &models.BulletinStructure{
		ClassID:       classID,
		SubjectsPart1: parts[0],
		SubjectsPart2: parts[1],
	})
	return err
}

func seedAcademicYear(ctx context.Context, database *sql.DB, now time.Time) error {
	cur, err := CurrentAcademicYear(ctx, database)
	if err != nil || cur != nil {
		return err
	}
	name := SchoolYearLabel(SchoolYearStartYear(now))

	var id int64
	err = database.QueryRowContext(ctx, `SELECT id FROM academic_years WHERE name = $1`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		id, err = CreateAcademicYear(ctx, database, &models.AcademicYear{
			Name:      name,
			StartDate: SchoolYearStart(now),
			EndDate:   SchoolYearEnd(now),
		})
	}
	if err != nil {
		return err
	}
	return SetCurrentAcademicYear(ctx, database, id)
}
