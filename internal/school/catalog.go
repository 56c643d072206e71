package school

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Spok95/gestion-scolaire/internal/access"
	"github.com/Spok95/gestion-scolaire/internal/db"
	"github.com/Spok95/gestion-scolaire/internal/models"
)

// Classes

type ClassInput struct {
	Name          string `json:"name" validate:"notblank,max=50"`
	Level         string `json:"level" validate:"max=20"`
	Section       string `json:"section" validate:"max=50"`
	Description   string `json:"description" validate:"max=500"`
	Capacity      int    `json:"capacity" validate:"omitempty,min=1,max=200"`
	MainTeacherID *int64 `json:"main_teacher_id"`
}

func (in ClassInput) apply(c *models.SchoolClass) {
	c.Name = strings.TrimSpace(in.Name)
	c.Level = strings.TrimSpace(in.Level)
	c.Section = strings.TrimSpace(in.Section)
	c.Description = strings.TrimSpace(in.Description)
	c.Capacity = in.Capacity
	if c.Capacity == 0 {
		c.Capacity = models.DefaultClassCapacity
	}
	c.MainTeacherID = in.MainTeacherID
}

func (s *Service) ListClasses(ctx context.Context, a access.Actor) ([]models.SchoolClass, error) {
	if err := s.check(ctx, a, access.ViewCatalog, access.Target{}); err != nil {
		return nil, err
	}
	return db.ListClasses(ctx, s.db)
}

func (s *Service) GetClass(ctx context.Context, a access.Actor, id int64) (*models.SchoolClass, error) {
	if err := s.check(ctx, a, access.ViewCatalog, access.Target{}); err != nil {
		return nil, err
	}
	return s.class(ctx, id)
}

func (s *Service) CreateClass(ctx context.Context, a access.Actor, in ClassInput, ip string) (*models.SchoolClass, error) {
	if err := s.check(ctx, a, access.ManageCatalog, access.Target{}); err != nil {
		return nil, err
	}
	if err := s.valid.Struct(in); err != nil {
		return nil, err
	}
	c := &models.SchoolClass{}
	in.apply(c)
	if err := s.checkMainTeacher(ctx, c.MainTeacherID); err != nil {
		return nil, err
	}
	id, err := db.CreateClass(ctx, s.db, c)
	if err != nil {
		return nil, mapClassWriteErr(err)
	}
	c.ID = id
	s.audit(ctx, a, "class_create", "class", id, c.Name, ip)
	return c, nil
}

func (s *Service) UpdateClass(ctx context.Context, a access.Actor, id int64, in ClassInput, ip string) (*models.SchoolClass, error) {
	if err := s.check(ctx, a, access.ManageCatalog, access.Target{}); err != nil {
		return nil, err
	}
	if err := s.valid.Struct(in); err != nil {
		return nil, err
	}
	c, err := s.class(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(c)
	if err := s.checkMainTeacher(ctx, c.MainTeacherID); err != nil {
		return nil, err
	}
	if err := db.UpdateClass(ctx, s.db, c); err != nil {
		return nil, mapClassWriteErr(notFoundIfMissing(err, "class", id))
	}
	s.audit(ctx, a, "class_update", "class", id, c.Name, ip)
	return c, nil
}

// DeleteClass refuses while students are still assigned to the class.
func (s *Service) DeleteClass(ctx context.Context, a access.Actor, id int64, ip string) error {
	if err := s.check(ctx, a, access.ManageCatalog, access.Target{}); err != nil {
		return err
	}
	c, err := s.class(ctx, id)
	if err != nil {
		return err
	}
	n, err := db.CountStudentsInClass(ctx, s.db, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return invalid("id", "has_students", fmt.Sprintf("impossible de supprimer une classe avec %d élève(s)", n))
	}
	if err := db.DeleteClass(ctx, s.db, id); err != nil {
		return notFoundIfMissing(err, "class", id)
	}
	s.invalidateRanking(ctx, &id)
	s.audit(ctx, a, "class_delete", "class", id, c.Name, ip)
	return nil
}

func (s *Service) checkMainTeacher(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	t, err := db.GetUserByID(ctx, s.db, *id)
	if err != nil {
		return err
	}
	if t == nil || t.Role != models.Teacher {
		return invalid("main_teacher_id", "not_teacher", "le professeur principal doit être un professeur")
	}
	return nil
}

func mapClassWriteErr(err error) error {
	if _, ok := db.IsUniqueViolation(err); ok {
		return conflict("name", "une classe porte déjà ce nom")
	}
	return err
}

// Subjects

type SubjectInput struct {
	Name        string  `json:"name" validate:"notblank,max=100"`
	Code        string  `json:"code" validate:"notblank,max=20"`
	Category    string  `json:"category" validate:"max=50"`
	Description string  `json:"description" validate:"max=500"`
	DefaultCoef float64 `json:"default_coef" validate:"omitempty,gte=1,lte=20,wholenum"`
	IsActive    *bool   `json:"is_active"`
}

func (in SubjectInput) apply(sub *models.Subject) {
	sub.Name = strings.TrimSpace(in.Name)
	sub.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	sub.Category = strings.TrimSpace(in.Category)
	sub.Description = strings.TrimSpace(in.Description)
	sub.DefaultCoef = in.DefaultCoef
	if sub.DefaultCoef == 0 {
		sub.DefaultCoef = 1
	}
	if in.IsActive != nil {
		sub.IsActive = *in.IsActive
	}
}

func (s *Service) ListSubjects(ctx context.Context, a access.Actor, activeOnly bool) ([]models.Subject, error) {
	if err := s.check(ctx, a, access.ViewCatalog, access.Target{}); err != nil {
		return nil, err
	}
	return db.ListSubjects(ctx, s.db, activeOnly)
}

func (s *Service) CreateSubject(ctx context.Context, a access.Actor, in SubjectInput, ip string) (*models.Subject, error) {
	if err := s.check(ctx, a, access.ManageCatalog, access.Target{}); err != nil {
		return nil, err
	}
	if err := s.valid.Struct(in); err != nil {
		return nil, err
	}
	sub := &models.Subject{IsActive: true}
	in.apply(sub)
	id, err := db.CreateSubject(ctx, s.db, sub)
	if err != nil {
		return nil, mapSubjectWriteErr(err)
	}
	sub.ID = id
	s.audit(ctx, a, "subject_create", "subject", id, sub.Code, ip)
	return sub, nil
}

func (s *Service) UpdateSubject(ctx context.Context, a access.Actor, id int64, in SubjectInput, ip string) (*models.Subject, error) {
	if err := s.check(ctx, a, access.ManageCatalog, access.Target{}); err != nil {
		return nil, err
	}
	if err := s.valid.Struct(in); err != nil {
		return nil, err
	}
	sub, err := db.GetSubjectByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("subject %d: %w", id, ErrNotFound)
	}
	in.apply(sub)
	if err := db.UpdateSubject(ctx, s.db, sub); err != nil {
		return nil, mapSubjectWriteErr(notFoundIfMissing(err, "subject", id))
	}
	s.audit(ctx, a, "subject_update", "subject", id, sub.Code, ip)
	return sub, nil
}

func (s *Service) DeleteSubject(ctx context.Context, a access.Actor, id int64, ip string) error {
	if err := s.check(ctx, a, access.ManageCatalog, access.Target{}); err != nil {
		return err
	}
	if err := db.DeleteSubject(ctx, s.db, id); err != nil {
		return notFoundIfMissing(err, "subject", id)
	}
	s.audit(ctx, a, "subject_delete", "subject", id, "", ip)
	return nil
}

func mapSubjectWriteErr(err error) error {
	if _, ok := db.IsUniqueViolation(err); ok {
		return conflict("code", "ce code matière existe déjà")
	}
	return err
}

// Bulletin structures

type StructureInput struct {
	ClassID       int64    `json:"class_id" validate:"required,gt=0"`
	SchoolName    string   `json:"school_name" validate:"max=200"`
	SubjectsPart1 []string `json:"subjects_part1" validate:"required,min=1,dive,notblank"`
	SubjectsPart2 []string `json:"subjects_part2" validate:"dive,notblank"`
}

func (in StructureInput) apply(b *models.BulletinStructure) {
	b.ClassID = in.ClassID
	b.SchoolName = strings.TrimSpace(in.SchoolName)
	b.SubjectsPart1 = trimAll(in.SubjectsPart1)
	b.SubjectsPart2 = trimAll(in.SubjectsPart2)
}

func (s *Service) ListStructures(ctx context.Context, a access.Actor) ([]db.StructureWithClass, error) {
	if err := s.check(ctx, a, access.ViewCatalog, access.Target{}); err != nil {
		return nil, err
	}
	return db.ListStructures(ctx, s.db)
}

func (s *Service) ClassStructure(ctx context.Context, a access.Actor, classID int64) (*models.BulletinStructure, error) {
	if err := s.check(ctx, a, access.ViewCatalog, access.Target{}); err != nil {
		return nil, err
	}
	b, err := db.GetStructureByClass(ctx, s.db, classID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("structure for class %d: %w", classID, ErrNotFound)
	}
	return b, nil
}

func (s *Service) CreateStructure(ctx context.Context, a access.Actor, in StructureInput, ip string) (*models.BulletinStructure, error) {
	if err := s.check(ctx, a, access.ManageCatalog, access.Target{}); err != nil {
		return nil, err
	}
	if err := s.valid.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.class(ctx, in.ClassID); err != nil {
		return nil, invalid("class_id", "unknown", "classe inconnue")
	}
	b := &models.BulletinStructure{}
	in.apply(b)
	id, err := db.CreateStructure(ctx, s.db, b)
	if err != nil {
		if _, ok := db.IsUniqueViolation(err); ok {
			return nil, conflict("class_id", "cette classe a déjà une structure de bulletin")
		}
		return nil, err
	}
	b.ID = id
	s.audit(ctx, a, "structure_create", "bulletin_structure", id, "", ip)
	return b, nil
}

func (s *Service) UpdateStructure(ctx context.Context, a access.Actor, id int64, in StructureInput, ip string) (*models.BulletinStructure, error) {
	if err := s.check(ctx, a, access.ManageCatalog, access.Target{}); err != nil {
		return nil, err
	}
	if err := s.valid.Struct(in); err != nil {
		return nil, err
	}
	b, err := db.GetStructureByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("structure %d: %w", id, ErrNotFound)
	}
	in.apply(b)
	if err := db.UpdateStructure(ctx, s.db, b); err != nil {
		if _, ok := db.IsUniqueViolation(err); ok {
			return nil, conflict("class_id", "cette classe a déjà une structure de bulletin")
		}
		return nil, notFoundIfMissing(err, "structure", id)
	}
	s.audit(ctx, a, "structure_update", "bulletin_structure", id, "", ip)
	return b, nil
}

func (s *Service) DeleteStructure(ctx context.Context, a access.Actor, id int64, ip string) error {
	if err := s.check(ctx, a, access.ManageCatalog, access.Target{}); err != nil {
		return err
	}
	if err := db.DeleteStructure(ctx, s.db, id); err != nil {
		return notFoundIfMissing(err, "structure", id)
	}
	s.audit(ctx, a, "structure_delete", "bulletin_structure", id, "", ip)
	return nil
}

// Academic years and periods

type AcademicYearInput struct {
	Name      string    `json:"name" validate:"notblank,max=20"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
}

func (s *Service) ListAcademicYears(ctx context.Context, a access.Actor) ([]models.AcademicYear, error) {
	if err := s.check(ctx, a, access.ViewCatalog, access.Target{}); err != nil {
		return nil, err
	}
	return db.ListAcademicYears(ctx, s.db)
}

func (s *Service) CurrentAcademicYear(ctx context.Context, a access.Actor) (*models.AcademicYear, error) {
	if err := s.check(ctx, a, access.ViewCatalog, access.Target{}); err != nil {
		return nil, err
	}
	y, err := db.CurrentAcademicYear(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if y == nil {
		return nil, fmt.Errorf("current academic year: %w", ErrNotFound)
	}
	return y, nil
}

func (s *Service) CreateAcademicYear(ctx context.Context, a access.Actor, in AcademicYearInput, ip string) (*models.AcademicYear, error) {
	if err := s.check(ctx, a, access.ManageCatalog, access.Target{}); err != nil {
		return nil, err
	}
	if err := s.valid.Struct(in); err != nil {
		return nil, err
	}
	y := &models.AcademicYear{Name: strings.TrimSpace(in.Name), StartDate: in.StartDate, EndDate: in.EndDate}
	id, err := db.CreateAcademicYear(ctx, s.db, y)
	if err != nil {
		if _, ok := db.IsUniqueViolation(err); ok {
			return nil, conflict("name", "cette année scolaire existe déjà")
		}
		return nil, err
	}
	y.ID = id
	s.audit(ctx, a, "academic_year_create", "academic_year", id, y.Name, ip)
	return y, nil
}

// SetCurrentAcademicYear leaves exactly one year marked current.
func (s *Service) SetCurrentAcademicYear(ctx context.Context, a access.Actor, id int64, ip string) error {
	if err := s.check(ctx, a, access.ManageCatalog, access.Target{}); err != nil {
		return err
	}
	if err := db.SetCurrentAcademicYear(ctx, s.db, id); err != nil {
		return notFoundIfMissing(err, "academic year", id)
	}
	s.audit(ctx, a, "academic_year_current", "academic_year", id, "", ip)
	return nil
}

// Periods lists the standard period labels.
func (s *Service) Periods() []string {
	return append([]string(nil), models.StandardPeriods...)
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
