package school

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Spok95/gestion-scolaire/internal/access"
	"github.com/Spok95/gestion-scolaire/internal/db"
	"github.com/Spok95/gestion-scolaire/internal/grading"
	"github.com/Spok95/gestion-scolaire/internal/metrics"
	"github.com/Spok95/gestion-scolaire/internal/models"
)

type GradeInput struct {
	StudentID   int64   `json:"student_id" validate:"required,gt=0"`
	SubjectName string  `json:"subject_name" validate:"notblank,max=100"`
	Period      string  `json:"period" validate:"notblank,max=50"`
	MoyCl       float64 `json:"moy_cl" validate:"gte=0,lte=20"`
	NCompo      float64 `json:"n_compo" validate:"gte=0,lte=20"`
	Coef        float64 `json:"coef" validate:"gte=1,wholenum"`
}

func (in GradeInput) grade(teacherID int64) *models.Grade {
	return &models.Grade{
		StudentID:   in.StudentID,
		SubjectName: strings.TrimSpace(in.SubjectName),
		Period:      strings.TrimSpace(in.Period),
		MoyCl:       in.MoyCl,
		NCompo:      in.NCompo,
		Coef:        in.Coef,
		TeacherID:   &teacherID,
	}
}

// SubmitGrade records a grade. Submitting again for the same student,
// subject and period replaces the earlier marks.
func (s *Service) SubmitGrade(ctx context.Context, a access.Actor, in GradeInput, ip string) (*models.Grade, error) {
	if err := s.check(ctx, a, access.WriteGrades, access.Target{}); err != nil {
		return nil, err
	}
	if err := s.valid.Struct(in); err != nil {
		return nil, err
	}
	st, err := s.student(ctx, in.StudentID)
	if errors.Is(err, ErrNotFound) {
		return nil, invalid("student_id", "not_student", "élève inconnu")
	}
	if err != nil {
		return nil, err
	}
	g, err := db.UpsertGrade(ctx, s.db, in.grade(a.ID))
	if err != nil {
		return nil, err
	}
	metrics.GradesWritten.Inc()
	s.invalidateRanking(ctx, st.ClassID)
	s.audit(ctx, a, "grade_submit", "grade", g.ID, fmt.Sprintf("%s %s", g.SubjectName, g.Period), ip)
	return g, nil
}

// UpdateGrade edits a grade by id. The marks are re-validated and the
// average and appreciation recomputed.
func (s *Service) UpdateGrade(ctx context.Context, a access.Actor, id int64, in GradeInput, ip string) (*models.Grade, error) {
	if err := s.check(ctx, a, access.WriteGrades, access.Target{}); err != nil {
		return nil, err
	}
	if err := s.valid.Struct(in); err != nil {
		return nil, err
	}
	old, err := db.GetGradeByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, fmt.Errorf("grade %d: %w", id, ErrNotFound)
	}
	if in.StudentID != old.StudentID {
		return nil, invalid("student_id", "immutable", "une note ne peut pas changer d'élève")
	}
	g := in.grade(a.ID)
	g.ID = id
	updated, err := db.UpdateGrade(ctx, s.db, g)
	if err != nil {
		if _, ok := db.IsUniqueViolation(err); ok {
			return nil, conflict("subject_name", "cet élève a déjà une note pour cette matière et cette période")
		}
		return nil, notFoundIfMissing(err, "grade", id)
	}
	metrics.GradesWritten.Inc()
	s.invalidateStudentRanking(ctx, old.StudentID)
	s.audit(ctx, a, "grade_update", "grade", id, fmt.Sprintf("%s %s", updated.SubjectName, updated.Period), ip)
	return updated, nil
}

func (s *Service) DeleteGrade(ctx context.Context, a access.Actor, id int64, ip string) error {
	if err := s.check(ctx, a, access.WriteGrades, access.Target{}); err != nil {
		return err
	}
	old, err := db.GetGradeByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if old == nil {
		return fmt.Errorf("grade %d: %w", id, ErrNotFound)
	}
	if err := db.DeleteGrade(ctx, s.db, id); err != nil {
		return notFoundIfMissing(err, "grade", id)
	}
	s.invalidateStudentRanking(ctx, old.StudentID)
	s.audit(ctx, a, "grade_delete", "grade", id, fmt.Sprintf("%s %s", old.SubjectName, old.Period), ip)
	return nil
}

// invalidateStudentRanking drops the rankings of the student's current
// class. The all-periods ranking depends on every period, so the whole
// class goes.
func (s *Service) invalidateStudentRanking(ctx context.Context, studentID int64) {
	if s.rankings == nil {
		return
	}
	st, err := db.GetUserByID(ctx, s.db, studentID)
	if err != nil || st == nil {
		s.log.Warn("ranking invalidation skipped", zap.Int64("student_id", studentID), zap.Error(err))
		return
	}
	s.invalidateRanking(ctx, st.ClassID)
}

type GradeQuery struct {
	StudentID *int64 `json:"student_id"`
	ClassID   *int64 `json:"class_id"`
	Period    string `json:"period" validate:"max=50"`
	Subject   string `json:"subject" validate:"max=100"`
}

// ListGrades filters the ledger. Staff may query freely; students and
// parents only for a student they may see.
func (s *Service) ListGrades(ctx context.Context, a access.Actor, q GradeQuery) ([]models.GradeWithStudent, error) {
	if err := s.valid.Struct(q); err != nil {
		return nil, err
	}
	if q.StudentID != nil && q.ClassID == nil {
		if err := s.check(ctx, a, access.ViewStudentRecords, access.Target{StudentID: *q.StudentID}); err != nil {
			return nil, err
		}
	} else if err := s.check(ctx, a, access.ViewClassRecords, access.Target{}); err != nil {
		return nil, err
	}
	return db.ListGrades(ctx, s.db, db.GradeFilter{
		StudentID: q.StudentID, ClassID: q.ClassID, Period: q.Period, Subject: q.Subject,
	})
}

type StudentGrades struct {
	Student      *models.User    `json:"student"`
	Period       string          `json:"period,omitempty"`
	Grades       []models.Grade  `json:"grades"`
	Summary      grading.Summary `json:"summary"`
	Appreciation string          `json:"appreciation"`
}

// StudentGrades returns a student's grades with their general average,
// for one period or, with an empty period, across all of them.
func (s *Service) StudentGrades(ctx context.Context, a access.Actor, studentID int64, period string) (*StudentGrades, error) {
	if err := s.check(ctx, a, access.ViewStudentRecords, access.Target{StudentID: studentID}); err != nil {
		return nil, err
	}
	st, err := s.student(ctx, studentID)
	if err != nil {
		return nil, err
	}
	grades, err := db.ListStudentGrades(ctx, s.db, studentID, period)
	if err != nil {
		return nil, err
	}
	sum := summarize(grades)
	return &StudentGrades{Student: st, Period: period, Grades: grades, Summary: sum, Appreciation: sum.Appreciation()}, nil
}

type PeriodStats struct {
	Period       string  `json:"period"`
	Average      float64 `json:"average"`
	Count        int     `json:"count"`
	Appreciation string  `json:"appreciation"`
}

// StudentStats gives one line per standard period plus any other period the
// student has grades for.
func (s *Service) StudentStats(ctx context.Context, a access.Actor, studentID int64) ([]PeriodStats, error) {
	if err := s.check(ctx, a, access.ViewStudentRecords, access.Target{StudentID: studentID}); err != nil {
		return nil, err
	}
	if _, err := s.student(ctx, studentID); err != nil {
		return nil, err
	}
	grades, err := db.ListStudentGrades(ctx, s.db, studentID, "")
	if err != nil {
		return nil, err
	}
	byPeriod := make(map[string][]models.Grade)
	periods := append([]string(nil), models.StandardPeriods...)
	for _, g := range grades {
		if _, seen := byPeriod[g.Period]; !seen && !isStandardPeriod(g.Period) {
			periods = append(periods, g.Period)
		}
		byPeriod[g.Period] = append(byPeriod[g.Period], g)
	}
	out := make([]PeriodStats, 0, len(periods))
	for _, p := range periods {
		sum := summarize(byPeriod[p])
		out = append(out, PeriodStats{Period: p, Average: sum.Average, Count: sum.Count, Appreciation: sum.Appreciation()})
	}
	return out, nil
}

type ClassStats struct {
	ClassID   int64  `json:"class_id"`
	ClassName string `json:"class_name"`
	Period    string `json:"period"`
	grading.ClassStats
}

func (s *Service) ClassStats(ctx context.Context, a access.Actor, classID int64, period string) (*ClassStats, error) {
	if err := s.check(ctx, a, access.ViewClassRecords, access.Target{}); err != nil {
		return nil, err
	}
	c, err := s.class(ctx, classID)
	if err != nil {
		return nil, err
	}
	entries, err := s.classEntries(ctx, classID, period)
	if err != nil {
		return nil, err
	}
	return &ClassStats{ClassID: classID, ClassName: c.Name, Period: period, ClassStats: grading.Stats(entries)}, nil
}

func (s *Service) ClassRanking(ctx context.Context, a access.Actor, classID int64, period string, opts grading.RankOptions) ([]grading.Ranked, error) {
	if err := s.check(ctx, a, access.ViewClassRecords, access.Target{}); err != nil {
		return nil, err
	}
	if _, err := s.class(ctx, classID); err != nil {
		return nil, err
	}
	entries, err := s.classEntries(ctx, classID, period)
	if err != nil {
		return nil, err
	}
	return grading.Rank(entries, opts), nil
}

type StudentRank struct {
	StudentID int64  `json:"student_id"`
	Period    string `json:"period"`
	Rank      int    `json:"rank"`
	Total     int    `json:"total"`
}

func (s *Service) StudentRank(ctx context.Context, a access.Actor, studentID int64, period string) (*StudentRank, error) {
	if err := s.check(ctx, a, access.ViewStudentRecords, access.Target{StudentID: studentID}); err != nil {
		return nil, err
	}
	st, err := s.student(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if st.ClassID == nil {
		return nil, ErrNoClass
	}
	rank, total, err := s.rankOf(ctx, *st.ClassID, studentID, period)
	if err != nil {
		return nil, err
	}
	return &StudentRank{StudentID: studentID, Period: period, Rank: rank, Total: total}, nil
}

func (s *Service) rankOf(ctx context.Context, classID, studentID int64, period string) (rank, total int, err error) {
	entries, err := s.classEntries(ctx, classID, period)
	if err != nil {
		return 0, 0, err
	}
	rank, total, _ = grading.Position(grading.Rank(entries, grading.RankOptions{}), studentID)
	return rank, total, nil
}

// classEntries aggregates every student of the class for the period, in
// roster order. Results are cached until the next write that affects the
// class; a result computed across such a write is not stored.
func (s *Service) classEntries(ctx context.Context, classID int64, period string) ([]grading.Entry, error) {
	if cached, ok, err := s.rankings.Get(ctx, classID, period); err != nil {
		s.log.Warn("ranking cache read failed", zap.Int64("class_id", classID), zap.Error(err))
	} else if ok {
		return cached, nil
	}

	gen, genErr := s.rankings.Generation(ctx, classID)
	if genErr != nil {
		s.log.Warn("ranking cache generation read failed", zap.Int64("class_id", classID), zap.Error(genErr))
	}

	students, err := db.ListStudentsByClass(ctx, s.db, classID)
	if err != nil {
		return nil, err
	}
	grades, err := db.ListClassGrades(ctx, s.db, classID, period)
	if err != nil {
		return nil, err
	}
	entries := make([]grading.Entry, 0, len(students))
	for _, st := range students {
		entries = append(entries, grading.Entry{
			StudentID: st.ID,
			Name:      st.DisplayName(),
			Summary:   summarize(grades[st.ID]),
		})
	}

	if genErr == nil {
		if _, err := s.rankings.Set(ctx, classID, period, gen, entries); err != nil {
			s.log.Warn("ranking cache write failed", zap.Int64("class_id", classID), zap.Error(err))
		}
	}
	return entries, nil
}

func summarize(grades []models.Grade) grading.Summary {
	lines := make([]grading.Line, 0, len(grades))
	for _, g := range grades {
		lines = append(lines, grading.Line{Average: g.Average, Coef: g.Coef})
	}
	return grading.Aggregate(lines)
}

func isStandardPeriod(p string) bool {
	for _, sp := range models.StandardPeriods {
		if sp == p {
			return true
		}
	}
	return false
}
