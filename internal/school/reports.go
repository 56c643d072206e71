package school

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/Spok95/gestion-scolaire/internal/access"
	"github.com/Spok95/gestion-scolaire/internal/bulletin"
	"github.com/Spok95/gestion-scolaire/internal/db"
	"github.com/Spok95/gestion-scolaire/internal/export"
	"github.com/Spok95/gestion-scolaire/internal/grading"
	"github.com/Spok95/gestion-scolaire/internal/metrics"
)

// Document is a generated file ready to be served.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

const (
	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func requirePeriod(period string) error {
	if strings.TrimSpace(period) == "" {
		return invalid("period", "required", "période requise")
	}
	return nil
}

// Bulletin assembles a student's report card for one period from the
// class's bulletin structure, with the student's rank in the class.
func (s *Service) Bulletin(ctx context.Context, a access.Actor, studentID int64, period string) (*bulletin.Bulletin, error) {
	ctx = withOp(ctx, "bulletin")
	if err := s.check(ctx, a, access.ViewStudentRecords, access.Target{StudentID: studentID}); err != nil {
		return nil, err
	}
	if err := requirePeriod(period); err != nil {
		return nil, err
	}
	st, err := s.student(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if st.ClassID == nil {
		return nil, ErrNoClass
	}
	class, err := s.class(ctx, *st.ClassID)
	if err != nil {
		return nil, err
	}
	structure, err := db.GetStructureByClass(ctx, s.db, class.ID)
	if err != nil {
		return nil, err
	}
	if structure == nil {
		return nil, fmt.Errorf("class %s: %w", class.Name, ErrNoStructure)
	}
	grades, err := db.ListStudentGrades(ctx, s.db, studentID, period)
	if err != nil {
		return nil, err
	}

	var yearName string
	if y, err := db.CurrentAcademicYear(ctx, s.db); err != nil {
		return nil, err
	} else if y != nil {
		yearName = y.Name
	}

	b, err := bulletin.Assemble(bulletin.Input{
		Student:      *st,
		Class:        *class,
		Period:       period,
		Structure:    structure,
		Grades:       grades,
		School:       s.school,
		AcademicYear: yearName,
		Now:          s.now().In(s.loc),
	})
	if err != nil {
		return nil, err
	}

	rank, total, err := s.rankOf(ctx, class.ID, studentID, period)
	if err != nil {
		return nil, err
	}
	b.Rank, b.RankTotal = rank, total
	return b, nil
}

func (s *Service) BulletinPDF(ctx context.Context, a access.Actor, studentID int64, period string) (*Document, error) {
	b, err := s.Bulletin(ctx, a, studentID, period)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := bulletin.RenderPDF(&buf, b); err != nil {
		return nil, fmt.Errorf("render bulletin: %w", err)
	}
	metrics.DocumentsGenerated.WithLabelValues("bulletin").Inc()
	s.audit(ctx, a, "bulletin_generate", "user", studentID, period, "")
	return &Document{Filename: b.Filename(), ContentType: contentTypePDF, Body: buf.Bytes()}, nil
}

func (s *Service) ClassReportPDF(ctx context.Context, a access.Actor, classID int64, period string) (*Document, error) {
	ctx = withOp(ctx, "class_report")
	if err := s.check(ctx, a, access.ViewClassRecords, access.Target{}); err != nil {
		return nil, err
	}
	if err := requirePeriod(period); err != nil {
		return nil, err
	}
	class, err := s.class(ctx, classID)
	if err != nil {
		return nil, err
	}
	entries, err := s.classEntries(ctx, classID, period)
	if err != nil {
		return nil, err
	}

	school := s.school
	if structure, err := db.GetStructureByClass(ctx, s.db, classID); err != nil {
		return nil, err
	} else if structure != nil && structure.SchoolName != "" {
		school.Name = structure.SchoolName
	}

	report := bulletin.ClassReport{
		School:      school,
		ClassName:   class.Name,
		Period:      period,
		Ranking:     grading.Rank(entries, grading.RankOptions{}),
		Stats:       grading.Stats(entries),
		GeneratedAt: s.now().In(s.loc),
	}
	var buf bytes.Buffer
	if err := bulletin.RenderClassReportPDF(&buf, report); err != nil {
		return nil, fmt.Errorf("render class report: %w", err)
	}
	metrics.DocumentsGenerated.WithLabelValues("class_report").Inc()
	return &Document{Filename: report.Filename(), ContentType: contentTypePDF, Body: buf.Bytes()}, nil
}

func (s *Service) ExportClassResults(ctx context.Context, a access.Actor, classID int64, period string) (*Document, error) {
	if err := s.check(ctx, a, access.ExportData, access.Target{}); err != nil {
		return nil, err
	}
	if err := requirePeriod(period); err != nil {
		return nil, err
	}
	class, err := s.class(ctx, classID)
	if err != nil {
		return nil, err
	}
	entries, err := s.classEntries(ctx, classID, period)
	if err != nil {
		return nil, err
	}
	sheets := export.ClassResultsSheets(class.Name, period, grading.Rank(entries, grading.RankOptions{}), grading.Stats(entries))
	return s.workbook(ctx, a, sheets, export.ClassResultsFilename(class.Name, period), "class_results")
}

func (s *Service) ExportUsers(ctx context.Context, a access.Actor, includeInactive bool) (*Document, error) {
	if err := s.check(ctx, a, access.ExportData, access.Target{}); err != nil {
		return nil, err
	}
	rows, err := db.ListUsersForExport(ctx, s.db, includeInactive)
	if err != nil {
		return nil, err
	}
	return s.workbook(ctx, a, export.UsersSheets(rows), export.UsersFilename(s.now().In(s.loc)), "users")
}

func (s *Service) workbook(ctx context.Context, a access.Actor, sheets []export.SheetSpec, filename, kind string) (*Document, error) {
	wb, err := export.NewWorkbook(sheets)
	if err != nil {
		return nil, err
	}
	defer func() { _ = wb.Close() }()

	var buf bytes.Buffer
	if _, err := wb.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	metrics.DocumentsGenerated.WithLabelValues(kind).Inc()
	s.audit(ctx, a, "export_"+kind, "export", 0, filename, "")
	return &Document{Filename: filename, ContentType: contentTypeXLSX, Body: buf.Bytes()}, nil
}
