// Package bulletin builds per-student report cards from a class's bulletin
// structure and renders them, along with class reports, as PDF.
package bulletin

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Spok95/gestion-scolaire/internal/grading"
	"github.com/Spok95/gestion-scolaire/internal/models"
)

// ErrNoStructure is returned when the student's class has no bulletin
// structure. A structure is never made up.
var ErrNoStructure = errors.New("no bulletin structure configured for class")

const (
	Part1Title = "MATIÈRES PRINCIPALES"
	Part2Title = "MATIÈRES SECONDAIRES"

	// DefaultSchoolName is printed when neither the structure nor the
	// configuration names the school.
	DefaultSchoolName = "Lycée Michel ALLAIRE"

	placeholder = "-"
)

type School struct {
	Name    string
	Address string
	Phone   string
}

// Row is one subject line. Ungraded subjects keep their place with
// Graded=false and print as "-".
type Row struct {
	Subject      string  `json:"subject"`
	Graded       bool    `json:"graded"`
	MoyCl        float64 `json:"moy_cl"`
	NCompo       float64 `json:"n_compo"`
	Coef         float64 `json:"coef"`
	Average      float64 `json:"average"`
	Weighted     float64 `json:"weighted"`
	Appreciation string  `json:"appreciation"`
}

// MarshalJSON writes the marks of an ungraded row as null. A graded zero
// stays 0.
func (r Row) MarshalJSON() ([]byte, error) {
	type row struct {
		Subject      string   `json:"subject"`
		Graded       bool     `json:"graded"`
		MoyCl        *float64 `json:"moy_cl"`
		NCompo       *float64 `json:"n_compo"`
		Coef         *float64 `json:"coef"`
		Average      *float64 `json:"average"`
		Weighted     *float64 `json:"weighted"`
		Appreciation string   `json:"appreciation"`
	}
	out := row{Subject: r.Subject, Graded: r.Graded, Appreciation: r.Appreciation}
	if r.Graded {
		out.MoyCl, out.NCompo, out.Coef = &r.MoyCl, &r.NCompo, &r.Coef
		out.Average, out.Weighted = &r.Average, &r.Weighted
	}
	return json.Marshal(out)
}

// Cells formats the row in column order:
// subject, moy.cl, n.compo, m.g., coef, moy×coef, appreciation.
func (r Row) Cells() []string {
	if !r.Graded {
		return []string{r.Subject, placeholder, placeholder, placeholder, placeholder, placeholder, placeholder}
	}
	return []string{
		r.Subject,
		mark(r.MoyCl),
		mark(r.NCompo),
		mark(r.Average),
		coef(r.Coef),
		mark(r.Weighted),
		r.Appreciation,
	}
}

type Section struct {
	Title   string          `json:"title"`
	Rows    []Row           `json:"rows"`
	Summary grading.Summary `json:"summary"`
}

type Bulletin struct {
	School       School          `json:"-"`
	SchoolName   string          `json:"school_name"`
	Student      models.User     `json:"student"`
	ClassName    string          `json:"class_name"`
	Period       string          `json:"period"`
	AcademicYear string          `json:"academic_year,omitempty"`
	Part1        Section         `json:"part1"`
	Part2        Section         `json:"part2"`
	Summary      grading.Summary `json:"summary"`
	Appreciation string          `json:"appreciation"`
	Rank         int             `json:"rank,omitempty"`
	RankTotal    int             `json:"rank_total,omitempty"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

// RankLabel prints "r / n", or "-" when no rank was computed.
func (b *Bulletin) RankLabel() string {
	if b.Rank <= 0 {
		return placeholder
	}
	return fmt.Sprintf("%d / %d", b.Rank, b.RankTotal)
}

func (b *Bulletin) Filename() string {
	name := b.Student.Username
	if name == "" {
		name = fmt.Sprintf("eleve_%d", b.Student.ID)
	}
	return fmt.Sprintf("bulletin_%s_%s.pdf", name, strings.ReplaceAll(b.Period, " ", "_"))
}

type Input struct {
	Student      models.User
	Class        models.SchoolClass
	Period       string
	Structure    *models.BulletinStructure
	Grades       []models.Grade
	School       School
	AcademicYear string
	Now          time.Time
}

// Assemble lays the student's grades for the period out along the class
// structure. Rows follow the structure's declared order, part 1 then part 2.
// Section subtotals and the overall summary cover graded rows only, each
// subject counted once even if both parts list it.
func Assemble(in Input) (*Bulletin, error) {
	if in.Structure == nil {
		return nil, ErrNoStructure
	}

	bySubject := make(map[string]models.Grade, len(in.Grades))
	for _, g := range in.Grades {
		if g.Period != "" && in.Period != "" && g.Period != in.Period {
			continue
		}
		bySubject[g.SubjectName] = g
	}

	part1 := buildSection(Part1Title, in.Structure.SubjectsPart1, bySubject)
	part2 := buildSection(Part2Title, in.Structure.SubjectsPart2, bySubject)

	seen := make(map[string]bool)
	var lines []grading.Line
	for _, sec := range []Section{part1, part2} {
		for _, r := range sec.Rows {
			if !r.Graded || seen[r.Subject] {
				continue
			}
			seen[r.Subject] = true
			lines = append(lines, grading.Line{Average: r.Average, Coef: r.Coef})
		}
	}
	summary := grading.Aggregate(lines)

	school := in.School
	if in.Structure.SchoolName != "" {
		school.Name = in.Structure.SchoolName
	}
	if school.Name == "" {
		school.Name = DefaultSchoolName
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	return &Bulletin{
		School:       school,
		SchoolName:   school.Name,
		Student:      in.Student,
		ClassName:    in.Class.Name,
		Period:       in.Period,
		AcademicYear: in.AcademicYear,
		Part1:        part1,
		Part2:        part2,
		Summary:      summary,
		Appreciation: summary.Appreciation(),
		GeneratedAt:  now,
	}, nil
}

func buildSection(title string, subjects []string, grades map[string]models.Grade) Section {
	sec := Section{Title: title, Rows: make([]Row, 0, len(subjects))}
	var lines []grading.Line
	for _, subject := range subjects {
		g, ok := grades[subject]
		if !ok {
			sec.Rows = append(sec.Rows, Row{Subject: subject, Appreciation: placeholder})
			continue
		}
		avg := grading.SubjectAverage(g.MoyCl, g.NCompo)
		sec.Rows = append(sec.Rows, Row{
			Subject:      subject,
			Graded:       true,
			MoyCl:        g.MoyCl,
			NCompo:       g.NCompo,
			Coef:         g.Coef,
			Average:      avg,
			Weighted:     grading.Weighted(avg, g.Coef),
			Appreciation: grading.Appreciation(avg),
		})
		lines = append(lines, grading.Line{Average: avg, Coef: g.Coef})
	}
	sec.Summary = grading.Aggregate(lines)
	return sec
}

func mark(v float64) string { return fmt.Sprintf("%.2f", v) }

func coef(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}
