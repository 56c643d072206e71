package bulletin

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Spok95/gestion-scolaire/internal/grading"
	"github.com/Spok95/gestion-scolaire/internal/models"
)

func structure12Exp() *models.BulletinStructure {
	return &models.BulletinStructure{
		ClassID:       1,
		SubjectsPart1: []string{"MATHS", "PHYSIQUE", "CHIMIE", "PHILOSOPHIE", "ANGLAIS", "SVT"},
		SubjectsPart2: []string{"E.C.M", "EPS", "INFORMATIQUE", "CONDUITE"},
	}
}

func input(grades ...models.Grade) Input {
	return Input{
		Student:      models.User{ID: 10, Username: "awa", FirstName: "Awa", LastName: "Diarra", Role: models.Student},
		Class:        models.SchoolClass{ID: 1, Name: "12e EXP"},
		Period:       models.Period1,
		Structure:    structure12Exp(),
		Grades:       grades,
		AcademicYear: "2024-2025",
		Now:          time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
	}
}

func grade(subject string, moyCl, nCompo, coef float64) models.Grade {
	return models.Grade{StudentID: 10, SubjectName: subject, Period: models.Period1, MoyCl: moyCl, NCompo: nCompo, Coef: coef}
}

func subjects(sec Section) []string {
	out := make([]string, 0, len(sec.Rows))
	for _, r := range sec.Rows {
		out = append(out, r.Subject)
	}
	return out
}

func TestAssemble_FollowsStructureOrderWithPlaceholders(t *testing.T) {
	b, err := Assemble(input(grade("ANGLAIS", 17, 18, 3), grade("MATHS", 16, 18, 5)))
	require.NoError(t, err)

	require.Equal(t, structure12Exp().SubjectsPart1, subjects(b.Part1))
	require.Equal(t, structure12Exp().SubjectsPart2, subjects(b.Part2))

	physique := b.Part1.Rows[1]
	require.False(t, physique.Graded)
	require.Equal(t, []string{"PHYSIQUE", "-", "-", "-", "-", "-", "-"}, physique.Cells())

	maths := b.Part1.Rows[0]
	require.True(t, maths.Graded)
	require.Equal(t, []string{"MATHS", "16.00", "18.00", "17.33", "5", "86.65", "Très Bien"}, maths.Cells())
}

func TestAssemble_Summary(t *testing.T) {
	b, err := Assemble(input(grade("MATHS", 16, 18, 5), grade("ANGLAIS", 17, 18, 3)))
	require.NoError(t, err)

	require.Equal(t, 8.0, b.Summary.TotalCoef)
	require.Equal(t, 17.46, b.Summary.Average)
	require.Equal(t, "Très Bien", b.Appreciation)
	require.Equal(t, b.Summary, b.Part1.Summary)
	require.False(t, b.Part2.Summary.Graded())
	require.Equal(t, "-", b.RankLabel())
}

func TestAssemble_SummaryIgnoresSubjectsOutsideStructure(t *testing.T) {
	b, err := Assemble(input(grade("MATHS", 10, 10, 2), grade("LATIN", 20, 20, 4)))
	require.NoError(t, err)
	require.Equal(t, 10.0, b.Summary.Average)
	require.Equal(t, 1, b.Summary.Count)
}

func TestAssemble_SectionsSubtotalSeparately(t *testing.T) {
	b, err := Assemble(input(grade("MATHS", 12, 12, 4), grade("EPS", 18, 18, 1)))
	require.NoError(t, err)
	require.Equal(t, 12.0, b.Part1.Summary.Average)
	require.Equal(t, 18.0, b.Part2.Summary.Average)
	require.Equal(t, grading.Round((48+18)/5.0, 2), b.Summary.Average)
}

func TestAssemble_NoGrades(t *testing.T) {
	b, err := Assemble(input())
	require.NoError(t, err)
	require.Zero(t, b.Summary.Average)
	require.Equal(t, "-", b.Appreciation)
	for _, r := range append(b.Part1.Rows, b.Part2.Rows...) {
		require.False(t, r.Graded)
	}
}

func TestRowJSONKeepsZeroMarks(t *testing.T) {
	b, err := Assemble(input(grade("MATHS", 0, 0, 1)))
	require.NoError(t, err)

	raw, err := json.Marshal(b.Part1.Rows[0])
	require.NoError(t, err)
	require.JSONEq(t, `{"subject":"MATHS","graded":true,"moy_cl":0,"n_compo":0,"coef":1,"average":0,"weighted":0,"appreciation":"Faible"}`, string(raw))

	raw, err = json.Marshal(b.Part1.Rows[1])
	require.NoError(t, err)
	require.JSONEq(t, `{"subject":"PHYSIQUE","graded":false,"moy_cl":null,"n_compo":null,"coef":null,"average":null,"weighted":null,"appreciation":"-"}`, string(raw))
}

func TestAssemble_NoStructure(t *testing.T) {
	in := input(grade("MATHS", 16, 18, 5))
	in.Structure = nil
	b, err := Assemble(in)
	require.Nil(t, b)
	require.True(t, errors.Is(err, ErrNoStructure))
}

func TestAssemble_SchoolName(t *testing.T) {
	b, err := Assemble(input())
	require.NoError(t, err)
	require.Equal(t, DefaultSchoolName, b.SchoolName)

	in := input()
	in.School = School{Name: "Lycée de Ségou"}
	in.Structure.SchoolName = "Lycée Askia"
	b, err = Assemble(in)
	require.NoError(t, err)
	require.Equal(t, "Lycée Askia", b.SchoolName)
}

func TestRenderPDF(t *testing.T) {
	b, err := Assemble(input(grade("MATHS", 16, 18, 5), grade("E.C.M", 11, 9.5, 1)))
	require.NoError(t, err)
	b.Rank, b.RankTotal = 2, 31

	var buf bytes.Buffer
	require.NoError(t, RenderPDF(&buf, b))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
	require.Equal(t, "bulletin_awa_1ère_Période.pdf", b.Filename())
}

func TestRenderClassReportPDF(t *testing.T) {
	entries := []grading.Entry{
		{StudentID: 1, Name: "Awa Diarra", Summary: grading.Aggregate([]grading.Line{{Average: 14, Coef: 2}})},
		{StudentID: 2, Name: "Moussa Traoré", Summary: grading.Aggregate([]grading.Line{{Average: 11, Coef: 2}})},
	}
	r := ClassReport{
		School:    School{Name: DefaultSchoolName},
		ClassName: "10e",
		Period:    models.Period2,
		Ranking:   grading.Rank(entries, grading.RankOptions{}),
		Stats:     grading.Stats(entries),
	}
	var buf bytes.Buffer
	require.NoError(t, RenderClassReportPDF(&buf, r))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}
