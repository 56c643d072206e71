package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/gestion-scolaire/internal/db"
	"github.com/Spok95/gestion-scolaire/internal/grading"
	"github.com/Spok95/gestion-scolaire/internal/models"
)

func reopen(t *testing.T, w *Workbook) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	_, err := w.WriteTo(&buf)
	require.NoError(t, err)
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestUsersWorkbookSheets(t *testing.T) {
	rows := []db.UserExportRow{
		{Username: "admin", FullName: "Admin Système", Role: models.Admin, IsActive: true},
		{Username: "prof", FullName: "Awa Diallo", Role: models.Teacher, IsActive: true},
		{Username: "eleve", FullName: "Moussa Traoré", Role: models.Student, ClassName: "10e", Related: "Fatou Traoré", IsActive: true},
		{Username: "parent", FullName: "Fatou Traoré", Role: models.Parent, Related: "Moussa Traoré"},
	}
	w, err := NewWorkbook(UsersSheets(rows))
	require.NoError(t, err)
	f := reopen(t, w)

	require.Equal(t, []string{"Tous", "Enseignants", "Administration", "Élèves", "Parents"}, f.GetSheetList())

	all, err := f.GetRows("Tous")
	require.NoError(t, err)
	require.Len(t, all, 5)
	require.Equal(t, "Identifiant", all[0][0])

	students, err := f.GetRows("Élèves")
	require.NoError(t, err)
	require.Len(t, students, 2)
	require.Equal(t, "10e", students[1][5])
	require.Equal(t, "Fatou Traoré", students[1][6])

	parents, err := f.GetRows("Parents")
	require.NoError(t, err)
	require.Equal(t, "Non", parents[1][7])
}

func TestClassResultsWorkbook(t *testing.T) {
	ranking := grading.Rank([]grading.Entry{
		{StudentID: 1, Name: "B", Summary: grading.Summary{TotalWeighted: 80, TotalCoef: 8, Average: 10, Count: 3}},
		{StudentID: 2, Name: "A", Summary: grading.Summary{TotalWeighted: 139.66, TotalCoef: 8, Average: 17.46, Count: 3}},
		{StudentID: 3, Name: "C"},
	}, grading.RankOptions{})
	w, err := NewWorkbook(ClassResultsSheets("12e EXP", models.Period1, ranking, grading.ClassStats{Students: 3, Graded: 2}))
	require.NoError(t, err)
	f := reopen(t, w)

	rows, err := f.GetRows("Résultats")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	require.Equal(t, []string{"1", "A", "17.46", "Très Bien"}, rows[1][:4])
	require.Equal(t, "-", rows[3][2])

	stats, err := f.GetRows("Statistiques")
	require.NoError(t, err)
	require.Equal(t, "12e EXP", stats[1][0])
}

func TestNewWorkbookRequiresSheet(t *testing.T) {
	_, err := NewWorkbook(nil)
	require.Error(t, err)
}

func TestFilenames(t *testing.T) {
	require.Equal(t, "Résultats 12e EXP 1ère Période.xlsx", ClassResultsFilename(" 12e  EXP ", models.Period1))
	require.Equal(t, "Résultats 11e_SS -.xlsx", ClassResultsFilename("11e/SS", ""))
	require.Equal(t, "utilisateurs_2025-03-01.xlsx", UsersFilename(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)))
	require.Equal(t, "AA", columnName(27))
}
