package export

import (
	"github.com/Spok95/gestion-scolaire/internal/grading"
)

// ClassResultsSheets builds the results sheet of a class for one period
// plus a short statistics sheet.
func ClassResultsSheets(className, period string, ranking []grading.Ranked, stats grading.ClassStats) []SheetSpec {
	results := SheetSpec{
		Title:  "Résultats",
		Header: []string{"Rang", "Élève", "Moyenne", "Appréciation", "Total points", "Total coef.", "Matières notées"},
	}
	for _, r := range ranking {
		var avg any = "-"
		if r.Summary.Graded() {
			avg = r.Summary.Average
		}
		results.Rows = append(results.Rows, []any{
			r.Rank, r.Name, avg, r.Appreciation, r.Summary.TotalWeighted, r.Summary.TotalCoef, r.Summary.Count,
		})
	}

	summary := SheetSpec{
		Title:  "Statistiques",
		Header: []string{"Classe", "Période", "Élèves", "Élèves notés", "Moyenne de classe", "Plus haute", "Plus basse"},
		Rows: [][]any{{
			className, period, stats.Students, stats.Graded, stats.Average, stats.Highest, stats.Lowest,
		}},
	}
	return []SheetSpec{results, summary}
}
