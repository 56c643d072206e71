package bulletin

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Spok95/gestion-scolaire/internal/grading"
)

// ClassReport is the ranked results of a whole class for one period.
type ClassReport struct {
	School      School
	ClassName   string
	Period      string
	Ranking     []grading.Ranked
	Stats       grading.ClassStats
	GeneratedAt time.Time
}

func (r ClassReport) Filename() string {
	return fmt.Sprintf("rapport_%s_%s.pdf",
		strings.ReplaceAll(r.ClassName, " ", "_"), strings.ReplaceAll(r.Period, " ", "_"))
}

var reportWidths = []float64{15, 80, 30, 55}

func RenderClassReportPDF(w io.Writer, r ClassReport) error {
	d := newDocument("Rapport " + r.ClassName)
	p := d.pdf

	if r.School.Name != "" {
		d.schoolHeader(r.School)
	}
	d.title("RAPPORT DE CLASSE - " + r.Period)
	p.SetFont("Helvetica", "B", 12)
	d.text(0, 7, "Classe: "+r.ClassName, "", 1, "C", false)
	p.Ln(6)

	p.SetFont("Helvetica", "B", 9)
	p.SetFillColor(0, 0, 139)
	p.SetTextColor(255, 255, 255)
	for i, h := range []string{"Rang", "Nom de l'élève", "Moyenne", "Appréciation"} {
		ln := 0
		if i == 3 {
			ln = 1
		}
		d.text(reportWidths[i], 7, h, "1", ln, "C", true)
	}
	p.SetTextColor(0, 0, 0)
	p.SetFont("Helvetica", "", 9)
	p.SetFillColor(242, 242, 242)
	for n, e := range r.Ranking {
		fill := n%2 == 1
		d.text(reportWidths[0], 6, strconv.Itoa(e.Rank), "1", 0, "C", fill)
		d.text(reportWidths[1], 6, e.Name, "1", 0, "L", fill)
		d.text(reportWidths[2], 6, fmt.Sprintf("%.2f", e.Summary.Average), "1", 0, "C", fill)
		d.text(reportWidths[3], 6, e.Appreciation, "1", 1, "C", fill)
	}
	p.Ln(8)

	if len(r.Ranking) > 0 {
		p.SetFillColor(242, 242, 242)
		p.SetFont("Helvetica", "B", 10)
		d.text(100, 7, "Statistiques de la classe", "LTR", 1, "L", true)
		p.SetFont("Helvetica", "", 10)
		d.text(100, 6, fmt.Sprintf("Moyenne de classe: %.2f", r.Stats.Average), "LR", 1, "L", true)
		d.text(100, 6, fmt.Sprintf("Meilleure moyenne: %.2f", r.Stats.Highest), "LR", 1, "L", true)
		d.text(100, 6, fmt.Sprintf("Plus basse moyenne: %.2f", r.Stats.Lowest), "LR", 1, "L", true)
		d.text(100, 6, fmt.Sprintf("Nombre d'élèves: %d", len(r.Ranking)), "LBR", 1, "L", true)
	}

	generated := r.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	p.Ln(6)
	p.SetFont("Helvetica", "I", 8)
	p.SetTextColor(128, 128, 128)
	d.text(0, 5, "Document généré le "+generated.Format("02/01/2006 à 15:04"), "", 1, "C", false)

	return d.finish(w)
}
