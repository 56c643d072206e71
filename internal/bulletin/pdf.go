package bulletin

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

const (
	margin    = 15.0
	pageWidth = 180.0
)

var tableHeader = []string{"MATIÈRE", "MOY.CL", "N.COMPO", "M.G.", "COEF", "MOY×COEF", "APPRÉCIATION"}

var tableWidths = []float64{35, 18, 18, 15, 12, 22, 60}

// document wraps gofpdf with the cp1252 translator so French labels print
// correctly with the core fonts.
type document struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func newDocument(title string) *document {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle(title, true)
	pdf.SetCreator("gestion-scolaire", true)
	d := &document{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.AddPage()
	return d
}

func (d *document) text(w, h float64, s, border string, ln int, align string, fill bool) {
	d.pdf.CellFormat(w, h, d.tr(s), border, ln, align, fill, 0, "")
}

func (d *document) schoolHeader(s School) {
	p := d.pdf
	p.SetFont("Helvetica", "B", 14)
	d.text(0, 7, s.Name, "", 1, "C", false)
	p.SetFont("Helvetica", "", 9)
	if s.Address != "" {
		d.text(0, 5, s.Address, "", 1, "C", false)
	}
	if s.Phone != "" {
		d.text(0, 5, "Tél: "+s.Phone, "", 1, "C", false)
	}
	p.Ln(2)
	p.SetDrawColor(0, 0, 139)
	p.SetLineWidth(0.7)
	p.Line(margin, p.GetY(), margin+pageWidth, p.GetY())
	p.SetLineWidth(0.2)
	p.SetDrawColor(128, 128, 128)
	p.Ln(6)
}

func (d *document) title(s string) {
	d.pdf.SetFont("Helvetica", "B", 16)
	d.pdf.SetTextColor(0, 0, 139)
	d.text(0, 9, s, "", 1, "C", false)
	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.Ln(3)
}

func (d *document) sectionTitle(s string) {
	d.pdf.SetFont("Helvetica", "B", 11)
	d.pdf.SetTextColor(0, 0, 139)
	d.text(0, 7, s, "", 1, "L", false)
	d.pdf.SetTextColor(0, 0, 0)
}

func (d *document) finish(w io.Writer) error {
	if d.pdf.Err() {
		return d.pdf.Error()
	}
	return d.pdf.Output(w)
}

// RenderPDF writes the report card to w.
func RenderPDF(w io.Writer, b *Bulletin) error {
	d := newDocument("Bulletin " + b.Student.DisplayName())
	p := d.pdf

	d.schoolHeader(b.School)
	d.title("BULLETIN DE NOTES - " + b.Period)

	// student block
	year := b.AcademicYear
	if year == "" {
		year = placeholder
	}
	p.SetFillColor(242, 242, 242)
	p.SetFont("Helvetica", "B", 10)
	d.text(25, 7, "Élève:", "LT", 0, "L", true)
	p.SetFont("Helvetica", "", 10)
	d.text(65, 7, b.Student.DisplayName(), "T", 0, "L", true)
	p.SetFont("Helvetica", "B", 10)
	d.text(25, 7, "Classe:", "T", 0, "L", true)
	p.SetFont("Helvetica", "", 10)
	d.text(65, 7, b.ClassName, "TR", 1, "L", true)
	p.SetFont("Helvetica", "B", 10)
	d.text(25, 7, "Année scolaire:", "LB", 0, "L", true)
	p.SetFont("Helvetica", "", 10)
	d.text(65, 7, year, "B", 0, "L", true)
	p.SetFont("Helvetica", "B", 10)
	d.text(25, 7, "Date:", "B", 0, "L", true)
	p.SetFont("Helvetica", "", 10)
	d.text(65, 7, b.GeneratedAt.Format("02/01/2006"), "BR", 1, "L", true)
	p.Ln(6)

	for _, sec := range []Section{b.Part1, b.Part2} {
		if len(sec.Rows) == 0 {
			continue
		}
		d.gradeTable(sec)
		p.Ln(5)
	}

	d.sectionTitle("RÉSUMÉ GÉNÉRAL")
	summary := [][2]string{
		{"Total des Points", fmt.Sprintf("%.2f", b.Summary.TotalWeighted)},
		{"Total des Coefficients", coef(b.Summary.TotalCoef)},
		{"Moyenne Générale", fmt.Sprintf("%.2f / 20", b.Summary.Average)},
		{"Appréciation", b.Appreciation},
		{"Rang", b.RankLabel()},
	}
	for i, kv := range summary {
		if i == 2 {
			p.SetFillColor(230, 242, 255)
		} else {
			p.SetFillColor(242, 242, 242)
		}
		p.SetFont("Helvetica", "B", 10)
		d.text(50, 7, kv[0], "1", 0, "L", true)
		if i != 2 {
			p.SetFont("Helvetica", "", 10)
		}
		d.text(50, 7, kv[1], "1", 1, "C", true)
	}
	p.Ln(8)

	d.sectionTitle("SIGNATURES")
	p.SetFont("Helvetica", "B", 9)
	for i, who := range []string{"Le Professeur Principal", "Le Parent/Tuteur", "Le Proviseur"} {
		ln := 0
		if i == 2 {
			ln = 1
		}
		d.text(60, 6, who, "", ln, "C", false)
	}
	p.Ln(14)
	p.SetFont("Helvetica", "", 9)
	for i := 0; i < 3; i++ {
		ln := 0
		if i == 2 {
			ln = 1
		}
		d.text(60, 6, "_____________________", "", ln, "C", false)
	}
	p.Ln(8)

	p.SetFont("Helvetica", "I", 8)
	p.SetTextColor(128, 128, 128)
	d.text(0, 5, fmt.Sprintf("Document généré le %s - %s",
		b.GeneratedAt.Format("02/01/2006 à 15:04"), b.School.Name), "", 1, "C", false)

	return d.finish(w)
}

func (d *document) gradeTable(sec Section) {
	p := d.pdf
	d.sectionTitle(sec.Title)

	p.SetFont("Helvetica", "B", 8)
	p.SetFillColor(51, 77, 128)
	p.SetTextColor(255, 255, 255)
	for i, h := range tableHeader {
		ln := 0
		if i == len(tableHeader)-1 {
			ln = 1
		}
		d.text(tableWidths[i], 7, h, "1", ln, "C", true)
	}
	p.SetTextColor(0, 0, 0)

	p.SetFont("Helvetica", "", 8)
	for n, row := range sec.Rows {
		fill := n%2 == 1
		p.SetFillColor(242, 242, 242)
		cells := row.Cells()
		for i, c := range cells {
			align := "C"
			if i == 0 || i == len(cells)-1 {
				align = "L"
			}
			ln := 0
			if i == len(cells)-1 {
				ln = 1
			}
			d.text(tableWidths[i], 6, c, "1", ln, align, fill)
		}
	}

	if sec.Summary.Graded() {
		p.SetFont("Helvetica", "B", 8)
		p.SetFillColor(217, 217, 217)
		totals := []string{
			"TOTAL/MOYENNE", "", "",
			fmt.Sprintf("%.2f", sec.Summary.Average),
			coef(sec.Summary.TotalCoef),
			fmt.Sprintf("%.2f", sec.Summary.TotalWeighted),
			sec.Summary.Appreciation(),
		}
		for i, c := range totals {
			ln := 0
			if i == len(totals)-1 {
				ln = 1
			}
			d.text(tableWidths[i], 6, c, "1", ln, "C", true)
		}
	}
}
