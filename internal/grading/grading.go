// Package grading holds the arithmetic behind report cards: per-subject
// averages, coefficient-weighted aggregates, appreciation bands, class
// rankings and attendance rates. Everything here is pure.
package grading

import "math"

// Bounds of a single mark.
const (
	MinMark = 0.0
	MaxMark = 20.0
	MinCoef = 1.0
)

// Continuous assessment counts once, the composition counts twice.
const (
	classWeight = 1.0
	compoWeight = 2.0
)

// Round rounds x half away from zero to the given number of decimals.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// SubjectAverage is round((moyCl + 2*nCompo) / 3, 2).
func SubjectAverage(moyCl, nCompo float64) float64 {
	return Round((classWeight*moyCl+compoWeight*nCompo)/(classWeight+compoWeight), 2)
}

// Weighted is the average's contribution to an aggregate. The product is
// rounded to two decimals so that 17.33*5 reads 86.65.
func Weighted(average, coef float64) float64 {
	return Round(average*coef, 2)
}

// Line is one graded subject as seen by the aggregate.
type Line struct {
	Average float64
	Coef    float64
}

// LineFor computes a Line straight from the raw marks.
func LineFor(moyCl, nCompo, coef float64) Line {
	return Line{Average: SubjectAverage(moyCl, nCompo), Coef: coef}
}

// Summary is the aggregate over a set of graded subjects. Average is 0 when
// nothing is graded; check Count or TotalCoef to tell "no data" apart from
// a real zero.
type Summary struct {
	TotalWeighted float64 `json:"total_weighted"`
	TotalCoef     float64 `json:"total_coef"`
	Average       float64 `json:"average"`
	Count         int     `json:"count"`
}

func (s Summary) Graded() bool { return s.Count > 0 && s.TotalCoef > 0 }

// Appreciation returns the band for the summary, or "-" when nothing is graded.
func (s Summary) Appreciation() string {
	if !s.Graded() {
		return NoAppreciation
	}
	return Appreciation(s.Average)
}

// Aggregate sums weighted contributions and coefficients and divides.
func Aggregate(lines []Line) Summary {
	var s Summary
	for _, l := range lines {
		s.TotalWeighted += Weighted(l.Average, l.Coef)
		s.TotalCoef += l.Coef
		s.Count++
	}
	s.TotalWeighted = Round(s.TotalWeighted, 2)
	s.TotalCoef = Round(s.TotalCoef, 2)
	if s.TotalCoef > 0 {
		s.Average = Round(s.TotalWeighted/s.TotalCoef, 2)
	}
	return s
}

// NoAppreciation is shown where there is no average to band.
const NoAppreciation = "-"

var bands = []struct {
	min   float64
	label string
}{
	{18, "Excellent"},
	{16, "Très Bien"},
	{14, "Bien"},
	{12, "Assez Bien"},
	{10, "Passable"},
	{8, "Insuffisant"},
}

// Appreciation maps an average to its band. Thresholds are inclusive.
func Appreciation(avg float64) string {
	for _, b := range bands {
		if avg >= b.min {
			return b.label
		}
	}
	return "Faible"
}
