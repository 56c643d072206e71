package grading

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubjectAverage_StaysInRange(t *testing.T) {
	for moy := 0.0; moy <= 20; moy += 0.25 {
		for compo := 0.0; compo <= 20; compo += 0.25 {
			avg := SubjectAverage(moy, compo)
			if avg < MinMark || avg > MaxMark {
				t.Fatalf("average(%v,%v)=%v out of range", moy, compo, avg)
			}
		}
	}
}

func TestAggregate_ReportCardScenario(t *testing.T) {
	maths := LineFor(16, 18, 5)
	english := LineFor(17, 18, 3)

	require.Equal(t, 17.33, maths.Average)
	require.Equal(t, 86.65, Weighted(maths.Average, maths.Coef))
	require.Equal(t, 17.67, english.Average)
	require.Equal(t, 53.01, Weighted(english.Average, english.Coef))

	s := Aggregate([]Line{maths, english})
	require.Equal(t, 8.0, s.TotalCoef)
	require.Equal(t, 139.66, s.TotalWeighted)
	require.Equal(t, 17.46, s.Average)
	require.Equal(t, "Très Bien", s.Appreciation())
}

func TestAggregate_Empty(t *testing.T) {
	s := Aggregate(nil)
	require.Zero(t, s.Average)
	require.Zero(t, s.TotalCoef)
	require.False(t, s.Graded())
	require.Equal(t, NoAppreciation, s.Appreciation())
}

func TestAggregate_OrderIndependent(t *testing.T) {
	lines := []Line{{12.5, 2}, {8, 4}, {17.25, 1}, {14, 3}}
	want := Aggregate(lines)
	reversed := []Line{lines[3], lines[2], lines[1], lines[0]}
	require.Equal(t, want, Aggregate(reversed))
}

func TestAggregate_DoublingCoefMovesTowardSubject(t *testing.T) {
	base := []Line{{10, 2}, {16, 2}, {12, 1}}
	before := Aggregate(base).Average

	doubled := []Line{{10, 2}, {16, 4}, {12, 1}}
	after := Aggregate(doubled).Average

	require.Greater(t, after, before)
	require.Less(t, after, 16.0)
}

func TestAppreciation_Bands(t *testing.T) {
	cases := []struct {
		avg  float64
		want string
	}{
		{20, "Excellent"},
		{18, "Excellent"},
		{17.99, "Très Bien"},
		{16, "Très Bien"},
		{15.99, "Bien"},
		{14, "Bien"},
		{12, "Assez Bien"},
		{11.99, "Passable"},
		{10, "Passable"},
		{9.5, "Insuffisant"},
		{8, "Insuffisant"},
		{7.99, "Faible"},
		{0, "Faible"},
		{-3, "Faible"},
	}
	for _, c := range cases {
		if got := Appreciation(c.avg); got != c.want {
			t.Errorf("Appreciation(%v)=%q, want %q", c.avg, got, c.want)
		}
	}
}
