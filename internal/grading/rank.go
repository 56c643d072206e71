package grading

import "sort"

// Entry is one student's aggregate for a class ranking.
type Entry struct {
	StudentID int64   `json:"student_id"`
	Name      string  `json:"name"`
	Summary   Summary `json:"summary"`
}

type Ranked struct {
	Entry
	Rank         int    `json:"rank"`
	Appreciation string `json:"appreciation"`
}

type RankOptions struct {
	// ExcludeUngraded drops students with no grade for the period instead
	// of ranking them last with an average of 0.
	ExcludeUngraded bool
}

// Rank orders entries by descending average and assigns 1-based ranks.
// Equal averages keep their input order; there is no other tie-break.
func Rank(entries []Entry, opts RankOptions) []Ranked {
	out := make([]Ranked, 0, len(entries))
	for _, e := range entries {
		if opts.ExcludeUngraded && !e.Summary.Graded() {
			continue
		}
		out = append(out, Ranked{Entry: e, Appreciation: e.Summary.Appreciation()})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Summary.Average > out[j].Summary.Average
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Position finds a student in a ranking. ok is false when the student is
// not ranked.
func Position(ranking []Ranked, studentID int64) (rank, total int, ok bool) {
	for _, r := range ranking {
		if r.StudentID == studentID {
			return r.Rank, len(ranking), true
		}
	}
	return 0, len(ranking), false
}

// ClassStats describes the spread of averages in a class for one period.
// Only students with at least one grade are counted.
type ClassStats struct {
	Students int     `json:"students"`
	Graded   int     `json:"graded"`
	Average  float64 `json:"average"`
	Highest  float64 `json:"highest"`
	Lowest   float64 `json:"lowest"`
}

func Stats(entries []Entry) ClassStats {
	st := ClassStats{Students: len(entries)}
	var sum float64
	for _, e := range entries {
		if !e.Summary.Graded() {
			continue
		}
		avg := e.Summary.Average
		if st.Graded == 0 || avg > st.Highest {
			st.Highest = avg
		}
		if st.Graded == 0 || avg < st.Lowest {
			st.Lowest = avg
		}
		sum += avg
		st.Graded++
	}
	if st.Graded > 0 {
		st.Average = Round(sum/float64(st.Graded), 2)
	}
	return st
}
