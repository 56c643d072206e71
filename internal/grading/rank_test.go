package grading

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func entry(id int64, avg float64, count int) Entry {
	coef := 0.0
	if count > 0 {
		coef = 1
	}
	return Entry{StudentID: id, Summary: Summary{Average: avg, TotalCoef: coef, TotalWeighted: avg * coef, Count: count}}
}

func TestRank_TiesKeepIterationOrder(t *testing.T) {
	got := Rank([]Entry{entry(1, 12, 3), entry(2, 15.5, 3), entry(3, 15.5, 3)}, RankOptions{})

	require.Len(t, got, 3)
	require.Equal(t, int64(2), got[0].StudentID)
	require.Equal(t, int64(3), got[1].StudentID)
	require.Equal(t, int64(1), got[2].StudentID)
	for i, r := range got {
		require.Equal(t, i+1, r.Rank)
	}
}

func TestRank_UngradedLastUnlessExcluded(t *testing.T) {
	in := []Entry{entry(1, 0, 0), entry(2, 9, 2), entry(3, 14, 2)}

	all := Rank(in, RankOptions{})
	require.Len(t, all, 3)
	require.Equal(t, int64(1), all[2].StudentID)
	require.Equal(t, NoAppreciation, all[2].Appreciation)

	graded := Rank(in, RankOptions{ExcludeUngraded: true})
	require.Len(t, graded, 2)
	rank, total, ok := Position(graded, 1)
	require.False(t, ok)
	require.Zero(t, rank)
	require.Equal(t, 2, total)
}

func TestPosition(t *testing.T) {
	r := Rank([]Entry{entry(7, 11, 1), entry(8, 13, 1)}, RankOptions{})
	rank, total, ok := Position(r, 7)
	require.True(t, ok)
	require.Equal(t, 2, rank)
	require.Equal(t, 2, total)
}

func TestStats(t *testing.T) {
	st := Stats([]Entry{entry(1, 12, 2), entry(2, 15, 2), entry(3, 0, 0), entry(4, 9, 1)})
	require.Equal(t, 4, st.Students)
	require.Equal(t, 3, st.Graded)
	require.Equal(t, 12.0, st.Average)
	require.Equal(t, 15.0, st.Highest)
	require.Equal(t, 9.0, st.Lowest)

	empty := Stats(nil)
	require.Zero(t, empty.Graded)
	require.Zero(t, empty.Average)
}
