//go:build testutil

package school_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Spok95/gestion-scolaire/internal/cache"
	"github.com/Spok95/gestion-scolaire/internal/grading"
	"github.com/Spok95/gestion-scolaire/internal/models"
	"github.com/Spok95/gestion-scolaire/internal/school"
	"github.com/Spok95/gestion-scolaire/internal/testutil/testredis"
)

func setupCached(t *testing.T) (*fixture, *cache.Rankings) {
	t.Helper()
	h, err := testredis.Start(context.Background())
	require.NoError(t, err)
	t.Cleanup(h.Close)
	rankings := cache.NewRankings(h.Client)
	return setupWith(t, rankings), rankings
}

func averages(t *testing.T, f *fixture, classID int64, period string) map[int64]float64 {
	t.Helper()
	ranking, err := f.svc.ClassRanking(context.Background(), f.admin, classID, period, grading.RankOptions{})
	require.NoError(t, err)
	out := make(map[int64]float64, len(ranking))
	for _, r := range ranking {
		out[r.StudentID] = r.Summary.Average
	}
	return out
}

func requireCached(t *testing.T, c *cache.Rankings, classID int64, period string, want bool) {
	t.Helper()
	_, ok, err := c.Get(context.Background(), classID, period)
	require.NoError(t, err)
	require.Equal(t, want, ok, "cached ranking for class %d period %q", classID, period)
}

func TestCachedRankingsFollowGradeWrites(t *testing.T) {
	f, c := setupCached(t)
	ctx := context.Background()

	a := f.student(t, "awa")
	b := f.student(t, "binta")
	g1, err := f.svc.SubmitGrade(ctx, f.teacher, school.GradeInput{
		StudentID: a.ID, SubjectName: "MATHS", Period: models.Period1, MoyCl: 10, NCompo: 10, Coef: 2,
	}, "")
	require.NoError(t, err)
	f.grade(t, b.ID, "MATHS", 14, 14, 2)

	require.Equal(t, 10.0, averages(t, f, f.classID, models.Period1)[a.ID])
	require.Equal(t, 10.0, averages(t, f, f.classID, "")[a.ID])
	requireCached(t, c, f.classID, models.Period1, true)
	requireCached(t, c, f.classID, "", true)

	// a grade in another period still reaches the all-periods ranking
	_, err = f.svc.SubmitGrade(ctx, f.teacher, school.GradeInput{
		StudentID: a.ID, SubjectName: "MATHS", Period: models.Period2, MoyCl: 18, NCompo: 18, Coef: 2,
	}, "")
	require.NoError(t, err)
	requireCached(t, c, f.classID, "", false)
	require.Equal(t, 14.0, averages(t, f, f.classID, "")[a.ID])
	require.Equal(t, 10.0, averages(t, f, f.classID, models.Period1)[a.ID])

	_, err = f.svc.UpdateGrade(ctx, f.teacher, g1.ID, school.GradeInput{
		StudentID: a.ID, SubjectName: "MATHS", Period: models.Period1, MoyCl: 16, NCompo: 16, Coef: 2,
	}, "")
	require.NoError(t, err)
	requireCached(t, c, f.classID, models.Period1, false)
	requireCached(t, c, f.classID, "", false)
	require.Equal(t, 16.0, averages(t, f, f.classID, models.Period1)[a.ID])
	require.Equal(t, 17.0, averages(t, f, f.classID, "")[a.ID])

	require.NoError(t, f.svc.DeleteGrade(ctx, f.teacher, g1.ID, ""))
	require.Zero(t, averages(t, f, f.classID, models.Period1)[a.ID])
	require.Equal(t, 18.0, averages(t, f, f.classID, "")[a.ID])

	pos, err := f.svc.StudentRank(ctx, a, a.ID, models.Period1)
	require.NoError(t, err)
	require.Equal(t, 2, pos.Rank)
}

func TestCachedRankingsFollowUserUpdates(t *testing.T) {
	f, c := setupCached(t)
	ctx := context.Background()

	other, err := f.svc.CreateClass(ctx, f.admin, school.ClassInput{Name: "11e LITT"}, "")
	require.NoError(t, err)
	a := f.student(t, "awa")
	f.grade(t, a.ID, "MATHS", 12, 12, 1)

	require.Contains(t, averages(t, f, f.classID, models.Period1), a.ID)
	require.NotContains(t, averages(t, f, other.ID, models.Period1), a.ID)
	requireCached(t, c, other.ID, models.Period1, true)

	_, err = f.svc.UpdateUser(ctx, f.admin, a.ID, school.UserInput{
		Username: "awa", FirstName: "Aminata", LastName: "Élève", Role: "student",
		ClassID: &other.ID, Password: "nouveau1",
	}, "")
	require.NoError(t, err)

	require.NotContains(t, averages(t, f, f.classID, models.Period1), a.ID)
	require.Equal(t, 12.0, averages(t, f, other.ID, models.Period1)[a.ID])
	requireCached(t, c, other.ID, models.Period1, true)

	// password and profile were written together
	sess, err := f.svc.Login(ctx, school.LoginInput{Username: "awa", Password: "nouveau1"}, "")
	require.NoError(t, err)
	require.Equal(t, "Aminata", sess.User.FirstName)
	_, err = f.svc.Login(ctx, school.LoginInput{Username: "awa", Password: "secret1"}, "")
	require.ErrorIs(t, err, school.ErrUnauthenticated)

	// a rename alone must not leave the old name in the cached ranking
	_, err = f.svc.UpdateUser(ctx, f.admin, a.ID, school.UserInput{
		Username: "awa", FirstName: "Awa", LastName: "Diarra", Role: "student", ClassID: &other.ID,
	}, "")
	require.NoError(t, err)
	ranking, err := f.svc.ClassRanking(ctx, f.admin, other.ID, models.Period1, grading.RankOptions{})
	require.NoError(t, err)
	require.Len(t, ranking, 1)
	require.Equal(t, "Awa Diarra", ranking[0].Name)
}
