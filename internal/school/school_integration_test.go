//go:build testutil

package school_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Spok95/gestion-scolaire/internal/access"
	"github.com/Spok95/gestion-scolaire/internal/auth"
	"github.com/Spok95/gestion-scolaire/internal/bulletin"
	"github.com/Spok95/gestion-scolaire/internal/cache"
	"github.com/Spok95/gestion-scolaire/internal/db"
	"github.com/Spok95/gestion-scolaire/internal/grading"
	"github.com/Spok95/gestion-scolaire/internal/models"
	"github.com/Spok95/gestion-scolaire/internal/school"
	"github.com/Spok95/gestion-scolaire/internal/testutil/testdb"
)

type fixture struct {
	svc     *school.Service
	h       *testdb.DBHandle
	admin   access.Actor
	teacher access.Actor
	classID int64
}

func setup(t *testing.T) *fixture {
	t.Helper()
	return setupWith(t, nil)
}

func setupWith(t *testing.T, rankings *cache.Rankings) *fixture {
	t.Helper()
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(h.Close)
	require.NoError(t, db.Seed(ctx, h.DB, db.SeedOptions{AdminPassword: "admin123"}, nil))

	svc := school.New(school.Deps{
		DB:          h.DB,
		Tokens:      auth.NewTokens("test-secret", "test", time.Hour),
		Rankings:    rankings,
		TeacherCode: "PROF2025",
		AdminCode:   "ADMIN2025",
	})

	adminUser, err := db.GetUserByUsername(ctx, h.DB, "admin")
	require.NoError(t, err)
	teacherUser, err := db.GetUserByUsername(ctx, h.DB, "teacher")
	require.NoError(t, err)
	class, err := db.GetClassByName(ctx, h.DB, "12e EXP")
	require.NoError(t, err)

	return &fixture{
		svc:     svc,
		h:       h,
		admin:   access.ActorOf(adminUser),
		teacher: access.ActorOf(teacherUser),
		classID: class.ID,
	}
}

func (f *fixture) student(t *testing.T, username string) access.Actor {
	t.Helper()
	u, err := f.svc.CreateUser(context.Background(), f.admin, school.UserInput{
		Username: username, Password: "secret1", FirstName: username, LastName: "Élève",
		Role: "student", ClassID: &f.classID,
	}, "")
	require.NoError(t, err)
	return access.ActorOf(u)
}

func (f *fixture) grade(t *testing.T, studentID int64, subject string, moyCl, nCompo, coef float64) {
	t.Helper()
	_, err := f.svc.SubmitGrade(context.Background(), f.teacher, school.GradeInput{
		StudentID: studentID, SubjectName: subject, Period: models.Period1, MoyCl: moyCl, NCompo: nCompo, Coef: coef,
	}, "")
	require.NoError(t, err)
}

func TestBulletinEndToEnd(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	alice := f.student(t, "alice")
	bob := f.student(t, "bob")

	f.grade(t, alice.ID, "MATHS", 16, 18, 5)
	f.grade(t, alice.ID, "PHYSIQUE", 17, 18, 3)
	f.grade(t, alice.ID, "DESSIN", 20, 20, 1) // outside the structure
	f.grade(t, bob.ID, "MATHS", 10, 10, 5)

	b, err := f.svc.Bulletin(ctx, alice, alice.ID, models.Period1)
	require.NoError(t, err)

	require.Equal(t, "MATHS", b.Part1.Rows[0].Subject)
	require.Equal(t, 17.33, b.Part1.Rows[0].Average)
	require.False(t, b.Part1.Rows[2].Graded, "CHIMIE has no grade")
	require.Len(t, b.Part2.Rows, 4)
	require.Equal(t, 8.0, b.Summary.TotalCoef)
	require.Equal(t, 17.46, b.Summary.Average)
	require.Equal(t, "Très Bien", b.Appreciation)
	require.Equal(t, 1, b.Rank)
	require.Equal(t, 2, b.RankTotal)
	require.Equal(t, "12e EXP", b.ClassName)
	require.Equal(t, bulletin.DefaultSchoolName, b.SchoolName)

	doc, err := f.svc.BulletinPDF(ctx, f.teacher, alice.ID, models.Period1)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(doc.Body, []byte("%PDF")))
	require.Equal(t, "bulletin_alice_1ère_Période.pdf", doc.Filename)

	_, err = f.svc.Bulletin(ctx, bob, alice.ID, models.Period1)
	require.ErrorIs(t, err, school.ErrForbidden)
}

func TestBulletinWithoutStructureOrClass(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	other, err := db.GetClassByName(ctx, f.h.DB, "11e L")
	require.NoError(t, err)
	u, err := f.svc.CreateUser(ctx, f.admin, school.UserInput{
		Username: "lettres", Password: "secret1", FirstName: "L", LastName: "L", Role: "student", ClassID: &other.ID,
	}, "")
	require.NoError(t, err)
	_, err = f.svc.Bulletin(ctx, f.admin, u.ID, models.Period1)
	require.ErrorIs(t, err, school.ErrNoStructure)

	orphan, err := f.svc.CreateUser(ctx, f.admin, school.UserInput{
		Username: "orphelin", Password: "secret1", FirstName: "O", LastName: "O", Role: "student",
	}, "")
	require.NoError(t, err)
	_, err = f.svc.Bulletin(ctx, f.admin, orphan.ID, models.Period1)
	require.ErrorIs(t, err, school.ErrNoClass)
}

func TestRankingFollowsGradeWrites(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a := f.student(t, "awa")
	b := f.student(t, "binta")
	c := f.student(t, "coumba")
	f.grade(t, a.ID, "MATHS", 12, 12, 4)
	f.grade(t, b.ID, "MATHS", 15, 15, 4)

	ranking, err := f.svc.ClassRanking(ctx, f.teacher, f.classID, models.Period1, grading.RankOptions{})
	require.NoError(t, err)
	require.Len(t, ranking, 3)
	require.Equal(t, b.ID, ranking[0].StudentID)
	require.Equal(t, c.ID, ranking[2].StudentID, "ungraded students rank last")

	f.grade(t, a.ID, "MATHS", 19, 19, 4)
	pos, err := f.svc.StudentRank(ctx, a, a.ID, models.Period1)
	require.NoError(t, err)
	require.Equal(t, 1, pos.Rank)
	require.Equal(t, 3, pos.Total)

	stats, err := f.svc.ClassStats(ctx, f.admin, f.classID, models.Period1)
	require.NoError(t, err)
	require.Equal(t, 2, stats.Graded)
	require.Equal(t, 19.0, stats.Highest)
	require.Equal(t, 15.0, stats.Lowest)
}

func TestParentAccessAndMessaging(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	child := f.student(t, "enfant")
	other := f.student(t, "autre")
	p, err := f.svc.CreateUser(ctx, f.admin, school.UserInput{
		Username: "maman", Password: "secret1", FirstName: "Fatou", LastName: "Traoré", Role: "parent",
	}, "")
	require.NoError(t, err)
	parent := access.ActorOf(p)
	require.NoError(t, f.svc.LinkParent(ctx, f.admin, p.ID, child.ID, ""))

	_, err = f.svc.StudentGrades(ctx, parent, child.ID, "")
	require.NoError(t, err)
	_, err = f.svc.StudentGrades(ctx, parent, other.ID, "")
	require.ErrorIs(t, err, school.ErrForbidden)

	_, err = f.svc.SendMessage(ctx, parent, school.MessageInput{RecipientID: other.ID, Subject: "Salut", Content: "…"}, "")
	require.ErrorIs(t, err, school.ErrForbidden)
	_, err = f.svc.SendMessage(ctx, parent, school.MessageInput{RecipientID: 999999, Subject: "Salut", Content: "…"}, "")
	require.ErrorIs(t, err, school.ErrForbidden, "an unknown recipient must look like a forbidden one")

	m, err := f.svc.SendMessage(ctx, parent, school.MessageInput{RecipientID: f.teacher.ID, Subject: "Rendez-vous", Content: "Bonjour"}, "")
	require.NoError(t, err)

	_, err = f.svc.ReadMessage(ctx, other, m.ID)
	require.ErrorIs(t, err, school.ErrNotFound)
	_, err = f.svc.ReadMessage(ctx, other, m.ID+1000)
	require.ErrorIs(t, err, school.ErrNotFound, "someone else's message and a missing one must look alike")

	read, err := f.svc.ReadMessage(ctx, f.teacher, m.ID)
	require.NoError(t, err)
	require.True(t, read.IsRead)
	unread, err := f.svc.UnreadCount(ctx, f.teacher)
	require.NoError(t, err)
	require.Zero(t, unread)
}

func TestAnnouncementsForParent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	child := f.student(t, "enfant")
	p, err := f.svc.CreateUser(ctx, f.admin, school.UserInput{
		Username: "papa", Password: "secret1", FirstName: "Moussa", LastName: "Keita", Role: "parent",
	}, "")
	require.NoError(t, err)
	require.NoError(t, f.svc.LinkParent(ctx, f.admin, p.ID, child.ID, ""))

	_, err = f.svc.CreateAnnouncement(ctx, f.admin, school.AnnouncementInput{
		Title: "Sortie 12e EXP", Content: "Jeudi", Audience: "class", TargetClassID: &f.classID,
	}, "")
	require.NoError(t, err)
	_, err = f.svc.CreateAnnouncement(ctx, f.admin, school.AnnouncementInput{
		Title: "Réunion des professeurs", Content: "Lundi", Audience: "teachers",
	}, "")
	require.NoError(t, err)

	got, err := f.svc.Announcements(ctx, access.ActorOf(p))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Sortie 12e EXP", got[0].Title)
}

func TestLoginAuditAndConflicts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, school.LoginInput{Username: "admin", Password: "wrong"}, "10.0.0.1")
	require.ErrorIs(t, err, school.ErrUnauthenticated)

	sess, err := f.svc.Login(ctx, school.LoginInput{Username: "admin", Password: "admin123"}, "10.0.0.1")
	require.NoError(t, err)
	u, err := f.svc.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	require.Equal(t, "admin", u.Username)

	page, err := f.svc.AuditLog(ctx, f.admin, 1)
	require.NoError(t, err)
	require.Equal(t, "user_login", page.Entries[0].Action)
	require.Equal(t, "10.0.0.1", page.Entries[0].IPAddress)

	_, err = f.svc.CreateUser(ctx, f.admin, school.UserInput{
		Username: "teacher", Password: "secret1", FirstName: "x", LastName: "y", Role: "teacher",
	}, "")
	var verr *school.ValidationError
	require.ErrorAs(t, err, &verr)
	require.True(t, verr.Conflict)

	err = f.svc.DeleteClass(ctx, f.admin, f.classID, "")
	require.NoError(t, err, "class without students can be deleted")
}

func TestAttendanceSheet(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a := f.student(t, "awa")
	b := f.student(t, "binta")

	n, err := f.svc.SaveAttendance(ctx, f.teacher, f.classID, school.AttendanceSheetInput{
		Date:  "2025-03-03",
		Marks: []school.AttendanceMarkInput{{StudentID: a.ID}, {StudentID: b.ID, Status: "absent"}},
	}, "")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	got, err := f.svc.StudentAttendance(ctx, b, b.ID, school.AttendanceQuery{Month: "2025-03"})
	require.NoError(t, err)
	require.Len(t, got.Records, 1)
	require.Equal(t, 0.0, got.Summary.Rate)

	none, err := f.svc.StudentAttendance(ctx, a, a.ID, school.AttendanceQuery{Month: "2025-04"})
	require.NoError(t, err)
	require.Equal(t, 100.0, none.Summary.Rate)
}
