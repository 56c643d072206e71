package school

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Spok95/gestion-scolaire/internal/access"
	"github.com/Spok95/gestion-scolaire/internal/auth"
	"github.com/Spok95/gestion-scolaire/internal/models"
)

// newTestService has no store: every call exercised here must fail before
// reaching it.
func newTestService() *Service {
	return New(Deps{
		Tokens:      auth.NewTokens("secret", "test", 0),
		TeacherCode: "PROF2025",
		AdminCode:   "ADMIN2025",
	})
}

func actor(id int64, role models.Role) access.Actor {
	return access.Actor{ID: id, Role: role, IsActive: true}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
	out := make(map[string]string, len(verr.Fields))
	for _, f := range verr.Fields {
		out[f.Field] = f.Reason
	}
	return out
}

func TestGradeInputValidation(t *testing.T) {
	v := newValidator()

	require.NoError(t, v.Struct(GradeInput{StudentID: 1, SubjectName: "MATHS", Period: models.Period1, MoyCl: 0, NCompo: 20, Coef: 1}))

	err := v.Struct(GradeInput{StudentID: 0, SubjectName: "  ", Period: "", MoyCl: 21, NCompo: -1, Coef: 0.5})
	fields := fieldsOf(t, err)
	require.Equal(t, "required", fields["student_id"])
	require.Equal(t, "notblank", fields["subject_name"])
	require.Equal(t, "notblank", fields["period"])
	require.Equal(t, "lte", fields["moy_cl"])
	require.Equal(t, "gte", fields["n_compo"])
	require.Equal(t, "gte", fields["coef"])

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.False(t, verr.Conflict)
	for _, f := range verr.Fields {
		require.NotEmpty(t, f.Message, "field %s has no translated message", f.Field)
	}
}

func TestCoefficientsMustBeWhole(t *testing.T) {
	v := newValidator()

	require.NoError(t, v.Struct(GradeInput{StudentID: 1, SubjectName: "MATHS", Period: models.Period1, NCompo: 12, Coef: 4}))
	fields := fieldsOf(t, v.Struct(GradeInput{StudentID: 1, SubjectName: "MATHS", Period: models.Period1, NCompo: 12, Coef: 1.5}))
	require.Equal(t, "wholenum", fields["coef"])

	require.NoError(t, v.Struct(SubjectInput{Name: "PHYSIQUE", Code: "PC", DefaultCoef: 3}))
	fields = fieldsOf(t, v.Struct(SubjectInput{Name: "PHYSIQUE", Code: "PC", DefaultCoef: 2.25}))
	require.Equal(t, "wholenum", fields["default_coef"])
}

func TestRegisterInputValidation(t *testing.T) {
	v := newValidator()
	fields := fieldsOf(t, v.Struct(RegisterInput{
		Username: "ab", Email: "pas-un-email", Password: "12345", ConfirmPassword: "different",
		FirstName: "A", LastName: "B", Role: "director",
	}))
	require.Equal(t, "min", fields["username"])
	require.Equal(t, "email", fields["email"])
	require.Equal(t, "min", fields["password"])
	require.Equal(t, "eqfield", fields["confirm_password"])
	require.Equal(t, "role", fields["role"])
}

func TestAttendanceAndAnnouncementValidation(t *testing.T) {
	v := newValidator()

	fields := fieldsOf(t, v.Struct(AttendanceSheetInput{
		Date:  "03/03/2025",
		Marks: []AttendanceMarkInput{{StudentID: 1, Status: "sick"}},
	}))
	require.Equal(t, "datetime", fields["date"])
	require.Equal(t, "attendance_status", fields["marks[0].status"])

	require.NoError(t, v.Struct(AttendanceSheetInput{
		Date:  "2025-03-03",
		Marks: []AttendanceMarkInput{{StudentID: 1}, {StudentID: 2, Status: "late"}},
	}))

	fields = fieldsOf(t, v.Struct(AnnouncementInput{Title: "x", Content: "y", Audience: "class"}))
	require.Equal(t, "required_if", fields["target_class_id"])

	fields = fieldsOf(t, v.Struct(AnnouncementInput{Title: "x", Content: "y", Audience: "everyone", Priority: "asap"}))
	require.Equal(t, "oneof", fields["audience"])
	require.Equal(t, "oneof", fields["priority"])
}

func TestRegisterRequiresCodesAndClass(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	base := RegisterInput{
		Username: "nouveau", Password: "secret1", ConfirmPassword: "secret1",
		FirstName: "Awa", LastName: "Diallo",
	}

	teacher := base
	teacher.Role, teacher.RegistrationKey = "teacher", "WRONG"
	_, err := s.Register(ctx, teacher, "")
	require.Equal(t, "invalid_code", fieldsOf(t, err)["registration_code"])

	admin := base
	admin.Role, admin.RegistrationKey = "admin", "PROF2025"
	_, err = s.Register(ctx, admin, "")
	require.Equal(t, "invalid_code", fieldsOf(t, err)["registration_code"])

	student := base
	student.Role = "student"
	_, err = s.Register(ctx, student, "")
	require.Equal(t, "required", fieldsOf(t, err)["class_id"])
}

func TestRegisterClosedWithoutCodes(t *testing.T) {
	s := New(Deps{Tokens: auth.NewTokens("secret", "test", 0)})
	ctx := context.Background()
	for _, role := range []string{"teacher", "admin"} {
		t.Run(role, func(t *testing.T) {
			_, err := s.Register(ctx, RegisterInput{
				Username: "nouveau", Password: "secret1", ConfirmPassword: "secret1",
				FirstName: "Awa", LastName: "Diallo", Role: role,
			}, "")
			require.Equal(t, "invalid_code", fieldsOf(t, err)["registration_code"])
		})
	}
	require.False(t, codeMatches("", ""))
	require.False(t, codeMatches("PROF2025", "prof2025"))
	require.True(t, codeMatches("PROF2025", "PROF2025"))
}

func TestSubmitGradeKeepsStoreErrors(t *testing.T) {
	conn, err := sql.Open("pgx", "postgres://nobody@127.0.0.1:1/none")
	require.NoError(t, err)
	require.NoError(t, conn.Close())
	s := New(Deps{DB: conn, Tokens: auth.NewTokens("secret", "test", 0)})

	_, err = s.SubmitGrade(context.Background(), actor(20, models.Teacher),
		GradeInput{StudentID: 10, SubjectName: "MATHS", Period: models.Period1, NCompo: 12, Coef: 1}, "")
	require.Error(t, err)
	var verr *ValidationError
	require.False(t, errors.As(err, &verr), "store failure reported as bad input: %v", err)
}

func TestGateRunsBeforeStore(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	student := actor(10, models.Student)
	teacher := actor(20, models.Teacher)
	inactiveAdmin := access.Actor{ID: 1, Role: models.Admin}

	calls := []struct {
		name string
		err  func() error
	}{
		{"student creates class", func() error { _, err := s.CreateClass(ctx, student, ClassInput{Name: "10e"}, ""); return err }},
		{"student submits grade", func() error {
			_, err := s.SubmitGrade(ctx, student, GradeInput{StudentID: 10, SubjectName: "MATHS", Period: models.Period1, Coef: 1}, "")
			return err
		}},
		{"teacher manages users", func() error { _, err := s.CreateUser(ctx, teacher, UserInput{}, ""); return err }},
		{"teacher reads audit log", func() error { _, err := s.AuditLog(ctx, teacher, 1); return err }},
		{"teacher exports", func() error { _, err := s.ExportUsers(ctx, teacher, false); return err }},
		{"teacher publishes", func() error { _, err := s.CreateAnnouncement(ctx, teacher, AnnouncementInput{}, ""); return err }},
		{"student views another student", func() error { _, err := s.StudentGrades(ctx, student, 11, ""); return err }},
		{"student opens class report", func() error { _, err := s.ClassReportPDF(ctx, student, 1, models.Period1); return err }},
		{"inactive admin", func() error { _, err := s.ListClasses(ctx, inactiveAdmin); return err }},
		{"inactive inbox", func() error { _, err := s.Inbox(ctx, inactiveAdmin); return err }},
	}
	for _, c := range calls {
		t.Run(c.name, func(t *testing.T) {
			require.ErrorIs(t, c.err(), ErrForbidden)
		})
	}
}

func TestDeleteSelfRejected(t *testing.T) {
	s := newTestService()
	err := s.DeleteUser(context.Background(), actor(1, models.Admin), 1, "")
	require.Equal(t, "self", fieldsOf(t, err)["id"])
}

func TestBulletinRequiresPeriod(t *testing.T) {
	s := newTestService()
	// a student asking for their own bulletin passes the gate, then fails on input
	_, err := s.Bulletin(context.Background(), actor(10, models.Student), 10, " ")
	require.Equal(t, "required", fieldsOf(t, err)["period"])
}

func TestSummarize(t *testing.T) {
	grades := []models.Grade{
		{SubjectName: "MATHS", Average: 17.33, Coef: 5},
		{SubjectName: "PHYSIQUE", Average: 17.67, Coef: 3},
	}
	sum := summarize(grades)
	require.Equal(t, 8.0, sum.TotalCoef)
	require.Equal(t, 17.46, sum.Average)
	require.Equal(t, "Très Bien", sum.Appreciation())

	empty := summarize(nil)
	require.Equal(t, 0.0, empty.Average)
	require.Equal(t, "-", empty.Appreciation())
}

func TestAudienceOf(t *testing.T) {
	require.Equal(t, models.AudienceStudents, audienceOf(models.Student))
	require.Equal(t, models.AudienceTeachers, audienceOf(models.Teacher))
	require.Equal(t, models.AudienceParents, audienceOf(models.Parent))
	require.Equal(t, models.AudienceAll, audienceOf(models.Admin))
}

func TestValidationErrorMessage(t *testing.T) {
	err := conflict("username", "ce nom d'utilisateur existe déjà")
	require.True(t, err.Conflict)
	require.Contains(t, err.Error(), "username")
}
