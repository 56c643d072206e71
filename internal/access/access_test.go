package access

import (
	"context"
	"errors"
	"testing"

	"github.com/Spok95/gestion-scolaire/internal/models"
)

type fakeRelations struct {
	links map[[2]int64]bool
	calls int
	err   error
}

func (f *fakeRelations) IsParentOf(_ context.Context, parentID, studentID int64) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.links[[2]int64{parentID, studentID}], nil
}

func actor(id int64, role models.Role) Actor {
	return Actor{ID: id, Role: role, IsActive: true}
}

func TestGate_RoleCapabilities(t *testing.T) {
	g := NewGate(&fakeRelations{})
	ctx := context.Background()

	cases := []struct {
		role models.Role
		cap  Capability
		ok   bool
	}{
		{models.Admin, ManageUsers, true},
		{models.Admin, ViewAuditLog, true},
		{models.Teacher, WriteGrades, true},
		{models.Teacher, RecordAttendance, true},
		{models.Teacher, ManageUsers, false},
		{models.Teacher, ViewAuditLog, false},
		{models.Student, WriteGrades, false},
		{models.Parent, RecordAttendance, false},
		{models.Student, ViewCatalog, true},
		{models.Parent, ManageAnnouncements, false},
	}
	for _, c := range cases {
		err := g.Check(ctx, actor(1, c.role), c.cap, Target{})
		if c.ok && err != nil {
			t.Errorf("%s %s: unexpected %v", c.role, c.cap, err)
		}
		if !c.ok && !errors.Is(err, ErrForbidden) {
			t.Errorf("%s %s: want forbidden, got %v", c.role, c.cap, err)
		}
	}
}

func TestGate_StudentSeesOnlySelf(t *testing.T) {
	g := NewGate(nil)
	ctx := context.Background()
	if err := g.Check(ctx, actor(5, models.Student), ViewStudentRecords, Target{StudentID: 5}); err != nil {
		t.Fatalf("own records: %v", err)
	}
	if err := g.Check(ctx, actor(5, models.Student), ViewStudentRecords, Target{StudentID: 6}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("other student: want forbidden, got %v", err)
	}
}

func TestGate_ParentChecksLinkEveryTime(t *testing.T) {
	rel := &fakeRelations{links: map[[2]int64]bool{{9, 5}: true}}
	g := NewGate(rel)
	ctx := context.Background()

	if err := g.Check(ctx, actor(9, models.Parent), ViewStudentRecords, Target{StudentID: 5}); err != nil {
		t.Fatalf("own child: %v", err)
	}
	if err := g.Check(ctx, actor(9, models.Parent), ViewStudentRecords, Target{StudentID: 6}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("other child: want forbidden, got %v", err)
	}

	delete(rel.links, [2]int64{9, 5})
	if err := g.Check(ctx, actor(9, models.Parent), ViewStudentRecords, Target{StudentID: 5}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("unlinked child: want forbidden, got %v", err)
	}
	if rel.calls != 3 {
		t.Fatalf("relations consulted %d times, want 3", rel.calls)
	}
}

func TestGate_RelationErrorIsNotForbidden(t *testing.T) {
	boom := errors.New("db down")
	g := NewGate(&fakeRelations{err: boom})
	err := g.Check(context.Background(), actor(9, models.Parent), ViewStudentRecords, Target{StudentID: 5})
	if !errors.Is(err, boom) || errors.Is(err, ErrForbidden) {
		t.Fatalf("want wrapped store error, got %v", err)
	}
}

func TestGate_ParentMessaging(t *testing.T) {
	g := NewGate(nil)
	ctx := context.Background()
	p := actor(9, models.Parent)
	if err := g.Check(ctx, p, SendMessage, Target{RecipientRole: models.Teacher}); err != nil {
		t.Fatalf("parent to teacher: %v", err)
	}
	if err := g.Check(ctx, p, SendMessage, Target{RecipientRole: models.Student}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("parent to student: want forbidden, got %v", err)
	}
	if err := g.Check(ctx, actor(5, models.Student), SendMessage, Target{RecipientRole: models.Student}); err != nil {
		t.Fatalf("student to student: %v", err)
	}
}

func TestGate_ReadMessageParticipantsOnly(t *testing.T) {
	g := NewGate(nil)
	ctx := context.Background()
	tg := Target{Participants: []int64{1, 2}}
	if err := g.Check(ctx, actor(2, models.Student), ReadMessage, tg); err != nil {
		t.Fatalf("recipient: %v", err)
	}
	if err := g.Check(ctx, actor(3, models.Admin), ReadMessage, tg); !errors.Is(err, ErrForbidden) {
		t.Fatalf("outsider admin: want forbidden, got %v", err)
	}
}

func TestGate_InactiveOrUnknownRole(t *testing.T) {
	g := NewGate(nil)
	ctx := context.Background()
	inactive := Actor{ID: 1, Role: models.Admin}
	if err := g.Check(ctx, inactive, ViewCatalog, Target{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("inactive: want forbidden, got %v", err)
	}
	bogus := Actor{ID: 1, Role: models.Role("root"), IsActive: true}
	if err := g.Check(ctx, bogus, ViewCatalog, Target{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("unknown role: want forbidden, got %v", err)
	}
}
