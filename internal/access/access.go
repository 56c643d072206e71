// Package access decides whether an actor may perform an operation. Every
// check happens before the operation touches the store.
package access

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/Spok95/gestion-scolaire/internal/models"
)

var ErrForbidden = errors.New("forbidden")

type Capability int

const (
	ViewCatalog Capability = iota + 1
	ManageCatalog
	ViewDirectory
	ManageUsers
	ViewClassRecords
	WriteGrades
	RecordAttendance
	ViewStudentRecords
	ManageAnnouncements
	ViewAuditLog
	ExportData
	SendMessage
	ReadMessage
)

var capabilityNames = map[Capability]string{
	ViewCatalog:         "view_catalog",
	ManageCatalog:       "manage_catalog",
	ViewDirectory:       "view_directory",
	ManageUsers:         "manage_users",
	ViewClassRecords:    "view_class_records",
	WriteGrades:         "write_grades",
	RecordAttendance:    "record_attendance",
	ViewStudentRecords:  "view_student_records",
	ManageAnnouncements: "manage_announcements",
	ViewAuditLog:        "view_audit_log",
	ExportData:          "export_data",
	SendMessage:         "send_message",
	ReadMessage:         "read_message",
}

func (c Capability) String() string {
	if s, ok := capabilityNames[c]; ok {
		return s
	}
	return fmt.Sprintf("capability(%d)", int(c))
}

// roleGrants lists the capabilities a role holds without any relationship
// check.
var roleGrants = map[models.Role][]Capability{
	models.Admin: {
		ViewCatalog, ManageCatalog, ViewDirectory, ManageUsers, ViewClassRecords,
		WriteGrades, RecordAttendance, ViewStudentRecords, ManageAnnouncements,
		ViewAuditLog, ExportData, SendMessage,
	},
	models.Teacher: {
		ViewCatalog, ViewDirectory, ViewClassRecords, WriteGrades,
		RecordAttendance, ViewStudentRecords, SendMessage,
	},
	models.Student: {ViewCatalog, SendMessage},
	models.Parent:  {ViewCatalog, SendMessage},
}

// Actor is the authenticated caller, loaded from the store per request.
type Actor struct {
	ID       int64
	Role     models.Role
	ClassID  *int64
	IsActive bool
}

func ActorOf(u *models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role, ClassID: u.ClassID, IsActive: u.IsActive}
}

// Target narrows a check to a record. Only the fields relevant to the
// capability are read.
type Target struct {
	StudentID     int64
	RecipientRole models.Role
	Participants  []int64
}

// Relations answers relationship questions from persisted state.
type Relations interface {
	IsParentOf(ctx context.Context, parentID, studentID int64) (bool, error)
}

type Gate struct {
	rel Relations
}

func NewGate(rel Relations) *Gate { return &Gate{rel: rel} }

// Can reports whether the role holds cap outright.
func Can(role models.Role, c Capability) bool {
	return slices.Contains(roleGrants[role], c)
}

// Check returns nil when the actor may perform c on t, ErrForbidden when
// not, or a store error when a relationship could not be resolved.
func (g *Gate) Check(ctx context.Context, a Actor, c Capability, t Target) error {
	if !a.Role.Valid() || !a.IsActive {
		return forbidden(a, c)
	}

	switch c {
	case ViewStudentRecords:
		if Can(a.Role, c) {
			return nil
		}
		switch a.Role {
		case models.Student:
			if t.StudentID != 0 && t.StudentID == a.ID {
				return nil
			}
		case models.Parent:
			if t.StudentID == 0 || g.rel == nil {
				break
			}
			ok, err := g.rel.IsParentOf(ctx, a.ID, t.StudentID)
			if err != nil {
				return fmt.Errorf("check parent link: %w", err)
			}
			if ok {
				return nil
			}
		}
		return forbidden(a, c)

	case SendMessage:
		if !Can(a.Role, c) {
			return forbidden(a, c)
		}
		if a.Role == models.Parent && t.RecipientRole != models.Teacher && t.RecipientRole != models.Admin {
			return forbidden(a, c)
		}
		return nil

	case ReadMessage:
		if slices.Contains(t.Participants, a.ID) {
			return nil
		}
		return forbidden(a, c)
	}

	if Can(a.Role, c) {
		return nil
	}
	return forbidden(a, c)
}

func forbidden(a Actor, c Capability) error {
	return fmt.Errorf("%w: %s may not %s", ErrForbidden, a.Role, c)
}
