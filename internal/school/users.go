package school

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Spok95/gestion-scolaire/internal/access"
	"github.com/Spok95/gestion-scolaire/internal/auth"
	"github.com/Spok95/gestion-scolaire/internal/db"
	"github.com/Spok95/gestion-scolaire/internal/models"
)

type UserQuery struct {
	Role            string `json:"role" validate:"omitempty,role"`
	ClassID         *int64 `json:"class_id"`
	Search          string `json:"search" validate:"max=100"`
	IncludeInactive bool   `json:"include_inactive"`
}

func (s *Service) ListUsers(ctx context.Context, a access.Actor, q UserQuery) ([]models.User, error) {
	if err := s.check(ctx, a, access.ViewDirectory, access.Target{}); err != nil {
		return nil, err
	}
	if err := s.valid.Struct(q); err != nil {
		return nil, err
	}
	f := db.UserFilter{ClassID: q.ClassID, Search: strings.TrimSpace(q.Search)}
	if q.Role != "" {
		r, _ := models.ParseRole(q.Role)
		f.Role = &r
	}
	// only admins see deactivated accounts
	f.IncludeInactive = q.IncludeInactive && access.Can(a.Role, access.ManageUsers)
	return db.ListUsers(ctx, s.db, f)
}

func (s *Service) GetUser(ctx context.Context, a access.Actor, id int64) (*models.User, error) {
	if a.ID != id {
		if err := s.check(ctx, a, access.ViewDirectory, access.Target{}); err != nil {
			return nil, err
		}
	}
	u, err := db.GetUserByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return u, nil
}

type UserInput struct {
	Username  string  `json:"username" validate:"notblank,min=3,max=80"`
	Email     string  `json:"email" validate:"omitempty,email"`
	Password  string  `json:"password" validate:"omitempty,min=6"`
	FirstName string  `json:"first_name" validate:"notblank,max=100"`
	LastName  string  `json:"last_name" validate:"notblank,max=100"`
	Role      string  `json:"role" validate:"role"`
	Phone     string  `json:"phone" validate:"max=20"`
	Address   string  `json:"address" validate:"max=255"`
	Matricule *string `json:"matricule"`
	ClassID   *int64  `json:"class_id"`
	IsActive  *bool   `json:"is_active"`
}

func (in UserInput) apply(u *models.User) {
	u.Username = strings.TrimSpace(in.Username)
	u.Email = optional(in.Email)
	u.FirstName = strings.TrimSpace(in.FirstName)
	u.LastName = strings.TrimSpace(in.LastName)
	u.Role, _ = models.ParseRole(in.Role)
	u.Phone = strings.TrimSpace(in.Phone)
	u.Address = strings.TrimSpace(in.Address)
	u.Matricule = in.Matricule
	u.ClassID = in.ClassID
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
}

func (s *Service) CreateUser(ctx context.Context, a access.Actor, in UserInput, ip string) (*models.User, error) {
	if err := s.check(ctx, a, access.ManageUsers, access.Target{}); err != nil {
		return nil, err
	}
	if err := s.valid.Struct(in); err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, invalid("password", "required", "mot de passe requis")
	}
	u := &models.User{IsActive: true}
	in.apply(u)
	if err := s.createUser(ctx, u, in.Password); err != nil {
		return nil, err
	}
	s.audit(ctx, a, "user_create", "user", u.ID, u.Username, ip)
	return u, nil
}

// UpdateUser replaces a user's profile. Role changes are taken as given;
// links to parents, children or subjects are left untouched.
func (s *Service) UpdateUser(ctx context.Context, a access.Actor, id int64, in UserInput, ip string) (*models.User, error) {
	if err := s.check(ctx, a, access.ManageUsers, access.Target{}); err != nil {
		return nil, err
	}
	if err := s.valid.Struct(in); err != nil {
		return nil, err
	}
	u, err := db.GetUserByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	oldClass, wasActive, oldName := u.ClassID, u.IsActive, u.DisplayName()
	in.apply(u)
	if err := s.checkUnique(ctx, u, id); err != nil {
		return nil, err
	}
	if err := s.checkClassRef(ctx, u); err != nil {
		return nil, err
	}
	// profile and password land in the same UPDATE
	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}
	if err := db.UpdateUser(ctx, s.db, u); err != nil {
		return nil, mapUserWriteErr(notFoundIfMissing(err, "user", id))
	}
	switch {
	case !sameClass(oldClass, u.ClassID):
		s.invalidateRanking(ctx, oldClass)
		s.invalidateRanking(ctx, u.ClassID)
	case wasActive != u.IsActive, oldName != u.DisplayName():
		// cached entries carry the display name
		s.invalidateRanking(ctx, u.ClassID)
	}
	s.audit(ctx, a, "user_update", "user", id, u.Username, ip)
	return u, nil
}

func (s *Service) DeleteUser(ctx context.Context, a access.Actor, id int64, ip string) error {
	if err := s.check(ctx, a, access.ManageUsers, access.Target{}); err != nil {
		return err
	}
	if id == a.ID {
		return invalid("id", "self", "vous ne pouvez pas supprimer votre propre compte")
	}
	u, err := db.GetUserByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err := db.DeleteUser(ctx, s.db, id); err != nil {
		return notFoundIfMissing(err, "user", id)
	}
	s.invalidateRanking(ctx, u.ClassID)
	s.audit(ctx, a, "user_delete", "user", id, u.Username, ip)
	return nil
}

func (s *Service) LinkParent(ctx context.Context, a access.Actor, parentID, studentID int64, ip string) error {
	if err := s.check(ctx, a, access.ManageUsers, access.Target{}); err != nil {
		return err
	}
	parent, err := db.GetUserByID(ctx, s.db, parentID)
	if err != nil {
		return err
	}
	if parent == nil || parent.Role != models.Parent {
		return invalid("parent_id", "not_parent", "ce compte n'est pas un parent")
	}
	if _, err := s.student(ctx, studentID); errors.Is(err, ErrNotFound) {
		return invalid("student_id", "not_student", "ce compte n'est pas un élève")
	} else if err != nil {
		return err
	}
	if err := db.LinkParentChild(ctx, s.db, parentID, studentID); err != nil {
		return err
	}
	s.audit(ctx, a, "parent_link", "user", studentID, fmt.Sprintf("parent=%d", parentID), ip)
	return nil
}

func (s *Service) UnlinkParent(ctx context.Context, a access.Actor, parentID, studentID int64, ip string) error {
	if err := s.check(ctx, a, access.ManageUsers, access.Target{}); err != nil {
		return err
	}
	if err := db.UnlinkParentChild(ctx, s.db, parentID, studentID); err != nil {
		return notFoundIfMissing(err, "parent link", studentID)
	}
	s.audit(ctx, a, "parent_unlink", "user", studentID, fmt.Sprintf("parent=%d", parentID), ip)
	return nil
}

// Children lists a parent's linked students. Parents see their own; staff
// with directory access see anyone's.
func (s *Service) Children(ctx context.Context, a access.Actor, parentID int64) ([]models.User, error) {
	if !(a.Role == models.Parent && a.ID == parentID && a.IsActive) {
		if err := s.check(ctx, a, access.ViewDirectory, access.Target{}); err != nil {
			return nil, err
		}
	}
	return db.ListChildrenForParent(ctx, s.db, parentID)
}

func (s *Service) Parents(ctx context.Context, a access.Actor, studentID int64) ([]models.User, error) {
	if err := s.check(ctx, a, access.ViewStudentRecords, access.Target{StudentID: studentID}); err != nil {
		return nil, err
	}
	return db.ListParentsForStudent(ctx, s.db, studentID)
}

type TeacherSubjectsInput struct {
	SubjectIDs []int64 `json:"subject_ids" validate:"dive,gt=0"`
}

func (s *Service) SetTeacherSubjects(ctx context.Context, a access.Actor, teacherID int64, in TeacherSubjectsInput, ip string) ([]models.Subject, error) {
	if err := s.check(ctx, a, access.ManageUsers, access.Target{}); err != nil {
		return nil, err
	}
	if err := s.valid.Struct(in); err != nil {
		return nil, err
	}
	t, err := db.GetUserByID(ctx, s.db, teacherID)
	if err != nil {
		return nil, err
	}
	if t == nil || t.Role != models.Teacher {
		return nil, invalid("teacher_id", "not_teacher", "ce compte n'est pas un professeur")
	}
	if err := db.SetTeacherSubjects(ctx, s.db, teacherID, in.SubjectIDs); err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, invalid("subject_ids", "unknown", "matière inconnue")
		}
		return nil, err
	}
	s.audit(ctx, a, "teacher_subjects", "user", teacherID, "", ip)
	return db.ListTeacherSubjects(ctx, s.db, teacherID)
}

func (s *Service) TeacherSubjects(ctx context.Context, a access.Actor, teacherID int64) ([]models.Subject, error) {
	if err := s.check(ctx, a, access.ViewCatalog, access.Target{}); err != nil {
		return nil, err
	}
	return db.ListTeacherSubjects(ctx, s.db, teacherID)
}

func sameClass(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
