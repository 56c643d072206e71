package school

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/gestion-scolaire/internal/access"
	"github.com/Spok95/gestion-scolaire/internal/auth"
	"github.com/Spok95/gestion-scolaire/internal/db"
	"github.com/Spok95/gestion-scolaire/internal/models"
)

type LoginInput struct {
	Username string `json:"username" validate:"notblank"`
	Password string `json:"password" validate:"required"`
}

type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Login checks credentials and issues an access token. Unknown usernames,
// wrong passwords and deactivated accounts all fail the same way.
func (s *Service) Login(ctx context.Context, in LoginInput, ip string) (*Session, error) {
	if err := s.valid.Struct(in); err != nil {
		return nil, err
	}
	u, err := db.GetUserByUsername(ctx, s.db, strings.TrimSpace(in.Username))
	if err != nil {
		return nil, err
	}
	if u == nil || !u.IsActive || auth.CheckPassword(u.PasswordHash, in.Password) != nil {
		return nil, ErrUnauthenticated
	}

	now := s.now()
	if err := db.TouchLastLogin(ctx, s.db, u.ID, now); err != nil {
		return nil, err
	}
	u.LastLogin = &now

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	s.audit(ctx, access.ActorOf(u), "user_login", "user", u.ID, "", ip)
	s.log.Info("user logged in", zap.Int64("user_id", u.ID), zap.String("role", string(u.Role)))
	return &Session{Token: token, ExpiresAt: now.Add(s.tokens.TTL()), User: u}, nil
}

// Logout only records the event; tokens are stateless and expire on their own.
func (s *Service) Logout(ctx context.Context, a access.Actor, ip string) {
	s.audit(ctx, a, "user_logout", "user", a.ID, "", ip)
}

// Authenticate resolves a bearer token to the current state of its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	u, err := db.GetUserByID(ctx, s.db, claims.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.IsActive {
		return nil, ErrUnauthenticated
	}
	return u, nil
}

type RegisterInput struct {
	Username        string  `json:"username" validate:"notblank,min=3,max=80"`
	Email           string  `json:"email" validate:"omitempty,email"`
	Password        string  `json:"password" validate:"required,min=6"`
	ConfirmPassword string  `json:"confirm_password" validate:"eqfield=Password"`
	FirstName       string  `json:"first_name" validate:"notblank,max=100"`
	LastName        string  `json:"last_name" validate:"notblank,max=100"`
	Role            string  `json:"role" validate:"role"`
	Phone           string  `json:"phone" validate:"max=20"`
	ClassID         *int64  `json:"class_id"`
	RegistrationKey string  `json:"registration_code"`
	Matricule       *string `json:"matricule"`
}

// codeMatches reports whether got is the configured code. An unset code
// closes registration for that role.
func codeMatches(want, got string) bool {
	return want != "" && subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

// Register is self-service sign-up. Staff roles need the matching
// registration code; students must pick a class.
func (s *Service) Register(ctx context.Context, in RegisterInput, ip string) (*models.User, error) {
	if err := s.valid.Struct(in); err != nil {
		return nil, err
	}
	role, _ := models.ParseRole(in.Role)
	switch role {
	case models.Teacher:
		if !codeMatches(s.teacherCode, in.RegistrationKey) {
			return nil, invalid("registration_code", "invalid_code", "code d'inscription professeur invalide")
		}
	case models.Admin:
		if !codeMatches(s.adminCode, in.RegistrationKey) {
			return nil, invalid("registration_code", "invalid_code", "code d'inscription administrateur invalide")
		}
	case models.Student:
		if in.ClassID == nil {
			return nil, invalid("class_id", "required", "les élèves doivent choisir une classe")
		}
	}

	u := &models.User{
		Username:  strings.TrimSpace(in.Username),
		Email:     optional(in.Email),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Role:      role,
		Phone:     strings.TrimSpace(in.Phone),
		Matricule: in.Matricule,
		IsActive:  true,
	}
	if role == models.Student {
		u.ClassID = in.ClassID
	}
	if err := s.createUser(ctx, u, in.Password); err != nil {
		return nil, err
	}
	s.audit(ctx, access.ActorOf(u), "user_register", "user", u.ID, string(role), ip)
	return u, nil
}

// createUser enforces uniqueness and the class reference, then inserts.
func (s *Service) createUser(ctx context.Context, u *models.User, password string) error {
	if err := s.checkUnique(ctx, u, 0); err != nil {
		return err
	}
	if err := s.checkClassRef(ctx, u); err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	id, err := db.CreateUser(ctx, s.db, u)
	if err != nil {
		return mapUserWriteErr(err)
	}
	u.ID = id
	s.invalidateRanking(ctx, u.ClassID)
	return nil
}

func (s *Service) checkUnique(ctx context.Context, u *models.User, exceptID int64) error {
	taken, err := db.UsernameTaken(ctx, s.db, u.Username, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return conflict("username", "ce nom d'utilisateur existe déjà")
	}
	if u.Email != nil {
		taken, err := db.EmailTaken(ctx, s.db, *u.Email, exceptID)
		if err != nil {
			return err
		}
		if taken {
			return conflict("email", "cet email est déjà utilisé")
		}
	}
	return nil
}

func (s *Service) checkClassRef(ctx context.Context, u *models.User) error {
	if u.Role != models.Student {
		u.ClassID = nil
		return nil
	}
	if u.ClassID == nil {
		return nil
	}
	c, err := db.GetClassByID(ctx, s.db, *u.ClassID)
	if err != nil {
		return err
	}
	if c == nil {
		return invalid("class_id", "unknown", "classe inconnue")
	}
	return nil
}

// mapUserWriteErr turns a race on the unique indexes into the same conflict
// the pre-checks report.
func mapUserWriteErr(err error) error {
	constraint, ok := db.IsUniqueViolation(err)
	if !ok {
		return err
	}
	if strings.Contains(constraint, "email") {
		return conflict("email", "cet email est déjà utilisé")
	}
	return conflict("username", "ce nom d'utilisateur existe déjà")
}

type ProfileInput struct {
	FirstName string `json:"first_name" validate:"notblank,max=100"`
	LastName  string `json:"last_name" validate:"notblank,max=100"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"max=20"`
	Address   string `json:"address" validate:"max=255"`
}

func (s *Service) Profile(ctx context.Context, a access.Actor) (*models.User, error) {
	u, err := db.GetUserByID(ctx, s.db, a.ID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUnauthenticated
	}
	return u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, a access.Actor, in ProfileInput) (*models.User, error) {
	if err := s.valid.Struct(in); err != nil {
		return nil, err
	}
	u, err := s.Profile(ctx, a)
	if err != nil {
		return nil, err
	}
	oldName := u.DisplayName()
	u.FirstName = strings.TrimSpace(in.FirstName)
	u.LastName = strings.TrimSpace(in.LastName)
	u.Email = optional(in.Email)
	u.Phone = strings.TrimSpace(in.Phone)
	u.Address = strings.TrimSpace(in.Address)
	if err := s.checkUnique(ctx, u, u.ID); err != nil {
		return nil, err
	}
	if err := db.UpdateUser(ctx, s.db, u); err != nil {
		return nil, mapUserWriteErr(err)
	}
	if oldName != u.DisplayName() {
		s.invalidateRanking(ctx, u.ClassID)
	}
	return u, nil
}

type PasswordInput struct {
	Current         string `json:"current_password" validate:"required"`
	New             string `json:"new_password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=New"`
}

func (s *Service) ChangePassword(ctx context.Context, a access.Actor, in PasswordInput, ip string) error {
	if err := s.valid.Struct(in); err != nil {
		return err
	}
	u, err := s.Profile(ctx, a)
	if err != nil {
		return err
	}
	if auth.CheckPassword(u.PasswordHash, in.Current) != nil {
		return invalid("current_password", "mismatch", "mot de passe actuel incorrect")
	}
	hash, err := auth.HashPassword(in.New)
	if err != nil {
		return err
	}
	if err := db.UpdatePassword(ctx, s.db, u.ID, hash); err != nil {
		return err
	}
	s.audit(ctx, a, "password_change", "user", u.ID, "", ip)
	return nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
