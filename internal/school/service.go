// Package school holds the application's use cases. Every operation
// validates its input, asks the access gate, and only then touches the
// store.
package school

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/gestion-scolaire/internal/access"
	"github.com/Spok95/gestion-scolaire/internal/auth"
	"github.com/Spok95/gestion-scolaire/internal/bulletin"
	"github.com/Spok95/gestion-scolaire/internal/cache"
	"github.com/Spok95/gestion-scolaire/internal/ctxutil"
	"github.com/Spok95/gestion-scolaire/internal/db"
	"github.com/Spok95/gestion-scolaire/internal/models"
	"github.com/Spok95/gestion-scolaire/internal/notify"
	"github.com/Spok95/gestion-scolaire/internal/observability"
)

type Deps struct {
	DB       *sql.DB
	Tokens   *auth.Tokens
	Rankings *cache.Rankings
	Notifier notify.Notifier
	Log      *zap.Logger
	School   bulletin.School
	Location *time.Location

	TeacherCode string
	AdminCode   string
}

type Service struct {
	db       *sql.DB
	gate     *access.Gate
	tokens   *auth.Tokens
	rankings *cache.Rankings
	notifier notify.Notifier
	log      *zap.Logger
	school   bulletin.School
	loc      *time.Location
	valid    *inputValidator
	now      func() time.Time

	teacherCode string
	adminCode   string
}

func New(d Deps) *Service {
	s := &Service{
		db:          d.DB,
		gate:        access.NewGate(db.Relations{DB: d.DB}),
		tokens:      d.Tokens,
		rankings:    d.Rankings,
		notifier:    d.Notifier,
		log:         d.Log,
		school:      d.School,
		loc:         d.Location,
		valid:       newValidator(),
		now:         time.Now,
		teacherCode: d.TeacherCode,
		adminCode:   d.AdminCode,
	}
	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	return s
}

func (s *Service) check(ctx context.Context, a access.Actor, c access.Capability, t access.Target) error {
	return s.gate.Check(ctx, a, c, t)
}

// audit appends to the audit log. A failed append is logged and reported
// but never fails the operation that triggered it.
func (s *Service) audit(ctx context.Context, a access.Actor, action, entity string, entityID int64, details, ip string) {
	e := models.AuditEntry{Action: action, EntityType: entity, Details: details, IPAddress: ip}
	if a.ID != 0 {
		id := a.ID
		e.UserID = &id
	}
	if entityID != 0 {
		e.EntityID = &entityID
	}
	if err := db.AppendAudit(ctx, s.db, e); err != nil {
		s.log.Warn("audit append failed", zap.String("action", action), zap.Error(err))
		observability.CaptureErrCtx(ctx, err)
	}
}

// invalidateRanking drops every cached ranking of a class after a write.
// Failures only cost a recomputation later, but a stale entry would be
// served, so they are reported.
func (s *Service) invalidateRanking(ctx context.Context, classID *int64) {
	if classID == nil || s.rankings == nil {
		return
	}
	if err := s.rankings.InvalidateClass(ctx, *classID); err != nil {
		s.log.Error("ranking cache invalidation failed", zap.Int64("class_id", *classID), zap.Error(err))
		observability.CaptureErrCtx(ctx, err)
	}
}

func (s *Service) student(ctx context.Context, id int64) (*models.User, error) {
	u, err := db.GetUserByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if u == nil || u.Role != models.Student {
		return nil, fmt.Errorf("student %d: %w", id, ErrNotFound)
	}
	return u, nil
}

func (s *Service) class(ctx context.Context, id int64) (*models.SchoolClass, error) {
	c, err := db.GetClassByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("class %d: %w", id, ErrNotFound)
	}
	return c, nil
}

// notFoundIfMissing maps a zero-row update or delete to ErrNotFound.
func notFoundIfMissing(err error, what string, id int64) error {
	if errors.Is(err, db.ErrNoRowsAffected) {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return err
}

func withOp(ctx context.Context, op string) context.Context {
	return ctxutil.WithOp(ctx, op)
}
