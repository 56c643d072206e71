package school

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/gestion-scolaire/internal/access"
	"github.com/Spok95/gestion-scolaire/internal/db"
	"github.com/Spok95/gestion-scolaire/internal/models"
	"github.com/Spok95/gestion-scolaire/internal/observability"
)

const announcementsLimit = 50

type AnnouncementInput struct {
	Title         string     `json:"title" validate:"notblank,max=200"`
	Content       string     `json:"content" validate:"notblank"`
	Audience      string     `json:"audience" validate:"required,oneof=all students teachers parents class"`
	TargetClassID *int64     `json:"target_class_id" validate:"required_if=Audience class"`
	Priority      string     `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	IsPinned      bool       `json:"is_pinned"`
	IsActive      *bool      `json:"is_active"`
	ExpiresAt     *time.Time `json:"expires_at"`
}

func (in AnnouncementInput) apply(an *models.Announcement) {
	an.Title = strings.TrimSpace(in.Title)
	an.Content = strings.TrimSpace(in.Content)
	an.Audience, _ = models.ParseAudience(in.Audience)
	an.TargetClassID = nil
	if an.Audience == models.AudienceClass {
		an.TargetClassID = in.TargetClassID
	}
	an.Priority = models.PriorityNormal
	if in.Priority != "" {
		an.Priority, _ = models.ParsePriority(in.Priority)
	}
	an.IsPinned = in.IsPinned
	if in.IsActive != nil {
		an.IsActive = *in.IsActive
	}
	an.ExpiresAt = in.ExpiresAt
}

// CreateAnnouncement stores the announcement and, when it is active,
// hands it to the notifier. A notification failure never fails the call.
func (s *Service) CreateAnnouncement(ctx context.Context, a access.Actor, in AnnouncementInput, ip string) (*models.Announcement, error) {
	if err := s.check(ctx, a, access.ManageAnnouncements, access.Target{}); err != nil {
		return nil, err
	}
	if err := s.valid.Struct(in); err != nil {
		return nil, err
	}
	an := &models.Announcement{IsActive: true, AuthorID: a.ID}
	in.apply(an)
	if an.TargetClassID != nil {
		if _, err := s.class(ctx, *an.TargetClassID); err != nil {
			return nil, invalid("target_class_id", "unknown", "classe inconnue")
		}
	}
	id, err := db.CreateAnnouncement(ctx, s.db, an)
	if err != nil {
		return nil, err
	}
	stored, err := db.GetAnnouncement(ctx, s.db, id)
	if err != nil || stored == nil {
		return nil, fmt.Errorf("reload announcement %d: %w", id, err)
	}
	s.audit(ctx, a, "announcement_create", "announcement", id, stored.Title, ip)

	if stored.IsActive {
		if err := s.notifier.AnnouncementPublished(ctx, stored); err != nil {
			s.log.Warn("announcement notification failed", zap.Int64("announcement_id", id), zap.Error(err))
			observability.CaptureErrCtx(ctx, err)
		}
	}
	return stored, nil
}

func (s *Service) UpdateAnnouncement(ctx context.Context, a access.Actor, id int64, in AnnouncementInput, ip string) (*models.Announcement, error) {
	if err := s.check(ctx, a, access.ManageAnnouncements, access.Target{}); err != nil {
		return nil, err
	}
	if err := s.valid.Struct(in); err != nil {
		return nil, err
	}
	an, err := db.GetAnnouncement(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if an == nil {
		return nil, fmt.Errorf("announcement %d: %w", id, ErrNotFound)
	}
	in.apply(an)
	if err := db.UpdateAnnouncement(ctx, s.db, an); err != nil {
		return nil, notFoundIfMissing(err, "announcement", id)
	}
	s.audit(ctx, a, "announcement_update", "announcement", id, an.Title, ip)
	return an, nil
}

func (s *Service) DeleteAnnouncement(ctx context.Context, a access.Actor, id int64, ip string) error {
	if err := s.check(ctx, a, access.ManageAnnouncements, access.Target{}); err != nil {
		return err
	}
	if err := db.DeleteAnnouncement(ctx, s.db, id); err != nil {
		return notFoundIfMissing(err, "announcement", id)
	}
	s.audit(ctx, a, "announcement_delete", "announcement", id, "", ip)
	return nil
}

// AllAnnouncements is the management view, inactive and expired included.
func (s *Service) AllAnnouncements(ctx context.Context, a access.Actor) ([]models.Announcement, error) {
	if err := s.check(ctx, a, access.ManageAnnouncements, access.Target{}); err != nil {
		return nil, err
	}
	return db.ListAllAnnouncements(ctx, s.db)
}

// Announcements lists what the actor should see: active, unexpired, and
// addressed to everyone, to the actor's role, or to the actor's class
// (the children's classes for a parent). Pinned first, then newest.
func (s *Service) Announcements(ctx context.Context, a access.Actor) ([]models.Announcement, error) {
	if err := requireActive(a); err != nil {
		return nil, err
	}
	var classIDs []int64
	switch a.Role {
	case models.Student:
		if a.ClassID != nil {
			classIDs = []int64{*a.ClassID}
		}
	case models.Parent:
		ids, err := db.ChildClassIDs(ctx, s.db, a.ID)
		if err != nil {
			return nil, err
		}
		classIDs = ids
	}
	return db.ListVisibleAnnouncements(ctx, s.db, audienceOf(a.Role), classIDs, s.now(), announcementsLimit)
}

func audienceOf(r models.Role) models.Audience {
	switch r {
	case models.Student:
		return models.AudienceStudents
	case models.Teacher:
		return models.AudienceTeachers
	case models.Parent:
		return models.AudienceParents
	}
	// admins only match "all" through the role filter
	return models.AudienceAll
}

// requireActive guards the views every role has on its own data.
func requireActive(a access.Actor) error {
	if !a.IsActive || !a.Role.Valid() {
		return fmt.Errorf("%w: inactive account", ErrForbidden)
	}
	return nil
}

// Messages

type MessageInput struct {
	RecipientID int64  `json:"recipient_id" validate:"required,gt=0"`
	Subject     string `json:"subject" validate:"notblank,max=200"`
	Content     string `json:"content" validate:"notblank"`
}

// SendMessage delivers a direct message. Parents may only write to
// teachers and administrators.
func (s *Service) SendMessage(ctx context.Context, a access.Actor, in MessageInput, ip string) (*models.Message, error) {
	if err := requireActive(a); err != nil {
		return nil, err
	}
	if err := s.valid.Struct(in); err != nil {
		return nil, err
	}
	recipient, err := db.GetUserByID(ctx, s.db, in.RecipientID)
	if err != nil {
		return nil, err
	}
	// A missing recipient looks the same as one the sender may not write to.
	if recipient == nil || !recipient.IsActive {
		return nil, fmt.Errorf("recipient %d: %w", in.RecipientID, ErrForbidden)
	}
	if err := s.check(ctx, a, access.SendMessage, access.Target{RecipientRole: recipient.Role}); err != nil {
		return nil, fmt.Errorf("recipient %d: %w", in.RecipientID, err)
	}
	if recipient.ID == a.ID {
		return nil, invalid("recipient_id", "self", "vous ne pouvez pas vous écrire à vous-même")
	}
	id, err := db.CreateMessage(ctx, s.db, &models.Message{
		SenderID:    a.ID,
		RecipientID: recipient.ID,
		Subject:     strings.TrimSpace(in.Subject),
		Content:     strings.TrimSpace(in.Content),
	})
	if err != nil {
		return nil, err
	}
	s.audit(ctx, a, "message_send", "message", id, "", ip)
	return db.GetMessage(ctx, s.db, id)
}

func (s *Service) Inbox(ctx context.Context, a access.Actor) ([]models.Message, error) {
	if err := requireActive(a); err != nil {
		return nil, err
	}
	return db.ListInbox(ctx, s.db, a.ID)
}

func (s *Service) Sent(ctx context.Context, a access.Actor) ([]models.Message, error) {
	if err := requireActive(a); err != nil {
		return nil, err
	}
	return db.ListSent(ctx, s.db, a.ID)
}

func (s *Service) UnreadCount(ctx context.Context, a access.Actor) (int, error) {
	if err := requireActive(a); err != nil {
		return 0, err
	}
	return db.CountUnread(ctx, s.db, a.ID)
}

// ReadMessage opens a message for its sender or recipient and marks it read
// the first time the recipient opens it. Any other id reads as not found.
func (s *Service) ReadMessage(ctx context.Context, a access.Actor, id int64) (*models.Message, error) {
	if err := requireActive(a); err != nil {
		return nil, err
	}
	m, err := db.GetMessage(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("message %d: %w", id, ErrNotFound)
	}
	err = s.check(ctx, a, access.ReadMessage, access.Target{Participants: []int64{m.SenderID, m.RecipientID}})
	if errors.Is(err, ErrForbidden) {
		return nil, fmt.Errorf("message %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if m.RecipientID == a.ID && !m.IsRead {
		if err := db.MarkMessageRead(ctx, s.db, id); err != nil {
			return nil, err
		}
		now := s.now()
		m.IsRead, m.ReadAt = true, &now
	}
	return m, nil
}

// Audit log

const auditPerPage = 50

type AuditPage struct {
	Entries []models.AuditEntry `json:"entries"`
	Page    int                 `json:"page"`
	PerPage int                 `json:"per_page"`
	Total   int                 `json:"total"`
}

func (s *Service) AuditLog(ctx context.Context, a access.Actor, page int) (*AuditPage, error) {
	if err := s.check(ctx, a, access.ViewAuditLog, access.Target{}); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	entries, total, err := db.ListAudit(ctx, s.db, page, auditPerPage)
	if err != nil {
		return nil, err
	}
	return &AuditPage{Entries: entries, Page: page, PerPage: auditPerPage, Total: total}, nil
}
