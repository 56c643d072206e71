package models

import (
	"fmt"
	"time"
)

type Audience string

const (
	AudienceAll      Audience = "all"
	AudienceStudents Audience = "students"
	AudienceTeachers Audience = "teachers"
	AudienceParents  Audience = "parents"
	AudienceClass    Audience = "class"
)

func ParseAudience(s string) (Audience, error) {
	switch a := Audience(s); a {
	case AudienceAll, AudienceStudents, AudienceTeachers, AudienceParents, AudienceClass:
		return a, nil
	}
	return "", fmt.Errorf("unknown audience %q", s)
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func ParsePriority(s string) (Priority, error) {
	switch p := Priority(s); p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return p, nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

type Announcement struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Audience      Audience   `json:"audience"`
	TargetClassID *int64     `json:"target_class_id,omitempty"`
	Priority      Priority   `json:"priority"`
	IsPinned      bool       `json:"is_pinned"`
	IsActive      bool       `json:"is_active"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	AuthorID      int64      `json:"author_id"`
	AuthorName    string     `json:"author_name,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type Message struct {
	ID            int64      `json:"id"`
	SenderID      int64      `json:"sender_id"`
	RecipientID   int64      `json:"recipient_id"`
	SenderName    string     `json:"sender_name,omitempty"`
	RecipientName string     `json:"recipient_name,omitempty"`
	Subject       string     `json:"subject"`
	Content       string     `json:"content"`
	IsRead        bool       `json:"is_read"`
	ReadAt        *time.Time `json:"read_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// AuditEntry is append-only.
type AuditEntry struct {
	ID         int64     `json:"id"`
	UserID     *int64    `json:"user_id,omitempty"`
	Username   string    `json:"username,omitempty"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type,omitempty"`
	EntityID   *int64    `json:"entity_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	IPAddress  string    `json:"ip_address,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
