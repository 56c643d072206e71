// Package notify announces newly published announcements outside the API.
package notify

import (
	"context"

	"github.com/Spok95/gestion-scolaire/internal/models"
)

type Notifier interface {
	AnnouncementPublished(ctx context.Context, a *models.Announcement) error
}

// Nop drops every notification.
type Nop struct{}

func (Nop) AnnouncementPublished(context.Context, *models.Announcement) error { return nil }
