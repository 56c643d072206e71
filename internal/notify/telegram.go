package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Spok95/gestion-scolaire/internal/models"
	"github.com/Spok95/gestion-scolaire/internal/observability"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram broadcasts announcements to a fixed set of chats.
type Telegram struct {
	bot     sender
	chatIDs []int64
	log     *zap.Logger
}

func NewTelegram(token string, chatIDs []int64, log *zap.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return newTelegram(bot, chatIDs, log), nil
}

func newTelegram(bot sender, chatIDs []int64, log *zap.Logger) *Telegram {
	if log == nil {
		log = zap.NewNop()
	}
	return &Telegram{bot: bot, chatIDs: chatIDs, log: log}
}

func (t *Telegram) AnnouncementPublished(ctx context.Context, a *models.Announcement) error {
	text := FormatAnnouncement(a)
	var errs []error
	for _, id := range t.chatIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := t.send(tgbotapi.NewMessage(id, text)); err != nil {
			t.log.Warn("telegram send failed", zap.Int64("chat_id", id), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *Telegram) send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	m, err := t.bot.Send(msg)
	if isSystemErr(err) {
		observability.CaptureErr(err)
	}
	return m, err
}

// FormatAnnouncement renders the plain-text message body.
func FormatAnnouncement(a *models.Announcement) string {
	var b strings.Builder
	switch a.Priority {
	case models.PriorityUrgent:
		b.WriteString("🚨 URGENT\n")
	case models.PriorityHigh:
		b.WriteString("❗ Important\n")
	}
	b.WriteString("📢 ")
	b.WriteString(a.Title)
	b.WriteString("\n\n")
	b.WriteString(a.Content)
	if a.AuthorName != "" {
		b.WriteString("\n\nDe : ")
		b.WriteString(a.AuthorName)
	}
	return b.String()
}

// Only 5xx, 429 and timeouts go to Sentry; 400s such as "chat not found"
// are configuration problems and stay in the log.
func isSystemErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "429") ||
		strings.Contains(s, "502") ||
		strings.Contains(s, "503") ||
		strings.Contains(s, "timeout")
}
