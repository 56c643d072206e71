package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/gestion-scolaire/internal/models"
)

type fakeBot struct {
	sent []int64
	fail map[int64]error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg := c.(tgbotapi.MessageConfig)
	if err := f.fail[msg.ChatID]; err != nil {
		return tgbotapi.Message{}, err
	}
	f.sent = append(f.sent, msg.ChatID)
	return tgbotapi.Message{}, nil
}

func TestTelegramBroadcastsToEveryChat(t *testing.T) {
	bot := &fakeBot{fail: map[int64]error{2: errors.New("Bad Request: chat not found")}}
	n := newTelegram(bot, []int64{1, 2, 3}, nil)

	err := n.AnnouncementPublished(context.Background(), &models.Announcement{
		Title: "Réunion", Content: "Conseil de classe jeudi", Priority: models.PriorityNormal,
	})
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("expected joined send error, got %v", err)
	}
	if len(bot.sent) != 2 || bot.sent[0] != 1 || bot.sent[1] != 3 {
		t.Fatalf("unexpected deliveries %v", bot.sent)
	}
}

func TestFormatAnnouncement(t *testing.T) {
	got := FormatAnnouncement(&models.Announcement{
		Title: "Examens", Content: "Début lundi", Priority: models.PriorityUrgent, AuthorName: "Direction",
	})
	for _, want := range []string{"URGENT", "Examens", "Début lundi", "Direction"} {
		if !strings.Contains(got, want) {
			t.Fatalf("%q missing from %q", want, got)
		}
	}
}

func TestIsSystemErr(t *testing.T) {
	cases := []struct {
		msg  string
		want bool
	}{
		{"Too Many Requests: retry after 5 (429)", true},
		{"net/http: request canceled (Client.Timeout exceeded); timeout", true},
		{"Bad Request: chat not found", false},
	}
	for _, c := range cases {
		if got := isSystemErr(errors.New(c.msg)); got != c.want {
			t.Fatalf("%q: want %v, got %v", c.msg, c.want, got)
		}
	}
	if isSystemErr(nil) {
		t.Fatal("nil is not a system error")
	}
}
