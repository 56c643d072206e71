package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Spok95/gestion-scolaire/internal/ctxutil"
	"github.com/Spok95/gestion-scolaire/internal/models"
)

const messageColumns = `
	m.id, m.sender_id, m.recipient_id,
	COALESCE(NULLIF(trim(s.first_name || ' ' || s.last_name), ''), s.username),
	COALESCE(NULLIF(trim(r.first_name || ' ' || r.last_name), ''), r.username),
	m.subject, m.content, m.is_read, m.read_at, m.created_at`

const messageFrom = `
	FROM messages m
	JOIN users s ON s.id = m.sender_id
	JOIN users r ON r.id = m.recipient_id`

func scanMessage(s rowScanner) (*models.Message, error) {
	var m models.Message
	var readAt sql.NullTime
	if err := s.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.SenderName, &m.RecipientName,
		&m.Subject, &m.Content, &m.IsRead, &readAt, &m.CreatedAt); err != nil {
		return nil, err
	}
	if readAt.Valid {
		t := readAt.Time
		m.ReadAt = &t
	}
	return &m, nil
}

func CreateMessage(ctx context.Context, database *sql.DB, m *models.Message) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO messages (sender_id, recipient_id, subject, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, m.SenderID, m.RecipientID, m.Subject, m.Content).Scan(&id)
	return id, err
}

func GetMessage(ctx context.Context, database *sql.DB, id int64) (*models.Message, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	m, err := scanMessage(database.QueryRowContext(ctx, `SELECT `+messageColumns+messageFrom+` WHERE m.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

// MarkMessageRead only flips unread messages, so read_at keeps the first read.
func MarkMessageRead(ctx context.Context, database *sql.DB, id int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `UPDATE messages SET is_read = TRUE, read_at = now() WHERE id = $1 AND is_read = FALSE`, id)
	return err
}

func ListInbox(ctx context.Context, database *sql.DB, userID int64) ([]models.Message, error) {
	return listMessages(ctx, database, `SELECT `+messageColumns+messageFrom+` WHERE m.recipient_id = $1 ORDER BY m.created_at DESC, m.id DESC`, userID)
}

func ListSent(ctx context.Context, database *sql.DB, userID int64) ([]models.Message, error) {
	return listMessages(ctx, database, `SELECT `+messageColumns+messageFrom+` WHERE m.sender_id = $1 ORDER BY m.created_at DESC, m.id DESC`, userID)
}

func CountUnread(ctx context.Context, database *sql.DB, userID int64) (int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var n int
	err := database.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE recipient_id = $1 AND is_read = FALSE`, userID).Scan(&n)
	return n, err
}

func listMessages(ctx context.Context, database *sql.DB, q string, userID int64) ([]models.Message, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}
