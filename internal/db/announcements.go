package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/Spok95/gestion-scolaire/internal/ctxutil"
	"github.com/Spok95/gestion-scolaire/internal/models"
)

const announcementColumns = `
	a.id, a.title, a.content, a.audience, a.target_class_id, a.priority, a.is_pinned,
	a.is_active, a.expires_at, a.author_id,
	COALESCE(NULLIF(trim(u.first_name || ' ' || u.last_name), ''), u.username),
	a.created_at, a.updated_at`

const announcementFrom = ` FROM announcements a JOIN users u ON u.id = a.author_id`

func scanAnnouncement(s rowScanner) (*models.Announcement, error) {
	var (
		a        models.Announcement
		audience string
		priority string
		target   sql.NullInt64
		expires  sql.NullTime
	)
	if err := s.Scan(&a.ID, &a.Title, &a.Content, &audience, &target, &priority, &a.IsPinned,
		&a.IsActive, &expires, &a.AuthorID, &a.AuthorName, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if a.Audience, err = models.ParseAudience(audience); err != nil {
		return nil, err
	}
	if a.Priority, err = models.ParsePriority(priority); err != nil {
		return nil, err
	}
	a.TargetClassID = nullInt(target)
	if expires.Valid {
		t := expires.Time
		a.ExpiresAt = &t
	}
	return &a, nil
}

func listAnnouncements(ctx context.Context, database *sql.DB, q string, args ...any) ([]models.Announcement, error) {
	rows, err := database.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func CreateAnnouncement(ctx context.Context, database *sql.DB, a *models.Announcement) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO announcements (title, content, audience, target_class_id, priority,
		                           is_pinned, is_active, expires_at, author_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, a.Title, a.Content, string(a.Audience), a.TargetClassID, string(a.Priority),
		a.IsPinned, a.IsActive, a.ExpiresAt, a.AuthorID).Scan(&id)
	return id, err
}

func GetAnnouncement(ctx context.Context, database *sql.DB, id int64) (*models.Announcement, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	a, err := scanAnnouncement(database.QueryRowContext(ctx, `SELECT `+announcementColumns+announcementFrom+` WHERE a.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func UpdateAnnouncement(ctx context.Context, database *sql.DB, a *models.Announcement) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := database.ExecContext(ctx, `
		UPDATE announcements
		SET title = $2, content = $3, audience = $4, target_class_id = $5, priority = $6,
		    is_pinned = $7, is_active = $8, expires_at = $9, updated_at = now()
		WHERE id = $1
	`, a.ID, a.Title, a.Content, string(a.Audience), a.TargetClassID, string(a.Priority),
		a.IsPinned, a.IsActive, a.ExpiresAt)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func DeleteAnnouncement(ctx context.Context, database *sql.DB, id int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := database.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// ListAllAnnouncements is the admin view: everything, newest first.
func ListAllAnnouncements(ctx context.Context, database *sql.DB) ([]models.Announcement, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return listAnnouncements(ctx, database, `SELECT `+announcementColumns+announcementFrom+` ORDER BY a.created_at DESC, a.id DESC`)
}

// ListVisibleAnnouncements returns active, unexpired announcements addressed
// to everyone, to the given audience, or to one of classIDs. Pinned first,
// then newest.
func ListVisibleAnnouncements(ctx context.Context, database *sql.DB, audience models.Audience, classIDs []int64, now time.Time, limit int) ([]models.Announcement, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	if classIDs == nil {
		classIDs = []int64{}
	}
	return listAnnouncements(ctx, database, `
		SELECT `+announcementColumns+announcementFrom+`
		WHERE a.is_active = TRUE
		  AND (a.expires_at IS NULL OR a.expires_at > $1)
		  AND (a.audience = 'all'
		       OR a.audience = $2
		       OR (a.audience = 'class' AND a.target_class_id = ANY($3::bigint[])))
		ORDER BY a.is_pinned DESC, a.created_at DESC, a.id DESC
		LIMIT $4
	`, now.UTC(), string(audience), pq.Array(classIDs), limit)
}
