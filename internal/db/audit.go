package db

import (
	"context"
	"database/sql"

	"github.com/Spok95/gestion-scolaire/internal/ctxutil"
	"github.com/Spok95/gestion-scolaire/internal/models"
)

// AppendAudit is the only write the audit log accepts.
func AppendAudit(ctx context.Context, database *sql.DB, e models.AuditEntry) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `
		INSERT INTO audit_logs (user_id, action, entity_type, entity_id, details, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.UserID, e.Action, e.EntityType, e.EntityID, e.Details, e.IPAddress)
	return err
}

// ListAudit returns one page (1-based) of entries, newest first, and the total.
func ListAudit(ctx context.Context, database *sql.DB, page, perPage int) ([]models.AuditEntry, int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	if page < 1 {
		page = 1
	}
	var total int
	if err := database.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := database.QueryContext(ctx, `
		SELECT l.id, l.user_id, COALESCE(u.username, ''), l.action, l.entity_type, l.entity_id,
		       l.details, l.ip_address, l.created_at
		FROM audit_logs l
		LEFT JOIN users u ON u.id = l.user_id
		ORDER BY l.created_at DESC, l.id DESC
		LIMIT $1 OFFSET $2
	`, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.AuditEntry
	for rows.Next() {
		var (
			e        models.AuditEntry
			userID   sql.NullInt64
			entityID sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &userID, &e.Username, &e.Action, &e.EntityType, &entityID,
			&e.Details, &e.IPAddress, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		e.UserID = nullInt(userID)
		e.EntityID = nullInt(entityID)
		out = append(out, e)
	}
	return out, total, rows.Err()
}
