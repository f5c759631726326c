package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mr1hm/go-ocean-hazards/internal/models"
)

func (s *SQLiteDB) AddNotification(ctx context.Context, n *models.Notification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, report_id, hotspot_id, level, title, message, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.ReportID, n.HotspotID, string(n.Level), n.Title, n.Message, n.Read, n.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("error inserting notification %s: %w", n.ID, err)
	}
	return nil
}

func (s *SQLiteDB) ListNotifications(ctx context.Context, unreadOnly bool, limit int) ([]models.Notification, error) {
	query := `SELECT id, report_id, hotspot_id, level, title, message, read, created_at FROM notifications`
	var args []any
	if unreadOnly {
		query += " WHERE read = 0"
	}
	query += " ORDER BY created_at DESC, id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing notifications: %w", err)
	}
	defer rows.Close()

	out := make([]models.Notification, 0)
	for rows.Next() {
		var (
			n                   models.Notification
			reportID, hotspotID sql.NullString
			level               string
			createdAt           int64
		)
		if err := rows.Scan(&n.ID, &reportID, &hotspotID, &level, &n.Title, &n.Message, &n.Read, &createdAt); err != nil {
			return nil, fmt.Errorf("error scanning notification: %w", err)
		}
		n.ReportID = reportID.String
		n.HotspotID = hotspotID.String
		n.Level = models.NotificationLevel(level)
		n.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead returns ErrNotFound when no notification has the id.
func (s *SQLiteDB) MarkRead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("error marking notification %s read: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error marking notification %s read: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
