package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/dealdesk/dealdesk/internal/application/port"
	"github.com/dealdesk/dealdesk/internal/domain/entity"
)

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a new notification
func (r *NotificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	query := `
		INSERT INTO notifications (recipient_id, kind, subject, body, dedupe_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	dedupeKey := sql.NullString{String: notification.DedupeKey, Valid: notification.DedupeKey != ""}
	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		notification.RecipientID, notification.Kind, notification.Subject,
		notification.Body, dedupeKey, notification.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create notification",
			zap.Int64("recipient_id", notification.RecipientID),
			zap.String("kind", notification.Kind),
			zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get notification id: %w", err)
	}
	notification.ID = id
	return nil
}

// ExistsByDedupeKey reports whether a notification with the key was already sent
func (r *NotificationRepository) ExistsByDedupeKey(ctx context.Context, key string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM notifications WHERE dedupe_key = ?)`

	var exists bool
	if err := executorFrom(ctx, r.db).QueryRowContext(ctx, query, key).Scan(&exists); err != nil {
		r.logger.Error("Failed to check notification dedupe key", zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("failed to check dedupe key: %w", err)
	}
	return exists, nil
}

// ListByRecipient returns a user's notifications, newest first
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID int64, limit, offset int) ([]*entity.Notification, error) {
	query := `
		SELECT id, recipient_id, kind, subject, body, dedupe_key, created_at
		FROM notifications
		WHERE recipient_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query, recipientID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.Int64("recipient_id", recipientID), zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*entity.Notification
	for rows.Next() {
		var (
			n         entity.Notification
			body      sql.NullString
			dedupeKey sql.NullString
		)
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Kind, &n.Subject, &body, &dedupeKey, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Body = body.String
		n.DedupeKey = dedupeKey.String
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

// Verify interface compliance
var _ port.NotificationRepository = (*NotificationRepository)(nil)
