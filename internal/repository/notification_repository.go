package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/keyon-access/parent-api/internal/models"
)

// NotificationRepository persists the per-user notification center.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification row.
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, recipient_id, kind, title, body, data, sender_id, sender_name, read, read_at, created_at)
VALUES (:id, :recipient_id, :kind, :title, :body, :data, :sender_id, :sender_name, :read, :read_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListUnread returns the newest unread notifications for a recipient.
func (r *NotificationRepository) ListUnread(ctx context.Context, recipientID string, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT id, recipient_id, kind, title, body, data, sender_id, sender_name, read, read_at, created_at
FROM notifications
WHERE recipient_id = $1 AND read = FALSE
ORDER BY created_at DESC
LIMIT %d`, limit)
	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, recipientID); err != nil {
		return nil, fmt.Errorf("list unread notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead flags one notification as read. Returns the number of rows
// updated so callers can map zero to not-found.
func (r *NotificationRepository) MarkRead(ctx context.Context, recipientID, id string, ts time.Time) (int64, error) {
	const query = `UPDATE notifications SET read = TRUE, read_at = $3
WHERE id = $1 AND recipient_id = $2 AND read = FALSE`
	result, err := r.db.ExecContext(ctx, query, id, recipientID, ts)
	if err != nil {
		return 0, fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark notification read: %w", err)
	}
	return affected, nil
}

// MarkAllRead flags every unread notification for a recipient as read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string, ts time.Time) (int64, error) {
	const query = `UPDATE notifications SET read = TRUE, read_at = $2
WHERE recipient_id = $1 AND read = FALSE`
	result, err := r.db.ExecContext(ctx, query, recipientID, ts)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return affected, nil
}
