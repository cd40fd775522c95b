package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/keyon-access/parent-api/internal/models"
)

// PushSubscriptionRepository persists Web Push subscriptions keyed by
// endpoint.
type PushSubscriptionRepository struct {
	db *sqlx.DB
}

// NewPushSubscriptionRepository constructs the repository.
func NewPushSubscriptionRepository(db *sqlx.DB) *PushSubscriptionRepository {
	return &PushSubscriptionRepository{db: db}
}

// Upsert creates or refreshes a subscription for its endpoint.
func (r *PushSubscriptionRepository) Upsert(ctx context.Context, sub *models.PushSubscription) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO push_subscriptions (endpoint, user_id, p256dh, auth, created_at)
VALUES (:endpoint, :user_id, :p256dh, :auth, :created_at)
ON CONFLICT (endpoint) DO UPDATE SET user_id = EXCLUDED.user_id, p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth`
	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return fmt.Errorf("upsert push subscription: %w", err)
	}
	return nil
}

// GetByEndpoint returns the subscription stored for an endpoint.
func (r *PushSubscriptionRepository) GetByEndpoint(ctx context.Context, endpoint string) (*models.PushSubscription, error) {
	const query = `SELECT endpoint, user_id, p256dh, auth, created_at
FROM push_subscriptions WHERE endpoint = $1`
	var sub models.PushSubscription
	if err := r.db.GetContext(ctx, &sub, query, endpoint); err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListByUser returns every subscription registered for a user. One user can
// hold several (phone, desktop).
func (r *PushSubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]models.PushSubscription, error) {
	const query = `SELECT endpoint, user_id, p256dh, auth, created_at
FROM push_subscriptions WHERE user_id = $1`
	var subs []models.PushSubscription
	if err := r.db.SelectContext(ctx, &subs, query, userID); err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	return subs, nil
}

// Delete removes a subscription by endpoint. Used both for explicit
// unsubscribes and for endpoints the push service reports gone.
func (r *PushSubscriptionRepository) Delete(ctx context.Context, endpoint string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM push_subscriptions WHERE endpoint = $1", endpoint); err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}
