package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/keyon-access/parent-api/internal/models"
	appErrors "github.com/keyon-access/parent-api/pkg/errors"
	"github.com/keyon-access/parent-api/pkg/jobs"
)

// WebPushSender abstracts the Web Push protocol call so delivery can be
// faked in tests.
type WebPushSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

type webPushSender struct{}

func (webPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// NewWebPushSender returns the real protocol sender.
func NewWebPushSender() WebPushSender {
	return webPushSender{}
}

// pushSubscriptionStore abstracts subscription persistence.
type pushSubscriptionStore interface {
	Upsert(ctx context.Context, sub *models.PushSubscription) error
	GetByEndpoint(ctx context.Context, endpoint string) (*models.PushSubscription, error)
	ListByUser(ctx context.Context, userID string) ([]models.PushSubscription, error)
	Delete(ctx context.Context, endpoint string) error
}

// PushServiceConfig carries VAPID credentials and queue sizing.
type PushServiceConfig struct {
	Enabled         bool
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string
	TTL             int
	Workers         int
	QueueSize       int
	MaxRetries      int
	RetryDelay      time.Duration
}

// pushEnvelope is the JSON document delivered to the service worker.
type pushEnvelope struct {
	Title string                  `json:"title"`
	Body  string                  `json:"body"`
	Kind  models.NotificationKind `json:"kind"`
}

// PushService manages Web Push subscriptions and delivers notifications to
// them through a background queue. Deliveries the push service reports gone
// prune their subscription.
type PushService struct {
	subs    pushSubscriptionStore
	sender  WebPushSender
	queue   *jobs.Queue
	options webpush.Options
	metrics *MetricsService
	logger  *zap.Logger
	enabled bool
}

// NewPushService constructs the service and its delivery queue. Pass a nil
// sender to use the real Web Push protocol.
func NewPushService(subs pushSubscriptionStore, sender WebPushSender, metrics *MetricsService, logger *zap.Logger, cfg PushServiceConfig) *PushService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sender == nil {
		sender = NewWebPushSender()
	}
	enabled := cfg.Enabled && cfg.VAPIDPublicKey != "" && cfg.VAPIDPrivateKey != ""

	s := &PushService{
		subs:   subs,
		sender: sender,
		options: webpush.Options{
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
			Subscriber:      cfg.Subscriber,
			TTL:             cfg.TTL,
		},
		metrics: metrics,
		logger:  logger,
		enabled: enabled,
	}
	s.queue = jobs.NewQueue("push-delivery", s.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.QueueSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the delivery workers.
func (s *PushService) Start(ctx context.Context) {
	if s.enabled {
		s.queue.Start(ctx)
	}
}

// Stop drains the delivery workers.
func (s *PushService) Stop() {
	if s.enabled {
		s.queue.Stop()
	}
}

// Enabled reports whether Web Push is configured.
func (s *PushService) Enabled() bool {
	return s != nil && s.enabled
}

// PublicKey returns the VAPID public key browsers need to subscribe.
func (s *PushService) PublicKey() (string, error) {
	if !s.Enabled() {
		return "", appErrors.ErrPushDisabled
	}
	return s.options.VAPIDPublicKey, nil
}

// Subscribe stores or refreshes a browser subscription for a user.
func (s *PushService) Subscribe(ctx context.Context, userID, endpoint, p256dh, auth string) error {
	if !s.Enabled() {
		return appErrors.ErrPushDisabled
	}
	if endpoint == "" || p256dh == "" || auth == "" {
		return appErrors.Clone(appErrors.ErrValidation, "endpoint, p256dh and auth are required")
	}
	sub := &models.PushSubscription{
		Endpoint: endpoint,
		UserID:   userID,
		P256DH:   p256dh,
		Auth:     auth,
	}
	if err := s.subs.Upsert(ctx, sub); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store push subscription")
	}
	return nil
}

// Unsubscribe removes a subscription. The endpoint must belong to the
// calling user.
func (s *PushService) Unsubscribe(ctx context.Context, userID, endpoint string) error {
	if !s.Enabled() {
		return appErrors.ErrPushDisabled
	}
	sub, err := s.subs.GetByEndpoint(ctx, endpoint)
	if err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, "subscription not found")
	}
	if sub.UserID != userID {
		return appErrors.ErrForbidden
	}
	if err := s.subs.Delete(ctx, endpoint); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete push subscription")
	}
	return nil
}

// Subscriptions lists the caller's registered subscriptions.
func (s *PushService) Subscriptions(ctx context.Context, userID string) ([]models.PushSubscription, error) {
	if !s.Enabled() {
		return nil, appErrors.ErrPushDisabled
	}
	subs, err := s.subs.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list push subscriptions")
	}
	if subs == nil {
		subs = []models.PushSubscription{}
	}
	return subs, nil
}

// DispatchToUser queues one push message per subscription the user holds.
// A no-op when push is not configured.
func (s *PushService) DispatchToUser(ctx context.Context, userID string, kind models.NotificationKind, title, body string) error {
	if !s.Enabled() {
		return nil
	}
	subs, err := s.subs.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list subscriptions for %s: %w", userID, err)
	}
	for _, sub := range subs {
		job := jobs.Job{
			ID:   uuid.NewString(),
			Type: "push-message",
			Payload: models.PushMessage{
				Endpoint: sub.Endpoint,
				P256DH:   sub.P256DH,
				Auth:     sub.Auth,
				Kind:     kind,
				Title:    title,
				Body:     body,
			},
		}
		if err := s.queue.Enqueue(job); err != nil {
			return fmt.Errorf("enqueue push message: %w", err)
		}
	}
	return nil
}

// deliver sends one queued message. Returning an error triggers the queue's
// retry; gone endpoints are pruned and reported as success.
func (s *PushService) deliver(ctx context.Context, job jobs.Job) error {
	message, ok := job.Payload.(models.PushMessage)
	if !ok {
		s.logger.Error("unexpected push job payload", zap.String("job_id", job.ID))
		return nil
	}

	payload, err := json.Marshal(pushEnvelope{Title: message.Title, Body: message.Body, Kind: message.Kind})
	if err != nil {
		return fmt.Errorf("encode push payload: %w", err)
	}

	sub := &webpush.Subscription{
		Endpoint: message.Endpoint,
		Keys: webpush.Keys{
			P256dh: message.P256DH,
			Auth:   message.Auth,
		},
	}
	resp, err := s.sender.Send(payload, sub, &s.options)
	if err != nil {
		s.metrics.RecordPushDelivery(false)
		return fmt.Errorf("send push to %s: %w", message.Endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		s.metrics.RecordPushDelivery(false)
		s.logger.Info("pruning gone push subscription", zap.String("endpoint", message.Endpoint))
		if err := s.subs.Delete(ctx, message.Endpoint); err != nil {
			s.logger.Warn("failed to prune push subscription", zap.String("endpoint", message.Endpoint), zap.Error(err))
		}
		return nil
	case resp.StatusCode >= http.StatusBadRequest:
		s.metrics.RecordPushDelivery(false)
		return fmt.Errorf("push endpoint %s returned status %d", message.Endpoint, resp.StatusCode)
	default:
		s.metrics.RecordPushDelivery(true)
		return nil
	}
}
