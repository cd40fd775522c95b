package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/keyon-access/parent-api/internal/models"
	appErrors "github.com/keyon-access/parent-api/pkg/errors"
)

// notificationStore abstracts persistence for the notification center.
type notificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListUnread(ctx context.Context, recipientID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, recipientID, id string, ts time.Time) (int64, error)
	MarkAllRead(ctx context.Context, recipientID string, ts time.Time) (int64, error)
}

// guardianResolver maps a grade/section group to the guardian accounts that
// should receive group-wide notifications.
type guardianResolver interface {
	ListCohort(ctx context.Context, filter models.CohortFilter) ([]models.Student, error)
}

// pushDispatcher forwards a rendered notification to a user's push
// subscriptions. Delivery is asynchronous; errors here mean the message
// could not even be queued.
type pushDispatcher interface {
	DispatchToUser(ctx context.Context, userID string, kind models.NotificationKind, title, body string) error
}

// NotificationService owns the per-user notification center and its fan-out
// to groups of recipients.
type NotificationService struct {
	store       notificationStore
	students    guardianResolver
	push        pushDispatcher
	logger      *zap.Logger
	unreadLimit int
	workers     int
	now         func() time.Time
}

// NotificationServiceConfig bounds queries and fan-out concurrency.
type NotificationServiceConfig struct {
	UnreadLimit   int
	FanoutWorkers int
}

// NewNotificationService constructs the service. Push may be nil when Web
// Push is not configured.
func NewNotificationService(store notificationStore, students guardianResolver, push pushDispatcher, logger *zap.Logger, cfg NotificationServiceConfig, now func() time.Time) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.UnreadLimit <= 0 {
		cfg.UnreadLimit = 20
	}
	if cfg.FanoutWorkers <= 0 {
		cfg.FanoutWorkers = 4
	}
	if now == nil {
		now = time.Now
	}
	return &NotificationService{
		store:       store,
		students:    students,
		push:        push,
		logger:      logger,
		unreadLimit: cfg.UnreadLimit,
		workers:     cfg.FanoutWorkers,
		now:         now,
	}
}

// Notify persists one notification for one recipient and hands it to the
// push dispatcher. A failed push dispatch is logged, never surfaced: the
// notification center row is the source of truth.
func (s *NotificationService) Notify(ctx context.Context, recipientID string, payload models.NotificationPayload, sender *models.UserInfo) (*models.Notification, error) {
	if payload == nil || !payload.Kind().Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported notification kind")
	}

	title, body := payload.Render()
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode notification payload")
	}

	notification := &models.Notification{
		RecipientID: recipientID,
		Kind:        payload.Kind(),
		Title:       title,
		Body:        body,
		Data:        data,
		CreatedAt:   s.now().UTC(),
	}
	if sender != nil {
		notification.SenderID = sender.ID
		notification.SenderName = sender.FullName
	}

	if err := s.store.Create(ctx, notification); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notification")
	}

	if s.push != nil {
		if err := s.push.DispatchToUser(ctx, recipientID, notification.Kind, title, body); err != nil {
			s.logger.Warn("push dispatch failed",
				zap.String("recipient_id", recipientID),
				zap.String("kind", string(notification.Kind)),
				zap.Error(err))
		}
	}
	return notification, nil
}

// NotifyMany fans one payload out to every recipient. All-settled: each
// recipient gets an outcome and one failure never aborts the rest.
func (s *NotificationService) NotifyMany(ctx context.Context, recipientIDs []string, payload models.NotificationPayload, sender *models.UserInfo) (*models.FanoutReport, error) {
	if payload == nil || !payload.Kind().Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported notification kind")
	}

	report := &models.FanoutReport{
		Requested: len(recipientIDs),
		Outcomes:  make([]models.FanoutOutcome, len(recipientIDs)),
	}

	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for i, recipientID := range recipientIDs {
		wg.Add(1)
		go func(i int, recipientID string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			outcome := models.FanoutOutcome{RecipientID: recipientID}
			if _, err := s.Notify(ctx, recipientID, payload, sender); err != nil {
				outcome.Error = err.Error()
			} else {
				outcome.Delivered = true
			}
			report.Outcomes[i] = outcome
		}(i, recipientID)
	}
	wg.Wait()

	for _, outcome := range report.Outcomes {
		if outcome.Delivered {
			report.Delivered++
		} else {
			report.Failed++
		}
	}
	return report, nil
}

// NotifyGroup fans a payload out to the guardians of every active student in
// a grade/section group. Students without a linked guardian are skipped;
// guardians with several children in the group are notified once.
func (s *NotificationService) NotifyGroup(ctx context.Context, grade, section string, payload models.NotificationPayload, sender *models.UserInfo) (*models.FanoutReport, error) {
	students, err := s.students.ListCohort(ctx, models.CohortFilter{Grade: grade, Section: section})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve group recipients")
	}

	seen := make(map[string]struct{})
	recipients := make([]string, 0, len(students))
	for _, student := range students {
		if student.GuardianID == nil || *student.GuardianID == "" {
			continue
		}
		if _, dup := seen[*student.GuardianID]; dup {
			continue
		}
		seen[*student.GuardianID] = struct{}{}
		recipients = append(recipients, *student.GuardianID)
	}
	return s.NotifyMany(ctx, recipients, payload, sender)
}

// ListUnread returns the newest unread notifications for a recipient.
func (s *NotificationService) ListUnread(ctx context.Context, recipientID string) ([]models.Notification, error) {
	notifications, err := s.store.ListUnread(ctx, recipientID, s.unreadLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

// MarkRead flags one notification as read for its recipient.
func (s *NotificationService) MarkRead(ctx context.Context, recipientID, id string) error {
	affected, err := s.store.MarkRead(ctx, recipientID, id, s.now().UTC())
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
	}
	return nil
}

// MarkAllRead flags every unread notification for a recipient and returns
// how many were updated.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	affected, err := s.store.MarkAllRead(ctx, recipientID, s.now().UTC())
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return affected, nil
}
