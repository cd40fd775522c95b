package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/keyon-access/parent-api/internal/models"
	appErrors "github.com/keyon-access/parent-api/pkg/errors"
)

type permitStore interface {
	ListBathroom(ctx context.Context, studentID string, date time.Time) ([]models.BathroomPermit, error)
	ListSpecial(ctx context.Context, filter models.SpecialPermitFilter) ([]models.SpecialPermit, error)
}

// PermitService exposes a student's bathroom and special permits to their
// guardian. Permits are recorded by staff upstream; this API only reads.
type PermitService struct {
	repo   permitStore
	logger *zap.Logger
	now    func() time.Time
}

// NewPermitService constructs the service. Now is injectable for tests;
// pass nil to use time.Now.
func NewPermitService(repo permitStore, logger *zap.Logger, now func() time.Time) *PermitService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &PermitService{repo: repo, logger: logger, now: now}
}

// BathroomToday returns today's bathroom permits for a student.
func (s *PermitService) BathroomToday(ctx context.Context, studentID string) ([]models.BathroomPermit, error) {
	today := s.now()
	date := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	permits, err := s.repo.ListBathroom(ctx, studentID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bathroom permits")
	}
	if permits == nil {
		permits = []models.BathroomPermit{}
	}
	return permits, nil
}

// Special returns a student's special permits over the trailing number of
// days, most recent first.
func (s *PermitService) Special(ctx context.Context, studentID string, days int) ([]models.SpecialPermit, error) {
	if days <= 0 {
		days = 30
	}
	today := s.now()
	// Permit rows are dated at midnight, so the range start must be too.
	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	permits, err := s.repo.ListSpecial(ctx, models.SpecialPermitFilter{
		StudentID: studentID,
		DateFrom:  midnight.AddDate(0, 0, -days),
		DateTo:    today,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list special permits")
	}
	if permits == nil {
		permits = []models.SpecialPermit{}
	}
	return permits, nil
}
