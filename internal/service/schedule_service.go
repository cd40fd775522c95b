package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/keyon-access/parent-api/internal/models"
	appErrors "github.com/keyon-access/parent-api/pkg/errors"
)

type scheduleStore interface {
	ListByGroup(ctx context.Context, grade, section string) ([]models.ScheduleEntry, error)
}

// ScheduleService exposes a group's weekly schedule and the next upcoming
// class for reminder purposes.
type ScheduleService struct {
	repo   scheduleStore
	logger *zap.Logger
	now    func() time.Time
}

// NewScheduleService constructs the service. Now is injectable for tests;
// pass nil to use time.Now.
func NewScheduleService(repo scheduleStore, logger *zap.Logger, now func() time.Time) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &ScheduleService{repo: repo, logger: logger, now: now}
}

// Weekly returns the full weekly schedule for a grade/section group.
func (s *ScheduleService) Weekly(ctx context.Context, grade, section string) ([]models.ScheduleEntry, error) {
	entries, err := s.repo.ListByGroup(ctx, grade, section)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if entries == nil {
		entries = []models.ScheduleEntry{}
	}
	return entries, nil
}

var scheduleDays = map[time.Weekday]string{
	time.Monday:    "MONDAY",
	time.Tuesday:   "TUESDAY",
	time.Wednesday: "WEDNESDAY",
	time.Thursday:  "THURSDAY",
	time.Friday:    "FRIDAY",
}

// Today filters the weekly schedule down to the current weekday, ordered by
// start time. Empty on weekends.
func (s *ScheduleService) Today(ctx context.Context, grade, section string) ([]models.ScheduleEntry, error) {
	day, ok := scheduleDays[s.now().Weekday()]
	if !ok {
		return []models.ScheduleEntry{}, nil
	}
	entries, err := s.Weekly(ctx, grade, section)
	if err != nil {
		return nil, err
	}
	today := make([]models.ScheduleEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.DayOfWeek == day {
			today = append(today, entry)
		}
	}
	sort.SliceStable(today, func(i, j int) bool { return today[i].StartTime < today[j].StartTime })
	return today, nil
}

// NextClass returns today's first class starting after the current time, or
// nil when no class remains.
func (s *ScheduleService) NextClass(ctx context.Context, grade, section string) (*models.ScheduleEntry, error) {
	today, err := s.Today(ctx, grade, section)
	if err != nil {
		return nil, err
	}
	clock := s.now().Format("15:04")
	for _, entry := range today {
		if entry.StartTime > clock {
			next := entry
			return &next, nil
		}
	}
	return nil, nil
}
