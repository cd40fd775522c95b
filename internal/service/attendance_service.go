package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/keyon-access/parent-api/internal/models"
	appErrors "github.com/keyon-access/parent-api/pkg/errors"
)

const defaultLateCutoff = "07:15"

// AttendanceEventReader describes the event persistence required by AttendanceService.
type AttendanceEventReader interface {
	ListByStudent(ctx context.Context, filter models.AttendanceEventFilter) ([]models.AttendanceEvent, error)
}

// StudentReader provides roster lookups for attendance computations.
type StudentReader interface {
	GetByID(ctx context.Context, id string) (*models.Student, error)
	ListCohort(ctx context.Context, filter models.CohortFilter) ([]models.Student, error)
}

// AttendanceService derives attendance metrics from the raw entry/exit event
// stream. Nothing here mutates; the hardware upstream owns the events.
type AttendanceService struct {
	events     AttendanceEventReader
	students   StudentReader
	cache      *CacheService
	metrics    *MetricsService
	logger     *zap.Logger
	lateCutoff string
	windowDays int
	maxWorkers int
	cacheTTL   time.Duration
	now        func() time.Time
}

// AttendanceServiceConfig tunes the metrics engine.
type AttendanceServiceConfig struct {
	LateCutoff       string
	TimeWindowDays   int
	CohortMaxWorkers int
	CacheTTL         time.Duration
}

// NewAttendanceService constructs the service. Now is injectable for tests;
// pass nil to use time.Now.
func NewAttendanceService(events AttendanceEventReader, students StudentReader, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg AttendanceServiceConfig, now func() time.Time) *AttendanceService {
	if cfg.LateCutoff == "" {
		cfg.LateCutoff = defaultLateCutoff
	}
	if cfg.TimeWindowDays <= 0 {
		cfg.TimeWindowDays = 7
	}
	if cfg.CohortMaxWorkers <= 0 {
		cfg.CohortMaxWorkers = 8
	}
	if now == nil {
		now = time.Now
	}
	return &AttendanceService{
		events:     events,
		students:   students,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
		lateCutoff: cfg.LateCutoff,
		windowDays: cfg.TimeWindowDays,
		maxWorkers: cfg.CohortMaxWorkers,
		cacheTTL:   cfg.CacheTTL,
		now:        now,
	}
}

// parseClock converts a zero-padded "HH:MM" string to minutes since midnight.
// Malformed values yield -1 and are skipped by callers.
func parseClock(value string) int {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return -1
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return -1
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return -1
	}
	return hours*60 + minutes
}

// ClassifyDay folds one day's events into a day record. Events are sorted by
// wall-clock time; at most one entry slot is open at a time. A second entry
// while a slot is open replaces it, an exit without an open slot is ignored,
// and a trailing open entry contributes no duration.
func ClassifyDay(date time.Time, events []models.AttendanceEvent, lateCutoff string) models.DayRecord {
	if lateCutoff == "" {
		lateCutoff = defaultLateCutoff
	}
	sorted := make([]models.AttendanceEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	record := models.DayRecord{Date: date}
	openEntry := ""
	for _, event := range sorted {
		switch event.Kind {
		case models.EventKindEntry:
			if record.FirstEntry == "" {
				record.FirstEntry = event.Time
			}
			openEntry = event.Time
		case models.EventKindExit:
			if openEntry == "" {
				continue
			}
			start := parseClock(openEntry)
			end := parseClock(event.Time)
			if start >= 0 && end > start {
				record.PresentDuration += time.Duration(end-start) * time.Minute
			}
			openEntry = ""
		}
	}
	if record.FirstEntry != "" {
		record.IsLate = record.FirstEntry > lateCutoff
	}
	return record
}

// workingDaysThrough counts Monday to Friday days from the first of the
// month containing today, up to and including today.
func workingDaysThrough(today time.Time) int {
	count := 0
	for d := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()); !d.After(today); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			count++
		}
	}
	return count
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// classifyRange fetches a student's events in [from, to] and classifies each
// day that has at least one event. Keys are "YYYY-MM-DD".
func (s *AttendanceService) classifyRange(ctx context.Context, studentID string, from, to time.Time) (map[string]models.DayRecord, error) {
	start := time.Now()
	events, err := s.events.ListByStudent(ctx, models.AttendanceEventFilter{
		StudentID: studentID,
		DateFrom:  from,
		DateTo:    to,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrMetricsUnavailable.Code, appErrors.ErrMetricsUnavailable.Status, appErrors.ErrMetricsUnavailable.Message)
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("attendance_events", time.Since(start))
	}

	grouped := make(map[string][]models.AttendanceEvent)
	dates := make(map[string]time.Time)
	for _, event := range events {
		key := dayKey(event.Date)
		grouped[key] = append(grouped[key], event)
		dates[key] = event.Date
	}

	days := make(map[string]models.DayRecord, len(grouped))
	for key, dayEvents := range grouped {
		days[key] = ClassifyDay(dates[key], dayEvents, s.lateCutoff)
	}
	return days, nil
}

// MonthlyMetrics aggregates month-to-date attendance for one student.
func (s *AttendanceService) MonthlyMetrics(ctx context.Context, studentID string) (*models.MonthlyMetrics, error) {
	today := s.now()
	cacheKey := fmt.Sprintf("attendance:monthly:%s:%s", studentID, dayKey(today))
	var cached models.MonthlyMetrics
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	days, err := s.classifyRange(ctx, studentID, monthStart, today)
	if err != nil {
		return nil, err
	}

	metrics := &models.MonthlyMetrics{
		StudentID:   studentID,
		WorkingDays: workingDaysThrough(today),
		LateDetail:  []models.LateArrival{},
	}

	keys := make([]string, 0, len(days))
	for key := range days {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		day := days[key]
		if day.FirstEntry == "" {
			continue
		}
		metrics.DaysPresent++
		if day.IsLate {
			metrics.LateCount++
			metrics.LateDetail = append(metrics.LateDetail, models.LateArrival{Date: day.Date, FirstEntry: day.FirstEntry})
		}
	}

	if absent := metrics.WorkingDays - metrics.DaysPresent; absent > 0 {
		metrics.DaysAbsent = absent
	}
	if metrics.WorkingDays == 0 {
		metrics.AttendanceRate = 100
	} else {
		metrics.AttendanceRate = int(math.Round(float64(metrics.DaysPresent) / float64(metrics.WorkingDays) * 100))
	}
	switch {
	case metrics.AttendanceRate >= 90:
		metrics.Trend = models.TrendExcellent
	case metrics.AttendanceRate >= 80:
		metrics.Trend = models.TrendGood
	default:
		metrics.Trend = models.TrendLow
	}

	if err := s.cache.Set(ctx, cacheKey, metrics, s.cacheTTL); err != nil && s.logger != nil {
		s.logger.Warn("cache monthly metrics", zap.String("student_id", studentID), zap.Error(err))
	}
	return metrics, nil
}

// TimeOnCampus sums on-campus presence over the trailing window. Days with
// zero derived duration are excluded from the average.
func (s *AttendanceService) TimeOnCampus(ctx context.Context, studentID string) (*models.TimeOnCampusSummary, error) {
	today := s.now()
	// Attendance rows are dated at midnight; the window start must be too,
	// or the oldest day falls out of the range.
	from := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location()).AddDate(0, 0, -(s.windowDays - 1))
	days, err := s.classifyRange(ctx, studentID, from, today)
	if err != nil {
		return nil, err
	}

	summary := &models.TimeOnCampusSummary{
		StudentID:  studentID,
		WindowDays: s.windowDays,
	}
	for _, day := range days {
		if day.PresentDuration <= 0 {
			continue
		}
		summary.TotalDuration += day.PresentDuration
		summary.CountedDays++
	}
	if summary.CountedDays > 0 {
		summary.AverageDuration = summary.TotalDuration / time.Duration(summary.CountedDays)
	}
	return summary, nil
}

// CompareWithCohort relates one student's monthly metrics to the mean of the
// active students sharing their grade and section. Members whose metrics fail
// to compute are excluded from the mean rather than zeroed; when nobody in
// the cohort produced metrics the cohort block is nil.
func (s *AttendanceService) CompareWithCohort(ctx context.Context, studentID string) (*models.GroupComparison, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	own, err := s.MonthlyMetrics(ctx, studentID)
	if err != nil {
		return nil, err
	}

	cohort, err := s.students.ListCohort(ctx, models.CohortFilter{Grade: student.Grade, Section: student.Section})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cohort")
	}

	type result struct {
		metrics *models.MonthlyMetrics
		err     error
	}
	results := make([]result, len(cohort))

	sem := make(chan struct{}, s.maxWorkers)
	var wg sync.WaitGroup
	for i, member := range cohort {
		wg.Add(1)
		go func(i int, memberID string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			metrics, err := s.MonthlyMetrics(ctx, memberID)
			results[i] = result{metrics: metrics, err: err}
		}(i, member.ID)
	}
	wg.Wait()

	comparison := &models.GroupComparison{Student: own}
	averages := models.CohortAverages{}
	for i, res := range results {
		if res.err != nil {
			if s.logger != nil {
				s.logger.Warn("cohort member metrics failed",
					zap.String("student_id", cohort[i].ID),
					zap.Error(res.err))
			}
			continue
		}
		averages.DaysPresent += float64(res.metrics.DaysPresent)
		averages.DaysAbsent += float64(res.metrics.DaysAbsent)
		averages.LateCount += float64(res.metrics.LateCount)
		averages.Rate += float64(res.metrics.AttendanceRate)
		averages.SampleSize++
	}
	if averages.SampleSize > 0 {
		n := float64(averages.SampleSize)
		averages.DaysPresent /= n
		averages.DaysAbsent /= n
		averages.LateCount /= n
		averages.Rate /= n
		comparison.Cohort = &averages
		comparison.AboveAverage = float64(own.AttendanceRate) >= averages.Rate
	}
	return comparison, nil
}
