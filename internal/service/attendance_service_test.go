package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyon-access/parent-api/internal/models"
	appErrors "github.com/keyon-access/parent-api/pkg/errors"
)

type mockEventRepo struct {
	events map[string][]models.AttendanceEvent
	errFor map[string]error
	calls  int
}

func (m *mockEventRepo) ListByStudent(_ context.Context, filter models.AttendanceEventFilter) ([]models.AttendanceEvent, error) {
	m.calls++
	if err, ok := m.errFor[filter.StudentID]; ok {
		return nil, err
	}
	var out []models.AttendanceEvent
	for _, event := range m.events[filter.StudentID] {
		if event.Date.Before(filter.DateFrom) || event.Date.After(filter.DateTo) {
			continue
		}
		out = append(out, event)
	}
	return out, nil
}

type mockStudentRepo struct {
	students map[string]*models.Student
	cohort   []models.Student
}

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (*models.Student, error) {
	student, ok := m.students[id]
	if !ok {
		return nil, errors.New("no rows")
	}
	return student, nil
}

func (m *mockStudentRepo) ListCohort(_ context.Context, _ models.CohortFilter) ([]models.Student, error) {
	return m.cohort, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func event(studentID string, date time.Time, clock string, kind models.EventKind) models.AttendanceEvent {
	return models.AttendanceEvent{StudentID: studentID, Date: date, Time: clock, Kind: kind}
}

func newAttendanceService(events *mockEventRepo, students *mockStudentRepo, now time.Time) *AttendanceService {
	return NewAttendanceService(events, students, nil, nil, nil, AttendanceServiceConfig{}, fixedClock(now))
}

func TestClassifyDayLateCutoff(t *testing.T) {
	day := time.Date(2024, 11, 4, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name       string
		firstEntry string
		late       bool
	}{
		{"exactly at cutoff", "07:15", false},
		{"one minute past", "07:16", true},
		{"well before", "07:00", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			record := ClassifyDay(day, []models.AttendanceEvent{
				event("stu-1", day, tc.firstEntry, models.EventKindEntry),
			}, "07:15")
			assert.Equal(t, tc.late, record.IsLate)
			assert.Equal(t, tc.firstEntry, record.FirstEntry)
		})
	}
}

func TestClassifyDayPairsEntriesAndExits(t *testing.T) {
	day := time.Date(2024, 11, 4, 0, 0, 0, 0, time.UTC)

	record := ClassifyDay(day, []models.AttendanceEvent{
		event("stu-1", day, "07:00", models.EventKindEntry),
		event("stu-1", day, "13:00", models.EventKindExit),
		event("stu-1", day, "14:00", models.EventKindEntry),
		event("stu-1", day, "15:30", models.EventKindExit),
	}, "07:15")
	assert.Equal(t, 7*time.Hour+30*time.Minute, record.PresentDuration)
	assert.Equal(t, "07:00", record.FirstEntry)
	assert.False(t, record.IsLate)
}

func TestClassifyDayLoneExitIgnored(t *testing.T) {
	day := time.Date(2024, 11, 4, 0, 0, 0, 0, time.UTC)

	record := ClassifyDay(day, []models.AttendanceEvent{
		event("stu-1", day, "13:00", models.EventKindExit),
	}, "07:15")
	assert.Zero(t, record.PresentDuration)
	assert.Empty(t, record.FirstEntry)
}

func TestClassifyDayDoubleEntryReplacesOpenSlot(t *testing.T) {
	day := time.Date(2024, 11, 4, 0, 0, 0, 0, time.UTC)

	record := ClassifyDay(day, []models.AttendanceEvent{
		event("stu-1", day, "07:00", models.EventKindEntry),
		event("stu-1", day, "08:00", models.EventKindEntry),
		event("stu-1", day, "09:00", models.EventKindExit),
	}, "07:15")
	assert.Equal(t, time.Hour, record.PresentDuration)
	assert.Equal(t, "07:00", record.FirstEntry)
}

func TestClassifyDayTrailingOpenEntry(t *testing.T) {
	day := time.Date(2024, 11, 4, 0, 0, 0, 0, time.UTC)

	record := ClassifyDay(day, []models.AttendanceEvent{
		event("stu-1", day, "07:10", models.EventKindEntry),
	}, "07:15")
	assert.Zero(t, record.PresentDuration)
	assert.Equal(t, "07:10", record.FirstEntry)
}

func TestClassifyDaySortsOutOfOrderEvents(t *testing.T) {
	day := time.Date(2024, 11, 4, 0, 0, 0, 0, time.UTC)

	record := ClassifyDay(day, []models.AttendanceEvent{
		event("stu-1", day, "13:00", models.EventKindExit),
		event("stu-1", day, "07:00", models.EventKindEntry),
	}, "07:15")
	assert.Equal(t, 6*time.Hour, record.PresentDuration)
	assert.Equal(t, "07:00", record.FirstEntry)
}

func TestWorkingDaysNovember2024(t *testing.T) {
	// November 2024 has 21 weekdays.
	assert.Equal(t, 21, workingDaysThrough(time.Date(2024, 11, 30, 12, 0, 0, 0, time.UTC)))
}

func TestMonthlyMetricsAggregation(t *testing.T) {
	// Friday Nov 8 2024: six working days so far (Nov 1, 4, 5, 6, 7, 8).
	now := time.Date(2024, 11, 8, 16, 0, 0, 0, time.UTC)
	events := &mockEventRepo{events: map[string][]models.AttendanceEvent{}}
	for _, d := range []int{4, 5, 6, 7, 8} {
		day := time.Date(2024, 11, d, 0, 0, 0, 0, time.UTC)
		clock := "07:05"
		if d == 6 {
			clock = "07:40"
		}
		events.events["stu-1"] = append(events.events["stu-1"],
			event("stu-1", day, clock, models.EventKindEntry),
			event("stu-1", day, "13:30", models.EventKindExit),
		)
	}

	svc := newAttendanceService(events, &mockStudentRepo{}, now)
	metrics, err := svc.MonthlyMetrics(context.Background(), "stu-1")
	require.NoError(t, err)

	assert.Equal(t, 6, metrics.WorkingDays)
	assert.Equal(t, 5, metrics.DaysPresent)
	assert.Equal(t, 1, metrics.DaysAbsent)
	assert.Equal(t, 1, metrics.LateCount)
	assert.Equal(t, 83, metrics.AttendanceRate)
	assert.Equal(t, models.TrendGood, metrics.Trend)
	require.Len(t, metrics.LateDetail, 1)
	assert.Equal(t, "07:40", metrics.LateDetail[0].FirstEntry)
}

func TestMonthlyMetricsTrendBoundaries(t *testing.T) {
	// 10 working days: Nov 1 through Nov 14 2024 spans exactly 10 weekdays.
	now := time.Date(2024, 11, 14, 18, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		present int
		rate    int
		trend   models.TrendLabel
	}{
		{"ninety is excellent", 9, 90, models.TrendExcellent},
		{"eighty is good", 8, 80, models.TrendGood},
		{"below eighty is low", 7, 70, models.TrendLow},
	}
	weekdays := []int{1, 4, 5, 6, 7, 8, 11, 12, 13, 14}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			events := &mockEventRepo{events: map[string][]models.AttendanceEvent{}}
			for _, d := range weekdays[:tc.present] {
				day := time.Date(2024, 11, d, 0, 0, 0, 0, time.UTC)
				events.events["stu-1"] = append(events.events["stu-1"],
					event("stu-1", day, "07:00", models.EventKindEntry))
			}
			svc := newAttendanceService(events, &mockStudentRepo{}, now)
			metrics, err := svc.MonthlyMetrics(context.Background(), "stu-1")
			require.NoError(t, err)
			assert.Equal(t, tc.rate, metrics.AttendanceRate)
			assert.Equal(t, tc.trend, metrics.Trend)
		})
	}
}

func TestMonthlyMetricsEmptyMonth(t *testing.T) {
	now := time.Date(2024, 11, 8, 16, 0, 0, 0, time.UTC)
	svc := newAttendanceService(&mockEventRepo{}, &mockStudentRepo{}, now)

	metrics, err := svc.MonthlyMetrics(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 0, metrics.DaysPresent)
	assert.Equal(t, 6, metrics.DaysAbsent)
	assert.Equal(t, 0, metrics.AttendanceRate)
	assert.Equal(t, models.TrendLow, metrics.Trend)
	assert.Empty(t, metrics.LateDetail)
}

func TestMonthlyMetricsZeroWorkingDays(t *testing.T) {
	// June 1st 2025 is a Sunday: no working day has elapsed yet, so the
	// rate reads 100 rather than dividing by zero.
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc := newAttendanceService(&mockEventRepo{}, &mockStudentRepo{}, now)

	metrics, err := svc.MonthlyMetrics(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 0, metrics.WorkingDays)
	assert.Equal(t, 0, metrics.DaysAbsent)
	assert.Equal(t, 100, metrics.AttendanceRate)
	assert.Equal(t, models.TrendExcellent, metrics.Trend)
}

func TestMonthlyMetricsIdempotentUnderFixedClock(t *testing.T) {
	now := time.Date(2024, 11, 8, 16, 0, 0, 0, time.UTC)
	day := time.Date(2024, 11, 4, 0, 0, 0, 0, time.UTC)
	events := &mockEventRepo{events: map[string][]models.AttendanceEvent{
		"stu-1": {
			event("stu-1", day, "07:00", models.EventKindEntry),
			event("stu-1", day, "13:00", models.EventKindExit),
		},
	}}
	svc := newAttendanceService(events, &mockStudentRepo{}, now)

	first, err := svc.MonthlyMetrics(context.Background(), "stu-1")
	require.NoError(t, err)
	second, err := svc.MonthlyMetrics(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMonthlyMetricsFetchFailure(t *testing.T) {
	now := time.Date(2024, 11, 8, 16, 0, 0, 0, time.UTC)
	events := &mockEventRepo{errFor: map[string]error{"stu-1": errors.New("connection refused")}}
	svc := newAttendanceService(events, &mockStudentRepo{}, now)

	_, err := svc.MonthlyMetrics(context.Background(), "stu-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrMetricsUnavailable.Code, appErr.Code)
}

func TestTimeOnCampusAverages(t *testing.T) {
	now := time.Date(2024, 11, 8, 16, 0, 0, 0, time.UTC)
	events := &mockEventRepo{events: map[string][]models.AttendanceEvent{}}
	// Two full days and one day with a lone entry inside the window.
	for i, d := range []int{4, 5} {
		day := time.Date(2024, 11, d, 0, 0, 0, 0, time.UTC)
		exit := "13:00"
		if i == 1 {
			exit = "14:00"
		}
		events.events["stu-1"] = append(events.events["stu-1"],
			event("stu-1", day, "07:00", models.EventKindEntry),
			event("stu-1", day, exit, models.EventKindExit),
		)
	}
	lone := time.Date(2024, 11, 6, 0, 0, 0, 0, time.UTC)
	events.events["stu-1"] = append(events.events["stu-1"],
		event("stu-1", lone, "07:00", models.EventKindEntry))

	svc := newAttendanceService(events, &mockStudentRepo{}, now)
	summary, err := svc.TimeOnCampus(context.Background(), "stu-1")
	require.NoError(t, err)

	assert.Equal(t, 7, summary.WindowDays)
	assert.Equal(t, 2, summary.CountedDays)
	assert.Equal(t, 13*time.Hour, summary.TotalDuration)
	assert.Equal(t, 6*time.Hour+30*time.Minute, summary.AverageDuration)

	parts := models.Split(summary.AverageDuration)
	assert.Equal(t, 6, parts.Hours)
	assert.Equal(t, 30, parts.Minutes)
}

func TestTimeOnCampusIncludesOldestWindowDay(t *testing.T) {
	// The clock carries a wall-clock time; midnight-dated events on the
	// window's first day must still fall inside the range.
	now := time.Date(2024, 11, 8, 16, 0, 0, 0, time.UTC)
	oldest := time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC)
	events := &mockEventRepo{events: map[string][]models.AttendanceEvent{
		"stu-1": {
			event("stu-1", oldest, "07:00", models.EventKindEntry),
			event("stu-1", oldest, "13:00", models.EventKindExit),
		},
	}}
	svc := newAttendanceService(events, &mockStudentRepo{}, now)

	summary, err := svc.TimeOnCampus(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.CountedDays)
	assert.Equal(t, 6*time.Hour, summary.TotalDuration)
}

func TestTimeOnCampusEmptyWindow(t *testing.T) {
	now := time.Date(2024, 11, 8, 16, 0, 0, 0, time.UTC)
	svc := newAttendanceService(&mockEventRepo{}, &mockStudentRepo{}, now)

	summary, err := svc.TimeOnCampus(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Zero(t, summary.CountedDays)
	assert.Zero(t, summary.TotalDuration)
	assert.Zero(t, summary.AverageDuration)
}

func TestCompareWithCohortExcludesFailedMembers(t *testing.T) {
	now := time.Date(2024, 11, 8, 16, 0, 0, 0, time.UTC)
	self := &models.Student{ID: "stu-1", Grade: "3", Section: "A"}
	cohort := []models.Student{
		{ID: "stu-1", Grade: "3", Section: "A"},
		{ID: "stu-2", Grade: "3", Section: "A"},
		{ID: "stu-3", Grade: "3", Section: "A"},
	}

	events := &mockEventRepo{
		events: map[string][]models.AttendanceEvent{},
		errFor: map[string]error{"stu-3": errors.New("connection refused")},
	}
	for _, id := range []string{"stu-1", "stu-2"} {
		for _, d := range []int{4, 5, 6, 7, 8} {
			day := time.Date(2024, 11, d, 0, 0, 0, 0, time.UTC)
			events.events[id] = append(events.events[id],
				event(id, day, "07:00", models.EventKindEntry))
		}
	}

	students := &mockStudentRepo{students: map[string]*models.Student{"stu-1": self}, cohort: cohort}
	svc := newAttendanceService(events, students, now)

	comparison, err := svc.CompareWithCohort(context.Background(), "stu-1")
	require.NoError(t, err)
	require.NotNil(t, comparison.Cohort)
	assert.Equal(t, 2, comparison.Cohort.SampleSize)
	assert.InDelta(t, 5.0, comparison.Cohort.DaysPresent, 0.001)
	assert.InDelta(t, 83.0, comparison.Cohort.Rate, 0.001)
	assert.True(t, comparison.AboveAverage)
}

func TestCompareWithCohortNoValidMembers(t *testing.T) {
	now := time.Date(2024, 11, 8, 16, 0, 0, 0, time.UTC)
	self := &models.Student{ID: "stu-1", Grade: "3", Section: "A"}
	cohort := []models.Student{{ID: "stu-2", Grade: "3", Section: "A"}}

	events := &mockEventRepo{
		events: map[string][]models.AttendanceEvent{
			"stu-1": {event("stu-1", time.Date(2024, 11, 4, 0, 0, 0, 0, time.UTC), "07:00", models.EventKindEntry)},
		},
		errFor: map[string]error{"stu-2": errors.New("connection refused")},
	}
	students := &mockStudentRepo{students: map[string]*models.Student{"stu-1": self}, cohort: cohort}
	svc := newAttendanceService(events, students, now)

	comparison, err := svc.CompareWithCohort(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Nil(t, comparison.Cohort)
	assert.False(t, comparison.AboveAverage)
	assert.NotNil(t, comparison.Student)
}

func TestCompareWithCohortUnknownStudent(t *testing.T) {
	now := time.Date(2024, 11, 8, 16, 0, 0, 0, time.UTC)
	svc := newAttendanceService(&mockEventRepo{}, &mockStudentRepo{}, now)

	_, err := svc.CompareWithCohort(context.Background(), "missing")
	require.Error(t, err)
}
