package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyon-access/parent-api/internal/models"
	appErrors "github.com/keyon-access/parent-api/pkg/errors"
	"github.com/keyon-access/parent-api/pkg/storage"
)

type stubMetricsProvider struct {
	metrics      *models.MonthlyMetrics
	timeOnCampus *models.TimeOnCampusSummary
	err          error
}

func (s *stubMetricsProvider) MonthlyMetrics(_ context.Context, _ string) (*models.MonthlyMetrics, error) {
	return s.metrics, s.err
}

func (s *stubMetricsProvider) TimeOnCampus(_ context.Context, _ string) (*models.TimeOnCampusSummary, error) {
	return s.timeOnCampus, s.err
}

func reportFixture() (*stubMetricsProvider, *mockStudentRepo) {
	metrics := &stubMetricsProvider{
		metrics: &models.MonthlyMetrics{
			StudentID:      "stu-1",
			WorkingDays:    6,
			DaysPresent:    5,
			DaysAbsent:     1,
			LateCount:      1,
			AttendanceRate: 83,
			Trend:          models.TrendGood,
			LateDetail: []models.LateArrival{
				{Date: time.Date(2024, 11, 6, 0, 0, 0, 0, time.UTC), FirstEntry: "07:40"},
			},
		},
		timeOnCampus: &models.TimeOnCampusSummary{
			StudentID:       "stu-1",
			WindowDays:      7,
			TotalDuration:   13 * time.Hour,
			CountedDays:     2,
			AverageDuration: 6*time.Hour + 30*time.Minute,
		},
	}
	students := &mockStudentRepo{students: map[string]*models.Student{
		"stu-1": {
			ID:            "stu-1",
			ControlNumber: "A2024-031",
			FullName:      "Sofia Mendez",
			Grade:         "3",
			Section:       "A",
			Shift:         "MORNING",
		},
	}}
	return metrics, students
}

func TestReportServiceBuild(t *testing.T) {
	metrics, students := reportFixture()
	now := time.Date(2024, 11, 8, 16, 0, 0, 0, time.UTC)
	svc := NewReportService(metrics, students, nil, nil, nil, fixedClock(now))

	report, err := svc.Build(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "Sofia Mendez", report.Student.FullName)
	assert.Equal(t, 83, report.Metrics.AttendanceRate)
	assert.Equal(t, now, report.GeneratedAt)
}

func TestReportServiceBuildUnknownStudent(t *testing.T) {
	metrics, students := reportFixture()
	svc := NewReportService(metrics, students, nil, nil, nil, nil)

	_, err := svc.Build(context.Background(), "missing")
	require.Error(t, err)
}

func TestReportServiceRenderText(t *testing.T) {
	metrics, students := reportFixture()
	now := time.Date(2024, 11, 8, 16, 0, 0, 0, time.UTC)
	svc := NewReportService(metrics, students, nil, nil, nil, fixedClock(now))

	report, err := svc.Build(context.Background(), "stu-1")
	require.NoError(t, err)

	payload, contentType, err := svc.Render(report, models.FormatText)
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=utf-8", contentType)

	text := string(payload)
	assert.Contains(t, text, "Sofia Mendez")
	assert.Contains(t, text, "A2024-031")
	assert.Contains(t, text, "Attendance rate: 83%")
	assert.Contains(t, text, "6h 30m average")
	assert.Contains(t, text, "2024-11-06 at 07:40")
}

func TestReportServiceRenderCSV(t *testing.T) {
	metrics, students := reportFixture()
	svc := NewReportService(metrics, students, nil, nil, nil, nil)

	report, err := svc.Build(context.Background(), "stu-1")
	require.NoError(t, err)

	payload, contentType, err := svc.Render(report, models.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(payload), "Metric,Value")
	assert.Contains(t, string(payload), "Attendance rate,83%")
}

func TestReportServiceRenderPDF(t *testing.T) {
	metrics, students := reportFixture()
	svc := NewReportService(metrics, students, nil, nil, nil, nil)

	report, err := svc.Build(context.Background(), "stu-1")
	require.NoError(t, err)

	payload, contentType, err := svc.Render(report, models.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, len(payload) > 0)
}

func TestReportServiceArchiveAndFetch(t *testing.T) {
	metrics, students := reportFixture()
	now := time.Date(2024, 11, 8, 16, 0, 0, 0, time.UTC)
	store, err := storage.NewReportStore(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewLinkSigner("test-secret", time.Hour)
	svc := NewReportService(metrics, students, store, signer, nil, fixedClock(now))

	link, err := svc.Archive(context.Background(), "stu-1", models.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "stu-1/2024-11.csv", link.FileName)
	assert.Equal(t, "text/csv", link.ContentType)
	assert.NotEmpty(t, link.Token)

	file, contentType, err := svc.FetchArchived(link.Token)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, "text/csv", contentType)

	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Attendance rate,83%")
}

func TestReportServiceFetchArchivedRejectsBadToken(t *testing.T) {
	metrics, students := reportFixture()
	store, err := storage.NewReportStore(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewLinkSigner("test-secret", time.Hour)
	svc := NewReportService(metrics, students, store, signer, nil, nil)

	_, _, err = svc.FetchArchived("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReportServiceArchiveDisabled(t *testing.T) {
	metrics, students := reportFixture()
	svc := NewReportService(metrics, students, nil, nil, nil, nil)

	_, err := svc.Archive(context.Background(), "stu-1", models.FormatPDF)
	require.ErrorIs(t, err, appErrors.ErrArchiveDisabled)
}

func TestReportServiceRenderUnknownFormat(t *testing.T) {
	metrics, students := reportFixture()
	svc := NewReportService(metrics, students, nil, nil, nil, nil)

	report, err := svc.Build(context.Background(), "stu-1")
	require.NoError(t, err)

	_, _, err = svc.Render(report, models.ReportFormat("XML"))
	require.Error(t, err)
}
