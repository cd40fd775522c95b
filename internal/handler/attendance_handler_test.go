package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyon-access/parent-api/internal/middleware"
	"github.com/keyon-access/parent-api/internal/models"
	"github.com/keyon-access/parent-api/internal/service"
	"github.com/keyon-access/parent-api/pkg/storage"
)

type fakeEventRepo struct {
	events []models.AttendanceEvent
}

func (f *fakeEventRepo) ListByStudent(_ context.Context, filter models.AttendanceEventFilter) ([]models.AttendanceEvent, error) {
	var out []models.AttendanceEvent
	for _, event := range f.events {
		if event.StudentID != filter.StudentID || event.Date.Before(filter.DateFrom) || event.Date.After(filter.DateTo) {
			continue
		}
		out = append(out, event)
	}
	return out, nil
}

type fakeRoster struct {
	students map[string]*models.Student
}

func (f *fakeRoster) GetByID(_ context.Context, id string) (*models.Student, error) {
	student, ok := f.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return student, nil
}

func (f *fakeRoster) ListCohort(_ context.Context, _ models.CohortFilter) ([]models.Student, error) {
	var out []models.Student
	for _, student := range f.students {
		out = append(out, *student)
	}
	return out, nil
}

func (f *fakeRoster) ListByGuardian(_ context.Context, guardianID string) ([]models.Student, error) {
	var out []models.Student
	for _, student := range f.students {
		if student.GuardianID != nil && *student.GuardianID == guardianID {
			out = append(out, *student)
		}
	}
	return out, nil
}

func attendanceHandlerFixture() *AttendanceHandler {
	guardian := "parent-1"
	roster := &fakeRoster{students: map[string]*models.Student{
		"stu-1": {
			ID:            "stu-1",
			ControlNumber: "A2024-031",
			FullName:      "Sofia Mendez",
			Grade:         "3",
			Section:       "A",
			Shift:         "MORNING",
			GuardianID:    &guardian,
		},
	}}
	day := time.Date(2024, 11, 4, 0, 0, 0, 0, time.UTC)
	events := &fakeEventRepo{events: []models.AttendanceEvent{
		{StudentID: "stu-1", Date: day, Time: "07:05", Kind: models.EventKindEntry},
		{StudentID: "stu-1", Date: day, Time: "13:30", Kind: models.EventKindExit},
	}}
	now := func() time.Time { return time.Date(2024, 11, 8, 16, 0, 0, 0, time.UTC) }

	attendance := service.NewAttendanceService(events, roster, nil, nil, nil, service.AttendanceServiceConfig{}, now)
	students := service.NewStudentService(roster, nil)
	reports := service.NewReportService(attendance, roster, nil, nil, nil, now)
	return NewAttendanceHandler(students, attendance, reports)
}

func attendanceTestContext(t *testing.T, claims *models.JWTClaims, target string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, rec
}

func TestAttendanceHandlerMonthlyRequiresAuth(t *testing.T) {
	handler := attendanceHandlerFixture()
	c, rec := attendanceTestContext(t, nil, "/students/stu-1/attendance/monthly")

	handler.Monthly(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAttendanceHandlerMonthlyForbiddenForForeignGuardian(t *testing.T) {
	handler := attendanceHandlerFixture()
	claims := &models.JWTClaims{UserID: "parent-9", Role: models.RoleParent}
	c, rec := attendanceTestContext(t, claims, "/students/stu-1/attendance/monthly")

	handler.Monthly(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAttendanceHandlerMonthlySuccess(t *testing.T) {
	handler := attendanceHandlerFixture()
	claims := &models.JWTClaims{UserID: "parent-1", Role: models.RoleParent}
	c, rec := attendanceTestContext(t, claims, "/students/stu-1/attendance/monthly")

	handler.Monthly(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.MonthlyMetrics `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 6, envelope.Data.WorkingDays)
	assert.Equal(t, 1, envelope.Data.DaysPresent)
}

func TestAttendanceHandlerTimeOnCampus(t *testing.T) {
	handler := attendanceHandlerFixture()
	claims := &models.JWTClaims{UserID: "parent-1", Role: models.RoleParent}
	c, rec := attendanceTestContext(t, claims, "/students/stu-1/attendance/time-on-campus")

	handler.TimeOnCampus(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data struct {
			CountedDays int `json:"counted_days"`
			TotalMs     int64
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 1, envelope.Data.CountedDays)
}

func TestAttendanceHandlerReportText(t *testing.T) {
	handler := attendanceHandlerFixture()
	claims := &models.JWTClaims{UserID: "parent-1", Role: models.RoleParent}
	c, rec := attendanceTestContext(t, claims, "/students/stu-1/attendance/report?format=text")

	handler.Report(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "Sofia Mendez")
}

func TestAttendanceHandlerReportRejectsUnknownFormat(t *testing.T) {
	handler := attendanceHandlerFixture()
	claims := &models.JWTClaims{UserID: "parent-1", Role: models.RoleParent}
	c, rec := attendanceTestContext(t, claims, "/students/stu-1/attendance/report?format=docx")

	handler.Report(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceHandlerReportLinkAndDownload(t *testing.T) {
	guardian := "parent-1"
	roster := &fakeRoster{students: map[string]*models.Student{
		"stu-1": {ID: "stu-1", ControlNumber: "A2024-031", FullName: "Sofia Mendez", Grade: "3", Section: "A", Shift: "MORNING", GuardianID: &guardian},
	}}
	events := &fakeEventRepo{}
	now := func() time.Time { return time.Date(2024, 11, 8, 16, 0, 0, 0, time.UTC) }
	store, err := storage.NewReportStore(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewLinkSigner("test-secret", time.Hour)

	attendance := service.NewAttendanceService(events, roster, nil, nil, nil, service.AttendanceServiceConfig{}, now)
	students := service.NewStudentService(roster, nil)
	reports := service.NewReportService(attendance, roster, store, signer, nil, now)
	handler := NewAttendanceHandler(students, attendance, reports)

	claims := &models.JWTClaims{UserID: "parent-1", Role: models.RoleParent}
	c, rec := attendanceTestContext(t, claims, "/students/stu-1/attendance/report/link?format=csv")

	handler.ReportLink(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	var envelope struct {
		Data models.ReportLink `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.Token)
	assert.Equal(t, "stu-1/2024-11.csv", envelope.Data.FileName)

	c, rec = attendanceTestContext(t, nil, "/reports/download?token="+url.QueryEscape(envelope.Data.Token))

	handler.Download(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Body.String(), "Metric,Value")
}

func TestAttendanceHandlerDownloadRejectsBadToken(t *testing.T) {
	handler := attendanceHandlerFixture()
	c, rec := attendanceTestContext(t, nil, "/reports/download?token=bogus")

	handler.Download(c)

	// fixture has no archive configured, so any token is refused
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAttendanceHandlerComparisonStaffAccess(t *testing.T) {
	handler := attendanceHandlerFixture()
	claims := &models.JWTClaims{UserID: "staff-1", Role: models.RoleStaff}
	c, rec := attendanceTestContext(t, claims, "/students/stu-1/attendance/comparison")

	handler.Comparison(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.GroupComparison `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data.Cohort)
	assert.Equal(t, 1, envelope.Data.Cohort.SampleSize)
}
