package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/keyon-access/parent-api/internal/dto"
	"github.com/keyon-access/parent-api/internal/models"
	"github.com/keyon-access/parent-api/internal/service"
	appErrors "github.com/keyon-access/parent-api/pkg/errors"
	"github.com/keyon-access/parent-api/pkg/response"
)

// AttendanceHandler exposes derived attendance metrics for a student.
type AttendanceHandler struct {
	students   *service.StudentService
	attendance *service.AttendanceService
	reports    *service.ReportService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(students *service.StudentService, attendance *service.AttendanceService, reports *service.ReportService) *AttendanceHandler {
	return &AttendanceHandler{students: students, attendance: attendance, reports: reports}
}

func (h *AttendanceHandler) authorize(c *gin.Context) (*models.Student, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	student, err := h.students.Authorize(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return student, true
}

// Monthly godoc
// @Summary Month-to-date attendance metrics
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /students/{id}/attendance/monthly [get]
func (h *AttendanceHandler) Monthly(c *gin.Context) {
	student, ok := h.authorize(c)
	if !ok {
		return
	}
	metrics, err := h.attendance.MonthlyMetrics(c.Request.Context(), student.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, metrics, nil)
}

// TimeOnCampus godoc
// @Summary Trailing time-on-campus summary
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /students/{id}/attendance/time-on-campus [get]
func (h *AttendanceHandler) TimeOnCampus(c *gin.Context) {
	student, ok := h.authorize(c)
	if !ok {
		return
	}
	summary, err := h.attendance.TimeOnCampus(c.Request.Context(), student.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewTimeOnCampusResponse(summary), nil)
}

// Comparison godoc
// @Summary Compare a student with their group
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{id}/attendance/comparison [get]
func (h *AttendanceHandler) Comparison(c *gin.Context) {
	student, ok := h.authorize(c)
	if !ok {
		return
	}
	comparison, err := h.attendance.CompareWithCohort(c.Request.Context(), student.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comparison, nil)
}

// Report godoc
// @Summary Monthly attendance report
// @Description Renders the monthly report as text, PDF, or CSV
// @Tags Attendance
// @Produce plain
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param format query string false "TEXT, PDF or CSV" default(TEXT)
// @Success 200 {string} string
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{id}/attendance/report [get]
func (h *AttendanceHandler) Report(c *gin.Context) {
	student, ok := h.authorize(c)
	if !ok {
		return
	}
	format := models.ReportFormat(strings.ToUpper(c.DefaultQuery("format", string(models.FormatText))))
	if !format.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report format %q", format)))
		return
	}

	report, err := h.reports.Build(c.Request.Context(), student.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, contentType, err := h.reports.Render(report, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	if format != models.FormatText {
		filename := fmt.Sprintf("attendance-%s-%s.%s", student.ControlNumber, report.GeneratedAt.Format("2006-01"), strings.ToLower(string(format)))
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	c.Data(http.StatusOK, contentType, payload)
}

// ReportLink godoc
// @Summary Archive the monthly report and return a signed download link
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param format query string false "TEXT, PDF or CSV" default(PDF)
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /students/{id}/attendance/report/link [get]
func (h *AttendanceHandler) ReportLink(c *gin.Context) {
	student, ok := h.authorize(c)
	if !ok {
		return
	}
	format := models.ReportFormat(strings.ToUpper(c.DefaultQuery("format", string(models.FormatPDF))))
	if !format.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report format %q", format)))
		return
	}

	link, err := h.reports.Archive(c.Request.Context(), student.ID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}

// Download godoc
// @Summary Download an archived report by signed token
// @Description The token carries its own authorization; no bearer token needed
// @Tags Attendance
// @Produce plain
// @Param token query string true "Signed download token"
// @Success 200 {string} string
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/download [get]
func (h *AttendanceHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token query parameter is required"))
		return
	}

	file, contentType, err := h.reports.FetchArchived(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read archived report"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(file.Name())))
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}
