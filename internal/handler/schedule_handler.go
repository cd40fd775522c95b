package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/keyon-access/parent-api/internal/service"
	appErrors "github.com/keyon-access/parent-api/pkg/errors"
	"github.com/keyon-access/parent-api/pkg/response"
)

// ScheduleHandler exposes a student's group schedule.
type ScheduleHandler struct {
	students  *service.StudentService
	schedules *service.ScheduleService
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(students *service.StudentService, schedules *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{students: students, schedules: schedules}
}

// Weekly godoc
// @Summary Weekly schedule for a student's group
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{id}/schedule [get]
func (h *ScheduleHandler) Weekly(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	student, err := h.students.Authorize(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.schedules.Weekly(c.Request.Context(), student.Grade, student.Section)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Today godoc
// @Summary Today's schedule for a student's group
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{id}/schedule/today [get]
func (h *ScheduleHandler) Today(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	student, err := h.students.Authorize(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.schedules.Today(c.Request.Context(), student.Grade, student.Section)
	if err != nil {
		response.Error(c, err)
		return
	}
	next, err := h.schedules.NextClass(c.Request.Context(), student.Grade, student.Section)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"entries": entries, "next_class": next}, nil)
}
