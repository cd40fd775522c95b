package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/keyon-access/parent-api/internal/service"
	appErrors "github.com/keyon-access/parent-api/pkg/errors"
	"github.com/keyon-access/parent-api/pkg/response"
)

// PermitHandler exposes a student's permits to their guardian.
type PermitHandler struct {
	students *service.StudentService
	permits  *service.PermitService
}

// NewPermitHandler constructs the handler.
func NewPermitHandler(students *service.StudentService, permits *service.PermitService) *PermitHandler {
	return &PermitHandler{students: students, permits: permits}
}

// Bathroom godoc
// @Summary Today's bathroom permits
// @Tags Permits
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{id}/permits/bathroom [get]
func (h *PermitHandler) Bathroom(c *gin.Context) {
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
	permits, err := h.permits.BathroomToday(c.Request.Context(), student.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, permits, nil)
}

// Special godoc
// @Summary Recent special permits
// @Tags Permits
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param days query int false "Trailing window in days" default(30)
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{id}/permits/special [get]
func (h *PermitHandler) Special(c *gin.Context) {
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
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	permits, err := h.permits.Special(c.Request.Context(), student.ID, days)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, permits, nil)
}
