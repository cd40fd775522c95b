package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/keyon-access/parent-api/internal/dto"
	"github.com/keyon-access/parent-api/internal/service"
	appErrors "github.com/keyon-access/parent-api/pkg/errors"
	"github.com/keyon-access/parent-api/pkg/response"
)

// PushHandler manages Web Push subscriptions.
type PushHandler struct {
	push *service.PushService
}

// NewPushHandler constructs the handler.
func NewPushHandler(push *service.PushService) *PushHandler {
	return &PushHandler{push: push}
}

// VAPIDKey godoc
// @Summary VAPID public key
// @Description Key browsers need to create a push subscription
// @Tags Push
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /push/vapid-key [get]
func (h *PushHandler) VAPIDKey(c *gin.Context) {
	key, err := h.push.PublicKey()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.VAPIDKeyResponse{PublicKey: key}, nil)
}

// Subscribe godoc
// @Summary Register a push subscription
// @Tags Push
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.PushSubscribeRequest true "Browser subscription"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /push/subscriptions [put]
func (h *PushHandler) Subscribe(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.PushSubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid subscription payload"))
		return
	}
	if err := h.push.Subscribe(c.Request.Context(), claims.UserID, req.Endpoint, req.Keys.P256DH, req.Keys.Auth); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"endpoint": req.Endpoint})
}

// List godoc
// @Summary List the caller's push subscriptions
// @Tags Push
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /push/subscriptions [get]
func (h *PushHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	subs, err := h.push.Subscriptions(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subs, nil)
}

// Unsubscribe godoc
// @Summary Remove a push subscription
// @Tags Push
// @Produce json
// @Security BearerAuth
// @Param endpoint query string true "Subscription endpoint"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /push/subscriptions [delete]
func (h *PushHandler) Unsubscribe(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	endpoint := c.Query("endpoint")
	if endpoint == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "endpoint is required"))
		return
	}
	if err := h.push.Unsubscribe(c.Request.Context(), claims.UserID, endpoint); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
