package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noline/locationd/internal/gate"
	"github.com/noline/locationd/internal/models"
)

// PermissionService is the coordinator surface the permission handler needs.
type PermissionService interface {
	RequestAccess(ctx context.Context) (gate.Decision, error)
	PermissionStatus(ctx context.Context) (models.PermissionState, error)
	OpenSystemSettings(ctx context.Context) error
}

// PermissionHandler serves permission state queries, prompt requests, and
// the open-settings recovery path after a denial.
type PermissionHandler struct {
	service PermissionService
}

// NewPermissionHandler creates a permission handler.
func NewPermissionHandler(svc PermissionService) *PermissionHandler {
	return &PermissionHandler{service: svc}
}

// GetPermission handles GET /api/v1/permission requests.
func (h *PermissionHandler) GetPermission(c *gin.Context) {
	state, err := h.service.PermissionStatus(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

// RequestPermission handles POST /api/v1/permission/request requests.
// A skipped decision is a successful response, not an error: the throttling
// policy suppressed the prompt and the caller should not retry immediately.
func (h *PermissionHandler) RequestPermission(c *gin.Context) {
	decision, err := h.service.RequestAccess(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

// OpenSettings handles POST /api/v1/permission/settings requests.
func (h *PermissionHandler) OpenSettings(c *gin.Context) {
	if err := h.service.OpenSystemSettings(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "settings opened"})
}
