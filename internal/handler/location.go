package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/noline/locationd/internal/errors"
	"github.com/noline/locationd/internal/models"
)

// LocationService is the coordinator surface the location handler needs.
type LocationService interface {
	Acquire(ctx context.Context) (*models.LocationRecord, error)
	LastKnown() *models.LocationRecord
}

// LocationHandler serves the last-known location and on-demand refreshes.
type LocationHandler struct {
	service LocationService
}

// NewLocationHandler creates a location handler.
func NewLocationHandler(svc LocationService) *LocationHandler {
	return &LocationHandler{service: svc}
}

// GetLocation handles GET /api/v1/location requests.
func (h *LocationHandler) GetLocation(c *gin.Context) {
	rec := h.service.LastKnown()
	if rec == nil {
		writeError(c, apperrors.NewNotFoundError("location"))
		return
	}
	c.JSON(http.StatusOK, rec)
}

// RefreshLocation handles POST /api/v1/location/refresh requests.
func (h *LocationHandler) RefreshLocation(c *gin.Context) {
	rec, err := h.service.Acquire(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// writeError maps application errors onto HTTP responses. Errors outside the
// taxonomy are normalized to an internal error so every response carries the
// same shape.
func writeError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.NewInternalError("internal server error", err)
	}
	c.JSON(appErr.HTTPStatus, gin.H{
		"error":     appErr.Message,
		"code":      appErr.Code,
		"retryable": appErr.Retryable(),
	})
}
