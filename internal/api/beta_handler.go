package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"aadc-backend-go/internal/core"
	"aadc-backend-go/internal/middleware"
	"aadc-backend-go/internal/models"
)

// BetaHandler handles beta access request submissions.
type BetaHandler struct {
	betaService core.BetaService
	logger      *zap.Logger
}

// NewBetaHandler creates a new BetaHandler.
func NewBetaHandler(betaService core.BetaService, logger *zap.Logger) *BetaHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BetaHandler{betaService: betaService, logger: logger}
}

// Submit handles POST /api/v1/beta/requests. Authentication is optional:
// an anonymous visitor can request access too, their record just is not
// linked to a user document.
func (h *BetaHandler) Submit(c *gin.Context) {
	var form models.BetaRequestForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	userID := ""
	if profile, ok := middleware.IdentityFromContext(c); ok {
		userID = profile.UID
	}

	requestID, err := h.betaService.Submit(c.Request.Context(), form, userID)
	if err != nil {
		var invalid *core.ValidationError
		if errors.As(err, &invalid) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Missing or invalid fields",
				Details: invalid.Error(),
			})
			return
		}
		h.logger.Error("failed to submit beta request", zap.String("uid", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to submit request"})
		return
	}

	betaSubmissions.Inc()
	c.JSON(http.StatusCreated, BetaSubmitResponse{
		RequestID: requestID,
		Status:    models.BetaStatusPending,
	})
}
