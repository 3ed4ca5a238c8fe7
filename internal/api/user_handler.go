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

// UserHandler handles user-profile related API endpoints.
type UserHandler struct {
	ledger       core.LedgerService
	auditService core.AuditService
	logger       *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(ledger core.LedgerService, auditService core.AuditService, logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{ledger: ledger, auditService: auditService, logger: logger}
}

// InitializeProfile handles POST /api/v1/users/initialize. The web client
// calls this after every identity-provider sign-in: it creates the user
// document on first login (free-tier defaults) and refreshes lastLoginAt
// on subsequent ones.
func (h *UserHandler) InitializeProfile(c *gin.Context) {
	profile, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication error: identity not found in context"})
		return
	}

	user, created, err := h.ledger.FetchOrCreate(c.Request.Context(), profile)
	if err != nil {
		h.logger.Error("failed to initialize user profile", zap.String("uid", profile.UID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to initialize user profile"})
		return
	}

	if created {
		h.audit(c, models.AuditLog{
			UserID: user.ID,
			Action: models.AuditActionUserCreate,
		})
		c.JSON(http.StatusCreated, user)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetCurrentProfile handles GET /api/v1/users/me.
func (h *UserHandler) GetCurrentProfile(c *gin.Context) {
	profile, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication error: identity not found in context"})
		return
	}

	user, err := h.ledger.GetUser(c.Request.Context(), profile.UID)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "User profile not found"})
			return
		}
		h.logger.Error("failed to fetch user profile", zap.String("uid", profile.UID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve user profile"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) audit(c *gin.Context, entry models.AuditLog) {
	if h.auditService == nil {
		return
	}
	entry.IPAddress = c.ClientIP()
	if err := h.auditService.CreateAuditLog(c.Request.Context(), entry); err != nil {
		h.logger.Warn("failed to write audit log", zap.String("action", entry.Action), zap.Error(err))
	}
}
