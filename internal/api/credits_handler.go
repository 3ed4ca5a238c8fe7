package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"aadc-backend-go/internal/core"
)

// CreditsHandler serves the public credit query endpoint the CLI polls
// during normal operation: GET /api/credits?uid=USER_ID&action=ACTION.
//
// The response contract predates this backend and is consumed by released
// CLI builds, so shapes and error strings below are load-bearing. Every
// contract outcome answers HTTP 200; the CLI switches on the `success`
// field, not the status code.
type CreditsHandler struct {
	ledger core.LedgerService
	logger *zap.Logger
}

// NewCreditsHandler creates a new CreditsHandler.
func NewCreditsHandler(ledger core.LedgerService, logger *zap.Logger) *CreditsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreditsHandler{ledger: ledger, logger: logger}
}

// Handle dispatches on the action parameter: get (default), deduct, sync.
func (h *CreditsHandler) Handle(c *gin.Context) {
	uid := c.Query("uid")
	if uid == "" {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "Missing uid parameter"})
		return
	}

	action := c.DefaultQuery("action", "get")
	ctx := c.Request.Context()

	switch action {
	case "get":
		balance, err := h.ledger.GetBalance(ctx, uid)
		if err != nil {
			h.respondError(c, uid, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "credits": balance})

	case "deduct":
		newBalance, err := h.ledger.Deduct(ctx, uid)
		if err != nil {
			if errors.Is(err, core.ErrInsufficientCredits) {
				creditDeductions.WithLabelValues("insufficient").Inc()
				c.JSON(http.StatusOK, gin.H{"success": false, "credits": 0, "error": "No credits remaining"})
				return
			}
			creditDeductions.WithLabelValues("error").Inc()
			h.respondError(c, uid, err)
			return
		}
		creditDeductions.WithLabelValues("ok").Inc()
		c.JSON(http.StatusOK, gin.H{"success": true, "credits": newBalance, "deducted": 1})

	case "sync":
		view, err := h.ledger.Sync(ctx, uid)
		if err != nil {
			h.respondError(c, uid, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"uid":         view.UID,
			"email":       view.Email,
			"displayName": view.DisplayName,
			"credits":     view.Credits,
			"plan":        view.Plan,
			"photoURL":    view.PhotoURL,
		})

	default:
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "Invalid action"})
	}
}

func (h *CreditsHandler) respondError(c *gin.Context, uid string, err error) {
	if errors.Is(err, core.ErrUserNotFound) {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "User not found"})
		return
	}
	// Store unavailability propagates to the CLI as a failed call; retry
	// policy stays on the caller's side.
	h.logger.Error("credits endpoint backend failure", zap.String("uid", uid), zap.Error(err))
	c.JSON(http.StatusOK, gin.H{"success": false, "error": "Backend unavailable"})
}
