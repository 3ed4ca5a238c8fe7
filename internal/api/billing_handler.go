package api

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"aadc-backend-go/internal/core"
	"aadc-backend-go/internal/middleware"
	"aadc-backend-go/internal/models"
)

// BillingHandler handles billing-related API endpoints. Checkout is gated
// off while paid plans are "Coming Soon"; the grant webhook is the only
// live mutation path, reserved for the external billing process.
type BillingHandler struct {
	billingService core.BillingService
	auditService   core.AuditService
	webhookSecret  string
	logger         *zap.Logger
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(billingService core.BillingService, auditService core.AuditService, webhookSecret string, logger *zap.Logger) *BillingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillingHandler{
		billingService: billingService,
		auditService:   auditService,
		webhookSecret:  webhookSecret,
		logger:         logger,
	}
}

// CreateCheckoutSession handles POST /api/v1/billing/checkout.
func (h *BillingHandler) CreateCheckoutSession(c *gin.Context) {
	profile, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication error: identity not found in context"})
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}
	plan, valid := models.ParsePlan(req.Plan)
	if !valid {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Unknown plan"})
		return
	}

	_, err := h.billingService.CreateCheckoutSession(c.Request.Context(), profile.UID, plan)
	if err != nil {
		if errors.Is(err, core.ErrPaymentsDisabled) {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Payments are not available yet"})
			return
		}
		h.logger.Error("checkout session creation failed", zap.String("uid", profile.UID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create checkout session"})
		return
	}
	// Unreachable while checkout is disabled; kept for when payments land.
	c.JSON(http.StatusOK, SuccessResponse{Message: "Checkout session created"})
}

// HandleGrantWebhook handles POST /api/v1/billing/webhooks/grant. This is
// the door the external billing process uses to apply a paid plan; it is
// authenticated by a shared secret header, not a user token.
func (h *BillingHandler) HandleGrantWebhook(c *gin.Context) {
	if h.webhookSecret == "" {
		h.logger.Warn("grant webhook called but BILLING_WEBHOOK_SECRET is not configured")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Webhook not configured"})
		return
	}
	provided := c.GetHeader("X-Billing-Signature")
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.webhookSecret)) != 1 {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid webhook signature"})
		return
	}

	var req GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}
	plan, valid := models.ParsePlan(req.Plan)
	if !valid {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Unknown plan"})
		return
	}

	purchase, err := h.billingService.GrantPlan(c.Request.Context(), req.UID, plan, req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrUserNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
		case errors.Is(err, core.ErrUnknownPlan):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Unknown or ungrantable plan"})
		default:
			h.logger.Error("plan grant failed", zap.String("uid", req.UID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to apply grant"})
		}
		return
	}

	if h.auditService != nil {
		entry := models.AuditLog{
			UserID: req.UID,
			Action: models.AuditActionPlanGrant,
			Details: map[string]interface{}{
				"plan":       string(plan),
				"purchaseId": purchase.ID,
			},
		}
		if auditErr := h.auditService.CreateAuditLog(c.Request.Context(), entry); auditErr != nil {
			h.logger.Warn("failed to write audit log", zap.String("action", entry.Action), zap.Error(auditErr))
		}
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Grant applied", Data: purchase})
}
