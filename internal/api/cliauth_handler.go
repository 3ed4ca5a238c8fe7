package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"aadc-backend-go/internal/core"
	"aadc-backend-go/internal/middleware"
	"aadc-backend-go/internal/models"
)

// CLIAuthHandler drives the device-authorization handshake over HTTP. The
// consent page is rendered by the web client; these endpoints supply its
// state and execute the authorize/deny transitions.
type CLIAuthHandler struct {
	authorize    *core.AuthorizeService
	ledger       core.LedgerService
	auditService core.AuditService
	clientURL    string
	logger       *zap.Logger
}

// NewCLIAuthHandler creates a new CLIAuthHandler.
func NewCLIAuthHandler(authorize *core.AuthorizeService, ledger core.LedgerService, auditService core.AuditService, clientURL string, logger *zap.Logger) *CLIAuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CLIAuthHandler{
		authorize:    authorize,
		ledger:       ledger,
		auditService: auditService,
		clientURL:    clientURL,
		logger:       logger,
	}
}

// GetContext handles GET /api/v1/cli/authorize?callback=... with optional
// authentication. An anonymous visit resolves to a login redirect that
// preserves the full authorization URL; an authenticated one returns the
// consent profile.
func (h *CLIAuthHandler) GetContext(c *gin.Context) {
	callback := c.Query("callback")
	flow := h.authorize.NewFlow(callback, h.authPageURL(callback))

	profile, authenticated := middleware.IdentityFromContext(c)
	if !authenticated {
		if err := flow.Resolve(nil); err != nil {
			h.internalError(c, "", err)
			return
		}
		loginURL, err := flow.LoginRedirectURL()
		if err != nil {
			h.internalError(c, "", err)
			return
		}
		c.JSON(http.StatusOK, CLIAuthContextResponse{
			Status:      string(core.StateRedirectingToLogin),
			RedirectURL: loginURL,
		})
		return
	}

	view, err := h.sessionProfile(c, profile)
	if err != nil {
		h.internalError(c, profile.UID, err)
		return
	}
	if err := flow.Resolve(view); err != nil {
		h.internalError(c, profile.UID, err)
		return
	}
	consent, err := flow.ConsentProfile()
	if err != nil {
		h.internalError(c, profile.UID, err)
		return
	}
	c.JSON(http.StatusOK, CLIAuthContextResponse{
		Status:  string(core.StateAwaitingConsent),
		Profile: consent,
	})
}

// Authorize handles POST /api/v1/cli/authorize. Requires authentication.
// On success the response carries the one-shot callback redirect URL with
// the encoded credential bundle.
func (h *CLIAuthHandler) Authorize(c *gin.Context) {
	profile, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication error: identity not found in context"})
		return
	}

	var req CLIAuthorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	view, err := h.sessionProfile(c, profile)
	if err != nil {
		h.internalError(c, profile.UID, err)
		return
	}

	flow := h.authorize.NewFlow(req.Callback, h.authPageURL(req.Callback))
	if err := flow.Resolve(view); err != nil {
		h.internalError(c, profile.UID, err)
		return
	}

	redirectURL, err := flow.Authorize()
	if err != nil {
		if errors.Is(err, core.ErrInvalidCallback) {
			c.JSON(http.StatusBadRequest, CLIRedirectResponse{Status: string(core.StateError)})
			return
		}
		h.internalError(c, profile.UID, err)
		return
	}

	cliAuthorizations.WithLabelValues("authorized").Inc()
	h.audit(c, models.AuditLog{
		UserID: profile.UID,
		Action: models.AuditActionCLIAuthorize,
		Details: map[string]interface{}{
			"callbackHost": callbackHost(req.Callback),
		},
	})

	c.JSON(http.StatusOK, CLIRedirectResponse{
		Status:      string(core.StateSuccess),
		RedirectURL: redirectURL,
	})
}

// Deny handles POST /api/v1/cli/deny. The denial is not persisted anywhere;
// only the redirect target comes back.
func (h *CLIAuthHandler) Deny(c *gin.Context) {
	profile, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication error: identity not found in context"})
		return
	}

	var req CLIAuthorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	view, err := h.sessionProfile(c, profile)
	if err != nil {
		h.internalError(c, profile.UID, err)
		return
	}

	flow := h.authorize.NewFlow(req.Callback, h.authPageURL(req.Callback))
	if err := flow.Resolve(view); err != nil {
		h.internalError(c, profile.UID, err)
		return
	}
	redirectURL, err := flow.Deny()
	if err != nil {
		h.internalError(c, profile.UID, err)
		return
	}

	cliAuthorizations.WithLabelValues("denied").Inc()
	c.JSON(http.StatusOK, CLIRedirectResponse{
		Status:      string(core.StateError),
		RedirectURL: redirectURL,
	})
}

// sessionProfile materializes the consent profile for the authenticated
// identity, lazily creating the user record on a first-ever sign-in (the
// same behavior the web client's session listener has).
func (h *CLIAuthHandler) sessionProfile(c *gin.Context, profile models.IdentityProfile) (*models.ProfileView, error) {
	user, _, err := h.ledger.FetchOrCreate(c.Request.Context(), profile)
	if err != nil {
		return nil, err
	}
	return user.View(), nil
}

// authPageURL rebuilds the web client's authorization page URL so a login
// redirect can resume the handshake with the callback intact.
func (h *CLIAuthHandler) authPageURL(callback string) string {
	u := h.clientURL + "/auth/cli"
	if callback != "" {
		u += "?callback=" + url.QueryEscape(callback)
	}
	return u
}

func (h *CLIAuthHandler) internalError(c *gin.Context, uid string, err error) {
	h.logger.Error("device authorization failed", zap.String("uid", uid), zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Authorization failed"})
}

func (h *CLIAuthHandler) audit(c *gin.Context, entry models.AuditLog) {
	if h.auditService == nil {
		return
	}
	entry.IPAddress = c.ClientIP()
	if err := h.auditService.CreateAuditLog(c.Request.Context(), entry); err != nil {
		h.logger.Warn("failed to write audit log", zap.String("action", entry.Action), zap.Error(err))
	}
}

func callbackHost(callback string) string {
	u, err := url.Parse(callback)
	if err != nil {
		return ""
	}
	return u.Host
}
