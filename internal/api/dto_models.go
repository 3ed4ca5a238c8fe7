package api

import "aadc-backend-go/internal/models"

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BetaSubmitResponse returns the ID of the recorded beta request.
type BetaSubmitResponse struct {
	RequestID string `json:"requestId"`
	Status    string `json:"status"`
}

// CLIAuthorizeRequest is the body for authorize/deny posts in the device
// authorization handshake.
type CLIAuthorizeRequest struct {
	Callback string `json:"callback"`
}

// CLIAuthContextResponse describes the handshake state to the consent page.
// Exactly one of RedirectURL (login needed) or Profile (consent pending) is
// set, keyed by Status.
type CLIAuthContextResponse struct {
	Status      string              `json:"status"`
	RedirectURL string              `json:"redirectUrl,omitempty"`
	Profile     *models.ProfileView `json:"profile,omitempty"`
}

// CLIRedirectResponse carries the final redirect target of the handshake.
type CLIRedirectResponse struct {
	Status      string `json:"status"`
	RedirectURL string `json:"redirectUrl"`
}

// CheckoutRequest is the body for checkout session creation.
type CheckoutRequest struct {
	Plan string `json:"plan" binding:"required"`
}

// GrantRequest is the body posted by the external billing process.
type GrantRequest struct {
	UID       string `json:"uid" binding:"required"`
	Plan      string `json:"plan" binding:"required"`
	SessionID string `json:"sessionId"`
}
