package core

import (
	"context"

	"aadc-backend-go/internal/models"
)

// LedgerService exposes the credit-ledger operations consumed by both the
// web dashboard and the CLI's query endpoint.
type LedgerService interface {
	// FetchOrCreate ensures a user document exists for the authenticated
	// identity. New documents get the free-tier defaults; existing ones only
	// have lastLoginAt advanced. The bool reports whether a create happened.
	FetchOrCreate(ctx context.Context, profile models.IdentityProfile) (*models.User, bool, error)
	// GetUser returns the full stored record (dashboard view).
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetBalance(ctx context.Context, userID string) (int64, error)
	// Deduct removes exactly one credit, refusing at zero. The decrement is
	// conditional at the store layer, so concurrent callers cannot drive the
	// balance negative.
	Deduct(ctx context.Context, userID string) (int64, error)
	Sync(ctx context.Context, userID string) (*models.ProfileView, error)
}

// BetaService handles beta access request intake.
type BetaService interface {
	// Submit validates and records a beta request. userID may be empty for
	// anonymous submissions. Returns the new request's document ID.
	Submit(ctx context.Context, form models.BetaRequestForm, userID string) (string, error)
}

// BillingService covers plan purchases. Checkout is disabled while paid
// plans are gated; grants arrive through the webhook entry point only.
type BillingService interface {
	CreateCheckoutSession(ctx context.Context, userID string, plan models.Plan) (string, error)
	GrantPlan(ctx context.Context, userID string, plan models.Plan, sessionID string) (*models.Purchase, error)
}

// AuditService records audit trail events.
type AuditService interface {
	CreateAuditLog(ctx context.Context, logEntry models.AuditLog) error
}
