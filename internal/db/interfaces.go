package db

import (
	"context"

	"aadc-backend-go/internal/models"
)

// UserRepository defines the storage operations on user documents. The
// record-store contract is deliberately narrow: get-by-id, set-with-merge,
// and relative increment are the only primitives in play.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	// TouchLastLogin advances lastLoginAt and nothing else.
	TouchLastLogin(ctx context.Context, userID string) error
	// MergeFields applies a partial merge write; fields not named are left
	// untouched.
	MergeFields(ctx context.Context, userID string, fields map[string]interface{}) error
	// DeductCredit atomically decrements credits by 1 when the balance is
	// positive, returning the new balance. Returns ErrInsufficientCredits
	// without writing when the balance is already zero.
	DeductCredit(ctx context.Context, userID string) (int64, error)
	// ApplyGrant sets the plan, adds the granted credits, and appends the
	// purchase to the history in a single write.
	ApplyGrant(ctx context.Context, userID string, plan models.Plan, credits int64, purchase models.Purchase) error
}

// BetaRequestRepository defines storage operations for beta requests.
type BetaRequestRepository interface {
	Create(ctx context.Context, req *models.BetaRequest) error
}

// AuditRepository defines the interface for audit log storage.
type AuditRepository interface {
	Create(ctx context.Context, logEntry models.AuditLog) error
}
