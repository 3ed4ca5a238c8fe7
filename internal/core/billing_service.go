package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"aadc-backend-go/internal/db"
	"aadc-backend-go/internal/models"
)

// ErrPaymentsDisabled is returned while paid checkout is gated off. The
// pricing page shows paid tiers as "Coming Soon"; the only way credits or
// plans change today is through the grant webhook.
var ErrPaymentsDisabled = errors.New("payments are disabled")

// ErrUnknownPlan is returned when a grant names a plan outside the closed
// enumeration, or tries to grant the free tier.
var ErrUnknownPlan = errors.New("unknown or ungrantable plan")

// billingService implements the BillingService interface.
type billingService struct {
	userRepo db.UserRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewBillingService creates a new BillingService instance.
func NewBillingService(userRepo db.UserRepository, logger *zap.Logger) BillingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &billingService{
		userRepo: userRepo,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateCheckoutSession would start a payment-provider checkout flow.
// Checkout is currently disabled for all plans.
func (s *billingService) CreateCheckoutSession(ctx context.Context, userID string, plan models.Plan) (string, error) {
	s.logger.Info("checkout attempted while payments are disabled",
		zap.String("uid", userID), zap.String("plan", string(plan)))
	return "", ErrPaymentsDisabled
}

// GrantPlan applies a plan purchase to the user record: plan changes, the
// plan's credit allotment is added, and a purchase entry is appended. This
// is the entry point the external billing process calls; nothing else in
// the system writes plan or purchases.
func (s *billingService) GrantPlan(ctx context.Context, userID string, plan models.Plan, sessionID string) (*models.Purchase, error) {
	if !plan.Valid() || plan == models.PlanFree {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownPlan, plan)
	}

	details := plan.Details()
	purchase := models.Purchase{
		ID:              uuid.NewString(),
		Plan:            plan,
		Credits:         details.Credits,
		Amount:          details.Amount,
		Date:            s.now().UTC(),
		StripeSessionID: sessionID,
	}

	if err := s.userRepo.ApplyGrant(ctx, userID, plan, details.Credits, purchase); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s'", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to grant plan '%s' to user '%s': %w", plan, userID, err)
	}

	s.logger.Info("plan granted",
		zap.String("uid", userID),
		zap.String("plan", string(plan)),
		zap.Int64("credits", details.Credits),
		zap.String("purchaseId", purchase.ID))
	return &purchase, nil
}
