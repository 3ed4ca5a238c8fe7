package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"aadc-backend-go/internal/db"
	"aadc-backend-go/internal/models"
)

// ErrUserNotFound is returned when no user record exists for an ID.
var ErrUserNotFound = errors.New("user not found")

// ErrInsufficientCredits is returned by Deduct when the balance is already
// zero. The stored balance is left untouched.
var ErrInsufficientCredits = errors.New("no credits remaining")

// ledgerService implements the LedgerService interface.
type ledgerService struct {
	userRepo db.UserRepository
	logger   *zap.Logger
}

// NewLedgerService creates a new LedgerService instance.
func NewLedgerService(userRepo db.UserRepository, logger *zap.Logger) LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ledgerService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// FetchOrCreate retrieves the user document for the identity, creating it
// with free-tier defaults on first sign-in. For an existing document only
// lastLoginAt is refreshed; credits, plan, purchases and beta fields are
// never overwritten here.
func (s *ledgerService) FetchOrCreate(ctx context.Context, profile models.IdentityProfile) (*models.User, bool, error) {
	if profile.UID == "" {
		return nil, false, errors.New("identity profile UID cannot be empty")
	}

	user, err := s.userRepo.GetByID(ctx, profile.UID)
	if err == nil {
		if touchErr := s.userRepo.TouchLastLogin(ctx, profile.UID); touchErr != nil {
			// Login-time refresh is advisory; the stored record is still good.
			s.logger.Warn("failed to refresh lastLoginAt",
				zap.String("uid", profile.UID), zap.Error(touchErr))
		}
		return user, false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to get user '%s': %w", profile.UID, err)
	}

	now := time.Now().UTC()
	newUser := &models.User{
		ID:          profile.UID,
		Email:       profile.Email,
		DisplayName: displayNameOrDefault(profile.DisplayName),
		PhotoURL:    profile.PhotoURL,
		Credits:     models.FreeTierCredits,
		Plan:        models.PlanFree,
		Purchases:   []models.Purchase{},
		CreatedAt:   now,
		LastLoginAt: now,
		BetaAccess:  false,
	}
	if createErr := s.userRepo.Create(ctx, newUser); createErr != nil {
		if errors.Is(createErr, db.ErrAlreadyExists) {
			// Lost a first-login creation race to another tab or device. Both
			// writers produce equivalent default records; read back the winner.
			existing, getErr := s.userRepo.GetByID(ctx, profile.UID)
			if getErr != nil {
				return nil, false, fmt.Errorf("failed to re-read user '%s' after creation race: %w", profile.UID, getErr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create user '%s': %w", profile.UID, createErr)
	}
	return newUser, true, nil
}

// GetUser returns the full stored record for the user.
func (s *ledgerService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s'", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get user '%s': %w", userID, err)
	}
	return user, nil
}

// GetBalance returns the current credit balance for the user.
func (s *ledgerService) GetBalance(ctx context.Context, userID string) (int64, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return 0, fmt.Errorf("%w: '%s'", ErrUserNotFound, userID)
		}
		return 0, fmt.Errorf("failed to get balance for user '%s': %w", userID, err)
	}
	return user.Credits, nil
}

// Deduct removes one credit. The conditional decrement happens at the
// repository layer inside a store transaction; this method only maps the
// store's sentinels onto the service taxonomy.
func (s *ledgerService) Deduct(ctx context.Context, userID string) (int64, error) {
	newBalance, err := s.userRepo.DeductCredit(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrNotFound):
			return 0, fmt.Errorf("%w: '%s'", ErrUserNotFound, userID)
		case errors.Is(err, db.ErrInsufficientCredits):
			return 0, ErrInsufficientCredits
		default:
			return 0, fmt.Errorf("failed to deduct credit for user '%s': %w", userID, err)
		}
	}
	return newBalance, nil
}

// Sync returns the redacted profile view consumed by the CLI: identity,
// balance and plan, with purchase history and beta fields withheld.
func (s *ledgerService) Sync(ctx context.Context, userID string) (*models.ProfileView, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s'", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to sync user '%s': %w", userID, err)
	}
	return user.View(), nil
}

func displayNameOrDefault(name string) string {
	if name == "" {
		return "User"
	}
	return name
}
