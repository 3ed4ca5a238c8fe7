package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"aadc-backend-go/internal/models"
)

const usersCollection = "users"

// ErrNotFound is returned when a document does not exist in Firestore.
var ErrNotFound = errors.New("document not found")

// ErrInsufficientCredits is returned by DeductCredit when the stored
// balance is already zero. No write is performed in that case.
var ErrInsufficientCredits = errors.New("no credits remaining")

// ErrAlreadyExists is returned by Create when the document already exists.
var ErrAlreadyExists = errors.New("document already exists")

// firestoreUserRepository implements UserRepository using Firestore.
type firestoreUserRepository struct {
	client *firestore.Client
}

// NewFirestoreUserRepository creates a new Firestore-backed UserRepository.
func NewFirestoreUserRepository(client *firestore.Client) UserRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for UserRepository.")
	}
	return &firestoreUserRepository{client: client}
}

func (r *firestoreUserRepository) docRef(userID string) *firestore.DocumentRef {
	return r.client.Collection(usersCollection).Doc(userID)
}

// Create adds a new user document. The Firebase Auth UID is the document
// ID. Create (not Set) is used so that a lost first-login race surfaces as
// codes.AlreadyExists instead of silently clobbering the winner's document.
func (r *firestoreUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return errors.New("user ID cannot be empty for Create operation")
	}
	_, err := r.docRef(user.ID).Create(ctx, user)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("user with ID '%s' already exists: %w", user.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create user with ID '%s': %w", user.ID, err)
	}
	return nil
}

// GetByID retrieves a user document by its ID (Firebase Auth UID).
func (r *firestoreUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByID operation")
	}
	docSnap, err := r.docRef(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user with ID '%s': %w", userID, err)
	}

	var user models.User
	if err := docSnap.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user data for ID '%s': %w", userID, err)
	}
	user.ID = docSnap.Ref.ID

	return &user, nil
}

// TouchLastLogin advances lastLoginAt on an existing document. Everything
// else on the document is left alone.
func (r *firestoreUserRepository) TouchLastLogin(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("userID cannot be empty for TouchLastLogin operation")
	}
	_, err := r.docRef(userID).Update(ctx, []firestore.Update{
		{Path: "lastLoginAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to touch lastLoginAt for user '%s': %w", userID, err)
	}
	return nil
}

// MergeFields applies a partial merge write to the user document.
func (r *firestoreUserRepository) MergeFields(ctx context.Context, userID string, fields map[string]interface{}) error {
	if userID == "" {
		return errors.New("userID cannot be empty for MergeFields operation")
	}
	_, err := r.docRef(userID).Set(ctx, fields, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to merge fields for user '%s': %w", userID, err)
	}
	return nil
}

// DeductCredit decrements the credits field by exactly 1, but only when the
// current balance is positive. The read and the conditional write run
// inside a Firestore transaction, so concurrent callers serialize through
// the store and the balance can never be driven negative.
func (r *firestoreUserRepository) DeductCredit(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, errors.New("userID cannot be empty for DeductCredit operation")
	}
	ref := r.docRef(userID)
	var newBalance int64

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}

		credits := readCredits(docSnap)
		if credits <= 0 {
			return ErrInsufficientCredits
		}

		newBalance = credits - 1
		return tx.Update(ref, []firestore.Update{
			{Path: "credits", Value: newBalance},
		})
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInsufficientCredits) {
			return 0, err
		}
		return 0, fmt.Errorf("credit deduction transaction failed for user '%s': %w", userID, err)
	}
	return newBalance, nil
}

// ApplyGrant applies a plan purchase in a single update: plan change,
// relative credit increment, and append-only purchase history entry.
func (r *firestoreUserRepository) ApplyGrant(ctx context.Context, userID string, plan models.Plan, credits int64, purchase models.Purchase) error {
	if userID == "" {
		return errors.New("userID cannot be empty for ApplyGrant operation")
	}
	_, err := r.docRef(userID).Update(ctx, []firestore.Update{
		{Path: "plan", Value: string(plan)},
		{Path: "credits", Value: firestore.Increment(credits)},
		{Path: "purchases", Value: firestore.ArrayUnion(purchase)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to apply plan grant for user '%s': %w", userID, err)
	}
	return nil
}

// readCredits extracts the credits field from a snapshot, tolerating
// documents written before the field existed (missing reads as 0, the same
// fallback the web client applies).
func readCredits(docSnap *firestore.DocumentSnapshot) int64 {
	raw, err := docSnap.DataAt("credits")
	if err != nil {
		return 0
	}
	switch v := raw.(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}
