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

const betaRequestsCollection = "betaRequests"

// firestoreBetaRequestRepository implements BetaRequestRepository using Firestore.
type firestoreBetaRequestRepository struct {
	client *firestore.Client
}

// NewFirestoreBetaRequestRepository creates a Firestore-backed BetaRequestRepository.
func NewFirestoreBetaRequestRepository(client *firestore.Client) BetaRequestRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for BetaRequestRepository.")
	}
	return &firestoreBetaRequestRepository{client: client}
}

// Create writes a beta request document. The caller supplies the document
// ID, which embeds the submitter's UID (or the anonymous sentinel) plus a
// timestamp, so repeat submissions land as distinct records. Create (not
// Set) keeps an ID collision from ever overwriting an earlier submission.
func (r *firestoreBetaRequestRepository) Create(ctx context.Context, req *models.BetaRequest) error {
	if req == nil {
		return errors.New("beta request cannot be nil")
	}
	if req.ID == "" {
		return errors.New("beta request ID cannot be empty")
	}
	_, err := r.client.Collection(betaRequestsCollection).Doc(req.ID).Create(ctx, req)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("beta request '%s' already exists: %w", req.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to write beta request '%s': %w", req.ID, err)
	}
	return nil
}
