package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"aadc-backend-go/internal/db"
	"aadc-backend-go/internal/mailer"
	"aadc-backend-go/internal/models"
)

// anonymousKeyPrefix starts every beta-request document ID produced for an
// unauthenticated submission. The identity provider never issues a UID equal
// to this sentinel, so anonymous keys cannot collide with real user keys.
const anonymousKeyPrefix = "anonymous"

// ErrValidation marks beta form validation failures. Use errors.As with
// *ValidationError to get the offending field names.
var ErrValidation = errors.New("validation failed")

// ValidationError lists the form fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, ", ")
}

// Is makes errors.Is(err, ErrValidation) work for callers that do not need
// the field list.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// betaService implements the BetaService interface.
type betaService struct {
	betaRepo db.BetaRequestRepository
	userRepo db.UserRepository
	mail     mailer.Mailer // may be nil when SMTP is not configured
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewBetaService creates a new BetaService. mail may be nil to disable
// confirmation email.
func NewBetaService(betaRepo db.BetaRequestRepository, userRepo db.UserRepository, mail mailer.Mailer, logger *zap.Logger) BetaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &betaService{
		betaRepo: betaRepo,
		userRepo: userRepo,
		mail:     mail,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// Submit validates the form, writes the request record, and, for
// authenticated submitters, merge-writes the advisory betaRequested flag
// onto their user document. The two writes are independent: if the flag
// write fails after the request landed, the request stands and the failure
// is only logged. The flag is advisory UI state.
func (s *betaService) Submit(ctx context.Context, form models.BetaRequestForm, userID string) (string, error) {
	if err := s.validate.Struct(form); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			fields := make([]string, 0, len(invalid))
			for _, fe := range invalid {
				fields = append(fields, fieldJSONName(fe.Field()))
			}
			return "", &ValidationError{Fields: fields}
		}
		return "", fmt.Errorf("beta form validation failed: %w", err)
	}

	now := s.now().UTC()
	req := &models.BetaRequest{
		ID:           s.requestID(userID, now),
		UID:          userID,
		Name:         form.Name,
		Email:        form.Email,
		Github:       form.Github,
		Twitter:      form.Twitter,
		UseCase:      form.UseCase,
		Experience:   form.Experience,
		ExcitedAbout: form.ExcitedAbout,
		RequestRef:   uuid.NewString(),
		Status:       models.BetaStatusPending,
		SubmittedAt:  now,
	}
	if err := s.betaRepo.Create(ctx, req); err != nil {
		return "", fmt.Errorf("failed to record beta request: %w", err)
	}

	if userID != "" {
		flagFields := map[string]interface{}{
			"betaRequested":   true,
			"betaRequestedAt": now,
		}
		if err := s.userRepo.MergeFields(ctx, userID, flagFields); err != nil {
			// No rollback: the request record is authoritative and the flag is
			// reconciled lazily on a later profile sync.
			s.logger.Warn("beta request recorded but betaRequested flag write failed",
				zap.String("uid", userID), zap.String("requestId", req.ID), zap.Error(err))
		}
	}

	s.sendConfirmation(req)

	return req.ID, nil
}

// requestID builds the document ID: the submitter's UID when known,
// otherwise the anonymous sentinel, suffixed with the submission instant so
// repeat submissions produce distinct records.
func (s *betaService) requestID(userID string, now time.Time) string {
	key := userID
	if key == "" {
		key = anonymousKeyPrefix
	}
	return fmt.Sprintf("%s_%d", key, now.UnixMilli())
}

func (s *betaService) sendConfirmation(req *models.BetaRequest) {
	if s.mail == nil {
		return
	}
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nThanks for your interest in the AADC beta. Your request is in the review queue; you'll get another email once it's approved.\r\n",
		req.Name,
	)
	if err := s.mail.Send(req.Email, "AADC beta request received", body); err != nil {
		s.logger.Warn("failed to send beta confirmation email",
			zap.String("requestId", req.ID), zap.Error(err))
	}
}

// fieldJSONName lowercases the first rune of a struct field name, mapping
// it onto the form's JSON key (Name -> name, UseCase -> useCase).
func fieldJSONName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}
