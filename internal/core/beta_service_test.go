package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aadc-backend-go/internal/models"
)

type mockBetaRepo struct {
	created  []*models.BetaRequest
	createFn func(ctx context.Context, req *models.BetaRequest) error
}

func (m *mockBetaRepo) Create(ctx context.Context, req *models.BetaRequest) error {
	if m.createFn != nil {
		if err := m.createFn(ctx, req); err != nil {
			return err
		}
	}
	m.created = append(m.created, req)
	return nil
}

type mockMailer struct {
	recipients []string
	sendErr    error
}

func (m *mockMailer) Send(recipient, subject, body string) error {
	m.recipients = append(m.recipients, recipient)
	return m.sendErr
}

func validForm() models.BetaRequestForm {
	return models.BetaRequestForm{
		Name:       "Ada",
		Email:      "ada@example.com",
		UseCase:    "Generating landing pages",
		Experience: "Intermediate",
	}
}

func TestBetaSubmit_InvalidFormWritesNothing(t *testing.T) {
	betaRepo := &mockBetaRepo{}
	userRepo := &mockUserRepo{
		mergeFieldsFn: func(context.Context, string, map[string]interface{}) error {
			t.Fatal("MergeFields must not be called for an invalid form")
			return nil
		},
	}
	svc := NewBetaService(betaRepo, userRepo, nil, nil)

	form := validForm()
	form.Email = "not-an-email"
	_, err := svc.Submit(context.Background(), form, "u1")

	assert.ErrorIs(t, err, ErrValidation)
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Fields, "email")
	assert.Empty(t, betaRepo.created)
}

func TestBetaSubmit_MissingRequiredFields(t *testing.T) {
	svc := NewBetaService(&mockBetaRepo{}, &mockUserRepo{}, nil, nil)

	_, err := svc.Submit(context.Background(), models.BetaRequestForm{}, "")

	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Fields, "name")
	assert.Contains(t, invalid.Fields, "email")
	assert.Contains(t, invalid.Fields, "useCase")
	assert.Contains(t, invalid.Fields, "experience")
}

func TestBetaSubmit_AuthenticatedKeysByUIDAndSetsFlag(t *testing.T) {
	betaRepo := &mockBetaRepo{}
	var mergedUID string
	var mergedFields map[string]interface{}
	userRepo := &mockUserRepo{
		mergeFieldsFn: func(_ context.Context, uid string, fields map[string]interface{}) error {
			mergedUID = uid
			mergedFields = fields
			return nil
		},
	}
	svc := NewBetaService(betaRepo, userRepo, nil, nil)

	requestID, err := svc.Submit(context.Background(), validForm(), "u1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(requestID, "u1_"), "request ID %q should be keyed by UID", requestID)
	require.Len(t, betaRepo.created, 1)
	rec := betaRepo.created[0]
	assert.Equal(t, requestID, rec.ID)
	assert.Equal(t, "u1", rec.UID)
	assert.Equal(t, models.BetaStatusPending, rec.Status)
	assert.NotEmpty(t, rec.RequestRef)

	assert.Equal(t, "u1", mergedUID)
	assert.Equal(t, true, mergedFields["betaRequested"])
	assert.Contains(t, mergedFields, "betaRequestedAt")
}

func TestBetaSubmit_AnonymousUsesSentinelAndSkipsFlag(t *testing.T) {
	betaRepo := &mockBetaRepo{}
	userRepo := &mockUserRepo{
		mergeFieldsFn: func(context.Context, string, map[string]interface{}) error {
			t.Fatal("MergeFields must not be called for anonymous submissions")
			return nil
		},
	}
	svc := NewBetaService(betaRepo, userRepo, nil, nil)

	requestID, err := svc.Submit(context.Background(), validForm(), "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(requestID, "anonymous_"), "request ID %q should use the anonymous sentinel", requestID)
	require.Len(t, betaRepo.created, 1)
	assert.Empty(t, betaRepo.created[0].UID)
}

func TestBetaSubmit_RepeatSubmissionsAreDistinctRecords(t *testing.T) {
	betaRepo := &mockBetaRepo{}
	svc := NewBetaService(betaRepo, &mockUserRepo{}, nil, nil).(*betaService)

	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	instant := base
	svc.now = func() time.Time { return instant }

	first, err := svc.Submit(context.Background(), validForm(), "u1")
	require.NoError(t, err)

	instant = base.Add(time.Second)
	second, err := svc.Submit(context.Background(), validForm(), "u1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Len(t, betaRepo.created, 2)
}

func TestBetaSubmit_FlagWriteFailureDoesNotFailSubmission(t *testing.T) {
	betaRepo := &mockBetaRepo{}
	userRepo := &mockUserRepo{
		mergeFieldsFn: func(context.Context, string, map[string]interface{}) error {
			return errors.New("flag write failed")
		},
	}
	svc := NewBetaService(betaRepo, userRepo, nil, nil)

	requestID, err := svc.Submit(context.Background(), validForm(), "u1")
	require.NoError(t, err)
	assert.NotEmpty(t, requestID)
	assert.Len(t, betaRepo.created, 1)
}

func TestBetaSubmit_RepoFailurePropagates(t *testing.T) {
	repoErr := errors.New("firestore unavailable")
	betaRepo := &mockBetaRepo{
		createFn: func(context.Context, *models.BetaRequest) error { return repoErr },
	}
	svc := NewBetaService(betaRepo, &mockUserRepo{}, nil, nil)

	_, err := svc.Submit(context.Background(), validForm(), "u1")
	assert.ErrorIs(t, err, repoErr)
}

func TestBetaSubmit_ConfirmationEmailBestEffort(t *testing.T) {
	mail := &mockMailer{sendErr: errors.New("smtp down")}
	svc := NewBetaService(&mockBetaRepo{}, &mockUserRepo{}, mail, nil)

	_, err := svc.Submit(context.Background(), validForm(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ada@example.com"}, mail.recipients)
}
