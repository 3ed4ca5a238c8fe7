package core

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aadc-backend-go/internal/models"
	"aadc-backend-go/internal/token"
)

const (
	testClientURL  = "https://aadc.example.com"
	testCallback   = "http://localhost:43210/callback"
	testRequestURL = "https://aadc.example.com/auth/cli?callback=http%3A%2F%2Flocalhost%3A43210%2Fcallback"
)

func consentProfile() *models.ProfileView {
	return &models.ProfileView{
		UID:         "u1",
		Email:       "a@b.com",
		DisplayName: "Ada",
		PhotoURL:    "https://example.com/ada.png",
		Credits:     10,
		Plan:        models.PlanStarter,
	}
}

func TestFlow_AnonymousRedirectsToLogin(t *testing.T) {
	svc := NewAuthorizeService(testClientURL, nil)
	flow := svc.NewFlow(testCallback, testRequestURL)

	require.NoError(t, flow.Resolve(nil))
	assert.Equal(t, StateRedirectingToLogin, flow.State())

	redirect, err := flow.LoginRedirectURL()
	require.NoError(t, err)
	assert.Equal(t, testClientURL+"/login?redirect="+url.QueryEscape(testRequestURL), redirect)
}

func TestFlow_AuthenticatedAwaitsConsent(t *testing.T) {
	svc := NewAuthorizeService(testClientURL, nil)
	flow := svc.NewFlow(testCallback, testRequestURL)

	require.NoError(t, flow.Resolve(consentProfile()))
	assert.Equal(t, StateAwaitingConsent, flow.State())

	profile, err := flow.ConsentProfile()
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.DisplayName)
	assert.Equal(t, int64(10), profile.Credits)
}

func TestFlow_AuthorizeEncodesExactBundle(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	svc := NewAuthorizeService(testClientURL, nil)
	svc.now = func() time.Time { return issuedAt }
	flow := svc.NewFlow(testCallback, testRequestURL)
	require.NoError(t, flow.Resolve(consentProfile()))

	redirect, err := flow.Authorize()
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, flow.State())
	assert.True(t, strings.HasPrefix(redirect, testCallback+"?"), "redirect %q should target the callback", redirect)

	parsed, err := url.Parse(redirect)
	require.NoError(t, err)
	data := parsed.Query().Get("data")
	require.NotEmpty(t, data)
	assert.Empty(t, parsed.Query().Get("token"), "no signer configured, no signed token expected")

	bundle, err := token.DecodeBundle(data)
	require.NoError(t, err)
	assert.Equal(t, "u1", bundle.UID)
	assert.Equal(t, "a@b.com", bundle.Email)
	assert.Equal(t, "Ada", bundle.DisplayName)
	assert.Equal(t, "https://example.com/ada.png", bundle.PhotoURL)
	assert.Equal(t, int64(10), bundle.Credits)
	assert.Equal(t, models.PlanStarter, bundle.Plan)
	assert.Equal(t, issuedAt.UnixMilli(), bundle.Timestamp)
}

func TestFlow_AuthorizeWithSignerAppendsToken(t *testing.T) {
	signer := token.NewSigner("test-signing-key")
	svc := NewAuthorizeService(testClientURL, signer)
	flow := svc.NewFlow(testCallback, testRequestURL)
	require.NoError(t, flow.Resolve(consentProfile()))

	redirect, err := flow.Authorize()
	require.NoError(t, err)

	parsed, err := url.Parse(redirect)
	require.NoError(t, err)
	signed := parsed.Query().Get("token")
	require.NotEmpty(t, signed)

	bundle, err := signer.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", bundle.UID)
	assert.Equal(t, int64(10), bundle.Credits)
}

func TestFlow_AuthorizeWithoutCallbackFails(t *testing.T) {
	svc := NewAuthorizeService(testClientURL, nil)
	flow := svc.NewFlow("", testRequestURL)
	require.NoError(t, flow.Resolve(consentProfile()))

	redirect, err := flow.Authorize()
	assert.ErrorIs(t, err, ErrInvalidCallback)
	assert.Empty(t, redirect)
	assert.Equal(t, StateError, flow.State())
}

func TestFlow_AuthorizeIsOneShot(t *testing.T) {
	svc := NewAuthorizeService(testClientURL, nil)
	flow := svc.NewFlow(testCallback, testRequestURL)
	require.NoError(t, flow.Resolve(consentProfile()))

	_, err := flow.Authorize()
	require.NoError(t, err)

	_, err = flow.Authorize()
	assert.ErrorIs(t, err, ErrFlowState)
}

func TestFlow_DenyRedirectsWithErrorMarker(t *testing.T) {
	svc := NewAuthorizeService(testClientURL, nil)
	flow := svc.NewFlow(testCallback, testRequestURL)
	require.NoError(t, flow.Resolve(consentProfile()))

	redirect, err := flow.Deny()
	require.NoError(t, err)
	assert.Equal(t, testCallback+"?error=denied", redirect)
	assert.Equal(t, StateError, flow.State())
}

func TestFlow_DenyWithoutCallbackGoesHome(t *testing.T) {
	svc := NewAuthorizeService(testClientURL, nil)
	flow := svc.NewFlow("", testRequestURL)
	require.NoError(t, flow.Resolve(consentProfile()))

	redirect, err := flow.Deny()
	require.NoError(t, err)
	assert.Equal(t, testClientURL+"/", redirect)
}

func TestFlow_ResolveTwiceRejected(t *testing.T) {
	svc := NewAuthorizeService(testClientURL, nil)
	flow := svc.NewFlow(testCallback, testRequestURL)
	require.NoError(t, flow.Resolve(consentProfile()))

	err := flow.Resolve(consentProfile())
	assert.ErrorIs(t, err, ErrFlowState)
}

func TestFlow_StateGuards(t *testing.T) {
	svc := NewAuthorizeService(testClientURL, nil)
	flow := svc.NewFlow(testCallback, testRequestURL)

	// Everything but Resolve is invalid while Loading.
	_, err := flow.Authorize()
	assert.ErrorIs(t, err, ErrFlowState)
	_, err = flow.Deny()
	assert.ErrorIs(t, err, ErrFlowState)
	_, err = flow.ConsentProfile()
	assert.ErrorIs(t, err, ErrFlowState)
	_, err = flow.LoginRedirectURL()
	assert.ErrorIs(t, err, ErrFlowState)
}

func TestNewAuthorizeService_TrimsTrailingSlash(t *testing.T) {
	svc := NewAuthorizeService(testClientURL+"/", nil)
	flow := svc.NewFlow("", testRequestURL)
	require.NoError(t, flow.Resolve(nil))

	redirect, err := flow.LoginRedirectURL()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(redirect, testClientURL+"/login?"), "got %q", redirect)
}
