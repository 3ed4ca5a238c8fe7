package core

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"aadc-backend-go/internal/models"
	"aadc-backend-go/internal/token"
)

// FlowState is the state of one device-authorization flow instance.
type FlowState string

const (
	StateLoading            FlowState = "loading"
	StateAwaitingConsent    FlowState = "awaiting_consent"
	StateRedirectingToLogin FlowState = "redirecting_to_login"
	StateSuccess            FlowState = "success"
	StateError              FlowState = "error"
)

// ErrInvalidCallback is returned when Authorize is attempted without a
// usable callback URL.
var ErrInvalidCallback = errors.New("invalid callback URL")

// ErrFlowState is returned when an operation is attempted from a state that
// does not permit it. Success and Error are terminal: the only recovery is
// starting a fresh flow.
var ErrFlowState = errors.New("operation not valid in current flow state")

// AuthorizeService builds device-authorization flows. One Flow corresponds
// to one visit of the authorization page by a waiting CLI's browser tab.
type AuthorizeService struct {
	clientURL string
	signer    *token.Signer
	now       func() time.Time
}

// NewAuthorizeService creates the flow factory. signer may be nil, in which
// case redirects carry only the unsigned bundle parameter.
func NewAuthorizeService(clientURL string, signer *token.Signer) *AuthorizeService {
	return &AuthorizeService{
		clientURL: strings.TrimRight(clientURL, "/"),
		signer:    signer,
		now:       time.Now,
	}
}

// NewFlow starts a flow in the Loading state. callback is the CLI's local
// listener URL (may be empty; Authorize will then fail). requestURL is the
// full authorization-page URL, preserved so a login redirect can resume the
// flow afterwards.
func (s *AuthorizeService) NewFlow(callback, requestURL string) *Flow {
	return &Flow{
		svc:        s,
		state:      StateLoading,
		callback:   callback,
		requestURL: requestURL,
	}
}

// Flow is the per-instance state machine:
//
//	Loading -> AwaitingConsent | RedirectingToLogin
//	AwaitingConsent -> Success (Authorize) | Error (Deny, bad callback)
//
// Flows are single-use and not safe for concurrent use; each browser
// request gets its own instance.
type Flow struct {
	svc        *AuthorizeService
	state      FlowState
	callback   string
	requestURL string
	profile    *models.ProfileView
}

// State returns the current flow state.
func (f *Flow) State() FlowState { return f.state }

// Resolve feeds the settled session into the flow. A nil profile means no
// authenticated session exists and the flow moves to RedirectingToLogin;
// otherwise the consent screen is next. Valid only from Loading.
func (f *Flow) Resolve(profile *models.ProfileView) error {
	if f.state != StateLoading {
		return fmt.Errorf("%w: Resolve from %s", ErrFlowState, f.state)
	}
	if profile == nil {
		f.state = StateRedirectingToLogin
		return nil
	}
	f.profile = profile
	f.state = StateAwaitingConsent
	return nil
}

// LoginRedirectURL returns the login page URL carrying the original
// authorization URL so the flow can resume after sign-in. Valid only in
// RedirectingToLogin.
func (f *Flow) LoginRedirectURL() (string, error) {
	if f.state != StateRedirectingToLogin {
		return "", fmt.Errorf("%w: LoginRedirectURL from %s", ErrFlowState, f.state)
	}
	return f.svc.clientURL + "/login?redirect=" + url.QueryEscape(f.requestURL), nil
}

// ConsentProfile exposes the profile shown on the consent screen: identity,
// balance and plan. Valid only in AwaitingConsent.
func (f *Flow) ConsentProfile() (*models.ProfileView, error) {
	if f.state != StateAwaitingConsent {
		return nil, fmt.Errorf("%w: ConsentProfile from %s", ErrFlowState, f.state)
	}
	return f.profile, nil
}

// Authorize consumes the flow: it snapshots the user's profile into an
// AuthorizationBundle stamped with the current wall clock, encodes it, and
// returns the callback redirect URL. One-shot; after success the flow is
// terminal and the token is not re-issuable. A missing callback moves the
// flow to Error with ErrInvalidCallback and produces no URL.
func (f *Flow) Authorize() (string, error) {
	if f.state != StateAwaitingConsent {
		return "", fmt.Errorf("%w: Authorize from %s", ErrFlowState, f.state)
	}
	if f.callback == "" {
		f.state = StateError
		return "", ErrInvalidCallback
	}

	bundle := models.AuthorizationBundle{
		UID:         f.profile.UID,
		Email:       f.profile.Email,
		DisplayName: f.profile.DisplayName,
		PhotoURL:    f.profile.PhotoURL,
		Credits:     f.profile.Credits,
		Plan:        f.profile.Plan,
		Timestamp:   f.svc.now().UnixMilli(),
	}
	encoded, err := token.EncodeBundle(bundle)
	if err != nil {
		f.state = StateError
		return "", fmt.Errorf("failed to encode authorization bundle: %w", err)
	}

	params := url.Values{}
	params.Set("data", encoded)
	if f.svc.signer != nil {
		signed, signErr := f.svc.signer.Mint(bundle)
		if signErr != nil {
			f.state = StateError
			return "", fmt.Errorf("failed to mint signed token: %w", signErr)
		}
		params.Set("token", signed)
	}

	f.state = StateSuccess
	return f.callback + "?" + params.Encode(), nil
}

// Deny ends the flow without issuing credentials. The browser is sent back
// to the CLI with an error marker when a callback exists, otherwise to the
// landing page. Nothing about the denial is persisted.
func (f *Flow) Deny() (string, error) {
	if f.state != StateAwaitingConsent {
		return "", fmt.Errorf("%w: Deny from %s", ErrFlowState, f.state)
	}
	f.state = StateError
	if f.callback == "" {
		return f.svc.clientURL + "/", nil
	}
	return f.callback + "?error=denied", nil
}
