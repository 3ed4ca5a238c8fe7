package models

import "time"

// User is the per-account document stored in the `users` collection.
// The Firebase Auth UID doubles as the Firestore document ID, so the ID
// field itself is never written into the document body.
type User struct {
	ID              string     `json:"uid" firestore:"-"`
	Email           string     `json:"email" firestore:"email"`
	DisplayName     string     `json:"displayName,omitempty" firestore:"displayName"`
	PhotoURL        string     `json:"photoURL,omitempty" firestore:"photoURL"`
	Credits         int64      `json:"credits" firestore:"credits"`
	Plan            Plan       `json:"plan" firestore:"plan"`
	Purchases       []Purchase `json:"purchases" firestore:"purchases"`
	CreatedAt       time.Time  `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	LastLoginAt     time.Time  `json:"lastLoginAt" firestore:"lastLoginAt,serverTimestamp"`
	BetaAccess      bool       `json:"betaAccess" firestore:"betaAccess"`
	BetaRequested   bool       `json:"betaRequested" firestore:"betaRequested"`
	BetaRequestedAt *time.Time `json:"betaRequestedAt,omitempty" firestore:"betaRequestedAt,omitempty"`
	BetaApprovedAt  *time.Time `json:"betaApprovedAt,omitempty" firestore:"betaApprovedAt,omitempty"`
}

// Purchase is one entry in a user's append-only purchase history.
// Entries are never mutated or removed once written.
type Purchase struct {
	ID              string    `json:"id" firestore:"id"`
	Plan            Plan      `json:"plan" firestore:"plan"`
	Credits         int64     `json:"credits" firestore:"credits"`
	Amount          int64     `json:"amount" firestore:"amount"` // cents
	Date            time.Time `json:"date" firestore:"date"`
	StripeSessionID string    `json:"stripeSessionId,omitempty" firestore:"stripeSessionId,omitempty"`
}

// IdentityProfile carries the identity-provider claims that seed (or
// refresh) a user document. All values come from a verified ID token.
type IdentityProfile struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}

// ProfileView is the redacted projection returned by the ledger's Sync
// operation: no purchase history, no beta fields.
type ProfileView struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Credits     int64  `json:"credits"`
	Plan        Plan   `json:"plan"`
	PhotoURL    string `json:"photoURL"`
}

// AuthorizationBundle is the point-in-time profile snapshot handed to the
// CLI at the end of the device-authorization handshake. It is serialized
// into the redirect URL and never persisted.
type AuthorizationBundle struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
	Credits     int64  `json:"credits"`
	Plan        Plan   `json:"plan"`
	Timestamp   int64  `json:"timestamp"` // unix milliseconds at authorization time
}

// View returns the redacted ProfileView projection of the user.
func (u *User) View() *ProfileView {
	return &ProfileView{
		UID:         u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Credits:     u.Credits,
		Plan:        u.Plan,
		PhotoURL:    u.PhotoURL,
	}
}
