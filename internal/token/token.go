// Package token handles the serialized credential bundle carried on the
// device-authorization redirect. The primary encoding is reversible
// base64(JSON) with no secret involved: the CLI must be able to decode it
// offline, so it is a transport convenience and not a security boundary.
// When a signing key is configured, a companion HS256 JWT with a short
// expiry can be minted alongside for CLIs that share the key.
package token

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"aadc-backend-go/internal/models"
)

// SignedTokenTTL bounds how long the companion signed token verifies.
const SignedTokenTTL = 5 * time.Minute

// ErrInvalidToken is returned when a signed token fails verification.
var ErrInvalidToken = errors.New("invalid or expired token")

// EncodeBundle serializes the bundle to base64(JSON), the same encoding the
// CLI reverses without any shared secret.
func EncodeBundle(b models.AuthorizationBundle) (string, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("failed to marshal authorization bundle: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeBundle reverses EncodeBundle.
func DecodeBundle(encoded string) (models.AuthorizationBundle, error) {
	var b models.AuthorizationBundle
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return b, fmt.Errorf("failed to base64-decode bundle: %w", err)
	}
	if err := json.Unmarshal(raw, &b); err != nil {
		return b, fmt.Errorf("failed to unmarshal bundle JSON: %w", err)
	}
	return b, nil
}

// Signer mints and verifies the optional signed companion token.
type Signer struct {
	key []byte
	now func() time.Time
}

// NewSigner returns a Signer for the given key, or nil when the key is
// empty (signing disabled).
func NewSigner(key string) *Signer {
	if key == "" {
		return nil
	}
	return &Signer{key: []byte(key), now: time.Now}
}

type bundleClaims struct {
	Email       string      `json:"email"`
	DisplayName string      `json:"displayName"`
	PhotoURL    string      `json:"photoURL"`
	Credits     int64       `json:"credits"`
	Plan        models.Plan `json:"plan"`
	jwt.RegisteredClaims
}

// Mint produces an HS256 JWT carrying the bundle fields, expiring after
// SignedTokenTTL.
func (s *Signer) Mint(b models.AuthorizationBundle) (string, error) {
	now := s.now()
	claims := bundleClaims{
		Email:       b.Email,
		DisplayName: b.DisplayName,
		PhotoURL:    b.PhotoURL,
		Credits:     b.Credits,
		Plan:        b.Plan,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   b.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SignedTokenTTL)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a signed companion token, reconstructing the
// bundle it carries. The Timestamp field is restored from the iat claim.
func (s *Signer) Verify(signed string) (models.AuthorizationBundle, error) {
	var b models.AuthorizationBundle
	claims := &bundleClaims{}
	tok, err := jwt.ParseWithClaims(signed, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.key, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !tok.Valid {
		return b, ErrInvalidToken
	}

	b = models.AuthorizationBundle{
		UID:         claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		PhotoURL:    claims.PhotoURL,
		Credits:     claims.Credits,
		Plan:        claims.Plan,
	}
	if claims.IssuedAt != nil {
		b.Timestamp = claims.IssuedAt.Time.UnixMilli()
	}
	return b, nil
}
