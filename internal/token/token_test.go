package token

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aadc-backend-go/internal/models"
)

func sampleBundle() models.AuthorizationBundle {
	return models.AuthorizationBundle{
		UID:         "u1",
		Email:       "a@b.com",
		DisplayName: "Ada",
		PhotoURL:    "https://example.com/ada.png",
		Credits:     10,
		Plan:        models.PlanStarter,
		Timestamp:   1767225600000,
	}
}

func TestEncodeBundle_IsPlainBase64JSON(t *testing.T) {
	encoded, err := EncodeBundle(sampleBundle())
	require.NoError(t, err)

	// The CLI decodes this with nothing but a base64 decoder and a JSON
	// parser, so the encoding must stay exactly that.
	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "u1", fields["uid"])
	assert.Equal(t, "a@b.com", fields["email"])
	assert.Equal(t, float64(10), fields["credits"])
	assert.Equal(t, "starter", fields["plan"])
	assert.Equal(t, float64(1767225600000), fields["timestamp"])
}

func TestDecodeBundle_RoundTrip(t *testing.T) {
	original := sampleBundle()
	encoded, err := EncodeBundle(original)
	require.NoError(t, err)

	decoded, err := DecodeBundle(encoded)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestDecodeBundle_RejectsGarbage(t *testing.T) {
	_, err := DecodeBundle("not-base64!!")
	assert.Error(t, err)

	_, err = DecodeBundle(base64.StdEncoding.EncodeToString([]byte("not json")))
	assert.Error(t, err)
}

func TestNewSigner_EmptyKeyDisablesSigning(t *testing.T) {
	assert.Nil(t, NewSigner(""))
	assert.NotNil(t, NewSigner("key"))
}

func TestSigner_MintVerifyRoundTrip(t *testing.T) {
	signer := NewSigner("test-key")
	issuedAt := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	signer.now = func() time.Time { return issuedAt }

	signed, err := signer.Mint(sampleBundle())
	require.NoError(t, err)

	got, err := signer.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UID)
	assert.Equal(t, "a@b.com", got.Email)
	assert.Equal(t, "Ada", got.DisplayName)
	assert.Equal(t, int64(10), got.Credits)
	assert.Equal(t, models.PlanStarter, got.Plan)
	assert.Equal(t, issuedAt.UnixMilli(), got.Timestamp)
}

func TestSigner_VerifyRejectsWrongKey(t *testing.T) {
	signed, err := NewSigner("key-one").Mint(sampleBundle())
	require.NoError(t, err)

	_, err = NewSigner("key-two").Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSigner_VerifyRejectsExpiredToken(t *testing.T) {
	signer := NewSigner("test-key")
	issuedAt := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	signer.now = func() time.Time { return issuedAt }

	signed, err := signer.Mint(sampleBundle())
	require.NoError(t, err)

	// Still valid just inside the TTL.
	signer.now = func() time.Time { return issuedAt.Add(SignedTokenTTL - time.Second) }
	_, err = signer.Verify(signed)
	assert.NoError(t, err)

	signer.now = func() time.Time { return issuedAt.Add(SignedTokenTTL + time.Second) }
	_, err = signer.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSigner_VerifyRejectsUnsignedToken(t *testing.T) {
	_, err := NewSigner("test-key").Verify("definitely.not.ajwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
