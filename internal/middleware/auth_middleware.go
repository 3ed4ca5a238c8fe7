package middleware

import (
	"log"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"

	"aadc-backend-go/internal/models"
)

// ErrorResponse mirrors the API error shape locally to avoid an import
// cycle with internal/api.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Context keys populated by the auth middleware.
const (
	CtxUserID   = "userID"
	CtxIdentity = "identityProfile"
)

// AuthMiddleware provides Gin middleware for Firebase ID token authentication.
type AuthMiddleware struct {
	firebaseAuthClient *auth.Client
}

// NewAuthMiddleware creates a new AuthMiddleware instance. It panics if the
// auth client is nil, since authenticated routes cannot function without it.
func NewAuthMiddleware(fbAuthClient *auth.Client) *AuthMiddleware {
	if fbAuthClient == nil {
		log.Fatal("CRITICAL_ERROR: Firebase Auth client is not initialized for AuthMiddleware.")
		panic("Firebase Auth client is not initialized for AuthMiddleware")
	}
	return &AuthMiddleware{firebaseAuthClient: fbAuthClient}
}

// VerifyToken verifies a Firebase ID token from the Authorization header
// and aborts with 401 when it is missing or invalid. On success the UID and
// an IdentityProfile built from the token claims are set in the context.
func (m *AuthMiddleware) VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, ok := m.identityFromRequest(c)
		if !ok {
			return // identityFromRequest already aborted
		}
		setIdentity(c, profile)
		c.Next()
	}
}

// OptionalVerifyToken verifies the Authorization header when present but
// lets unauthenticated requests through with no identity set. The device
// authorization entry point uses this: an anonymous visit is a valid flow
// state (it resolves to a login redirect), not an error.
func (m *AuthMiddleware) OptionalVerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		profile, ok := m.identityFromRequest(c)
		if !ok {
			return
		}
		setIdentity(c, profile)
		c.Next()
	}
}

func (m *AuthMiddleware) identityFromRequest(c *gin.Context) (models.IdentityProfile, bool) {
	var profile models.IdentityProfile

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header is required"})
		return profile, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header format must be 'Bearer {token}'"})
		return profile, false
	}
	idToken := parts[1]

	token, err := m.firebaseAuthClient.VerifyIDToken(c.Request.Context(), idToken)
	if err != nil {
		log.Printf("AuthMiddleware: error verifying Firebase ID token: %v", err)
		// Generic message to the client; the specific failure stays server-side.
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired authentication token"})
		return profile, false
	}

	profile.UID = token.UID
	if email, ok := token.Claims["email"].(string); ok {
		profile.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		profile.DisplayName = name
	}
	if picture, ok := token.Claims["picture"].(string); ok {
		profile.PhotoURL = picture
	}
	return profile, true
}

func setIdentity(c *gin.Context, profile models.IdentityProfile) {
	c.Set(CtxUserID, profile.UID)
	c.Set(CtxIdentity, profile)
}

// IdentityFromContext returns the verified identity, if any. The bool is
// false for requests that passed through OptionalVerifyToken anonymously.
func IdentityFromContext(c *gin.Context) (models.IdentityProfile, bool) {
	raw, exists := c.Get(CtxIdentity)
	if !exists {
		return models.IdentityProfile{}, false
	}
	profile, ok := raw.(models.IdentityProfile)
	return profile, ok && profile.UID != ""
}
