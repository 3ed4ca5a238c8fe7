package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aadc-backend-go/internal/core"
	"aadc-backend-go/internal/models"
)

const testWebhookSecret = "whsec_test"

type mockBilling struct {
	checkoutFn func(ctx context.Context, userID string, plan models.Plan) (string, error)
	grantFn    func(ctx context.Context, userID string, plan models.Plan, sessionID string) (*models.Purchase, error)
}

func (m *mockBilling) CreateCheckoutSession(ctx context.Context, userID string, plan models.Plan) (string, error) {
	if m.checkoutFn != nil {
		return m.checkoutFn(ctx, userID, plan)
	}
	return "", core.ErrPaymentsDisabled
}

func (m *mockBilling) GrantPlan(ctx context.Context, userID string, plan models.Plan, sessionID string) (*models.Purchase, error) {
	return m.grantFn(ctx, userID, plan, sessionID)
}

func billingRouter(billing core.BillingService, audit *mockAudit) *gin.Engine {
	gin.SetMode(gin.TestMode)
	var auditService core.AuditService
	if audit != nil {
		auditService = audit
	}
	handler := NewBillingHandler(billing, auditService, testWebhookSecret, nil)

	router := gin.New()
	group := router.Group("/api/v1/billing")
	authed := group.Group("")
	authed.Use(withIdentity(models.IdentityProfile{UID: "u1"}))
	authed.POST("/checkout", handler.CreateCheckoutSession)
	group.POST("/webhooks/grant", handler.HandleGrantWebhook)
	return router
}

func postGrant(t *testing.T, router *gin.Engine, signature string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/webhooks/grant", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Billing-Signature", signature)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestCheckout_PaymentsDisabledIs503(t *testing.T) {
	router := billingRouter(&mockBilling{}, nil)

	w := postJSON(t, router, "/api/v1/billing/checkout", CheckoutRequest{Plan: "pro"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCheckout_UnknownPlanIs400(t *testing.T) {
	router := billingRouter(&mockBilling{}, nil)

	w := postJSON(t, router, "/api/v1/billing/checkout", CheckoutRequest{Plan: "enterprise"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGrantWebhook_AppliesGrantAndAudits(t *testing.T) {
	granted := &models.Purchase{ID: "p1", Plan: models.PlanPro, Credits: 150, Amount: 10000}
	billing := &mockBilling{
		grantFn: func(_ context.Context, userID string, plan models.Plan, sessionID string) (*models.Purchase, error) {
			assert.Equal(t, "u1", userID)
			assert.Equal(t, models.PlanPro, plan)
			assert.Equal(t, "cs_123", sessionID)
			return granted, nil
		},
	}
	audit := &mockAudit{}
	router := billingRouter(billing, audit)

	w := postGrant(t, router, testWebhookSecret, GrantRequest{UID: "u1", Plan: "pro", SessionID: "cs_123"})

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionPlanGrant, audit.entries[0].Action)
	assert.Equal(t, "p1", audit.entries[0].Details["purchaseId"])
}

func TestGrantWebhook_RejectsBadSignature(t *testing.T) {
	router := billingRouter(&mockBilling{
		grantFn: func(context.Context, string, models.Plan, string) (*models.Purchase, error) {
			t.Fatal("grant must not run with a bad signature")
			return nil, nil
		},
	}, nil)

	w := postGrant(t, router, "wrong-secret", GrantRequest{UID: "u1", Plan: "pro"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postGrant(t, router, "", GrantRequest{UID: "u1", Plan: "pro"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGrantWebhook_RejectsFreePlanGrant(t *testing.T) {
	router := billingRouter(&mockBilling{
		grantFn: func(context.Context, string, models.Plan, string) (*models.Purchase, error) {
			return nil, core.ErrUnknownPlan
		},
	}, nil)

	w := postGrant(t, router, testWebhookSecret, GrantRequest{UID: "u1", Plan: "free"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGrantWebhook_UnknownUserIs404(t *testing.T) {
	router := billingRouter(&mockBilling{
		grantFn: func(context.Context, string, models.Plan, string) (*models.Purchase, error) {
			return nil, core.ErrUserNotFound
		},
	}, nil)

	w := postGrant(t, router, testWebhookSecret, GrantRequest{UID: "ghost", Plan: "pro"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
