package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"aadc-backend-go/internal/config"
	"aadc-backend-go/internal/core"
	"aadc-backend-go/internal/db"
	"aadc-backend-go/internal/middleware"
)

// SetupRoutes configures all application routes. Global middleware
// (logging, recovery, CORS) is expected to be applied to the router before
// this is called.
func SetupRoutes(
	router *gin.Engine,
	appConfig *config.Config,
	logger *zap.Logger,
	ledgerService core.LedgerService,
	betaService core.BetaService,
	billingService core.BillingService,
	auditService core.AuditService,
	authorizeService *core.AuthorizeService,
) {
	firebaseAuthClient := db.GetFirebaseAuthClient()
	if firebaseAuthClient == nil {
		logger.Fatal("CRITICAL_SETUP_ERROR: Firebase Auth client is not initialized; routes will not be set up.")
		panic("Firebase Auth client is nil during route setup")
	}
	authMW := middleware.NewAuthMiddleware(firebaseAuthClient)

	creditsHandler := NewCreditsHandler(ledgerService, logger)
	userHandler := NewUserHandler(ledgerService, auditService, logger)
	betaHandler := NewBetaHandler(betaService, logger)
	cliAuthHandler := NewCLIAuthHandler(authorizeService, ledgerService, auditService, appConfig.ClientURL, logger)
	billingHandler := NewBillingHandler(billingService, auditService, appConfig.BillingWebhookSecret, logger)

	// Public CLI query endpoint. The path has no /v1 segment: released CLI
	// builds have /api/credits baked in.
	router.GET("/api/credits",
		middleware.RateLimit(appConfig.CreditsRateLimit, appConfig.CreditsRateBurst),
		creditsHandler.Handle,
	)

	apiV1 := router.Group("/api/v1")
	{
		usersGroup := apiV1.Group("/users")
		{
			usersGroup.POST("/initialize", authMW.VerifyToken(), userHandler.InitializeProfile)
			usersGroup.GET("/me", authMW.VerifyToken(), userHandler.GetCurrentProfile)
		}

		betaGroup := apiV1.Group("/beta")
		{
			// Optional auth: anonymous submissions are allowed.
			betaGroup.POST("/requests", authMW.OptionalVerifyToken(), betaHandler.Submit)
		}

		cliGroup := apiV1.Group("/cli")
		{
			cliGroup.GET("/authorize", authMW.OptionalVerifyToken(), cliAuthHandler.GetContext)
			cliGroup.POST("/authorize", authMW.VerifyToken(), cliAuthHandler.Authorize)
			cliGroup.POST("/deny", authMW.VerifyToken(), cliAuthHandler.Deny)
		}

		billingGroup := apiV1.Group("/billing")
		{
			billingGroup.POST("/checkout", authMW.VerifyToken(), billingHandler.CreateCheckoutSession)
			// Shared-secret auth, no user token (external billing process).
			billingGroup.POST("/webhooks/grant", billingHandler.HandleGrantWebhook)
		}
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "AADC backend is healthy."})
	})

	logger.Info("API routes configured successfully under /api, /api/v1, /metrics and /health.")
}
