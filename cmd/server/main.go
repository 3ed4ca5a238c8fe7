package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"aadc-backend-go/internal/api"
	"aadc-backend-go/internal/config"
	"aadc-backend-go/internal/core"
	"aadc-backend-go/internal/db"
	"aadc-backend-go/internal/mailer"
	"aadc-backend-go/internal/middleware"
	"aadc-backend-go/internal/token"
)

func main() {
	// A missing .env is fine; real deployments set environment variables.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}

	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	appConfig, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to load application configuration", zap.Error(err))
	}
	zapLogger.Info("Application configuration loaded successfully.")

	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()
	if err := db.InitFirestore(initCtx, appConfig); err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Firestore and Firebase Admin SDK", zap.Error(err))
	}
	zapLogger.Info("Firebase Admin SDK (Firestore, Auth) initialized successfully.")

	firestoreClient := db.GetFirestoreClient()
	if firestoreClient == nil {
		zapLogger.Fatal("CRITICAL_ERROR: Firestore client is nil after initialization.")
	}
	if db.GetFirebaseAuthClient() == nil {
		zapLogger.Fatal("CRITICAL_ERROR: Firebase Auth client is nil after initialization.")
	}

	// Repositories.
	userRepo := db.NewFirestoreUserRepository(firestoreClient)
	betaRepo := db.NewFirestoreBetaRequestRepository(firestoreClient)
	auditRepo := db.NewFirestoreAuditRepository(firestoreClient)
	zapLogger.Info("Repositories initialized successfully.")

	// Optional SMTP mailer for beta-request confirmations.
	var betaMailer mailer.Mailer
	if appConfig.MailEnabled() {
		smtpMailer, mailErr := mailer.NewSMTPMailer(
			appConfig.SMTPHost, appConfig.SMTPPort,
			appConfig.SMTPUser, appConfig.SMTPPass,
			appConfig.MailFrom,
		)
		if mailErr != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize SMTP mailer", zap.Error(mailErr))
		}
		betaMailer = smtpMailer
		zapLogger.Info("SMTP mailer enabled", zap.String("host", appConfig.SMTPHost))
	} else {
		zapLogger.Warn("SMTP mailer disabled: SMTP settings incomplete. Beta confirmations will not be sent.")
	}

	// Services.
	auditService := core.NewAuditService(auditRepo)
	ledgerService := core.NewLedgerService(userRepo, zapLogger)
	betaService := core.NewBetaService(betaRepo, userRepo, betaMailer, zapLogger)
	billingService := core.NewBillingService(userRepo, zapLogger)

	signer := token.NewSigner(appConfig.TokenSigningKey)
	if signer == nil {
		zapLogger.Warn("TOKEN_SIGNING_KEY not set: authorization redirects carry only the unsigned bundle.")
	}
	authorizeService := core.NewAuthorizeService(appConfig.ClientURL, signer)
	zapLogger.Info("Core services initialized successfully.")

	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()

	// Order matters: logger first, recovery before handlers.
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware(appConfig))

	api.SetupRoutes(
		router,
		appConfig,
		zapLogger,
		ledgerService,
		betaService,
		billingService,
		auditService,
		authorizeService,
	)

	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	zapLogger.Info("Starting HTTP server...", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("Server forced to shutdown due to error during graceful shutdown", zap.Error(err))
	}

	if err := firestoreClient.Close(); err != nil {
		zapLogger.Warn("Error closing Firestore client", zap.Error(err))
	}

	zapLogger.Info("Server exiting gracefully.")
}
