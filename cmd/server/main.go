// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/licensechain/internal/app"
	"github.com/javajoker/licensechain/internal/config"
	"github.com/javajoker/licensechain/internal/database"
	"github.com/javajoker/licensechain/internal/i18n"
	"github.com/javajoker/licensechain/internal/router"
	"github.com/javajoker/licensechain/internal/services"
	"github.com/javajoker/licensechain/internal/utils"
	"github.com/javajoker/licensechain/internal/wallet"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := app.NewLogger(cfg.Logging, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize i18n
	if err := i18n.Initialize(cfg.I18n.DefaultLocale); err != nil {
		logger.WithError(err).Fatal("Failed to initialize i18n")
	}
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Ledger and operator key
	ledger, err := app.OpenLedger(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open ledger")
	}
	defer ledger.Close()

	var operator wallet.Provider
	if ledger.Operator != nil {
		operator = ledger.Operator
	} else {
		logger.Warn("BLOCKCHAIN_PRIVATE_KEY not set, admin actions over HTTP are disabled")
	}

	// Admin registry
	admins, err := services.NewAdminRegistry(cfg.Admin.Addresses, cfg.Admin.AddressesFile, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load admin registry")
	}
	admins.Watch(ctx)
	logger.WithField("admins", len(admins.Addresses())).Info("admin registry loaded")
	if !admins.IsAdmin(ledger.ContractAdmin.Hex()) {
		logger.WithField("contract_admin", ledger.ContractAdmin.Hex()).Warn("contract admin is not in the admin registry")
	}

	// Redis for login nonces and revoked sessions
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to redis")
	}

	// Services
	identityService := services.NewIdentityService(admins, logger)
	authService := services.NewAuthService(services.NewRedisSessionStore(redisClient), identityService, cfg, logger)
	licenseService := services.NewLicenseService(ledger.Ledger, cfg.Renewal.Window(), logger)
	notificationService := services.NewNotificationService(cfg, logger)
	storageService, err := services.NewStorageService(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize document storage")
	}

	adminService := services.NewAdminService(identityService, ledger.Ledger, licenseService, logger)
	adminService.SetNotifier(notificationService)

	// Optional database for audit logs and renewal reminders
	var auditService *services.AuditService
	if cfg.Database.Enabled {
		db, err := database.Initialize(cfg.Database, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize database")
		}
		defer database.Close(db, logger)

		if err := database.RunMigrations(db, logger); err != nil {
			logger.WithError(err).Fatal("Failed to run migrations")
		}

		auditService = services.NewAuditService(db)
		adminService.SetAuditRecorder(auditService)

		if cfg.Renewal.Enabled {
			renewals := services.NewRenewalService(licenseService, notificationService, services.NewGormReminderStore(db), cfg.Renewal.Interval, logger)
			go renewals.Run(ctx)
		}
	} else if cfg.Renewal.Enabled {
		logger.Warn("renewal reminders need a database, skipping")
	}

	// Optional NATS for status change events
	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL, nats.Name("licensechain-server"))
		if err != nil {
			logger.WithError(err).Warn("NATS unavailable, status events disabled")
		} else {
			defer nc.Drain()
			adminService.SetEventPublisher(services.NewNATSPublisher(nc, cfg.NATS.Subject, cfg.NATS.MaxRetries))
		}
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := router.Initialize(&router.Services{
		Auth:     authService,
		Admins:   admins,
		Licenses: licenseService,
		Storage:  storageService,
		Admin:    adminService,
		Audit:    auditService,
		Operator: operator,
		Version:  version,
	}, cfg, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
		os.Exit(1)
	}

	logger.Info("Server exited")
}
