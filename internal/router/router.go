// internal/router/router.go
package router

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/licensechain/internal/config"
	"github.com/javajoker/licensechain/internal/handlers"
	"github.com/javajoker/licensechain/internal/middleware"
	"github.com/javajoker/licensechain/internal/models"
	"github.com/javajoker/licensechain/internal/services"
	"github.com/javajoker/licensechain/internal/wallet"
)

// Services are the dependencies the HTTP surface needs. Audit may be nil
// when no database is configured.
type Services struct {
	Auth     *services.AuthService
	Admins   models.AdminChecker
	Licenses *services.LicenseService
	Storage  *services.StorageService
	Admin    *services.AdminService
	Audit    *services.AuditService
	Operator wallet.Provider
	Version  string
}

func Initialize(svc *Services, cfg *config.Config, logger *logrus.Logger) *gin.Engine {
	var audit handlers.AuditLister
	if svc.Audit != nil {
		audit = svc.Audit
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(svc.Auth)
	licenseHandler := handlers.NewLicenseHandler(svc.Licenses)
	documentHandler := handlers.NewDocumentHandler(svc.Storage)
	adminHandler := handlers.NewAdminHandler(svc.Admin, svc.Licenses, audit, svc.Operator)

	authRequired := middleware.AuthRequired(svc.Auth, svc.Admins)
	optionalAuth := middleware.OptionalAuth(svc.Auth, svc.Admins)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.Frontend.AllowedOrigins))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))
	r.Use(middleware.GeneralRateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst))
	if svc.Audit != nil {
		r.Use(middleware.AuditLogMiddleware(svc.Audit, logger))
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": svc.Version,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Wallet login
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/nonce", authHandler.Nonce)
			auth.POST("/connect", authHandler.Connect)
			auth.GET("/session", authRequired, authHandler.Session)
			auth.POST("/disconnect", authRequired, authHandler.Disconnect)
		}

		// License views (public reads off the ledger)
		licenses := v1.Group("/licenses")
		{
			licenses.GET("", optionalAuth, licenseHandler.GetLicenses)
			licenses.GET("/mine", authRequired, licenseHandler.GetMyLicenses)
			licenses.GET("/renewals", authRequired, licenseHandler.GetRenewals)
			licenses.GET("/:id", licenseHandler.GetLicense)
			licenses.GET("/:id/verify", licenseHandler.VerifyLicense)
		}

		// Document upload proxy
		v1.POST("/documents", authRequired, middleware.UploadRateLimit(), documentHandler.UploadDocument)

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(authRequired, middleware.AdminRequired())
		{
			admin.GET("/stats", adminHandler.GetStats)
			admin.GET("/audit-logs", adminHandler.GetAuditLogs)

			adminLicenses := admin.Group("/licenses")
			{
				adminLicenses.PUT("/:id/approve", adminHandler.ApproveLicense)
				adminLicenses.PUT("/:id/reject", adminHandler.RejectLicense)
				adminLicenses.PUT("/:id/revoke", adminHandler.RevokeLicense)
			}
		}
	}

	// Local document store (development)
	if local, ok := svc.Storage.Store().(*services.LocalStore); ok {
		r.Static(uploadsPath(cfg.Storage.LocalBaseURL), local.Dir())
	}

	return r
}

// uploadsPath is the path component of the local store's public base URL.
func uploadsPath(baseURL string) string {
	path := "/uploads"
	if u, err := url.Parse(baseURL); err == nil && strings.Trim(u.Path, "/") != "" {
		path = "/" + strings.Trim(u.Path, "/")
	}
	return path
}
