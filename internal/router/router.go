// internal/router/router.go
package router

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/datasov-backend/internal/config"
	"github.com/javajoker/datasov-backend/internal/events"
	"github.com/javajoker/datasov-backend/internal/handlers"
	"github.com/javajoker/datasov-backend/internal/i18n"
	"github.com/javajoker/datasov-backend/internal/metrics"
	"github.com/javajoker/datasov-backend/internal/middleware"
	"github.com/javajoker/datasov-backend/internal/repository"
	"github.com/javajoker/datasov-backend/internal/services"
	"github.com/javajoker/datasov-backend/internal/utils"
)

// Initialize wires services and handlers over store and returns the HTTP
// engine. The fee account and bootstrap admin are seeded before routes open.
func Initialize(cfg *config.Config, store repository.Store, sink events.Sink, m *metrics.Metrics) (*gin.Engine, error) {
	if sink == nil {
		sink = events.NopSink{}
	}

	// Initialize services
	engine := services.NewEngine(store, services.SystemClock{}, sink, m)

	oracleService := services.NewOracleService(engine)
	identityService := services.NewIdentityService(engine)
	permissionService := services.NewPermissionService(engine)
	marketplaceService := services.NewMarketplaceService(engine, services.LedgerRail{}, cfg.Marketplace.FeeAccount)
	accountService := services.NewAccountService(engine, cfg)
	paymentService := services.NewPaymentService(engine, cfg)
	evidenceService, err := services.NewEvidenceService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize evidence storage: %w", err)
	}

	if err := accountService.SeedAccounts(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to seed accounts: %w", err)
	}

	// Initialize handlers
	adminHandler := handlers.NewAdminHandler(oracleService, marketplaceService)
	authHandler := handlers.NewAuthHandler(accountService)
	accountHandler := handlers.NewAccountHandler(accountService)
	oracleHandler := handlers.NewOracleHandler(oracleService)
	identityHandler := handlers.NewIdentityHandler(identityService)
	permissionHandler := handlers.NewPermissionHandler(permissionService)
	verificationHandler := handlers.NewVerificationHandler(permissionService)
	marketplaceHandler := handlers.NewMarketplaceHandler(marketplaceService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	evidenceHandler := handlers.NewEvidenceHandler(evidenceService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	limits := middleware.NewRateLimits(cfg.RateLimit)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Server.AllowOrigins))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.Metrics(m))
	r.Use(limits.General.Middleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
			"locales": i18n.GetSupportedLanguages(),
		})
	})

	if cfg.Metrics.Enabled && m != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}

	// API v1 routes
	v1 := r.Group("/v1")
	v1.Use(middleware.AuditLog(sink))
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(limits.Auth.Middleware())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/token", authHandler.Token)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Oracle registry routes
		oracles := v1.Group("/oracles")
		{
			oracles.GET("/registry", oracleHandler.GetRegistry)
			oracles.GET("/:operator", oracleHandler.GetOracle)
			oracles.POST("/registry", middleware.AuthRequired(), middleware.AdminRequired(), adminHandler.InitializeRegistry)
			oracles.POST("", middleware.AuthRequired(), oracleHandler.RegisterOracle)
		}

		// Identity and permission routes
		identities := v1.Group("/identities")
		{
			identities.GET("", middleware.OptionalAuth(), identityHandler.ListIdentities)
			identities.GET("/:key", identityHandler.GetIdentity)
			identities.GET("/:key/permissions", permissionHandler.ListPermissions)
			identities.GET("/:key/permissions/:consumer", permissionHandler.GetPermission)
			identities.GET("/:key/permissions/:consumer/validate", verificationHandler.ValidateAccess)

			protected := identities.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", identityHandler.RegisterIdentity)
				protected.PUT("/:key", identityHandler.UpdateIdentity)
				protected.POST("/:key/verify", identityHandler.VerifyIdentity)
				protected.POST("/:key/revoke", identityHandler.RevokeIdentity)
				protected.POST("/:key/permissions", permissionHandler.GrantAccess)
				protected.POST("/:key/permissions/:consumer/revoke", permissionHandler.RevokeAccess)
			}
		}

		// Marketplace routes
		marketplace := v1.Group("/marketplace")
		{
			marketplace.GET("", marketplaceHandler.GetMarketplace)
			marketplace.POST("", middleware.AuthRequired(), middleware.AdminRequired(), adminHandler.InitializeMarketplace)
			marketplace.POST("/withdraw", middleware.AuthRequired(), marketplaceHandler.WithdrawFees)
		}

		listings := v1.Group("/listings")
		{
			listings.GET("", marketplaceHandler.SearchListings)
			listings.GET("/:id", marketplaceHandler.GetListing)

			protected := listings.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", marketplaceHandler.CreateListing)
				protected.PUT("/:id/price", marketplaceHandler.UpdatePrice)
				protected.POST("/:id/cancel", marketplaceHandler.CancelListing)
				protected.POST("/:id/purchase", marketplaceHandler.Purchase)
			}
		}

		// Account routes
		accounts := v1.Group("/accounts")
		accounts.Use(middleware.AuthRequired())
		{
			accounts.GET("/balance", accountHandler.GetBalance)
			accounts.GET("/settlements", accountHandler.GetSettlements)
		}

		// Payment routes
		payments := v1.Group("/payments")
		payments.Use(middleware.AuthRequired())
		{
			payments.POST("/deposits", paymentHandler.CreateDeposit)
			payments.POST("/deposits/confirm", paymentHandler.ConfirmDeposit)
		}

		// Evidence routes
		evidence := v1.Group("/evidence")
		evidence.Use(middleware.AuthRequired())
		{
			evidence.POST("", limits.Upload.Middleware(), evidenceHandler.Upload)
			evidence.GET("/url", evidenceHandler.PresignURL)
		}
	}

	return r, nil
}
