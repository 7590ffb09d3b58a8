// Package api wires together all HTTP routes for the GRC platform backend.
//
// Route grouping philosophy:
//   - Reads (GET) are tenant-scoped by the org_id query parameter and carry
//     optional authentication; the frontend dashboard issues them before a
//     session exists.
//   - Writes (POST/PATCH/DELETE) always require an authenticated principal,
//     whose organization claim supplies the tenant. An unauthenticated write
//     is rejected before any handler logic runs, so it has no side effects.
package api

import (
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/grcplatform/grc-backend/internal/api/grc"
	"github.com/grcplatform/grc-backend/internal/api/session"
	"github.com/grcplatform/grc-backend/internal/audit"
	"github.com/grcplatform/grc-backend/internal/auth/oidc"
	"github.com/grcplatform/grc-backend/internal/cloudverify"
	"github.com/grcplatform/grc-backend/internal/config"
	"github.com/grcplatform/grc-backend/internal/crypto"
	"github.com/grcplatform/grc-backend/internal/db/repositories"
	"github.com/grcplatform/grc-backend/internal/middleware"
)

// BackgroundServices holds resources that must be stopped during graceful
// shutdown. The caller (cmd/server) calls Shutdown() after draining the HTTP
// server.
type BackgroundServices struct {
	shipper      *audit.MultiShipper
	rateLimiters []*middleware.RateLimiter
	redisClient  *redis.Client
}

// Shutdown releases background resources
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	if bg.shipper != nil {
		if err := bg.shipper.Close(); err != nil {
			slog.Warn("failed to close audit shippers", "error", err)
		}
	}
	if bg.redisClient != nil {
		if err := bg.redisClient.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sql.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	sqlxDB := sqlx.NewDb(db, "postgres")

	// Repositories
	orgRepo := repositories.NewOrganizationRepository(sqlxDB)
	userRepo := repositories.NewUserRepository(sqlxDB)
	assetRepo := repositories.NewAssetRepository(sqlxDB)
	auditRepo := repositories.NewAuditRepository(sqlxDB)
	findingRepo := repositories.NewFindingRepository(sqlxDB)
	riskRepo := repositories.NewRiskRepository(sqlxDB)
	vendorRepo := repositories.NewVendorRepository(sqlxDB)
	incidentRepo := repositories.NewIncidentRepository(sqlxDB)
	cloudRepo := repositories.NewCloudRepository(sqlxDB)
	cspmRepo := repositories.NewCSPMRepository(sqlxDB)
	integrationRepo := repositories.NewIntegrationRepository(sqlxDB)
	frameworkRepo := repositories.NewFrameworkRepository(sqlxDB)
	auditLogRepo := repositories.NewAuditLogRepository(sqlxDB)

	// Token cipher for credentials at rest
	encryptionKey := os.Getenv("ENCRYPTION_KEY")
	if encryptionKey == "" {
		log.Fatal("ENCRYPTION_KEY environment variable must be set for credential storage")
	}
	tokenCipher, err := crypto.NewTokenCipher([]byte(encryptionKey))
	if err != nil {
		log.Fatalf("Failed to initialize token cipher: %v", err)
	}

	// Audit trail emitter, with optional external shipping
	shipper, err := audit.NewMultiShipper(cfg.Audit.Shippers)
	if err != nil {
		log.Fatalf("Failed to initialize audit shippers: %v", err)
	}
	emitter := audit.NewEmitter(auditLogRepo, shipper, cfg.Audit.EmitTimeout)

	// Cloud credential verifier
	verifier := cloudverify.NewVerifier(tokenCipher, cfg.Cloud)

	// OIDC SSO provider; login falls back to email/password when disabled or
	// misconfigured
	var oidcProvider *oidc.OIDCProvider
	if cfg.Auth.OIDC.Enabled {
		oidcProvider, err = oidc.NewOIDCProvider(&cfg.Auth.OIDC)
		if err != nil {
			slog.Error("failed to initialize OIDC provider, SSO disabled", "error", err, "issuer", cfg.Auth.OIDC.IssuerURL)
			oidcProvider = nil
		} else {
			slog.Info("OIDC provider initialized", "issuer", cfg.Auth.OIDC.IssuerURL)
		}
	}

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	router.GET("/health", healthCheckHandler(db))
	router.GET("/ready", readinessHandler(db))
	router.GET("/version", versionHandler())

	// Rate limiting: Redis-backed when an address is configured so limits hold
	// across replicas, in-memory token buckets otherwise.
	var (
		authLimit    gin.HandlerFunc
		generalLimit gin.HandlerFunc
		bg           = &BackgroundServices{shipper: shipper}
	)
	if cfg.Redis.Address != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		bg.redisClient = rdb
		authLimit = middleware.RedisRateLimitMiddleware(middleware.NewRedisRateLimiter(rdb, middleware.AuthRateLimitConfig()))
		generalLimit = middleware.RedisRateLimitMiddleware(middleware.NewRedisRateLimiter(rdb, middleware.DefaultRateLimitConfig()))
	} else {
		authRateLimiter := middleware.NewRateLimiter(middleware.AuthRateLimitConfig())
		generalRateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())
		bg.rateLimiters = []*middleware.RateLimiter{authRateLimiter, generalRateLimiter}
		authLimit = middleware.RateLimitMiddleware(authRateLimiter)
		generalLimit = middleware.RateLimitMiddleware(generalRateLimiter)
	}

	// Handlers
	authHandlers := session.NewAuthHandlers(cfg, userRepo, oidcProvider)
	orgHandlers := grc.NewOrganizationHandlers(orgRepo, emitter)
	assetHandlers := grc.NewAssetHandlers(assetRepo, emitter)
	auditHandlers := grc.NewAuditHandlers(auditRepo, findingRepo, emitter)
	findingHandlers := grc.NewFindingHandlers(findingRepo, emitter)
	riskHandlers := grc.NewRiskHandlers(riskRepo, emitter)
	vendorHandlers := grc.NewVendorHandlers(vendorRepo, emitter)
	incidentHandlers := grc.NewIncidentHandlers(incidentRepo, emitter)
	cloudHandlers := grc.NewCloudHandlers(cloudRepo, verifier, tokenCipher, emitter)
	cspmHandlers := grc.NewCSPMHandlers(cspmRepo, emitter)
	integrationHandlers := grc.NewIntegrationHandlers(integrationRepo, tokenCipher, emitter)
	frameworkHandlers := grc.NewFrameworkHandlers(frameworkRepo, emitter)
	auditLogHandlers := grc.NewAuditLogHandlers(auditLogRepo)

	requireAuth := middleware.RequireAuth(userRepo)

	apiV1 := router.Group("/api/v1")
	{
		// Authentication endpoints (stricter rate limit)
		authGroup := apiV1.Group("/auth")
		authGroup.Use(authLimit)
		{
			authGroup.POST("/login", authHandlers.LoginHandler())
			authGroup.GET("/sso/login", authHandlers.SSOLoginHandler())
			authGroup.GET("/sso/callback", authHandlers.SSOCallbackHandler())
			authGroup.GET("/me", requireAuth, authHandlers.MeHandler())
			authGroup.POST("/refresh", requireAuth, authHandlers.RefreshHandler())
		}

		// Read endpoints: org_id-scoped, optional auth
		reads := apiV1.Group("")
		reads.Use(generalLimit)
		reads.Use(middleware.OptionalAuth(userRepo))
		{
			reads.GET("/organizations/:id", orgHandlers.GetOrganizationHandler())

			reads.GET("/assets", assetHandlers.ListAssetsHandler())

			reads.GET("/audits", auditHandlers.ListAuditsHandler())
			reads.GET("/audits/:id/findings", auditHandlers.ListAuditFindingsHandler())
			reads.GET("/audits/:id/readiness", auditHandlers.ListReadinessHandler())

			reads.GET("/findings", findingHandlers.ListFindingsHandler())

			reads.GET("/risks", riskHandlers.ListRisksHandler())
			reads.GET("/risks/:id/treatments", riskHandlers.ListRiskTreatmentsHandler())

			reads.GET("/vendors", vendorHandlers.ListVendorsHandler())

			reads.GET("/incidents", incidentHandlers.ListIncidentsHandler())
			reads.GET("/incidents/:id/timeline", incidentHandlers.ListIncidentTimelineHandler())

			reads.GET("/cloud-accounts", cloudHandlers.ListCloudAccountsHandler())
			reads.GET("/cloud-inventory", cloudHandlers.ListCloudInventoryHandler())
			reads.GET("/cloud-inventory/:id", cloudHandlers.GetCloudResourceHandler())

			reads.GET("/cspm/findings", cspmHandlers.ListCSPMFindingsHandler())
			reads.GET("/cspm/stats", cspmHandlers.CSPMStatsHandler())

			reads.GET("/integrations", integrationHandlers.ListIntegrationsHandler())

			reads.GET("/frameworks", frameworkHandlers.ListFrameworksHandler())
			reads.GET("/frameworks/:id/domains", frameworkHandlers.ListFrameworkDomainsHandler())
			reads.GET("/frameworks/:id/requirements", frameworkHandlers.ListFrameworkRequirementsHandler())
			reads.GET("/controls", frameworkHandlers.ListControlsHandler())

			reads.GET("/audit-logs", auditLogHandlers.ListAuditLogsHandler())
		}

		// Write endpoints: authenticated principal required
		writes := apiV1.Group("")
		writes.Use(generalLimit)
		writes.Use(requireAuth)
		{
			writes.POST("/organizations", orgHandlers.CreateOrganizationHandler())
			writes.PATCH("/organizations/:id", orgHandlers.UpdateOrganizationHandler())

			writes.POST("/assets", assetHandlers.CreateAssetHandler())
			writes.DELETE("/assets/:id", assetHandlers.DeleteAssetHandler())
			writes.PATCH("/assets/:id/classification", assetHandlers.UpdateClassificationHandler())

			writes.POST("/audits", auditHandlers.CreateAuditHandler())
			writes.POST("/audits/:id/findings", auditHandlers.CreateAuditFindingHandler())
			writes.POST("/audits/:id/readiness", auditHandlers.CreateReadinessItemHandler())

			writes.PATCH("/findings/:id", findingHandlers.UpdateFindingHandler())

			writes.POST("/risks", riskHandlers.CreateRiskHandler())
			writes.POST("/risks/:id/treatments", riskHandlers.CreateRiskTreatmentHandler())

			writes.POST("/vendors", vendorHandlers.CreateVendorHandler())

			writes.POST("/incidents", incidentHandlers.CreateIncidentHandler())
			writes.POST("/incidents/:id/timeline", incidentHandlers.CreateIncidentEventHandler())

			writes.POST("/cloud-accounts", cloudHandlers.CreateCloudAccountHandler())
			writes.POST("/cloud-accounts/:id/verify", cloudHandlers.VerifyCloudAccountHandler())
			writes.PATCH("/cloud-inventory/:id", cloudHandlers.UpdateCloudResourceHandler())

			writes.POST("/cspm/findings", cspmHandlers.CreateCSPMFindingHandler())

			writes.POST("/integrations", integrationHandlers.CreateIntegrationHandler())

			writes.POST("/frameworks", frameworkHandlers.CreateFrameworkHandler())
		}
	}

	return router, bg
}

// healthCheckHandler returns the health status of the service
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// readinessHandler returns the readiness status of the service. The database
// is the only hard dependency; Redis and the audit shippers degrade gracefully.
func readinessHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}

		if err := db.Ping(); err != nil {
			checks["database"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "database not ready",
			})
			return
		}
		checks["database"] = "healthy"

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured request logging
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		requestID, _ := c.Get(middleware.RequestIDKey)
		slog.LogAttrs(
			c.Request.Context(),
			slog.LevelInfo,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", latency),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", fmt.Sprintf("%v", requestID)),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
