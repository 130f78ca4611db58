package api

import (
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/relocrm/leadstack/api/middleware"
	"github.com/relocrm/leadstack/api/rest/handlers"
	"github.com/relocrm/leadstack/api/rest/handlers/autosync"
	"github.com/relocrm/leadstack/api/rest/handlers/customers"
	"github.com/relocrm/leadstack/api/rest/handlers/emails"
	"github.com/relocrm/leadstack/api/rest/handlers/imports"
	"github.com/relocrm/leadstack/api/rest/handlers/notifications"
	"github.com/relocrm/leadstack/api/rest/handlers/sharing"
	"github.com/relocrm/leadstack/internal/repository"
	"github.com/relocrm/leadstack/internal/tracing"
	"github.com/relocrm/leadstack/services"
)

const (
	APIKeyHeader = "X-LEADSTACK-API-KEY"
	AppSource    = "leadstack"
)

type RouteConfig struct {
	APIKey           string
	MailboxID        string
	DefaultSyncLimit int
}

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(r *gin.Engine, s *services.Services, repos *repository.Repositories, cfg RouteConfig) {
	if s == nil {
		panic("Services cannot be nil")
	}
	if repos == nil {
		panic("Repositories cannot be nil")
	}

	// Add recovery middlewares
	r.Use(gin.Recovery())                                         // Gin's built-in recovery
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer())) // Our custom Jaeger recovery

	emailsHandler := emails.NewEmailsHandler(s.EmailService, s.EmailSyncService, s.CustomerImportService, cfg.DefaultSyncLimit)
	importsHandler := imports.NewImportsHandler(s.CustomerImportService)
	autoSyncHandler := autosync.NewAutoSyncHandler(s.AutoSyncService)
	sharingHandler := sharing.NewSharingHandler(s.ShareTokenService, repos)
	notificationsHandler := notifications.NewNotificationsHandler(s.NotificationService)
	customersHandler := customers.NewCustomersHandler(repos)

	// Public endpoints
	r.GET("/health", handlers.HealthCheck)
	r.GET("/status", handlers.Status(s.AutoSyncService, repos.MailboxSyncRepository, cfg.MailboxID))
	r.GET("/share/:token", sharingHandler.View())

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  APIKeyHeader,
		ValidAPIKey: cfg.APIKey,
		QueryParam:  "apiKey",
		QueryRoutes: []string{"/v1/notifications/stream"},
	})

	// API group with version and custom context
	api := r.Group("/v1")
	api.Use(apiKeyMiddleware)
	api.Use(middleware.UserMiddleware())
	api.Use(middleware.CustomContextMiddleware(AppSource))
	api.Use(middleware.TracingMiddleware())
	{
		emailRoutes := api.Group("/emails")
		{
			emailRoutes.GET("", emailsHandler.List())
			emailRoutes.GET("/folders", emailsHandler.Folders())
			emailRoutes.POST("/sync", emailsHandler.Sync())
			emailRoutes.POST("/sync-all", emailsHandler.SyncAll())
			emailRoutes.POST("/send", emailsHandler.Send())
			emailRoutes.GET("/:id", emailsHandler.Get())
			emailRoutes.POST("/:id/read", emailsHandler.SetRead())
			emailRoutes.POST("/:id/star", emailsHandler.SetStarred())
			emailRoutes.POST("/:id/move", emailsHandler.Move())
			emailRoutes.DELETE("/:id", emailsHandler.Delete())
			emailRoutes.GET("/:id/parse", emailsHandler.Parse())
			emailRoutes.POST("/:id/import", emailsHandler.Import())
		}

		importRoutes := api.Group("/imports/failed")
		{
			importRoutes.GET("", importsHandler.ListFailed())
			importRoutes.POST("/retry", importsHandler.Retry())
			importRoutes.DELETE("/:id", importsHandler.Dismiss())
		}

		autoSyncRoutes := api.Group("/autosync")
		{
			autoSyncRoutes.GET("/status", autoSyncHandler.Status())
			autoSyncRoutes.POST("/run", autoSyncHandler.Run())
			autoSyncRoutes.POST("/start", autoSyncHandler.Start())
			autoSyncRoutes.POST("/stop", autoSyncHandler.Stop())
		}

		customerRoutes := api.Group("/customers")
		{
			customerRoutes.GET("", customersHandler.List())
			customerRoutes.GET("/:id", customersHandler.Get())
			customerRoutes.POST("/:id/share-tokens", sharingHandler.Create())
			customerRoutes.GET("/:id/share-tokens", sharingHandler.List())
		}

		shareTokenRoutes := api.Group("/share-tokens")
		{
			shareTokenRoutes.DELETE("/:token", sharingHandler.Revoke())
			shareTokenRoutes.GET("/:token/url", sharingHandler.URL())
		}

		notificationRoutes := api.Group("/notifications")
		{
			notificationRoutes.GET("/unread", notificationsHandler.Unread())
			notificationRoutes.GET("/stream", notificationsHandler.Stream())
			notificationRoutes.POST("", notificationsHandler.Create())
			notificationRoutes.POST("/read-all", notificationsHandler.MarkAllRead())
			notificationRoutes.POST("/:id/read", notificationsHandler.MarkRead())
		}
	}
}
