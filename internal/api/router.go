package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/opsboard/opsboard/internal/api/handlers"
	"github.com/opsboard/opsboard/internal/api/middleware"
	"github.com/opsboard/opsboard/internal/core/auth"
)

type Router struct {
	engine             *gin.Engine
	logger             *zap.Logger
	authMiddleware     *middleware.AuthMiddleware
	authHandler        *handlers.AuthHandler
	workflowHandler    *handlers.WorkflowHandler
	appointmentHandler *handlers.AppointmentHandler
	contactHandler     *handlers.ContactHandler
	chatHandler        *handlers.ChatHandler
	catalogHandler     *handlers.CatalogHandler
	agentQueryHandler  *handlers.AgentQueryHandler
}

func NewRouter(
	authService *auth.Service,
	logger *zap.Logger,
	authHandler *handlers.AuthHandler,
	workflowHandler *handlers.WorkflowHandler,
	appointmentHandler *handlers.AppointmentHandler,
	contactHandler *handlers.ContactHandler,
	chatHandler *handlers.ChatHandler,
	catalogHandler *handlers.CatalogHandler,
	agentQueryHandler *handlers.AgentQueryHandler,
) *Router {
	return &Router{
		logger:             logger,
		authMiddleware:     middleware.NewAuthMiddleware(authService),
		authHandler:        authHandler,
		workflowHandler:    workflowHandler,
		appointmentHandler: appointmentHandler,
		contactHandler:     contactHandler,
		chatHandler:        chatHandler,
		catalogHandler:     catalogHandler,
		agentQueryHandler:  agentQueryHandler,
	}
}

func (r *Router) Setup(mode string) *gin.Engine {
	gin.SetMode(mode)
	r.engine = gin.New()
	r.engine.Use(gin.Recovery())
	r.engine.Use(middleware.AuditMiddleware())
	r.engine.Use(middleware.RequestLogger(r.logger))

	r.setupRoutes()
	return r.engine
}

func (r *Router) setupRoutes() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", r.authHandler.Register)
		authRoutes.POST("/login", r.authHandler.Login)
	}

	protected := api.Group("")
	protected.Use(r.authMiddleware.Authenticate())
	{
		protected.GET("/auth/me", r.authHandler.Me)

		tenants := protected.Group("/tenants")
		{
			tenants.POST("", r.authHandler.CreateTenant)
			tenants.GET("", r.authHandler.ListTenants)
		}

		// Everything below is tenant-scoped: the session is initialized for
		// the tenant and carries the resolved permission set.
		scoped := protected.Group("")
		scoped.Use(r.authMiddleware.RequireTenant())
		{
			scoped.POST("/auth/logout", r.authHandler.Logout)

			scoped.GET("/roles", r.authHandler.ListRoles)
			scoped.POST("/members", r.authMiddleware.RequirePermission(auth.ResourceTenants, auth.ActionUpdate), r.authHandler.AddMember)
			scoped.DELETE("/members/:userId", r.authMiddleware.RequirePermission(auth.ResourceTenants, auth.ActionUpdate), r.authHandler.RemoveMember)

			workflows := scoped.Group("/workflows")
			{
				workflows.GET("", r.authMiddleware.RequirePermission(auth.ResourceWorkflows, auth.ActionView), r.workflowHandler.List)
				workflows.GET("/export", r.authMiddleware.RequirePermission(auth.ResourceWorkflows, auth.ActionView), r.workflowHandler.Export)
				workflows.POST("", r.authMiddleware.RequirePermission(auth.ResourceWorkflows, auth.ActionCreate), r.workflowHandler.Create)
				workflows.POST("/trigger", r.authMiddleware.RequirePermission(auth.ResourceWorkflows, auth.ActionCreate), r.workflowHandler.Trigger)
				workflows.GET("/:id", r.authMiddleware.RequirePermission(auth.ResourceWorkflows, auth.ActionView), r.workflowHandler.Get)
				workflows.PUT("/:id/status", r.authMiddleware.RequirePermission(auth.ResourceWorkflows, auth.ActionUpdate), r.workflowHandler.UpdateStatus)
				workflows.DELETE("/:id", r.authMiddleware.RequirePermission(auth.ResourceWorkflows, auth.ActionDelete), r.workflowHandler.Delete)
			}

			appointments := scoped.Group("/appointments")
			{
				appointments.GET("", r.authMiddleware.RequirePermission(auth.ResourceAppointments, auth.ActionView), r.appointmentHandler.List)
				appointments.GET("/export", r.authMiddleware.RequirePermission(auth.ResourceAppointments, auth.ActionView), r.appointmentHandler.Export)
				appointments.POST("", r.authMiddleware.RequirePermission(auth.ResourceAppointments, auth.ActionCreate), r.appointmentHandler.Create)
				appointments.PUT("/:id/status", r.authMiddleware.RequirePermission(auth.ResourceAppointments, auth.ActionUpdate), r.appointmentHandler.UpdateStatus)
				appointments.DELETE("/:id", r.authMiddleware.RequirePermission(auth.ResourceAppointments, auth.ActionDelete), r.appointmentHandler.Delete)
			}

			contacts := scoped.Group("/contacts")
			{
				contacts.GET("", r.authMiddleware.RequirePermission(auth.ResourceContacts, auth.ActionView), r.contactHandler.List)
				contacts.GET("/export", r.authMiddleware.RequirePermission(auth.ResourceContacts, auth.ActionView), r.contactHandler.Export)
				contacts.POST("", r.authMiddleware.RequirePermission(auth.ResourceContacts, auth.ActionCreate), r.contactHandler.Create)
				contacts.GET("/:id", r.authMiddleware.RequirePermission(auth.ResourceContacts, auth.ActionView), r.contactHandler.Get)
				contacts.PUT("/:id", r.authMiddleware.RequirePermission(auth.ResourceContacts, auth.ActionUpdate), r.contactHandler.Update)
				contacts.DELETE("/:id", r.authMiddleware.RequirePermission(auth.ResourceContacts, auth.ActionDelete), r.contactHandler.Delete)
			}

			chats := scoped.Group("/chats")
			{
				chats.GET("", r.authMiddleware.RequirePermission(auth.ResourceChats, auth.ActionView), r.chatHandler.List)
				chats.GET("/export", r.authMiddleware.RequirePermission(auth.ResourceChats, auth.ActionView), r.chatHandler.Export)
				chats.POST("", r.authMiddleware.RequirePermission(auth.ResourceChats, auth.ActionCreate), r.chatHandler.Create)
				chats.PUT("/:id/status", r.authMiddleware.RequirePermission(auth.ResourceChats, auth.ActionUpdate), r.chatHandler.UpdateStatus)
				chats.POST("/:id/messages", r.authMiddleware.RequirePermission(auth.ResourceChats, auth.ActionUpdate), r.chatHandler.RecordMessage)
				chats.DELETE("/:id", r.authMiddleware.RequirePermission(auth.ResourceChats, auth.ActionDelete), r.chatHandler.Delete)
			}

			catalogItems := scoped.Group("/catalog")
			{
				catalogItems.GET("", r.authMiddleware.RequirePermission(auth.ResourceDocuments, auth.ActionView), r.catalogHandler.List)
				catalogItems.GET("/export", r.authMiddleware.RequirePermission(auth.ResourceDocuments, auth.ActionView), r.catalogHandler.Export)
				catalogItems.POST("/documents", r.authMiddleware.RequirePermission(auth.ResourceDocuments, auth.ActionCreate), r.catalogHandler.UploadDocument)
				catalogItems.POST("/urls", r.authMiddleware.RequirePermission(auth.ResourceDocuments, auth.ActionCreate), r.catalogHandler.CreateURL)
				catalogItems.GET("/:id", r.authMiddleware.RequirePermission(auth.ResourceDocuments, auth.ActionView), r.catalogHandler.Get)
				catalogItems.GET("/:id/download", r.authMiddleware.RequirePermission(auth.ResourceDocuments, auth.ActionView), r.catalogHandler.Download)
				catalogItems.PUT("/:id", r.authMiddleware.RequirePermission(auth.ResourceDocuments, auth.ActionUpdate), r.catalogHandler.Update)
				catalogItems.DELETE("/:id", r.authMiddleware.RequirePermission(auth.ResourceDocuments, auth.ActionDelete), r.catalogHandler.Delete)
			}

			queries := scoped.Group("/queries")
			{
				queries.GET("", r.authMiddleware.RequirePermission(auth.ResourceQueries, auth.ActionView), r.agentQueryHandler.List)
				queries.GET("/stats", r.authMiddleware.RequirePermission(auth.ResourceQueries, auth.ActionView), r.agentQueryHandler.Stats)
				queries.GET("/export", r.authMiddleware.RequirePermission(auth.ResourceQueries, auth.ActionView), r.agentQueryHandler.Export)
				queries.POST("", r.authMiddleware.RequirePermission(auth.ResourceQueries, auth.ActionCreate), r.agentQueryHandler.Create)
				queries.DELETE("/:id", r.authMiddleware.RequirePermission(auth.ResourceQueries, auth.ActionDelete), r.agentQueryHandler.Delete)
			}

			// The overview page needs view on at least one feature area.
			scoped.GET("/overview", r.authMiddleware.RequireAnyPermission(auth.AllResources, auth.ActionView), func(c *gin.Context) {
				session, _ := middleware.GetSession(c)
				c.JSON(200, gin.H{"roles": session.Roles(), "admin": session.IsAdmin()})
			})
		}
	}
}
