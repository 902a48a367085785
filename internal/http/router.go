package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter(handler *Handler, authMiddleware gin.HandlerFunc, env string) *gin.Engine {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"*"},
		ExposeHeaders:   []string{"Content-Type"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Citizen flow is anonymous: the session id and the ticket number are
	// the only credentials.
	public := router.Group("/api/v1")
	{
		public.POST("/complaints", handler.captureComplaint)
		public.POST("/complaints/:id/submit", handler.submitComplaint)
		public.GET("/track/:number", handler.trackTicket)
		public.POST("/track/:number/rating", handler.rateTicket)
	}

	protected := router.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.GET("/tickets", handler.listTickets)
		protected.GET("/tickets/:id", handler.getTicket)
		protected.PUT("/tickets/:id/assign", handler.assignTicket)
		protected.PUT("/tickets/:id/status", handler.updateTicketStatus)
		protected.POST("/tickets/:id/notes", handler.addTicketNote)
		protected.POST("/tickets/:id/start", handler.startWork)
		protected.POST("/tickets/:id/completion", handler.submitCompletion)
		protected.POST("/bulk/tickets/assign", handler.bulkAssignTickets)
		protected.POST("/bulk/tickets/status", handler.bulkUpdateTicketStatus)

		protected.GET("/notifications", handler.listNotifications)
		protected.PUT("/notifications/:id/read", handler.markNotificationRead)

		protected.GET("/wards", handler.listWards)
		protected.POST("/wards", handler.createWard)
		protected.GET("/wards/:id", handler.getWard)
		protected.PUT("/wards/:id", handler.updateWard)
		protected.DELETE("/wards/:id", handler.deleteWard)
		protected.GET("/resolve/ward", handler.resolveWard)

		protected.GET("/contractors", handler.listContractors)
		protected.POST("/contractors", handler.createContractor)
		protected.PUT("/contractors/:id/wards", handler.assignContractorWards)

		protected.GET("/dashboard", handler.dashboard)
		protected.GET("/analytics/report", handler.analyticsReport)
	}

	return router
}
