package routes

import (
	"bookline/handlers"
	"bookline/middleware"
	"bookline/utils"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterOwnerRoutes registers owner, service and client management.
func RegisterOwnerRoutes(r *gin.Engine) {
	api := r.Group("/api/owners")
	{
		api.POST("", handlers.RegisterOwner)
		api.PUT("/:ownerID/settings", handlers.UpsertSettings)
		api.PUT("/:ownerID/intent", handlers.SwitchIntent)
		api.GET("/:ownerID/audit", handlers.GetAuditTrail)
		api.GET("/:ownerID/schedule", handlers.GetDaySchedule)
		api.GET("/:ownerID/services", handlers.ListServices)
		api.GET("/:ownerID/clients/:clientID/appointments", handlers.ListClientAppointments)
	}

	r.POST("/api/services", handlers.CreateService)
	r.DELETE("/api/services/:id", handlers.RetireService)
	r.POST("/api/clients", handlers.RegisterClient)
}

// RegisterBookingRoutes registers the scheduling engine endpoints.
func RegisterBookingRoutes(r *gin.Engine) {
	api := r.Group("/api/appointments")
	{
		api.POST("", handlers.BookAppointment)
		api.POST("/cancel", handlers.CancelAppointment)
		api.POST("/reschedule", handlers.RescheduleAppointment)
		api.PUT("/:id/complete", handlers.CompleteAppointment)
		api.PUT("/:id/no-show", handlers.MarkNoShow)
	}
}

// RegisterWaitlistRoutes registers the waitlist endpoints.
func RegisterWaitlistRoutes(r *gin.Engine) {
	api := r.Group("/api/waitlist")
	{
		api.POST("", handlers.EnqueueWaitlist)
		api.POST("/:id/claim", handlers.ClaimOffer)
		api.DELETE("/:id", handlers.WithdrawWaitlist)
		api.GET("/:ownerID/clients/:clientID", handlers.ListClientWaitlist)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Hi, I'm Bookline",
			"deps":    utils.GetHealthStatus(),
		})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine) {
	// Setup global middleware (e.g., CORS) here.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware())

	RegisterHealthRoute(r)
	RegisterOwnerRoutes(r)
	RegisterBookingRoutes(r)
	RegisterWaitlistRoutes(r)
}
