package pricing

import (
	"seatengine/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupPricingRoutes(rg *gin.RouterGroup, controller *Controller) {
	adminEvents := rg.Group("/admin/events")
	adminEvents.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		adminEvents.GET("/:eventId/rates", controller.GetEventRates) // GET /api/v1/admin/events/:eventId/rates
		adminEvents.PUT("/:eventId/rates", controller.SetEventRates) // PUT /api/v1/admin/events/:eventId/rates
	}
}
