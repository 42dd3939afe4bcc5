package seats

import (
	"seatengine/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupSeatRoutes(rg *gin.RouterGroup, controller *Controller) {
	floorPlans := rg.Group("/floor-plans")
	{
		floorPlans.GET("/:floorPlanId/seats", controller.ListSeats)              // GET /api/v1/floor-plans/:floorPlanId/seats?section=&tier=&status=
		floorPlans.GET("/:floorPlanId/availability", controller.GetAvailability) // GET /api/v1/floor-plans/:floorPlanId/availability
	}

	rg.GET("/seats/:id", controller.GetSeat) // GET /api/v1/seats/:id

	// ADMIN OVERRIDE
	adminSeats := rg.Group("/admin/seats")
	adminSeats.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		adminSeats.POST("/block", controller.BlockSeats)     // POST /api/v1/admin/seats/block
		adminSeats.POST("/unblock", controller.UnblockSeats) // POST /api/v1/admin/seats/unblock
	}
}
