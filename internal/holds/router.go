package holds

import (
	"seatengine/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupHoldRoutes(rg *gin.RouterGroup, controller *Controller) {
	holds := rg.Group("/holds")
	holds.Use(middleware.JWTAuth(), middleware.RequireRoles(middleware.RoleUser, middleware.RoleAdmin))
	{
		holds.POST("", controller.CreateHold)               // POST /api/v1/holds
		holds.GET("", controller.ListHolds)                 // GET /api/v1/holds?status=ACTIVE
		holds.GET("/:holdId", controller.GetHold)           // GET /api/v1/holds/:holdId
		holds.POST("/:holdId/renew", controller.RenewHold)  // POST /api/v1/holds/:holdId/renew
		holds.DELETE("/:holdId", controller.ReleaseHold)    // DELETE /api/v1/holds/:holdId
		holds.POST("/:holdId/promo", controller.ApplyPromo) // POST /api/v1/holds/:holdId/promo
	}

	adminHolds := rg.Group("/admin/holds")
	adminHolds.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		adminHolds.POST("/sweep", controller.Sweep) // POST /api/v1/admin/holds/sweep
	}
}
