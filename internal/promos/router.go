package promos

import (
	"seatengine/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupPromoRoutes(rg *gin.RouterGroup, controller *Controller) {
	promos := rg.Group("/promos")
	{
		promos.POST("/validate", controller.ValidatePromo) // POST /api/v1/promos/validate
	}

	adminPromos := rg.Group("/admin/promos")
	adminPromos.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		adminPromos.POST("", controller.CreatePromo)                     // POST /api/v1/admin/promos
		adminPromos.GET("", controller.ListPromos)                       // GET /api/v1/admin/promos?scope=
		adminPromos.GET("/:id", controller.GetPromo)                     // GET /api/v1/admin/promos/:id
		adminPromos.PATCH("/:id/deactivate", controller.DeactivatePromo) // PATCH /api/v1/admin/promos/:id/deactivate
	}
}
