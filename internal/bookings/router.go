package bookings

import (
	"seatengine/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupBookingRoutes configures all booking-related routes
func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller) {
	// Public price preview
	rg.POST("/quotes", controller.Quote) // POST /api/v1/quotes

	// Checkout
	checkout := rg.Group("/holds")
	checkout.Use(middleware.JWTAuth(), middleware.RequireRoles(middleware.RoleUser, middleware.RoleAdmin))
	{
		checkout.POST("/:holdId/finalize", controller.Finalize) // POST /api/v1/holds/:holdId/finalize
	}

	// Receipts
	bookings := rg.Group("/bookings")
	bookings.Use(middleware.JWTAuth(), middleware.RequireRoles(middleware.RoleUser, middleware.RoleAdmin))
	{
		bookings.GET("", controller.ListBookings)   // GET /api/v1/bookings?limit=10&offset=0
		bookings.GET("/:id", controller.GetBooking) // GET /api/v1/bookings/:id
	}
}

// Key flow:
// 1. Buyer holds seats with POST /holds and sees the live price
// 2. Buyer optionally previews a promo with POST /holds/:holdId/promo
// 3. Buyer finalizes with POST /holds/:holdId/finalize {"promo_code": "..."}
// 4. Seats become BOOKED, the hold CONVERTED and the receipt is returned
// 5. Retrying step 3 returns the same booking
