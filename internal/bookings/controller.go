package bookings

import (
	"net/http"

	"seatengine/internal/holds"
	"seatengine/internal/shared/middleware"
	"seatengine/internal/shared/utils/params"
	"seatengine/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// Finalize godoc
// @Summary      Convert an active hold into a booking
// @Description  Retrying a finalized hold returns the existing booking with status 200.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        holdId   path  string           true   "Hold ID"
// @Param        request  body  FinalizeRequest  false  "Promo code"
// @Success      201  {object}  response.StandardApiResponse
// @Success      200  {object}  response.StandardApiResponse
// @Failure      404  {object}  response.StandardApiResponse
// @Failure      409  {object}  response.StandardApiResponse
// @Failure      422  {object}  response.StandardApiResponse
// @Router       /holds/{holdId}/finalize [post]
func (c *Controller) Finalize(ctx *gin.Context) {
	buyer, ok := middleware.BuyerSessionID(ctx)
	if !ok {
		response.RespondError(ctx, holds.ErrMissingBuyer)
		return
	}
	holdID, err := params.UUID(ctx, "holdId")
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	var req FinalizeRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			response.RespondBindError(ctx, err)
			return
		}
	}

	result, err := c.service.Finalize(ctx.Request.Context(), FinalizeInput{
		HoldID:         holdID,
		BuyerSessionID: buyer,
		PromoCode:      req.PromoCode,
	})
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	if result.Replayed {
		response.RespondJSON(ctx, "success", http.StatusOK, "Booking already confirmed", result.Booking, nil)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "Booking confirmed successfully", result.Booking, nil)
}

// Quote prices a seat selection without holding it
func (c *Controller) Quote(ctx *gin.Context) {
	var req QuoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}

	breakdown, err := c.service.Quote(ctx.Request.Context(), req.SeatIDs, req.PromoCode)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Quote computed successfully", breakdown, nil)
}

// GetBooking handles GET /api/v1/bookings/:id
func (c *Controller) GetBooking(ctx *gin.Context) {
	bookingID, err := params.UUID(ctx, "id")
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	buyer, ok := middleware.BuyerSessionID(ctx)
	if !ok {
		response.RespondError(ctx, holds.ErrMissingBuyer)
		return
	}
	// Administrators can read any booking
	if ctx.GetString(middleware.ContextUserRole) == middleware.RoleAdmin {
		buyer = ""
	}

	booking, err := c.service.GetBooking(ctx.Request.Context(), bookingID, buyer)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking retrieved successfully", booking, nil)
}

// ListBookings handles GET /api/v1/bookings
func (c *Controller) ListBookings(ctx *gin.Context) {
	buyer, ok := middleware.BuyerSessionID(ctx)
	if !ok {
		response.RespondError(ctx, holds.ErrMissingBuyer)
		return
	}

	var query BookingListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondBindError(ctx, err)
		return
	}
	if query.Limit == 0 {
		query.Limit = 10
	}

	bookings, total, err := c.service.ListBuyerBookings(ctx.Request.Context(), buyer, query.Limit, query.Offset)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Bookings retrieved successfully", BookingListResponse{
		Bookings: bookings,
		Total:    total,
		Limit:    query.Limit,
		Offset:   query.Offset,
	}, nil)
}
