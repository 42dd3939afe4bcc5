package seats

import (
	"net/http"

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

// ListSeats godoc
// @Summary      List seats of a floor plan with live status
// @Tags         seats
// @Produce      json
// @Param        floorPlanId  path   string  true   "Floor plan ID"
// @Param        section      query  string  false  "Section"
// @Param        tier         query  string  false  "Tier"
// @Param        status       query  string  false  "Status"
// @Success      200  {object}  response.StandardApiResponse
// @Router       /floor-plans/{floorPlanId}/seats [get]
func (c *Controller) ListSeats(ctx *gin.Context) {
	floorPlanID, err := params.UUID(ctx, "floorPlanId")
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	var query ListSeatsQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondBindError(ctx, err)
		return
	}

	seats, err := c.service.ListSeats(ctx.Request.Context(), floorPlanID, query.Filter())
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seats retrieved successfully", SeatListResponse{
		FloorPlanID: floorPlanID,
		Seats:       seats,
		Count:       len(seats),
	}, nil)
}

func (c *Controller) GetAvailability(ctx *gin.Context) {
	floorPlanID, err := params.UUID(ctx, "floorPlanId")
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	summary, err := c.service.GetAvailabilitySummary(ctx.Request.Context(), floorPlanID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Availability retrieved successfully", summary, nil)
}

func (c *Controller) GetSeat(ctx *gin.Context) {
	id, err := params.UUID(ctx, "id")
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	seat, err := c.service.GetSeat(ctx.Request.Context(), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seat retrieved successfully", seat, nil)
}

// BlockSeats godoc
// @Summary      Take seats out of sale
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body  SeatIDsRequest  true  "Seats"
// @Success      200  {object}  response.StandardApiResponse
// @Failure      409  {object}  response.StandardApiResponse
// @Router       /admin/seats/block [post]
func (c *Controller) BlockSeats(ctx *gin.Context) {
	var req SeatIDsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}

	seats, err := c.service.BlockSeats(ctx.Request.Context(), req.SeatIDs, middleware.Actor(ctx))
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seats blocked successfully", seats, nil)
}

func (c *Controller) UnblockSeats(ctx *gin.Context) {
	var req SeatIDsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}

	seats, err := c.service.UnblockSeats(ctx.Request.Context(), req.SeatIDs, middleware.Actor(ctx))
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seats unblocked successfully", seats, nil)
}
