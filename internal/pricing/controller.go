package pricing

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

func (c *Controller) GetEventRates(ctx *gin.Context) {
	eventID, err := params.UUID(ctx, "eventId")
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	rates, err := c.service.GetEventRates(ctx.Request.Context(), eventID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Rates retrieved successfully", rates, nil)
}

// SetEventRates godoc
// @Summary      Override fee and tax rates for an event
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        eventId  path  string           true  "Event ID"
// @Param        request  body  SetRatesRequest  true  "Rates in basis points"
// @Success      200  {object}  response.StandardApiResponse
// @Router       /admin/events/{eventId}/rates [put]
func (c *Controller) SetEventRates(ctx *gin.Context) {
	eventID, err := params.UUID(ctx, "eventId")
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	var req SetRatesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}

	rates, err := c.service.SetEventRates(ctx.Request.Context(), eventID, req, middleware.Actor(ctx))
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Rates updated successfully", rates, nil)
}
