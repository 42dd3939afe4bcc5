package promos

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

// ValidatePromo godoc
// @Summary      Check whether a promo code can be applied
// @Tags         promos
// @Accept       json
// @Produce      json
// @Param        request  body  ValidatePromoRequest  true  "Code and scope"
// @Success      200  {object}  response.StandardApiResponse
// @Failure      422  {object}  response.StandardApiResponse
// @Router       /promos/validate [post]
func (c *Controller) ValidatePromo(ctx *gin.Context) {
	var req ValidatePromoRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}

	rule, err := c.service.Validate(ctx.Request.Context(), req.Code, req.Scope)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Promo code is valid", rule, nil)
}

// ADMIN

func (c *Controller) CreatePromo(ctx *gin.Context) {
	var req CreatePromoRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}

	promo, err := c.service.CreatePromo(ctx.Request.Context(), req, middleware.Actor(ctx))
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Promo code created successfully", promo, nil)
}

func (c *Controller) ListPromos(ctx *gin.Context) {
	promos, err := c.service.ListPromos(ctx.Request.Context(), ctx.Query("scope"))
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Promo codes retrieved successfully", promos, nil)
}

func (c *Controller) GetPromo(ctx *gin.Context) {
	id, err := params.UUID(ctx, "id")
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	promo, err := c.service.GetPromo(ctx.Request.Context(), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Promo code retrieved successfully", promo, nil)
}

func (c *Controller) DeactivatePromo(ctx *gin.Context) {
	id, err := params.UUID(ctx, "id")
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	promo, err := c.service.DeactivatePromo(ctx.Request.Context(), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Promo code deactivated successfully", promo, nil)
}
