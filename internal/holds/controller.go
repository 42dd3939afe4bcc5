package holds

import (
	"context"
	"net/http"

	"seatengine/internal/pricing"
	"seatengine/internal/shared/middleware"
	"seatengine/internal/shared/utils/params"
	"seatengine/internal/shared/utils/response"
	"seatengine/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Quoter prices the seats of a hold, optionally with a promo code
type Quoter interface {
	QuoteHold(ctx context.Context, hold *Hold, promoCode string) (*pricing.Breakdown, error)
}

type Controller struct {
	manager *Manager
	quoter  Quoter
}

func NewController(manager *Manager, quoter Quoter) *Controller {
	return &Controller{manager: manager, quoter: quoter}
}

// CreateHold godoc
// @Summary      Hold seats for the current buyer
// @Tags         holds
// @Accept       json
// @Produce      json
// @Param        request  body  CreateHoldRequest  true  "Seat selection"
// @Success      201  {object}  response.StandardApiResponse
// @Failure      409  {object}  response.StandardApiResponse
// @Failure      422  {object}  response.StandardApiResponse
// @Router       /holds [post]
func (c *Controller) CreateHold(ctx *gin.Context) {
	buyer, ok := middleware.BuyerSessionID(ctx)
	if !ok {
		response.RespondError(ctx, ErrMissingBuyer)
		return
	}

	var req CreateHoldRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}

	hold, err := c.manager.CreateHold(ctx.Request.Context(), req.Input(buyer))
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	resp, err := c.withPrice(ctx.Request.Context(), hold, req.PromoCode)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Seats held successfully", resp, nil)
}

func (c *Controller) GetHold(ctx *gin.Context) {
	c.withHold(ctx, func(reqCtx context.Context, buyer string, id uuid.UUID) (*Hold, error) {
		return c.manager.GetHold(reqCtx, id, buyer)
	}, "Hold retrieved successfully")
}

func (c *Controller) RenewHold(ctx *gin.Context) {
	c.withHold(ctx, func(reqCtx context.Context, buyer string, id uuid.UUID) (*Hold, error) {
		return c.manager.RenewHold(reqCtx, id, buyer)
	}, "Hold renewed successfully")
}

func (c *Controller) ReleaseHold(ctx *gin.Context) {
	c.withHold(ctx, func(reqCtx context.Context, buyer string, id uuid.UUID) (*Hold, error) {
		return c.manager.ReleaseHold(reqCtx, id, buyer)
	}, "Hold released successfully")
}

func (c *Controller) ListHolds(ctx *gin.Context) {
	buyer, ok := middleware.BuyerSessionID(ctx)
	if !ok {
		response.RespondError(ctx, ErrMissingBuyer)
		return
	}

	holds, err := c.manager.ListBuyerHolds(ctx.Request.Context(), buyer, Status(ctx.Query("status")))
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Holds retrieved successfully", holds, nil)
}

// ApplyPromo godoc
// @Summary      Preview the hold's price with a promo code
// @Tags         holds
// @Accept       json
// @Produce      json
// @Param        holdId   path  string             true  "Hold ID"
// @Param        request  body  ApplyPromoRequest  true  "Promo code"
// @Success      200  {object}  response.StandardApiResponse
// @Failure      422  {object}  response.StandardApiResponse
// @Router       /holds/{holdId}/promo [post]
func (c *Controller) ApplyPromo(ctx *gin.Context) {
	buyer, ok := middleware.BuyerSessionID(ctx)
	if !ok {
		response.RespondError(ctx, ErrMissingBuyer)
		return
	}
	id, err := params.UUID(ctx, "holdId")
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	var req ApplyPromoRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}

	hold, err := c.manager.GetHold(ctx.Request.Context(), id, buyer)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	if err := errForStatus(hold.Status); err != nil {
		response.RespondError(ctx, err)
		return
	}

	price, err := c.quoter.QuoteHold(ctx.Request.Context(), hold, req.PromoCode)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Promo applied successfully", HoldResponse{Hold: hold, Price: price}, nil)
}

// Sweep runs an on-demand expiry sweep
func (c *Controller) Sweep(ctx *gin.Context) {
	expired, err := c.manager.SweepExpired(ctx.Request.Context(), c.manager.Now())
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Sweep completed", SweepResponse{Expired: expired}, nil)
}

func (c *Controller) withHold(ctx *gin.Context, op func(context.Context, string, uuid.UUID) (*Hold, error), message string) {
	buyer, ok := middleware.BuyerSessionID(ctx)
	if !ok {
		response.RespondError(ctx, ErrMissingBuyer)
		return
	}
	id, err := params.UUID(ctx, "holdId")
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	hold, err := op(ctx.Request.Context(), buyer, id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	resp, err := c.withPrice(ctx.Request.Context(), hold, "")
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, message, resp, nil)
}

// withPrice attaches the live price of an ACTIVE hold. An unusable promo
// code is reported next to the price instead of failing the request.
func (c *Controller) withPrice(ctx context.Context, hold *Hold, promoCode string) (*HoldResponse, error) {
	resp := &HoldResponse{Hold: hold}
	if hold.Status != StatusActive || c.quoter == nil {
		return resp, nil
	}

	price, err := c.quoter.QuoteHold(ctx, hold, promoCode)
	if err != nil && promoCode != "" && apperrors.KindOf(err) == apperrors.KindValidation {
		resp.PromoError, _ = apperrors.As(err)
		price, err = c.quoter.QuoteHold(ctx, hold, "")
	}
	if err != nil {
		return nil, err
	}
	resp.Price = price
	return resp, nil
}
