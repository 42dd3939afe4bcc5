package promos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seatengine/internal/pricing"
	"seatengine/pkg/apperrors"
	"seatengine/pkg/logger"

	"github.com/google/uuid"
)

// Validator resolves promo codes. Validate never mutates; Redeem is the only
// write and runs inside the caller's finalization transaction.
type Validator interface {
	Validate(ctx context.Context, code, scope string) (*DiscountRule, error)
	Redeem(ctx context.Context, rule *DiscountRule, bookingID uuid.UUID, amount int64) error
}

// Service is the Promo Validator plus promo administration
type Service interface {
	Validator

	CreatePromo(ctx context.Context, req CreatePromoRequest, actor string) (*PromoCode, error)
	GetPromo(ctx context.Context, id uuid.UUID) (*PromoCode, error)
	ListPromos(ctx context.Context, scope string) ([]PromoCode, error)
	DeactivatePromo(ctx context.Context, id uuid.UUID) (*PromoCode, error)
}

type Option func(*service)

// WithClock replaces time.Now for expiry checks
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

type service struct {
	repo   Repository
	now    func() time.Time
	logger *logger.Logger
}

func NewService(repo Repository, opts ...Option) Service {
	s := &service{
		repo:   repo,
		now:    time.Now,
		logger: logger.GetDefault(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Validate(ctx context.Context, code, scope string) (*DiscountRule, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, NewInvalidError(normalized, ReasonNotFound)
	}

	promo, err := s.repo.FindPromo(ctx, normalized, scope)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, NewInvalidError(normalized, ReasonNotFound)
		}
		return nil, apperrors.Fatal(err, "failed to look up promo code")
	}

	if reason := s.check(promo); reason != "" {
		return nil, NewInvalidError(promo.Code, reason)
	}

	return &DiscountRule{
		PromoID:        promo.ID,
		Code:           promo.Code,
		Kind:           promo.Kind,
		Value:          promo.Value,
		MinOrderAmount: promo.MinOrderAmount,
	}, nil
}

// check returns the first reason promo cannot be applied now, or ""
func (s *service) check(promo *PromoCode) Reason {
	now := s.now()
	switch {
	case !promo.Active:
		return ReasonInactive
	case promo.StartsAt != nil && now.Before(*promo.StartsAt):
		return ReasonNotYetActive
	case promo.ExpiresAt != nil && !now.Before(*promo.ExpiresAt):
		return ReasonExpired
	case promo.UsageCap != nil && promo.UsageCount >= *promo.UsageCap:
		return ReasonUsageExceeded
	}
	return ""
}

// Redeem counts one use of rule for bookingID. A booking that already
// redeemed is a no-op, so a retried finalization never counts twice.
func (s *service) Redeem(ctx context.Context, rule *DiscountRule, bookingID uuid.UUID, amount int64) error {
	if rule == nil {
		return nil
	}

	if _, err := s.repo.GetRedemptionByBooking(ctx, bookingID); err == nil {
		return nil
	} else if !errors.Is(err, errRedemptionNotFound) {
		return apperrors.Fatal(err, "failed to read promo redemption")
	}

	ok, err := s.repo.IncrementUsage(ctx, rule.PromoID)
	if err != nil {
		return apperrors.Fatal(err, "failed to increment promo usage")
	}
	if !ok {
		// Someone used the last redemption or deactivated the code after validation
		return NewInvalidError(rule.Code, ReasonUsageExceeded)
	}

	err = s.repo.CreateRedemption(ctx, &PromoRedemption{
		PromoID:   rule.PromoID,
		BookingID: bookingID,
		Code:      rule.Code,
		Amount:    amount,
	})
	if err != nil {
		return apperrors.Fatal(err, "failed to record promo redemption")
	}
	return nil
}

func (s *service) CreatePromo(ctx context.Context, req CreatePromoRequest, actor string) (*PromoCode, error) {
	if err := validateDefinition(req); err != nil {
		return nil, err
	}

	promo := &PromoCode{
		Code:           NormalizeCode(req.Code),
		Scope:          req.Scope,
		Description:    req.Description,
		Kind:           req.Kind,
		Value:          req.Value,
		Active:         true,
		StartsAt:       req.StartsAt,
		ExpiresAt:      req.ExpiresAt,
		UsageCap:       req.UsageCap,
		MinOrderAmount: req.MinOrderAmount,
		CreatedBy:      actor,
	}
	if err := s.repo.CreatePromo(ctx, promo); err != nil {
		if errors.Is(err, errDuplicateCode) {
			return nil, ErrPromoExists.WithDetails(map[string]any{"code": promo.Code, "scope": promo.Scope})
		}
		return nil, apperrors.Fatal(err, "failed to create promo code")
	}

	s.logger.InfoWithContext(ctx, "Promo code created", map[string]interface{}{
		"promo_id": promo.ID.String(),
		"code":     promo.Code,
		"scope":    promo.Scope,
		"actor":    actor,
	})
	return promo, nil
}

func validateDefinition(req CreatePromoRequest) error {
	if !req.Kind.IsValid() {
		return ErrInvalidPromo.WithMessage(fmt.Sprintf("unknown discount kind %q", req.Kind))
	}
	if req.Value <= 0 {
		return ErrInvalidPromo.WithMessage("discount value must be positive")
	}
	if req.Kind == pricing.DiscountPercentage && req.Value > pricing.BasisPoints {
		return ErrInvalidPromo.WithMessage("percentage discounts are at most 10000 basis points")
	}
	if req.StartsAt != nil && req.ExpiresAt != nil && !req.StartsAt.Before(*req.ExpiresAt) {
		return ErrInvalidPromo.WithMessage("starts_at must be before expires_at")
	}
	if req.UsageCap != nil && *req.UsageCap < 1 {
		return ErrInvalidPromo.WithMessage("usage_cap must be at least 1")
	}
	if req.MinOrderAmount < 0 {
		return ErrInvalidPromo.WithMessage("min_order_amount cannot be negative")
	}
	return nil
}

func (s *service) GetPromo(ctx context.Context, id uuid.UUID) (*PromoCode, error) {
	promo, err := s.repo.GetPromoByID(ctx, id)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, ErrPromoNotFound
		}
		return nil, apperrors.Fatal(err, "failed to get promo code")
	}
	return promo, nil
}

func (s *service) ListPromos(ctx context.Context, scope string) ([]PromoCode, error) {
	promos, err := s.repo.ListPromos(ctx, scope)
	if err != nil {
		return nil, apperrors.Fatal(err, "failed to list promo codes")
	}
	return promos, nil
}

func (s *service) DeactivatePromo(ctx context.Context, id uuid.UUID) (*PromoCode, error) {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, ErrPromoNotFound
		}
		return nil, apperrors.Fatal(err, "failed to deactivate promo code")
	}
	return s.GetPromo(ctx, id)
}
