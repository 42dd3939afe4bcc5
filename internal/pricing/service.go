package pricing

import (
	"context"
	"errors"
	"strings"

	"seatengine/pkg/apperrors"
	"seatengine/pkg/logger"

	"github.com/google/uuid"
)

var ErrInvalidRates = apperrors.Validation("INVALID_RATES", "rates must be between 0 and 10000 basis points")

// RateProvider resolves the rates for an event, falling back to defaults
type RateProvider interface {
	RatesFor(ctx context.Context, eventID uuid.UUID) (Rates, error)
}

// Service owns the rate configuration supplied by event administrators
type Service interface {
	RateProvider
	GetEventRates(ctx context.Context, eventID uuid.UUID) (Rates, error)
	SetEventRates(ctx context.Context, eventID uuid.UUID, req SetRatesRequest, actor string) (*EventRates, error)
}

type service struct {
	repo     RateRepository
	defaults Rates
	logger   *logger.Logger
}

func NewService(repo RateRepository, defaults Rates) Service {
	return &service{
		repo:     repo,
		defaults: defaults,
		logger:   logger.GetDefault(),
	}
}

func (s *service) RatesFor(ctx context.Context, eventID uuid.UUID) (Rates, error) {
	rates, err := s.repo.GetEventRates(ctx, eventID)
	if err != nil {
		if errors.Is(err, errRatesNotFound) {
			return s.defaults, nil
		}
		return Rates{}, apperrors.Fatal(err, "failed to load event rates")
	}
	return rates.Rates(), nil
}

func (s *service) GetEventRates(ctx context.Context, eventID uuid.UUID) (Rates, error) {
	return s.RatesFor(ctx, eventID)
}

func (s *service) SetEventRates(ctx context.Context, eventID uuid.UUID, req SetRatesRequest, actor string) (*EventRates, error) {
	if req.FeeRateBps == nil || req.TaxRateBps == nil {
		return nil, ErrInvalidRates.WithMessage("fee_rate_bps and tax_rate_bps are required")
	}
	if !validBps(*req.FeeRateBps) || !validBps(*req.TaxRateBps) {
		return nil, ErrInvalidRates
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = s.defaults.Currency
	}

	rates := &EventRates{
		EventID:    eventID,
		FeeRateBps: *req.FeeRateBps,
		TaxRateBps: *req.TaxRateBps,
		Currency:   currency,
		UpdatedBy:  actor,
	}
	if err := s.repo.UpsertEventRates(ctx, rates); err != nil {
		return nil, apperrors.Fatal(err, "failed to save event rates")
	}

	s.logger.InfoWithContext(ctx, "Event rates updated", map[string]interface{}{
		"event_id":     eventID.String(),
		"fee_rate_bps": rates.FeeRateBps,
		"tax_rate_bps": rates.TaxRateBps,
		"actor":        actor,
	})
	return rates, nil
}

func validBps(v int64) bool {
	return v >= 0 && v <= BasisPoints
}
