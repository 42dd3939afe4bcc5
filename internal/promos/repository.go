package promos

import (
	"context"
	"errors"

	"seatengine/internal/shared/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	errNotFound            = errors.New("promo not found")
	errDuplicateCode       = errors.New("promo code already exists")
	errRedemptionNotFound  = errors.New("redemption not found")
	errDuplicateRedemption = errors.New("booking already redeemed a promo")
)

// Repository persists promo codes and their redemption ledger
type Repository interface {
	CreatePromo(ctx context.Context, promo *PromoCode) error
	GetPromoByID(ctx context.Context, id uuid.UUID) (*PromoCode, error)
	// FindPromo prefers a code defined for scope over a global one
	FindPromo(ctx context.Context, code, scope string) (*PromoCode, error)
	ListPromos(ctx context.Context, scope string) ([]PromoCode, error)
	Deactivate(ctx context.Context, id uuid.UUID) error

	// IncrementUsage adds one use unless the cap is reached. It reports
	// false when the compare-and-increment matched no row.
	IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error)
	GetRedemptionByBooking(ctx context.Context, bookingID uuid.UUID) (*PromoRedemption, error)
	CreateRedemption(ctx context.Context, redemption *PromoRedemption) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreatePromo(ctx context.Context, promo *PromoCode) error {
	if promo.ID == uuid.Nil {
		promo.ID = uuid.New()
	}
	err := database.Conn(ctx, r.db).Create(promo).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errDuplicateCode
	}
	return err
}

func (r *repository) GetPromoByID(ctx context.Context, id uuid.UUID) (*PromoCode, error) {
	var promo PromoCode
	err := database.Conn(ctx, r.db).First(&promo, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound
		}
		return nil, err
	}
	return &promo, nil
}

func (r *repository) FindPromo(ctx context.Context, code, scope string) (*PromoCode, error) {
	var promo PromoCode
	err := database.Conn(ctx, r.db).
		Where("code = ? AND scope IN ?", NormalizeCode(code), []string{scope, ""}).
		Order("scope DESC").
		Take(&promo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound
		}
		return nil, err
	}
	return &promo, nil
}

func (r *repository) ListPromos(ctx context.Context, scope string) ([]PromoCode, error) {
	query := database.Conn(ctx, r.db)
	if scope != "" {
		query = query.Where("scope = ?", scope)
	}

	var promos []PromoCode
	err := query.Order("created_at DESC").Find(&promos).Error
	return promos, err
}

func (r *repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := database.Conn(ctx, r.db).
		Model(&PromoCode{}).
		Where("id = ?", id).
		Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errNotFound
	}
	return nil
}

func (r *repository) IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error) {
	result := database.Conn(ctx, r.db).
		Model(&PromoCode{}).
		Where("id = ? AND active = ? AND (usage_cap IS NULL OR usage_count < usage_cap)", id, true).
		Update("usage_count", gorm.Expr("usage_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) GetRedemptionByBooking(ctx context.Context, bookingID uuid.UUID) (*PromoRedemption, error) {
	var redemption PromoRedemption
	err := database.Conn(ctx, r.db).First(&redemption, "booking_id = ?", bookingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errRedemptionNotFound
		}
		return nil, err
	}
	return &redemption, nil
}

func (r *repository) CreateRedemption(ctx context.Context, redemption *PromoRedemption) error {
	if redemption.ID == uuid.Nil {
		redemption.ID = uuid.New()
	}
	err := database.Conn(ctx, r.db).Create(redemption).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errDuplicateRedemption
	}
	return err
}
