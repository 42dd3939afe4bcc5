package holds

import (
	"context"
	"errors"
	"time"

	"seatengine/internal/shared/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	errNotFound      = errors.New("hold not found")
	errNoTransaction = errors.New("buyer lock requires a transaction")
)

// Repository persists holds. Status changes are compare-and-set on ACTIVE so
// a hold leaves ACTIVE exactly once.
type Repository interface {
	CreateHold(ctx context.Context, hold *Hold) error
	GetHoldByID(ctx context.Context, id uuid.UUID) (*Hold, error)
	ListHoldsByBuyer(ctx context.Context, buyer string, status Status) ([]Hold, error)
	ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]Hold, error)

	// LockBuyer serializes hold creation for one buyer until the transaction
	// in ctx ends. It must be called inside a transaction.
	LockBuyer(ctx context.Context, buyer string) error

	// ExtendHold moves expires_at of a hold that is ACTIVE and not yet expired at now
	ExtendHold(ctx context.Context, id uuid.UUID, now, expiresAt time.Time) (bool, error)
	// FinishHold moves an ACTIVE hold to a terminal status. EXPIRED requires
	// the hold to be past expiry at now and CONVERTED requires it not to be.
	FinishHold(ctx context.Context, id uuid.UUID, to Status, now time.Time, bookingID *uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateHold(ctx context.Context, hold *Hold) error {
	return database.Conn(ctx, r.db).Create(hold).Error
}

func (r *repository) LockBuyer(ctx context.Context, buyer string) error {
	if !database.InTransaction(ctx) {
		return errNoTransaction
	}
	return database.Conn(ctx, r.db).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "hold-buyer:"+buyer).Error
}

func (r *repository) GetHoldByID(ctx context.Context, id uuid.UUID) (*Hold, error) {
	var hold Hold
	err := database.Conn(ctx, r.db).First(&hold, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound
		}
		return nil, err
	}
	return &hold, nil
}

func (r *repository) ListHoldsByBuyer(ctx context.Context, buyer string, status Status) ([]Hold, error) {
	query := database.Conn(ctx, r.db).Where("buyer_session_id = ?", buyer)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var holds []Hold
	err := query.Order("created_at DESC").Find(&holds).Error
	return holds, err
}

// ListExpiredActive uses idx_holds_active_expiry
func (r *repository) ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]Hold, error) {
	var holds []Hold
	err := database.Conn(ctx, r.db).
		Where("status = ? AND expires_at <= ?", StatusActive, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&holds).Error
	return holds, err
}

func (r *repository) ExtendHold(ctx context.Context, id uuid.UUID, now, expiresAt time.Time) (bool, error) {
	result := database.Conn(ctx, r.db).
		Model(&Hold{}).
		Where("id = ? AND status = ? AND expires_at > ?", id, StatusActive, now).
		Updates(map[string]interface{}{
			"expires_at":  expiresAt,
			"renew_count": gorm.Expr("renew_count + 1"),
			"updated_at":  now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) FinishHold(ctx context.Context, id uuid.UUID, to Status, now time.Time, bookingID *uuid.UUID) (bool, error) {
	query := database.Conn(ctx, r.db).
		Model(&Hold{}).
		Where("id = ? AND status = ?", id, StatusActive)
	switch to {
	case StatusExpired:
		query = query.Where("expires_at <= ?", now)
	case StatusConverted:
		query = query.Where("expires_at > ?", now)
	}

	result := query.Updates(map[string]interface{}{
		"status":     to,
		"booking_id": bookingID,
		"ended_at":   now,
		"updated_at": now,
	})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
