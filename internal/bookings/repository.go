package bookings

import (
	"context"
	"errors"

	"seatengine/internal/shared/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	errNotFound  = errors.New("booking not found")
	errDuplicate = errors.New("booking already exists")
)

// Repository persists bookings. Bookings are only ever inserted.
type Repository interface {
	CreateBooking(ctx context.Context, booking *Booking) error
	GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetBookingByHoldID(ctx context.Context, holdID uuid.UUID) (*Booking, error)
	ListBuyerBookings(ctx context.Context, buyer string, limit, offset int) ([]Booking, int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateBooking(ctx context.Context, booking *Booking) error {
	err := database.Conn(ctx, r.db).Create(booking).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errDuplicate
	}
	return err
}

func (r *repository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *repository) GetBookingByHoldID(ctx context.Context, holdID uuid.UUID) (*Booking, error) {
	return r.first(ctx, "hold_id = ?", holdID)
}

func (r *repository) first(ctx context.Context, query string, args ...interface{}) (*Booking, error) {
	var booking Booking
	err := database.Conn(ctx, r.db).Where(query, args...).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) ListBuyerBookings(ctx context.Context, buyer string, limit, offset int) ([]Booking, int64, error) {
	var bookings []Booking
	var totalCount int64

	baseQuery := database.Conn(ctx, r.db).
		Model(&Booking{}).
		Where("buyer_session_id = ?", buyer)

	if err := baseQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	err := baseQuery.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&bookings).Error
	return bookings, totalCount, err
}
