package seats

import (
	"context"
	"errors"
	"time"

	"seatengine/internal/shared/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the Seat Store. Only the Resolver calls LockSeatsForUpdate
// and SaveSeatState.
type Repository interface {
	// Catalogue
	CreateSeats(ctx context.Context, seats []Seat) error

	// Reads
	GetSeatByID(ctx context.Context, id uuid.UUID) (*Seat, error)
	GetSeatsByFloorPlan(ctx context.Context, floorPlanID uuid.UUID, filter SeatFilter) ([]Seat, error)
	GetSeatsByIDs(ctx context.Context, ids []uuid.UUID) ([]Seat, error)

	// Transition support, only valid inside a transaction
	LockSeatsForUpdate(ctx context.Context, ids []uuid.UUID) ([]Seat, error)
	SaveSeatState(ctx context.Context, seat *Seat, expectedVersion int64) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateSeats(ctx context.Context, seats []Seat) error {
	if len(seats) == 0 {
		return nil
	}
	return database.Conn(ctx, r.db).CreateInBatches(&seats, 200).Error
}

func (r *repository) GetSeatByID(ctx context.Context, id uuid.UUID) (*Seat, error) {
	var seat Seat
	err := database.Conn(ctx, r.db).First(&seat, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &seat, nil
}

func (r *repository) GetSeatsByFloorPlan(ctx context.Context, floorPlanID uuid.UUID, filter SeatFilter) ([]Seat, error) {
	query := database.Conn(ctx, r.db).Where("floor_plan_id = ?", floorPlanID)
	if filter.Section != "" {
		query = query.Where("section = ?", filter.Section)
	}
	if filter.Tier != "" {
		query = query.Where("tier = ?", filter.Tier)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var seats []Seat
	err := query.Order("section ASC, row_number ASC, seat_number ASC").Find(&seats).Error
	return seats, err
}

// GetSeatsByIDs reads all requested seats in one statement
func (r *repository) GetSeatsByIDs(ctx context.Context, ids []uuid.UUID) ([]Seat, error) {
	var seats []Seat
	err := database.Conn(ctx, r.db).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&seats).Error
	return seats, err
}

// LockSeatsForUpdate takes row locks in id order, the canonical lock order
// shared by every transition.
func (r *repository) LockSeatsForUpdate(ctx context.Context, ids []uuid.UUID) ([]Seat, error) {
	if !database.InTransaction(ctx) {
		return nil, errors.New("LockSeatsForUpdate requires a transaction")
	}

	var seats []Seat
	err := database.Conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&seats).Error
	return seats, err
}

// SaveSeatState writes the lifecycle columns if the row is still at expectedVersion
func (r *repository) SaveSeatState(ctx context.Context, seat *Seat, expectedVersion int64) error {
	result := database.Conn(ctx, r.db).
		Model(&Seat{}).
		Where("id = ? AND version = ?", seat.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":     seat.Status,
			"hold_id":    seat.HoldID,
			"booking_id": seat.BookingID,
			"version":    seat.Version,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errVersionMismatch
	}
	return nil
}
