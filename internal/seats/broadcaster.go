package seats

import (
	"context"

	"seatengine/internal/seatevents"
	"seatengine/internal/shared/constants"
	"seatengine/pkg/cache"
	"seatengine/pkg/logger"

	"github.com/google/uuid"
)

// Change describes a committed transition for fan-out
type Change struct {
	Type      seatevents.EventType
	Seats     []Seat
	HoldID    *uuid.UUID
	BookingID *uuid.UUID
	Actor     string
}

// Broadcaster invalidates cached seat lists and publishes seat events after a
// transition commits. Failures are logged and never undo the transition.
type Broadcaster struct {
	cache     cache.Service
	publisher seatevents.Publisher
	logger    *logger.Logger
}

// NewBroadcaster accepts a nil cache or publisher when either is disabled
func NewBroadcaster(cacheService cache.Service, publisher seatevents.Publisher) *Broadcaster {
	if publisher == nil {
		publisher = seatevents.NoopPublisher{}
	}
	return &Broadcaster{
		cache:     cacheService,
		publisher: publisher,
		logger:    logger.GetDefault(),
	}
}

// SeatsChanged fans out one event per floor plan touched by the change
func (b *Broadcaster) SeatsChanged(ctx context.Context, change Change) {
	if b == nil || len(change.Seats) == 0 {
		return
	}

	type plan struct {
		eventID uuid.UUID
		seatIDs []uuid.UUID
	}
	plans := make(map[uuid.UUID]*plan)
	var order []uuid.UUID
	for _, seat := range change.Seats {
		p, ok := plans[seat.FloorPlanID]
		if !ok {
			p = &plan{eventID: seat.EventID}
			plans[seat.FloorPlanID] = p
			order = append(order, seat.FloorPlanID)
		}
		p.seatIDs = append(p.seatIDs, seat.ID)
	}

	for _, floorPlanID := range order {
		p := plans[floorPlanID]
		b.invalidate(ctx, floorPlanID)

		event := seatevents.NewSeatEvent(change.Type, floorPlanID, p.eventID, p.seatIDs)
		event.HoldID = change.HoldID
		event.BookingID = change.BookingID
		event.Actor = change.Actor
		if err := b.publisher.PublishSeatEvent(ctx, event); err != nil {
			b.logger.ErrorWithContext(ctx, "Failed to publish seat event", err, map[string]interface{}{
				"type":          change.Type,
				"floor_plan_id": floorPlanID.String(),
			})
		}
	}
}

func (b *Broadcaster) invalidate(ctx context.Context, floorPlanID uuid.UUID) {
	if b.cache == nil {
		return
	}
	if _, err := b.cache.BumpGeneration(ctx, constants.BuildSeatListGenerationKey(floorPlanID.String())); err != nil {
		b.logger.ErrorWithContext(ctx, "Failed to invalidate seat list cache", err, map[string]interface{}{
			"floor_plan_id": floorPlanID.String(),
		})
	}
}
