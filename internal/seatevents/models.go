package seatevents

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType names a committed seat state change
type EventType string

const (
	EventSeatsHeld      EventType = "SEATS_HELD"
	EventSeatsReleased  EventType = "SEATS_RELEASED"
	EventSeatsExpired   EventType = "SEATS_EXPIRED"
	EventSeatsBooked    EventType = "SEATS_BOOKED"
	EventSeatsBlocked   EventType = "SEATS_BLOCKED"
	EventSeatsUnblocked EventType = "SEATS_UNBLOCKED"

	EventBookingConfirmed EventType = "BOOKING_CONFIRMED"
)

// SeatEvent tells real-time clients which seats of a floor plan changed
type SeatEvent struct {
	ID          uuid.UUID   `json:"id"`
	Type        EventType   `json:"type"`
	FloorPlanID uuid.UUID   `json:"floor_plan_id"`
	EventID     uuid.UUID   `json:"event_id"`
	SeatIDs     []uuid.UUID `json:"seat_ids"`
	HoldID      *uuid.UUID  `json:"hold_id,omitempty"`
	BookingID   *uuid.UUID  `json:"booking_id,omitempty"`
	Actor       string      `json:"actor,omitempty"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

// NewSeatEvent stamps an id and time on a seat event
func NewSeatEvent(eventType EventType, floorPlanID, eventID uuid.UUID, seatIDs []uuid.UUID) *SeatEvent {
	return &SeatEvent{
		ID:          uuid.New(),
		Type:        eventType,
		FloorPlanID: floorPlanID,
		EventID:     eventID,
		SeatIDs:     seatIDs,
		OccurredAt:  time.Now().UTC(),
	}
}

func (e *SeatEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PartitionKey keeps all events of one floor plan in order on one partition
func (e *SeatEvent) PartitionKey() string {
	return e.FloorPlanID.String()
}

// BookingEvent is published once per finalized booking
type BookingEvent struct {
	ID         uuid.UUID   `json:"id"`
	Type       EventType   `json:"type"`
	BookingID  uuid.UUID   `json:"booking_id"`
	Reference  string      `json:"reference"`
	HoldID     uuid.UUID   `json:"hold_id"`
	BuyerID    string      `json:"buyer_id"`
	EventID    uuid.UUID   `json:"event_id"`
	SeatIDs    []uuid.UUID `json:"seat_ids"`
	Total      int64       `json:"total"`
	Currency   string      `json:"currency"`
	PromoCode  string      `json:"promo_code,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

func (e *BookingEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PartitionKey routes by booking so retries of the same booking stay ordered
func (e *BookingEvent) PartitionKey() string {
	return e.BookingID.String()
}
