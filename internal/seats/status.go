package seats

// Status is a seat's lifecycle state
type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusHeld      Status = "HELD"
	StatusBooked    Status = "BOOKED"
	StatusBlocked   Status = "BLOCKED"
)

// IsValid checks if the seat status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusHeld, StatusBooked, StatusBlocked:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// allowedEdges is the seat state machine. BOOKED is terminal.
var allowedEdges = map[Status][]Status{
	StatusAvailable: {StatusHeld, StatusBlocked},
	StatusHeld:      {StatusAvailable, StatusBooked, StatusBlocked},
	StatusBlocked:   {StatusAvailable},
}

// CanTransitionTo reports whether the state machine has an edge s -> to
func (s Status) CanTransitionTo(to Status) bool {
	for _, next := range allowedEdges[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Tier is a pricing and access category
type Tier string

const (
	TierVIP     Tier = "VIP"
	TierPremium Tier = "PREMIUM"
	TierGeneral Tier = "GENERAL"
)

// IsValid checks if the tier is valid
func (t Tier) IsValid() bool {
	switch t {
	case TierVIP, TierPremium, TierGeneral:
		return true
	}
	return false
}

// SeatType is the physical kind of seat
type SeatType string

const (
	SeatTypeChair     SeatType = "CHAIR"
	SeatTypeTableSeat SeatType = "TABLE_SEAT"
)
