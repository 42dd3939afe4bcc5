package bookings

type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
)

// IsValid checks if the booking status is valid
func (s Status) IsValid() bool {
	return s == StatusConfirmed
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}
