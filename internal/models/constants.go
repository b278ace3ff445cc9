package models

// BookingStatus is the server-owned lifecycle state of a booking.
// Values outside the constants below are kept as-is.
type BookingStatus string

const (
	StatusPending       BookingStatus = "PENDING"
	StatusInNegotiation BookingStatus = "IN_NEGOTIATION"
	StatusConfirmed     BookingStatus = "CONFIRMED"
	StatusAccepted      BookingStatus = "ACCEPTED"
	StatusRejected      BookingStatus = "REJECTED"
	StatusCompleted     BookingStatus = "COMPLETED"
	StatusSold          BookingStatus = "SOLD"
)

// AllStatuses lists the known statuses in lifecycle order.
var AllStatuses = []BookingStatus{
	StatusPending,
	StatusInNegotiation,
	StatusConfirmed,
	StatusAccepted,
	StatusRejected,
	StatusCompleted,
	StatusSold,
}

// IsKnown reports whether s is one of the statuses above.
func (s BookingStatus) IsKnown() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further messaging or status change makes sense.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusRejected, StatusSold:
		return true
	default:
		return false
	}
}

func (s BookingStatus) String() string {
	return string(s)
}

// SenderType identifies which side of the thread wrote a message.
type SenderType string

const (
	SenderBuyer  SenderType = "BUYER"
	SenderSeller SenderType = "SELLER"
)

const (
	// DateLayout is the backend's calendar date format.
	DateLayout = "2006-01-02"

	// localDateTimeLayout is a zone-less date-time as emitted by the backends.
	localDateTimeLayout = "2006-01-02T15:04:05.999999999"
)
