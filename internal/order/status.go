package order

type Status string

const (
	StatusPending        Status = "PENDING"
	StatusConfirmed      Status = "CONFIRMED"
	StatusPacked         Status = "PACKED"
	StatusShipped        Status = "SHIPPED"
	StatusOutForDelivery Status = "OUT_FOR_DELIVERY"
	StatusDelivered      Status = "DELIVERED"
	StatusCancelled      Status = "CANCELLED"
)

// sequence is the only legal forward path; cancellation branches off
// PENDING and nothing else.
var sequence = []Status{
	StatusPending,
	StatusConfirmed,
	StatusPacked,
	StatusShipped,
	StatusOutForDelivery,
	StatusDelivered,
}

func (s Status) Valid() bool {
	if s == StatusCancelled {
		return true
	}
	for _, st := range sequence {
		if st == s {
			return true
		}
	}
	return false
}

// Terminal reports whether the order is immutable.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Next returns the single next status in the fixed sequence. Skipping is
// never permitted; the second return is false at the end of the sequence
// and for CANCELLED.
func (s Status) Next() (Status, bool) {
	for i, st := range sequence {
		if st == s && i+1 < len(sequence) {
			return sequence[i+1], true
		}
	}
	return "", false
}

// CanAdvance reports whether a supplier may move the order one step
// forward. PENDING is excluded: leaving PENDING requires an explicit
// accept or decline.
func (s Status) CanAdvance() bool {
	switch s {
	case StatusConfirmed, StatusPacked, StatusShipped, StatusOutForDelivery:
		return true
	}
	return false
}
