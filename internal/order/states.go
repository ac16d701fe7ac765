package order

// transitions is the full lifecycle table. Anything not listed is an
// invalid jump and gets rejected, not silently applied.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusConfirmed, StatusCancelled, StatusFailed},
	StatusProcessing: {StatusConfirmed, StatusCancelled, StatusFailed},
	StatusConfirmed:  {StatusShipped, StatusCancelled, StatusFailed},
	StatusShipped:    {StatusDelivered, StatusCancelled, StatusFailed},
	StatusDelivered:  nil,
	StatusCancelled:  nil,
	StatusFailed:     nil,
}

func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsTerminal(s OrderStatus) bool {
	return len(transitions[s]) == 0
}

func ValidStatus(s OrderStatus) bool {
	_, ok := transitions[s]
	return ok
}
