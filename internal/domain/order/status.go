package order

import "fmt"

// Status is the fulfillment state of a persisted order.
type Status string

const (
	// StatusPending is assigned at the moment of durable persistence,
	// immediately after payment verification.
	StatusPending Status = "Pending"
	// StatusProcessing means the order has been picked up for fulfillment.
	StatusProcessing Status = "Processing"
	// StatusCompleted is terminal.
	StatusCompleted Status = "Completed"
	// StatusCancelled is terminal.
	StatusCancelled Status = "Cancelled"
)

// ParseStatus validates a client-supplied status value.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return Status(s), nil
	}
	return "", &InvalidStatusError{Value: s}
}

// CanTransition reports whether an order may move from its current status
// to the target. Reapplying the current status is always allowed and is a
// no-op for the caller.
func (s Status) CanTransition(to Status) bool {
	if s == to {
		return true
	}
	switch s {
	case StatusPending:
		return to == StatusProcessing || to == StatusCancelled
	case StatusProcessing:
		return to == StatusCompleted || to == StatusCancelled
	}
	// Completed and Cancelled are terminal.
	return false
}

// InvalidStatusError indicates a status value outside the recognized enum.
type InvalidStatusError struct {
	Value string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid order status %q", e.Value)
}

// TransitionError indicates a disallowed status transition.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}
