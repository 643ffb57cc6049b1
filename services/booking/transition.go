package booking

type Status string

const (
	StatusNeedsConfirmation Status = "needs_confirmation"
	StatusPendingReview     Status = "pending_review"
	StatusAccepted          Status = "accepted"
	StatusDispatched        Status = "dispatched"
	StatusOnTheWay          Status = "on_the_way"
	StatusArrived           Status = "arrived"
	StatusInProgress        Status = "in_progress"
	StatusCompleted         Status = "completed"
	StatusCancelled         Status = "cancelled"
	StatusRescheduled       Status = "rescheduled"
	StatusNoShow            Status = "no_show"
)

// exceptions are reachable from every non-terminal state.
var exceptions = []Status{StatusCancelled, StatusRescheduled, StatusNoShow}

// transitions lists the forward edges of the booking graph. Exception edges
// are added by allowedNext.
var transitions = map[Status][]Status{
	StatusNeedsConfirmation: {StatusPendingReview},
	StatusPendingReview:     {StatusAccepted},
	StatusAccepted:          {StatusDispatched},
	StatusDispatched:        {StatusOnTheWay},
	StatusOnTheWay:          {StatusArrived},
	StatusArrived:           {StatusInProgress},
	StatusInProgress:        {StatusCompleted},
	StatusRescheduled:       {StatusAccepted},
	StatusNoShow:            {},
	StatusCompleted:         nil,
	StatusCancelled:         nil,
}

var titles = map[Status]string{
	StatusNeedsConfirmation: "Booking created",
	StatusPendingReview:     "Booking under review",
	StatusAccepted:          "Booking accepted",
	StatusDispatched:        "Worker dispatched",
	StatusOnTheWay:          "Worker on the way",
	StatusArrived:           "Worker arrived",
	StatusInProgress:        "Service in progress",
	StatusCompleted:         "Service completed",
	StatusCancelled:         "Booking cancelled",
	StatusRescheduled:       "Booking rescheduled",
	StatusNoShow:            "No show",
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Active bookings occupy the worker's date.
func (s Status) Active() bool {
	return s.Valid() && !s.Terminal()
}

func (s Status) Title() string {
	return titles[s]
}

// AllowedNext returns every status reachable from s in one step.
func AllowedNext(s Status) []Status {
	if !s.Valid() || s.Terminal() {
		return nil
	}

	next := append([]Status{}, transitions[s]...)
	for _, e := range exceptions {
		if e != s {
			next = append(next, e)
		}
	}
	return next
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedNext(from) {
		if s == to {
			return true
		}
	}
	return false
}

// ActiveStatuses is every status that blocks the worker's date.
func ActiveStatuses() []Status {
	out := make([]Status, 0, len(transitions))
	for s := range transitions {
		if s.Active() {
			out = append(out, s)
		}
	}
	return out
}
