package bulkaction

// State is the coordinator lifecycle.
type State string

const (
	StateIdle            State = "idle"
	StateConfirming      State = "confirming"
	StateInFlight        State = "in_flight"
	StateSucceeded       State = "succeeded"
	StatePartiallyFailed State = "partially_failed"
	StateFailed          State = "failed"
)

// Terminal reports whether the state is waiting to be dismissed.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StatePartiallyFailed || s == StateFailed
}

// Busy reports whether a new operation must be rejected.
func (s State) Busy() bool {
	return s == StateConfirming || s == StateInFlight
}
