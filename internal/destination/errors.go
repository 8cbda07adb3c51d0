package destination

import "fmt"

// InvalidTransitionError is returned when a requested state change is not
// permitted from the current state. Callers surface it to staff as a
// user-facing message; it is never fatal.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	valid := ValidTransitions[e.From]
	return fmt.Sprintf("destination: invalid transition from %q to %q; valid transitions: %v", e.From, e.To, valid)
}

// ValidationError is returned when transition context is missing or
// malformed: no error message for an error transition, or submission notes
// under the minimum length.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("destination: %s %s", e.Field, e.Reason)
}
