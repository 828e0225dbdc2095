package queue

import "fmt"

// ErrorPill is a sentinel placed by the mutator when a fatal construction,
// borrow, or cleanup error occurs. It is surfaced to the next Borrow call
// as an error and then consumed; subsequent borrowers see an empty queue
// and block (or see a later pill), exactly as spec.md §9 describes.
type ErrorPill struct {
	Cause error
}

func (p ErrorPill) Error() string {
	return fmt.Sprintf("pool: fatal construction error: %v", p.Cause)
}

func (p ErrorPill) Unwrap() error {
	return p.Cause
}

// ShutdownPill is a sentinel placed once the pool begins an orderly
// shutdown. Unlike ErrorPill it is never consumed by Borrow: every
// subsequent borrower observes it until the process exits.
type ShutdownPill struct{}

func (ShutdownPill) Error() string {
	return "pool: shut down"
}
