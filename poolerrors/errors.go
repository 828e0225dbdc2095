// Package poolerrors defines the error taxonomy shared by queue, mutator,
// creation and pool: the Kind values a caller checks with errors.Is, built
// on top of the teacher's github.com/spiral/errors Op/Kind/E convention.
//
// github.com/spiral/errors ships its own closed set of Kind values
// (errors.SoftJob, errors.Network, errors.NoFreeWorkers, ...) for its
// transport layer; this package defines its own constants of that same
// Kind type for the failure classes spec'd in spec.md §7, the same way any
// spiral/errors consumer extends the vocabulary without forking the
// library.
package poolerrors

import "github.com/spiral/errors"

// Kind values recognized by this module. Declared in a block disjoint from
// github.com/spiral/errors' own constants (which start at its own iota).
const (
	// LockTimeout: the pool lock was not acquired within flush-timeout-ms.
	// Recoverable; surfaced as-is to the caller of drain/flush.
	LockTimeout errors.Kind = 100 + iota

	// ConstructionFailure: a CreateFunc hook returned an error.
	ConstructionFailure

	// BorrowFailure: the queue raised during a mass borrow (drain).
	BorrowFailure

	// CleanupFailure: a CleanupFunc hook returned an error.
	CleanupFailure

	// PoolCorrupted: wraps Construction/Borrow/CleanupFailure once the
	// queue has been cleared and an ErrorPill placed; the message
	// identifies the failing operation (its Op) and carries the cause, but
	// not the id of the failing worker slot.
	PoolCorrupted

	// PoolShutdown: a borrower observed a ShutdownPill. Non-fatal from the
	// pool's perspective, terminal from the caller's.
	PoolShutdown
)

// Op is a re-export of errors.Op so callers of this package do not need a
// second import for the same small string type.
type Op = errors.Op

// E re-exports errors.E for convenience at call sites that otherwise only
// need poolerrors.
func E(args ...interface{}) error {
	return errors.E(args...)
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(kind errors.Kind, err error) bool {
	for err != nil {
		e, ok := err.(*errors.Error)
		if !ok {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}
