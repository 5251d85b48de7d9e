package neat

import (
	"errors"
	"fmt"
)

var (
	// ErrPreconditionFailed marks a request the caller should never have made,
	// e.g. deleting the active module.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrInconsistentState marks a lookup miss or bookkeeping corruption.
	ErrInconsistentState = errors.New("inconsistent genome state")
	ErrModuleNotFound    = errors.New("module not found")
	ErrModuleActive      = errors.New("module is active")
)

// IntegrityError reports which genome invariant failed and where.
type IntegrityError struct {
	GenomeID  uint32
	Invariant string
	Index     int // gene index, -1 when not applicable
	Detail    string
}

func (e *IntegrityError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("genome %d: integrity check failed (%s) at index %d: %s", e.GenomeID, e.Invariant, e.Index, e.Detail)
	}
	return fmt.Sprintf("genome %d: integrity check failed (%s): %s", e.GenomeID, e.Invariant, e.Detail)
}

func preconditionf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrPreconditionFailed, fmt.Sprintf(format, args...))
}

func inconsistentf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInconsistentState, fmt.Sprintf(format, args...))
}
