package compiler

import (
	"errors"
	"fmt"
)

var (
	// ErrLookupPath marks a session build failure caused by an inaccessible
	// or unreadable lookup path.
	ErrLookupPath = errors.New("compiler: lookup path unavailable")

	// ErrClosed is returned when a task is submitted to a closed service.
	ErrClosed = errors.New("compiler: service closed")
)

// UsageError reports a misuse of the snapshot API: touching a native value
// after its compilation round ended, or querying before the snapshot was
// advanced to the phase the query needs. Raised as a panic inside tasks and
// converted to an error by RunUserActionTask.
type UsageError struct {
	Op  string
	Msg string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("compiler: %s: %s", e.Op, e.Msg)
}

func usagePanic(op, format string, args ...any) {
	panic(&UsageError{Op: op, Msg: fmt.Sprintf(format, args...)})
}
