package executor

import (
	"errors"
	"fmt"
)

var (
	// ErrSpawnFailed means the operating system could not start the program.
	ErrSpawnFailed = errors.New("spawn failed")

	// ErrTimeout means the command exceeded its deadline and was killed.
	ErrTimeout = errors.New("timeout")

	// ErrCanceled means the caller's context ended and the command was killed.
	ErrCanceled = errors.New("canceled")
)

// RunError describes why a command could not produce a normal result.
type RunError struct {
	Kind    error // ErrSpawnFailed, ErrTimeout or ErrCanceled
	Command Command
	Err     error
}

// Error implements the error interface.
func (e *RunError) Error() string {
	switch e.Kind {
	case ErrSpawnFailed:
		return fmt.Sprintf("failed to spawn %s: %v", e.Command.Program, e.Err)
	case ErrTimeout:
		return e.Err.Error()
	case ErrCanceled:
		return fmt.Sprintf("%s canceled: %v", e.Command.Program, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *RunError) Unwrap() error {
	return e.Err
}

// Is matches the error kind, so errors.Is(err, ErrTimeout) works.
func (e *RunError) Is(target error) bool {
	return target == e.Kind
}

// ErrNoPrivileges is returned when an operation requires root but cannot elevate.
type errNoPrivileges struct{}

func (e errNoPrivileges) Error() string {
	return "this operation requires root privileges, but neither running as root nor an elevation helper is available"
}

// ErrNoPrivileges is the error returned when privileges cannot be elevated.
var ErrNoPrivileges = errNoPrivileges{}
