package cli

import "errors"

var (
	// ErrUsage is returned for malformed command lines.
	ErrUsage = errors.New("invalid usage")

	// ErrAborted is returned when the user aborts an operation.
	ErrAborted = errors.New("operation aborted by user")

	// ErrOperationFailed is returned when pacman reported a failure. The
	// result itself has already been printed.
	ErrOperationFailed = errors.New("operation failed")

	// ErrNothingToUndo is returned when the journal holds no reversible entry.
	ErrNothingToUndo = errors.New("no operation to undo")
)

// ExitCode maps an error returned by Execute to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage):
		return 2
	case errors.Is(err, ErrAborted):
		return 130
	}
	return 1
}
