package pacman

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrValidation is returned for a request that cannot be run as given.
	ErrValidation = errors.New("validation error")

	// ErrNonZeroExit means pacman ran to completion but reported failure.
	ErrNonZeroExit = errors.New("non-zero exit")

	// ErrParse means command output did not match an expected report format.
	ErrParse = errors.New("parse error")

	// ErrHistoryIO means the transaction log could not be read.
	ErrHistoryIO = errors.New("history log unreadable")
)

// ErrorType classifies a failed pacman transaction.
type ErrorType int

const (
	ErrorUnknown ErrorType = iota
	ErrorDependencyConflict
	ErrorPackageNotFound
	ErrorDatabaseLocked
	ErrorAuthDismissed
)

func (t ErrorType) String() string {
	switch t {
	case ErrorDependencyConflict:
		return "dependency conflict"
	case ErrorPackageNotFound:
		return "target not found"
	case ErrorDatabaseLocked:
		return "database locked"
	case ErrorAuthDismissed:
		return "authentication dismissed"
	}
	return "unknown"
}

// PacmanError is a structured view of a failed pacman run.
type PacmanError struct {
	Type       ErrorType
	ExitCode   int
	RawOutput  string
	Packages   []string // affected packages
	Suggestion string
}

// Error implements the error interface.
func (e *PacmanError) Error() string {
	if e.Type == ErrorUnknown {
		return "pacman failed"
	}
	if len(e.Packages) > 0 {
		return e.Type.String() + ": " + strings.Join(e.Packages, ", ")
	}
	return e.Type.String()
}

// Is lets errors.Is(err, ErrNonZeroExit) match any classified failure.
func (e *PacmanError) Is(target error) bool {
	return target == ErrNonZeroExit
}

var (
	// error: failed to prepare transaction (could not satisfy dependencies)
	dependencyFailurePattern = regexp.MustCompile(`failed to prepare transaction.*could not satisfy dependencies`)

	// :: installing pkg (1.2.3-4) breaks dependency 'pkg=1.2.3-1' required by other-pkg
	breaksDepPattern = regexp.MustCompile(`:: installing (\S+) .* breaks dependency .* required by (\S+)`)

	// :: pkg and other-pkg are in conflict
	conflictPattern = regexp.MustCompile(`:: (\S+) and (\S+) are in conflict`)

	// error: target not found: pkg
	notFoundPattern = regexp.MustCompile(`error: target not found: (\S+)`)

	// error: failed to init transaction (unable to lock database)
	dbLockedPattern = regexp.MustCompile(`failed to init transaction.*unable to lock database`)

	// pkexec: "Error executing command as another user: Request dismissed" / "Not authorized"
	authPattern = regexp.MustCompile(`Request dismissed|Not authorized|authentication failure|incorrect password attempt`)
)

// Exit codes reported by pkexec when the user cancels or is refused.
const (
	pkexecDismissed    = 126
	pkexecUnauthorized = 127
)

// ClassifyFailure inspects the output of a failed run. It returns nil when the
// failure matches no known pattern.
func ClassifyFailure(output string, exitCode int) *PacmanError {
	if output == "" && exitCode == 0 {
		return nil
	}

	pacErr := &PacmanError{
		Type:      ErrorUnknown,
		ExitCode:  exitCode,
		RawOutput: output,
	}

	switch {
	case dependencyFailurePattern.MatchString(output), conflictPattern.MatchString(output):
		pacErr.Type = ErrorDependencyConflict
		pacErr.Packages = extractAffectedPackages(output)
		pacErr.Suggestion = "Run 'pacdeck upgrade' to update your system first"

	case notFoundPattern.MatchString(output):
		pacErr.Type = ErrorPackageNotFound
		for _, m := range notFoundPattern.FindAllStringSubmatch(output, -1) {
			pacErr.Packages = append(pacErr.Packages, m[1])
		}
		pacErr.Suggestion = "Check the package name, or refresh the sync databases with 'pacdeck upgrade'"

	case dbLockedPattern.MatchString(output):
		pacErr.Type = ErrorDatabaseLocked
		pacErr.Suggestion = "Another package manager may be running. Wait for it to finish or remove /var/lib/pacman/db.lck"

	case authPattern.MatchString(output), exitCode == pkexecDismissed, exitCode == pkexecUnauthorized:
		pacErr.Type = ErrorAuthDismissed
		pacErr.Suggestion = "Authentication was cancelled or refused; run the command again and confirm the prompt"

	default:
		return nil
	}

	return pacErr
}

// extractAffectedPackages extracts package names from dependency conflict messages.
func extractAffectedPackages(output string) []string {
	seen := make(map[string]bool)
	var packages []string

	add := func(name string) {
		if !seen[name] {
			packages = append(packages, name)
			seen[name] = true
		}
	}

	for _, m := range breaksDepPattern.FindAllStringSubmatch(output, -1) {
		add(m[1])
		add(m[2])
	}
	for _, m := range conflictPattern.FindAllStringSubmatch(output, -1) {
		add(m[1])
		add(m[2])
	}

	return packages
}

// FormatFailure returns a user-friendly, multi-line description of a
// classified failure.
func FormatFailure(pacErr *PacmanError) string {
	var sb strings.Builder

	switch pacErr.Type {
	case ErrorDependencyConflict:
		sb.WriteString("Dependency conflict detected!\n")
		sb.WriteString("  This usually happens when packages in your system are out of date.\n")
	case ErrorPackageNotFound:
		sb.WriteString("Target not found in any repository.\n")
	case ErrorDatabaseLocked:
		sb.WriteString("The pacman database is locked.\n")
	case ErrorAuthDismissed:
		sb.WriteString("Authentication was not granted.\n")
	default:
		sb.WriteString("pacman reported an error.\n")
	}

	if pacErr.Suggestion != "" {
		sb.WriteString("-> Suggestion: ")
		sb.WriteString(pacErr.Suggestion)
		sb.WriteString("\n")
	}

	if len(pacErr.Packages) > 0 {
		sb.WriteString("  Affected packages:\n")
		for _, pkg := range pacErr.Packages {
			sb.WriteString("    - ")
			sb.WriteString(pkg)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
