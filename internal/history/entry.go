// Package history journals finished package operations in a BoltDB file.
package history

import (
	"fmt"
	"time"

	"pacdeck/pkg/pacman"
)

// Entry is the journal record of one finished operation.
type Entry struct {
	ID        string        `json:"id" yaml:"id"`
	Timestamp time.Time     `json:"timestamp" yaml:"timestamp"`
	Operation pacman.Kind   `json:"operation" yaml:"operation"`
	Package   string        `json:"package,omitempty" yaml:"package,omitempty"`
	Success   bool          `json:"success" yaml:"success"`
	ExitCode  int           `json:"exit_code" yaml:"exit_code"`
	Failure   string        `json:"failure,omitempty" yaml:"failure,omitempty"`
	Reason    string        `json:"reason,omitempty" yaml:"reason,omitempty"`
	Message   string        `json:"message" yaml:"message"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	DryRun    bool          `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`

	// Undo support
	Reversible bool        `json:"reversible" yaml:"reversible"`
	ReverseOp  pacman.Kind `json:"reverse_op,omitempty" yaml:"reverse_op,omitempty"`
}

// FromResult converts an operation result into a journal entry.
func FromResult(r pacman.Result) *Entry {
	ts := r.StartedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return &Entry{
		ID:         r.ID,
		Timestamp:  ts,
		Operation:  r.Operation,
		Package:    r.PackageName,
		Success:    r.Success,
		ExitCode:   r.ExitCode,
		Failure:    string(r.Error),
		Reason:     r.Reason,
		Message:    r.Message,
		Duration:   r.Duration,
		DryRun:     r.DryRun,
		Reversible: isReversible(r.Operation),
		ReverseOp:  reverseOperation(r.Operation),
	}
}

// isReversible returns whether an operation can be reversed.
func isReversible(op pacman.Kind) bool {
	switch op {
	case pacman.KindInstall, pacman.KindRemove:
		return true
	}
	return false
}

// reverseOperation returns the operation that would reverse this one.
func reverseOperation(op pacman.Kind) pacman.Kind {
	switch op {
	case pacman.KindInstall:
		return pacman.KindRemove
	case pacman.KindRemove:
		return pacman.KindInstall
	}
	return ""
}

// CanUndo returns true if running ReverseOp would undo this entry.
func (e *Entry) CanUndo() bool {
	return e.Reversible && e.Success && !e.DryRun && e.Package != ""
}

// UndoRequest returns the request that reverses this entry.
func (e *Entry) UndoRequest() (pacman.Request, error) {
	if !e.CanUndo() {
		return pacman.Request{}, fmt.Errorf("%s of %q cannot be undone", e.Operation, e.Package)
	}
	return pacman.Request{Kind: e.ReverseOp, Package: e.Package}, nil
}

// FormatTime returns a human-readable timestamp.
func (e *Entry) FormatTime() string {
	return e.Timestamp.Local().Format("2006-01-02 15:04:05")
}

// Summary returns a brief summary of the operation.
func (e *Entry) Summary() string {
	status := "success"
	if !e.Success {
		status = "failed"
	}
	if e.DryRun {
		status += ", dry run"
	}

	if e.Package == "" {
		return e.FormatTime() + " " + string(e.Operation) + " (" + status + ")"
	}
	return e.FormatTime() + " " + string(e.Operation) + " " + e.Package + " (" + status + ")"
}
