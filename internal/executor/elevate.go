package executor

import (
	"os/exec"
)

// DefaultHelper is the elevation helper used when none is configured.
const DefaultHelper = "pkexec"

// Elevator wraps commands so they run through a privilege-elevation helper.
// The helper receives the real command as an explicit argument vector; no
// shell is involved, so package names can never be reinterpreted.
type Elevator struct {
	helper       string
	skipWhenRoot bool
	isRoot       func() bool
}

// NewElevator creates an Elevator for helper. When skipWhenRoot is set and the
// process already runs as root, commands are returned unwrapped.
func NewElevator(helper string, skipWhenRoot bool) *Elevator {
	return &Elevator{
		helper:       helper,
		skipWhenRoot: skipWhenRoot,
		isRoot:       isRoot,
	}
}

// Helper returns the configured helper program.
func (e *Elevator) Helper() string {
	return e.helper
}

// Wrap returns cmd rewritten as "<helper> <program> <args...>".
func (e *Elevator) Wrap(cmd Command) Command {
	if e == nil || e.helper == "" {
		return cmd
	}
	if e.skipWhenRoot && e.isRoot() {
		return cmd
	}

	args := make([]string, 0, len(cmd.Args)+1)
	args = append(args, cmd.Program)
	args = append(args, cmd.Args...)

	return Command{
		Program: e.helper,
		Args:    args,
		Timeout: cmd.Timeout,
		Tag:     cmd.Tag,
	}
}

// Available reports whether the helper binary can be found on PATH.
func (e *Elevator) Available() bool {
	if e == nil || e.helper == "" {
		return false
	}
	_, err := exec.LookPath(e.helper)
	return err == nil
}

// Check returns ErrNoPrivileges when the process is not root and the helper
// is missing.
func (e *Elevator) Check() error {
	if e != nil && e.isRoot() {
		return nil
	}
	if e.Available() {
		return nil
	}
	return ErrNoPrivileges
}

// IsRoot returns true if the current process is running as root/administrator.
func IsRoot() bool {
	return isRoot()
}
