// Package executor runs external commands with captured, line-streamed output,
// a hard timeout, and optional privilege elevation.
package executor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"pacdeck/internal/logging"
	"pacdeck/internal/progress"
)

var log = logging.GetLogger("executor")

const (
	// DefaultTimeout applies when a Command carries no timeout.
	DefaultTimeout = 60 * time.Second

	// DefaultWaitDelay bounds how long Wait keeps the output pipes open after
	// the process has been killed.
	DefaultWaitDelay = 2 * time.Second
)

// Command describes one external program invocation.
type Command struct {
	Program string
	Args    []string
	Timeout time.Duration
	Tag     string // progress step used for the "starting" event
}

// String renders the command line for display.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Program
	}
	return c.Program + " " + strings.Join(c.Args, " ")
}

// Executor spawns commands and streams their output as progress events.
type Executor struct {
	emit      *progress.Emitter
	waitDelay time.Duration
}

// New creates an Executor publishing through emit. A nil emitter discards events.
func New(emit *progress.Emitter) *Executor {
	return &Executor{
		emit:      emit,
		waitDelay: DefaultWaitDelay,
	}
}

// SetWaitDelay changes how long pipes stay open after a kill.
func (e *Executor) SetWaitDelay(d time.Duration) {
	e.waitDelay = d
}

// Emitter returns the emitter used for output events.
func (e *Executor) Emitter() *progress.Emitter {
	return e.emit
}

// Run executes cmd and waits for it, subject to cmd.Timeout and ctx.
//
// A non-zero exit status is not an error: the caller inspects Output.ExitCode.
// Errors match ErrSpawnFailed, ErrTimeout, or ErrCanceled. Once the process has
// started, Output is returned alongside any error with the partial output.
func (e *Executor) Run(ctx context.Context, cmd Command) (*Output, error) {
	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	e.emit.Emit(cmd.Tag, "Running: "+cmd.String())

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c := exec.CommandContext(runCtx, cmd.Program, cmd.Args...)
	setProcessGroup(c)
	c.Cancel = func() error { return killProcessGroup(c) }
	c.WaitDelay = e.waitDelay

	stdout := newLineWriter(e.emit, progress.StepStdout)
	stderr := newLineWriter(e.emit, progress.StepStderr)
	c.Stdout = stdout
	c.Stderr = stderr

	start := time.Now()
	if err := c.Start(); err != nil {
		if ctxErr := contextFailure(ctx, runCtx, cmd, timeout); ctxErr != nil {
			return nil, ctxErr
		}
		log.Warn().Err(err).Str("program", cmd.Program).Msg("Failed to spawn command")
		return nil, &RunError{Kind: ErrSpawnFailed, Command: cmd, Err: err}
	}

	out := &Output{PID: c.Process.Pid}
	log.Debug().Str("command", cmd.String()).Int("pid", out.PID).Dur("timeout", timeout).Msg("Command started")

	waitErr := c.Wait()
	if err := killLeftovers(c); err != nil {
		log.Debug().Err(err).Int("pid", c.Process.Pid).Msg("Failed to kill leftover processes")
	}
	stdout.Flush()
	stderr.Flush()

	out.Stdout = stdout.String()
	out.Stderr = stderr.String()
	out.Duration = time.Since(start)

	if waitErr != nil {
		if ctxErr := contextFailure(ctx, runCtx, cmd, timeout); ctxErr != nil {
			out.ExitCode = -1
			log.Warn().Err(ctxErr).Int("pid", out.PID).Msg("Command killed")
			return out, ctxErr
		}

		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
		} else if errors.Is(waitErr, exec.ErrWaitDelay) {
			// A descendant held the output pipes open; it was killed above.
			log.Debug().Int("pid", out.PID).Msg("Output pipes closed after wait delay")
		} else {
			out.ExitCode = -1
			return out, &RunError{Kind: ErrSpawnFailed, Command: cmd, Err: waitErr}
		}
	}

	log.Debug().
		Str("command", cmd.String()).
		Int("exit_code", out.ExitCode).
		Dur("duration", out.Duration).
		Msg("Command finished")
	return out, nil
}

// contextFailure reports a timeout or caller cancellation, if either happened.
func contextFailure(parent, runCtx context.Context, cmd Command, timeout time.Duration) error {
	if parent.Err() != nil {
		return &RunError{Kind: ErrCanceled, Command: cmd, Err: parent.Err()}
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return &RunError{
			Kind:    ErrTimeout,
			Command: cmd,
			Err:     fmt.Errorf("command timed out after %s", timeout),
		}
	}
	return nil
}
