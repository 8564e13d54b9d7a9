package pacman

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"

	"pacdeck/internal/executor"
	"pacdeck/internal/progress"
)

// Kind is a mutating package operation.
type Kind string

const (
	KindInstall Kind = "install"
	KindRemove  Kind = "remove"
	KindUpdate  Kind = "update"
)

// Progress steps emitted by the controller besides the per-kind description.
const (
	StepQueued     = "QUEUED"
	StepValidation = "VALIDATION"
)

// outputTailLines is how much command output a failure message carries.
const outputTailLines = 10

// ParseKind converts a user-supplied operation name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindInstall, KindRemove, KindUpdate:
		return k, nil
	}
	return "", &ValidationError{Message: fmt.Sprintf("Invalid operation: %s", s)}
}

// Valid reports whether k is a known operation.
func (k Kind) Valid() bool {
	return k == KindInstall || k == KindRemove || k == KindUpdate
}

// NeedsPackage reports whether the operation acts on a named package.
func (k Kind) NeedsPackage() bool {
	return k == KindInstall || k == KindRemove
}

// Description is the human label used in progress events and messages.
func (k Kind) Description() string {
	switch k {
	case KindInstall:
		return "Installation"
	case KindRemove:
		return "Removal"
	case KindUpdate:
		return "System Update"
	}
	return string(k)
}

// FailureKind tags why an operation failed.
type FailureKind string

const (
	FailureNone        FailureKind = ""
	FailureValidation  FailureKind = "validation"
	FailureSpawn       FailureKind = "spawn_failed"
	FailureTimeout     FailureKind = "timeout"
	FailureCanceled    FailureKind = "canceled"
	FailureNonZeroExit FailureKind = "non_zero_exit"
)

// ValidationError is returned for a request rejected before anything runs.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Request asks for one mutating operation. Package is ignored for updates.
type Request struct {
	Kind    Kind   `json:"operation" yaml:"operation"`
	Package string `json:"package_name,omitempty" yaml:"package_name,omitempty"`
}

// Validate checks the operation kind and, where needed, the package name.
func (r Request) Validate() error {
	if !r.Kind.Valid() {
		return &ValidationError{Message: fmt.Sprintf("Invalid operation: %s", r.Kind)}
	}
	if !r.Kind.NeedsPackage() {
		return nil
	}
	if strings.TrimSpace(r.Package) == "" {
		return &ValidationError{Message: "Package name required for install/remove."}
	}
	return ValidateName(r.Package)
}

// ValidateName rejects names pacman would read as options or that cannot be a
// single argument.
func ValidateName(name string) error {
	if strings.HasPrefix(name, "-") {
		return &ValidationError{Message: fmt.Sprintf("Invalid package name: %q", name)}
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return &ValidationError{Message: fmt.Sprintf("Invalid package name: %q", name)}
		}
	}
	return nil
}

// Result is the terminal outcome of one request. It is produced exactly once.
type Result struct {
	ID          string        `json:"id" yaml:"id"`
	Success     bool          `json:"success" yaml:"success"`
	Message     string        `json:"message" yaml:"message"`
	Operation   Kind          `json:"operation" yaml:"operation"`
	PackageName string        `json:"package_name,omitempty" yaml:"package_name,omitempty"`
	ExitCode    int           `json:"exit_code" yaml:"exit_code"`
	Error       FailureKind   `json:"error,omitempty" yaml:"error,omitempty"`
	Reason      string        `json:"reason,omitempty" yaml:"reason,omitempty"`
	DryRun      bool          `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	StartedAt   time.Time     `json:"started_at" yaml:"started_at"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
}

// Operation is a submitted request whose result can be awaited.
type Operation struct {
	ID      string
	Request Request

	done   chan struct{}
	result Result
}

// Done is closed when the result is available.
func (o *Operation) Done() <-chan struct{} {
	return o.done
}

// Wait blocks until the operation finishes and returns its result.
func (o *Operation) Wait() Result {
	<-o.done
	return o.result
}

// Controller validates, elevates and runs mutating pacman operations one at a
// time. Requests arriving while another runs wait in line.
type Controller struct {
	runner   Runner
	emit     *progress.Emitter
	elevator *executor.Elevator
	binary   string
	timeout  time.Duration
	dryRun   bool
	onResult func(Result)

	slot chan struct{}

	mu      sync.Mutex
	running map[string]context.CancelFunc
}

// NewController creates a Controller. A nil Elevator runs pacman directly.
func NewController(r Runner, emit *progress.Emitter, opts Options) *Controller {
	opts = opts.withDefaults()
	return &Controller{
		runner:   r,
		emit:     emit,
		elevator: opts.Elevator,
		binary:   opts.Binary,
		timeout:  opts.Timeouts.Operation,
		dryRun:   opts.DryRun,
		onResult: opts.OnResult,
		slot:     make(chan struct{}, 1),
		running:  make(map[string]context.CancelFunc),
	}
}

// BuildCommand returns the elevated argument vector for req. The request must
// be valid.
func (c *Controller) BuildCommand(req Request) executor.Command {
	var args []string
	switch req.Kind {
	case KindInstall:
		args = []string{"-S", "--noconfirm", req.Package}
	case KindRemove:
		args = []string{"-Rns", "--noconfirm", req.Package}
	case KindUpdate:
		args = []string{"-Syu", "--noconfirm"}
	}

	return c.elevator.Wrap(executor.Command{
		Program: c.binary,
		Args:    args,
		Timeout: c.timeout,
		Tag:     req.Kind.Description(),
	})
}

// Run executes req and blocks until it finishes.
func (c *Controller) Run(ctx context.Context, req Request) Result {
	id := uuid.NewString()
	opCtx, cancel := c.track(ctx, id)
	defer c.untrack(id, cancel)

	return c.execute(opCtx, id, req)
}

// Submit starts req in the background. The returned Operation's ID can be
// passed to Cancel.
func (c *Controller) Submit(ctx context.Context, req Request) *Operation {
	op := &Operation{
		ID:      uuid.NewString(),
		Request: req,
		done:    make(chan struct{}),
	}
	opCtx, cancel := c.track(ctx, op.ID)

	go func() {
		defer close(op.done)
		defer c.untrack(op.ID, cancel)
		op.result = c.execute(opCtx, op.ID, req)
	}()

	return op
}

// Cancel stops a queued or running operation. It reports whether id was known.
func (c *Controller) Cancel(id string) bool {
	c.mu.Lock()
	cancel, ok := c.running[id]
	c.mu.Unlock()

	if ok {
		log.Info().Str("id", id).Msg("Canceling operation")
		cancel()
	}
	return ok
}

// CancelAll stops every queued or running operation and returns how many there were.
func (c *Controller) CancelAll() int {
	c.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(c.running))
	for _, cancel := range c.running {
		cancels = append(cancels, cancel)
	}
	c.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	return len(cancels)
}

// Running returns the IDs of operations not yet finished.
func (c *Controller) Running() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]string, 0, len(c.running))
	for id := range c.running {
		ids = append(ids, id)
	}
	return ids
}

func (c *Controller) track(ctx context.Context, id string) (context.Context, context.CancelFunc) {
	opCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.running[id] = cancel
	c.mu.Unlock()
	return opCtx, cancel
}

func (c *Controller) untrack(id string, cancel context.CancelFunc) {
	c.mu.Lock()
	delete(c.running, id)
	c.mu.Unlock()
	cancel()
}

func (c *Controller) execute(ctx context.Context, id string, req Request) Result {
	result := Result{
		ID:          id,
		Operation:   req.Kind,
		PackageName: req.Package,
		StartedAt:   time.Now(),
		DryRun:      c.dryRun,
	}
	if req.Kind == KindUpdate {
		result.PackageName = ""
	}

	finish := func() Result {
		result.Duration = time.Since(result.StartedAt)
		if c.onResult != nil {
			c.onResult(result)
		}
		return result
	}

	if err := req.Validate(); err != nil {
		result.Message = err.Error()
		result.Error = FailureValidation
		c.emit.Emit(StepValidation, result.Message)
		log.Warn().Str("operation", string(req.Kind)).Str("package", req.Package).Msg(result.Message)
		return finish()
	}

	desc := req.Kind.Description()
	logger := log.With().Str("id", id).Str("operation", string(req.Kind)).Str("package", result.PackageName).Logger()

	if err := c.acquire(ctx, desc); err != nil {
		result.Message = fmt.Sprintf("%s canceled while queued.", desc)
		result.Error = FailureCanceled
		result.ExitCode = -1
		c.emit.Emit(desc, "Failed: "+result.Message)
		return finish()
	}
	defer c.release()

	c.emit.Emit(desc, fmt.Sprintf("Starting %s...", desc))
	cmd := c.BuildCommand(req)

	if c.dryRun {
		c.emit.Emit(desc, "[dry-run] Would execute: "+cmd.String())
		result.Success = true
		result.Message = fmt.Sprintf("%s completed successfully. (dry run: %s)", desc, cmd.String())
		return finish()
	}

	logger.Info().Str("command", cmd.String()).Msg("Running operation")
	out, err := c.runner.Run(ctx, cmd)
	if out != nil {
		result.ExitCode = out.ExitCode
	}

	switch {
	case err != nil:
		result.Error = failureKind(err)
		result.Message = fmt.Sprintf("%s failed: %v", desc, err)
		if result.Error == FailureCanceled {
			result.Message = fmt.Sprintf("%s canceled.", desc)
		}
		if out == nil {
			result.ExitCode = -1
		}
		logger.Warn().Err(err).Msg("Operation aborted")

	case !out.Success():
		result.Error = FailureNonZeroExit
		result.Message = fmt.Sprintf("%s failed with exit code %d: %s", desc, out.ExitCode, out.Tail(outputTailLines))
		if pacErr := ClassifyFailure(out.Combined(), out.ExitCode); pacErr != nil {
			result.Reason = pacErr.Type.String()
			result.Message += "\n" + FormatFailure(pacErr)
		}
		logger.Warn().Int("exit_code", out.ExitCode).Str("reason", result.Reason).Msg("Operation failed")

	default:
		result.Success = true
		result.Message = fmt.Sprintf("%s completed successfully.", desc)
		logger.Info().Dur("duration", out.Duration).Msg("Operation completed")
	}

	if result.Success {
		c.emit.Emit(desc, result.Message)
	} else {
		c.emit.Emit(desc, "Failed: "+result.Message)
	}
	return finish()
}

// acquire takes the single operation slot, waiting in line if it is busy.
func (c *Controller) acquire(ctx context.Context, desc string) error {
	select {
	case c.slot <- struct{}{}:
		return nil
	default:
	}

	c.emit.Emit(StepQueued, fmt.Sprintf("%s queued: waiting for another operation to finish", desc))
	select {
	case c.slot <- struct{}{}:
		if err := ctx.Err(); err != nil {
			c.release()
			return err
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) release() {
	<-c.slot
}

func failureKind(err error) FailureKind {
	switch {
	case errors.Is(err, executor.ErrTimeout):
		return FailureTimeout
	case errors.Is(err, executor.ErrCanceled):
		return FailureCanceled
	case errors.Is(err, executor.ErrSpawnFailed):
		return FailureSpawn
	}
	return FailureSpawn
}
