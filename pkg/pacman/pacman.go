// Package pacman drives pacman through an injected command runner: batch status
// queries, elevated install/remove/upgrade transactions, and a summary of
// pending updates and the last completed transaction.
package pacman

import (
	"context"
	"time"

	"pacdeck/internal/executor"
	"pacdeck/internal/logging"
	"pacdeck/internal/progress"
)

var log = logging.GetLogger("pacman")

const (
	// DefaultBinary is the package manager executable.
	DefaultBinary = "pacman"

	// DefaultLogFile is pacman's append-only transaction log.
	DefaultLogFile = "/var/log/pacman.log"

	// UnknownPackage names a status placeholder whose request had no usable name.
	UnknownPackage = "unknown"
)

// DefaultPendingCommand lists pending updates one per line without touching
// the system sync databases.
var DefaultPendingCommand = []string{"checkupdates"}

// Runner executes one external command. *executor.Executor satisfies it.
type Runner interface {
	Run(ctx context.Context, cmd executor.Command) (*executor.Output, error)
}

// Timeouts holds the per-class command deadlines.
type Timeouts struct {
	Operation time.Duration // install, remove, update
	Query     time.Duration // per-package -Q / -Si
	Pending   time.Duration // pending-update listing
}

// DefaultTimeouts returns the stock deadlines.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Operation: 300 * time.Second,
		Query:     60 * time.Second,
		Pending:   15 * time.Second,
	}
}

// Options configures a Manager and its components.
type Options struct {
	Binary              string
	Timeouts            Timeouts
	MaxConcurrentChecks int // 0 means one goroutine per package
	PendingCommand      []string
	LogFile             string
	DryRun              bool
	Elevator            *executor.Elevator

	// OnResult, when set, is called once with every terminal operation result.
	OnResult func(Result)
}

func (o Options) withDefaults() Options {
	def := DefaultTimeouts()
	if o.Binary == "" {
		o.Binary = DefaultBinary
	}
	if o.Timeouts.Operation <= 0 {
		o.Timeouts.Operation = def.Operation
	}
	if o.Timeouts.Query <= 0 {
		o.Timeouts.Query = def.Query
	}
	if o.Timeouts.Pending <= 0 {
		o.Timeouts.Pending = def.Pending
	}
	if len(o.PendingCommand) == 0 {
		o.PendingCommand = DefaultPendingCommand
	}
	if o.LogFile == "" {
		o.LogFile = DefaultLogFile
	}
	return o
}

// Manager bundles the status checker, operation controller and update
// summarizer behind one runner and one event emitter.
type Manager struct {
	checker    *Checker
	controller *Controller
	summarizer *Summarizer
}

// NewManager wires all components to r and emit.
func NewManager(r Runner, emit *progress.Emitter, opts Options) *Manager {
	return &Manager{
		checker:    NewChecker(r, emit, opts),
		controller: NewController(r, emit, opts),
		summarizer: NewSummarizer(r, emit, opts),
	}
}

// RunOperation validates and executes one mutating operation.
func (m *Manager) RunOperation(ctx context.Context, kind Kind, pkg string) Result {
	return m.controller.Run(ctx, Request{Kind: kind, Package: pkg})
}

// CheckStatus queries every named package concurrently.
func (m *Manager) CheckStatus(ctx context.Context, names []string) []PackageStatus {
	return m.checker.Check(ctx, names)
}

// CheckSystemUpdates summarizes pending updates and the last transaction.
func (m *Manager) CheckSystemUpdates(ctx context.Context) SystemUpdateStatus {
	return m.summarizer.Check(ctx)
}

// Controller exposes the operation controller for Submit/Cancel.
func (m *Manager) Controller() *Controller {
	return m.controller
}
