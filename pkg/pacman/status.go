package pacman

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"pacdeck/internal/executor"
	"pacdeck/internal/logging"
	"pacdeck/internal/progress"
)

// Progress steps emitted while checking packages.
const (
	StepBatchCheck      = "BATCH_CHECK"
	StepInstalled       = "INSTALLED"
	StepNotInstalled    = "NOT_INSTALLED"
	StepUpdateAvailable = "UPDATE_AVAILABLE"
	StepUpToDate        = "UP_TO_DATE"
	StepNotInRepo       = "NOT_IN_REPO"
	StepQueryFailed     = "QUERY_FAILED"
	StepQuery           = "QUERY"
)

// PackageStatus is the installed and repository state of one package.
// Empty version strings mean the version is not known.
type PackageStatus struct {
	Name            string `json:"name" yaml:"name"`
	Installed       bool   `json:"installed" yaml:"installed"`
	CurrentVersion  string `json:"current_version,omitempty" yaml:"current_version,omitempty"`
	AvailableUpdate bool   `json:"available_update" yaml:"available_update"`
	LatestVersion   string `json:"latest_version,omitempty" yaml:"latest_version,omitempty"`
	CheckSuccess    bool   `json:"check_success" yaml:"check_success"`
	Message         string `json:"message" yaml:"message"`
}

// UpdateAvailable reports whether an installed package differs from the
// repository version. Versions are compared as opaque strings.
func UpdateAvailable(installed bool, current, latest string) bool {
	return installed && current != "" && latest != "" && current != latest
}

// Checker runs read-only pacman queries for many packages at once.
type Checker struct {
	runner  Runner
	emit    *progress.Emitter
	binary  string
	timeout time.Duration
	limit   int
}

// NewChecker creates a Checker. Only Binary, Timeouts.Query and
// MaxConcurrentChecks are read from opts.
func NewChecker(r Runner, emit *progress.Emitter, opts Options) *Checker {
	opts = opts.withDefaults()
	return &Checker{
		runner:  r,
		emit:    emit,
		binary:  opts.Binary,
		timeout: opts.Timeouts.Query,
		limit:   opts.MaxConcurrentChecks,
	}
}

// Check returns exactly one status per name, in input order. A task that
// fails outright is reported as a placeholder with CheckSuccess false; it
// never affects the other packages.
func (c *Checker) Check(ctx context.Context, names []string) []PackageStatus {
	results := make([]PackageStatus, len(names))
	if len(names) == 0 {
		return results
	}

	start := time.Now()
	c.emit.Emit(StepBatchCheck, fmt.Sprintf("Checking %d packages...", len(names)))

	var g errgroup.Group
	if c.limit > 0 {
		g.SetLimit(c.limit)
	}

	for i, name := range names {
		i, name := i, name // per-iteration copies (go directive < 1.22)
		g.Go(func() error {
			results[i] = c.safeCheck(ctx, name)
			return nil
		})
	}
	_ = g.Wait()

	c.emit.Emit(StepBatchCheck, fmt.Sprintf("Checked %d packages", len(names)))
	logging.LogDuration(log, start, "batch status check")
	return results
}

// CheckOne checks a single package.
func (c *Checker) CheckOne(ctx context.Context, name string) PackageStatus {
	return c.Check(ctx, []string{name})[0]
}

func (c *Checker) safeCheck(ctx context.Context, name string) (status PackageStatus) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("package", name).Msg("Package check task failed")
			status = placeholder(name, fmt.Sprintf("Task error: %v", r))
		}
	}()

	if strings.TrimSpace(name) == "" {
		return placeholder(name, "Task error: empty package name")
	}
	if err := ValidateName(name); err != nil {
		return placeholder(name, err.Error())
	}
	return c.check(ctx, name)
}

func placeholder(name, message string) PackageStatus {
	if strings.TrimSpace(name) == "" {
		name = UnknownPackage
	}
	return PackageStatus{Name: name, CheckSuccess: false, Message: message}
}

func (c *Checker) check(ctx context.Context, name string) PackageStatus {
	status := PackageStatus{
		Name:         name,
		CheckSuccess: true,
		Message:      fmt.Sprintf("Checking %s", name),
	}

	// 1. installed?
	out, err := c.query(ctx, "-Q", name)
	if errors.Is(err, executor.ErrCanceled) {
		status.CheckSuccess = false
		status.Message = fmt.Sprintf("Check of %s canceled", name)
		return status
	}
	if err == nil && out.Success() {
		status.Installed = true
		if v, ok := ParseInstalledVersion(out.Stdout); ok {
			status.CurrentVersion = v
			c.emit.Emit(StepInstalled, fmt.Sprintf("%s v%s", name, v))
		} else {
			log.Warn().Err(ErrParse).Str("package", name).Str("output", out.Stdout).Msg("Installed version not recognised")
			c.emit.Emit(StepInstalled, fmt.Sprintf("%s (unknown version)", name))
		}
	} else {
		c.emit.Emit(StepNotInstalled, fmt.Sprintf("%s is not installed", name))
	}

	// 2. repository version
	out, err = c.query(ctx, "-Si", name)
	switch {
	case err != nil:
		status.CheckSuccess = false
		status.Message = fmt.Sprintf("Failed to query repositories for '%s': %v", name, err)
		c.emit.Emit(StepQueryFailed, status.Message)
		return status

	case !out.Success():
		status.CheckSuccess = false
		status.Message = fmt.Sprintf("Package '%s' not found in repositories", name)
		c.emit.Emit(StepNotInRepo, status.Message)
		return status
	}

	latest, ok := ParseRepoVersion(out.Stdout)
	if !ok {
		log.Warn().Err(ErrParse).Str("package", name).Msg("Repository version not recognised")
	}
	status.LatestVersion = latest

	// 3. compare
	status.AvailableUpdate = UpdateAvailable(status.Installed, status.CurrentVersion, latest)
	switch {
	case status.AvailableUpdate:
		status.Message = fmt.Sprintf("Update available: %s -> %s", status.CurrentVersion, latest)
		c.emit.Emit(StepUpdateAvailable, fmt.Sprintf("%s: %s to %s", name, status.CurrentVersion, latest))
	case status.Installed && latest != "" && status.CurrentVersion == latest:
		status.Message = "Up to date"
		c.emit.Emit(StepUpToDate, fmt.Sprintf("%s is up to date", name))
	case status.Installed:
		status.Message = "Installed"
	default:
		status.Message = "Not installed"
	}

	return status
}

func (c *Checker) query(ctx context.Context, flag, name string) (*executor.Output, error) {
	return c.runner.Run(ctx, executor.Command{
		Program: c.binary,
		Args:    []string{flag, name},
		Timeout: c.timeout,
		Tag:     StepQuery,
	})
}
