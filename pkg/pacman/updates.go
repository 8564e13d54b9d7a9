package pacman

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"pacdeck/internal/executor"
	"pacdeck/internal/progress"
)

// Progress steps emitted by the update summarizer.
const (
	StepUpdateCheck    = "UPDATE_CHECK"
	StepPendingUpdates = "PENDING_UPDATES"
	StepLastUpdate     = "LAST_UPDATE"
	StepHistoryParse   = "HISTORY_PARSE"
)

// transactionMarker identifies a finished transaction in pacman.log.
const transactionMarker = "transaction completed"

// logTimeLayout is pacman.log's bracketed timestamp, e.g. 2024-05-01T10:22:33+0200.
const logTimeLayout = "2006-01-02T15:04:05-0700"

// SystemUpdateStatus summarizes pending updates and the last completed transaction.
type SystemUpdateStatus struct {
	UpdatesAvailable    bool     `json:"updates_available" yaml:"updates_available"`
	PendingUpdatesCount int      `json:"pending_updates_count" yaml:"pending_updates_count"`
	LastUpdateDate      string   `json:"last_update_date,omitempty" yaml:"last_update_date,omitempty"`
	CheckSuccess        bool     `json:"check_success" yaml:"check_success"`
	Message             string   `json:"message" yaml:"message"`
	Pending             []string `json:"pending,omitempty" yaml:"pending,omitempty"`
}

// Summarizer combines a pending-update listing with a scan of pacman.log.
type Summarizer struct {
	runner  Runner
	emit    *progress.Emitter
	command []string
	logFile string
	timeout time.Duration
}

// NewSummarizer creates a Summarizer. Only PendingCommand, LogFile and
// Timeouts.Pending are read from opts.
func NewSummarizer(r Runner, emit *progress.Emitter, opts Options) *Summarizer {
	opts = opts.withDefaults()
	return &Summarizer{
		runner:  r,
		emit:    emit,
		command: opts.PendingCommand,
		logFile: opts.LogFile,
		timeout: opts.Timeouts.Pending,
	}
}

// Check runs both halves. A history failure only degrades the message; it
// never clears CheckSuccess.
func (s *Summarizer) Check(ctx context.Context) SystemUpdateStatus {
	var status SystemUpdateStatus

	s.emit.Emit(StepUpdateCheck, "Checking for pending updates...")
	pending, pendingErr := s.pending(ctx)
	if pendingErr == nil {
		status.CheckSuccess = true
		status.Pending = pending
		status.PendingUpdatesCount = len(pending)
		status.UpdatesAvailable = len(pending) > 0
		s.emit.Emit(StepPendingUpdates, fmt.Sprintf("%d updates pending", len(pending)))
	} else {
		log.Warn().Err(pendingErr).Msg("Pending update check failed")
	}

	last, found, historyErr := s.lastTransaction()
	if found {
		status.LastUpdateDate = last.Format(time.RFC3339)
		s.emit.Emit(StepLastUpdate, status.LastUpdateDate)
	}
	if historyErr != nil {
		log.Warn().Err(historyErr).Str("file", s.logFile).Msg("Update history unavailable")
	}

	status.Message = composeMessage(status, pendingErr, found, historyErr)
	return status
}

func composeMessage(status SystemUpdateStatus, pendingErr error, found bool, historyErr error) string {
	var sb strings.Builder

	switch {
	case pendingErr != nil:
		fmt.Fprintf(&sb, "Failed to check for updates: %v", pendingErr)
	case status.PendingUpdatesCount == 1:
		sb.WriteString("1 update available")
	case status.PendingUpdatesCount > 0:
		fmt.Fprintf(&sb, "%d updates available", status.PendingUpdatesCount)
	default:
		sb.WriteString("System is up to date")
	}

	switch {
	case historyErr != nil:
		fmt.Fprintf(&sb, "; update history unavailable: %v", historyErr)
	case found:
		fmt.Fprintf(&sb, "; last update: %s", status.LastUpdateDate)
	default:
		sb.WriteString("; no completed transactions recorded")
	}

	return sb.String()
}

// pending lists the pending updates, one per non-blank output line.
func (s *Summarizer) pending(ctx context.Context) ([]string, error) {
	cmd := executor.Command{
		Program: s.command[0],
		Args:    s.command[1:],
		Timeout: s.timeout,
		Tag:     StepUpdateCheck,
	}

	out, err := s.runner.Run(ctx, cmd)
	if err != nil {
		return nil, err
	}

	// checkupdates exits 2 with no output when nothing is pending.
	if !out.Success() && (strings.TrimSpace(out.Stdout) != "" || strings.TrimSpace(out.Stderr) != "") {
		return nil, fmt.Errorf("%w: %s exited with code %d: %s", ErrNonZeroExit, cmd.Program, out.ExitCode, out.Tail(3))
	}

	return out.Lines(), nil
}

func (s *Summarizer) lastTransaction() (time.Time, bool, error) {
	f, err := os.Open(s.logFile)
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %v", ErrHistoryIO, err)
	}
	defer f.Close()

	return LastTransaction(f, func(line string, err error) {
		s.emit.Emit(StepHistoryParse, fmt.Sprintf("Skipping unparseable timestamp: %s", line))
		log.Debug().Err(err).Str("line", line).Msg("Unparseable log timestamp")
	})
}

// LastTransaction scans a pacman.log stream and returns the timestamp of the
// last "transaction completed" line whose timestamp parses. onBadTimestamp,
// if set, is called for every matching line that is skipped.
func LastTransaction(r io.Reader, onBadTimestamp func(line string, err error)) (time.Time, bool, error) {
	var (
		last  time.Time
		found bool
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, transactionMarker) {
			continue
		}

		ts, err := ParseLogTimestamp(line)
		if err != nil {
			if onBadTimestamp != nil {
				onBadTimestamp(line, err)
			}
			continue
		}
		last, found = ts, true
	}

	if err := scanner.Err(); err != nil {
		return last, found, fmt.Errorf("%w: %v", ErrHistoryIO, err)
	}
	return last, found, nil
}

// ParseLogTimestamp parses the leading "[...]" timestamp of a pacman.log line.
func ParseLogTimestamp(line string) (time.Time, error) {
	start := strings.IndexByte(line, '[')
	end := strings.IndexByte(line, ']')
	if start < 0 || end <= start {
		return time.Time{}, fmt.Errorf("%w: no bracketed timestamp", ErrParse)
	}

	raw := strings.TrimSpace(line[start+1 : end])
	if ts, err := time.Parse(logTimeLayout, raw); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrParse, raw)
}
