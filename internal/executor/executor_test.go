package executor

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pacdeck/internal/progress"
)

func newRecordingExecutor() (*Executor, *progress.Recorder) {
	rec := progress.NewRecorder()
	return New(progress.NewEmitter(rec, "")), rec
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "pacman", Command{Program: "pacman"}.String())
	assert.Equal(t, "pacman -Q vim", Command{Program: "pacman", Args: []string{"-Q", "vim"}}.String())
}

func TestRunCapturesAndStreamsOutput(t *testing.T) {
	exec, rec := newRecordingExecutor()

	out, err := exec.Run(context.Background(), Command{
		Program: "sh",
		Args:    []string{"-c", "echo one; echo two; echo warn >&2"},
		Timeout: 5 * time.Second,
		Tag:     "TEST",
	})
	require.NoError(t, err)
	assert.True(t, out.Success())
	assert.Equal(t, "one\ntwo\n", out.Stdout)
	assert.Equal(t, "warn\n", out.Stderr)
	assert.Equal(t, []string{"one", "two"}, out.Lines())
	assert.Positive(t, out.PID)

	assert.Equal(t, []string{"Running: sh -c echo one; echo two; echo warn >&2"}, rec.Details("TEST"))
	assert.Equal(t, []string{"one", "two"}, rec.Details(progress.StepStdout))
	assert.Equal(t, []string{"warn"}, rec.Details(progress.StepStderr))
}

func TestRunFlushesTrailingPartialLine(t *testing.T) {
	exec, rec := newRecordingExecutor()

	out, err := exec.Run(context.Background(), Command{
		Program: "printf",
		Args:    []string{"no-newline"},
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "no-newline", out.Stdout)
	assert.Equal(t, []string{"no-newline"}, rec.Details(progress.StepStdout))
}

func TestRunNonZeroExitIsNotAnError(t *testing.T) {
	exec, _ := newRecordingExecutor()

	out, err := exec.Run(context.Background(), Command{
		Program: "sh",
		Args:    []string{"-c", "echo oops >&2; exit 3"},
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	assert.False(t, out.Success())
	assert.Equal(t, 3, out.ExitCode)
	assert.Equal(t, "oops", out.Tail(5))
}

func TestRunSpawnFailure(t *testing.T) {
	exec, _ := newRecordingExecutor()

	out, err := exec.Run(context.Background(), Command{
		Program: "/nonexistent/pacdeck-missing-binary",
		Timeout: 5 * time.Second,
	})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, ErrSpawnFailed))
	assert.False(t, errors.Is(err, ErrTimeout))

	var runErr *RunError
	require.True(t, errors.As(err, &runErr))
	assert.Equal(t, "/nonexistent/pacdeck-missing-binary", runErr.Command.Program)
}

func TestRunTimeoutKillsProcess(t *testing.T) {
	exec, _ := newRecordingExecutor()

	start := time.Now()
	out, err := exec.Run(context.Background(), Command{
		Program: "sleep",
		Args:    []string{"30"},
		Timeout: 200 * time.Millisecond,
	})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Contains(t, err.Error(), "timed out after 200ms")
	assert.Less(t, elapsed, 5*time.Second)

	require.NotNil(t, out)
	assert.Equal(t, -1, out.ExitCode)

	alive, perr := process.PidExists(int32(out.PID))
	require.NoError(t, perr)
	assert.False(t, alive, "timed-out process must not survive")
}

// processGone reports whether pid has exited. A zombie counts as gone: it was
// killed and is only waiting for its new parent to reap it.
func processGone(pid int32) bool {
	p, err := process.NewProcess(pid)
	if err != nil {
		return true
	}
	status, err := p.Status()
	if err != nil {
		return true
	}
	for _, s := range status {
		if s == process.Zombie {
			return true
		}
	}
	return false
}

func backgroundPID(t *testing.T, out *Output) int32 {
	t.Helper()
	require.NotNil(t, out)
	pid, err := strconv.Atoi(strings.TrimSpace(out.Stdout))
	require.NoError(t, err, "stdout %q", out.Stdout)
	return int32(pid)
}

func TestRunTimeoutKillsDescendants(t *testing.T) {
	exec, _ := newRecordingExecutor()

	start := time.Now()
	out, err := exec.Run(context.Background(), Command{
		Program: "sh",
		Args:    []string{"-c", "sleep 30 & echo $!; sleep 30"},
		Timeout: 500 * time.Millisecond,
	})
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Less(t, time.Since(start), 5*time.Second)

	pid := backgroundPID(t, out)
	assert.Eventually(t, func() bool { return processGone(pid) }, 2*time.Second, 20*time.Millisecond,
		"background sleep %d survived the timeout", pid)
}

func TestRunKillsDescendantsAfterCleanExit(t *testing.T) {
	exec, _ := newRecordingExecutor()
	exec.SetWaitDelay(100 * time.Millisecond)

	start := time.Now()
	out, err := exec.Run(context.Background(), Command{
		Program: "sh",
		Args:    []string{"-c", "sleep 30 & echo $!"},
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, out.ExitCode)
	assert.Less(t, time.Since(start), 3*time.Second)

	pid := backgroundPID(t, out)
	assert.Eventually(t, func() bool { return processGone(pid) }, 2*time.Second, 20*time.Millisecond,
		"background sleep %d outlived Run", pid)
}

func TestRunStreamsLinesBeforeExit(t *testing.T) {
	type arrival struct {
		ev progress.Event
		at time.Time
	}
	lines := make(chan arrival, 16)
	sink := progress.SinkFunc(func(_ string, ev progress.Event) error {
		if ev.Step == progress.StepStdout {
			lines <- arrival{ev: ev, at: time.Now()}
		}
		return nil
	})
	exec := New(progress.NewEmitter(sink, ""))

	start := time.Now()
	_, err := exec.Run(context.Background(), Command{
		Program: "sh",
		Args:    []string{"-c", "echo first; sleep 2; echo second"},
		Timeout: 10 * time.Second,
	})
	finished := time.Now()
	require.NoError(t, err)
	require.GreaterOrEqual(t, finished.Sub(start), 2*time.Second)

	first := <-lines
	assert.Equal(t, "first", first.ev.Detail)
	assert.Less(t, first.at.Sub(start), time.Second, "first line was not delivered while the command ran")
	assert.Greater(t, finished.Sub(first.at), time.Second)

	second := <-lines
	assert.Equal(t, "second", second.ev.Detail)
}

func TestRunCallerCancel(t *testing.T) {
	exec, _ := newRecordingExecutor()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	out, err := exec.Run(ctx, Command{
		Program: "sleep",
		Args:    []string{"30"},
		Timeout: 10 * time.Second,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCanceled))
	assert.False(t, errors.Is(err, ErrTimeout))
	require.NotNil(t, out)
	assert.Equal(t, -1, out.ExitCode)
}

func TestRunAlreadyCanceledContext(t *testing.T) {
	exec, _ := newRecordingExecutor()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exec.Run(ctx, Command{Program: "sleep", Args: []string{"10"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCanceled))
}

func TestRunDefaultTimeout(t *testing.T) {
	exec := New(nil)

	out, err := exec.Run(context.Background(), Command{Program: "true"})
	require.NoError(t, err)
	assert.Equal(t, 0, out.ExitCode)
}

func TestOutputTail(t *testing.T) {
	out := &Output{Stdout: "a\nb\n\nc\n", Stderr: "d\ne\n"}
	assert.Equal(t, "d\ne", out.Tail(2))
	assert.Equal(t, "a\nb\nc\nd\ne", out.Tail(0))

	var none *Output
	assert.Empty(t, none.Tail(3))
	assert.False(t, none.Success())
}
