package executor

import (
	"bytes"
	"strings"
	"sync"
	"time"

	"pacdeck/internal/progress"
)

// Output is what a finished (or killed) command produced.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
	PID      int
	Duration time.Duration
}

// Success reports a zero exit status.
func (o *Output) Success() bool {
	return o != nil && o.ExitCode == 0
}

// Lines returns the non-blank stdout lines.
func (o *Output) Lines() []string {
	if o == nil {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(o.Stdout, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, strings.TrimRight(line, "\r"))
		}
	}
	return lines
}

// Combined returns stdout followed by stderr.
func (o *Output) Combined() string {
	if o == nil {
		return ""
	}
	switch {
	case o.Stdout == "":
		return o.Stderr
	case o.Stderr == "":
		return o.Stdout
	}
	return strings.TrimRight(o.Stdout, "\n") + "\n" + o.Stderr
}

// Tail returns the last n non-blank lines of the combined output.
func (o *Output) Tail(n int) string {
	var lines []string
	for _, line := range strings.Split(o.Combined(), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// lineWriter captures one output stream and forwards each completed line as a
// progress event while the process is still running.
type lineWriter struct {
	mu      sync.Mutex
	emit    *progress.Emitter
	step    string
	partial bytes.Buffer
	all     strings.Builder
}

func newLineWriter(emit *progress.Emitter, step string) *lineWriter {
	return &lineWriter{emit: emit, step: step}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.all.Write(p)
	w.partial.Write(p)
	for {
		data := w.partial.Bytes()
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimRight(string(data[:i]), "\r")
		w.partial.Next(i + 1)
		w.emit.Emit(w.step, line)
	}
	return len(p), nil
}

// Flush emits a trailing line that had no newline.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.partial.Len() > 0 {
		w.emit.Emit(w.step, strings.TrimRight(w.partial.String(), "\r"))
		w.partial.Reset()
	}
}

func (w *lineWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.all.String()
}
