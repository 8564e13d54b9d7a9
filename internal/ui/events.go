package ui

import (
	"fmt"
	"io"
	"sync"

	"pacdeck/internal/progress"
)

// EventPrinter is a progress.Sink that prints each event as a colored line.
type EventPrinter struct {
	mu       sync.Mutex
	w        io.Writer
	showTime bool
}

// NewEventPrinter creates an EventPrinter writing to w.
func NewEventPrinter(w io.Writer, showTime bool) *EventPrinter {
	return &EventPrinter{w: w, showTime: showTime}
}

// Publish implements progress.Sink.
func (p *EventPrinter) Publish(_ string, ev progress.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	prefix := ""
	if p.showTime {
		prefix = Muted.Sprint(ev.Timestamp.Format("15:04:05")) + " "
	}

	var err error
	switch ev.Step {
	case progress.StepStdout:
		_, err = fmt.Fprintf(p.w, "%s  %s\n", prefix, ev.Detail)
	case progress.StepStderr:
		_, err = fmt.Fprintf(p.w, "%s  %s\n", prefix, StreamErr.Sprint(ev.Detail))
	default:
		_, err = fmt.Fprintf(p.w, "%s%s %s\n", prefix, stepColor(ev.Step).Sprintf("[%s]", ev.Step), ev.Detail)
	}
	return err
}
