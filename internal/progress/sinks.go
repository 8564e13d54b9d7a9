package progress

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// JSONSink writes one JSON object per event to w.
type JSONSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

type jsonLine struct {
	Channel   string    `json:"channel"`
	Step      string    `json:"step"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}

// NewJSONSink creates a sink writing JSON lines to w.
func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{enc: json.NewEncoder(w)}
}

// Publish encodes ev as a single line.
func (s *JSONSink) Publish(channel string, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(jsonLine{
		Channel:   channel,
		Step:      ev.Step,
		Detail:    ev.Detail,
		Timestamp: ev.Timestamp,
	})
}

// Recorder keeps every published event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Publish appends ev.
func (r *Recorder) Publish(_ string, ev Event) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

// Events returns a copy of the recorded events in publish order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Steps returns the step tags of the recorded events.
func (r *Recorder) Steps() []string {
	events := r.Events()
	steps := make([]string, len(events))
	for i, ev := range events {
		steps[i] = ev.Step
	}
	return steps
}

// Details returns the details recorded for one step tag.
func (r *Recorder) Details(step string) []string {
	var details []string
	for _, ev := range r.Events() {
		if ev.Step == step {
			details = append(details, ev.Detail)
		}
	}
	return details
}

// Reset forgets every recorded event.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
