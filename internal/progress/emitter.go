package progress

import (
	"time"

	"pacdeck/internal/logging"
)

var log = logging.GetLogger("progress")

// Emitter stamps events and publishes them to a sink. Publish failures are
// logged and dropped; progress is best-effort and never aborts an operation.
type Emitter struct {
	sink    Sink
	channel string
	now     func() time.Time
}

// NewEmitter creates an emitter publishing on channel. An empty channel name
// falls back to DefaultChannel and a nil sink discards events.
func NewEmitter(sink Sink, channel string) *Emitter {
	if sink == nil {
		sink = Discard
	}
	if channel == "" {
		channel = DefaultChannel
	}
	return &Emitter{sink: sink, channel: channel, now: time.Now}
}

// Channel returns the channel events are published on.
func (e *Emitter) Channel() string {
	if e == nil {
		return ""
	}
	return e.channel
}

// Emit publishes {step, detail, now()}. Safe to call on a nil Emitter.
func (e *Emitter) Emit(step, detail string) {
	if e == nil {
		return
	}
	ev := Event{Step: step, Detail: detail, Timestamp: e.now()}
	if err := e.sink.Publish(e.channel, ev); err != nil {
		log.Debug().Err(err).Str("step", step).Msg("Dropped progress event")
	}
}
