// Package progress carries timestamped progress notifications from running
// package operations to whoever is listening.
package progress

import (
	"errors"
	"time"
)

// DefaultChannel is the channel name progress events are published on.
const DefaultChannel = "pacman-progress"

// Step tags emitted by the runner for subprocess output.
const (
	StepStdout = "STDOUT"
	StepStderr = "STDERR"
)

// ErrClosed is returned by sinks that no longer accept events.
var ErrClosed = errors.New("progress sink closed")

// Event is a single progress notification.
type Event struct {
	Step      string    `json:"step" yaml:"step"`
	Detail    string    `json:"detail" yaml:"detail"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Sink receives published events. Implementations must be safe for concurrent
// use and must never block the publisher on a slow consumer.
type Sink interface {
	Publish(channel string, ev Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(channel string, ev Event) error

// Publish calls f(channel, ev).
func (f SinkFunc) Publish(channel string, ev Event) error {
	return f(channel, ev)
}

// Discard is a sink that drops everything.
var Discard Sink = SinkFunc(func(string, Event) error { return nil })

// Multi publishes to every sink and returns the first error.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(channel string, ev Event) error {
		var first error
		for _, s := range sinks {
			if err := s.Publish(channel, ev); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}
