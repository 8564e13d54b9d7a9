package progress

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitterStampsAndPublishes(t *testing.T) {
	rec := NewRecorder()
	em := NewEmitter(rec, "")
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	em.now = func() time.Time { return fixed }

	em.Emit("Installation", "Starting Installation...")

	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "Installation", events[0].Step)
	assert.Equal(t, "Starting Installation...", events[0].Detail)
	assert.Equal(t, fixed, events[0].Timestamp)
	assert.Equal(t, DefaultChannel, em.Channel())
}

func TestEmitterSwallowsPublishErrors(t *testing.T) {
	failing := SinkFunc(func(string, Event) error { return errors.New("sink down") })
	em := NewEmitter(failing, "custom")

	assert.NotPanics(t, func() { em.Emit("STDOUT", "line") })
	assert.Equal(t, "custom", em.Channel())
}

func TestNilEmitterIsNoop(t *testing.T) {
	var em *Emitter
	assert.NotPanics(t, func() { em.Emit("STDOUT", "line") })
	assert.Equal(t, "", em.Channel())
}

func TestBroadcasterDeliversToMatchingSubscribers(t *testing.T) {
	b := NewBroadcaster()
	all, unsubAll := b.Subscribe("", 4)
	defer unsubAll()
	pacman, unsubPacman := b.Subscribe(DefaultChannel, 4)
	defer unsubPacman()

	require.NoError(t, b.Publish(DefaultChannel, Event{Step: "A"}))
	require.NoError(t, b.Publish("other", Event{Step: "B"}))

	assert.Equal(t, "A", (<-all).Step)
	assert.Equal(t, "B", (<-all).Step)
	assert.Equal(t, "A", (<-pacman).Step)
	select {
	case ev := <-pacman:
		t.Fatalf("unexpected event on filtered subscriber: %+v", ev)
	default:
	}
}

func TestBroadcasterNeverBlocksOnFullSubscriber(t *testing.T) {
	b := NewBroadcaster()
	_, unsub := b.Subscribe("", 1)
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			_ = b.Publish(DefaultChannel, Event{Step: "STDOUT"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
	assert.Equal(t, uint64(99), b.Dropped())
}

func TestBroadcasterConcurrentPublish(t *testing.T) {
	b := NewBroadcaster()
	ch, unsub := b.Subscribe("", 1000)
	defer unsub()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = b.Publish(DefaultChannel, Event{Step: "STDOUT"})
			}
		}()
	}
	wg.Wait()

	assert.Len(t, ch, 500)
}

func TestBroadcasterClose(t *testing.T) {
	b := NewBroadcaster()
	ch, unsub := b.Subscribe("", 1)

	b.Close()
	_, ok := <-ch
	assert.False(t, ok, "subscriber channel should be closed")
	assert.ErrorIs(t, b.Publish(DefaultChannel, Event{}), ErrClosed)
	assert.NotPanics(t, unsub)
	assert.Equal(t, 0, b.Subscribers())

	late, _ := b.Subscribe("", 1)
	_, ok = <-late
	assert.False(t, ok)
}

func TestUnsubscribeTwice(t *testing.T) {
	b := NewBroadcaster()
	_, unsub := b.Subscribe("", 1)
	assert.Equal(t, 1, b.Subscribers())
	unsub()
	assert.NotPanics(t, unsub)
	assert.Equal(t, 0, b.Subscribers())
}

func TestJSONSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONSink(&buf)
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, sink.Publish(DefaultChannel, Event{Step: "STDOUT", Detail: "hello", Timestamp: ts}))
	require.NoError(t, sink.Publish(DefaultChannel, Event{Step: "STDERR", Detail: "oops", Timestamp: ts}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &got))
	assert.Equal(t, DefaultChannel, got["channel"])
	assert.Equal(t, "STDOUT", got["step"])
	assert.Equal(t, "hello", got["detail"])
}

func TestMultiPublishesToAll(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	failing := SinkFunc(func(string, Event) error { return errors.New("boom") })

	err := Multi(a, failing, b).Publish(DefaultChannel, Event{Step: "X"})
	assert.EqualError(t, err, "boom")
	assert.Equal(t, []string{"X"}, a.Steps())
	assert.Equal(t, []string{"X"}, b.Steps())
}

func TestRecorderDetails(t *testing.T) {
	rec := NewRecorder()
	_ = rec.Publish("", Event{Step: "STDOUT", Detail: "a"})
	_ = rec.Publish("", Event{Step: "STDERR", Detail: "b"})
	_ = rec.Publish("", Event{Step: "STDOUT", Detail: "c"})

	assert.Equal(t, []string{"a", "c"}, rec.Details("STDOUT"))
	rec.Reset()
	assert.Empty(t, rec.Events())
}
