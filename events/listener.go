package events

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/cubecore/simfw/queue"
	"github.com/cubecore/simfw/wire"
)

// Listener is the per-kind consumer side of the bus.
type Listener struct {
	kind Kind
	data *queue.Queue[Event]
	log  *log.Logger
}

// NewListener constructs a Listener for kind backed by data.
func NewListener(kind Kind, data *queue.Queue[Event], logger *log.Logger) *Listener {
	if logger == nil {
		logger = log.Default()
	}
	return &Listener{kind: kind, data: data, log: logger}
}

// Kind reports which event kind this listener consumes, so a
// Multiplexer can route to it by table lookup.
func (l *Listener) Kind() Kind { return l.kind }

// Listen blocks until the next event arrives and returns it. It panics if
// the dequeued event's kind doesn't match this listener's kind: that can
// only happen if a Dispatcher enqueued onto the wrong queue, which is an
// invariant violation, not a runtime condition to recover from.
func (l *Listener) Listen() (Event, error) {
	ev, err := l.data.DequeueBlocking()
	if err != nil {
		return Event{}, fmt.Errorf("events: listen %s: %w", l.kind, err)
	}
	if ev.Kind != l.kind {
		panic(fmt.Sprintf("events: listener for %s received event of kind %s", l.kind, ev.Kind))
	}
	return ev, nil
}

// Get is the non-blocking variant of Listen; ok is false when the queue
// is currently empty.
func (l *Listener) Get() (ev Event, ok bool, err error) {
	ev, ok, err = l.data.DequeueNonblocking()
	if err != nil {
		return Event{}, false, fmt.Errorf("events: get %s: %w", l.kind, err)
	}
	if !ok {
		return Event{}, false, nil
	}
	if ev.Kind != l.kind {
		panic(fmt.Sprintf("events: listener for %s received event of kind %s", l.kind, ev.Kind))
	}
	return ev, true, nil
}

// ListenEncoded blocks for the next event and encodes it into out's
// sub-message for this listener's kind, leaving the rest of out
// untouched. It is the glue the simulator process's sending thread uses
// after the Multiplexer selects this listener.
func (l *Listener) ListenEncoded(out *wire.Envelope) error {
	ev, err := l.Listen()
	if err != nil {
		return err
	}
	return encodeInto(l.kind, ev, out)
}

func encodeInto(kind Kind, ev Event, out *wire.Envelope) error {
	switch kind {
	case KindSystem:
		if ev.System == nil {
			return fmt.Errorf("events: system event missing payload")
		}
		out.System = &wire.SystemMessage{Shutdown: ev.System.Shutdown}
		return nil
	case KindGraphics:
		if ev.Graphics == nil {
			return fmt.Errorf("events: graphics event missing payload")
		}
		out.Graphics = &wire.GraphicsMessage{
			OpType: wire.OpPaint,
			Width:  ev.Graphics.Width,
			Height: ev.Graphics.Height,
			Data:   ev.Graphics.Image,
		}
		return nil
	default:
		return fmt.Errorf("events: no wire encoding registered for kind %s", kind)
	}
}
