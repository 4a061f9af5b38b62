package events

import (
	"fmt"

	"github.com/cubecore/simfw/queue"
)

// Multiplexer is a select-like primitive: it owns a consumer handle on
// the shared notification queue and a table of registered listeners, and
// lets a single goroutine block until any of them has data.
type Multiplexer struct {
	notify    *queue.Queue[EventNotification]
	listeners map[Kind]*Listener
}

// NewMultiplexer constructs a Multiplexer reading notifications from
// notify. AddListener must be called for every kind of interest before
// Select runs on another goroutine; registration itself is not
// synchronized against concurrent Select calls.
func NewMultiplexer(notify *queue.Queue[EventNotification]) *Multiplexer {
	return &Multiplexer{
		notify:    notify,
		listeners: make(map[Kind]*Listener),
	}
}

// AddListener registers l so Select can route notifications of its kind
// to it.
func (m *Multiplexer) AddListener(l *Listener) {
	m.listeners[l.Kind()] = l
}

// Select blocks on the notification queue until it sees a notification
// for a registered kind, silently dropping notifications for kinds this
// multiplexer has no listener for (the correct policy when several
// consumers share one notification channel, each handling a subset), and
// returns that kind's Listener.
func (m *Multiplexer) Select() (*Listener, error) {
	for {
		notif, err := m.notify.DequeueBlocking()
		if err != nil {
			return nil, fmt.Errorf("events: select: %w", err)
		}
		if l, ok := m.listeners[notif.Kind]; ok {
			return l, nil
		}
	}
}
