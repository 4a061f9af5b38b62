package events

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/cubecore/simfw/internal/metrics"
	"github.com/cubecore/simfw/queue"
	"github.com/cubecore/simfw/wire"
)

// Dispatcher is the per-kind producer side of the bus: it stamps the
// event's kind, enqueues it on the typed data queue, and — when the kind
// is multiplexed — enqueues a matching EventNotification afterward. Data
// is always enqueued before the notification; reversing that order would
// let a waiting consumer wake and find the data queue momentarily empty.
type Dispatcher struct {
	kind            Kind
	data            *queue.Queue[Event]
	notify          *queue.Queue[EventNotification]
	multiplexed     bool
	multiplexForced bool
	log             *log.Logger
	metrics         *metrics.Metrics
}

// SetMetrics wires optional Prometheus instrumentation into this
// dispatcher. A nil argument (the default) disables it.
func (d *Dispatcher) SetMetrics(m *metrics.Metrics) {
	d.metrics = m
}

// NewDispatcher constructs a Dispatcher for kind, wired to data and (when
// the kind's multiplex-table entry is true) notify. Pass a nil notify
// queue for a kind that the table marks unmultiplexed.
func NewDispatcher(kind Kind, data *queue.Queue[Event], notify *queue.Queue[EventNotification], logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{
		kind:        kind,
		data:        data,
		notify:      notify,
		multiplexed: IsMultiplexed(kind),
		log:         logger,
	}
}

// ForceMultiplex overrides the compile-time multiplex table for this
// instance, so unit tests can exercise either path (e.g. substitute a nil
// notification queue and force multiplexing off) without a real
// notification queue present.
func (d *Dispatcher) ForceMultiplex(on bool) {
	d.multiplexed = on
	d.multiplexForced = true
}

// Forced reports whether ForceMultiplex has overridden this dispatcher's
// compile-time multiplex setting, so a test can confirm the override it
// requested actually took effect rather than having been a no-op.
func (d *Dispatcher) Forced() bool {
	return d.multiplexForced
}

// Dispatch stamps ev.Kind and enqueues it, then posts a notification if
// this kind is multiplexed. Enqueue failure is reported without retrying,
// since the consumer is presumed dead. Notification failure after a
// successful data enqueue is process-fatal: it would otherwise strand
// the data update no differently than any racing producer, but silently
// violates the data-then-notify invariant every multiplexed consumer
// depends on.
func (d *Dispatcher) Dispatch(ev Event) error {
	ev.Kind = d.kind
	if err := d.data.EnqueueBlocking(ev); err != nil {
		d.metrics.ObserveDispatch(d.kind.String(), false)
		return fmt.Errorf("events: dispatch %s: %w", d.kind, err)
	}
	d.metrics.ObserveDispatch(d.kind.String(), true)
	if d.multiplexed {
		if d.notify == nil {
			d.log.Fatal("multiplexed kind has no notification queue", "kind", d.kind)
		}
		if err := d.notify.EnqueueBlocking(EventNotification{Kind: d.kind}); err != nil {
			d.log.Fatal("notification enqueue failed after data enqueue succeeded", "kind", d.kind, "err", err)
		}
	}
	return nil
}

// DispatchEncoded decodes env into this kind's event, if present, and
// dispatches it. It reports ok=false when env carries no sub-message for
// this kind, which is not an error: the receiving thread inspects every
// registered kind on each incoming envelope.
func (d *Dispatcher) DispatchEncoded(env *wire.Envelope) (ok bool, err error) {
	switch d.kind {
	case KindSystem:
		if env.System == nil {
			return false, nil
		}
		return true, d.Dispatch(Event{System: &SystemEvent{Shutdown: env.System.Shutdown}})
	case KindGraphics:
		if env.Graphics == nil {
			return false, nil
		}
		img := append([]byte(nil), env.Graphics.Data...)
		return true, d.Dispatch(Event{Graphics: &GraphicsEvent{
			Width:  env.Graphics.Width,
			Height: env.Graphics.Height,
			Image:  img,
		}})
	default:
		d.log.Fatal("dispatch_encoded called for unmapped kind", "kind", d.kind)
		return false, nil
	}
}
