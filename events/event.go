// Package events implements the typed event bus: dispatchers stamp and
// enqueue events produced in-process, listeners consume them by kind, and
// a multiplexer lets a single goroutine wait on several kinds at once.
package events

// Kind identifies the variant an Event carries. It is the event's first
// logical field so callers can branch on it without inspecting the
// payload.
type Kind int

const (
	KindSystem Kind = iota
	KindGraphics
)

func (k Kind) String() string {
	switch k {
	case KindSystem:
		return "system"
	case KindGraphics:
		return "graphics"
	default:
		return "unknown"
	}
}

// SystemEvent requests a shutdown (Shutdown=true) or is a no-op
// notification otherwise.
type SystemEvent struct {
	Shutdown bool
}

// GraphicsEvent carries one full-screen RGB image frame, packed row-major
// as Width*Height*3 bytes.
type GraphicsEvent struct {
	Width  uint16
	Height uint16
	Image  []byte
}

// Event is a tagged union over the event kinds this bus carries. Kind is
// always set; exactly the matching payload pointer is non-nil. This is
// the Go-native stand-in for a C-style struct reinterpreted through a
// common header: the tag and payload travel together instead of being
// recovered by an unsafe cast.
type Event struct {
	Kind     Kind
	System   *SystemEvent
	Graphics *GraphicsEvent
}

// EventNotification is the lightweight record placed on the shared
// notification queue: just enough for a Multiplexer to route to the
// right Listener without touching the bulkier data queue.
type EventNotification struct {
	Kind Kind
}

// multiplexed declares, per kind, whether a Dispatcher must also post an
// EventNotification after enqueuing data. System events are consumed by a
// single dedicated waiter (the system manager) and so skip the
// notification queue; graphics events are multiplexed because the
// simulator process waits on several kinds through one Multiplexer. This
// is a compile-time array indexed by Kind, not a runtime hash lookup.
var multiplexed = [...]bool{
	KindSystem:   false,
	KindGraphics: true,
}

// IsMultiplexed reports whether kind posts an EventNotification after
// each dispatch.
func IsMultiplexed(kind Kind) bool {
	return multiplexed[int(kind)]
}
