// Package wire defines the cross-boundary message types exchanged over
// the simulator link and their CBOR encoding.
package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// GraphicsOp enumerates the graphics sub-message operations. Only PAINT
// is defined; the field exists so the wire format can grow without a
// breaking change.
type GraphicsOp uint8

const (
	OpPaint GraphicsOp = 1
)

// SystemMessage mirrors the system-control event: a single boolean flag
// requesting shutdown.
type SystemMessage struct {
	Shutdown bool `cbor:"shutdown"`
}

// GraphicsMessage carries one full-screen image frame device→host.
type GraphicsMessage struct {
	OpType GraphicsOp `cbor:"op_type"`
	Width  uint16     `cbor:"width"`
	Height uint16     `cbor:"height"`
	Data   []byte     `cbor:"data"`
}

// Envelope is the top-level message carried inside one COWS frame. Either
// field may be absent; both are omitted from the encoded map when nil,
// which is the Go-native equivalent of protobuf's has-field semantics.
type Envelope struct {
	System   *SystemMessage   `cbor:"system,omitempty"`
	Graphics *GraphicsMessage `cbor:"graphics,omitempty"`
}

// Clear resets the envelope to its zero value in place, so a single
// preallocated Envelope can be reused across send cycles without leaking
// a stale sub-message into the next frame.
func (e *Envelope) Clear() {
	e.System = nil
	e.Graphics = nil
}

// Marshal serializes e to its wire byte form.
func Marshal(e *Envelope) ([]byte, error) {
	b, err := cbor.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("wire: marshal envelope: %w", err)
	}
	return b, nil
}

// Unmarshal parses buf into e, replacing any prior contents.
func Unmarshal(buf []byte, e *Envelope) error {
	if err := cbor.Unmarshal(buf, e); err != nil {
		return fmt.Errorf("wire: unmarshal envelope: %w", err)
	}
	return nil
}
